package executor

import (
	"fmt"
	"regexp"
	"strings"
)

// RegexFilters selects checks by ID.
type RegexFilters struct {
	MustMatch    RegexList
	MustNotMatch RegexList
}

// Match reports whether the check id passes both lists.
func (r RegexFilters) Match(id string) bool {
	return (!r.MustMatch.IsDefined() || r.MustMatch.AnyMatch(id)) &&
		!r.MustNotMatch.AnyMatch(id)
}

// MatchSub reports whether sub-check id of parent passes the filters. It is
// selected when its parent is, or when --run names it directly, and --skip
// can drop it either way.
func (r RegexFilters) MatchSub(parent, id string) bool {
	if r.MustNotMatch.AnyMatch(id) {
		return false
	}
	return r.Match(parent) || r.MustMatch.AnyMatch(id)
}

// Describe returns a one-line summary of the active filters, or "".
func (r RegexFilters) Describe() string {
	var parts []string
	if r.MustMatch.IsDefined() {
		parts = append(parts, "skip any not matching "+r.MustMatch.String())
	}
	if r.MustNotMatch.IsDefined() {
		parts = append(parts, "skip any matching "+r.MustNotMatch.String())
	}
	return strings.Join(parts, "; ")
}

// RegexList is an ordered set of regular expressions; Set appends one.
type RegexList struct {
	patterns []*regexp.Regexp
}

func (r RegexList) String() string {
	var ss []string
	for _, p := range r.patterns {
		ss = append(ss, `"`+p.String()+`"`)
	}
	return strings.Join(ss, " or ")
}

// Set is called by the command line parser
func (r *RegexList) Set(value string) error {
	rx, err := regexp.Compile(value)
	if err != nil {
		return fmt.Errorf("invalid regex: %w", err)
	}
	r.patterns = append(r.patterns, rx)
	return nil
}

func (r RegexList) IsDefined() bool {
	return len(r.patterns) != 0
}

func (r RegexList) AnyMatch(s string) bool {
	for _, p := range r.patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}
