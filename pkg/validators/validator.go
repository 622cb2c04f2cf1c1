// Package validators defines the delegated validation capability and its
// implementations. A Validator takes the document and a set of options and
// returns a success flag plus the violations it found. A returned error means
// the validator itself failed, which is distinct from finding violations.
package validators

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"pagecheck/pkg/failure"
	"pagecheck/pkg/profile"
)

// Document is the input handed to a validator.
type Document struct {
	Path    string
	Content []byte
}

// Options mirrors the flags recognized by the delegated validators.
type Options struct {
	LocalOnly bool   `json:"localOnly"`
	Debug     bool   `json:"debug"`
	Quiet     bool   `json:"quiet"`
	WCAG      string `json:"wcag,omitempty"`
}

// Violation is a single problem reported by a validator.
type Violation struct {
	Rule     string   `json:"rule"`
	Message  string   `json:"message"`
	Severity string   `json:"severity,omitempty"`
	Line     int      `json:"line,omitempty"`
	Column   int      `json:"column,omitempty"`
	Extract  string   `json:"extract,omitempty"`
	Selector string   `json:"selector,omitempty"`
	HelpURL  string   `json:"help_url,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

func (v Violation) String() string {
	loc := ""
	if v.Line > 0 {
		loc = fmt.Sprintf(" (line %d", v.Line)
		if v.Column > 0 {
			loc += fmt.Sprintf(", column %d", v.Column)
		}
		loc += ")"
	} else if v.Selector != "" {
		loc = fmt.Sprintf(" (%s)", v.Selector)
	}
	return fmt.Sprintf("%s: %s%s", v.Rule, v.Message, loc)
}

// AccessibilityResult holds the accessibility-specific outcome.
type AccessibilityResult struct {
	Level      string      `json:"level"`
	Violations []Violation `json:"violations"`
	Passes     []string    `json:"passes,omitempty"`
}

// Result is the outcome of a validator call.
type Result struct {
	Success       bool                 `json:"success"`
	Errors        []Violation          `json:"errors"`
	Warnings      []Violation          `json:"warnings,omitempty"`
	Accessibility *AccessibilityResult `json:"accessibility,omitempty"`
}

// Validator is a markup or accessibility validator.
type Validator interface {
	Name() string
	Validate(ctx context.Context, doc Document, opts Options) (*Result, error)
}

// Severity values.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// OptionsFrom converts the profile's validator settings.
func OptionsFrom(cfg profile.ValidatorConfig) Options {
	opts := Options{
		LocalOnly: true,
		Quiet:     true,
		Debug:     cfg.Debug,
		WCAG:      cfg.WCAG,
	}
	if cfg.LocalOnly != nil {
		opts.LocalOnly = *cfg.LocalOnly
	}
	if cfg.Quiet != nil {
		opts.Quiet = *cfg.Quiet
	}
	return opts
}

// New builds the validator described by cfg.
func New(cfg profile.ValidatorConfig) (Validator, error) {
	switch cfg.Type {
	case profile.ValidatorLocal, "":
		return NewMarkupValidator(), nil
	case profile.ValidatorNu:
		retry, err := RetryConfigFrom(cfg)
		if err != nil {
			return nil, failure.NewConfigError("nu validator: %v", err)
		}
		v := NewNuValidator(cfg.Endpoint, nil)
		v.Retry = retry
		return v, nil
	case profile.ValidatorCommand:
		if len(cfg.Command) == 0 {
			return nil, failure.NewConfigError("command validator requires a command")
		}
		return NewCommandValidator(cfg.Command), nil
	case profile.ValidatorA11y:
		return NewAccessibilityAuditor(), nil
	default:
		return nil, failure.NewConfigError("unknown validator type '%s'", cfg.Type)
	}
}

// defaultHTTPClient returns the client used for remote validation.
func defaultHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return fmt.Errorf("stopped after 10 redirects")
			}
			return nil
		},
	}
}
