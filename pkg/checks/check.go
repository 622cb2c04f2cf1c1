package checks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"pagecheck/pkg/failure"
	"pagecheck/pkg/fixture"
	"pagecheck/pkg/profile"
	"pagecheck/pkg/validators"
)

// Env is what every check in a run can see. The fixture is shared and
// read-only; each call to T.Document parses a new DOM.
type Env struct {
	Context       context.Context
	Fixture       *fixture.Fixture
	Profile       *profile.Profile
	Markup        validators.Validator
	Accessibility validators.Validator
}

// Outcome is the result of running one check or sub-check.
type Outcome struct {
	ID         string
	Failed     bool
	Skipped    bool
	SkipReason string
	Kind       failure.Kind
	Errors     []string
	Violations []validators.Violation
	Subs       []Outcome
}

// T is passed to a check body. It satisfies testify's require.TestingT, so a
// check can use assert and require directly: Errorf records a failure and
// FailNow stops the check.
type T struct {
	env     *Env
	id      string
	outcome Outcome
}

// Run executes fn as the check id and recovers from FailNow, Skip and panics.
func Run(env *Env, id string, fn Func) Outcome {
	if env.Context == nil {
		env.Context = context.Background()
	}
	t := &T{env: env, id: id, outcome: Outcome{ID: id}}
	t.run(fn)
	return t.outcome
}

func (t *T) run(fn Func) {
	defer func() {
		if r := recover(); r != nil {
			if t.outcome.Skipped {
				return
			}
			if _, ok := r.(*T); ok {
				if len(t.outcome.Errors) == 0 {
					t.fail(failure.AssertionFailed, "check failed with no failure message")
				}
				return
			}
			slog.Error("Check panicked", "check", t.id, "panic", r)
			t.fail(failure.AssertionFailed, fmt.Sprintf("unexpected panic in check: %v\n%s", r, debug.Stack()))
		}
	}()
	fn(t)
}

// ID returns the check ID, including the sub-check path.
func (t *T) ID() string { return t.id }

// Context is cancelled when the suite deadline passes.
func (t *T) Context() context.Context { return t.env.Context }

func (t *T) Fixture() *fixture.Fixture { return t.env.Fixture }

func (t *T) Profile() *profile.Profile { return t.env.Profile }

// Expect is shorthand for the profile's expectations.
func (t *T) Expect() profile.Expect { return t.env.Profile.Expect }

// Document parses a fresh DOM from the fixture, stopping the check if that fails.
func (t *T) Document() *goquery.Document {
	doc, err := t.env.Fixture.Document()
	if err != nil {
		t.Fatal(fmt.Errorf("failed to parse fixture: %w", err))
	}
	return doc
}

// Errorf records an assertion failure and lets the check continue.
func (t *T) Errorf(format string, args ...interface{}) {
	msg := conciseMessage(fmt.Sprintf(format, args...))
	slog.Debug("Check assertion failed", "check", t.id, "message", msg)
	t.fail(failure.AssertionFailed, msg)
}

// FailNow stops the check. It must be called from the check's goroutine.
func (t *T) FailNow() {
	t.outcome.Failed = true
	panic(t)
}

// Helper exists so testify can mark helper frames; traces are not reported.
func (t *T) Helper() {}

// Fatal records err with its failure kind and stops the check.
func (t *T) Fatal(err error) {
	kind := failure.KindOf(err)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = failure.Timeout
	case kind == 0:
		kind = failure.AssertionFailed
	}
	t.fail(kind, err.Error())
	t.FailNow()
}

// Skip marks the check as skipped and stops it.
func (t *T) Skip(reason string) {
	t.outcome.Skipped = true
	t.outcome.SkipReason = reason
	panic(t)
}

// AddViolations attaches validator findings to the result.
func (t *T) AddViolations(vs []validators.Violation) {
	t.outcome.Violations = append(t.outcome.Violations, vs...)
}

// Run executes fn as a sub-check reported under ID "<id>/<name>". A failing
// sub-check does not stop its siblings or the parent.
func (t *T) Run(name string, fn Func) bool {
	sub := &T{env: t.env, id: t.id + "/" + name}
	sub.outcome.ID = sub.id
	sub.run(fn)
	t.outcome.Subs = append(t.outcome.Subs, sub.outcome)
	return !sub.outcome.Failed
}

func (t *T) fail(kind failure.Kind, msg string) {
	t.outcome.Failed = true
	if t.outcome.Kind == 0 {
		t.outcome.Kind = kind
	}
	t.outcome.Errors = append(t.outcome.Errors, msg)
}

// conciseMessage reduces testify's labelled failure output to the failure
// text and any user message, dropping the error trace.
func conciseMessage(raw string) string {
	sections := map[string][]string{}
	var current string
	for _, line := range strings.Split(raw, "\n") {
		if !strings.HasPrefix(line, "\t") {
			if current != "" && strings.TrimSpace(line) != "" {
				sections[current] = append(sections[current], line)
			}
			continue
		}
		head, content, found := strings.Cut(line[1:], "\t")
		if !found {
			continue
		}
		if label := strings.TrimSpace(head); strings.HasSuffix(label, ":") {
			current = strings.TrimSuffix(label, ":")
		}
		if current != "" {
			sections[current] = append(sections[current], content)
		}
	}

	errText := strings.TrimSpace(strings.Join(sections["Error"], "\n"))
	if errText == "" {
		return strings.TrimSpace(raw)
	}
	if msg := strings.TrimSpace(strings.Join(sections["Messages"], " ")); msg != "" {
		return msg + ": " + errText
	}
	return errText
}
