// Package executor orchestrates a pagecheck run.
// This file contains the main Execute function which loads the fixture once,
// runs the selected checks one after another under a single suite deadline,
// and collects one result per check.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"pagecheck/pkg/checks"
	"pagecheck/pkg/failure"
	"pagecheck/pkg/fixture"
	"pagecheck/pkg/profile"
	"pagecheck/pkg/validators"
)

// ExecutionResult represents the outcome of a run
type ExecutionResult struct {
	RunID        string         `json:"run_id"`
	ProfileID    string         `json:"profile_id"`
	FixturePath  string         `json:"fixture"`
	Success      bool           `json:"success"`
	StartTime    time.Time      `json:"start_time"`
	EndTime      time.Time      `json:"end_time"`
	Duration     float64        `json:"duration"` // seconds
	CheckResults []*CheckResult `json:"checks"`
	SetupError   error          `json:"-"`
}

// CheckResult represents the outcome of one check or sub-check
type CheckResult struct {
	ID          string                 `json:"id"`
	Group       string                 `json:"group"`
	Description string                 `json:"description,omitempty"`
	Success     bool                   `json:"success"`
	Skipped     bool                   `json:"skipped,omitempty"`
	SkipReason  string                 `json:"skip_reason,omitempty"`
	Kind        string                 `json:"kind,omitempty"`
	StartTime   time.Time              `json:"start_time"`
	Duration    float64                `json:"duration"` // seconds
	Errors      []string               `json:"errors,omitempty"`
	Violations  []validators.Violation `json:"violations,omitempty"`
}

// Failed reports whether the check ran and did not pass.
func (c *CheckResult) Failed() bool {
	return !c.Success && !c.Skipped
}

// OK reports whether the run completed and no check failed.
func (r *ExecutionResult) OK() bool {
	if r.SetupError != nil {
		return false
	}
	for _, c := range r.CheckResults {
		if c.Failed() {
			return false
		}
	}
	return true
}

// Counts returns the number of passed, failed and skipped results.
func (r *ExecutionResult) Counts() (passed, failed, skipped int) {
	for _, c := range r.CheckResults {
		switch {
		case c.Skipped:
			skipped++
		case c.Success:
			passed++
		default:
			failed++
		}
	}
	return passed, failed, skipped
}

// ExecutorOptions provides configuration options for the executor
type ExecutorOptions struct {
	// Timeout bounds the whole suite. Zero means no deadline.
	Timeout  time.Duration
	Filters  RegexFilters
	Registry *checks.Registry
	Loader   *fixture.Loader
	// Markup and Accessibility override the validators built from the profile.
	Markup        validators.Validator
	Accessibility validators.Validator
}

const DefaultTimeout = 10 * time.Second

// DefaultOptions returns sensible default executor options
func DefaultOptions() *ExecutorOptions {
	return &ExecutorOptions{
		Timeout:  DefaultTimeout,
		Registry: checks.DefaultRegistry,
	}
}

// Execute runs every check the profile selects against its fixture. The
// returned error is non-nil only when the run could not start: an invalid
// profile, an unknown check, a validator that cannot be built, or an
// unavailable fixture. In the last case every selected check is reported
// as skipped.
func Execute(ctx context.Context, p *profile.Profile, options *ExecutorOptions) (*ExecutionResult, error) {
	if options == nil {
		options = DefaultOptions()
	}
	registry := options.Registry
	if registry == nil {
		registry = checks.DefaultRegistry
	}

	result := &ExecutionResult{
		RunID:       uuid.NewString(),
		ProfileID:   p.Metadata.ID,
		FixturePath: p.Fixture.Path,
		StartTime:   time.Now(),
	}

	slog.Info("Starting pagecheck run",
		"run_id", result.RunID,
		"profile", p.Metadata.ID,
		"fixture", p.Fixture.Path)

	selected, err := registry.Select(p.Checks)
	if err != nil {
		return abort(result, failure.NewConfigError("profile '%s': %v", p.Metadata.ID, err))
	}

	env := &checks.Env{Profile: p, Markup: options.Markup, Accessibility: options.Accessibility}
	if err := buildValidators(env, p); err != nil {
		return abort(result, err)
	}

	var f *fixture.Fixture
	if options.Loader != nil {
		f, err = options.Loader.Load(p.Fixture.Path)
	} else {
		f, err = fixture.Load(p.Fixture.Path)
	}
	if err != nil {
		slog.Error("Fixture unavailable, skipping every check", "fixture", p.Fixture.Path, "error", err)
		for _, c := range selected {
			result.CheckResults = append(result.CheckResults, skipped(c, "fixture unavailable"))
		}
		return abort(result, err)
	}
	env.Fixture = f

	if options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, options.Timeout)
		defer cancel()
	}
	env.Context = ctx

	for _, c := range selected {
		if !options.Filters.Match(c.ID) && (!c.Expands || options.Filters.MustNotMatch.AnyMatch(c.ID)) {
			slog.Debug("Check excluded by filters", "check", c.ID)
			result.CheckResults = append(result.CheckResults, skipped(c, "excluded by filter parameters"))
			continue
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			result.CheckResults = append(result.CheckResults, timedOut(c, options.Timeout, ctxErr))
			continue
		}
		result.CheckResults = append(result.CheckResults, filterResults(c, runCheck(env, c), options.Filters)...)
	}

	finalizeResult(result)
	passed, failed, skippedCount := result.Counts()
	if result.Success {
		slog.Info("Pagecheck run successful",
			"run_id", result.RunID,
			"passed", passed,
			"skipped", skippedCount,
			"duration", result.Duration)
	} else {
		slog.Warn("Pagecheck run failed",
			"run_id", result.RunID,
			"passed", passed,
			"failed", failed,
			"skipped", skippedCount,
			"duration", result.Duration)
	}
	return result, nil
}

func buildValidators(env *checks.Env, p *profile.Profile) error {
	var err error
	if env.Markup == nil {
		if env.Markup, err = validators.New(p.Validators.Markup); err != nil {
			return err
		}
	}
	if env.Accessibility == nil {
		if env.Accessibility, err = validators.New(p.Validators.Accessibility); err != nil {
			return err
		}
	}
	return nil
}

// runCheck executes one check and expands sub-check outcomes into their own
// results. The parent is reported only when it has no sub-checks or failed
// on its own.
func runCheck(env *checks.Env, c *checks.Check) []*CheckResult {
	slog.Info("Executing check", "check", c.ID)
	start := time.Now()
	outcome := checks.Run(env, c.ID, c.Run)
	duration := time.Since(start).Seconds()

	var results []*CheckResult
	if len(outcome.Subs) == 0 || outcome.Failed {
		results = append(results, fromOutcome(c, outcome, start, duration))
	}
	for _, sub := range outcome.Subs {
		results = append(results, fromOutcome(c, sub, start, 0))
	}

	for _, r := range results {
		if r.Failed() {
			slog.Warn("Check failed", "check", r.ID, "kind", r.Kind, "errors", len(r.Errors))
		} else {
			slog.Debug("Check completed", "check", r.ID, "skipped", r.Skipped, "duration", r.Duration)
		}
	}
	return results
}

// filterResults applies the filters to the sub-check results of c. Excluded
// sub-checks are reported skipped. When nothing of c is selected, c is
// reported as a single skipped result.
func filterResults(c *checks.Check, results []*CheckResult, filters RegexFilters) []*CheckResult {
	parentSelected := filters.Match(c.ID)
	anySub := false
	out := make([]*CheckResult, 0, len(results))
	for _, r := range results {
		if r.ID == c.ID {
			out = append(out, r)
			continue
		}
		if filters.MatchSub(c.ID, r.ID) {
			anySub = true
			out = append(out, r)
			continue
		}
		slog.Debug("Sub-check excluded by filters", "check", r.ID)
		out = append(out, &CheckResult{
			ID:          r.ID,
			Group:       r.Group,
			Description: r.Description,
			Skipped:     true,
			SkipReason:  "excluded by filter parameters",
			StartTime:   r.StartTime,
		})
	}
	if !parentSelected && !anySub {
		return []*CheckResult{skipped(c, "excluded by filter parameters")}
	}
	return out
}

func fromOutcome(c *checks.Check, o checks.Outcome, start time.Time, duration float64) *CheckResult {
	r := &CheckResult{
		ID:          o.ID,
		Group:       c.Group,
		Description: c.Description,
		Success:     !o.Failed && !o.Skipped,
		Skipped:     o.Skipped && !o.Failed,
		SkipReason:  o.SkipReason,
		StartTime:   start,
		Duration:    duration,
		Errors:      o.Errors,
		Violations:  o.Violations,
	}
	if o.Failed {
		r.Kind = o.Kind.String()
	}
	return r
}

func skipped(c *checks.Check, reason string) *CheckResult {
	return &CheckResult{
		ID:          c.ID,
		Group:       c.Group,
		Description: c.Description,
		Skipped:     true,
		SkipReason:  reason,
		StartTime:   time.Now(),
	}
}

func timedOut(c *checks.Check, timeout time.Duration, cause error) *CheckResult {
	return &CheckResult{
		ID:          c.ID,
		Group:       c.Group,
		Description: c.Description,
		Kind:        failure.Timeout.String(),
		StartTime:   time.Now(),
		Errors:      []string{fmt.Sprintf("suite timeout of %s exceeded before the check ran: %v", timeout, cause)},
	}
}

func abort(result *ExecutionResult, err error) (*ExecutionResult, error) {
	result.SetupError = err
	finalizeResult(result)
	return result, err
}

// finalizeResult sets end time, duration and overall success
func finalizeResult(result *ExecutionResult) {
	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime).Seconds()
	result.Success = result.OK()
}
