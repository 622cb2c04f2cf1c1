package executor

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagecheck/pkg/checks"
	"pagecheck/pkg/failure"
	"pagecheck/pkg/fixture"
	"pagecheck/pkg/profile"
	"pagecheck/pkg/validators"
)

func helloProfile(t *testing.T) *profile.Profile {
	t.Helper()
	p := profile.Default()
	p.Fixture.Path = filepath.Join("testdata", "index.html")
	return p
}

func writePage(t *testing.T, mutate func(string) string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "index.html"))
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "index.html")
	require.NoError(t, os.WriteFile(path, []byte(mutate(string(data))), 0o644))
	return path
}

func ids(results []*CheckResult, keep func(*CheckResult) bool) []string {
	var out []string
	for _, r := range results {
		if keep == nil || keep(r) {
			out = append(out, r.ID)
		}
	}
	return out
}

func TestExecute_HelloWorld(t *testing.T) {
	result, err := Execute(context.Background(), helloProfile(t), nil)
	require.NoError(t, err)

	assert.True(t, result.OK())
	assert.True(t, result.Success)
	assert.Equal(t, "hello-world", result.ProfileID)
	_, err = uuid.Parse(result.RunID)
	assert.NoError(t, err)

	passed, failed, skipped := result.Counts()
	assert.Equal(t, 24, passed)
	assert.Zero(t, failed)
	assert.Zero(t, skipped)

	all := ids(result.CheckResults, nil)
	assert.Equal(t, "structure/file-size", all[0])
	assert.Contains(t, all, "security/headers/Strict-Transport-Security")
	assert.NotContains(t, all, "security/headers")
	assert.Equal(t, "performance/render-blocking", all[len(all)-1])
}

func TestExecute_Deterministic(t *testing.T) {
	type summary struct {
		ID      string
		Success bool
		Errors  []string
	}
	summarize := func(r *ExecutionResult) []summary {
		var out []summary
		for _, c := range r.CheckResults {
			out = append(out, summary{c.ID, c.Success, c.Errors})
		}
		return out
	}

	p := helloProfile(t)
	p.Fixture.Path = writePage(t, func(s string) string { return strings.Replace(s, `content="DENY"`, `content="SAMEORIGIN"`, 1) })

	first, err := Execute(context.Background(), p, nil)
	require.NoError(t, err)
	second, err := Execute(context.Background(), p, nil)
	require.NoError(t, err)

	assert.Equal(t, summarize(first), summarize(second))
	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, []string{"security/headers/X-Frame-Options"}, ids(first.CheckResults, (*CheckResult).Failed))
}

func TestExecute_FailingCheckDoesNotStopSuite(t *testing.T) {
	p := helloProfile(t)
	p.Fixture.Path = writePage(t, func(s string) string { return strings.Replace(s, `lang="en"`, `lang="fr"`, 1) })

	result, err := Execute(context.Background(), p, nil)
	require.NoError(t, err)
	assert.False(t, result.OK())

	failed := ids(result.CheckResults, (*CheckResult).Failed)
	assert.Equal(t, []string{"structure/html-lang"}, failed)
	for _, r := range result.CheckResults {
		if r.ID == "structure/html-lang" {
			assert.Equal(t, "AssertionFailed", r.Kind)
			assert.NotEmpty(t, r.Errors)
		}
	}
	_, nFailed, _ := result.Counts()
	assert.Equal(t, 1, nFailed)
}

func TestExecute_FixtureUnavailable(t *testing.T) {
	p := helloProfile(t)
	p.Fixture.Path = filepath.Join(t.TempDir(), "missing.html")

	result, err := Execute(context.Background(), p, nil)
	require.Error(t, err)
	assert.True(t, failure.Is(err, failure.FixtureUnavailable))
	assert.Equal(t, err, result.SetupError)
	assert.False(t, result.OK())

	require.Len(t, result.CheckResults, 20)
	for _, r := range result.CheckResults {
		assert.True(t, r.Skipped, r.ID)
		assert.False(t, r.Failed(), r.ID)
		assert.Equal(t, "fixture unavailable", r.SkipReason)
	}
}

func TestExecute_UnknownCheck(t *testing.T) {
	p := helloProfile(t)
	p.Checks = []string{"structure/doctype", "structure/nope"}

	_, err := Execute(context.Background(), p, nil)
	require.Error(t, err)
	assert.True(t, failure.Is(err, failure.ConfigInvalid))
}

func TestExecute_BadValidatorConfig(t *testing.T) {
	p := helloProfile(t)
	p.Validators.Markup = profile.ValidatorConfig{Type: "telepathy"}

	_, err := Execute(context.Background(), p, nil)
	require.Error(t, err)
	assert.True(t, failure.Is(err, failure.ConfigInvalid))
}

func TestExecute_ProfileSelectsChecksInOrder(t *testing.T) {
	p := helloProfile(t)
	p.Checks = []string{"structure/title", "structure/doctype"}

	result, err := Execute(context.Background(), p, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"structure/title", "structure/doctype"}, ids(result.CheckResults, nil))
}

func TestExecute_Filters(t *testing.T) {
	opts := DefaultOptions()
	require.NoError(t, opts.Filters.MustMatch.Set("^structure/"))
	require.NoError(t, opts.Filters.MustNotMatch.Set("viewport"))

	result, err := Execute(context.Background(), helloProfile(t), opts)
	require.NoError(t, err)
	assert.True(t, result.OK())

	ran := ids(result.CheckResults, func(r *CheckResult) bool { return !r.Skipped })
	assert.Len(t, ran, 10)
	for _, id := range ran {
		assert.True(t, strings.HasPrefix(id, "structure/"), id)
		assert.NotContains(t, id, "viewport")
	}
	for _, r := range result.CheckResults {
		if r.Skipped {
			assert.Equal(t, "excluded by filter parameters", r.SkipReason)
		}
	}
}

type slowValidator struct{}

func (slowValidator) Name() string { return "slow" }

func (slowValidator) Validate(ctx context.Context, _ validators.Document, _ validators.Options) (*validators.Result, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestExecute_SuiteTimeout(t *testing.T) {
	p := helloProfile(t)
	p.Checks = []string{"structure/doctype", "validation/markup", "structure/title"}
	opts := DefaultOptions()
	opts.Timeout = 50 * time.Millisecond
	opts.Markup = slowValidator{}

	result, err := Execute(context.Background(), p, opts)
	require.NoError(t, err)
	require.Len(t, result.CheckResults, 3)

	assert.True(t, result.CheckResults[0].Success)
	assert.Equal(t, "Timeout", result.CheckResults[1].Kind)
	assert.Equal(t, "Timeout", result.CheckResults[2].Kind)
	assert.Contains(t, result.CheckResults[2].Errors[0], "suite timeout of 50ms exceeded")
	assert.False(t, result.OK())
}

func TestExecute_RecoversPanickingCheck(t *testing.T) {
	registry := checks.NewRegistry()
	registry.MustRegister(checks.Check{ID: "demo/panics", Group: "demo", Run: func(*checks.T) { panic("boom") }})
	registry.MustRegister(checks.Check{ID: "demo/passes", Group: "demo", Run: func(*checks.T) {}})

	opts := DefaultOptions()
	opts.Registry = registry
	result, err := Execute(context.Background(), helloProfile(t), opts)
	require.NoError(t, err)

	require.Len(t, result.CheckResults, 2)
	assert.True(t, result.CheckResults[0].Failed())
	assert.Contains(t, result.CheckResults[0].Errors[0], "boom")
	assert.True(t, result.CheckResults[1].Success)
}

func TestExecute_UsesLoader(t *testing.T) {
	opts := DefaultOptions()
	opts.Loader = fixture.NewLoader()
	p := helloProfile(t)
	p.Checks = []string{"structure/file-size"}

	for i := 0; i < 2; i++ {
		result, err := Execute(context.Background(), p, opts)
		require.NoError(t, err)
		assert.True(t, result.OK())
	}
}

func TestExecute_FiltersSelectSubChecks(t *testing.T) {
	t.Run("run names one sub-check", func(t *testing.T) {
		opts := DefaultOptions()
		require.NoError(t, opts.Filters.MustMatch.Set("^security/headers/X-Frame-Options$"))

		result, err := Execute(context.Background(), helloProfile(t), opts)
		require.NoError(t, err)
		assert.True(t, result.OK())

		ran := ids(result.CheckResults, func(r *CheckResult) bool { return !r.Skipped })
		assert.Equal(t, []string{"security/headers/X-Frame-Options"}, ran)
		passed, failed, skipped := result.Counts()
		assert.Equal(t, 1, passed)
		assert.Zero(t, failed)
		assert.Equal(t, 23, skipped)
	})

	t.Run("skip drops one sub-check", func(t *testing.T) {
		opts := DefaultOptions()
		require.NoError(t, opts.Filters.MustNotMatch.Set("X-Frame-Options"))

		result, err := Execute(context.Background(), helloProfile(t), opts)
		require.NoError(t, err)

		skippedIDs := ids(result.CheckResults, func(r *CheckResult) bool { return r.Skipped })
		assert.Equal(t, []string{"security/headers/X-Frame-Options"}, skippedIDs)
		passed, _, _ := result.Counts()
		assert.Equal(t, 23, passed)
	})

	t.Run("sub-check named but parent skipped", func(t *testing.T) {
		opts := DefaultOptions()
		require.NoError(t, opts.Filters.MustMatch.Set("X-Frame-Options"))
		require.NoError(t, opts.Filters.MustNotMatch.Set("^security/headers$"))

		result, err := Execute(context.Background(), helloProfile(t), opts)
		require.NoError(t, err)
		assert.Empty(t, ids(result.CheckResults, func(r *CheckResult) bool { return !r.Skipped }))
		assert.Len(t, result.CheckResults, 20)
	})
}
