package checks

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagecheck/pkg/failure"
	"pagecheck/pkg/validators"
)

var validationChecks = []Check{
	{ID: "validation/markup", Description: "markup validator reports no errors", Run: checkMarkup},
	{ID: "validation/accessibility", Description: "accessibility audit reports no violations", Run: checkAccessibility},
}

func validate(t *T, v validators.Validator, opts validators.Options) *validators.Result {
	require.NotNil(t, v, "no validator configured")

	f := t.Fixture()
	doc := validators.Document{Path: f.Path, Content: f.Raw}
	result, err := v.Validate(t.Context(), doc, opts)
	if err != nil {
		fe := failure.NewValidatorError(v.Name(), err)
		fe.Check = t.ID()
		t.Fatal(fe)
	}
	require.NotNil(t, result, "validator %s returned no result", v.Name())
	return result
}

func checkMarkup(t *T) {
	opts := validators.OptionsFrom(t.Profile().Validators.Markup)
	result := validate(t, t.env.Markup, opts)

	t.AddViolations(result.Errors)
	t.AddViolations(result.Warnings)
	assert.True(t, result.Success, "markup validation did not succeed")
	assert.Empty(t, result.Errors, "markup errors")
}

func checkAccessibility(t *T) {
	opts := validators.OptionsFrom(t.Profile().Validators.Accessibility)
	if opts.WCAG == "" {
		opts.WCAG = "2.1 A"
	}
	result := validate(t, t.env.Accessibility, opts)
	require.NotNil(t, result.Accessibility, "validator returned no accessibility results")

	t.AddViolations(result.Accessibility.Violations)
	assert.True(t, result.Success, "accessibility audit did not succeed")
	assert.Empty(t, result.Accessibility.Violations, "accessibility violations")
}
