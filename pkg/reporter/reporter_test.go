package reporter

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/antchfx/xmlquery"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagecheck/pkg/executor"
	"pagecheck/pkg/failure"
	"pagecheck/pkg/validators"
)

func sampleResult() *executor.ExecutionResult {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return &executor.ExecutionResult{
		RunID:       "9a1c7e0e-52b8-4d8e-9d7c-3f0f4d1f2a11",
		ProfileID:   "hello-world",
		FixturePath: "testdata/index.html",
		StartTime:   start,
		EndTime:     start.Add(1500 * time.Millisecond),
		Duration:    1.5,
		CheckResults: []*executor.CheckResult{
			{ID: "structure/doctype", Group: "structure", Success: true, Duration: 0.001},
			{
				ID:       "structure/title",
				Group:    "structure",
				Kind:     "AssertionFailed",
				Duration: 0.002,
				Errors:   []string{"document title: Not equal: \nexpected: \"Hello World\"\nactual  : \"Hello\""},
			},
			{ID: "security/headers/X-Frame-Options", Group: "security", Success: true},
			{
				ID:     "validation/markup",
				Group:  "validation",
				Kind:   "AssertionFailed",
				Errors: []string{"markup errors: Should be empty"},
				Violations: []validators.Violation{
					{Rule: "stray-end-tag", Message: "Stray end tag </div>", Line: 12, Column: 1},
				},
			},
			{ID: "performance/html-size", Group: "performance", Skipped: true, SkipReason: "excluded by filter parameters"},
		},
	}
}

func withoutColor(t *testing.T) {
	t.Helper()
	saved := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = saved })
}

func TestPrintResult(t *testing.T) {
	withoutColor(t)
	var buf bytes.Buffer
	PrintResult(sampleResult(), &buf)
	out := buf.String()

	for _, want := range []string{
		"Pagecheck Result: hello-world",
		"Run ID: 9a1c7e0e-52b8-4d8e-9d7c-3f0f4d1f2a11",
		"Overall Status: FAILURE",
		"Execution Time: 1.5s",
		"structure: FAILED (2 checks)",
		"  ✓ structure/doctype",
		"  ✗ structure/title [AssertionFailed]",
		"     expected: \"Hello World\"",
		"security: PASSED (1 checks)",
		"     • stray-end-tag: Stray end tag </div> (line 12, column 1)",
		"performance: SKIPPED (1 checks)",
		"  - performance/html-size (skipped: excluded by filter parameters)",
		"Summary: 2 passed, 2 failed, 1 skipped",
	} {
		assert.Contains(t, out, want)
	}
}

func TestPrintResult_SetupError(t *testing.T) {
	withoutColor(t)
	result := &executor.ExecutionResult{
		ProfileID:  "hello-world",
		SetupError: failure.NewFixtureError("missing.html", failure.NotFound, os.ErrNotExist),
	}
	var buf bytes.Buffer
	PrintResult(result, &buf)
	assert.Contains(t, buf.String(), "Error: fixture missing.html not available (NotFound)")

	buf.Reset()
	PrintResult(nil, &buf)
	assert.Equal(t, "No result available.\n", buf.String())
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(sampleResult(), &buf))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "9a1c7e0e-52b8-4d8e-9d7c-3f0f4d1f2a11", doc["run_id"])
	assert.Equal(t, "hello-world", doc["profile_id"])
	assert.Equal(t, float64(2), doc["passed"])
	assert.Equal(t, float64(2), doc["failed"])
	assert.Equal(t, float64(1), doc["skipped"])
	assert.NotContains(t, doc, "setup_error")

	checks, ok := doc["checks"].([]any)
	require.True(t, ok)
	require.Len(t, checks, 5)
	markup := checks[3].(map[string]any)
	assert.Equal(t, "validation/markup", markup["id"])
	violations := markup["violations"].([]any)
	assert.Equal(t, "stray-end-tag", violations[0].(map[string]any)["rule"])

	result := sampleResult()
	result.SetupError = errors.New("boom")
	buf.Reset()
	require.NoError(t, WriteJSON(result, &buf))
	assert.Contains(t, buf.String(), `"setup_error": "boom"`)
}

func TestWriteJUnit(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJUnit(sampleResult(), &buf))
	require.True(t, strings.HasPrefix(buf.String(), "<?xml"))

	doc, err := xmlquery.Parse(&buf)
	require.NoError(t, err)

	root := xmlquery.FindOne(doc, "/testsuites")
	require.NotNil(t, root)
	assert.Equal(t, "5", root.SelectAttr("tests"))
	assert.Equal(t, "2", root.SelectAttr("failures"))
	assert.Equal(t, "1", root.SelectAttr("skipped"))
	assert.Equal(t, "1.500", root.SelectAttr("time"))

	suites := xmlquery.Find(doc, "//testsuite")
	require.Len(t, suites, 4)
	assert.Equal(t, "structure", suites[0].SelectAttr("name"))
	assert.Equal(t, "2", suites[0].SelectAttr("tests"))
	assert.Equal(t, "1", suites[0].SelectAttr("failures"))

	title := xmlquery.FindOne(doc, "//testcase[@name='structure/title']/failure")
	require.NotNil(t, title)
	assert.Equal(t, "AssertionFailed", title.SelectAttr("type"))
	assert.Contains(t, title.SelectAttr("message"), "document title: Not equal:")
	assert.Contains(t, title.InnerText(), `actual  : "Hello"`)

	markup := xmlquery.FindOne(doc, "//testcase[@name='validation/markup']/failure")
	require.NotNil(t, markup)
	assert.Contains(t, markup.InnerText(), "stray-end-tag: Stray end tag </div> (line 12, column 1)")

	skippedCase := xmlquery.FindOne(doc, "//testcase[@name='performance/html-size']/skipped")
	require.NotNil(t, skippedCase)
	assert.Equal(t, "excluded by filter parameters", skippedCase.SelectAttr("message"))

	assert.Nil(t, xmlquery.FindOne(doc, "//testcase[@name='structure/doctype']/failure"))
	prop := xmlquery.FindOne(doc, "//testsuite[@name='security']/properties/property[@name='run_id']")
	require.NotNil(t, prop)
	assert.Equal(t, "9a1c7e0e-52b8-4d8e-9d7c-3f0f4d1f2a11", prop.SelectAttr("value"))
}

func TestWriteJUnit_SetupError(t *testing.T) {
	result := &executor.ExecutionResult{
		ProfileID:  "hello-world",
		SetupError: errors.New("fixture index.html not available"),
		CheckResults: []*executor.CheckResult{
			{ID: "structure/doctype", Group: "structure", Skipped: true, SkipReason: "fixture unavailable"},
		},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteJUnit(result, &buf))

	doc, err := xmlquery.Parse(&buf)
	require.NoError(t, err)
	assert.Equal(t, "2", xmlquery.FindOne(doc, "/testsuites").SelectAttr("tests"))
	setup := xmlquery.FindOne(doc, "//testsuite[@name='setup']/testcase/failure")
	require.NotNil(t, setup)
	assert.Equal(t, "fixture index.html not available", setup.SelectAttr("message"))
}

func TestWriteMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMarkdown(sampleResult(), &buf))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "# Pagecheck report: hello-world\n"))
	assert.Contains(t, out, "- **Status:** FAILED")
	assert.Contains(t, out, "- **Checks:** 2 passed, 2 failed, 1 skipped")
	assert.Contains(t, out, "| `structure/title` | structure | **failed** |")
	assert.Contains(t, out, "| `structure/doctype` | structure | passed |")
	assert.Contains(t, out, "| `performance/html-size` | performance | skipped (excluded by filter parameters) |")
	assert.Contains(t, out, "### `validation/markup`")
	assert.Contains(t, out, "- `stray-end-tag: Stray end tag </div> (line 12, column 1)`")
	assert.NotContains(t, out, "### `structure/doctype`")
}

func TestWriteHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHTML(sampleResult(), &buf))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, "<title>Pagecheck report: hello-world</title>")
	assert.Contains(t, out, "<h1>Pagecheck report: hello-world</h1>")
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "<th>Check</th>")
	assert.Contains(t, out, "<td><code>structure/title</code></td>")
	assert.Contains(t, out, "<strong>failed</strong>")
	assert.Contains(t, out, "Stray end tag &lt;/div&gt;")
	assert.True(t, strings.HasSuffix(out, "</body>\n</html>\n"))
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"text", FormatText, false},
		{"JSON", FormatJSON, false},
		{" junit ", FormatJUnit, false},
		{"md", FormatMarkdown, false},
		{"markdown", FormatMarkdown, false},
		{"html", FormatHTML, false},
		{"pdf", "", true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseFormat(tc.in)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestWrite_UnknownFormat(t *testing.T) {
	assert.Error(t, Write(sampleResult(), Format("pdf"), &bytes.Buffer{}))
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "pagecheck.xml")
	require.NoError(t, WriteFile(sampleResult(), FormatJUnit, path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	doc, err := xmlquery.Parse(f)
	require.NoError(t, err)
	assert.Len(t, xmlquery.Find(doc, "//testcase"), 5)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())

	// Rewriting replaces the report.
	require.NoError(t, WriteFile(sampleResult(), FormatJSON, path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, json.Valid(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"pagecheck.xml", "pagecheck.xml.lock"}, names)
}
