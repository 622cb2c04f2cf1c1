package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	helloProfile = filepath.Join("..", "..", "profiles", "hello-world.yaml")
	helloFixture = filepath.Join("..", "..", "testdata", "index.html")
)

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := newCLI(&stdout, &stderr).Execute(append([]string{"--log-level", "error"}, args...))
	return code, stdout.String(), stderr.String()
}

type jsonSummary struct {
	Success    bool   `json:"success"`
	Passed     int    `json:"passed"`
	Failed     int    `json:"failed"`
	Skipped    int    `json:"skipped"`
	SetupError string `json:"setup_error"`
}

func decodeSummary(t *testing.T, out string) jsonSummary {
	t.Helper()
	var s jsonSummary
	require.NoError(t, json.Unmarshal([]byte(out), &s), out)
	return s
}

func failingFixture(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(helloFixture)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "index.html")
	broken := strings.Replace(string(data), "<title>Hello World</title>", "<title>Goodbye</title>", 1)
	require.NoError(t, os.WriteFile(path, []byte(broken), 0o644))
	return path
}

func TestCLI_ProfilePasses(t *testing.T) {
	code, out, _ := runCLI(t, "--profile", helloProfile, "--format", "json")
	assert.Equal(t, ExitSuccess, code)

	s := decodeSummary(t, out)
	assert.True(t, s.Success)
	assert.Equal(t, 24, s.Passed)
	assert.Zero(t, s.Failed)
}

func TestCLI_PositionalFixture(t *testing.T) {
	code, out, _ := runCLI(t, helloFixture, "--no-color")
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "Overall Status: SUCCESS")
}

func TestCLI_FailingCheck(t *testing.T) {
	code, out, _ := runCLI(t, failingFixture(t))
	assert.Equal(t, ExitCheckFailed, code)
	assert.Contains(t, out, "Overall Status: FAILURE")
	assert.Contains(t, out, "✗ structure/title")
}

func TestCLI_FixtureUnavailable(t *testing.T) {
	code, out, stderr := runCLI(t, filepath.Join(t.TempDir(), "missing.html"), "--format", "json")
	assert.Equal(t, ExitFixture, code)
	assert.Empty(t, stderr)

	s := decodeSummary(t, out)
	assert.False(t, s.Success)
	assert.Equal(t, 20, s.Skipped)
	assert.Contains(t, s.SetupError, "NotFound")
}

func TestCLI_UsageErrors(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		stderr string
	}{
		{"unknown format", []string{"--format", "pdf"}, "unknown report format"},
		{"unknown flag", []string{"--frobnicate"}, "unknown flag"},
		{"too many arguments", []string{"a.html", "b.html"}, "accepts at most 1 arg"},
		{"missing profile", []string{"--profile", "nope.yaml"}, "failed to read profile"},
		{"bad regex", []string{"--run", "(x"}, "invalid regex"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			code, out, stderr := runCLI(t, tc.args...)
			assert.Equal(t, ExitUsage, code)
			assert.Empty(t, out)
			assert.Contains(t, stderr, tc.stderr)
		})
	}
}

func TestCLI_List(t *testing.T) {
	code, out, _ := runCLI(t, "--list")
	assert.Equal(t, ExitSuccess, code)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 20)
	assert.True(t, strings.HasPrefix(lines[0], "structure/file-size"))
	assert.Contains(t, out, "security/headers")
}

func TestCLI_Filters(t *testing.T) {
	code, out, _ := runCLI(t, helloFixture, "--format", "json", "--run", "^structure/doctype$", "--run", "^security/")
	assert.Equal(t, ExitSuccess, code)

	s := decodeSummary(t, out)
	assert.Equal(t, 6, s.Passed)
	assert.Equal(t, 18, s.Skipped)
}

func TestCLI_OutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xml")
	code, out, _ := runCLI(t, failingFixture(t), "--format", "junit", "-o", path)
	assert.Equal(t, ExitCheckFailed, code)
	assert.Empty(t, out)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `<testcase name="structure/title"`)
}

func TestCLI_ProfileSummary(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := newCLI(&stdout, &stderr).Execute([]string{"profile", helloProfile})
	assert.Equal(t, ExitSuccess, code, stderr.String())

	out := stdout.String()
	assert.Contains(t, out, "Profile parsed successfully")
	assert.Contains(t, out, "ID: hello-world")
	assert.Contains(t, out, "X-Frame-Options: DENY")
	assert.Contains(t, out, "markup: local (local only)")
	assert.Contains(t, out, "accessibility: a11y (local only, WCAG 2.1 A)")
	assert.Contains(t, out, "Checks: all registered (20)")
	assert.Contains(t, out, "[20] performance/render-blocking")
}

func TestCLI_ProfileUnknownCheck(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.yaml")
	doc := "metadata: {id: x, dsl_version: \"1.0\"}\nchecks: [structure/title, structure/sparkle]\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	var stdout, stderr bytes.Buffer
	code := newCLI(&stdout, &stderr).Execute([]string{"profile", path})
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, stderr.String(), "structure/sparkle")
}
