package reporter

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"pagecheck/pkg/executor"
)

// WriteMarkdown writes result as a Markdown summary table followed by the
// details of every failed check.
func WriteMarkdown(result *executor.ExecutionResult, w io.Writer) error {
	var b strings.Builder
	passed, failed, skipped := result.Counts()

	status := "PASSED"
	if !result.Success {
		status = "FAILED"
	}
	fmt.Fprintf(&b, "# Pagecheck report: %s\n\n", result.ProfileID)
	fmt.Fprintf(&b, "- **Status:** %s\n", status)
	fmt.Fprintf(&b, "- **Run ID:** `%s`\n", result.RunID)
	fmt.Fprintf(&b, "- **Fixture:** `%s`\n", result.FixturePath)
	fmt.Fprintf(&b, "- **Checks:** %d passed, %d failed, %d skipped\n", passed, failed, skipped)
	fmt.Fprintf(&b, "- **Duration:** %s\n\n", seconds(result.Duration))

	if result.SetupError != nil {
		fmt.Fprintf(&b, "## Setup error\n\n```text\n%s\n```\n\n", result.SetupError)
	}

	if len(result.CheckResults) > 0 {
		b.WriteString("## Checks\n\n| Check | Group | Status |\n| --- | --- | --- |\n")
		for _, r := range result.CheckResults {
			fmt.Fprintf(&b, "| `%s` | %s | %s |\n", r.ID, r.Group, markdownStatus(r))
		}
		b.WriteString("\n")
	}

	if failed > 0 {
		b.WriteString("## Failures\n\n")
		for _, r := range result.CheckResults {
			if !r.Failed() {
				continue
			}
			fmt.Fprintf(&b, "### `%s`\n\n", r.ID)
			if r.Kind != "" {
				fmt.Fprintf(&b, "Kind: %s\n\n", r.Kind)
			}
			for _, e := range r.Errors {
				fmt.Fprintf(&b, "```text\n%s\n```\n\n", e)
			}
			for _, v := range r.Violations {
				fmt.Fprintf(&b, "- `%s`\n", strings.ReplaceAll(v.String(), "`", "'"))
			}
			if len(r.Violations) > 0 {
				b.WriteString("\n")
			}
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func markdownStatus(r *executor.CheckResult) string {
	switch {
	case r.Skipped:
		return "skipped (" + strings.ReplaceAll(r.SkipReason, "|", "\\|") + ")"
	case r.Success:
		return "passed"
	default:
		return "**failed**"
	}
}

const htmlHead = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>Pagecheck report: %s</title>
<style>
body { font-family: sans-serif; margin: 2rem auto; max-width: 60rem; }
table { border-collapse: collapse; }
th, td { border: 1px solid #ccc; padding: 0.25rem 0.5rem; text-align: left; }
pre { background: #f6f6f6; padding: 0.5rem; overflow-x: auto; }
</style>
</head>
<body>
`

// WriteHTML renders the Markdown report to a standalone HTML page.
func WriteHTML(result *executor.ExecutionResult, w io.Writer) error {
	var src bytes.Buffer
	if err := WriteMarkdown(result, &src); err != nil {
		return err
	}

	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	var body bytes.Buffer
	if err := md.Convert(src.Bytes(), &body); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}

	if _, err := fmt.Fprintf(w, htmlHead, html.EscapeString(result.ProfileID)); err != nil {
		return err
	}
	if _, err := w.Write(body.Bytes()); err != nil {
		return err
	}
	_, err := io.WriteString(w, "</body>\n</html>\n")
	return err
}
