// Package reporter provides functions for formatting and outputting execution results.
package reporter

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"pagecheck/pkg/executor"
)

// PrintResult formats and prints the execution result to the provided writer.
func PrintResult(result *executor.ExecutionResult, w io.Writer) {
	if result == nil {
		fmt.Fprintln(w, "No result available.")
		return
	}

	// Create colored output helpers
	success := color.New(color.FgGreen).SprintFunc()
	failure := color.New(color.FgRed).SprintFunc()
	highlight := color.New(color.FgCyan).SprintFunc()
	warning := color.New(color.FgYellow).SprintFunc()

	// Print header
	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 80))
	fmt.Fprintf(w, "Pagecheck Result: %s\n", result.ProfileID)
	fmt.Fprintf(w, "Run ID: %s\n", result.RunID)
	fmt.Fprintf(w, "Fixture: %s\n", result.FixturePath)
	fmt.Fprintf(w, "%s\n\n", strings.Repeat("-", 80))

	// Overall status
	statusStr := success("SUCCESS")
	if !result.Success {
		statusStr = failure("FAILURE")
	}
	fmt.Fprintf(w, "Overall Status: %s\n", statusStr)
	fmt.Fprintf(w, "Execution Time: %s\n", seconds(result.Duration))
	if result.SetupError != nil {
		fmt.Fprintf(w, "Error: %s\n", failure(result.SetupError.Error()))
	}
	fmt.Fprintln(w)

	for _, g := range groupResults(result.CheckResults) {
		printGroup(w, g, highlight, success, failure, warning)
	}

	passed, failed, skipped := result.Counts()
	fmt.Fprintf(w, "Summary: %s passed, %s failed, %s skipped\n",
		success(passed), failure(failed), warning(skipped))

	// Print footer
	fmt.Fprintf(w, "%s\n", strings.Repeat("=", 80))
}

// printGroup formats and prints the results for one check group.
func printGroup(
	w io.Writer,
	g group,
	highlight, success, failure, warning func(a ...interface{}) string,
) {
	statusStr := success("PASSED")
	switch {
	case g.failed > 0:
		statusStr = failure("FAILED")
	case g.skipped == len(g.results):
		statusStr = warning("SKIPPED")
	}
	fmt.Fprintf(w, "%s: %s (%d checks)\n", highlight(g.name), statusStr, len(g.results))

	for _, r := range g.results {
		switch {
		case r.Skipped:
			fmt.Fprintf(w, "  %s %s %s\n", warning("-"), r.ID, warning("(skipped: "+r.SkipReason+")"))
			continue
		case r.Success:
			fmt.Fprintf(w, "  %s %s\n", success("✓"), r.ID)
			continue
		}

		fmt.Fprintf(w, "  %s %s [%s]\n", failure("✗"), r.ID, r.Kind)
		for _, msg := range r.Errors {
			for _, line := range strings.Split(msg, "\n") {
				fmt.Fprintf(w, "     %s\n", failure(line))
			}
		}
		for _, v := range r.Violations {
			fmt.Fprintf(w, "     • %s\n", v)
		}
	}
	fmt.Fprintln(w)
}

type group struct {
	name    string
	results []*executor.CheckResult
	failed  int
	skipped int
}

// groupResults buckets results by group, keeping first-seen order.
func groupResults(results []*executor.CheckResult) []group {
	var groups []group
	index := map[string]int{}
	for _, r := range results {
		i, ok := index[r.Group]
		if !ok {
			i = len(groups)
			index[r.Group] = i
			groups = append(groups, group{name: r.Group})
		}
		g := &groups[i]
		g.results = append(g.results, r)
		if r.Failed() {
			g.failed++
		}
		if r.Skipped {
			g.skipped++
		}
	}
	return groups
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second)).Round(time.Microsecond)
}
