package reporter

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"time"

	"pagecheck/pkg/executor"
)

type junitTestSuites struct {
	XMLName  xml.Name         `xml:"testsuites"`
	Name     string           `xml:"name,attr"`
	Tests    int              `xml:"tests,attr"`
	Failures int              `xml:"failures,attr"`
	Skipped  int              `xml:"skipped,attr"`
	Time     string           `xml:"time,attr"`
	Suites   []junitTestSuite `xml:"testsuite"`
}

type junitTestSuite struct {
	Name       string          `xml:"name,attr"`
	Tests      int             `xml:"tests,attr"`
	Failures   int             `xml:"failures,attr"`
	Skipped    int             `xml:"skipped,attr"`
	Time       string          `xml:"time,attr"`
	Timestamp  string          `xml:"timestamp,attr"`
	Properties []junitProperty `xml:"properties>property,omitempty"`
	Cases      []junitTestCase `xml:"testcase"`
}

type junitProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

type junitTestCase struct {
	Name      string        `xml:"name,attr"`
	Classname string        `xml:"classname,attr"`
	Time      string        `xml:"time,attr"`
	Failure   *junitFailure `xml:"failure,omitempty"`
	Skipped   *junitSkipped `xml:"skipped,omitempty"`
}

type junitFailure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Body    string `xml:",chardata"`
}

type junitSkipped struct {
	Message string `xml:"message,attr"`
}

// WriteJUnit writes result as JUnit XML, one testsuite per check group.
func WriteJUnit(result *executor.ExecutionResult, w io.Writer) error {
	passed, failed, skipped := result.Counts()
	root := junitTestSuites{
		Name:     "pagecheck." + result.ProfileID,
		Tests:    passed + failed + skipped,
		Failures: failed,
		Skipped:  skipped,
		Time:     junitTime(result.Duration),
	}

	if result.SetupError != nil {
		root.Tests++
		root.Failures++
		root.Suites = append(root.Suites, junitTestSuite{
			Name:      "setup",
			Tests:     1,
			Failures:  1,
			Time:      junitTime(0),
			Timestamp: result.StartTime.Format(time.RFC3339),
			Cases: []junitTestCase{{
				Name:      "setup",
				Classname: "setup",
				Time:      junitTime(0),
				Failure: &junitFailure{
					Message: firstLine(result.SetupError.Error()),
					Type:    "SetupError",
					Body:    result.SetupError.Error(),
				},
			}},
		})
	}

	for _, g := range groupResults(result.CheckResults) {
		suite := junitTestSuite{
			Name:      g.name,
			Tests:     len(g.results),
			Failures:  g.failed,
			Skipped:   g.skipped,
			Timestamp: result.StartTime.Format(time.RFC3339),
			Properties: []junitProperty{
				{Name: "run_id", Value: result.RunID},
				{Name: "fixture", Value: result.FixturePath},
			},
		}
		var total float64
		for _, r := range g.results {
			total += r.Duration
			tc := junitTestCase{Name: r.ID, Classname: g.name, Time: junitTime(r.Duration)}
			switch {
			case r.Skipped:
				tc.Skipped = &junitSkipped{Message: r.SkipReason}
			case !r.Success:
				tc.Failure = &junitFailure{
					Message: firstLine(strings.Join(r.Errors, "\n")),
					Type:    r.Kind,
					Body:    failureBody(r),
				}
			}
			suite.Cases = append(suite.Cases, tc)
		}
		suite.Time = junitTime(total)
		root.Suites = append(root.Suites, suite)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(root); err != nil {
		return fmt.Errorf("failed to encode JUnit report: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func failureBody(r *executor.CheckResult) string {
	var b strings.Builder
	for _, e := range r.Errors {
		b.WriteString(e)
		b.WriteString("\n")
	}
	for _, v := range r.Violations {
		b.WriteString(v.String())
		b.WriteString("\n")
	}
	return b.String()
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

func junitTime(s float64) string {
	return fmt.Sprintf("%.3f", s)
}
