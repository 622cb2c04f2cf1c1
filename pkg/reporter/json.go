package reporter

import (
	"encoding/json"
	"io"

	"pagecheck/pkg/executor"
)

type jsonReport struct {
	*executor.ExecutionResult
	SetupError string `json:"setup_error,omitempty"`
	Passed     int    `json:"passed"`
	Failed     int    `json:"failed"`
	Skipped    int    `json:"skipped"`
}

// WriteJSON writes result as an indented JSON document.
func WriteJSON(result *executor.ExecutionResult, w io.Writer) error {
	report := jsonReport{ExecutionResult: result}
	if result.SetupError != nil {
		report.SetupError = result.SetupError.Error()
	}
	report.Passed, report.Failed, report.Skipped = result.Counts()

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
