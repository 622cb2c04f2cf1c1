package reporter

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"pagecheck/pkg/executor"
)

// Format selects an output encoding.
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatJUnit    Format = "junit"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// Formats lists every supported format.
var Formats = []Format{FormatText, FormatJSON, FormatJUnit, FormatMarkdown, FormatHTML}

// ParseFormat accepts a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if f == "md" {
		return FormatMarkdown, nil
	}
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown report format '%s'", s)
}

// Write renders result in the given format.
func Write(result *executor.ExecutionResult, format Format, w io.Writer) error {
	switch format {
	case FormatText, "":
		PrintResult(result, w)
		return nil
	case FormatJSON:
		return WriteJSON(result, w)
	case FormatJUnit:
		return WriteJUnit(result, w)
	case FormatMarkdown:
		return WriteMarkdown(result, w)
	case FormatHTML:
		return WriteHTML(result, w)
	default:
		return fmt.Errorf("unknown report format '%s'", format)
	}
}

// WriteFile renders result into path. Writers are serialized through a
// "<path>.lock" file and the report is replaced with a rename, so concurrent
// runs sharing an output path never interleave.
func WriteFile(result *executor.ExecutionResult, format Format, path string) error {
	var buf bytes.Buffer
	if err := Write(result, format, &buf); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire lock on %s: %w", path, err)
	}
	defer lock.Unlock()

	tmp, err := os.CreateTemp(dir, ".report-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move report to %s: %w", path, err)
	}

	slog.Info("Report written", "path", path, "format", string(format), "bytes", buf.Len())
	return nil
}
