package validators

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/alessio/shellescape"
)

// CommandValidator runs an external validation program such as a
// validate-html.sh script. The document path is appended to the argument list
// and the options are passed through PAGECHECK_* environment variables.
//
// Exit status 0 means success. Any other exit status means the document has
// violations, one per non-empty output line. A program that cannot be started
// or is killed is a validator failure.
type CommandValidator struct {
	Argv []string
}

// NewCommandValidator creates a validator for the given argv.
func NewCommandValidator(argv []string) *CommandValidator {
	return &CommandValidator{Argv: append([]string(nil), argv...)}
}

func (v *CommandValidator) Name() string {
	if len(v.Argv) == 0 {
		return "command"
	}
	return "command:" + v.Argv[0]
}

// Validate runs the command against the document.
func (v *CommandValidator) Validate(ctx context.Context, doc Document, opts Options) (*Result, error) {
	if len(v.Argv) == 0 {
		return nil, errors.New("no command specified")
	}

	path := doc.Path
	if path == "" {
		tmp, err := os.CreateTemp("", "pagecheck-*.html")
		if err != nil {
			return nil, fmt.Errorf("failed to stage document: %w", err)
		}
		defer os.Remove(tmp.Name())
		if _, err := tmp.Write(doc.Content); err != nil {
			tmp.Close()
			return nil, fmt.Errorf("failed to stage document: %w", err)
		}
		if err := tmp.Close(); err != nil {
			return nil, fmt.Errorf("failed to stage document: %w", err)
		}
		path = tmp.Name()
	}

	args := append(append([]string(nil), v.Argv[1:]...), path)
	cmd := exec.CommandContext(ctx, v.Argv[0], args...)
	cmd.WaitDelay = 2 * time.Second
	cmd.Env = append(os.Environ(),
		"PAGECHECK_LOCAL_ONLY="+strconv.FormatBool(opts.LocalOnly),
		"PAGECHECK_DEBUG="+strconv.FormatBool(opts.Debug),
		"PAGECHECK_QUIET="+strconv.FormatBool(opts.Quiet),
		"PAGECHECK_WCAG="+opts.WCAG,
	)

	commandLine := shellescape.QuoteCommand(append([]string{v.Argv[0]}, args...))
	slog.Info("Executing validation command", "command", commandLine)

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output
	err := cmd.Run()

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("command %s interrupted: %w", commandLine, ctxErr)
	}

	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			slog.Error("Validation command could not run", "command", commandLine, "error", err)
			return nil, fmt.Errorf("command %s could not run: %w", commandLine, err)
		}
		exitCode = exitErr.ExitCode()
		if exitCode < 0 {
			return nil, fmt.Errorf("command %s terminated: %w", commandLine, err)
		}
	}

	violations := outputViolations(output.Bytes(), v.Name())
	if exitCode != 0 && len(violations) == 0 {
		violations = append(violations, Violation{
			Rule:     v.Name(),
			Message:  fmt.Sprintf("exited with status %d", exitCode),
			Severity: SeverityError,
		})
	}
	if exitCode == 0 {
		if opts.Debug && len(violations) > 0 {
			slog.Debug("Validation command output", "command", commandLine, "output", output.String())
		}
		violations = nil
	}

	slog.Info("Validation command finished", "command", commandLine, "exit_code", exitCode, "violations", len(violations))

	result := &Result{Success: exitCode == 0}
	if opts.WCAG != "" {
		result.Accessibility = &AccessibilityResult{Level: opts.WCAG, Violations: violations}
	} else {
		result.Errors = violations
	}
	return result, nil
}

func outputViolations(out []byte, rule string) []Violation {
	var violations []Violation
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		violations = append(violations, Violation{
			Rule:     rule,
			Message:  line,
			Severity: SeverityError,
		})
	}
	return violations
}
