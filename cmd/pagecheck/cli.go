package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"pagecheck/pkg/checks"
	"pagecheck/pkg/config"
	"pagecheck/pkg/executor"
	"pagecheck/pkg/failure"
	"pagecheck/pkg/profile"
	"pagecheck/pkg/reporter"
)

// Exit codes
const (
	ExitSuccess     = 0
	ExitCheckFailed = 1
	ExitUsage       = 2
	ExitFixture     = 3
)

// CLI holds the command-line interface state.
type CLI struct {
	rootCmd    *cobra.Command
	stdout     io.Writer
	stderr     io.Writer
	configPath string
	exitCode   int
}

func newCLI(stdout, stderr io.Writer) *CLI {
	c := &CLI{stdout: stdout, stderr: stderr}
	c.rootCmd = c.newRootCmd()
	return c
}

// Execute runs the CLI and returns the process exit code.
func (c *CLI) Execute(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	c.rootCmd.SetArgs(args)
	if err := c.rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(c.stderr, "pagecheck: %v\n", err)
		if failure.Is(err, failure.FixtureUnavailable) {
			return ExitFixture
		}
		return ExitUsage
	}
	return c.exitCode
}

func (c *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pagecheck [flags] [fixture]",
		Short: "Validate a static HTML page against a profile",
		Long: `pagecheck loads one HTML document and runs a suite of named checks against it:
document structure, security meta tags, markup and accessibility validation,
computed styles and size budgets.

Exit status is 0 when every check passes, 1 when any check fails, 2 on usage or
configuration errors, and 3 when the fixture cannot be read.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, args)
		},
	}
	cmd.SetOut(c.stdout)
	cmd.SetErr(c.stderr)

	cmd.CompletionOptions.DisableDefaultCmd = true

	cmd.Flags().StringVar(&c.configPath, "config", "", "config file (default: ./pagecheck.yaml if present)")
	config.BindFlags(cmd.Flags())
	cmd.AddCommand(c.newProfileCmd())
	return cmd
}

func (c *CLI) run(cmd *cobra.Command, args []string) error {
	settings, err := config.Load(c.configPath, cmd.Flags())
	if err != nil {
		return err
	}
	settings.SetupLogging()
	c.setupColor(settings.NoColor, settings.Output)

	if settings.List {
		c.listChecks()
		return nil
	}

	p, err := c.loadProfile(settings, args)
	if err != nil {
		return err
	}

	filters, _ := settings.Filters()
	if desc := filters.Describe(); desc != "" {
		slog.Info("Filtering checks", "filters", desc)
	}
	opts := executor.DefaultOptions()
	opts.Timeout = settings.Timeout
	opts.Filters = filters

	result, execErr := executor.Execute(cmd.Context(), p, opts)
	if execErr != nil && !failure.Is(execErr, failure.FixtureUnavailable) {
		return execErr
	}

	if err := c.report(result, settings); err != nil {
		return failure.NewConfigError("failed to write report: %v", err)
	}

	switch {
	case execErr != nil:
		slog.Error("Fixture unavailable", "error", execErr)
		c.exitCode = ExitFixture
	case result.OK():
		c.exitCode = ExitSuccess
	default:
		c.exitCode = ExitCheckFailed
	}
	return nil
}

func (c *CLI) loadProfile(settings *config.Settings, args []string) (*profile.Profile, error) {
	var p *profile.Profile
	if settings.Profile != "" {
		slog.Info("Loading profile", "path", settings.Profile)
		loaded, err := profile.LoadFromFile(settings.Profile)
		if err != nil {
			return nil, err
		}
		p = loaded
	} else {
		p = profile.Default()
	}

	switch {
	case len(args) == 1:
		p.Fixture.Path = args[0]
	case settings.Fixture != "":
		p.Fixture.Path = settings.Fixture
	}
	if err := profile.Validate(p); err != nil {
		return nil, failure.NewConfigError("profile '%s': %v", p.Metadata.ID, err)
	}
	return p, nil
}

func (c *CLI) report(result *executor.ExecutionResult, settings *config.Settings) error {
	if settings.Output != "" {
		return reporter.WriteFile(result, settings.ReportFormat(), settings.Output)
	}
	return reporter.Write(result, settings.ReportFormat(), c.stdout)
}

// setupColor disables color unless stdout is a terminal, --no-color is unset
// and the report is not redirected to a file.
func (c *CLI) setupColor(noColor bool, output string) {
	f, ok := c.stdout.(*os.File)
	tty := ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
	color.NoColor = noColor || output != "" || !tty
}

func (c *CLI) listChecks() {
	w := tabwriter.NewWriter(c.stdout, 0, 0, 2, ' ', 0)
	for _, chk := range checks.DefaultRegistry.All() {
		fmt.Fprintf(w, "%s\t%s\n", chk.ID, chk.Description)
	}
	w.Flush()
}
