package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"pagecheck/pkg/checks"
	"pagecheck/pkg/failure"
	"pagecheck/pkg/profile"
)

func (c *CLI) newProfileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profile <file>",
		Short: "Parse a profile and summarize what it checks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.setupColor(false, "")
			p, err := profile.LoadFromFile(args[0])
			if err != nil {
				return err
			}
			selected, err := checks.DefaultRegistry.Select(p.Checks)
			if err != nil {
				return failure.NewConfigError("profile '%s': %v", p.Metadata.ID, err)
			}
			printProfile(c.stdout, p, selected)
			return nil
		},
	}
}

func printProfile(w io.Writer, p *profile.Profile, selected []*checks.Check) {
	green := color.New(color.FgGreen).FprintfFunc()
	cyan := color.New(color.FgCyan).FprintfFunc()

	green(w, "✅ Profile parsed successfully\n")
	cyan(w, "Title: %s\n", p.Metadata.Title)
	cyan(w, "ID: %s\n", p.Metadata.ID)
	cyan(w, "DSL Version: %s\n", p.Metadata.DslVersion)
	fmt.Fprintf(w, "Fixture: %s\n", p.Fixture.Path)

	e := p.Expect
	fmt.Fprintln(w, "\nExpectations:")
	printField(w, "lang", e.Lang)
	printField(w, "charset", e.Charset)
	printField(w, "title", e.Title)
	printField(w, "heading", e.Heading)
	printField(w, "viewport", e.Viewport)
	fmt.Fprintf(w, "  - size ceilings: %d bytes (file), %d bytes (content)\n", e.MaxBytes, e.MaxContentBytes)
	if len(e.SecurityHeaders) > 0 {
		fmt.Fprintf(w, "  - security headers (%d):\n", len(e.SecurityHeaders))
		for _, h := range e.SecurityHeaders {
			fmt.Fprintf(w, "    %s: %s\n", h.Name, h.Content)
		}
	}
	if len(e.BodyStyle) > 0 {
		var decls []string
		for _, s := range e.BodyStyle {
			decls = append(decls, s.Property+": "+s.Value)
		}
		fmt.Fprintf(w, "  - body style: %s\n", strings.Join(decls, "; "))
	}

	fmt.Fprintln(w, "\nValidators:")
	printValidator(w, "markup", p.Validators.Markup)
	printValidator(w, "accessibility", p.Validators.Accessibility)

	if len(p.Checks) == 0 {
		fmt.Fprintf(w, "\nChecks: all registered (%d)\n", len(selected))
	} else {
		fmt.Fprintf(w, "\nChecks (%d):\n", len(selected))
	}
	for i, chk := range selected {
		fmt.Fprintf(w, "  [%d] %s\n", i+1, chk.ID)
	}
}

func printField(w io.Writer, name, value string) {
	if value != "" {
		fmt.Fprintf(w, "  - %s: %q\n", name, value)
	}
}

func printValidator(w io.Writer, role string, v profile.ValidatorConfig) {
	var details []string
	if v.Endpoint != "" {
		details = append(details, "endpoint "+v.Endpoint)
	}
	if len(v.Command) > 0 {
		details = append(details, "command "+strings.Join(v.Command, " "))
	}
	if v.LocalOnly != nil && *v.LocalOnly {
		details = append(details, "local only")
	}
	if v.WCAG != "" {
		details = append(details, "WCAG "+v.WCAG)
	}
	if v.Retries > 0 {
		details = append(details, fmt.Sprintf("%d retries", v.Retries))
	}
	line := fmt.Sprintf("  - %s: %s", role, v.Type)
	if len(details) > 0 {
		line += " (" + strings.Join(details, ", ") + ")"
	}
	fmt.Fprintln(w, line)
}
