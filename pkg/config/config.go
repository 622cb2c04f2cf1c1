// Package config resolves the run settings for the pagecheck CLI from flags,
// PAGECHECK_* environment variables, an optional pagecheck.yaml file and
// built-in defaults, in that order of precedence.
package config

import (
	"errors"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"pagecheck/pkg/executor"
	"pagecheck/pkg/failure"
	"pagecheck/pkg/reporter"
)

const EnvPrefix = "PAGECHECK"

// Settings are the resolved run settings.
type Settings struct {
	Profile  string        `mapstructure:"profile"`
	Fixture  string        `mapstructure:"fixture"`
	Format   string        `mapstructure:"format"`
	Output   string        `mapstructure:"output"`
	Timeout  time.Duration `mapstructure:"timeout"`
	LogLevel string        `mapstructure:"log-level"`
	NoColor  bool          `mapstructure:"no-color"`
	Run      []string      `mapstructure:"run"`
	Skip     []string      `mapstructure:"skip"`
	List     bool          `mapstructure:"list"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("profile", "")
	v.SetDefault("fixture", "")
	v.SetDefault("format", string(reporter.FormatText))
	v.SetDefault("output", "")
	v.SetDefault("timeout", executor.DefaultTimeout)
	v.SetDefault("log-level", "info")
	v.SetDefault("no-color", false)
	v.SetDefault("run", []string{})
	v.SetDefault("skip", []string{})
	v.SetDefault("list", false)
}

// BindFlags declares the command line flags that map onto Settings.
func BindFlags(fs *pflag.FlagSet) {
	fs.StringP("profile", "p", "", "path to a profile YAML file (default: built-in Hello World profile)")
	fs.String("fixture", "", "HTML file to check (overrides the profile)")
	fs.String("format", string(reporter.FormatText), "report format: text, json, junit, markdown, html")
	fs.StringP("output", "o", "", "write the report to this file instead of stdout")
	fs.Duration("timeout", executor.DefaultTimeout, "deadline for the whole suite")
	fs.String("log-level", "info", "log level (debug, info, warn, error)")
	fs.Bool("no-color", false, "disable colored output")
	fs.StringArray("run", nil, "only run checks or sub-checks whose ID matches this regex (repeatable)")
	fs.StringArray("skip", nil, "skip checks or sub-checks whose ID matches this regex (repeatable)")
	fs.Bool("list", false, "list the registered checks and exit")
}

// Load resolves settings. configPath names an explicit config file; when it is
// empty an optional pagecheck.yaml in the working directory is used.
func Load(configPath string, fs *pflag.FlagSet) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			return nil, failure.NewConfigError("config file: %v", err)
		}
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("pagecheck")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return nil, failure.NewConfigError("failed to bind flags: %v", err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, failure.NewConfigError("error reading config: %v", err)
		}
	} else {
		slog.Debug("Loaded config file", "path", v.ConfigFileUsed())
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, failure.NewConfigError("error parsing config: %v", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks values that flags and environment cannot constrain.
func (s *Settings) Validate() error {
	if _, err := reporter.ParseFormat(s.Format); err != nil {
		return failure.NewConfigError("%v", err)
	}
	if _, err := ParseLevel(s.LogLevel); err != nil {
		return err
	}
	if s.Timeout < 0 {
		return failure.NewConfigError("timeout must not be negative, got %s", s.Timeout)
	}
	if _, err := s.Filters(); err != nil {
		return err
	}
	return nil
}

// ReportFormat returns the parsed report format.
func (s *Settings) ReportFormat() reporter.Format {
	f, _ := reporter.ParseFormat(s.Format)
	return f
}

// Filters compiles the run and skip patterns.
func (s *Settings) Filters() (executor.RegexFilters, error) {
	var f executor.RegexFilters
	for _, p := range s.Run {
		if err := f.MustMatch.Set(p); err != nil {
			return f, failure.NewConfigError("--run %q: %v", p, err)
		}
	}
	for _, p := range s.Skip {
		if err := f.MustNotMatch.Set(p); err != nil {
			return f, failure.NewConfigError("--skip %q: %v", p, err)
		}
	}
	return f, nil
}

// ParseLevel maps a log level name onto slog.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, failure.NewConfigError("unknown log level '%s'", name)
	}
}

// SetupLogging installs a text handler on stderr at the configured level.
func (s *Settings) SetupLogging() {
	level, _ := ParseLevel(s.LogLevel)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}
