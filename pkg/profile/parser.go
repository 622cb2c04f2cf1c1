package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"pagecheck/pkg/failure"
)

const ExpectedDslVersion = "1.0"

// Default ceilings for the two size checks.
const (
	DefaultMaxBytes        = 1024
	DefaultMaxContentBytes = 10 * 1024
)

// Validator types.
const (
	ValidatorLocal   = "local"
	ValidatorNu      = "nu"
	ValidatorCommand = "command"
	ValidatorA11y    = "a11y"
)

// Default returns the profile for the Hello World page.
func Default() *Profile {
	p := &Profile{
		Metadata: Metadata{
			ID:         "hello-world",
			Title:      "Hello World landing page",
			DslVersion: ExpectedDslVersion,
		},
		Fixture: Fixture{Path: "index.html"},
	}
	ApplyDefaults(p)
	return p
}

// DefaultSecurityHeaders is the canonical security meta tag table.
func DefaultSecurityHeaders() []HeaderExpectation {
	return []HeaderExpectation{
		{Name: "Content-Security-Policy", Content: "default-src 'self'"},
		{Name: "X-Frame-Options", Content: "DENY"},
		{Name: "X-Content-Type-Options", Content: "nosniff"},
		{Name: "Strict-Transport-Security", Content: "max-age=31536000"},
		{Name: "Referrer-Policy", Content: "no-referrer"},
	}
}

// ApplyDefaults fills every unset expectation with the Hello World defaults.
func ApplyDefaults(p *Profile) {
	e := &p.Expect
	if e.Lang == "" {
		e.Lang = "en"
	}
	if e.Charset == "" {
		e.Charset = "UTF-8"
	}
	if e.Title == "" {
		e.Title = "Hello World"
	}
	if e.Heading == "" {
		e.Heading = "Hello World"
	}
	if e.Viewport == "" {
		e.Viewport = "width=device-width, initial-scale=1.0"
	}
	if len(e.ViewportTokens) == 0 {
		e.ViewportTokens = []string{"width=device-width", "initial-scale=1.0"}
	}
	if e.MaxBytes == 0 {
		e.MaxBytes = DefaultMaxBytes
	}
	if e.MaxContentBytes == 0 {
		e.MaxContentBytes = DefaultMaxContentBytes
	}
	if len(e.SecurityHeaders) == 0 {
		e.SecurityHeaders = DefaultSecurityHeaders()
	}
	if len(e.BodyStyle) == 0 {
		e.BodyStyle = []StyleExpectation{
			{Property: "display", Value: "flex"},
			{Property: "justify-content", Value: "center"},
			{Property: "align-items", Value: "center"},
		}
	}
	if len(e.StyleDeclarations) == 0 {
		e.StyleDeclarations = []string{"display: flex", "justify-content: center", "align-items: center"}
	}
	if len(e.ModernElements) == 0 {
		e.ModernElements = []string{"main", "header", "footer", "nav", "article", "section"}
	}

	v := &p.Validators
	if v.Markup.Type == "" {
		v.Markup.Type = ValidatorLocal
	}
	if v.Markup.LocalOnly == nil {
		v.Markup.LocalOnly = boolPtr(true)
	}
	if v.Markup.Quiet == nil {
		v.Markup.Quiet = boolPtr(true)
	}
	if v.Accessibility.Type == "" {
		v.Accessibility.Type = ValidatorA11y
	}
	if v.Accessibility.WCAG == "" {
		v.Accessibility.WCAG = "2.1 A"
	}
	if v.Accessibility.LocalOnly == nil {
		v.Accessibility.LocalOnly = boolPtr(true)
	}
	if v.Accessibility.Quiet == nil {
		v.Accessibility.Quiet = boolPtr(true)
	}
}

func boolPtr(b bool) *bool { return &b }

// LoadFromFile reads a profile from a YAML file. Both the wrapped form (top-level
// 'profile:' key) and a bare profile document are accepted. A relative fixture
// path is resolved against the profile's directory.
func LoadFromFile(filePath string) (*Profile, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, failure.NewConfigError("failed to read profile '%s': %v", filePath, err)
	}

	p, err := Parse(data)
	if err != nil {
		return nil, failure.NewConfigError("profile '%s': %v", filepath.Base(filePath), err)
	}

	if p.Fixture.Path != "" && !filepath.IsAbs(p.Fixture.Path) {
		p.Fixture.Path = filepath.Join(filepath.Dir(filePath), p.Fixture.Path)
	}
	return p, nil
}

// Parse decodes, defaults and validates a profile document.
func Parse(data []byte) (*Profile, error) {
	var wrapper ProfileWrapper
	err := yaml.Unmarshal(data, &wrapper)

	var p Profile
	if err == nil && wrapper.Profile.Metadata.ID != "" {
		p = wrapper.Profile
	} else if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("YAML parsing error: %w", err)
	}

	if p.Metadata.DslVersion != ExpectedDslVersion {
		return nil, fmt.Errorf("invalid DSL version: expected '%s', got '%s'", ExpectedDslVersion, p.Metadata.DslVersion)
	}

	ApplyDefaults(&p)
	if err := Validate(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks a profile's structure.
func Validate(p *Profile) error {
	if p == nil {
		return fmt.Errorf("nil profile cannot be validated")
	}
	if p.Metadata.ID == "" {
		return fmt.Errorf("metadata.id is required")
	}
	if p.Metadata.DslVersion == "" {
		return fmt.Errorf("metadata.dsl_version is required")
	}
	if p.Expect.MaxBytes < 0 {
		return fmt.Errorf("expect.max_bytes must not be negative")
	}
	if p.Expect.MaxContentBytes < 0 {
		return fmt.Errorf("expect.max_content_bytes must not be negative")
	}

	seen := make(map[string]bool)
	for i, h := range p.Expect.SecurityHeaders {
		if h.Name == "" {
			return fmt.Errorf("expect.security_headers[%d].name is required", i)
		}
		if seen[h.Name] {
			return fmt.Errorf("expect.security_headers[%d]: duplicate header '%s'", i, h.Name)
		}
		seen[h.Name] = true
	}
	for i, s := range p.Expect.BodyStyle {
		if s.Property == "" {
			return fmt.Errorf("expect.body_style[%d].property is required", i)
		}
	}
	for i, id := range p.Checks {
		if id == "" {
			return fmt.Errorf("checks[%d] is empty", i)
		}
	}

	if err := validateRetry("validators.markup", p.Validators.Markup); err != nil {
		return err
	}

	switch p.Validators.Markup.Type {
	case ValidatorLocal:
	case ValidatorNu:
		if p.Validators.Markup.Endpoint == "" && !*p.Validators.Markup.LocalOnly {
			return fmt.Errorf("validators.markup.endpoint is required for nu validator")
		}
	case ValidatorCommand:
		if len(p.Validators.Markup.Command) == 0 {
			return fmt.Errorf("validators.markup.command is required for command validator")
		}
	default:
		return fmt.Errorf("validators.markup.type '%s' is not supported", p.Validators.Markup.Type)
	}

	switch p.Validators.Accessibility.Type {
	case ValidatorA11y:
	case ValidatorCommand:
		if len(p.Validators.Accessibility.Command) == 0 {
			return fmt.Errorf("validators.accessibility.command is required for command validator")
		}
	default:
		return fmt.Errorf("validators.accessibility.type '%s' is not supported", p.Validators.Accessibility.Type)
	}
	return nil
}

func validateRetry(field string, cfg ValidatorConfig) error {
	if cfg.Retries < 0 {
		return fmt.Errorf("%s.retries must not be negative", field)
	}
	if cfg.RetryDelay != "" {
		if _, err := time.ParseDuration(cfg.RetryDelay); err != nil {
			return fmt.Errorf("%s.retry_delay: %w", field, err)
		}
	}
	return nil
}

// SaveToFile serializes a profile to YAML.
func SaveToFile(p *Profile, filePath string, asWrapper bool) error {
	var data []byte
	var err error

	if asWrapper {
		data, err = yaml.Marshal(ProfileWrapper{Profile: *p})
	} else {
		data, err = yaml.Marshal(p)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal profile to YAML: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write to file '%s': %w", filePath, err)
	}
	return nil
}
