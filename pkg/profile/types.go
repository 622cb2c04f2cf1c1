// Package profile defines the YAML profile that drives a pagecheck run.
// A profile names the fixture under test, every expected value the checks
// compare against, the checks to run and the delegated validators to use.
package profile

// ProfileWrapper is the root of a profile file with a top-level 'profile:' key.
type ProfileWrapper struct {
	Profile Profile `yaml:"profile" json:"profile"`
}

// Profile is the top-level profile object.
type Profile struct {
	Metadata   Metadata   `yaml:"metadata" json:"metadata"`
	Fixture    Fixture    `yaml:"fixture" json:"fixture"`
	Expect     Expect     `yaml:"expect" json:"expect"`
	Validators Validators `yaml:"validators,omitempty" json:"validators,omitempty"`
	// Checks lists check IDs to run in order. Empty means every registered check.
	Checks []string `yaml:"checks,omitempty" json:"checks,omitempty"`
}

// Metadata describes the profile.
type Metadata struct {
	ID         string   `yaml:"id" json:"id"`
	Title      string   `yaml:"title" json:"title"`
	DslVersion string   `yaml:"dsl_version" json:"dsl_version"`
	Tags       []string `yaml:"tags,omitempty" json:"tags,omitempty"`
}

// Fixture locates the document under test. A relative path is resolved
// against the directory of the profile file.
type Fixture struct {
	Path string `yaml:"path" json:"path"`
}

// Expect holds the expected values for the document.
type Expect struct {
	Lang              string              `yaml:"lang,omitempty" json:"lang,omitempty"`
	Charset           string              `yaml:"charset,omitempty" json:"charset,omitempty"`
	Title             string              `yaml:"title,omitempty" json:"title,omitempty"`
	Heading           string              `yaml:"heading,omitempty" json:"heading,omitempty"`
	Viewport          string              `yaml:"viewport,omitempty" json:"viewport,omitempty"`
	ViewportTokens    []string            `yaml:"viewport_tokens,omitempty" json:"viewport_tokens,omitempty"`
	MaxBytes          int64               `yaml:"max_bytes,omitempty" json:"max_bytes,omitempty"`
	MaxContentBytes   int64               `yaml:"max_content_bytes,omitempty" json:"max_content_bytes,omitempty"`
	SecurityHeaders   []HeaderExpectation `yaml:"security_headers,omitempty" json:"security_headers,omitempty"`
	BodyStyle         []StyleExpectation  `yaml:"body_style,omitempty" json:"body_style,omitempty"`
	StyleDeclarations []string            `yaml:"style_declarations,omitempty" json:"style_declarations,omitempty"`
	ModernElements    []string            `yaml:"modern_elements,omitempty" json:"modern_elements,omitempty"`
}

// HeaderExpectation is a security-policy meta tag that must be present with
// exactly the given content.
type HeaderExpectation struct {
	Name    string `yaml:"name" json:"name"`
	Content string `yaml:"content" json:"content"`
}

// StyleExpectation is a computed CSS property value.
type StyleExpectation struct {
	Property string `yaml:"property" json:"property"`
	Value    string `yaml:"value" json:"value"`
}

// Validators configures the delegated validators.
type Validators struct {
	Markup        ValidatorConfig `yaml:"markup,omitempty" json:"markup,omitempty"`
	Accessibility ValidatorConfig `yaml:"accessibility,omitempty" json:"accessibility,omitempty"`
}

// ValidatorConfig selects a validator implementation and its options.
type ValidatorConfig struct {
	// Type is one of local, nu, command (markup) or a11y (accessibility).
	Type      string   `yaml:"type,omitempty" json:"type,omitempty"`
	Endpoint  string   `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	Command   []string `yaml:"command,omitempty" json:"command,omitempty"`
	LocalOnly *bool    `yaml:"local_only,omitempty" json:"local_only,omitempty"`
	Debug     bool     `yaml:"debug,omitempty" json:"debug,omitempty"`
	Quiet     *bool    `yaml:"quiet,omitempty" json:"quiet,omitempty"`
	WCAG      string   `yaml:"wcag,omitempty" json:"wcag,omitempty"`
	// Retries and RetryDelay apply to remote validators only.
	Retries    int    `yaml:"retries,omitempty" json:"retries,omitempty"`
	RetryDelay string `yaml:"retry_delay,omitempty" json:"retry_delay,omitempty"`
}
