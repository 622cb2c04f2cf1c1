package failure

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Message(t *testing.T) {
	err := NewFixtureError("index.html", NotFound, fs.ErrNotExist)
	assert.Equal(t,
		"fixture index.html not available (NotFound): file does not exist\nSuggestion: check the fixture path in the profile or on the command line",
		err.Error())

	v := NewValidatorError("nu", errors.New("HTTP 503"))
	v.Check = "validation/markup"
	assert.Equal(t, "[validation/markup] validator nu failed: HTTP 503", v.Error())

	assert.Equal(t, "unknown validator type 'x'", NewConfigError("unknown validator type '%s'", "x").Error())
}

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("loading: %w", NewFixtureError("a.html", NotReadable, nil))
	assert.Equal(t, FixtureUnavailable, KindOf(wrapped))
	assert.True(t, Is(wrapped, FixtureUnavailable))
	assert.False(t, Is(wrapped, ConfigInvalid))
	assert.True(t, errors.Is(NewFixtureError("a.html", NotFound, fs.ErrNotExist), fs.ErrNotExist))

	assert.Zero(t, KindOf(errors.New("plain")))
	assert.False(t, Is(nil, AssertionFailed))
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "ExternalValidatorFailure", ExternalValidatorFailure.String())
	assert.Equal(t, "Timeout", Timeout.String())
	assert.Equal(t, "Kind(42)", Kind(42).String())
}
