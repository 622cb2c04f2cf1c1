package executor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegexFilters(t *testing.T) {
	var f RegexFilters
	assert.True(t, f.Match("anything"))
	assert.Empty(t, f.Describe())

	require.NoError(t, f.MustMatch.Set("^security/"))
	require.NoError(t, f.MustMatch.Set("^style/"))
	require.NoError(t, f.MustNotMatch.Set("X-Frame"))

	assert.True(t, f.Match("security/headers"))
	assert.True(t, f.Match("style/body-layout"))
	assert.False(t, f.Match("structure/title"))
	assert.False(t, f.Match("security/headers/X-Frame-Options"))

	assert.Equal(t, `skip any not matching "^security/" or "^style/"; skip any matching "X-Frame"`, f.Describe())
}

func TestRegexList_InvalidPattern(t *testing.T) {
	var l RegexList
	assert.Error(t, l.Set("(unclosed"))
	assert.False(t, l.IsDefined())
}

func TestRegexFilters_MatchSub(t *testing.T) {
	var f RegexFilters
	assert.True(t, f.MatchSub("security/headers", "security/headers/Referrer-Policy"))

	require.NoError(t, f.MustMatch.Set("Referrer-Policy$"))
	assert.False(t, f.Match("security/headers"))
	assert.True(t, f.MatchSub("security/headers", "security/headers/Referrer-Policy"))
	assert.False(t, f.MatchSub("security/headers", "security/headers/X-Frame-Options"))

	require.NoError(t, f.MustNotMatch.Set("Referrer"))
	assert.False(t, f.MatchSub("security/headers", "security/headers/Referrer-Policy"))
}
