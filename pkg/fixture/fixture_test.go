package fixture

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagecheck/pkg/failure"
)

func TestLoad_ReadsFixture(t *testing.T) {
	fx, err := Load(filepath.Join("testdata", "index.html"))
	require.NoError(t, err)

	assert.Equal(t, int64(len(fx.Raw)), fx.Size)
	assert.Equal(t, string(fx.Raw), fx.Text)
	assert.False(t, fx.HasBOM())

	doc, err := fx.Document()
	require.NoError(t, err)
	assert.Equal(t, "Hello World", doc.Find("title").Text())
}

func TestLoad_IsIdempotent(t *testing.T) {
	path := filepath.Join("testdata", "index.html")
	first, err := Load(path)
	require.NoError(t, err)
	second, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, first.Raw, second.Raw)
	assert.Equal(t, first.Size, second.Size)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "nope.html"))
	require.Error(t, err)

	var fe *failure.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, failure.FixtureUnavailable, fe.Kind)
	assert.Equal(t, failure.NotFound, fe.Reason)
}

func TestLoad_DirectoryIsNotReadable(t *testing.T) {
	_, err := Load(t.TempDir())
	require.Error(t, err)

	var fe *failure.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, failure.NotReadable, fe.Reason)
}

func TestFromBytes_RejectsInvalidUTF8(t *testing.T) {
	_, err := FromBytes("bad.html", []byte{0xff, 0xfe, 'a'})
	require.Error(t, err)
	assert.True(t, failure.Is(err, failure.FixtureUnavailable))
}

func TestFromBytes_DetectsBOM(t *testing.T) {
	fx, err := FromBytes("bom.html", append([]byte{0xEF, 0xBB, 0xBF}, "<!DOCTYPE html>"...))
	require.NoError(t, err)
	assert.True(t, fx.HasBOM())
}

func TestFromBytes_CopiesInput(t *testing.T) {
	data := []byte("<p>a</p>")
	fx, err := FromBytes("copy.html", data)
	require.NoError(t, err)

	data[1] = 'x'
	assert.Equal(t, "<p>a</p>", fx.Text)
}

func TestDocument_ReturnsFreshDOM(t *testing.T) {
	fx, err := FromBytes("dom.html", []byte("<html><body><h1>Hi</h1></body></html>"))
	require.NoError(t, err)

	first, err := fx.Document()
	require.NoError(t, err)
	first.Find("h1").Remove()

	second, err := fx.Document()
	require.NoError(t, err)
	assert.Equal(t, 1, second.Find("h1").Length())
}

func TestLoader_CachesUntilFileChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.html")
	require.NoError(t, os.WriteFile(path, []byte("<p>one</p>"), 0o644))

	loader := NewLoader()
	first, err := loader.Load(path)
	require.NoError(t, err)
	again, err := loader.Load(path)
	require.NoError(t, err)
	assert.Same(t, first, again)

	require.NoError(t, os.WriteFile(path, []byte("<p>two!</p>"), 0o644))
	later := time.Now().Add(time.Second)
	require.NoError(t, os.Chtimes(path, later, later))

	changed, err := loader.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "<p>two!</p>", changed.Text)
}

func TestLoader_Reload(t *testing.T) {
	path := filepath.Join("testdata", "index.html")
	loader := NewLoader()
	first, err := loader.Load(path)
	require.NoError(t, err)

	reloaded, err := loader.Reload(path)
	require.NoError(t, err)
	assert.NotSame(t, first, reloaded)
	assert.Equal(t, first.Raw, reloaded.Raw)
}

func TestLoader_MissingFile(t *testing.T) {
	_, err := NewLoader().Load(filepath.Join(t.TempDir(), "missing.html"))
	assert.True(t, failure.Is(err, failure.FixtureUnavailable))
}
