// Package fixture loads the HTML document under test.
// A Fixture is immutable once loaded: checks read its raw bytes and text, and
// every call to Document parses a fresh DOM so no check can observe another's
// changes.
package fixture

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"pagecheck/pkg/failure"
)

// utf8BOM is the UTF-8 encoding of U+FEFF.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Fixture is a loaded HTML document.
type Fixture struct {
	Path    string
	Size    int64
	ModTime time.Time
	Raw     []byte
	Text    string
}

// FromBytes builds a fixture from in-memory content. The data is copied.
func FromBytes(path string, data []byte) (*Fixture, error) {
	if !utf8.Valid(data) {
		return nil, failure.NewFixtureError(path, failure.NotReadable, errors.New("content is not valid UTF-8"))
	}
	raw := bytes.Clone(data)
	return &Fixture{
		Path: path,
		Size: int64(len(raw)),
		Raw:  raw,
		Text: string(raw),
	}, nil
}

// HasBOM reports whether the document starts with a UTF-8 byte-order mark.
func (f *Fixture) HasBOM() bool {
	return bytes.HasPrefix(f.Raw, utf8BOM)
}

// Document parses the fixture into a new DOM.
func (f *Fixture) Document() (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(f.Raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML from %s: %w", f.Path, err)
	}
	return doc, nil
}

// Load reads the file at path without caching.
func Load(path string) (*Fixture, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, classify(path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, failure.NewFixtureError(path, failure.NotReadable, fmt.Errorf("%s is not a regular file", path))
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, classify(path, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, failure.NewFixtureError(path, failure.NotReadable, err)
	}

	fx, err := FromBytes(path, data)
	if err != nil {
		return nil, err
	}
	fx.ModTime = info.ModTime()
	slog.Debug("Loaded fixture", "path", path, "size", fx.Size)
	return fx, nil
}

func classify(path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return failure.NewFixtureError(path, failure.NotFound, err)
	}
	return failure.NewFixtureError(path, failure.NotReadable, err)
}

// Loader caches fixtures by absolute path. A cached entry is reused only while
// the file's size and modification time are unchanged.
type Loader struct {
	mu    sync.Mutex
	cache map[string]*Fixture
}

// NewLoader creates an empty loader.
func NewLoader() *Loader {
	return &Loader{cache: make(map[string]*Fixture)}
}

// Load returns the cached fixture for path or reads it from disk.
func (l *Loader) Load(path string) (*Fixture, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, failure.NewFixtureError(path, failure.NotReadable, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if cached, ok := l.cache[abs]; ok {
		info, err := os.Stat(abs)
		if err != nil {
			delete(l.cache, abs)
			return nil, classify(path, err)
		}
		if info.Size() == cached.Size && info.ModTime().Equal(cached.ModTime) {
			slog.Debug("Fixture cache hit", "path", abs)
			return cached, nil
		}
	}

	fx, err := Load(abs)
	if err != nil {
		return nil, err
	}
	l.cache[abs] = fx
	return fx, nil
}

// Reload drops any cached entry for path and reads it again.
func (l *Loader) Reload(path string) (*Fixture, error) {
	if abs, err := filepath.Abs(path); err == nil {
		l.mu.Lock()
		delete(l.cache, abs)
		l.mu.Unlock()
	}
	return l.Load(path)
}
