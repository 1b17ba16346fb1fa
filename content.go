package sourcemap

import (
	"fmt"
	"os"
	"path/filepath"
)

// ContentLoader reads the content of a source given its identifier
type ContentLoader interface {
	GetContent(path string) ([]byte, error)
}

// ContentWriter persists a rendered source map
type ContentWriter interface {
	WriteContent(path string, data []byte) error
}

//  ---- Loaders ----

type FileContentLoader struct{}

func NewFileContentLoader() *FileContentLoader {
	return &FileContentLoader{}
}

func (l *FileContentLoader) GetContent(path string) ([]byte, error) {
	return os.ReadFile(path)
}

type InMemoryContentLoader struct{ files map[string][]byte }

func NewInMemoryContentLoader() *InMemoryContentLoader {
	return &InMemoryContentLoader{files: map[string][]byte{}}
}

func (l *InMemoryContentLoader) Add(path string, content []byte) {
	l.files[path] = content
}

func (l *InMemoryContentLoader) GetContent(path string) ([]byte, error) {
	b, ok := l.files[path]
	if !ok {
		return nil, fmt.Errorf("source not found: %s", path)
	}
	return b, nil
}

// OverlayContentLoader serves in-memory overlays over a base loader,
// handy for buffers that haven't been saved yet
type OverlayContentLoader struct {
	base     ContentLoader
	overlays map[string][]byte
}

func NewOverlayContentLoader(base ContentLoader) *OverlayContentLoader {
	return &OverlayContentLoader{
		base:     base,
		overlays: make(map[string][]byte),
	}
}

func (l *OverlayContentLoader) SetOverlay(path string, content []byte) {
	l.overlays[path] = content
}

func (l *OverlayContentLoader) ClearOverlay(path string) {
	delete(l.overlays, path)
}

func (l *OverlayContentLoader) GetContent(path string) ([]byte, error) {
	if content, ok := l.overlays[path]; ok {
		return content, nil
	}
	return l.base.GetContent(path)
}

//  ---- Writers ----

const defaultWritePermission = 0644 // -rw-r--r--

type FileWriter struct{}

func NewFileWriter() *FileWriter {
	return &FileWriter{}
}

// WriteContent doesn't create missing directories
func (w *FileWriter) WriteContent(path string, data []byte) error {
	dir := filepath.Dir(path)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return &SaveError{Path: dir, Err: ErrDestinationMissing}
	}
	if err := os.WriteFile(path, data, defaultWritePermission); err != nil {
		return &SaveError{Path: path, Err: ErrWriteFailed, Cause: err}
	}
	return nil
}

type InMemoryWriter struct{ Files map[string][]byte }

func NewInMemoryWriter() *InMemoryWriter {
	return &InMemoryWriter{Files: map[string][]byte{}}
}

func (w *InMemoryWriter) WriteContent(path string, data []byte) error {
	w.Files[path] = append([]byte(nil), data...)
	return nil
}

//  ---- Content cache ----

// content is what the cache knows about a source.  A source whose
// load failed is cached with ok == false so it isn't read again.
type content struct {
	text string
	ok   bool
}

type contentCache struct {
	loader  ContentLoader
	entries map[string]content
}

func newContentCache(loader ContentLoader) *contentCache {
	return &contentCache{loader: loader, entries: map[string]content{}}
}

func (cc *contentCache) Set(source, text string) {
	cc.entries[source] = content{text: text, ok: true}
}

// Lookup returns what's cached without loading anything
func (cc *contentCache) Lookup(source string) (string, bool) {
	c := cc.entries[source]
	return c.text, c.ok
}

// Load returns the cached content of `source`, reading it through
// the loader on the first access
func (cc *contentCache) Load(source string) (string, bool) {
	if c, ok := cc.entries[source]; ok {
		return c.text, c.ok
	}
	var c content
	if cc.loader != nil {
		if b, err := cc.loader.GetContent(source); err == nil {
			c = content{text: string(b), ok: true}
		}
	}
	cc.entries[source] = c
	return c.text, c.ok
}
