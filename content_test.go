package sourcemap

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingLoader struct {
	base  ContentLoader
	calls map[string]int
}

func (l *countingLoader) GetContent(path string) ([]byte, error) {
	l.calls[path]++
	return l.base.GetContent(path)
}

func TestContentCache(t *testing.T) {
	files := NewInMemoryContentLoader()
	files.Add("a.scss", []byte("a {}"))
	loader := &countingLoader{base: files, calls: map[string]int{}}
	cache := newContentCache(loader)

	t.Run("loads once", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			text, ok := cache.Load("a.scss")
			require.True(t, ok)
			assert.Equal(t, "a {}", text)
		}
		assert.Equal(t, 1, loader.calls["a.scss"])
	})

	t.Run("failures are cached as no content", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			_, ok := cache.Load("missing.scss")
			require.False(t, ok)
		}
		assert.Equal(t, 1, loader.calls["missing.scss"])
	})

	t.Run("set overrides loading", func(t *testing.T) {
		cache.Set("b.scss", "b {}")
		text, ok := cache.Load("b.scss")
		require.True(t, ok)
		assert.Equal(t, "b {}", text)
		assert.Zero(t, loader.calls["b.scss"])
	})

	t.Run("lookup doesn't load", func(t *testing.T) {
		_, ok := cache.Lookup("c.scss")
		assert.False(t, ok)
		assert.Zero(t, loader.calls["c.scss"])
	})

	t.Run("empty content is still content", func(t *testing.T) {
		cache.Set("empty.scss", "")
		_, ok := cache.Lookup("empty.scss")
		assert.True(t, ok)
	})
}

func TestContentLoaders(t *testing.T) {
	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "a.scss")
		require.NoError(t, os.WriteFile(path, []byte("a {}"), 0644))

		b, err := NewFileContentLoader().GetContent(path)
		require.NoError(t, err)
		assert.Equal(t, "a {}", string(b))

		_, err = NewFileContentLoader().GetContent(path + ".missing")
		require.Error(t, err)
	})

	t.Run("in memory", func(t *testing.T) {
		loader := NewInMemoryContentLoader()
		loader.Add("a.scss", []byte("a {}"))

		b, err := loader.GetContent("a.scss")
		require.NoError(t, err)
		assert.Equal(t, "a {}", string(b))

		_, err = loader.GetContent("b.scss")
		require.Error(t, err)
	})

	t.Run("overlay", func(t *testing.T) {
		base := NewInMemoryContentLoader()
		base.Add("a.scss", []byte("saved"))
		loader := NewOverlayContentLoader(base)

		loader.SetOverlay("a.scss", []byte("unsaved"))
		b, err := loader.GetContent("a.scss")
		require.NoError(t, err)
		assert.Equal(t, "unsaved", string(b))

		loader.ClearOverlay("a.scss")
		b, err = loader.GetContent("a.scss")
		require.NoError(t, err)
		assert.Equal(t, "saved", string(b))
	})
}

func TestFileWriter(t *testing.T) {
	dir := t.TempDir()

	t.Run("writes", func(t *testing.T) {
		path := filepath.Join(dir, "out.css.map")
		require.NoError(t, NewFileWriter().WriteContent(path, []byte("{}")))

		b, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "{}", string(b))
	})

	t.Run("missing directory", func(t *testing.T) {
		missing := filepath.Join(dir, "missing")
		err := NewFileWriter().WriteContent(filepath.Join(missing, "out.css.map"), []byte("{}"))
		require.ErrorIs(t, err, ErrDestinationMissing)
		require.NotErrorIs(t, err, ErrWriteFailed)

		var saveErr *SaveError
		require.True(t, errors.As(err, &saveErr))
		assert.Equal(t, missing, saveErr.Path)
		assert.Contains(t, err.Error(), "does not exist")
	})

	t.Run("write failure", func(t *testing.T) {
		// the destination is a directory
		err := NewFileWriter().WriteContent(dir, []byte("{}"))
		require.ErrorIs(t, err, ErrWriteFailed)
		require.NotErrorIs(t, err, ErrDestinationMissing)
	})
}

func TestInMemoryWriter(t *testing.T) {
	w := NewInMemoryWriter()
	data := []byte("{}")
	require.NoError(t, w.WriteContent("out.map", data))
	data[0] = '['
	assert.Equal(t, "{}", string(w.Files["out.map"]))
}
