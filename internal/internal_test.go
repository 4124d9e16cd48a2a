package internal

import (
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rm-hull/emote-overlays/internal/raster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLoader struct {
	err error
}

func (s *stubLoader) LoadSurface(_ context.Context, uri string) (*raster.Surface, error) {
	if s.err != nil {
		return nil, s.err
	}
	if uri == "" {
		return raster.EffectOnly(), nil
	}
	return raster.FromImage(image.NewNRGBA(image.Rect(0, 0, 2, 2))), nil
}

func TestCatalog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "templates.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"templates": {"bee": {"src": "bee.png"}}}`), 0o644))

	loader := &stubLoader{}
	catalog, err := NewCatalog(context.Background(), path, loader, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"bee"}, catalog.Names())

	bee, ok := catalog.Lookup("bee")
	require.True(t, ok)
	assert.NotNil(t, bee[0].Image)

	t.Run("reload swaps the table", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte(`{"templates": {"bee": {"src": "bee.png"}, "ghost": {"srcFilter": "invert_transparency"}}}`), 0o644))
		require.NoError(t, catalog.Reload(context.Background()))
		assert.Equal(t, []string{"bee", "ghost"}, catalog.Names())
	})

	t.Run("failed reload keeps the previous table", func(t *testing.T) {
		loader.err = errors.New("offline")
		defer func() { loader.err = nil }()

		assert.Error(t, catalog.Reload(context.Background()))
		assert.Equal(t, []string{"bee", "ghost"}, catalog.Names())
	})

	t.Run("missing config", func(t *testing.T) {
		_, err := NewCatalog(context.Background(), filepath.Join(dir, "nope.json"), loader, 1)
		assert.Error(t, err)
	})
}

func TestSweep(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "old.gif")
	fresh := filepath.Join(dir, "fresh.png")
	require.NoError(t, os.WriteFile(old, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(fresh, []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))

	removed, err := sweep(dir, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.NoFileExists(t, old)
	assert.FileExists(t, fresh)
	assert.DirExists(t, filepath.Join(dir, "sub"))
}

func TestWriteRender(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "renders")
	path, err := WriteRender(dir, "abc.gif", []byte("GIF89a"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "abc.gif"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "GIF89a", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file is cleaned up")
}

func TestMask(t *testing.T) {
	assert.Equal(t, "********", mask("DISCORD_TOKEN", "abc"))
	assert.Equal(t, "********", mask("db_password", "abc"))
	assert.Equal(t, "8080", mask("PORT", "8080"))
}
