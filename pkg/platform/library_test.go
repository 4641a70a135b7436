package platform

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
)

func postscriptName(t *testing.T, data []byte) string {
	t.Helper()
	f, err := sfnt.Parse(data)
	require.NoError(t, err)
	name, err := f.Name(nil, sfnt.NameIDPostScript)
	require.NoError(t, err)
	return name
}

func TestLibrary_Register(t *testing.T) {
	lib := NewLibrary()

	name, err := lib.Register(goregular.TTF)
	require.NoError(t, err)
	assert.Equal(t, postscriptName(t, goregular.TTF), name)

	_, err = lib.Register(goregular.TTF)
	assert.ErrorIs(t, err, ErrAlreadyRegistered)

	_, err = lib.Register([]byte("definitely not a font"))
	assert.ErrorIs(t, err, ErrInvalidFont)

	assert.Equal(t, []string{name}, lib.Names())
}

func TestLibrary_FontNames(t *testing.T) {
	lib := NewLibrary()
	for _, data := range [][]byte{goregular.TTF, gobold.TTF, goitalic.TTF} {
		_, err := lib.Register(data)
		require.NoError(t, err)
	}

	names := lib.FontNames("go")
	assert.ElementsMatch(t, []string{
		postscriptName(t, goregular.TTF),
		postscriptName(t, gobold.TTF),
		postscriptName(t, goitalic.TTF),
	}, names)
	assert.IsNonDecreasing(t, names)

	assert.Empty(t, lib.FontNames("Helvetica"))
}

func TestLibrary_InstantiateAndUnregister(t *testing.T) {
	lib := NewLibrary()
	name, err := lib.Register(goregular.TTF)
	require.NoError(t, err)

	face, ok := lib.Instantiate(name, 12)
	require.True(t, ok)
	require.NotNil(t, face)
	assert.Positive(t, face.Metrics().Height.Ceil())
	require.NoError(t, face.Close())

	_, ok = lib.Instantiate(name, 0)
	assert.False(t, ok)
	_, ok = lib.Instantiate("Missing", 12)
	assert.False(t, ok)

	require.NoError(t, lib.Unregister(name))
	assert.ErrorIs(t, lib.Unregister(name), ErrNotRegistered)
	_, ok = lib.Instantiate(name, 12)
	assert.False(t, ok)

	_, err = lib.Register(goregular.TTF)
	assert.NoError(t, err, "a font can be registered again after removal")
}

func TestLibrary_LoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Go-Regular.ttf"), goregular.TTF, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "Go-Bold.TTF"), gobold.TTF, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "copy.otf"), goregular.TTF, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.ttf"), []byte("junk"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.txt"), []byte("hi"), 0o644))

	lib := NewLibrary()
	n, err := lib.LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, lib.Names(), 2)

	_, err = lib.LoadDir(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}
