package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sourceplane/foldbatch/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestResolveInputs(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, filepath.Join(dir, "a.sdf"), "x")
	b := writeFile(t, filepath.Join(dir, "nested", "b.SMI"), "CCO")
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignore me")

	t.Run("directory is walked and filtered", func(t *testing.T) {
		files, err := ResolveInputs(dir, LigandExtensions)
		require.NoError(t, err)
		assert.Equal(t, []string{a, b}, files)
	})

	t.Run("single file is returned regardless of extension", func(t *testing.T) {
		txt := filepath.Join(dir, "notes.txt")
		files, err := ResolveInputs(txt, LigandExtensions)
		require.NoError(t, err)
		assert.Equal(t, []string{txt}, files)
		assert.ErrorIs(t, RequireExtension(txt, LigandExtensions), model.ErrUnsupportedFormat)
	})

	t.Run("missing path", func(t *testing.T) {
		_, err := ResolveInputs(filepath.Join(dir, "missing"), LigandExtensions)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("directory without matching files", func(t *testing.T) {
		empty := t.TempDir()
		writeFile(t, filepath.Join(empty, "readme.md"), "#")
		_, err := ResolveInputs(empty, LigandExtensions)
		assert.ErrorIs(t, err, model.ErrNoValidInput)
	})
}

func TestStem(t *testing.T) {
	assert.Equal(t, "ligand", Stem("/data/ligand.part.sdf"))
	assert.Equal(t, "x_part_0", Stem("x_part_0.sdf"))
	assert.Equal(t, "noext", Stem("noext"))
}
