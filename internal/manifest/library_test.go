package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, dir, file, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, file), []byte("name: "+name+"\n"), 0644))
}

func TestLibraryFallback(t *testing.T) {
	local, shared := t.TempDir(), t.TempDir()
	writeManifest(t, local, "chess.yaml", "local-chess")
	writeManifest(t, shared, "chess.yaml", "shared-chess")
	writeManifest(t, shared, "go.yml", "go")
	require.NoError(t, os.WriteFile(filepath.Join(shared, "notes.txt"), nil, 0644))

	lib := NewLibrary([]string{local, filepath.Join(local, "missing"), shared})

	m, err := lib.Load("chess")
	require.NoError(t, err)
	assert.Equal(t, "local-chess", m.Name, "earlier directories win")

	path, err := lib.Find("go")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(shared, "go.yml"), path)

	names, err := lib.Names()
	require.NoError(t, err)
	assert.Equal(t, []string{"chess", "go"}, names)

	_, err = lib.Find("checkers")
	assert.Error(t, err)
}

func TestLibraryAcceptsPaths(t *testing.T) {
	lib := NewLibrary(nil)
	path, err := lib.Find("testdata/tictactoe.yaml")
	require.NoError(t, err)
	assert.Equal(t, "testdata/tictactoe.yaml", path)
}
