package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSymbolKeyIsStable(t *testing.T) {
	assert.Equal(t, SymbolKey("cpp", "in_other_tu"), SymbolKey("cpp", "in_other_tu"))
	assert.NotEqual(t, SymbolKey("cpp", "in_other_tu"), SymbolKey("c", "in_other_tu"))
	assert.NotEqual(t, SymbolKey("cpp", "a"), SymbolKey("cpp", "b"))
	assert.Len(t, SymbolKey("go:/src/pkg", "Run"), 64)
}

func TestURIRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.cpp")

	u := PathToURI(path)
	assert.Contains(t, string(u), "file://")
	assert.Equal(t, path, URIToPath(string(u)))
	assert.Equal(t, path, URIToPath(path))
}

func TestFindGitRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0755))
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))

	got, err := FindGitRoot(nested)
	require.NoError(t, err)
	assert.Equal(t, root, got)

	plain := t.TempDir()
	got, err = FindGitRoot(plain)
	require.NoError(t, err)
	assert.Equal(t, plain, got)
}
