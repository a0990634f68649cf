package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Contains(t, cfg.Languages, "cpp")
	assert.True(t, cfg.Session.Enabled)
	assert.Equal(t, 200, cfg.Session.HistoryLimit)
	assert.False(t, cfg.Preload.Enabled)
	assert.True(t, cfg.Logging.Warnings)
}

func TestLoad_NonExistent(t *testing.T) {
	cfg, err := Load("/nonexistent/path/codenav.yaml")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadFromDir(t *testing.T) {
	dir := t.TempDir()
	content := `
languages: [c, cpp]
include_paths: [/usr/local/include]
transparent_kinds:
  cpp: [expression_statement]
session:
  enabled: false
logging:
  debug: true
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644))

	cfg, err := LoadFromDir(dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"c", "cpp"}, cfg.Languages)
	assert.Equal(t, []string{"/usr/local/include"}, cfg.IncludePaths)
	assert.Equal(t, []string{"expression_statement"}, cfg.TransparentKinds["cpp"])
	assert.False(t, cfg.Session.Enabled)
	assert.True(t, cfg.Logging.Debug)
	// untouched sections keep their defaults
	assert.Equal(t, 2000, cfg.Preload.MaxFiles)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("languages: [c\n"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	cfg := DefaultConfig()
	cfg.IncludePaths = []string{"include"}
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestSessionPath(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, filepath.Join("/home/nav", "session.db"), cfg.SessionPath("/home/nav"))

	cfg.Session.Path = "/var/lib/codenav.db"
	assert.Equal(t, "/var/lib/codenav.db", cfg.SessionPath("/home/nav"))

	cfg.Session.Path = ":memory:"
	assert.Equal(t, ":memory:", cfg.SessionPath("/home/nav"))
}

func TestHomeFromEnv(t *testing.T) {
	t.Setenv("CODENAV_HOME", "/opt/codenav")
	home, err := Home()
	require.NoError(t, err)
	assert.Equal(t, "/opt/codenav", home)

	dir := filepath.Join(t.TempDir(), "nested")
	got, err := ResolveHome(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, got)
	assert.DirExists(t, dir)
}
