// Package testutil provides shared helpers for dotpilot tests: fixture
// file creation and fully isolated environments with their own dotfiles
// root and data directories.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dotpilot-sh/dotpilot/pkg/paths"
)

// CreateFile creates a file with the given content under dir, making
// parent directories as needed, and returns its path.
func CreateFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// CreateDir creates a directory under parent and returns its path
func CreateDir(t *testing.T, parent, name string) string {
	t.Helper()

	path := filepath.Join(parent, name)
	require.NoError(t, os.MkdirAll(path, 0755))
	return path
}

// CreateSymlink creates a symlink at link pointing to target
func CreateSymlink(t *testing.T, target, link string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(link), 0755))
	require.NoError(t, os.Symlink(target, link))
}

// ReadFile reads a file, failing the test on error
func ReadFile(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// Env is an isolated dotpilot environment for one test. All state,
// config and backup paths live under temp directories wired through
// the environment variables the paths package reads.
type Env struct {
	DotfilesRoot string
	Home         string
	DataDir      string
	StateDir     string
	ConfigDir    string
	Paths        paths.Paths
}

// NewEnv builds an isolated environment and points the process
// environment at it for the duration of the test.
func NewEnv(t *testing.T) *Env {
	t.Helper()

	root := t.TempDir()
	env := &Env{
		DotfilesRoot: filepath.Join(root, "dotfiles"),
		Home:         filepath.Join(root, "home"),
		DataDir:      filepath.Join(root, "data"),
		StateDir:     filepath.Join(root, "state"),
		ConfigDir:    filepath.Join(root, "config"),
	}
	for _, dir := range []string{env.DotfilesRoot, env.Home} {
		require.NoError(t, os.MkdirAll(dir, 0755))
	}

	t.Setenv("HOME", env.Home)
	t.Setenv(paths.EnvDotfilesRoot, env.DotfilesRoot)
	t.Setenv(paths.EnvDotpilotDataDir, env.DataDir)
	t.Setenv(paths.EnvDotpilotStateDir, env.StateDir)
	t.Setenv(paths.EnvDotpilotConfigDir, env.ConfigDir)

	p, err := paths.New("")
	require.NoError(t, err)
	env.Paths = p
	return env
}

// Source creates a file inside the dotfiles root
func (e *Env) Source(t *testing.T, rel, content string) string {
	t.Helper()
	return CreateFile(t, e.DotfilesRoot, rel, content)
}

// Target returns a path inside the fake home directory
func (e *Env) Target(rel string) string {
	return filepath.Join(e.Home, rel)
}
