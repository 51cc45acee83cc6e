package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotpilot-sh/dotpilot/pkg/testutil"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var buf bytes.Buffer
	rootCmd := NewRootCmd()
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

// seedTmux creates the source files the default tmux tool links
func seedTmux(t *testing.T, env *testutil.Env) {
	t.Helper()
	env.Source(t, "config/tmux/tmux.conf", "set -g mouse on\n")
	env.Source(t, "config/tmux/plugins/tpm/tpm", "#!/usr/bin/env bash\n")
}

func TestVersionCommand(t *testing.T) {
	out, err := runCommand(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "dotpilot version")
	assert.Contains(t, out, "commit:")
}

func TestCompletionBash(t *testing.T) {
	out, err := runCommand(t, "completion", "bash")
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestNoCommandFails(t *testing.T) {
	_, err := runCommand(t)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no command specified")
}

func TestListShowsToolsAndPackages(t *testing.T) {
	testutil.NewEnv(t)

	out, err := runCommand(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "tmux")
	assert.Contains(t, out, "hyprland")
	assert.Contains(t, out, "Core packages")
	assert.Contains(t, out, "ripgrep")
	assert.Contains(t, out, "DisplayLink driver packages")
	assert.Contains(t, out, "evdi-dkms")
}

func TestFlagSurface(t *testing.T) {
	root := NewRootCmd()

	lookup := func(name, flag string) bool {
		t.Helper()
		for _, sub := range root.Commands() {
			if sub.Name() == name {
				return sub.Flags().Lookup(flag) != nil
			}
		}
		t.Fatalf("command %s not registered", name)
		return false
	}

	assert.True(t, lookup("setup", "no-verify"))
	assert.True(t, lookup("monitor", "monitor-name"))
	assert.True(t, lookup("install", "rollback"))
	assert.True(t, lookup("install", "displaylink"))
	assert.True(t, lookup("install", "force"))
}

func TestTopicsListAndRender(t *testing.T) {
	out, err := runCommand(t, "topics")
	require.NoError(t, err)
	assert.Contains(t, out, "flicker")
	assert.Contains(t, out, "linking")

	out, err = runCommand(t, "topics", "flicker")
	require.NoError(t, err)
	assert.Contains(t, out, "DisplayLink")
}

func TestSetupStatusRollbackFlow(t *testing.T) {
	env := testutil.NewEnv(t)
	seedTmux(t, env)

	out, err := runCommand(t, "setup", "tmux")
	require.NoError(t, err)
	assert.Contains(t, out, "linked tmux.conf")

	target := env.Target(".config/tmux/tmux.conf")
	dest, err := os.Readlink(target)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(env.DotfilesRoot, "config/tmux/tmux.conf"), dest)

	out, err = runCommand(t, "status", "tmux")
	require.NoError(t, err)
	assert.Contains(t, out, "tmux:")
	assert.Contains(t, out, "linked to")

	out, err = runCommand(t, "rollback", "tmux")
	require.NoError(t, err)
	assert.Contains(t, out, "removed link")

	_, err = os.Lstat(target)
	assert.True(t, os.IsNotExist(err))
}

func TestSetupIsIdempotent(t *testing.T) {
	env := testutil.NewEnv(t)
	seedTmux(t, env)

	_, err := runCommand(t, "setup", "tmux")
	require.NoError(t, err)

	out, err := runCommand(t, "setup", "tmux")
	require.NoError(t, err)
	assert.Contains(t, out, "already linked")
}

func TestSetupMissingSourceFails(t *testing.T) {
	env := testutil.NewEnv(t)
	// No sources seeded at all.

	_, err := runCommand(t, "setup", "tmux")
	require.Error(t, err)

	// Nothing was created in the fake home.
	_, statErr := os.Lstat(env.Target(".config/tmux/tmux.conf"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestSetupDryRunTouchesNothing(t *testing.T) {
	env := testutil.NewEnv(t)
	seedTmux(t, env)

	out, err := runCommand(t, "setup", "tmux", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "Dry run")

	_, statErr := os.Lstat(env.Target(".config/tmux/tmux.conf"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestSetupBacksUpExistingFile(t *testing.T) {
	env := testutil.NewEnv(t)
	seedTmux(t, env)
	testutil.CreateFile(t, env.Home, ".config/tmux/tmux.conf", "old settings\n")

	_, err := runCommand(t, "setup", "tmux")
	require.NoError(t, err)

	// Rollback restores the original file contents.
	_, err = runCommand(t, "rollback", "tmux")
	require.NoError(t, err)

	restored := testutil.ReadFile(t, env.Target(".config/tmux/tmux.conf"))
	assert.Equal(t, "old settings\n", restored)
}

func TestSetupRerunKeepsBackupForRollback(t *testing.T) {
	env := testutil.NewEnv(t)
	seedTmux(t, env)
	testutil.CreateFile(t, env.Home, ".config/tmux/tmux.conf", "old settings\n")

	_, err := runCommand(t, "setup", "tmux")
	require.NoError(t, err)
	_, err = runCommand(t, "setup", "tmux")
	require.NoError(t, err)

	out, err := runCommand(t, "rollback", "tmux")
	require.NoError(t, err)
	assert.Contains(t, out, "restored tmux.conf")

	restored := testutil.ReadFile(t, env.Target(".config/tmux/tmux.conf"))
	assert.Equal(t, "old settings\n", restored)
}

func TestUnknownToolRejected(t *testing.T) {
	testutil.NewEnv(t)

	_, err := runCommand(t, "setup", "no-such-tool")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no-such-tool")
}

func TestRollbackWithoutState(t *testing.T) {
	testutil.NewEnv(t)

	out, err := runCommand(t, "rollback", "tmux")
	require.NoError(t, err)
	assert.Contains(t, out, "nothing to roll back")
}
