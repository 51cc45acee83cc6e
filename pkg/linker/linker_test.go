package linker

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotpilot-sh/dotpilot/pkg/errors"
	"github.com/dotpilot-sh/dotpilot/pkg/filesystem"
	"github.com/dotpilot-sh/dotpilot/pkg/state"
)

type fixture struct {
	fs        filesystem.FS
	linker    *Linker
	store     *state.Store
	root      string
	home      string
	backupDir string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	fsys := filesystem.NewOS()
	root := t.TempDir()
	home := t.TempDir()
	data := t.TempDir()

	statePath := filepath.Join(data, "state", "tmux.json")
	backupDir := filepath.Join(data, "backups", "tmux")
	store := state.NewStore(fsys, statePath)

	return &fixture{
		fs:        fsys,
		linker:    New(fsys, store, backupDir, "tmux"),
		store:     store,
		root:      root,
		home:      home,
		backupDir: backupDir,
	}
}

func (f *fixture) spec(t *testing.T, name, content string) Spec {
	t.Helper()
	source := filepath.Join(f.root, "config", "tmux", name)
	require.NoError(t, f.fs.MkdirAll(filepath.Dir(source), 0755))
	require.NoError(t, f.fs.WriteFile(source, []byte(content), 0644))
	return Spec{
		Name:   name,
		Source: source,
		Target: filepath.Join(f.home, ".config", "tmux", name),
	}
}

func (f *fixture) readLink(t *testing.T, target string) string {
	t.Helper()
	dest, err := f.fs.Readlink(target)
	require.NoError(t, err)
	return dest
}

func TestSetupFreshTarget(t *testing.T) {
	f := newFixture(t)
	spec := f.spec(t, "tmux.conf", "new")

	result, err := f.linker.Setup([]Spec{spec}, true)
	require.NoError(t, err)

	assert.Equal(t, []string{"tmux.conf"}, result.Linked)
	assert.Empty(t, result.AlreadyLinked)
	assert.Empty(t, result.Warnings)
	assert.Equal(t, spec.Source, f.readLink(t, spec.Target))

	// No backup for an absent target.
	assert.Empty(t, result.State.Backups)
	assert.True(t, f.store.Exists())
}

func TestSetupBacksUpForeignFile(t *testing.T) {
	f := newFixture(t)
	spec := f.spec(t, "tmux.conf", "new")
	require.NoError(t, f.fs.MkdirAll(filepath.Dir(spec.Target), 0755))
	require.NoError(t, f.fs.WriteFile(spec.Target, []byte("old"), 0644))

	result, err := f.linker.Setup([]Spec{spec}, true)
	require.NoError(t, err)

	record, ok := result.State.Backups["tmux.conf"]
	require.True(t, ok)
	assert.Equal(t, state.BackupFile, record.Kind)

	// Backup content is byte-identical to the pre-setup target.
	data, err := f.fs.ReadFile(record.Path)
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))

	// Target now resolves to the source.
	assert.Equal(t, spec.Source, f.readLink(t, spec.Target))
}

func TestSetupMissingSourceAbortsWithoutMutation(t *testing.T) {
	f := newFixture(t)
	good := f.spec(t, "tmux.conf", "new")
	missing := Spec{
		Name:   "plugins",
		Source: filepath.Join(f.root, "config", "tmux", "does-not-exist"),
		Target: filepath.Join(f.home, ".tmux", "plugins"),
	}

	// Pre-existing content that must survive the aborted run.
	require.NoError(t, f.fs.MkdirAll(filepath.Dir(good.Target), 0755))
	require.NoError(t, f.fs.WriteFile(good.Target, []byte("old"), 0644))

	_, err := f.linker.Setup([]Spec{good, missing}, false)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrSourceMissing))

	// No state written, target untouched, no backups made.
	assert.False(t, f.store.Exists())
	data, readErr := f.fs.ReadFile(good.Target)
	require.NoError(t, readErr)
	assert.Equal(t, "old", string(data))
	_, statErr := f.fs.Stat(f.backupDir)
	assert.Error(t, statErr)
}

func TestSetupIdempotent(t *testing.T) {
	f := newFixture(t)
	spec := f.spec(t, "tmux.conf", "new")
	require.NoError(t, f.fs.MkdirAll(filepath.Dir(spec.Target), 0755))
	require.NoError(t, f.fs.WriteFile(spec.Target, []byte("old"), 0644))

	first, err := f.linker.Setup([]Spec{spec}, false)
	require.NoError(t, err)
	require.Len(t, first.State.Backups, 1)

	second, err := f.linker.Setup([]Spec{spec}, false)
	require.NoError(t, err)

	// Second run detects the correct link and creates no backup churn:
	// the state still holds the first run's record, not a new copy.
	assert.Empty(t, second.Linked)
	assert.Equal(t, []string{"tmux.conf"}, second.AlreadyLinked)
	assert.Equal(t, first.State.Backups, second.State.Backups)
	assert.Equal(t, spec.Source, f.readLink(t, spec.Target))

	// Original content is still held by the first run's backup.
	record := first.State.Backups["tmux.conf"]
	data, err := f.fs.ReadFile(record.Path)
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))

	entries, err := f.fs.ReadDir(f.backupDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

// A rerun over a correct link must keep the first run's backup record
// in state, or rollback after the rerun cannot restore the original.
func TestSetupRerunThenRollbackRestoresOriginal(t *testing.T) {
	f := newFixture(t)
	spec := f.spec(t, "tmux.conf", "new")
	require.NoError(t, f.fs.MkdirAll(filepath.Dir(spec.Target), 0755))
	require.NoError(t, f.fs.WriteFile(spec.Target, []byte("old"), 0644))

	_, err := f.linker.Setup([]Spec{spec}, false)
	require.NoError(t, err)

	second, err := f.linker.Setup([]Spec{spec}, false)
	require.NoError(t, err)

	// The rerun's persisted state still carries the original backup.
	record, ok := second.State.Backups["tmux.conf"]
	require.True(t, ok)
	assert.Equal(t, state.BackupFile, record.Kind)

	result, err := f.linker.Rollback([]Spec{spec})
	require.NoError(t, err)
	assert.Equal(t, []string{"tmux.conf"}, result.Restored)

	data, err := f.fs.ReadFile(spec.Target)
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))
}

func TestSetupReplacesStaleSymlink(t *testing.T) {
	f := newFixture(t)
	spec := f.spec(t, "tmux.conf", "new")
	stale := filepath.Join(f.root, "elsewhere")
	require.NoError(t, f.fs.WriteFile(stale, []byte("x"), 0644))
	require.NoError(t, f.fs.MkdirAll(filepath.Dir(spec.Target), 0755))
	require.NoError(t, f.fs.Symlink(stale, spec.Target))

	result, err := f.linker.Setup([]Spec{spec}, true)
	require.NoError(t, err)

	assert.Equal(t, spec.Source, f.readLink(t, spec.Target))

	// Prior symlink is recorded by destination, not copied.
	record := result.State.Backups["tmux.conf"]
	assert.Equal(t, state.BackupSymlink, record.Kind)
	assert.Equal(t, stale, record.LinkTarget)
}

func TestSetupReplacesForeignDirectory(t *testing.T) {
	f := newFixture(t)
	spec := f.spec(t, "plugins", "unused")
	// Source should be a directory for this case.
	require.NoError(t, f.fs.Remove(spec.Source))
	require.NoError(t, f.fs.MkdirAll(spec.Source, 0755))

	require.NoError(t, f.fs.MkdirAll(filepath.Join(spec.Target, "old-plugin"), 0755))
	require.NoError(t, f.fs.WriteFile(filepath.Join(spec.Target, "old-plugin", "run.sh"), []byte("#!/bin/sh"), 0755))

	result, err := f.linker.Setup([]Spec{spec}, true)
	require.NoError(t, err)

	assert.Equal(t, spec.Source, f.readLink(t, spec.Target))
	record := result.State.Backups["plugins"]
	assert.Equal(t, state.BackupDir, record.Kind)
	assert.FileExists(t, filepath.Join(record.Path, "old-plugin", "run.sh"))
}

// The scenario from the tmux example: a plain file "old" is replaced
// by a link to source "new", then rollback restores the plain file.
func TestRollbackRestoresPreSetupState(t *testing.T) {
	f := newFixture(t)
	spec := f.spec(t, "tmux.conf", "new")
	require.NoError(t, f.fs.MkdirAll(filepath.Dir(spec.Target), 0755))
	require.NoError(t, f.fs.WriteFile(spec.Target, []byte("old"), 0644))

	_, err := f.linker.Setup([]Spec{spec}, false)
	require.NoError(t, err)

	result, err := f.linker.Rollback([]Spec{spec})
	require.NoError(t, err)
	assert.True(t, result.HadState)
	assert.Equal(t, []string{"tmux.conf"}, result.RemovedLinks)
	assert.Equal(t, []string{"tmux.conf"}, result.Restored)

	// Target is a plain file again with the original content.
	info, err := f.fs.Lstat(spec.Target)
	require.NoError(t, err)
	assert.True(t, info.Mode().IsRegular())
	data, err := f.fs.ReadFile(spec.Target)
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))

	// State file is gone.
	assert.False(t, f.store.Exists())
}

func TestRollbackRestoresPriorSymlink(t *testing.T) {
	f := newFixture(t)
	spec := f.spec(t, "tmux.conf", "new")
	prior := filepath.Join(f.root, "prior-config")
	require.NoError(t, f.fs.WriteFile(prior, []byte("prior"), 0644))
	require.NoError(t, f.fs.MkdirAll(filepath.Dir(spec.Target), 0755))
	require.NoError(t, f.fs.Symlink(prior, spec.Target))

	_, err := f.linker.Setup([]Spec{spec}, false)
	require.NoError(t, err)

	_, err = f.linker.Rollback([]Spec{spec})
	require.NoError(t, err)

	assert.Equal(t, prior, f.readLink(t, spec.Target))
}

func TestRollbackWithoutStateIsTrivialSuccess(t *testing.T) {
	f := newFixture(t)
	spec := f.spec(t, "tmux.conf", "new")

	result, err := f.linker.Rollback([]Spec{spec})
	require.NoError(t, err)
	assert.False(t, result.HadState)
}

func TestRollbackLeavesForeignReplacementAlone(t *testing.T) {
	f := newFixture(t)
	spec := f.spec(t, "tmux.conf", "new")

	_, err := f.linker.Setup([]Spec{spec}, false)
	require.NoError(t, err)

	// User replaced the managed link with their own file after setup.
	require.NoError(t, f.fs.Remove(spec.Target))
	require.NoError(t, f.fs.WriteFile(spec.Target, []byte("mine"), 0644))

	result, err := f.linker.Rollback([]Spec{spec})
	require.NoError(t, err)
	assert.Empty(t, result.RemovedLinks)

	data, err := f.fs.ReadFile(spec.Target)
	require.NoError(t, err)
	assert.Equal(t, "mine", string(data))
}

func TestSetupDryRunIsPure(t *testing.T) {
	f := newFixture(t)
	spec := f.spec(t, "tmux.conf", "new")
	require.NoError(t, f.fs.MkdirAll(filepath.Dir(spec.Target), 0755))
	require.NoError(t, f.fs.WriteFile(spec.Target, []byte("old"), 0644))

	dry := filesystem.NewDryRun(f.fs)
	dryStore := state.NewStore(dry, f.store.Path())
	dryLinker := New(dry, dryStore, f.backupDir, "tmux")

	result, err := dryLinker.Setup([]Spec{spec}, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"tmux.conf"}, result.Linked)
	assert.NotEmpty(t, dry.Intents())

	// Filesystem untouched: target still the plain file, no state, no backups.
	info, err := f.fs.Lstat(spec.Target)
	require.NoError(t, err)
	assert.True(t, info.Mode().IsRegular())
	data, err := f.fs.ReadFile(spec.Target)
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))
	assert.False(t, f.store.Exists())
	_, statErr := f.fs.Stat(f.backupDir)
	assert.Error(t, statErr)
}

func TestStatusClassification(t *testing.T) {
	f := newFixture(t)

	linked := f.spec(t, "linked.conf", "a")
	wrong := f.spec(t, "wrong.conf", "b")
	file := f.spec(t, "file.conf", "c")
	dir := f.spec(t, "dir.conf", "d")
	absent := f.spec(t, "absent.conf", "e")

	_, err := f.linker.Setup([]Spec{linked}, false)
	require.NoError(t, err)

	elsewhere := filepath.Join(f.root, "elsewhere")
	require.NoError(t, f.fs.WriteFile(elsewhere, []byte("x"), 0644))
	require.NoError(t, f.fs.MkdirAll(filepath.Dir(wrong.Target), 0755))
	require.NoError(t, f.fs.Symlink(elsewhere, wrong.Target))
	require.NoError(t, f.fs.WriteFile(file.Target, []byte("foreign"), 0644))
	require.NoError(t, f.fs.MkdirAll(dir.Target, 0755))

	statuses := f.linker.Status([]Spec{linked, wrong, file, dir, absent})
	require.Len(t, statuses, 5)
	assert.Equal(t, TargetLinked, statuses[0].State)
	assert.Equal(t, TargetWrongLink, statuses[1].State)
	assert.Equal(t, elsewhere, statuses[1].LinkDest)
	assert.Equal(t, TargetForeignFile, statuses[2].State)
	assert.Equal(t, TargetForeignDir, statuses[3].State)
	assert.Equal(t, TargetAbsent, statuses[4].State)
}

func TestStatusReportsMissingSource(t *testing.T) {
	f := newFixture(t)
	spec := Spec{
		Name:   "ghost.conf",
		Source: filepath.Join(f.root, "config", "ghost.conf"),
		Target: filepath.Join(f.home, ".config", "ghost.conf"),
	}

	statuses := f.linker.Status([]Spec{spec})
	require.Len(t, statuses, 1)
	assert.True(t, statuses[0].SourceMissing)
	assert.Equal(t, TargetAbsent, statuses[0].State)
}
