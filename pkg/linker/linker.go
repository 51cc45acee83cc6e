// Package linker implements the setup/rollback state machine that
// links repository-owned config sources into their live locations.
//
// A setup run moves through validate, backup, replace, and persist
// steps. Validation failures abort before any filesystem mutation;
// backup failures abort before any destructive step. Replacement
// creates the new symlink at a temporary path and renames it over the
// target, so the target is never left absent by a crash mid-replace.
package linker

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dotpilot-sh/dotpilot/pkg/backup"
	"github.com/dotpilot-sh/dotpilot/pkg/errors"
	"github.com/dotpilot-sh/dotpilot/pkg/filesystem"
	"github.com/dotpilot-sh/dotpilot/pkg/logging"
	"github.com/dotpilot-sh/dotpilot/pkg/state"
)

// Spec is the declarative description of one managed link: a
// repository-owned source and the live target location it should
// occupy.
type Spec struct {
	Name   string
	Source string
	Target string
}

// TargetState classifies what currently occupies a spec's target
type TargetState string

const (
	// TargetLinked means the target is a symlink resolving to the source
	TargetLinked TargetState = "linked"

	// TargetWrongLink means the target is a symlink to somewhere else
	TargetWrongLink TargetState = "wrong-link"

	// TargetForeignFile means a regular file occupies the target
	TargetForeignFile TargetState = "file"

	// TargetForeignDir means a directory occupies the target
	TargetForeignDir TargetState = "dir"

	// TargetAbsent means nothing occupies the target
	TargetAbsent TargetState = "absent"
)

// SpecStatus is the classification of one spec's target
type SpecStatus struct {
	Spec          Spec
	State         TargetState
	LinkDest      string
	SourceMissing bool
}

// SetupResult summarizes a completed setup run
type SetupResult struct {
	State         *state.LinkState
	Linked        []string
	AlreadyLinked []string
	Warnings      []string
}

// RollbackResult summarizes a rollback run
type RollbackResult struct {
	HadState       bool
	RemovedLinks   []string
	Restored       []string
	MissingBackups []string
}

// Linker runs the state machine for one tool
type Linker struct {
	fs        filesystem.FS
	store     *state.Store
	backupDir string
	tool      string
}

// New creates a linker for one tool. All mutations go through fsys, so
// wrapping it in a dry-run decorator previews the whole run.
func New(fsys filesystem.FS, store *state.Store, backupDir, tool string) *Linker {
	return &Linker{fs: fsys, store: store, backupDir: backupDir, tool: tool}
}

// Setup validates, backs up, links, and persists state for the given
// specs. The state file is fully overwritten, not appended to; backup
// records from the previous run are carried forward so a rerun never
// loses the path back to the original content. When verify is set,
// each created link is re-read afterwards and mismatches are reported
// as warnings without rolling back.
func (l *Linker) Setup(specs []Spec, verify bool) (*SetupResult, error) {
	logger := logging.GetLogger("linker")
	done := logging.LogOperationStart(logger, "setup "+l.tool)
	defer done()

	// Validate: every source must exist before anything is touched.
	for _, spec := range specs {
		if _, err := l.fs.Lstat(spec.Source); err != nil {
			return nil, errors.Newf(errors.ErrSourceMissing,
				"source for %q not found: %s", spec.Name, spec.Source).
				WithDetail("tool", l.tool)
		}
	}

	st := state.NewLinkState(l.tool)
	backups := backup.NewManager(l.fs, l.backupDir, st.Timestamp)
	result := &SetupResult{State: st}

	// Carry forward backups recorded by an earlier run. Without this a
	// rerun over an already-correct link would overwrite the state file
	// with empty backups and rollback could no longer restore the
	// original content.
	prev := state.NewLinkState(l.tool)
	if l.store.Load(prev) {
		for _, spec := range specs {
			if record, ok := prev.Backups[spec.Name]; ok {
				st.Backups[spec.Name] = record
			}
		}
	}

	// Partition specs: already-correct links are left alone so reruns
	// create no redundant backups.
	var pending []Spec
	for _, spec := range specs {
		if l.isLinked(spec) {
			logger.Debug().Str("name", spec.Name).Msg("Already linked, skipping")
			result.AlreadyLinked = append(result.AlreadyLinked, spec.Name)
			st.LinksCreated = append(st.LinksCreated, spec.Name)
			continue
		}
		pending = append(pending, spec)
	}

	// Backup everything before the first destructive step. A failure
	// here aborts with the targets untouched; partial backups already
	// written are harmless orphans.
	for _, spec := range pending {
		record, err := backups.Backup(spec.Name, spec.Target)
		if err != nil {
			return nil, err
		}
		if record != nil {
			st.Backups[spec.Name] = *record
		}
	}

	// Replace each target with a fresh symlink.
	for _, spec := range pending {
		if err := l.replace(spec); err != nil {
			return nil, err
		}
		logger.Info().Str("target", spec.Target).Str("source", spec.Source).Msg("Linked")
		result.Linked = append(result.Linked, spec.Name)
		st.LinksCreated = append(st.LinksCreated, spec.Name)
	}

	// Only after this write is the run durably complete.
	if err := l.store.Save(st); err != nil {
		return nil, err
	}

	if verify {
		for _, spec := range specs {
			if !l.isLinked(spec) {
				warning := errors.Newf(errors.ErrLinkVerify,
					"%s does not resolve to %s", spec.Target, spec.Source).Error()
				logger.Warn().Str("name", spec.Name).Msg("Verification failed")
				result.Warnings = append(result.Warnings, warning)
			}
		}
	}

	return result, nil
}

// Rollback reverses the recorded setup run: created symlinks are
// removed (only if they are still symlinks), backups are restored, and
// the state file is deleted. With no state present it reports
// nothing-to-do and succeeds. Edits made to targets after setup are
// overwritten by the restored backups.
func (l *Linker) Rollback(specs []Spec) (*RollbackResult, error) {
	logger := logging.GetLogger("linker")

	st := state.NewLinkState(l.tool)
	if !l.store.Load(st) || st.IsEmpty() {
		logger.Info().Str("tool", l.tool).Msg("No setup state, nothing to roll back")
		return &RollbackResult{HadState: false}, nil
	}

	result := &RollbackResult{HadState: true}
	byName := make(map[string]Spec, len(specs))
	for _, spec := range specs {
		byName[spec.Name] = spec
	}

	backups := backup.NewManager(l.fs, l.backupDir, st.Timestamp)

	for _, name := range st.LinksCreated {
		spec, ok := byName[name]
		if !ok {
			logger.Warn().Str("name", name).Msg("Recorded link no longer declared, skipping")
			continue
		}
		info, err := l.fs.Lstat(spec.Target)
		if err != nil {
			continue
		}
		if info.Mode()&fs.ModeSymlink == 0 {
			logger.Warn().Str("target", spec.Target).Msg("Target is no longer a symlink, leaving in place")
			continue
		}
		if err := l.fs.Remove(spec.Target); err != nil {
			return result, errors.Wrapf(err, errors.ErrFileAccess, "failed to remove symlink %s", spec.Target)
		}
		result.RemovedLinks = append(result.RemovedLinks, name)
	}

	for name, record := range st.Backups {
		spec, ok := byName[name]
		if !ok {
			logger.Warn().Str("name", name).Msg("Recorded backup no longer declared, skipping")
			continue
		}
		if !backups.Exists(record) {
			logger.Warn().Str("name", name).Str("backup", record.Path).Msg("Backup missing, cannot restore")
			result.MissingBackups = append(result.MissingBackups, name)
			continue
		}
		if err := backups.Restore(record, spec.Target); err != nil {
			return result, err
		}
		result.Restored = append(result.Restored, name)
	}

	if err := l.store.Clear(); err != nil {
		return result, err
	}

	logger.Info().Str("tool", l.tool).
		Int("removed", len(result.RemovedLinks)).
		Int("restored", len(result.Restored)).
		Msg("Rollback complete")
	return result, nil
}

// Status classifies each spec's target without mutating anything
func (l *Linker) Status(specs []Spec) []SpecStatus {
	statuses := make([]SpecStatus, 0, len(specs))
	for _, spec := range specs {
		status := SpecStatus{Spec: spec}

		if _, err := l.fs.Lstat(spec.Source); err != nil {
			status.SourceMissing = true
		}

		info, err := l.fs.Lstat(spec.Target)
		switch {
		case os.IsNotExist(err):
			status.State = TargetAbsent
		case err != nil:
			status.State = TargetAbsent
		case info.Mode()&fs.ModeSymlink != 0:
			dest, err := l.fs.Readlink(spec.Target)
			status.LinkDest = dest
			if err == nil && dest == spec.Source {
				status.State = TargetLinked
			} else {
				status.State = TargetWrongLink
			}
		case info.IsDir():
			status.State = TargetForeignDir
		default:
			status.State = TargetForeignFile
		}

		statuses = append(statuses, status)
	}
	return statuses
}

// isLinked reports whether the target is already a symlink resolving
// to the source
func (l *Linker) isLinked(spec Spec) bool {
	info, err := l.fs.Lstat(spec.Target)
	if err != nil || info.Mode()&fs.ModeSymlink == 0 {
		return false
	}
	dest, err := l.fs.Readlink(spec.Target)
	return err == nil && dest == spec.Source
}

// replace installs a symlink at spec.Target pointing at spec.Source.
// The link is created at a temporary sibling path and renamed over the
// target, which replaces files and stale links atomically. Rename
// cannot replace a directory, so directories are removed first; their
// content has already been backed up by this point.
func (l *Linker) replace(spec Spec) error {
	parent := filepath.Dir(spec.Target)
	if err := l.fs.MkdirAll(parent, 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "failed to create parent directory %s", parent)
	}

	if info, err := l.fs.Lstat(spec.Target); err == nil {
		if info.IsDir() && info.Mode()&fs.ModeSymlink == 0 {
			if err := l.fs.RemoveAll(spec.Target); err != nil {
				return errors.Wrapf(err, errors.ErrLinkCreate, "failed to remove directory %s", spec.Target)
			}
		}
	}

	tmp := spec.Target + ".dotpilot-tmp"
	// A temp link left over from an interrupted run would make the
	// symlink call fail; clear it first.
	_ = l.fs.Remove(tmp)

	if err := l.fs.Symlink(spec.Source, tmp); err != nil {
		return errors.Wrapf(err, errors.ErrLinkCreate, "failed to create symlink for %s", spec.Name)
	}

	if err := l.fs.Rename(tmp, spec.Target); err != nil {
		_ = l.fs.Remove(tmp)
		return errors.Wrapf(err, errors.ErrLinkCreate, "failed to install symlink at %s", spec.Target)
	}

	return nil
}
