// Package backup preserves whatever occupies a target path before a
// setup run replaces it, and restores it on rollback.
package backup

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dotpilot-sh/dotpilot/pkg/errors"
	"github.com/dotpilot-sh/dotpilot/pkg/filesystem"
	"github.com/dotpilot-sh/dotpilot/pkg/logging"
	"github.com/dotpilot-sh/dotpilot/pkg/state"
)

// Manager writes timestamped backups into one tool's backup directory.
// Backups are immutable once written; rollback only reads them. They
// are never garbage collected, only removed by manual cleanup.
type Manager struct {
	fs        filesystem.FS
	backupDir string
	timestamp string
}

// NewManager creates a backup manager writing under backupDir, using
// timestamp as the grouping key for this run.
func NewManager(fsys filesystem.FS, backupDir, timestamp string) *Manager {
	return &Manager{fs: fsys, backupDir: backupDir, timestamp: timestamp}
}

// Backup preserves the current content of target under a timestamped
// name. It returns nil with no error when target does not exist; that
// is the common fresh-install case, not a failure. The original target
// is left untouched; replacement happens later in the link step, so a
// failure here aborts setup with the filesystem unchanged.
func (m *Manager) Backup(name, target string) (*state.BackupRecord, error) {
	logger := logging.GetLogger("backup")

	info, err := m.fs.Lstat(target)
	if os.IsNotExist(err) {
		logger.Debug().Str("target", target).Msg("No existing content, backup not needed")
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "failed to inspect %s", target)
	}

	// A pre-existing symlink is recorded by destination only; the file
	// it points at is owned elsewhere and stays untouched.
	if info.Mode()&fs.ModeSymlink != 0 {
		dest, err := m.fs.Readlink(target)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrBackupCopy, "failed to read symlink %s", target)
		}
		logger.Info().Str("target", target).Str("dest", dest).Msg("Recorded prior symlink destination")
		return &state.BackupRecord{Kind: state.BackupSymlink, LinkTarget: dest}, nil
	}

	backupPath := filepath.Join(m.backupDir, fmt.Sprintf("%s.backup.%s", name, m.timestamp))
	if err := m.fs.MkdirAll(m.backupDir, 0755); err != nil {
		return nil, errors.Wrapf(err, errors.ErrDirCreate, "failed to create backup directory %s", m.backupDir)
	}

	kind := state.BackupFile
	if info.IsDir() {
		kind = state.BackupDir
		err = filesystem.CopyTree(m.fs, target, backupPath)
	} else {
		err = filesystem.CopyFile(m.fs, target, backupPath)
	}
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrBackupCopy, "failed to back up %s", target)
	}

	logger.Info().Str("target", target).Str("backup", backupPath).Msg("Backed up existing content")
	return &state.BackupRecord{Kind: kind, Path: backupPath}, nil
}

// Restore puts the backed-up content back at target. Symlink records
// re-create the link; file and dir records copy the backup back.
func (m *Manager) Restore(record state.BackupRecord, target string) error {
	logger := logging.GetLogger("backup")

	switch record.Kind {
	case state.BackupSymlink:
		if err := m.fs.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return errors.Wrapf(err, errors.ErrDirCreate, "failed to create parent of %s", target)
		}
		if err := m.fs.Symlink(record.LinkTarget, target); err != nil {
			return errors.Wrapf(err, errors.ErrBackupRestore, "failed to re-create symlink %s", target)
		}
	case state.BackupDir:
		if err := filesystem.CopyTree(m.fs, record.Path, target); err != nil {
			return errors.Wrapf(err, errors.ErrBackupRestore, "failed to restore directory %s", target)
		}
	case state.BackupFile:
		if err := filesystem.CopyFile(m.fs, record.Path, target); err != nil {
			return errors.Wrapf(err, errors.ErrBackupRestore, "failed to restore file %s", target)
		}
	default:
		return errors.Newf(errors.ErrBackupRestore, "unknown backup kind %q", record.Kind)
	}

	logger.Info().Str("target", target).Str("kind", string(record.Kind)).Msg("Restored backup")
	return nil
}

// Exists reports whether a backup record's copy is still present on
// disk. Symlink records carry their content inline and always exist.
func (m *Manager) Exists(record state.BackupRecord) bool {
	if record.Kind == state.BackupSymlink {
		return true
	}
	_, err := m.fs.Stat(record.Path)
	return err == nil
}
