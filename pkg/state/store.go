package state

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/dotpilot-sh/dotpilot/pkg/errors"
	"github.com/dotpilot-sh/dotpilot/pkg/filesystem"
	"github.com/dotpilot-sh/dotpilot/pkg/logging"
)

// Store reads and writes one JSON state file
type Store struct {
	fs   filesystem.FS
	path string
}

// NewStore creates a store for the state file at path
func NewStore(fs filesystem.FS, path string) *Store {
	return &Store{fs: fs, path: path}
}

// Path returns the state file location
func (s *Store) Path() string {
	return s.path
}

// Exists reports whether a state file is present
func (s *Store) Exists() bool {
	_, err := s.fs.Stat(s.path)
	return err == nil
}

// Load reads the state file into out. An absent or unparsable file
// leaves out untouched and returns false; it is never an error the
// caller has to handle. Malformed content is logged and then treated
// as no state.
func (s *Store) Load(out interface{}) bool {
	logger := logging.GetLogger("state")

	data, err := s.fs.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn().Err(err).Str("path", s.path).Msg("Failed to read state file, treating as empty")
		}
		return false
	}

	if err := json.Unmarshal(data, out); err != nil {
		logger.Warn().Err(err).Str("path", s.path).Msg("State file is malformed, treating as empty")
		return false
	}

	return true
}

// Save serializes v and replaces the state file. Parents are created
// as needed; the write goes through a temp file and rename.
func (s *Store) Save(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrapf(err, errors.ErrStateWrite, "failed to serialize state")
	}

	dir := filepath.Dir(s.path)
	if err := s.fs.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "failed to create state directory %s", dir)
	}

	tmp := s.path + ".tmp"
	if err := s.fs.WriteFile(tmp, data, 0644); err != nil {
		return errors.Wrapf(err, errors.ErrStateWrite, "failed to write state file %s", tmp)
	}

	if err := s.fs.Rename(tmp, s.path); err != nil {
		return errors.Wrapf(err, errors.ErrStateWrite, "failed to replace state file %s", s.path)
	}

	return nil
}

// Clear removes the state file. A missing file is a no-op.
func (s *Store) Clear() error {
	if err := s.fs.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, errors.ErrStateWrite, "failed to remove state file %s", s.path)
	}
	return nil
}
