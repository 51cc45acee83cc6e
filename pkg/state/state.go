// Package state persists the JSON records dotpilot writes between
// runs: one link-state file per managed tool and one package-state
// file for the installer.
//
// Loading is deliberately permissive: an absent or malformed file is
// treated as "no state" so a corrupted record never blocks a rerun.
// Saving goes through a temp file and rename so a crash mid-write
// cannot leave a half-written record behind.
//
// There is no locking. The tools are interactive and single-operator;
// two concurrent runs against the same state file are out of scope.
package state

import (
	"time"
)

// Schema versions for forward-compatible migrations
const (
	LinkStateVersion    = 1
	PackageStateVersion = 1
)

// TimestampFormat is the grouping key format shared by state records
// and backup file names.
const TimestampFormat = "20060102_150405"

// BackupKind describes what occupied a target before setup replaced it
type BackupKind string

const (
	BackupFile    BackupKind = "file"
	BackupDir     BackupKind = "dir"
	BackupSymlink BackupKind = "symlink"
)

// BackupRecord points at the preserved copy of a target's prior
// content. For symlinks only the destination string is recorded since
// the underlying file is owned elsewhere.
type BackupRecord struct {
	Kind BackupKind `json:"kind"`

	// Path is the backup copy location for file and dir kinds
	Path string `json:"path,omitempty"`

	// LinkTarget is the recorded destination for symlink kinds
	LinkTarget string `json:"link_target,omitempty"`
}

// LinkState is the persisted record of the most recent setup run for
// one tool. It is fully overwritten on each setup and deleted on
// rollback.
type LinkState struct {
	Version      int                     `json:"version"`
	Tool         string                  `json:"tool"`
	Timestamp    string                  `json:"timestamp"`
	Backups      map[string]BackupRecord `json:"backups"`
	LinksCreated []string                `json:"links_created"`
}

// NewLinkState creates an empty link state for a tool, stamped now
func NewLinkState(tool string) *LinkState {
	return &LinkState{
		Version:   LinkStateVersion,
		Tool:      tool,
		Timestamp: time.Now().Format(TimestampFormat),
		Backups:   make(map[string]BackupRecord),
	}
}

// IsEmpty reports whether the state records no completed setup
func (s *LinkState) IsEmpty() bool {
	return s == nil || (len(s.LinksCreated) == 0 && len(s.Backups) == 0)
}

// InstallEvent is one entry in the installer's append-only history
type InstallEvent struct {
	Package   string    `json:"package"`
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	Success   bool      `json:"success"`
}

// PackageState tracks which packages dotpilot installed and when
type PackageState struct {
	Version             int            `json:"version"`
	InstalledPackages   []string       `json:"installed_packages"`
	InstallationHistory []InstallEvent `json:"installation_history"`
}

// NewPackageState creates an empty package state
func NewPackageState() *PackageState {
	return &PackageState{Version: PackageStateVersion}
}

// MarkInstalled records a successful install of a package
func (s *PackageState) MarkInstalled(name string, at time.Time) {
	if !s.IsInstalled(name) {
		s.InstalledPackages = append(s.InstalledPackages, name)
	}
	s.InstallationHistory = append(s.InstallationHistory, InstallEvent{
		Package:   name,
		Timestamp: at,
		Action:    "install",
		Success:   true,
	})
}

// MarkFailed records a failed install attempt
func (s *PackageState) MarkFailed(name string, at time.Time) {
	s.InstallationHistory = append(s.InstallationHistory, InstallEvent{
		Package:   name,
		Timestamp: at,
		Action:    "install",
		Success:   false,
	})
}

// MarkRemoved records a successful removal of a package
func (s *PackageState) MarkRemoved(name string, at time.Time) {
	for i, p := range s.InstalledPackages {
		if p == name {
			s.InstalledPackages = append(s.InstalledPackages[:i], s.InstalledPackages[i+1:]...)
			break
		}
	}
	s.InstallationHistory = append(s.InstallationHistory, InstallEvent{
		Package:   name,
		Timestamp: at,
		Action:    "remove",
		Success:   true,
	})
}

// MarkRemoveFailed records a failed removal attempt
func (s *PackageState) MarkRemoveFailed(name string, at time.Time) {
	s.InstallationHistory = append(s.InstallationHistory, InstallEvent{
		Package:   name,
		Timestamp: at,
		Action:    "remove",
		Success:   false,
	})
}

// IsInstalled reports whether dotpilot has recorded an install of name
func (s *PackageState) IsInstalled(name string) bool {
	for _, p := range s.InstalledPackages {
		if p == name {
			return true
		}
	}
	return false
}
