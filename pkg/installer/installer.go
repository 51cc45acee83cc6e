// Package installer drives package installation and removal through
// the AUR helper, tracking every add and remove event in the package
// state file and writing a per-package backup entry so changes can be
// audited later.
package installer

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dotpilot-sh/dotpilot/pkg/errors"
	"github.com/dotpilot-sh/dotpilot/pkg/filesystem"
	"github.com/dotpilot-sh/dotpilot/pkg/logging"
	"github.com/dotpilot-sh/dotpilot/pkg/pacman"
	"github.com/dotpilot-sh/dotpilot/pkg/state"
	"github.com/dotpilot-sh/dotpilot/pkg/tools"
)

// EventKind classifies per-package installer progress
type EventKind string

const (
	EventInstalled EventKind = "installed"
	EventRemoved   EventKind = "removed"
	EventFailed    EventKind = "failed"
	EventDryRun    EventKind = "dry-run"
)

// Event is one per-package progress notification
type Event struct {
	Package tools.Package
	Kind    EventKind
	Err     error
}

// Report summarizes an install or remove run
type Report struct {
	Installed []string
	Removed   []string
	Failed    []string
}

// backupEntry is the audit record written next to each install
type backupEntry struct {
	Package   string `json:"package"`
	Timestamp string `json:"timestamp"`
	Action    string `json:"action"`
}

// Installer installs package sets and records what it did
type Installer struct {
	helper    *pacman.Helper
	fs        filesystem.FS
	store     *state.Store
	backupDir string
	dryRun    bool
}

// New creates an installer. With dryRun set, no subprocess runs and no
// state is written; intents are logged instead.
func New(helper *pacman.Helper, fsys filesystem.FS, store *state.Store, backupDir string, dryRun bool) *Installer {
	return &Installer{
		helper:    helper,
		fs:        fsys,
		store:     store,
		backupDir: backupDir,
		dryRun:    dryRun,
	}
}

// Pending splits packages into those needing installation and those
// already present on the system. Packages flagged for query detection
// are checked against the package database instead of PATH.
func (i *Installer) Pending(ctx context.Context, pkgs []tools.Package) (pending, installed []tools.Package) {
	for _, pkg := range pkgs {
		present := false
		if pkg.Query {
			present = i.helper.QueryInstalled(ctx, pkg.Name)
		} else {
			present = i.helper.IsInstalled(pkg.CheckCommand())
		}
		if present {
			installed = append(installed, pkg)
		} else {
			pending = append(pending, pkg)
		}
	}
	return pending, installed
}

// Install installs each package in order, notifying onEvent as it
// goes. A failed package is recorded and skipped; remaining packages
// still install. The context cancels the in-flight subprocess.
func (i *Installer) Install(ctx context.Context, pkgs []tools.Package, onEvent func(Event)) (*Report, error) {
	logger := logging.GetLogger("installer")
	report := &Report{}

	notify := func(e Event) {
		if onEvent != nil {
			onEvent(e)
		}
	}

	for _, pkg := range pkgs {
		if err := ctx.Err(); err != nil {
			return report, errors.Wrap(err, errors.ErrInterrupted, "installation interrupted")
		}

		if i.dryRun {
			logger.Info().Str("package", pkg.Name).Msgf("Would run %s -S --noconfirm %s", i.helper.Name(), pkg.Name)
			notify(Event{Package: pkg, Kind: EventDryRun})
			continue
		}

		output, err := i.helper.Install(ctx, pkg.Name)
		if err != nil {
			logger.Error().Err(err).Str("package", pkg.Name).Bytes("output", output).Msg("Install failed")
			i.recordFailure(pkg.Name)
			report.Failed = append(report.Failed, pkg.Name)
			notify(Event{Package: pkg, Kind: EventFailed, Err: err})
			continue
		}

		i.recordSuccess(pkg.Name)
		report.Installed = append(report.Installed, pkg.Name)
		notify(Event{Package: pkg, Kind: EventInstalled})
	}

	return report, nil
}

// Remove uninstalls each package in order, updating the package state
// and appending remove events to the history. A failed removal is
// recorded and skipped; remaining packages are still removed.
func (i *Installer) Remove(ctx context.Context, names []string, onEvent func(Event)) (*Report, error) {
	logger := logging.GetLogger("installer")
	report := &Report{}

	notify := func(e Event) {
		if onEvent != nil {
			onEvent(e)
		}
	}

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return report, errors.Wrap(err, errors.ErrInterrupted, "removal interrupted")
		}
		pkg := tools.Package{Name: name}

		if i.dryRun {
			logger.Info().Str("package", name).Msgf("Would run %s -R --noconfirm %s", i.helper.Name(), name)
			notify(Event{Package: pkg, Kind: EventDryRun})
			continue
		}

		output, err := i.helper.Remove(ctx, name)
		if err != nil {
			logger.Error().Err(err).Str("package", name).Bytes("output", output).Msg("Removal failed")
			i.recordRemoveFailure(name)
			report.Failed = append(report.Failed, name)
			notify(Event{Package: pkg, Kind: EventFailed, Err: err})
			continue
		}

		i.recordRemoval(name)
		report.Removed = append(report.Removed, name)
		notify(Event{Package: pkg, Kind: EventRemoved})
	}

	return report, nil
}

// LastSession returns the packages installed in the most recent
// session: successful installs from the history tail whose timestamps
// lie within an hour of each other, newest first filtered down to
// packages still recorded as installed.
func (i *Installer) LastSession() []string {
	st := state.NewPackageState()
	if !i.store.Load(st) {
		return nil
	}

	var names []string
	var last time.Time
	for idx := len(st.InstallationHistory) - 1; idx >= 0; idx-- {
		event := st.InstallationHistory[idx]
		if event.Action != "install" || !event.Success {
			continue
		}
		if !last.IsZero() && last.Sub(event.Timestamp) > time.Hour {
			break
		}
		last = event.Timestamp
		if st.IsInstalled(event.Package) {
			names = append(names, event.Package)
		}
	}
	return names
}

// recordSuccess updates the package state and writes the audit entry.
// State trouble is logged, not fatal; the package is installed either
// way.
func (i *Installer) recordSuccess(name string) {
	logger := logging.GetLogger("installer")
	now := time.Now()

	st := state.NewPackageState()
	i.store.Load(st)
	st.MarkInstalled(name, now)
	if err := i.store.Save(st); err != nil {
		logger.Error().Err(err).Str("package", name).Msg("Failed to save package state")
	}

	if err := i.writeBackupEntry(name, "installed", now); err != nil {
		logger.Error().Err(err).Str("package", name).Msg("Failed to write backup entry")
	}
}

func (i *Installer) recordRemoval(name string) {
	logger := logging.GetLogger("installer")
	now := time.Now()

	st := state.NewPackageState()
	i.store.Load(st)
	st.MarkRemoved(name, now)
	if err := i.store.Save(st); err != nil {
		logger.Error().Err(err).Str("package", name).Msg("Failed to save package state")
	}

	if err := i.writeBackupEntry(name, "removed", now); err != nil {
		logger.Error().Err(err).Str("package", name).Msg("Failed to write backup entry")
	}
}

func (i *Installer) recordRemoveFailure(name string) {
	logger := logging.GetLogger("installer")

	st := state.NewPackageState()
	i.store.Load(st)
	st.MarkRemoveFailed(name, time.Now())
	if err := i.store.Save(st); err != nil {
		logger.Error().Err(err).Str("package", name).Msg("Failed to save package state")
	}
}

func (i *Installer) recordFailure(name string) {
	logger := logging.GetLogger("installer")

	st := state.NewPackageState()
	i.store.Load(st)
	st.MarkFailed(name, time.Now())
	if err := i.store.Save(st); err != nil {
		logger.Error().Err(err).Str("package", name).Msg("Failed to save package state")
	}
}

func (i *Installer) writeBackupEntry(name, action string, at time.Time) error {
	entry := backupEntry{
		Package:   name,
		Timestamp: at.Format(state.TimestampFormat),
		Action:    action,
	}
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return err
	}

	if err := i.fs.MkdirAll(i.backupDir, 0755); err != nil {
		return err
	}
	path := filepath.Join(i.backupDir, fmt.Sprintf("%s_%s.json", name, entry.Timestamp))
	return i.fs.WriteFile(path, data, 0644)
}
