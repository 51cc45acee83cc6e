// Package paths provides centralized path handling for dotpilot.
// It implements XDG Base Directory specification compliance and
// provides a consistent API for all path operations in the codebase.
package paths

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/dotpilot-sh/dotpilot/pkg/errors"
)

// Environment variable names
const (
	// EnvDotfilesRoot is the primary environment variable for dotfiles location
	EnvDotfilesRoot = "DOTFILES_ROOT"

	// EnvDotpilotDataDir overrides the XDG data directory for dotpilot
	EnvDotpilotDataDir = "DOTPILOT_DATA_DIR"

	// EnvDotpilotConfigDir overrides the XDG config directory for dotpilot
	EnvDotpilotConfigDir = "DOTPILOT_CONFIG_DIR"

	// EnvDotpilotStateDir overrides the XDG state directory for dotpilot
	EnvDotpilotStateDir = "DOTPILOT_STATE_DIR"

	// EnvHome is the standard home directory variable
	EnvHome = "HOME"
)

// Default directories and files. These define dotpilot's internal data
// layout and are not user-configurable; user-facing paths belong in the
// tools configuration instead.
const (
	// DotpilotDirName is the directory name for dotpilot-specific files
	DotpilotDirName = "dotpilot"

	// UserConfigFile is the per-repository override config file name
	UserConfigFile = ".dotpilot.toml"

	// BackupsDir is the subdirectory holding pre-setup backups
	BackupsDir = "backups"

	// StateDir is the subdirectory holding per-tool state files
	StateDir = "state"

	// DebugLogsDir is the subdirectory for diagnostic monitor logs
	DebugLogsDir = "debug_logs"

	// LogFileName is the name of the application log file
	LogFileName = "dotpilot.log"
)

// Paths provides centralized path management for dotpilot
type Paths interface {
	DotfilesRoot() string
	UsedFallback() bool
	SourcePath(relPath string) string
	UserConfigPath() string
	DataDir() string
	ConfigDir() string
	StateDir() string
	BackupDir(tool string) string
	StatePath(tool string) string
	PackageStatePath() string
	DebugLogDir() string
	ExpandTarget(target string) string
	LogFilePath() string
}

type paths struct {
	dotfilesRoot string
	xdgData      string
	xdgConfig    string
	xdgState     string

	// usedFallback indicates if we fell back to cwd (for warning display)
	usedFallback bool
}

// New creates a new Paths instance with the given dotfiles root.
// If dotfilesRoot is empty, it will be determined from environment
// variables, the enclosing git repository, or the working directory.
func New(dotfilesRoot string) (Paths, error) {
	p := &paths{}

	if dotfilesRoot == "" {
		root, usedFallback, err := findDotfilesRoot()
		if err != nil {
			return nil, err
		}
		p.dotfilesRoot = root
		p.usedFallback = usedFallback
	} else {
		p.dotfilesRoot = ExpandHome(dotfilesRoot)
	}

	absRoot, err := filepath.Abs(p.dotfilesRoot)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "failed to get absolute path for dotfiles root")
	}
	p.dotfilesRoot = absRoot

	p.setupXDGDirs()

	return p, nil
}

// setupXDGDirs initializes XDG directories, respecting environment overrides
func (p *paths) setupXDGDirs() {
	if dataDir := os.Getenv(EnvDotpilotDataDir); dataDir != "" {
		p.xdgData = ExpandHome(dataDir)
	} else {
		p.xdgData = filepath.Join(xdg.DataHome, DotpilotDirName)
	}

	if configDir := os.Getenv(EnvDotpilotConfigDir); configDir != "" {
		p.xdgConfig = ExpandHome(configDir)
	} else {
		p.xdgConfig = filepath.Join(xdg.ConfigHome, DotpilotDirName)
	}

	if stateDir := os.Getenv(EnvDotpilotStateDir); stateDir != "" {
		p.xdgState = ExpandHome(stateDir)
	} else {
		p.xdgState = filepath.Join(xdg.StateHome, DotpilotDirName)
	}
}

// findDotfilesRoot determines the dotfiles root using the following priority:
// 1. DOTFILES_ROOT environment variable (if set)
// 2. Git repository root (found via 'git rev-parse --show-toplevel')
// 3. Current working directory (fallback, flagged for warning display)
func findDotfilesRoot() (string, bool, error) {
	if root := os.Getenv(EnvDotfilesRoot); root != "" {
		return ExpandHome(root), false, nil
	}

	gitRoot, err := findGitRoot()
	if err == nil && gitRoot != "" {
		return gitRoot, false, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", false, errors.Wrapf(err, errors.ErrFileAccess, "failed to get current directory")
	}

	return cwd, true, nil
}

// findGitRoot attempts to find the root of the current git repository
func findGitRoot() (string, error) {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	output, err := cmd.Output()
	if err != nil {
		// Not in a git repo or git not installed
		return "", err
	}

	gitRoot := strings.TrimSpace(string(output))
	if gitRoot == "" {
		return "", errors.New(errors.ErrNotFound, "git root is empty")
	}

	return gitRoot, nil
}

// ExpandHome expands a leading ~ to the home directory
func ExpandHome(path string) string {
	if path == "" {
		return path
	}

	if path[0] == '~' {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			homeDir = os.Getenv(EnvHome)
			if homeDir == "" {
				return path
			}
		}

		if len(path) == 1 {
			return homeDir
		}

		if path[1] == '/' || path[1] == filepath.Separator {
			return filepath.Join(homeDir, path[2:])
		}

		// ~something (another user's home), leave alone
		return path
	}

	return path
}

// DotfilesRoot returns the root directory for dotfiles
func (p *paths) DotfilesRoot() string {
	return p.dotfilesRoot
}

// UsedFallback returns true if the current working directory was used as fallback
func (p *paths) UsedFallback() bool {
	return p.usedFallback
}

// SourcePath resolves a repository-relative source path to an absolute path
func (p *paths) SourcePath(relPath string) string {
	return filepath.Join(p.dotfilesRoot, relPath)
}

// UserConfigPath returns the per-repository override config file path
func (p *paths) UserConfigPath() string {
	return filepath.Join(p.dotfilesRoot, UserConfigFile)
}

// DataDir returns the XDG data directory for dotpilot
func (p *paths) DataDir() string {
	return p.xdgData
}

// ConfigDir returns the XDG config directory for dotpilot
func (p *paths) ConfigDir() string {
	return p.xdgConfig
}

// StateDir returns the directory holding per-tool state files
func (p *paths) StateDir() string {
	return filepath.Join(p.xdgData, StateDir)
}

// BackupDir returns the backup directory for a tool
func (p *paths) BackupDir(tool string) string {
	return filepath.Join(p.xdgData, BackupsDir, tool)
}

// StatePath returns the state file path for a tool
func (p *paths) StatePath(tool string) string {
	return filepath.Join(p.StateDir(), tool+".json")
}

// PackageStatePath returns the package installation state file path
func (p *paths) PackageStatePath() string {
	return filepath.Join(p.StateDir(), "packages.json")
}

// DebugLogDir returns the directory for diagnostic monitor logs
func (p *paths) DebugLogDir() string {
	return filepath.Join(p.xdgData, DebugLogsDir)
}

// ExpandTarget expands a target path from the tools config, resolving
// a leading ~ against the current home directory.
func (p *paths) ExpandTarget(target string) string {
	return ExpandHome(target)
}

// LogFilePath returns the application log file path
func (p *paths) LogFilePath() string {
	return filepath.Join(p.xdgState, LogFileName)
}
