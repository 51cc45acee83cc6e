// Package pacman wraps the system package manager as an opaque
// subprocess collaborator. It prefers the paru AUR helper and falls
// back to plain pacman.
package pacman

import (
	"context"
	"os/exec"

	"github.com/dotpilot-sh/dotpilot/pkg/errors"
	"github.com/dotpilot-sh/dotpilot/pkg/logging"
)

// Runner executes external commands. Injected so tests can substitute
// a fake without spawning processes.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
	LookPath(name string) (string, error)
}

type execRunner struct{}

// NewRunner creates the real subprocess runner
func NewRunner() Runner {
	return execRunner{}
}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	logging.LogCommand(name, args)
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.CombinedOutput()
}

func (execRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// Helper is a resolved package-manager frontend
type Helper struct {
	runner Runner
	cmd    string
}

// paruInstallHint is shown when no AUR helper is present
const paruInstallHint = `install paru first:
  cd /tmp
  git clone https://aur.archlinux.org/paru.git
  cd paru && makepkg -si`

// NewHelper resolves the package manager frontend: paru when
// available, pacman otherwise. Neither present is a prerequisite
// failure surfaced before any install starts.
func NewHelper(runner Runner) (*Helper, error) {
	for _, candidate := range []string{"paru", "pacman"} {
		if _, err := runner.LookPath(candidate); err == nil {
			return &Helper{runner: runner, cmd: candidate}, nil
		}
	}
	return nil, errors.New(errors.ErrHelperMissing, "no package manager found; "+paruInstallHint)
}

// Name returns the resolved frontend binary name
func (h *Helper) Name() string {
	return h.cmd
}

// Install installs one package without interactive confirmation. The
// combined output is returned for logging on failure.
func (h *Helper) Install(ctx context.Context, pkg string) ([]byte, error) {
	output, err := h.runner.Run(ctx, h.cmd, "-S", "--noconfirm", pkg)
	if err != nil {
		return output, errors.Wrapf(err, errors.ErrCommandRun, "failed to install %s", pkg)
	}
	return output, nil
}

// Remove uninstalls one package without interactive confirmation
func (h *Helper) Remove(ctx context.Context, pkg string) ([]byte, error) {
	output, err := h.runner.Run(ctx, h.cmd, "-R", "--noconfirm", pkg)
	if err != nil {
		return output, errors.Wrapf(err, errors.ErrCommandRun, "failed to remove %s", pkg)
	}
	return output, nil
}

// IsInstalled probes for the package's check binary on PATH
func (h *Helper) IsInstalled(checkCommand string) bool {
	_, err := h.runner.LookPath(checkCommand)
	return err == nil
}

// QueryInstalled asks the package database whether pkg is installed.
// Used for packages that install no binary, like kernel modules and
// header packages.
func (h *Helper) QueryInstalled(ctx context.Context, pkg string) bool {
	_, err := h.runner.Run(ctx, "pacman", "-Q", pkg)
	return err == nil
}
