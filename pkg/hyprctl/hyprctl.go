// Package hyprctl queries the Hyprland compositor through its IPC
// command-line tool, consuming its JSON output.
package hyprctl

import (
	"context"
	"encoding/json"
	"os/exec"

	"github.com/dotpilot-sh/dotpilot/pkg/errors"
	"github.com/dotpilot-sh/dotpilot/pkg/logging"
)

// CommandRunner executes the hyprctl binary. Injected for tests.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	logging.LogCommand(name, args)
	return exec.CommandContext(ctx, name, args...).Output()
}

// Monitor is one entry from `hyprctl monitors -j`
type Monitor struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	RefreshRate float64 `json:"refreshRate"`
	X           int     `json:"x"`
	Y           int     `json:"y"`
	Scale       float64 `json:"scale"`
	Focused     bool    `json:"focused"`
	DpmsStatus  bool    `json:"dpmsStatus"`
}

// Client talks to the compositor via the hyprctl binary
type Client struct {
	runner CommandRunner
}

// New creates a client using the real hyprctl binary
func New() *Client {
	return &Client{runner: execRunner{}}
}

// NewWithRunner creates a client with an injected runner
func NewWithRunner(runner CommandRunner) *Client {
	return &Client{runner: runner}
}

// Monitors returns the current monitor list
func (c *Client) Monitors(ctx context.Context) ([]Monitor, error) {
	output, err := c.runner.Run(ctx, "hyprctl", "monitors", "-j")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCommandRun, "hyprctl monitors failed")
	}

	var monitors []Monitor
	if err := json.Unmarshal(output, &monitors); err != nil {
		return nil, errors.Wrap(err, errors.ErrCommandDecode, "failed to decode hyprctl monitor list")
	}
	return monitors, nil
}

// Monitor returns one monitor by name, or nil if not connected
func (c *Client) Monitor(ctx context.Context, name string) (*Monitor, error) {
	monitors, err := c.Monitors(ctx)
	if err != nil {
		return nil, err
	}
	for i := range monitors {
		if monitors[i].Name == name {
			return &monitors[i], nil
		}
	}
	return nil, nil
}

// Keyword applies a runtime config keyword, e.g. pinning a monitor
// mode: Keyword(ctx, "monitor", "DP-3,1920x1080@60,auto,1")
func (c *Client) Keyword(ctx context.Context, args ...string) error {
	cmdArgs := append([]string{"keyword"}, args...)
	if _, err := c.runner.Run(ctx, "hyprctl", cmdArgs...); err != nil {
		return errors.Wrap(err, errors.ErrCommandRun, "hyprctl keyword failed")
	}
	return nil
}
