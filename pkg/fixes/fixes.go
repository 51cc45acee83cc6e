// Package fixes applies the known DisplayLink flicker remediations:
// disabling USB autosuspend for DisplayLink adapters, pinning the
// monitor's refresh rate through hyprctl, and writing a stable monitor
// config fragment for Hyprland to source.
package fixes

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dotpilot-sh/dotpilot/pkg/backup"
	"github.com/dotpilot-sh/dotpilot/pkg/errors"
	"github.com/dotpilot-sh/dotpilot/pkg/filesystem"
	"github.com/dotpilot-sh/dotpilot/pkg/hyprctl"
	"github.com/dotpilot-sh/dotpilot/pkg/logging"
)

// displayLinkVendor is the USB vendor ID shared by DisplayLink chips
const displayLinkVendor = "17e9"

// defaultUSBDevices is where the kernel exposes USB device attributes
const defaultUSBDevices = "/sys/bus/usb/devices"

// monitorConfName is the Hyprland fragment the stable-config step writes
const monitorConfName = "monitors-displaylink.conf"

// Options configures which monitor the fixes target
type Options struct {
	// MonitorName is the DisplayLink output, typically DP-3
	MonitorName string

	// Width, Height and RefreshRate pin the mode; DisplayLink adapters
	// misbehave when Hyprland negotiates the rate itself
	Width       int
	Height      int
	RefreshRate int

	// USBDevicesPath overrides the sysfs root in tests
	USBDevicesPath string
}

func (o *Options) applyDefaults() {
	if o.MonitorName == "" {
		o.MonitorName = "DP-3"
	}
	if o.Width == 0 {
		o.Width = 1920
	}
	if o.Height == 0 {
		o.Height = 1080
	}
	if o.RefreshRate == 0 {
		o.RefreshRate = 60
	}
	if o.USBDevicesPath == "" {
		o.USBDevicesPath = defaultUSBDevices
	}
}

// Step is the outcome of one remediation
type Step struct {
	Name    string
	Detail  string
	Applied bool
	Skipped bool
	Err     error
}

// Report collects the outcome of all remediations
type Report struct {
	Steps []Step
}

// Failed counts steps that errored
func (r *Report) Failed() int {
	n := 0
	for _, s := range r.Steps {
		if s.Err != nil {
			n++
		}
	}
	return n
}

// Applied counts steps that made a change
func (r *Report) Applied() int {
	n := 0
	for _, s := range r.Steps {
		if s.Applied {
			n++
		}
	}
	return n
}

// Fixer applies the remediation steps through an injectable filesystem
// and hyprctl client, so dry-run and tests stay subprocess-free.
type Fixer struct {
	fs      filesystem.FS
	client  *hyprctl.Client
	backups *backup.Manager
	confDir string
	opts    Options
}

// New creates a Fixer. confDir is the Hyprland config directory the
// stable monitor fragment is written into; existing fragments are
// backed up through the backup manager first.
func New(fsys filesystem.FS, client *hyprctl.Client, backups *backup.Manager, confDir string, opts Options) *Fixer {
	opts.applyDefaults()
	return &Fixer{fs: fsys, client: client, backups: backups, confDir: confDir, opts: opts}
}

// Apply runs every remediation, continuing past individual failures,
// and returns the per-step report.
func (f *Fixer) Apply(ctx context.Context) *Report {
	logger := logging.GetLogger("fixes")
	logger.Info().Str("monitor", f.opts.MonitorName).Msg("Applying DisplayLink flicker fixes")

	report := &Report{}
	report.Steps = append(report.Steps, f.disableAutosuspend())
	report.Steps = append(report.Steps, f.pinRefreshRate(ctx))
	report.Steps = append(report.Steps, f.writeMonitorConfig())

	for _, s := range report.Steps {
		evt := logger.Info()
		if s.Err != nil {
			evt = logger.Error().Err(s.Err)
		}
		evt.Str("step", s.Name).Bool("applied", s.Applied).Msg(s.Detail)
	}
	return report
}

// disableAutosuspend turns off USB power management for every
// DisplayLink device. Autosuspend cycling is the most common cause of
// the disconnect/reconnect flicker.
func (f *Fixer) disableAutosuspend() Step {
	step := Step{Name: "usb-autosuspend"}

	entries, err := f.fs.ReadDir(f.opts.USBDevicesPath)
	if err != nil {
		step.Err = errors.Wrap(err, errors.ErrFixApply, "cannot enumerate USB devices")
		return step
	}

	found := 0
	for _, entry := range entries {
		devPath := filepath.Join(f.opts.USBDevicesPath, entry.Name())
		vendor, err := f.fs.ReadFile(filepath.Join(devPath, "idVendor"))
		if err != nil {
			continue
		}
		if strings.TrimSpace(string(vendor)) != displayLinkVendor {
			continue
		}
		found++

		if err := f.fs.WriteFile(filepath.Join(devPath, "power", "autosuspend"), []byte("-1\n"), 0644); err != nil {
			step.Err = errors.Wrapf(err, errors.ErrFixApply, "cannot disable autosuspend for %s", entry.Name())
			return step
		}
		if err := f.fs.WriteFile(filepath.Join(devPath, "power", "control"), []byte("on\n"), 0644); err != nil {
			step.Err = errors.Wrapf(err, errors.ErrFixApply, "cannot force power control for %s", entry.Name())
			return step
		}
	}

	if found == 0 {
		step.Skipped = true
		step.Detail = "no DisplayLink USB devices found"
		return step
	}
	step.Applied = true
	step.Detail = fmt.Sprintf("disabled autosuspend on %d DisplayLink device(s)", found)
	return step
}

// pinRefreshRate fixes the mode at runtime via hyprctl keyword
func (f *Fixer) pinRefreshRate(ctx context.Context) Step {
	step := Step{Name: "refresh-rate"}

	mode := fmt.Sprintf("%s,%dx%d@%d,auto,1",
		f.opts.MonitorName, f.opts.Width, f.opts.Height, f.opts.RefreshRate)
	if err := f.client.Keyword(ctx, "monitor", mode); err != nil {
		step.Err = errors.Wrap(err, errors.ErrFixApply, "cannot pin refresh rate")
		return step
	}

	step.Applied = true
	step.Detail = fmt.Sprintf("pinned %s", mode)
	return step
}

// writeMonitorConfig persists the pinned mode as a Hyprland fragment so
// the fix survives restarts. An existing fragment is backed up first.
func (f *Fixer) writeMonitorConfig() Step {
	step := Step{Name: "monitor-config"}

	target := filepath.Join(f.confDir, monitorConfName)
	if _, err := f.backups.Backup("hypr-"+monitorConfName, target); err != nil {
		step.Err = errors.Wrap(err, errors.ErrFixApply, "cannot back up existing monitor config")
		return step
	}

	content := fmt.Sprintf(`# DisplayLink stable output settings.
# Source this from hyprland.conf after the main monitor block.
monitor = %s, %dx%d@%d, auto, 1

# Keep VRR off for DisplayLink outputs; the adapter cannot keep up.
misc {
    vrr = 0
}
`, f.opts.MonitorName, f.opts.Width, f.opts.Height, f.opts.RefreshRate)

	if err := f.fs.MkdirAll(f.confDir, 0755); err != nil {
		step.Err = errors.Wrap(err, errors.ErrFixApply, "cannot create config directory")
		return step
	}
	if err := f.fs.WriteFile(target, []byte(content), 0644); err != nil {
		step.Err = errors.Wrap(err, errors.ErrFixApply, "cannot write monitor config")
		return step
	}

	step.Applied = true
	step.Detail = fmt.Sprintf("wrote %s", target)
	return step
}
