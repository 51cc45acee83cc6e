package fix

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dotpilot-sh/dotpilot/cmd/dotpilot/internal/app"
	"github.com/dotpilot-sh/dotpilot/pkg/backup"
	"github.com/dotpilot-sh/dotpilot/pkg/fixes"
	"github.com/dotpilot-sh/dotpilot/pkg/hyprctl"
	"github.com/dotpilot-sh/dotpilot/pkg/paths"
)

// NewCommand creates the fix command
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "fix",
		Short:   MsgShort,
		Long:    MsgLong,
		Example: MsgExample,
		GroupID: "core",
		Args:    cobra.NoArgs,
		RunE:    run,
	}

	cmd.Flags().String("monitor", "DP-3", "DisplayLink monitor name")
	cmd.Flags().Int("width", 1920, "Pinned mode width")
	cmd.Flags().Int("height", 1080, "Pinned mode height")
	cmd.Flags().Int("refresh", 60, "Pinned refresh rate")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	a, err := app.FromCommand(cmd)
	if err != nil {
		return err
	}
	name, _ := cmd.Flags().GetString("monitor")
	width, _ := cmd.Flags().GetInt("width")
	height, _ := cmd.Flags().GetInt("height")
	refresh, _ := cmd.Flags().GetInt("refresh")

	client := hyprctl.New()
	if a.DryRun {
		client = hyprctl.NewWithRunner(noopRunner{})
	}

	backups := backup.NewManager(a.FS, a.Paths.BackupDir("hypr"), a.Timestamp)
	fixer := fixes.New(a.FS, client, backups, paths.ExpandHome("~/.config/hypr"), fixes.Options{
		MonitorName: name,
		Width:       width,
		Height:      height,
		RefreshRate: refresh,
	})

	report := fixer.Apply(cmd.Context())
	for _, step := range report.Steps {
		switch {
		case step.Err != nil:
			a.Printer.Error("%s: %v", step.Name, step.Err)
		case step.Skipped:
			a.Printer.Muted("%s: %s", step.Name, step.Detail)
		default:
			a.Printer.Success("%s: %s", step.Name, step.Detail)
		}
	}

	if a.DryRun {
		a.Printer.Info("Dry run: no changes were made")
	}
	if n := report.Failed(); n > 0 {
		return fmt.Errorf("%d fix step(s) failed", n)
	}
	a.Printer.Muted("Re-run 'dotpilot monitor' to confirm the flicker is gone")
	return nil
}

// noopRunner stands in for hyprctl during dry runs
type noopRunner struct{}

func (noopRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return []byte("ok"), nil
}
