package monitor

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/dotpilot-sh/dotpilot/cmd/dotpilot/internal/app"
	"github.com/dotpilot-sh/dotpilot/pkg/flicker"
	"github.com/dotpilot-sh/dotpilot/pkg/hyprctl"
)

// NewCommand creates the monitor command
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "monitor",
		Short:   MsgShort,
		Long:    MsgLong,
		Example: MsgExample,
		GroupID: "core",
		Args:    cobra.NoArgs,
		RunE:    run,
	}

	cmd.Flags().Duration("duration", 30*time.Second, "How long to monitor")
	cmd.Flags().String("monitor-name", "DP-3", "Monitor name to watch for DPMS changes")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	a, err := app.FromCommand(cmd)
	if err != nil {
		return err
	}
	duration, _ := cmd.Flags().GetDuration("duration")
	name, _ := cmd.Flags().GetString("monitor-name")

	a.Printer.Header("Real-time flicker monitor")
	a.Printer.Info("Watching %s for %s (Ctrl-C to stop early)", name, duration)

	session := flicker.NewSession(hyprctl.New(), a.FS, a.Paths.DebugLogDir(), flicker.Options{
		Duration:    duration,
		MonitorName: name,
	})

	report, err := session.Run(cmd.Context())
	if err != nil {
		return err
	}

	a.Printer.Plain("")
	a.Printer.Header("Results")
	for kind, count := range report.Counts {
		a.Printer.Plain("  %-14s %d", string(kind), count)
	}
	if recent := report.Recent(10); len(recent) > 0 {
		a.Printer.Plain("")
		a.Printer.Muted("Most recent events:")
		for _, e := range recent {
			a.Printer.Muted("  %s  %-14s %s", e.Time.Format("15:04:05.000"), string(e.Type), e.Details)
		}
	}

	a.Printer.Plain("")
	switch report.Verdict {
	case flicker.VerdictHigh:
		a.Printer.Error("High flicker activity detected (%d events). Run 'dotpilot fix'.", len(report.Events))
	case flicker.VerdictSome:
		a.Printer.Warning("Some flicker-related events detected (%d). See the session log.", len(report.Events))
	default:
		a.Printer.Success("No flicker events detected")
	}
	if report.LikelyVisible {
		a.Printer.Warning("DPMS flipped repeatedly; the flicker is likely visible on %s", report.Monitor)
	}
	if report.LogPath != "" {
		a.Printer.Muted("Session log: %s", report.LogPath)
	}
	return nil
}
