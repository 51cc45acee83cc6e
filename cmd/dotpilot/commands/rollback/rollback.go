package rollback

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dotpilot-sh/dotpilot/cmd/dotpilot/internal/app"
)

// NewCommand creates the rollback command
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "rollback [tools...]",
		Short:   MsgShort,
		Long:    MsgLong,
		Example: MsgExample,
		GroupID: "core",
		RunE:    run,
	}
}

func run(cmd *cobra.Command, args []string) error {
	a, err := app.FromCommand(cmd)
	if err != nil {
		return err
	}

	names, err := a.SelectTools(args)
	if err != nil {
		return err
	}

	failed := 0
	for _, name := range names {
		tool, err := a.Config.Tool(name)
		if err != nil {
			return err
		}

		result, err := a.LinkerFor(name).Rollback(tool.Specs(a.Paths))
		if err != nil {
			a.Printer.Error("%s: %v", name, err)
			failed++
			continue
		}
		if !result.HadState {
			a.Printer.Muted("%s: nothing to roll back", name)
			continue
		}

		a.Printer.Header("%s", name)
		for _, link := range result.RemovedLinks {
			a.Printer.Success("removed link %s", link)
		}
		for _, restored := range result.Restored {
			a.Printer.Success("restored %s", restored)
		}
		for _, missing := range result.MissingBackups {
			a.Printer.Warning("backup missing for %s, skipped", missing)
		}
	}

	if a.DryRun {
		a.Printer.Info("Dry run: no changes were made")
	}
	if failed > 0 {
		return fmt.Errorf("rollback failed for %d tool(s)", failed)
	}
	return nil
}
