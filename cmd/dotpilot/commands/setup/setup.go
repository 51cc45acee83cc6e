package setup

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dotpilot-sh/dotpilot/cmd/dotpilot/internal/app"
)

// NewCommand creates the setup command
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "setup [tools...]",
		Short:   MsgShort,
		Long:    MsgLong,
		Example: MsgExample,
		GroupID: "core",
		RunE:    run,
	}

	cmd.Flags().Bool("no-verify", false, "Skip verifying links resolve after creating them")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	a, err := app.FromCommand(cmd)
	if err != nil {
		return err
	}
	noVerify, _ := cmd.Flags().GetBool("no-verify")
	// A dry run creates nothing, so there is nothing to re-read.
	verify := !noVerify && !a.DryRun

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
		specs := tool.Specs(a.Paths)
		if len(specs) == 0 {
			continue
		}

		a.Printer.Header("%s", name)
		result, err := a.LinkerFor(name).Setup(specs, verify)
		if err != nil {
			a.Printer.Error("%v", err)
			failed++
			continue
		}

		for _, link := range result.Linked {
			a.Printer.Success("linked %s", link)
		}
		for _, link := range result.AlreadyLinked {
			a.Printer.Muted("%s already linked", link)
		}
		for _, warning := range result.Warnings {
			a.Printer.Warning("%s", warning)
		}
		for _, note := range tool.Notes {
			a.Printer.Muted("note: %s", note)
		}
	}

	if a.DryRun {
		a.Printer.Info("Dry run: no changes were made")
	}
	if failed > 0 {
		return fmt.Errorf("setup failed for %d tool(s)", failed)
	}
	return nil
}
