package list

import (
	"sort"

	"github.com/spf13/cobra"

	"github.com/dotpilot-sh/dotpilot/cmd/dotpilot/internal/app"
)

// NewCommand creates the list command
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Short:   MsgShort,
		Long:    MsgLong,
		GroupID: "core",
		Args:    cobra.NoArgs,
		RunE:    run,
	}
}

func run(cmd *cobra.Command, args []string) error {
	a, err := app.FromCommand(cmd)
	if err != nil {
		return err
	}

	names := a.Config.Names()
	sort.Strings(names)

	a.Printer.Header("Tools")
	for _, name := range names {
		tool := a.Config.Tools[name]
		a.Printer.Plain("  %-12s %s (%d links)", name, tool.Description, len(tool.Links))
	}

	a.Printer.Header("Core packages")
	for _, pkg := range a.Config.Packages.Core {
		a.Printer.Plain("  %-24s %s", pkg.Name, pkg.Description)
	}

	a.Printer.Header("Optional packages")
	for _, pkg := range a.Config.Packages.Optional {
		a.Printer.Plain("  %-24s %s", pkg.Name, pkg.Description)
	}

	a.Printer.Header("DisplayLink driver packages")
	for _, pkg := range a.Config.Packages.Displaylink {
		a.Printer.Plain("  %-24s %s", pkg.Name, pkg.Description)
	}
	return nil
}
