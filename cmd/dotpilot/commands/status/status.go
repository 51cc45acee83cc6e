package status

import (
	"github.com/spf13/cobra"

	"github.com/dotpilot-sh/dotpilot/cmd/dotpilot/internal/app"
	"github.com/dotpilot-sh/dotpilot/pkg/ui"
)

// NewCommand creates the status command
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "status [tools...]",
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

	for _, name := range names {
		tool, err := a.Config.Tool(name)
		if err != nil {
			return err
		}
		specs := tool.Specs(a.Paths)
		if len(specs) == 0 {
			continue
		}

		statuses := a.LinkerFor(name).Status(specs)
		a.Printer.Plain("%s", ui.RenderToolStatus(name, statuses))
	}
	return nil
}
