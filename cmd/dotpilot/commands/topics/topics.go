package topics

import (
	"fmt"

	"github.com/spf13/cobra"

	helptopics "github.com/dotpilot-sh/dotpilot/cmd/dotpilot/internal/topics"
)

// NewCommand creates the topics command
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "topics [topic]",
		Short:     MsgShort,
		Long:      MsgLong,
		GroupID:   "misc",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: helptopics.List(),
		RunE:      run,
	}
}

func run(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Available topics:")
		for _, name := range helptopics.List() {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", name)
		}
		return nil
	}

	out, err := helptopics.Render(args[0])
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}
