// Package app wires the shared dependencies every dotpilot command
// needs: resolved paths, the tools registry, the filesystem (real or
// dry-run), and a printer bound to the command's output stream.
package app

import (
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/dotpilot-sh/dotpilot/pkg/filesystem"
	"github.com/dotpilot-sh/dotpilot/pkg/linker"
	"github.com/dotpilot-sh/dotpilot/pkg/paths"
	"github.com/dotpilot-sh/dotpilot/pkg/state"
	"github.com/dotpilot-sh/dotpilot/pkg/tools"
	"github.com/dotpilot-sh/dotpilot/pkg/ui"
)

// App carries the dependencies shared by all commands
type App struct {
	Paths     paths.Paths
	Config    *tools.Config
	FS        filesystem.FS
	Printer   *ui.Printer
	DryRun    bool
	Timestamp string
}

// FromCommand builds the App for one command invocation, honoring the
// persistent --dry-run flag.
func FromCommand(cmd *cobra.Command) (*App, error) {
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	p, err := paths.New("")
	if err != nil {
		return nil, err
	}

	cfg, err := tools.Load(p)
	if err != nil {
		return nil, err
	}

	var fsys filesystem.FS = filesystem.NewOS()
	if dryRun {
		fsys = filesystem.NewDryRun(fsys)
	}

	return &App{
		Paths:     p,
		Config:    cfg,
		FS:        fsys,
		Printer:   ui.NewPrinter(cmd.OutOrStdout()),
		DryRun:    dryRun,
		Timestamp: time.Now().Format(state.TimestampFormat),
	}, nil
}

// LinkerFor builds the link state machine for one tool
func (a *App) LinkerFor(tool string) *linker.Linker {
	store := state.NewStore(a.FS, a.Paths.StatePath(tool))
	return linker.New(a.FS, store, a.Paths.BackupDir(tool), tool)
}

// SelectTools resolves the tool arguments, defaulting to every
// configured tool in stable order.
func (a *App) SelectTools(args []string) ([]string, error) {
	if len(args) == 0 {
		names := a.Config.Names()
		sort.Strings(names)
		return names, nil
	}

	for _, name := range args {
		if _, err := a.Config.Tool(name); err != nil {
			return nil, err
		}
	}
	return args, nil
}
