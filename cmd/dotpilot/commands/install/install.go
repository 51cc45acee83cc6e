package install

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dotpilot-sh/dotpilot/cmd/dotpilot/internal/app"
	"github.com/dotpilot-sh/dotpilot/pkg/installer"
	"github.com/dotpilot-sh/dotpilot/pkg/pacman"
	"github.com/dotpilot-sh/dotpilot/pkg/state"
	"github.com/dotpilot-sh/dotpilot/pkg/tools"
	"github.com/dotpilot-sh/dotpilot/pkg/ui"
)

// NewCommand creates the install command
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "install",
		Short:   MsgShort,
		Long:    MsgLong,
		Example: MsgExample,
		GroupID: "core",
		Args:    cobra.NoArgs,
		RunE:    run,
	}

	cmd.Flags().Bool("optional", false, "Include the optional package set")
	cmd.Flags().Bool("displaylink", false, "Include the DisplayLink DKMS driver set")
	cmd.Flags().Bool("force", false, "Skip confirmation prompts")
	cmd.Flags().Bool("reinstall", false, "Reinstall packages that are already present")
	cmd.Flags().Bool("rollback", false, "Remove the packages installed in the last session")

	return cmd
}

// confirmProceed gates a mutating run on user approval. Forced and
// dry runs proceed without asking; a declined prompt answers no.
func confirmProceed(p *ui.Printer, prompt string, force, dryRun bool) bool {
	if force || dryRun {
		return true
	}
	return p.Confirm(prompt, false)
}

func run(cmd *cobra.Command, args []string) error {
	a, err := app.FromCommand(cmd)
	if err != nil {
		return err
	}
	optional, _ := cmd.Flags().GetBool("optional")
	displaylink, _ := cmd.Flags().GetBool("displaylink")
	force, _ := cmd.Flags().GetBool("force")
	reinstall, _ := cmd.Flags().GetBool("reinstall")
	rollback, _ := cmd.Flags().GetBool("rollback")

	helper, err := pacman.NewHelper(pacman.NewRunner())
	if err != nil {
		return err
	}
	a.Printer.Info("Using %s", helper.Name())

	store := state.NewStore(a.FS, a.Paths.PackageStatePath())
	inst := installer.New(helper, a.FS, store, a.Paths.BackupDir("packages"), a.DryRun)

	if rollback {
		return runRollback(cmd, a, inst, force)
	}

	pkgs := a.Config.Packages.Core
	if optional {
		pkgs = append(pkgs, a.Config.Packages.Optional...)
	}
	if displaylink {
		pkgs = append(pkgs, a.Config.Packages.Displaylink...)
	}

	toInstall := pkgs
	if !reinstall {
		var present []tools.Package
		toInstall, present = inst.Pending(cmd.Context(), pkgs)
		for _, pkg := range present {
			a.Printer.Muted("%s already installed", pkg.Name)
		}
	}
	if len(toInstall) == 0 {
		a.Printer.Success("Nothing to install")
		return nil
	}

	prompt := fmt.Sprintf("Proceed with installation of %d package(s)?", len(toInstall))
	if !confirmProceed(a.Printer, prompt, force, a.DryRun) {
		a.Printer.Warning("Installation cancelled")
		return nil
	}

	report, err := inst.Install(cmd.Context(), toInstall, func(e installer.Event) {
		switch e.Kind {
		case installer.EventInstalled:
			a.Printer.Success("installed %s", e.Package.Name)
		case installer.EventFailed:
			a.Printer.Error("failed %s: %v", e.Package.Name, e.Err)
		case installer.EventDryRun:
			a.Printer.Info("would install %s", e.Package.Name)
		}
	})
	if err != nil {
		return err
	}

	a.Printer.Plain("")
	a.Printer.Info("%d installed, %d failed", len(report.Installed), len(report.Failed))
	if len(report.Failed) > 0 {
		return fmt.Errorf("%d package(s) failed to install", len(report.Failed))
	}
	return nil
}

// runRollback removes the packages recorded for the last installation
// session, newest first.
func runRollback(cmd *cobra.Command, a *app.App, inst *installer.Installer, force bool) error {
	names := inst.LastSession()
	if len(names) == 0 {
		a.Printer.Success("No packages to roll back")
		return nil
	}

	a.Printer.Info("Rolling back installation of: %s", strings.Join(names, ", "))
	if !confirmProceed(a.Printer, "Proceed with rollback?", force, a.DryRun) {
		a.Printer.Warning("Rollback cancelled")
		return nil
	}

	report, err := inst.Remove(cmd.Context(), names, func(e installer.Event) {
		switch e.Kind {
		case installer.EventRemoved:
			a.Printer.Success("removed %s", e.Package.Name)
		case installer.EventFailed:
			a.Printer.Error("failed to remove %s: %v", e.Package.Name, e.Err)
		case installer.EventDryRun:
			a.Printer.Info("would remove %s", e.Package.Name)
		}
	})
	if err != nil {
		return err
	}

	if len(report.Failed) > 0 {
		return fmt.Errorf("%d package(s) failed to remove", len(report.Failed))
	}
	return nil
}
