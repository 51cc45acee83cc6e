package commands

// Message constants
const (
	MsgRootShort = "Hyprland dotfiles and DisplayLink toolkit"
	MsgRootLong  = `dotpilot manages a Hyprland/Arch dotfiles repository: it links
configuration files into place with backups and rollback, installs the
curated CLI package set, and diagnoses and fixes DisplayLink monitor
flicker.`

	MsgFlagVerbose = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagDryRun  = "Preview changes without executing them"
)
