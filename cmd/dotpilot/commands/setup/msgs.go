package setup

// Message constants
const (
	MsgShort = "Link tool configs into place"
	MsgLong  = `The 'setup' command links configuration files from the dotfiles
repository into their expected locations.

For each tool it validates every source file, backs up whatever already
occupies a target path, creates the symlinks, and records the run so
'rollback' can undo it. Targets that already link to the right source
are left untouched.

If any source file is missing, setup aborts for that tool before
touching the filesystem.`

	MsgExample = `  # Link every configured tool
  dotpilot setup

  # Link specific tools
  dotpilot setup tmux hyprland

  # Preview without changing anything
  dotpilot setup --dry-run tmux`
)
