package status

// Message constants
const (
	MsgShort = "Show link state for each tool"
	MsgLong  = `The 'status' command inspects every configured link and reports
its current state without changing anything:

  linked   the target links to the dotfiles repository
  pending  the target does not exist yet; setup would create it
  blocked  a foreign file, directory or symlink occupies the target
  error    the source file is missing from the repository`

	MsgExample = `  # Status of everything
  dotpilot status

  # Status of one tool
  dotpilot status hyprland`
)
