package fix

// Message constants
const (
	MsgShort = "Apply the known DisplayLink flicker fixes"
	MsgLong  = `The 'fix' command applies the remediations that stop DisplayLink
monitors from flickering under Hyprland:

  - disables USB autosuspend for every DisplayLink adapter (vendor 17e9)
  - pins the monitor's mode and refresh rate through hyprctl
  - writes a stable monitor config fragment, backing up any existing one

Steps run independently; one failing does not stop the others.`

	MsgExample = `  # Apply all fixes with defaults
  dotpilot fix

  # Different output or mode
  dotpilot fix --monitor DP-4 --refresh 50

  # Preview the filesystem changes
  dotpilot fix --dry-run`
)
