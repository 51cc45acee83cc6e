package rollback

// Message constants
const (
	MsgShort = "Undo a previous setup run"
	MsgLong  = `The 'rollback' command undoes what 'setup' did: it removes the
symlinks recorded in the tool's state file and restores whatever was
backed up before linking.

Targets that no longer point at the dotfiles repository are left alone;
rollback never destroys files it did not create. Tools with no recorded
state are skipped.`

	MsgExample = `  # Roll back every tool with recorded state
  dotpilot rollback

  # Roll back one tool
  dotpilot rollback tmux`
)
