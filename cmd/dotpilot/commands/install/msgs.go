package install

// Message constants
const (
	MsgShort = "Install the CLI package set"
	MsgLong  = `The 'install' command installs the curated package set through
paru, falling back to pacman when no AUR helper is present.

Packages whose check command already resolves on PATH are skipped, and
the run asks for confirmation before installing unless --force is
given. Every install and removal is recorded in the package state file
and a timestamped audit entry is written to the backup directory. A
failing package does not stop the rest of the set.

With --rollback the packages installed in the last session are removed
again.`

	MsgExample = `  # Install missing core packages
  dotpilot install

  # Include optional packages (OneDrive client)
  dotpilot install --optional

  # Install the DisplayLink docking station driver stack
  dotpilot install --displaylink

  # Install without confirmation prompts
  dotpilot install --force

  # Undo the last installation session
  dotpilot install --rollback

  # Preview what would be installed
  dotpilot install --dry-run`
)
