package list

// Message constants
const (
	MsgShort = "List configured tools and packages"
	MsgLong  = `The 'list' command prints every tool the registry knows about,
with its link count, plus the core and optional package sets the
'install' command manages.`
)
