package topics

// Message constants
const (
	MsgShort = "Read long-form help articles"
	MsgLong  = `The 'topics' command prints in-depth articles about how dotpilot
works, rendered for the terminal. Run it without arguments to list the
available topics.`
)
