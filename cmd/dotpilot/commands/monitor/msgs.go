package monitor

// Message constants
const (
	MsgShort = "Watch for DisplayLink flicker in real time"
	MsgLong  = `The 'monitor' command watches three signals at once to catch
DisplayLink flicker as it happens:

  - kernel DRM messages mentioning DisplayLink, udl or GPU errors
  - udev USB connect/disconnect events
  - DPMS state of the affected monitor, polled every 100ms

Several DPMS flips in quick succession are reported as active
flickering. When the session ends, a JSON event log is written to the
debug log directory and an overall verdict is printed.`

	MsgExample = `  # Watch the default monitor for 30 seconds
  dotpilot monitor

  # Longer session against a specific output
  dotpilot monitor --duration 5m --monitor-name DP-3`
)
