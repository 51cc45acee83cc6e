package flicker

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotpilot-sh/dotpilot/pkg/filesystem"
	"github.com/dotpilot-sh/dotpilot/pkg/hyprctl"
)

// silentStream yields no lines and closes when the context ends
func silentStream(ctx context.Context) (<-chan string, error) {
	ch := make(chan string)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}

// linesStream yields the given lines, then stays quiet until cancel
func linesStream(lines ...string) Stream {
	return func(ctx context.Context) (<-chan string, error) {
		ch := make(chan string)
		go func() {
			defer close(ch)
			for _, l := range lines {
				select {
				case ch <- l:
				case <-ctx.Done():
					return
				}
			}
			<-ctx.Done()
		}()
		return ch, nil
	}
}

// dpmsRunner serves hyprctl monitors -j with a scripted DPMS sequence,
// repeating the last state once the script runs out.
type dpmsRunner struct {
	mu     sync.Mutex
	states []bool
	calls  int
}

func (d *dpmsRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	i := d.calls
	if i >= len(d.states) {
		i = len(d.states) - 1
	}
	d.calls++
	out := fmt.Sprintf(`[{"id":1,"name":"DP-3","dpmsStatus":%t}]`, d.states[i])
	return []byte(out), nil
}

func newTestSession(t *testing.T, fsys filesystem.FS, client *hyprctl.Client, opts Options) *Session {
	t.Helper()
	if opts.KernelStream == nil {
		opts.KernelStream = silentStream
	}
	if opts.UdevStream == nil {
		opts.UdevStream = silentStream
	}
	if opts.Duration == 0 {
		opts.Duration = 300 * time.Millisecond
	}
	if opts.PollInterval == 0 {
		opts.PollInterval = 10 * time.Millisecond
	}
	if client == nil {
		client = hyprctl.NewWithRunner(&dpmsRunner{states: []bool{true}})
	}
	return NewSession(client, fsys, t.TempDir(), opts)
}

func TestCleanSession(t *testing.T) {
	fsys := filesystem.NewOS()
	session := newTestSession(t, fsys, nil, Options{MonitorName: "DP-3"})

	report, err := session.Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, report.Events)
	assert.Equal(t, VerdictClean, report.Verdict)
	assert.False(t, report.LikelyVisible)
}

func TestJournalKeywordFiltering(t *testing.T) {
	fsys := filesystem.NewOS()
	opts := Options{
		MonitorName: "DP-3",
		KernelStream: linesStream(
			"[  100.0] usb 2-1: USB disconnect, device number 9",
			"[  100.1] unrelated chatter about networking",
			"[  100.2] [drm:udl_modeset] *ERROR* wait for vblank timeout",
		),
	}
	session := newTestSession(t, fsys, nil, opts)

	report, err := session.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, 2, report.Counts[EventDRM])
	for _, e := range report.Events {
		assert.NotContains(t, e.Details, "networking")
	}
	assert.Equal(t, VerdictSome, report.Verdict)
}

func TestUSBEventsCounted(t *testing.T) {
	fsys := filesystem.NewOS()
	opts := Options{
		MonitorName: "DP-3",
		UdevStream: linesStream(
			"systemd-udevd[412]: 2-1: device removed",
			"completely quiet line with no matches here",
		),
	}
	session := newTestSession(t, fsys, nil, opts)

	report, err := session.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Counts[EventUSB])
}

func TestRapidFlickerDetection(t *testing.T) {
	fsys := filesystem.NewOS()

	// Four flips in a row exceeds the burst threshold.
	runner := &dpmsRunner{states: []bool{true, false, true, false, true, true, true}}
	session := newTestSession(t, fsys, hyprctl.NewWithRunner(runner), Options{MonitorName: "DP-3"})

	report, err := session.Run(context.Background())
	require.NoError(t, err)

	assert.GreaterOrEqual(t, report.Counts[EventDPMSChange], 3)
	assert.GreaterOrEqual(t, report.Counts[EventRapidFlicker], 1)
}

func TestSingleDPMSChangeIsNotRapid(t *testing.T) {
	fsys := filesystem.NewOS()

	runner := &dpmsRunner{states: []bool{true, false, false, false, false}}
	session := newTestSession(t, fsys, hyprctl.NewWithRunner(runner), Options{MonitorName: "DP-3"})

	report, err := session.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Counts[EventDPMSChange])
	assert.Zero(t, report.Counts[EventRapidFlicker])
}

func TestHighVerdictThreshold(t *testing.T) {
	fsys := filesystem.NewOS()

	var noisy []string
	for i := 0; i < 12; i++ {
		noisy = append(noisy, fmt.Sprintf("[  %d.0] [drm] frame %d dropped", i, i))
	}
	session := newTestSession(t, fsys, nil, Options{
		MonitorName:  "DP-3",
		KernelStream: linesStream(noisy...),
	})

	report, err := session.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, VerdictHigh, report.Verdict)
}

func TestReportWrittenToLogDir(t *testing.T) {
	fsys := filesystem.NewOS()
	logDir := t.TempDir()

	session := NewSession(
		hyprctl.NewWithRunner(&dpmsRunner{states: []bool{true}}),
		fsys, logDir,
		Options{
			MonitorName:  "DP-3",
			Duration:     200 * time.Millisecond,
			PollInterval: 10 * time.Millisecond,
			KernelStream: linesStream("[  1.0] [drm] something failed"),
			UdevStream:   silentStream,
		})

	report, err := session.Run(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, report.LogPath)
	assert.Equal(t, logDir, filepath.Dir(report.LogPath))
	assert.True(t, strings.HasPrefix(filepath.Base(report.LogPath), "realtime_flicker_"))

	data, err := fsys.ReadFile(report.LogPath)
	require.NoError(t, err)

	var decoded Report
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, report.Verdict, decoded.Verdict)
	assert.Len(t, decoded.Events, len(report.Events))
}

func TestCancelStopsEarly(t *testing.T) {
	fsys := filesystem.NewOS()
	session := newTestSession(t, fsys, nil, Options{
		MonitorName: "DP-3",
		Duration:    10 * time.Second,
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	report, err := session.Run(ctx)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.NotNil(t, report)
}

func TestRecentCapsEvents(t *testing.T) {
	r := &Report{}
	for i := 0; i < 8; i++ {
		r.Events = append(r.Events, Event{Details: fmt.Sprintf("e%d", i)})
	}
	recent := r.Recent(5)
	require.Len(t, recent, 5)
	assert.Equal(t, "e3", recent[0].Details)

	assert.Len(t, r.Recent(20), 8)
}
