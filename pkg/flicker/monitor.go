// Package flicker implements the real-time DisplayLink flicker
// monitor. It watches three signals at once: DisplayLink-related
// kernel DRM messages, udev USB events, and rapid DPMS state flips on
// the affected monitor, the pattern standard DPMS monitoring misses.
package flicker

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dotpilot-sh/dotpilot/pkg/filesystem"
	"github.com/dotpilot-sh/dotpilot/pkg/hyprctl"
	"github.com/dotpilot-sh/dotpilot/pkg/journal"
	"github.com/dotpilot-sh/dotpilot/pkg/logging"
	"github.com/dotpilot-sh/dotpilot/pkg/state"
)

// Keyword filters matching the DisplayLink failure signatures seen in
// kernel and udev logs.
var (
	drmKeywords = []string{
		"drm", "displaylink", "dp-", "udl", "usb disconnect",
		"usb connect", "gpu hang", "timeout", "failed",
	}
	usbKeywords = []string{"usb", "disconnect", "connect", "device"}
)

// rapidThreshold is how many consecutive DPMS flips count as active
// flickering.
const rapidThreshold = 3

// Stream produces journal lines for one source
type Stream func(ctx context.Context) (<-chan string, error)

// Options configures a monitoring session
type Options struct {
	// Duration bounds the session; SIGINT stops it earlier
	Duration time.Duration

	// MonitorName is the display to poll, typically the 60Hz
	// DisplayLink output
	MonitorName string

	// PollInterval is the DPMS polling period
	PollInterval time.Duration

	// KernelStream and UdevStream override the journal sources in
	// tests; nil follows the real journal
	KernelStream Stream
	UdevStream   Stream
}

func (o *Options) applyDefaults() {
	if o.Duration == 0 {
		o.Duration = 30 * time.Second
	}
	if o.MonitorName == "" {
		o.MonitorName = "DP-3"
	}
	if o.PollInterval == 0 {
		o.PollInterval = 100 * time.Millisecond
	}
	if o.KernelStream == nil {
		o.KernelStream = func(ctx context.Context) (<-chan string, error) {
			f, err := journal.Follow(ctx, journal.Source{Kernel: true})
			if err != nil {
				return nil, err
			}
			return f.Lines(), nil
		}
	}
	if o.UdevStream == nil {
		o.UdevStream = func(ctx context.Context) (<-chan string, error) {
			f, err := journal.Follow(ctx, journal.Source{Unit: "systemd-udevd"})
			if err != nil {
				return nil, err
			}
			return f.Lines(), nil
		}
	}
}

// Verdict is the session's overall assessment
type Verdict string

const (
	// VerdictHigh means heavy activity; fixes are recommended
	VerdictHigh Verdict = "high"

	// VerdictSome means occasional activity worth watching
	VerdictSome Verdict = "some"

	// VerdictClean means no flicker events were detected
	VerdictClean Verdict = "clean"
)

// Report summarizes a completed session
type Report struct {
	Started  time.Time         `json:"started"`
	Duration time.Duration     `json:"duration"`
	Monitor  string            `json:"monitor"`
	Events   []Event           `json:"events"`
	Counts   map[EventType]int `json:"counts"`
	Verdict  Verdict           `json:"verdict"`

	// LikelyVisible is set when DPMS flips alone suggest flickering a
	// user would notice
	LikelyVisible bool   `json:"-"`
	LogPath       string `json:"-"`
}

// Recent returns up to n of the latest events
func (r *Report) Recent(n int) []Event {
	if len(r.Events) <= n {
		return r.Events
	}
	return r.Events[len(r.Events)-n:]
}

// Session runs one bounded monitoring pass
type Session struct {
	client *hyprctl.Client
	fs     filesystem.FS
	logDir string
	opts   Options
}

// NewSession creates a monitoring session. Events and the final report
// are written as JSON under logDir.
func NewSession(client *hyprctl.Client, fsys filesystem.FS, logDir string, opts Options) *Session {
	opts.applyDefaults()
	return &Session{client: client, fs: fsys, logDir: logDir, opts: opts}
}

// Run monitors until the duration elapses or ctx is cancelled, then
// returns the report. Cancellation is the normal stop path, not an
// error.
func (s *Session) Run(ctx context.Context) (*Report, error) {
	logger := logging.GetLogger("flicker")
	started := time.Now()

	logger.Info().
		Dur("duration", s.opts.Duration).
		Str("monitor", s.opts.MonitorName).
		Msg("Starting real-time flicker monitoring")

	ctx, cancel := context.WithTimeout(ctx, s.opts.Duration)
	defer cancel()

	events := &collector{}
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.watchStream(ctx, events, s.opts.KernelStream, drmKeywords, EventDRM)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.watchStream(ctx, events, s.opts.UdevStream, usbKeywords, EventUSB)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.pollDPMS(ctx, events)
	}()

	// Periodic status heartbeat while the watchers run.
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for done := false; !done; {
		select {
		case <-ctx.Done():
			done = true
		case <-ticker.C:
			logger.Info().
				Dur("elapsed", time.Since(started).Round(time.Second)).
				Int("events", events.count()).
				Msg("Monitoring status")
		}
	}
	wg.Wait()

	report := s.buildReport(started, events.snapshot())
	if err := s.writeReport(report); err != nil {
		logger.Warn().Err(err).Msg("Failed to write session report")
	}

	logger.Info().
		Int("events", len(report.Events)).
		Str("verdict", string(report.Verdict)).
		Msg("Monitoring complete")
	return report, nil
}

// watchStream filters one journal stream by keywords
func (s *Session) watchStream(ctx context.Context, events *collector, stream Stream, keywords []string, kind EventType) {
	logger := logging.GetLogger("flicker")

	lines, err := stream(ctx)
	if err != nil {
		logger.Error().Err(err).Str("type", string(kind)).Msg("Failed to start journal watcher")
		return
	}

	for line := range lines {
		if !matchesAny(line, keywords) {
			continue
		}
		logger.Warn().Str("type", string(kind)).Str("line", line).Msg("Journal event")
		events.add(Event{Time: time.Now(), Type: kind, Details: strings.TrimSpace(line)})
	}
}

// pollDPMS samples the watched monitor's DPMS state, recording flips
// and flagging bursts of them as active flickering.
func (s *Session) pollDPMS(ctx context.Context, events *collector) {
	logger := logging.GetLogger("flicker")

	ticker := time.NewTicker(s.opts.PollInterval)
	defer ticker.Stop()

	var previous *bool
	consecutive := 0

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		mon, err := s.client.Monitor(ctx, s.opts.MonitorName)
		if err != nil || mon == nil {
			continue
		}

		current := mon.DpmsStatus
		if previous != nil && current != *previous {
			consecutive++
			logger.Warn().
				Str("monitor", s.opts.MonitorName).
				Bool("from", *previous).
				Bool("to", current).
				Msg("DPMS state change")
			events.add(Event{
				Time:    time.Now(),
				Type:    EventDPMSChange,
				Monitor: s.opts.MonitorName,
				Details: fmt.Sprintf("dpms %t -> %t", *previous, current),
			})

			if consecutive >= rapidThreshold {
				logger.Error().
					Str("monitor", s.opts.MonitorName).
					Int("changes", consecutive).
					Msg("Rapid flicker detected")
				events.add(Event{
					Time:    time.Now(),
					Type:    EventRapidFlicker,
					Monitor: s.opts.MonitorName,
					Details: fmt.Sprintf("%d changes in quick succession", consecutive),
				})
				consecutive = 0
			}
		} else if consecutive > 0 {
			// Quiet samples gradually discharge the burst counter.
			consecutive--
		}
		previous = &current
	}
}

func (s *Session) buildReport(started time.Time, events []Event) *Report {
	report := &Report{
		Started:  started,
		Duration: time.Since(started),
		Monitor:  s.opts.MonitorName,
		Events:   events,
		Counts:   make(map[EventType]int),
	}
	for _, e := range events {
		report.Counts[e.Type]++
	}

	switch {
	case len(events) > 10:
		report.Verdict = VerdictHigh
	case len(events) > 0:
		report.Verdict = VerdictSome
	default:
		report.Verdict = VerdictClean
	}
	report.LikelyVisible = report.Counts[EventDPMSChange] > 5

	return report
}

func (s *Session) writeReport(report *Report) error {
	if err := s.fs.MkdirAll(s.logDir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}

	name := fmt.Sprintf("realtime_flicker_%s.json", report.Started.Format(state.TimestampFormat))
	report.LogPath = filepath.Join(s.logDir, name)
	return s.fs.WriteFile(report.LogPath, data, 0644)
}

func matchesAny(line string, keywords []string) bool {
	lower := strings.ToLower(line)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
