package flicker

import (
	"sync"
	"time"
)

// EventType classifies a detected flicker-related event
type EventType string

const (
	// EventDRM is a DisplayLink-related kernel DRM message
	EventDRM EventType = "drm_event"

	// EventUSB is a udev USB connect/disconnect message
	EventUSB EventType = "usb_event"

	// EventDPMSChange is a DPMS state flip on the watched monitor
	EventDPMSChange EventType = "dpms_change"

	// EventRapidFlicker marks several DPMS flips in quick succession
	EventRapidFlicker EventType = "rapid_flicker"
)

// Event is one detected occurrence during a monitoring session
type Event struct {
	Time    time.Time `json:"time"`
	Type    EventType `json:"type"`
	Monitor string    `json:"monitor,omitempty"`
	Details string    `json:"details,omitempty"`
}

// collector accumulates events from the concurrent watchers
type collector struct {
	mu     sync.Mutex
	events []Event
}

func (c *collector) add(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func (c *collector) snapshot() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

func (c *collector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}
