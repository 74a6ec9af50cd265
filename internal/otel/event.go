// Package otel records structured refresh events for channelguide.
//
// Events are typed structs serialized as JSONL lines. The Logger writes
// events asynchronously via a buffered channel and background drain goroutine.
// An optional RingBuffer keeps recent events in memory for the guide's
// status line and for `guidectl events`.
package otel

import (
	"encoding/json"
	"time"
)

// Level defines event severity for filtering.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// EventKind identifies the category of an event.
// Dot-delimited: "<subsystem>.<action>".
type EventKind string

const (
	// Refresh run events
	KindRefreshStart      EventKind = "refresh.start"
	KindRefreshComplete   EventKind = "refresh.complete"
	KindRefreshSuperseded EventKind = "refresh.superseded"
	KindRefreshFailed     EventKind = "refresh.failed"

	// Per-channel events
	KindChannelDelivered EventKind = "channel.delivered"
	KindChannelReused    EventKind = "channel.reused"
	KindChannelStale     EventKind = "channel.stale"
	KindContentError     EventKind = "channel.content_error"
	KindBuildError       EventKind = "channel.build_error"
	KindInvariant        EventKind = "channel.invariant"
	KindWindowTrace      EventKind = "trace.window"

	// Catalog events
	KindImport EventKind = "catalog.import"

	// System events
	KindStartup  EventKind = "sys.startup"
	KindShutdown EventKind = "sys.shutdown"
	KindError    EventKind = "sys.error"
)

// Event is the universal record. Every field except Kind and Time is
// optional. Serialized as a single JSONL line.
type Event struct {
	Time      time.Time      `json:"t"`
	Level     Level          `json:"level,omitempty"`
	Kind      EventKind      `json:"kind"`
	Comp      string         `json:"comp,omitempty"`       // component: "coord", "catalog", "ui", "main"
	SessionID string         `json:"session_id,omitempty"` // random hex, same for entire app run
	RunID     string         `json:"rid,omitempty"`        // refresh run correlation ID
	Gen       uint64         `json:"gen,omitempty"`        // refresh generation
	Channel   string         `json:"channel,omitempty"`
	Reason    string         `json:"reason,omitempty"`
	Dur       time.Duration  `json:"-"`                // not serialized directly
	DurMs     float64        `json:"dur_ms,omitempty"` // computed from Dur at marshal time
	Count     int            `json:"count,omitempty"`
	Err       string         `json:"err,omitempty"`
	Msg       string         `json:"msg,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// MarshalJSON implements json.Marshaler, converting Dur to DurMs.
func (e Event) MarshalJSON() ([]byte, error) {
	type Alias Event
	a := struct {
		Alias
	}{Alias: Alias(e)}
	if e.Dur > 0 {
		a.DurMs = float64(e.Dur) / float64(time.Millisecond)
	}
	return json.Marshal(a)
}
