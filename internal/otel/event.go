// Package otel provides structured observability for filmpick.
//
// Events are typed structs serialized as JSONL lines. The Logger writes
// events asynchronously via a buffered channel and background drain goroutine.
// An optional RingBuffer keeps recent events in memory for the debug overlay.
package otel

import (
	"time"

	"github.com/goccy/go-json"
)

// Level defines event severity for filtering.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// EventKind identifies the category of an observability event.
// Dot-delimited: "<subsystem>.<action>".
type EventKind string

const (
	// Catalog events
	KindCatalogStart     EventKind = "catalog.start"
	KindCatalogFallback  EventKind = "catalog.fallback"
	KindCatalogComplete  EventKind = "catalog.complete"
	KindCatalogError     EventKind = "catalog.error"
	KindCatalogMalformed EventKind = "catalog.malformed"

	// Recommendation events
	KindRecommendStart    EventKind = "recommend.start"
	KindRecommendComplete EventKind = "recommend.complete"
	KindRecommendError    EventKind = "recommend.error"
	KindRecommendStale    EventKind = "recommend.stale"

	// Selection events
	KindSelectionToggle   EventKind = "selection.toggle"
	KindSelectionCapacity EventKind = "selection.capacity"
	KindSelectionClear    EventKind = "selection.clear"
	KindSelectionEmpty    EventKind = "selection.empty"

	// UI events
	KindKeyPress EventKind = "ui.key"

	// System events
	KindStartup  EventKind = "sys.startup"
	KindShutdown EventKind = "sys.shutdown"
	KindError    EventKind = "sys.error"

	// Trace events, emitted only when FILMPICK_TRACE is set
	KindMsgReceived EventKind = "trace.msg_received"
)

// Event is the universal observability record. Every field except Kind and
// Time is optional. Serialized as a single JSONL line.
type Event struct {
	Time      time.Time      `json:"t"`
	Level     Level          `json:"level,omitempty"`
	Kind      EventKind      `json:"kind"`
	Comp      string         `json:"comp,omitempty"`       // component: "fetch", "controller", "ui", "main"
	SessionID string         `json:"session_id,omitempty"` // uuid, same for entire app run
	Gen       uint64         `json:"gen,omitempty"`        // catalog session generation
	Dur       time.Duration  `json:"-"`                    // not serialized directly
	DurMs     float64        `json:"dur_ms,omitempty"`     // computed from Dur at marshal time
	Count     int            `json:"count,omitempty"`
	Endpoint  string         `json:"endpoint,omitempty"`
	Title     string         `json:"title,omitempty"`
	Err       string         `json:"err,omitempty"`
	Msg       string         `json:"msg,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// MarshalJSON implements json.Marshaler, converting Dur to DurMs.
func (e Event) MarshalJSON() ([]byte, error) {
	type alias Event
	a := alias(e)
	if e.Dur > 0 {
		a.DurMs = float64(e.Dur) / float64(time.Millisecond)
	}
	return json.Marshal(a)
}
