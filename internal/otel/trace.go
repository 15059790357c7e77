package otel

import (
	"os"
	"sync/atomic"
)

// traceEnabled is read on the UI goroutine for every message, so it is an
// atomic flag rather than a lookup.
var traceEnabled atomic.Bool

func init() {
	traceEnabled.Store(os.Getenv("FILMPICK_TRACE") != "")
}

// TraceEnabled reports whether FILMPICK_TRACE is set.
func TraceEnabled() bool {
	return traceEnabled.Load()
}

// setTraceEnabled overrides the flag in tests.
func setTraceEnabled(v bool) {
	traceEnabled.Store(v)
}
