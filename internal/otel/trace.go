package otel

import (
	"os"
	"sync/atomic"
)

// traceEnabled gates per-program window events, which are too chatty for
// normal runs.
var traceEnabled atomic.Bool

func init() {
	traceEnabled.Store(os.Getenv("CHANNELGUIDE_TRACE") != "")
}

// TraceEnabled reports whether CHANNELGUIDE_TRACE is set.
func TraceEnabled() bool {
	return traceEnabled.Load()
}

// SetTraceEnabled overrides the flag (guidectl --trace, tests).
func SetTraceEnabled(v bool) {
	traceEnabled.Store(v)
}
