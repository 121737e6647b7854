package otel

import (
	"os"
	"sync/atomic"
)

var traceEnabled atomic.Bool

func init() {
	traceEnabled.Store(os.Getenv("HYPERLOCAL_TRACE") != "")
}

// TraceEnabled reports whether HYPERLOCAL_TRACE was set at startup.
// The UI emits one KindMsgTrace event per message when it is.
func TraceEnabled() bool {
	return traceEnabled.Load()
}

func setTraceEnabled(v bool) {
	traceEnabled.Store(v)
}
