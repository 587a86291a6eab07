package lifecycle

import "sync/atomic"

var shuttingDown atomic.Bool

// SetShuttingDown flips the process into draining mode. Call when SIGTERM/SIGINT is received.
func SetShuttingDown(v bool) {
	shuttingDown.Store(v)
}

// IsShuttingDown reports whether the process is draining. GET /health answers
// 503 shutting-down while true.
func IsShuttingDown() bool {
	return shuttingDown.Load()
}
