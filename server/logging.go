package server

import (
	"io"
	"log"
	"os"
)

// debugLog carries per-session and per-frame chatter. It stays discarded
// unless an operator opts in; the event path logs through it freely.
var debugLog = log.New(io.Discard, "", log.LstdFlags)

// SetVerboseLogging routes debug output to stderr when enabled and back to
// the discard sink when disabled.
func SetVerboseLogging(enable bool) {
	if enable {
		debugLog.SetOutput(os.Stderr)
	} else {
		debugLog.SetOutput(io.Discard)
	}
}
