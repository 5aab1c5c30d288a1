package gateway

import (
	"io"
	"log"
	"os"
)

// debugLog swallows chatty per-connection logging unless verbose mode is on.
var debugLog = log.New(io.Discard, "", log.LstdFlags)

// SetVerboseLogging enables or disables verbose gateway logging.
func SetVerboseLogging(enabled bool) {
	if enabled {
		debugLog = log.New(os.Stderr, "", log.LstdFlags)
	} else {
		debugLog = log.New(io.Discard, "", log.LstdFlags)
	}
}
