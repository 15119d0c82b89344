package cmd

import (
	"os"
	"syscall"
)

// TerminationSignals are the signals gqcore treats as requests to shut
// down cleanly, letting any deferred cleanup (socket removal, cache-lock
// release) run before the process exits.
var TerminationSignals = []os.Signal{
	syscall.SIGINT,
	syscall.SIGTERM,
}
