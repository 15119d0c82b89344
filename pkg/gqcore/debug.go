package gqcore

import "os"

// DebugEnabled controls whether debug-level tracing is enabled process-wide.
// It is set automatically based on the GQCORE_DEBUG environment variable.
var DebugEnabled bool

func init() {
	DebugEnabled = os.Getenv("GQCORE_DEBUG") == "1"
}
