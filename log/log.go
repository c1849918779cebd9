// Package log holds the process-wide structured logger for the simulator.
package log

import (
	"os"

	hclog "github.com/hashicorp/go-hclog"
)

// L is the simulator logger. The level defaults to Info; setting the TRACE
// environment variable lowers it to Trace.
var L hclog.Logger

func init() {
	L = hclog.New(&hclog.LoggerOptions{
		Name:   "sos",
		Output: os.Stderr,
	})
	L.SetLevel(hclog.Info)

	if str := os.Getenv("TRACE"); str != "" {
		L.SetLevel(hclog.Trace)
	}
}

// SetVerbose lowers the logger to Debug, unless it is already more verbose.
func SetVerbose(verbose bool) {
	if !verbose {
		return
	}

	if L.GetLevel() > hclog.Debug {
		L.SetLevel(hclog.Debug)
	}
}
