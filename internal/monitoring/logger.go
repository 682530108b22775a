// Package monitoring holds the pipeline's diagnostic logger. Stages log
// through Logf so tests and the CLI can redirect or mute output.
package monitoring

import (
	"log"
	"sync/atomic"
	"time"

	"github.com/jsangelo/index-based-alert-system/internal/timeutil"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

var verbose atomic.Bool

// clock times pipeline stages.
var clock timeutil.Clock = timeutil.RealClock{}

// SetClock replaces the clock Stage measures with. Passing nil restores the
// real clock.
func SetClock(c timeutil.Clock) {
	if c == nil {
		c = timeutil.RealClock{}
	}
	clock = c
}

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// SetVerbose enables or disables Debugf output.
func SetVerbose(on bool) {
	verbose.Store(on)
}

// Debugf logs through Logf only when verbose output is enabled.
func Debugf(format string, v ...interface{}) {
	if verbose.Load() {
		Logf("[debug] "+format, v...)
	}
}

// Stage logs the start of a named pipeline stage and returns a func that
// logs its completion with the elapsed wall time.
//
//	done := monitoring.Stage(runID, "pairwise")
//	defer done()
func Stage(runID, name string) func() {
	c := clock
	start := c.Now()
	Logf("run=%s stage=%s started", runID, name)
	return func() {
		Logf("run=%s stage=%s finished in %s", runID, name, c.Since(start).Round(time.Millisecond))
	}
}
