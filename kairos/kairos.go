// Package kairos provides manual, call-path-aware time accounting.
//
// Callers mark the start of a named task with [Meter.Begin]; the elapsed
// wall-clock time since the previous mark is attributed to the sequence of
// currently nested task names. Tasks nest, so the accounting is per call
// path, not merely per task name:
//
//	m := kairos.NewMeter()
//	outer := m.Begin("load")
//	inner := m.Begin("parse")   // time now accrues to "load:parse:"
//	inner.Transition("index")   // same depth, new name: "load:index:"
//	inner.Stop()
//	outer.Stop()
//	fmt.Print(m.Report())
//
// [Meter.Report] produces a textual breakdown, cumulative per task name and
// broken down per distinct path where a name is reached more than one way.
// [Meter.PrintSummary] prints the same cumulative figures as a table.
//
// There is no automatic instrumentation or sampling; every task boundary is
// caller-supplied, and begin/stop pairs must nest in strict LIFO order.
package kairos

import (
	"os"

	"golang.org/x/exp/slog"
)

func init() {
	logLevel = new(slog.LevelVar)
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	logger = slog.New(h)
}

var (
	logger   *slog.Logger
	logLevel *slog.LevelVar
)

// SetLogger sets the logger used by kairos.
// [SetLogLevel] will not be enforced if a custom logger is used.
func SetLogger(newlogger *slog.Logger) {
	logger = newlogger
}

// SetLogLevel sets the level for kairos messages unless [SetLogger] has been called.
// The default log level is the zero value of [slog.LevelVar].
func SetLogLevel(level slog.Level) {
	logLevel.Set(level)
}

// std is the process-wide default meter used by the package-level functions.
// Callers that need isolated measurement scopes (tests in particular) should
// construct their own [Meter] instead.
var std = NewMeter()

// Begin starts timing task on the default meter. See [Meter.Begin].
func Begin(task string) *Guard {
	return std.Begin(task)
}

// Reset discards all data accumulated on the default meter. See [Meter.Reset].
func Reset() {
	std.Reset()
}

// Report returns the formatted breakdown of the default meter. See [Meter.Report].
func Report() string {
	return std.Report()
}

// PrintSummary prints the cumulative per-task table of the default meter.
// See [Meter.PrintSummary].
func PrintSummary() {
	std.PrintSummary()
}
