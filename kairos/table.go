package kairos

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/rodaine/table"
)

// PrintSummary prints the cumulative per-task table of m to stdout.
// See [Meter.WriteSummary].
func (m *Meter) PrintSummary() {
	m.WriteSummary(os.Stdout)
}

// WriteSummary writes cumulative per-task figures to w as a table: one row
// per task name, ordered by cumulative time descending, with total time,
// share of the grand total, number of entries and mean time per entry.
//
// Unlike [Meter.Report] the table does not break a task down by path; it is
// meant as a quick overview.
func (m *Meter) WriteSummary(w io.Writer) {
	recs, names := m.snapshot()
	total, cum := summarize(recs)

	headerFmt := color.New(color.FgYellow, color.Underline).SprintfFunc()

	tbl := table.New(
		"task",
		"total",
		"share",
		"calls",
		"mean",
	)
	tbl.WithWriter(w)
	tbl.WithHeaderFormatter(headerFmt)

	for _, l := range orderLabels(cum, names) {
		c := cum[l]
		share := 0.0
		if total > 0 {
			share = 100 * float64(c.dur) / float64(total)
		}
		var mean time.Duration
		if c.count > 0 {
			mean = c.dur / time.Duration(c.count)
		}
		tbl.AddRow(names[l],
			c.dur,
			fmt.Sprintf("%.1f%%", share),
			c.count,
			mean)
	}

	color.New(color.FgYellow).Add(color.Bold).Fprintf(w, "\n⏱ Task breakdown\n")
	tbl.Print()
}
