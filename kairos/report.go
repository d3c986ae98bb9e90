package kairos

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/exp/maps"
)

// tally is a duration/count pair aggregated across several records.
type tally struct {
	dur   time.Duration
	count uint64
}

// summarize computes the grand total over all records and, for every task
// name appearing anywhere in a path, the cumulative figures over every path
// containing it. A name repeated within one path is counted once per path.
func summarize(recs []*record) (total time.Duration, cum map[label]*tally) {
	cum = make(map[label]*tally)
	for _, r := range recs {
		total += r.dur
		seen := make(map[label]bool, len(r.path))
		for _, l := range r.path {
			if seen[l] {
				continue
			}
			seen[l] = true
			c, ok := cum[l]
			if !ok {
				c = &tally{}
				cum[l] = c
			}
			c.dur += r.dur
			c.count += r.count
		}
	}
	return total, cum
}

// orderLabels returns the task names of cum sorted by cumulative duration
// descending, ties broken by name.
func orderLabels(cum map[label]*tally, names []string) []label {
	order := maps.Keys(cum)
	sort.Slice(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if cum[a].dur != cum[b].dur {
			return cum[a].dur > cum[b].dur
		}
		return names[a] < names[b]
	})
	return order
}

// way is one distinct route by which a task name was reached: the sub-path
// up to and including the first occurrence of the name, with the figures of
// every record grouped under it.
type way struct {
	path  path
	dur   time.Duration
	count uint64
}

// waysTo groups every record whose path contains l by the prefix ending at
// the first occurrence of l, ordered by grouped duration descending, ties by
// path.
func waysTo(l label, recs []*record, names []string) []*way {
	byKey := make(map[string]*way)
	for _, r := range recs {
		i := indexOf(r.path, l)
		if i < 0 {
			continue
		}
		p := r.path[:i+1]
		k := p.key()
		w, ok := byKey[k]
		if !ok {
			w = &way{path: p}
			byKey[k] = w
		}
		w.dur += r.dur
		w.count += r.count
	}

	ways := maps.Values(byKey)
	sort.Slice(ways, func(i, j int) bool {
		if ways[i].dur != ways[j].dur {
			return ways[i].dur > ways[j].dur
		}
		return comparePaths(ways[i].path, ways[j].path, names) < 0
	})
	return ways
}

func indexOf(p path, l label) int {
	for i, pl := range p {
		if pl == l {
			return i
		}
	}
	return -1
}

// Report commits any pending interval up to now, then returns a textual
// breakdown of where time went. Task names are listed by cumulative time
// descending; a name reached by more than one distinct path gets a header
// line followed by one indented line per path, each annotated with its share
// of the grand total, its cumulative time, the number of entries and the
// mean time per entry.
//
// Report has no effect on accounting beyond the final commit: calling it
// again without intervening tasks yields the same text.
func (m *Meter) Report() string {
	recs, names := m.snapshot()
	total, cum := summarize(recs)

	pct := func(d time.Duration) float64 {
		if total <= 0 {
			return 0
		}
		return 100 * float64(d) / float64(total)
	}
	avg := func(d time.Duration, n uint64) time.Duration {
		if n == 0 {
			return 0
		}
		return d / time.Duration(n)
	}

	var b strings.Builder
	for _, l := range orderLabels(cum, names) {
		ways := waysTo(l, recs, names)
		if len(ways) == 1 {
			w := ways[0]
			fmt.Fprintf(&b, "%.1f%% %s %s (%d, %s)\n",
				pct(w.dur), prettyPath(w.path, names), prettyTime(w.dur),
				w.count, prettyTime(avg(w.dur, w.count)))
			continue
		}

		c := cum[l]
		fmt.Fprintf(&b, "%.1f%% %s %s (%d, %s)\n",
			pct(c.dur), names[l], prettyTime(c.dur),
			c.count, prettyTime(avg(c.dur, c.count)))
		for _, w := range ways {
			fmt.Fprintf(&b, "    %.1f%% %s %s (%d, %s)\n",
				pct(w.dur), prettyPath(w.path, names), prettyTime(w.dur),
				w.count, prettyTime(avg(w.dur, w.count)))
		}
		b.WriteString("\n")
	}
	return b.String()
}
