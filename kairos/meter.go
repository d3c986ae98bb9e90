package kairos

import (
	"encoding/binary"
	"strings"
	"sync"
	"time"

	"golang.org/x/exp/slices"
	"golang.org/x/exp/slog"
)

// label is an interned task name. Paths never carry the task strings
// themselves; names are resolved through the meter's label table when
// sorting and rendering.
type label uint32

type labelTable struct {
	ids   map[string]label
	names []string
}

func newLabelTable() *labelTable {
	return &labelTable{ids: make(map[string]label)}
}

func (t *labelTable) intern(name string) label {
	if l, ok := t.ids[name]; ok {
		return l
	}
	l := label(len(t.names))
	t.ids[name] = l
	t.names = append(t.names, name)
	return l
}

// path is a call stack of tasks, outermost to innermost.
type path []label

// key returns a comparable map key with structural equality.
func (p path) key() string {
	b := make([]byte, 0, len(p)*4)
	for _, l := range p {
		b = binary.BigEndian.AppendUint32(b, uint32(l))
	}
	return string(b)
}

// comparePaths orders paths by their task names element-wise, shorter
// prefixes first. Used for deterministic tie-breaking when rendering.
func comparePaths(a, b path, names []string) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := strings.Compare(names[a[i]], names[b[i]]); c != 0 {
			return c
		}
	}
	return len(a) - len(b)
}

// record holds the cumulative time and number of entries attributed to one
// exact path.
type record struct {
	path  path
	dur   time.Duration
	count uint64
}

// # Meter
//
// A Meter accounts wall-clock time to the call path of explicitly marked
// tasks. One Meter is one measurement scope: all tasks begun on it share a
// single active stack, so begin/stop pairs must nest in strict LIFO order
// across everything using that Meter.
//
// A Meter is safe for concurrent use. The lock only serializes access to the
// shared state; it does not make interleaved nesting from unrelated
// goroutines meaningful. Callers wanting isolation should scope one Meter
// per logical unit of work.
//
// Its zero value has no meaning and should not be used. A Meter should
// always be instantiated using [NewMeter].
type Meter struct {
	mu      sync.Mutex
	labels  *labelTable
	records map[string]*record
	stack   path
	last    time.Time
	gen     uint64

	now func() time.Time // swapped out by tests
}

// NewMeter returns an empty Meter whose accounting starts now.
func NewMeter() *Meter {
	return &Meter{
		labels:  newLabelTable(),
		records: make(map[string]*record),
		last:    time.Now(),
		now:     time.Now,
	}
}

// record returns the record for path p, creating it with zero duration and
// zero count if absent.
func (m *Meter) record(p path) *record {
	k := p.key()
	r, ok := m.records[k]
	if !ok {
		r = &record{path: slices.Clone(p)}
		m.records[k] = r
	}
	return r
}

// commit attributes the interval since the last commit to the currently
// active path, then advances the commit point. A non-positive interval is
// dropped rather than accumulated; the clock is not assumed monotonic.
// Must be called, with the lock held, before any mutation of the stack so
// that elapsed time lands on the configuration that was active while it
// passed.
func (m *Meter) commit(now time.Time) {
	if now.After(m.last) {
		m.record(m.stack).dur += now.Sub(m.last)
	}
	m.last = now
}

// Begin starts timing task, nested under whatever is currently active, and
// returns the Guard that ends it. Time elapsed since the previous mark is
// attributed to the previously active path.
func (m *Meter) Begin(task string) *Guard {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()

	m.commit(now)
	m.stack = append(m.stack, m.labels.intern(task))
	m.record(m.stack).count++

	return &Guard{meter: m, depth: len(m.stack), gen: m.gen}
}

func (m *Meter) transition(g *Guard, task string) {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()

	g.check(m, "Transition")
	m.commit(now)
	m.stack[len(m.stack)-1] = m.labels.intern(task)
	m.record(m.stack).count++
}

func (m *Meter) stop(g *Guard) {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()

	g.check(m, "Stop")
	m.commit(now)
	m.stack = m.stack[:len(m.stack)-1]
	g.done = true
}

// Reset discards all accumulated records and the active stack and rebases
// the commit point to now, leaving the Meter observably identical to a
// fresh one. Guards outstanding at reset time are invalidated; using one
// afterwards panics.
func (m *Meter) Reset() {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.stack) > 0 {
		logger.Warn("reset with tasks still active, outstanding guards are invalidated",
			slog.Int("active", len(m.stack)))
	}
	m.labels = newLabelTable()
	m.records = make(map[string]*record)
	m.stack = nil
	m.last = now
	m.gen++
}

// snapshot commits any pending interval up to now and returns a copy of the
// records together with the name table, for aggregation outside the lock.
func (m *Meter) snapshot() ([]*record, []string) {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()

	m.commit(now)
	recs := make([]*record, 0, len(m.records))
	for _, r := range m.records {
		recs = append(recs, &record{path: r.path, dur: r.dur, count: r.count})
	}
	return recs, slices.Clone(m.labels.names)
}
