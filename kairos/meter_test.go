package kairos

import (
	"sync"
	"testing"
	"time"
)

// fakeClock makes attribution deterministic: time moves only when a test
// says so.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time {
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func newTestMeter() (*Meter, *fakeClock) {
	clk := &fakeClock{t: time.Unix(1700000000, 0)}
	m := NewMeter()
	m.now = clk.now
	m.Reset() // rebase the commit point onto the fake clock
	return m, clk
}

// cumulativeByName aggregates m's records and keys the per-task figures by
// task name.
func cumulativeByName(m *Meter) (time.Duration, map[string]tally) {
	recs, names := m.snapshot()
	total, cum := summarize(recs)
	out := make(map[string]tally, len(cum))
	for l, c := range cum {
		out[names[l]] = *c
	}
	return total, out
}

func TestCumulativeAttribution(t *testing.T) {
	m, clk := newTestMeter()

	outer := m.Begin("first")
	clk.advance(2 * time.Second)
	inner := m.Begin("hello")
	clk.advance(3 * time.Second)
	inner.Transition("world")
	clk.advance(1 * time.Second)
	inner.Stop()
	outer.Stop()

	total, cum := cumulativeByName(m)
	if total != 6*time.Second {
		t.Errorf("total = %v, want 6s", total)
	}
	if got := cum["first"]; got.dur != 6*time.Second || got.count != 3 {
		t.Errorf(`cum["first"] = %+v, want {6s 3}`, got)
	}
	if got := cum["hello"]; got.dur != 3*time.Second || got.count != 1 {
		t.Errorf(`cum["hello"] = %+v, want {3s 1}`, got)
	}
	if got := cum["world"]; got.dur != 1*time.Second || got.count != 1 {
		t.Errorf(`cum["world"] = %+v, want {1s 1}`, got)
	}
}

func TestResetIdempotence(t *testing.T) {
	m, clk := newTestMeter()

	g := m.Begin("A")
	clk.advance(time.Second)
	g.Stop()

	m.Reset()
	clk.advance(time.Second)
	r1 := m.Report()
	m.Reset()
	r2 := m.Report()

	if r1 != "" {
		t.Errorf("report after reset = %q, want empty", r1)
	}
	if r1 != r2 {
		t.Errorf("reports after single and double reset differ: %q vs %q", r1, r2)
	}
}

func TestClockGoesBackward(t *testing.T) {
	m, clk := newTestMeter()

	g := m.Begin("A")
	clk.advance(-time.Second)
	g.Stop()

	total, cum := cumulativeByName(m)
	if total != 0 {
		t.Errorf("total after backward clock = %v, want 0", total)
	}
	if got := cum["A"]; got.dur != 0 || got.count != 1 {
		t.Errorf(`cum["A"] = %+v, want {0 1}`, got)
	}

	// The commit point was still rebased, so only time from the rewound
	// instant onward is accounted.
	clk.advance(2 * time.Second)
	total, cum = cumulativeByName(m)
	if total != 2*time.Second {
		t.Errorf("total after recovery = %v, want 2s", total)
	}
	if got := cum["A"]; got.dur != 0 {
		t.Errorf(`cum["A"].dur = %v, want 0`, got.dur)
	}
}

func TestConcurrentReport(t *testing.T) {
	m := NewMeter()

	var wg sync.WaitGroup
	done := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(done)
		for i := 0; i < 200; i++ {
			g := m.Begin("work")
			g.Transition("more")
			g.Stop()
		}
	}()

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
					m.Report()
				}
			}
		}()
	}

	wg.Wait()
}

func BenchmarkBeginStop(b *testing.B) {
	m := NewMeter()
	for i := 0; i < b.N; i++ {
		m.Begin("silly").Stop()
	}
}

func BenchmarkTransition(b *testing.B) {
	m := NewMeter()
	g := m.Begin("silly")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		g.Transition("whatever")
	}
}

func BenchmarkReport(b *testing.B) {
	m := NewMeter()
	g := m.Begin("silly")
	g.Transition("whatever")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.Report()
	}
}
