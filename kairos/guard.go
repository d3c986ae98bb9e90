package kairos

import "golang.org/x/exp/slog"

// # Guard
//
// Represents ownership of the innermost active task of a [Meter], from
// [Meter.Begin] until [Guard.Stop]. Exactly one Guard owns each nesting
// level; a Guard must not be copied or shared.
//
// A Guard remembers the depth it was created at. Stop and Transition panic
// when the Guard no longer owns the innermost task — a Stop out of LIFO
// order, a second Stop, or any use after [Meter.Reset]. Faulting here is
// deliberate: silently popping whatever happens to be on top would corrupt
// attribution without a trace.
//
// Its zero value has no meaning. A Guard should always be obtained from
// [Meter.Begin].
type Guard struct {
	meter *Meter
	depth int
	gen   uint64
	done  bool
}

// Stop ends the task, attributing the time elapsed since the previous mark
// to the path that included it, and pops one nesting level.
//
// Typically deferred:
//
//	g := m.Begin("encode")
//	defer g.Stop()
func (g *Guard) Stop() {
	g.meter.stop(g)
}

// Transition ends the Guard's current task and immediately begins task at
// the same nesting depth. Time elapsed since the previous mark is attributed
// to the path before the change. The Guard remains valid and now owns the
// new task.
func (g *Guard) Transition(task string) {
	g.meter.transition(g, task)
}

// check validates, with the meter lock held, that g still owns the innermost
// task.
func (g *Guard) check(m *Meter, op string) {
	if g.done {
		logger.Error("guard already stopped",
			slog.String("op", op))
		panic("kairos: " + op + " on a stopped guard")
	}
	if g.gen != m.gen || g.depth != len(m.stack) {
		logger.Error("guard does not own the innermost task",
			slog.String("op", op),
			slog.Int("guard_depth", g.depth),
			slog.Int("active", len(m.stack)))
		panic("kairos: " + op + " out of order: guard does not own the innermost task")
	}
}
