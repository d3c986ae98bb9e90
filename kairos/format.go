package kairos

import (
	"fmt"
	"strings"
	"time"
)

// prettyPath renders a path as its task names each followed by the
// separator, e.g. "outer:inner:".
func prettyPath(p path, names []string) string {
	var b strings.Builder
	for _, l := range p {
		b.WriteString(names[l])
		b.WriteByte(':')
	}
	return b.String()
}

// prettyTime renders d with unit scaling to two decimal places:
// nanoseconds below 100ns, microseconds below 100µs, milliseconds below
// 10ms, scientific-notation seconds from 100s, plain seconds in between.
func prettyTime(d time.Duration) string {
	s := d.Seconds()
	switch {
	case s < 1e-7:
		return fmt.Sprintf("%.2f ns", s*1e9)
	case s < 1e-4:
		return fmt.Sprintf("%.2f µs", s*1e6)
	case s < 1e-2:
		return fmt.Sprintf("%.2f ms", s*1e3)
	case s >= 1e2:
		return fmt.Sprintf("%.2e s", s)
	default:
		return fmt.Sprintf("%.2f s", s)
	}
}
