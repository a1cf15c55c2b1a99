// Package budget enforces process-lifetime caps on expensive operations.
// Counters reset at process start, only ever increment, and fail closed once
// a configured ceiling is reached.
package budget

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// ErrExceeded is returned once an operation class has hit its ceiling.
var ErrExceeded = errors.New("budget exceeded")

// Operation classes guarded by the process budget.
const (
	OpQuery           = "queries"
	OpGuidanceRebuild = "guidance_rebuilds"
)

type counter struct {
	used    atomic.Int64
	ceiling int64
}

// Guard holds one counter per guarded operation class.
type Guard struct {
	counters map[string]*counter
}

// NewGuard creates a Guard. A ceiling of zero (or an unlisted class) means
// unlimited.
func NewGuard(ceilings map[string]int) *Guard {
	g := &Guard{counters: make(map[string]*counter, len(ceilings))}
	for op, max := range ceilings {
		g.counters[op] = &counter{ceiling: int64(max)}
	}
	return g
}

// Take consumes one unit of budget for the operation class. The N-th call
// under a ceiling of N succeeds; the N+1-th returns ErrExceeded. The check
// and increment are a single atomic step, so concurrent callers can never
// both squeeze through the last slot.
func (g *Guard) Take(op string) error {
	c, ok := g.counters[op]
	if !ok || c.ceiling <= 0 {
		return nil
	}
	if c.used.Add(1) > c.ceiling {
		return fmt.Errorf("%w: %s cap of %d reached for this process", ErrExceeded, op, c.ceiling)
	}
	return nil
}

// Used reports how many units have been consumed for an operation class.
func (g *Guard) Used(op string) int64 {
	c, ok := g.counters[op]
	if !ok {
		return 0
	}
	used := c.used.Load()
	if c.ceiling > 0 && used > c.ceiling {
		return c.ceiling
	}
	return used
}
