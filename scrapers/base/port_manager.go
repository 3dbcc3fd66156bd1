package base

import (
	"context"
	"fmt"
)

// PortManager leases chromedriver ports from a fixed range. A lease blocks
// until a port is free or the context ends.
type PortManager struct {
	first, last int
	free        chan int
}

func NewPortManager(basePort, size int) *PortManager {
	pm := &PortManager{first: basePort, last: basePort + size - 1, free: make(chan int, size)}
	for port := basePort; port <= pm.last; port++ {
		pm.free <- port
	}
	return pm
}

// Acquire leases a port. The returned release func must be called exactly once.
func (pm *PortManager) Acquire(ctx context.Context) (int, func(), error) {
	select {
	case port := <-pm.free:
		return port, func() { pm.free <- port }, nil
	case <-ctx.Done():
		return 0, nil, fmt.Errorf("no chromedriver port free in %d-%d: %w", pm.first, pm.last, ctx.Err())
	}
}

// Leased reports how many ports are currently out.
func (pm *PortManager) Leased() int {
	return cap(pm.free) - len(pm.free)
}
