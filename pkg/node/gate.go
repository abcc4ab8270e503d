package node

import (
	"context"
	"sync"
)

// gate guards the transmit buffer between a send and its completion.
type gate struct {
	lock sync.Mutex
	busy bool
	idle chan struct{}
}

func (g *gate) acquire() bool {
	g.lock.Lock()
	defer g.lock.Unlock()
	if g.busy {
		return false
	}
	g.busy, g.idle = true, make(chan struct{})
	return true
}

// release returns false if the gate was not held.
func (g *gate) release() bool {
	g.lock.Lock()
	defer g.lock.Unlock()
	if !g.busy {
		return false
	}
	g.busy = false
	close(g.idle)
	return true
}

func (g *gate) isBusy() bool {
	g.lock.Lock()
	defer g.lock.Unlock()
	return g.busy
}

func (g *gate) wait(ctx context.Context) error {
	g.lock.Lock()
	if !g.busy {
		g.lock.Unlock()
		return nil
	}
	ch := g.idle
	g.lock.Unlock()
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
