package preview

import "sync"

// Gate decides whether a render may still write to the terminal. It starts
// open; once closed it stays closed.
//
// The final check and the write happen together inside Do, under the same
// lock SetAllowed takes, so a caller that closes the gate is guaranteed no
// protocol bytes follow.
type Gate struct {
	mu      sync.Mutex
	allowed bool
	closed  bool
}

func NewGate() *Gate {
	return &Gate{allowed: true}
}

// SetAllowed opens or closes the gate. Opening a closed gate has no effect.
func (g *Gate) SetAllowed(allowed bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !allowed {
		g.closed = true
	}
	g.allowed = allowed && !g.closed
}

func (g *Gate) Allowed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.allowed
}

// Do runs write while holding the lock, only if the gate is open.
// It reports whether write ran.
func (g *Gate) Do(write func() error) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.allowed {
		return false, nil
	}
	return true, write()
}
