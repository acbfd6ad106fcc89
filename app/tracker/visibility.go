package tracker

import "sync"

// Gate is a visibility switch pausing the polling loop while hidden. Thread safe, visible by default
type Gate struct {
	mu      sync.Mutex
	visible bool
	changed chan struct{}
}

// NewGate makes visible Gate
func NewGate() *Gate {
	return &Gate{visible: true, changed: make(chan struct{})}
}

// Visible reports current visibility
func (g *Gate) Visible() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.visible
}

// Changed returns a channel closed on the next visibility change
func (g *Gate) Changed() <-chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.changed
}

// Set changes visibility, no-op if it is the same
func (g *Gate) Set(visible bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.visible == visible {
		return
	}
	g.visible = visible
	close(g.changed)
	g.changed = make(chan struct{})
}

// Hide pauses polling
func (g *Gate) Hide() { g.Set(false) }

// Show resumes polling
func (g *Gate) Show() { g.Set(true) }
