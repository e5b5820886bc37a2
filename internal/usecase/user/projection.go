package user

import (
	"sync"

	domain "realtime-users/internal/domain/user"
)

// Projection holds the last snapshot received from the remote collection.
// Apply replaces it as a whole; readers never observe a partial update.
type Projection struct {
	mu      sync.RWMutex
	current domain.Snapshot
	render  func(domain.Snapshot)
}

// NewProjection creates an empty projection. render, if not nil, is called
// with every applied snapshot.
func NewProjection(render func(domain.Snapshot)) *Projection {
	return &Projection{
		current: domain.Snapshot{},
		render:  render,
	}
}

// Apply replaces the held snapshot and triggers a re-render.
func (p *Projection) Apply(snapshot domain.Snapshot) {
	next := snapshot.Clone()

	p.mu.Lock()
	p.current = next
	p.mu.Unlock()

	if p.render != nil {
		p.render(next.Clone())
	}
}

// Current returns a copy of the latest applied snapshot.
func (p *Projection) Current() domain.Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current.Clone()
}
