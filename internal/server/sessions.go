package server

import (
	"sync"

	"github.com/codessa-project/inkwell/internal/services"
)

// sessionRegistry holds one browsing state per tenant. State is in-memory
// only; a restart puts every tenant back on the first page.
type sessionRegistry struct {
	mu     sync.Mutex
	states map[string]*services.BrowsingState
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{states: make(map[string]*services.BrowsingState)}
}

// state returns the browsing state for a tenant, creating it on first use.
func (r *sessionRegistry) state(tenant string) *services.BrowsingState {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.states[tenant]
	if !ok {
		s = services.NewBrowsingState()
		r.states[tenant] = s
	}
	return s
}

// drop discards a tenant's browsing state so the next request starts from
// the first page with fresh cursors.
func (r *sessionRegistry) drop(tenant string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.states, tenant)
}
