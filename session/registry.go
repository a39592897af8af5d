// api/session/registry.go
package session

import (
	"log"
	"sync"

	"github.com/google/uuid"

	"smartflow/api/store"
)

// Registry keys analysis sessions by an explicit session id so concurrent
// dashboard users each get their own controller instead of sharing one
// process-wide session. Controllers are created on first use and live until
// process end.
type Registry struct {
	mu          sync.Mutex
	events      store.EventSource
	defaultFlow string
	sessions    map[string]*Controller
}

func NewRegistry(events store.EventSource, defaultFlow string) *Registry {
	return &Registry{
		events:      events,
		defaultFlow: defaultFlow,
		sessions:    make(map[string]*Controller),
	}
}

// NewSessionID mints an id for a fresh analysis session.
func (r *Registry) NewSessionID() string {
	return uuid.New().String()
}

// Get returns the controller for a session id, creating one when the id is
// unknown.
func (r *Registry) Get(sessionID string) *Controller {
	r.mu.Lock()
	defer r.mu.Unlock()

	ctrl, ok := r.sessions[sessionID]
	if !ok {
		ctrl = NewController(r.events, r.defaultFlow)
		r.sessions[sessionID] = ctrl
		log.Printf("Analysis session created: %s", sessionID)
	}
	return ctrl
}
