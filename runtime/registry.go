package runtime

import (
	"sync"

	"github.com/henriquezago/poker-planning-be/contract"
)

type set map[string]struct{}

// Registry tracks which connected listeners are interested in which session.
// This is the directed-multicast replacement for the original global
// broadcast: a publish reaches only the subscribers of that session key.
type Registry struct {
	mu          sync.RWMutex
	sinks       map[string]contract.EventSink // subscriber id -> sink
	sessionSubs map[string]set                // session id -> subscriber ids
}

func NewRegistry() *Registry {
	return &Registry{
		sinks:       make(map[string]contract.EventSink),
		sessionSubs: make(map[string]set),
	}
}

// Subscribe registers the subscriber's sink and marks its interest in the
// session. A subscriber that watches several sessions keeps a single sink.
func (r *Registry) Subscribe(subscriberID, sessionID string, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sinks[subscriberID] = sink
	if _, ok := r.sessionSubs[sessionID]; !ok {
		r.sessionSubs[sessionID] = make(set)
	}
	r.sessionSubs[sessionID][subscriberID] = struct{}{}
}

// Unsubscribe drops the subscriber's interest in the session and removes its
// sink once no interest remains. Empty session sets are deleted so the
// registry does not grow with dead session keys.
func (r *Registry) Unsubscribe(subscriberID, sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if members, ok := r.sessionSubs[sessionID]; ok {
		delete(members, subscriberID)
		if len(members) == 0 {
			delete(r.sessionSubs, sessionID)
		}
	}

	for _, members := range r.sessionSubs {
		if _, ok := members[subscriberID]; ok {
			return
		}
	}
	delete(r.sinks, subscriberID)
}

// SinksFor resolves the active sinks subscribed to a session.
// Returns nil when nobody listens.
func (r *Registry) SinksFor(sessionID string) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.sessionSubs[sessionID]
	if !ok {
		return nil
	}
	var sinks []contract.EventSink
	for subscriberID := range members {
		if sink, exists := r.sinks[subscriberID]; exists {
			sinks = append(sinks, sink)
		}
	}
	return sinks
}
