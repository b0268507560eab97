package runtime

import (
	"sync"

	"diskuss/contract"
)

type Set map[string]struct{}

// Registry tracks which live connections belong to which authenticated user.
// It is the in-memory presence state consulted on every send; nothing here
// is persisted, a process restart drops all of it and connections
// re-authenticate.
type Registry struct {
	mu    sync.RWMutex
	users map[string]Set                // user id -> connection ids
	conns map[string]string             // connection id -> user id
	sinks map[string]contract.EventSink // connection id -> delivery sink
}

func NewRegistry() *Registry {
	return &Registry{
		users: make(map[string]Set),
		conns: make(map[string]string),
		sinks: make(map[string]contract.EventSink),
	}
}

// Register idempotently adds a connection to the user's set, creating the
// entry on first connection.
func (r *Registry) Register(userID, connID string, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[userID]; !ok {
		r.users[userID] = make(Set)
	}
	r.users[userID][connID] = struct{}{}
	r.conns[connID] = userID
	r.sinks[connID] = sink
}

// Deregister removes a connection from whichever user owns it. The reverse
// index makes this O(1) instead of a scan over all users. Unknown
// connection ids are a benign no-op: duplicate or late disconnect events
// are expected.
func (r *Registry) Deregister(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok := r.conns[connID]
	if !ok {
		return
	}
	delete(r.conns, connID)
	delete(r.sinks, connID)

	if members, ok := r.users[userID]; ok {
		delete(members, connID)

		// No empty entries left behind, so presence checks stay honest
		if len(members) == 0 {
			delete(r.users, userID)
		}
	}
}

// ConnectionsOf returns a fresh snapshot of the user's live connections.
// Possibly empty, never an error.
func (r *Registry) ConnectionsOf(userID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.users[userID]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(members))
	for connID := range members {
		out = append(out, connID)
	}
	return out
}

// SinksFor resolves dispatch-target connection ids to their delivery sinks.
// Connections that closed between snapshot and push are skipped.
func (r *Registry) SinksFor(connIDs []string) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []contract.EventSink
	for _, connID := range connIDs {
		if sink, ok := r.sinks[connID]; ok {
			out = append(out, sink)
		}
	}
	return out
}

// Size reports current users and connections, for the stats endpoint.
func (r *Registry) Size() (users, connections int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users), len(r.conns)
}
