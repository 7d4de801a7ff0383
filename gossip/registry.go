package gossip

import (
	"sync"

	"github.com/google/uuid"
)

// Peer is one registered connection, tagged with a random session id.
// The registry itself identifies and de-duplicates peers by transport
// address (Conn.Addr) only (spec.md §9 notes the teacher's package-level KnownNodes
// slice as the coupling to invert; Registry replaces it with an
// instance-owned, mutex-guarded map).
type Peer struct {
	ID   uuid.UUID
	Conn Conn
}

// Registry tracks every currently connected peer, keyed by transport
// address. It has no package-level state: each Node owns its own
// Registry instance.
type Registry struct {
	mu    sync.RWMutex
	peers map[string]*Peer
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{peers: make(map[string]*Peer)}
}

// Register adds conn under its Addr, assigning it a fresh session id.
// Registering an address that is already present is a no-op (spec.md
// §4.I): the existing peer is returned unchanged, and ok is false so the
// caller knows conn is a duplicate it must close itself rather than
// treat as the live connection.
func (r *Registry) Register(conn Conn) (peer *Peer, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, present := r.peers[conn.Addr()]; present {
		return existing, false
	}
	p := &Peer{ID: uuid.New(), Conn: conn}
	r.peers[conn.Addr()] = p
	return p, true
}

// Unregister removes the peer at addr, if present.
func (r *Registry) Unregister(addr string) {
	r.mu.Lock()
	delete(r.peers, addr)
	r.mu.Unlock()
}

// Peers returns a snapshot of every registered peer.
func (r *Registry) Peers() []*Peer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Peer, 0, len(r.peers))
	for _, p := range r.peers {
		out = append(out, p)
	}
	return out
}

// Has reports whether addr is already registered.
func (r *Registry) Has(addr string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.peers[addr]
	return ok
}

// Broadcast sends frame to every registered peer, logging but not
// failing on individual send errors — one unreachable peer must not
// block propagation to the rest (spec.md §4.H).
func (r *Registry) Broadcast(frame []byte, onErr func(addr string, err error)) {
	for _, p := range r.Peers() {
		if err := p.Conn.Send(frame); err != nil && onErr != nil {
			onErr(p.Conn.Addr(), err)
		}
	}
}
