// Package wstransport implements gossip.Conn over gorilla/websocket, plus a
// Dialer for outbound (Dial) and inbound (Upgrade) connections; its Dial
// returns *Conn, so Dialer does not satisfy the gossip.Dialer interface.
// Each gossip.Message is framed as a single text frame
// (spec.md §6: peers communicate over WebSocket).
package wstransport

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// Conn wraps a *websocket.Conn, serializing concurrent writes since
// gorilla/websocket connections are not safe for concurrent writers.
type Conn struct {
	ws   *websocket.Conn
	addr string

	mu sync.Mutex
}

// New wraps an already-established websocket connection, identifying it
// by addr for logging and registry lookups.
func New(ws *websocket.Conn, addr string) *Conn {
	return &Conn{ws: ws, addr: addr}
}

// Send writes frame as a single text message.
func (c *Conn) Send(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteMessage(websocket.TextMessage, frame)
}

// Addr returns the peer's identifying address.
func (c *Conn) Addr() string { return c.addr }

// Close closes the underlying websocket connection.
func (c *Conn) Close() error { return c.ws.Close() }

// ReadLoop blocks reading frames from the connection, invoking onFrame
// for each, until the connection closes or onFrame returns false. It is
// meant to run in its own goroutine, one per accepted or dialed peer.
func (c *Conn) ReadLoop(onFrame func(frame []byte) bool) error {
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return fmt.Errorf("wstransport: read from %s: %w", c.addr, err)
		}
		if !onFrame(data) {
			return nil
		}
	}
}

// Dialer opens outbound websocket connections to peer addresses of the
// form "host:port" (spec.md §6: peers are configured by host:port).
type Dialer struct {
	upgrader websocket.Upgrader
}

// NewDialer returns a Dialer with permissive origin checking, matching
// the teacher's pseudo-p2p layer's lack of CORS restriction on an
// operator-trusted peer set.
func NewDialer() *Dialer {
	return &Dialer{upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}}
}

// Dial opens a websocket connection to addr's /p2p endpoint.
func (d *Dialer) Dial(addr string) (*Conn, error) {
	url := fmt.Sprintf("ws://%s/p2p", addr)
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("wstransport: dial %s: %w", addr, err)
	}
	return New(ws, addr), nil
}

// Upgrade promotes an inbound HTTP request to a websocket connection,
// identifying the peer by its remote address.
func (d *Dialer) Upgrade(w http.ResponseWriter, r *http.Request) (*Conn, error) {
	ws, err := d.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("wstransport: upgrade from %s: %w", r.RemoteAddr, err)
	}
	return New(ws, r.RemoteAddr), nil
}
