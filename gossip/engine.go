package gossip

import (
	"log/slog"

	"github.com/mrtj/pyncoin/core"
)

// Chain is the subset of *core.Blockchain the engine needs: enough to
// answer queries and attempt to absorb what peers send back, without
// gossip importing core's full surface.
type Chain interface {
	Blocks() []*core.Block
	Tip() *core.Block
	AddBlock(*core.Block) error
	Replace([]*core.Block) error
	Pool() *core.TxPool
	AddToPool(*core.Transaction) bool
	UTXOSnapshot() core.UTXOSet
}

// Engine runs the per-peer gossip protocol described in spec.md §4.H: on
// connect it queries the peer's latest block, and it answers/consumes
// the four remaining message types. It holds no reference to any
// specific transport — Handle is driven by whatever delivers frames
// (wstransport's read loop, or a test harness).
type Engine struct {
	chain Chain
	log   *slog.Logger
	reg   *Registry
}

// NewEngine builds an Engine bound to chain, broadcasting through reg.
func NewEngine(chain Chain, reg *Registry, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{chain: chain, reg: reg, log: log}
}

// OnConnect sends the handshake query every freshly connected peer
// receives (spec.md §4.H: "On connect: send QueryLatest").
func (e *Engine) OnConnect(conn Conn) error {
	msg := NewQueryLatest()
	frame, err := msg.Encode()
	if err != nil {
		return err
	}
	return conn.Send(frame)
}

// Handle processes one inbound frame from conn, replying or broadcasting
// as the message type requires. A malformed frame or unrecognized type
// is logged and dropped, never causing the connection to be torn down.
func (e *Engine) Handle(conn Conn, frame []byte) {
	msg, err := DecodeMessage(frame)
	if err != nil {
		e.log.Warn("gossip: dropping malformed frame", "peer", conn.Addr(), "error", err)
		return
	}

	switch msg.Type {
	case QueryLatest:
		e.handleQueryLatest(conn)
	case QueryAll:
		e.handleQueryAll(conn)
	case ResponseBlockchain:
		e.handleResponseBlockchain(conn, msg)
	case QueryTransactionPool:
		e.handleQueryTransactionPool(conn)
	case ResponseTransactionPool:
		e.handleResponseTransactionPool(conn, msg)
	default:
		e.log.Warn("gossip: dropping unrecognized message type", "peer", conn.Addr(), "type", int(msg.Type))
	}
}

func (e *Engine) handleQueryLatest(conn Conn) {
	resp, err := NewResponseBlockchain([]*core.Block{e.chain.Tip()})
	if err != nil {
		e.log.Error("gossip: encode response to QueryLatest", "error", err)
		return
	}
	e.reply(conn, resp)
}

func (e *Engine) handleQueryAll(conn Conn) {
	resp, err := NewResponseBlockchain(e.chain.Blocks())
	if err != nil {
		e.log.Error("gossip: encode response to QueryAll", "error", err)
		return
	}
	e.reply(conn, resp)
}

// handleResponseBlockchain implements spec.md §4.H's reconciliation
// rule: a single returned block that extends the local tip is appended
// directly and broadcast; a single block that does not extend the tip
// triggers a QueryAll broadcast to fetch the full candidate; multiple returned
// blocks are treated as a full chain and run through Replace, which
// only commits if strictly longer and fully valid.
func (e *Engine) handleResponseBlockchain(conn Conn, msg Message) {
	blocks, err := msg.DecodeBlocks()
	if err != nil {
		e.log.Warn("gossip: dropping malformed ResponseBlockchain", "peer", conn.Addr(), "error", err)
		return
	}
	if len(blocks) == 0 {
		return
	}

	if len(blocks) == 1 {
		received := blocks[0]
		if err := received.ValidateStructure(); err != nil {
			e.log.Warn("gossip: ignoring structurally invalid block", "peer", conn.Addr(), "error", err)
			return
		}
		tip := e.chain.Tip()
		switch {
		case received.Index <= tip.Index:
			return
		case received.PreviousHash != nil && *received.PreviousHash == tip.Hash:
			if err := e.chain.AddBlock(received); err != nil {
				e.log.Warn("gossip: rejected candidate block", "peer", conn.Addr(), "error", err)
				return
			}
			e.broadcastLatest()
		default:
			frame, err := NewQueryAll().Encode()
			if err != nil {
				e.log.Error("gossip: encode QueryAll broadcast", "error", err)
				return
			}
			e.reg.Broadcast(frame, func(addr string, err error) {
				e.log.Warn("gossip: QueryAll broadcast send failed", "peer", addr, "error", err)
			})
		}
		return
	}

	if err := e.chain.Replace(blocks); err != nil {
		e.log.Info("gossip: candidate chain not adopted", "peer", conn.Addr(), "error", err)
		return
	}
	e.broadcastLatest()
}

func (e *Engine) handleQueryTransactionPool(conn Conn) {
	resp, err := NewResponseTransactionPool(e.chain.Pool().Transactions())
	if err != nil {
		e.log.Error("gossip: encode response to QueryTransactionPool", "error", err)
		return
	}
	e.reply(conn, resp)
}

func (e *Engine) handleResponseTransactionPool(conn Conn, msg Message) {
	txs, err := msg.DecodeTransactions()
	if err != nil {
		e.log.Warn("gossip: dropping malformed ResponseTransactionPool", "peer", conn.Addr(), "error", err)
		return
	}
	added := false
	for _, tx := range txs {
		if e.chain.AddToPool(tx) {
			added = true
		}
	}
	if added {
		e.broadcastPool()
	}
}

func (e *Engine) reply(conn Conn, msg Message) {
	frame, err := msg.Encode()
	if err != nil {
		e.log.Error("gossip: encode reply", "error", err)
		return
	}
	if err := conn.Send(frame); err != nil {
		e.log.Warn("gossip: send reply failed", "peer", conn.Addr(), "error", err)
	}
}

// broadcastLatest announces the new tip to every registered peer.
func (e *Engine) broadcastLatest() {
	msg, err := NewResponseBlockchain([]*core.Block{e.chain.Tip()})
	if err != nil {
		e.log.Error("gossip: encode broadcast", "error", err)
		return
	}
	frame, err := msg.Encode()
	if err != nil {
		e.log.Error("gossip: encode broadcast", "error", err)
		return
	}
	e.reg.Broadcast(frame, func(addr string, err error) {
		e.log.Warn("gossip: broadcast send failed", "peer", addr, "error", err)
	})
}

// broadcastPool announces the full pool to every registered peer
// (spec.md §4.H: broadcast on successful pool addition).
func (e *Engine) broadcastPool() {
	msg, err := NewResponseTransactionPool(e.chain.Pool().Transactions())
	if err != nil {
		e.log.Error("gossip: encode pool broadcast", "error", err)
		return
	}
	frame, err := msg.Encode()
	if err != nil {
		e.log.Error("gossip: encode pool broadcast", "error", err)
		return
	}
	e.reg.Broadcast(frame, func(addr string, err error) {
		e.log.Warn("gossip: pool broadcast send failed", "peer", addr, "error", err)
	})
}

// BroadcastNewBlock announces block to every peer; wired as
// Blockchain.OnNewBlock's callback by the node package so locally mined
// or accepted blocks propagate the same way peer-sourced ones do.
func (e *Engine) BroadcastNewBlock(block *core.Block) {
	msg, err := NewResponseBlockchain([]*core.Block{block})
	if err != nil {
		e.log.Error("gossip: encode new-block broadcast", "error", err)
		return
	}
	frame, err := msg.Encode()
	if err != nil {
		e.log.Error("gossip: encode new-block broadcast", "error", err)
		return
	}
	e.reg.Broadcast(frame, func(addr string, err error) {
		e.log.Warn("gossip: new-block broadcast send failed", "peer", addr, "error", err)
	})
}

// BroadcastPool announces the current pool to every peer; wired as
// Blockchain.OnPoolChange's callback.
func (e *Engine) BroadcastPool() {
	e.broadcastPool()
}
