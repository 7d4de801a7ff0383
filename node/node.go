// Package node wires the chain, wallet, gossip engine, and peer registry
// into the single facade the CLI bootstrap and the HTTP layer both
// depend on (spec.md §4.J).
package node

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mrtj/pyncoin/core"
	"github.com/mrtj/pyncoin/gossip"
	"github.com/mrtj/pyncoin/gossip/wstransport"
)

// Node owns every subsystem a running instance needs and exposes the
// operations httpapi.Backend and the gossip read loop call into. It
// holds no reference to the HTTP router — that dependency runs the
// other way, per spec.md §9.
type Node struct {
	chain   *core.Blockchain
	wallet  *core.Wallet
	engine  *gossip.Engine
	reg     *gossip.Registry
	dialer  *wstransport.Dialer
	log     *slog.Logger

	mu    sync.Mutex
	peers map[string]struct{}
}

// New builds a Node around an already loaded wallet, wiring the chain's
// change callbacks to the gossip engine's broadcast methods.
func New(wallet *core.Wallet, log *slog.Logger) *Node {
	if log == nil {
		log = slog.Default()
	}
	chain := core.NewBlockchain()
	reg := gossip.NewRegistry()
	engine := gossip.NewEngine(chain, reg, log)

	chain.OnNewBlock(engine.BroadcastNewBlock)
	chain.OnPoolChange(engine.BroadcastPool)

	return &Node{
		chain:  chain,
		wallet: wallet,
		engine: engine,
		reg:    reg,
		dialer: wstransport.NewDialer(),
		log:    log,
		peers:  make(map[string]struct{}),
	}
}

// Chain exposes the underlying blockchain.
func (n *Node) Chain() *core.Blockchain { return n.chain }

// Engine exposes the gossip engine, for the bootstrap to drive frames
// from accepted/dialed connections into.
func (n *Node) Engine() *gossip.Engine { return n.engine }

// Registry exposes the peer registry, for the bootstrap to register
// accepted connections into.
func (n *Node) Registry() *gossip.Registry { return n.reg }

// Blocks, BlockByHash, TransactionByID, UnspentOutputsFor, UTXOSnapshot,
// Balance, and TransactionPool delegate straight to the chain; they
// exist on Node so httpapi.Backend is satisfied without httpapi
// importing core.Blockchain directly.

func (n *Node) Blocks() []*core.Block                     { return n.chain.Blocks() }
func (n *Node) BlockByHash(h core.Hash) (*core.Block, bool) { return n.chain.BlockByHash(h) }
func (n *Node) TransactionByID(id core.Hash) (*core.Transaction, bool) {
	return n.chain.TransactionByID(id)
}
func (n *Node) UnspentOutputsFor(addr core.Address) []core.UnspentTxOut {
	return n.chain.UnspentOutputsFor(addr)
}
func (n *Node) UTXOSnapshot() core.UTXOSet        { return n.chain.UTXOSnapshot() }
func (n *Node) Balance(addr core.Address) core.Amount { return n.chain.Balance(addr) }
func (n *Node) TransactionPool() []*core.Transaction  { return n.chain.Pool().Transactions() }

// MyAddress returns this node's wallet address.
func (n *Node) MyAddress() core.Address { return n.wallet.Address() }

// MyBalance returns this node's wallet balance against the committed
// chain state.
func (n *Node) MyBalance() core.Amount { return n.chain.Balance(n.wallet.Address()) }

// MyUnspentOutputs returns this node's unspent outputs, filtered to
// exclude any already consumed by a pooled transaction (spec.md §6:
// GET /myUnspentTransactionOutputs).
func (n *Node) MyUnspentOutputs() []core.UnspentTxOut {
	spendable := n.chain.Pool().FilteredUnspentTxOuts(n.chain.UTXOSnapshot())
	var out []core.UnspentTxOut
	for _, u := range spendable {
		if u.Address == n.wallet.Address() {
			out = append(out, u)
		}
	}
	return out
}

// Peers returns the transport addresses of every connected peer.
func (n *Node) Peers() []string {
	peers := n.reg.Peers()
	out := make([]string, 0, len(peers))
	for _, p := range peers {
		out = append(out, p.Conn.Addr())
	}
	return out
}

// AddPeer dials addr, registers the resulting connection, and starts its
// read loop, mirroring what the websocket accept path does for inbound
// connections (spec.md §6: POST /addPeer).
func (n *Node) AddPeer(ctx context.Context, addr string) error {
	n.mu.Lock()
	_, already := n.peers[addr]
	n.mu.Unlock()
	if already {
		return nil
	}

	conn, err := n.dialer.Dial(addr)
	if err != nil {
		return fmt.Errorf("add peer %s: %w", addr, err)
	}

	if _, registered := n.reg.Register(conn); !registered {
		return conn.Close()
	}

	n.mu.Lock()
	n.peers[addr] = struct{}{}
	n.mu.Unlock()

	if err := n.engine.OnConnect(conn); err != nil {
		n.log.Warn("node: handshake failed", "peer", addr, "error", err)
	}

	go n.readLoop(addr, conn)
	return nil
}

func (n *Node) readLoop(addr string, conn *wstransport.Conn) {
	err := conn.ReadLoop(func(frame []byte) bool {
		n.engine.Handle(conn, frame)
		return true
	})
	if err != nil {
		n.log.Info("node: peer disconnected", "peer", addr, "error", err)
	}
	n.reg.Unregister(addr)
	n.mu.Lock()
	delete(n.peers, addr)
	n.mu.Unlock()
}

// MineRawBlock mines a block whose body is exactly data prefixed with a
// coinbase (spec.md §6: POST /mineRawBlock).
func (n *Node) MineRawBlock(ctx context.Context, data []*core.Transaction) (*core.Block, error) {
	tip := n.chain.Tip()
	nextIndex := tip.Index + 1
	coinbase := core.NewCoinbaseTx(n.wallet.Address(), nextIndex)
	full := append([]*core.Transaction{coinbase}, data...)

	block, err := core.Find(ctx, nextIndex, &tip.Hash, time.Now().Unix(), full, n.chain.Difficulty())
	if err != nil {
		return nil, fmt.Errorf("mine raw block: %w", err)
	}
	if err := n.chain.AddBlock(block); err != nil {
		return nil, fmt.Errorf("mine raw block: %w", err)
	}
	return block, nil
}

// MineBlock mines a coinbase-only block (spec.md §6: POST /mineBlock).
func (n *Node) MineBlock(ctx context.Context) (*core.Block, error) {
	return n.chain.GenerateNextBlock(ctx, n.wallet)
}

// MineTransaction mines a block containing a coinbase plus a transaction
// paying to/amount (spec.md §6: POST /mineTransaction).
func (n *Node) MineTransaction(ctx context.Context, to core.Address, amount core.Amount) (*core.Block, error) {
	block, _, err := n.chain.GenerateNextBlockWithTransaction(ctx, n.wallet, to, amount)
	return block, err
}

// SendTransaction pools a spending transaction without mining it
// (spec.md §6: POST /sendTransaction).
func (n *Node) SendTransaction(to core.Address, amount core.Amount) (*core.Transaction, error) {
	return n.chain.SendTransaction(n.wallet, to, amount)
}
