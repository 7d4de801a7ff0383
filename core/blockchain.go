package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Difficulty retargeting constants (spec.md §4.F).
const (
	BlockGenerationIntervalSeconds   = 10
	DifficultyAdjustmentIntervalSize = 10
)

// ErrChainNotLonger is returned by Replace when the candidate chain is not
// strictly longer than the local chain.
var ErrChainNotLonger = errors.New("candidate chain is not longer than local chain")

// ErrInvalidChain is returned by Replace when the candidate chain fails
// structural or consensus validation.
var ErrInvalidChain = errors.New("candidate chain is invalid")

// Blockchain is the chain's full in-memory state: the ordered block
// sequence, the current UTXO set, and the transaction pool. Persistence is
// an explicit Non-goal — state lives only for the process lifetime.
// Every mutating method takes the same mutex, realizing spec.md §5's
// "single logical task" as a serialized facade rather than an actor.
type Blockchain struct {
	mu     sync.Mutex
	blocks []*Block
	utxo   UTXOSet
	pool   *TxPool

	onNewBlock   func(*Block)
	onPoolChange func()
}

// NewBlockchain returns a fresh chain containing only the genesis block.
func NewBlockchain() *Blockchain {
	return &Blockchain{
		blocks: []*Block{NewGenesisBlock()},
		utxo:   NewUTXOSet(),
		pool:   NewTxPool(),
	}
}

// OnNewBlock registers a callback invoked after a block is appended to the
// chain, whether by mining, direct acceptance, or chain replacement
// (§9's inversion of the Blockchain↔PeerRegistry coupling: the gossip
// engine subscribes here instead of the chain holding a peer reference).
func (bc *Blockchain) OnNewBlock(f func(*Block)) { bc.onNewBlock = f }

// OnPoolChange registers a callback invoked after the pool gains or loses
// a transaction.
func (bc *Blockchain) OnPoolChange(f func()) { bc.onPoolChange = f }

// Tip returns the current latest block.
func (bc *Blockchain) Tip() *Block {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	return bc.tipLocked()
}

func (bc *Blockchain) tipLocked() *Block {
	return bc.blocks[len(bc.blocks)-1]
}

// Blocks returns a snapshot of the full chain, tip last.
func (bc *Blockchain) Blocks() []*Block {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	out := make([]*Block, len(bc.blocks))
	copy(out, bc.blocks)
	return out
}

// BlockByHash finds a block by hash.
func (bc *Blockchain) BlockByHash(h Hash) (*Block, bool) {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	for _, b := range bc.blocks {
		if b.Hash == h {
			return b, true
		}
	}
	return nil, false
}

// TransactionByID finds a transaction by id across the whole chain.
func (bc *Blockchain) TransactionByID(id Hash) (*Transaction, bool) {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	for _, b := range bc.blocks {
		for _, tx := range b.Data {
			if tx.ID == id {
				return tx, true
			}
		}
	}
	return nil, false
}

// UTXOSnapshot returns a copy of the current UTXO set.
func (bc *Blockchain) UTXOSnapshot() UTXOSet {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	return bc.utxo.Clone()
}

// Pool returns the transaction pool.
func (bc *Blockchain) Pool() *TxPool { return bc.pool }

// UnspentOutputsFor returns every unspent output owned by addr.
func (bc *Blockchain) UnspentOutputsFor(addr Address) []UnspentTxOut {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	var out []UnspentTxOut
	for _, u := range bc.utxo {
		if u.Address == addr {
			out = append(out, u)
		}
	}
	return out
}

// Balance sums every unspent output owned by addr (spec.md §4.G).
func (bc *Blockchain) Balance(addr Address) Amount {
	total := ZeroAmount
	for _, u := range bc.UnspentOutputsFor(addr) {
		total = total.Add(u.Amount)
	}
	return total
}

// Difficulty returns the mining difficulty for the next block to be built
// on the current tip (spec.md §4.F).
func (bc *Blockchain) Difficulty() uint32 {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	return bc.difficultyLocked()
}

func (bc *Blockchain) difficultyLocked() uint32 {
	tip := bc.tipLocked()
	if tip.Index%DifficultyAdjustmentIntervalSize == 0 && tip.Index != 0 {
		return bc.adjustedDifficultyLocked()
	}
	return tip.Difficulty
}

func (bc *Blockchain) adjustedDifficultyLocked() uint32 {
	tip := bc.tipLocked()
	prevIdx := len(bc.blocks) - DifficultyAdjustmentIntervalSize
	if prevIdx < 0 {
		prevIdx = 0
	}
	prev := bc.blocks[prevIdx]
	expected := int64(BlockGenerationIntervalSeconds * DifficultyAdjustmentIntervalSize)
	taken := tip.Timestamp - prev.Timestamp

	switch {
	case taken < expected/2:
		return prev.Difficulty + 1
	case taken > expected*2:
		if prev.Difficulty == 0 {
			return 0
		}
		return prev.Difficulty - 1
	default:
		return prev.Difficulty
	}
}

// AddBlock validates block against the current tip and, on success,
// appends it, commits the derived UTXO set, and updates the pool
// (spec.md §4.F).
func (bc *Blockchain) AddBlock(block *Block) error {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	return bc.addBlockLocked(block)
}

func (bc *Blockchain) addBlockLocked(block *Block) error {
	tip := bc.tipLocked()
	if err := tip.IsValidNext(block); err != nil {
		return fmt.Errorf("add block: %w", err)
	}
	if err := ValidateBlockTransactions(block.Data, bc.utxo, block.Index); err != nil {
		return fmt.Errorf("add block: %w", err)
	}
	next := ProcessTransactions(block.Data, bc.utxo)

	bc.blocks = append(bc.blocks, block)
	bc.utxo = next
	bc.pool.Update(bc.utxo)

	if bc.onNewBlock != nil {
		bc.onNewBlock(block)
	}
	if bc.onPoolChange != nil {
		bc.onPoolChange()
	}
	return nil
}

// GenerateNextBlock mines and appends a block containing a coinbase
// transaction paying wallet.Address() plus every pooled transaction
// (spec.md §4.F).
func (bc *Blockchain) GenerateNextBlock(ctx context.Context, w *Wallet) (*Block, error) {
	return bc.generateNextBlock(ctx, w, nil)
}

// GenerateNextBlockWithTransaction is GenerateNextBlock but first prepends
// a single spending transaction built by the wallet.
func (bc *Blockchain) GenerateNextBlockWithTransaction(ctx context.Context, w *Wallet, to Address, amount Amount) (*Block, *Transaction, error) {
	bc.mu.Lock()
	spendable := bc.pool.FilteredUnspentTxOuts(bc.utxo)
	bc.mu.Unlock()

	tx, err := w.CreateTransaction(to, amount, spendable)
	if err != nil {
		return nil, nil, fmt.Errorf("generate next block: %w", err)
	}

	b, err := bc.generateNextBlock(ctx, w, tx)
	if err != nil {
		return nil, nil, err
	}
	return b, tx, nil
}

func (bc *Blockchain) generateNextBlock(ctx context.Context, w *Wallet, extra *Transaction) (*Block, error) {
	bc.mu.Lock()
	tip := bc.tipLocked()
	nextIndex := tip.Index + 1
	coinbase := NewCoinbaseTx(w.Address(), nextIndex)

	data := []*Transaction{coinbase}
	if extra != nil {
		data = append(data, extra)
	}
	data = append(data, bc.pool.Transactions()...)

	difficulty := bc.difficultyLocked()
	prevHash := tip.Hash
	bc.mu.Unlock()

	block, err := Find(ctx, nextIndex, &prevHash, time.Now().Unix(), data, difficulty)
	if err != nil {
		return nil, fmt.Errorf("mine block: %w", err)
	}

	bc.mu.Lock()
	err = bc.addBlockLocked(block)
	bc.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return block, nil
}

// SendTransaction builds a transaction with the wallet, adds it to the
// pool, and reports success (spec.md §4.F).
func (bc *Blockchain) SendTransaction(w *Wallet, to Address, amount Amount) (*Transaction, error) {
	bc.mu.Lock()
	spendable := bc.pool.FilteredUnspentTxOuts(bc.utxo)
	bc.mu.Unlock()

	tx, err := w.CreateTransaction(to, amount, spendable)
	if err != nil {
		return nil, fmt.Errorf("send transaction: %w", err)
	}

	bc.mu.Lock()
	ok := bc.pool.Add(tx, bc.utxo)
	onPoolChange := bc.onPoolChange
	bc.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("send transaction: rejected by pool")
	}
	if onPoolChange != nil {
		onPoolChange()
	}
	return tx, nil
}

// AddToPool validates and pools a transaction received from a peer or an
// operator request, invoking the OnPoolChange callback on success
// (spec.md §4.H).
func (bc *Blockchain) AddToPool(tx *Transaction) bool {
	bc.mu.Lock()
	ok := bc.pool.Add(tx, bc.utxo)
	onPoolChange := bc.onPoolChange
	bc.mu.Unlock()

	if ok && onPoolChange != nil {
		onPoolChange()
	}
	return ok
}

// Replace atomically swaps in a longer, valid candidate chain
// (spec.md §4.F): the candidate must start from the canonical genesis
// block, every adjacent pair must satisfy IsValidNext, and it must be
// strictly longer than the local chain. On success the UTXO set and pool
// are rebuilt from scratch by replaying ProcessTransactions across the
// new chain.
func (bc *Blockchain) Replace(candidate []*Block) error {
	if err := validateChain(candidate); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidChain, err)
	}

	bc.mu.Lock()
	defer bc.mu.Unlock()

	if len(candidate) <= len(bc.blocks) {
		return ErrChainNotLonger
	}

	utxo := NewUTXOSet()
	for _, b := range candidate {
		if err := ValidateBlockTransactions(b.Data, utxo, b.Index); err != nil {
			return fmt.Errorf("%w: block %d: %v", ErrInvalidChain, b.Index, err)
		}
		utxo = ProcessTransactions(b.Data, utxo)
	}

	bc.blocks = candidate
	bc.utxo = utxo
	bc.pool.Update(bc.utxo)

	if bc.onNewBlock != nil {
		bc.onNewBlock(bc.tipLocked())
	}
	if bc.onPoolChange != nil {
		bc.onPoolChange()
	}
	return nil
}

// validateChain checks that candidate starts at the canonical genesis
// block and that every adjacent pair is a valid (prev, next) link.
func validateChain(candidate []*Block) error {
	if len(candidate) == 0 {
		return fmt.Errorf("empty chain")
	}
	genesis := NewGenesisBlock()
	if candidate[0].Hash != genesis.Hash {
		return fmt.Errorf("genesis block mismatch")
	}
	for i := 1; i < len(candidate); i++ {
		if err := candidate[i-1].IsValidNext(candidate[i]); err != nil {
			return err
		}
	}
	return nil
}
