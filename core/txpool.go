package core

import "sync"

// TxPool is the mempool of validated, non-conflicting pending transactions
// awaiting inclusion in a block (spec.md §3 "TransactionPool", §4.D). It
// guarantees its own input set has no duplicates: no two pooled
// transactions share an input.
type TxPool struct {
	mu  sync.RWMutex
	txs map[Hash]*Transaction
}

// NewTxPool returns an empty pool.
func NewTxPool() *TxPool {
	return &TxPool{txs: make(map[Hash]*Transaction)}
}

// Add validates tx against u and rejects it if it double-spends an input
// already claimed by a pooled transaction. Returns true if tx was added.
func (p *TxPool) Add(tx *Transaction, u UTXOSet) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := tx.Validate(u); err != nil {
		return false
	}
	for _, in := range tx.TxIns {
		for _, pooled := range p.txs {
			for _, pin := range pooled.TxIns {
				if pin.key() == in.key() {
					return false
				}
			}
		}
	}
	p.txs[tx.ID] = tx
	return true
}

// Update drops every pooled transaction with any input no longer present
// in u, e.g. because it was consumed by a newly accepted block.
func (p *TxPool) Update(u UTXOSet) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for id, tx := range p.txs {
		for _, in := range tx.TxIns {
			if _, ok := u.Find(in); !ok {
				delete(p.txs, id)
				break
			}
		}
	}
}

// FilteredUnspentTxOuts returns u minus any output referenced by a pending
// pooled input, so a Wallet never builds a transaction that double-spends
// one of its own pending outputs.
func (p *TxPool) FilteredUnspentTxOuts(u UTXOSet) UTXOSet {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := u.Clone()
	for _, tx := range p.txs {
		for _, in := range tx.TxIns {
			delete(out, in.key())
		}
	}
	return out
}

// Transactions returns a snapshot slice of pooled transactions, for
// gossip/HTTP reporting.
func (p *TxPool) Transactions() []*Transaction {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]*Transaction, 0, len(p.txs))
	for _, tx := range p.txs {
		out = append(out, tx)
	}
	return out
}

// Has reports whether a transaction with the given id is pooled.
func (p *TxPool) Has(id Hash) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.txs[id]
	return ok
}
