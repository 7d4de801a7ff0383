package core

import (
	"fmt"
	"time"
)

// GenesisTimestamp is the fixed timestamp of block 0, shared by every
// node so every chain starts from byte-identical genesis blocks.
const GenesisTimestamp int64 = 1528359030

// MaxTimestampDriftSeconds bounds how far a block's timestamp may lag the
// previous block or lead the local wall clock (spec.md §4.E).
const MaxTimestampDriftSeconds = 60

// Block is one consensus unit: a header committing to its predecessor,
// a timestamp, a transaction list, and a proof-of-work nonce.
type Block struct {
	Index        uint64         `json:"index"`
	PreviousHash *Hash          `json:"previous_hash"`
	Timestamp    int64          `json:"timestamp"`
	Data         []*Transaction `json:"data"`
	Difficulty   uint32         `json:"difficulty"`
	Nonce        uint64         `json:"nonce"`
	Hash         Hash           `json:"hash"`
}

// computeHash recomputes b's hash per spec.md §3:
// H(be8(index) ‖ previous_hash? ‖ be8(timestamp) ‖ concat(tx.id) ‖
//
//	be8(difficulty) ‖ be8(nonce)).
func (b *Block) computeHash() Hash {
	parts := [][]byte{be8(b.Index)}
	if b.PreviousHash != nil {
		parts = append(parts, b.PreviousHash[:])
	}
	parts = append(parts, be8(uint64(b.Timestamp)))
	for _, tx := range b.Data {
		parts = append(parts, tx.ID[:])
	}
	parts = append(parts, be8(uint64(b.Difficulty)), be8(b.Nonce))
	return Sha256(parts...)
}

// NewGenesisBlock returns the canonical, fixed genesis block: index 0, no
// predecessor, the fixed GenesisTimestamp, no transactions, difficulty 0.
func NewGenesisBlock() *Block {
	b := &Block{
		Index:        0,
		PreviousHash: nil,
		Timestamp:    GenesisTimestamp,
		Data:         nil,
		Difficulty:   0,
		Nonce:        0,
	}
	b.Hash = b.computeHash()
	return b
}

// ValidateStructure checks b's hash is self-consistent and meets its own
// declared difficulty, independent of any chain context.
func (b *Block) ValidateStructure() error {
	want := b.computeHash()
	if b.Hash != want {
		return fmt.Errorf("block %d: stored hash %s does not match recomputed hash %s", b.Index, b.Hash, want)
	}
	if !meetsDifficulty(b.Hash, b.Difficulty) {
		return fmt.Errorf("block %d: hash %s does not meet difficulty %d", b.Index, b.Hash, b.Difficulty)
	}
	return nil
}

// IsValidNext checks whether next may directly follow prev on the chain
// (spec.md §4.E): structure, index/hash linkage, timestamp tolerance, and
// the block's own proof of work.
func (prev *Block) IsValidNext(next *Block) error {
	if err := next.ValidateStructure(); err != nil {
		return err
	}
	if next.Index != prev.Index+1 {
		return fmt.Errorf("block %d: expected index %d, got %d", next.Index, prev.Index+1, next.Index)
	}
	if next.PreviousHash == nil || *next.PreviousHash != prev.Hash {
		return fmt.Errorf("block %d: previous hash does not match tip %s", next.Index, prev.Hash)
	}
	if prev.Timestamp-next.Timestamp >= MaxTimestampDriftSeconds {
		return fmt.Errorf("block %d: timestamp %d too far behind previous block %d", next.Index, next.Timestamp, prev.Timestamp)
	}
	now := time.Now().Unix()
	if next.Timestamp-now >= MaxTimestampDriftSeconds {
		return fmt.Errorf("block %d: timestamp %d too far ahead of wall clock", next.Index, next.Timestamp)
	}
	return nil
}
