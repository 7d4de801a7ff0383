package core

import "context"

// leadingZeroBits counts the number of leading zero bits in h, used to
// check proof-of-work difficulty (spec.md §3: "hash has at least
// difficulty leading zero bits").
func leadingZeroBits(h Hash) uint32 {
	var count uint32
	for _, b := range h {
		if b == 0 {
			count += 8
			continue
		}
		for mask := byte(0x80); mask > 0; mask >>= 1 {
			if b&mask != 0 {
				return count
			}
			count++
		}
	}
	return count
}

// meetsDifficulty reports whether h has at least difficulty leading zero
// bits.
func meetsDifficulty(h Hash, difficulty uint32) bool {
	return leadingZeroBits(h) >= difficulty
}

// Find mines a block: it iterates nonce = 0, 1, 2, ... until it finds a
// hash meeting difficulty, returning the resulting Block. Pure and
// deterministic given its inputs; CPU-bound and otherwise unbounded, so
// callers run it off the control-plane goroutine and may cancel via ctx
// (spec.md §5 — cancellation here is the documented, non-required
// optimization of abandoning a stale mining attempt early).
func Find(ctx context.Context, index uint64, previousHash *Hash, timestamp int64, data []*Transaction, difficulty uint32) (*Block, error) {
	for nonce := uint64(0); ; nonce++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		b := &Block{
			Index:        index,
			PreviousHash: previousHash,
			Timestamp:    timestamp,
			Data:         data,
			Difficulty:   difficulty,
			Nonce:        nonce,
		}
		h := b.computeHash()
		if meetsDifficulty(h, difficulty) {
			b.Hash = h
			return b, nil
		}
	}
}
