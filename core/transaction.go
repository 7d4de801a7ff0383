package core

import (
	"errors"
	"fmt"
)

// CoinbaseAmount is the fixed block reward minted by the first transaction
// of every block.
var CoinbaseAmount = NewAmount(50)

// Sentinel validation failures, matching spec.md §4.C/§7's consensus-kind
// errors. Consensus code never panics: every failure surfaces as one of
// these, wrapped with context by fmt.Errorf("%w: ...").
var (
	ErrInvalidID      = errors.New("invalid transaction id")
	ErrUnknownInput   = errors.New("referenced output is not unspent")
	ErrBadSignature   = errors.New("invalid input signature")
	ErrAmountMismatch = errors.New("input and output amounts do not match")
	ErrDuplicateInput = errors.New("duplicate input across transactions")
	ErrWrongKey       = errors.New("signing key does not match referenced output's owner")
	ErrNotCoinbase    = errors.New("first transaction of a block must be a valid coinbase")
)

// TxIn references one output of an earlier transaction. Unsigned at
// construction time; Sign (via Transaction.SignInput) fills in Signature
// once, before the transaction is broadcast. On a coinbase input, TxOutID
// is the zero hash, TxOutIdx equals the block height, and Signature is
// empty.
type TxIn struct {
	TxOutID   Hash      `json:"txOutId"`
	TxOutIdx  uint64    `json:"txOutIndex"`
	Signature Signature `json:"signature"`
}

// TxOut pays Amount to Address.
type TxOut struct {
	Address Address `json:"address"`
	Amount  Amount  `json:"amount"`
}

// UnspentTxOut is an output of a confirmed transaction not yet consumed by
// any later input. Identity is (TxOutID, TxOutIdx).
type UnspentTxOut struct {
	TxOutID  Hash    `json:"txOutId"`
	TxOutIdx uint64  `json:"txOutIndex"`
	Address  Address `json:"address"`
	Amount   Amount  `json:"amount"`
}

// utxoKey identifies a TxIn's referenced output for set membership and
// double-spend checks.
type utxoKey struct {
	TxOutID  Hash
	TxOutIdx uint64
}

func (in TxIn) key() utxoKey { return utxoKey{in.TxOutID, in.TxOutIdx} }

// UTXOSet is the set of outputs not yet spent by any transaction in the
// chain. It is an in-memory value — chain persistence is a Non-goal — kept
// as a plain map for O(1) lookup by (TxOutID, TxOutIdx).
type UTXOSet map[utxoKey]UnspentTxOut

// NewUTXOSet returns an empty set.
func NewUTXOSet() UTXOSet {
	return make(UTXOSet)
}

// Find looks up the unspent output referenced by a TxIn.
func (u UTXOSet) Find(in TxIn) (UnspentTxOut, bool) {
	out, ok := u[in.key()]
	return out, ok
}

// Clone returns a shallow copy, used so chain replacement and speculative
// validation never mutate the live set in place.
func (u UTXOSet) Clone() UTXOSet {
	out := make(UTXOSet, len(u))
	for k, v := range u {
		out[k] = v
	}
	return out
}

// Transaction is the fundamental unit of value transfer: a commitment to a
// set of inputs and outputs, identified by Transaction.ID.
type Transaction struct {
	ID     Hash    `json:"id"`
	TxIns  []TxIn  `json:"txIns"`
	TxOuts []TxOut `json:"txOuts"`
}

// computeID recomputes the transaction id: a commitment to inputs and
// outputs, but deliberately NOT to signatures (spec.md §3). This is the
// classic malleability-prone id scheme, preserved for protocol parity —
// see SPEC_FULL.md §7.2.
func (tx Transaction) computeID() Hash {
	var parts [][]byte
	for _, in := range tx.TxIns {
		parts = append(parts, in.TxOutID[:], beMinimalUint64(in.TxOutIdx))
	}
	for _, out := range tx.TxOuts {
		num, denom := out.Amount.AsIntegerRatio()
		parts = append(parts, out.Address[:], beMinimal(num), beMinimal(denom))
	}
	return Sha256(parts...)
}

// SetID recomputes and stores the transaction's id.
func (tx *Transaction) SetID() {
	tx.ID = tx.computeID()
}

// IsCoinbase reports whether tx has the coinbase shape: exactly one
// zero-hash input and exactly one output.
func (tx Transaction) IsCoinbase() bool {
	return len(tx.TxIns) == 1 && tx.TxIns[0].TxOutID.IsZero() && len(tx.TxOuts) == 1
}

// NewCoinbaseTx builds the unsigned, already-IDed coinbase transaction for
// a block at blockIndex, paying CoinbaseAmount to addr.
func NewCoinbaseTx(addr Address, blockIndex uint64) *Transaction {
	tx := &Transaction{
		TxIns:  []TxIn{{TxOutID: Hash{}, TxOutIdx: blockIndex}},
		TxOuts: []TxOut{{Address: addr, Amount: CoinbaseAmount}},
	}
	tx.SetID()
	return tx
}

// ValidateCoinbase checks tx against the coinbase shape required at
// blockIndex (spec.md §4.C).
func ValidateCoinbase(tx *Transaction, blockIndex uint64) error {
	if tx.ID != tx.computeID() {
		return fmt.Errorf("%w: coinbase", ErrInvalidID)
	}
	if len(tx.TxIns) != 1 {
		return fmt.Errorf("%w: coinbase must have exactly one input", ErrNotCoinbase)
	}
	if tx.TxIns[0].TxOutIdx != blockIndex {
		return fmt.Errorf("%w: coinbase input index %d does not match block index %d", ErrNotCoinbase, tx.TxIns[0].TxOutIdx, blockIndex)
	}
	if len(tx.TxOuts) != 1 {
		return fmt.Errorf("%w: coinbase must have exactly one output", ErrNotCoinbase)
	}
	if tx.TxOuts[0].Amount.Cmp(CoinbaseAmount) != 0 {
		return fmt.Errorf("%w: coinbase amount %s does not equal reward %s", ErrNotCoinbase, tx.TxOuts[0].Amount, CoinbaseAmount)
	}
	return nil
}

// Validate checks a normal (non-coinbase) transaction against the UTXO set
// u: id integrity, every input references an extant output with a valid
// signature, and input/output amounts balance (spec.md §4.C).
func (tx *Transaction) Validate(u UTXOSet) error {
	if tx.ID != tx.computeID() {
		return fmt.Errorf("%w: tx %s", ErrInvalidID, tx.ID)
	}

	var inputTotal Amount
	for _, in := range tx.TxIns {
		out, ok := u.Find(in)
		if !ok {
			return fmt.Errorf("%w: tx %s input %s:%d", ErrUnknownInput, tx.ID, in.TxOutID, in.TxOutIdx)
		}
		if !Verify(out.Address, tx.ID, in.Signature) {
			return fmt.Errorf("%w: tx %s input %s:%d", ErrBadSignature, tx.ID, in.TxOutID, in.TxOutIdx)
		}
		inputTotal = inputTotal.Add(out.Amount)
	}

	var outputTotal Amount
	for _, out := range tx.TxOuts {
		outputTotal = outputTotal.Add(out.Amount)
	}

	if inputTotal.Cmp(outputTotal) != 0 {
		return fmt.Errorf("%w: tx %s inputs=%s outputs=%s", ErrAmountMismatch, tx.ID, inputTotal, outputTotal)
	}
	return nil
}

// SignInput signs input i of tx with priv, after checking priv's address
// matches the referenced output's owner.
func (tx *Transaction) SignInput(i int, priv *PrivateKey, u UTXOSet) error {
	if i < 0 || i >= len(tx.TxIns) {
		return fmt.Errorf("input index %d out of range", i)
	}
	in := tx.TxIns[i]
	out, ok := u.Find(in)
	if !ok {
		return fmt.Errorf("%w: input %d", ErrUnknownInput, i)
	}
	if priv.Address() != out.Address {
		return fmt.Errorf("%w: input %d", ErrWrongKey, i)
	}
	sig, err := priv.Sign(tx.ID)
	if err != nil {
		return err
	}
	tx.TxIns[i].Signature = sig
	return nil
}

// ValidateBlockTransactions checks a whole block's transaction batch
// (spec.md §4.C): an empty batch is accepted; otherwise txs[0] must be a
// valid coinbase at blockIndex, no two inputs across txs[1:] may reference
// the same output, and every non-coinbase tx must validate against u.
func ValidateBlockTransactions(txs []*Transaction, u UTXOSet, blockIndex uint64) error {
	if len(txs) == 0 {
		return nil
	}
	if err := ValidateCoinbase(txs[0], blockIndex); err != nil {
		return err
	}

	seen := make(map[utxoKey]bool)
	for _, tx := range txs[1:] {
		for _, in := range tx.TxIns {
			if seen[in.key()] {
				return fmt.Errorf("%w: %s:%d", ErrDuplicateInput, in.TxOutID, in.TxOutIdx)
			}
			seen[in.key()] = true
		}
	}

	for _, tx := range txs[1:] {
		if err := tx.Validate(u); err != nil {
			return err
		}
	}
	return nil
}

// ProcessTransactions applies newTxs on top of u, functionally: every
// consumed input is removed and every new output is added, indexed by
// (tx.ID, output index). It does not validate; callers must call
// ValidateBlockTransactions first.
func ProcessTransactions(txs []*Transaction, u UTXOSet) UTXOSet {
	next := u.Clone()
	for _, tx := range txs {
		if !tx.IsCoinbase() {
			for _, in := range tx.TxIns {
				delete(next, in.key())
			}
		}
		for idx, out := range tx.TxOuts {
			uo := UnspentTxOut{
				TxOutID:  tx.ID,
				TxOutIdx: uint64(idx),
				Address:  out.Address,
				Amount:   out.Amount,
			}
			next[utxoKey{tx.ID, uint64(idx)}] = uo
		}
	}
	return next
}
