package core

import (
	"fmt"
	"os"
	"sort"
)

// ErrInsufficientFunds is returned by CreateTransaction when the wallet's
// spendable outputs do not add up to more than the requested amount.
var ErrInsufficientFunds = fmt.Errorf("insufficient funds")

// Wallet owns a single private key and derives its address from it
// (spec.md §3 "Ownership": "Wallet owns its private key").
type Wallet struct {
	priv *PrivateKey
}

// NewWallet wraps an existing private key.
func NewWallet(priv *PrivateKey) *Wallet {
	return &Wallet{priv: priv}
}

// Address returns the wallet's public address.
func (w *Wallet) Address() Address { return w.priv.Address() }

// LoadOrCreate reads a PEM-encoded private key from path, generating and
// writing a new one (mode 0600) if the file does not exist yet
// (spec.md §6: "Private key file... auto-generated on first run if
// absent").
func LoadOrCreate(path string) (*Wallet, error) {
	exists, err := fileExists(path)
	if err != nil {
		return nil, fmt.Errorf("stat wallet key %s: %w", path, err)
	}
	if exists {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read wallet key %s: %w", path, err)
		}
		priv, err := ParsePEM(data)
		if err != nil {
			return nil, fmt.Errorf("parse wallet key %s: %w", path, err)
		}
		return NewWallet(priv), nil
	}

	priv, err := GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generate wallet key: %w", err)
	}
	pemBytes, err := priv.MarshalPEM()
	if err != nil {
		return nil, fmt.Errorf("encode wallet key: %w", err)
	}
	if err := os.WriteFile(path, pemBytes, 0o600); err != nil {
		return nil, fmt.Errorf("write wallet key %s: %w", path, err)
	}
	return NewWallet(priv), nil
}

// GetBalance sums every output in u owned by the wallet (spec.md §4.G).
func (w *Wallet) GetBalance(u UTXOSet) Amount {
	total := ZeroAmount
	for _, out := range u {
		if out.Address == w.Address() {
			total = total.Add(out.Amount)
		}
	}
	return total
}

// CreateTransaction builds, IDs, and signs a transaction paying amount to
// to, greedily selecting the wallet's own outputs from u until the
// accumulated amount exceeds the target, and appending a change output of
// the excess back to the wallet (spec.md §4.G). A selection that can only
// equal the target, not exceed it, fails with ErrInsufficientFunds.
func (w *Wallet) CreateTransaction(to Address, amount Amount, u UTXOSet) (*Transaction, error) {
	mine := make([]UnspentTxOut, 0)
	for _, out := range u {
		if out.Address == w.Address() {
			mine = append(mine, out)
		}
	}
	// Deterministic order: sort by (TxOutID, TxOutIdx) so repeated calls
	// over the same UTXO set select the same inputs.
	sort.Slice(mine, func(i, j int) bool {
		if mine[i].TxOutID != mine[j].TxOutID {
			return mine[i].TxOutID.String() < mine[j].TxOutID.String()
		}
		return mine[i].TxOutIdx < mine[j].TxOutIdx
	})

	acc := ZeroAmount
	var selected []UnspentTxOut
	for _, out := range mine {
		if acc.Cmp(amount) > 0 {
			break
		}
		selected = append(selected, out)
		acc = acc.Add(out.Amount)
	}
	if acc.Cmp(amount) <= 0 {
		return nil, fmt.Errorf("%w: have %s, need %s", ErrInsufficientFunds, acc, amount)
	}

	tx := &Transaction{
		TxOuts: []TxOut{{Address: to, Amount: amount}},
	}
	if acc.Cmp(amount) > 0 {
		tx.TxOuts = append(tx.TxOuts, TxOut{Address: w.Address(), Amount: acc.Sub(amount)})
	}
	for _, out := range selected {
		tx.TxIns = append(tx.TxIns, TxIn{TxOutID: out.TxOutID, TxOutIdx: out.TxOutIdx})
	}
	tx.SetID()

	for i := range tx.TxIns {
		if err := tx.SignInput(i, w.priv, u); err != nil {
			return nil, fmt.Errorf("sign transaction: %w", err)
		}
	}
	return tx, nil
}
