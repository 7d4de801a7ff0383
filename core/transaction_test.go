package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFundedUTXO(t *testing.T, addr Address, amount Amount) (UTXOSet, TxIn) {
	t.Helper()
	coinbase := NewCoinbaseTx(addr, 1)
	coinbase.TxOuts[0].Amount = amount
	coinbase.SetID()

	u := NewUTXOSet()
	u[utxoKey{coinbase.ID, 0}] = UnspentTxOut{
		TxOutID: coinbase.ID, TxOutIdx: 0, Address: addr, Amount: amount,
	}
	return u, TxIn{TxOutID: coinbase.ID, TxOutIdx: 0}
}

func TestCoinbaseValidates(t *testing.T) {
	priv, err := GenerateKey()
	require.NoError(t, err)
	tx := NewCoinbaseTx(priv.Address(), 7)
	assert.NoError(t, ValidateCoinbase(tx, 7))
	assert.True(t, tx.IsCoinbase())
}

func TestCoinbaseRejectsWrongBlockIndex(t *testing.T) {
	priv, err := GenerateKey()
	require.NoError(t, err)
	tx := NewCoinbaseTx(priv.Address(), 7)
	assert.ErrorIs(t, ValidateCoinbase(tx, 8), ErrNotCoinbase)
}

func TestTransactionValidateAndSign(t *testing.T) {
	priv, err := GenerateKey()
	require.NoError(t, err)
	recipient, err := GenerateKey()
	require.NoError(t, err)

	u, in := newFundedUTXO(t, priv.Address(), NewAmount(10))
	tx := &Transaction{
		TxIns:  []TxIn{in},
		TxOuts: []TxOut{{Address: recipient.Address(), Amount: NewAmount(10)}},
	}
	tx.SetID()
	require.NoError(t, tx.SignInput(0, priv, u))
	assert.NoError(t, tx.Validate(u))
}

func TestTransactionRejectsAmountMismatch(t *testing.T) {
	priv, err := GenerateKey()
	require.NoError(t, err)
	recipient, err := GenerateKey()
	require.NoError(t, err)

	u, in := newFundedUTXO(t, priv.Address(), NewAmount(10))
	tx := &Transaction{
		TxIns:  []TxIn{in},
		TxOuts: []TxOut{{Address: recipient.Address(), Amount: NewAmount(9)}},
	}
	tx.SetID()
	require.NoError(t, tx.SignInput(0, priv, u))
	assert.ErrorIs(t, tx.Validate(u), ErrAmountMismatch)
}

func TestTransactionRejectsUnknownInput(t *testing.T) {
	priv, err := GenerateKey()
	require.NoError(t, err)
	u := NewUTXOSet()
	tx := &Transaction{
		TxIns:  []TxIn{{TxOutID: Sha256([]byte("nope")), TxOutIdx: 0}},
		TxOuts: []TxOut{{Address: priv.Address(), Amount: NewAmount(1)}},
	}
	tx.SetID()
	assert.ErrorIs(t, tx.Validate(u), ErrUnknownInput)
}

func TestSignInputRejectsWrongKey(t *testing.T) {
	priv, err := GenerateKey()
	require.NoError(t, err)
	wrongKey, err := GenerateKey()
	require.NoError(t, err)

	u, in := newFundedUTXO(t, priv.Address(), NewAmount(10))
	tx := &Transaction{
		TxIns:  []TxIn{in},
		TxOuts: []TxOut{{Address: priv.Address(), Amount: NewAmount(10)}},
	}
	tx.SetID()
	assert.ErrorIs(t, tx.SignInput(0, wrongKey, u), ErrWrongKey)
}

func TestSignatureExcludedFromID(t *testing.T) {
	priv, err := GenerateKey()
	require.NoError(t, err)
	u, in := newFundedUTXO(t, priv.Address(), NewAmount(10))
	tx := &Transaction{
		TxIns:  []TxIn{in},
		TxOuts: []TxOut{{Address: priv.Address(), Amount: NewAmount(10)}},
	}
	tx.SetID()
	before := tx.ID
	require.NoError(t, tx.SignInput(0, priv, u))
	assert.Equal(t, before, tx.ID)
}

func TestValidateBlockTransactionsRejectsDuplicateInput(t *testing.T) {
	priv, err := GenerateKey()
	require.NoError(t, err)
	u, in := newFundedUTXO(t, priv.Address(), NewAmount(10))

	txA := &Transaction{TxIns: []TxIn{in}, TxOuts: []TxOut{{Address: priv.Address(), Amount: NewAmount(10)}}}
	txA.SetID()
	require.NoError(t, txA.SignInput(0, priv, u))

	txB := &Transaction{TxIns: []TxIn{in}, TxOuts: []TxOut{{Address: priv.Address(), Amount: NewAmount(10)}}}
	txB.SetID()
	require.NoError(t, txB.SignInput(0, priv, u))

	coinbase := NewCoinbaseTx(priv.Address(), 1)
	err = ValidateBlockTransactions([]*Transaction{coinbase, txA, txB}, u, 1)
	assert.ErrorIs(t, err, ErrDuplicateInput)
}

func TestValidateBlockTransactionsAcceptsEmpty(t *testing.T) {
	assert.NoError(t, ValidateBlockTransactions(nil, NewUTXOSet(), 1))
}

func TestProcessTransactionsUpdatesUTXOSet(t *testing.T) {
	priv, err := GenerateKey()
	require.NoError(t, err)
	recipient, err := GenerateKey()
	require.NoError(t, err)

	u, in := newFundedUTXO(t, priv.Address(), NewAmount(10))
	tx := &Transaction{
		TxIns:  []TxIn{in},
		TxOuts: []TxOut{{Address: recipient.Address(), Amount: NewAmount(10)}},
	}
	tx.SetID()
	require.NoError(t, tx.SignInput(0, priv, u))

	next := ProcessTransactions([]*Transaction{tx}, u)
	_, stillThere := next.Find(in)
	assert.False(t, stillThere)

	out, ok := next[utxoKey{tx.ID, 0}]
	require.True(t, ok)
	assert.Equal(t, recipient.Address(), out.Address)
	assert.Equal(t, 0, out.Amount.Cmp(NewAmount(10)))
}
