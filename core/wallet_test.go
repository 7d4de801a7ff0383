package core

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOrCreateGeneratesThenReuses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallet.pem")

	w1, err := LoadOrCreate(path)
	require.NoError(t, err)

	w2, err := LoadOrCreate(path)
	require.NoError(t, err)

	assert.Equal(t, w1.Address(), w2.Address())
}

func TestGetBalanceSumsOwnOutputsOnly(t *testing.T) {
	priv, err := GenerateKey()
	require.NoError(t, err)
	other, err := GenerateKey()
	require.NoError(t, err)
	w := NewWallet(priv)

	u := NewUTXOSet()
	u[utxoKey{Sha256([]byte("a")), 0}] = UnspentTxOut{Address: priv.Address(), Amount: NewAmount(5)}
	u[utxoKey{Sha256([]byte("b")), 0}] = UnspentTxOut{Address: other.Address(), Amount: NewAmount(100)}

	assert.Equal(t, 0, w.GetBalance(u).Cmp(NewAmount(5)))
}

func TestCreateTransactionProducesChangeOutput(t *testing.T) {
	priv, err := GenerateKey()
	require.NoError(t, err)
	recipient, err := GenerateKey()
	require.NoError(t, err)
	w := NewWallet(priv)

	u, _ := newFundedUTXO(t, priv.Address(), NewAmount(10))
	tx, err := w.CreateTransaction(recipient.Address(), NewAmount(4), u)
	require.NoError(t, err)

	require.Len(t, tx.TxOuts, 2)
	assert.Equal(t, recipient.Address(), tx.TxOuts[0].Address)
	assert.Equal(t, 0, tx.TxOuts[0].Amount.Cmp(NewAmount(4)))
	assert.Equal(t, priv.Address(), tx.TxOuts[1].Address)
	assert.Equal(t, 0, tx.TxOuts[1].Amount.Cmp(NewAmount(6)))
	assert.NoError(t, tx.Validate(u))
}

func TestCreateTransactionFailsOnInsufficientFunds(t *testing.T) {
	priv, err := GenerateKey()
	require.NoError(t, err)
	recipient, err := GenerateKey()
	require.NoError(t, err)
	w := NewWallet(priv)

	u, _ := newFundedUTXO(t, priv.Address(), NewAmount(1))
	_, err = w.CreateTransaction(recipient.Address(), NewAmount(100), u)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
}
