package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBlockchainStartsAtGenesis(t *testing.T) {
	bc := NewBlockchain()
	assert.Equal(t, uint64(0), bc.Tip().Index)
	assert.Len(t, bc.Blocks(), 1)
}

func TestGenerateNextBlockPaysWallet(t *testing.T) {
	bc := NewBlockchain()
	priv, err := GenerateKey()
	require.NoError(t, err)
	w := NewWallet(priv)

	block, err := bc.GenerateNextBlock(context.Background(), w)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), block.Index)
	assert.Equal(t, 0, bc.Balance(w.Address()).Cmp(CoinbaseAmount))
}

func TestSendTransactionThenMineSettlesBalances(t *testing.T) {
	bc := NewBlockchain()
	sender, err := GenerateKey()
	require.NoError(t, err)
	receiver, err := GenerateKey()
	require.NoError(t, err)
	senderWallet := NewWallet(sender)
	receiverWallet := NewWallet(receiver)

	_, err = bc.GenerateNextBlock(context.Background(), senderWallet)
	require.NoError(t, err)

	_, err = bc.SendTransaction(senderWallet, receiverWallet.Address(), NewAmount(20))
	require.NoError(t, err)
	assert.Len(t, bc.Pool().Transactions(), 1)

	_, err = bc.GenerateNextBlock(context.Background(), senderWallet)
	require.NoError(t, err)

	assert.Equal(t, 0, bc.Balance(receiverWallet.Address()).Cmp(NewAmount(20)))
	assert.Empty(t, bc.Pool().Transactions())
}

func TestReplaceRejectsShorterChain(t *testing.T) {
	bc := NewBlockchain()
	priv, err := GenerateKey()
	require.NoError(t, err)
	w := NewWallet(priv)
	_, err = bc.GenerateNextBlock(context.Background(), w)
	require.NoError(t, err)

	err = bc.Replace([]*Block{NewGenesisBlock()})
	assert.ErrorIs(t, err, ErrChainNotLonger)
}

func TestReplaceAdoptsLongerValidChain(t *testing.T) {
	bc1 := NewBlockchain()
	bc2 := NewBlockchain()
	priv, err := GenerateKey()
	require.NoError(t, err)
	w := NewWallet(priv)

	for i := 0; i < 3; i++ {
		_, err = bc2.GenerateNextBlock(context.Background(), w)
		require.NoError(t, err)
	}

	require.NoError(t, bc1.Replace(bc2.Blocks()))
	assert.Equal(t, bc2.Tip().Hash, bc1.Tip().Hash)
	assert.Equal(t, 0, bc1.Balance(w.Address()).Cmp(bc2.Balance(w.Address())))
}

func TestReplaceRejectsChainWithBadGenesis(t *testing.T) {
	bc := NewBlockchain()
	priv, err := GenerateKey()
	require.NoError(t, err)
	w := NewWallet(priv)

	forged := NewGenesisBlock()
	forged.Nonce = 1
	forged.Hash = forged.computeHash()

	block, err := bc.GenerateNextBlock(context.Background(), w)
	require.NoError(t, err)

	err = bc.Replace([]*Block{forged, block})
	assert.ErrorIs(t, err, ErrInvalidChain)
}

func TestDifficultyRetargetsFasterMining(t *testing.T) {
	bc := NewBlockchain()
	priv, err := GenerateKey()
	require.NoError(t, err)
	w := NewWallet(priv)

	for i := 0; i < DifficultyAdjustmentIntervalSize; i++ {
		_, err = bc.GenerateNextBlock(context.Background(), w)
		require.NoError(t, err)
	}
	// Blocks mined back-to-back in this test run in well under the
	// expected 10s-per-block interval, so the retarget should increase
	// difficulty for block 11.
	assert.Greater(t, bc.Difficulty(), bc.blocks[DifficultyAdjustmentIntervalSize-1].Difficulty)
}
