package core

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmountMarshalsTerminatingDecimalBare(t *testing.T) {
	a := AmountFromRat(big.NewRat(1, 2))
	b, err := json.Marshal(a)
	require.NoError(t, err)
	assert.Equal(t, "0.5", string(b))
}

func TestAmountMarshalsIntegerWithoutFraction(t *testing.T) {
	b, err := json.Marshal(NewAmount(50))
	require.NoError(t, err)
	assert.Equal(t, "50", string(b))
}

func TestAmountMarshalsNonTerminatingAsQuotedFraction(t *testing.T) {
	a := AmountFromRat(big.NewRat(1, 3))
	b, err := json.Marshal(a)
	require.NoError(t, err)
	assert.Equal(t, `"1/3"`, string(b))
}

func TestAmountUnmarshalRoundTrip(t *testing.T) {
	for _, s := range []string{"50", "0.5", `"1/3"`} {
		var a Amount
		require.NoError(t, json.Unmarshal([]byte(s), &a))
		b, err := json.Marshal(a)
		require.NoError(t, err)
		assert.Equal(t, s, string(b))
	}
}

func TestAmountArithmetic(t *testing.T) {
	a := NewAmount(10)
	b := NewAmount(3)
	assert.Equal(t, 0, a.Sub(b).Cmp(NewAmount(7)))
	assert.Equal(t, 1, a.Cmp(b))
	assert.True(t, NewAmount(-1).IsNegative())
	assert.Equal(t, 0, ZeroAmount.Sign())
}

func TestFracDigitsTakesMaxOfFactors(t *testing.T) {
	// denom=10 = 2*5: one digit, not two.
	assert.Equal(t, 1, fracDigits(big.NewRat(1, 10)))
	// denom=8 = 2^3: three digits.
	assert.Equal(t, 3, fracDigits(big.NewRat(1, 8)))
}
