package core

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashJSONRoundTrip(t *testing.T) {
	h := Sha256([]byte("hello"))
	b, err := json.Marshal(h)
	require.NoError(t, err)

	var got Hash
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, h, got)
}

func TestHashFromHexRejectsWrongLength(t *testing.T) {
	_, err := HashFromHex("abcd")
	assert.Error(t, err)
}

func TestAddressJSONRoundTrip(t *testing.T) {
	priv, err := GenerateKey()
	require.NoError(t, err)
	addr := priv.Address()

	b, err := json.Marshal(addr)
	require.NoError(t, err)

	var got Address
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, addr, got)
}

func TestSignatureNullWhenEmpty(t *testing.T) {
	var sig Signature
	b, err := json.Marshal(sig)
	require.NoError(t, err)
	assert.Equal(t, "null", string(b))

	var got Signature
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Nil(t, got)
}

func TestBeMinimalZeroIsEmpty(t *testing.T) {
	assert.Empty(t, beMinimal(big.NewInt(0)))
}
