package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeadingZeroBits(t *testing.T) {
	var h Hash
	h[0] = 0x0f // 0000 1111: four leading zero bits
	assert.Equal(t, uint32(4), leadingZeroBits(h))

	var zero Hash
	assert.Equal(t, uint32(256), leadingZeroBits(zero))
}

func TestFindMeetsDifficulty(t *testing.T) {
	genesis := NewGenesisBlock()
	block, err := Find(context.Background(), 1, &genesis.Hash, genesis.Timestamp+1, nil, 8)
	require.NoError(t, err)
	assert.True(t, meetsDifficulty(block.Hash, 8))
}

func TestFindRespectsCancellation(t *testing.T) {
	genesis := NewGenesisBlock()
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()

	// A difficulty this high will not be found before the context expires.
	_, err := Find(ctx, 1, &genesis.Hash, genesis.Timestamp+1, nil, 64)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
