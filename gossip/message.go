// Package gossip implements the peer-to-peer reconciliation protocol
// (spec.md §4.H–I): a per-peer state machine exchanging blocks and
// mempool state over a pluggable bidirectional transport, plus the
// registry of connected peers used for broadcast fan-out.
package gossip

import (
	"encoding/json"
	"fmt"

	"github.com/mrtj/pyncoin/core"
)

// MessageType is one of the five wire codes spec.md §4.H names.
type MessageType int

const (
	QueryLatest MessageType = iota
	QueryAll
	ResponseBlockchain
	QueryTransactionPool
	ResponseTransactionPool
)

func (t MessageType) String() string {
	switch t {
	case QueryLatest:
		return "QueryLatest"
	case QueryAll:
		return "QueryAll"
	case ResponseBlockchain:
		return "ResponseBlockchain"
	case QueryTransactionPool:
		return "QueryTransactionPool"
	case ResponseTransactionPool:
		return "ResponseTransactionPool"
	default:
		return fmt.Sprintf("MessageType(%d)", int(t))
	}
}

// Message is the tagged variant transmitted on the wire: one JSON object
// per transport frame, {"type": <0..4>, "data": <payload>} (spec.md §6).
// Data is decoded strictly per Type — an unrecognized Type is dropped by
// the engine, never causing a panic (spec.md §9).
type Message struct {
	Type MessageType     `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Encode serializes m to its wire form.
func (m Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// DecodeMessage parses a wire frame into a Message.
func DecodeMessage(frame []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(frame, &m); err != nil {
		return m, fmt.Errorf("decode gossip message: %w", err)
	}
	return m, nil
}

func newMessage(t MessageType, data any) (Message, error) {
	if data == nil {
		return Message{Type: t}, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return Message{}, fmt.Errorf("encode %s payload: %w", t, err)
	}
	return Message{Type: t, Data: raw}, nil
}

// NewQueryLatest builds a QueryLatest message.
func NewQueryLatest() Message { m, _ := newMessage(QueryLatest, nil); return m }

// NewQueryAll builds a QueryAll message.
func NewQueryAll() Message { m, _ := newMessage(QueryAll, nil); return m }

// NewQueryTransactionPool builds a QueryTransactionPool message.
func NewQueryTransactionPool() Message { m, _ := newMessage(QueryTransactionPool, nil); return m }

// NewResponseBlockchain builds a ResponseBlockchain message carrying
// blocks (either just the tip, or the full chain, per spec.md §4.H).
func NewResponseBlockchain(blocks []*core.Block) (Message, error) {
	return newMessage(ResponseBlockchain, blocks)
}

// NewResponseTransactionPool builds a ResponseTransactionPool message.
func NewResponseTransactionPool(txs []*core.Transaction) (Message, error) {
	return newMessage(ResponseTransactionPool, txs)
}

// DecodeBlocks decodes a ResponseBlockchain message's payload.
func (m Message) DecodeBlocks() ([]*core.Block, error) {
	var blocks []*core.Block
	if err := json.Unmarshal(m.Data, &blocks); err != nil {
		return nil, fmt.Errorf("decode blocks payload: %w", err)
	}
	return blocks, nil
}

// DecodeTransactions decodes a ResponseTransactionPool message's payload.
func (m Message) DecodeTransactions() ([]*core.Transaction, error) {
	var txs []*core.Transaction
	if err := json.Unmarshal(m.Data, &txs); err != nil {
		return nil, fmt.Errorf("decode transactions payload: %w", err)
	}
	return txs, nil
}
