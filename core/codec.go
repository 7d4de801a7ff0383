// Package core implements the block/chain and transaction engines: hashing,
// proof-of-work mining, the UTXO transaction model, the transaction pool,
// and wallet key custody.
package core

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/big"
)

// Hash is a 32-byte SHA-256 digest.
type Hash [32]byte

// String returns the lowercase hex encoding of h.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// IsZero reports whether h is the all-zero hash, used to mark "no previous
// transaction" on coinbase inputs. (The genesis block marks "no previous
// block" with a nil PreviousHash instead.)
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// HashFromHex decodes a hex string into a Hash.
func HashFromHex(s string) (Hash, error) {
	var h Hash
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("decode hash hex: %w", err)
	}
	if len(b) != len(h) {
		return h, fmt.Errorf("hash must be %d bytes, got %d", len(h), len(b))
	}
	copy(h[:], b)
	return h, nil
}

// MarshalJSON renders h as a lowercase hex string.
func (h Hash) MarshalJSON() ([]byte, error) {
	return []byte(`"` + h.String() + `"`), nil
}

// UnmarshalJSON parses h from a hex string.
func (h *Hash) UnmarshalJSON(b []byte) error {
	s, err := unquoteJSONString(b)
	if err != nil {
		return err
	}
	decoded, err := HashFromHex(s)
	if err != nil {
		return err
	}
	*h = decoded
	return nil
}

// AddressLen is the raw uncompressed public key length for the declared
// curve (core.Curve): 2 * 24 bytes for NIST P-192's X‖Y coordinates.
const AddressLen = 48

// Address is a raw, uncompressed ECDSA public key (X‖Y, no format prefix).
type Address [AddressLen]byte

func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

// AddressFromHex decodes a hex string into an Address.
func AddressFromHex(s string) (Address, error) {
	var a Address
	b, err := hex.DecodeString(s)
	if err != nil {
		return a, fmt.Errorf("decode address hex: %w", err)
	}
	if len(b) != len(a) {
		return a, fmt.Errorf("address must be %d bytes, got %d", len(a), len(b))
	}
	copy(a[:], b)
	return a, nil
}

func (a Address) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.String() + `"`), nil
}

func (a *Address) UnmarshalJSON(b []byte) error {
	s, err := unquoteJSONString(b)
	if err != nil {
		return err
	}
	decoded, err := AddressFromHex(s)
	if err != nil {
		return err
	}
	*a = decoded
	return nil
}

// Signature is a raw ECDSA signature, r‖s, each half-width of the curve's
// byte size.
type Signature []byte

func (s Signature) String() string {
	return hex.EncodeToString(s)
}

func (s Signature) MarshalJSON() ([]byte, error) {
	if len(s) == 0 {
		return []byte("null"), nil
	}
	return []byte(`"` + s.String() + `"`), nil
}

func (s *Signature) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*s = nil
		return nil
	}
	str, err := unquoteJSONString(b)
	if err != nil {
		return err
	}
	decoded, err := hex.DecodeString(str)
	if err != nil {
		return fmt.Errorf("decode signature hex: %w", err)
	}
	*s = decoded
	return nil
}

func unquoteJSONString(b []byte) (string, error) {
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return "", fmt.Errorf("expected JSON string, got %q", b)
	}
	return string(b[1 : len(b)-1]), nil
}

// be8 encodes v as 8 fixed big-endian bytes, used for block-hash fields
// (index, timestamp, difficulty, nonce) per spec.
func be8(v uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return buf
}

// beMinimal encodes a non-negative big.Int as the minimal-width big-endian
// byte slice, used when committing amount numerators/denominators and
// output indices into a transaction id. Zero encodes as an empty slice.
func beMinimal(n *big.Int) []byte {
	if n.Sign() == 0 {
		return []byte{}
	}
	return n.Bytes()
}

// beMinimalUint64 is beMinimal for a uint64, used for tx_out_index in the
// transaction id commitment.
func beMinimalUint64(v uint64) []byte {
	return beMinimal(new(big.Int).SetUint64(v))
}
