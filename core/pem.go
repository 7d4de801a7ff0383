package core

import (
	"crypto/ecdsa"
	"encoding/pem"
	"fmt"
	"math/big"
)

// Custom curves (core.Curve defaults to a hand-built NIST P-192, which
// crypto/x509 does not recognize by OID) can't go through
// x509.MarshalECPrivateKey/ParseECPrivateKey. The key material is small and
// fixed-width, so it is encoded directly as three curve-sized big-endian
// integers (D, X, Y) rather than ASN.1 DER — still wrapped in a PEM block
// so the on-disk file matches spec.md §6's "PEM-encoded ECDSA signing key".

func componentSize() int {
	return (Curve.Params().BitSize + 7) / 8
}

func marshalECPrivateKey(key *ecdsa.PrivateKey) ([]byte, error) {
	size := componentSize()
	buf := make([]byte, 3*size)
	if err := putFixed(buf[0:size], key.D); err != nil {
		return nil, err
	}
	if err := putFixed(buf[size:2*size], key.X); err != nil {
		return nil, err
	}
	if err := putFixed(buf[2*size:3*size], key.Y); err != nil {
		return nil, err
	}
	return buf, nil
}

func unmarshalECPrivateKey(der []byte) (*ecdsa.PrivateKey, error) {
	size := componentSize()
	if len(der) != 3*size {
		return nil, fmt.Errorf("invalid EC private key length %d, want %d", len(der), 3*size)
	}
	key := &ecdsa.PrivateKey{}
	key.PublicKey.Curve = Curve
	key.D = new(big.Int).SetBytes(der[0:size])
	key.PublicKey.X = new(big.Int).SetBytes(der[size : 2*size])
	key.PublicKey.Y = new(big.Int).SetBytes(der[2*size : 3*size])
	return key, nil
}

func putFixed(dst []byte, n *big.Int) error {
	b := n.Bytes()
	if len(b) > len(dst) {
		return fmt.Errorf("value too large for %d-byte field", len(dst))
	}
	for i := range dst {
		dst[i] = 0
	}
	copy(dst[len(dst)-len(b):], b)
	return nil
}

func pemEncode(blockType string, der []byte) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: der})
}

func pemDecode(blockType string, data []byte) ([]byte, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found")
	}
	if block.Type != blockType {
		return nil, fmt.Errorf("unexpected PEM block type %q, want %q", block.Type, blockType)
	}
	return block.Bytes, nil
}
