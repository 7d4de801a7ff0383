package core

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"math/big"
)

// Curve is the declared elliptic curve used for every key in the module.
// spec.md's 48-byte address only matches NIST P-192 (2 * 24-byte
// coordinates); the curve is a package variable rather than a constant so
// an operator can swap it, per SPEC_FULL.md §4.B.
var Curve elliptic.Curve = p192()

// Sha256 hashes data with SHA-256.
func Sha256(data ...[]byte) Hash {
	h := sha256.New()
	for _, d := range data {
		h.Write(d)
	}
	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}

// PrivateKey is an ECDSA signing key on the declared Curve.
type PrivateKey struct {
	key *ecdsa.PrivateKey
}

// GenerateKey creates a new random private key.
func GenerateKey() (*PrivateKey, error) {
	key, err := ecdsa.GenerateKey(Curve, rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return &PrivateKey{key: key}, nil
}

// Address returns the public address (raw uncompressed public key) derived
// from the private key.
func (p *PrivateKey) Address() Address {
	return addressFromPoint(p.key.PublicKey.X, p.key.PublicKey.Y)
}

func addressFromPoint(x, y *big.Int) Address {
	var addr Address
	half := AddressLen / 2
	xb := x.Bytes()
	yb := y.Bytes()
	copy(addr[half-len(xb):half], xb)
	copy(addr[AddressLen-len(yb):AddressLen], yb)
	return addr
}

// pointFromAddress recovers the public-key point from a raw address.
func pointFromAddress(addr Address) (x, y *big.Int) {
	half := AddressLen / 2
	x = new(big.Int).SetBytes(addr[:half])
	y = new(big.Int).SetBytes(addr[half:])
	return x, y
}

// Sign signs a 32-byte message hash, returning a raw r‖s signature.
func (p *PrivateKey) Sign(msg Hash) (Signature, error) {
	r, s, err := ecdsa.Sign(rand.Reader, p.key, msg[:])
	if err != nil {
		return nil, fmt.Errorf("sign: %w", err)
	}
	half := (Curve.Params().BitSize + 7) / 8
	sig := make([]byte, 2*half)
	rb, sb := r.Bytes(), s.Bytes()
	copy(sig[half-len(rb):half], rb)
	copy(sig[2*half-len(sb):2*half], sb)
	return sig, nil
}

// Verify checks a raw r‖s signature against a public address over msg.
func Verify(addr Address, msg Hash, sig Signature) bool {
	half := (Curve.Params().BitSize + 7) / 8
	if len(sig) != 2*half {
		return false
	}
	x, y := pointFromAddress(addr)
	pub := &ecdsa.PublicKey{Curve: Curve, X: x, Y: y}
	r := new(big.Int).SetBytes(sig[:half])
	s := new(big.Int).SetBytes(sig[half:])
	return ecdsa.Verify(pub, msg[:], r, s)
}

// MarshalPEM encodes the private key as a PEM block, for on-disk storage
// by Wallet (spec.md §6's private-key-file interface).
func (p *PrivateKey) MarshalPEM() ([]byte, error) {
	der, err := marshalECPrivateKey(p.key)
	if err != nil {
		return nil, err
	}
	return pemEncode("EC PRIVATE KEY", der), nil
}

// ParsePEM decodes a PEM-encoded private key on the declared Curve.
func ParsePEM(data []byte) (*PrivateKey, error) {
	der, err := pemDecode("EC PRIVATE KEY", data)
	if err != nil {
		return nil, err
	}
	key, err := unmarshalECPrivateKey(der)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{key: key}, nil
}
