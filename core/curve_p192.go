package core

import (
	"crypto/elliptic"
	"math/big"
	"sync"
)

// p192 builds the NIST P-192 curve parameters. Go's standard library
// dropped P-192 (crypto/elliptic only ships P-224 and up, since 96-bit
// security is considered too weak for production use), but spec.md's
// 48-byte address (2 * 24-byte coordinates) only matches P-192, so the
// curve is reconstructed here from its published domain parameters, the
// way libraries that still support legacy 192-bit curves do. It is
// exposed as the declared, overridable core.Curve parameter per
// SPEC_FULL.md's resolution of the curve Open Question.
var p192Once sync.Once
var p192Params *elliptic.CurveParams

func p192() elliptic.Curve {
	p192Once.Do(func() {
		p192Params = &elliptic.CurveParams{Name: "P-192"}
		p192Params.P, _ = new(big.Int).SetString("fffffffffffffffffffffffffffffffeffffffffffffffff", 16)
		p192Params.N, _ = new(big.Int).SetString("ffffffffffffffffffffffff99def836146bc9b1b4d22831", 16)
		p192Params.B, _ = new(big.Int).SetString("64210519e59c80e70fa7e9ab72243049feb8deecc146b9b1", 16)
		p192Params.Gx, _ = new(big.Int).SetString("188da80eb03090f67cbf20eb43a18800f4ff0afd82ff1012", 16)
		p192Params.Gy, _ = new(big.Int).SetString("07192b95ffc8da78631011ed6b24cdd573f977a11e794803", 16)
		p192Params.BitSize = 192
	})
	return p192Params
}
