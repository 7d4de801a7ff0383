package core

import (
	"fmt"
	"math/big"
)

// Amount is an arbitrary-precision, exact rational quantity of coin. It
// wraps math/big.Rat, the standard library's equivalent of the Python
// reference implementation's Decimal-based amounts: addition, comparison,
// and the transaction-id commitment all need exact values, never floats.
type Amount struct {
	r *big.Rat
}

// NewAmount builds an Amount from an integer number of coins.
func NewAmount(n int64) Amount {
	return Amount{r: new(big.Rat).SetInt64(n)}
}

// AmountFromRat wraps an existing rational value.
func AmountFromRat(r *big.Rat) Amount {
	return Amount{r: new(big.Rat).Set(r)}
}

// ZeroAmount is the additive identity.
var ZeroAmount = NewAmount(0)

func (a Amount) rat() *big.Rat {
	if a.r == nil {
		return new(big.Rat)
	}
	return a.r
}

// Add returns a+b.
func (a Amount) Add(b Amount) Amount {
	return Amount{r: new(big.Rat).Add(a.rat(), b.rat())}
}

// Sub returns a-b.
func (a Amount) Sub(b Amount) Amount {
	return Amount{r: new(big.Rat).Sub(a.rat(), b.rat())}
}

// Cmp compares a to b: -1, 0, or 1.
func (a Amount) Cmp(b Amount) int {
	return a.rat().Cmp(b.rat())
}

// Sign returns -1, 0, or 1 depending on the sign of a.
func (a Amount) Sign() int {
	return a.rat().Sign()
}

// IsNegative reports whether a < 0.
func (a Amount) IsNegative() bool {
	return a.Sign() < 0
}

// AsIntegerRatio returns the numerator and denominator of a in lowest
// terms, mirroring Python's Fraction.as_integer_ratio() used by
// original_source/transaction.py when committing amounts into a
// transaction id.
func (a Amount) AsIntegerRatio() (num, denom *big.Int) {
	r := a.rat()
	return new(big.Int).Set(r.Num()), new(big.Int).Set(r.Denom())
}

// String renders the exact decimal value when possible, otherwise a
// fraction "num/denom".
func (a Amount) String() string {
	r := a.rat()
	if dec, ok := exactDecimalString(r); ok {
		return dec
	}
	return r.RatString()
}

// MarshalJSON renders a as a bare decimal number when it terminates (the
// overwhelmingly common case for coin amounts), otherwise as a quoted
// "num/denom" string so no precision is lost.
func (a Amount) MarshalJSON() ([]byte, error) {
	r := a.rat()
	if dec, ok := exactDecimalString(r); ok {
		return []byte(dec), nil
	}
	return []byte(`"` + r.RatString() + `"`), nil
}

// UnmarshalJSON parses a from a JSON number, a decimal string, or a
// "num/denom" string.
func (a *Amount) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return fmt.Errorf("invalid amount %q", b)
	}
	a.r = r
	return nil
}

// exactDecimalString renders r as a terminating decimal (base-10 expansion
// with no remainder) if one exists, i.e. the denominator's prime factors
// are only 2 and 5.
func exactDecimalString(r *big.Rat) (string, bool) {
	denom := new(big.Int).Set(r.Denom())
	for denom.Bit(0) == 0 {
		denom.Rsh(denom, 1)
	}
	five := big.NewInt(5)
	for new(big.Int).Mod(denom, five).Sign() == 0 {
		denom.Div(denom, five)
	}
	if denom.Cmp(big.NewInt(1)) != 0 {
		return "", false
	}
	return r.FloatString(fracDigits(r)), true
}

// fracDigits returns the number of fractional digits needed to render r
// exactly, given its denominator only has prime factors 2 and 5: that is
// max(count of 2s, count of 5s), since each extra factor of the other
// prime is supplied by multiplying by 10 without adding a digit.
func fracDigits(r *big.Rat) int {
	denom := new(big.Int).Set(r.Denom())
	two, five := big.NewInt(2), big.NewInt(5)
	count2, count5 := 0, 0
	for new(big.Int).Mod(denom, two).Sign() == 0 {
		denom.Div(denom, two)
		count2++
	}
	for new(big.Int).Mod(denom, five).Sign() == 0 {
		denom.Div(denom, five)
		count5++
	}
	if count2 > count5 {
		return count2
	}
	return count5
}
