package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/holiman/uint256"
)

// maxFeltHexDigits is the width of a 256-bit word in hex digits.
// Felts are below 2^252 so they always fit.
const maxFeltHexDigits = 64

var limbBound = new(uint256.Int).Lsh(uint256.NewInt(1), 128)

// ParseFelt parses a 0x-prefixed hex field element as returned by the node.
// Leading zeros are accepted.
func ParseFelt(s string) (*uint256.Int, error) {
	s = strings.TrimSpace(s)
	digits, ok := strings.CutPrefix(s, "0x")
	if !ok {
		digits, ok = strings.CutPrefix(s, "0X")
	}
	if !ok {
		return nil, fmt.Errorf("felt %q: missing 0x prefix", s)
	}

	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		return new(uint256.Int), nil
	}
	if len(digits) > maxFeltHexDigits {
		return nil, fmt.Errorf("felt %q: exceeds 256 bits", s)
	}

	v, err := uint256.FromHex("0x" + strings.ToLower(digits))
	if err != nil {
		return nil, fmt.Errorf("felt %q: %w", s, err)
	}
	return v, nil
}

// FormatFelt renders a felt in the canonical form used as a storage key: lowercase hex with
// a 0x prefix and no leading zeros ("0x0" for zero)
func FormatFelt(v *uint256.Int) string {
	if v == nil {
		return ZERO_ADDRESS
	}
	return v.Hex()
}

// NormalizeAddress converts any hex spelling of an address into its canonical form.
// Unparseable input is returned lowercased so that lookups stay deterministic.
func NormalizeAddress(address string) string {
	v, err := ParseFelt(address)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(address))
	}
	return FormatFelt(v)
}

// IsZeroAddress reports whether the canonical address is the mint/burn sentinel
func IsZeroAddress(address string) bool {
	return NormalizeAddress(address) == ZERO_ADDRESS
}

// Uint256FromLimbs rebuilds a Cairo Uint256 from its low and high 128-bit limbs
func Uint256FromLimbs(low, high *uint256.Int) (*uint256.Int, error) {
	if low == nil || high == nil {
		return nil, fmt.Errorf("%w: missing uint256 limb", ErrMalformedEvent)
	}
	if !low.Lt(limbBound) || !high.Lt(limbBound) {
		return nil, fmt.Errorf("%w: uint256 limb exceeds 128 bits", ErrMalformedEvent)
	}

	v := new(uint256.Int).Lsh(high, 128)
	return v.Or(v, low), nil
}

// Uint256Limbs splits a 256-bit value into the low and high limbs used as calldata
func Uint256Limbs(v *uint256.Int) (low, high *uint256.Int) {
	mask := new(uint256.Int).Sub(limbBound, uint256.NewInt(1))
	low = new(uint256.Int).And(v, mask)
	high = new(uint256.Int).Rsh(v, 128)
	return low, high
}

// ParseUint256 parses a decimal string as stored by the persistence layer
func ParseUint256(s string) (*uint256.Int, error) {
	if s == "" {
		return new(uint256.Int), nil
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("uint256 %q: %w", s, err)
	}
	return v, nil
}

// FeltToShortString decodes a Cairo short string: the felt's big-endian bytes with the
// leading NUL padding removed. Invalid UTF-8 decodes to "".
func FeltToShortString(v *uint256.Int) string {
	if v == nil {
		return ""
	}
	b := v.Bytes32()
	if !utf8.Valid(b[:]) {
		return ""
	}
	return strings.TrimLeft(string(b[:]), "\x00")
}
