package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFelt(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		expected  string
		expectErr bool
	}{
		{name: "canonical", input: "0x1a", expected: "0x1a"},
		{name: "leading zeros", input: "0x00000000001A", expected: "0x1a"},
		{name: "zero", input: "0x0", expected: "0x0"},
		{name: "all zeros", input: "0x0000", expected: "0x0"},
		{name: "missing prefix", input: "1a", expectErr: true},
		{name: "not hex", input: "0xzz", expectErr: true},
		{name: "too wide", input: "0x1" + strings.Repeat("0", 64), expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ParseFelt(tt.input)
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, FormatFelt(v))
		})
	}
}

func TestNormalizeAddress(t *testing.T) {
	assert.Equal(t, "0x49d36570d4e46f48e99674bd3fcc84644ddd6b96f7c741b1562b82f9e004dc7",
		NormalizeAddress("0x049D36570D4e46f48e99674bd3fcc84644DdD6b96F7C741B1562B82f9e004dC7"))
	assert.Equal(t, "not-an-address", NormalizeAddress(" NOT-AN-ADDRESS "))
	assert.True(t, IsZeroAddress("0x000"))
	assert.False(t, IsZeroAddress("0x1"))
}

func TestUint256FromLimbs(t *testing.T) {
	t.Run("low limb only", func(t *testing.T) {
		v, err := Uint256FromLimbs(uint256.NewInt(42), uint256.NewInt(0))
		require.NoError(t, err)
		assert.Equal(t, "42", v.Dec())
	})

	t.Run("high limb is shifted", func(t *testing.T) {
		v, err := Uint256FromLimbs(uint256.NewInt(1), uint256.NewInt(1))
		require.NoError(t, err)
		assert.Equal(t, "340282366920938463463374607431768211457", v.Dec())

		low, high := Uint256Limbs(v)
		assert.Equal(t, uint64(1), low.Uint64())
		assert.Equal(t, uint64(1), high.Uint64())
	})

	t.Run("limb overflow is malformed", func(t *testing.T) {
		overflow := new(uint256.Int).Lsh(uint256.NewInt(1), 128)
		_, err := Uint256FromLimbs(overflow, uint256.NewInt(0))
		assert.True(t, errors.Is(err, ErrMalformedEvent))
	})

	t.Run("missing limb is malformed", func(t *testing.T) {
		_, err := Uint256FromLimbs(uint256.NewInt(1), nil)
		assert.True(t, errors.Is(err, ErrMalformedEvent))
	})
}

func TestFeltToShortString(t *testing.T) {
	// "Starknet" as a short string
	v, err := ParseFelt("0x537461726b6e6574")
	require.NoError(t, err)
	assert.Equal(t, "Starknet", FeltToShortString(v))

	assert.Equal(t, "", FeltToShortString(uint256.NewInt(0)))
	assert.Equal(t, "", FeltToShortString(nil))

	// 0xff is not valid UTF-8
	assert.Equal(t, "", FeltToShortString(uint256.NewInt(0xff)))
}

func TestParseUint256(t *testing.T) {
	v, err := ParseUint256("340282366920938463463374607431768211457")
	require.NoError(t, err)
	assert.Equal(t, "0x100000000000000000000000000000001", v.Hex())

	zero, err := ParseUint256("")
	require.NoError(t, err)
	assert.True(t, zero.IsZero())

	_, err = ParseUint256("-1")
	assert.Error(t, err)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrTransport))
	assert.True(t, IsRetryable(errors.New("connection reset")))
	assert.False(t, IsRetryable(ErrMalformedEvent))
	assert.False(t, IsRetryable(ErrTokenNotFound))
	assert.False(t, IsRetryable(fmt.Errorf("%w: jsonb", ErrUnstorableValue)))
	assert.False(t, IsRetryable(nil))
}
