// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package abi

import (
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Selector Tests
// =============================================================================

func TestSelector_KnownValues(t *testing.T) {
	// Selectors published on-chain pin the Keccak implementation down:
	// any digest change breaks these immediately.
	testCases := []struct {
		signature string
		expected  string
	}{
		{"price()", "a035b1fe"},
		{Aggregate3Signature, "82ad56cb"},
	}

	for _, tc := range testCases {
		t.Run(tc.signature, func(t *testing.T) {
			sel := Selector(tc.signature)
			assert.Equal(t, tc.expected, hex.EncodeToString(sel[:]))
		})
	}
}

// =============================================================================
// Address Tests
// =============================================================================

func TestParseAddress_RoundTrip(t *testing.T) {
	addr, err := ParseAddress("0x6CAFE228eC0B0bC2D076577d56D35Fe704318f6d")
	require.NoError(t, err)
	assert.Equal(t, "0x6cafe228ec0b0bc2d076577d56d35fe704318f6d", addr.Hex())
	assert.False(t, addr.IsZero())
}

func TestParseAddress_Invalid(t *testing.T) {
	testCases := []struct {
		name  string
		input string
	}{
		{"no prefix", "6cafe228ec0b0bc2d076577d56d35fe704318f6d"},
		{"too short", "0x6cafe2"},
		{"too long", "0x6cafe228ec0b0bc2d076577d56d35fe704318f6d00"},
		{"not hex", "0x6cafe228ec0b0bc2d076577d56d35fe704318fzz"},
		{"empty", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseAddress(tc.input)
			assert.Error(t, err)
		})
	}
}

func TestAddress_IsZero(t *testing.T) {
	assert.True(t, Address{}.IsZero())
}

// =============================================================================
// Word Decoding Tests
// =============================================================================

func TestDecodeAddressWord(t *testing.T) {
	word := make([]byte, WordSize)
	word[WordSize-1] = 0x6d
	word[WordSize-AddressLength] = 0x6c

	addr, err := DecodeAddressWord(word)
	require.NoError(t, err)
	assert.Equal(t, byte(0x6d), addr[AddressLength-1])
	assert.Equal(t, byte(0x6c), addr[0])
}

func TestDecodeAddressWord_DirtyPadding(t *testing.T) {
	word := make([]byte, WordSize)
	word[0] = 1 // must be zero for an address

	_, err := DecodeAddressWord(word)
	assert.ErrorIs(t, err, ErrDirtyPadding)
}

func TestDecodeAddressWord_BadLength(t *testing.T) {
	_, err := DecodeAddressWord([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrBadLength)
}

func TestDecodeUint256Word(t *testing.T) {
	word := make([]byte, WordSize)
	word[WordSize-1] = 42

	n, err := DecodeUint256Word(word)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(42), n)
}

func TestDecodeUint256Word_Empty(t *testing.T) {
	_, err := DecodeUint256Word(nil)
	assert.ErrorIs(t, err, ErrBadLength)
}

// =============================================================================
// Hex Tests
// =============================================================================

func TestHexToBytes(t *testing.T) {
	raw, err := HexToBytes("0x0102ff")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02, 0xff}, raw)
}

func TestHexToBytes_EmptyPayload(t *testing.T) {
	// Nodes answer "0x" for calls returning nothing.
	raw, err := HexToBytes("0x")
	require.NoError(t, err)
	assert.NotNil(t, raw)
	assert.Empty(t, raw)
}

func TestHexToBytes_Invalid(t *testing.T) {
	for _, input := range []string{"", "01ff", "0xzz", "0x123"} {
		_, err := HexToBytes(input)
		assert.ErrorIs(t, err, ErrBadHex, "input %q", input)
	}
}

func TestBytesToHex(t *testing.T) {
	assert.Equal(t, "0x01ff", BytesToHex([]byte{0x01, 0xff}))
	assert.Equal(t, "0x", BytesToHex(nil))
}
