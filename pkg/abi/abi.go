// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package abi implements the minimal contract ABI codec OracleScan needs.
//
// This is deliberately NOT a general-purpose ABI library. The oracle
// catalogue only ever produces zero-argument read calls returning a single
// `address` or `uint256` word, and the only composite structure on the wire
// is the Multicall3 aggregate3 envelope. Encoding those by hand keeps the
// dependency surface small and the byte layout auditable.
//
// # Supported Shapes
//
//   - Method selectors (Keccak-256 of the canonical signature, first 4 bytes)
//   - Single-word outputs: address, uint256
//   - aggregate3((address,bool,bytes)[]) argument encoding
//   - (bool,bytes)[] result decoding
//
// # Limitations
//
//   - No tuple nesting beyond what aggregate3 requires
//   - No signed integers, strings, or fixed-size arrays
package abi

import (
	"fmt"
	"math/big"

	"golang.org/x/crypto/sha3"
)

// WordSize is the width of one ABI slot in bytes.
const WordSize = 32

// AddressLength is the byte length of a contract address.
const AddressLength = 20

// Address is a 20-byte contract or account address.
type Address [AddressLength]byte

// ParseAddress decodes a 0x-prefixed, 40-hex-digit address string.
//
// Inputs:
//
//	s - Address string, e.g. "0x6CAFE228eC0B0bC2D076577d56D35Fe704318f6d".
//	    Mixed case is accepted; checksum casing is not verified.
//
// Outputs:
//
//	Address - The decoded address.
//	error - Non-nil if the string is not a well-formed address.
func ParseAddress(s string) (Address, error) {
	var a Address
	raw, err := HexToBytes(s)
	if err != nil {
		return a, fmt.Errorf("parse address %q: %w", s, err)
	}
	if len(raw) != AddressLength {
		return a, fmt.Errorf("parse address %q: %w: got %d bytes, want %d",
			s, ErrBadLength, len(raw), AddressLength)
	}
	copy(a[:], raw)
	return a, nil
}

// Hex returns the 0x-prefixed lowercase hex form of the address.
func (a Address) Hex() string {
	return BytesToHex(a[:])
}

// IsZero reports whether the address is the zero address.
func (a Address) IsZero() bool {
	return a == Address{}
}

// String implements fmt.Stringer.
func (a Address) String() string {
	return a.Hex()
}

// Selector computes the 4-byte method selector for a canonical signature.
//
// The signature must be in canonical form with no spaces or parameter
// names, e.g. "price()" or "aggregate3((address,bool,bytes)[])".
// The selector is the first four bytes of the Keccak-256 digest.
func Selector(signature string) [4]byte {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(signature))
	var sel [4]byte
	copy(sel[:], h.Sum(nil)[:4])
	return sel
}

// DecodeAddressWord decodes a single 32-byte return word as an address.
//
// The top 12 bytes must be zero; anything else indicates the caller is
// decoding the wrong output type for the method.
func DecodeAddressWord(word []byte) (Address, error) {
	var a Address
	if len(word) != WordSize {
		return a, fmt.Errorf("decode address word: %w: got %d bytes", ErrBadLength, len(word))
	}
	for _, b := range word[:WordSize-AddressLength] {
		if b != 0 {
			return a, fmt.Errorf("decode address word: %w", ErrDirtyPadding)
		}
	}
	copy(a[:], word[WordSize-AddressLength:])
	return a, nil
}

// DecodeUint256Word decodes a single 32-byte return word as an unsigned
// big integer.
func DecodeUint256Word(word []byte) (*big.Int, error) {
	if len(word) != WordSize {
		return nil, fmt.Errorf("decode uint256 word: %w: got %d bytes", ErrBadLength, len(word))
	}
	return new(big.Int).SetBytes(word), nil
}

// putWord writes v into a fresh 32-byte big-endian word.
func putWord(v uint64) []byte {
	w := make([]byte, WordSize)
	for i := 0; v > 0; i++ {
		w[WordSize-1-i] = byte(v)
		v >>= 8
	}
	return w
}

// wordAt reads the 32-byte word at offset off, returning an error instead
// of panicking on truncated payloads.
func wordAt(data []byte, off int) ([]byte, error) {
	if off < 0 || off+WordSize > len(data) {
		return nil, fmt.Errorf("%w: word at offset %d, payload %d bytes", ErrTruncated, off, len(data))
	}
	return data[off : off+WordSize], nil
}

// uintAt reads the word at off as a non-negative int. Values that do not
// fit an int (absurd offsets from a malformed response) are rejected.
func uintAt(data []byte, off int) (int, error) {
	w, err := wordAt(data, off)
	if err != nil {
		return 0, err
	}
	v := new(big.Int).SetBytes(w)
	if !v.IsInt64() || v.Int64() < 0 || v.Int64() > int64(len(data)) {
		return 0, fmt.Errorf("%w: offset word %s out of range", ErrTruncated, v.String())
	}
	return int(v.Int64()), nil
}

// pad32 returns n rounded up to the next multiple of WordSize.
func pad32(n int) int {
	if n%WordSize == 0 {
		return n
	}
	return n + WordSize - n%WordSize
}
