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
	"fmt"
)

// Aggregate3Signature is the canonical signature of the Multicall3 batch
// entry point. The struct argument is Call3{target, allowFailure, callData}.
const Aggregate3Signature = "aggregate3((address,bool,bytes)[])"

// Call3 is one sub-call inside an aggregate3 batch.
type Call3 struct {
	// Target is the contract the sub-call is addressed to.
	Target Address

	// AllowFailure controls revert propagation. When false, a reverting
	// sub-call reverts the whole aggregate call on the remote side.
	AllowFailure bool

	// CallData is the fully encoded sub-call (selector plus arguments).
	CallData []byte
}

// SubResult is one decoded slot of an aggregate3 response.
type SubResult struct {
	// Success is the per-call success flag reported by the multicall
	// contract.
	Success bool

	// ReturnData is the raw return payload of the sub-call. On failure it
	// carries the revert data, which may be empty.
	ReturnData []byte
}

// EncodeAggregate3 encodes the calldata for one aggregate3 invocation.
//
// Description:
//
//	Produces selector-prefixed calldata for
//	aggregate3((address,bool,bytes)[]) with the sub-calls laid out in
//	input order. Each tuple is dynamic (it contains bytes), so the array
//	region is a length word, one offset word per element, then the tuple
//	bodies.
//
// Inputs:
//
//	calls - Sub-calls in submission order. Must be non-empty; the caller
//	        (the batch aggregator) enforces that precondition.
//
// Outputs:
//
//	[]byte - Complete calldata ready for eth_call.
func EncodeAggregate3(calls []Call3) []byte {
	sel := Selector(Aggregate3Signature)

	// Tuple body: target word, allowFailure word, bytes-offset word,
	// bytes length word, padded payload.
	tupleSize := func(c Call3) int {
		return 4*WordSize + pad32(len(c.CallData))
	}

	total := 4 + WordSize + WordSize + len(calls)*WordSize
	for _, c := range calls {
		total += tupleSize(c)
	}

	out := make([]byte, 0, total)
	out = append(out, sel[:]...)

	// Single argument: offset of the array from the start of the
	// argument block.
	out = append(out, putWord(WordSize)...)

	// Array length.
	out = append(out, putWord(uint64(len(calls)))...)

	// Element offsets, relative to the first byte after the length word.
	offset := len(calls) * WordSize
	for _, c := range calls {
		out = append(out, putWord(uint64(offset))...)
		offset += tupleSize(c)
	}

	// Tuple bodies.
	for _, c := range calls {
		var target [WordSize]byte
		copy(target[WordSize-AddressLength:], c.Target[:])
		out = append(out, target[:]...)

		if c.AllowFailure {
			out = append(out, putWord(1)...)
		} else {
			out = append(out, putWord(0)...)
		}

		// Offset of the bytes field within the tuple (after three head
		// words).
		out = append(out, putWord(3*WordSize)...)
		out = append(out, putWord(uint64(len(c.CallData)))...)
		out = append(out, c.CallData...)
		if rem := len(c.CallData) % WordSize; rem != 0 {
			out = append(out, make([]byte, WordSize-rem)...)
		}
	}
	return out
}

// DecodeAggregate3 decodes an aggregate3 return payload into per-call
// result slots, preserving order.
//
// Description:
//
//	The payload is (bool,bytes)[]: an offset word, the array length, one
//	offset word per element (relative to the element area), then
//	(success, returnData) tuples. Every offset is bounds-checked so a
//	malformed node response surfaces as ErrTruncated instead of a panic.
//
// Outputs:
//
//	[]SubResult - One slot per sub-call, in submission order.
//	error - Non-nil if the payload is structurally invalid.
func DecodeAggregate3(data []byte) ([]SubResult, error) {
	arrayOff, err := uintAt(data, 0)
	if err != nil {
		return nil, fmt.Errorf("aggregate3 result: %w", err)
	}

	length, err := uintAt(data, arrayOff)
	if err != nil {
		return nil, fmt.Errorf("aggregate3 result: %w", err)
	}

	elems := arrayOff + WordSize
	results := make([]SubResult, 0, length)
	for i := 0; i < length; i++ {
		elemOff, err := uintAt(data, elems+i*WordSize)
		if err != nil {
			return nil, fmt.Errorf("aggregate3 result slot %d: %w", i, err)
		}
		tuple := elems + elemOff

		successWord, err := wordAt(data, tuple)
		if err != nil {
			return nil, fmt.Errorf("aggregate3 result slot %d: %w", i, err)
		}

		bytesOff, err := uintAt(data, tuple+WordSize)
		if err != nil {
			return nil, fmt.Errorf("aggregate3 result slot %d: %w", i, err)
		}

		payloadLen, err := uintAt(data, tuple+bytesOff)
		if err != nil {
			return nil, fmt.Errorf("aggregate3 result slot %d: %w", i, err)
		}
		start := tuple + bytesOff + WordSize
		if start+payloadLen > len(data) {
			return nil, fmt.Errorf("aggregate3 result slot %d: %w", i, ErrTruncated)
		}

		results = append(results, SubResult{
			Success:    successWord[WordSize-1] == 1,
			ReturnData: append([]byte(nil), data[start:start+payloadLen]...),
		})
	}
	return results, nil
}
