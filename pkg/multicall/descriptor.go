// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package multicall

import (
	"math/big"

	"github.com/jinterlante1206/OracleScan/pkg/abi"
)

// OutputKind tags the decoded output type of one sub-call.
//
// The catalogue only contains read methods returning a single word, so two
// kinds cover it. Extending the catalogue to richer return types means
// adding kinds here and decode arms in decodeValue.
type OutputKind int

const (
	// OutputUint256 decodes the return word as an unsigned big integer.
	OutputUint256 OutputKind = iota

	// OutputAddress decodes the return word as a 20-byte address.
	OutputAddress
)

// String returns the ABI type name of the kind.
func (k OutputKind) String() string {
	switch k {
	case OutputUint256:
		return "uint256"
	case OutputAddress:
		return "address"
	default:
		return "unknown"
	}
}

// Descriptor describes one remote read call inside a batch.
//
// Descriptors are immutable once built: the aggregator only ever reads
// them. Order matters — results are demultiplexed positionally.
type Descriptor struct {
	// Method is the catalogue name of the call, e.g. "price".
	Method string

	// Target is the contract the call is addressed to.
	Target abi.Address

	// CallData is the encoded call (selector plus arguments; the oracle
	// catalogue's methods take no arguments, so this is the bare
	// selector).
	CallData []byte

	// Output selects how the return word is decoded.
	Output OutputKind
}

// Value is one decoded, order-correlated batch result slot.
type Value struct {
	// Method is the catalogue name the value belongs to.
	Method string

	// Kind tags which of the typed fields is populated.
	Kind OutputKind

	// Uint holds the decoded value for OutputUint256 slots.
	Uint *big.Int

	// Address holds the decoded value for OutputAddress slots.
	Address abi.Address

	// Err is only ever set in allow-failure mode, where a failed slot
	// carries its own error instead of failing the batch.
	Err error
}

// Result is the ordered outcome of one batch. Its length always equals the
// length of the submitted descriptor slice.
type Result struct {
	// Values are the decoded slots in submission order.
	Values []Value
}

// Catalog is the fixed set of callable methods a batch must resolve
// against.
//
// It replaces code generation from the contract interface: the schema
// package declares methods as plain data, builds descriptors from them,
// and registers them here.
type Catalog struct {
	methods map[string]Descriptor
	order   []string
}

// NewCatalog builds a catalog from descriptors, rejecting duplicates.
func NewCatalog(descs ...Descriptor) (*Catalog, error) {
	c := &Catalog{methods: make(map[string]Descriptor, len(descs))}
	for _, d := range descs {
		if _, dup := c.methods[d.Method]; dup {
			return nil, &catalogError{method: d.Method}
		}
		c.methods[d.Method] = d
		c.order = append(c.order, d.Method)
	}
	return c, nil
}

// Resolve looks a method up by name.
func (c *Catalog) Resolve(name string) (Descriptor, bool) {
	d, ok := c.methods[name]
	return d, ok
}

// Descriptors returns all catalog entries in registration order.
func (c *Catalog) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.methods[name])
	}
	return out
}

// Len returns the number of registered methods.
func (c *Catalog) Len() int {
	return len(c.order)
}

// catalogError wraps ErrDuplicateMethod with the offending name.
type catalogError struct {
	method string
}

func (e *catalogError) Error() string {
	return ErrDuplicateMethod.Error() + ": " + e.method
}

func (e *catalogError) Unwrap() error {
	return ErrDuplicateMethod
}
