// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package oracle declares the call descriptor set for the remote state
// oracle.
//
// The callable surface of the oracle contract is data, not code: a
// versioned Schema lists method names, canonical signatures, and output
// types. The default schema ships built in; an alternative catalogue can
// be loaded from YAML with no generator step involved. Descriptors for
// the batch aggregator are derived from the schema, with selectors
// computed from the signatures at build time.
package oracle

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/jinterlante1206/OracleScan/pkg/abi"
	"github.com/jinterlante1206/OracleScan/pkg/multicall"
)

// DefaultContract is the oracle deployment the built-in schema targets: a
// Morpho-style vault price oracle composed of four feeds, a scale factor,
// and a vault conversion sample.
const DefaultContract = "0x6CAFE228eC0B0bC2D076577d56D35Fe704318f6d"

// OutputType names a supported single-word return type in schema files.
type OutputType string

const (
	// OutputUint256 is an unsigned 256-bit integer return.
	OutputUint256 OutputType = "uint256"

	// OutputAddress is a 20-byte address return.
	OutputAddress OutputType = "address"
)

// MethodSpec declares one read method of the oracle.
type MethodSpec struct {
	// Name is the catalogue key, conventionally the Solidity method name.
	Name string `yaml:"name" validate:"required"`

	// Signature is the canonical ABI signature, e.g. "price()".
	Signature string `yaml:"signature" validate:"required"`

	// Output is the declared return type: "uint256" or "address".
	Output OutputType `yaml:"output" validate:"required,oneof=uint256 address"`
}

// Schema is the versioned call descriptor set.
//
// Method order is significant: batches built from the schema submit calls
// in declaration order and results come back positionally.
type Schema struct {
	// Version lets catalogue files evolve without guessing.
	Version int `yaml:"version" validate:"required,min=1"`

	// Contract is the oracle address every method targets.
	Contract string `yaml:"contract" validate:"required"`

	// Methods are the callable reads, in batch submission order.
	Methods []MethodSpec `yaml:"methods" validate:"required,min=1,dive"`
}

// DefaultSchema returns the built-in catalogue for the default oracle
// deployment.
func DefaultSchema() Schema {
	return Schema{
		Version:  1,
		Contract: DefaultContract,
		Methods: []MethodSpec{
			{Name: "price", Signature: "price()", Output: OutputUint256},
			{Name: "BASE_FEED_1", Signature: "BASE_FEED_1()", Output: OutputAddress},
			{Name: "BASE_FEED_2", Signature: "BASE_FEED_2()", Output: OutputAddress},
			{Name: "QUOTE_FEED_1", Signature: "QUOTE_FEED_1()", Output: OutputAddress},
			{Name: "QUOTE_FEED_2", Signature: "QUOTE_FEED_2()", Output: OutputAddress},
			{Name: "SCALE_FACTOR", Signature: "SCALE_FACTOR()", Output: OutputUint256},
			{Name: "VAULT", Signature: "VAULT()", Output: OutputAddress},
			{Name: "VAULT_CONVERSION_SAMPLE", Signature: "VAULT_CONVERSION_SAMPLE()", Output: OutputUint256},
		},
	}
}

// LoadSchema reads a schema from a YAML file and validates it.
//
// Example file:
//
//	version: 1
//	contract: "0x6CAFE228eC0B0bC2D076577d56D35Fe704318f6d"
//	methods:
//	  - name: price
//	    signature: price()
//	    output: uint256
func LoadSchema(path string) (Schema, error) {
	var s Schema
	raw, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("read schema %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return s, fmt.Errorf("parse schema %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return s, fmt.Errorf("schema %s: %w", path, err)
	}
	return s, nil
}

// Validate checks the schema for structural problems: missing fields,
// malformed contract address, duplicate method names.
func (s Schema) Validate() error {
	if err := validator.New().Struct(s); err != nil {
		return fmt.Errorf("invalid schema: %w", err)
	}
	if _, err := abi.ParseAddress(s.Contract); err != nil {
		return fmt.Errorf("invalid schema: %w", err)
	}
	seen := make(map[string]bool, len(s.Methods))
	for _, m := range s.Methods {
		if seen[m.Name] {
			return fmt.Errorf("invalid schema: duplicate method %q", m.Name)
		}
		seen[m.Name] = true
	}
	return nil
}

// Catalog builds the aggregator's method catalog from the schema,
// computing each method's selector from its canonical signature.
func (s Schema) Catalog() (*multicall.Catalog, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	target, err := abi.ParseAddress(s.Contract)
	if err != nil {
		return nil, err
	}

	descs := make([]multicall.Descriptor, 0, len(s.Methods))
	for _, m := range s.Methods {
		sel := abi.Selector(m.Signature)
		descs = append(descs, multicall.Descriptor{
			Method:   m.Name,
			Target:   target,
			CallData: sel[:],
			Output:   outputKind(m.Output),
		})
	}
	return multicall.NewCatalog(descs...)
}

// outputKind maps the schema type name to the aggregator's tag. Validate
// has already rejected anything else.
func outputKind(t OutputType) multicall.OutputKind {
	if t == OutputAddress {
		return multicall.OutputAddress
	}
	return multicall.OutputUint256
}
