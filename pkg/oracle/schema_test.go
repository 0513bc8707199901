// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package oracle

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinterlante1206/OracleScan/pkg/multicall"
)

// =============================================================================
// DefaultSchema Tests
// =============================================================================

func TestDefaultSchema(t *testing.T) {
	s := DefaultSchema()
	require.NoError(t, s.Validate())
	assert.Equal(t, DefaultContract, s.Contract)
	require.Len(t, s.Methods, 8)

	// Batch order is declaration order; price leads.
	assert.Equal(t, "price", s.Methods[0].Name)
	assert.Equal(t, OutputUint256, s.Methods[0].Output)
	assert.Equal(t, "VAULT_CONVERSION_SAMPLE", s.Methods[7].Name)
}

func TestDefaultSchema_Catalog(t *testing.T) {
	catalog, err := DefaultSchema().Catalog()
	require.NoError(t, err)
	assert.Equal(t, 8, catalog.Len())

	descs := catalog.Descriptors()
	require.Len(t, descs, 8)

	// Selectors are computed from the canonical signatures.
	price, ok := catalog.Resolve("price")
	require.True(t, ok)
	assert.Equal(t, "a035b1fe", hex.EncodeToString(price.CallData))
	assert.Equal(t, multicall.OutputUint256, price.Output)

	vault, ok := catalog.Resolve("VAULT")
	require.True(t, ok)
	assert.Equal(t, multicall.OutputAddress, vault.Output)
	assert.Len(t, vault.CallData, 4, "no-argument reads carry the bare selector")

	// All methods target the schema's contract.
	for _, d := range descs {
		assert.Equal(t, strings.ToLower(DefaultContract), d.Target.Hex())
	}
}

// =============================================================================
// Validate Tests
// =============================================================================

func TestSchema_Validate(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*Schema)
	}{
		{"zero version", func(s *Schema) { s.Version = 0 }},
		{"no contract", func(s *Schema) { s.Contract = "" }},
		{"bad contract", func(s *Schema) { s.Contract = "0x1234" }},
		{"no methods", func(s *Schema) { s.Methods = nil }},
		{"method without name", func(s *Schema) { s.Methods[0].Name = "" }},
		{"method without signature", func(s *Schema) { s.Methods[0].Signature = "" }},
		{"bad output type", func(s *Schema) { s.Methods[0].Output = "bytes32" }},
		{"duplicate method", func(s *Schema) { s.Methods[1].Name = s.Methods[0].Name }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := DefaultSchema()
			tc.mutate(&s)
			assert.Error(t, s.Validate())
		})
	}
}

// =============================================================================
// LoadSchema Tests
// =============================================================================

func TestLoadSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oracle.yaml")
	doc := `version: 1
contract: "0x6CAFE228eC0B0bC2D076577d56D35Fe704318f6d"
methods:
  - name: price
    signature: price()
    output: uint256
  - name: VAULT
    signature: VAULT()
    output: address
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	s, err := LoadSchema(path)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Version)
	require.Len(t, s.Methods, 2)
	assert.Equal(t, OutputAddress, s.Methods[1].Output)

	catalog, err := s.Catalog()
	require.NoError(t, err)
	assert.Equal(t, 2, catalog.Len())
}

func TestLoadSchema_MissingFile(t *testing.T) {
	_, err := LoadSchema(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadSchema_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("methods: [unclosed"), 0o644))

	_, err := LoadSchema(path)
	assert.Error(t, err)
}

func TestLoadSchema_InvalidSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invalid.yaml")
	doc := `version: 1
contract: "not-an-address"
methods:
  - name: price
    signature: price()
    output: uint256
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	_, err := LoadSchema(path)
	assert.Error(t, err)
}
