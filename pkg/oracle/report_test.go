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
	"encoding/json"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinterlante1206/OracleScan/pkg/abi"
	"github.com/jinterlante1206/OracleScan/pkg/multicall"
)

func sampleResult(t *testing.T) *multicall.Result {
	t.Helper()
	vault, err := abi.ParseAddress("0x6CAFE228eC0B0bC2D076577d56D35Fe704318f6d")
	require.NoError(t, err)

	return &multicall.Result{Values: []multicall.Value{
		{Method: "price", Kind: multicall.OutputUint256, Uint: big.NewInt(123456789)},
		{Method: "VAULT", Kind: multicall.OutputAddress, Address: vault},
		{Method: "SCALE_FACTOR", Kind: multicall.OutputUint256, Err: errors.New("execution reverted")},
	}}
}

func TestNewReport(t *testing.T) {
	r := NewReport("wss://node.example", DefaultContract, sampleResult(t))
	assert.Equal(t, "wss://node.example", r.Endpoint)
	assert.Equal(t, DefaultContract, r.Contract)
	require.Len(t, r.Values, 3)

	assert.Equal(t, "price", r.Values[0].Method)
	assert.Equal(t, "uint256", r.Values[0].Type)
	assert.Equal(t, "123456789", r.Values[0].Value)
	assert.Empty(t, r.Values[0].Error)

	assert.Equal(t, "address", r.Values[1].Type)
	assert.Equal(t, "0x6cafe228ec0b0bc2d076577d56d35fe704318f6d", r.Values[1].Value)

	assert.Empty(t, r.Values[2].Value)
	assert.Equal(t, "execution reverted", r.Values[2].Error)
}

func TestReport_Text(t *testing.T) {
	text := NewReport("wss://node.example", DefaultContract, sampleResult(t)).Text()

	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	require.Len(t, lines, 4, "header plus one line per method")
	assert.Contains(t, lines[0], DefaultContract)
	assert.Contains(t, lines[0], "wss://node.example")
	assert.Contains(t, lines[1], "price")
	assert.Contains(t, lines[1], "123456789")
	assert.Contains(t, lines[3], "<failed: execution reverted>")

	// Values line up in one column.
	valueCol := strings.Index(lines[1], "123456789")
	assert.Equal(t, valueCol, strings.Index(lines[2], "0x6cafe"))
}

func TestReport_JSON(t *testing.T) {
	rendered, err := NewReport("wss://node.example", DefaultContract, sampleResult(t)).JSON()
	require.NoError(t, err)

	var decoded Report
	require.NoError(t, json.Unmarshal([]byte(rendered), &decoded))
	require.Len(t, decoded.Values, 3)
	assert.Equal(t, "123456789", decoded.Values[0].Value)
	assert.Equal(t, "execution reverted", decoded.Values[2].Error)
}
