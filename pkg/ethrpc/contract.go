// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ethrpc

import (
	"context"
	"fmt"

	"github.com/jinterlante1206/OracleScan/pkg/abi"
)

// callMsg is the eth_call parameter object. Only the fields a read-only
// call needs are populated.
type callMsg struct {
	To   string `json:"to"`
	Data string `json:"data"`
}

// CallContract executes a read-only contract call against the latest block.
//
// Description:
//
//	Wraps eth_call: encodes the target and calldata, issues one round
//	trip, and hex-decodes the return payload. State is never modified;
//	the node executes the call locally.
//
// Inputs:
//
//	ctx - Cancels the wait for the response.
//	to - Contract address.
//	data - Encoded calldata (selector plus arguments).
//
// Outputs:
//
//	[]byte - Raw return data. Empty for calls that return nothing.
//	error - *RPCError for node-level failures (including reverts
//	        surfaced by the node), ErrConnClosed wraps for transport
//	        failures.
func (c *Conn) CallContract(ctx context.Context, to abi.Address, data []byte) ([]byte, error) {
	var out string
	msg := callMsg{To: to.Hex(), Data: abi.BytesToHex(data)}
	if err := c.Call(ctx, &out, "eth_call", msg, "latest"); err != nil {
		return nil, err
	}

	raw, err := abi.HexToBytes(out)
	if err != nil {
		return nil, fmt.Errorf("eth_call return data: %w: %v", ErrBadResponse, err)
	}
	return raw, nil
}
