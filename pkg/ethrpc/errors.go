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
	"errors"
	"fmt"
)

// Sentinel errors for the connection layer.
var (
	// ErrDial indicates the WebSocket handshake with the node failed.
	// This covers DNS, TLS, and HTTP upgrade failures.
	ErrDial = errors.New("node dial failed")

	// ErrConnClosed indicates the connection closed while a call was in
	// flight or before it was submitted.
	ErrConnClosed = errors.New("connection closed")

	// ErrBadResponse indicates the node sent a frame that is not a valid
	// JSON-RPC response.
	ErrBadResponse = errors.New("malformed node response")
)

// RPCError is a protocol-level error object returned by the node for one
// request.
//
// It is distinct from transport failures: the channel stayed healthy, the
// node just refused or failed the call (bad method, reverted execution,
// rate limiting).
type RPCError struct {
	// Code is the JSON-RPC error code.
	Code int `json:"code"`

	// Message is the node's human-readable error message.
	Message string `json:"message"`

	// Data carries optional structured detail (revert data, for example).
	Data string `json:"data,omitempty"`
}

// Error returns a formatted error message.
func (e *RPCError) Error() string {
	if e.Data != "" {
		return fmt.Sprintf("rpc error %d: %s (data: %s)", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}
