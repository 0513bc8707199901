// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ethrpc provides the persistent JSON-RPC connection to the remote
// node.
//
// One Conn is dialed at startup and used for the whole process lifetime.
// There is no pooling, no reconnect, and no retry: a failed dial or a
// mid-session transport error is surfaced once and the caller decides what
// to do with it (for the CLI, that is exit non-zero).
//
// Responses are correlated to requests by JSON-RPC id, so multiple
// goroutines may issue calls on one Conn concurrently; a single reader
// goroutine demultiplexes the incoming frames.
package ethrpc

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"github.com/jinterlante1206/OracleScan/pkg/logging"
)

// request is one outgoing JSON-RPC 2.0 request frame.
type request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

// response is one incoming JSON-RPC 2.0 response frame.
type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
}

// Conn is a long-lived WebSocket JSON-RPC connection.
//
// # Thread Safety
//
// Safe for concurrent use. Writes are serialized by a mutex; reads happen
// on one internal goroutine that routes responses to waiting callers by
// request id.
type Conn struct {
	ws  *websocket.Conn
	log *logging.Logger

	writeMu sync.Mutex

	pendingMu sync.Mutex
	pending   map[uint64]chan *response

	nextID     atomic.Uint64
	roundTrips atomic.Uint64

	closeOnce sync.Once
	closed    chan struct{}
	closeErr  error
}

// Dial opens the WebSocket connection to the node endpoint.
//
// Description:
//
//	Performs the WebSocket handshake and starts the response reader.
//	A failure here is a ConnectionError in the design taxonomy: DNS,
//	TLS, timeout, or upgrade rejection. Exactly one attempt is made.
//
// Inputs:
//
//	ctx - Governs the handshake only, not the connection lifetime.
//	endpoint - ws:// or wss:// node URL.
//	log - Logger for connection lifecycle events. May be nil.
//
// Outputs:
//
//	*Conn - The live connection. Caller owns it and must Close it.
//	error - Wraps ErrDial on any handshake failure.
func Dial(ctx context.Context, endpoint string, log *logging.Logger) (*Conn, error) {
	if log == nil {
		log = logging.Default()
	}

	ws, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDial, endpoint, err)
	}

	c := &Conn{
		ws:      ws,
		log:     log,
		pending: make(map[uint64]chan *response),
		closed:  make(chan struct{}),
	}
	go c.readLoop()

	log.Info("node connection established", "endpoint", endpoint)
	return c, nil
}

// Call issues one JSON-RPC request and decodes the result into result.
//
// Description:
//
//	Registers a pending slot for the request id, writes the frame, and
//	blocks until the matching response arrives, the context is done, or
//	the connection closes. A node-level error object is returned as an
//	*RPCError; transport breakage wraps ErrConnClosed.
//
// Inputs:
//
//	ctx - Cancels the wait (the request itself cannot be recalled).
//	result - Destination for the JSON result. May be nil to discard.
//	method - JSON-RPC method name, e.g. "eth_call".
//	params - Positional parameters, marshaled as given.
func (c *Conn) Call(ctx context.Context, result any, method string, params ...any) error {
	select {
	case <-c.closed:
		return fmt.Errorf("call %s: %w", method, c.closeReason())
	default:
	}

	id := c.nextID.Add(1)
	ch := make(chan *response, 1)

	c.pendingMu.Lock()
	c.pending[id] = ch
	c.pendingMu.Unlock()
	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, id)
		c.pendingMu.Unlock()
	}()

	req := request{JSONRPC: "2.0", ID: id, Method: method, Params: params}
	if req.Params == nil {
		req.Params = []any{}
	}

	c.writeMu.Lock()
	err := c.ws.WriteJSON(req)
	c.writeMu.Unlock()
	if err != nil {
		return fmt.Errorf("call %s: %w: %v", method, ErrConnClosed, err)
	}
	c.roundTrips.Add(1)

	select {
	case resp := <-ch:
		if resp.Error != nil {
			return fmt.Errorf("call %s: %w", method, resp.Error)
		}
		if result != nil {
			if err := json.Unmarshal(resp.Result, result); err != nil {
				return fmt.Errorf("call %s: %w: %v", method, ErrBadResponse, err)
			}
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("call %s: %w", method, ctx.Err())
	case <-c.closed:
		return fmt.Errorf("call %s: %w", method, c.closeReason())
	}
}

// RoundTrips returns the number of request frames written so far.
//
// The batch aggregator's efficiency contract (one round trip per batch,
// regardless of batch size) is asserted against this counter in tests.
func (c *Conn) RoundTrips() uint64 {
	return c.roundTrips.Load()
}

// Close tears the connection down and fails all in-flight calls.
//
// Safe to call more than once.
func (c *Conn) Close() error {
	c.shutdown(ErrConnClosed)
	return c.ws.Close()
}

// readLoop routes incoming frames to their pending callers.
func (c *Conn) readLoop() {
	for {
		_, frame, err := c.ws.ReadMessage()
		if err != nil {
			c.shutdown(fmt.Errorf("%w: %v", ErrConnClosed, err))
			return
		}

		var resp response
		if err := json.Unmarshal(frame, &resp); err != nil {
			// A frame we cannot parse at all leaves the stream
			// unsynchronized; treat it as a dead connection.
			c.shutdown(fmt.Errorf("%w: %v", ErrBadResponse, err))
			return
		}

		c.pendingMu.Lock()
		ch, ok := c.pending[resp.ID]
		c.pendingMu.Unlock()
		if !ok {
			c.log.Warn("dropping response with unknown id", "id", resp.ID)
			continue
		}
		ch <- &resp
	}
}

// shutdown marks the connection dead exactly once and records why.
func (c *Conn) shutdown(reason error) {
	c.closeOnce.Do(func() {
		c.closeErr = reason
		close(c.closed)
	})
}

// closeReason returns the recorded shutdown cause.
func (c *Conn) closeReason() error {
	select {
	case <-c.closed:
		if c.closeErr != nil {
			return c.closeErr
		}
		return ErrConnClosed
	default:
		return ErrConnClosed
	}
}
