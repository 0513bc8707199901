// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package multicall folds N independent read calls into one round trip.
//
// The aggregator encodes every descriptor into a single Multicall3
// aggregate3 invocation, submits it over the injected connection, and
// demultiplexes the combined response back into typed, order-correlated
// values. The efficiency contract is strict: one batch, one round trip,
// regardless of how many sub-calls it carries.
//
// # Failure Policy
//
// The remote contract natively reports per-call success flags. By default
// the aggregator treats the batch as all-or-nothing: the first failed flag
// fails the whole batch with a SubcallError naming the zero-based index,
// and no partial results escape. WithAllowFailure switches to the
// per-call-flags policy, where failed slots carry their own error and the
// batch as a whole succeeds.
package multicall

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/jinterlante1206/OracleScan/pkg/abi"
	"github.com/jinterlante1206/OracleScan/pkg/telemetry"
)

// DefaultContract is the canonical Multicall3 deployment address, identical
// across every major EVM network.
const DefaultContract = "0xcA11bde05977b3631167028862bE2a173976CA11"

// tracerName identifies this package's spans.
const tracerName = "oraclescan.multicall"

// ContractCaller is the read-only contract capability the aggregator needs
// from the connection layer.
type ContractCaller interface {
	// CallContract executes one read-only call and returns its raw
	// return data.
	CallContract(ctx context.Context, to abi.Address, data []byte) ([]byte, error)
}

// Aggregator batches read calls through a multicall contract.
//
// # Thread Safety
//
// Safe for concurrent use; all fields are set at construction and never
// mutated.
type Aggregator struct {
	caller   ContractCaller
	catalog  *Catalog
	contract abi.Address
	tracer   trace.Tracer
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithContract overrides the multicall contract address. The default is
// the canonical Multicall3 deployment.
func WithContract(addr abi.Address) Option {
	return func(a *Aggregator) { a.contract = addr }
}

// WithTracer wires the aggregator into an explicitly constructed trace
// pipeline so batch submissions appear as child spans of the caller's
// span. Without it the aggregator traces into a no-op tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(a *Aggregator) { a.tracer = tracer }
}

// NewAggregator builds an aggregator bound to one connection and one
// method catalog.
//
// Inputs:
//
//	caller - The connection capability. Referenced, not owned; the
//	         orchestrator keeps ownership of the connection lifecycle.
//	catalog - The descriptor set batches must resolve against.
//	opts - Optional contract address and tracer overrides.
func NewAggregator(caller ContractCaller, catalog *Catalog, opts ...Option) *Aggregator {
	contract, err := abi.ParseAddress(DefaultContract)
	if err != nil {
		// The constant is well-formed; this cannot fire outside of a
		// source edit.
		panic(err)
	}

	a := &Aggregator{
		caller:   caller,
		catalog:  catalog,
		contract: contract,
		tracer:   noop.NewTracerProvider().Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// CallOption configures one Aggregate invocation.
type CallOption func(*callOptions)

type callOptions struct {
	allowFailure bool
}

// WithAllowFailure switches the batch to per-call failure semantics:
// failed sub-calls yield a Value with Err set instead of failing the whole
// batch. The remote contract supports both policies; the default is
// all-or-nothing.
func WithAllowFailure() CallOption {
	return func(o *callOptions) { o.allowFailure = true }
}

// Aggregate submits one batch and returns its ordered, typed results.
//
// Description:
//
//	Validates the batch, encodes all descriptors into one aggregate3
//	payload, issues exactly one round trip through the connection, and
//	decodes the combined response positionally. The returned result
//	always has exactly len(descs) values, or the error is non-nil and no
//	result is returned at all.
//
// Inputs:
//
//	ctx - Cancels the round-trip wait.
//	descs - Ordered sub-calls. Must be non-empty and resolve against the
//	        aggregator's catalog.
//	opts - Per-invocation policy options.
//
// Outputs:
//
//	*Result - Ordered decoded values, nil on any error.
//	error - ErrEmptyBatch, *UnknownMethodError, *SubcallError, or a
//	        wrapped transport error from the connection layer.
func (a *Aggregator) Aggregate(ctx context.Context, descs []Descriptor, opts ...CallOption) (*Result, error) {
	if len(descs) == 0 {
		return nil, ErrEmptyBatch
	}

	var options callOptions
	for _, opt := range opts {
		opt(&options)
	}

	for _, d := range descs {
		if _, ok := a.catalog.Resolve(d.Method); !ok {
			return nil, &UnknownMethodError{Name: d.Method}
		}
	}

	ctx, span := a.tracer.Start(ctx, "multicall.aggregate",
		trace.WithAttributes(
			attribute.Int("batch.size", len(descs)),
			attribute.Bool("batch.allow_failure", options.allowFailure),
			attribute.String("multicall.contract", a.contract.Hex()),
		),
	)
	defer span.End()

	calls := make([]abi.Call3, len(descs))
	for i, d := range descs {
		calls[i] = abi.Call3{
			Target: d.Target,
			// The per-call flag is always requested so a failing index
			// can be identified; the all-or-nothing policy is enforced
			// locally when decoding.
			AllowFailure: true,
			CallData:     d.CallData,
		}
	}

	span.AddEvent("batch submitted")
	raw, err := a.caller.CallContract(ctx, a.contract, abi.EncodeAggregate3(calls))
	if err != nil {
		err = fmt.Errorf("submit batch: %w", err)
		telemetry.RecordError(span, err)
		return nil, err
	}

	subs, err := abi.DecodeAggregate3(raw)
	if err != nil {
		err = fmt.Errorf("decode batch response: %w", err)
		telemetry.RecordError(span, err)
		return nil, err
	}
	if len(subs) != len(descs) {
		err = fmt.Errorf("decode batch response: %w: %d slots for %d calls",
			abi.ErrTruncated, len(subs), len(descs))
		telemetry.RecordError(span, err)
		return nil, err
	}

	result := &Result{Values: make([]Value, len(descs))}
	for i, sub := range subs {
		if !sub.Success {
			subErr := &SubcallError{
				Index:  i,
				Method: descs[i].Method,
				Reason: revertReason(sub.ReturnData),
			}
			if !options.allowFailure {
				telemetry.RecordError(span, subErr)
				return nil, subErr
			}
			result.Values[i] = Value{Method: descs[i].Method, Kind: descs[i].Output, Err: subErr}
			continue
		}

		value, err := decodeValue(descs[i], sub.ReturnData)
		if err != nil {
			err = fmt.Errorf("decode slot %d (%s): %w", i, descs[i].Method, err)
			telemetry.RecordError(span, err)
			return nil, err
		}
		result.Values[i] = value
	}

	span.AddEvent("batch completed")
	return result, nil
}

// DecodeReturn decodes a single call's raw return data according to the
// descriptor's output tag.
//
// The batched path decodes internally; this is for the unbatched
// equivalence mode, where each descriptor is issued as its own call and
// the return data arrives one payload at a time.
func DecodeReturn(d Descriptor, data []byte) (Value, error) {
	return decodeValue(d, data)
}

// decodeValue decodes one successful slot according to its output tag.
func decodeValue(d Descriptor, data []byte) (Value, error) {
	v := Value{Method: d.Method, Kind: d.Output}
	switch d.Output {
	case OutputAddress:
		addr, err := abi.DecodeAddressWord(data)
		if err != nil {
			return Value{}, err
		}
		v.Address = addr
	case OutputUint256:
		n, err := abi.DecodeUint256Word(data)
		if err != nil {
			return Value{}, err
		}
		v.Uint = n
	default:
		return Value{}, fmt.Errorf("unsupported output kind %d", d.Output)
	}
	return v, nil
}

// revertReason renders revert data for a failed sub-call.
func revertReason(data []byte) string {
	if len(data) == 0 {
		return "execution reverted"
	}
	return "execution reverted: " + abi.BytesToHex(data)
}
