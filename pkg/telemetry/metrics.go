// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// meterName identifies this process's instruments.
const meterName = "oraclescan"

// Metrics holds the run's instruments.
//
// A one-shot CLI has no /metrics endpoint to scrape, so the exporter
// choices are "stdout" (dump on shutdown, useful when profiling batch
// behavior) and "none" (instruments recorded into a reader-less provider,
// effectively free).
type Metrics struct {
	provider   *sdkmetric.MeterProvider
	roundTrips metric.Int64Counter
	batchSize  metric.Int64Histogram
}

// NewMetrics builds the run's metric instruments.
//
// Inputs:
//
//	exporter - "stdout" or "none".
//
// Outputs:
//
//	*Metrics - The instruments handle. Caller must Shutdown it.
//	error - ErrUnknownExporter or a wrapped construction error.
func NewMetrics(exporter string) (*Metrics, error) {
	var opts []sdkmetric.Option
	switch exporter {
	case "none":
		// A provider with no reader records nothing.
	case "stdout":
		exp, err := stdoutmetric.New(stdoutmetric.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("stdout metric exporter: %w", err)
		}
		opts = append(opts, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownExporter, exporter)
	}

	provider := sdkmetric.NewMeterProvider(opts...)
	meter := provider.Meter(meterName)

	roundTrips, err := meter.Int64Counter("rpc.round_trips",
		metric.WithDescription("Request frames written to the node connection"))
	if err != nil {
		return nil, fmt.Errorf("round trip counter: %w", err)
	}

	batchSize, err := meter.Int64Histogram("multicall.batch_size",
		metric.WithDescription("Sub-calls folded into one aggregate round trip"))
	if err != nil {
		return nil, fmt.Errorf("batch size histogram: %w", err)
	}

	return &Metrics{
		provider:   provider,
		roundTrips: roundTrips,
		batchSize:  batchSize,
	}, nil
}

// RecordRoundTrips adds to the round-trip counter.
func (m *Metrics) RecordRoundTrips(ctx context.Context, n int64) {
	m.roundTrips.Add(ctx, n)
}

// RecordBatchSize records the size of one submitted batch.
func (m *Metrics) RecordBatchSize(ctx context.Context, n int64) {
	m.batchSize.Record(ctx, n)
}

// Shutdown flushes and stops the metric provider. Failures are for
// warn-level logging only, mirroring the trace pipeline's isolation rule.
func (m *Metrics) Shutdown(ctx context.Context) error {
	if err := m.provider.Shutdown(ctx); err != nil {
		return fmt.Errorf("metrics shutdown: %w", err)
	}
	return nil
}
