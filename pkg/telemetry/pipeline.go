// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package telemetry owns the distributed-tracing pipeline.
//
// The pipeline is an explicitly constructed handle, not ambient global
// state: Init returns a *Pipeline, the orchestrator passes it (or its
// tracer) to every component that opens spans, and Shutdown is the single
// flush point. Nothing in this package calls otel.SetTracerProvider.
//
// # Failure Isolation
//
// Telemetry must never take the business operation down with it. Init
// failures are reported so the caller can log and continue with
// Disabled(); export and shutdown failures are returned for warn-level
// logging and nothing more. The only errors Init produces are
// configuration errors — no collector connectivity is probed.
package telemetry

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
)

// tracerName identifies spans opened through the pipeline handle.
const tracerName = "oraclescan"

// Pipeline is the process-wide tracing handle.
//
// # Thread Safety
//
// Safe for concurrent use after Init returns.
type Pipeline struct {
	tracer          trace.Tracer
	provider        *sdktrace.TracerProvider
	authMode        AuthMode
	shutdownTimeout time.Duration
}

// Init builds the trace pipeline from configuration.
//
// Description:
//
//	Derives the auth mode once from the credential's presence, builds
//	the selected span exporter, and wires it behind a batch span
//	processor so export happens asynchronously off the business path.
//	The OTLP exporter connects lazily; Init fails only on malformed
//	configuration, never on collector unavailability.
//
// Inputs:
//
//	ctx - Initialization context. Must be non-nil.
//	cfg - Pipeline configuration; see Config.
//
// Outputs:
//
//	*Pipeline - The live handle. Caller owns it and must Shutdown it.
//	error - ErrNilContext, ErrMissingEndpoint, ErrUnknownExporter, or a
//	        wrapped validation/exporter-construction error.
func Init(ctx context.Context, cfg Config) (*Pipeline, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = DefaultServiceName
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	authMode := cfg.AuthMode()

	var exporter sdktrace.SpanExporter
	switch cfg.Exporter {
	case "none":
		p := Disabled()
		p.authMode = authMode
		return p, nil

	case "otlp":
		creds := grpc.WithTransportCredentials(credentials.NewTLS(&tls.Config{}))
		if cfg.Insecure {
			creds = grpc.WithTransportCredentials(insecure.NewCredentials())
		}
		conn, err := grpc.NewClient(cfg.CollectorEndpoint, creds)
		if err != nil {
			return nil, fmt.Errorf("collector client: %w", err)
		}

		opts := []otlptracegrpc.Option{otlptracegrpc.WithGRPCConn(conn)}
		if authMode == AuthBearer {
			opts = append(opts, otlptracegrpc.WithHeaders(map[string]string{
				"authorization": "Bearer " + cfg.Credential,
			}))
		}
		exporter, err = otlptracegrpc.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("otlp exporter: %w", err)
		}

	case "stdout":
		var err error
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("stdout exporter: %w", err)
		}

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownExporter, cfg.Exporter)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String(cfg.ServiceName)))
	if err != nil {
		return nil, fmt.Errorf("trace resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(sdktrace.NewBatchSpanProcessor(exporter)),
	)

	return &Pipeline{
		tracer:          provider.Tracer(tracerName),
		provider:        provider,
		authMode:        authMode,
		shutdownTimeout: cfg.ShutdownTimeout,
	}, nil
}

// Disabled returns a no-op pipeline.
//
// The orchestrator falls back to this when telemetry init fails and
// strictness is off: every span operation is valid and free, nothing is
// exported, and the business path is unaffected.
func Disabled() *Pipeline {
	return &Pipeline{
		tracer:          noop.NewTracerProvider().Tracer(tracerName),
		shutdownTimeout: DefaultShutdownTimeout,
	}
}

// newPipeline wraps an externally built provider. Tests use it to capture
// spans with in-memory processors.
func newPipeline(provider *sdktrace.TracerProvider) *Pipeline {
	return &Pipeline{
		tracer:          provider.Tracer(tracerName),
		provider:        provider,
		shutdownTimeout: DefaultShutdownTimeout,
	}
}

// Enabled reports whether spans are actually recorded and exported.
func (p *Pipeline) Enabled() bool {
	return p.provider != nil
}

// AuthMode returns the export authentication mode derived at Init.
func (p *Pipeline) AuthMode() AuthMode {
	return p.authMode
}

// Tracer returns the pipeline's tracer for components that open their own
// spans (context passing instead of a process global).
func (p *Pipeline) Tracer() trace.Tracer {
	return p.tracer
}

// StartSpan opens a span as a child of whatever span ctx carries.
//
// The returned context carries the new span; pass it down so nested
// operations parent correctly. The caller must End the span, exactly once.
func (p *Pipeline) StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return p.tracer.Start(ctx, name, opts...)
}

// Shutdown flushes all buffered spans to the collector.
//
// Description:
//
//	Blocks up to the configured shutdown timeout. On timeout or export
//	failure the remaining spans are dropped and the error is returned
//	for warn-level logging; callers must not treat it as fatal.
func (p *Pipeline) Shutdown(ctx context.Context) error {
	if p.provider == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, p.shutdownTimeout)
	defer cancel()
	if err := p.provider.Shutdown(ctx); err != nil {
		return fmt.Errorf("trace pipeline shutdown: %w", err)
	}
	return nil
}
