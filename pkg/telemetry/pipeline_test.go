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
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// =============================================================================
// AuthMode Tests
// =============================================================================

func TestAuthMode_DerivedFromCredentialPresence(t *testing.T) {
	testCases := []struct {
		name       string
		credential string
		expected   AuthMode
	}{
		{"no credential", "", AuthNone},
		{"credential present", "s3cret-token", AuthBearer},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Credential = tc.credential
			assert.Equal(t, tc.expected, cfg.AuthMode())
		})
	}
}

func TestAuthMode_String(t *testing.T) {
	assert.Equal(t, "unauthenticated", AuthNone.String())
	assert.Equal(t, "bearer", AuthBearer.String())
	assert.Equal(t, "unknown", AuthMode(42).String())
}

// =============================================================================
// Config Tests
// =============================================================================

func TestFromEnv(t *testing.T) {
	t.Setenv("COLLECTOR_ENDPOINT", "collector.internal:4317")
	t.Setenv("COLLECTOR_CREDENTIAL", "tok")
	t.Setenv("SERVICE_NAME", "oracle-smoke")

	cfg := FromEnv()
	assert.Equal(t, "collector.internal:4317", cfg.CollectorEndpoint)
	assert.Equal(t, "tok", cfg.Credential)
	assert.Equal(t, "oracle-smoke", cfg.ServiceName)
	assert.Equal(t, AuthBearer, cfg.AuthMode())
}

func TestFromEnv_URLFormEndpoint(t *testing.T) {
	testCases := []struct {
		name         string
		endpoint     string
		wantEndpoint string
		wantInsecure bool
	}{
		{"bare host port", "collector:4317", "collector:4317", true},
		{"http scheme stripped", "http://collector:4317", "collector:4317", true},
		{"https selects TLS", "https://collector:4317", "collector:4317", false},
		{"trailing slash stripped", "http://collector:4317/", "collector:4317", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("COLLECTOR_ENDPOINT", tc.endpoint)
			t.Setenv("COLLECTOR_CREDENTIAL", "")
			t.Setenv("SERVICE_NAME", "")

			cfg := FromEnv()
			assert.Equal(t, tc.wantEndpoint, cfg.CollectorEndpoint)
			assert.Equal(t, tc.wantInsecure, cfg.Insecure)
			// The normalized form must satisfy validation either way.
			assert.NoError(t, cfg.Validate())
		})
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("COLLECTOR_ENDPOINT", "")
	t.Setenv("COLLECTOR_CREDENTIAL", "")
	t.Setenv("SERVICE_NAME", "")

	cfg := FromEnv()
	assert.Empty(t, cfg.CollectorEndpoint)
	assert.Equal(t, DefaultServiceName, cfg.ServiceName)
	assert.Equal(t, AuthNone, cfg.AuthMode())
}

func TestConfig_Validate(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"default with endpoint", func(c *Config) { c.CollectorEndpoint = "localhost:4317" }, nil},
		{"otlp without endpoint", func(c *Config) {}, ErrMissingEndpoint},
		{"none without endpoint", func(c *Config) { c.Exporter = "none" }, nil},
		{"stdout without endpoint", func(c *Config) { c.Exporter = "stdout" }, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateRejectsMalformedEndpoint(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CollectorEndpoint = "not a host port"
	assert.Error(t, cfg.Validate())
}

// =============================================================================
// Init Tests
// =============================================================================

func TestInit_NilContext(t *testing.T) {
	//nolint:staticcheck // the nil-context guard is the behavior under test
	_, err := Init(nil, DefaultConfig())
	assert.ErrorIs(t, err, ErrNilContext)
}

func TestInit_NoneExporter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Exporter = "none"
	cfg.Credential = "tok"

	p, err := Init(context.Background(), cfg)
	require.NoError(t, err)
	assert.False(t, p.Enabled())
	// Auth mode derivation happens even when nothing is exported.
	assert.Equal(t, AuthBearer, p.AuthMode())

	// Spans are valid no-ops.
	_, span := p.StartSpan(context.Background(), "noop")
	span.End()
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestInit_UnknownExporter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Exporter = "jaeger"
	_, err := Init(context.Background(), cfg)
	assert.Error(t, err)
}

func TestInit_OTLPMissingEndpoint(t *testing.T) {
	_, err := Init(context.Background(), DefaultConfig())
	assert.ErrorIs(t, err, ErrMissingEndpoint)
}

func TestInit_OTLPConnectsLazily(t *testing.T) {
	// No collector is listening; Init must still succeed because the
	// exporter connection is deferred until the first export.
	cfg := DefaultConfig()
	cfg.CollectorEndpoint = "localhost:4317"
	cfg.Credential = "tok"

	p, err := Init(context.Background(), cfg)
	require.NoError(t, err)
	assert.True(t, p.Enabled())
	assert.Equal(t, AuthBearer, p.AuthMode())

	// With no spans recorded, shutdown has nothing to export.
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestInit_TransportCredentialSelection(t *testing.T) {
	// Both transport modes must construct; the gRPC client is lazy, so
	// no collector needs to be listening.
	for _, insecureTransport := range []bool{true, false} {
		cfg := DefaultConfig()
		cfg.CollectorEndpoint = "localhost:4317"
		cfg.Insecure = insecureTransport

		p, err := Init(context.Background(), cfg)
		require.NoError(t, err, "insecure=%v", insecureTransport)
		assert.True(t, p.Enabled())
		assert.NoError(t, p.Shutdown(context.Background()))
	}
}

func TestShutdown_BoundedOnUnreachableCollector(t *testing.T) {
	// Nothing listens on port 1. A buffered span cannot export, so the
	// flush must fail within the configured bound instead of hanging.
	cfg := DefaultConfig()
	cfg.CollectorEndpoint = "127.0.0.1:1"
	cfg.ShutdownTimeout = 500 * time.Millisecond

	p, err := Init(context.Background(), cfg)
	require.NoError(t, err)

	_, span := p.StartSpan(context.Background(), "doomed")
	span.End()

	start := time.Now()
	err = p.Shutdown(context.Background())
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.Less(t, elapsed, 5*time.Second, "shutdown must respect its timeout")
}

func TestDisabled(t *testing.T) {
	p := Disabled()
	assert.False(t, p.Enabled())
	assert.Equal(t, AuthNone, p.AuthMode())

	ctx, span := p.StartSpan(context.Background(), "anything")
	assert.NotNil(t, ctx)
	span.End()
	assert.NoError(t, p.Shutdown(context.Background()))
}

// =============================================================================
// Span Plumbing Tests
// =============================================================================

func TestStartSpan_NestsUnderContextSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	p := newPipeline(provider)

	ctx, root := p.StartSpan(context.Background(), "oraclescan.query")
	_, child := p.StartSpan(ctx, "multicall.aggregate")
	child.End()
	root.End()
	require.NoError(t, p.Shutdown(context.Background()))

	ended := recorder.Ended()
	require.Len(t, ended, 2)

	var rootRO, childRO sdktrace.ReadOnlySpan
	for _, s := range ended {
		switch s.Name() {
		case "oraclescan.query":
			rootRO = s
		case "multicall.aggregate":
			childRO = s
		}
	}
	require.NotNil(t, rootRO)
	require.NotNil(t, childRO)

	assert.Equal(t, rootRO.SpanContext().TraceID(), childRO.SpanContext().TraceID(),
		"child must share the root's trace")
	assert.Equal(t, rootRO.SpanContext().SpanID(), childRO.Parent().SpanID(),
		"child must parent under the root span")

	// The child's lifetime is contained in the root's.
	assert.False(t, childRO.StartTime().Before(rootRO.StartTime()))
	assert.False(t, childRO.EndTime().After(rootRO.EndTime()))
	assert.True(t, childRO.EndTime().After(childRO.StartTime()))
}

func TestRecordError(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	p := newPipeline(provider)

	_, span := p.StartSpan(context.Background(), "failing")
	RecordError(span, errors.New("boom"))
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	require.Len(t, ended[0].Events(), 1)
	assert.Equal(t, "exception", ended[0].Events()[0].Name)
}

func TestRecordError_NilSafe(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordError(nil, errors.New("boom"))

		var span trace.Span
		RecordError(span, nil)
	})
}

// =============================================================================
// Metrics Tests
// =============================================================================

func TestNewMetrics_None(t *testing.T) {
	m, err := NewMetrics("none")
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordRoundTrips(ctx, 1)
	m.RecordBatchSize(ctx, 8)
	assert.NoError(t, m.Shutdown(ctx))
}

func TestNewMetrics_UnknownExporter(t *testing.T) {
	_, err := NewMetrics("prometheus")
	assert.ErrorIs(t, err, ErrUnknownExporter)
}
