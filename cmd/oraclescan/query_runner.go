// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/jinterlante1206/OracleScan/pkg/abi"
	"github.com/jinterlante1206/OracleScan/pkg/ethrpc"
	"github.com/jinterlante1206/OracleScan/pkg/logging"
	"github.com/jinterlante1206/OracleScan/pkg/multicall"
	"github.com/jinterlante1206/OracleScan/pkg/oracle"
	"github.com/jinterlante1206/OracleScan/pkg/telemetry"
)

// QueryConfig carries everything one query run needs.
type QueryConfig struct {
	// NodeEndpoint is the WebSocket JSON-RPC node URL.
	NodeEndpoint string

	// OracleAddress optionally overrides the schema's contract address.
	OracleAddress string

	// SchemaPath optionally loads a YAML catalogue instead of the
	// built-in schema.
	SchemaPath string

	// Telemetry configures the trace pipeline.
	Telemetry telemetry.Config

	// MetricsExporter selects the run-metrics exporter: "stdout" or
	// "none".
	MetricsExporter string

	// StrictTelemetry promotes telemetry init failure to a fatal error.
	// Default is the isolation policy: warn and run without tracing.
	StrictTelemetry bool

	// AllowFailure selects per-call failure semantics for the batch.
	AllowFailure bool

	// NoBatch issues one call per method instead of a single multicall.
	// Output is identical; round-trip count is not.
	NoBatch bool

	// JSONOutput renders the report as JSON instead of text.
	JSONOutput bool

	// Timeout bounds the whole connect-and-query run.
	Timeout time.Duration
}

// queryState names the orchestrator's lifecycle states.
type queryState string

const (
	stateStart             queryState = "start"
	stateTracerInitialized queryState = "tracer_initialized"
	stateConnected         queryState = "connected"
	stateBatchIssued       queryState = "batch_issued"
	stateReported          queryState = "reported"
	stateDone              queryState = "done"
	stateErrored           queryState = "errored"
)

// nodeConn is the slice of the connection the runner needs; *ethrpc.Conn
// satisfies it and tests substitute a fake.
type nodeConn interface {
	multicall.ContractCaller
	RoundTrips() uint64
	Close() error
}

// QueryRunner drives one batched oracle read from tracer init to report.
//
// The runner owns the connection and the trace pipeline for the process
// lifetime; nothing else mutates them.
type QueryRunner struct {
	cfg QueryConfig
	log *logging.Logger
	out io.Writer

	// dial is swapped out by tests.
	dial func(ctx context.Context, endpoint string, log *logging.Logger) (nodeConn, error)

	state queryState
}

// NewQueryRunner builds a runner writing its report to out.
func NewQueryRunner(cfg QueryConfig, log *logging.Logger, out io.Writer) *QueryRunner {
	if log == nil {
		log = logging.Default()
	}
	return &QueryRunner{
		cfg: cfg,
		log: log,
		out: out,
		dial: func(ctx context.Context, endpoint string, log *logging.Logger) (nodeConn, error) {
			return ethrpc.Dial(ctx, endpoint, log)
		},
		state: stateStart,
	}
}

// transition advances the state machine, logging each edge.
func (r *QueryRunner) transition(next queryState) {
	r.log.Debug("state transition", "from", string(r.state), "to", string(next))
	r.state = next
}

// fail records the terminal Errored state and returns the cause.
func (r *QueryRunner) fail(span trace.Span, err error) error {
	telemetry.RecordError(span, err)
	r.transition(stateErrored)
	return err
}

// Run executes the full state machine:
//
//	Start → TracerInitialized → Connected → BatchIssued → Reported → Done
//
// Description:
//
//	Initializes tracing (non-fatal unless strict), dials the node,
//	builds the catalogue, issues the batch inside a child span of the
//	run's root span, prints the report, then flushes spans within the
//	bounded shutdown timeout. Telemetry failures anywhere degrade to
//	warnings; connect and batch failures are fatal and become the
//	process's non-zero exit.
func (r *QueryRunner) Run(ctx context.Context) error {
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	// Start → TracerInitialized. Failure is fatal only under strict
	// telemetry; the default is to run untraced.
	pipeline, err := telemetry.Init(ctx, r.cfg.Telemetry)
	if err != nil {
		if r.cfg.StrictTelemetry {
			r.transition(stateErrored)
			return fmt.Errorf("telemetry init (strict): %w", err)
		}
		r.log.Warn("telemetry disabled, continuing untraced", "error", err)
		pipeline = telemetry.Disabled()
	}
	r.transition(stateTracerInitialized)

	metrics, err := telemetry.NewMetrics(r.cfg.MetricsExporter)
	if err != nil {
		r.log.Warn("run metrics disabled", "error", err)
		metrics, _ = telemetry.NewMetrics("none")
	}

	invocationID := uuid.NewString()
	r.log.Info("starting oracle query",
		"invocation_id", invocationID,
		"endpoint", r.cfg.NodeEndpoint,
		"auth_mode", pipeline.AuthMode().String(),
		"credential_present", r.cfg.Telemetry.Credential != "",
	)

	ctx, root := pipeline.StartSpan(ctx, "oraclescan.query",
		trace.WithAttributes(
			attribute.String("invocation.id", invocationID),
			attribute.String("node.endpoint", r.cfg.NodeEndpoint),
		),
	)
	// Deferred LIFO: the root span must end before the pipelines flush.
	defer r.flush(pipeline, metrics)
	defer root.End()

	// TracerInitialized → Connected.
	conn, err := r.dial(ctx, r.cfg.NodeEndpoint, r.log)
	if err != nil {
		return r.fail(root, err)
	}
	defer conn.Close()
	r.transition(stateConnected)

	// Connected → BatchIssued.
	schema, err := r.loadSchema()
	if err != nil {
		return r.fail(root, err)
	}
	catalog, err := schema.Catalog()
	if err != nil {
		return r.fail(root, err)
	}
	descs := catalog.Descriptors()

	root.AddEvent("starting multicall aggregate")
	result, err := r.readCatalogue(ctx, pipeline, conn, catalog, descs)
	if err != nil {
		return r.fail(root, err)
	}
	r.transition(stateBatchIssued)

	metrics.RecordBatchSize(ctx, int64(len(descs)))
	metrics.RecordRoundTrips(ctx, int64(conn.RoundTrips()))
	annotateResult(root, result)
	root.AddEvent("multicall completed successfully")

	// BatchIssued → Reported.
	report := oracle.NewReport(r.cfg.NodeEndpoint, schema.Contract, result)
	if err := r.emit(report); err != nil {
		return r.fail(root, err)
	}
	r.transition(stateReported)

	r.log.Info("oracle query complete",
		"methods", len(descs),
		"round_trips", conn.RoundTrips(),
	)

	// Reported → Done. The deferred flush and span end run on return.
	r.transition(stateDone)
	return nil
}

// readCatalogue issues the reads, batched or not.
func (r *QueryRunner) readCatalogue(ctx context.Context, pipeline *telemetry.Pipeline, conn nodeConn, catalog *multicall.Catalog, descs []multicall.Descriptor) (*multicall.Result, error) {
	if r.cfg.NoBatch {
		return r.readUnbatched(ctx, pipeline, conn, descs)
	}

	agg := multicall.NewAggregator(conn, catalog,
		multicall.WithTracer(pipeline.Tracer()))

	var opts []multicall.CallOption
	if r.cfg.AllowFailure {
		opts = append(opts, multicall.WithAllowFailure())
	}
	return agg.Aggregate(ctx, descs, opts...)
}

// readUnbatched issues one call per descriptor, concurrently, and
// reassembles the results in catalogue order. Functionally equivalent to
// the batched path; costs N round trips instead of one.
func (r *QueryRunner) readUnbatched(ctx context.Context, pipeline *telemetry.Pipeline, conn nodeConn, descs []multicall.Descriptor) (*multicall.Result, error) {
	ctx, span := pipeline.StartSpan(ctx, "oracle.read_unbatched",
		trace.WithAttributes(attribute.Int("batch.size", len(descs))))
	defer span.End()

	values := make([]multicall.Value, len(descs))
	g, ctx := errgroup.WithContext(ctx)
	for i, d := range descs {
		g.Go(func() error {
			raw, err := conn.CallContract(ctx, d.Target, d.CallData)
			if err != nil {
				return fmt.Errorf("read %s: %w", d.Method, err)
			}
			v, err := multicall.DecodeReturn(d, raw)
			if err != nil {
				return fmt.Errorf("read %s: %w", d.Method, err)
			}
			values[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return &multicall.Result{Values: values}, nil
}

// loadSchema resolves the catalogue source and applies the address
// override.
func (r *QueryRunner) loadSchema() (oracle.Schema, error) {
	schema := oracle.DefaultSchema()
	if r.cfg.SchemaPath != "" {
		loaded, err := oracle.LoadSchema(r.cfg.SchemaPath)
		if err != nil {
			return oracle.Schema{}, err
		}
		schema = loaded
	}
	if r.cfg.OracleAddress != "" {
		if _, err := abi.ParseAddress(r.cfg.OracleAddress); err != nil {
			return oracle.Schema{}, err
		}
		schema.Contract = r.cfg.OracleAddress
	}
	return schema, nil
}

// emit writes the report to the runner's output stream.
func (r *QueryRunner) emit(report oracle.Report) error {
	if r.cfg.JSONOutput {
		rendered, err := report.JSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(r.out, rendered)
		return err
	}
	_, err := fmt.Fprint(r.out, report.Text())
	return err
}

// flush closes out both telemetry lanes; failures here are warnings by
// contract, never a changed exit code.
func (r *QueryRunner) flush(pipeline *telemetry.Pipeline, metrics *telemetry.Metrics) {
	flushCtx := context.Background()
	if err := pipeline.Shutdown(flushCtx); err != nil {
		r.log.Warn("trace flush incomplete, spans dropped", "error", err)
	}
	if err := metrics.Shutdown(flushCtx); err != nil {
		r.log.Warn("metric flush incomplete", "error", err)
	}
}

// annotateResult mirrors the headline values onto the root span so a
// trace viewer shows the read's outcome without digging into logs.
func annotateResult(span trace.Span, result *multicall.Result) {
	for _, v := range result.Values {
		if v.Err != nil || v.Kind != multicall.OutputUint256 {
			continue
		}
		switch v.Method {
		case "price":
			span.SetAttributes(attribute.String("oracle.price", v.Uint.String()))
		case "SCALE_FACTOR":
			span.SetAttributes(attribute.String("oracle.scale_factor", v.Uint.String()))
		}
	}
}
