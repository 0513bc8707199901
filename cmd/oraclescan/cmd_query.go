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
	"os"

	"github.com/spf13/cobra"

	"github.com/jinterlante1206/OracleScan/pkg/logging"
	"github.com/jinterlante1206/OracleScan/pkg/telemetry"
)

// DefaultNodeEndpoint is the public node queried when RPC_ENDPOINT is not
// set.
const DefaultNodeEndpoint = "wss://ethereum-rpc.publicnode.com"

// getEnvOr returns the environment variable value or the fallback.
func getEnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// runQueryCommand assembles the runner from flags and environment and
// executes one query run.
//
// # Outputs
//
// The report goes to stdout; logs and diagnostics go to stderr. A non-nil
// return makes main exit 1 (the Errored terminal state); nil exits 0.
func runQueryCommand(cmd *cobra.Command, args []string) error {
	level, err := logging.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	log := logging.New(logging.Config{
		Level:   level,
		Service: "oraclescan",
		JSON:    logJSON,
	})

	// The --oracle flag wins over ORACLE_ADDRESS; both win over the schema.
	oracleOverride := oracleAddress
	if oracleOverride == "" {
		oracleOverride = os.Getenv("ORACLE_ADDRESS")
	}

	cfg := QueryConfig{
		NodeEndpoint:    getEnvOr("RPC_ENDPOINT", DefaultNodeEndpoint),
		OracleAddress:   oracleOverride,
		SchemaPath:      schemaPath,
		Telemetry:       telemetry.FromEnv(),
		MetricsExporter: getEnvOr("METRICS_EXPORTER", "none"),
		StrictTelemetry: strictTelemetry,
		AllowFailure:    allowFailure,
		NoBatch:         noBatch,
		JSONOutput:      jsonOutput,
		Timeout:         queryTimeout,
	}
	// Without a collector there is nothing to export to; degrade to
	// disabled instead of failing init on a missing endpoint.
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.Exporter = "none"
	}

	runner := NewQueryRunner(cfg, log, cmd.OutOrStdout())
	return runner.Run(context.Background())
}
