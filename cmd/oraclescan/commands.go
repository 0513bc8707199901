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
	"time"

	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	schemaPath      string // Path to a YAML catalogue overriding the built-in schema
	oracleAddress   string // Oracle contract override
	jsonOutput      bool   // Emit the report as JSON
	allowFailure    bool   // Per-call failure semantics instead of all-or-nothing
	noBatch         bool   // Issue individual calls instead of one multicall
	strictTelemetry bool   // Treat telemetry init failure as fatal
	logLevel        string // Minimum log level
	logJSON         bool   // JSON log lines on stderr
	queryTimeout    time.Duration

	rootCmd = &cobra.Command{
		Use:   "oraclescan",
		Short: "Query an on-chain state oracle in one traced, batched round trip",
		Long: `OracleScan reads every method of an oracle's call catalogue through
a single Multicall round trip over one persistent WebSocket connection,
and exports distributed-tracing spans for the whole run to an OTLP
collector.`,
		SilenceUsage: true,
	}

	// queryCmd drives one full batched read of the oracle catalogue.
	//
	// # Examples
	//
	//	oraclescan query                      # Built-in catalogue, text report
	//	oraclescan query --json               # Machine-readable report
	//	oraclescan query --schema feeds.yaml  # Alternative catalogue
	//	oraclescan query --no-batch           # Equivalence mode, N round trips
	//
	// # Assumptions
	//
	//   - RPC_ENDPOINT points at a WebSocket JSON-RPC node
	//   - COLLECTOR_ENDPOINT points at an OTLP/gRPC receiver (optional;
	//     without it tracing degrades to disabled)
	queryCmd = &cobra.Command{
		Use:   "query",
		Short: "Read the full oracle catalogue in one batched round trip",
		RunE:  runQueryCommand,
	}
)

func init() {
	queryCmd.Flags().StringVar(&schemaPath, "schema", "",
		"Path to a YAML call catalogue (default: built-in oracle schema)")
	queryCmd.Flags().StringVar(&oracleAddress, "oracle", "",
		"Oracle contract address override")
	queryCmd.Flags().BoolVar(&jsonOutput, "json", false,
		"Output the report as JSON for scripting")
	queryCmd.Flags().BoolVar(&allowFailure, "allow-failure", false,
		"Return per-call failures instead of failing the whole batch")
	queryCmd.Flags().BoolVar(&noBatch, "no-batch", false,
		"Issue one call per method instead of a single multicall (equivalence mode)")
	queryCmd.Flags().BoolVar(&strictTelemetry, "strict-telemetry", false,
		"Treat telemetry initialization failure as fatal")
	queryCmd.Flags().StringVar(&logLevel, "log-level", "info",
		"Minimum log level (debug, info, warn, error)")
	queryCmd.Flags().BoolVar(&logJSON, "log-json", false,
		"Write log lines as JSON")
	queryCmd.Flags().DurationVar(&queryTimeout, "timeout", 30*time.Second,
		"Deadline for the whole connect-and-query run")

	rootCmd.AddCommand(queryCmd)
}
