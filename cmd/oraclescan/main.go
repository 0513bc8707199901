// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command oraclescan reads an on-chain state oracle in one batched round
// trip and traces the whole run to an OTLP collector.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Business failures (connect, batch) land here with their full
		// cause chain; telemetry failures never do.
		fmt.Fprintln(os.Stderr, "oraclescan:", err)
		os.Exit(1)
	}
}
