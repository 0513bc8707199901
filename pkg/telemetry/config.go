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
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// DefaultServiceName identifies this process in exported traces when
// SERVICE_NAME is not set.
const DefaultServiceName = "oraclescan"

// DefaultShutdownTimeout bounds the final span flush.
const DefaultShutdownTimeout = 5 * time.Second

// AuthMode is the authentication strategy for outbound telemetry export.
//
// It is derived exactly once at startup from whether a credential is
// configured, and never changes for the process lifetime.
type AuthMode int

const (
	// AuthNone exports without authentication metadata.
	AuthNone AuthMode = iota

	// AuthBearer attaches the configured credential as bearer-style
	// metadata on the exporter's gRPC connection.
	AuthBearer
)

// String returns the human-readable name of the mode.
func (m AuthMode) String() string {
	switch m {
	case AuthNone:
		return "unauthenticated"
	case AuthBearer:
		return "bearer"
	default:
		return "unknown"
	}
}

// Config controls the trace pipeline.
//
// A zero value is not usable for OTLP export; use FromEnv or fill
// CollectorEndpoint explicitly. Exporter selection follows the usual
// convention: "otlp" for real export, "stdout" for local debugging,
// "none" to disable tracing entirely.
type Config struct {
	// CollectorEndpoint is the OTLP/gRPC receiver address,
	// host:port form. Required when Exporter is "otlp".
	CollectorEndpoint string `validate:"required_if=Exporter otlp,omitempty,hostname_port"`

	// Credential optionally authenticates export. Its mere presence
	// selects AuthBearer; its absence selects AuthNone.
	Credential string

	// ServiceName names this process in exported traces.
	// Defaults to DefaultServiceName.
	ServiceName string `validate:"required"`

	// Exporter selects the span exporter: "otlp", "stdout", or "none".
	Exporter string `validate:"oneof=otlp stdout none"`

	// Insecure disables TLS on the exporter connection. Collectors on a
	// local network commonly terminate without TLS.
	Insecure bool

	// ShutdownTimeout bounds the final flush on Shutdown.
	ShutdownTimeout time.Duration `validate:"min=0"`
}

// DefaultConfig returns the baseline configuration with no endpoint.
func DefaultConfig() Config {
	return Config{
		ServiceName:     DefaultServiceName,
		Exporter:        "otlp",
		Insecure:        true,
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

// FromEnv builds the pipeline configuration from process environment.
//
// Description:
//
//	Reads COLLECTOR_ENDPOINT (required for OTLP export),
//	COLLECTOR_CREDENTIAL (optional, selects bearer auth by presence),
//	and SERVICE_NAME (optional). The endpoint accepts both host:port
//	and URL form; a scheme prefix is stripped for the gRPC client, and
//	an https scheme additionally selects the TLS transport. This is the
//	single place environment is consulted for telemetry; the derivation
//	is pure and performs no network I/O.
func FromEnv() Config {
	cfg := DefaultConfig()

	endpoint := os.Getenv("COLLECTOR_ENDPOINT")
	if rest, ok := strings.CutPrefix(endpoint, "https://"); ok {
		endpoint = rest
		cfg.Insecure = false
	} else if rest, ok := strings.CutPrefix(endpoint, "http://"); ok {
		endpoint = rest
	}
	cfg.CollectorEndpoint = strings.TrimSuffix(endpoint, "/")

	cfg.Credential = os.Getenv("COLLECTOR_CREDENTIAL")
	if name := os.Getenv("SERVICE_NAME"); name != "" {
		cfg.ServiceName = name
	}
	return cfg
}

// AuthMode derives the export authentication mode from the credential's
// presence. Pure; called once during Init.
func (c Config) AuthMode() AuthMode {
	if c.Credential != "" {
		return AuthBearer
	}
	return AuthNone
}

// Validate checks the configuration for structural problems.
//
// Only malformed configuration fails here — connectivity to the collector
// is never probed.
func (c Config) Validate() error {
	if c.Exporter == "otlp" && c.CollectorEndpoint == "" {
		return ErrMissingEndpoint
	}
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("telemetry config: %w", err)
	}
	return nil
}
