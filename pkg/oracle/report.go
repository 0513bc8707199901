// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package oracle

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jinterlante1206/OracleScan/pkg/multicall"
)

// Report is the consumable outcome of one oracle query run.
type Report struct {
	// Endpoint is the node the values were read from.
	Endpoint string `json:"endpoint"`

	// Contract is the oracle address that was queried.
	Contract string `json:"contract"`

	// Values are the decoded reads, in catalogue order.
	Values []ReportValue `json:"values"`
}

// ReportValue is one method's decoded result in presentation form.
type ReportValue struct {
	// Method is the catalogue name.
	Method string `json:"method"`

	// Type is the ABI type of the value.
	Type string `json:"type"`

	// Value is the decoded value rendered as a string: decimal for
	// uint256, 0x-hex for address. Empty when Error is set.
	Value string `json:"value,omitempty"`

	// Error carries the per-slot failure in allow-failure mode.
	Error string `json:"error,omitempty"`
}

// NewReport converts a batch result into a report.
func NewReport(endpoint, contract string, result *multicall.Result) Report {
	r := Report{Endpoint: endpoint, Contract: contract}
	for _, v := range result.Values {
		rv := ReportValue{Method: v.Method, Type: v.Kind.String()}
		switch {
		case v.Err != nil:
			rv.Error = v.Err.Error()
		case v.Kind == multicall.OutputAddress:
			rv.Value = v.Address.Hex()
		default:
			rv.Value = v.Uint.String()
		}
		r.Values = append(r.Values, rv)
	}
	return r
}

// Text renders the report for humans, one aligned line per method.
func (r Report) Text() string {
	width := 0
	for _, v := range r.Values {
		if len(v.Method) > width {
			width = len(v.Method)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "oracle %s via %s\n", r.Contract, r.Endpoint)
	for _, v := range r.Values {
		if v.Error != "" {
			fmt.Fprintf(&b, "  %-*s  <failed: %s>\n", width, v.Method, v.Error)
			continue
		}
		fmt.Fprintf(&b, "  %-*s  %s\n", width, v.Method, v.Value)
	}
	return b.String()
}

// JSON renders the report as indented JSON for scripting.
func (r Report) JSON() (string, error) {
	raw, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}
	return string(raw), nil
}
