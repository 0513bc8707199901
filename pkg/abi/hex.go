// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package abi

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// HexToBytes decodes a 0x-prefixed hex string.
//
// The empty payload "0x" decodes to an empty (non-nil) slice, which is
// how JSON-RPC nodes represent calls that return no data.
func HexToBytes(s string) ([]byte, error) {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return nil, fmt.Errorf("%w: missing 0x prefix in %q", ErrBadHex, s)
	}
	raw, err := hex.DecodeString(s[2:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadHex, err)
	}
	if raw == nil {
		raw = []byte{}
	}
	return raw, nil
}

// BytesToHex encodes bytes as a 0x-prefixed lowercase hex string.
func BytesToHex(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}
