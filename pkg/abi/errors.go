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

import "errors"

// Sentinel errors for the ABI codec.
var (
	// ErrBadLength indicates a value had the wrong byte length for its type.
	ErrBadLength = errors.New("wrong byte length")

	// ErrDirtyPadding indicates padding bytes that must be zero were not.
	ErrDirtyPadding = errors.New("non-zero padding bytes")

	// ErrTruncated indicates a payload ended before a required word.
	ErrTruncated = errors.New("truncated payload")

	// ErrBadHex indicates a string was not 0x-prefixed even-length hex.
	ErrBadHex = errors.New("malformed hex string")
)
