// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package multicall

import (
	"errors"
	"fmt"
)

// Sentinel errors for batch aggregation.
var (
	// ErrEmptyBatch indicates Aggregate was called with no descriptors.
	// No round trip is issued in that case.
	ErrEmptyBatch = errors.New("empty batch")

	// ErrDuplicateMethod indicates a catalog was built with two
	// descriptors sharing one method name.
	ErrDuplicateMethod = errors.New("duplicate method in catalog")
)

// UnknownMethodError indicates a descriptor in the batch does not resolve
// against the catalog the aggregator was built with.
type UnknownMethodError struct {
	// Name is the unresolved method name.
	Name string
}

// Error returns a formatted error message.
func (e *UnknownMethodError) Error() string {
	return fmt.Sprintf("unknown method %q", e.Name)
}

// SubcallError indicates one sub-call inside the batch failed on the
// remote side. Under the default all-or-nothing policy the whole batch
// fails with this error and no partial results are exposed.
type SubcallError struct {
	// Index is the zero-based position of the failed sub-call in the
	// submitted batch.
	Index int

	// Method is the method name of the failed sub-call.
	Method string

	// Reason describes the failure. For reverts with no revert data this
	// is a fixed "execution reverted" string.
	Reason string
}

// Error returns a formatted error message.
func (e *SubcallError) Error() string {
	return fmt.Sprintf("subcall %d (%s) failed: %s", e.Index, e.Method, e.Reason)
}
