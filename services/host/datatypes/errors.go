// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import (
	"errors"
)

// Sentinel errors forming the host error taxonomy. Engines wrap these with
// detail; the bridge maps them to envelope messages, and transport errors
// stay distinguishable from business errors so the front-end can retry
// transparently instead of showing a validation message.
var (
	// ErrValidation is returned for bad arguments: empty invoice
	// selection, invalid rounding unit, missing required relation.
	ErrValidation = errors.New("validation error")

	// ErrConflict is returned on invariant violation, e.g. starting a
	// second timer while one is running.
	ErrConflict = errors.New("conflict")

	// ErrState is returned when an operation is invalid for the entity's
	// current state, e.g. stopping a non-running entry.
	ErrState = errors.New("invalid state")

	// ErrNotFound is returned for unknown ids.
	ErrNotFound = errors.New("not found")

	// ErrTransportUnavailable is returned when the bridge has no usable
	// connection. Maps to HTTP 503 at the gateway.
	ErrTransportUnavailable = errors.New("transport unavailable")

	// ErrTransportTimeout is returned when no response arrives within the
	// transport's bound.
	ErrTransportTimeout = errors.New("transport timeout")

	// ErrPersistence is returned on uniqueness or constraint violations
	// at the store.
	ErrPersistence = errors.New("persistence error")
)
