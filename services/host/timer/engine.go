// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package timer implements the single-active-timer engine.
//
// # State Machine
//
//	Idle → Running (start)
//	Running → Stopped (stop: endTime/duration set)
//	Stopped → Running (resume: clock restarts, prior raw seconds kept)
//
// # Resume Policy
//
// Resume is accumulating (ResumePolicyAccumulate): the raw seconds of the
// interval being left are stashed into the entry's AccumulatedSeconds and
// the start time resets to now. The next stop rounds the sum of all
// intervals, so no tracked work is discarded across pauses.
//
// # Rounding Policy
//
// Raw elapsed seconds truncate to whole minutes before rounding. The
// truncated minutes round half-up to the chosen unit, with a floor of one
// unit once rawMinutes exceeds zero: any nonzero work rounds to at least
// one unit, never down to zero.
//
// Thread Safety: Engine is stateless apart from the store; concurrent
// starts are resolved by the store's activation transaction.
package timer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/AleutianAI/ChronoLocal/services/host/datatypes"
	"github.com/AleutianAI/ChronoLocal/services/host/store"
)

// ResumePolicyAccumulate names the resume behavior this engine encodes:
// elapsed time before a resume accumulates into the eventual duration.
const ResumePolicyAccumulate = "accumulate"

// RoundingUnits is the closed set of valid rounding granularities in
// minutes.
var RoundingUnits = []int{5, 10, 15, 30, 60}

// ValidRoundingUnit reports whether unit is one of RoundingUnits.
func ValidRoundingUnit(unit int) bool {
	for _, u := range RoundingUnits {
		if u == unit {
			return true
		}
	}
	return false
}

// RoundDuration converts raw elapsed seconds to rounded billing minutes.
// Fractional minutes truncate before rounding; rounding is half-up to the
// unit with a floor of one unit once a whole minute of work exists.
func RoundDuration(rawSeconds int64, roundingUnit int) int {
	rawMinutes := int(rawSeconds / 60)
	if rawMinutes <= 0 {
		return 0
	}
	rounded := ((rawMinutes + roundingUnit/2) / roundingUnit) * roundingUnit
	if rounded < roundingUnit {
		rounded = roundingUnit
	}
	return rounded
}

// Engine enforces the timer state machine over the entity store.
type Engine struct {
	store *store.Store
	now   func() time.Time
}

// New creates a timer engine. now is injectable for tests; nil uses
// time.Now.
func New(s *store.Store, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{store: s, now: now}
}

// Start creates a new running entry. Fails with ErrConflict when any
// entry is already running; the store enforces that inside the activation
// transaction, so two racing starts cannot both succeed.
func (e *Engine) Start(ctx context.Context, args datatypes.StartTimerArgs) (*datatypes.TimeEntry, error) {
	entry := &datatypes.TimeEntry{
		ID:          uuid.NewString(),
		ClientID:    args.ClientID,
		ProjectID:   args.ProjectID,
		TaskID:      args.TaskID,
		Description: args.Description,
		StartTime:   e.now(),
		IsActive:    true,
		CreatedAt:   e.now(),
	}
	if err := e.store.CreateActiveEntry(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Stop ends the running entry, computing the rounded duration from the
// current interval plus any seconds accumulated across resumes.
func (e *Engine) Stop(ctx context.Context, entryID string, roundingUnit int) (*datatypes.TimeEntry, error) {
	if !ValidRoundingUnit(roundingUnit) {
		return nil, fmt.Errorf("%w: rounding unit %d not in {5,10,15,30,60}",
			datatypes.ErrValidation, roundingUnit)
	}

	entry, err := e.store.GetEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if !entry.IsActive {
		return nil, fmt.Errorf("%w: entry %s is not running", datatypes.ErrState, entryID)
	}

	now := e.now()
	rawSeconds := entry.AccumulatedSeconds + int64(now.Sub(entry.StartTime).Seconds())
	duration := RoundDuration(rawSeconds, roundingUnit)

	entry.EndTime = &now
	entry.DurationMinutes = &duration
	entry.AccumulatedSeconds = rawSeconds
	if err := e.store.DeactivateEntry(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Resume restarts a stopped entry. Fails with ErrConflict when another
// entry is running and with ErrState when the entry already is. The
// stopped interval's raw seconds carry over per ResumePolicyAccumulate.
func (e *Engine) Resume(ctx context.Context, entryID string) (*datatypes.TimeEntry, error) {
	entry, err := e.store.GetEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry.IsActive {
		return nil, fmt.Errorf("%w: entry %s is already running", datatypes.ErrState, entryID)
	}
	if entry.IsInvoiced {
		return nil, fmt.Errorf("%w: entry %s is invoiced", datatypes.ErrState, entryID)
	}

	entry.StartTime = e.now()
	entry.EndTime = nil
	entry.DurationMinutes = nil
	if err := e.store.ActivateEntry(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// GetActive returns the running entry or nil. Read-only, never fails on
// the no-timer case.
func (e *Engine) GetActive(ctx context.Context) (*datatypes.TimeEntry, error) {
	return e.store.GetActiveEntry(ctx)
}
