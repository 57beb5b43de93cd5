// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package invoice aggregates uninvoiced time entries into invoices and
// regenerates their snapshots idempotently.
//
// Totals are priced through the same rate resolver the live display
// uses, so the two can never disagree. Snapshots are serialized with a
// deterministic encoder: regenerating twice with no intervening mutation
// produces byte-identical data.
package invoice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/AleutianAI/ChronoLocal/services/host/datatypes"
	"github.com/AleutianAI/ChronoLocal/services/host/rate"
	"github.com/AleutianAI/ChronoLocal/services/host/store"
)

// numberRetryLimit bounds sequence-collision retries during generation.
const numberRetryLimit = 100

// defaultDueDays is added to the generation time to produce the due date.
const defaultDueDays = 30

// Engine generates and maintains invoices over the entity store.
type Engine struct {
	store *store.Store
	now   func() time.Time
}

// New creates an invoice engine. now is injectable for tests; nil uses
// time.Now.
func New(s *store.Store, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{store: s, now: now}
}

// Generate selects all stopped, uninvoiced entries for the client with
// StartTime inside [periodStart, periodEnd], prices them, writes the
// invoice, and marks the entries — the write and the marking share one
// store transaction. Fails with ErrValidation when the selection is
// empty.
func (e *Engine) Generate(ctx context.Context, clientID string, periodStart, periodEnd time.Time) (*datatypes.Invoice, error) {
	client, err := e.store.GetClient(ctx, clientID)
	if err != nil {
		return nil, err
	}

	entries, err := e.store.ListEntries(ctx, store.EntryFilter{
		ClientID:    clientID,
		Uninvoiced:  true,
		Stopped:     true,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
	})
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no uninvoiced entries for client %s in period",
			datatypes.ErrValidation, clientID)
	}

	snapshot, total, err := e.buildSnapshot(ctx, entries, client)
	if err != nil {
		return nil, err
	}
	data, err := encodeSnapshot(snapshot)
	if err != nil {
		return nil, err
	}

	now := e.now()
	inv := &datatypes.Invoice{
		ID:          uuid.NewString(),
		ClientID:    clientID,
		TotalAmount: total,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		Status:      datatypes.InvoiceStatusGenerated,
		DueDate:     now.AddDate(0, 0, defaultDueDays),
		CreatedAt:   now,
		Data:        data,
	}

	entryIDs := make([]string, len(entries))
	for i := range entries {
		entryIDs[i] = entries[i].ID
	}

	// Claim the next free number for the period's date, retrying past
	// sequence collisions from concurrent generations.
	seq, err := e.store.CountInvoiceNumbersWithPrefix(ctx, numberPrefix(periodStart))
	if err != nil {
		return nil, err
	}
	for attempt := 0; attempt < numberRetryLimit; attempt++ {
		inv.InvoiceNumber = formatNumber(periodStart, seq+1+attempt)
		err = e.store.CreateInvoiceWithEntries(ctx, inv, entryIDs)
		if err == nil {
			return inv, nil
		}
		if !errors.Is(err, datatypes.ErrPersistence) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: could not allocate invoice number after %d attempts",
		datatypes.ErrPersistence, numberRetryLimit)
}

// Regenerate recomputes an invoice's totals and snapshot from the current
// field values of the entries linked to it. It never re-selects newly
// uninvoiced entries, preserves id, number, client, and createdAt, and is
// idempotent: two calls with no intervening mutation produce identical
// data.
func (e *Engine) Regenerate(ctx context.Context, invoiceID string) (*datatypes.Invoice, error) {
	inv, err := e.store.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	client, err := e.store.GetClient(ctx, inv.ClientID)
	if err != nil {
		return nil, err
	}

	entries, err := e.store.ListEntries(ctx, store.EntryFilter{InvoiceID: invoiceID})
	if err != nil {
		return nil, err
	}

	snapshot, total, err := e.buildSnapshot(ctx, entries, client)
	if err != nil {
		return nil, err
	}
	data, err := encodeSnapshot(snapshot)
	if err != nil {
		return nil, err
	}

	inv.TotalAmount = total
	inv.Data = data
	if err := e.store.UpdateInvoice(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// Delete unlinks the invoice's entries and removes the record.
func (e *Engine) Delete(ctx context.Context, invoiceID string) error {
	return e.store.DeleteInvoice(ctx, invoiceID)
}

// buildSnapshot renders line items from entries in StartTime order and
// returns the rounded total.
func (e *Engine) buildSnapshot(ctx context.Context, entries []datatypes.TimeEntry, client *datatypes.Client) (*datatypes.InvoiceSnapshot, float64, error) {
	snapshot := &datatypes.InvoiceSnapshot{Items: make([]datatypes.LineItem, 0, len(entries))}

	var totalMinutes int
	var total float64
	for i := range entries {
		entry := &entries[i]

		var project *datatypes.Project
		if entry.ProjectID != nil {
			p, err := e.store.GetProject(ctx, *entry.ProjectID)
			if err != nil && !errors.Is(err, datatypes.ErrNotFound) {
				return nil, 0, err
			}
			project = p
		}

		resolution := rate.Resolve(entry, project, client)

		minutes := 0
		if entry.DurationMinutes != nil {
			minutes = *entry.DurationMinutes
		}
		amount := rate.Amount(minutes, resolution.Rate)

		snapshot.Items = append(snapshot.Items, datatypes.LineItem{
			Date:            entry.StartTime.Format("2006-01-02"),
			Description:     entry.Description,
			DurationMinutes: minutes,
			Rate:            resolution.Rate,
			Amount:          amount,
		})
		totalMinutes += minutes
		total += amount
	}

	snapshot.TotalHours = math.Round(float64(totalMinutes)/60.0*100) / 100
	snapshot.Total = math.Round(total*100) / 100
	return snapshot, snapshot.Total, nil
}

// encodeSnapshot serializes deterministically: fixed field order, no
// indentation, no trailing newline.
func encodeSnapshot(s *datatypes.InvoiceSnapshot) (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	return string(data), nil
}

// numberPrefix returns the date-scoped invoice number prefix, e.g.
// "INV-20260115-".
func numberPrefix(periodStart time.Time) string {
	return fmt.Sprintf("INV-%s-", periodStart.Format("20060102"))
}

// formatNumber composes the full number, zero-padding the sequence to
// three digits: INV-20260115-001.
func formatNumber(periodStart time.Time, seq int) string {
	return fmt.Sprintf("%s%03d", numberPrefix(periodStart), seq)
}
