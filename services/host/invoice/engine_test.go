// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package invoice

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/ChronoLocal/services/host/datatypes"
	storagebadger "github.com/AleutianAI/ChronoLocal/services/host/storage/badger"
	"github.com/AleutianAI/ChronoLocal/services/host/store"
)

var testNow = time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T) (*Engine, *store.Store) {
	t.Helper()
	db, err := storagebadger.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s := store.New(db)
	return New(s, func() time.Time { return testNow }), s
}

func ratePtr(r float64) *float64 { return &r }

func addClient(t *testing.T, s *store.Store, name string, rate *float64) *datatypes.Client {
	t.Helper()
	c := &datatypes.Client{ID: uuid.NewString(), Name: name, HourlyRate: rate, CreatedAt: testNow}
	require.NoError(t, s.CreateClient(context.Background(), c))
	return c
}

func addEntry(t *testing.T, s *store.Store, clientID string, projectID *string,
	start time.Time, minutes int, desc string) *datatypes.TimeEntry {
	t.Helper()
	end := start.Add(time.Duration(minutes) * time.Minute)
	e := &datatypes.TimeEntry{
		ID:              uuid.NewString(),
		ClientID:        &clientID,
		ProjectID:       projectID,
		Description:     desc,
		StartTime:       start,
		EndTime:         &end,
		DurationMinutes: &minutes,
		CreatedAt:       start,
	}
	require.NoError(t, s.CreateEntry(context.Background(), e))
	return e
}

var (
	periodStart = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	periodEnd   = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
)

func TestGenerateTotals(t *testing.T) {
	engine, s := newTestEngine(t)
	ctx := context.Background()

	// Client default 150/h; one project overrides at 175/h.
	client := addClient(t, s, "Acme", ratePtr(150))
	project := &datatypes.Project{
		ID: uuid.NewString(), Name: "E-commerce", ClientID: client.ID,
		HourlyRate: ratePtr(175), CreatedAt: testNow,
	}
	require.NoError(t, s.CreateProject(ctx, project))

	day1 := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	addEntry(t, s, client.ID, nil, day1, 120, "design review")
	addEntry(t, s, client.ID, &project.ID, day1.Add(24*time.Hour), 480, "checkout flow")

	inv, err := engine.Generate(ctx, client.ID, periodStart, periodEnd)
	require.NoError(t, err)

	// 2h at 150 + 8h at 175 = 300 + 1400.
	assert.Equal(t, 1700.0, inv.TotalAmount)
	assert.Equal(t, "INV-20260101-001", inv.InvoiceNumber)
	assert.Equal(t, datatypes.InvoiceStatusGenerated, inv.Status)
	assert.Equal(t, testNow.AddDate(0, 0, 30), inv.DueDate)

	var snapshot datatypes.InvoiceSnapshot
	require.NoError(t, json.Unmarshal([]byte(inv.Data), &snapshot))
	require.Len(t, snapshot.Items, 2)
	assert.Equal(t, "2026-01-10", snapshot.Items[0].Date)
	assert.Equal(t, 150.0, snapshot.Items[0].Rate)
	assert.Equal(t, 300.0, snapshot.Items[0].Amount)
	assert.Equal(t, 175.0, snapshot.Items[1].Rate)
	assert.Equal(t, 1400.0, snapshot.Items[1].Amount)
	assert.Equal(t, 10.0, snapshot.TotalHours)
	assert.Equal(t, 1700.0, snapshot.Total)
}

func TestGenerateEmptySelection(t *testing.T) {
	engine, s := newTestEngine(t)
	client := addClient(t, s, "Acme", ratePtr(150))

	_, err := engine.Generate(context.Background(), client.ID, periodStart, periodEnd)
	assert.ErrorIs(t, err, datatypes.ErrValidation)
}

func TestGenerateCrossClientIsolation(t *testing.T) {
	engine, s := newTestEngine(t)
	ctx := context.Background()

	acme := addClient(t, s, "Acme", ratePtr(100))
	globex := addClient(t, s, "Globex", ratePtr(200))

	day := time.Date(2026, 1, 12, 9, 0, 0, 0, time.UTC)
	mine := addEntry(t, s, acme.ID, nil, day, 60, "acme work")
	other := addEntry(t, s, globex.ID, nil, day, 60, "globex work")

	inv, err := engine.Generate(ctx, acme.ID, periodStart, periodEnd)
	require.NoError(t, err)
	assert.Equal(t, 100.0, inv.TotalAmount)

	got, err := s.GetEntry(ctx, mine.ID)
	require.NoError(t, err)
	assert.True(t, got.IsInvoiced)

	got, err = s.GetEntry(ctx, other.ID)
	require.NoError(t, err)
	assert.False(t, got.IsInvoiced)
}

func TestGenerateSkipsActiveAndInvoiced(t *testing.T) {
	engine, s := newTestEngine(t)
	ctx := context.Background()

	client := addClient(t, s, "Acme", ratePtr(100))
	day := time.Date(2026, 1, 12, 9, 0, 0, 0, time.UTC)
	addEntry(t, s, client.ID, nil, day, 60, "billable")

	clientID := client.ID
	running := &datatypes.TimeEntry{
		ID: uuid.NewString(), ClientID: &clientID, Description: "in progress",
		StartTime: day, CreatedAt: day,
	}
	require.NoError(t, s.CreateActiveEntry(ctx, running))

	inv, err := engine.Generate(ctx, client.ID, periodStart, periodEnd)
	require.NoError(t, err)
	assert.Equal(t, 100.0, inv.TotalAmount)

	// Everything billable is now invoiced; a second generation has
	// nothing to select.
	_, err = engine.Generate(ctx, client.ID, periodStart, periodEnd)
	assert.ErrorIs(t, err, datatypes.ErrValidation)
}

func TestGenerateSequentialNumbers(t *testing.T) {
	engine, s := newTestEngine(t)
	ctx := context.Background()

	client := addClient(t, s, "Acme", ratePtr(100))
	day := time.Date(2026, 1, 12, 9, 0, 0, 0, time.UTC)

	addEntry(t, s, client.ID, nil, day, 60, "first batch")
	first, err := engine.Generate(ctx, client.ID, periodStart, periodEnd)
	require.NoError(t, err)
	assert.Equal(t, "INV-20260101-001", first.InvoiceNumber)

	addEntry(t, s, client.ID, nil, day.Add(time.Hour), 60, "second batch")
	second, err := engine.Generate(ctx, client.ID, periodStart, periodEnd)
	require.NoError(t, err)
	assert.Equal(t, "INV-20260101-002", second.InvoiceNumber)
}

func TestRegenerateIdempotent(t *testing.T) {
	engine, s := newTestEngine(t)
	ctx := context.Background()

	client := addClient(t, s, "Acme", ratePtr(150))
	day := time.Date(2026, 1, 12, 9, 0, 0, 0, time.UTC)
	addEntry(t, s, client.ID, nil, day, 90, "api work")

	inv, err := engine.Generate(ctx, client.ID, periodStart, periodEnd)
	require.NoError(t, err)

	once, err := engine.Regenerate(ctx, inv.ID)
	require.NoError(t, err)
	twice, err := engine.Regenerate(ctx, inv.ID)
	require.NoError(t, err)

	assert.Equal(t, once.Data, twice.Data)
	assert.Equal(t, inv.ID, twice.ID)
	assert.Equal(t, inv.InvoiceNumber, twice.InvoiceNumber)
	assert.Equal(t, inv.ClientID, twice.ClientID)
	assert.Equal(t, inv.CreatedAt.UTC(), twice.CreatedAt.UTC())
}

func TestRegenerateUsesLinkedEntriesOnly(t *testing.T) {
	engine, s := newTestEngine(t)
	ctx := context.Background()

	client := addClient(t, s, "Acme", ratePtr(100))
	day := time.Date(2026, 1, 12, 9, 0, 0, 0, time.UTC)
	addEntry(t, s, client.ID, nil, day, 60, "original")

	inv, err := engine.Generate(ctx, client.ID, periodStart, periodEnd)
	require.NoError(t, err)
	assert.Equal(t, 100.0, inv.TotalAmount)

	// New uninvoiced work in the same period must not leak in.
	addEntry(t, s, client.ID, nil, day.Add(time.Hour), 60, "later work")

	regen, err := engine.Regenerate(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, regen.TotalAmount)

	var snapshot datatypes.InvoiceSnapshot
	require.NoError(t, json.Unmarshal([]byte(regen.Data), &snapshot))
	assert.Len(t, snapshot.Items, 1)
}

func TestRegeneratePicksUpEditedEntries(t *testing.T) {
	engine, s := newTestEngine(t)
	ctx := context.Background()

	client := addClient(t, s, "Acme", ratePtr(100))
	day := time.Date(2026, 1, 12, 9, 0, 0, 0, time.UTC)
	entry := addEntry(t, s, client.ID, nil, day, 60, "original")

	inv, err := engine.Generate(ctx, client.ID, periodStart, periodEnd)
	require.NoError(t, err)

	// Unlink via invoice deletion, edit, re-link through a fresh
	// generation, then regenerate: the new duration is priced.
	require.NoError(t, engine.Delete(ctx, inv.ID))
	got, err := s.GetEntry(ctx, entry.ID)
	require.NoError(t, err)
	minutes := 120
	got.DurationMinutes = &minutes
	require.NoError(t, s.UpdateEntry(ctx, got))

	inv2, err := engine.Generate(ctx, client.ID, periodStart, periodEnd)
	require.NoError(t, err)
	assert.Equal(t, 200.0, inv2.TotalAmount)
}

func TestDeleteUnlinks(t *testing.T) {
	engine, s := newTestEngine(t)
	ctx := context.Background()

	client := addClient(t, s, "Acme", ratePtr(100))
	day := time.Date(2026, 1, 12, 9, 0, 0, 0, time.UTC)
	entry := addEntry(t, s, client.ID, nil, day, 60, "work")

	inv, err := engine.Generate(ctx, client.ID, periodStart, periodEnd)
	require.NoError(t, err)
	require.NoError(t, engine.Delete(ctx, inv.ID))

	got, err := s.GetEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.False(t, got.IsInvoiced)
	assert.Nil(t, got.InvoiceID)

	_, err = s.GetInvoice(ctx, inv.ID)
	assert.ErrorIs(t, err, datatypes.ErrNotFound)
}

func TestGenerateNonBillableClient(t *testing.T) {
	engine, s := newTestEngine(t)
	ctx := context.Background()

	client := addClient(t, s, "Pro Bono", nil)
	day := time.Date(2026, 1, 12, 9, 0, 0, 0, time.UTC)
	addEntry(t, s, client.ID, nil, day, 90, "volunteer work")

	inv, err := engine.Generate(ctx, client.ID, periodStart, periodEnd)
	require.NoError(t, err)
	assert.Equal(t, 0.0, inv.TotalAmount)

	var snapshot datatypes.InvoiceSnapshot
	require.NoError(t, json.Unmarshal([]byte(inv.Data), &snapshot))
	// Hours still count even with no rate configured.
	assert.Equal(t, 1.5, snapshot.TotalHours)
	assert.Equal(t, 0.0, snapshot.Items[0].Rate)
}
