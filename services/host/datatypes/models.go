// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes defines the persisted records and shared argument
// structs of the ChronoLocal host.
//
// The record shapes here are the wire and storage contract: TimeEntry
// durations are integer minutes, optional relations are pointer fields,
// and Invoice.Data is stored as opaque UTF-8 JSON text (the store never
// validates its shape on write, only readers do).
package datatypes

import (
	"time"
)

// InvoiceStatus is the closed set of invoice lifecycle states.
type InvoiceStatus string

const (
	InvoiceStatusGenerated InvoiceStatus = "generated"
	InvoiceStatusSent      InvoiceStatus = "sent"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusDraft     InvoiceStatus = "draft"
)

// Valid reports whether s is one of the defined statuses.
func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceStatusGenerated, InvoiceStatusSent, InvoiceStatusPaid, InvoiceStatusDraft:
		return true
	}
	return false
}

// Client owns projects and, when no project is specified, time entries
// directly.
type Client struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	// Email is optional contact information.
	Email *string `json:"email,omitempty"`

	// HourlyRate is the client default rate. Nil means "no rate": entries
	// priced against it are counted in hours but bill at zero, and callers
	// can distinguish that from an explicit zero rate.
	HourlyRate *float64 `json:"hourly_rate,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Project belongs to a client and may override its hourly rate.
type Project struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ClientID string `json:"client_id"`

	// HourlyRate overrides the owning client's rate when set.
	HourlyRate *float64 `json:"hourly_rate,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Task belongs to a project. Tasks never carry rates.
type Task struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ProjectID string    `json:"project_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TimeEntry is a single unit of tracked work. Any of the relation ids may
// be absent ("unassigned" entry).
type TimeEntry struct {
	ID          string  `json:"id"`
	ClientID    *string `json:"client_id,omitempty"`
	ProjectID   *string `json:"project_id,omitempty"`
	TaskID      *string `json:"task_id,omitempty"`
	Description string  `json:"description"`

	StartTime time.Time `json:"start_time"`

	// EndTime is set iff the entry is stopped.
	EndTime *time.Time `json:"end_time,omitempty"`

	// DurationMinutes is the rounded duration, set iff the entry is
	// stopped. Integer minutes is the persisted unit.
	DurationMinutes *int `json:"duration_minutes,omitempty"`

	// AccumulatedSeconds holds raw elapsed seconds from intervals before
	// the current run, carried across resume. Folded into the duration on
	// the next stop.
	AccumulatedSeconds int64 `json:"accumulated_seconds,omitempty"`

	IsActive   bool    `json:"is_active"`
	IsInvoiced bool    `json:"is_invoiced"`
	InvoiceID  *string `json:"invoice_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Invoice is a generated bill. Data holds the rendered line-item snapshot
// frozen at generation (or regeneration) time so rendering stays stable
// even if the underlying entries are edited later.
type Invoice struct {
	ID            string        `json:"id"`
	InvoiceNumber string        `json:"invoice_number"`
	ClientID      string        `json:"client_id"`
	TotalAmount   float64       `json:"total_amount"`
	PeriodStart   time.Time     `json:"period_start"`
	PeriodEnd     time.Time     `json:"period_end"`
	Status        InvoiceStatus `json:"status"`
	DueDate       time.Time     `json:"due_date"`
	CreatedAt     time.Time     `json:"created_at"`

	// Data is the snapshot payload, UTF-8 JSON text.
	Data string `json:"data"`
}

// LineItem is one snapshot row inside Invoice.Data.
type LineItem struct {
	Date            string  `json:"date"`
	Description     string  `json:"description"`
	DurationMinutes int     `json:"duration_minutes"`
	Rate            float64 `json:"rate"`
	Amount          float64 `json:"amount"`
}

// InvoiceSnapshot is the decoded shape of Invoice.Data.
type InvoiceSnapshot struct {
	Items      []LineItem `json:"items"`
	TotalHours float64    `json:"total_hours"`
	Total      float64    `json:"total"`
}

// StartTimerArgs are the arguments of the timeEntries:start command.
type StartTimerArgs struct {
	ClientID    *string `json:"client_id" validate:"omitempty,uuid4"`
	ProjectID   *string `json:"project_id" validate:"omitempty,uuid4"`
	TaskID      *string `json:"task_id" validate:"omitempty,uuid4"`
	Description string  `json:"description" validate:"max=500"`
}

// StopTimerArgs are the arguments of the timeEntries:stop command.
type StopTimerArgs struct {
	EntryID      string `json:"entry_id" validate:"required"`
	RoundingUnit int    `json:"rounding_unit" validate:"required"`
}

// GenerateInvoiceArgs are the arguments of the invoices:generate command.
type GenerateInvoiceArgs struct {
	ClientID    string    `json:"client_id" validate:"required"`
	PeriodStart time.Time `json:"period_start" validate:"required"`
	PeriodEnd   time.Time `json:"period_end" validate:"required"`
}
