// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/AleutianAI/ChronoLocal/services/host/datatypes"
	"github.com/AleutianAI/ChronoLocal/services/host/invoice"
	"github.com/AleutianAI/ChronoLocal/services/host/store"
	"github.com/AleutianAI/ChronoLocal/services/host/timer"
)

// ====================================================================
// Command registration
// ====================================================================

// Engines bundles the domain components the command set operates on.
type Engines struct {
	Store   *store.Store
	Timer   *timer.Engine
	Invoice *invoice.Engine

	// Broker may be nil; when set, timer and invoice commands publish
	// change events on it.
	Broker *Broker
}

// NewCommandRegistry builds the full command set of the host: every
// resource:verb channel the UI can invoke, bound to the engines.
func NewCommandRegistry(e Engines, logger *slog.Logger) *Registry {
	r := NewRegistry(logger)
	v := validator.New()

	registerTimerCommands(r, v, e)
	registerEntryCommands(r, v, e)
	registerClientCommands(r, v, e)
	registerProjectCommands(r, v, e)
	registerTaskCommands(r, v, e)
	registerInvoiceCommands(r, v, e)

	return r
}

func validateArgs(v *validator.Validate, args any) error {
	if err := v.Struct(args); err != nil {
		return fmt.Errorf("%w: %s", datatypes.ErrValidation, err)
	}
	return nil
}

// ====================================================================
// Timer channels
// ====================================================================

func registerTimerCommands(r *Registry, v *validator.Validate, e Engines) {
	r.Register("timeEntries:start", func(ctx context.Context, args []json.RawMessage) (any, error) {
		var a datatypes.StartTimerArgs
		if err := DecodeArg(args, 0, &a); err != nil {
			return nil, fmt.Errorf("%w: %s", datatypes.ErrValidation, err)
		}
		if err := validateArgs(v, a); err != nil {
			return nil, err
		}
		entry, err := e.Timer.Start(ctx, a)
		if err != nil {
			return nil, err
		}
		e.publish(Event{Type: EventTimerStarted, EntityID: entry.ID})
		return entry, nil
	})

	r.Register("timeEntries:stop", func(ctx context.Context, args []json.RawMessage) (any, error) {
		var a datatypes.StopTimerArgs
		if err := DecodeArg(args, 0, &a); err != nil {
			return nil, fmt.Errorf("%w: %s", datatypes.ErrValidation, err)
		}
		if err := validateArgs(v, a); err != nil {
			return nil, err
		}
		entry, err := e.Timer.Stop(ctx, a.EntryID, a.RoundingUnit)
		if err != nil {
			return nil, err
		}
		e.publish(Event{Type: EventTimerStopped, EntityID: entry.ID})
		return entry, nil
	})

	r.Register("timeEntries:resume", func(ctx context.Context, args []json.RawMessage) (any, error) {
		var entryID string
		if err := DecodeArg(args, 0, &entryID); err != nil {
			return nil, fmt.Errorf("%w: %s", datatypes.ErrValidation, err)
		}
		entry, err := e.Timer.Resume(ctx, entryID)
		if err != nil {
			return nil, err
		}
		e.publish(Event{Type: EventTimerStarted, EntityID: entry.ID})
		return entry, nil
	})

	r.Register("timeEntries:getActive", func(ctx context.Context, _ []json.RawMessage) (any, error) {
		return e.Timer.GetActive(ctx)
	})
}

// ====================================================================
// Time entry CRUD channels
// ====================================================================

// createEntryArgs shapes manual (non-timer) entry creation.
type createEntryArgs struct {
	ClientID        *string   `json:"client_id" validate:"omitempty,uuid4"`
	ProjectID       *string   `json:"project_id" validate:"omitempty,uuid4"`
	TaskID          *string   `json:"task_id" validate:"omitempty,uuid4"`
	Description     string    `json:"description" validate:"max=500"`
	StartTime       time.Time `json:"start_time" validate:"required"`
	EndTime         time.Time `json:"end_time" validate:"required"`
	DurationMinutes int       `json:"duration_minutes" validate:"required,min=1"`
}

// updateEntryArgs carries a full replacement record; the store rejects
// updates to active or invoiced entries.
type updateEntryArgs struct {
	ID              string  `json:"id" validate:"required"`
	ClientID        *string `json:"client_id" validate:"omitempty,uuid4"`
	ProjectID       *string `json:"project_id" validate:"omitempty,uuid4"`
	TaskID          *string `json:"task_id" validate:"omitempty,uuid4"`
	Description     string  `json:"description" validate:"max=500"`
	DurationMinutes int     `json:"duration_minutes" validate:"required,min=1"`
}

// listEntriesArgs mirrors store.EntryFilter for the wire.
type listEntriesArgs struct {
	ClientID    string    `json:"client_id,omitempty"`
	InvoiceID   string    `json:"invoice_id,omitempty"`
	Uninvoiced  bool      `json:"uninvoiced,omitempty"`
	Stopped     bool      `json:"stopped,omitempty"`
	PeriodStart time.Time `json:"period_start,omitempty"`
	PeriodEnd   time.Time `json:"period_end,omitempty"`
}

func registerEntryCommands(r *Registry, v *validator.Validate, e Engines) {
	r.Register("timeEntries:create", func(ctx context.Context, args []json.RawMessage) (any, error) {
		var a createEntryArgs
		if err := DecodeArg(args, 0, &a); err != nil {
			return nil, fmt.Errorf("%w: %s", datatypes.ErrValidation, err)
		}
		if err := validateArgs(v, a); err != nil {
			return nil, err
		}
		if !a.EndTime.After(a.StartTime) {
			return nil, fmt.Errorf("%w: end_time must be after start_time", datatypes.ErrValidation)
		}
		end := a.EndTime
		minutes := a.DurationMinutes
		entry := &datatypes.TimeEntry{
			ID:              uuid.NewString(),
			ClientID:        a.ClientID,
			ProjectID:       a.ProjectID,
			TaskID:          a.TaskID,
			Description:     a.Description,
			StartTime:       a.StartTime,
			EndTime:         &end,
			DurationMinutes: &minutes,
			CreatedAt:       time.Now(),
		}
		if err := e.Store.CreateEntry(ctx, entry); err != nil {
			return nil, err
		}
		return entry, nil
	})

	r.Register("timeEntries:update", func(ctx context.Context, args []json.RawMessage) (any, error) {
		var a updateEntryArgs
		if err := DecodeArg(args, 0, &a); err != nil {
			return nil, fmt.Errorf("%w: %s", datatypes.ErrValidation, err)
		}
		if err := validateArgs(v, a); err != nil {
			return nil, err
		}
		entry, err := e.Store.GetEntry(ctx, a.ID)
		if err != nil {
			return nil, err
		}
		entry.ClientID = a.ClientID
		entry.ProjectID = a.ProjectID
		entry.TaskID = a.TaskID
		entry.Description = a.Description
		minutes := a.DurationMinutes
		entry.DurationMinutes = &minutes
		if err := e.Store.UpdateEntry(ctx, entry); err != nil {
			return nil, err
		}
		return entry, nil
	})

	r.Register("timeEntries:delete", func(ctx context.Context, args []json.RawMessage) (any, error) {
		var id string
		if err := DecodeArg(args, 0, &id); err != nil {
			return nil, fmt.Errorf("%w: %s", datatypes.ErrValidation, err)
		}
		if err := e.Store.DeleteEntry(ctx, id); err != nil {
			return nil, err
		}
		return map[string]string{"deleted": id}, nil
	})

	r.Register("timeEntries:list", func(ctx context.Context, args []json.RawMessage) (any, error) {
		var a listEntriesArgs
		if len(args) > 0 {
			if err := DecodeArg(args, 0, &a); err != nil {
				return nil, fmt.Errorf("%w: %s", datatypes.ErrValidation, err)
			}
		}
		return e.Store.ListEntries(ctx, store.EntryFilter{
			ClientID:    a.ClientID,
			InvoiceID:   a.InvoiceID,
			Uninvoiced:  a.Uninvoiced,
			Stopped:     a.Stopped,
			PeriodStart: a.PeriodStart,
			PeriodEnd:   a.PeriodEnd,
		})
	})
}

// ====================================================================
// Client channels
// ====================================================================

type createClientArgs struct {
	Name       string   `json:"name" validate:"required,max=200"`
	Email      *string  `json:"email" validate:"omitempty,email"`
	HourlyRate *float64 `json:"hourly_rate" validate:"omitempty,gte=0"`
}

func registerClientCommands(r *Registry, v *validator.Validate, e Engines) {
	r.Register("clients:create", func(ctx context.Context, args []json.RawMessage) (any, error) {
		var a createClientArgs
		if err := DecodeArg(args, 0, &a); err != nil {
			return nil, fmt.Errorf("%w: %s", datatypes.ErrValidation, err)
		}
		if err := validateArgs(v, a); err != nil {
			return nil, err
		}
		client := &datatypes.Client{
			ID:         uuid.NewString(),
			Name:       a.Name,
			Email:      a.Email,
			HourlyRate: a.HourlyRate,
			CreatedAt:  time.Now(),
		}
		if err := e.Store.CreateClient(ctx, client); err != nil {
			return nil, err
		}
		return client, nil
	})

	r.Register("clients:get", func(ctx context.Context, args []json.RawMessage) (any, error) {
		var id string
		if err := DecodeArg(args, 0, &id); err != nil {
			return nil, fmt.Errorf("%w: %s", datatypes.ErrValidation, err)
		}
		return e.Store.GetClient(ctx, id)
	})

	r.Register("clients:list", func(ctx context.Context, _ []json.RawMessage) (any, error) {
		return e.Store.ListClients(ctx)
	})

	r.Register("clients:delete", func(ctx context.Context, args []json.RawMessage) (any, error) {
		var id string
		if err := DecodeArg(args, 0, &id); err != nil {
			return nil, fmt.Errorf("%w: %s", datatypes.ErrValidation, err)
		}
		if err := e.Store.DeleteClient(ctx, id); err != nil {
			return nil, err
		}
		return map[string]string{"deleted": id}, nil
	})
}

// ====================================================================
// Project channels
// ====================================================================

type createProjectArgs struct {
	Name       string   `json:"name" validate:"required,max=200"`
	ClientID   string   `json:"client_id" validate:"required"`
	HourlyRate *float64 `json:"hourly_rate" validate:"omitempty,gte=0"`
}

func registerProjectCommands(r *Registry, v *validator.Validate, e Engines) {
	r.Register("projects:create", func(ctx context.Context, args []json.RawMessage) (any, error) {
		var a createProjectArgs
		if err := DecodeArg(args, 0, &a); err != nil {
			return nil, fmt.Errorf("%w: %s", datatypes.ErrValidation, err)
		}
		if err := validateArgs(v, a); err != nil {
			return nil, err
		}
		project := &datatypes.Project{
			ID:         uuid.NewString(),
			Name:       a.Name,
			ClientID:   a.ClientID,
			HourlyRate: a.HourlyRate,
			CreatedAt:  time.Now(),
		}
		if err := e.Store.CreateProject(ctx, project); err != nil {
			return nil, err
		}
		return project, nil
	})

	r.Register("projects:list", func(ctx context.Context, _ []json.RawMessage) (any, error) {
		return e.Store.ListProjects(ctx)
	})

	r.Register("projects:delete", func(ctx context.Context, args []json.RawMessage) (any, error) {
		var id string
		if err := DecodeArg(args, 0, &id); err != nil {
			return nil, fmt.Errorf("%w: %s", datatypes.ErrValidation, err)
		}
		if err := e.Store.DeleteProject(ctx, id); err != nil {
			return nil, err
		}
		return map[string]string{"deleted": id}, nil
	})
}

// ====================================================================
// Task channels
// ====================================================================

type createTaskArgs struct {
	Name      string `json:"name" validate:"required,max=200"`
	ProjectID string `json:"project_id" validate:"required"`
}

func registerTaskCommands(r *Registry, v *validator.Validate, e Engines) {
	r.Register("tasks:create", func(ctx context.Context, args []json.RawMessage) (any, error) {
		var a createTaskArgs
		if err := DecodeArg(args, 0, &a); err != nil {
			return nil, fmt.Errorf("%w: %s", datatypes.ErrValidation, err)
		}
		if err := validateArgs(v, a); err != nil {
			return nil, err
		}
		task := &datatypes.Task{
			ID:        uuid.NewString(),
			Name:      a.Name,
			ProjectID: a.ProjectID,
			CreatedAt: time.Now(),
		}
		if err := e.Store.CreateTask(ctx, task); err != nil {
			return nil, err
		}
		return task, nil
	})

	r.Register("tasks:list", func(ctx context.Context, _ []json.RawMessage) (any, error) {
		return e.Store.ListTasks(ctx)
	})

	r.Register("tasks:delete", func(ctx context.Context, args []json.RawMessage) (any, error) {
		var id string
		if err := DecodeArg(args, 0, &id); err != nil {
			return nil, fmt.Errorf("%w: %s", datatypes.ErrValidation, err)
		}
		if err := e.Store.DeleteTask(ctx, id); err != nil {
			return nil, err
		}
		return map[string]string{"deleted": id}, nil
	})
}

// ====================================================================
// Invoice channels
// ====================================================================

type invoiceFilenameArgs struct {
	InvoiceID       string `json:"invoice_id" validate:"required"`
	WithID          bool   `json:"with_id,omitempty"`
	TimestampMillis int64  `json:"timestamp_millis,omitempty"`
}

func registerInvoiceCommands(r *Registry, v *validator.Validate, e Engines) {
	r.Register("invoices:generate", func(ctx context.Context, args []json.RawMessage) (any, error) {
		var a datatypes.GenerateInvoiceArgs
		if err := DecodeArg(args, 0, &a); err != nil {
			return nil, fmt.Errorf("%w: %s", datatypes.ErrValidation, err)
		}
		if err := validateArgs(v, a); err != nil {
			return nil, err
		}
		if !a.PeriodEnd.After(a.PeriodStart) {
			return nil, fmt.Errorf("%w: period_end must be after period_start", datatypes.ErrValidation)
		}
		inv, err := e.Invoice.Generate(ctx, a.ClientID, a.PeriodStart, a.PeriodEnd)
		if err != nil {
			return nil, err
		}
		e.publish(Event{Type: EventInvoiceGenerated, EntityID: inv.ID})
		return inv, nil
	})

	r.Register("invoices:regenerate", func(ctx context.Context, args []json.RawMessage) (any, error) {
		var id string
		if err := DecodeArg(args, 0, &id); err != nil {
			return nil, fmt.Errorf("%w: %s", datatypes.ErrValidation, err)
		}
		return e.Invoice.Regenerate(ctx, id)
	})

	r.Register("invoices:get", func(ctx context.Context, args []json.RawMessage) (any, error) {
		var id string
		if err := DecodeArg(args, 0, &id); err != nil {
			return nil, fmt.Errorf("%w: %s", datatypes.ErrValidation, err)
		}
		return e.Store.GetInvoice(ctx, id)
	})

	r.Register("invoices:list", func(ctx context.Context, _ []json.RawMessage) (any, error) {
		return e.Store.ListInvoices(ctx)
	})

	r.Register("invoices:delete", func(ctx context.Context, args []json.RawMessage) (any, error) {
		var id string
		if err := DecodeArg(args, 0, &id); err != nil {
			return nil, fmt.Errorf("%w: %s", datatypes.ErrValidation, err)
		}
		if err := e.Invoice.Delete(ctx, id); err != nil {
			return nil, err
		}
		return map[string]string{"deleted": id}, nil
	})

	r.Register("invoices:filename", func(ctx context.Context, args []json.RawMessage) (any, error) {
		var a invoiceFilenameArgs
		if err := DecodeArg(args, 0, &a); err != nil {
			return nil, fmt.Errorf("%w: %s", datatypes.ErrValidation, err)
		}
		if err := validateArgs(v, a); err != nil {
			return nil, err
		}
		inv, err := e.Store.GetInvoice(ctx, a.InvoiceID)
		if err != nil {
			return nil, err
		}
		client, err := e.Store.GetClient(ctx, inv.ClientID)
		if err != nil {
			return nil, err
		}
		opts := invoice.FilenameOptions{TimestampMillis: a.TimestampMillis}
		if a.WithID {
			opts.InvoiceID = inv.ID
		}
		name := invoice.CreateFilename(client.Name, inv.InvoiceNumber, opts)
		return map[string]string{"filename": name}, nil
	})
}

// publish emits on the broker when one is wired.
func (e Engines) publish(ev Event) {
	if e.Broker != nil {
		e.Broker.Publish(ev)
	}
}
