// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package store implements the entity store over BadgerDB.
//
// # Key Scheme
//
//	client/<id>               Client record (JSON)
//	project/<id>              Project record (JSON)
//	task/<id>                 Task record (JSON)
//	entry/<id>                TimeEntry record (JSON)
//	invoice/<id>              Invoice record (JSON)
//	sys/active-timer          id of the single active entry (exists iff one is active)
//	idx/invoice-number/<n>    invoice id keyed by invoice number (uniqueness)
//
// # Invariants
//
// The sys/active-timer singleton key is read and written inside the same
// transaction that activates an entry, so two concurrent activations
// cannot both commit: Badger reports a serialization conflict for the
// loser. The idx/invoice-number keys give invoice numbers a store-level
// uniqueness guarantee. Invoice creation, regeneration, and deletion each
// run in one transaction spanning the invoice record and its linked
// entries, so a crash mid-operation cannot leave entries marked invoiced
// without an invoice or vice versa.
//
// Thread Safety: Store is safe for concurrent use.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/AleutianAI/ChronoLocal/services/host/datatypes"
	storagebadger "github.com/AleutianAI/ChronoLocal/services/host/storage/badger"
)

const (
	prefixClient        = "client/"
	prefixProject       = "project/"
	prefixTask          = "task/"
	prefixEntry         = "entry/"
	prefixInvoice       = "invoice/"
	keyActiveTimer      = "sys/active-timer"
	prefixInvoiceNumber = "idx/invoice-number/"
)

// EntryFilter narrows ListEntries results. Zero fields match everything.
type EntryFilter struct {
	// ClientID matches entries assigned to this client.
	ClientID string

	// InvoiceID matches entries linked to this invoice.
	InvoiceID string

	// Uninvoiced, when true, matches only entries with IsInvoiced false.
	Uninvoiced bool

	// Stopped, when true, matches only entries with IsActive false.
	Stopped bool

	// PeriodStart/PeriodEnd bound StartTime inclusively when non-zero.
	PeriodStart time.Time
	PeriodEnd   time.Time
}

// Store persists all host entities in a single BadgerDB instance.
type Store struct {
	db *storagebadger.DB
}

// New creates a Store over an open database.
func New(db *storagebadger.DB) *Store {
	return &Store{db: db}
}

func setJSON(txn *badger.Txn, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return txn.Set([]byte(key), data)
}

func getJSON(txn *badger.Txn, key string, v any) error {
	item, err := txn.Get([]byte(key))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return datatypes.ErrNotFound
		}
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

func exists(txn *badger.Txn, key string) (bool, error) {
	_, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// mapTxnErr converts Badger commit conflicts to the host taxonomy.
func mapTxnErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, badger.ErrConflict) {
		return fmt.Errorf("%w: concurrent write conflict", datatypes.ErrConflict)
	}
	return err
}

// =============================================================================
// Clients / Projects / Tasks
// =============================================================================

// CreateClient persists a new client.
func (s *Store) CreateClient(ctx context.Context, c *datatypes.Client) error {
	return mapTxnErr(s.db.WithTxn(ctx, func(txn *badger.Txn) error {
		return setJSON(txn, prefixClient+c.ID, c)
	}))
}

// GetClient loads a client by id. Returns ErrNotFound for unknown ids.
func (s *Store) GetClient(ctx context.Context, id string) (*datatypes.Client, error) {
	var c datatypes.Client
	err := s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		return getJSON(txn, prefixClient+id, &c)
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListClients returns all clients.
func (s *Store) ListClients(ctx context.Context) ([]datatypes.Client, error) {
	return listAll[datatypes.Client](ctx, s.db, prefixClient)
}

// DeleteClient removes a client. Fails with ErrValidation while projects
// or entries still reference it.
func (s *Store) DeleteClient(ctx context.Context, id string) error {
	return mapTxnErr(s.db.WithTxn(ctx, func(txn *badger.Txn) error {
		if ok, err := exists(txn, prefixClient+id); err != nil {
			return err
		} else if !ok {
			return datatypes.ErrNotFound
		}
		referenced, err := anyMatch(txn, prefixProject, func(p *datatypes.Project) bool {
			return p.ClientID == id
		})
		if err != nil {
			return err
		}
		if !referenced {
			referenced, err = anyMatch(txn, prefixEntry, func(e *datatypes.TimeEntry) bool {
				return e.ClientID != nil && *e.ClientID == id
			})
			if err != nil {
				return err
			}
		}
		if referenced {
			return fmt.Errorf("%w: client %s still has projects or entries", datatypes.ErrValidation, id)
		}
		return txn.Delete([]byte(prefixClient + id))
	}))
}

// CreateProject persists a new project after checking its owning client
// exists.
func (s *Store) CreateProject(ctx context.Context, p *datatypes.Project) error {
	return mapTxnErr(s.db.WithTxn(ctx, func(txn *badger.Txn) error {
		if ok, err := exists(txn, prefixClient+p.ClientID); err != nil {
			return err
		} else if !ok {
			return fmt.Errorf("%w: client %s does not exist", datatypes.ErrValidation, p.ClientID)
		}
		return setJSON(txn, prefixProject+p.ID, p)
	}))
}

// GetProject loads a project by id.
func (s *Store) GetProject(ctx context.Context, id string) (*datatypes.Project, error) {
	var p datatypes.Project
	err := s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		return getJSON(txn, prefixProject+id, &p)
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProjects returns all projects.
func (s *Store) ListProjects(ctx context.Context) ([]datatypes.Project, error) {
	return listAll[datatypes.Project](ctx, s.db, prefixProject)
}

// DeleteProject removes a project. Fails with ErrValidation while tasks
// or entries still reference it.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	return mapTxnErr(s.db.WithTxn(ctx, func(txn *badger.Txn) error {
		if ok, err := exists(txn, prefixProject+id); err != nil {
			return err
		} else if !ok {
			return datatypes.ErrNotFound
		}
		referenced, err := anyMatch(txn, prefixTask, func(t *datatypes.Task) bool {
			return t.ProjectID == id
		})
		if err != nil {
			return err
		}
		if !referenced {
			referenced, err = anyMatch(txn, prefixEntry, func(e *datatypes.TimeEntry) bool {
				return e.ProjectID != nil && *e.ProjectID == id
			})
			if err != nil {
				return err
			}
		}
		if referenced {
			return fmt.Errorf("%w: project %s still has tasks or entries", datatypes.ErrValidation, id)
		}
		return txn.Delete([]byte(prefixProject + id))
	}))
}

// CreateTask persists a new task after checking its owning project exists.
func (s *Store) CreateTask(ctx context.Context, t *datatypes.Task) error {
	return mapTxnErr(s.db.WithTxn(ctx, func(txn *badger.Txn) error {
		if ok, err := exists(txn, prefixProject+t.ProjectID); err != nil {
			return err
		} else if !ok {
			return fmt.Errorf("%w: project %s does not exist", datatypes.ErrValidation, t.ProjectID)
		}
		return setJSON(txn, prefixTask+t.ID, t)
	}))
}

// GetTask loads a task by id.
func (s *Store) GetTask(ctx context.Context, id string) (*datatypes.Task, error) {
	var t datatypes.Task
	err := s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		return getJSON(txn, prefixTask+id, &t)
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTasks returns all tasks.
func (s *Store) ListTasks(ctx context.Context) ([]datatypes.Task, error) {
	return listAll[datatypes.Task](ctx, s.db, prefixTask)
}

// DeleteTask removes a task. Fails with ErrValidation while entries still
// reference it.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	return mapTxnErr(s.db.WithTxn(ctx, func(txn *badger.Txn) error {
		if ok, err := exists(txn, prefixTask+id); err != nil {
			return err
		} else if !ok {
			return datatypes.ErrNotFound
		}
		referenced, err := anyMatch(txn, prefixEntry, func(e *datatypes.TimeEntry) bool {
			return e.TaskID != nil && *e.TaskID == id
		})
		if err != nil {
			return err
		}
		if referenced {
			return fmt.Errorf("%w: task %s still has entries", datatypes.ErrValidation, id)
		}
		return txn.Delete([]byte(prefixTask + id))
	}))
}

// =============================================================================
// Time Entries
// =============================================================================

// CreateEntry persists a manual (non-active) entry, validating relations.
func (s *Store) CreateEntry(ctx context.Context, e *datatypes.TimeEntry) error {
	return mapTxnErr(s.db.WithTxn(ctx, func(txn *badger.Txn) error {
		if err := checkEntryRelations(txn, e); err != nil {
			return err
		}
		return setJSON(txn, prefixEntry+e.ID, e)
	}))
}

// CreateActiveEntry persists a new running entry and claims the
// active-timer singleton inside one transaction. Returns ErrConflict when
// another entry is already active, including when two starts race.
func (s *Store) CreateActiveEntry(ctx context.Context, e *datatypes.TimeEntry) error {
	return mapTxnErr(s.db.WithTxn(ctx, func(txn *badger.Txn) error {
		if err := checkEntryRelations(txn, e); err != nil {
			return err
		}
		if err := claimActiveTimer(txn, e.ID); err != nil {
			return err
		}
		e.IsActive = true
		return setJSON(txn, prefixEntry+e.ID, e)
	}))
}

// ActivateEntry marks an existing entry running and claims the singleton.
// The caller supplies the mutated record; the claim and the write commit
// together.
func (s *Store) ActivateEntry(ctx context.Context, e *datatypes.TimeEntry) error {
	return mapTxnErr(s.db.WithTxn(ctx, func(txn *badger.Txn) error {
		if ok, err := exists(txn, prefixEntry+e.ID); err != nil {
			return err
		} else if !ok {
			return datatypes.ErrNotFound
		}
		if err := claimActiveTimer(txn, e.ID); err != nil {
			return err
		}
		e.IsActive = true
		return setJSON(txn, prefixEntry+e.ID, e)
	}))
}

// DeactivateEntry writes a stopped entry and releases the singleton in
// one transaction. The release fails with ErrState when the singleton
// is absent or held by a different entry, so racing stops cannot both
// commit.
func (s *Store) DeactivateEntry(ctx context.Context, e *datatypes.TimeEntry) error {
	return mapTxnErr(s.db.WithTxn(ctx, func(txn *badger.Txn) error {
		if err := releaseActiveTimer(txn, e.ID); err != nil {
			return err
		}
		e.IsActive = false
		return setJSON(txn, prefixEntry+e.ID, e)
	}))
}

// UpdateEntry overwrites a stopped, uninvoiced entry's editable fields.
func (s *Store) UpdateEntry(ctx context.Context, e *datatypes.TimeEntry) error {
	return mapTxnErr(s.db.WithTxn(ctx, func(txn *badger.Txn) error {
		var current datatypes.TimeEntry
		if err := getJSON(txn, prefixEntry+e.ID, &current); err != nil {
			return err
		}
		if current.IsActive {
			return fmt.Errorf("%w: entry %s is active", datatypes.ErrState, e.ID)
		}
		if current.IsInvoiced {
			return fmt.Errorf("%w: entry %s is invoiced", datatypes.ErrState, e.ID)
		}
		if err := checkEntryRelations(txn, e); err != nil {
			return err
		}
		return setJSON(txn, prefixEntry+e.ID, e)
	}))
}

// DeleteEntry removes an entry. Active or invoiced entries are never
// physically deleted; deletion is rejected with ErrState.
func (s *Store) DeleteEntry(ctx context.Context, id string) error {
	return mapTxnErr(s.db.WithTxn(ctx, func(txn *badger.Txn) error {
		var e datatypes.TimeEntry
		if err := getJSON(txn, prefixEntry+id, &e); err != nil {
			return err
		}
		if e.IsActive {
			return fmt.Errorf("%w: cannot delete active entry %s", datatypes.ErrState, id)
		}
		if e.IsInvoiced {
			return fmt.Errorf("%w: cannot delete invoiced entry %s", datatypes.ErrState, id)
		}
		return txn.Delete([]byte(prefixEntry + id))
	}))
}

// GetEntry loads an entry by id.
func (s *Store) GetEntry(ctx context.Context, id string) (*datatypes.TimeEntry, error) {
	var e datatypes.TimeEntry
	err := s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		return getJSON(txn, prefixEntry+id, &e)
	})
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// GetActiveEntry returns the single active entry, or nil when no timer is
// running. Never fails on the no-timer case.
func (s *Store) GetActiveEntry(ctx context.Context) (*datatypes.TimeEntry, error) {
	var e *datatypes.TimeEntry
	err := s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyActiveTimer))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		var id string
		if err := item.Value(func(val []byte) error {
			id = string(val)
			return nil
		}); err != nil {
			return err
		}
		var entry datatypes.TimeEntry
		if err := getJSON(txn, prefixEntry+id, &entry); err != nil {
			return fmt.Errorf("active timer points at missing entry %s: %w", id, err)
		}
		e = &entry
		return nil
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

// ListEntries returns entries matching the filter, ordered by StartTime.
func (s *Store) ListEntries(ctx context.Context, filter EntryFilter) ([]datatypes.TimeEntry, error) {
	entries, err := listAll[datatypes.TimeEntry](ctx, s.db, prefixEntry)
	if err != nil {
		return nil, err
	}
	out := entries[:0]
	for _, e := range entries {
		if filter.ClientID != "" && (e.ClientID == nil || *e.ClientID != filter.ClientID) {
			continue
		}
		if filter.InvoiceID != "" && (e.InvoiceID == nil || *e.InvoiceID != filter.InvoiceID) {
			continue
		}
		if filter.Uninvoiced && e.IsInvoiced {
			continue
		}
		if filter.Stopped && e.IsActive {
			continue
		}
		if !filter.PeriodStart.IsZero() && e.StartTime.Before(filter.PeriodStart) {
			continue
		}
		if !filter.PeriodEnd.IsZero() && e.StartTime.After(filter.PeriodEnd) {
			continue
		}
		out = append(out, e)
	}
	sortByStartTime(out)
	return out, nil
}

// =============================================================================
// Invoices
// =============================================================================

// CreateInvoiceWithEntries writes the invoice, claims its number in the
// uniqueness index, and marks every selected entry invoiced — all in one
// transaction. Returns ErrPersistence when the number is already taken.
func (s *Store) CreateInvoiceWithEntries(ctx context.Context, inv *datatypes.Invoice, entryIDs []string) error {
	return mapTxnErr(s.db.WithTxn(ctx, func(txn *badger.Txn) error {
		numberKey := prefixInvoiceNumber + inv.InvoiceNumber
		if ok, err := exists(txn, numberKey); err != nil {
			return err
		} else if ok {
			return fmt.Errorf("%w: invoice number %s already exists", datatypes.ErrPersistence, inv.InvoiceNumber)
		}
		if err := txn.Set([]byte(numberKey), []byte(inv.ID)); err != nil {
			return err
		}
		if err := setJSON(txn, prefixInvoice+inv.ID, inv); err != nil {
			return err
		}
		for _, id := range entryIDs {
			var e datatypes.TimeEntry
			if err := getJSON(txn, prefixEntry+id, &e); err != nil {
				return err
			}
			if e.IsActive {
				return fmt.Errorf("%w: entry %s is active", datatypes.ErrState, id)
			}
			if e.IsInvoiced {
				return fmt.Errorf("%w: entry %s already invoiced", datatypes.ErrConflict, id)
			}
			e.IsInvoiced = true
			invoiceID := inv.ID
			e.InvoiceID = &invoiceID
			if err := setJSON(txn, prefixEntry+id, &e); err != nil {
				return err
			}
		}
		return nil
	}))
}

// UpdateInvoice overwrites an existing invoice record. The invoice number
// is immutable: an attempt to change it is rejected.
func (s *Store) UpdateInvoice(ctx context.Context, inv *datatypes.Invoice) error {
	return mapTxnErr(s.db.WithTxn(ctx, func(txn *badger.Txn) error {
		var current datatypes.Invoice
		if err := getJSON(txn, prefixInvoice+inv.ID, &current); err != nil {
			return err
		}
		if current.InvoiceNumber != inv.InvoiceNumber {
			return fmt.Errorf("%w: invoice number is immutable", datatypes.ErrValidation)
		}
		return setJSON(txn, prefixInvoice+inv.ID, inv)
	}))
}

// GetInvoice loads an invoice by id.
func (s *Store) GetInvoice(ctx context.Context, id string) (*datatypes.Invoice, error) {
	var inv datatypes.Invoice
	err := s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		return getJSON(txn, prefixInvoice+id, &inv)
	})
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// ListInvoices returns all invoices.
func (s *Store) ListInvoices(ctx context.Context) ([]datatypes.Invoice, error) {
	return listAll[datatypes.Invoice](ctx, s.db, prefixInvoice)
}

// CountInvoiceNumbersWithPrefix counts claimed invoice numbers beginning
// with the given prefix. Used for date-scoped sequence generation.
func (s *Store) CountInvoiceNumbersWithPrefix(ctx context.Context, prefix string) (int, error) {
	count := 0
	err := s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		scanPrefix := []byte(prefixInvoiceNumber + prefix)
		for it.Seek(scanPrefix); it.ValidForPrefix(scanPrefix); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// DeleteInvoice unlinks every entry referencing the invoice (isInvoiced
// false, invoiceId cleared), releases the number index key, and removes
// the record — one transaction, preserving the linkage invariant.
func (s *Store) DeleteInvoice(ctx context.Context, id string) error {
	return mapTxnErr(s.db.WithTxn(ctx, func(txn *badger.Txn) error {
		var inv datatypes.Invoice
		if err := getJSON(txn, prefixInvoice+id, &inv); err != nil {
			return err
		}

		opts := badger.DefaultIteratorOptions
		it := txn.NewIterator(opts)
		prefix := []byte(prefixEntry)
		var linked []datatypes.TimeEntry
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var e datatypes.TimeEntry
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			})
			if err != nil {
				it.Close()
				return err
			}
			if e.InvoiceID != nil && *e.InvoiceID == id {
				linked = append(linked, e)
			}
		}
		it.Close()

		for i := range linked {
			linked[i].IsInvoiced = false
			linked[i].InvoiceID = nil
			if err := setJSON(txn, prefixEntry+linked[i].ID, &linked[i]); err != nil {
				return err
			}
		}

		if err := txn.Delete([]byte(prefixInvoiceNumber + inv.InvoiceNumber)); err != nil {
			return err
		}
		return txn.Delete([]byte(prefixInvoice + id))
	}))
}

// =============================================================================
// Helpers
// =============================================================================

// claimActiveTimer enforces the single-active-timer rule: the singleton
// key must be absent when claimed. The read participates in the
// transaction's conflict detection, so racing claims cannot both commit.
func claimActiveTimer(txn *badger.Txn, entryID string) error {
	item, err := txn.Get([]byte(keyActiveTimer))
	if err == nil {
		var runningID string
		_ = item.Value(func(val []byte) error {
			runningID = string(val)
			return nil
		})
		return fmt.Errorf("%w: entry %s is already running", datatypes.ErrConflict, runningID)
	}
	if !errors.Is(err, badger.ErrKeyNotFound) {
		return err
	}
	return txn.Set([]byte(keyActiveTimer), []byte(entryID))
}

// releaseActiveTimer deletes the singleton key after confirming it is
// held by entryID. A missing or mismatched claim means the entry is not
// the running one, so the release is rejected rather than clobbering
// another entry's claim.
func releaseActiveTimer(txn *badger.Txn, entryID string) error {
	item, err := txn.Get([]byte(keyActiveTimer))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("%w: entry %s is not running", datatypes.ErrState, entryID)
	}
	if err != nil {
		return err
	}
	var runningID string
	if err := item.Value(func(val []byte) error {
		runningID = string(val)
		return nil
	}); err != nil {
		return err
	}
	if runningID != entryID {
		return fmt.Errorf("%w: entry %s is not running", datatypes.ErrState, entryID)
	}
	return txn.Delete([]byte(keyActiveTimer))
}

func checkEntryRelations(txn *badger.Txn, e *datatypes.TimeEntry) error {
	if e.ClientID != nil {
		if ok, err := exists(txn, prefixClient+*e.ClientID); err != nil {
			return err
		} else if !ok {
			return fmt.Errorf("%w: client %s does not exist", datatypes.ErrValidation, *e.ClientID)
		}
	}
	if e.ProjectID != nil {
		if ok, err := exists(txn, prefixProject+*e.ProjectID); err != nil {
			return err
		} else if !ok {
			return fmt.Errorf("%w: project %s does not exist", datatypes.ErrValidation, *e.ProjectID)
		}
	}
	if e.TaskID != nil {
		if ok, err := exists(txn, prefixTask+*e.TaskID); err != nil {
			return err
		} else if !ok {
			return fmt.Errorf("%w: task %s does not exist", datatypes.ErrValidation, *e.TaskID)
		}
	}
	return nil
}

func listAll[T any](ctx context.Context, db *storagebadger.DB, prefix string) ([]T, error) {
	var out []T
	err := db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		it := txn.NewIterator(opts)
		defer it.Close()
		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			var v T
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &v)
			})
			if err != nil {
				return err
			}
			out = append(out, v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func anyMatch[T any](txn *badger.Txn, prefix string, match func(*T) bool) (bool, error) {
	opts := badger.DefaultIteratorOptions
	it := txn.NewIterator(opts)
	defer it.Close()
	p := []byte(prefix)
	for it.Seek(p); it.ValidForPrefix(p); it.Next() {
		var v T
		err := it.Item().Value(func(val []byte) error {
			return json.Unmarshal(val, &v)
		})
		if err != nil {
			return false, err
		}
		if match(&v) {
			return true, nil
		}
	}
	return false, nil
}

func sortByStartTime(entries []datatypes.TimeEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].StartTime.Before(entries[j].StartTime)
	})
}
