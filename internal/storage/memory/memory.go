// Package memory provides a map-backed Store with the same semantics as the
// SQLite store. It backs the `memory` data backend and the service tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"boxyledger/internal/core"
	"boxyledger/internal/storage"
)

type tables struct {
	accounts   map[int64]core.Account
	categories map[int64]core.Category
	records    map[int64]core.LedgerRecord
}

func (t tables) clone() tables {
	c := tables{
		accounts:   make(map[int64]core.Account, len(t.accounts)),
		categories: make(map[int64]core.Category, len(t.categories)),
		records:    make(map[int64]core.LedgerRecord, len(t.records)),
	}
	for k, v := range t.accounts {
		c.accounts[k] = v
	}
	for k, v := range t.categories {
		c.categories[k] = v
	}
	for k, v := range t.records {
		c.records[k] = v
	}
	return c
}

// Store is an in-memory Store implementation. Transactions serialize on a
// dedicated mutex and roll back by restoring a snapshot of all tables.
type Store struct {
	mu   sync.Mutex
	txMu sync.Mutex

	data    tables
	nextID  map[storage.Topic]int64
	watcher *storage.Watcher

	// pending is non-nil while a transaction is open; touched topics are
	// notified only on commit.
	pending map[storage.Topic]struct{}
}

func New() *Store {
	return &Store{
		data: tables{
			accounts:   make(map[int64]core.Account),
			categories: make(map[int64]core.Category),
			records:    make(map[int64]core.LedgerRecord),
		},
		nextID:  make(map[storage.Topic]int64),
		watcher: storage.NewWatcher(),
	}
}

// Watcher exposes the store's change notification hub.
func (s *Store) Watcher() *storage.Watcher {
	return s.watcher
}

func (s *Store) Close() error { return nil }

func (s *Store) assignID(t storage.Topic) int64 {
	s.nextID[t]++
	return s.nextID[t]
}

// changed must be called with s.mu held.
func (s *Store) changed(t storage.Topic) {
	if s.pending != nil {
		s.pending[t] = struct{}{}
		return
	}
	s.watcher.Notify(t)
}

// InTx implements storage.Store. fn runs against the store itself; on error
// every table is restored from the pre-transaction snapshot.
func (s *Store) InTx(_ context.Context, fn func(storage.Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.data.clone()
	s.pending = make(map[storage.Topic]struct{})
	s.mu.Unlock()

	err := fn(s)

	s.mu.Lock()
	touched := s.pending
	s.pending = nil
	if err != nil {
		s.data = snapshot
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	for t := range touched {
		s.watcher.Notify(t)
	}
	return nil
}

// Accounts

func (s *Store) GetAccount(_ context.Context, id int64) (core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.data.accounts[id]
	if !ok {
		return core.Account{}, fmt.Errorf("account %d: %w", id, storage.ErrNotFound)
	}
	return a, nil
}

func (s *Store) UpsertAccount(_ context.Context, a *core.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == 0 {
		a.ID = s.assignID(storage.TopicAccounts)
	}
	s.data.accounts[a.ID] = *a
	s.changed(storage.TopicAccounts)
	return nil
}

func (s *Store) ListAccounts(_ context.Context) ([]core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Account, 0, len(s.data.accounts))
	for _, a := range s.data.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) DeleteAccount(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data.accounts, id)
	s.changed(storage.TopicAccounts)
	return nil
}

func (s *Store) RenameAccountType(_ context.Context, oldType, newType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, a := range s.data.accounts {
		if a.Type == oldType {
			a.Type = newType
			s.data.accounts[id] = a
		}
	}
	s.changed(storage.TopicAccounts)
	return nil
}

// Ledger records

func (s *Store) GetRecord(_ context.Context, id int64) (core.LedgerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.data.records[id]
	if !ok {
		return core.LedgerRecord{}, fmt.Errorf("record %d: %w", id, storage.ErrNotFound)
	}
	return r, nil
}

func (s *Store) UpsertRecord(_ context.Context, r *core.LedgerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == 0 {
		r.ID = s.assignID(storage.TopicRecords)
	}
	s.data.records[r.ID] = *r
	s.changed(storage.TopicRecords)
	return nil
}

func (s *Store) DeleteRecord(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data.records, id)
	s.changed(storage.TopicRecords)
	return nil
}

func (s *Store) ListRecords(_ context.Context) ([]core.LedgerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedRecords(func(core.LedgerRecord) bool { return true }), nil
}

func (s *Store) ListRecordsByRange(_ context.Context, from, to time.Time) ([]core.LedgerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedRecords(func(r core.LedgerRecord) bool {
		return !r.Date.Before(from) && r.Date.Before(to)
	}), nil
}

// sortedRecords must be called with s.mu held; it returns matches newest
// first, ties broken by id for determinism.
func (s *Store) sortedRecords(match func(core.LedgerRecord) bool) []core.LedgerRecord {
	var out []core.LedgerRecord
	for _, r := range s.data.records {
		if match(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Store) CountRecordsByAccount(_ context.Context, accountID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, r := range s.data.records {
		if r.AccountID == accountID {
			n++
		}
	}
	return n, nil
}

// Categories

func (s *Store) GetCategoryByNameAndType(_ context.Context, name string, t core.RecordType) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.sortedCategories(t) {
		if c.Name == name {
			return c, nil
		}
	}
	return core.Category{}, fmt.Errorf("category %q/%s: %w", name, t, storage.ErrNotFound)
}

func (s *Store) ListCategories(_ context.Context) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Category, 0, len(s.data.categories))
	for _, c := range s.data.categories {
		out = append(out, c)
	}
	sortCategories(out)
	return out, nil
}

func (s *Store) ListCategoriesByType(_ context.Context, t core.RecordType) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedCategories(t), nil
}

// sortedCategories must be called with s.mu held.
func (s *Store) sortedCategories(t core.RecordType) []core.Category {
	var out []core.Category
	for _, c := range s.data.categories {
		if c.Type == t {
			out = append(out, c)
		}
	}
	sortCategories(out)
	return out
}

func sortCategories(cats []core.Category) {
	sort.Slice(cats, func(i, j int) bool {
		if cats[i].SortOrder != cats[j].SortOrder {
			return cats[i].SortOrder < cats[j].SortOrder
		}
		return cats[i].ID < cats[j].ID
	})
}

func (s *Store) UpsertCategory(_ context.Context, c *core.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, existing := range s.data.categories {
		if id != c.ID && existing.Name == c.Name && existing.Type == c.Type {
			return fmt.Errorf("category %q/%s: %w", c.Name, c.Type, core.ErrDuplicateCategory)
		}
	}
	if c.ID == 0 {
		c.ID = s.assignID(storage.TopicCategories)
	}
	s.data.categories[c.ID] = *c
	s.changed(storage.TopicCategories)
	return nil
}

func (s *Store) DeleteCategory(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data.categories, id)
	s.changed(storage.TopicCategories)
	return nil
}

func (s *Store) CountCategories(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.data.categories)), nil
}
