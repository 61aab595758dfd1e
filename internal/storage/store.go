// Package storage defines the persistence contract required by the ledger
// services and provides its SQLite implementation. All reads and writes go
// through the Store interface; multi-step balance mutations run inside InTx
// so they apply atomically or not at all.
package storage

import (
	"context"
	"errors"
	"time"

	"boxyledger/internal/core"
)

// ErrNotFound is returned when a row does not exist. Callers that tolerate
// missing rows (the delete-record leniency, for instance) test for it with
// errors.Is.
var ErrNotFound = errors.New("not found")

// Store is the persistence contract of the ledger engine.
//
// Upsert methods insert when the entity id is zero, assigning a fresh id in
// place, and replace the whole row otherwise. Implementations serialize
// individual calls but concurrent operations still race on read-modify-write;
// the services layer holds per-account locks for that.
type Store interface {
	GetAccount(ctx context.Context, id int64) (core.Account, error)
	UpsertAccount(ctx context.Context, a *core.Account) error
	ListAccounts(ctx context.Context) ([]core.Account, error)
	DeleteAccount(ctx context.Context, id int64) error
	// RenameAccountType rewrites the type label of every account tagged
	// oldType. Renaming onto an existing label merges the two groups.
	RenameAccountType(ctx context.Context, oldType, newType string) error

	GetRecord(ctx context.Context, id int64) (core.LedgerRecord, error)
	UpsertRecord(ctx context.Context, r *core.LedgerRecord) error
	DeleteRecord(ctx context.Context, id int64) error
	// ListRecords returns all records ordered by date, newest first.
	ListRecords(ctx context.Context) ([]core.LedgerRecord, error)
	// ListRecordsByRange returns records with from <= date < to, newest first.
	ListRecordsByRange(ctx context.Context, from, to time.Time) ([]core.LedgerRecord, error)
	CountRecordsByAccount(ctx context.Context, accountID int64) (int64, error)

	// GetCategoryByNameAndType resolves a record's category-name snapshot
	// back to the live category, first match wins.
	GetCategoryByNameAndType(ctx context.Context, name string, t core.RecordType) (core.Category, error)
	ListCategories(ctx context.Context) ([]core.Category, error)
	ListCategoriesByType(ctx context.Context, t core.RecordType) ([]core.Category, error)
	UpsertCategory(ctx context.Context, c *core.Category) error
	DeleteCategory(ctx context.Context, id int64) error
	CountCategories(ctx context.Context) (int64, error)

	// InTx runs fn against a transactional view of the store. All writes
	// issued inside fn commit together or roll back together; change
	// notifications fire only after a successful commit. Nested calls run
	// in the enclosing transaction.
	InTx(ctx context.Context, fn func(Store) error) error
}
