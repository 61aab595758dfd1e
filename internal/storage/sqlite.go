package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"boxyledger/internal/core"

	"github.com/bwmarrin/snowflake"
	_ "modernc.org/sqlite"
)

// querier is the subset of database/sql shared by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteStore implements Store over an embedded SQLite database. Record ids
// are 64-bit snowflake ids assigned on insert; account and category ids come
// from SQLite's rowid allocator.
type SQLiteStore struct {
	db      *sql.DB // nil inside a transaction view
	q       querier
	node    *snowflake.Node
	watcher *Watcher

	// pending collects the topics touched inside a transaction; they are
	// notified only after commit. Nil outside transactions.
	pending map[Topic]struct{}
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create id node: %w", err)
	}

	return &SQLiteStore{
		db:      db,
		q:       db,
		node:    node,
		watcher: NewWatcher(),
	}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Watcher exposes the store's change notification hub.
func (s *SQLiteStore) Watcher() *Watcher {
	return s.watcher
}

func (s *SQLiteStore) changed(t Topic) {
	if s.pending != nil {
		s.pending[t] = struct{}{}
		return
	}
	s.watcher.Notify(t)
}

// InTx implements Store. A commit failure wraps core.ErrPartialWrite so
// callers can distinguish "nothing happened" validation errors from a write
// sequence that could not be applied.
func (s *SQLiteStore) InTx(ctx context.Context, fn func(Store) error) error {
	if s.pending != nil {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	txStore := &SQLiteStore{
		q:       tx,
		node:    s.node,
		watcher: s.watcher,
		pending: make(map[Topic]struct{}),
	}
	if err := fn(txStore); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", core.ErrPartialWrite, err)
	}

	for t := range txStore.pending {
		s.watcher.Notify(t)
	}
	return nil
}

// Accounts

const accountColumns = "id, name, type, balance_cents, icon, is_credit"

func scanAccount(row interface{ Scan(...any) error }) (core.Account, error) {
	var a core.Account
	err := row.Scan(&a.ID, &a.Name, &a.Type, &a.Balance.Cents, &a.Icon, &a.IsCredit)
	return a, err
}

func (s *SQLiteStore) GetAccount(ctx context.Context, id int64) (core.Account, error) {
	row := s.q.QueryRowContext(ctx, "SELECT "+accountColumns+" FROM accounts WHERE id = ?", id)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, fmt.Errorf("account %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

func (s *SQLiteStore) UpsertAccount(ctx context.Context, a *core.Account) error {
	if a.ID == 0 {
		res, err := s.q.ExecContext(ctx,
			"INSERT INTO accounts (name, type, balance_cents, icon, is_credit) VALUES (?, ?, ?, ?, ?)",
			a.Name, a.Type, a.Balance.Cents, a.Icon, a.IsCredit)
		if err != nil {
			return fmt.Errorf("insert account: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("account id: %w", err)
		}
		a.ID = id
	} else {
		_, err := s.q.ExecContext(ctx,
			"INSERT OR REPLACE INTO accounts ("+accountColumns+") VALUES (?, ?, ?, ?, ?, ?)",
			a.ID, a.Name, a.Type, a.Balance.Cents, a.Icon, a.IsCredit)
		if err != nil {
			return fmt.Errorf("replace account: %w", err)
		}
	}
	s.changed(TopicAccounts)
	return nil
}

func (s *SQLiteStore) ListAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := s.q.QueryContext(ctx, "SELECT "+accountColumns+" FROM accounts ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) DeleteAccount(ctx context.Context, id int64) error {
	if _, err := s.q.ExecContext(ctx, "DELETE FROM accounts WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	s.changed(TopicAccounts)
	return nil
}

func (s *SQLiteStore) RenameAccountType(ctx context.Context, oldType, newType string) error {
	if _, err := s.q.ExecContext(ctx, "UPDATE accounts SET type = ? WHERE type = ?", newType, oldType); err != nil {
		return fmt.Errorf("rename account type: %w", err)
	}
	s.changed(TopicAccounts)
	return nil
}

// Ledger records

const recordColumns = "id, amount_cents, type, category, date_ms, account_id, note, discount_cents"

func scanRecord(row interface{ Scan(...any) error }) (core.LedgerRecord, error) {
	var r core.LedgerRecord
	var dateMS int64
	err := row.Scan(&r.ID, &r.Amount.Cents, &r.Type, &r.Category, &dateMS, &r.AccountID, &r.Note, &r.Discount.Cents)
	if err != nil {
		return r, err
	}
	r.Date = time.UnixMilli(dateMS)
	return r, nil
}

func (s *SQLiteStore) GetRecord(ctx context.Context, id int64) (core.LedgerRecord, error) {
	row := s.q.QueryRowContext(ctx, "SELECT "+recordColumns+" FROM ledger_records WHERE id = ?", id)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.LedgerRecord{}, fmt.Errorf("record %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.LedgerRecord{}, fmt.Errorf("get record: %w", err)
	}
	return r, nil
}

func (s *SQLiteStore) UpsertRecord(ctx context.Context, r *core.LedgerRecord) error {
	if r.ID == 0 {
		r.ID = s.node.Generate().Int64()
	}
	_, err := s.q.ExecContext(ctx,
		"INSERT OR REPLACE INTO ledger_records ("+recordColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		r.ID, r.Amount.Cents, r.Type, r.Category, r.Date.UnixMilli(), r.AccountID, r.Note, r.Discount.Cents)
	if err != nil {
		return fmt.Errorf("upsert record: %w", err)
	}
	s.changed(TopicRecords)
	return nil
}

func (s *SQLiteStore) DeleteRecord(ctx context.Context, id int64) error {
	if _, err := s.q.ExecContext(ctx, "DELETE FROM ledger_records WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	s.changed(TopicRecords)
	return nil
}

func (s *SQLiteStore) ListRecords(ctx context.Context) ([]core.LedgerRecord, error) {
	rows, err := s.q.QueryContext(ctx, "SELECT "+recordColumns+" FROM ledger_records ORDER BY date_ms DESC")
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return collectRecords(rows)
}

func (s *SQLiteStore) ListRecordsByRange(ctx context.Context, from, to time.Time) ([]core.LedgerRecord, error) {
	rows, err := s.q.QueryContext(ctx,
		"SELECT "+recordColumns+" FROM ledger_records WHERE date_ms >= ? AND date_ms < ? ORDER BY date_ms DESC",
		from.UnixMilli(), to.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("list records by range: %w", err)
	}
	return collectRecords(rows)
}

func collectRecords(rows *sql.Rows) ([]core.LedgerRecord, error) {
	defer rows.Close()
	var out []core.LedgerRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) CountRecordsByAccount(ctx context.Context, accountID int64) (int64, error) {
	var n int64
	err := s.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM ledger_records WHERE account_id = ?", accountID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count records by account: %w", err)
	}
	return n, nil
}

// Categories

const categoryColumns = "id, name, icon, type, sort_order"

func scanCategory(row interface{ Scan(...any) error }) (core.Category, error) {
	var c core.Category
	err := row.Scan(&c.ID, &c.Name, &c.Icon, &c.Type, &c.SortOrder)
	return c, err
}

func (s *SQLiteStore) GetCategoryByNameAndType(ctx context.Context, name string, t core.RecordType) (core.Category, error) {
	row := s.q.QueryRowContext(ctx,
		"SELECT "+categoryColumns+" FROM categories WHERE name = ? AND type = ? LIMIT 1", name, int(t))
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, fmt.Errorf("category %q/%s: %w", name, t, ErrNotFound)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

func (s *SQLiteStore) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := s.q.QueryContext(ctx, "SELECT "+categoryColumns+" FROM categories ORDER BY sort_order, id")
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return collectCategories(rows)
}

func (s *SQLiteStore) ListCategoriesByType(ctx context.Context, t core.RecordType) ([]core.Category, error) {
	rows, err := s.q.QueryContext(ctx,
		"SELECT "+categoryColumns+" FROM categories WHERE type = ? ORDER BY sort_order, id", int(t))
	if err != nil {
		return nil, fmt.Errorf("list categories by type: %w", err)
	}
	return collectCategories(rows)
}

func collectCategories(rows *sql.Rows) ([]core.Category, error) {
	defer rows.Close()
	var out []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UpsertCategory(ctx context.Context, c *core.Category) error {
	var err error
	if c.ID == 0 {
		var res sql.Result
		res, err = s.q.ExecContext(ctx,
			"INSERT INTO categories (name, icon, type, sort_order) VALUES (?, ?, ?, ?)",
			c.Name, c.Icon, int(c.Type), c.SortOrder)
		if err == nil {
			var id int64
			if id, err = res.LastInsertId(); err == nil {
				c.ID = id
			}
		}
	} else {
		// a plain UPDATE so that renaming onto an existing (name, type)
		// trips the unique index instead of silently replacing that row
		_, err = s.q.ExecContext(ctx,
			"UPDATE categories SET name = ?, icon = ?, type = ?, sort_order = ? WHERE id = ?",
			c.Name, c.Icon, int(c.Type), c.SortOrder, c.ID)
	}
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("category %q/%s: %w", c.Name, c.Type, core.ErrDuplicateCategory)
		}
		return fmt.Errorf("upsert category: %w", err)
	}
	s.changed(TopicCategories)
	return nil
}

func (s *SQLiteStore) DeleteCategory(ctx context.Context, id int64) error {
	if _, err := s.q.ExecContext(ctx, "DELETE FROM categories WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	s.changed(TopicCategories)
	return nil
}

func (s *SQLiteStore) CountCategories(ctx context.Context) (int64, error) {
	var n int64
	if err := s.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM categories").Scan(&n); err != nil {
		return 0, fmt.Errorf("count categories: %w", err)
	}
	return n, nil
}
