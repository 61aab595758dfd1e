package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"boxyledger/internal/core"
	"boxyledger/internal/log"
	"boxyledger/internal/storage"
)

// CategoryService manages the category table: first-run seeding, user edits
// and the ordering used by the keypad screens.
type CategoryService struct {
	store storage.Store
}

func NewCategoryService(store storage.Store) *CategoryService {
	return &CategoryService{store: store}
}

// SeedDefaults installs the built-in category set if, and only if, the table
// is empty. Safe to call on every start.
func (s *CategoryService) SeedDefaults(ctx context.Context) error {
	n, err := s.store.CountCategories(ctx)
	if err != nil {
		return fmt.Errorf("count categories: %w", err)
	}
	if n > 0 {
		return nil
	}
	defaults := core.DefaultCategories()
	for _, c := range defaults {
		if err := s.store.UpsertCategory(ctx, &c); err != nil {
			return fmt.Errorf("seed category %q: %w", c.Name, err)
		}
	}
	slog.InfoContext(ctx, "Seeded default categories", "count", len(defaults))
	return nil
}

// Add appends a category at the end of its type's ordering.
func (s *CategoryService) Add(ctx context.Context, name, icon string, t core.RecordType) (core.Category, error) {
	c := core.Category{Name: strings.TrimSpace(name), Icon: icon, Type: t}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}

	siblings, err := s.store.ListCategoriesByType(ctx, t)
	if err != nil {
		return core.Category{}, fmt.Errorf("list categories: %w", err)
	}
	c.SortOrder = len(siblings)

	if err := s.store.UpsertCategory(ctx, &c); err != nil {
		return core.Category{}, err
	}
	slog.InfoContext(ctx, "Category added",
		log.FieldCategory, c.Name, log.FieldRecordType, c.Type.String(), "id", c.ID)
	return c, nil
}

// Update overwrites a category. Existing records keep the old name snapshot;
// their icon lookup falls back to the default icon afterwards.
func (s *CategoryService) Update(ctx context.Context, c core.Category) error {
	if c.ID == 0 {
		return errors.New("category id required")
	}
	if err := c.Validate(); err != nil {
		return err
	}
	return s.store.UpsertCategory(ctx, &c)
}

// Delete removes a category. Records referencing it by name are untouched.
func (s *CategoryService) Delete(ctx context.Context, id int64) error {
	return s.store.DeleteCategory(ctx, id)
}

// SwapOrder exchanges the display positions of two categories of the same
// type, committing both writes together.
func (s *CategoryService) SwapOrder(ctx context.Context, a, b core.Category) error {
	if a.Type != b.Type {
		return errors.New("cannot reorder across category types")
	}
	return s.store.InTx(ctx, func(tx storage.Store) error {
		a.SortOrder, b.SortOrder = b.SortOrder, a.SortOrder
		if err := tx.UpsertCategory(ctx, &a); err != nil {
			return err
		}
		return tx.UpsertCategory(ctx, &b)
	})
}

// Resolve finds the live category behind a record's name snapshot.
func (s *CategoryService) Resolve(ctx context.Context, name string, t core.RecordType) (core.Category, error) {
	return s.store.GetCategoryByNameAndType(ctx, name, t)
}

func (s *CategoryService) List(ctx context.Context) ([]core.Category, error) {
	return s.store.ListCategories(ctx)
}

func (s *CategoryService) ListByType(ctx context.Context, t core.RecordType) ([]core.Category, error) {
	return s.store.ListCategoriesByType(ctx, t)
}
