package views

import (
	"context"
	"fmt"
	"time"

	"boxyledger/internal/cache"
	"boxyledger/internal/core"
	"boxyledger/internal/storage"
)

const (
	iconCacheSize = 256
	iconCacheTTL  = 10 * time.Minute
)

// IconResolver maps a record's category name snapshot to an icon. Records
// keep the name they were written with, so after a rename or delete the
// lookup misses and the default icon is used. Results are memoized in an
// LRU cache; category edits flush it.
type IconResolver struct {
	store storage.Store
	cache *cache.LRUCache[string]
}

func NewIconResolver(store storage.Store, mgr *cache.Manager) *IconResolver {
	c := cache.NewLRUCache[string](iconCacheSize, iconCacheTTL)
	if mgr != nil {
		mgr.Register(c)
	}
	return &IconResolver{store: store, cache: c}
}

// Resolve returns the icon for a category name under the given record type,
// or the fallback icon when no live category matches.
func (r *IconResolver) Resolve(ctx context.Context, name string, t core.RecordType) string {
	key := iconKey(name, t)
	if icon, ok := r.cache.Get(key); ok {
		return icon
	}

	icon := core.FallbackIcon
	if c, err := r.store.GetCategoryByNameAndType(ctx, name, t); err == nil {
		icon = c.Icon
	}
	r.cache.Set(key, icon)
	return icon
}

// Invalidate drops all memoized lookups. Called whenever the category table
// changes.
func (r *IconResolver) Invalidate() {
	r.cache.Clear()
}

func iconKey(name string, t core.RecordType) string {
	return fmt.Sprintf("%d/%s", t, name)
}
