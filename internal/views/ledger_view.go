// Package views maintains live read-model projections over the store's
// change streams. Screens consume a single Overview snapshot instead of
// querying tables themselves.
package views

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"boxyledger/internal/core"
	"boxyledger/internal/storage"
)

// Overview is one consistent snapshot of everything the main screens show.
type Overview struct {
	Records      []core.LedgerRecord
	ByDay        map[string][]core.LedgerRecord
	Month        core.MonthOverview
	Today        core.Totals
	NetAssets    core.Money
	Liabilities  core.Money
	AccountNames map[int64]string

	// CategoryIcons holds the resolved icon for every category name
	// appearing in Records, keyed per record type.
	CategoryIcons map[string]string
}

// Icon returns the rendered icon for a record's category snapshot, or the
// fallback icon when the snapshot no longer resolves.
func (o Overview) Icon(name string, t core.RecordType) string {
	if icon, ok := o.CategoryIcons[iconKey(name, t)]; ok {
		return icon
	}
	return core.FallbackIcon
}

// LedgerView subscribes to the store's account, record and category streams
// and folds them into an Overview. A new snapshot is published after every
// committed change; slow consumers only ever see the latest one.
type LedgerView struct {
	store   storage.Store
	watcher *storage.Watcher
	icons   *IconResolver
	loc     *time.Location
	now     func() time.Time

	mu       sync.Mutex
	records  []core.LedgerRecord
	accounts []core.Account

	// pubMu serializes the replace-stale-then-send pair on out so racing
	// workers cannot both slip past the drain and block.
	pubMu sync.Mutex
	out   chan Overview
}

func NewLedgerView(store storage.Store, w *storage.Watcher, icons *IconResolver, loc *time.Location) *LedgerView {
	if loc == nil {
		loc = time.Local
	}
	return &LedgerView{
		store:   store,
		watcher: w,
		icons:   icons,
		loc:     loc,
		now:     time.Now,
		out:     make(chan Overview, 1),
	}
}

// Updates is the snapshot stream. It is closed when Run returns.
func (v *LedgerView) Updates() <-chan Overview {
	return v.out
}

// Run consumes the three table streams until ctx is cancelled. Each stream
// update refreshes the shared state and publishes a fresh snapshot.
func (v *LedgerView) Run(ctx context.Context) error {
	recordCh := storage.WatchRecords(ctx, v.store, v.watcher)
	accountCh := storage.WatchAccounts(ctx, v.store, v.watcher)
	categoryCh := storage.WatchCategories(ctx, v.store, v.watcher)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case records, ok := <-recordCh:
				if !ok {
					return nil
				}
				v.mu.Lock()
				v.records = records
				v.mu.Unlock()
				v.publish(ctx)
			}
		}
	})
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case accounts, ok := <-accountCh:
				if !ok {
					return nil
				}
				v.mu.Lock()
				v.accounts = accounts
				v.mu.Unlock()
				v.publish(ctx)
			}
		}
	})
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case _, ok := <-categoryCh:
				if !ok {
					return nil
				}
				// category edits invalidate the icon cache; the next
				// render re-resolves against the live table
				if v.icons != nil {
					v.icons.Invalidate()
				}
				v.publish(ctx)
			}
		}
	})

	err := g.Wait()
	close(v.out)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// publish rebuilds the snapshot from current state and replaces any unread
// one sitting in the channel.
func (v *LedgerView) publish(ctx context.Context) {
	v.mu.Lock()
	records := v.records
	accounts := v.accounts
	v.mu.Unlock()

	now := v.now().In(v.loc)
	names := make(map[int64]string, len(accounts))
	for _, a := range accounts {
		names[a.ID] = a.Name
	}

	icons := make(map[string]string)
	if v.icons != nil {
		for _, r := range records {
			key := iconKey(r.Category, r.Type)
			if _, ok := icons[key]; !ok {
				icons[key] = v.icons.Resolve(ctx, r.Category, r.Type)
			}
		}
	}

	month := core.NewMonthOverview(now.Year(), now.Month(), v.loc, records)
	ov := Overview{
		Records:       records,
		ByDay:         core.GroupByDay(records, v.loc),
		Month:         month,
		Today:         month.ByDay[core.DayKey(now, v.loc)],
		NetAssets:     core.NetAssets(accounts),
		Liabilities:   core.Liabilities(accounts),
		AccountNames:  names,
		CategoryIcons: icons,
	}

	v.pubMu.Lock()
	select {
	case <-v.out:
	default:
	}
	v.out <- ov
	v.pubMu.Unlock()
}
