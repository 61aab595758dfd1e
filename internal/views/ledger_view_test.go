package views

import (
	"context"
	"sync"
	"testing"
	"time"

	"boxyledger/internal/cache"
	"boxyledger/internal/core"
	"boxyledger/internal/storage/memory"
)

func waitOverview(t *testing.T, ch <-chan Overview, accept func(Overview) bool) Overview {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ov, ok := <-ch:
			if !ok {
				t.Fatalf("overview stream closed")
			}
			if accept(ov) {
				return ov
			}
		case <-deadline:
			t.Fatalf("no matching overview within deadline")
		}
	}
}

func TestLedgerViewProjectsStoreChanges(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := memory.New()
	icons := NewIconResolver(store, nil)
	view := NewLedgerView(store, store.Watcher(), icons, time.UTC)

	done := make(chan error, 1)
	go func() { done <- view.Run(ctx) }()

	// initial snapshot is empty
	waitOverview(t, view.Updates(), func(ov Overview) bool {
		return len(ov.Records) == 0
	})

	cat := core.Category{Name: "餐饮", Icon: "Restaurant", Type: core.Expense}
	if err := store.UpsertCategory(ctx, &cat); err != nil {
		t.Fatalf("category: %v", err)
	}
	a := core.Account{Name: "Wallet", Type: "现金账户", Balance: core.Cents(10000)}
	if err := store.UpsertAccount(ctx, &a); err != nil {
		t.Fatalf("account: %v", err)
	}
	now := time.Now().UTC()
	rec := core.LedgerRecord{
		Amount:    core.Cents(3000),
		Type:      core.Expense,
		Category:  "餐饮",
		Date:      now,
		AccountID: a.ID,
	}
	if err := store.UpsertRecord(ctx, &rec); err != nil {
		t.Fatalf("record: %v", err)
	}

	ov := waitOverview(t, view.Updates(), func(ov Overview) bool {
		return len(ov.Records) == 1 && len(ov.AccountNames) == 1
	})
	if ov.AccountNames[a.ID] != "Wallet" {
		t.Fatalf("account name missing: %+v", ov.AccountNames)
	}
	if ov.NetAssets.Cents != 10000 {
		t.Fatalf("net assets %d", ov.NetAssets.Cents)
	}
	if ov.Today.Expense.Cents != 3000 {
		t.Fatalf("today expense %d", ov.Today.Expense.Cents)
	}
	key := core.DayKey(now, time.UTC)
	if len(ov.ByDay[key]) != 1 {
		t.Fatalf("record not grouped under %s", key)
	}
	if ov.Month.Totals.Expense.Cents != 3000 {
		t.Fatalf("month expense %d", ov.Month.Totals.Expense.Cents)
	}
	if got := ov.Icon("餐饮", core.Expense); got != "Restaurant" {
		t.Fatalf("expected resolved icon Restaurant, got %q", got)
	}
	if got := ov.Icon("gone", core.Expense); got != core.FallbackIcon {
		t.Fatalf("expected fallback icon for unknown snapshot, got %q", got)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}
}

// Racing table writes drive publish from all three workers at once; every
// worker must stay non-blocking even when no consumer is draining.
func TestLedgerViewPublishUnderContention(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := memory.New()
	view := NewLedgerView(store, store.Watcher(), nil, time.UTC)

	done := make(chan error, 1)
	go func() { done <- view.Run(ctx) }()

	var wg sync.WaitGroup
	for w := 0; w < 3; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				a := core.Account{Name: "Wallet", Type: "现金账户"}
				store.UpsertAccount(ctx, &a)
				r := core.LedgerRecord{Amount: core.Cents(1), Type: core.Income, Category: "工资", Date: time.Now(), AccountID: a.ID}
				store.UpsertRecord(ctx, &r)
				c := core.Category{Name: "工资", Icon: "AttachMoney", Type: core.Income}
				store.UpsertCategory(ctx, &c)
				store.DeleteCategory(ctx, c.ID)
			}
		}()
	}

	wg.Wait()
	cancel()

	// a worker stuck in a blocked send would keep Run from returning
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("view workers blocked on publish with no consumer")
	}
}

func TestIconResolver(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	mgr := cache.NewManager()
	icons := NewIconResolver(store, mgr)

	c := core.Category{Name: "餐饮", Icon: "Restaurant", Type: core.Expense}
	if err := store.UpsertCategory(ctx, &c); err != nil {
		t.Fatalf("category: %v", err)
	}

	if got := icons.Resolve(ctx, "餐饮", core.Expense); got != "Restaurant" {
		t.Fatalf("expected Restaurant, got %q", got)
	}
	// deleted category: cache still answers until invalidated
	if err := store.DeleteCategory(ctx, c.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := icons.Resolve(ctx, "餐饮", core.Expense); got != "Restaurant" {
		t.Fatalf("expected memoized Restaurant, got %q", got)
	}
	icons.Invalidate()
	if got := icons.Resolve(ctx, "餐饮", core.Expense); got != core.FallbackIcon {
		t.Fatalf("expected fallback after invalidation, got %q", got)
	}

	// a name that never existed resolves to the fallback
	if got := icons.Resolve(ctx, "missing", core.Income); got != core.FallbackIcon {
		t.Fatalf("expected fallback, got %q", got)
	}
}
