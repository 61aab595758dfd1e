package storage

import (
	"context"
	"sync"

	"boxyledger/internal/core"
)

// Topic identifies a table for change notifications.
type Topic int

const (
	TopicAccounts Topic = iota
	TopicRecords
	TopicCategories
)

// Watcher is a per-table change signal hub. Every committed write notifies
// the topic of the table it touched; subscribers coalesce bursts, so a
// notification means "re-query", not "one write happened".
type Watcher struct {
	mu   sync.Mutex
	subs map[Topic]map[int]chan struct{}
	next int
}

func NewWatcher() *Watcher {
	return &Watcher{subs: make(map[Topic]map[int]chan struct{})}
}

// Notify signals every subscriber of the topic without blocking. A pending
// signal the subscriber has not consumed yet absorbs the new one.
func (w *Watcher) Notify(t Topic) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, ch := range w.subs[t] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (w *Watcher) subscribe(t Topic) (<-chan struct{}, func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.subs[t] == nil {
		w.subs[t] = make(map[int]chan struct{})
	}
	id := w.next
	w.next++
	ch := make(chan struct{}, 1)
	w.subs[t][id] = ch
	cancel := func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		delete(w.subs[t], id)
	}
	return ch, cancel
}

// watch emits the current query result immediately, then re-queries and
// re-emits after every notification on the topic, until ctx is cancelled.
// A consumer that falls behind only ever sees the latest result.
func watch[T any](ctx context.Context, w *Watcher, t Topic, query func(context.Context) (T, error)) <-chan T {
	out := make(chan T, 1)
	sig, cancel := w.subscribe(t)

	go func() {
		defer close(out)
		defer cancel()

		emit := func() {
			v, err := query(ctx)
			if err != nil {
				return
			}
			// drop the stale value so the send below cannot block
			select {
			case <-out:
			default:
			}
			out <- v
		}

		emit()
		for {
			select {
			case <-ctx.Done():
				return
			case <-sig:
				emit()
			}
		}
	}()
	return out
}

// WatchAccounts streams the full account list, re-emitting after every
// accounts-table write.
func WatchAccounts(ctx context.Context, s Store, w *Watcher) <-chan []core.Account {
	return watch(ctx, w, TopicAccounts, s.ListAccounts)
}

// WatchRecords streams all ledger records, newest first.
func WatchRecords(ctx context.Context, s Store, w *Watcher) <-chan []core.LedgerRecord {
	return watch(ctx, w, TopicRecords, s.ListRecords)
}

// WatchCategories streams the full category list in sort order.
func WatchCategories(ctx context.Context, s Store, w *Watcher) <-chan []core.Category {
	return watch(ctx, w, TopicCategories, s.ListCategories)
}
