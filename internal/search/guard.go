package search

import (
	"container/list"
	"context"
	"log/slog"
	"sync"
	"time"
)

// Guard is a pure predicate over the recent-query store: it never writes.
// Recording an issued query is the prompt assembler's job, which keeps the
// check side-effect free for callers that only want the verdict.
//
// A bounded in-process memo caches positive ("duplicate") verdicts keyed by
// (user, normalized query) to save store round trips. Only Record primes
// the memo, stamped with the record's own expiry; the read path never does.
// A check does not know when the query was recorded, so priming there would
// let an evicted-then-rechecked entry outlive the store's window. A cached
// "not duplicate" is never stored either: it could go stale the moment
// another request records the query. The store stays the source of truth;
// the memo can be dropped at any time.
type Guard struct {
	store  RecentQueryStore
	window time.Duration
	memo   *memoCache
}

func NewGuard(store RecentQueryStore, window time.Duration, memoSize int) *Guard {
	return &Guard{
		store:  store,
		window: window,
		memo:   newMemoCache(memoSize),
	}
}

// IsDuplicate reports whether the user already searched for this query
// within the trailing window. Store errors are logged and treated as
// "not duplicate" so a flaky store never suppresses a search.
func (g *Guard) IsDuplicate(ctx context.Context, userID, query string) bool {
	normalized := Normalize(query)

	if exp, ok := g.memo.get(userID, normalized); ok && time.Now().Before(exp) {
		return true
	}

	dup, err := g.store.ExistsWithin(ctx, userID, normalized, g.window)
	if err != nil {
		slog.Warn("dup guard: store check failed, treating as new query", "error", err, "user_id", userID)
		return false
	}
	return dup
}

// Record persists the normalized query against the current instant and
// primes the memo. Called by the assembler only when a search was issued.
func (g *Guard) Record(ctx context.Context, userID, query string) error {
	normalized := Normalize(query)
	now := time.Now()
	if err := g.store.Record(ctx, userID, normalized, now); err != nil {
		return err
	}
	g.memo.put(userID, normalized, now.Add(g.window))
	return nil
}

// memoCache is a small LRU keyed by user+query holding verdict expiry times.
type memoCache struct {
	mu    sync.Mutex
	max   int
	order *list.List
	items map[string]*list.Element
}

type memoEntry struct {
	key    string
	expiry time.Time
}

func newMemoCache(max int) *memoCache {
	if max <= 0 {
		max = 4096
	}
	return &memoCache{
		max:   max,
		order: list.New(),
		items: make(map[string]*list.Element),
	}
}

func memoKey(userID, normalized string) string {
	return userID + "\x00" + normalized
}

func (c *memoCache) get(userID, normalized string) (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[memoKey(userID, normalized)]
	if !ok {
		return time.Time{}, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*memoEntry).expiry, true
}

func (c *memoCache) put(userID, normalized string, expiry time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := memoKey(userID, normalized)
	if el, ok := c.items[key]; ok {
		el.Value.(*memoEntry).expiry = expiry
		c.order.MoveToFront(el)
		return
	}

	c.items[key] = c.order.PushFront(&memoEntry{key: key, expiry: expiry})
	if c.order.Len() > c.max {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*memoEntry).key)
	}
}
