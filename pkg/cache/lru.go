package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// LRU is an in-memory backend bounded by entry count, evicting the least
// recently used entry when capacity is exceeded.
//
// It uses a hash map for O(1) lookups and a doubly-linked list for O(1)
// recency bookkeeping: the most recently touched entries sit at the front
// of the list, the least recently used at the back. Because the list keeps
// a strict recency order, entries that were never promoted fall out in
// insertion order, oldest first.
//
// A single mutex serializes every operation. Fetch promotes the entry, so
// even reads are structural mutations here; the uniform lock keeps eviction
// bookkeeping and map state consistent without a lock-free scheme.
type LRU struct {
	items    map[string]*list.Element
	eviction *list.List
	opts     *lruOptions
	onEvict  func(key string, e Entry)
	done     chan struct{}
	mu       sync.Mutex
	closed   bool
}

// lruNode is the list element payload. The key lives here because eviction
// starts from list nodes, not from the map.
type lruNode struct {
	key   string
	entry Entry
}

// NewLRU creates an in-memory LRU backend.
//
// Example:
//
//	b := cache.NewLRU(
//	    cache.WithCapacity(10000),
//	    cache.WithCleanupInterval(30 * time.Second),
//	)
//	defer b.Close()
func NewLRU(opts ...LRUOption) *LRU {
	o := defaultLRUOptions()
	for _, opt := range opts {
		opt(o)
	}

	l := &LRU{
		items:    make(map[string]*list.Element),
		eviction: list.New(),
		opts:     o,
		done:     make(chan struct{}),
	}

	if o.cleanupInterval > 0 {
		go l.janitor()
	}

	return l
}

// SetEvictCallback sets a callback invoked whenever an entry leaves the
// cache: capacity eviction, expiry sweep, Delete, and Clear.
func (l *LRU) SetEvictCallback(fn func(key string, e Entry)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onEvict = fn
}

// Store writes the entry under key, overwriting unconditionally.
// Inserting beyond capacity evicts least-recently-used entries until the
// cache fits; pinned entries are skipped. If every resident entry is
// pinned the insert still proceeds and the cache temporarily exceeds its
// capacity.
func (l *LRU) Store(_ context.Context, key string, e Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrClosed
	}

	e.Value = cloneBytes(e.Value)

	// Overwrite counts as use: promote, do not evict.
	if elem, ok := l.items[key]; ok {
		elem.Value.(*lruNode).entry = e
		l.eviction.MoveToFront(elem)
		return nil
	}

	for l.opts.capacity > 0 && len(l.items) >= l.opts.capacity {
		if !l.evictOldest() {
			break // everything pinned, nothing evictable
		}
	}

	elem := l.eviction.PushFront(&lruNode{key: key, entry: e})
	l.items[key] = elem

	return nil
}

// Fetch returns the value bytes for key and promotes it to most recently
// used. Expired entries are removed on access and reported as ErrNotFound.
func (l *LRU) Fetch(_ context.Context, key string) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil, ErrClosed
	}

	elem, ok := l.items[key]
	if !ok {
		return nil, ErrNotFound
	}

	n := elem.Value.(*lruNode)
	if n.entry.Expired(time.Now()) {
		l.removeElement(elem)
		return nil, ErrNotFound
	}

	l.eviction.MoveToFront(elem)

	return cloneBytes(n.entry.Value), nil
}

// Has reports whether key exists and has not expired. Unlike Fetch it does
// not promote the entry.
func (l *LRU) Has(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return false, ErrClosed
	}

	elem, ok := l.items[key]
	if !ok {
		return false, nil
	}

	if elem.Value.(*lruNode).entry.Expired(time.Now()) {
		l.removeElement(elem)
		return false, nil
	}

	return true, nil
}

// Delete removes the given keys in one critical section, so concurrent
// readers observe either all of them present or all of them gone.
func (l *LRU) Delete(_ context.Context, keys ...string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrClosed
	}

	for _, key := range keys {
		if elem, ok := l.items[key]; ok {
			l.removeElement(elem)
		}
	}

	return nil
}

// Clear removes all entries. Capacity and options are kept.
func (l *LRU) Clear(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrClosed
	}

	if l.onEvict != nil {
		for _, elem := range l.items {
			n := elem.Value.(*lruNode)
			l.onEvict(n.key, n.entry)
		}
	}

	l.items = make(map[string]*list.Element)
	l.eviction.Init()

	return nil
}

// Keys returns a snapshot of live keys in most-to-least recently used order.
func (l *LRU) Keys(_ context.Context) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil, ErrClosed
	}

	now := time.Now()
	out := make([]string, 0, len(l.items))
	for elem := l.eviction.Front(); elem != nil; elem = elem.Next() {
		if n := elem.Value.(*lruNode); !n.entry.Expired(now) {
			out = append(out, n.key)
		}
	}

	return out, nil
}

// Close stops the background janitor and rejects further mutation.
// Close is idempotent.
func (l *LRU) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}

	l.closed = true
	close(l.done)

	return nil
}

// janitor periodically sweeps expired entries.
func (l *LRU) janitor() {
	ticker := time.NewTicker(l.opts.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			l.deleteExpired()
		}
	}
}

// deleteExpired removes expired entries, scanning from the cold end where
// they are most likely to sit.
func (l *LRU) deleteExpired() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	for elem := l.eviction.Back(); elem != nil; {
		prev := elem.Prev()
		if elem.Value.(*lruNode).entry.Expired(now) {
			l.removeElement(elem)
		}
		elem = prev
	}
}

// evictOldest removes the least recently used non-pinned entry and reports
// whether anything was evicted. Caller must hold the mutex.
func (l *LRU) evictOldest() bool {
	for elem := l.eviction.Back(); elem != nil; elem = elem.Prev() {
		if !elem.Value.(*lruNode).entry.Pinned {
			l.removeElement(elem)
			return true
		}
	}
	return false
}

// removeElement unlinks an element and triggers the eviction callback.
// Caller must hold the mutex.
func (l *LRU) removeElement(elem *list.Element) {
	l.eviction.Remove(elem)
	n := elem.Value.(*lruNode)
	delete(l.items, n.key)

	if l.onEvict != nil {
		l.onEvict(n.key, n.entry)
	}
}

var _ Backend = (*LRU)(nil)
