// Aquascape - Aquarium Monitoring Dashboard Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aquascape

// Package cache provides a bounded, TTL-aware LRU used for session state,
// user-sync deduplication and recently resolved alert suppression.
package cache

import (
	"sync"
	"time"
)

type lruEntry[V any] struct {
	key       string
	value     V
	prev      *lruEntry[V]
	next      *lruEntry[V]
	expiresAt time.Time
}

// EvictFunc is called after an entry leaves the cache through capacity
// eviction, expiry or Remove. It runs without the cache lock held.
type EvictFunc[V any] func(key string, value V)

// LRU is a thread-safe Least Recently Used cache with TTL support.
//
// Key features:
//   - O(1) Get, Add, Remove operations
//   - O(1) LRU eviction when capacity is reached
//   - TTL support with lazy expiration
//   - Optional eviction callback
//
// Entries live in a doubly-linked list ordered by recency with a hashmap
// for lookups.
type LRU[V any] struct {
	mu sync.RWMutex

	capacity int
	ttl      time.Duration
	now      func() time.Time
	onEvict  EvictFunc[V]

	items map[string]*lruEntry[V]

	// head.next is the most recently used, tail.prev is the least recently used
	head *lruEntry[V]
	tail *lruEntry[V]
}

// Option configures an LRU.
type Option[V any] func(*LRU[V])

// WithClock replaces time.Now, mainly for tests.
func WithClock[V any](now func() time.Time) Option[V] {
	return func(c *LRU[V]) { c.now = now }
}

// WithEvict registers a callback for entries leaving the cache.
func WithEvict[V any](fn func(key string, value V)) Option[V] {
	return func(c *LRU[V]) { c.onEvict = fn }
}

// New creates an LRU with the specified capacity and TTL.
func New[V any](capacity int, ttl time.Duration, opts ...Option[V]) *LRU[V] {
	if capacity <= 0 {
		capacity = 1000
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	c := &LRU[V]{
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
		items:    make(map[string]*lruEntry[V], capacity),
		head:     &lruEntry[V]{},
		tail:     &lruEntry[V]{},
	}
	c.head.next = c.tail
	c.tail.prev = c.head

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the value for key if present and not expired. Found entries
// become the most recently used.
func (c *LRU[V]) Get(key string) (V, bool) {
	var zero V

	c.mu.Lock()
	entry, exists := c.items[key]
	if !exists {
		c.mu.Unlock()
		return zero, false
	}
	if c.now().After(entry.expiresAt) {
		c.removeEntry(entry)
		c.mu.Unlock()
		c.evicted(entry)
		return zero, false
	}
	c.moveToFront(entry)
	value := entry.value
	c.mu.Unlock()
	return value, true
}

// Contains reports whether key exists and is not expired without touching
// the access order.
func (c *LRU[V]) Contains(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if entry, exists := c.items[key]; exists {
		return !c.now().After(entry.expiresAt)
	}
	return false
}

// Add inserts or replaces the value for key and refreshes its TTL. If the
// cache is over capacity the least recently used entry is evicted.
func (c *LRU[V]) Add(key string, value V) {
	c.mu.Lock()
	expiresAt := c.now().Add(c.ttl)

	if entry, exists := c.items[key]; exists {
		entry.value = value
		entry.expiresAt = expiresAt
		c.moveToFront(entry)
		c.mu.Unlock()
		return
	}

	entry := &lruEntry[V]{key: key, value: value, expiresAt: expiresAt}
	c.addToFront(entry)
	c.items[key] = entry

	var evicted []*lruEntry[V]
	for len(c.items) > c.capacity {
		if oldest := c.evictOldest(); oldest != nil {
			evicted = append(evicted, oldest)
		}
	}
	c.mu.Unlock()

	for _, e := range evicted {
		c.evicted(e)
	}
}

// Touch refreshes the TTL of an existing, unexpired entry.
func (c *LRU[V]) Touch(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.items[key]
	if !exists || c.now().After(entry.expiresAt) {
		return false
	}
	entry.expiresAt = c.now().Add(c.ttl)
	c.moveToFront(entry)
	return true
}

// Remove deletes key. Returns true if the entry was found.
func (c *LRU[V]) Remove(key string) bool {
	c.mu.Lock()
	entry, exists := c.items[key]
	if exists {
		c.removeEntry(entry)
	}
	c.mu.Unlock()

	if exists {
		c.evicted(entry)
	}
	return exists
}

// Len returns the current number of entries, including expired entries not
// yet collected.
func (c *LRU[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Clear removes all entries, invoking the eviction callback for each.
func (c *LRU[V]) Clear() {
	c.mu.Lock()
	var removed []*lruEntry[V]
	for entry := c.head.next; entry != c.tail; entry = entry.next {
		removed = append(removed, entry)
	}
	c.items = make(map[string]*lruEntry[V], c.capacity)
	c.head.next = c.tail
	c.tail.prev = c.head
	c.mu.Unlock()

	for _, e := range removed {
		c.evicted(e)
	}
}

// CleanupExpired removes all expired entries and returns how many were
// removed.
func (c *LRU[V]) CleanupExpired() int {
	c.mu.Lock()
	now := c.now()
	var removed []*lruEntry[V]

	// Walk from tail (oldest) to head (newest)
	for entry := c.tail.prev; entry != c.head; {
		prev := entry.prev
		if now.After(entry.expiresAt) {
			c.removeEntry(entry)
			removed = append(removed, entry)
		}
		entry = prev
	}
	c.mu.Unlock()

	for _, e := range removed {
		c.evicted(e)
	}
	return len(removed)
}

// Internal methods (must be called with lock held)

func (c *LRU[V]) addToFront(entry *lruEntry[V]) {
	entry.prev = c.head
	entry.next = c.head.next
	c.head.next.prev = entry
	c.head.next = entry
}

func (c *LRU[V]) moveToFront(entry *lruEntry[V]) {
	entry.prev.next = entry.next
	entry.next.prev = entry.prev
	c.addToFront(entry)
}

func (c *LRU[V]) removeEntry(entry *lruEntry[V]) {
	entry.prev.next = entry.next
	entry.next.prev = entry.prev
	delete(c.items, entry.key)
}

func (c *LRU[V]) evictOldest() *lruEntry[V] {
	oldest := c.tail.prev
	if oldest == c.head {
		return nil
	}
	c.removeEntry(oldest)
	return oldest
}

// evicted runs the callback. Must be called without the lock held.
func (c *LRU[V]) evicted(entry *lruEntry[V]) {
	if c.onEvict != nil {
		c.onEvict(entry.key, entry.value)
	}
}
