// Copyright 2026 The Tracklist Authors.
// All rights reserved.

// Package cache contains cache implementations.
package cache

import (
	"container/list"
	"sync"
)

// LRU is a fixed-size cache with string keys that evicts the least-recently-used entry.
// It can be used concurrently from multiple goroutines.
type LRU[V any] struct {
	m   map[string]*list.Element // values are *entry[V]
	ls  list.List                // oldest in front
	mu  sync.Mutex               // protects m and ls
	max int                      // maximum entries; 0 disables the cache
}

type entry[V any] struct {
	key string
	val V
}

// NewLRU returns a new LRU that holds up to max entries.
func NewLRU[V any](max int) *LRU[V] {
	return &LRU[V]{m: make(map[string]*list.Element), max: max}
}

// Get returns the value stored for key and marks it as recently used.
func (c *LRU[V]) Get(key string) (val V, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.m[key]
	if !ok {
		return val, false
	}
	c.ls.MoveToBack(el)
	return el.Value.(*entry[V]).val, true
}

// Set stores val for key.
func (c *LRU[V]) Set(key string, val V) { c.TestAndSet(key, val, nil) }

// Len returns the number of stored entries.
func (c *LRU[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ls.Len()
}

// TestAndSet stores val for key and returns true if key isn't present or if
// test returns true when passed the existing value. Otherwise nothing is changed
// and false is returned. A nil test always stores the value.
// A zero-sized cache stores nothing but always returns true.
func (c *LRU[V]) TestAndSet(key string, val V, test func(old V) bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.max <= 0 {
		return true
	}

	if el, ok := c.m[key]; ok {
		ent := el.Value.(*entry[V])
		if test != nil && !test(ent.val) {
			return false
		}
		ent.val = val
		c.ls.MoveToBack(el)
		return true
	}

	for c.ls.Len() >= c.max {
		el := c.ls.Front()
		delete(c.m, el.Value.(*entry[V]).key)
		c.ls.Remove(el)
	}
	c.m[key] = c.ls.PushBack(&entry[V]{key, val})
	return true
}
