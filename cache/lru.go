// Copyright 2016-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package cache provides a bounded least-recently-used store for
// serialized HTTP responses.  An LRU satisfies the storage interface
// of github.com/gregjones/httpcache, so a fetch client can use it as
// the backing store of a caching transport:
//
//     transport := httpcache.NewTransport(cache.NewLRU(256))
//
// Keys are request URLs and values are the dumped responses; the LRU
// itself does not look inside either.
package cache

import (
	"container/list"
	"sync"
)

// entry is one cached value, along with the key it is indexed under
// so that eviction can find its way back to the index.
type entry struct {
	key   string
	value []byte
}

// LRU is a least-recently-used cache with a fixed capacity.  The cache
// can be safely accessed from multiple goroutines.
type LRU struct {
	size      int
	lock      sync.RWMutex
	evictList *list.List
	index     map[string]*list.Element
}

// NewLRU creates a new cache holding at most size entries.  A size
// less than 1 is treated as 1.
func NewLRU(size int) *LRU {
	if size < 1 {
		size = 1
	}
	return &LRU{
		size:      size,
		evictList: list.New(),
		index:     make(map[string]*list.Element),
	}
}

// Get retrieves an item from the cache, marking it as the most
// recently used.  The second return value is false if key is absent.
func (lru *LRU) Get(key string) ([]byte, bool) {
	// This sadly happens under a writer lock, since we need to move
	// the item to the back of the list if it is present
	lru.lock.Lock()
	defer lru.lock.Unlock()

	element, present := lru.index[key]
	if !present {
		return nil, false
	}
	lru.evictList.MoveToBack(element)
	return element.Value.(*entry).value, true
}

// Peek looks for an item in the cache and returns it if present.  This
// runs under a reader lock, and so can run concurrently with itself
// but not calls to Set or Get.  This does not affect the recency of
// the item.
func (lru *LRU) Peek(key string) ([]byte, bool) {
	lru.lock.RLock()
	defer lru.lock.RUnlock()

	if element, present := lru.index[key]; present {
		return element.Value.(*entry).value, true
	}
	return nil, false
}

// Set adds an item to the LRU cache, possibly evicting something.
func (lru *LRU) Set(key string, value []byte) {
	lru.lock.Lock()
	defer lru.lock.Unlock()

	// Are we just updating an existing item?
	if element, present := lru.index[key]; present {
		element.Value.(*entry).value = value
		lru.evictList.MoveToBack(element)
		return
	}

	element := lru.evictList.PushBack(&entry{key: key, value: value})
	lru.index[key] = element

	// If this caused the cache to go over size, start evicting items
	for len(lru.index) > lru.size {
		head := lru.evictList.Front()
		delete(lru.index, head.Value.(*entry).key)
		lru.evictList.Remove(head)
	}
}

// Delete takes an item out of the cache.  It does nothing if that key
// does not exist.
func (lru *LRU) Delete(key string) {
	lru.lock.Lock()
	defer lru.lock.Unlock()

	if element, present := lru.index[key]; present {
		delete(lru.index, key)
		lru.evictList.Remove(element)
	}
}

// Clear removes every item from the cache.
func (lru *LRU) Clear() {
	lru.lock.Lock()
	defer lru.lock.Unlock()

	lru.evictList.Init()
	lru.index = make(map[string]*list.Element)
}

// Len returns the number of items in the cache.
func (lru *LRU) Len() int {
	lru.lock.RLock()
	defer lru.lock.RUnlock()
	return len(lru.index)
}
