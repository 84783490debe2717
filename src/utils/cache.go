package utils

import (
	"sync"
	"time"
)

// Cache holds a single value until it expires.
type Cache[T any] struct {
	value      T
	cachedAt   time.Time
	expiration time.Time
	mutex      sync.RWMutex
}

func NewCache[T any]() *Cache[T] {
	var zero T
	return &Cache[T]{
		value: zero,
	}
}

// Set stores value for duration.
func (c *Cache[T]) Set(value T, duration time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.value = value
	c.cachedAt = time.Now()
	c.expiration = c.cachedAt.Add(duration)
}

// Get returns the value unless it expired or was stored after refreshAfter.
func (c *Cache[T]) Get(refreshAfter time.Time) (T, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if time.Now().After(c.expiration) || c.cachedAt.After(refreshAfter) {
		var zero T
		return zero, false
	}
	return c.value, true
}

// KeyedCache is a set of Cache values addressed by key.
type KeyedCache[T any] struct {
	mu      sync.Mutex
	entries map[string]*Cache[T]
}

func NewKeyedCache[T any]() *KeyedCache[T] {
	return &KeyedCache[T]{entries: map[string]*Cache[T]{}}
}

func (k *KeyedCache[T]) entry(key string) *Cache[T] {
	k.mu.Lock()
	defer k.mu.Unlock()

	c, ok := k.entries[key]
	if !ok {
		c = NewCache[T]()
		k.entries[key] = c
	}
	return c
}

func (k *KeyedCache[T]) Set(key string, value T, duration time.Duration) {
	k.entry(key).Set(value, duration)
}

func (k *KeyedCache[T]) Get(key string) (T, bool) {
	return k.entry(key).Get(time.Now())
}

// Clear drops every key.
func (k *KeyedCache[T]) Clear() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.entries = map[string]*Cache[T]{}
}
