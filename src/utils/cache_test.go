package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCache(t *testing.T) {
	c := NewCache[int]()

	_, ok := c.Get(time.Now())
	assert.False(t, ok, "empty cache must miss")

	c.Set(42, time.Minute)
	v, ok := c.Get(time.Now())
	assert.True(t, ok)
	assert.Equal(t, 42, v)

	_, ok = c.Get(time.Now().Add(-time.Hour))
	assert.False(t, ok, "value stored after refreshAfter must miss")
}

func TestCacheExpires(t *testing.T) {
	c := NewCache[string]()
	c.Set("x", time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	_, ok := c.Get(time.Now())
	assert.False(t, ok)
}

func TestKeyedCache(t *testing.T) {
	k := NewKeyedCache[[]byte]()
	k.Set("a", []byte("1"), time.Minute)
	k.Set("b", []byte("2"), time.Minute)

	v, ok := k.Get("a")
	assert.True(t, ok)
	assert.Equal(t, []byte("1"), v)

	_, ok = k.Get("missing")
	assert.False(t, ok)

	k.Clear()
	_, ok = k.Get("b")
	assert.False(t, ok)
}
