// Package cache keeps decoded pages in memory in front of a pager. Values
// are cloned on the way in and out, so callers may mutate what they get.
package cache

import (
	"github.com/dgraph-io/ristretto/v2"
	"github.com/pkg/errors"
)

// Cache maps page indexes to decoded values. A nil *Cache is valid and
// caches nothing.
type Cache[V any] struct {
	c     *ristretto.Cache[uint32, V]
	clone func(V) V
}

// New returns a cache holding up to size values, or nil when size is 0.
func New[V any](size int64, clone func(V) V) (*Cache[V], error) {
	if size <= 0 {
		return nil, nil
	}

	c, err := ristretto.NewCache(&ristretto.Config[uint32, V]{
		NumCounters:        size * 10,
		MaxCost:            size,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create node cache")
	}

	return &Cache[V]{c: c, clone: clone}, nil
}

func (c *Cache[V]) Get(id uint32) (v V, ok bool) {
	if c == nil {
		return v, false
	}
	if v, ok = c.c.Get(id); ok {
		return c.clone(v), true
	}
	return v, false
}

// Add records a value read from disk. It may be dropped by admission. The
// set is applied before Add returns, so a later Put never races with it.
func (c *Cache[V]) Add(id uint32, v V) {
	if c == nil {
		return
	}
	c.c.Set(id, c.clone(v), 1)
	c.c.Wait()
}

// Put records a value that was just written. Pending sets are applied
// before Put returns so that no older version can be observed afterwards.
// The id is deleted first: the admission policy refuses a new item for a
// key it already tracks, which would leave the previous value in place.
func (c *Cache[V]) Put(id uint32, v V) {
	if c == nil {
		return
	}
	c.c.Del(id)
	c.c.Set(id, c.clone(v), 1)
	c.c.Wait()
}

func (c *Cache[V]) Del(id uint32) {
	if c == nil {
		return
	}
	c.c.Del(id)
	c.c.Wait()
}

func (c *Cache[V]) Clear() {
	if c == nil {
		return
	}
	c.c.Clear()
}

func (c *Cache[V]) Close() {
	if c == nil {
		return
	}
	c.c.Close()
}
