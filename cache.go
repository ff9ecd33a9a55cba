package controllerim

import (
	"sync"
)

// cache is a typed wrapper over sync.Map.
type cache[K comparable, V any] struct {
	data sync.Map
}

func (c *cache[K, V]) Load(key K) (V, bool) {
	value, ok := c.data.Load(key)
	if !ok {
		var zero V
		return zero, false
	}
	// a stored nil interface loads as the zero V
	v, _ := value.(V)
	return v, true
}

func (c *cache[K, V]) Store(key K, value V) {
	c.data.Store(key, value)
}

func (c *cache[K, V]) Delete(key K) {
	c.data.Delete(key)
}

func (c *cache[K, V]) Clear() {
	c.data.Range(func(key, value any) bool {
		c.data.Delete(key)
		return true
	})
}
