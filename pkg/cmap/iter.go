package cmap

// Range iterates over all key-value pairs.
//
// The callback returns false to stop iteration.
// Locks are taken shard by shard, so the view may not be consistent.
func (m *Map[K, V]) Range(fn func(key K, value V) bool) {
	for _, shard := range m.shards {
		shard.mu.RLock()
		for k, v := range shard.items {
			if !fn(k, v) {
				shard.mu.RUnlock()
				return
			}
		}
		shard.mu.RUnlock()
	}
}

// Keys returns all keys.
func (m *Map[K, V]) Keys() []K {
	keys := make([]K, 0, m.Count())
	m.Range(func(key K, _ V) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}

// Drain removes every entry and returns the removed values. An entry is
// returned by at most one of Drain and Pop.
func (m *Map[K, V]) Drain() []V {
	var values []V
	for _, shard := range m.shards {
		shard.mu.Lock()
		for k, v := range shard.items {
			values = append(values, v)
			delete(shard.items, k)
		}
		shard.mu.Unlock()
	}
	return values
}
