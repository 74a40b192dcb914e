// Package cmap provides a concurrent-safe sharded map.
//
// Keys are hashed with hash/maphash.Comparable and spread over a
// power-of-two number of shards, each guarded by its own RWMutex.
// Pop and Drain remove entries atomically, which makes the map usable
// as a table of one-shot waiters.
package cmap
