package cmap

import (
	"sort"
	"testing"
)

func TestRange(t *testing.T) {
	m := New[int64, int]()
	for i := int64(0); i < 10; i++ {
		m.Set(i, int(i)*2)
	}

	sum := 0
	m.Range(func(_ int64, v int) bool {
		sum += v
		return true
	})
	if sum != 90 {
		t.Errorf("sum = %d, want 90", sum)
	}
}

func TestRangeEarlyStop(t *testing.T) {
	m := New[int64, int]()
	for i := int64(0); i < 10; i++ {
		m.Set(i, 1)
	}

	visited := 0
	m.Range(func(int64, int) bool {
		visited++
		return visited < 3
	})
	if visited != 3 {
		t.Errorf("visited = %d, want 3", visited)
	}
}

func TestKeys(t *testing.T) {
	m := New[int64, struct{}]()
	for _, k := range []int64{5, 1, 3} {
		m.Set(k, struct{}{})
	}

	keys := m.Keys()
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	if len(keys) != 3 || keys[0] != 1 || keys[1] != 3 || keys[2] != 5 {
		t.Errorf("Keys() = %v, want [1 3 5]", keys)
	}
}

func TestDrain(t *testing.T) {
	m := New[int64, string]()
	m.Set(1, "a")
	m.Set(2, "b")
	m.Set(3, "c")

	values := m.Drain()
	if len(values) != 3 {
		t.Errorf("Drain() returned %d values, want 3", len(values))
	}
	if m.Count() != 0 {
		t.Errorf("Count() after Drain = %d, want 0", m.Count())
	}
	if _, ok := m.Pop(2); ok {
		t.Error("Pop() found an entry already drained")
	}
	if got := m.Drain(); len(got) != 0 {
		t.Errorf("second Drain() = %v, want empty", got)
	}
}
