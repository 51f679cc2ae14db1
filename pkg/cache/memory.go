package cache

import (
	"context"
	"sync"
	"time"
)

type item[V any] struct {
	expires time.Time
	value   V
}

// Memory is a process-local Cache. Expired entries are dropped lazily on
// read and by a periodic sweep.
type Memory[V any] struct {
	items  map[string]item[V]
	done   chan struct{}
	mu     sync.Mutex
	closed bool
}

// NewMemory starts a cache that sweeps expired entries every interval.
// A zero interval disables the sweep.
func NewMemory[V any](interval time.Duration) *Memory[V] {
	m := &Memory[V]{
		items: make(map[string]item[V]),
		done:  make(chan struct{}),
	}
	if interval > 0 {
		go m.sweep(interval)
	}
	return m
}

func (m *Memory[V]) Get(_ context.Context, key string) (V, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var zero V
	if m.closed {
		return zero, ErrClosed
	}
	it, ok := m.items[key]
	if !ok {
		return zero, ErrNotFound
	}
	if !it.expires.IsZero() && time.Now().After(it.expires) {
		delete(m.items, key)
		return zero, ErrNotFound
	}
	return it.value, nil
}

func (m *Memory[V]) Set(_ context.Context, key string, value V, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	it := item[V]{value: value}
	if ttl > 0 {
		it.expires = time.Now().Add(ttl)
	}
	m.items[key] = it
	return nil
}

func (m *Memory[V]) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	delete(m.items, key)
	return nil
}

// Len reports the number of stored entries, expired or not.
func (m *Memory[V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

func (m *Memory[V]) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	m.items = nil
	close(m.done)
	return nil
}

func (m *Memory[V]) sweep(interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-m.done:
			return
		case now := <-t.C:
			m.mu.Lock()
			for k, it := range m.items {
				if !it.expires.IsZero() && now.After(it.expires) {
					delete(m.items, k)
				}
			}
			m.mu.Unlock()
		}
	}
}
