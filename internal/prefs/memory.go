// Copyright (c) 2026 SMR Web Team
// smrweb - QR login client with local PIN lock
// This source code is licensed under the MIT license found in the LICENSE file.

package prefs

import (
	"context"
	"sync"
)

// MemoryStore keeps preferences in process memory. Used by tests and by the
// "memory" database type for throwaway sessions.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string]string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]map[string]string)}
}

// Lookup implements Store.
func (m *MemoryStore) Lookup(ctx context.Context, namespace, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[namespace][key]
	return v, ok, nil
}

// Apply implements Store.
func (m *MemoryStore) Apply(ctx context.Context, namespace string, changes []Change) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ns, ok := m.data[namespace]
	if !ok {
		ns = make(map[string]string)
		m.data[namespace] = ns
	}
	for _, c := range changes {
		if c.Delete {
			delete(ns, c.Key)
			continue
		}
		ns[c.Key] = c.Value
	}
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error { return nil }
