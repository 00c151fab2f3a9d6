// Copyright (c) 2026 SMR Web Team
// smrweb - QR login client with local PIN lock
// This source code is licensed under the MIT license found in the LICENSE file.

// Package prefs provides the durable key-value store that backs smrweb's
// local settings. Values are grouped into namespaces and every write goes
// through an Editor whose Commit is atomic and returns only once the change is
// durable, so callers can read back what they just wrote.
package prefs // import "github.com/smr-web/smrweb/internal/prefs"

import (
	"context"
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrPersistence wraps every failure to durably commit a change set.
	ErrPersistence = errors.New("preferences: commit failed")
	// ErrUnsupportedBackend is returned by NewStoreFromDSN for unknown types.
	ErrUnsupportedBackend = errors.New("preferences: unsupported backend")
)

// Change is a single staged mutation. Delete wins over Value.
type Change struct {
	Key    string
	Value  string
	Delete bool
}

// Store is the backend contract. Apply must be all-or-nothing.
type Store interface {
	Lookup(ctx context.Context, namespace, key string) (value string, found bool, err error)
	Apply(ctx context.Context, namespace string, changes []Change) error
	Close() error
}

// Prefs is a namespace-bound view over a Store.
type Prefs struct {
	store     Store
	namespace string
}

// Namespace binds store to the given namespace.
func Namespace(store Store, namespace string) *Prefs {
	return &Prefs{store: store, namespace: namespace}
}

// Name returns the namespace this view is bound to.
func (p *Prefs) Name() string { return p.namespace }

// String returns the value stored under key, or def when absent.
func (p *Prefs) String(ctx context.Context, key, def string) (string, error) {
	v, ok, err := p.store.Lookup(ctx, p.namespace, key)
	if err != nil {
		return def, fmt.Errorf("failed to read %s/%s: %w", p.namespace, key, err)
	}
	if !ok {
		return def, nil
	}
	return v, nil
}

// Bool returns the boolean stored under key, or def when absent.
func (p *Prefs) Bool(ctx context.Context, key string, def bool) (bool, error) {
	v, ok, err := p.store.Lookup(ctx, p.namespace, key)
	if err != nil {
		return def, fmt.Errorf("failed to read %s/%s: %w", p.namespace, key, err)
	}
	if !ok {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, fmt.Errorf("malformed boolean at %s/%s: %w", p.namespace, key, err)
	}
	return b, nil
}

// Edit starts a new change set.
func (p *Prefs) Edit() *Editor {
	return &Editor{prefs: p}
}

// Editor stages changes until Commit. It is not safe for concurrent use.
type Editor struct {
	prefs   *Prefs
	changes []Change
}

// PutString stages key=value.
func (e *Editor) PutString(key, value string) *Editor {
	e.changes = append(e.changes, Change{Key: key, Value: value})
	return e
}

// PutBool stages key=b.
func (e *Editor) PutBool(key string, b bool) *Editor {
	return e.PutString(key, strconv.FormatBool(b))
}

// Remove stages the deletion of key.
func (e *Editor) Remove(key string) *Editor {
	e.changes = append(e.changes, Change{Key: key, Delete: true})
	return e
}

// Commit applies the staged changes as one atomic unit and clears the editor.
// The returned error always wraps ErrPersistence.
func (e *Editor) Commit(ctx context.Context) error {
	if len(e.changes) == 0 {
		return nil
	}
	changes := e.changes
	e.changes = nil
	if err := e.prefs.store.Apply(ctx, e.prefs.namespace, changes); err != nil {
		if errors.Is(err, ErrPersistence) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return nil
}
