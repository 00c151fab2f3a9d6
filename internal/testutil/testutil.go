// Copyright (c) 2026 SMR Web Team
// smrweb - QR login client with local PIN lock
// This source code is licensed under the MIT license found in the LICENSE file.

// Package testutil holds test doubles shared by the lock-flow packages.
package testutil

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/smr-web/smrweb/internal/biometric"
	"github.com/smr-web/smrweb/internal/credentials"
	"github.com/smr-web/smrweb/internal/prefs"
)

// ErrDiskFull is the error injected by FailingStore.
var ErrDiskFull = errors.New("disk full")

// FailingStore wraps a prefs.Store and can be told to fail writes.
type FailingStore struct {
	prefs.Store

	mu        sync.Mutex
	failApply bool
	applies   int
}

// NewFailingStore wraps a fresh in-memory store.
func NewFailingStore() *FailingStore {
	return &FailingStore{Store: prefs.NewMemoryStore()}
}

// FailWrites toggles write failures.
func (f *FailingStore) FailWrites(fail bool) {
	f.mu.Lock()
	f.failApply = fail
	f.mu.Unlock()
}

// Applies returns the number of successful Apply calls.
func (f *FailingStore) Applies() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.applies
}

func (f *FailingStore) Apply(ctx context.Context, ns string, changes []prefs.Change) error {
	f.mu.Lock()
	fail := f.failApply
	f.mu.Unlock()
	if fail {
		return ErrDiskFull
	}
	if err := f.Store.Apply(ctx, ns, changes); err != nil {
		return err
	}
	f.mu.Lock()
	f.applies++
	f.mu.Unlock()
	return nil
}

// NewCredentials returns a credential store over backend with hash
// parameters cheap enough for tests.
func NewCredentials(t testing.TB, backend prefs.Store) *credentials.Store {
	t.Helper()
	h, err := credentials.NewPinHasher(credentials.HashParams{
		Memory: 64, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 16,
	})
	if err != nil {
		t.Fatalf("NewPinHasher: %v", err)
	}
	return credentials.New(backend, credentials.WithHasher(h))
}

// FakeGate is a scripted biometric.Gate. Challenges pop Outcomes in order;
// once the script is exhausted every challenge yields Error.
type FakeGate struct {
	mu       sync.Mutex
	Present  bool
	Outcomes []biometric.Outcome
	Prompts  []biometric.Prompt
	checks   int
}

// NewFakeGate returns an available gate that answers with outcomes.
func NewFakeGate(outcomes ...biometric.Outcome) *FakeGate {
	return &FakeGate{Present: true, Outcomes: outcomes}
}

func (g *FakeGate) Available(context.Context) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.checks++
	return g.Present
}

// Checks returns the number of Available calls.
func (g *FakeGate) Checks() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.checks
}

func (g *FakeGate) Challenge(_ context.Context, p biometric.Prompt) biometric.Outcome {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Prompts = append(g.Prompts, p)
	if len(g.Outcomes) == 0 {
		return biometric.Outcome{Result: biometric.Error, Err: biometric.ErrUnavailable}
	}
	out := g.Outcomes[0]
	g.Outcomes = g.Outcomes[1:]
	return out
}

// Calls returns the number of challenges issued.
func (g *FakeGate) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.Prompts)
}
