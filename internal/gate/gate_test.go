// Copyright (c) 2026 SMR Web Team
// smrweb - QR login client with local PIN lock
// This source code is licensed under the MIT license found in the LICENSE file.

package gate_test

import (
	"context"
	"errors"
	"testing"

	"github.com/smr-web/smrweb/internal/credentials"
	"github.com/smr-web/smrweb/internal/gate"
	"github.com/smr-web/smrweb/internal/pinpad"
	"github.com/smr-web/smrweb/internal/prefs"
	"github.com/smr-web/smrweb/internal/testutil"
)

func TestEvaluate_DecisionTable(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name   string
		setup  func(s *credentials.Store)
		origin gate.Origin
		want   gate.Route
	}{
		{"fresh install", func(*credentials.Store) {}, gate.OriginLaunch, gate.RouteSetPin},
		{"pin auth continuation skips everything", func(*credentials.Store) {}, gate.OriginPinAuth, gate.RouteMain},
		{"first launch with auth flag but no pin", func(s *credentials.Store) {
			_ = s.SetAuthEnabled(ctx, true)
		}, gate.OriginLaunch, gate.RouteSetPin},
		{"first launch with pin still sets up", func(s *credentials.Store) {
			_ = s.SavePin(ctx, "1234")
			_ = s.SetAuthEnabled(ctx, true)
		}, gate.OriginLaunch, gate.RouteSetPin},
		{"protection on with pin", func(s *credentials.Store) {
			_ = s.ConsumeFirstLaunch(ctx)
			_ = s.SavePin(ctx, "1234")
			_ = s.SetAuthEnabled(ctx, true)
		}, gate.OriginLaunch, gate.RouteVerifyPin},
		{"protection on without pin heals into setup", func(s *credentials.Store) {
			_ = s.ConsumeFirstLaunch(ctx)
			_ = s.SetAuthEnabled(ctx, true)
		}, gate.OriginLaunch, gate.RouteSetPin},
		{"protection off with pin", func(s *credentials.Store) {
			_ = s.ConsumeFirstLaunch(ctx)
			_ = s.SavePin(ctx, "1234")
		}, gate.OriginLaunch, gate.RouteMain},
		{"protection off without pin", func(s *credentials.Store) {
			_ = s.ConsumeFirstLaunch(ctx)
		}, gate.OriginLaunch, gate.RouteSetPin},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := testutil.NewCredentials(t, prefs.NewMemoryStore())
			tc.setup(store)
			d, err := gate.New(store).Evaluate(ctx, gate.Launch{Origin: tc.origin})
			if err != nil {
				t.Fatalf("Evaluate: %v", err)
			}
			if d.Route != tc.want {
				t.Fatalf("route = %v (%s), want %v", d.Route, d.Reason, tc.want)
			}
			if d.Reason == "" {
				t.Fatalf("decision carries no reason")
			}
		})
	}
}

func TestEvaluate_ConsumesFirstLaunch(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewCredentials(t, prefs.NewMemoryStore())
	if _, err := gate.New(store).Evaluate(ctx, gate.Launch{}); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if first, _ := store.IsFirstLaunch(ctx); first {
		t.Fatalf("first launch flag not consumed")
	}
}

func TestEvaluate_ConsumeFailureStillRoutesToSetup(t *testing.T) {
	backend := testutil.NewFailingStore()
	backend.FailWrites(true)
	store := testutil.NewCredentials(t, backend)
	d, err := gate.New(store).Evaluate(context.Background(), gate.Launch{})
	if err != nil || d.Route != gate.RouteSetPin {
		t.Fatalf("Evaluate = %+v, %v", d, err)
	}
}

type brokenReads struct{ prefs.Store }

func (brokenReads) Lookup(context.Context, string, string) (string, bool, error) {
	return "", false, errors.New("io error")
}

func TestEvaluate_ReadFailure(t *testing.T) {
	store := testutil.NewCredentials(t, brokenReads{prefs.NewMemoryStore()})
	if _, err := gate.New(store).Evaluate(context.Background(), gate.Launch{}); err == nil {
		t.Fatalf("expected read failure to surface")
	}
}

func TestScenario_FreshInstallThenRelaunch(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewCredentials(t, prefs.NewMemoryStore())
	g := gate.New(store)

	// first launch
	d, _ := g.Evaluate(ctx, gate.Launch{})
	if d.Route != gate.RouteSetPin {
		t.Fatalf("fresh install route = %v", d.Route)
	}
	setup := pinpad.New(pinpad.ModeSetting, store, nil)
	typePin(t, setup, "1234")
	typePin(t, setup, "1234")
	if setup.State() != pinpad.Complete {
		t.Fatalf("setup state = %v", setup.State())
	}
	snap, _ := store.Snapshot(ctx)
	if !snap.PinSet || !snap.AuthEnabled {
		t.Fatalf("after setup: %+v", snap)
	}
	if d, _ := g.Evaluate(ctx, gate.Launch{Origin: gate.OriginPinAuth}); d.Route != gate.RouteMain {
		t.Fatalf("continuation route = %v", d.Route)
	}

	// relaunch
	d, _ = g.Evaluate(ctx, gate.Launch{})
	if d.Route != gate.RouteVerifyPin {
		t.Fatalf("relaunch route = %v", d.Route)
	}
	lock := pinpad.New(pinpad.ModeVerifying, store, nil)
	if err := typePin(t, lock, "0000"); !errors.Is(err, pinpad.ErrPinInvalid) {
		t.Fatalf("wrong pin: %v", err)
	}
	if lock.State() != pinpad.AwaitingVerifyEntry || lock.Len() != 0 {
		t.Fatalf("after wrong pin: %v len %d", lock.State(), lock.Len())
	}
	if err := typePin(t, lock, "1234"); err != nil || lock.State() != pinpad.Complete {
		t.Fatalf("unlock: %v, %v", err, lock.State())
	}
	if d, _ := g.Evaluate(ctx, gate.Launch{Origin: gate.OriginPinAuth}); d.Route != gate.RouteMain {
		t.Fatalf("post-unlock route = %v", d.Route)
	}
}

func typePin(t *testing.T, m *pinpad.Machine, pin string) error {
	t.Helper()
	for _, d := range pin {
		m.Press(d)
	}
	return m.Validate(context.Background())
}
