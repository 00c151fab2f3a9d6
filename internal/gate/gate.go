// Copyright (c) 2026 SMR Web Team
// smrweb - QR login client with local PIN lock
// This source code is licensed under the MIT license found in the LICENSE file.

// Package gate decides, once per launch, whether the app opens on PIN
// setup, the lock screen or the main screen.
package gate // import "github.com/smr-web/smrweb/internal/gate"

import (
	"context"
	"fmt"

	"github.com/smr-web/smrweb/internal/credentials"
	"github.com/smr-web/smrweb/internal/logging"
)

// Route is where the launch goes.
type Route int

const (
	RouteMain Route = iota
	RouteSetPin
	RouteVerifyPin
)

func (r Route) String() string {
	switch r {
	case RouteSetPin:
		return "set-pin"
	case RouteVerifyPin:
		return "verify-pin"
	default:
		return "main"
	}
}

// Origin marks how the launch was triggered.
type Origin int

const (
	// OriginLaunch is a normal app start.
	OriginLaunch Origin = iota
	// OriginPinAuth is the re-entry right after a successful unlock or
	// setup. It is never gated again.
	OriginPinAuth
)

// Launch describes one evaluation request.
type Launch struct {
	Origin Origin
}

// Decision is the chosen route and a human-readable reason for the log.
type Decision struct {
	Route  Route
	Reason string
}

// Gate evaluates launches against the credential store.
type Gate struct {
	store *credentials.Store
}

// New returns a Gate reading from store.
func New(store *credentials.Store) *Gate {
	return &Gate{store: store}
}

// Evaluate applies the launch rules in order:
//
//  1. continuation of a PIN unlock goes to main;
//  2. first launch or no PIN consumes the first-launch marker and goes to
//     PIN setup, whatever auth_enabled says;
//  3. protection on with a PIN goes to the lock screen;
//  4. protection on without a PIN goes back to setup;
//  5. everything else goes to main.
//
// Read failures are returned; a failure to consume the first-launch marker
// is logged and does not change the route.
func (g *Gate) Evaluate(ctx context.Context, l Launch) (Decision, error) {
	if l.Origin == OriginPinAuth {
		return g.decide(RouteMain, "continuing after pin authentication"), nil
	}

	first, err := g.store.IsFirstLaunch(ctx)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to read first launch flag: %w", err)
	}
	hasPin, err := g.store.HasPin(ctx)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to read pin state: %w", err)
	}

	if first || !hasPin {
		if err := g.store.ConsumeFirstLaunch(ctx); err != nil {
			logging.Warnf("gate: could not clear first launch flag: %v", err)
		}
		if first {
			return g.decide(RouteSetPin, "first launch"), nil
		}
		return g.decide(RouteSetPin, "no pin set"), nil
	}

	enabled, err := g.store.IsAuthEnabled(ctx)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to read auth flag: %w", err)
	}
	switch {
	case enabled && hasPin:
		return g.decide(RouteVerifyPin, "protection enabled"), nil
	case enabled:
		return g.decide(RouteSetPin, "protection enabled without a pin"), nil
	}
	return g.decide(RouteMain, "protection disabled"), nil
}

func (g *Gate) decide(r Route, reason string) Decision {
	logging.Infof("gate: route %s (%s)", r, reason)
	return Decision{Route: r, Reason: reason}
}
