// Copyright (c) 2026 SMR Web Team
// smrweb - QR login client with local PIN lock
// This source code is licensed under the MIT license found in the LICENSE file.

// Package biometric abstracts the strong authenticator used to unlock the
// app without a PIN. A challenge yields exactly one of Success, Failed or
// Error.
package biometric // import "github.com/smr-web/smrweb/internal/biometric"

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Result is the reduced outcome of a challenge.
type Result int

const (
	// Success means the authenticator verified the user.
	Success Result = iota
	// Failed means the attempt was recognized but rejected. The user may
	// retry.
	Failed
	// Error covers cancellation, lockout, missing hardware and every other
	// non-retriable condition.
	Error
)

func (r Result) String() string {
	switch r {
	case Success:
		return "success"
	case Failed:
		return "failed"
	default:
		return "error"
	}
}

// Prompt carries the display strings for a challenge.
type Prompt struct {
	Title         string
	Subtitle      string
	Description   string
	NegativeLabel string
}

// Outcome is delivered once per challenge.
type Outcome struct {
	Result Result
	Err    error
}

// Gate is a strong authenticator.
type Gate interface {
	// Available reports whether an authenticator is present and enrolled.
	Available(ctx context.Context) bool
	// Challenge asks the user to authenticate and blocks until an outcome
	// is known or ctx is done.
	Challenge(ctx context.Context, p Prompt) Outcome
}

// Provider names accepted by New.
const (
	ProviderAgent = "agent"
	ProviderNone  = "none"
)

var (
	// ErrUnavailable is returned in the outcome of a challenge against a gate
	// with no authenticator.
	ErrUnavailable = errors.New("no strong authenticator available")
	// ErrUnknownProvider is returned by New for an unrecognized provider.
	ErrUnknownProvider = errors.New("unknown biometric provider")
)

// Unavailable is a Gate with no authenticator.
type Unavailable struct{}

func (Unavailable) Available(context.Context) bool { return false }

func (Unavailable) Challenge(context.Context, Prompt) Outcome {
	return Outcome{Result: Error, Err: ErrUnavailable}
}

// New returns the gate for provider. An empty provider means "none".
func New(provider, fingerprint string) (Gate, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case ProviderAgent:
		return NewAgentGate(fingerprint), nil
	case ProviderNone, "":
		return Unavailable{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}
}
