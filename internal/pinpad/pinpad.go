// Copyright (c) 2026 SMR Web Team
// smrweb - QR login client with local PIN lock
// This source code is licensed under the MIT license found in the LICENSE file.

// Package pinpad implements the PIN entry state machine used by the lock
// screen: set-and-confirm when creating a PIN, and verify when unlocking.
//
// The machine is not safe for concurrent use. It is driven from a single
// UI event loop, which schedules Validate Debounce after Press reports the
// buffer full.
package pinpad // import "github.com/smr-web/smrweb/internal/pinpad"

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/smr-web/smrweb/internal/biometric"
	"github.com/smr-web/smrweb/internal/credentials"
	"github.com/smr-web/smrweb/internal/logging"
	"github.com/smr-web/smrweb/internal/security"
)

// PinLength is the number of digits collected before validation.
const PinLength = credentials.PinLength

// Debounce is the delay between the last digit and validation, long enough
// for the final dot to render.
const Debounce = 200 * time.Millisecond

// Mode selects what the screen is for.
type Mode int

const (
	// ModeSetting creates a new PIN (enter, then confirm).
	ModeSetting Mode = iota
	// ModeVerifying checks the stored PIN.
	ModeVerifying
)

func (m Mode) String() string {
	if m == ModeVerifying {
		return "verifying"
	}
	return "setting"
}

// State is the position in the entry flow.
type State int

const (
	AwaitingFirstEntry State = iota
	AwaitingConfirmEntry
	AwaitingVerifyEntry
	Complete
	// Rejected means the new PIN could not be saved. Restart begins again.
	Rejected
)

func (s State) String() string {
	switch s {
	case AwaitingFirstEntry:
		return "awaiting-first-entry"
	case AwaitingConfirmEntry:
		return "awaiting-confirm-entry"
	case AwaitingVerifyEntry:
		return "awaiting-verify-entry"
	case Complete:
		return "complete"
	case Rejected:
		return "rejected"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	// ErrPinMismatch means the confirmation differed from the first entry.
	ErrPinMismatch = errors.New("pins do not match")
	// ErrPinInvalid means the entered PIN is not the stored one.
	ErrPinInvalid = errors.New("invalid pin")
	// ErrBiometricFailed means the authenticator rejected the attempt.
	ErrBiometricFailed = errors.New("biometric authentication failed")
	// ErrBiometricError means the authenticator could not complete.
	ErrBiometricError = errors.New("biometric authentication error")
)

// Machine is one PIN entry session.
type Machine struct {
	mode    Mode
	state   State
	buf     security.Secret
	confirm security.Secret
	pending bool
	offer   bool

	store *credentials.Store
	gate  biometric.Gate
}

// New starts a session. gate may be nil when no authenticator exists.
func New(mode Mode, store *credentials.Store, gate biometric.Gate) *Machine {
	if gate == nil {
		gate = biometric.Unavailable{}
	}
	m := &Machine{mode: mode, store: store, gate: gate}
	m.reset()
	return m
}

func (m *Machine) reset() {
	m.buf.Zero()
	m.confirm.Zero()
	m.pending = false
	m.offer = false
	if m.mode == ModeVerifying {
		m.state = AwaitingVerifyEntry
	} else {
		m.state = AwaitingFirstEntry
	}
}

func (m *Machine) Mode() Mode   { return m.mode }
func (m *Machine) State() State { return m.state }

// Len is the number of digits entered so far.
func (m *Machine) Len() int { return len(m.buf) }

// Pending reports whether a full buffer is waiting for validation. Input is
// ignored while pending.
func (m *Machine) Pending() bool { return m.pending }

// Done reports whether the session reached a terminal state.
func (m *Machine) Done() bool { return m.state == Complete || m.state == Rejected }

// accepting reports whether key input is processed.
func (m *Machine) accepting() bool { return !m.pending && !m.Done() }

// Press appends digit d. It returns true when the buffer became full, which
// is the caller's cue to schedule Validate after Debounce.
func (m *Machine) Press(d rune) bool {
	if !m.accepting() || d < '0' || d > '9' || len(m.buf) >= PinLength {
		return false
	}
	m.buf = append(m.buf, byte(d))
	if len(m.buf) == PinLength {
		m.pending = true
		return true
	}
	return false
}

// Backspace drops the last digit if any.
func (m *Machine) Backspace() {
	if !m.accepting() || len(m.buf) == 0 {
		return
	}
	m.buf[len(m.buf)-1] = 0
	m.buf = m.buf[:len(m.buf)-1]
}

// Validate processes a full buffer. It returns ErrPinMismatch,
// ErrPinInvalid or a credentials.ErrStorePersistence-wrapped error for the
// UI to show; nil means the state advanced normally. Calling it without a
// pending buffer does nothing.
func (m *Machine) Validate(ctx context.Context) error {
	if !m.pending || m.Done() {
		return nil
	}
	entered := m.buf.Clone()
	defer entered.Zero()
	m.buf.Zero()
	m.pending = false

	switch m.state {
	case AwaitingFirstEntry:
		m.confirm = entered.Clone()
		m.state = AwaitingConfirmEntry
		return nil

	case AwaitingConfirmEntry:
		if !entered.Equal(m.confirm) {
			m.confirm.Zero()
			m.state = AwaitingFirstEntry
			logging.Debugf("pinpad: confirmation mismatch")
			return ErrPinMismatch
		}
		m.confirm.Zero()
		if err := m.store.EnablePin(ctx, entered.Reveal()); err != nil {
			m.state = Rejected
			logging.Errorf("pinpad: failed to save pin: %v", err)
			return err
		}
		m.state = Complete
		m.offer = m.gate.Available(ctx)
		logging.Infof("pinpad: pin set, biometric offer = %t", m.offer)
		return nil

	case AwaitingVerifyEntry:
		ok, err := m.store.ValidatePin(ctx, entered.Reveal())
		if err != nil {
			logging.Errorf("pinpad: pin check failed: %v", err)
			return fmt.Errorf("%w: %w", ErrPinInvalid, err)
		}
		if !ok {
			return ErrPinInvalid
		}
		m.state = Complete
		return nil
	}
	return nil
}

// Restart leaves Rejected (or any state) and begins the session again.
func (m *Machine) Restart() { m.reset() }

// EnrollmentOffered reports whether a freshly set PIN should be followed
// by an offer to enable biometric unlock.
func (m *Machine) EnrollmentOffered() bool {
	return m.mode == ModeSetting && m.state == Complete && m.offer
}

// FinishSetup answers the enrollment offer. Declining leaves the flag
// untouched.
func (m *Machine) FinishSetup(ctx context.Context, enable bool) error {
	if !m.EnrollmentOffered() {
		return nil
	}
	m.offer = false
	if !enable {
		return nil
	}
	return m.store.SetBiometricEnabled(ctx, true)
}

// CanUseBiometric reports whether biometric unlock may be offered instead
// of the PIN.
func (m *Machine) CanUseBiometric(ctx context.Context) bool {
	if m.mode != ModeVerifying || m.state != AwaitingVerifyEntry || m.pending {
		return false
	}
	enabled, err := m.store.IsBiometricEnabled(ctx)
	if err != nil || !enabled {
		return false
	}
	return m.gate.Available(ctx)
}

// Gate is the authenticator the session was built with.
func (m *Machine) Gate() biometric.Gate { return m.gate }

// ApplyBiometric feeds a challenge outcome. Success completes the session;
// Failed and Error keep PIN entry open.
func (m *Machine) ApplyBiometric(out biometric.Outcome) error {
	if m.mode != ModeVerifying || m.state != AwaitingVerifyEntry {
		return nil
	}
	switch out.Result {
	case biometric.Success:
		m.buf.Zero()
		m.pending = false
		m.state = Complete
		return nil
	case biometric.Failed:
		return ErrBiometricFailed
	default:
		if out.Err != nil {
			return fmt.Errorf("%w: %w", ErrBiometricError, out.Err)
		}
		return ErrBiometricError
	}
}
