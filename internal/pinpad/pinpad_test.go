// Copyright (c) 2026 SMR Web Team
// smrweb - QR login client with local PIN lock
// This source code is licensed under the MIT license found in the LICENSE file.

package pinpad_test

import (
	"context"
	"errors"
	"testing"

	"github.com/smr-web/smrweb/internal/biometric"
	"github.com/smr-web/smrweb/internal/credentials"
	"github.com/smr-web/smrweb/internal/pinpad"
	"github.com/smr-web/smrweb/internal/prefs"
	"github.com/smr-web/smrweb/internal/testutil"
)

// enter types pin and runs the validation the UI would schedule.
func enter(t *testing.T, m *pinpad.Machine, pin string) error {
	t.Helper()
	for i, d := range pin {
		full := m.Press(d)
		if want := i == len(pin)-1; full != want {
			t.Fatalf("Press(%c) reported full=%v at position %d", d, full, i)
		}
	}
	if !m.Pending() {
		t.Fatalf("machine not pending after %d digits", len(pin))
	}
	return m.Validate(context.Background())
}

func TestSetting_MatchingConfirmationPersists(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewCredentials(t, prefs.NewMemoryStore())
	m := pinpad.New(pinpad.ModeSetting, store, nil)

	if m.State() != pinpad.AwaitingFirstEntry {
		t.Fatalf("initial state = %v", m.State())
	}
	if err := enter(t, m, "1234"); err != nil {
		t.Fatalf("first entry: %v", err)
	}
	if m.State() != pinpad.AwaitingConfirmEntry || m.Len() != 0 {
		t.Fatalf("after first entry: state %v len %d", m.State(), m.Len())
	}
	if has, _ := store.HasPin(ctx); has {
		t.Fatalf("pin must not persist before confirmation")
	}
	if err := enter(t, m, "1234"); err != nil {
		t.Fatalf("confirm entry: %v", err)
	}
	if m.State() != pinpad.Complete {
		t.Fatalf("state = %v, want Complete", m.State())
	}
	snap, _ := store.Snapshot(ctx)
	if !snap.PinSet || !snap.AuthEnabled {
		t.Fatalf("snapshot after setup = %+v", snap)
	}
	if m.EnrollmentOffered() {
		t.Fatalf("no gate available, enrollment must not be offered")
	}
}

func TestSetting_MismatchNeverPersists(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewCredentials(t, prefs.NewMemoryStore())
	m := pinpad.New(pinpad.ModeSetting, store, nil)

	_ = enter(t, m, "1234")
	err := enter(t, m, "4321")
	if !errors.Is(err, pinpad.ErrPinMismatch) {
		t.Fatalf("expected ErrPinMismatch, got %v", err)
	}
	if m.State() != pinpad.AwaitingFirstEntry || m.Len() != 0 {
		t.Fatalf("after mismatch: state %v len %d", m.State(), m.Len())
	}
	if has, _ := store.HasPin(ctx); has {
		t.Fatalf("mismatched pin was persisted")
	}

	// The pending confirmation value was cleared: the old first entry
	// is not accepted as a confirmation.
	_ = enter(t, m, "5555")
	_ = enter(t, m, "5555")
	if ok, _ := store.ValidatePin(ctx, "5555"); !ok {
		t.Fatalf("second attempt should have stored 5555")
	}
}

func TestSetting_PersistenceFailureRejects(t *testing.T) {
	ctx := context.Background()
	backend := testutil.NewFailingStore()
	store := testutil.NewCredentials(t, backend)
	m := pinpad.New(pinpad.ModeSetting, store, testutil.NewFakeGate())

	_ = enter(t, m, "2468")
	backend.FailWrites(true)
	err := enter(t, m, "2468")
	if !errors.Is(err, credentials.ErrStorePersistence) {
		t.Fatalf("expected ErrStorePersistence, got %v", err)
	}
	if m.State() != pinpad.Rejected {
		t.Fatalf("state = %v, want Rejected", m.State())
	}
	if m.EnrollmentOffered() {
		t.Fatalf("rejected setup must not offer enrollment")
	}
	if m.Press('1') {
		t.Fatalf("input accepted while rejected")
	}
	if m.Len() != 0 {
		t.Fatalf("digit buffered while rejected")
	}

	backend.FailWrites(false)
	if has, _ := store.HasPin(ctx); has {
		t.Fatalf("HasPin after rejected setup should be false")
	}
	m.Restart()
	if m.State() != pinpad.AwaitingFirstEntry {
		t.Fatalf("Restart state = %v", m.State())
	}
	_ = enter(t, m, "2468")
	if err := enter(t, m, "2468"); err != nil || m.State() != pinpad.Complete {
		t.Fatalf("setup after restart: %v, state %v", err, m.State())
	}
}

func TestSetting_PinAndLockCommitTogether(t *testing.T) {
	ctx := context.Background()
	backend := testutil.NewFailingStore()
	store := testutil.NewCredentials(t, backend)
	m := pinpad.New(pinpad.ModeSetting, store, nil)

	_ = enter(t, m, "1357")
	if err := enter(t, m, "1357"); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if got := backend.Applies(); got != 1 {
		t.Fatalf("setup made %d commits, want 1", got)
	}
	if on, _ := store.IsAuthEnabled(ctx); !on {
		t.Fatalf("lock not enabled after setup")
	}
}

func TestSetting_FailedChangeKeepsExistingSettings(t *testing.T) {
	ctx := context.Background()
	backend := testutil.NewFailingStore()
	store := testutil.NewCredentials(t, backend)
	if err := store.EnablePin(ctx, "1111"); err != nil {
		t.Fatalf("EnablePin: %v", err)
	}
	if err := store.SetBiometricEnabled(ctx, true); err != nil {
		t.Fatalf("SetBiometricEnabled: %v", err)
	}

	m := pinpad.New(pinpad.ModeSetting, store, nil)
	_ = enter(t, m, "2222")
	backend.FailWrites(true)
	if err := enter(t, m, "2222"); !errors.Is(err, credentials.ErrStorePersistence) {
		t.Fatalf("expected ErrStorePersistence, got %v", err)
	}
	backend.FailWrites(false)

	snap, _ := store.Snapshot(ctx)
	if !snap.PinSet || !snap.AuthEnabled || !snap.BiometricEnabled {
		t.Fatalf("failed change touched existing settings: %+v", snap)
	}
	if ok, _ := store.ValidatePin(ctx, "1111"); !ok {
		t.Fatalf("old pin should still unlock")
	}
	if ok, _ := store.ValidatePin(ctx, "2222"); ok {
		t.Fatalf("unsaved pin must not unlock")
	}
}

func TestSetting_OffersEnrollmentWhenGateAvailable(t *testing.T) {
	ctx := context.Background()
	for _, accept := range []bool{true, false} {
		store := testutil.NewCredentials(t, prefs.NewMemoryStore())
		m := pinpad.New(pinpad.ModeSetting, store, testutil.NewFakeGate())
		_ = enter(t, m, "9876")
		_ = enter(t, m, "9876")
		if !m.EnrollmentOffered() {
			t.Fatalf("enrollment should be offered with an available gate")
		}
		if err := m.FinishSetup(ctx, accept); err != nil {
			t.Fatalf("FinishSetup: %v", err)
		}
		if m.EnrollmentOffered() {
			t.Fatalf("offer still outstanding after FinishSetup")
		}
		if got, _ := store.IsBiometricEnabled(ctx); got != accept {
			t.Fatalf("biometric enabled = %v, want %v", got, accept)
		}
	}
}

func TestVerifying_WrongPinClearsAndStays(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewCredentials(t, prefs.NewMemoryStore())
	_ = store.SavePin(ctx, "1234")
	_ = store.SetAuthEnabled(ctx, true)

	m := pinpad.New(pinpad.ModeVerifying, store, nil)
	if m.State() != pinpad.AwaitingVerifyEntry {
		t.Fatalf("initial state = %v", m.State())
	}
	if err := enter(t, m, "0000"); !errors.Is(err, pinpad.ErrPinInvalid) {
		t.Fatalf("expected ErrPinInvalid, got %v", err)
	}
	if m.State() != pinpad.AwaitingVerifyEntry || m.Len() != 0 || m.Pending() {
		t.Fatalf("after invalid pin: state %v len %d pending %v", m.State(), m.Len(), m.Pending())
	}
	if err := enter(t, m, "1234"); err != nil || m.State() != pinpad.Complete {
		t.Fatalf("correct pin: %v, state %v", err, m.State())
	}
}

func TestInput_BackspaceAndPendingLock(t *testing.T) {
	store := testutil.NewCredentials(t, prefs.NewMemoryStore())
	m := pinpad.New(pinpad.ModeSetting, store, nil)

	m.Backspace()
	if m.Len() != 0 {
		t.Fatalf("backspace on empty buffer changed length")
	}
	m.Press('1')
	m.Press('x')
	m.Press('2')
	if m.Len() != 2 {
		t.Fatalf("non-digit should be ignored, len = %d", m.Len())
	}
	m.Backspace()
	if m.Len() != 1 {
		t.Fatalf("len after backspace = %d", m.Len())
	}
	m.Press('2')
	m.Press('3')
	if !m.Press('4') || !m.Pending() {
		t.Fatalf("fourth digit should make the machine pending")
	}
	m.Press('5')
	m.Backspace()
	if m.Len() != pinpad.PinLength {
		t.Fatalf("input processed while pending, len = %d", m.Len())
	}
	if err := m.Validate(context.Background()); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if err := m.Validate(context.Background()); err != nil || m.State() != pinpad.AwaitingConfirmEntry {
		t.Fatalf("second Validate without input should be a no-op: %v %v", err, m.State())
	}
}

func TestVerifying_BiometricUnlock(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewCredentials(t, prefs.NewMemoryStore())
	_ = store.SavePin(ctx, "1234")
	_ = store.SetAuthEnabled(ctx, true)

	gate := testutil.NewFakeGate(
		biometric.Outcome{Result: biometric.Failed},
		biometric.Outcome{Result: biometric.Error, Err: errors.New("lockout")},
		biometric.Outcome{Result: biometric.Success},
	)
	m := pinpad.New(pinpad.ModeVerifying, store, gate)

	if m.CanUseBiometric(ctx) {
		t.Fatalf("biometric offered while disabled in settings")
	}
	_ = store.SetBiometricEnabled(ctx, true)
	if !m.CanUseBiometric(ctx) {
		t.Fatalf("biometric should be usable once enabled")
	}

	p := biometric.Prompt{Title: "Unlock"}
	if err := m.ApplyBiometric(gate.Challenge(ctx, p)); !errors.Is(err, pinpad.ErrBiometricFailed) {
		t.Fatalf("expected ErrBiometricFailed, got %v", err)
	}
	if err := m.ApplyBiometric(gate.Challenge(ctx, p)); !errors.Is(err, pinpad.ErrBiometricError) {
		t.Fatalf("expected ErrBiometricError, got %v", err)
	}
	if m.State() != pinpad.AwaitingVerifyEntry {
		t.Fatalf("failed biometric should keep pin entry open, state %v", m.State())
	}
	if err := m.ApplyBiometric(gate.Challenge(ctx, p)); err != nil || m.State() != pinpad.Complete {
		t.Fatalf("success outcome: %v, state %v", err, m.State())
	}
}

func TestCanUseBiometric_OnlyWhenVerifying(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewCredentials(t, prefs.NewMemoryStore())
	_ = store.SetBiometricEnabled(ctx, true)
	m := pinpad.New(pinpad.ModeSetting, store, testutil.NewFakeGate())
	if m.CanUseBiometric(ctx) {
		t.Fatalf("biometric unlock offered in setting mode")
	}
	if err := m.ApplyBiometric(biometric.Outcome{Result: biometric.Success}); err != nil || m.State() == pinpad.Complete {
		t.Fatalf("setting mode must ignore biometric outcomes")
	}
}
