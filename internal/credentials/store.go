// Copyright (c) 2026 SMR Web Team
// smrweb - QR login client with local PIN lock
// This source code is licensed under the MIT license found in the LICENSE file.

// Package credentials is the credential store behind the lock screen: the
// PIN, the protection and biometric flags, the first-launch marker and the
// device identifier, all kept in the "app_prefs" preference namespace.
package credentials // import "github.com/smr-web/smrweb/internal/credentials"

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/smr-web/smrweb/internal/logging"
	"github.com/smr-web/smrweb/internal/prefs"
)

// Preference namespace and keys.
const (
	Namespace           = "app_prefs"
	KeyFirstLaunch      = "first_launch"
	KeyAuthEnabled      = "auth_enabled"
	KeyPinCode          = "pin_code"
	KeyBiometricEnabled = "biometric_enabled"
	KeyDeviceID         = "device_id"
)

// PinLength is the fixed number of digits in a PIN.
const PinLength = 4

var (
	// ErrStorePersistence means a write did not durably commit. The caller
	// must not proceed as if the value were saved.
	ErrStorePersistence = errors.New("credential store: write not persisted")
	// ErrMalformedPin rejects anything other than PinLength ASCII digits.
	ErrMalformedPin = fmt.Errorf("pin must be exactly %d digits", PinLength)
)

// AuthConfig is a read-only snapshot of the stored flags. It never carries
// the PIN itself.
type AuthConfig struct {
	AuthEnabled      bool
	PinSet           bool
	BiometricEnabled bool
	FirstLaunch      bool
}

// Store reads and writes credential state. Every write commits before
// returning.
type Store struct {
	prefs  *prefs.Prefs
	hasher *PinHasher
}

// Option customizes a Store.
type Option func(*Store)

// WithHasher overrides the PIN hasher (tests use cheaper parameters).
func WithHasher(h *PinHasher) Option {
	return func(s *Store) { s.hasher = h }
}

// New returns a Store over backend.
func New(backend prefs.Store, opts ...Option) *Store {
	s := &Store{prefs: prefs.Namespace(backend, Namespace)}
	for _, opt := range opts {
		opt(s)
	}
	if s.hasher == nil {
		h, err := NewPinHasher(DefaultHashParams)
		if err != nil {
			panic(err) // DefaultHashParams are constant and valid
		}
		s.hasher = h
	}
	return s
}

// ValidPinFormat reports whether pin is exactly PinLength ASCII digits.
func ValidPinFormat(pin string) bool {
	if len(pin) != PinLength {
		return false
	}
	for i := 0; i < len(pin); i++ {
		if pin[i] < '0' || pin[i] > '9' {
			return false
		}
	}
	return true
}

func persistErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorePersistence, op, err)
}

// IsAuthEnabled reports whether the lock screen is turned on.
func (s *Store) IsAuthEnabled(ctx context.Context) (bool, error) {
	enabled, err := s.prefs.Bool(ctx, KeyAuthEnabled, false)
	logging.Debugf("credentials: auth enabled = %t", enabled)
	return enabled, err
}

// SetAuthEnabled turns the lock screen on or off.
func (s *Store) SetAuthEnabled(ctx context.Context, enabled bool) error {
	if err := s.prefs.Edit().PutBool(KeyAuthEnabled, enabled).Commit(ctx); err != nil {
		return persistErr("set auth enabled", err)
	}
	logging.Debugf("credentials: auth enabled set to %t", enabled)
	return nil
}

// HasPin reports whether a non-empty PIN is stored.
func (s *Store) HasPin(ctx context.Context) (bool, error) {
	stored, err := s.prefs.String(ctx, KeyPinCode, "")
	if err != nil {
		return false, err
	}
	return stored != "", nil
}

// SavePin stores pin (hashed). It rejects malformed PINs.
func (s *Store) SavePin(ctx context.Context, pin string) error {
	if !ValidPinFormat(pin) {
		return ErrMalformedPin
	}
	encoded, err := s.hasher.Hash(pin)
	if err != nil {
		return fmt.Errorf("failed to hash pin: %w", err)
	}
	if err := s.prefs.Edit().PutString(KeyPinCode, encoded).Commit(ctx); err != nil {
		return persistErr("save pin", err)
	}
	logging.Debugf("credentials: pin saved")
	return nil
}

// EnablePin stores pin (hashed) and turns the lock screen on in a single
// commit. On failure neither change is applied and any earlier PIN and
// biometric flag are left as they were.
func (s *Store) EnablePin(ctx context.Context, pin string) error {
	if !ValidPinFormat(pin) {
		return ErrMalformedPin
	}
	encoded, err := s.hasher.Hash(pin)
	if err != nil {
		return fmt.Errorf("failed to hash pin: %w", err)
	}
	err = s.prefs.Edit().
		PutString(KeyPinCode, encoded).
		PutBool(KeyAuthEnabled, true).
		Commit(ctx)
	if err != nil {
		return persistErr("enable pin", err)
	}
	logging.Debugf("credentials: pin saved, auth enabled")
	return nil
}

// ValidatePin reports whether pin equals the stored PIN. With no PIN stored
// it is always false.
func (s *Store) ValidatePin(ctx context.Context, pin string) (bool, error) {
	stored, err := s.prefs.String(ctx, KeyPinCode, "")
	if err != nil {
		return false, err
	}
	if stored == "" {
		return false, nil
	}
	ok, err := s.hasher.Verify(pin, stored)
	if err != nil {
		return false, fmt.Errorf("failed to verify pin: %w", err)
	}
	logging.Debugf("credentials: pin check result = %t", ok)
	return ok, nil
}

// IsBiometricEnabled reports whether biometric unlock is turned on.
func (s *Store) IsBiometricEnabled(ctx context.Context) (bool, error) {
	return s.prefs.Bool(ctx, KeyBiometricEnabled, false)
}

// SetBiometricEnabled turns biometric unlock on or off.
func (s *Store) SetBiometricEnabled(ctx context.Context, enabled bool) error {
	if err := s.prefs.Edit().PutBool(KeyBiometricEnabled, enabled).Commit(ctx); err != nil {
		return persistErr("set biometric enabled", err)
	}
	logging.Debugf("credentials: biometric enabled set to %t", enabled)
	return nil
}

// Reset clears the protection flag, the PIN and the biometric flag in a
// single commit.
func (s *Store) Reset(ctx context.Context) error {
	err := s.prefs.Edit().
		Remove(KeyAuthEnabled).
		Remove(KeyPinCode).
		Remove(KeyBiometricEnabled).
		Commit(ctx)
	if err != nil {
		return persistErr("reset", err)
	}
	logging.Infof("credentials: authentication settings reset")
	return nil
}

// IsFirstLaunch reports whether the first-launch marker is still set.
func (s *Store) IsFirstLaunch(ctx context.Context) (bool, error) {
	return s.prefs.Bool(ctx, KeyFirstLaunch, true)
}

// ConsumeFirstLaunch clears the first-launch marker.
func (s *Store) ConsumeFirstLaunch(ctx context.Context) error {
	if err := s.prefs.Edit().PutBool(KeyFirstLaunch, false).Commit(ctx); err != nil {
		return persistErr("consume first launch", err)
	}
	return nil
}

// ResetSecurity performs Reset and re-arms the first-launch marker, all in
// one commit, so the next launch starts PIN setup from scratch.
func (s *Store) ResetSecurity(ctx context.Context) error {
	err := s.prefs.Edit().
		Remove(KeyAuthEnabled).
		Remove(KeyPinCode).
		Remove(KeyBiometricEnabled).
		PutBool(KeyFirstLaunch, true).
		Commit(ctx)
	if err != nil {
		return persistErr("reset security", err)
	}
	logging.Infof("credentials: security settings reset, first launch re-armed")
	return nil
}

// DeviceID returns the installation identifier, creating it on first use.
func (s *Store) DeviceID(ctx context.Context) (string, error) {
	id, err := s.prefs.String(ctx, KeyDeviceID, "")
	if err != nil {
		return "", err
	}
	if id != "" {
		return id, nil
	}
	id = uuid.NewString()
	if err := s.prefs.Edit().PutString(KeyDeviceID, id).Commit(ctx); err != nil {
		return "", persistErr("create device id", err)
	}
	return id, nil
}

// Snapshot reads all flags at once.
func (s *Store) Snapshot(ctx context.Context) (AuthConfig, error) {
	var c AuthConfig
	var err error
	if c.AuthEnabled, err = s.IsAuthEnabled(ctx); err != nil {
		return c, err
	}
	if c.PinSet, err = s.HasPin(ctx); err != nil {
		return c, err
	}
	if c.BiometricEnabled, err = s.IsBiometricEnabled(ctx); err != nil {
		return c, err
	}
	if c.FirstLaunch, err = s.IsFirstLaunch(ctx); err != nil {
		return c, err
	}
	return c, nil
}
