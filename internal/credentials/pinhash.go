// Copyright (c) 2026 SMR Web Team
// smrweb - QR login client with local PIN lock
// This source code is licensed under the MIT license found in the LICENSE file.

package credentials

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
)

const algorithmID = "argon2id"

// HashParams configures the argon2id derivation used for stored PINs.
type HashParams struct {
	Memory      uint32 // KiB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultHashParams follows the OWASP baseline for argon2id.
var DefaultHashParams = HashParams{
	Memory:      19 * 1024,
	Time:        2,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

// PinHasher turns PINs into PHC strings and verifies them.
type PinHasher struct {
	params HashParams
}

// NewPinHasher validates params and returns a hasher.
func NewPinHasher(params HashParams) (*PinHasher, error) {
	switch {
	case params.Memory < 8:
		return nil, errors.New("argon2 memory must be at least 8 KiB")
	case params.Time < 1:
		return nil, errors.New("argon2 time must be at least 1")
	case params.Parallelism < 1:
		return nil, errors.New("argon2 parallelism must be at least 1")
	case params.SaltLength < 16:
		return nil, errors.New("argon2 salt must be at least 16 bytes")
	case params.KeyLength < 16:
		return nil, errors.New("argon2 key must be at least 16 bytes")
	}
	return &PinHasher{params: params}, nil
}

// Hash derives a fresh salted PHC string for pin.
func (h *PinHasher) Hash(pin string) (string, error) {
	salt := make([]byte, h.params.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}
	key := argon2.IDKey([]byte(pin), salt, h.params.Time, h.params.Memory, h.params.Parallelism, h.params.KeyLength)
	return fmt.Sprintf(
		"$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID,
		argon2.Version,
		h.params.Memory,
		h.params.Time,
		h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether pin matches encoded, using the parameters recorded
// in encoded rather than the hasher's own.
func (h *PinHasher) Verify(pin, encoded string) (bool, error) {
	parts := strings.Split(encoded, "$")
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, hash
	if len(parts) != 6 || parts[1] != algorithmID {
		return false, errors.New("stored pin has an unknown format")
	}
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false, errors.New("stored pin has an unsupported argon2 version")
	}
	var memory, time uint32
	var parallelism uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &parallelism); err != nil {
		return false, fmt.Errorf("stored pin has malformed parameters: %w", err)
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("stored pin has malformed salt: %w", err)
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(want) == 0 {
		return false, errors.New("stored pin has malformed hash")
	}
	got := argon2.IDKey([]byte(pin), salt, time, memory, parallelism, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}
