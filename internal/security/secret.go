// Copyright (c) 2026 SMR Web Team
// smrweb - QR login client with local PIN lock
// This source code is licensed under the MIT license found in the LICENSE file.

// Package security holds typed-in PIN digits in a wrapper that never prints
// its contents and can be wiped once the entry is consumed.
package security

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"io"
)

const redacted = "[SECRET]"

// Secret is a buffer of sensitive bytes such as PIN digits. Formatting and
// JSON encoding always yield a placeholder.
type Secret []byte

func (s Secret) String() string { return redacted }

// Format keeps %v, %#v, %q and friends redacted.
func (s Secret) Format(f fmt.State, _ rune) {
	_, _ = io.WriteString(f, redacted)
}

func (s Secret) MarshalJSON() ([]byte, error) { return json.Marshal(redacted) }

func (s Secret) MarshalText() ([]byte, error) { return []byte(redacted), nil }

// Reveal returns the contents as a string for hashing or comparison.
func (s Secret) Reveal() string { return string(s) }

// Equal compares two secrets in constant time.
func (s Secret) Equal(o Secret) bool {
	return subtle.ConstantTimeCompare(s, o) == 1
}

// Clone copies s into a fresh buffer.
func (s Secret) Clone() Secret {
	if s == nil {
		return nil
	}
	out := make(Secret, len(s))
	copy(out, s)
	return out
}

// Zero overwrites the contents and truncates s to zero length, keeping the
// backing array for reuse.
func (s *Secret) Zero() {
	if s == nil || *s == nil {
		return
	}
	b := (*s)[:cap(*s)]
	for i := range b {
		b[i] = 0
	}
	*s = (*s)[:0]
}

// FromString copies in into a new Secret.
func FromString(in string) Secret { return Secret([]byte(in)) }
