// Copyright (c) 2026 SMR Web Team
// smrweb - QR login client with local PIN lock
// This source code is licensed under the MIT license found in the LICENSE file.

package security

import (
	"encoding/json"
	"fmt"
	"testing"
)

func TestSecretRedaction(t *testing.T) {
	s := FromString("1234")
	for _, verb := range []string{"%v", "%s", "%q", "%#v", "%x"} {
		if got := fmt.Sprintf(verb, s); got != "[SECRET]" {
			t.Fatalf("%s: got %q", verb, got)
		}
	}
	b, err := json.Marshal(struct{ Pin Secret }{s})
	if err != nil {
		t.Fatalf("json.Marshal failed: %v", err)
	}
	if string(b) != `{"Pin":"[SECRET]"}` {
		t.Fatalf("unexpected json: %s", b)
	}
	if s.Reveal() != "1234" {
		t.Fatalf("Reveal = %q", s.Reveal())
	}
}

func TestSecretZero(t *testing.T) {
	s := FromString("9876")
	backing := s[:cap(s)]
	(&s).Zero()
	if len(s) != 0 {
		t.Fatalf("expected empty secret after Zero, got len %d", len(s))
	}
	for i, b := range backing {
		if b != 0 {
			t.Fatalf("expected zeroed byte at index %d, got %d", i, b)
		}
	}
	s = append(s, '1')
	if s.Reveal() != "1" {
		t.Fatalf("secret not reusable after Zero: %q", s.Reveal())
	}

	var nilSecret *Secret
	nilSecret.Zero()
}

func TestSecretEqualAndClone(t *testing.T) {
	a := FromString("0420")
	b := a.Clone()
	if !a.Equal(b) {
		t.Fatal("clone should equal original")
	}
	(&a).Zero()
	if b.Reveal() != "0420" {
		t.Fatal("zeroing the original must not touch the clone")
	}
	if FromString("0420").Equal(FromString("0421")) {
		t.Fatal("different secrets compared equal")
	}
	if FromString("04").Equal(FromString("0420")) {
		t.Fatal("prefix compared equal")
	}
}
