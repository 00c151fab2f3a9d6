// Copyright (c) 2026 SMR Web Team
// smrweb - QR login client with local PIN lock
// This source code is licensed under the MIT license found in the LICENSE file.

package biometric

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/smr-web/smrweb/internal/logging"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
)

// nonceSize is the length of the random challenge signed by the agent.
const nonceSize = 32

var (
	// ErrAgentUnreachable means no SSH agent could be contacted.
	ErrAgentUnreachable = errors.New("ssh agent not reachable")
	// ErrNoMatchingKey means the agent holds no key matching the configured
	// fingerprint.
	ErrNoMatchingKey = errors.New("ssh agent holds no matching key")
)

// dialFunc connects to an agent. The returned closer releases the
// connection.
type dialFunc func() (agent.Agent, io.Closer, error)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// AgentGate uses a key held by an SSH agent as the strong authenticator.
// Hardware-backed agent keys (FIDO tokens, smart cards) require a touch for
// every signature.
type AgentGate struct {
	// Fingerprint selects the key by its SHA256 fingerprint. Empty selects
	// the first key the agent lists.
	Fingerprint string

	dial dialFunc
	rand io.Reader
}

// NewAgentGate returns a gate that talks to the system agent.
func NewAgentGate(fingerprint string) *AgentGate {
	return &AgentGate{Fingerprint: fingerprint, dial: dialSystemAgent, rand: rand.Reader}
}

// NewAgentGateFor returns a gate over an already connected agent.
func NewAgentGateFor(a agent.Agent, fingerprint string) *AgentGate {
	return &AgentGate{
		Fingerprint: fingerprint,
		dial: func() (agent.Agent, io.Closer, error) {
			return a, nopCloser{}, nil
		},
		rand: rand.Reader,
	}
}

func normalizeFingerprint(fp string) string {
	fp = strings.TrimSpace(fp)
	if fp == "" {
		return ""
	}
	if !strings.HasPrefix(fp, "SHA256:") {
		fp = "SHA256:" + fp
	}
	return fp
}

// selectKey returns the configured key from the agent's list.
func (g *AgentGate) selectKey(a agent.Agent) (*agent.Key, ssh.PublicKey, error) {
	keys, err := a.List()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list agent keys: %w", err)
	}
	want := normalizeFingerprint(g.Fingerprint)
	for _, k := range keys {
		pub, err := ssh.ParsePublicKey(k.Blob)
		if err != nil {
			logging.Debugf("biometric: skipping unparsable agent key %q: %v", k.Comment, err)
			continue
		}
		if want == "" || ssh.FingerprintSHA256(pub) == want {
			return k, pub, nil
		}
	}
	return nil, nil, ErrNoMatchingKey
}

// Available reports whether the agent is reachable and holds the key.
func (g *AgentGate) Available(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	a, closer, err := g.dial()
	if err != nil {
		logging.Debugf("biometric: %v", err)
		return false
	}
	defer closer.Close()
	_, _, err = g.selectKey(a)
	return err == nil
}

// Identity describes the key the gate would use.
func (g *AgentGate) Identity(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	a, closer, err := g.dial()
	if err != nil {
		return "", err
	}
	defer closer.Close()
	k, pub, err := g.selectKey(a)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %s %s", pub.Type(), ssh.FingerprintSHA256(pub), k.Comment), nil
}

// Challenge has the agent sign a fresh nonce and verifies the signature
// against the selected public key. The prompt is logged; the agent itself
// owns any user-presence interaction.
func (g *AgentGate) Challenge(ctx context.Context, p Prompt) Outcome {
	if err := ctx.Err(); err != nil {
		return Outcome{Result: Error, Err: err}
	}
	logging.Infof("biometric: %s", strings.TrimSpace(p.Title+" "+p.Subtitle))

	a, closer, err := g.dial()
	if err != nil {
		return Outcome{Result: Error, Err: err}
	}
	defer closer.Close()

	key, pub, err := g.selectKey(a)
	if err != nil {
		return Outcome{Result: Error, Err: err}
	}

	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(g.rand, nonce); err != nil {
		return Outcome{Result: Error, Err: fmt.Errorf("failed to generate challenge: %w", err)}
	}

	type signResult struct {
		sig *ssh.Signature
		err error
	}
	done := make(chan signResult, 1)
	go func() {
		sig, err := a.Sign(key, bytes.Clone(nonce))
		done <- signResult{sig, err}
	}()

	var res signResult
	select {
	case <-ctx.Done():
		// Unblocks a pending agent request on a real connection.
		_ = closer.Close()
		return Outcome{Result: Error, Err: ctx.Err()}
	case res = <-done:
	}

	if res.err != nil {
		return Outcome{Result: Error, Err: fmt.Errorf("agent refused to sign: %w", res.err)}
	}
	if err := pub.Verify(nonce, res.sig); err != nil {
		logging.Warnf("biometric: signature did not verify for %s", ssh.FingerprintSHA256(pub))
		return Outcome{Result: Failed, Err: err}
	}
	return Outcome{Result: Success}
}
