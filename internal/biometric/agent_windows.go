//go:build windows
// +build windows

// Copyright (c) 2026 SMR Web Team
// smrweb - QR login client with local PIN lock
// This source code is licensed under the MIT license found in the LICENSE file.

package biometric

import (
	"fmt"
	"io"
	"os"

	"github.com/Microsoft/go-winio"
	"github.com/davidmz/go-pageant"
	"golang.org/x/crypto/ssh/agent"
)

const openSSHPipe = `\\.\pipe\openssh-ssh-agent`

// dialSystemAgent prefers a Pageant-compatible agent and falls back to the
// OpenSSH named pipe (SSH_AUTH_SOCK or the default pipe name).
func dialSystemAgent() (agent.Agent, io.Closer, error) {
	if pageant.Available() {
		return pageant.New(), nopCloser{}, nil
	}

	pipe := os.Getenv("SSH_AUTH_SOCK")
	if pipe == "" {
		pipe = openSSHPipe
	}
	conn, err := winio.DialPipe(pipe, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrAgentUnreachable, err)
	}
	return agent.NewClient(conn), conn, nil
}
