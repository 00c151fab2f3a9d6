//go:build !windows
// +build !windows

// Copyright (c) 2026 SMR Web Team
// smrweb - QR login client with local PIN lock
// This source code is licensed under the MIT license found in the LICENSE file.

package biometric

import (
	"fmt"
	"io"
	"net"
	"os"

	"golang.org/x/crypto/ssh/agent"
)

// dialSystemAgent connects to the agent socket named by SSH_AUTH_SOCK.
func dialSystemAgent() (agent.Agent, io.Closer, error) {
	sock := os.Getenv("SSH_AUTH_SOCK")
	if sock == "" {
		return nil, nil, fmt.Errorf("%w: SSH_AUTH_SOCK is not set", ErrAgentUnreachable)
	}
	conn, err := net.Dial("unix", sock)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrAgentUnreachable, err)
	}
	return agent.NewClient(conn), conn, nil
}
