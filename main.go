// Copyright (c) 2026 SMR Web Team
// smrweb - QR login client with local PIN lock
// This source code is licensed under the MIT license found in the LICENSE file.

// Command-line entrypoint for smrweb.
//
// Usage:
//
//	go run . [flags]
//	./smrweb [flags]
//
// Without a subcommand the lock screen TUI starts. See --help for options.
package main

import (
	"os"

	"github.com/smr-web/smrweb/internal/logging"
	"github.com/smr-web/smrweb/ui/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		logging.Errorf("%v", err)
		os.Exit(1)
	}
}
