// Copyright (c) 2026 SMR Web Team
// smrweb - QR login client with local PIN lock
// This source code is licensed under the MIT license found in the LICENSE file.
//
// Package cli implements the smrweb command line using Cobra. The root
// command launches the TUI; subcommands inspect and change the lock
// settings from a script or a plain terminal.
package cli
