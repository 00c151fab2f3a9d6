// Copyright (c) 2026 SMR Web Team
// smrweb - QR login client with local PIN lock
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/smr-web/smrweb/internal/credentials"
	"github.com/smr-web/smrweb/internal/i18n"
	"github.com/smr-web/smrweb/internal/logging"
	"github.com/smr-web/smrweb/internal/pinpad"
)

// pinReader reads PINs without echo from a terminal, or line by line from
// any other input.
type pinReader struct {
	cmd *cobra.Command
	buf *bufio.Reader
}

func newPinReader(cmd *cobra.Command) *pinReader {
	return &pinReader{cmd: cmd, buf: bufio.NewReader(cmd.InOrStdin())}
}

func (r *pinReader) read(prompt string) (string, error) {
	fmt.Fprint(r.cmd.ErrOrStderr(), prompt)
	if f, ok := r.cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(r.cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("could not read pin: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}
	line, err := r.buf.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", fmt.Errorf("could not read pin: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// enterPin feeds pin into m the way the keypad does and validates it.
func enterPin(ctx context.Context, m *pinpad.Machine, pin string) error {
	if !credentials.ValidPinFormat(pin) {
		return credentials.ErrMalformedPin
	}
	for _, d := range pin {
		m.Press(d)
	}
	return m.Validate(ctx)
}

// unlock asks for the current PIN while the lock is active, so the lock
// cannot be changed or switched off by whoever holds the terminal. auth
// reset is the way out when the PIN is lost.
func (a *app) unlock(ctx context.Context, r *pinReader) error {
	on, err := a.store.IsAuthEnabled(ctx)
	if err != nil {
		return err
	}
	has, err := a.store.HasPin(ctx)
	if err != nil {
		return err
	}
	if !on || !has {
		return nil
	}
	pin, err := r.read(i18n.T("cli.current_pin"))
	if err != nil {
		return err
	}
	m := pinpad.New(pinpad.ModeVerifying, a.store, a.gate)
	if err := enterPin(ctx, m, pin); err != nil {
		if errors.Is(err, credentials.ErrMalformedPin) || errors.Is(err, pinpad.ErrPinInvalid) {
			logging.Warnf("cli: lock change refused, current pin not confirmed")
			return errors.New(i18n.T("cli.unlock_required"))
		}
		return err
	}
	return nil
}

func newAuthCmd(a *app) *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Inspect and change the PIN lock",
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show the lock settings (never the PIN)",
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := a.store.Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			w := out(cmd)
			fmt.Fprintf(w, "auth_enabled: %t\n", snap.AuthEnabled)
			fmt.Fprintf(w, "pin_set: %t\n", snap.PinSet)
			fmt.Fprintf(w, "biometric_enabled: %t\n", snap.BiometricEnabled)
			fmt.Fprintf(w, "first_launch: %t\n", snap.FirstLaunch)
			return nil
		},
	}

	var enroll bool
	setPinCmd := &cobra.Command{
		Use:   "set-pin",
		Short: "Set a new PIN and turn the lock on",
		Long: `Reads the new PIN twice (without echo on a terminal), saves it and
turns the lock on. While the lock is active the current PIN is asked for
first. With --biometric, biometric unlock is enabled as well
when a security key is available.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			r := newPinReader(cmd)
			if err := a.unlock(ctx, r); err != nil {
				return err
			}
			m := pinpad.New(pinpad.ModeSetting, a.store, a.gate)

			first, err := r.read(i18n.T("cli.enter_pin"))
			if err != nil {
				return err
			}
			if err := enterPin(ctx, m, first); err != nil {
				return err
			}
			second, err := r.read(i18n.T("cli.repeat_pin"))
			if err != nil {
				return err
			}
			if err := enterPin(ctx, m, second); err != nil {
				if errors.Is(err, pinpad.ErrPinMismatch) {
					return errors.New(i18n.T("cli.pin_mismatch"))
				}
				return err
			}

			if err := a.store.ConsumeFirstLaunch(ctx); err != nil {
				logging.Warnf("could not clear first launch flag: %v", err)
			}
			fmt.Fprintln(out(cmd), i18n.T("cli.pin_saved"))

			if enroll {
				if !m.EnrollmentOffered() {
					logging.Warnf("%s", i18n.T("cli.biometric_unavailable"))
					return nil
				}
				if err := m.FinishSetup(ctx, true); err != nil {
					return err
				}
				fmt.Fprintln(out(cmd), i18n.T("cli.biometric_enrolled"))
			}
			return nil
		},
	}
	setPinCmd.Flags().BoolVar(&enroll, "biometric", false, "Also enable biometric unlock")

	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "Check a PIN; exits non-zero on mismatch",
		RunE: func(cmd *cobra.Command, args []string) error {
			pin, err := newPinReader(cmd).read(i18n.T("cli.enter_pin"))
			if err != nil {
				return err
			}
			m := pinpad.New(pinpad.ModeVerifying, a.store, a.gate)
			if err := enterPin(cmd.Context(), m, pin); err != nil {
				if errors.Is(err, credentials.ErrMalformedPin) || errors.Is(err, pinpad.ErrPinInvalid) {
					return errors.New(i18n.T("cli.pin_wrong"))
				}
				return err
			}
			fmt.Fprintln(out(cmd), i18n.T("cli.pin_ok"))
			return nil
		},
	}

	disableCmd := &cobra.Command{
		Use:   "disable",
		Short: "Turn the lock off and keep the PIN",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.unlock(ctx, newPinReader(cmd)); err != nil {
				return err
			}
			if err := a.store.SetAuthEnabled(ctx, false); err != nil {
				return err
			}
			if err := a.store.SetBiometricEnabled(ctx, false); err != nil {
				return err
			}
			fmt.Fprintln(out(cmd), i18n.T("cli.auth_disabled"))
			return nil
		},
	}

	var all bool
	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Clear the PIN, the lock and biometric unlock",
		Long: `Clears the PIN, the lock and biometric unlock without asking for the
current PIN. This is the recovery path for a forgotten PIN.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if all {
				if err := a.store.ResetSecurity(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(out(cmd), i18n.T("cli.reset_all_done"))
				return nil
			}
			if err := a.store.Reset(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(out(cmd), i18n.T("cli.reset_done"))
			return nil
		},
	}
	resetCmd.Flags().BoolVar(&all, "all", false, "Also re-arm first launch PIN setup")

	authCmd.AddCommand(statusCmd, setPinCmd, verifyCmd, disableCmd, resetCmd)
	return authCmd
}
