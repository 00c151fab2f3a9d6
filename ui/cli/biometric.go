// Copyright (c) 2026 SMR Web Team
// smrweb - QR login client with local PIN lock
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/smr-web/smrweb/internal/biometric"
	"github.com/smr-web/smrweb/internal/i18n"
)

func newBiometricCmd(a *app) *cobra.Command {
	bioCmd := &cobra.Command{
		Use:   "biometric",
		Short: "Inspect and change biometric (security key) unlock",
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show the configured authenticator and whether it is usable",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			enabled, err := a.store.IsBiometricEnabled(ctx)
			if err != nil {
				return err
			}
			w := out(cmd)
			fmt.Fprintf(w, "provider: %s\n", a.cfg.Biometric.Provider)
			fmt.Fprintf(w, "available: %t\n", a.gate.Available(ctx))
			fmt.Fprintf(w, "enabled: %t\n", enabled)
			if ag, ok := a.gate.(*biometric.AgentGate); ok {
				if id, err := ag.Identity(ctx); err == nil {
					fmt.Fprintf(w, "key: %s\n", id)
				} else {
					fmt.Fprintf(w, "key: %v\n", err)
				}
			}
			return nil
		},
	}

	enableCmd := &cobra.Command{
		Use:   "enable",
		Short: "Enable biometric unlock",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			on, err := a.store.IsAuthEnabled(ctx)
			if err != nil {
				return err
			}
			if !on {
				return errors.New(i18n.T("cli.biometric_needs_auth"))
			}
			if err := a.unlock(ctx, newPinReader(cmd)); err != nil {
				return err
			}
			if !a.gate.Available(ctx) {
				return errors.New(i18n.T("cli.biometric_unavailable"))
			}
			if err := a.store.SetBiometricEnabled(ctx, true); err != nil {
				return err
			}
			fmt.Fprintln(out(cmd), i18n.T("cli.biometric_enrolled"))
			return nil
		},
	}

	disableCmd := &cobra.Command{
		Use:   "disable",
		Short: "Disable biometric unlock",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.unlock(ctx, newPinReader(cmd)); err != nil {
				return err
			}
			if err := a.store.SetBiometricEnabled(ctx, false); err != nil {
				return err
			}
			fmt.Fprintln(out(cmd), i18n.T("cli.biometric_disabled"))
			return nil
		},
	}

	var timeout time.Duration
	testCmd := &cobra.Command{
		Use:   "test",
		Short: "Run one challenge against the authenticator",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			res := a.gate.Challenge(ctx, biometric.Prompt{
				Title:         i18n.T("biometric.prompt.title"),
				Subtitle:      i18n.T("biometric.prompt.subtitle"),
				Description:   i18n.T("biometric.prompt.description"),
				NegativeLabel: i18n.T("biometric.prompt.cancel"),
			})
			fmt.Fprintf(out(cmd), "result: %s\n", res.Result)
			if res.Result != biometric.Success {
				if res.Err != nil {
					return fmt.Errorf("challenge %s: %w", res.Result, res.Err)
				}
				return fmt.Errorf("challenge %s", res.Result)
			}
			return nil
		},
	}
	testCmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Give up waiting for the security key after this long")

	bioCmd.AddCommand(statusCmd, enableCmd, disableCmd, testCmd)
	return bioCmd
}
