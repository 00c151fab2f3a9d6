// Copyright (c) 2026 SMR Web Team
// smrweb - QR login client with local PIN lock
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/smr-web/smrweb/internal/i18n"
	"github.com/smr-web/smrweb/internal/prefs"
)

func newPrefsCmd(a *app) *cobra.Command {
	prefsCmd := &cobra.Command{
		Use:   "prefs",
		Short: "Preference store housekeeping",
	}

	var timeout time.Duration
	maintainCmd := &cobra.Command{
		Use:   "maintain",
		Short: "Run store maintenance (VACUUM/OPTIMIZE) for the configured backend",
		Long:  `Runs engine-specific maintenance: PRAGMA optimize, VACUUM and integrity_check on SQLite, VACUUM ANALYZE on PostgreSQL, OPTIMIZE TABLE on MySQL.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			if err := prefs.RunMaintenance(ctx, a.cfg.Database.Type, a.cfg.Database.Dsn); err != nil {
				return fmt.Errorf("maintenance failed: %w", err)
			}
			fmt.Fprintln(out(cmd), i18n.T("cli.maintenance_done"))
			return nil
		},
	}
	maintainCmd.Flags().DurationVar(&timeout, "timeout", 0, "Abort maintenance after this long (0 means no timeout)")

	prefsCmd.AddCommand(maintainCmd)
	return prefsCmd
}
