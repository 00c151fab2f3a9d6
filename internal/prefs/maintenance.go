// Copyright (c) 2026 SMR Web Team
// smrweb - QR login client with local PIN lock
// This source code is licensed under the MIT license found in the LICENSE file.

package prefs

import (
	"context"
	"fmt"

	"github.com/smr-web/smrweb/internal/logging"
)

// RunMaintenance performs engine-specific housekeeping on the database at
// dsn. For SQLite this runs PRAGMA optimize, VACUUM, a WAL checkpoint and an
// integrity check; for Postgres VACUUM ANALYZE; for MySQL OPTIMIZE TABLE on
// the preferences table. The memory backend has nothing to do.
func RunMaintenance(ctx context.Context, dbType, dsn string) error {
	if dbType == "memory" {
		return nil
	}
	sqlDB, err := sqlOpenFunc(driverFor(dbType), dsn)
	if err != nil {
		return fmt.Errorf("failed to open database for maintenance: %w", err)
	}
	defer func() { _ = sqlDB.Close() }()

	switch dbType {
	case "sqlite":
		if _, err := sqlDB.ExecContext(ctx, "PRAGMA optimize;"); err != nil {
			return fmt.Errorf("sqlite optimize failed: %w", err)
		}
		if _, err := sqlDB.ExecContext(ctx, "VACUUM;"); err != nil {
			return fmt.Errorf("sqlite vacuum failed: %w", err)
		}
		// Not every journal mode supports checkpoints.
		if _, err := sqlDB.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE);"); err != nil {
			logging.Debugf("prefs: wal checkpoint skipped: %v", err)
		}
		var res string
		if err := sqlDB.QueryRowContext(ctx, "PRAGMA integrity_check;").Scan(&res); err != nil {
			return fmt.Errorf("sqlite integrity_check failed: %w", err)
		}
		if res != "ok" {
			return fmt.Errorf("sqlite integrity_check failed: %s", res)
		}
	case "postgres":
		if _, err := sqlDB.ExecContext(ctx, "VACUUM ANALYZE preferences;"); err != nil {
			return fmt.Errorf("postgres vacuum failed: %w", err)
		}
	case "mysql":
		if _, err := sqlDB.ExecContext(ctx, "OPTIMIZE TABLE preferences"); err != nil {
			return fmt.Errorf("mysql optimize failed: %w", err)
		}
	default:
		return fmt.Errorf("%w: '%s'", ErrUnsupportedBackend, dbType)
	}
	logging.Infof("prefs: maintenance for %s completed", dbType)
	return nil
}
