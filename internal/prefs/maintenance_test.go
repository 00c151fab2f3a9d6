// Copyright (c) 2026 SMR Web Team
// smrweb - QR login client with local PIN lock
// This source code is licensed under the MIT license found in the LICENSE file.

package prefs

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func withMockOpen(t *testing.T) sqlmock.Sqlmock {
	t.Helper()
	dbMock, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	orig := sqlOpenFunc
	sqlOpenFunc = func(driverName, dsn string) (*sql.DB, error) { return dbMock, nil }
	t.Cleanup(func() {
		sqlOpenFunc = orig
		_ = dbMock.Close()
	})
	return mock
}

func TestRunMaintenance_Sqlite_Success(t *testing.T) {
	mock := withMockOpen(t)
	mock.ExpectExec("PRAGMA optimize").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("VACUUM").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("PRAGMA wal_checkpoint\\(").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("PRAGMA integrity_check").WillReturnRows(sqlmock.NewRows([]string{"integrity_check"}).AddRow("ok"))

	if err := RunMaintenance(context.Background(), "sqlite", "whatever"); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRunMaintenance_Sqlite_IntegrityFailure(t *testing.T) {
	mock := withMockOpen(t)
	mock.ExpectExec("PRAGMA optimize").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("VACUUM").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("PRAGMA wal_checkpoint\\(").WillReturnError(errors.New("not in WAL mode"))
	mock.ExpectQuery("PRAGMA integrity_check").WillReturnRows(sqlmock.NewRows([]string{"integrity_check"}).AddRow("page 3 corrupt"))

	if err := RunMaintenance(context.Background(), "sqlite", "whatever"); err == nil {
		t.Fatalf("expected integrity failure")
	}
}

func TestRunMaintenance_Postgres(t *testing.T) {
	mock := withMockOpen(t)
	mock.ExpectExec("VACUUM ANALYZE").WillReturnResult(sqlmock.NewResult(0, 0))

	if err := RunMaintenance(context.Background(), "postgres", "dsn"); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRunMaintenance_MySQLFailure(t *testing.T) {
	mock := withMockOpen(t)
	mock.ExpectExec("OPTIMIZE TABLE").WillReturnError(errors.New("denied"))

	if err := RunMaintenance(context.Background(), "mysql", "dsn"); err == nil {
		t.Fatalf("expected mysql optimize failure")
	}
}

func TestRunMaintenance_MemoryIsNoop(t *testing.T) {
	if err := RunMaintenance(context.Background(), "memory", ""); err != nil {
		t.Fatalf("memory maintenance: %v", err)
	}
}
