// Copyright (c) 2026 SMR Web Team
// smrweb - QR login client with local PIN lock
// This source code is licensed under the MIT license found in the LICENSE file.

package prefs

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

func openSqlite(t *testing.T, dsn string) Store {
	t.Helper()
	s, err := NewStoreFromDSN("sqlite", dsn)
	if err != nil {
		t.Fatalf("NewStoreFromDSN: %v", err)
	}
	return s
}

func TestBunStore_SqliteRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openSqlite(t, ":memory:")
	defer func() { _ = s.Close() }()
	if bs, ok := s.(*BunStore); !ok || bs.DBType() != "sqlite" {
		t.Fatalf("expected a sqlite *BunStore, got %T", s)
	}
	p := Namespace(s, "app_prefs")

	if err := p.Edit().PutBool("auth_enabled", true).PutString("pin_code", "hash").Commit(ctx); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	// Overwrite an existing key.
	if err := p.Edit().PutBool("auth_enabled", false).Commit(ctx); err != nil {
		t.Fatalf("Commit overwrite: %v", err)
	}
	if v, err := p.Bool(ctx, "auth_enabled", true); err != nil || v {
		t.Fatalf("expected auth_enabled=false, got %v (err=%v)", v, err)
	}
	if v, _ := p.String(ctx, "pin_code", ""); v != "hash" {
		t.Fatalf("expected pin_code=hash, got %q", v)
	}

	if err := p.Edit().Remove("pin_code").Commit(ctx); err != nil {
		t.Fatalf("Commit remove: %v", err)
	}
	if _, ok, err := s.Lookup(ctx, "app_prefs", "pin_code"); err != nil || ok {
		t.Fatalf("expected pin_code removed, found=%v err=%v", ok, err)
	}
}

func TestBunStore_SqliteSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "prefs.db")

	s := openSqlite(t, dsn)
	if err := Namespace(s, "app_prefs").Edit().PutBool("first_launch", false).Commit(ctx); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	_ = s.Close()

	// Reopening re-runs migrations, which must be a no-op.
	s = openSqlite(t, dsn)
	defer func() { _ = s.Close() }()
	v, err := Namespace(s, "app_prefs").Bool(ctx, "first_launch", true)
	if err != nil || v {
		t.Fatalf("expected first_launch=false after reopen, got %v (err=%v)", v, err)
	}
}

func TestNewStoreFromDSN_Backends(t *testing.T) {
	s, err := NewStoreFromDSN("memory", "")
	if err != nil {
		t.Fatalf("memory backend: %v", err)
	}
	if _, ok := s.(*MemoryStore); !ok {
		t.Fatalf("expected *MemoryStore, got %T", s)
	}
	if _, err := NewStoreFromDSN("oracle", "x"); !errors.Is(err, ErrUnsupportedBackend) {
		t.Fatalf("expected ErrUnsupportedBackend, got %v", err)
	}
}

func TestBunStore_ApplyFailureRollsBack(t *testing.T) {
	dbMock, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer func() { _ = dbMock.Close() }()

	s := &BunStore{bun: bun.NewDB(dbMock, sqlitedialect.New()), dbType: "sqlite"}

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM").WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	err = Namespace(s, "app_prefs").Edit().PutString("pin_code", "x").Commit(context.Background())
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestBunStore_BeginFailure(t *testing.T) {
	dbMock, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer func() { _ = dbMock.Close() }()

	s := &BunStore{bun: bun.NewDB(dbMock, sqlitedialect.New()), dbType: "sqlite"}
	mock.ExpectBegin().WillReturnError(errors.New("database is locked"))

	err = s.Apply(context.Background(), "app_prefs", []Change{{Key: "auth_enabled", Value: "true"}})
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
}
