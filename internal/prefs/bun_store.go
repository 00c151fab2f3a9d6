// Copyright (c) 2026 SMR Web Team
// smrweb - QR login client with local PIN lock
// This source code is licensed under the MIT license found in the LICENSE file.

package prefs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// PreferenceModel maps the preferences table for Bun queries.
type PreferenceModel struct {
	bun.BaseModel `bun:"table:preferences"`
	Namespace     string    `bun:"namespace,pk"`
	Key           string    `bun:"pref_key,pk"`
	Value         string    `bun:"pref_value"`
	UpdatedAt     time.Time `bun:"updated_at"`
}

// BunStore is the SQL implementation of Store shared by SQLite, PostgreSQL
// and MySQL; only the bun dialect differs.
type BunStore struct {
	bun    *bun.DB
	dbType string
}

// Lookup implements Store.
func (s *BunStore) Lookup(ctx context.Context, namespace, key string) (string, bool, error) {
	var value string
	err := s.bun.NewSelect().
		Model((*PreferenceModel)(nil)).
		Column("pref_value").
		Where("namespace = ?", namespace).
		Where("pref_key = ?", key).
		Limit(1).
		Scan(ctx, &value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

// Apply implements Store. All changes share one transaction; a put is a
// delete followed by an insert so the same statements work on every dialect.
func (s *BunStore) Apply(ctx context.Context, namespace string, changes []Change) error {
	now := time.Now().UTC()
	err := s.bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, c := range changes {
			if _, err := tx.NewDelete().
				Model((*PreferenceModel)(nil)).
				Where("namespace = ?", namespace).
				Where("pref_key = ?", c.Key).
				Exec(ctx); err != nil {
				return fmt.Errorf("failed to clear %s/%s: %w", namespace, c.Key, err)
			}
			if c.Delete {
				continue
			}
			if _, err := tx.NewInsert().Model(&PreferenceModel{
				Namespace: namespace,
				Key:       c.Key,
				Value:     c.Value,
				UpdatedAt: now,
			}).Exec(ctx); err != nil {
				return fmt.Errorf("failed to write %s/%s: %w", namespace, c.Key, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return nil
}

// Close implements Store.
func (s *BunStore) Close() error {
	return s.bun.Close()
}

// DBType reports the backend this store was opened with.
func (s *BunStore) DBType() string { return s.dbType }
