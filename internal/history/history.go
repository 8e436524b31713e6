// Copyright 2021 FerretDB Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package history stores past draws in a local SQLite database.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // register database/sql driver

	"github.com/FerretDB/randomwinner/internal/util/fsql"
	"github.com/FerretDB/randomwinner/internal/util/lazyerrors"
)

// DefaultLimit is the default number of draws returned by List.
const DefaultLimit = 20

// Draw represents a single recorded draw.
type Draw struct {
	ID        string
	Strategy  string
	Winner    string
	Documents int
	CreatedAt time.Time
}

// Store is a draw history store.
type Store struct {
	db *fsql.DB
}

// Open opens or creates SQLite database at the given URI or file path.
func Open(ctx context.Context, uri string, l *zap.Logger) (*Store, error) {
	if !strings.HasPrefix(uri, "file:") {
		uri = "file:" + uri
	}

	sqlDB, err := sql.Open("sqlite", uri)
	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	sqlDB.SetConnMaxIdleTime(0)
	sqlDB.SetConnMaxLifetime(0)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetMaxOpenConns(1)

	if err = sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to open history database %q: %w", uri, err)
	}

	s := &Store{
		db: fsql.WrapDB(sqlDB, "history", l),
	}

	var sqliteVersion string
	if err = s.db.QueryRowContext(ctx, `SELECT sqlite_version()`).Scan(&sqliteVersion); err != nil {
		_ = s.db.Close()
		return nil, lazyerrors.Error(err)
	}

	l.Debug("History database opened", zap.String("uri", uri), zap.String("sqlite", sqliteVersion))

	err = s.db.InTransaction(ctx, func(tx *fsql.Tx) error {
		q := `CREATE TABLE IF NOT EXISTS draws (` +
			`id TEXT PRIMARY KEY, ` +
			`strategy TEXT NOT NULL, ` +
			`winner TEXT NOT NULL, ` +
			`documents INTEGER NOT NULL, ` +
			`created_at INTEGER NOT NULL` +
			`) STRICT`
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return lazyerrors.Error(err)
		}

		q = `CREATE INDEX IF NOT EXISTS draws_created_at ON draws (created_at)`
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return lazyerrors.Error(err)
		}

		return nil
	})
	if err != nil {
		_ = s.db.Close()
		return nil, err
	}

	return s, nil
}

// Count returns the number of recorded draws.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM draws`).Scan(&n); err != nil {
		return 0, lazyerrors.Error(err)
	}

	return n, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores the given draw.
//
// Zero CreatedAt is replaced with the current time.
func (s *Store) Record(ctx context.Context, d *Draw) error {
	createdAt := d.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	q := `INSERT INTO draws (id, strategy, winner, documents, created_at) VALUES (?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, q, d.ID, d.Strategy, d.Winner, d.Documents, createdAt.UnixMilli()); err != nil {
		return lazyerrors.Error(err)
	}

	return nil
}

// List returns up to limit recorded draws, newest first.
//
// DefaultLimit is used if limit is not positive.
func (s *Store) List(ctx context.Context, limit int) ([]*Draw, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	q := `SELECT id, strategy, winner, documents, created_at FROM draws ORDER BY created_at DESC, rowid DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, lazyerrors.Error(err)
	}
	defer rows.Close()

	var res []*Draw

	for rows.Next() {
		d := new(Draw)
		var createdAt int64

		if err = rows.Scan(&d.ID, &d.Strategy, &d.Winner, &d.Documents, &createdAt); err != nil {
			return nil, lazyerrors.Error(err)
		}

		d.CreatedAt = time.UnixMilli(createdAt).UTC()
		res = append(res, d)
	}

	if err = rows.Err(); err != nil {
		return nil, lazyerrors.Error(err)
	}

	return res, nil
}

// Describe implements prometheus.Collector.
func (s *Store) Describe(ch chan<- *prometheus.Desc) {
	s.db.Describe(ch)
}

// Collect implements prometheus.Collector.
func (s *Store) Collect(ch chan<- prometheus.Metric) {
	s.db.Collect(ch)
}

// check interfaces
var (
	_ prometheus.Collector = (*Store)(nil)
)
