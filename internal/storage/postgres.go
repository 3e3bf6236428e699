// Copyright (c) 2026 Andi Zeiri
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

package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/andiyzeiri/absolute-tms-sub000/internal/models"
)

const loadColumns = `id, load_number, customer, origin, destination, driver, vehicle,
	       status, pickup_date, delivery_date, delivery_time, rate, weight,
	       commodity, notes, email_id, email_subject, email_from, created_at`

// PostgresStore is the production LoadStore, backed by a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a load store backed by the given pool and
// ensures the loads table exists.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	s := &PostgresStore{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure loads schema: %w", err)
	}
	slog.Info("load store initialised")
	return s, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS loads (
			id            TEXT PRIMARY KEY,
			load_number   TEXT DEFAULT '',
			customer      TEXT DEFAULT '',
			origin        TEXT DEFAULT '',
			destination   TEXT DEFAULT '',
			driver        TEXT DEFAULT '',
			vehicle       TEXT DEFAULT '',
			status        TEXT NOT NULL DEFAULT 'pending',
			pickup_date   TEXT DEFAULT '',
			delivery_date TEXT DEFAULT '',
			delivery_time TEXT DEFAULT '',
			rate          DOUBLE PRECISION NOT NULL DEFAULT 0,
			weight        TEXT DEFAULT '',
			commodity     TEXT DEFAULT '',
			notes         TEXT DEFAULT '',
			email_id      TEXT DEFAULT '',
			email_subject TEXT DEFAULT '',
			email_from    TEXT DEFAULT '',
			created_at    TIMESTAMPTZ DEFAULT NOW()
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_loads_email_id
			ON loads(email_id) WHERE email_id <> '';
		CREATE INDEX IF NOT EXISTS idx_loads_status ON loads(status);
	`)
	return err
}

// SaveLoad appends a new load. The partial unique index on email_id is
// the final guard against double-materializing the same email.
func (s *PostgresStore) SaveLoad(ctx context.Context, l models.Load) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO loads
			(id, load_number, customer, origin, destination, driver, vehicle,
			 status, pickup_date, delivery_date, delivery_time, rate, weight,
			 commodity, notes, email_id, email_subject, email_from, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`, l.ID, l.LoadNumber, l.Customer, l.Origin, l.Destination, l.Driver, l.Vehicle,
		l.Status, l.PickupDate, l.DeliveryDate, l.DeliveryTime, l.Rate, l.Weight,
		l.Commodity, l.Notes, l.EmailID, l.EmailSubject, l.EmailFrom, l.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert load: %w", err)
	}
	return nil
}

// GetByEmailID returns the load created from an email, or nil.
func (s *PostgresStore) GetByEmailID(ctx context.Context, emailID string) (*models.Load, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+loadColumns+`
		FROM loads
		WHERE email_id = $1
	`, emailID)
	return scanLoad(row)
}

// SeenEmailIDs lists the email IDs that already produced a load.
func (s *PostgresStore) SeenEmailIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT email_id FROM loads WHERE email_id <> ''
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seen := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		seen[id] = struct{}{}
	}
	return seen, rows.Err()
}

// ListLoads returns all loads, newest first.
func (s *PostgresStore) ListLoads(ctx context.Context) ([]models.Load, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+loadColumns+`
		FROM loads
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLoads(rows)
}

// Ping reports Postgres reachability.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func scanLoad(row pgx.Row) (*models.Load, error) {
	var l models.Load
	err := row.Scan(
		&l.ID, &l.LoadNumber, &l.Customer, &l.Origin, &l.Destination, &l.Driver,
		&l.Vehicle, &l.Status, &l.PickupDate, &l.DeliveryDate, &l.DeliveryTime,
		&l.Rate, &l.Weight, &l.Commodity, &l.Notes, &l.EmailID, &l.EmailSubject,
		&l.EmailFrom, &l.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func collectLoads(rows pgx.Rows) ([]models.Load, error) {
	var loads []models.Load
	for rows.Next() {
		var l models.Load
		if err := rows.Scan(
			&l.ID, &l.LoadNumber, &l.Customer, &l.Origin, &l.Destination, &l.Driver,
			&l.Vehicle, &l.Status, &l.PickupDate, &l.DeliveryDate, &l.DeliveryTime,
			&l.Rate, &l.Weight, &l.Commodity, &l.Notes, &l.EmailID, &l.EmailSubject,
			&l.EmailFrom, &l.CreatedAt,
		); err != nil {
			return nil, err
		}
		loads = append(loads, l)
	}
	return loads, rows.Err()
}
