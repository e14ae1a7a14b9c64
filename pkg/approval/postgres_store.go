/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package approval

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carverauto/netreclaim/pkg/models"
)

// Postgres schema. The partial unique index carries the same guarantee
// as MemoryStore's pending map: at most one PENDING request per
// canonical address set, across every process sharing the database.
const postgresSchema = `
CREATE TABLE IF NOT EXISTS approval_requests (
	token        TEXT PRIMARY KEY,
	address_hash TEXT NOT NULL,
	addresses    TEXT[] NOT NULL,
	state        TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL,
	decided_at   TIMESTAMPTZ,
	executed_at  TIMESTAMPTZ
);
CREATE UNIQUE INDEX IF NOT EXISTS approval_requests_pending_key
	ON approval_requests (address_hash) WHERE state = 'PENDING';
`

// PostgresStore is the durable Store for multi-process deployments.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore connects to the given DSN and ensures the schema
// exists.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("approval store: failed to initialize pool: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("approval store: ensuring schema: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) GetOrCreatePending(ctx context.Context, key string, req *models.ApprovalRequest) (*models.ApprovalRequest, bool, error) {
	// The partial unique index makes the insert race-safe: the loser of
	// a concurrent submit falls through to reading the winner's row.
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO approval_requests (token, address_hash, addresses, state, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (address_hash) WHERE state = 'PENDING' DO NOTHING`,
		req.Token, key, req.Addresses, string(req.State), req.CreatedAt)
	if err != nil {
		return nil, false, fmt.Errorf("inserting approval request: %w", err)
	}

	if tag.RowsAffected() == 1 {
		return req.Clone(), true, nil
	}

	existing, err := s.scanOne(ctx, `
		SELECT token, addresses, state, created_at, decided_at, executed_at
		FROM approval_requests
		WHERE address_hash = $1 AND state = 'PENDING'`, key)
	if err != nil {
		return nil, false, err
	}

	return existing, false, nil
}

func (s *PostgresStore) Get(ctx context.Context, token string) (*models.ApprovalRequest, error) {
	return s.scanOne(ctx, `
		SELECT token, addresses, state, created_at, decided_at, executed_at
		FROM approval_requests
		WHERE token = $1`, token)
}

func (s *PostgresStore) Update(ctx context.Context, req *models.ApprovalRequest, expected models.ApprovalState) error {
	// Conditioning on the expected state makes the transition a CAS:
	// of two racing callers exactly one matches zero rows and loses.
	tag, err := s.pool.Exec(ctx, `
		UPDATE approval_requests
		SET state = $2, decided_at = $3, executed_at = $4
		WHERE token = $1 AND state = $5`,
		req.Token, string(req.State), req.DecidedAt, req.ExecutedAt, string(expected))
	if err != nil {
		return fmt.Errorf("updating approval request: %w", err)
	}

	if tag.RowsAffected() == 0 {
		current, getErr := s.Get(ctx, req.Token)
		if getErr != nil {
			return fmt.Errorf("%w: %s", ErrRequestNotFound, req.Token)
		}

		return fmt.Errorf("%w: %s is %s, expected %s", ErrStaleState, req.Token, current.State, expected)
	}

	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, token string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM approval_requests WHERE token = $1`, token)
	if err != nil {
		return fmt.Errorf("deleting approval request: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrRequestNotFound, token)
	}

	return nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) scanOne(ctx context.Context, query string, arg interface{}) (*models.ApprovalRequest, error) {
	row := s.pool.QueryRow(ctx, query, arg)

	var (
		req   models.ApprovalRequest
		state string
	)

	err := row.Scan(&req.Token, &req.Addresses, &state, &req.CreatedAt, &req.DecidedAt, &req.ExecutedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %v", ErrRequestNotFound, arg)
		}

		return nil, fmt.Errorf("loading approval request: %w", err)
	}

	req.State = models.ApprovalState(state)

	return &req, nil
}
