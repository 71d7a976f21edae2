/*
 * Copyright 2025 avolkov.
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

// Package session implements the unit of work: one database session bound
// to one logical operation or request, checked out from the shared pool and
// released deterministically when the work ends.
package session

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/feature"
	"github.com/uptrace/bun/schema"
)

// ErrClosed is returned when a session is used after Close.
var ErrClosed = errors.New("session: already closed")

// Session is a bounded transactional scope over a dedicated pool connection.
//
// The transaction begins lazily on first use. Commit and Rollback end it;
// the next statement begins a fresh one, so a session stays usable after a
// rolled-back constraint violation. A session is not safe for concurrent
// use: callers must serialize operations against the same instance and use
// one session per in-flight request.
type Session struct {
	id   uuid.UUID
	db   *bun.DB
	conn bun.Conn

	tx     *bun.Tx
	closed bool
}

func newSession(ctx context.Context, db *bun.DB) (*Session, error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	return &Session{id: uuid.New(), db: db, conn: conn}, nil
}

// ID identifies the session in logs.
func (s *Session) ID() uuid.UUID { return s.id }

// Dialect returns the SQL dialect of the underlying database.
func (s *Session) Dialect() schema.Dialect { return s.db.Dialect() }

// HasFeature reports whether the underlying dialect supports the feature.
func (s *Session) HasFeature(f feature.Feature) bool { return s.db.HasFeature(f) }

// Handle returns the query handle for the current transaction, beginning
// one if none is open.
func (s *Session) Handle(ctx context.Context) (bun.IDB, error) {
	if s.closed {
		return nil, ErrClosed
	}
	if s.tx == nil {
		tx, err := s.conn.BeginTx(ctx, &sql.TxOptions{})
		if err != nil {
			return nil, err
		}
		s.tx = &tx
	}
	return s.tx, nil
}

// InTx reports whether a transaction is currently open.
func (s *Session) InTx() bool { return s.tx != nil }

// Commit ends the current transaction, applying its changes. Committing a
// session with no open transaction is a no-op.
func (s *Session) Commit() error {
	if s.closed {
		return ErrClosed
	}
	if s.tx == nil {
		return nil
	}
	err := s.tx.Commit()
	s.tx = nil
	return err
}

// Rollback ends the current transaction, discarding its changes. Rolling
// back a session with no open transaction is a no-op.
func (s *Session) Rollback() error {
	if s.closed {
		return ErrClosed
	}
	if s.tx == nil {
		return nil
	}
	err := s.tx.Rollback()
	s.tx = nil
	return err
}

// Close rolls back any open transaction and returns the connection to the
// pool. A canceled request must still end here so no half-applied
// transaction outlives the session. Close is idempotent.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	rbErr := s.Rollback()
	s.closed = true
	if err := s.conn.Close(); err != nil {
		return err
	}
	return rbErr
}
