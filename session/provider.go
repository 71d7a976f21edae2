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

package session

import (
	"context"

	"github.com/avolkov/strata/database"
	"github.com/uptrace/bun"
)

// Provider checks sessions out of one shared connection pool, one per
// concurrent logical task. Pool sizing and timeouts belong to the database
// manager that built the *bun.DB.
type Provider struct {
	db     *bun.DB
	logger database.Logger
}

// NewProvider creates a provider over an initialized database.
func NewProvider(db *bun.DB) *Provider {
	return &Provider{db: db, logger: database.GetLogger()}
}

// Acquire checks out a session. The caller owns it until Release.
func (p *Provider) Acquire(ctx context.Context) (*Session, error) {
	return newSession(ctx, p.db)
}

// Release ends the session, rolling back anything left uncommitted. Errors
// are logged rather than returned: release runs on every exit path,
// including cancellation, and must not mask the operation's own error.
func (p *Provider) Release(s *Session) {
	if s == nil {
		return
	}
	uncommitted := s.InTx()
	if err := s.Close(); err != nil {
		p.logger.Error("Failed to release session", "session_id", s.ID(), "error", err)
		return
	}
	if uncommitted {
		p.logger.Debug("Session released with uncommitted work rolled back", "session_id", s.ID())
	}
}
