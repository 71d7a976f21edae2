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
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type note struct {
	bun.BaseModel `bun:"table:notes,alias:n"`

	ID        int64     `bun:"id,pk,autoincrement"`
	Body      string    `bun:"body,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

func openTestDB(t *testing.T) *bun.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	sqlDB, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db := bun.NewDB(sqlDB, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	if _, err := db.NewCreateTable().Model((*note)(nil)).IfNotExists().Exec(ctx); err != nil {
		t.Fatalf("create table: %v", err)
	}
	return db
}

func TestTransactionBeginsLazily(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	s, err := NewProvider(db).Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer func() { _ = s.Close() }()

	if s.InTx() {
		t.Fatal("transaction open before first statement")
	}
	if _, err := s.Handle(ctx); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !s.InTx() {
		t.Fatal("transaction not opened by Handle")
	}
}

func TestCommitWithoutTxIsNoop(t *testing.T) {
	db := openTestDB(t)
	s, err := NewProvider(db).Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer func() { _ = s.Close() }()

	if err := s.Commit(); err != nil {
		t.Errorf("Commit without tx: %v", err)
	}
	if err := s.Rollback(); err != nil {
		t.Errorf("Rollback without tx: %v", err)
	}
}

func TestSessionReusableAfterRollback(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	s, err := NewProvider(db).Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer func() { _ = s.Close() }()

	h, err := s.Handle(ctx)
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if _, err := h.NewInsert().Model(&note{Body: "discarded"}).Exec(ctx); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := s.Rollback(); err != nil {
		t.Fatalf("rollback: %v", err)
	}
	if s.InTx() {
		t.Fatal("transaction still open after rollback")
	}

	// The next statement runs in a fresh transaction on the same session.
	h, err = s.Handle(ctx)
	if err != nil {
		t.Fatalf("handle after rollback: %v", err)
	}
	if _, err := h.NewInsert().Model(&note{Body: "kept"}).Exec(ctx); err != nil {
		t.Fatalf("insert after rollback: %v", err)
	}
	if err := s.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	count, err := db.NewSelect().Model((*note)(nil)).Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1 (rolled-back row must be gone)", count)
	}
}

func TestCloseRollsBackAndIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	s, err := NewProvider(db).Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	h, err := s.Handle(ctx)
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if _, err := h.NewInsert().Model(&note{Body: "uncommitted"}).Exec(ctx); err != nil {
		t.Fatalf("insert: %v", err)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}

	if _, err := s.Handle(ctx); !errors.Is(err, ErrClosed) {
		t.Errorf("Handle after close = %v, want ErrClosed", err)
	}
	if err := s.Commit(); !errors.Is(err, ErrClosed) {
		t.Errorf("Commit after close = %v, want ErrClosed", err)
	}

	count, err := db.NewSelect().Model((*note)(nil)).Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d, uncommitted work survived Close", count)
	}
}

func TestProviderReleaseRollsBackUncommitted(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	p := NewProvider(db)

	s, err := p.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	h, err := s.Handle(ctx)
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if _, err := h.NewInsert().Model(&note{Body: "abandoned"}).Exec(ctx); err != nil {
		t.Fatalf("insert: %v", err)
	}

	p.Release(s)
	p.Release(nil) // must not panic

	count, err := db.NewSelect().Model((*note)(nil)).Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d, release did not roll back", count)
	}
}

func TestSessionIDsAreUnique(t *testing.T) {
	db := openTestDB(t)
	p := NewProvider(db)

	a, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer p.Release(a)
	b, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer p.Release(b)

	if a.ID() == b.ID() {
		t.Error("two sessions share an ID")
	}
}
