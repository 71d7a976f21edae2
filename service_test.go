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

package strata_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/avolkov/strata"
	"github.com/avolkov/strata/database"
	"github.com/avolkov/strata/dberr"
	"github.com/avolkov/strata/repository"
	"github.com/avolkov/strata/types"
	"github.com/uptrace/bun"
)

type Account struct {
	bun.BaseModel `bun:"table:accounts,alias:a"`

	ID      int64  `bun:"id,pk,autoincrement" json:"id"`
	Owner   string `bun:"owner,notnull" json:"owner"`
	Email   string `bun:"email,notnull,unique" json:"email"`
	Balance int64  `bun:"balance,notnull,default:0" json:"balance"`
}

func TestMain(m *testing.M) {
	database.RegisterModel((*Account)(nil), 1)

	cfg := &database.Config{
		Connection: *database.DefaultConnectionConfig(),
		Migrate:    database.MigrateConfig{CreateTablesOnStartup: true},
	}
	cfg.Connection.Type = "sqlite"
	cfg.Connection.DBName = "file:service_test?mode=memory&cache=shared"
	cfg.Connection.HealthCheckInterval = 0

	if _, err := database.InitDB(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "init database: %v\n", err)
		os.Exit(1)
	}
	code := m.Run()
	_ = database.CloseDB()
	os.Exit(code)
}

func TestServiceCrudRoundTrip(t *testing.T) {
	svc := strata.NewService[Account]()
	ctx := context.Background()

	created, err := svc.Create(ctx, &Account{Owner: "alice", Email: "alice@bank.test", Balance: 100})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("ID not assigned")
	}

	got, err := svc.GetOrFail(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Email != "alice@bank.test" {
		t.Errorf("got = %+v", got)
	}

	updated, err := svc.Update(ctx, created.ID, types.NewChangeset().Set("balance", 250))
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Balance != 250 {
		t.Errorf("balance = %d, want 250", updated.Balance)
	}

	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	gone, err := svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if gone != nil {
		t.Errorf("entity survived delete: %+v", gone)
	}
}

func TestServiceWritesPersistAcrossUnitsOfWork(t *testing.T) {
	svc := strata.NewService[Account]()
	ctx := context.Background()

	created, err := svc.Create(ctx, &Account{Owner: "bob", Email: "bob@bank.test"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// A second service instance uses a fresh session and must still see it.
	other := strata.NewService[Account]()
	got, err := other.GetOrFail(ctx, created.ID)
	if err != nil {
		t.Fatalf("get via second service: %v", err)
	}
	if got.Owner != "bob" {
		t.Errorf("got = %+v", got)
	}
}

func TestServicePageAndCount(t *testing.T) {
	svc := strata.NewService[Account]()
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		_, err := svc.Create(ctx, &Account{
			Owner:   "pager",
			Email:   fmt.Sprintf("pager%d@bank.test", i),
			Balance: int64(i),
		})
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	total, err := svc.Count(ctx, []*types.Condition{types.NewCondition("owner = ?", "pager")})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if total != 7 {
		t.Errorf("total = %d, want 7", total)
	}

	page, err := svc.Page(ctx, types.NewPageRequest(2, 3,
		[]*types.Condition{types.NewCondition("owner = ?", "pager")},
		[]types.Order{types.Asc("balance")},
	))
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	if page.Total != 7 || len(page.Items) != 3 {
		t.Errorf("total=%d len=%d", page.Total, len(page.Items))
	}
	if page.Items[0].Balance != 3 {
		t.Errorf("first balance = %d, want 3", page.Items[0].Balance)
	}
	if !page.HasNext || !page.HasPrev {
		t.Errorf("flags: next=%v prev=%v", page.HasNext, page.HasPrev)
	}
}

func TestServiceAllAndFind(t *testing.T) {
	svc := strata.NewService[Account]()
	ctx := context.Background()

	if _, err := svc.Create(ctx, &Account{Owner: "finder", Email: "finder@bank.test", Balance: 999}); err != nil {
		t.Fatalf("create: %v", err)
	}

	matches, err := svc.All(ctx, map[string]interface{}{"owner": "finder"})
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(matches) != 1 {
		t.Errorf("len = %d, want 1", len(matches))
	}

	found, err := svc.Find(ctx, repository.FindOptions{
		Filters: []*types.Condition{types.NewCondition("balance >= ?", 999)},
		Orders:  []types.Order{types.Desc("balance")},
	})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(found) == 0 || found[0].Owner != "finder" {
		t.Errorf("found = %+v", found)
	}
}

func TestServiceUnitOfWorkRollsBackOnError(t *testing.T) {
	svc := strata.NewService[Account]()
	ctx := context.Background()
	boom := errors.New("business rule failed")

	err := svc.WithUnitOfWork(ctx, func(repo repository.Repository[Account]) error {
		if _, err := repo.Create(ctx, &Account{Owner: "tx", Email: "tx-rollback@bank.test"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want the callback error", err)
	}

	leftovers, err := svc.All(ctx, map[string]interface{}{"email": "tx-rollback@bank.test"})
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(leftovers) != 0 {
		t.Errorf("rolled-back row persisted: %+v", leftovers)
	}
}

func TestServiceUnitOfWorkCommitsOnSuccess(t *testing.T) {
	svc := strata.NewService[Account]()
	ctx := context.Background()

	err := svc.WithUnitOfWork(ctx, func(repo repository.Repository[Account]) error {
		if _, err := repo.Create(ctx, &Account{Owner: "tx", Email: "tx-commit-1@bank.test"}); err != nil {
			return err
		}
		_, err := repo.Create(ctx, &Account{Owner: "tx", Email: "tx-commit-2@bank.test"})
		return err
	})
	if err != nil {
		t.Fatalf("unit of work: %v", err)
	}

	total, err := svc.Count(ctx, []*types.Condition{types.NewCondition("email LIKE ?", "tx-commit-%")})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if total != 2 {
		t.Errorf("total = %d, want 2 (both writes in one transaction)", total)
	}
}

func TestServiceSurfacesTaxonomyErrors(t *testing.T) {
	svc := strata.NewService[Account]()
	ctx := context.Background()

	_, err := svc.GetOrFail(ctx, 987654)
	e, ok := dberr.As(err)
	if !ok {
		t.Fatalf("err = %T %v, want taxonomy error", err, err)
	}
	if e.Kind != dberr.KindNotFound {
		t.Errorf("kind = %v", e.Kind)
	}
	if e.Message != "Account with id 987654 not found" {
		t.Errorf("message = %q", e.Message)
	}

	if _, err := svc.Create(ctx, &Account{Owner: "dup", Email: "dup@bank.test"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err = svc.Create(ctx, &Account{Owner: "dup2", Email: "dup@bank.test"})
	if dberr.KindOf(err) != dberr.KindValidation {
		t.Errorf("duplicate create kind = %v, want validation", dberr.KindOf(err))
	}
}
