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

package repository

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/avolkov/strata/database"
	"github.com/avolkov/strata/dberr"
	"github.com/avolkov/strata/session"
	"github.com/avolkov/strata/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/feature"
)

var errMultipleRows = errors.New("multiple rows found where at most one was expected")

type baseRepository[T any] struct {
	session *session.Session
	logger  database.Logger
	entity  string
}

// New returns a generic repository for T bound to the given unit of work.
// The repository never constructs or disposes the session; callers own its
// lifecycle and must serialize operations against it.
func New[T any](s *session.Session) Repository[T] {
	var zero T
	return &baseRepository[T]{
		session: s,
		logger:  database.GetLogger(),
		entity:  reflect.TypeOf(zero).Name(),
	}
}

// fail translates a storage error into the taxonomy exactly once. A
// taxonomy error already raised deeper in the call chain passes through
// unchanged, never re-wrapped into a less specific kind.
func (r *baseRepository[T]) fail(op string, err error) error {
	if _, ok := dberr.As(err); ok {
		return err
	}
	r.logger.Error("Error during "+op, "entity", r.entity, "error", err)
	return dberr.OperationFailure(op, err)
}

// rollbackQuietly rolls the unit of work back after a failed write so it is
// never left dangling; rollback errors are logged, not returned, to avoid
// masking the original failure.
func (r *baseRepository[T]) rollbackQuietly() {
	if err := r.session.Rollback(); err != nil {
		r.logger.Error("Error rolling back after failed operation", "entity", r.entity, "error", err)
	}
}

func (r *baseRepository[T]) GetByID(ctx context.Context, id interface{}) (*T, error) {
	db, err := r.session.Handle(ctx)
	if err != nil {
		return nil, r.fail("get entity", err)
	}

	entity := new(T)
	err = db.NewSelect().Model(entity).Where("id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		if dberr.IsNoRows(err) {
			return nil, nil
		}
		return nil, r.fail("get entity", err)
	}
	return entity, nil
}

func (r *baseRepository[T]) GetByIDOrFail(ctx context.Context, id interface{}) (*T, error) {
	entity, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, dberr.NotFound(r.entity, id)
	}
	return entity, nil
}

func (r *baseRepository[T]) Find(ctx context.Context, opts FindOptions) ([]*T, error) {
	db, err := r.session.Handle(ctx)
	if err != nil {
		return nil, r.fail("find entities", err)
	}

	var entities []*T
	q := db.NewSelect().Model(&entities)
	for _, c := range opts.Filters {
		q = q.Where(c.Expr, c.Args...)
	}
	for _, rel := range opts.Relations {
		q = q.Relation(rel)
	}
	if len(opts.Orders) > 0 {
		q = q.Order(types.OrderStrings(opts.Orders)...)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, r.fail("find entities", err)
	}
	if entities == nil {
		entities = make([]*T, 0)
	}
	return entities, nil
}

func (r *baseRepository[T]) GetAll(ctx context.Context, attrs map[string]interface{}) ([]*T, error) {
	entities, err := r.Find(ctx, FindOptions{Filters: types.Eq(attrs)})
	if err != nil {
		return nil, r.fail("get all entities", err)
	}
	return entities, nil
}

func (r *baseRepository[T]) GetOneOrNone(ctx context.Context, attrs map[string]interface{}) (*T, error) {
	// Probe for a second row so a violated at-most-one expectation
	// surfaces as an error instead of an arbitrary row.
	entities, err := r.Find(ctx, FindOptions{Filters: types.Eq(attrs), Limit: 2})
	if err != nil {
		return nil, r.fail("get entity", err)
	}
	switch len(entities) {
	case 0:
		return nil, nil
	case 1:
		return entities[0], nil
	default:
		return nil, r.fail("get entity", errMultipleRows)
	}
}

func (r *baseRepository[T]) GetOneOrFail(ctx context.Context, attrs map[string]interface{}) (*T, error) {
	entity, err := r.GetOneOrNone(ctx, attrs)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, dberr.NotFoundWhere(fmt.Sprintf("%s with %s", r.entity, types.DescribeAttrs(attrs)))
	}
	return entity, nil
}

func (r *baseRepository[T]) Count(ctx context.Context, filters []*types.Condition) (int, error) {
	db, err := r.session.Handle(ctx)
	if err != nil {
		return 0, r.fail("count entities", err)
	}

	q := db.NewSelect().Model((*T)(nil))
	for _, c := range filters {
		q = q.Where(c.Expr, c.Args...)
	}

	total, err := q.Count(ctx)
	if err != nil {
		return 0, r.fail("count entities", err)
	}
	return total, nil
}

func (r *baseRepository[T]) Create(ctx context.Context, entity *T) (*T, error) {
	db, err := r.session.Handle(ctx)
	if err != nil {
		return nil, r.fail("create entity", err)
	}

	q := db.NewInsert().Model(entity)
	returning := r.session.HasFeature(feature.InsertReturning)
	if returning {
		q = q.Returning("*")
	}

	if _, err := q.Exec(ctx); err != nil {
		r.rollbackQuietly()
		if dberr.IsConstraintViolation(err) {
			r.logger.Error("Integrity error creating entity", "entity", r.entity, "error", err)
			return nil, dberr.Validation("Data integrity constraint violated")
		}
		return nil, r.fail("create entity", err)
	}

	if !returning {
		// Dialects without INSERT ... RETURNING set the autoincrement key
		// on the model; reload to pick up defaults and timestamps.
		if err := r.reload(ctx, entity); err != nil {
			return nil, r.fail("create entity", err)
		}
	}
	return entity, nil
}

func (r *baseRepository[T]) Update(ctx context.Context, id interface{}, changes *types.Changeset) (*T, error) {
	if changes == nil || changes.Len() == 0 {
		// Nothing to write: behave as a read so a missing id still fails.
		return r.GetByIDOrFail(ctx, id)
	}

	db, err := r.session.Handle(ctx)
	if err != nil {
		return nil, r.fail("update entity", err)
	}

	entity := new(T)
	q := db.NewUpdate().Model(entity).Where("id = ?", id)
	for _, column := range changes.Columns() {
		value, _ := changes.Value(column)
		q = q.Set("? = ?", bun.Ident(column), value)
	}

	if r.session.HasFeature(feature.Returning) {
		if _, err := q.Returning("*").Exec(ctx, entity); err != nil {
			if dberr.IsNoRows(err) {
				return nil, dberr.NotFound(r.entity, id)
			}
			return nil, r.updateFailure(id, err)
		}
		return entity, nil
	}

	// Without RETURNING, zero affected rows does not prove absence: MySQL
	// reports rows changed, not rows matched, so an update that assigns the
	// values already stored affects nothing. Absence is decided by the
	// reload instead.
	if _, err := q.Exec(ctx); err != nil {
		return nil, r.updateFailure(id, err)
	}
	updated, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, dberr.NotFound(r.entity, id)
	}
	return updated, nil
}

func (r *baseRepository[T]) updateFailure(id interface{}, err error) error {
	r.rollbackQuietly()
	if dberr.IsConstraintViolation(err) {
		r.logger.Error("Integrity error updating entity", "entity", r.entity, "id", id, "error", err)
		return dberr.Validation("Data integrity constraint violated")
	}
	return r.fail("update entity", err)
}

func (r *baseRepository[T]) Patch(ctx context.Context, id interface{}, changes *types.Changeset) (*T, error) {
	if changes != nil {
		changes = changes.WithoutNil()
	}
	return r.Update(ctx, id, changes)
}

func (r *baseRepository[T]) Delete(ctx context.Context, id interface{}) error {
	db, err := r.session.Handle(ctx)
	if err != nil {
		return r.fail("delete entity", err)
	}

	res, err := db.NewDelete().Model((*T)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		r.rollbackQuietly()
		return r.fail("delete entity", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return r.fail("delete entity", err)
	}
	if n == 0 {
		return dberr.NotFound(r.entity, id)
	}
	return nil
}

func (r *baseRepository[T]) GetPaginated(ctx context.Context, req *types.PageRequest) (*types.PaginatedResult[T], error) {
	// Invalid input fails before any storage round trip.
	if req.Page() < 1 {
		return nil, dberr.Validation("Page number must be >= 1")
	}
	if req.PerPage() < 1 {
		return nil, dberr.Validation("Per page number must be >= 1")
	}

	// Count and fetch are two sequential reads; under concurrent writes
	// between them, total and items may disagree. That weak consistency is
	// deliberate and documented, not something to hide.
	total, err := r.Count(ctx, req.Filters())
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return types.NewPaginatedResult[T](nil, 0, req.Page(), req.PerPage()), nil
	}

	items, err := r.Find(ctx, FindOptions{
		Filters: req.Filters(),
		Orders:  req.Orders(),
		Limit:   req.PerPage(),
		Offset:  req.Offset(),
	})
	if err != nil {
		return nil, err
	}

	return types.NewPaginatedResult(items, total, req.Page(), req.PerPage()), nil
}

func (r *baseRepository[T]) Commit(ctx context.Context) error {
	if err := r.session.Commit(); err != nil {
		r.logger.Error("Error committing transaction", "entity", r.entity, "error", err)
		r.rollbackQuietly()
		return dberr.OperationFailure("commit transaction", err)
	}
	return nil
}

func (r *baseRepository[T]) Rollback(ctx context.Context) error {
	if err := r.session.Rollback(); err != nil {
		r.logger.Error("Error rolling back transaction", "entity", r.entity, "error", err)
		return dberr.OperationFailure("rollback transaction", err)
	}
	return nil
}

func (r *baseRepository[T]) Refresh(ctx context.Context, entity *T) (*T, error) {
	if err := r.reload(ctx, entity); err != nil {
		return nil, r.fail("refresh entity", err)
	}
	return entity, nil
}

func (r *baseRepository[T]) reload(ctx context.Context, entity *T) error {
	db, err := r.session.Handle(ctx)
	if err != nil {
		return err
	}
	return db.NewSelect().Model(entity).WherePK().Scan(ctx)
}
