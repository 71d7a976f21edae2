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

package strata

import (
	"context"
	"sync"

	"github.com/avolkov/strata/database"
	"github.com/avolkov/strata/repository"
	"github.com/avolkov/strata/session"
	"github.com/avolkov/strata/types"
)

// Service is the convenience facade over the generic repository: every call
// runs in its own unit of work, committed on success and rolled back
// otherwise. Callers that need several operations in one transaction use
// WithUnitOfWork or drop down to session.Provider and repository.New.
type Service[T any] interface {
	// Get returns a single entity by its identifier, nil when absent.
	Get(ctx context.Context, id interface{}) (*T, error)

	// GetOrFail returns a single entity by its identifier or a not-found
	// error.
	GetOrFail(ctx context.Context, id interface{}) (*T, error)

	// All returns entities matching the attribute equality filter; a nil or
	// empty filter returns everything.
	All(ctx context.Context, attrs map[string]interface{}) ([]*T, error)

	// Find returns entities matching the full query options.
	Find(ctx context.Context, opts repository.FindOptions) ([]*T, error)

	// Count reports how many entities match the filters.
	Count(ctx context.Context, filters []*types.Condition) (int, error)

	// Page returns one page of entities with pagination metadata.
	Page(ctx context.Context, req *types.PageRequest) (*types.PaginatedResult[T], error)

	// Create inserts the entity and commits.
	Create(ctx context.Context, entity *T) (*T, error)

	// Update applies the changeset to the identified entity and commits.
	Update(ctx context.Context, id interface{}, changes *types.Changeset) (*T, error)

	// Patch is Update with nil-valued assignments dropped first.
	Patch(ctx context.Context, id interface{}, changes *types.Changeset) (*T, error)

	// Delete removes the identified entity and commits.
	Delete(ctx context.Context, id interface{}) error

	// WithUnitOfWork runs fn against one repository bound to one unit of
	// work. The transaction commits when fn returns nil and rolls back when
	// it returns an error.
	WithUnitOfWork(ctx context.Context, fn func(repo repository.Repository[T]) error) error
}

type baseServiceImpl[T any] struct {
	provider *session.Provider
	once     sync.Once
}

// NewService returns a Service backed by the global database connection.
func NewService[T any]() Service[T] {
	return &baseServiceImpl[T]{}
}

// NewServiceWithProvider returns a Service checking units of work out of the
// given provider.
func NewServiceWithProvider[T any](p *session.Provider) Service[T] {
	return &baseServiceImpl[T]{provider: p}
}

func (s *baseServiceImpl[T]) sessions() *session.Provider {
	s.once.Do(func() {
		if s.provider == nil {
			s.provider = session.NewProvider(database.GetDB())
		}
	})
	return s.provider
}

// withRepo runs fn in a fresh unit of work; commit is fn's responsibility.
func (s *baseServiceImpl[T]) withRepo(ctx context.Context, fn func(repo repository.Repository[T]) error) error {
	sess, err := s.sessions().Acquire(ctx)
	if err != nil {
		return err
	}
	defer s.sessions().Release(sess)
	return fn(repository.New[T](sess))
}

func (s *baseServiceImpl[T]) Get(ctx context.Context, id interface{}) (*T, error) {
	var entity *T
	err := s.withRepo(ctx, func(repo repository.Repository[T]) error {
		var err error
		entity, err = repo.GetByID(ctx, id)
		return err
	})
	return entity, err
}

func (s *baseServiceImpl[T]) GetOrFail(ctx context.Context, id interface{}) (*T, error) {
	var entity *T
	err := s.withRepo(ctx, func(repo repository.Repository[T]) error {
		var err error
		entity, err = repo.GetByIDOrFail(ctx, id)
		return err
	})
	return entity, err
}

func (s *baseServiceImpl[T]) All(ctx context.Context, attrs map[string]interface{}) ([]*T, error) {
	var entities []*T
	err := s.withRepo(ctx, func(repo repository.Repository[T]) error {
		var err error
		entities, err = repo.GetAll(ctx, attrs)
		return err
	})
	return entities, err
}

func (s *baseServiceImpl[T]) Find(ctx context.Context, opts repository.FindOptions) ([]*T, error) {
	var entities []*T
	err := s.withRepo(ctx, func(repo repository.Repository[T]) error {
		var err error
		entities, err = repo.Find(ctx, opts)
		return err
	})
	return entities, err
}

func (s *baseServiceImpl[T]) Count(ctx context.Context, filters []*types.Condition) (int, error) {
	var total int
	err := s.withRepo(ctx, func(repo repository.Repository[T]) error {
		var err error
		total, err = repo.Count(ctx, filters)
		return err
	})
	return total, err
}

func (s *baseServiceImpl[T]) Page(ctx context.Context, req *types.PageRequest) (*types.PaginatedResult[T], error) {
	var result *types.PaginatedResult[T]
	err := s.withRepo(ctx, func(repo repository.Repository[T]) error {
		var err error
		result, err = repo.GetPaginated(ctx, req)
		return err
	})
	return result, err
}

func (s *baseServiceImpl[T]) Create(ctx context.Context, entity *T) (*T, error) {
	var created *T
	err := s.withRepo(ctx, func(repo repository.Repository[T]) error {
		var err error
		created, err = repo.Create(ctx, entity)
		if err != nil {
			return err
		}
		return repo.Commit(ctx)
	})
	return created, err
}

func (s *baseServiceImpl[T]) Update(ctx context.Context, id interface{}, changes *types.Changeset) (*T, error) {
	var updated *T
	err := s.withRepo(ctx, func(repo repository.Repository[T]) error {
		var err error
		updated, err = repo.Update(ctx, id, changes)
		if err != nil {
			return err
		}
		return repo.Commit(ctx)
	})
	return updated, err
}

func (s *baseServiceImpl[T]) Patch(ctx context.Context, id interface{}, changes *types.Changeset) (*T, error) {
	var updated *T
	err := s.withRepo(ctx, func(repo repository.Repository[T]) error {
		var err error
		updated, err = repo.Patch(ctx, id, changes)
		if err != nil {
			return err
		}
		return repo.Commit(ctx)
	})
	return updated, err
}

func (s *baseServiceImpl[T]) Delete(ctx context.Context, id interface{}) error {
	return s.withRepo(ctx, func(repo repository.Repository[T]) error {
		if err := repo.Delete(ctx, id); err != nil {
			return err
		}
		return repo.Commit(ctx)
	})
}

func (s *baseServiceImpl[T]) WithUnitOfWork(ctx context.Context, fn func(repo repository.Repository[T]) error) error {
	return s.withRepo(ctx, func(repo repository.Repository[T]) error {
		if err := fn(repo); err != nil {
			// Release would roll back anyway; do it eagerly so fn's error
			// travels with a clean session state.
			_ = repo.Rollback(ctx)
			return err
		}
		return repo.Commit(ctx)
	})
}
