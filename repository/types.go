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

	"github.com/avolkov/strata/types"
)

// FindOptions shapes a general query: filters are ANDed, orders applied
// before limit/offset, Relations are eager-load hints passed through to the
// storage layer uninterpreted. Zero Limit means no limit.
type FindOptions struct {
	Filters   []*types.Condition
	Orders    []types.Order
	Limit     int
	Offset    int
	Relations []string
}

// Reader defines the query surface of a repository.
type Reader[T any] interface {
	// GetByID fetches a single entity by identity. Absence is not an
	// error: the entity is nil and the caller decides.
	GetByID(ctx context.Context, id interface{}) (*T, error)

	// GetByIDOrFail is GetByID but absence becomes a not-found error.
	GetByIDOrFail(ctx context.Context, id interface{}) (*T, error)

	// Find runs a general query described by opts.
	Find(ctx context.Context, opts FindOptions) ([]*T, error)

	// GetAll is Find restricted to equality filters.
	GetAll(ctx context.Context, attrs map[string]interface{}) ([]*T, error)

	// GetOneOrNone expects at most one match; more than one row is a
	// storage error, never an arbitrary row.
	GetOneOrNone(ctx context.Context, attrs map[string]interface{}) (*T, error)

	// GetOneOrFail is GetOneOrNone but absence becomes a not-found error
	// described by the filter set.
	GetOneOrFail(ctx context.Context, attrs map[string]interface{}) (*T, error)

	// Count reports how many rows match the filters, or all rows.
	Count(ctx context.Context, filters []*types.Condition) (int, error)
}

// Writer defines the mutation surface of a repository.
type Writer[T any] interface {
	// Create stages the entity in the unit of work and applies it, loading
	// generated fields (identity, defaults) back into the returned entity.
	Create(ctx context.Context, entity *T) (*T, error)

	// Update applies the changeset to the row with the given identity and
	// returns the updated entity.
	Update(ctx context.Context, id interface{}, changes *types.Changeset) (*T, error)

	// Patch is Update with nil-valued assignments dropped first, so sparse
	// input never nulls unspecified fields.
	Patch(ctx context.Context, id interface{}, changes *types.Changeset) (*T, error)

	// Delete removes the row with the given identity.
	Delete(ctx context.Context, id interface{}) error
}

// Pager defines page-oriented reads.
type Pager[T any] interface {
	GetPaginated(ctx context.Context, req *types.PageRequest) (*types.PaginatedResult[T], error)
}

// TxControl exposes transaction control of the bound unit of work.
type TxControl[T any] interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	// Refresh reloads the entity's state from storage by primary key.
	Refresh(ctx context.Context, entity *T) (*T, error)
}

// Repository combines reads, writes, pagination, and transaction control
// for one entity type over one unit of work.
type Repository[T any] interface {
	Reader[T]
	Writer[T]
	Pager[T]
	TxControl[T]
}
