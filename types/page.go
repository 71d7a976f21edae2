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

package types

// PageRequest describes one page of a filtered, ordered query. Page and
// PerPage are stored as given; validating them (both must be >= 1) is the
// repository's job, so an invalid request fails before any storage I/O.
type PageRequest struct {
	page    int
	perPage int
	filters []*Condition
	orders  []Order
}

// NewPageRequest constructs a page request with filters and ordering.
func NewPageRequest(page, perPage int, filters []*Condition, orders []Order) *PageRequest {
	return &PageRequest{page: page, perPage: perPage, filters: filters, orders: orders}
}

// NewDefaultPageRequest constructs a page request with no filter or ordering.
func NewDefaultPageRequest(page, perPage int) *PageRequest {
	return NewPageRequest(page, perPage, nil, nil)
}

// NewPageRequestWithFilters constructs a page request with filters only.
func NewPageRequestWithFilters(page, perPage int, filters ...*Condition) *PageRequest {
	return NewPageRequest(page, perPage, filters, nil)
}

// NewPageRequestWithOrders constructs a page request with ordering only.
func NewPageRequestWithOrders(page, perPage int, orders ...Order) *PageRequest {
	return NewPageRequest(page, perPage, nil, orders)
}

func (p *PageRequest) Page() int { return p.page }

func (p *PageRequest) PerPage() int { return p.perPage }

// Offset is the row offset of the requested page.
func (p *PageRequest) Offset() int { return (p.page - 1) * p.perPage }

func (p *PageRequest) Filters() []*Condition { return p.filters }

func (p *PageRequest) Orders() []Order { return p.orders }

// PaginatedResult holds one page of items plus pagination metadata. It is
// assembled once per query and never mutated afterwards.
type PaginatedResult[T any] struct {
	Items   []*T `json:"items"`
	Total   int  `json:"total"`
	Page    int  `json:"page"`
	PerPage int  `json:"per_page"`
	HasNext bool `json:"has_next"`
	HasPrev bool `json:"has_prev"`
}

// NewPaginatedResult assembles a result page. HasNext and HasPrev are
// derived from page arithmetic against the total row count:
// HasNext = (page-1)*perPage + perPage < total, HasPrev = page > 1.
func NewPaginatedResult[T any](items []*T, total, page, perPage int) *PaginatedResult[T] {
	if items == nil {
		items = make([]*T, 0)
	}
	return &PaginatedResult[T]{
		Items:   items,
		Total:   total,
		Page:    page,
		PerPage: perPage,
		HasNext: (page-1)*perPage+perPage < total,
		HasPrev: page > 1,
	}
}
