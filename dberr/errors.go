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

// Package dberr defines the closed set of domain errors raised by the
// data-access layer, each carrying the HTTP status it suggests, plus the
// classification of raw driver errors into that set.
package dberr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind tags a domain error. The set is closed: callers dispatch on the tag,
// not on concrete error types.
type Kind int

const (
	// KindInternal is the catch-all for boundary-layer failures that match
	// none of the other kinds.
	KindInternal Kind = iota
	// KindNotFound means the requested entity or filter match does not exist.
	KindNotFound
	// KindValidation means the caller supplied input that failed validation
	// or violated an integrity constraint.
	KindValidation
	// KindOperationFailure means the storage engine failed for reasons not
	// attributable to caller input.
	KindOperationFailure
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindOperationFailure:
		return "operation_failure"
	default:
		return "internal"
	}
}

// Error is a domain error with response metadata. It is immutable once
// raised and carries enough context to build a client response without
// touching storage again.
type Error struct {
	Kind       Kind
	Message    string
	StatusCode int

	// Op names the repository operation that failed, e.g. "find entities".
	Op string
	// Err is the underlying storage error, if any. Never shown to clients.
	Err error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// NotFound reports that no entity of the given type has the given identity.
func NotFound(entity string, id interface{}) *Error {
	return &Error{
		Kind:       KindNotFound,
		Message:    fmt.Sprintf("%s with id %v not found", entity, id),
		StatusCode: http.StatusNotFound,
	}
}

// NotFoundWhere reports that no entity matched a filter set; desc describes
// the filters, e.g. "User with email=a@b.c".
func NotFoundWhere(desc string) *Error {
	return &Error{
		Kind:       KindNotFound,
		Message:    fmt.Sprintf("%s not found", desc),
		StatusCode: http.StatusNotFound,
	}
}

// Validation reports caller-fault input or integrity-constraint failure.
func Validation(detail string) *Error {
	return &Error{
		Kind:       KindValidation,
		Message:    detail,
		StatusCode: http.StatusUnprocessableEntity,
	}
}

// OperationFailure reports a storage-engine failure during the named
// operation.
func OperationFailure(op string, err error) *Error {
	detail := "Database operation failed"
	if err != nil {
		detail = err.Error()
	}
	return &Error{
		Kind:       KindOperationFailure,
		Message:    fmt.Sprintf("Failed to %s: %s", op, detail),
		StatusCode: http.StatusInternalServerError,
		Op:         op,
		Err:        err,
	}
}

// Internal wraps a boundary-layer error that fits no other kind.
func Internal(err error) *Error {
	return &Error{
		Kind:       KindInternal,
		Message:    "Internal error",
		StatusCode: http.StatusInternalServerError,
		Err:        err,
	}
}

// As extracts a taxonomy error from an error chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf reports the taxonomy kind of err, or KindInternal for errors
// raised outside the taxonomy.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindInternal
}
