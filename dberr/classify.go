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

package dberr

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// SQLState is the classification of a raw driver error. MySQL errors are
// recognized by driver error number; Postgres and SQLite by SQLSTATE codes
// and message text, since their errors arrive through database/sql as
// opaque strings.
type SQLState int

const (
	StateUnknown SQLState = iota
	StateNoRows
	StateDuplicateKey
	StateNotNullViolation
	StateForeignKeyViolation
	StateCheckViolation
	StateDataTruncated
	StateNoTable
	StateNoColumn
	StateTypeMismatch
)

// Classify reports whether err originated in the storage driver and, if so,
// which SQLState it maps to.
func Classify(err error) (bool, SQLState) {
	if err == nil {
		return false, StateUnknown
	}
	if errors.Is(err, sql.ErrNoRows) {
		return true, StateNoRows
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case 1062:
			return true, StateDuplicateKey
		case 1048:
			return true, StateNotNullViolation
		case 1216, 1217, 1451, 1452:
			return true, StateForeignKeyViolation
		case 3819:
			return true, StateCheckViolation
		case 1265, 1406:
			return true, StateDataTruncated
		case 1146:
			return true, StateNoTable
		case 1054:
			return true, StateNoColumn
		default:
			return true, StateUnknown
		}
	}

	s := strings.ToLower(err.Error())
	switch {
	case strings.Contains(s, "sqlstate 23505"),
		strings.Contains(s, "duplicate key value"),
		strings.Contains(s, "unique constraint failed"):
		return true, StateDuplicateKey
	case strings.Contains(s, "sqlstate 23502"),
		strings.Contains(s, "not-null constraint"),
		strings.Contains(s, "null value in column"),
		strings.Contains(s, "not null constraint failed"):
		return true, StateNotNullViolation
	case strings.Contains(s, "sqlstate 23503"),
		strings.Contains(s, "foreign key violation"),
		strings.Contains(s, "violates foreign key constraint"),
		strings.Contains(s, "foreign key constraint failed"):
		return true, StateForeignKeyViolation
	case strings.Contains(s, "sqlstate 23514"),
		strings.Contains(s, "check constraint"):
		return true, StateCheckViolation
	case strings.Contains(s, "sqlstate 22001"),
		strings.Contains(s, "string data right truncation"),
		strings.Contains(s, "data truncated"):
		return true, StateDataTruncated
	case strings.Contains(s, "sqlstate 42p01"),
		strings.Contains(s, "undefined table"),
		strings.Contains(s, "no such table"):
		return true, StateNoTable
	case strings.Contains(s, "sqlstate 42703"),
		strings.Contains(s, "undefined column"),
		strings.Contains(s, "no such column"):
		return true, StateNoColumn
	case strings.Contains(s, "sqlstate 42804"),
		strings.Contains(s, "datatype mismatch"):
		return true, StateTypeMismatch
	}
	return false, StateUnknown
}

// IsConstraintViolation reports whether err is an integrity-constraint
// failure that is the caller's fault.
func IsConstraintViolation(err error) bool {
	ok, state := Classify(err)
	if !ok {
		return false
	}
	switch state {
	case StateDuplicateKey, StateNotNullViolation, StateForeignKeyViolation,
		StateCheckViolation, StateDataTruncated:
		return true
	}
	return false
}

// IsNoRows reports whether err means "no matching row".
func IsNoRows(err error) bool {
	ok, state := Classify(err)
	return ok && state == StateNoRows
}

// IsStorageError reports whether err is a recognized storage-engine error
// that is not a taxonomy error. The boundary translator uses this to pick
// the "internal database error" response tier.
func IsStorageError(err error) bool {
	if _, ok := As(err); ok {
		return false
	}
	ok, _ := Classify(err)
	return ok
}
