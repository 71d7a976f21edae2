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

import (
	"fmt"
	"sort"
	"strings"
)

// Condition is a single boolean predicate over entity columns, expressed as
// a placeholder expression plus its bind arguments, e.g. "age > ?" with 18.
// A slice of conditions is always combined with AND.
type Condition struct {
	Expr string
	Args []interface{}
}

// NewCondition creates a condition from a placeholder expression and args.
func NewCondition(expr string, args ...interface{}) *Condition {
	return &Condition{Expr: expr, Args: args}
}

// Eq builds equality conditions from attribute=value pairs. Attributes are
// sorted so the generated SQL is deterministic.
func Eq(attrs map[string]interface{}) []*Condition {
	if len(attrs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	conditions := make([]*Condition, 0, len(keys))
	for _, k := range keys {
		conditions = append(conditions, NewCondition(k+" = ?", attrs[k]))
	}
	return conditions
}

// DescribeAttrs renders attribute=value pairs as "k1=v1, k2=v2" in sorted
// key order, used to build not-found messages from a filter set.
func DescribeAttrs(attrs map[string]interface{}) string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, attrs[k]))
	}
	return strings.Join(parts, ", ")
}

// Order references a column and a direction for result sequencing.
type Order struct {
	Column string
	Desc   bool
}

// Asc orders by the given column ascending.
func Asc(column string) Order { return Order{Column: column} }

// Desc orders by the given column descending.
func Desc(column string) Order { return Order{Column: column, Desc: true} }

// String renders the order as a SQL order expression.
func (o Order) String() string {
	if o.Desc {
		return o.Column + " DESC"
	}
	return o.Column + " ASC"
}

// OrderStrings converts orders into SQL order expressions.
func OrderStrings(orders []Order) []string {
	out := make([]string, len(orders))
	for i, o := range orders {
		out[i] = o.String()
	}
	return out
}
