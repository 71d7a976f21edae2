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

// Changeset is an ordered set of column assignments handed to update and
// patch operations. Setting the same column twice keeps the last value but
// preserves the original position.
//
// An explicit nil value means "write NULL" for a full update; partial
// updates drop nil assignments via WithoutNil so unspecified fields are
// never accidentally nulled.
type Changeset struct {
	columns []string
	values  map[string]interface{}
}

// NewChangeset creates an empty changeset.
func NewChangeset() *Changeset {
	return &Changeset{values: make(map[string]interface{})}
}

// Set records a column assignment and returns the changeset for chaining.
func (c *Changeset) Set(column string, value interface{}) *Changeset {
	if _, ok := c.values[column]; !ok {
		c.columns = append(c.columns, column)
	}
	c.values[column] = value
	return c
}

// Columns returns the assigned columns in insertion order.
func (c *Changeset) Columns() []string {
	out := make([]string, len(c.columns))
	copy(out, c.columns)
	return out
}

// Value returns the assigned value for a column.
func (c *Changeset) Value(column string) (interface{}, bool) {
	v, ok := c.values[column]
	return v, ok
}

// Len reports the number of assignments.
func (c *Changeset) Len() int { return len(c.columns) }

// WithoutNil returns a copy with nil-valued assignments dropped.
func (c *Changeset) WithoutNil() *Changeset {
	out := NewChangeset()
	for _, column := range c.columns {
		if v := c.values[column]; v != nil {
			out.Set(column, v)
		}
	}
	return out
}
