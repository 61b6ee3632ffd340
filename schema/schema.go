// Copyright 2020-2021 Dolthub, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package schema models the symbolic database: tables, columns, the cell
// universe, and the table-id/row-bound bookkeeping every operator encoder
// consults to size its output.
package schema

import (
	"strings"

	"gopkg.in/src-d/go-errors.v1"
)

// ErrUnknownTable is returned when a lookup by name finds nothing in
// scope.
var ErrUnknownTable = errors.NewKind("table %q does not exist")

// ErrUnknownColumn is returned when a lookup by name finds nothing on the
// table.
var ErrUnknownColumn = errors.NewKind("attribute %q does not exist on T%d (%s)")

// Type is a column's declared SQL type, reduced to the handful of
// encodings the term algebra distinguishes between.
type Type int

const (
	TypeInt Type = iota
	TypeFloat
	TypeString
	TypeBool
	TypeDate
	TypeTime
	TypeDatetime
)

// ColumnSchema describes one column of a TableSchema.
type ColumnSchema struct {
	ColumnID         int
	ColumnName       string
	ColumnType       Type
	TableName        string
	NameBeforeProject string // set by Project when an expression is aliased
}

// Equal compares two columns the way the original's duck-typed equality
// does: by name, type and owning table, not by identity.
func (c ColumnSchema) Equal(o ColumnSchema) bool {
	return c.ColumnName == o.ColumnName && c.ColumnType == o.ColumnType && c.TableName == o.TableName
}

// TableSchema is one symbolic table: its columns, its row bound (the
// under-approximation's maximum row count), and the lineage tag operator
// encoders use to decide how to interpret their input.
type TableSchema struct {
	TableID   int
	TableName string
	Columns   []ColumnSchema
	Bound     int
	Ancestors []*TableSchema
	Lineage   string

	// GroupsConsidered caps the number of distinct group ids a
	// group-by-derived table's Grouping relation may use; nil for tables
	// with no grouping structure.
	GroupsConsidered []int

	// Scope is the query id the table is local to; zero means global
	// (a base table available to every query in an environment).
	Scope int
}

// Find resolves a column by "table.column" or bare "column" name, the
// same resolution order the original's lineage-aware `__getitem__` uses:
// an exact table+name match first, then a name-before-project match for
// references to a column that a preceding Project renamed.
func (t *TableSchema) Find(ref string) (ColumnSchema, error) {
	ref = strings.ToLower(ref)
	var tableQualifier, attr string
	if i := strings.IndexByte(ref, '.'); i >= 0 {
		tableQualifier, attr = ref[:i], ref[i+1:]
	} else {
		attr = ref
	}

	for _, c := range t.Columns {
		cTable := strings.ToLower(c.TableName)
		if (tableQualifier == "" || cTable == tableQualifier) && strings.EqualFold(c.ColumnName, attr) {
			return c, nil
		}
		if c.NameBeforeProject != "" && strings.EqualFold(c.NameBeforeProject, ref) {
			return c, nil
		}
	}
	return ColumnSchema{}, ErrUnknownColumn.New(ref, t.TableID, t.TableName)
}

// Len is the column count.
func (t *TableSchema) Len() int { return len(t.Columns) }

// Database tracks every TableSchema allocated during encoding plus the
// monotonically increasing table-id counter operators draw from.
type Database struct {
	Schemas     map[int]*TableSchema
	nextTableID int
	// CurrQueryID scopes table-name resolution to the query currently
	// being encoded, mirroring the original's `curr_query_id`.
	CurrQueryID int
}

// NewDatabase returns an empty Database.
func NewDatabase() *Database {
	return &Database{Schemas: make(map[int]*TableSchema)}
}

// NextTableID allocates and returns a fresh table id.
func (d *Database) NextTableID() int {
	id := d.nextTableID
	d.nextTableID++
	return id
}

// AddTable registers a TableSchema under its own TableID.
func (d *Database) AddTable(s *TableSchema) {
	d.Schemas[s.TableID] = s
}

// FindByName resolves a base-table name to its schema, honoring scoping:
// a table whose Scope is nonzero is only visible within that query.
func (d *Database) FindByName(name string, queryID int) (*TableSchema, error) {
	name = strings.ToLower(name)
	for _, s := range d.Schemas {
		if strings.ToLower(s.TableName) == name && (s.Scope == 0 || s.Scope == queryID) {
			return s, nil
		}
	}
	return nil, ErrUnknownTable.New(name)
}
