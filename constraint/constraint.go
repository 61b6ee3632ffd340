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

// Package constraint implements C6: translating a schema's declared
// integrity constraints into SMT assertions over the base tables. The
// constraint DSL text itself is an external collaborator's concern (the
// parser is out of scope); this package only consumes the already
// decoded Constraint values, the way encode_integrity_constraints
// consumes already-parsed constraint dicts.
package constraint

// Constraint is the closed sum type of integrity-constraint kinds this
// package knows how to encode: Unique, ForeignKey, NotNull, Domain,
// Enum, Cmp, Inclusion.
type Constraint interface {
	constraintNode()
}

// Unique asserts pairwise distinctness of Columns across every pair of
// non-deleted rows of their owning table. Primary additionally asserts
// not-null on each column, mirroring the original's shared 'primary' |
// 'distinct' case.
type Unique struct {
	// Columns are qualified "Table.column" references; all columns must
	// belong to the same table.
	Columns []string
	Primary bool
}

func (Unique) constraintNode() {}

// ForeignKey asserts that every non-deleted row of Child is either null
// on its referencing column or matches some non-deleted, non-null row of
// Parent, and that Parent is non-empty whenever Child is.
type ForeignKey struct {
	Child  string // "Table.column"
	Parent string // "Table.column"
}

func (ForeignKey) constraintNode() {}

// NotNull asserts Column is never null on a non-deleted row.
type NotNull struct {
	Column string
}

func (NotNull) constraintNode() {}

// Domain asserts Column's value lies within [Lo, Hi] on every non-deleted
// row.
type Domain struct {
	Column string
	Lo, Hi int64
}

func (Domain) constraintNode() {}

// Enum asserts Column's value is one of Values (string members are
// interned via the environment's string hash) on every non-deleted row.
type Enum struct {
	Column string
	Values []any
}

func (Enum) constraintNode() {}

// CmpOp is a scalar comparison operator, mirroring the original's
// cmp_op_map (equality is handled separately by ForeignKey/Unique).
type CmpOp int

const (
	Gt CmpOp = iota
	Gte
	Lt
	Lte
	Neq
)

// Cmp asserts Left Op Right on every non-deleted row of Left's table.
// Right is either a qualified "Table.column" reference naming a column
// of the same table as Left, or a literal int64 (dates are pre-encoded
// as days since 1000-01-01 by the caller, matching the original's
// datetime.date handling).
type Cmp struct {
	Op    CmpOp
	Left  string
	Right any // string "Table.column" or int64 literal
}

func (Cmp) constraintNode() {}

// Inclusion asserts that at least one non-deleted row of Column's table
// has Column equal to one of Values.
type Inclusion struct {
	Column string
	Values []any
}

func (Inclusion) constraintNode() {}
