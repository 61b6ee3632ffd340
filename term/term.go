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

// Package term implements the SMT constraint-term algebra used to encode
// relational algebra operators into an SMT-LIB v2 query: the uninterpreted
// functions cell/null/grouping/deleted/choice, boolean and arithmetic
// connectives over them, and a printer that renders a term tree as SMT-LIB
// v2 syntax.
package term

import "fmt"

// Sort is the SMT-LIB sort a Term evaluates to.
type Sort int

const (
	SortBool Sort = iota
	SortInt
)

func (s Sort) String() string {
	if s == SortBool {
		return "Bool"
	}
	return "Int"
}

// Term is any node of the constraint algebra. Implementations are the
// closed set of structs in this file; Printer switches over them
// exhaustively rather than using double dispatch, since Go has no
// duck-typed visit_<ClassName> lookup to emulate.
type Term interface {
	ReturnType() Sort
}

// Cell references the value of a (table, row, column) triple. It is only
// meaningful when the corresponding Null term is false.
type Cell struct {
	TableID, RowID, ColumnID int
}

func (Cell) ReturnType() Sort { return SortInt }

// Null is true when the referenced cell holds SQL NULL.
type Null struct {
	TableID, RowID, ColumnID int
}

func (Null) ReturnType() Sort { return SortBool }

// Grouping is true when row RowID of table TableID belongs to group
// GroupID. Every non-deleted row belongs to exactly one group.
type Grouping struct {
	TableID, RowID, GroupID int
}

func (Grouping) ReturnType() Sort { return SortBool }

// Deleted is true when row RowID of table TableID is absent from the
// table's output under the current (under-)approximation.
type Deleted struct {
	TableID, RowID int
}

func (Deleted) ReturnType() Sort { return SortBool }

// BelongsToGroup is a disambiguation predicate: true when query QID's
// result belongs to equivalence group GID. Used only by Disambiguate.
type BelongsToGroup struct {
	QID, GID int
}

func (BelongsToGroup) ReturnType() Sort { return SortBool }

// Choice is the per-operator discrete decision variable (0, 1, or left
// free as "top") that selects which input rows/pairs feed an operator's
// BitID-th output position.
type Choice struct {
	TableID, BitID int
}

func (Choice) ReturnType() Sort { return SortInt }

// And/Or are variadic to match the original encoder's habit of building
// flat conjunctions rather than right-nested binary trees.
type And struct{ Conjuncts []Term }

func (And) ReturnType() Sort { return SortBool }

type Or struct{ Disjuncts []Term }

func (Or) ReturnType() Sort { return SortBool }

type Xor struct{ A, B Term }

func (Xor) ReturnType() Sort { return SortBool }

type Not struct{ X Term }

func (Not) ReturnType() Sort { return SortBool }

type Implies struct{ Premise, Conclusion Term }

func (Implies) ReturnType() Sort { return SortBool }

// Ite is SMT-LIB's `ite`; B and C must share a return type, which becomes
// Ite's own.
type Ite struct{ Cond, Then, Else Term }

func (i Ite) ReturnType() Sort { return i.Then.ReturnType() }

type cmp struct{ A, B Term }

func (cmp) ReturnType() Sort { return SortBool }

type Gte struct{ cmp }
type Gt struct{ cmp }
type Lte struct{ cmp }
type Lt struct{ cmp }
type Eq struct{ cmp }
type Neq struct{ cmp }

func NewGte(a, b Term) Gte { return Gte{cmp{a, b}} }
func NewGt(a, b Term) Gt   { return Gt{cmp{a, b}} }
func NewLte(a, b Term) Lte { return Lte{cmp{a, b}} }
func NewLt(a, b Term) Lt   { return Lt{cmp{a, b}} }
func NewEq(a, b Term) Eq   { return Eq{cmp{a, b}} }
func NewNeq(a, b Term) Neq { return Neq{cmp{a, b}} }

type Plus struct{ A, B Term }

func (Plus) ReturnType() Sort { return SortInt }

type Minus struct{ A, B Term }

func (Minus) ReturnType() Sort { return SortInt }

type Mul struct{ A, B Term }

func (Mul) ReturnType() Sort { return SortInt }

type Div struct{ A, B Term }

func (Div) ReturnType() Sort { return SortInt }

type Neg struct{ X Term }

func (Neg) ReturnType() Sort { return SortInt }

// IntLit and BoolLit are literal constants.
type IntLit struct{ Value int64 }

func (IntLit) ReturnType() Sort { return SortInt }

type BoolLit struct{ Value bool }

func (BoolLit) ReturnType() Sort { return SortBool }

// String renders a term for debug logging, not for the solver; Printer
// produces the SMT-LIB v2 form actually sent over the wire.
func (c Cell) String() string { return fmt.Sprintf("cell(%d,%d,%d)", c.TableID, c.RowID, c.ColumnID) }
func (n Null) String() string { return fmt.Sprintf("null(%d,%d,%d)", n.TableID, n.RowID, n.ColumnID) }
func (g Grouping) String() string {
	return fmt.Sprintf("grouping(%d,%d,%d)", g.TableID, g.RowID, g.GroupID)
}
func (d Deleted) String() string { return fmt.Sprintf("deleted(%d,%d)", d.TableID, d.RowID) }
func (c Choice) String() string  { return fmt.Sprintf("choice(%d,%d)", c.TableID, c.BitID) }
