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

// Package ast defines the query AST this module's encoders consume. It
// is produced by the SQL-text parser, an external collaborator this
// module does not implement (spec's Non-goals); tests build Query values
// directly, the way the reference implementation's own test suite does.
package ast

// Expr is the closed sum type of scalar expressions: Attribute, Literal,
// BinOp, UnOp, IsNull, InExpr, Between, Like, CaseWhen, Coalesce,
// FuncCall, IfExpr, Subquery. Encoders switch on concrete type
// exhaustively; there is no accept/visit double dispatch since Go has no
// duck-typed method-name lookup to emulate.
type Expr interface {
	exprNode()
}

// Attribute references a column, optionally qualified ("t.c" encoded as
// Name == "t.c").
type Attribute struct {
	Name  string
	Alias string
}

func (Attribute) exprNode() {}

// Literal is a constant value: int64, float64, string, bool, or nil
// (SQL NULL).
type Literal struct {
	Value any
	Alias string
}

func (Literal) exprNode() {}

// BinOp covers the two-argument operators with direct SMT-LIB
// counterparts: add, sub, mul, div, gt, gte, lt, lte, eq, neq, and, or.
// "and"/"or" may carry more than two Args (the original's Expression
// builds flat N-ary and/or the same way).
type BinOp struct {
	Op   string
	Args []Expr
}

func (BinOp) exprNode() {}

// UnOp covers neg and not.
type UnOp struct {
	Op  string
	Arg Expr
}

func (UnOp) exprNode() {}

// IsNull covers "IS NULL" / "IS NOT NULL", also used for EXISTS/NOT
// EXISTS (missing/exists in the original) when Arg is a Subquery.
type IsNull struct {
	Arg Expr
	Not bool
}

func (IsNull) exprNode() {}

// InExpr covers IN / NOT IN against either a literal list or a
// subquery. Left supports the row-value form "(a,b) IN (...)" as well
// as the common single-column form.
type InExpr struct {
	Left []Expr
	List []Expr
	Sub  *Query
	Not  bool
}

func (InExpr) exprNode() {}

// Between covers BETWEEN / NOT BETWEEN.
type Between struct {
	Arg, Lo, Hi Expr
	Not         bool
}

func (Between) exprNode() {}

// Like covers LIKE / NOT LIKE; under-approximated per the operator
// encoder (§4.10 of the governing design).
type Like struct {
	Arg, Pattern Expr
	Not          bool
}

func (Like) exprNode() {}

// CaseBranch is one WHEN/THEN arm of a CaseWhen.
type CaseBranch struct {
	When, Then Expr
}

// CaseWhen evaluates branches in order; the first branch whose guard is
// true-and-not-null wins, else Default (or NULL).
type CaseWhen struct {
	Cases   []CaseBranch
	Default Expr
	Alias   string
}

func (CaseWhen) exprNode() {}

// Coalesce returns the first non-null argument, left to right.
type Coalesce struct {
	Args  []Expr
	Alias string
}

func (Coalesce) exprNode() {}

// FuncCall covers aggregates (min/max/sum/avg/count), date/time
// functions, and the conservative scalar passthroughs named in
// SPEC_FULL.md (IFNULL, ROUND, ABS, POWER, CONCAT, TRIM, LTRIM, RTRIM,
// ANY_VALUE, EXTRACT, CAST, STR_TO_DATE, TIMESTAMP).
type FuncCall struct {
	Name     string
	Args     []Expr
	Distinct bool
	Alias    string
}

func (FuncCall) exprNode() {}

// IfExpr is the three-argument IF(cond, then, else) function.
type IfExpr struct {
	Cond, Then, Else Expr
}

func (IfExpr) exprNode() {}

// Subquery wraps a scalar (single-column, single-row) correlated or
// uncorrelated sub-SELECT used in a scalar expression position.
type Subquery struct {
	Query *Query
}

func (Subquery) exprNode() {}

// IsAggregate reports whether name is one of the fold-over-rows
// aggregates the group expression encoder must special-case.
func IsAggregate(name string) bool {
	switch name {
	case "min", "max", "sum", "avg", "count":
		return true
	default:
		return false
	}
}
