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

package encode

import (
	"time"

	"github.com/dolthub/go-sqleq/ast"
	"github.com/dolthub/go-sqleq/schema"
	"github.com/dolthub/go-sqleq/term"
	"gopkg.in/src-d/go-errors.v1"
)

// ErrUnsupported is raised for an expression shape this encoder does not
// implement; it bubbles to the orchestrator as an ERR verdict.
var ErrUnsupported = errors.NewKind("encode: unsupported expression %#v")

// Pair is a (value, null) term pair, the unit every expression encodes
// to.
type Pair struct {
	Val, Null term.Term
}

func ensureIntPair(p Pair) Pair { return Pair{term.EnsureInt(p.Val), p.Null} }

// RowEncoder evaluates an expression against one fixed row of Table. It
// is the "row encoder" flavor of C4; GroupEncoder (group.go) is the
// "group encoder" flavor sharing this file's literal/attribute/function
// logic where it does not depend on a single fixed row.
type RowEncoder struct {
	Table *schema.TableSchema
	Ctx   Context

	// TupleIdx is the row currently being evaluated.
	TupleIdx int
	// OuterTupleIdx/OuterTable identify the enclosing row for a
	// correlated sub-query's attribute references; OuterTupleIdx is -1
	// when this encoder is not nested inside another row's evaluation.
	OuterTupleIdx int
	OuterTable    *schema.TableSchema

	// ProjectedList lets an expression reference a SELECT-list alias
	// (e.g. ORDER BY on a computed column name).
	ProjectedList []ast.Expr

	subqueries  map[*ast.Query]*schema.TableSchema
	likeCounter int
}

// NewRowEncoder returns an encoder over table whose correlation context
// (outer table and outer row index) is taken from ctx.OuterContext().
func NewRowEncoder(table *schema.TableSchema, ctx Context) *RowEncoder {
	outerTable, outerTupleIdx := ctx.OuterContext()
	return &RowEncoder{
		Table: table, Ctx: ctx,
		OuterTable: outerTable, OuterTupleIdx: outerTupleIdx,
		subqueries: map[*ast.Query]*schema.TableSchema{},
	}
}

// ForTuple evaluates e against row idx of r.Table, lifting the result to
// an Int-sorted value per the original's `expression_for_tuple`.
func (r *RowEncoder) ForTuple(e ast.Expr, idx int) (Pair, error) {
	r.TupleIdx = idx
	p, err := r.Eval(e)
	if err != nil {
		return Pair{}, err
	}
	return ensureIntPair(p), nil
}

// Eval dispatches e to its concrete-type handler. This is the exhaustive
// type switch that replaces the original's `accept(self)`/
// `visit_ClassName` double dispatch.
func (r *RowEncoder) Eval(e ast.Expr) (Pair, error) {
	switch n := e.(type) {
	case ast.Literal:
		return r.evalLiteral(n)
	case ast.Attribute:
		return r.evalAttribute(n)
	case ast.BinOp:
		return r.evalBinOp(n)
	case ast.UnOp:
		return r.evalUnOp(n)
	case ast.IsNull:
		return r.evalIsNull(n)
	case ast.InExpr:
		return r.evalIn(n)
	case ast.Between:
		return r.evalBetween(n)
	case ast.Like:
		return r.evalLike(n)
	case ast.CaseWhen:
		return r.evalCaseWhen(n)
	case ast.Coalesce:
		return r.evalCoalesce(n)
	case ast.FuncCall:
		return r.evalFuncCall(n)
	case ast.IfExpr:
		return r.evalIf(n)
	case ast.Subquery:
		return r.evalSubquery(n)
	default:
		return Pair{}, ErrUnsupported.New(e)
	}
}

func (r *RowEncoder) evalLiteral(n ast.Literal) (Pair, error) {
	switch v := n.Value.(type) {
	case nil:
		return Pair{term.IntLit{Value: 0}, term.BoolLit{Value: true}}, nil
	case bool:
		return Pair{term.BoolLit{Value: v}, term.BoolLit{Value: false}}, nil
	case int:
		return Pair{term.IntLit{Value: int64(v)}, term.BoolLit{Value: false}}, nil
	case int64:
		return Pair{term.IntLit{Value: v}, term.BoolLit{Value: false}}, nil
	case float64:
		return Pair{term.IntLit{Value: int64(v)}, term.BoolLit{Value: false}}, nil
	case string:
		return Pair{term.IntLit{Value: r.Ctx.StringHash(v)}, term.BoolLit{Value: false}}, nil
	case time.Time:
		days := schema.EncodeDate(v.Date())
		return Pair{term.IntLit{Value: days}, term.BoolLit{Value: false}}, nil
	default:
		return Pair{}, ErrUnsupported.New(n)
	}
}

func (r *RowEncoder) evalAttribute(n ast.Attribute) (Pair, error) {
	col, err := r.Table.Find(n.Name)
	if err == nil {
		return Pair{r.Ctx.Cell(r.Table.TableID, r.TupleIdx, col.ColumnID), r.Ctx.Null(r.Table.TableID, r.TupleIdx, col.ColumnID)}, nil
	}

	// Alias introduced by an enclosing Project (e.g. ORDER BY on a
	// computed SELECT-list column).
	for _, target := range r.ProjectedList {
		if alias, ok := aliasOf(target); ok && alias == n.Name {
			return r.Eval(target)
		}
	}

	// Correlated reference: resolve against the outer query's table.
	if r.OuterTupleIdx < 0 || r.OuterTable == nil {
		return Pair{}, err
	}
	outerCol, oerr := r.OuterTable.Find(n.Name)
	if oerr != nil {
		return Pair{}, err
	}
	return Pair{r.Ctx.Cell(r.OuterTable.TableID, r.OuterTupleIdx, outerCol.ColumnID), r.Ctx.Null(r.OuterTable.TableID, r.OuterTupleIdx, outerCol.ColumnID)}, nil
}

func aliasOf(e ast.Expr) (string, bool) {
	switch n := e.(type) {
	case ast.Attribute:
		return n.Alias, n.Alias != ""
	case ast.Literal:
		return n.Alias, n.Alias != ""
	case ast.CaseWhen:
		return n.Alias, n.Alias != ""
	case ast.Coalesce:
		return n.Alias, n.Alias != ""
	case ast.FuncCall:
		return n.Alias, n.Alias != ""
	}
	return "", false
}

func (r *RowEncoder) evalSubquery(n ast.Subquery) (Pair, error) {
	sub, err := r.subqueryTable(n.Query)
	if err != nil {
		return Pair{}, err
	}
	return Pair{r.Ctx.Cell(sub.TableID, 0, 0), r.Ctx.Null(sub.TableID, 0, 0)}, nil
}

func (r *RowEncoder) subqueryTable(q *ast.Query) (*schema.TableSchema, error) {
	if t, ok := r.subqueries[q]; ok {
		return t, nil
	}
	outerTableID := -1
	if r.OuterTable != nil {
		outerTableID = r.OuterTable.TableID
	} else {
		outerTableID = r.Table.TableID
	}
	outerTupleID := r.TupleIdx
	t, err := r.Ctx.EncodeSubquery(q, outerTableID, outerTupleID)
	if err != nil {
		return nil, err
	}
	r.subqueries[q] = t
	return t, nil
}
