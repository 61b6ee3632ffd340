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
)

// JoinEncoder evaluates a join condition against one (left row, right
// row) pair, resolving a bare column reference against whichever side
// owns it. Grounded in JoinPredicateEncoder.visit_Attribute: try the
// left table first, fall back to the right.
type JoinEncoder struct {
	Left, Right       *schema.TableSchema
	LeftIdx, RightIdx int
	Ctx               Context
	subqueries        map[*ast.Query]*schema.TableSchema
}

func NewJoinEncoder(left, right *schema.TableSchema, ctx Context) *JoinEncoder {
	return &JoinEncoder{Left: left, Right: right, Ctx: ctx, subqueries: map[*ast.Query]*schema.TableSchema{}}
}

// ForTuplePair evaluates cond for the (li, ri) row pair, returning an
// EnsureBool'd value term per predicate_for_tuple_pair.
func (j *JoinEncoder) ForTuplePair(cond ast.Expr, li, ri int) (Pair, error) {
	j.LeftIdx, j.RightIdx = li, ri
	p, err := j.Eval(cond)
	if err != nil {
		return Pair{}, err
	}
	return Pair{term.EnsureBool(p.Val), p.Null}, nil
}

func (j *JoinEncoder) Eval(e ast.Expr) (Pair, error) {
	switch n := e.(type) {
	case ast.Literal:
		return j.evalLiteral(n)
	case ast.Attribute:
		return j.evalAttribute(n)
	case ast.BinOp:
		return evalBinOp(j.Eval, n)
	case ast.UnOp:
		return evalUnOp(j.Eval, n)
	case ast.IsNull:
		return evalIsNull(j.Eval, j.subqueryTable, n)
	case ast.InExpr:
		return j.evalIn(n)
	case ast.Between:
		return evalBetween(j.Eval, n)
	case ast.CaseWhen:
		return evalCaseWhen(j.Eval, n)
	case ast.Coalesce:
		return evalCoalesce(j.Eval, n)
	case ast.IfExpr:
		return evalIf(j.Eval, n)
	case ast.Subquery:
		return j.evalSubquery(n)
	default:
		return Pair{}, ErrUnsupported.New(e)
	}
}

func (j *JoinEncoder) evalLiteral(n ast.Literal) (Pair, error) {
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
		return Pair{term.IntLit{Value: j.Ctx.StringHash(v)}, term.BoolLit{Value: false}}, nil
	case time.Time:
		return Pair{term.IntLit{Value: schema.EncodeDate(v.Date())}, term.BoolLit{Value: false}}, nil
	default:
		return Pair{}, ErrUnsupported.New(n)
	}
}

func (j *JoinEncoder) evalAttribute(n ast.Attribute) (Pair, error) {
	if col, err := j.Left.Find(n.Name); err == nil {
		return Pair{j.Ctx.Cell(j.Left.TableID, j.LeftIdx, col.ColumnID), j.Ctx.Null(j.Left.TableID, j.LeftIdx, col.ColumnID)}, nil
	}
	col, err := j.Right.Find(n.Name)
	if err != nil {
		return Pair{}, err
	}
	return Pair{j.Ctx.Cell(j.Right.TableID, j.RightIdx, col.ColumnID), j.Ctx.Null(j.Right.TableID, j.RightIdx, col.ColumnID)}, nil
}

func (j *JoinEncoder) evalIn(n ast.InExpr) (Pair, error) {
	if n.Sub == nil {
		return evalInList(j.Eval, n)
	}
	t, err := j.subqueryTable(n.Sub)
	if err != nil {
		return Pair{}, err
	}
	lhs, err := evalArgs(j.Eval, n.Left)
	if err != nil {
		return Pair{}, err
	}
	return evalInSubquery(j.Ctx, t, lhs, n.Not), nil
}

func (j *JoinEncoder) evalSubquery(n ast.Subquery) (Pair, error) {
	sub, err := j.subqueryTable(n.Query)
	if err != nil {
		return Pair{}, err
	}
	return Pair{j.Ctx.Cell(sub.TableID, 0, 0), j.Ctx.Null(sub.TableID, 0, 0)}, nil
}

func (j *JoinEncoder) subqueryTable(q *ast.Query) (*schema.TableSchema, error) {
	if t, ok := j.subqueries[q]; ok {
		return t, nil
	}
	// A join condition's correlated outer row is ambiguous between left
	// and right; a sub-query inside a join ON clause is correlated
	// against the current left row only, so right-side columns are not
	// visible to it as outer references.
	t, err := j.Ctx.EncodeSubquery(q, j.Left.TableID, j.LeftIdx)
	if err != nil {
		return nil, err
	}
	j.subqueries[q] = t
	return t, nil
}
