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

// GroupEncoder evaluates a SELECT-list or HAVING expression in the
// context of one GROUP BY group rather than one row: a bare column
// reference folds over every input row, picking the value from whatever
// row has grouping(input, row, GroupIdx) set, and aggregate functions
// fold over the group's member rows (guarded by grouping, not Deleted).
// It is the "group encoder" flavor of C4, grounded in
// group_expression_encoder.py's GroupExpressionEncoder.
type GroupEncoder struct {
	// Input is the pre-grouping table whose rows are folded over.
	Input *schema.TableSchema
	// GroupTableID names the GROUP BY operator's own output, used to
	// address the grouping(GroupTableID, row, group) relation.
	GroupTableID int
	GroupIdx     int
	Ctx          Context

	ProjectedList []ast.Expr
	OuterTupleIdx int
	OuterTable    *schema.TableSchema

	subqueries map[*ast.Query]*schema.TableSchema
}

// NewGroupEncoder returns an encoder folding over input's rows for the
// group-by operator identified by groupTableID.
func NewGroupEncoder(input *schema.TableSchema, groupTableID int, ctx Context) *GroupEncoder {
	outerTable, outerTupleIdx := ctx.OuterContext()
	return &GroupEncoder{
		Input: input, GroupTableID: groupTableID, Ctx: ctx,
		OuterTable: outerTable, OuterTupleIdx: outerTupleIdx,
		subqueries: map[*ast.Query]*schema.TableSchema{},
	}
}

// ForGroup evaluates e for group idx.
func (g *GroupEncoder) ForGroup(e ast.Expr, idx int) (Pair, error) {
	g.GroupIdx = idx
	p, err := g.Eval(e)
	if err != nil {
		return Pair{}, err
	}
	return ensureIntPair(p), nil
}

func (g *GroupEncoder) inGroup(row int) term.Term {
	return term.Grouping{TableID: g.GroupTableID, RowID: row, GroupID: g.GroupIdx}
}

func (g *GroupEncoder) Eval(e ast.Expr) (Pair, error) {
	switch n := e.(type) {
	case ast.Literal:
		return g.evalLiteral(n)
	case ast.Attribute:
		return g.evalAttribute(n)
	case ast.BinOp:
		return evalBinOp(g.Eval, n)
	case ast.UnOp:
		return evalUnOp(g.Eval, n)
	case ast.IsNull:
		return evalIsNull(g.Eval, g.subqueryTable, n)
	case ast.InExpr:
		return g.evalIn(n)
	case ast.Between:
		return evalBetween(g.Eval, n)
	case ast.Like:
		return g.evalLike(n)
	case ast.CaseWhen:
		return evalCaseWhen(g.Eval, n)
	case ast.Coalesce:
		return evalCoalesce(g.Eval, n)
	case ast.FuncCall:
		return g.evalFuncCall(n)
	case ast.IfExpr:
		return evalIf(g.Eval, n)
	case ast.Subquery:
		return g.evalSubquery(n)
	default:
		return Pair{}, ErrUnsupported.New(e)
	}
}

func (g *GroupEncoder) evalLiteral(n ast.Literal) (Pair, error) {
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
		return Pair{term.IntLit{Value: g.Ctx.StringHash(v)}, term.BoolLit{Value: false}}, nil
	case time.Time:
		return Pair{term.IntLit{Value: schema.EncodeDate(v.Date())}, term.BoolLit{Value: false}}, nil
	default:
		return Pair{}, ErrUnsupported.New(n)
	}
}

// evalAttribute folds a plain column reference over every input row,
// taking the value from the lowest-indexed input row that belongs to
// group g.GroupIdx (every member row has grouping set, and the fold
// runs from the last row down so row 0 is tested first). For a GROUP
// BY column every member row agrees on the value; a group with no
// member row yields NULL.
func (g *GroupEncoder) evalAttribute(n ast.Attribute) (Pair, error) {
	col, err := g.Input.Find(n.Name)
	if err == nil {
		val := term.Term(term.IntLit{Value: 0})
		null := term.Term(term.BoolLit{Value: true})
		for row := g.Input.Bound - 1; row >= 0; row-- {
			in := g.inGroup(row)
			val = term.Ite{Cond: in, Then: g.Ctx.Cell(g.Input.TableID, row, col.ColumnID), Else: val}
			null = term.Ite{Cond: in, Then: g.Ctx.Null(g.Input.TableID, row, col.ColumnID), Else: null}
		}
		return Pair{val, null}, nil
	}

	for _, target := range g.ProjectedList {
		if alias, ok := aliasOf(target); ok && alias == n.Name {
			return g.Eval(target)
		}
	}

	if g.OuterTupleIdx < 0 || g.OuterTable == nil {
		return Pair{}, err
	}
	outerCol, oerr := g.OuterTable.Find(n.Name)
	if oerr != nil {
		return Pair{}, err
	}
	return Pair{g.Ctx.Cell(g.OuterTable.TableID, g.OuterTupleIdx, outerCol.ColumnID), g.Ctx.Null(g.OuterTable.TableID, g.OuterTupleIdx, outerCol.ColumnID)}, nil
}

func (g *GroupEncoder) evalIn(n ast.InExpr) (Pair, error) {
	if n.Sub == nil {
		return evalInList(g.Eval, n)
	}
	t, err := g.subqueryTable(n.Sub)
	if err != nil {
		return Pair{}, err
	}
	lhs, err := evalArgs(g.Eval, n.Left)
	if err != nil {
		return Pair{}, err
	}
	return evalInSubquery(g.Ctx, t, lhs, n.Not), nil
}

func (g *GroupEncoder) evalLike(n ast.Like) (Pair, error) {
	v, err := g.Eval(n.Arg)
	if err != nil {
		return Pair{}, err
	}
	match := term.NewEq(v.Val, term.IntLit{Value: 1})
	if n.Not {
		match = term.Not{X: match}
	}
	return Pair{match, v.Null}, nil
}

func (g *GroupEncoder) evalSubquery(n ast.Subquery) (Pair, error) {
	sub, err := g.subqueryTable(n.Query)
	if err != nil {
		return Pair{}, err
	}
	return Pair{g.Ctx.Cell(sub.TableID, 0, 0), g.Ctx.Null(sub.TableID, 0, 0)}, nil
}

func (g *GroupEncoder) subqueryTable(q *ast.Query) (*schema.TableSchema, error) {
	if t, ok := g.subqueries[q]; ok {
		return t, nil
	}
	outerTableID := g.GroupTableID
	if g.OuterTable != nil {
		outerTableID = g.OuterTable.TableID
	}
	t, err := g.Ctx.EncodeSubquery(q, outerTableID, g.GroupIdx)
	if err != nil {
		return nil, err
	}
	g.subqueries[q] = t
	return t, nil
}

// groupAggRow is one input row's (value, null, in-group) triple, the
// group-fold counterpart of aggRow which instead guards on Deleted.
type groupAggRow struct {
	Val, Null, InGroup term.Term
}

func (g *GroupEncoder) evalFuncCall(n ast.FuncCall) (Pair, error) {
	switch n.Name {
	case "abs":
		p, err := g.Eval(n.Args[0])
		if err != nil {
			return Pair{}, err
		}
		return Pair{aggAbs(p.Val), p.Null}, nil

	case "ifnull":
		ifP, err := g.Eval(n.Args[0])
		if err != nil {
			return Pair{}, err
		}
		defP, err := g.Eval(n.Args[1])
		if err != nil {
			return Pair{}, err
		}
		// The group-fold original returns the default's null flag alone
		// here rather than And(if_null, default_null); kept faithfully.
		return Pair{
			term.Ite{Cond: term.Not{X: ifP.Null}, Then: ifP.Val, Else: defP.Val},
			defP.Null,
		}, nil

	case "round":
		return g.Eval(n.Args[0])

	case "min", "max", "count", "sum", "avg":
		return g.evalAggregate(n)

	case "coalesce":
		return evalCoalesce(g.Eval, ast.Coalesce{Args: n.Args, Alias: n.Alias})

	case "str_to_date", "cast", "any_value":
		return g.Eval(n.Args[0])

	case "concat", "trim", "ltrim", "rtrim":
		return g.Eval(n.Args[0])

	default:
		return Pair{}, ErrUnsupported.New(n)
	}
}

// evalAggregate mirrors RowEncoder.evalAggregate but guards each row by
// grouping(GroupTableID, row, GroupIdx) instead of Not(Deleted), per
// GroupMax/GroupMin/GroupCount/... in the original.
func (g *GroupEncoder) evalAggregate(n ast.FuncCall) (Pair, error) {
	if n.Name == "count" && !n.Distinct {
		if attr, ok := n.Args[0].(ast.Attribute); ok && attr.Name == "*" {
			terms := make([]term.Term, g.Input.Bound)
			for i := 0; i < g.Input.Bound; i++ {
				terms[i] = g.inGroup(i)
			}
			return Pair{term.Sum(boolToIntTerms(terms)), term.BoolLit{Value: false}}, nil
		}
	}

	argExpr := n.Args[0]
	sub := &GroupEncoder{
		Input: g.Input, GroupTableID: g.GroupTableID, GroupIdx: g.GroupIdx, Ctx: g.Ctx,
		OuterTable: g.OuterTable, OuterTupleIdx: g.OuterTupleIdx, ProjectedList: g.ProjectedList,
		subqueries: g.subqueries,
	}

	rows := make([]aggRow, g.Input.Bound)
	for i := 0; i < g.Input.Bound; i++ {
		p, err := sub.ForGroupRow(argExpr, i)
		if err != nil {
			return Pair{}, err
		}
		rows[i] = aggRow{p.Val, p.Null, term.Not{X: g.inGroup(i)}}
	}

	switch n.Name {
	case "max":
		return aggMax(rows), nil
	case "min":
		return aggMin(rows), nil
	case "count":
		if n.Distinct {
			return aggCountDistinct(rows), nil
		}
		return aggCount(rows), nil
	case "sum":
		if n.Distinct {
			return aggSumDistinct(rows), nil
		}
		return aggSum(rows), nil
	case "avg":
		if n.Distinct {
			return aggAvgDistinct(rows), nil
		}
		return aggAvg(rows), nil
	default:
		return Pair{}, ErrUnsupported.New(n)
	}
}

// ForGroupRow evaluates e as if the current row under consideration
// (rather than the group's grouping-chosen representative) were row
// idx; aggregate arguments are per-row expressions evaluated once per
// candidate member, unlike a bare column reference which must fold
// over the whole group.
func (g *GroupEncoder) ForGroupRow(e ast.Expr, idx int) (Pair, error) {
	r := NewRowEncoder(g.Input, g.Ctx)
	r.OuterTable, r.OuterTupleIdx = g.OuterTable, g.OuterTupleIdx
	r.ProjectedList = g.ProjectedList
	return r.ForTuple(e, idx)
}

func boolToIntTerms(bs []term.Term) []term.Term {
	out := make([]term.Term, len(bs))
	for i, b := range bs {
		out[i] = term.Ite{Cond: b, Then: term.IntLit{Value: 1}, Else: term.IntLit{Value: 0}}
	}
	return out
}
