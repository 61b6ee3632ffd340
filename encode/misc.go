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
	"github.com/dolthub/go-sqleq/ast"
	"github.com/dolthub/go-sqleq/schema"
	"github.com/dolthub/go-sqleq/term"
)

// emptyTableTerms returns the "is the subquery's result set empty" and
// "is it non-empty" formulas shared by IS NULL and NOT IN's special
// case over an all-deleted right-hand side.
func emptyTableTerms(t *schema.TableSchema) (empty, nonEmpty []term.Term) {
	empty = make([]term.Term, t.Bound)
	nonEmpty = make([]term.Term, t.Bound)
	for i := 0; i < t.Bound; i++ {
		empty[i] = term.Deleted{TableID: t.TableID, RowID: i}
		nonEmpty[i] = term.Not{X: term.Deleted{TableID: t.TableID, RowID: i}}
	}
	return empty, nonEmpty
}

func evalIsNullSubquery(t *schema.TableSchema, not bool) Pair {
	empty, nonEmpty := emptyTableTerms(t)
	if not {
		return Pair{term.OrAll(nonEmpty), term.BoolLit{Value: false}}
	}
	return Pair{term.AndAll(empty), term.BoolLit{Value: false}}
}

func evalIsNull(eval evalFn, subTable func(*ast.Query) (*schema.TableSchema, error), n ast.IsNull) (Pair, error) {
	if sub, ok := n.Arg.(ast.Subquery); ok {
		t, err := subTable(sub.Query)
		if err != nil {
			return Pair{}, err
		}
		return evalIsNullSubquery(t, n.Not), nil
	}
	p, err := eval(n.Arg)
	if err != nil {
		return Pair{}, err
	}
	if n.Not {
		return Pair{term.Not{X: p.Null}, term.BoolLit{Value: false}}, nil
	}
	return Pair{p.Null, term.BoolLit{Value: false}}, nil
}

func evalBetween(eval evalFn, n ast.Between) (Pair, error) {
	v, err := eval(n.Arg)
	if err != nil {
		return Pair{}, err
	}
	lo, err := eval(n.Lo)
	if err != nil {
		return Pair{}, err
	}
	hi, err := eval(n.Hi)
	if err != nil {
		return Pair{}, err
	}

	inRange := term.AndAll([]term.Term{term.NewGte(v.Val, lo.Val), term.NewLte(v.Val, hi.Val)})
	null := term.OrAll([]term.Term{
		v.Null,
		term.AndAll([]term.Term{term.Not{X: v.Null}, lo.Null, term.Not{X: hi.Null}, term.Not{X: term.NewGt(v.Val, hi.Val)}}),
		term.AndAll([]term.Term{term.Not{X: v.Null}, term.Not{X: lo.Null}, hi.Null, term.Not{X: term.NewLt(v.Val, lo.Val)}}),
		term.AndAll([]term.Term{lo.Null, hi.Null}),
	})
	if n.Not {
		return Pair{term.Not{X: inRange}, null}, nil
	}
	return Pair{inRange, null}, nil
}

func evalInList(eval evalFn, n ast.InExpr) (Pair, error) {
	lhs, err := eval(n.Left[0])
	if err != nil {
		return Pair{}, err
	}
	rhs, err := evalArgs(eval, n.List)
	if err != nil {
		return Pair{}, err
	}

	matches := make([]term.Term, len(rhs))
	for i, p := range rhs {
		matches[i] = term.AndAll([]term.Term{term.Not{X: lhs.Null}, term.Not{X: p.Null}, term.NewEq(lhs.Val, p.Val)})
	}
	val := term.OrAll(matches)

	rhsAnyNull := make([]term.Term, len(rhs))
	for i, p := range rhs {
		rhsAnyNull[i] = p.Null
	}
	null := term.OrAll([]term.Term{
		lhs.Null,
		term.AndAll([]term.Term{term.Not{X: lhs.Null}, term.Not{X: val}, term.OrAll(rhsAnyNull)}),
	})

	if n.Not {
		return Pair{term.Not{X: val}, null}, nil
	}
	return Pair{val, null}, nil
}

// evalInSubquery implements IN/NOT IN against a materialized subquery
// table. ctx supplies raw cell/null access to the subquery's rows; lhs
// is the already-evaluated left-hand tuple.
func evalInSubquery(ctx Context, t *schema.TableSchema, lhs []Pair, not bool) Pair {
	if not {
		rowClauses := make([]term.Term, t.Bound)
		for row := 0; row < t.Bound; row++ {
			var colClauses []term.Term
			for col := range lhs {
				rv, rn := ctx.Cell(t.TableID, row, col), ctx.Null(t.TableID, row, col)
				colClauses = append(colClauses, term.AndAll([]term.Term{
					term.Not{X: term.OrAll([]term.Term{lhs[col].Null, rn})},
					term.NewNeq(lhs[col].Val, rv),
				}))
			}
			rowClauses[row] = term.Implies{
				Premise:    term.Not{X: term.Deleted{TableID: t.TableID, RowID: row}},
				Conclusion: term.OrAll(colClauses),
			}
		}
		empty, _ := emptyTableTerms(t)
		val := term.OrAll([]term.Term{term.AndAll(empty), term.AndAll(rowClauses)})
		return Pair{val, term.BoolLit{Value: false}}
	}

	rowClauses := make([]term.Term, t.Bound)
	for row := 0; row < t.Bound; row++ {
		clauses := []term.Term{term.Not{X: term.Deleted{TableID: t.TableID, RowID: row}}}
		for col := range lhs {
			rv, rn := ctx.Cell(t.TableID, row, col), ctx.Null(t.TableID, row, col)
			clauses = append(clauses, term.AndAll([]term.Term{
				term.AndAll([]term.Term{term.Not{X: lhs[col].Null}, term.Not{X: rn}}),
				term.NewEq(lhs[col].Val, rv),
			}))
		}
		rowClauses[row] = term.AndAll(clauses)
	}
	return Pair{term.OrAll(rowClauses), term.BoolLit{Value: false}}
}

func evalCaseWhen(eval evalFn, n ast.CaseWhen) (Pair, error) {
	var step func(i int) (Pair, error)
	step = func(i int) (Pair, error) {
		if i >= len(n.Cases) {
			if n.Default != nil {
				p, err := eval(n.Default)
				if err != nil {
					return Pair{}, err
				}
				return ensureIntPair(p), nil
			}
			return Pair{term.IntLit{Value: 0}, term.BoolLit{Value: true}}, nil
		}
		cond, err := eval(n.Cases[i].When)
		if err != nil {
			return Pair{}, err
		}
		condVal := term.EnsureBool(cond.Val)
		result, err := eval(n.Cases[i].Then)
		if err != nil {
			return Pair{}, err
		}
		result = ensureIntPair(result)
		next, err := step(i + 1)
		if err != nil {
			return Pair{}, err
		}
		guard := term.AndAll([]term.Term{term.Not{X: cond.Null}, condVal})
		return Pair{
			term.Ite{Cond: guard, Then: result.Val, Else: next.Val},
			term.Ite{Cond: guard, Then: result.Null, Else: next.Null},
		}, nil
	}
	return step(0)
}

func evalCoalesce(eval evalFn, n ast.Coalesce) (Pair, error) {
	var step func(i int) (Pair, error)
	step = func(i int) (Pair, error) {
		p, err := eval(n.Args[i])
		if err != nil {
			return Pair{}, err
		}
		if i >= len(n.Args)-1 {
			return p, nil
		}
		next, err := step(i + 1)
		if err != nil {
			return Pair{}, err
		}
		return Pair{
			term.Ite{Cond: term.Not{X: p.Null}, Then: p.Val, Else: next.Val},
			term.AndAll([]term.Term{p.Null, next.Null}),
		}, nil
	}
	return step(0)
}

func evalIf(eval evalFn, n ast.IfExpr) (Pair, error) {
	cond, err := eval(n.Cond)
	if err != nil {
		return Pair{}, err
	}
	then, err := eval(n.Then)
	if err != nil {
		return Pair{}, err
	}
	els, err := eval(n.Else)
	if err != nil {
		return Pair{}, err
	}
	guard := term.AndAll([]term.Term{term.Not{X: cond.Null}, term.EnsureBool(cond.Val)})
	return Pair{
		term.Ite{Cond: guard, Then: then.Val, Else: els.Val},
		term.Ite{Cond: guard, Then: then.Null, Else: els.Null},
	}, nil
}

func (r *RowEncoder) evalIsNull(n ast.IsNull) (Pair, error) {
	return evalIsNull(r.Eval, r.subqueryTable, n)
}

func (r *RowEncoder) evalBetween(n ast.Between) (Pair, error) { return evalBetween(r.Eval, n) }

func (r *RowEncoder) evalIn(n ast.InExpr) (Pair, error) {
	if n.Sub == nil {
		return r.evalInList(n)
	}
	return r.evalInSubquery(n)
}

func (r *RowEncoder) evalInList(n ast.InExpr) (Pair, error) { return evalInList(r.Eval, n) }

func (r *RowEncoder) evalInSubquery(n ast.InExpr) (Pair, error) {
	t, err := r.subqueryTable(n.Sub)
	if err != nil {
		return Pair{}, err
	}
	lhs, err := evalArgs(r.Eval, n.Left)
	if err != nil {
		return Pair{}, err
	}
	return evalInSubquery(r.Ctx, t, lhs, n.Not), nil
}

func (r *RowEncoder) evalLike(n ast.Like) (Pair, error) {
	return r.underApproximateLike(n)
}

func (r *RowEncoder) evalCaseWhen(n ast.CaseWhen) (Pair, error) { return evalCaseWhen(r.Eval, n) }
func (r *RowEncoder) evalCoalesce(n ast.Coalesce) (Pair, error) { return evalCoalesce(r.Eval, n) }
func (r *RowEncoder) evalIf(n ast.IfExpr) (Pair, error)         { return evalIf(r.Eval, n) }
