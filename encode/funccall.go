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
	"github.com/dolthub/go-sqleq/term"
)

func (r *RowEncoder) evalFuncCall(n ast.FuncCall) (Pair, error) {
	switch n.Name {
	case "abs":
		p, err := r.Eval(n.Args[0])
		if err != nil {
			return Pair{}, err
		}
		return Pair{aggAbs(p.Val), p.Null}, nil

	case "ifnull":
		ifP, err := r.Eval(n.Args[0])
		if err != nil {
			return Pair{}, err
		}
		defP, err := r.Eval(n.Args[1])
		if err != nil {
			return Pair{}, err
		}
		return Pair{
			term.Ite{Cond: term.Not{X: ifP.Null}, Then: ifP.Val, Else: defP.Val},
			term.AndAll([]term.Term{ifP.Null, defP.Null}),
		}, nil

	case "round":
		return r.Eval(n.Args[0])

	case "min", "max", "count", "sum", "avg":
		return r.evalAggregate(n)

	case "coalesce":
		return r.evalCoalesce(ast.Coalesce{Args: n.Args, Alias: n.Alias})

	case "timestamp":
		d, err := r.Eval(n.Args[0])
		if err != nil {
			return Pair{}, err
		}
		t, err := r.Eval(n.Args[1])
		if err != nil {
			return Pair{}, err
		}
		return Pair{term.Plus{A: term.Mul{A: t.Val, B: term.IntLit{100000}}, B: d.Val}, term.OrAll([]term.Term{d.Null, t.Null})}, nil

	case "date_add", "adddate":
		return r.dateShift(n, +1)
	case "date_sub", "subdate":
		return r.dateShift(n, -1)

	case "datediff":
		d1, err := r.Eval(n.Args[0])
		if err != nil {
			return Pair{}, err
		}
		d2, err := r.Eval(n.Args[1])
		if err != nil {
			return Pair{}, err
		}
		return Pair{term.Minus{A: d1.Val, B: d2.Val}, term.OrAll([]term.Term{d1.Null, d2.Null})}, nil

	case "timestampdiff":
		d1, err := r.Eval(n.Args[1])
		if err != nil {
			return Pair{}, err
		}
		d2, err := r.Eval(n.Args[2])
		if err != nil {
			return Pair{}, err
		}
		return Pair{term.Minus{A: d2.Val, B: d1.Val}, term.OrAll([]term.Term{d1.Null, d2.Null})}, nil

	case "str_to_date", "cast", "any_value":
		return r.Eval(n.Args[0])

	case "interval":
		lit, _ := n.Args[0].(ast.Literal)
		v, _ := lit.Value.(int64)
		return Pair{term.IntLit{Value: v}, term.BoolLit{Value: false}}, nil

	case "power":
		base, okB := n.Args[0].(ast.Literal)
		exp, okE := n.Args[1].(ast.Literal)
		if !okB || !okE {
			return Pair{}, ErrUnsupported.New(n)
		}
		bi, _ := base.Value.(int64)
		ei, _ := exp.Value.(int64)
		result := int64(1)
		for i := int64(0); i < ei; i++ {
			result *= bi
		}
		return Pair{term.IntLit{Value: result}, term.BoolLit{Value: false}}, nil

	case "extract":
		return r.Eval(n.Args[1])

	case "concat", "trim", "ltrim", "rtrim":
		return r.Eval(n.Args[0])

	default:
		return Pair{}, ErrUnsupported.New(n)
	}
}

func (r *RowEncoder) dateShift(n ast.FuncCall, sign int64) (Pair, error) {
	d, err := r.Eval(n.Args[0])
	if err != nil {
		return Pair{}, err
	}
	if lit, ok := n.Args[1].(ast.Literal); ok {
		v, _ := lit.Value.(int64)
		delta := term.IntLit{Value: sign * v}
		if sign > 0 {
			return Pair{term.Plus{A: d.Val, B: delta}, d.Null}, nil
		}
		return Pair{term.Minus{A: d.Val, B: term.IntLit{Value: v}}, d.Null}, nil
	}
	days, err := r.Eval(n.Args[1])
	if err != nil {
		return Pair{}, err
	}
	if sign > 0 {
		return Pair{term.Plus{A: d.Val, B: days.Val}, d.Null}, nil
	}
	return Pair{term.Minus{A: d.Val, B: days.Val}, d.Null}, nil
}

// evalAggregate folds an aggregate function over every row of r.Table,
// the "aggregate functions" branch of the original's visit_Expression.
func (r *RowEncoder) evalAggregate(n ast.FuncCall) (Pair, error) {
	if n.Name == "count" && !n.Distinct {
		if attr, ok := n.Args[0].(ast.Attribute); ok && attr.Name == "*" {
			terms := make([]term.Term, r.Table.Bound)
			for i := 0; i < r.Table.Bound; i++ {
				terms[i] = term.Not{X: term.Deleted{TableID: r.Table.TableID, RowID: i}}
			}
			return Pair{term.Sum(terms), term.BoolLit{Value: false}}, nil
		}
	}

	argExpr := n.Args[0]

	sub := NewRowEncoder(r.Table, r.Ctx)
	sub.OuterTable, sub.OuterTupleIdx = r.OuterTable, r.OuterTupleIdx
	sub.ProjectedList = r.ProjectedList

	rows := make([]aggRow, r.Table.Bound)
	for i := 0; i < r.Table.Bound; i++ {
		p, err := sub.ForTuple(argExpr, i)
		if err != nil {
			return Pair{}, err
		}
		rows[i] = aggRow{p.Val, p.Null, term.Deleted{TableID: r.Table.TableID, RowID: i}}
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
