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

// evalFn recursively evaluates a sub-expression; RowEncoder.Eval and
// GroupEncoder.Eval are the two implementations. Sharing the operator
// logic below as free functions parameterized by evalFn avoids
// duplicating the 3VL arithmetic/boolean rules between the row and
// group encoder flavors, which in the original are two near-identical
// copies of the same visit_Expression branch.
type evalFn func(ast.Expr) (Pair, error)

func evalArgs(eval evalFn, args []ast.Expr) ([]Pair, error) {
	out := make([]Pair, len(args))
	for i, a := range args {
		p, err := eval(a)
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

func orNulls(ps []Pair) term.Term {
	ts := make([]term.Term, len(ps))
	for i, p := range ps {
		ts[i] = p.Null
	}
	return term.OrAll(ts)
}

func evalBinOp(eval evalFn, n ast.BinOp) (Pair, error) {
	args, err := evalArgs(eval, n.Args)
	if err != nil {
		return Pair{}, err
	}

	switch n.Op {
	case "gt", "gte", "lt", "lte", "eq", "neq":
		a, b := term.EnsureInt(args[0].Val), term.EnsureInt(args[1].Val)
		return Pair{cmpTerm(n.Op, a, b), orNulls(args)}, nil

	case "add", "sub", "mul", "div":
		a, b := args[0].Val, args[1].Val
		var val term.Term
		null := orNulls(args)
		switch n.Op {
		case "add":
			val = term.Plus{A: a, B: b}
		case "sub":
			val = term.Minus{A: a, B: b}
		case "mul":
			val = term.Mul{A: a, B: b}
		case "div":
			val = term.Div{A: a, B: b}
			null = term.OrAll([]term.Term{null, term.NewEq(b, term.IntLit{Value: 0})})
		}
		return Pair{val, null}, nil

	case "and", "or":
		vals := make([]term.Term, len(args))
		for i, p := range args {
			vals[i] = term.EnsureBool(p.Val)
		}
		var val term.Term
		if n.Op == "and" {
			val = term.AndAll(vals)
		} else {
			val = term.OrAll(vals)
		}
		null := andOrNull(n.Op, vals, args)
		return Pair{val, null}, nil

	default:
		return Pair{}, ErrUnsupported.New(n)
	}
}

func cmpTerm(op string, a, b term.Term) term.Term {
	switch op {
	case "gt":
		return term.NewGt(a, b)
	case "gte":
		return term.NewGte(a, b)
	case "lt":
		return term.NewLt(a, b)
	case "lte":
		return term.NewLte(a, b)
	case "eq":
		return term.NewEq(a, b)
	default:
		return term.NewNeq(a, b)
	}
}

// andOrNull implements SQL's AND/OR 3-valued-null rule: OR is null only
// when no operand is definitely true; AND is null only when no operand
// is definitely false.
func andOrNull(op string, vals []term.Term, args []Pair) term.Term {
	anyNull := term.OrAll(pluckNulls(args))
	clauses := make([]term.Term, len(vals))
	for i, v := range vals {
		if op == "or" {
			clauses[i] = term.Implies{Premise: term.Not{X: args[i].Null}, Conclusion: term.Not{X: v}}
		} else {
			clauses[i] = term.Implies{Premise: term.Not{X: args[i].Null}, Conclusion: v}
		}
	}
	return term.AndAll([]term.Term{anyNull, term.AndAll(clauses)})
}

func pluckNulls(args []Pair) []term.Term {
	ts := make([]term.Term, len(args))
	for i, p := range args {
		ts[i] = p.Null
	}
	return ts
}

func evalUnOp(eval evalFn, n ast.UnOp) (Pair, error) {
	p, err := eval(n.Arg)
	if err != nil {
		return Pair{}, err
	}
	switch n.Op {
	case "neg":
		return Pair{term.Neg{X: p.Val}, p.Null}, nil
	case "not":
		return Pair{term.Not{X: term.EnsureBool(p.Val)}, p.Null}, nil
	default:
		return Pair{}, ErrUnsupported.New(n)
	}
}

func (r *RowEncoder) evalBinOp(n ast.BinOp) (Pair, error) { return evalBinOp(r.Eval, n) }
func (r *RowEncoder) evalUnOp(n ast.UnOp) (Pair, error)   { return evalUnOp(r.Eval, n) }
