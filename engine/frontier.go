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

package engine

import "github.com/dolthub/go-sqleq/ast"

// frontier builds one query root's search.Engine worklist: its operator
// labels (scan labels excluded -- the search package always considers
// those) in root-first, scan-closest-last order, so search.Run's
// pop-from-the-end expansion grows the considered set from the leaves
// of the plan up to the root, per spec.md §4.8's "typical step: one
// label per side per iteration".
func frontier(q *ast.Query) []string {
	var labels []string
	collectQuery(q, &labels)
	return labels
}

func collectQuery(q *ast.Query, out *[]string) {
	if q.OrderByClause != nil {
		*out = append(*out, q.OrderByClause.Label())
	}
	*out = append(*out, q.Select.Label())
	if q.Select.Distinct {
		*out = append(*out, q.Select.DistinctLabel)
	}
	if q.GroupByClause != nil {
		*out = append(*out, q.GroupByClause.Label())
		collectExprSubqueries(q.GroupByClause.Having, out)
		for _, e := range q.GroupByClause.Exprs {
			collectExprSubqueries(e, out)
		}
	}
	for _, t := range q.Select.Targets {
		collectExprSubqueries(t, out)
	}
	collectNode(q.From, out)
}

func collectNode(n ast.Node, out *[]string) {
	switch t := n.(type) {
	case *ast.Scan:
		// scan labels are always considered, not part of any frontier.
	case *ast.Filter:
		*out = append(*out, t.Label())
		collectExprSubqueries(t.Predicate, out)
		collectNode(t.Input, out)
	case *ast.Join:
		*out = append(*out, t.Label())
		collectExprSubqueries(t.Condition, out)
		collectNode(t.Left, out)
		collectNode(t.Right, out)
	case *ast.Union:
		*out = append(*out, t.Label())
		if !t.AllowDuplicates {
			*out = append(*out, t.DistinctLabel)
		}
		for _, member := range t.Inputs {
			collectNode(member, out)
		}
	case *ast.Query:
		collectQuery(t, out)
	}
}

// collectExprSubqueries walks e for any nested sub-query (scalar,
// EXISTS, or IN) and appends its own full frontier, so a correlated or
// uncorrelated sub-query's operators are grown by the search loop the
// same as the enclosing query's.
func collectExprSubqueries(e ast.Expr, out *[]string) {
	switch n := e.(type) {
	case nil:
	case ast.BinOp:
		for _, a := range n.Args {
			collectExprSubqueries(a, out)
		}
	case ast.UnOp:
		collectExprSubqueries(n.Arg, out)
	case ast.IsNull:
		collectExprSubqueries(n.Arg, out)
	case ast.InExpr:
		for _, a := range n.Left {
			collectExprSubqueries(a, out)
		}
		for _, a := range n.List {
			collectExprSubqueries(a, out)
		}
		if n.Sub != nil {
			collectQuery(n.Sub, out)
		}
	case ast.Between:
		collectExprSubqueries(n.Arg, out)
		collectExprSubqueries(n.Lo, out)
		collectExprSubqueries(n.Hi, out)
	case ast.Like:
		collectExprSubqueries(n.Arg, out)
		collectExprSubqueries(n.Pattern, out)
	case ast.CaseWhen:
		for _, c := range n.Cases {
			collectExprSubqueries(c.When, out)
			collectExprSubqueries(c.Then, out)
		}
		collectExprSubqueries(n.Default, out)
	case ast.Coalesce:
		for _, a := range n.Args {
			collectExprSubqueries(a, out)
		}
	case ast.FuncCall:
		for _, a := range n.Args {
			collectExprSubqueries(a, out)
		}
	case ast.IfExpr:
		collectExprSubqueries(n.Cond, out)
		collectExprSubqueries(n.Then, out)
		collectExprSubqueries(n.Else, out)
	case ast.Subquery:
		collectQuery(n.Query, out)
	}
}
