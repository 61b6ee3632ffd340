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

// Package astinit implements C9: it walks a parsed query in execution
// order (FROM, WHERE, GROUP BY/HAVING, SELECT, ORDER BY, recursing into
// sub-queries first), assigns every operator node a unique label, and
// seeds its default under-approximation bound. This mirrors the
// original's Initializer visitor, which performs the same walk to
// populate formulas.label_to_node/under_config before encoding begins.
package astinit

import (
	"strconv"

	"github.com/dolthub/go-sqleq/ast"
)

// Registrar is the label allocator and bookkeeping sink the not-yet-
// encoded formula manager (C7) will implement; astinit depends only on
// this narrow interface so it does not need to import that package.
type Registrar interface {
	NextLabelID() int
	Register(label string, node ast.Node)
}

// Config holds the default per-operator-kind under-approximation bounds
// (env.default_k in the original), tunable via the AMBIENT STACK's
// configuration loader.
type Config struct {
	Filter    int
	InnerJoin int
	LeftJoin  int
	RightJoin int
	FullJoin  int
	Product   int
	Project   int
	OrderBy   int
	Union     int
	// GroupBound/HavingBound are GroupBy's two independent choice-range
	// sizes; the original hardcodes (4, 10).
	GroupBound  int
	HavingBound int
}

// DefaultConfig matches the original's fallback constants for operators
// it does not expose through env.default_k (filter/project/order by
// default to 2 wherever the original's call sites are configured with
// small bounds; group by is always (4, 10)).
func DefaultConfig() Config {
	return Config{
		Filter: 2, InnerJoin: 2, LeftJoin: 2, RightJoin: 2, FullJoin: 2,
		Product: 2, Project: 2, OrderBy: 2, Union: 2,
		GroupBound: 4, HavingBound: 10,
	}
}

// Initializer runs the C9 walk against one Registrar/Config pair.
type Initializer struct {
	Reg Registrar
	Cfg Config
}

func New(reg Registrar, cfg Config) *Initializer {
	return &Initializer{Reg: reg, Cfg: cfg}
}

// Query runs the full visit_Query order of execution: FROM, WHERE,
// GROUP BY/HAVING, SELECT, ORDER BY, recursing into any sub-query
// reachable from those clauses' expressions first so inner labels are
// allocated before the enclosing operator's.
func (i *Initializer) Query(q *ast.Query) {
	i.visitSubqueriesInNode(q.From)
	i.visitNode(q.From)

	// Where is a distinct execution step from From (the original's own
	// FROM, WHERE, GROUP BY/HAVING, SELECT, ORDER BY order): splice a
	// Filter operator over From's output and rewire From to point at it,
	// so every downstream step (GroupBy/Select's Input, and every other
	// package that only ever looks at q.From) sees the filtered table
	// without needing to know about q.Where at all.
	if q.Where != nil {
		i.visitSubqueries(q.Where)
		whereFilter := &ast.Filter{Input: q.From, Predicate: q.Where}
		i.visitFilter(whereFilter)
		q.From = whereFilter
	}

	if q.GroupByClause != nil {
		for _, e := range q.GroupByClause.Exprs {
			i.visitSubqueries(e)
		}
		if q.GroupByClause.Having != nil {
			i.visitSubqueries(q.GroupByClause.Having)
		}
		q.GroupByClause.Input = q.From
		i.visitGroupBy(q.GroupByClause)
	}

	for _, t := range q.Select.Targets {
		i.visitSubqueries(t)
	}
	if q.GroupByClause != nil {
		q.Select.Input = q.GroupByClause
	} else {
		q.Select.Input = q.From
	}
	i.visitProject(q.Select)

	if q.OrderByClause != nil {
		for _, e := range q.OrderByClause.Exprs {
			i.visitSubqueries(e)
		}
		q.OrderByClause.Input = q.Select
		i.visitOrderBy(q.OrderByClause)
	}
}

// visitNode dispatches the FROM-clause tree: Scan, Filter (a bare
// HAVING-less WHERE reuses the same node kind as the original), Join,
// Union, or a nested Query (derived table).
func (i *Initializer) visitNode(n ast.Node) {
	switch t := n.(type) {
	case *ast.Scan:
		i.visitScan(t)
	case *ast.Filter:
		i.visitNode(t.Input)
		i.visitFilter(t)
	case *ast.Join:
		i.visitNode(t.Left)
		i.visitNode(t.Right)
		i.visitJoin(t)
	case *ast.Union:
		for _, member := range t.Inputs {
			i.visitNode(member)
		}
		i.visitUnion(t)
	case *ast.Query:
		i.Query(t)
	}
}

func (i *Initializer) visitScan(n *ast.Scan) {
	n.SetLabel("size_" + n.Table)
	i.Reg.Register(n.Label(), n)
}

func (i *Initializer) visitFilter(n *ast.Filter) {
	id := i.Reg.NextLabelID()
	n.SetLabel(labelf("filter", id))
	n.UnderBound = i.Cfg.Filter
	i.Reg.Register(n.Label(), n)
}

func (i *Initializer) visitJoin(n *ast.Join) {
	id := i.Reg.NextLabelID()
	var prefix string
	var bound int
	switch n.Type {
	case ast.InnerJoin:
		prefix, bound = "inner_join", i.Cfg.InnerJoin
	case ast.LeftJoin:
		prefix, bound = "left_join", i.Cfg.LeftJoin
	case ast.RightJoin:
		prefix, bound = "right_join", i.Cfg.RightJoin
	case ast.FullJoin:
		prefix, bound = "full_join", i.Cfg.FullJoin
	case ast.CrossJoin:
		prefix, bound = "product", i.Cfg.Product
	}
	n.SetLabel(labelf(prefix, id))
	n.UnderBound = bound
	i.Reg.Register(n.Label(), n)
}

func (i *Initializer) visitGroupBy(n *ast.GroupBy) {
	id := i.Reg.NextLabelID()
	n.SetLabel(labelf("group_by", id))
	n.UnderBound = i.Cfg.GroupBound
	n.HavingBound = i.Cfg.HavingBound
	i.Reg.Register(n.Label(), n)
}

func (i *Initializer) visitProject(n *ast.Project) {
	id := i.Reg.NextLabelID()
	n.SetLabel(labelf("project", id))
	n.UnderBound = i.Cfg.Project
	i.Reg.Register(n.Label(), n)
	if n.Distinct {
		n.DistinctLabel = labelf("distinct", id)
		i.Reg.Register(n.DistinctLabel, n)
	}
}

func (i *Initializer) visitOrderBy(n *ast.OrderBy) {
	id := i.Reg.NextLabelID()
	n.SetLabel(labelf("order_by", id))
	n.UnderBound = i.Cfg.OrderBy
	i.Reg.Register(n.Label(), n)
}

func (i *Initializer) visitUnion(n *ast.Union) {
	id := i.Reg.NextLabelID()
	n.SetLabel(labelf("union", id))
	n.UnderBound = i.Cfg.Union
	i.Reg.Register(n.Label(), n)
	if !n.AllowDuplicates {
		n.DistinctLabel = labelf("distinct", id)
		i.Reg.Register(n.DistinctLabel, n)
	}
}

// visitSubqueriesInNode recurses into any derived-table sub-query that
// appears directly as a FROM-clause operand, before visitNode assigns
// labels to the outer tree.
func (i *Initializer) visitSubqueriesInNode(n ast.Node) {
	switch t := n.(type) {
	case *ast.Query:
		i.Query(t)
	case *ast.Filter:
		i.visitSubqueriesInNode(t.Input)
	case *ast.Join:
		i.visitSubqueriesInNode(t.Left)
		i.visitSubqueriesInNode(t.Right)
	case *ast.Union:
		for _, member := range t.Inputs {
			i.visitSubqueriesInNode(member)
		}
	}
}

// visitSubqueries walks an expression tree looking for ast.Subquery
// leaves (IN/NOT IN, IS NULL, scalar subqueries) and recurses into each
// one's Query before the enclosing clause gets its own label, so a
// correlated inner query's labels never collide with the outer query's.
func (i *Initializer) visitSubqueries(e ast.Expr) {
	switch n := e.(type) {
	case ast.Subquery:
		i.Query(n.Query)
	case ast.BinOp:
		for _, a := range n.Args {
			i.visitSubqueries(a)
		}
	case ast.UnOp:
		i.visitSubqueries(n.Arg)
	case ast.IsNull:
		i.visitSubqueries(n.Arg)
	case ast.InExpr:
		for _, a := range n.Left {
			i.visitSubqueries(a)
		}
		for _, a := range n.List {
			i.visitSubqueries(a)
		}
		if n.Sub != nil {
			i.Query(n.Sub)
		}
	case ast.Between:
		i.visitSubqueries(n.Arg)
		i.visitSubqueries(n.Lo)
		i.visitSubqueries(n.Hi)
	case ast.Like:
		i.visitSubqueries(n.Arg)
		i.visitSubqueries(n.Pattern)
	case ast.CaseWhen:
		for _, c := range n.Cases {
			i.visitSubqueries(c.When)
			i.visitSubqueries(c.Then)
		}
		if n.Default != nil {
			i.visitSubqueries(n.Default)
		}
	case ast.Coalesce:
		for _, a := range n.Args {
			i.visitSubqueries(a)
		}
	case ast.FuncCall:
		for _, a := range n.Args {
			i.visitSubqueries(a)
		}
	case ast.IfExpr:
		i.visitSubqueries(n.Cond)
		i.visitSubqueries(n.Then)
		i.visitSubqueries(n.Else)
	}
}

func labelf(prefix string, id int) string {
	return prefix + "$" + strconv.Itoa(id)
}
