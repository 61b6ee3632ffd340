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

package astinit

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dolthub/go-sqleq/ast"
)

// fakeRegistrar is the minimal Registrar a test needs: a monotonically
// increasing label counter and a record of every (label, node) pair
// registered, in registration order.
type fakeRegistrar struct {
	next   int
	labels []string
	nodes  []ast.Node
}

func (r *fakeRegistrar) NextLabelID() int {
	id := r.next
	r.next++
	return id
}

func (r *fakeRegistrar) Register(label string, node ast.Node) {
	r.labels = append(r.labels, label)
	r.nodes = append(r.nodes, node)
}

func TestVisitScanNoCounterNoBound(t *testing.T) {
	reg := &fakeRegistrar{}
	init := New(reg, DefaultConfig())

	scan := &ast.Scan{Table: "orders"}
	init.visitScan(scan)

	require.Equal(t, "size_orders", scan.Label())
	require.Equal(t, 0, scan.UnderBound)
	require.Equal(t, []string{"size_orders"}, reg.labels)
	require.Equal(t, 0, reg.next, "a scan label never draws from the label counter")
}

func TestQueryWithoutWhereLeavesFromUntouched(t *testing.T) {
	reg := &fakeRegistrar{}
	init := New(reg, DefaultConfig())

	scan := &ast.Scan{Table: "t"}
	q := &ast.Query{
		Select: &ast.Project{Targets: []ast.Expr{ast.Attribute{Name: "*"}}},
		From:   scan,
	}
	init.Query(q)

	require.Same(t, scan, q.From, "no WHERE clause means From is untouched")
	require.NotEmpty(t, q.Select.Label())
}

// TestQueryWhereSplicesFilter is the regression test for the WHERE-clause
// wiring fix: From must become a *ast.Filter wrapping the original From,
// with Predicate set to Where, so every later consumer that only looks at
// From still sees the filtering.
func TestQueryWhereSplicesFilter(t *testing.T) {
	reg := &fakeRegistrar{}
	init := New(reg, DefaultConfig())

	scan := &ast.Scan{Table: "t"}
	where := ast.BinOp{Op: "gt", Args: []ast.Expr{ast.Attribute{Name: "v"}, ast.Literal{Value: int64(0)}}}
	q := &ast.Query{
		Select: &ast.Project{Targets: []ast.Expr{ast.Attribute{Name: "*"}}},
		From:   scan,
		Where:  where,
	}
	init.Query(q)

	filter, ok := q.From.(*ast.Filter)
	require.True(t, ok, "From must be rewired to the synthesized Filter")
	require.Same(t, scan, filter.Input)
	require.Equal(t, where, filter.Predicate)
	require.Equal(t, DefaultConfig().Filter, filter.UnderBound)
	require.NotEmpty(t, filter.Label())

	require.Same(t, filter, q.Select.Input, "Select.Input must see the filtered table")
}

func TestQueryGroupByInputIsFilteredFrom(t *testing.T) {
	reg := &fakeRegistrar{}
	init := New(reg, DefaultConfig())

	scan := &ast.Scan{Table: "t"}
	where := ast.BinOp{Op: "gt", Args: []ast.Expr{ast.Attribute{Name: "v"}, ast.Literal{Value: int64(0)}}}
	q := &ast.Query{
		Select:        &ast.Project{Targets: []ast.Expr{ast.Attribute{Name: "v"}}},
		From:          scan,
		Where:         where,
		GroupByClause: &ast.GroupBy{Exprs: []ast.Expr{ast.Attribute{Name: "v"}}},
	}
	init.Query(q)

	filter, ok := q.From.(*ast.Filter)
	require.True(t, ok)
	require.Same(t, filter, q.GroupByClause.Input)
	require.Same(t, q.GroupByClause, q.Select.Input)
}

func TestVisitJoinLabelsByKind(t *testing.T) {
	tests := []struct {
		kind   ast.JoinType
		prefix string
		bound  int
	}{
		{ast.InnerJoin, "inner_join", 2},
		{ast.LeftJoin, "left_join", 2},
		{ast.RightJoin, "right_join", 2},
		{ast.FullJoin, "full_join", 2},
		{ast.CrossJoin, "product", 2},
	}
	for _, tt := range tests {
		reg := &fakeRegistrar{}
		init := New(reg, DefaultConfig())
		j := &ast.Join{Type: tt.kind}
		init.visitJoin(j)
		require.Contains(t, j.Label(), tt.prefix, tt.prefix)
		require.Equal(t, tt.bound, j.UnderBound, tt.prefix)
	}
}

func TestVisitProjectDistinctLabel(t *testing.T) {
	reg := &fakeRegistrar{}
	init := New(reg, DefaultConfig())

	p := &ast.Project{Distinct: true}
	init.visitProject(p)

	require.NotEmpty(t, p.Label())
	require.NotEmpty(t, p.DistinctLabel)
	require.Equal(t, []string{p.Label(), p.DistinctLabel}, reg.labels)
}

func TestVisitUnionAllowDuplicatesSkipsDistinctLabel(t *testing.T) {
	reg := &fakeRegistrar{}
	init := New(reg, DefaultConfig())

	u := &ast.Union{AllowDuplicates: true}
	init.visitUnion(u)

	require.NotEmpty(t, u.Label())
	require.Empty(t, u.DistinctLabel)
	require.Equal(t, []string{u.Label()}, reg.labels)
}

func TestQueryRecursesIntoSubqueryInWhere(t *testing.T) {
	reg := &fakeRegistrar{}
	init := New(reg, DefaultConfig())

	innerScan := &ast.Scan{Table: "inner_t"}
	innerQ := &ast.Query{
		Select: &ast.Project{Targets: []ast.Expr{ast.Attribute{Name: "*"}}},
		From:   innerScan,
	}
	where := ast.InExpr{
		Left: []ast.Expr{ast.Attribute{Name: "id"}},
		Sub:  innerQ,
	}
	outerScan := &ast.Scan{Table: "outer_t"}
	q := &ast.Query{
		Select: &ast.Project{Targets: []ast.Expr{ast.Attribute{Name: "*"}}},
		From:   outerScan,
		Where:  where,
	}
	init.Query(q)

	require.NotEmpty(t, innerQ.Select.Label(), "the correlated sub-query must also be labeled")
	require.NotEqual(t, innerQ.Select.Label(), q.Select.Label())
}
