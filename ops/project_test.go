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

package ops

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dolthub/go-sqleq/ast"
	"github.com/dolthub/go-sqleq/schema"
)

func TestTargetColumnAttribute(t *testing.T) {
	people := peopleTable()
	col, src, err := targetColumn(people, 0, ast.Attribute{Name: "age", Alias: "years"})
	require.NoError(t, err)
	require.Equal(t, "years", col.ColumnName)
	require.Equal(t, 0, col.ColumnID)
	require.NotNil(t, src)
	require.Equal(t, "age", src.ColumnName)
}

func TestTargetColumnAttributeUnknown(t *testing.T) {
	people := peopleTable()
	_, _, err := targetColumn(people, 0, ast.Attribute{Name: "ghost"})
	require.Error(t, err)
}

func TestTargetColumnLiteralDefaultsPositionalName(t *testing.T) {
	people := peopleTable()
	col, src, err := targetColumn(people, 2, ast.Literal{Value: int64(5)})
	require.NoError(t, err)
	require.Equal(t, "$2", col.ColumnName)
	require.Equal(t, schema.TypeInt, col.ColumnType)
	require.Nil(t, src)
}

func TestTargetColumnExprAliased(t *testing.T) {
	people := peopleTable()
	col, src, err := targetColumn(people, 1, ast.FuncCall{Name: "sum", Alias: "total"})
	require.NoError(t, err)
	require.Equal(t, "total", col.ColumnName)
	require.Nil(t, src)
}

func TestExpandWildcardsBare(t *testing.T) {
	people := peopleTable()
	out := expandWildcards(people, []ast.Expr{ast.Attribute{Name: "*"}})
	require.Equal(t, []ast.Expr{
		ast.Attribute{Name: "people.id"},
		ast.Attribute{Name: "people.age"},
	}, out)
}

func TestExpandWildcardsQualified(t *testing.T) {
	people := peopleTable()
	orders := &schema.TableSchema{
		TableID:   1,
		TableName: "orders",
		Columns: []schema.ColumnSchema{
			{ColumnID: 0, ColumnName: "total", TableName: "orders"},
		},
	}
	joined := &schema.TableSchema{
		Columns: append(append([]schema.ColumnSchema{}, people.Columns...), orders.Columns...),
	}

	out := expandWildcards(joined, []ast.Expr{ast.Attribute{Name: "orders.*"}})
	require.Equal(t, []ast.Expr{ast.Attribute{Name: "orders.total"}}, out)
}

func TestExpandWildcardsLeavesOrdinaryTargetsAlone(t *testing.T) {
	people := peopleTable()
	target := ast.Attribute{Name: "age"}
	out := expandWildcards(people, []ast.Expr{target})
	require.Equal(t, []ast.Expr{target}, out)
}

func TestHasAggregate(t *testing.T) {
	require.True(t, hasAggregate([]ast.Expr{ast.FuncCall{Name: "sum", Args: []ast.Expr{ast.Attribute{Name: "age"}}}}))
	require.True(t, hasAggregate([]ast.Expr{ast.BinOp{Op: "add", Args: []ast.Expr{
		ast.FuncCall{Name: "count"}, ast.Literal{Value: int64(1)},
	}}}))
	require.False(t, hasAggregate([]ast.Expr{ast.Attribute{Name: "age"}}))
}

func TestProjectPlainOneRowPerInputRow(t *testing.T) {
	people := peopleTable()
	env := newFakeEnv(people)

	node := &ast.Project{
		Meta:    ast.Meta{NodeLabel: "project$1", UnderBound: people.Bound},
		Targets: []ast.Expr{ast.Attribute{Name: "age"}},
	}
	out, err := Project(env, people, node)
	require.NoError(t, err)
	require.Equal(t, people.Bound, out.Bound)
	require.Len(t, out.Columns, 1)
	require.Contains(t, env.asserts, "project$1")
}

func TestProjectAggregateCollapsesToOneRow(t *testing.T) {
	people := peopleTable()
	env := newFakeEnv(people)

	node := &ast.Project{
		Meta:    ast.Meta{NodeLabel: "project$1", UnderBound: 1},
		Targets: []ast.Expr{ast.FuncCall{Name: "count", Alias: "n", Args: []ast.Expr{ast.Attribute{Name: "*"}}}},
	}
	out, err := Project(env, people, node)
	require.NoError(t, err)
	require.Equal(t, 1, out.Bound)
	require.Equal(t, "n", out.Columns[0].ColumnName)
}

func TestProjectDistinctChainsIntoDedup(t *testing.T) {
	people := peopleTable()
	env := newFakeEnv(people)

	node := &ast.Project{
		Meta:          ast.Meta{NodeLabel: "project$1", UnderBound: people.Bound},
		Targets:       []ast.Expr{ast.Attribute{Name: "age"}},
		Distinct:      true,
		DistinctLabel: "project_distinct$1",
	}
	_, err := Project(env, people, node)
	require.NoError(t, err)
	require.Contains(t, env.asserts, "project$1")
	require.Contains(t, env.asserts, "project_distinct$1")
}
