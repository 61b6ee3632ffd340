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
)

func TestJoinColumnsRenumbersSequentially(t *testing.T) {
	left, right := peopleTable(), secondTable()
	cols, owners := joinColumns(left, right)
	require.Len(t, cols, 4)
	for i, c := range cols {
		require.Equal(t, i, c.ColumnID)
	}
	require.True(t, owners[0].fromLeft)
	require.False(t, owners[2].fromLeft)
	require.Equal(t, left.TableID, owners[0].tableID)
	require.Equal(t, right.TableID, owners[2].tableID)
}

func TestJoinInnerProductBound(t *testing.T) {
	left, right := peopleTable(), secondTable()
	env := newFakeEnv(left, right)

	node := &ast.Join{Meta: ast.Meta{NodeLabel: "inner_join$1", UnderBound: left.Bound * right.Bound}, Type: ast.InnerJoin}
	out, err := Join(env, left, right, node)
	require.NoError(t, err)
	require.Equal(t, left.Bound*right.Bound, out.Bound)
	require.Contains(t, env.asserts, "inner_join$1")
}

func TestJoinLeftAddsLeftOnlyNullRows(t *testing.T) {
	left, right := peopleTable(), secondTable()
	precise := left.Bound*right.Bound + left.Bound
	env := newFakeEnv(left, right)

	node := &ast.Join{Meta: ast.Meta{NodeLabel: "left_join$1", UnderBound: precise}, Type: ast.LeftJoin}
	out, err := Join(env, left, right, node)
	require.NoError(t, err)
	require.Equal(t, precise, out.Bound)
}

func TestJoinFullAddsBothNullRowBlocks(t *testing.T) {
	left, right := peopleTable(), secondTable()
	precise := left.Bound*right.Bound + left.Bound + right.Bound
	env := newFakeEnv(left, right)

	node := &ast.Join{Meta: ast.Meta{NodeLabel: "full_join$1", UnderBound: precise}, Type: ast.FullJoin}
	out, err := Join(env, left, right, node)
	require.NoError(t, err)
	require.Equal(t, precise, out.Bound)
}

func TestJoinRightSwapsAndReordersColumns(t *testing.T) {
	left, right := peopleTable(), secondTable()
	precise := left.Bound*right.Bound + right.Bound
	env := newFakeEnv(left, right)

	node := &ast.Join{Meta: ast.Meta{NodeLabel: "right_join$1", UnderBound: precise}, Type: ast.RightJoin}
	out, err := Join(env, left, right, node)
	require.NoError(t, err)
	require.Len(t, out.Columns, len(left.Columns)+len(right.Columns))
	require.Equal(t, "id", out.Columns[0].ColumnName, "left columns come first after reordering")
}

func TestJoinUnsupportedType(t *testing.T) {
	left, right := peopleTable(), secondTable()
	env := newFakeEnv(left, right)

	node := &ast.Join{Meta: ast.Meta{NodeLabel: "j$1"}, Type: ast.JoinType(99)}
	_, err := Join(env, left, right, node)
	require.Error(t, err)
	require.True(t, ErrUnsupportedJoin.Is(err))
}

func TestUsingRewritesToEqualityPredicate(t *testing.T) {
	left, right := peopleTable(), secondTable()
	pred := rewriteUsing(left, right, []string{"id"})
	require.Equal(t, ast.BinOp{Op: "eq", Args: []ast.Expr{
		ast.Attribute{Name: "people.id"},
		ast.Attribute{Name: "retirees.id"},
	}}, pred)
}
