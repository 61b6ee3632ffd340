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

func TestGroupByBindsBothChoicePhases(t *testing.T) {
	people := peopleTable()
	env := newFakeEnv(people)

	node := &ast.GroupBy{
		Meta:  ast.Meta{NodeLabel: "group_by$1", UnderBound: 2},
		Exprs: []ast.Expr{ast.Attribute{Name: "age"}},
	}
	out, err := GroupBy(env, people, node)
	require.NoError(t, err)
	require.Equal(t, 2, out.Bound)
	require.Equal(t, "Grouped from T0", out.Lineage)
	require.Contains(t, env.asserts, "group_by$1")
	require.Equal(t, []bindCall{{"group_by$1", out.TableID, 4, false}}, env.binds)
}

func TestGroupByWithHavingPredicate(t *testing.T) {
	people := peopleTable()
	env := newFakeEnv(people)

	node := &ast.GroupBy{
		Meta:   ast.Meta{NodeLabel: "group_by$1", UnderBound: 2},
		Exprs:  []ast.Expr{ast.Attribute{Name: "age"}},
		Having: ast.BinOp{Op: "gt", Args: []ast.Expr{ast.FuncCall{Name: "count", Args: []ast.Expr{ast.Attribute{Name: "*"}}}, ast.Literal{Value: int64(1)}}},
	}
	_, err := GroupBy(env, people, node)
	require.NoError(t, err)
	require.Contains(t, env.asserts, "group_by$1")
}
