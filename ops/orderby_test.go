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

func TestOrderBySizesOutputAtUnderBoundAndBindsSorted(t *testing.T) {
	people := peopleTable()
	env := newFakeEnv(people)

	node := &ast.OrderBy{
		Meta:  ast.Meta{NodeLabel: "order_by$1", UnderBound: people.Bound},
		Exprs: []ast.Expr{ast.Attribute{Name: "age"}},
		Desc:  []bool{false},
	}
	out, err := OrderBy(env, people, node)
	require.NoError(t, err)
	require.Equal(t, people.Bound, out.Bound)
	require.Contains(t, env.asserts, "order_by$1")
	require.Equal(t, []bindCall{{"order_by$1", out.TableID, people.Bound, true}}, env.binds)
}

func TestOrderByLimitShrinksOutputBound(t *testing.T) {
	people := peopleTable()
	env := newFakeEnv(people)
	limit := 1

	node := &ast.OrderBy{
		Meta:  ast.Meta{NodeLabel: "order_by$1", UnderBound: people.Bound},
		Exprs: []ast.Expr{ast.Attribute{Name: "age"}},
		Desc:  []bool{true},
		Limit: &limit,
	}
	out, err := OrderBy(env, people, node)
	require.NoError(t, err)
	require.Equal(t, 1, out.Bound, "Limit shrinks the bound after semantics already ran at UnderBound")
}
