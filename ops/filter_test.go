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

func TestFilterAllocatesPreciseOutputWhenNoCompaction(t *testing.T) {
	people := peopleTable()
	env := newFakeEnv(people)

	node := &ast.Filter{
		Meta:      ast.Meta{NodeLabel: "filter$1", UnderBound: people.Bound},
		Predicate: ast.BinOp{Op: "gt", Args: []ast.Expr{ast.Attribute{Name: "age"}, ast.Literal{Value: int64(0)}}},
	}
	out, err := Filter(env, people, node)
	require.NoError(t, err)

	require.Len(t, env.added, 1, "no approximate table: precise output is the only allocation")
	require.Same(t, env.added[0], out)
	require.Equal(t, people.Bound, out.Bound)
	require.Equal(t, people.Columns, out.Columns)

	require.Contains(t, env.asserts, "filter$1")
	require.Len(t, env.binds, 1)
	require.Equal(t, bindCall{"filter$1", out.TableID, people.Bound, false}, env.binds[0])
}

func TestFilterCompactsWhenUnderBoundSmaller(t *testing.T) {
	people := peopleTable()
	env := newFakeEnv(people)

	node := &ast.Filter{
		Meta:      ast.Meta{NodeLabel: "filter$1", UnderBound: 1},
		Predicate: ast.Literal{Value: true},
	}
	out, err := Filter(env, people, node)
	require.NoError(t, err)

	require.Len(t, env.added, 2, "precise output plus the compacted approximate output")
	require.Equal(t, people.Bound, env.added[0].Bound)
	require.Equal(t, 1, env.added[1].Bound)
	require.Same(t, env.added[1], out, "the approximate table is what callers see")
}
