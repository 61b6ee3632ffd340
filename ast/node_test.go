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

package ast

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// nodeKinds exercises Label/SetLabel on every concrete Node, confirming
// Meta's promoted methods satisfy the Node interface for each one.
func TestNodeKindsImplementLabel(t *testing.T) {
	nodes := []Node{
		&Scan{},
		&Filter{},
		&Join{},
		&GroupBy{},
		&Project{},
		&OrderBy{},
		&Union{},
		&Query{},
	}
	for _, n := range nodes {
		n.SetLabel("x$1")
		require.Equal(t, "x$1", n.Label())
	}
}

func TestQuerySorted(t *testing.T) {
	q := &Query{}
	require.False(t, q.Sorted())

	q.OrderByClause = &OrderBy{}
	require.True(t, q.Sorted())
}
