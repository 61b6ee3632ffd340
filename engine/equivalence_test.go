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

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dolthub/go-sqleq/astinit"
	"github.com/dolthub/go-sqleq/schema"
	"github.com/dolthub/go-sqleq/term"
)

func TestIsSortedChecksLineageTag(t *testing.T) {
	require.True(t, isSorted(&schema.TableSchema{Lineage: "Sorted from T0"}))
	require.False(t, isSorted(&schema.TableSchema{Lineage: "Scanned from t"}))
}

func TestEquivalentShortCircuitsOnColumnCountMismatch(t *testing.T) {
	e := newTestEnv(t)
	require.NoError(t, e.newCall())

	out1 := createEmptyTable(e, 1, 2)
	out2 := createEmptyTable(e, 2, 2)

	f := equivalent(e, out1, out2, nil, nil)
	require.NotNil(t, f)
}

func TestEquivalentOfIdenticalEncodingsIsWellFormed(t *testing.T) {
	e := newTestEnv(t)
	require.NoError(t, e.newCall())

	q1 := selectStarFrom("t")
	q2 := selectStarFrom("t")
	init := astinit.New(e, e.astinitConfig())
	init.Query(&q1)
	init.Query(&q2)

	out1, err := e.encodeQuery(&q1)
	require.NoError(t, err)
	out2, err := e.encodeQuery(&q2)
	require.NoError(t, err)

	f := equivalent(e, out1, out2, nil, nil)
	require.NotNil(t, f)
}

func TestSortedPositionalEqEmptyExprsIsTriviallyTrue(t *testing.T) {
	e := newTestEnv(t)
	require.NoError(t, e.newCall())

	out1 := createEmptyTable(e, 1, 2)
	out2 := createEmptyTable(e, 1, 2)

	f := sortedPositionalEq(e, out1, out2, nil)
	require.Equal(t, term.BoolLit{Value: true}, f)
}
