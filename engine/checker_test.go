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

	"github.com/dolthub/go-sqleq/ast"
	"github.com/dolthub/go-sqleq/astinit"
	"github.com/dolthub/go-sqleq/constraint"
	"github.com/dolthub/go-sqleq/internal/config"
	"github.com/dolthub/go-sqleq/schema"
)

func TestVerdictString(t *testing.T) {
	tests := []struct {
		v    Verdict
		want string
	}{
		{EQU, "EQU"},
		{NEQ, "NEQ"},
		{TMO, "TMO"},
		{ERR, "ERR"},
		{Verdict(99), "ERR"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, tt.v.String())
	}
}

func singleTableSchema() []schema.TableDef {
	return []schema.TableDef{
		{
			TableName: "t",
			Others: []schema.ColumnDef{
				{Name: "id", Type: "int"},
				{Name: "v", Type: "int"},
			},
		},
	}
}

func newTestEnv(t *testing.T) *Env {
	e, err := NewEnv(singleTableSchema(), nil, 3, 0)
	require.NoError(t, err)
	return e
}

func TestAstinitConfig(t *testing.T) {
	e := newTestEnv(t)
	e.tuning = config.Default()
	e.tuning.Bounds.Filter = 7
	e.tuning.Bounds.GroupBound = 11
	e.tuning.Bounds.HavingBound = 13

	got := e.astinitConfig()
	require.Equal(t, astinit.Config{
		Filter: 7, InnerJoin: 2, LeftJoin: 2, RightJoin: 2, FullJoin: 2,
		Product: 2, Project: 2, OrderBy: 2, Union: 2,
		GroupBound: 11, HavingBound: 13,
	}, got)
}

func TestCreateEmptyTable(t *testing.T) {
	e := newTestEnv(t)
	require.NoError(t, e.newCall())

	g1 := createEmptyTable(e, 3, 5)
	g2 := createEmptyTable(e, 3, 5)

	require.Len(t, g1.Columns, 3)
	require.Equal(t, 5, g1.Bound)
	require.NotEqual(t, g1.TableID, g2.TableID)
	require.Same(t, g1, e.db.Schemas[g1.TableID])
	require.Same(t, g2, e.db.Schemas[g2.TableID])
}

func TestDecodeCell(t *testing.T) {
	interns := schema.NewInternTable()
	h := interns.Intern("hello")

	require.Equal(t, "hello", decodeCell(interns, schema.TypeString, h))
	require.Equal(t, int64(42), decodeCell(interns, schema.TypeInt, 42))
	require.Equal(t, true, decodeCell(interns, schema.TypeBool, 1))
	require.Equal(t, false, decodeCell(interns, schema.TypeBool, 0))

	days := schema.EncodeDate(2024, 3, 15)
	require.Equal(t, "2024-03-15", decodeCell(interns, schema.TypeDate, days))
	require.Equal(t, "2024-03-15", decodeCell(interns, schema.TypeDatetime, days))

	secs := schema.EncodeTime(9, 5, 3)
	require.Equal(t, "09:05:03", decodeCell(interns, schema.TypeTime, secs))

	// An un-interned hash falls back to the raw integer rather than
	// panicking or returning a zero value.
	require.Equal(t, int64(999999), decodeCell(interns, schema.TypeString, 999999))
}

// selectStarFrom builds "SELECT * FROM <table>", a fresh AST each call so
// two queries over the same table never share a *ast.Project/*ast.Scan.
func selectStarFrom(table string) ast.Query {
	return ast.Query{
		Select: &ast.Project{Targets: []ast.Expr{ast.Attribute{Name: "*"}}},
		From:   &ast.Scan{Table: table},
	}
}

// TestCheckEncodingPipeline exercises everything Check does short of
// spawning a solver process: labeling, encoding both sides, asserting
// integrity constraints, and building the equivalence/frontier terms Check
// hands to runSearch. Two structurally identical queries over the same
// table should encode cleanly and produce a single-label frontier per
// side (no filter/group-by/order-by/distinct operator is present).
func TestCheckEncodingPipeline(t *testing.T) {
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
	require.NoError(t, constraint.Encode(e.cons, e))

	require.Len(t, out1.Columns, 2)
	require.Len(t, out2.Columns, 2)

	eq := equivalent(e, out1, out2, nil, nil)
	require.NotNil(t, eq)

	f1 := frontier(&q1)
	f2 := frontier(&q2)
	require.Equal(t, []string{q1.Select.Label()}, f1)
	require.Equal(t, []string{q2.Select.Label()}, f2)
	require.NotEqual(t, f1[0], f2[0])
}

func TestNewCallResetsState(t *testing.T) {
	e := newTestEnv(t)
	require.NoError(t, e.newCall())

	q := selectStarFrom("t")
	init := astinit.New(e, e.astinitConfig())
	init.Query(&q)
	_, err := e.encodeQuery(&q)
	require.NoError(t, err)

	derivedCount := len(e.db.Schemas)
	require.Greater(t, derivedCount, len(e.baseTableIDs))

	require.NoError(t, e.newCall())
	require.Len(t, e.db.Schemas, len(e.baseTableIDs))
	require.Equal(t, 0, e.currQueryID)
	require.Equal(t, 1, e.nextQueryID)
	outerTable, outerTuple := e.OuterContext()
	require.Nil(t, outerTable)
	require.Equal(t, -1, outerTuple)
}
