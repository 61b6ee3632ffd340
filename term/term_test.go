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

package term

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReturnType(t *testing.T) {
	require.Equal(t, SortInt, Cell{}.ReturnType())
	require.Equal(t, SortBool, Null{}.ReturnType())
	require.Equal(t, SortInt, Choice{}.ReturnType())
	require.Equal(t, SortBool, And{}.ReturnType())
	require.Equal(t, SortInt, Sum([]Term{IntLit{1}, IntLit{2}}).ReturnType())
	require.Equal(t, SortInt, Ite{BoolLit{true}, IntLit{1}, IntLit{2}}.ReturnType())
	require.Equal(t, SortBool, Ite{BoolLit{true}, BoolLit{true}, BoolLit{false}}.ReturnType())
}

func TestComparisonConstructors(t *testing.T) {
	a, b := IntLit{1}, IntLit{2}
	require.Equal(t, Gte{cmp{a, b}}, NewGte(a, b))
	require.Equal(t, Gt{cmp{a, b}}, NewGt(a, b))
	require.Equal(t, Lte{cmp{a, b}}, NewLte(a, b))
	require.Equal(t, Lt{cmp{a, b}}, NewLt(a, b))
	require.Equal(t, Eq{cmp{a, b}}, NewEq(a, b))
	require.Equal(t, Neq{cmp{a, b}}, NewNeq(a, b))
}

func TestPrint(t *testing.T) {
	tests := []struct {
		name string
		in   Term
		want string
	}{
		{"cell", Cell{TableID: 1, RowID: 2, ColumnID: 3}, "(cell 1 2 3)"},
		{"null", Null{TableID: 1, RowID: 2, ColumnID: 3}, "(null 1 2 3)"},
		{"grouping", Grouping{TableID: 1, RowID: 2, GroupID: 3}, "(grouping 1 2 3)"},
		{"deleted", Deleted{TableID: 1, RowID: 2}, "(deleted 1 2)"},
		{"belongs-to-group", BelongsToGroup{QID: 4, GID: 1}, "(belongs-to-group 4 1)"},
		{"choice", Choice{TableID: 1, BitID: 2}, "(choice 1 2)"},
		{"not", Not{BoolLit{true}}, "(not true)"},
		{"and", And{[]Term{BoolLit{true}, BoolLit{false}}}, "(and true false)"},
		{"and-empty", And{nil}, "true"},
		{"or", Or{[]Term{BoolLit{true}, BoolLit{false}}}, "(or true false)"},
		{"or-empty", Or{nil}, "false"},
		{"implies", Implies{BoolLit{true}, BoolLit{false}}, "(=> true false)"},
		{"ite", Ite{BoolLit{true}, IntLit{1}, IntLit{2}}, "(ite true 1 2)"},
		{"gte", NewGte(IntLit{1}, IntLit{2}), "(>= 1 2)"},
		{"eq", NewEq(IntLit{1}, IntLit{2}), "(= 1 2)"},
		{"neq", NewNeq(IntLit{1}, IntLit{2}), "(not (= 1 2))"},
		{"plus", Plus{IntLit{1}, IntLit{2}}, "(+ 1 2)"},
		{"div", Div{IntLit{4}, IntLit{2}}, "(div 4 2)"},
		{"neg", Neg{IntLit{1}}, "(- 1)"},
		{"intlit", IntLit{-7}, "-7"},
		{"boollit-true", BoolLit{true}, "true"},
		{"boollit-false", BoolLit{false}, "false"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Print(tt.in)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

// unprintableTerm implements Term but has no case in Print's switch,
// exercising the default-case error path.
type unprintableTerm struct{}

func (unprintableTerm) ReturnType() Sort { return SortBool }

func TestPrintUnsupported(t *testing.T) {
	_, err := Print(unprintableTerm{})
	require.True(t, ErrUnprintable.Is(err))
}

func TestAssert(t *testing.T) {
	got, err := Assert("filter$1", NewEq(IntLit{1}, IntLit{1}))
	require.NoError(t, err)
	require.Equal(t, "(assert (! (= 1 1) :named filter$1))", got)
}

func TestSum(t *testing.T) {
	require.Equal(t, IntLit{0}, Sum(nil))
	require.Equal(t, IntLit{5}, Sum([]Term{IntLit{5}}))
	require.Equal(t, Plus{IntLit{1}, IntLit{2}}, Sum([]Term{IntLit{1}, IntLit{2}}))
}

func TestEnsureIntEnsureBool(t *testing.T) {
	require.Equal(t, IntLit{1}, EnsureInt(IntLit{1}))
	require.Equal(t, Ite{BoolLit{true}, IntLit{1}, IntLit{0}}, EnsureInt(BoolLit{true}))

	require.Equal(t, BoolLit{true}, EnsureBool(BoolLit{true}))
	require.Equal(t, Not{NewEq(IntLit{3}, IntLit{0})}, EnsureBool(IntLit{3}))
}

func TestCount(t *testing.T) {
	got := Count(1, 2)
	want := Plus{
		Ite{Not{Deleted{1, 0}}, IntLit{1}, IntLit{0}},
		Ite{Not{Deleted{1, 1}}, IntLit{1}, IntLit{0}},
	}
	require.Equal(t, want, got)
}

func TestAndAllOrAll(t *testing.T) {
	require.Equal(t, BoolLit{true}, AndAll([]Term{BoolLit{true}}))
	require.Equal(t, And{[]Term{BoolLit{true}, BoolLit{false}}}, AndAll([]Term{BoolLit{true}, BoolLit{false}}))
	require.Equal(t, BoolLit{false}, OrAll([]Term{BoolLit{false}}))
	require.Equal(t, Or{[]Term{BoolLit{true}, BoolLit{false}}}, OrAll([]Term{BoolLit{true}, BoolLit{false}}))
}
