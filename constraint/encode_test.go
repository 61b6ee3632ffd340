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

package constraint

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dolthub/go-sqleq/schema"
	"github.com/dolthub/go-sqleq/term"
)

type fakeEnv struct {
	tables  map[string]*schema.TableSchema
	interns *schema.InternTable
	asserts map[string]term.Term
}

func newFakeEnv(tables ...*schema.TableSchema) *fakeEnv {
	e := &fakeEnv{tables: map[string]*schema.TableSchema{}, interns: schema.NewInternTable(), asserts: map[string]term.Term{}}
	for _, t := range tables {
		e.tables[t.TableName] = t
	}
	return e
}

func (e *fakeEnv) FindTableByName(name string, queryID int) (*schema.TableSchema, error) {
	t, ok := e.tables[name]
	if !ok {
		return nil, schema.ErrUnknownTable.New(name)
	}
	return t, nil
}
func (e *fakeEnv) StringHash(s string) int64 { return e.interns.Intern(s) }
func (e *fakeEnv) Cell(tableID, rowID, columnID int) term.Term {
	return term.Cell{TableID: tableID, RowID: rowID, ColumnID: columnID}
}
func (e *fakeEnv) Null(tableID, rowID, columnID int) term.Term {
	return term.Null{TableID: tableID, RowID: rowID, ColumnID: columnID}
}
func (e *fakeEnv) Assert(label string, t term.Term) { e.asserts[label] = t }

func ordersTable() *schema.TableSchema {
	return &schema.TableSchema{
		TableID:   0,
		TableName: "orders",
		Columns: []schema.ColumnSchema{
			{ColumnID: 0, ColumnName: "id", ColumnType: schema.TypeInt, TableName: "orders"},
			{ColumnID: 1, ColumnName: "customer_id", ColumnType: schema.TypeInt, TableName: "orders"},
			{ColumnID: 2, ColumnName: "status", ColumnType: schema.TypeString, TableName: "orders"},
			{ColumnID: 3, ColumnName: "total", ColumnType: schema.TypeFloat, TableName: "orders"},
		},
		Bound: 3,
	}
}

func customersTable() *schema.TableSchema {
	return &schema.TableSchema{
		TableID:   1,
		TableName: "customers",
		Columns: []schema.ColumnSchema{
			{ColumnID: 0, ColumnName: "id", ColumnType: schema.TypeInt, TableName: "customers"},
		},
		Bound: 2,
	}
}

func TestEncodeAssertsUnderICLabel(t *testing.T) {
	env := newFakeEnv(ordersTable())
	err := Encode([]Constraint{NotNull{Column: "orders.id"}}, env)
	require.NoError(t, err)
	require.Contains(t, env.asserts, "ic")
}

func TestEncodeUnsupportedConstraint(t *testing.T) {
	env := newFakeEnv(ordersTable())
	err := Encode([]Constraint{nil}, env)
	require.Error(t, err)
	require.True(t, ErrUnsupported.Is(err))
}

func TestSplitQualifiedRejectsUnqualified(t *testing.T) {
	_, _, err := splitQualified("id")
	require.Error(t, err)
	require.True(t, ErrUnsupported.Is(err))
}

func TestEncodeUniquePrimaryAssertsNotNullToo(t *testing.T) {
	env := newFakeEnv(ordersTable())
	f, err := encodeUnique(Unique{Columns: []string{"orders.id"}, Primary: true}, env)
	require.NoError(t, err)
	require.NotNil(t, f)
}

func TestEncodeUniqueUnknownTable(t *testing.T) {
	env := newFakeEnv(ordersTable())
	_, err := encodeUnique(Unique{Columns: []string{"ghost.id"}}, env)
	require.Error(t, err)
	require.True(t, schema.ErrUnknownTable.Is(err))
}

func TestEncodeForeignKeyResolvesBothSides(t *testing.T) {
	env := newFakeEnv(ordersTable(), customersTable())
	f, err := encodeForeignKey(ForeignKey{Child: "orders.customer_id", Parent: "customers.id"}, env)
	require.NoError(t, err)
	require.NotNil(t, f)
}

func TestEncodeNotNull(t *testing.T) {
	env := newFakeEnv(ordersTable())
	f, err := encodeNotNull(NotNull{Column: "orders.id"}, env)
	require.NoError(t, err)
	require.NotNil(t, f)
}

func TestEncodeDomain(t *testing.T) {
	env := newFakeEnv(ordersTable())
	f, err := encodeDomain(Domain{Column: "orders.total", Lo: 0, Hi: 1000}, env)
	require.NoError(t, err)
	require.NotNil(t, f)
}

func TestEncodeEnumInternsStringMembers(t *testing.T) {
	env := newFakeEnv(ordersTable())
	f, err := encodeEnum(Enum{Column: "orders.status", Values: []any{"open", "closed"}}, env)
	require.NoError(t, err)
	require.NotNil(t, f)

	openHash := env.interns.Intern("open")
	s, ok := env.interns.Lookup(openHash)
	require.True(t, ok)
	require.Equal(t, "open", s)
}

func TestEncodeCmpInterColumn(t *testing.T) {
	env := newFakeEnv(ordersTable())
	f, err := encodeCmp(Cmp{Op: Gte, Left: "orders.total", Right: "orders.id"}, env)
	require.NoError(t, err)
	require.NotNil(t, f)
}

func TestEncodeCmpCrossTableRejected(t *testing.T) {
	env := newFakeEnv(ordersTable(), customersTable())
	_, err := encodeCmp(Cmp{Op: Gte, Left: "orders.total", Right: "customers.id"}, env)
	require.Error(t, err)
	require.True(t, ErrCrossTable.Is(err))
}

func TestEncodeCmpLiteral(t *testing.T) {
	env := newFakeEnv(ordersTable())
	f, err := encodeCmp(Cmp{Op: Gt, Left: "orders.total", Right: int64(0)}, env)
	require.NoError(t, err)
	require.NotNil(t, f)
}

func TestEncodeCmpBadLiteralType(t *testing.T) {
	env := newFakeEnv(ordersTable())
	_, err := encodeCmp(Cmp{Op: Gt, Left: "orders.total", Right: "not-a-column-or-int"}, env)
	require.Error(t, err)
}

func TestEncodeInclusion(t *testing.T) {
	env := newFakeEnv(ordersTable())
	f, err := encodeInclusion(Inclusion{Column: "orders.status", Values: []any{"open"}}, env)
	require.NoError(t, err)
	require.NotNil(t, f)
}

func TestInternValuesMixedTypes(t *testing.T) {
	env := newFakeEnv()
	out := internValues(env, []any{"a", int64(5), 7})
	require.Equal(t, env.interns.Intern("a"), out[0])
	require.Equal(t, int64(5), out[1])
	require.Equal(t, int64(7), out[2])
}

func TestCmpOpCoversEveryOperator(t *testing.T) {
	a, b := term.IntLit{Value: 1}, term.IntLit{Value: 2}
	require.Equal(t, term.NewGt(a, b), cmpOp(Gt)(a, b))
	require.Equal(t, term.NewGte(a, b), cmpOp(Gte)(a, b))
	require.Equal(t, term.NewLt(a, b), cmpOp(Lt)(a, b))
	require.Equal(t, term.NewLte(a, b), cmpOp(Lte)(a, b))
	require.Equal(t, term.NewNeq(a, b), cmpOp(Neq)(a, b))
}
