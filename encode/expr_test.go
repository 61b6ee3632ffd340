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

package encode

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dolthub/go-sqleq/ast"
	"github.com/dolthub/go-sqleq/schema"
	"github.com/dolthub/go-sqleq/term"
)

// fakeContext is a minimal Context good enough to drive RowEncoder in
// isolation, without the rest of the orchestrator.
type fakeContext struct {
	interns            *schema.InternTable
	outerTable         *schema.TableSchema
	outerTupleIdx      int
	subqueryOut        *schema.TableSchema
	subqueryOuterTable int
	subqueryOuterTuple int
}

func newFakeContext() *fakeContext {
	return &fakeContext{interns: schema.NewInternTable(), outerTupleIdx: -1}
}

func (f *fakeContext) EncodeSubquery(q *ast.Query, outerTableID, outerTupleID int) (*schema.TableSchema, error) {
	f.subqueryOuterTable, f.subqueryOuterTuple = outerTableID, outerTupleID
	return f.subqueryOut, nil
}
func (f *fakeContext) StringHash(s string) int64 { return f.interns.Intern(s) }
func (f *fakeContext) FindTableByName(name string, queryID int) (*schema.TableSchema, error) {
	return nil, schema.ErrUnknownTable.New(name)
}
func (f *fakeContext) CurrQueryID() int { return 0 }
func (f *fakeContext) Cell(tableID, rowID, columnID int) term.Term {
	return term.Cell{TableID: tableID, RowID: rowID, ColumnID: columnID}
}
func (f *fakeContext) Null(tableID, rowID, columnID int) term.Term {
	return term.Null{TableID: tableID, RowID: rowID, ColumnID: columnID}
}
func (f *fakeContext) OuterContext() (*schema.TableSchema, int) { return f.outerTable, f.outerTupleIdx }

func testTable() *schema.TableSchema {
	return &schema.TableSchema{
		TableID:   3,
		TableName: "t",
		Columns: []schema.ColumnSchema{
			{ColumnID: 0, ColumnName: "a", ColumnType: schema.TypeInt, TableName: "t"},
			{ColumnID: 1, ColumnName: "b", ColumnType: schema.TypeInt, TableName: "t"},
		},
		Bound: 4,
	}
}

func TestEvalLiteral(t *testing.T) {
	ctx := newFakeContext()
	enc := NewRowEncoder(testTable(), ctx)

	p, err := enc.Eval(ast.Literal{Value: nil})
	require.NoError(t, err)
	require.Equal(t, term.BoolLit{Value: true}, p.Null)

	p, err = enc.Eval(ast.Literal{Value: int64(7)})
	require.NoError(t, err)
	require.Equal(t, term.IntLit{Value: 7}, p.Val)
	require.Equal(t, term.BoolLit{Value: false}, p.Null)

	p, err = enc.Eval(ast.Literal{Value: true})
	require.NoError(t, err)
	require.Equal(t, term.BoolLit{Value: true}, p.Val)

	p, err = enc.Eval(ast.Literal{Value: "hello"})
	require.NoError(t, err)
	require.Equal(t, term.IntLit{Value: ctx.interns.Intern("hello")}, p.Val)

	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	p, err = enc.Eval(ast.Literal{Value: day})
	require.NoError(t, err)
	require.Equal(t, term.IntLit{Value: schema.EncodeDate(2024, 3, 15)}, p.Val)

	_, err = enc.Eval(ast.Literal{Value: struct{}{}})
	require.Error(t, err)
	require.True(t, ErrUnsupported.Is(err))
}

func TestEvalAttributeDirect(t *testing.T) {
	ctx := newFakeContext()
	tbl := testTable()
	enc := NewRowEncoder(tbl, ctx)
	enc.TupleIdx = 2

	p, err := enc.Eval(ast.Attribute{Name: "b"})
	require.NoError(t, err)
	require.Equal(t, term.Cell{TableID: 3, RowID: 2, ColumnID: 1}, p.Val)
	require.Equal(t, term.Null{TableID: 3, RowID: 2, ColumnID: 1}, p.Null)
}

func TestEvalAttributeCorrelatedFallback(t *testing.T) {
	outer := &schema.TableSchema{
		TableID:   1,
		TableName: "outer_t",
		Columns:   []schema.ColumnSchema{{ColumnID: 0, ColumnName: "x", TableName: "outer_t"}},
		Bound:     2,
	}
	ctx := newFakeContext()
	ctx.outerTable, ctx.outerTupleIdx = outer, 1

	enc := NewRowEncoder(testTable(), ctx)
	p, err := enc.Eval(ast.Attribute{Name: "x"})
	require.NoError(t, err)
	require.Equal(t, term.Cell{TableID: 1, RowID: 1, ColumnID: 0}, p.Val)
}

func TestEvalAttributeUnknownPropagatesError(t *testing.T) {
	ctx := newFakeContext()
	enc := NewRowEncoder(testTable(), ctx)
	_, err := enc.Eval(ast.Attribute{Name: "nope"})
	require.Error(t, err)
}

func TestEvalBinOpComparison(t *testing.T) {
	ctx := newFakeContext()
	enc := NewRowEncoder(testTable(), ctx)
	enc.TupleIdx = 0

	p, err := enc.Eval(ast.BinOp{Op: "gt", Args: []ast.Expr{ast.Attribute{Name: "a"}, ast.Literal{Value: int64(5)}}})
	require.NoError(t, err)
	require.Equal(t, term.NewGt(term.Cell{TableID: 3, RowID: 0, ColumnID: 0}, term.IntLit{Value: 5}), p.Val)
}

func TestEvalBinOpDivByZeroIsNull(t *testing.T) {
	ctx := newFakeContext()
	enc := NewRowEncoder(testTable(), ctx)

	p, err := enc.Eval(ast.BinOp{Op: "div", Args: []ast.Expr{ast.Literal{Value: int64(4)}, ast.Literal{Value: int64(0)}}})
	require.NoError(t, err)
	require.Equal(t, term.NewEq(term.IntLit{Value: 0}, term.IntLit{Value: 0}), extractDivZeroCheck(t, p.Null))
}

// extractDivZeroCheck pulls the "divisor == 0" clause back out of an
// Or{[originalNull, divisorIsZero]} null formula, so the test can assert
// on the interesting half without over-specifying the whole tree shape.
func extractDivZeroCheck(t *testing.T, null term.Term) term.Term {
	or, ok := null.(term.Or)
	require.True(t, ok)
	require.Len(t, or.Disjuncts, 2)
	return or.Disjuncts[1]
}

func TestEvalBinOpAndOrThreeValuedLogic(t *testing.T) {
	ctx := newFakeContext()
	enc := NewRowEncoder(testTable(), ctx)

	// a NULL literal's Val is IntLit{0}, so EnsureBool lowers it to
	// Not(0 == 0) rather than leaving it untouched.
	nullAsBool := term.Not{X: term.NewEq(term.IntLit{Value: 0}, term.IntLit{Value: 0})}

	p, err := enc.Eval(ast.BinOp{Op: "or", Args: []ast.Expr{
		ast.Literal{Value: true}, ast.Literal{Value: nil},
	}})
	require.NoError(t, err)
	require.Equal(t, term.OrAll([]term.Term{term.BoolLit{Value: true}, nullAsBool}), p.Val)

	p, err = enc.Eval(ast.BinOp{Op: "and", Args: []ast.Expr{
		ast.Literal{Value: false}, ast.Literal{Value: nil},
	}})
	require.NoError(t, err)
	require.Equal(t, term.AndAll([]term.Term{term.BoolLit{Value: false}, nullAsBool}), p.Val)
}

func TestEvalUnOp(t *testing.T) {
	ctx := newFakeContext()
	enc := NewRowEncoder(testTable(), ctx)

	p, err := enc.Eval(ast.UnOp{Op: "not", Arg: ast.Literal{Value: true}})
	require.NoError(t, err)
	require.Equal(t, term.Not{X: term.BoolLit{Value: true}}, p.Val)

	p, err = enc.Eval(ast.UnOp{Op: "neg", Arg: ast.Literal{Value: int64(5)}})
	require.NoError(t, err)
	require.Equal(t, term.Neg{X: term.IntLit{Value: 5}}, p.Val)
}

func TestEvalIsNull(t *testing.T) {
	ctx := newFakeContext()
	enc := NewRowEncoder(testTable(), ctx)
	enc.TupleIdx = 1

	p, err := enc.Eval(ast.IsNull{Arg: ast.Attribute{Name: "a"}})
	require.NoError(t, err)
	require.Equal(t, term.Null{TableID: 3, RowID: 1, ColumnID: 0}, p.Val)

	p, err = enc.Eval(ast.IsNull{Arg: ast.Attribute{Name: "a"}, Not: true})
	require.NoError(t, err)
	require.Equal(t, term.Not{X: term.Null{TableID: 3, RowID: 1, ColumnID: 0}}, p.Val)
}

func TestForTupleLiftsToInt(t *testing.T) {
	ctx := newFakeContext()
	enc := NewRowEncoder(testTable(), ctx)

	p, err := enc.ForTuple(ast.Literal{Value: true}, 0)
	require.NoError(t, err)
	require.Equal(t, term.SortInt, p.Val.ReturnType())
}

func TestEvalSubqueryCorrelatesOuterRow(t *testing.T) {
	ctx := newFakeContext()
	ctx.subqueryOut = &schema.TableSchema{TableID: 9, Bound: 1}
	tbl := testTable()
	enc := NewRowEncoder(tbl, ctx)
	enc.TupleIdx = 2

	inner := &ast.Query{Select: &ast.Project{}}
	p, err := enc.Eval(ast.Subquery{Query: inner})
	require.NoError(t, err)
	require.Equal(t, term.Cell{TableID: 9, RowID: 0, ColumnID: 0}, p.Val)
	require.Equal(t, tbl.TableID, ctx.subqueryOuterTable)
	require.Equal(t, 2, ctx.subqueryOuterTuple)

	// A second reference to the same sub-query reuses the cached table
	// rather than re-encoding it.
	ctx.subqueryOut = &schema.TableSchema{TableID: 42, Bound: 1}
	p2, err := enc.Eval(ast.Subquery{Query: inner})
	require.NoError(t, err)
	require.Equal(t, p.Val, p2.Val)
}
