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
	"github.com/dolthub/go-sqleq/ast"
	"github.com/dolthub/go-sqleq/schema"
	"github.com/dolthub/go-sqleq/term"
)

// bindCall records one BindTable/BindSortedTable invocation so tests can
// assert on what the search engine would end up seeing.
type bindCall struct {
	label   string
	tableID int
	bits    int
	sorted  bool
}

// fakeEnv is a minimal Env: enough table/cell bookkeeping to drive an
// operator encoder, with every Assert/BindTable call recorded instead of
// handed to a real solver.
type fakeEnv struct {
	tables  map[string]*schema.TableSchema
	nextID  int
	added   []*schema.TableSchema
	asserts map[string]term.Term
	binds   []bindCall
}

func newFakeEnv(tables ...*schema.TableSchema) *fakeEnv {
	e := &fakeEnv{tables: map[string]*schema.TableSchema{}, asserts: map[string]term.Term{}}
	for _, t := range tables {
		e.tables[t.TableName] = t
		if t.TableID >= e.nextID {
			e.nextID = t.TableID + 1
		}
	}
	return e
}

func (e *fakeEnv) EncodeSubquery(q *ast.Query, outerTableID, outerTupleID int) (*schema.TableSchema, error) {
	return nil, schema.ErrUnknownTable.New("subqueries unsupported in fakeEnv")
}
func (e *fakeEnv) StringHash(s string) int64 { return int64(len(s)) }
func (e *fakeEnv) FindTableByName(name string, queryID int) (*schema.TableSchema, error) {
	t, ok := e.tables[name]
	if !ok {
		return nil, schema.ErrUnknownTable.New(name)
	}
	return t, nil
}
func (e *fakeEnv) CurrQueryID() int { return 0 }
func (e *fakeEnv) Cell(tableID, rowID, columnID int) term.Term {
	return term.Cell{TableID: tableID, RowID: rowID, ColumnID: columnID}
}
func (e *fakeEnv) Null(tableID, rowID, columnID int) term.Term {
	return term.Null{TableID: tableID, RowID: rowID, ColumnID: columnID}
}
func (e *fakeEnv) OuterContext() (*schema.TableSchema, int) { return nil, -1 }

func (e *fakeEnv) NextTableID() int {
	id := e.nextID
	e.nextID++
	return id
}
func (e *fakeEnv) AddTable(t *schema.TableSchema) {
	e.added = append(e.added, t)
	e.tables[t.TableName] = t
}
func (e *fakeEnv) Assert(label string, t term.Term) { e.asserts[label] = t }
func (e *fakeEnv) BindTable(label string, tableID, bits int) {
	e.binds = append(e.binds, bindCall{label, tableID, bits, false})
}
func (e *fakeEnv) BindSortedTable(label string, tableID, bits int) {
	e.binds = append(e.binds, bindCall{label, tableID, bits, true})
}

func peopleTable() *schema.TableSchema {
	return &schema.TableSchema{
		TableID:   0,
		TableName: "people",
		Columns: []schema.ColumnSchema{
			{ColumnID: 0, ColumnName: "id", ColumnType: schema.TypeInt, TableName: "people"},
			{ColumnID: 1, ColumnName: "age", ColumnType: schema.TypeInt, TableName: "people"},
		},
		Bound: 3,
	}
}
