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
	"strconv"

	"github.com/dolthub/go-sqleq/schema"
	"github.com/dolthub/go-sqleq/term"
)

// cloneColumns allocates a fresh TableSchema over tableID with the same
// column shape as src, the create_output_table boilerplate every
// formula file in the original repeats (deepcopy each ColumnSchema,
// append to a new TableSchema).
func cloneColumns(src *schema.TableSchema, tableID int, bound int) *schema.TableSchema {
	cols := make([]schema.ColumnSchema, len(src.Columns))
	copy(cols, src.Columns)
	return &schema.TableSchema{TableID: tableID, TableName: src.TableName, Columns: cols, Bound: bound}
}

// choiceBinary asserts Choice(table, bit) is either 1 or 0, the
// recurring `Or([Choice(...) == 1, Choice(...) == 0])` clause.
func choiceBinary(tableID, bit int) term.Term {
	c := term.Choice{TableID: tableID, BitID: bit}
	return term.OrAll([]term.Term{term.NewEq(c, term.IntLit{Value: 1}), term.NewEq(c, term.IntLit{Value: 0})})
}

// copyCell asserts that one table's (row, col) cell mirrors another's,
// the original's `env.copy_cell`: VAL equal and NULL equal.
func copyCell(ctx Env, fromTable, fromRow, toTable, toRow, col int) term.Term {
	return term.AndAll([]term.Term{
		term.NewEq(ctx.Cell(fromTable, fromRow, col), ctx.Cell(toTable, toRow, col)),
		term.NewEq(ctx.Null(fromTable, fromRow, col), ctx.Null(toTable, toRow, col)),
	})
}

func copyRow(ctx Env, fromTable, fromRow, toTable, toRow, numCols int) term.Term {
	clauses := make([]term.Term, numCols)
	for c := 0; c < numCols; c++ {
		clauses[c] = copyCell(ctx, fromTable, fromRow, toTable, toRow, c)
	}
	return term.AndAll(clauses)
}

func nonDeletedCount(tableID, bound int) []term.Term {
	terms := make([]term.Term, bound)
	for i := 0; i < bound; i++ {
		terms[i] = term.Ite{Cond: term.Deleted{TableID: tableID, RowID: i}, Then: term.IntLit{Value: 0}, Else: term.IntLit{Value: 1}}
	}
	return terms
}

// compactOutput implements the "map the precise output vector down to
// an under-approximated one" step shared by filter/join/project: assert
// the precise output's non-deleted row count fits the approximate
// bound, then for every approximate slot, assert it holds whichever
// precise row is the nth non-deleted one (or is itself deleted, past
// the precise output's actual size). Grounded in filter.py/inner_join.py/
// project.py's identical tail half, generalized to one function instead
// of four near-identical copies.
func compactOutput(ctx Env, preciseTableID, preciseBound, approxTableID, approxBound, numCols int) term.Term {
	sizeTerm := term.Sum(nonDeletedCount(preciseTableID, preciseBound))
	ctx.Assert("size_"+strconv.Itoa(preciseTableID), term.NewLte(sizeTerm, term.IntLit{Value: int64(approxBound)}))

	var cases []term.Term
	for mapped := 0; mapped < approxBound; mapped++ {
		var mapping []term.Term
		for out := 0; out < preciseBound; out++ {
			isNth := term.AndAll([]term.Term{
				term.Not{X: term.Deleted{TableID: preciseTableID, RowID: out}},
				term.NewEq(term.Sum(nonDeletedCount(preciseTableID, out)), term.IntLit{Value: int64(mapped)}),
			})
			mapping = append(mapping, term.Implies{Premise: isNth, Conclusion: copyRow(ctx, preciseTableID, out, approxTableID, mapped, numCols)})
		}
		cases = append(cases,
			term.Implies{
				Premise: term.NewGte(sizeTerm, term.IntLit{Value: int64(mapped + 1)}),
				Conclusion: term.AndAll([]term.Term{
					term.Not{X: term.Deleted{TableID: approxTableID, RowID: mapped}},
					term.AndAll(mapping),
				}),
			},
			term.Implies{
				Premise:    term.Not{X: term.NewGte(sizeTerm, term.IntLit{Value: int64(mapped + 1)})},
				Conclusion: term.Deleted{TableID: approxTableID, RowID: mapped},
			},
		)
	}
	return term.AndAll(cases)
}
