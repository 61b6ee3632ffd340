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
	"strings"

	"github.com/dolthub/go-sqleq/ast"
	"github.com/dolthub/go-sqleq/encode"
	"github.com/dolthub/go-sqleq/schema"
	"github.com/dolthub/go-sqleq/term"
)

// cellPair is one (value, null) pair addressed by fixed coordinates,
// the unit output_equivalence compares column by column.
type cellPair struct{ val, null term.Term }

func tupleCells(t *schema.TableSchema, row int) []cellPair {
	out := make([]cellPair, len(t.Columns))
	for k := range t.Columns {
		out[k] = cellPair{term.Cell{TableID: t.TableID, RowID: row, ColumnID: k}, term.Null{TableID: t.TableID, RowID: row, ColumnID: k}}
	}
	return out
}

// multiplicity counts r's non-deleted rows whose cells match target
// column-by-column (NULL-NULL counted equal), grounded in
// environment.py's o1_eq_o2/f_multiplicity.
func multiplicity(r *schema.TableSchema, target []cellPair) term.Term {
	indicators := make([]term.Term, r.Bound)
	for i := 0; i < r.Bound; i++ {
		conj := []term.Term{term.Not{X: term.Deleted{TableID: r.TableID, RowID: i}}}
		for k := range r.Columns {
			rCell := term.Cell{TableID: r.TableID, RowID: i, ColumnID: k}
			rNull := term.Null{TableID: r.TableID, RowID: i, ColumnID: k}
			conj = append(conj, term.OrAll([]term.Term{
				term.AndAll([]term.Term{rNull, target[k].null}),
				term.AndAll([]term.Term{term.Not{X: rNull}, term.Not{X: target[k].null}, term.NewEq(rCell, target[k].val)}),
			}))
		}
		indicators[i] = term.Ite{Cond: term.AndAll(conj), Then: term.IntLit{Value: 1}, Else: term.IntLit{Value: 0}}
	}
	return term.Sum(indicators)
}

// isSorted reports whether t carries the OrderBy lineage tag the bag/list
// switch of spec.md §4.10 keys off.
func isSorted(t *schema.TableSchema) bool { return strings.Contains(t.Lineage, "Sorted") }

// equivalent builds the `o1 ≡ o2` proposition of spec.md §4.10: bag
// equality by default (same size, and every out1 row's multiplicity in
// out1 equals its multiplicity in out2 -- checking one direction
// suffices once sizes are tied), widened to list equality with an
// additional position-wise comparison on the ORDER BY expressions when
// both sides are Sorted. sortExprs1/sortExprs2 are q1/q2's ORDER BY
// expression lists, nil when the corresponding query is unsorted.
//
// When the column counts differ, spec.md §4.10 states the outputs are
// equivalent only if both are empty; environment.py's own o1_eq_o2
// returns `Or([o1_size > 0, o2_size > 0])` for this case, which is the
// negation of that stated rule (a bug, not a deliberate relaxation) --
// this encoder follows spec.md's explicit prose instead.
func equivalent(ctx encode.Context, out1, out2 *schema.TableSchema, sortExprs1, sortExprs2 []ast.Expr) term.Term {
	size1 := term.Count(out1.TableID, out1.Bound)
	size2 := term.Count(out2.TableID, out2.Bound)

	if len(out1.Columns) != len(out2.Columns) {
		return term.AndAll([]term.Term{term.NewEq(size1, term.IntLit{Value: 0}), term.NewEq(size2, term.IntLit{Value: 0})})
	}

	var lateral []term.Term
	for row := 0; row < out1.Bound; row++ {
		target := tupleCells(out1, row)
		lateral = append(lateral, term.Implies{
			Premise:    term.Not{X: term.Deleted{TableID: out1.TableID, RowID: row}},
			Conclusion: term.NewEq(multiplicity(out1, target), multiplicity(out2, target)),
		})
	}
	f := []term.Term{term.NewEq(size1, size2), term.AndAll(lateral)}

	if isSorted(out1) && isSorted(out2) && len(sortExprs1) > 0 {
		f = append(f, sortedPositionalEq(ctx, out1, out2, sortExprs1))
	}
	return term.AndAll(f)
}

// sortedPositionalEq adds the list-equality requirement that, for every
// non-deleted row of out1, the ORDER BY expressions evaluate equal
// (NULL-NULL counted equal) at the same row index of out2. Evaluated
// against exprs (out1's own ORDER BY list; out1 and out2 share column
// shape by construction once column counts have already been checked
// equal), grounded in o1_eq_o2's sorted_columns_list_eq.
func sortedPositionalEq(ctx encode.Context, out1, out2 *schema.TableSchema, exprs []ast.Expr) term.Term {
	enc1 := encode.NewRowEncoder(out1, ctx)
	enc2 := encode.NewRowEncoder(out2, ctx)

	var eqs []term.Term
	bound := out1.Bound
	if out2.Bound < bound {
		bound = out2.Bound
	}
	for row := 0; row < bound; row++ {
		for _, e := range exprs {
			p1, err := enc1.ForTuple(e, row)
			if err != nil {
				continue
			}
			p2, err := enc2.ForTuple(e, row)
			if err != nil {
				continue
			}
			eqs = append(eqs, term.Implies{
				Premise: term.Not{X: term.Deleted{TableID: out1.TableID, RowID: row}},
				Conclusion: term.OrAll([]term.Term{
					term.AndAll([]term.Term{p1.Null, p2.Null}),
					term.AndAll([]term.Term{term.Not{X: p1.Null}, term.Not{X: p2.Null}, term.NewEq(p1.Val, p2.Val)}),
				}),
			})
		}
	}
	if len(eqs) == 0 {
		return term.BoolLit{Value: true}
	}
	return term.AndAll(eqs)
}
