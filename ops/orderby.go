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
	"fmt"
	"strconv"

	"github.com/dolthub/go-sqleq/ast"
	"github.com/dolthub/go-sqleq/encode"
	"github.com/dolthub/go-sqleq/schema"
	"github.com/dolthub/go-sqleq/term"
)

// OrderBy ranks input's surviving rows by node.Exprs/Desc (NULL sorts
// first ascending, last descending)
// and places the ith-ranked row at output position i-1, grounded in
// order_by.py. Unlike Filter/Join/Project's precise-then-compacted pair,
// the output table is sized directly at node.UnderBound (the original's
// k): there is no separate precise table since rank, not row identity,
// determines output position. node.Limit then shrinks the output's
// effective bound, a thin post-step with no extra assertions, matching
// the original's `output_table.bound = self.limit` after semantics runs.
func OrderBy(ctx Env, input *schema.TableSchema, node *ast.OrderBy) (*schema.TableSchema, error) {
	k := node.UnderBound
	output := cloneColumns(input, ctx.NextTableID(), k)
	output.Lineage = fmt.Sprintf("Sorted from T%d", input.TableID)
	output.Ancestors = []*schema.TableSchema{input}
	ctx.AddTable(output)

	ctx.Assert("size_"+strconv.Itoa(input.TableID), term.NewLte(term.Sum(nonDeletedCount(input.TableID, input.Bound)), term.IntLit{Value: int64(k)}))

	enc := encode.NewRowEncoder(input, ctx)
	exprPair := func(e ast.Expr, row int) (term.Term, term.Term, error) {
		p, err := enc.ForTuple(e, row)
		if err != nil {
			return nil, nil, err
		}
		return p.Val, p.Null, nil
	}

	var cases, choiceConstraints []term.Term
	for row := 0; row < input.Bound; row++ {
		choice := term.Choice{TableID: output.TableID, BitID: row}
		choiceConstraints = append(choiceConstraints, term.AndAll([]term.Term{
			term.NewGte(choice, term.IntLit{Value: 0}),
			term.NewLte(choice, term.IntLit{Value: int64(k)}),
		}))

		cases = append(cases, term.Implies{
			Premise:    term.NewEq(choice, term.IntLit{Value: 0}),
			Conclusion: term.Deleted{TableID: input.TableID, RowID: row},
		})

		for ordering := 1; ordering <= k; ordering++ {
			var numBefore []term.Term
			for other := 0; other < input.Bound; other++ {
				if other == row {
					continue
				}

				var isBefore, prevEq []term.Term
				for i, e := range node.Exprs {
					thisVal, thisNull, err := exprPair(e, row)
					if err != nil {
						return nil, err
					}
					otherVal, otherNull, err := exprPair(e, other)
					if err != nil {
						return nil, err
					}

					var cmp term.Term
					if !node.Desc[i] {
						cmp = term.NewLte(otherVal, thisVal)
					} else {
						cmp = term.NewGte(otherVal, thisVal)
					}

					nullBefore := term.AndAll([]term.Term{otherNull, term.Not{X: thisNull}})
					if node.Desc[i] {
						nullBefore = term.AndAll([]term.Term{term.Not{X: otherNull}, thisNull})
					}
					isBefore = append(isBefore, term.AndAll([]term.Term{
						term.AndAll(cloneTerms(prevEq)),
						term.Not{X: term.Deleted{TableID: input.TableID, RowID: other}},
						term.OrAll([]term.Term{
							nullBefore,
							term.AndAll([]term.Term{term.Not{X: otherNull}, term.Not{X: thisNull}, cmp}),
						}),
					}))
					prevEq = append(prevEq, term.AndAll([]term.Term{
						term.Not{X: term.Deleted{TableID: input.TableID, RowID: other}},
						term.OrAll([]term.Term{
							term.AndAll([]term.Term{otherNull, thisNull}),
							term.AndAll([]term.Term{term.Not{X: otherNull}, term.Not{X: thisNull}, term.NewEq(otherVal, thisVal)}),
						}),
					}))
				}
				numBefore = append(numBefore, term.OrAll(isBefore))
			}

			mapping := make([]term.Term, len(input.Columns))
			for c := range input.Columns {
				mapping[c] = copyCell(ctx, input.TableID, row, output.TableID, ordering-1, c)
			}

			numBeforeInts := make([]term.Term, len(numBefore))
			for i, b := range numBefore {
				numBeforeInts[i] = term.Ite{Cond: b, Then: term.IntLit{Value: 1}, Else: term.IntLit{Value: 0}}
			}

			cases = append(cases, term.Implies{
				Premise: term.NewEq(choice, term.IntLit{Value: int64(ordering)}),
				Conclusion: term.AndAll([]term.Term{
					term.Not{X: term.Deleted{TableID: input.TableID, RowID: row}},
					term.Not{X: term.Deleted{TableID: output.TableID, RowID: ordering - 1}},
					term.NewEq(term.Sum(numBeforeInts), term.IntLit{Value: int64(ordering - 1)}),
					term.AndAll(mapping),
				}),
			})
		}
	}

	for pos := 0; pos < output.Bound; pos++ {
		ranked := make([]term.Term, input.Bound)
		for bit := 0; bit < input.Bound; bit++ {
			ranked[bit] = term.Ite{Cond: term.NewNeq(term.Choice{TableID: output.TableID, BitID: bit}, term.IntLit{Value: 0}), Then: term.IntLit{Value: 1}, Else: term.IntLit{Value: 0}}
		}
		cases = append(cases, term.Implies{
			Premise:    term.NewLte(term.Sum(ranked), term.IntLit{Value: int64(pos)}),
			Conclusion: term.Deleted{TableID: output.TableID, RowID: pos},
		})
	}

	ctx.Assert(node.Label(), term.AndAll(append(cases, choiceConstraints...)))
	// Choice(output.TableID, ...) above ranges over input rows, not
	// output positions, so the cover the search builds for this label
	// must span input.Bound bits, not output.Bound (=k). These Choice
	// values are also ranks in [0,k], not binary decisions, so this
	// table's vector is never pinned, only ever left fully free.
	ctx.BindSortedTable(node.Label(), output.TableID, input.Bound)

	if node.Limit != nil && *node.Limit < output.Bound {
		output.Bound = *node.Limit
	}
	return output, nil
}

func cloneTerms(ts []term.Term) []term.Term {
	out := make([]term.Term, len(ts))
	copy(out, ts)
	return out
}
