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

	"github.com/dolthub/go-sqleq/ast"
	"github.com/dolthub/go-sqleq/encode"
	"github.com/dolthub/go-sqleq/schema"
	"github.com/dolthub/go-sqleq/term"
)

// GroupBy partitions input into at most node.UnderBound groups and
// optionally filters those groups by node.Having, grounded in
// group_by.py's FGroupBy. The output table addresses two disjoint
// choice-bit ranges over the same group index space: [0, UnderBound)
// picks which input rows become group representatives, and
// [UnderBound, UnderBound+UnderBound) filters the resulting groups by
// HAVING. The HAVING phase must range over the same group indices the
// representative phase produced, so (unlike Filter/Join's independent
// precise/approximate bounds) it is sized to UnderBound rather than to
// node.HavingBound; HavingBound is kept as a distinct knob for whatever
// later stage reads the post-HAVING group count, but the bit range
// itself stays aligned to the group space it filters.
func GroupBy(ctx Env, input *schema.TableSchema, node *ast.GroupBy) (*schema.TableSchema, error) {
	groups := node.UnderBound

	output := cloneColumns(input, ctx.NextTableID(), groups)
	output.Lineage = fmt.Sprintf("Grouped from T%d", input.TableID)
	output.Ancestors = []*schema.TableSchema{input}
	ctx.AddTable(output)

	rowEnc := encode.NewRowEncoder(input, ctx)
	groupEnc := encode.NewGroupEncoder(input, output.TableID, ctx)

	groupByExp := make([][]encode.Pair, input.Bound)
	for row := 0; row < input.Bound; row++ {
		exprs := make([]encode.Pair, len(node.Exprs))
		for i, e := range node.Exprs {
			p, err := rowEnc.ForTuple(e, row)
			if err != nil {
				return nil, err
			}
			exprs[i] = p
		}
		groupByExp[row] = exprs
	}

	groupByExpEqual := func(t1, t2 int) term.Term {
		clauses := make([]term.Term, len(node.Exprs))
		for i := range node.Exprs {
			p1, p2 := groupByExp[t1][i], groupByExp[t2][i]
			clauses[i] = term.OrAll([]term.Term{
				term.AndAll([]term.Term{p1.Null, p2.Null}),
				term.AndAll([]term.Term{
					term.Not{X: term.OrAll([]term.Term{p1.Null, p2.Null})},
					term.NewEq(p1.Val, p2.Val),
				}),
			})
		}
		return term.AndAll(clauses)
	}

	var cases, choiceConstraints []term.Term

	// Every non-deleted input row belongs to exactly one group; a
	// deleted row belongs to none.
	for row := 0; row < input.Bound; row++ {
		membership := make([]term.Term, groups)
		for g := 0; g < groups; g++ {
			membership[g] = term.Ite{Cond: term.Grouping{TableID: output.TableID, RowID: row, GroupID: g}, Then: term.IntLit{Value: 1}, Else: term.IntLit{Value: 0}}
		}
		notGrouped := make([]term.Term, groups)
		for g := 0; g < groups; g++ {
			notGrouped[g] = term.Not{X: term.Grouping{TableID: output.TableID, RowID: row, GroupID: g}}
		}
		cases = append(cases,
			term.Implies{
				Premise:    term.Deleted{TableID: input.TableID, RowID: row},
				Conclusion: term.AndAll(notGrouped),
			},
			term.Implies{
				Premise:    term.Not{X: term.Deleted{TableID: input.TableID, RowID: row}},
				Conclusion: term.NewEq(term.Sum(membership), term.IntLit{Value: 1}),
			},
		)
	}

	// pseudoDeleted is the auxiliary "group g was not chosen as a
	// representative" relation, addressed under output's negative table
	// id per the original's Deleted(-output_table_id, group_idx)
	// convention, distinct from the real output table's own Deleted.
	pseudoDeleted := func(g int) term.Term { return term.Deleted{TableID: -output.TableID, RowID: g} }

	for g := 0; g < groups; g++ {
		choiceConstraints = append(choiceConstraints, choiceBinary(output.TableID, g))

		var dupWithPrev []term.Term
		for prev := 0; prev < g; prev++ {
			dupWithPrev = append(dupWithPrev, term.AndAll([]term.Term{term.Not{X: pseudoDeleted(prev)}, groupByExpEqual(g, prev)}))
		}
		var isUnique term.Term = term.BoolLit{Value: true}
		var isDuplicate term.Term = term.BoolLit{Value: false}
		if g > 0 {
			isUnique = term.Not{X: term.OrAll(dupWithPrev)}

			var dupWithGrouping []term.Term
			for prev := 0; prev < g; prev++ {
				dupWithGrouping = append(dupWithGrouping, term.AndAll([]term.Term{
					term.Not{X: pseudoDeleted(prev)},
					groupByExpEqual(g, prev),
					term.Grouping{TableID: output.TableID, RowID: g, GroupID: prev},
				}))
			}
			isDuplicate = term.OrAll(dupWithGrouping)
		}

		choice := term.Choice{TableID: output.TableID, BitID: g}
		cases = append(cases,
			term.Implies{
				Premise: term.NewEq(choice, term.IntLit{Value: 1}),
				Conclusion: term.AndAll([]term.Term{
					term.Not{X: term.Deleted{TableID: input.TableID, RowID: g}},
					isUnique,
					term.Grouping{TableID: output.TableID, RowID: g, GroupID: g},
					term.Not{X: pseudoDeleted(g)},
				}),
			},
			term.Implies{
				Premise: term.NewEq(choice, term.IntLit{Value: 0}),
				Conclusion: term.AndAll([]term.Term{
					term.OrAll([]term.Term{
						term.Deleted{TableID: input.TableID, RowID: g},
						term.AndAll([]term.Term{term.Not{X: term.Deleted{TableID: input.TableID, RowID: g}}, isDuplicate}),
					}),
					pseudoDeleted(g),
				}),
			},
		)
	}

	havingStart := groups
	for g := 0; g < groups; g++ {
		bit := havingStart + g
		choiceConstraints = append(choiceConstraints, choiceBinary(output.TableID, bit))

		var havingVal, havingNull term.Term = term.BoolLit{Value: true}, term.BoolLit{Value: false}
		if node.Having != nil {
			p, err := groupEnc.ForGroup(node.Having, g)
			if err != nil {
				return nil, err
			}
			havingVal, havingNull = term.EnsureBool(p.Val), p.Null
		}

		choice := term.Choice{TableID: output.TableID, BitID: bit}
		cases = append(cases,
			term.Implies{
				Premise: term.NewEq(choice, term.IntLit{Value: 1}),
				Conclusion: term.AndAll([]term.Term{
					term.Not{X: pseudoDeleted(g)},
					term.AndAll([]term.Term{term.Not{X: havingNull}, havingVal}),
					term.Not{X: term.Deleted{TableID: output.TableID, RowID: g}},
				}),
			},
			term.Implies{
				Premise: term.NewEq(choice, term.IntLit{Value: 0}),
				Conclusion: term.AndAll([]term.Term{
					term.OrAll([]term.Term{
						pseudoDeleted(g),
						term.AndAll([]term.Term{term.Not{X: pseudoDeleted(g)}, term.Not{X: term.AndAll([]term.Term{term.Not{X: havingNull}, havingVal})}}),
					}),
					term.Deleted{TableID: output.TableID, RowID: g},
				}),
			},
		)
	}

	ctx.Assert(node.Label(), term.AndAll(append(cases, choiceConstraints...)))
	ctx.BindTable(node.Label(), output.TableID, 2*groups)
	return output, nil
}
