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

	"github.com/dolthub/go-sqleq/schema"
	"github.com/dolthub/go-sqleq/term"
)

// Distinct removes duplicate rows of input, keeping the first surviving
// occurrence of each distinct row image. Grounded in distinct.py;
// asserted under distinctLabel since the caller (Project/Union) shares
// one output table between its own label and this dedup constraint.
func Distinct(ctx Env, input *schema.TableSchema, distinctLabel string) (*schema.TableSchema, error) {
	output := cloneColumns(input, ctx.NextTableID(), input.Bound)
	output.Lineage = fmt.Sprintf("Duplicate eliminated from T%d", input.TableID)
	output.Ancestors = []*schema.TableSchema{input}
	ctx.AddTable(output)

	tupleEqual := func(t1, t2 int) term.Term {
		clauses := make([]term.Term, len(input.Columns))
		for c := range input.Columns {
			n1, n2 := ctx.Null(input.TableID, t1, c), ctx.Null(input.TableID, t2, c)
			clauses[c] = term.OrAll([]term.Term{
				term.AndAll([]term.Term{n1, n2}),
				term.AndAll([]term.Term{
					term.Not{X: term.OrAll([]term.Term{n1, n2})},
					term.NewEq(ctx.Cell(input.TableID, t1, c), ctx.Cell(input.TableID, t2, c)),
				}),
			})
		}
		return term.AndAll(clauses)
	}

	var cases, choiceConstraints []term.Term
	for i := 0; i < output.Bound; i++ {
		choiceConstraints = append(choiceConstraints, choiceBinary(output.TableID, i))

		mapping := make([]term.Term, len(input.Columns))
		for c := range input.Columns {
			mapping[c] = copyCell(ctx, input.TableID, i, output.TableID, i, c)
		}

		var seenBefore term.Term = term.BoolLit{Value: false}
		if i > 0 {
			dupWithPrev := make([]term.Term, i)
			for prev := 0; prev < i; prev++ {
				dupWithPrev[prev] = term.AndAll([]term.Term{term.Not{X: term.Deleted{TableID: output.TableID, RowID: prev}}, tupleEqual(i, prev)})
			}
			seenBefore = term.OrAll(dupWithPrev)
		}

		choice := term.Choice{TableID: output.TableID, BitID: i}
		cases = append(cases,
			term.Implies{
				Premise: term.NewEq(choice, term.IntLit{Value: 1}),
				Conclusion: term.AndAll([]term.Term{
					term.Not{X: term.Deleted{TableID: input.TableID, RowID: i}},
					term.Not{X: seenBefore},
					term.AndAll(mapping),
					term.Not{X: term.Deleted{TableID: output.TableID, RowID: i}},
				}),
			},
			term.Implies{
				Premise: term.NewEq(choice, term.IntLit{Value: 0}),
				Conclusion: term.AndAll([]term.Term{
					term.OrAll([]term.Term{
						term.Deleted{TableID: input.TableID, RowID: i},
						term.AndAll([]term.Term{term.Not{X: term.Deleted{TableID: input.TableID, RowID: i}}, seenBefore}),
					}),
					term.Deleted{TableID: output.TableID, RowID: i},
				}),
			},
		)
	}

	ctx.Assert(distinctLabel, term.AndAll(append(cases, choiceConstraints...)))
	ctx.BindTable(distinctLabel, output.TableID, output.Bound)
	return output, nil
}
