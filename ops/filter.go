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

// Filter keeps input rows satisfying node.Predicate (WHERE, or a
// standalone HAVING with no GROUP BY), grounded in filter.py.
func Filter(ctx Env, input *schema.TableSchema, node *ast.Filter) (*schema.TableSchema, error) {
	output := cloneColumns(input, ctx.NextTableID(), input.Bound)
	output.Lineage = fmt.Sprintf("Filtered from T%d (%s)", input.TableID, node.Label())
	output.Ancestors = []*schema.TableSchema{input}
	ctx.AddTable(output)

	result := output
	var approx *schema.TableSchema
	if node.UnderBound < output.Bound {
		approx = cloneColumns(output, ctx.NextTableID(), node.UnderBound)
		ctx.AddTable(approx)
		result = approx
	}

	enc := encode.NewRowEncoder(input, ctx)
	var cases, choiceConstraints []term.Term
	for i := 0; i < output.Bound; i++ {
		choiceConstraints = append(choiceConstraints, choiceBinary(output.TableID, i))

		p, err := enc.ForTuple(node.Predicate, i)
		if err != nil {
			return nil, err
		}
		val, null := term.EnsureBool(p.Val), p.Null

		mapping := make([]term.Term, len(input.Columns))
		for c := range input.Columns {
			mapping[c] = copyCell(ctx, input.TableID, i, output.TableID, i, c)
		}

		choice := term.Choice{TableID: output.TableID, BitID: i}
		cases = append(cases,
			term.Implies{
				Premise: term.NewEq(choice, term.IntLit{Value: 1}),
				Conclusion: term.AndAll([]term.Term{
					term.Not{X: term.Deleted{TableID: input.TableID, RowID: i}},
					term.AndAll([]term.Term{term.Not{X: null}, val}),
					term.AndAll(mapping),
					term.Not{X: term.Deleted{TableID: output.TableID, RowID: i}},
				}),
			},
			term.Implies{
				Premise: term.NewEq(choice, term.IntLit{Value: 0}),
				Conclusion: term.AndAll([]term.Term{
					term.OrAll([]term.Term{
						term.Deleted{TableID: input.TableID, RowID: i},
						term.AndAll([]term.Term{
							term.Not{X: term.Deleted{TableID: input.TableID, RowID: i}},
							term.OrAll([]term.Term{null, term.AndAll([]term.Term{term.Not{X: null}, term.Not{X: val}})}),
						}),
					}),
					term.Deleted{TableID: output.TableID, RowID: i},
				}),
			},
		)
	}

	f := term.AndAll(append(cases, choiceConstraints...))
	if approx != nil {
		f = term.AndAll([]term.Term{f, compactOutput(ctx, output.TableID, output.Bound, approx.TableID, approx.Bound, len(input.Columns))})
	}
	ctx.Assert(node.Label(), f)
	ctx.BindTable(node.Label(), output.TableID, output.Bound)
	return result, nil
}
