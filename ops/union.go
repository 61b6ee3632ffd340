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
	"strings"

	"github.com/dolthub/go-sqleq/ast"
	"github.com/dolthub/go-sqleq/schema"
	"github.com/dolthub/go-sqleq/term"
)

// Union concatenates inputs' surviving rows into one output table sized
// to the sum of their bounds, then deduplicates unless
// node.AllowDuplicates (UNION ALL), grounded in union.py. There is no
// under-approximation compaction step here: the original never shrinks
// a union's output below the sum of its inputs' bounds.
func Union(ctx Env, inputs []*schema.TableSchema, node *ast.Union) (*schema.TableSchema, error) {
	bound := 0
	names := make([]string, len(inputs))
	ids := make([]string, len(inputs))
	for i, t := range inputs {
		bound += t.Bound
		names[i] = t.TableName
		ids[i] = strconv.Itoa(t.TableID)
	}

	output := cloneColumns(inputs[0], ctx.NextTableID(), bound)
	output.TableName = "!" + strings.Join(names, "_UNION_") + "!"
	output.Lineage = fmt.Sprintf("Union of T%s", strings.Join(ids, ", "))
	output.Ancestors = append([]*schema.TableSchema{}, inputs...)
	ctx.AddTable(output)

	var cases, choiceConstraints []term.Term
	outRow := 0
	for _, t := range inputs {
		for row := 0; row < t.Bound; row++ {
			choiceConstraints = append(choiceConstraints, choiceBinary(output.TableID, outRow))

			mapping := make([]term.Term, len(t.Columns))
			for c := range t.Columns {
				mapping[c] = copyCell(ctx, t.TableID, row, output.TableID, outRow, c)
			}

			choice := term.Choice{TableID: output.TableID, BitID: outRow}
			cases = append(cases,
				term.Implies{
					Premise: term.NewEq(choice, term.IntLit{Value: 1}),
					Conclusion: term.AndAll([]term.Term{
						term.Not{X: term.Deleted{TableID: t.TableID, RowID: row}},
						term.AndAll(mapping),
						term.Not{X: term.Deleted{TableID: output.TableID, RowID: outRow}},
					}),
				},
				term.Implies{
					Premise: term.NewEq(choice, term.IntLit{Value: 0}),
					Conclusion: term.AndAll([]term.Term{
						term.Deleted{TableID: t.TableID, RowID: row},
						term.Deleted{TableID: output.TableID, RowID: outRow},
					}),
				},
			)
			outRow++
		}
	}

	ctx.Assert(node.Label(), term.AndAll(append(cases, choiceConstraints...)))
	ctx.BindTable(node.Label(), output.TableID, output.Bound)

	if node.AllowDuplicates {
		return output, nil
	}
	return Distinct(ctx, output, node.DistinctLabel)
}
