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

// columnOwner records, for one output column of a join, which input
// table/column it was copied from — base_join.py's `self.mapping`.
type columnOwner struct {
	tableID, columnID int
	fromLeft          bool
}

func joinColumns(left, right *schema.TableSchema) ([]schema.ColumnSchema, []columnOwner) {
	cols := make([]schema.ColumnSchema, 0, len(left.Columns)+len(right.Columns))
	owners := make([]columnOwner, 0, cap(cols))
	id := 0
	for _, c := range left.Columns {
		owners = append(owners, columnOwner{left.TableID, c.ColumnID, true})
		c.ColumnID = id
		cols = append(cols, c)
		id++
	}
	for _, c := range right.Columns {
		owners = append(owners, columnOwner{right.TableID, c.ColumnID, false})
		c.ColumnID = id
		cols = append(cols, c)
		id++
	}
	return cols, owners
}

// rewriteUsing turns a USING(col) clause into an equivalent equality
// predicate, the original's constructor-time rewrite in base_join.py.
func rewriteUsing(left, right *schema.TableSchema, using []string) ast.Expr {
	if len(using) == 0 {
		return nil
	}
	var conj ast.Expr
	for _, col := range using {
		eq := ast.BinOp{Op: "eq", Args: []ast.Expr{
			ast.Attribute{Name: left.TableName + "." + col},
			ast.Attribute{Name: right.TableName + "." + col},
		}}
		if conj == nil {
			conj = eq
		} else {
			conj = ast.BinOp{Op: "and", Args: []ast.Expr{conj, eq}}
		}
	}
	return conj
}

// Join dispatches to the bijective-product encoder for every join kind.
// RightJoin is realized by swapping sides into a left join and
// reordering the output columns back, per SPEC_FULL.md's resolution of
// the original's independent-but-structurally-identical right_join.py.
func Join(ctx Env, left, right *schema.TableSchema, node *ast.Join) (*schema.TableSchema, error) {
	cond := node.Condition
	if len(node.Using) > 0 {
		cond = rewriteUsing(left, right, node.Using)
	}

	switch node.Type {
	case ast.InnerJoin, ast.CrossJoin:
		return encodeJoin(ctx, left, right, cond, node, false, false)
	case ast.LeftJoin:
		return encodeJoin(ctx, left, right, cond, node, true, false)
	case ast.FullJoin:
		return encodeJoin(ctx, left, right, cond, node, true, true)
	case ast.RightJoin:
		swapped, err := encodeJoin(ctx, right, left, cond, node, true, false)
		if err != nil {
			return nil, err
		}
		return reorderRightJoinOutput(ctx, swapped, len(right.Columns), len(left.Columns))
	default:
		return nil, ErrUnsupportedJoin.New(node.Type)
	}
}

// encodeJoin builds the bijective left x right product block, optionally
// followed by a left-only null-row block (includeLeftNulls, left_join.py)
// and/or a right-only null-row block (includeRightNulls, the full join
// case the original does not factor out but which is the symmetric
// mirror of left_join.py's block).
func encodeJoin(ctx Env, left, right *schema.TableSchema, cond ast.Expr, node *ast.Join, includeLeftNulls, includeRightNulls bool) (*schema.TableSchema, error) {
	preciseBound := left.Bound * right.Bound
	if includeLeftNulls {
		preciseBound += left.Bound
	}
	if includeRightNulls {
		preciseBound += right.Bound
	}

	cols, owners := joinColumns(left, right)
	outputID := ctx.NextTableID()
	output := &schema.TableSchema{TableID: outputID, TableName: "!" + left.TableName + "_JOIN_" + right.TableName + "!", Columns: cols, Bound: preciseBound}
	output.Ancestors = []*schema.TableSchema{left, right}
	output.Lineage = fmt.Sprintf("Joined from T%d and T%d", left.TableID, right.TableID)
	ctx.AddTable(output)

	result := output
	var approx *schema.TableSchema
	if node.UnderBound < output.Bound {
		approx = cloneColumns(output, ctx.NextTableID(), node.UnderBound)
		ctx.AddTable(approx)
		result = approx
	}

	var cases, choiceConstraints []term.Term
	enc := encode.NewJoinEncoder(left, right, ctx)

	bit := 0
	leftBits := make(map[int][]int, left.Bound)
	for li := 0; li < left.Bound; li++ {
		for ri := 0; ri < right.Bound; ri++ {
			idx := bit
			leftBits[li] = append(leftBits[li], idx)

			var val, null term.Term = term.BoolLit{Value: true}, term.BoolLit{Value: false}
			if cond != nil {
				p, err := enc.ForTuplePair(cond, li, ri)
				if err != nil {
					return nil, err
				}
				val, null = p.Val, p.Null
			}

			choiceConstraints = append(choiceConstraints, choiceBinary(output.TableID, idx))

			mapping := make([]term.Term, len(cols))
			for c, owner := range owners {
				row := ri
				if owner.fromLeft {
					row = li
				}
				mapping[c] = copyCell(ctx, owner.tableID, row, output.TableID, idx, owner.columnID)
			}

			choice := term.Choice{TableID: output.TableID, BitID: idx}
			cases = append(cases,
				term.Implies{
					Premise: term.NewEq(choice, term.IntLit{Value: 1}),
					Conclusion: term.AndAll([]term.Term{
						term.Not{X: term.Deleted{TableID: left.TableID, RowID: li}},
						term.Not{X: term.Deleted{TableID: right.TableID, RowID: ri}},
						term.AndAll([]term.Term{term.Not{X: null}, val}),
						term.AndAll(mapping),
						term.Not{X: term.Deleted{TableID: output.TableID, RowID: idx}},
					}),
				},
				term.Implies{
					Premise: term.NewEq(choice, term.IntLit{Value: 0}),
					Conclusion: term.AndAll([]term.Term{
						term.OrAll([]term.Term{
							term.Deleted{TableID: left.TableID, RowID: li},
							term.Deleted{TableID: right.TableID, RowID: ri},
							term.AndAll([]term.Term{
								term.Not{X: term.OrAll([]term.Term{term.Deleted{TableID: left.TableID, RowID: li}, term.Deleted{TableID: right.TableID, RowID: ri}})},
								term.OrAll([]term.Term{null, term.AndAll([]term.Term{term.Not{X: null}, term.Not{X: val}})}),
							}),
						}),
						term.Deleted{TableID: output.TableID, RowID: idx},
					}),
				},
			)
			bit++
		}
	}

	if includeLeftNulls {
		cases = append(cases, leftNullRows(ctx, left, right, owners, output, leftBits, bit)...)
		bit += left.Bound
	}
	if includeRightNulls {
		// bit index for (li, ri) is li*right.Bound + ri.
		rightBits := make(map[int][]int, right.Bound)
		for li := 0; li < left.Bound; li++ {
			for ri := 0; ri < right.Bound; ri++ {
				rightBits[ri] = append(rightBits[ri], li*right.Bound+ri)
			}
		}
		cases = append(cases, rightNullRows(ctx, left, right, owners, output, rightBits, bit)...)
	}

	f := term.AndAll(append(cases, choiceConstraints...))
	if approx != nil {
		f = term.AndAll([]term.Term{f, compactOutput(ctx, output.TableID, output.Bound, approx.TableID, approx.Bound, len(cols))})
	}
	ctx.Assert(node.Label(), f)
	ctx.BindTable(node.Label(), output.TableID, output.Bound)
	return result, nil
}

// leftNullRows emits, for every left row with no matching right row
// surviving, one output row carrying the left row's values and nulled
// right-hand columns. Grounded in left_join.py's null_tuples_constraints.
func leftNullRows(ctx Env, left, right *schema.TableSchema, owners []columnOwner, output *schema.TableSchema, leftBits map[int][]int, nullRowStart int) []term.Term {
	var out []term.Term
	for li := 0; li < left.Bound; li++ {
		nullRow := nullRowStart + li
		mapping := make([]term.Term, len(owners))
		for c, owner := range owners {
			if owner.fromLeft {
				mapping[c] = copyCell(ctx, owner.tableID, li, output.TableID, nullRow, owner.columnID)
			} else {
				mapping[c] = ctx.Null(output.TableID, nullRow, c)
			}
		}
		noMatch := make([]term.Term, len(leftBits[li]))
		anyMatch := make([]term.Term, len(leftBits[li]))
		for i, b := range leftBits[li] {
			noMatch[i] = term.NewEq(term.Choice{TableID: output.TableID, BitID: b}, term.IntLit{Value: 0})
			anyMatch[i] = term.NewNeq(term.Choice{TableID: output.TableID, BitID: b}, term.IntLit{Value: 0})
		}
		out = append(out,
			term.Implies{
				Premise: term.AndAll([]term.Term{term.Not{X: term.Deleted{TableID: left.TableID, RowID: li}}, term.AndAll(noMatch)}),
				Conclusion: term.AndAll([]term.Term{
					term.AndAll(mapping),
					term.Not{X: term.Deleted{TableID: output.TableID, RowID: nullRow}},
				}),
			},
			term.Implies{
				Premise: term.OrAll([]term.Term{term.Deleted{TableID: left.TableID, RowID: li}, term.AndAll([]term.Term{term.Not{X: term.Deleted{TableID: left.TableID, RowID: li}}, term.OrAll(anyMatch)})}),
				Conclusion: term.Deleted{TableID: output.TableID, RowID: nullRow},
			},
		)
	}
	return out
}

// rightNullRows is leftNullRows' mirror for a full join's right-only
// rows; the original has no standalone file for this since FRightJoin
// is reached by side-swapping, but full join needs both blocks at once.
func rightNullRows(ctx Env, left, right *schema.TableSchema, owners []columnOwner, output *schema.TableSchema, rightBits map[int][]int, nullRowStart int) []term.Term {
	var out []term.Term
	for ri := 0; ri < right.Bound; ri++ {
		nullRow := nullRowStart + ri
		mapping := make([]term.Term, len(owners))
		for c, owner := range owners {
			if !owner.fromLeft {
				mapping[c] = copyCell(ctx, owner.tableID, ri, output.TableID, nullRow, owner.columnID)
			} else {
				mapping[c] = ctx.Null(output.TableID, nullRow, c)
			}
		}
		noMatch := make([]term.Term, len(rightBits[ri]))
		anyMatch := make([]term.Term, len(rightBits[ri]))
		for i, b := range rightBits[ri] {
			noMatch[i] = term.NewEq(term.Choice{TableID: output.TableID, BitID: b}, term.IntLit{Value: 0})
			anyMatch[i] = term.NewNeq(term.Choice{TableID: output.TableID, BitID: b}, term.IntLit{Value: 0})
		}
		out = append(out,
			term.Implies{
				Premise: term.AndAll([]term.Term{term.Not{X: term.Deleted{TableID: right.TableID, RowID: ri}}, term.AndAll(noMatch)}),
				Conclusion: term.AndAll([]term.Term{
					term.AndAll(mapping),
					term.Not{X: term.Deleted{TableID: output.TableID, RowID: nullRow}},
				}),
			},
			term.Implies{
				Premise: term.OrAll([]term.Term{term.Deleted{TableID: right.TableID, RowID: ri}, term.AndAll([]term.Term{term.Not{X: term.Deleted{TableID: right.TableID, RowID: ri}}, term.OrAll(anyMatch)})}),
				Conclusion: term.Deleted{TableID: output.TableID, RowID: nullRow},
			},
		)
	}
	return out
}

// reorderRightJoinOutput presents a swap-built (right, left) join output
// as (left, right): a thin relabeling pass in which each output cell
// (value and null flag) is asserted equal to the swapped table's cell
// at the mirrored column.
func reorderRightJoinOutput(ctx Env, swapped *schema.TableSchema, rightColCount, leftColCount int) (*schema.TableSchema, error) {
	cols := make([]schema.ColumnSchema, 0, len(swapped.Columns))
	cols = append(cols, swapped.Columns[rightColCount:]...)
	cols = append(cols, swapped.Columns[:rightColCount]...)
	for i := range cols {
		cols[i].ColumnID = i
	}

	output := &schema.TableSchema{TableID: ctx.NextTableID(), TableName: swapped.TableName, Columns: cols, Bound: swapped.Bound}
	output.Ancestors = []*schema.TableSchema{swapped}
	output.Lineage = "Reordered from T" + strconv.Itoa(swapped.TableID)
	ctx.AddTable(output)

	var cases []term.Term
	for row := 0; row < swapped.Bound; row++ {
		mapping := make([]term.Term, len(cols))
		for c := 0; c < leftColCount; c++ {
			mapping[c] = term.AndAll([]term.Term{
				term.NewEq(ctx.Cell(swapped.TableID, row, rightColCount+c), ctx.Cell(output.TableID, row, c)),
				term.NewEq(ctx.Null(swapped.TableID, row, rightColCount+c), ctx.Null(output.TableID, row, c)),
			})
		}
		for c := 0; c < rightColCount; c++ {
			mapping[leftColCount+c] = term.AndAll([]term.Term{
				term.NewEq(ctx.Cell(swapped.TableID, row, c), ctx.Cell(output.TableID, row, leftColCount+c)),
				term.NewEq(ctx.Null(swapped.TableID, row, c), ctx.Null(output.TableID, row, leftColCount+c)),
			})
		}
		cases = append(cases,
			term.Implies{Premise: term.Not{X: term.Deleted{TableID: swapped.TableID, RowID: row}}, Conclusion: term.AndAll([]term.Term{term.AndAll(mapping), term.Not{X: term.Deleted{TableID: output.TableID, RowID: row}}})},
			term.Implies{Premise: term.Deleted{TableID: swapped.TableID, RowID: row}, Conclusion: term.Deleted{TableID: output.TableID, RowID: row}},
		)
	}
	ctx.Assert("reorder_"+strconv.Itoa(output.TableID), term.AndAll(cases))
	return output, nil
}
