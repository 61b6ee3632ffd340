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
	"strings"

	"github.com/dolthub/go-sqleq/ast"
	"github.com/dolthub/go-sqleq/encode"
	"github.com/dolthub/go-sqleq/schema"
	"github.com/dolthub/go-sqleq/term"
)

// targetColumn builds the output ColumnSchema for one SELECT target and,
// for a plain attribute target, the input column it is copied from.
// Wildcard ("*", "t.*") targets are expanded by the caller before this
// runs, matching project.py's create_output_table target_list rewrite.
func targetColumn(input *schema.TableSchema, id int, target ast.Expr) (schema.ColumnSchema, *schema.ColumnSchema, error) {
	switch t := target.(type) {
	case ast.Attribute:
		col, err := input.Find(t.Name)
		if err != nil {
			return schema.ColumnSchema{}, nil, fmt.Errorf("ops: %w", err)
		}
		out := col
		out.ColumnID = id
		if t.Alias != "" {
			out.ColumnName = t.Alias
		}
		return out, &col, nil
	case ast.Literal:
		name := t.Alias
		if name == "" {
			name = fmt.Sprintf("$%d", id)
		}
		return schema.ColumnSchema{ColumnID: id, ColumnName: name, ColumnType: schema.TypeInt}, nil, nil
	default:
		name := aliasOrExprName(target, id)
		return schema.ColumnSchema{ColumnID: id, ColumnName: name, ColumnType: schema.TypeInt}, nil, nil
	}
}

func aliasOrExprName(e ast.Expr, id int) string {
	if alias, ok := aliasOf(e); ok && alias != "" {
		return alias
	}
	return fmt.Sprintf("$%d", id)
}

// aliasOf returns the expression's declared alias, if any; IfExpr and
// Subquery carry none in the AST, so a target of either kind always
// falls back to the positional "$N" name.
func aliasOf(e ast.Expr) (string, bool) {
	switch t := e.(type) {
	case ast.Attribute:
		return t.Alias, t.Alias != ""
	case ast.Literal:
		return t.Alias, t.Alias != ""
	case ast.FuncCall:
		return t.Alias, t.Alias != ""
	case ast.CaseWhen:
		return t.Alias, t.Alias != ""
	case ast.Coalesce:
		return t.Alias, t.Alias != ""
	}
	return "", false
}

// expandWildcards rewrites "*" / "table.*" targets into one Attribute
// per matching input column, per project.py's create_output_table.
func expandWildcards(input *schema.TableSchema, targets []ast.Expr) []ast.Expr {
	var out []ast.Expr
	for _, target := range targets {
		attr, ok := target.(ast.Attribute)
		if !ok || !strings.Contains(attr.Name, "*") {
			out = append(out, target)
			continue
		}
		prefix := ""
		if attr.Name != "*" {
			prefix = strings.ToLower(strings.TrimSuffix(attr.Name, ".*"))
		}
		for _, col := range input.Columns {
			if prefix != "" && strings.ToLower(col.TableName) != prefix {
				continue
			}
			out = append(out, ast.Attribute{Name: col.TableName + "." + col.ColumnName})
		}
	}
	return out
}

func hasAggregate(targets []ast.Expr) bool {
	for _, t := range targets {
		if funcCallHasAggregate(t) {
			return true
		}
	}
	return false
}

func funcCallHasAggregate(e ast.Expr) bool {
	switch t := e.(type) {
	case ast.FuncCall:
		if ast.IsAggregate(t.Name) {
			return true
		}
		for _, a := range t.Args {
			if funcCallHasAggregate(a) {
				return true
			}
		}
	case ast.BinOp:
		for _, a := range t.Args {
			if funcCallHasAggregate(a) {
				return true
			}
		}
	case ast.UnOp:
		return funcCallHasAggregate(t.Arg)
	case ast.CaseWhen:
		for _, c := range t.Cases {
			if funcCallHasAggregate(c.When) || funcCallHasAggregate(c.Then) {
				return true
			}
		}
		if t.Default != nil {
			return funcCallHasAggregate(t.Default)
		}
	case ast.Coalesce:
		for _, a := range t.Args {
			if funcCallHasAggregate(a) {
				return true
			}
		}
	case ast.IfExpr:
		return funcCallHasAggregate(t.Cond) || funcCallHasAggregate(t.Then) || funcCallHasAggregate(t.Else)
	}
	return false
}

// Project evaluates node.Targets over input, dispatching to one of three
// semantics branches mirroring project.py's FProject: has_aggregate
// collapses the result to a single row, from_group_by folds targets over
// a GroupBy's groups, and the plain branch copies/computes one output
// row per surviving input row.
func Project(ctx Env, input *schema.TableSchema, node *ast.Project) (*schema.TableSchema, error) {
	targets := expandWildcards(input, node.Targets)

	var result *schema.TableSchema
	var err error
	switch {
	case hasAggregate(targets):
		result, err = projectAggregate(ctx, input, node, targets)
	case strings.HasPrefix(input.Lineage, "Grouped"):
		result, err = projectGroupBy(ctx, input, node, targets)
	default:
		result, err = projectPlain(ctx, input, node, targets)
	}
	if err != nil {
		return nil, err
	}

	if node.Distinct {
		return Distinct(ctx, result, node.DistinctLabel)
	}
	return result, nil
}

func buildOutputColumns(input *schema.TableSchema, targets []ast.Expr) ([]schema.ColumnSchema, []*schema.ColumnSchema, error) {
	cols := make([]schema.ColumnSchema, len(targets))
	sources := make([]*schema.ColumnSchema, len(targets))
	for i, t := range targets {
		col, src, err := targetColumn(input, i, t)
		if err != nil {
			return nil, nil, err
		}
		cols[i] = col
		sources[i] = src
	}
	return cols, sources, nil
}

// projectAggregate collapses input to a single row per project.py's
// has_aggregate branch: the sole output row always exists, even when
// input has no surviving row, and every target is evaluated as a
// whole-table fold (RowEncoder.Eval for a bare attribute picks the
// first non-deleted row's value, matching the original's nested-Implies
// "first survivor" encoding).
func projectAggregate(ctx Env, input *schema.TableSchema, node *ast.Project, targets []ast.Expr) (*schema.TableSchema, error) {
	cols, sources, err := buildOutputColumns(input, targets)
	if err != nil {
		return nil, err
	}
	output := &schema.TableSchema{TableID: ctx.NextTableID(), TableName: input.TableName, Columns: cols, Bound: 1}
	output.Ancestors = []*schema.TableSchema{input}
	output.Lineage = fmt.Sprintf("Projected from T%d", input.TableID)
	ctx.AddTable(output)

	enc := encode.NewRowEncoder(input, ctx)
	var mapping []term.Term
	for c, target := range targets {
		if sources[c] != nil {
			for row := 0; row < input.Bound; row++ {
				earlierDeleted := make([]term.Term, row)
				for prev := 0; prev < row; prev++ {
					earlierDeleted[prev] = term.Deleted{TableID: input.TableID, RowID: prev}
				}
				isFirst := term.AndAll(append([]term.Term{term.Not{X: term.Deleted{TableID: input.TableID, RowID: row}}}, earlierDeleted...))
				mapping = append(mapping, term.Implies{
					Premise:    isFirst,
					Conclusion: copyCell(ctx, input.TableID, row, output.TableID, 0, sources[c].ColumnID),
				})
			}
			continue
		}
		p, err := enc.ForTuple(target, 0)
		if err != nil {
			return nil, err
		}
		mapping = append(mapping,
			term.NewEq(ctx.Cell(output.TableID, 0, c), p.Val),
			term.NewEq(ctx.Null(output.TableID, 0, c), p.Null),
		)
	}

	f := term.AndAll([]term.Term{
		term.NewEq(term.Choice{TableID: output.TableID, BitID: 0}, term.IntLit{Value: 1}),
		term.Not{X: term.Deleted{TableID: output.TableID, RowID: 0}},
		term.AndAll(mapping),
	})
	ctx.Assert(node.Label(), f)
	ctx.BindTable(node.Label(), output.TableID, 1)
	return output, nil
}

// projectPlain is the filter.py-shaped row-wise branch: one output row
// per input row, predicate-free (every non-deleted input row survives),
// followed by the shared compactOutput tail when node.UnderBound is
// smaller than the precise bound.
func projectPlain(ctx Env, input *schema.TableSchema, node *ast.Project, targets []ast.Expr) (*schema.TableSchema, error) {
	cols, sources, err := buildOutputColumns(input, targets)
	if err != nil {
		return nil, err
	}
	output := &schema.TableSchema{TableID: ctx.NextTableID(), TableName: input.TableName, Columns: cols, Bound: input.Bound}
	output.Ancestors = []*schema.TableSchema{input}
	output.Lineage = fmt.Sprintf("Projected from T%d", input.TableID)
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
	for row := 0; row < output.Bound; row++ {
		choiceConstraints = append(choiceConstraints, choiceBinary(output.TableID, row))

		mapping := make([]term.Term, len(targets))
		for c, target := range targets {
			if sources[c] != nil {
				mapping[c] = copyCell(ctx, input.TableID, row, output.TableID, row, sources[c].ColumnID)
				continue
			}
			p, err := enc.ForTuple(target, row)
			if err != nil {
				return nil, err
			}
			mapping[c] = term.AndAll([]term.Term{
				term.NewEq(ctx.Cell(output.TableID, row, c), p.Val),
				term.NewEq(ctx.Null(output.TableID, row, c), p.Null),
			})
		}

		choice := term.Choice{TableID: output.TableID, BitID: row}
		cases = append(cases,
			term.Implies{
				Premise: term.NewEq(choice, term.IntLit{Value: 1}),
				Conclusion: term.AndAll([]term.Term{
					term.Not{X: term.Deleted{TableID: input.TableID, RowID: row}},
					term.AndAll(mapping),
					term.Not{X: term.Deleted{TableID: output.TableID, RowID: row}},
				}),
			},
			term.Implies{
				Premise: term.NewEq(choice, term.IntLit{Value: 0}),
				Conclusion: term.AndAll([]term.Term{
					term.Deleted{TableID: input.TableID, RowID: row},
					term.Deleted{TableID: output.TableID, RowID: row},
				}),
			},
		)
	}

	f := term.AndAll(append(cases, choiceConstraints...))
	if approx != nil {
		f = term.AndAll([]term.Term{f, compactOutput(ctx, output.TableID, output.Bound, approx.TableID, approx.Bound, len(cols))})
	}
	ctx.Assert(node.Label(), f)
	ctx.BindTable(node.Label(), output.TableID, output.Bound)
	return result, nil
}

// projectGroupBy folds targets over input's groups, grounded in
// project.py's semantics_group_by. Unlike the original, which mutates
// the GroupBy operator's own output schema in place (a dynamic-typing
// trick Go's static TableSchema cannot reproduce), this allocates a
// fresh output table aligned 1:1 with input's group slots and gates
// every row directly on the GroupBy output's own Deleted relation
// (input here is the GroupBy operator's output table, already asserting
// that relation) rather than re-deriving a second HAVING-style choice
// vector: the group survived HAVING iff it is not deleted in input.
func projectGroupBy(ctx Env, input *schema.TableSchema, node *ast.Project, targets []ast.Expr) (*schema.TableSchema, error) {
	preGroupInput := input
	if len(input.Ancestors) > 0 {
		preGroupInput = input.Ancestors[0]
	}

	cols, sources, err := buildOutputColumns(preGroupInput, targets)
	if err != nil {
		return nil, err
	}
	output := &schema.TableSchema{TableID: ctx.NextTableID(), TableName: input.TableName, Columns: cols, Bound: input.Bound}
	output.Ancestors = []*schema.TableSchema{input}
	output.Lineage = fmt.Sprintf("Grouped and projected from T%d", input.TableID)
	ctx.AddTable(output)

	result := output
	var approx *schema.TableSchema
	if node.UnderBound < output.Bound {
		approx = cloneColumns(output, ctx.NextTableID(), node.UnderBound)
		ctx.AddTable(approx)
		result = approx
	}

	groupEnc := encode.NewGroupEncoder(preGroupInput, input.TableID, ctx)
	groupEnc.ProjectedList = targets

	var cases []term.Term
	for g := 0; g < output.Bound; g++ {
		mapping := make([]term.Term, len(targets))
		for c, target := range targets {
			if sources[c] != nil {
				var rowMapping []term.Term
				for row := 0; row < preGroupInput.Bound; row++ {
					var earlierNotInGroup []term.Term
					for prev := 0; prev < row; prev++ {
						earlierNotInGroup = append(earlierNotInGroup, term.Not{X: term.Grouping{TableID: input.TableID, RowID: prev, GroupID: g}})
					}
					isFirst := term.AndAll(append([]term.Term{term.Grouping{TableID: input.TableID, RowID: row, GroupID: g}}, earlierNotInGroup...))
					rowMapping = append(rowMapping, term.Implies{
						Premise:    isFirst,
						Conclusion: copyCell(ctx, preGroupInput.TableID, row, output.TableID, g, sources[c].ColumnID),
					})
				}
				mapping[c] = term.AndAll(rowMapping)
				continue
			}
			p, err := groupEnc.ForGroup(target, g)
			if err != nil {
				return nil, err
			}
			mapping[c] = term.AndAll([]term.Term{
				term.NewEq(ctx.Cell(output.TableID, g, c), p.Val),
				term.NewEq(ctx.Null(output.TableID, g, c), p.Null),
			})
		}
		cases = append(cases,
			term.Implies{
				Premise:    term.Not{X: term.Deleted{TableID: input.TableID, RowID: g}},
				Conclusion: term.AndAll([]term.Term{term.AndAll(mapping), term.Not{X: term.Deleted{TableID: output.TableID, RowID: g}}}),
			},
			term.Implies{
				Premise:    term.Deleted{TableID: input.TableID, RowID: g},
				Conclusion: term.Deleted{TableID: output.TableID, RowID: g},
			},
		)
	}

	f := term.AndAll(cases)
	if approx != nil {
		f = term.AndAll([]term.Term{f, compactOutput(ctx, output.TableID, output.Bound, approx.TableID, approx.Bound, len(cols))})
	}
	ctx.Assert(node.Label(), f)
	// This branch asserts no Choice vector of its own: every row is
	// gated on the GroupBy output's own Deleted relation, per this
	// function's doc comment. The original's corresponding branch
	// reuses groupby_table_id's own two-phase Choice vector under the
	// project node's label; binding to input.TableID (the GroupBy
	// output) here is the direct equivalent, so the search covers the
	// same choice space under either label.
	ctx.BindTable(node.Label(), input.TableID, 2*input.Bound)
	return result, nil
}
