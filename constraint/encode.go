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

package constraint

import (
	"strings"

	"github.com/dolthub/go-sqleq/schema"
	"github.com/dolthub/go-sqleq/term"
	"gopkg.in/src-d/go-errors.v1"
)

// ErrUnsupported is raised for a Constraint value this package does not
// recognize (a new type implementing the interface without a matching
// case below) or a malformed qualified reference.
var ErrUnsupported = errors.NewKind("constraint: unsupported constraint %#v")

// ErrCrossTable is raised when a Cmp's two sides name columns of
// different tables; the original asserts lhs_table.is_same(rhs_table)
// for exactly this case.
var ErrCrossTable = errors.NewKind("constraint: %q and %q are not columns of the same table")

// Env is what the integrity-constraint encoder needs from the
// orchestrating engine: table lookup, string interning, cell/null term
// construction, and assertion, grounded in encode_integrity_constraints'
// use of the shared env object.
type Env interface {
	FindTableByName(name string, queryID int) (*schema.TableSchema, error)
	StringHash(s string) int64
	Cell(tableID, rowID, columnID int) term.Term
	Null(tableID, rowID, columnID int) term.Term
	Assert(label string, t term.Term)
}

// Encode translates every declared constraint into one conjunct apiece
// and asserts their conjunction under the label "ic", grounded in
// encode_integrity_constraints.
func Encode(constraints []Constraint, env Env) error {
	var clauses []term.Term
	for _, c := range constraints {
		t, err := encodeOne(c, env)
		if err != nil {
			return err
		}
		clauses = append(clauses, t)
	}
	env.Assert("ic", term.AndAll(clauses))
	return nil
}

func encodeOne(c Constraint, env Env) (term.Term, error) {
	switch c := c.(type) {
	case Unique:
		return encodeUnique(c, env)
	case ForeignKey:
		return encodeForeignKey(c, env)
	case NotNull:
		return encodeNotNull(c, env)
	case Domain:
		return encodeDomain(c, env)
	case Enum:
		return encodeEnum(c, env)
	case Cmp:
		return encodeCmp(c, env)
	case Inclusion:
		return encodeInclusion(c, env)
	default:
		return nil, ErrUnsupported.New(c)
	}
}

// splitQualified splits a "Table.column" reference, matching the
// original's `attr.split('.')`.
func splitQualified(ref string) (table, column string, err error) {
	i := strings.IndexByte(ref, '.')
	if i < 0 {
		return "", "", ErrUnsupported.New(ref)
	}
	return ref[:i], ref[i+1:], nil
}

func resolveColumn(env Env, ref string) (*schema.TableSchema, schema.ColumnSchema, error) {
	tableName, _, err := splitQualified(ref)
	if err != nil {
		return nil, schema.ColumnSchema{}, err
	}
	table, err := env.FindTableByName(tableName, 0)
	if err != nil {
		return nil, schema.ColumnSchema{}, err
	}
	col, err := table.Find(ref)
	if err != nil {
		return nil, schema.ColumnSchema{}, err
	}
	return table, col, nil
}

// encodeUnique implements encode_primary: pairwise distinctness over
// Columns for every pair of non-deleted rows, plus not-null on each
// column when Primary, grounded in integrity_constraint.py's shared
// 'primary' | 'distinct' case.
func encodeUnique(u Unique, env Env) (term.Term, error) {
	if len(u.Columns) == 0 {
		return nil, ErrUnsupported.New(u)
	}
	tableName, _, err := splitQualified(u.Columns[0])
	if err != nil {
		return nil, err
	}
	table, err := env.FindTableByName(tableName, 0)
	if err != nil {
		return nil, err
	}

	colIDs := make([]int, 0, len(u.Columns))
	for _, ref := range u.Columns {
		col, err := table.Find(ref)
		if err != nil {
			return nil, err
		}
		colIDs = append(colIDs, col.ColumnID)
	}

	var clauses []term.Term
	for tupleIdx := 0; tupleIdx < table.Bound; tupleIdx++ {
		for other := 0; other < tupleIdx; other++ {
			var tupleDistinct []term.Term
			for _, colID := range colIDs {
				tupleDistinct = append(tupleDistinct, term.OrAll([]term.Term{
					term.NewNeq(env.Null(table.TableID, tupleIdx, colID), env.Null(table.TableID, other, colID)),
					term.AndAll([]term.Term{
						term.Not{X: env.Null(table.TableID, tupleIdx, colID)},
						term.Not{X: env.Null(table.TableID, other, colID)},
						term.NewNeq(env.Cell(table.TableID, tupleIdx, colID), env.Cell(table.TableID, other, colID)),
					}),
				}))
			}
			clauses = append(clauses, term.Implies{
				Premise: term.AndAll([]term.Term{
					term.Not{X: term.Deleted{TableID: table.TableID, RowID: tupleIdx}},
					term.Not{X: term.Deleted{TableID: table.TableID, RowID: other}},
				}),
				Conclusion: term.OrAll(tupleDistinct),
			})
		}
		if u.Primary {
			for _, colID := range colIDs {
				clauses = append(clauses, term.Not{X: env.Null(table.TableID, tupleIdx, colID)})
			}
		}
	}
	return term.AndAll(clauses), nil
}

// encodeForeignKey implements encode_foreign_key's 'eq' case: every
// non-deleted child row is either null on its referencing column or
// matches some non-deleted, non-null parent row, and the parent is
// non-empty whenever the child is.
func encodeForeignKey(fk ForeignKey, env Env) (term.Term, error) {
	childTable, childCol, err := resolveColumn(env, fk.Child)
	if err != nil {
		return nil, err
	}
	parentTable, parentCol, err := resolveColumn(env, fk.Parent)
	if err != nil {
		return nil, err
	}

	childCount := make([]term.Term, childTable.Bound)
	for i := range childCount {
		childCount[i] = term.Ite{Cond: term.Not{X: term.Deleted{TableID: childTable.TableID, RowID: i}}, Then: term.IntLit{Value: 1}, Else: term.IntLit{Value: 0}}
	}
	parentCount := make([]term.Term, parentTable.Bound)
	for i := range parentCount {
		parentCount[i] = term.Ite{Cond: term.Not{X: term.Deleted{TableID: parentTable.TableID, RowID: i}}, Then: term.IntLit{Value: 1}, Else: term.IntLit{Value: 0}}
	}

	clauses := []term.Term{
		term.Implies{
			Premise:    term.EnsureBool(term.Sum(childCount)),
			Conclusion: term.EnsureBool(term.Sum(parentCount)),
		},
	}

	for lhsIdx := 0; lhsIdx < childTable.Bound; lhsIdx++ {
		var matches []term.Term
		for rhsIdx := 0; rhsIdx < parentTable.Bound; rhsIdx++ {
			matches = append(matches, term.AndAll([]term.Term{
				term.Not{X: term.Deleted{TableID: parentTable.TableID, RowID: rhsIdx}},
				term.Not{X: env.Null(parentTable.TableID, rhsIdx, parentCol.ColumnID)},
				term.NewEq(env.Cell(childTable.TableID, lhsIdx, childCol.ColumnID), env.Cell(parentTable.TableID, rhsIdx, parentCol.ColumnID)),
			}))
		}
		clauses = append(clauses, term.Implies{
			Premise: term.Not{X: term.Deleted{TableID: childTable.TableID, RowID: lhsIdx}},
			Conclusion: term.OrAll([]term.Term{
				env.Null(childTable.TableID, lhsIdx, childCol.ColumnID),
				term.AndAll([]term.Term{
					term.Not{X: env.Null(childTable.TableID, lhsIdx, childCol.ColumnID)},
					term.OrAll(matches),
				}),
			}),
		})
	}
	return term.AndAll(clauses), nil
}

// encodeNotNull implements encode_not_null.
func encodeNotNull(nn NotNull, env Env) (term.Term, error) {
	table, col, err := resolveColumn(env, nn.Column)
	if err != nil {
		return nil, err
	}
	var clauses []term.Term
	for tupleIdx := 0; tupleIdx < table.Bound; tupleIdx++ {
		clauses = append(clauses, term.Implies{
			Premise:    term.Not{X: term.Deleted{TableID: table.TableID, RowID: tupleIdx}},
			Conclusion: term.Not{X: env.Null(table.TableID, tupleIdx, col.ColumnID)},
		})
	}
	return term.AndAll(clauses), nil
}

// encodeDomain implements encode_value_domain.
func encodeDomain(d Domain, env Env) (term.Term, error) {
	table, col, err := resolveColumn(env, d.Column)
	if err != nil {
		return nil, err
	}
	var clauses []term.Term
	for tupleIdx := 0; tupleIdx < table.Bound; tupleIdx++ {
		cell := env.Cell(table.TableID, tupleIdx, col.ColumnID)
		clauses = append(clauses, term.Implies{
			Premise: term.Not{X: term.Deleted{TableID: table.TableID, RowID: tupleIdx}},
			Conclusion: term.AndAll([]term.Term{
				term.NewGte(cell, term.IntLit{Value: d.Lo}),
				term.NewLte(cell, term.IntLit{Value: d.Hi}),
			}),
		})
	}
	return term.AndAll(clauses), nil
}

// encodeEnum implements encode_enum: string members are interned via
// Env.StringHash before comparison, matching the original's
// `env.string_hash(val) if isinstance(val, str) else val`.
func encodeEnum(e Enum, env Env) (term.Term, error) {
	table, col, err := resolveColumn(env, e.Column)
	if err != nil {
		return nil, err
	}
	vals := internValues(env, e.Values)

	var clauses []term.Term
	for tupleIdx := 0; tupleIdx < table.Bound; tupleIdx++ {
		cell := env.Cell(table.TableID, tupleIdx, col.ColumnID)
		var options []term.Term
		for _, v := range vals {
			options = append(options, term.NewEq(cell, term.IntLit{Value: v}))
		}
		clauses = append(clauses, term.Implies{
			Premise:    term.Not{X: term.Deleted{TableID: table.TableID, RowID: tupleIdx}},
			Conclusion: term.OrAll(options),
		})
	}
	return term.AndAll(clauses), nil
}

// encodeCmp implements encode_cmp's two branches: an inter-column
// comparison when Right names a "Table.column" of the same table as
// Left, otherwise a value-guard comparison against a literal.
func encodeCmp(c Cmp, env Env) (term.Term, error) {
	op := cmpOp(c.Op)

	if rhsRef, ok := c.Right.(string); ok {
		lhsTable, lhsCol, err := resolveColumn(env, c.Left)
		if err != nil {
			return nil, err
		}
		rhsTable, rhsCol, err := resolveColumn(env, rhsRef)
		if err != nil {
			return nil, err
		}
		if lhsTable.TableID != rhsTable.TableID {
			return nil, ErrCrossTable.New(c.Left, rhsRef)
		}

		var clauses []term.Term
		for tupleIdx := 0; tupleIdx < lhsTable.Bound; tupleIdx++ {
			clauses = append(clauses, term.Implies{
				Premise:    term.Not{X: term.Deleted{TableID: lhsTable.TableID, RowID: tupleIdx}},
				Conclusion: op(env.Cell(lhsTable.TableID, tupleIdx, lhsCol.ColumnID), env.Cell(lhsTable.TableID, tupleIdx, rhsCol.ColumnID)),
			})
		}
		return term.AndAll(clauses), nil
	}

	table, col, err := resolveColumn(env, c.Left)
	if err != nil {
		return nil, err
	}
	val, ok := c.Right.(int64)
	if !ok {
		return nil, ErrUnsupported.New(c)
	}

	var clauses []term.Term
	for tupleIdx := 0; tupleIdx < table.Bound; tupleIdx++ {
		clauses = append(clauses, term.Implies{
			Premise:    term.Not{X: term.Deleted{TableID: table.TableID, RowID: tupleIdx}},
			Conclusion: op(env.Cell(table.TableID, tupleIdx, col.ColumnID), term.IntLit{Value: val}),
		})
	}
	return term.AndAll(clauses), nil
}

// encodeInclusion implements encode_inclusion1: at least one non-deleted
// row of Column's table equals one of Values.
func encodeInclusion(inc Inclusion, env Env) (term.Term, error) {
	table, col, err := resolveColumn(env, inc.Column)
	if err != nil {
		return nil, err
	}
	vals := internValues(env, inc.Values)

	var rowClauses []term.Term
	for tupleIdx := 0; tupleIdx < table.Bound; tupleIdx++ {
		cell := env.Cell(table.TableID, tupleIdx, col.ColumnID)
		var options []term.Term
		for _, v := range vals {
			options = append(options, term.AndAll([]term.Term{
				term.Not{X: env.Null(table.TableID, tupleIdx, col.ColumnID)},
				term.NewEq(cell, term.IntLit{Value: v}),
			}))
		}
		rowClauses = append(rowClauses, term.AndAll([]term.Term{
			term.Not{X: term.Deleted{TableID: table.TableID, RowID: tupleIdx}},
			term.OrAll(options),
		}))
	}
	return term.OrAll(rowClauses), nil
}

func internValues(env Env, values []any) []int64 {
	out := make([]int64, len(values))
	for i, v := range values {
		switch v := v.(type) {
		case string:
			out[i] = env.StringHash(v)
		case int64:
			out[i] = v
		case int:
			out[i] = int64(v)
		}
	}
	return out
}

func cmpOp(op CmpOp) func(a, b term.Term) term.Term {
	switch op {
	case Gt:
		return func(a, b term.Term) term.Term { return term.NewGt(a, b) }
	case Gte:
		return func(a, b term.Term) term.Term { return term.NewGte(a, b) }
	case Lt:
		return func(a, b term.Term) term.Term { return term.NewLt(a, b) }
	case Lte:
		return func(a, b term.Term) term.Term { return term.NewLte(a, b) }
	default:
		return func(a, b term.Term) term.Term { return term.NewNeq(a, b) }
	}
}
