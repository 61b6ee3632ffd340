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

package encode

import "github.com/dolthub/go-sqleq/term"

// aggRow is one input row's (value, null, deleted) triple, the unit
// every fold-over-rows aggregate consumes.
type aggRow struct {
	Val, Null, Deleted term.Term
}

// aggMax/aggMin fold pairwise, treating a deleted or null row as absent
// from the comparison and tracking whether every row seen so far was
// absent (in which case the running result is itself null).
func aggMax(rows []aggRow) Pair { return aggExtreme(rows, true) }
func aggMin(rows []aggRow) Pair { return aggExtreme(rows, false) }

func aggExtreme(rows []aggRow, max bool) Pair {
	fold := func(x, y aggRow) aggRow {
		var cmp term.Term
		if max {
			cmp = term.NewLte(x.Val, y.Val)
		} else {
			cmp = term.NewGte(x.Val, y.Val)
		}
		takeY := term.OrAll([]term.Term{
			term.AndAll([]term.Term{cmp, term.Not{X: term.OrAll([]term.Term{x.Null, y.Null})}}),
			term.AndAll([]term.Term{x.Null, term.Not{X: y.Null}}),
		})
		val := term.Ite{
			Cond: term.AndAll([]term.Term{term.Not{X: x.Deleted}, y.Deleted}),
			Then: x.Val,
			Else: term.Ite{
				Cond: term.AndAll([]term.Term{x.Deleted, term.Not{X: y.Deleted}}),
				Then: y.Val,
				Else: term.Ite{
					Cond: term.AndAll([]term.Term{term.Not{X: x.Deleted}, term.Not{X: y.Deleted}}),
					Then: term.Ite{Cond: takeY, Then: y.Val, Else: x.Val},
					Else: term.IntLit{Value: 0},
				},
			},
		}
		null := term.AndAll([]term.Term{
			term.Implies{Premise: term.Not{X: x.Deleted}, Conclusion: x.Null},
			term.Implies{Premise: term.Not{X: y.Deleted}, Conclusion: y.Null},
		})
		deleted := term.AndAll([]term.Term{x.Deleted, y.Deleted})
		return aggRow{val, null, deleted}
	}

	acc := rows[0]
	for _, row := range rows[1:] {
		acc = fold(acc, row)
	}
	return Pair{acc.Val, term.OrAll([]term.Term{acc.Null, acc.Deleted})}
}

// aggCount/aggCountDistinct/aggSum/aggSumDistinct/aggAvg/aggAvgDistinct
// mirror the original's Count/Count_Distinct/AggSum/Sum_Distinct/Avg/
// Avg_Distinct free functions.
func aggCount(rows []aggRow) Pair {
	terms := make([]term.Term, len(rows))
	for i, row := range rows {
		terms[i] = term.Ite{Cond: term.AndAll([]term.Term{term.Not{X: row.Deleted}, term.Not{X: row.Null}}), Then: term.IntLit{1}, Else: term.IntLit{0}}
	}
	return Pair{term.Sum(terms), term.BoolLit{Value: false}}
}

func aggCountDistinct(rows []aggRow) Pair {
	terms := make([]term.Term, len(rows))
	for i, row := range rows {
		guard := []term.Term{term.Not{X: row.Deleted}, term.Not{X: row.Null}}
		for j := 0; j < i; j++ {
			prev := rows[j]
			guard = append(guard, term.Implies{
				Premise:    term.AndAll([]term.Term{term.Not{X: prev.Deleted}, term.Not{X: prev.Null}}),
				Conclusion: term.NewNeq(row.Val, prev.Val),
			})
		}
		terms[i] = term.Ite{Cond: term.AndAll(guard), Then: term.IntLit{1}, Else: term.IntLit{0}}
	}
	return Pair{term.Sum(terms), term.BoolLit{Value: false}}
}

func aggSum(rows []aggRow) Pair {
	terms := make([]term.Term, len(rows))
	nullTerms := make([]term.Term, len(rows))
	for i, row := range rows {
		terms[i] = term.Ite{Cond: term.AndAll([]term.Term{term.Not{X: row.Deleted}, term.Not{X: row.Null}}), Then: row.Val, Else: term.IntLit{0}}
		nullTerms[i] = term.OrAll([]term.Term{row.Null, row.Deleted})
	}
	return Pair{term.Sum(terms), term.AndAll(nullTerms)}
}

func aggSumDistinct(rows []aggRow) Pair {
	terms := make([]term.Term, len(rows))
	nullTerms := make([]term.Term, len(rows))
	for i, row := range rows {
		guard := []term.Term{term.Not{X: row.Deleted}, term.Not{X: row.Null}}
		for j := 0; j < i; j++ {
			prev := rows[j]
			guard = append(guard, term.Implies{
				Premise:    term.AndAll([]term.Term{term.Not{X: prev.Deleted}, term.Not{X: prev.Null}}),
				Conclusion: term.NewNeq(row.Val, prev.Val),
			})
		}
		terms[i] = term.Ite{Cond: term.AndAll(guard), Then: row.Val, Else: term.IntLit{0}}
		nullTerms[i] = term.OrAll([]term.Term{row.Null, row.Deleted})
	}
	return Pair{term.Sum(terms), term.AndAll(nullTerms)}
}

func aggAvg(rows []aggRow) Pair {
	sum := aggSum(rows)
	count := aggCount(rows)
	return Pair{term.Div{A: sum.Val, B: count.Val}, sum.Null}
}

func aggAvgDistinct(rows []aggRow) Pair {
	sum := aggSumDistinct(rows)
	count := aggCountDistinct(rows)
	return Pair{term.Div{A: sum.Val, B: count.Val}, sum.Null}
}

// aggAbs mirrors the original free function Abs.
func aggAbs(x term.Term) term.Term {
	return term.Ite{Cond: term.NewGte(x, term.IntLit{0}), Then: x, Else: term.Neg{X: x}}
}
