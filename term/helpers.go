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

package term

// Sum folds xs with Plus, returning IntLit{0} for an empty slice. Mirrors
// the original encoder's habit of building a flat sum rather than a
// right-nested tree of binary Plus terms.
func Sum(xs []Term) Term {
	if len(xs) == 0 {
		return IntLit{0}
	}
	acc := xs[0]
	for _, x := range xs[1:] {
		acc = Plus{acc, x}
	}
	return acc
}

// EnsureInt lifts a Bool term to Int (1/0) for use where an arithmetic
// value is required; it is a no-op for terms that are already Int.
func EnsureInt(t Term) Term {
	if t.ReturnType() == SortBool {
		return Ite{t, IntLit{1}, IntLit{0}}
	}
	return t
}

// EnsureBool lowers an Int term to Bool (nonzero) for use where a
// predicate is required; it is a no-op for terms that are already Bool.
func EnsureBool(t Term) Term {
	if t.ReturnType() == SortInt {
		return Not{NewEq(t, IntLit{0})}
	}
	return t
}

// Count builds the quantifier-free row count of table tableID over rows
// [0, bound): the sum of 1 for every non-deleted row. This is the
// resolution adopted for spec.md's third Open Question: no uninterpreted
// `size` function is ever emitted, every caller that needs a table's
// cardinality asks for Count instead.
func Count(tableID, bound int) Term {
	terms := make([]Term, bound)
	for r := 0; r < bound; r++ {
		terms[r] = Ite{Not{Deleted{tableID, r}}, IntLit{1}, IntLit{0}}
	}
	return Sum(terms)
}

// AndAll and OrAll build And/Or terms, collapsing the one-element case
// to its sole element; an empty slice yields an empty And/Or, which
// Print renders as true/false.
func AndAll(xs []Term) Term {
	if len(xs) == 1 {
		return xs[0]
	}
	return And{xs}
}

func OrAll(xs []Term) Term {
	if len(xs) == 1 {
		return xs[0]
	}
	return Or{xs}
}
