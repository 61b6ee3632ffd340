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

package search

// Naive is the no-learning, no-backtrack baseline search variant: every
// operator label is considered from the start, and every combination
// of every considered table's cover is tried in turn until one is sat
// or the product is exhausted. Grounded in search_naive; used as a
// correctness cross-check against Run for small instances, per
// spec.md's Naive variant.
func (e *Engine) Naive(cover CoverStrategy) (bool, Stats, error) {
	var stats Stats

	for _, label := range e.m.Labels() {
		e.m.Consider(label)
	}

	var covers []coveredOperator
	seen := make(map[int]bool)
	for _, label := range e.m.Labels() {
		binding, ok := e.m.Table(label)
		if !ok || seen[binding.TableID] {
			continue
		}
		seen[binding.TableID] = true
		covers = append(covers, coveredOperator{
			tableID: binding.TableID,
			covers:  coverFor(cover, binding),
		})
	}

	if len(covers) == 0 {
		e.m.EncodeCurrentUnder()
		smt, err := e.m.Dump()
		if err != nil {
			return false, stats, err
		}
		sat, err := e.prover.Check(smt)
		return sat, stats, err
	}

	idx := make([]int, len(covers))
	for {
		stats.Rounds++
		for i, c := range covers {
			e.m.SetUnder(c.tableID, c.covers[idx[i]])
		}

		e.m.EncodeCurrentUnder()
		smt, err := e.m.Dump()
		if err != nil {
			return false, stats, err
		}

		sat, err := e.prover.Check(smt)
		if err != nil {
			return false, stats, err
		}
		if sat {
			return true, stats, nil
		}

		if !advanceIdx(idx, covers) {
			break
		}
	}

	e.m.ClearUnder()
	return false, stats, nil
}
