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

import (
	pp "github.com/k0kubun/pp/v3"
	"github.com/sirupsen/logrus"

	"github.com/dolthub/go-sqleq/formula"
)

// coveredOperator pairs one unsat-core operator's table with the list
// of candidate partial choice vectors ("covers") to try pinning it to.
type coveredOperator struct {
	tableID int
	covers  [][]formula.Bit
}

// advanceIdx is an odometer-style Cartesian-product iterator over
// idx[i] in [0, len(covers[i].covers)): it increments the last
// position, carrying into earlier positions on overflow, and reports
// false once every combination has been visited.
func advanceIdx(idx []int, covers []coveredOperator) bool {
	for i := len(idx) - 1; i >= 0; i-- {
		idx[i]++
		if idx[i] < len(covers[i].covers) {
			return true
		}
		idx[i] = 0
	}
	return false
}

// backtrack narrows M to exactly unsatCore's operator labels and tries
// every combination of their tables' candidate covers (cfg.BacktrackCover,
// or AllTop for a Sorted table) until one lets the solver find a model,
// recording every failure in the knowledge base along the way. Grounded
// in backtrack(): it snapshots M and the current under-approximation,
// restores M on both success and final failure, but (matching the
// original) only restores the under-approximation on failure -- a
// successful combination's narrower vectors are exactly what the next
// Run round should build on.
func (e *Engine) backtrack(unsatCore []string) (bool, error) {
	prevConsidered := e.m.SnapshotConsidered()
	prevUnder := e.m.SnapshotUnder()

	e.m.Reconsider(unsatCore)
	e.m.ClearUnder()

	var covers []coveredOperator
	for _, label := range unsatCore {
		binding, ok := e.m.Table(label)
		if !ok {
			continue
		}
		covers = append(covers, coveredOperator{
			tableID: binding.TableID,
			covers:  coverFor(e.cfg.BacktrackCover, binding),
		})
	}

	if len(covers) == 0 {
		e.m.RestoreConsidered(prevConsidered)
		e.m.RestoreUnder(prevUnder)
		return false, nil
	}

	idx := make([]int, len(covers))
	for {
		for i, c := range covers {
			e.m.SetUnder(c.tableID, c.covers[idx[i]])
		}

		e.m.EncodeCurrentUnder()
		smt, err := e.m.Dump()
		if err != nil {
			e.m.RestoreConsidered(prevConsidered)
			e.m.RestoreUnder(prevUnder)
			return false, err
		}

		sat, err := e.prover.Check(smt)
		if err != nil {
			e.m.RestoreConsidered(prevConsidered)
			e.m.RestoreUnder(prevUnder)
			return false, err
		}

		if sat {
			e.m.RestoreConsidered(prevConsidered)
			return true, nil
		}

		conflict := make(formula.Conflict, len(covers))
		for i, c := range covers {
			conflict[c.tableID] = c.covers[idx[i]]
		}
		e.m.KB().AddConflict(conflict, unsatCore)
		if e.log.Logger.IsLevelEnabled(logrus.DebugLevel) {
			e.log.Debugf("learned conflict #%d: %s", e.m.KB().Len(), pp.Sprint(conflict))
		}

		if !advanceIdx(idx, covers) {
			break
		}
	}

	e.m.RestoreConsidered(prevConsidered)
	e.m.RestoreUnder(prevUnder)
	return false, nil
}
