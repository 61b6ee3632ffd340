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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dolthub/go-sqleq/formula"
)

func twoCovers(n int) []coveredOperator {
	covers := make([][]formula.Bit, n)
	for i := range covers {
		covers[i] = []formula.Bit{formula.Zero}
	}
	return []coveredOperator{{tableID: 0, covers: covers}}
}

func TestAdvanceIdxCarriesIntoEarlierPositions(t *testing.T) {
	covers := []coveredOperator{
		{tableID: 0, covers: [][]formula.Bit{{formula.Zero}, {formula.One}}},
		{tableID: 1, covers: [][]formula.Bit{{formula.Zero}, {formula.One}}},
	}
	idx := []int{0, 0}

	ok := advanceIdx(idx, covers)
	assert.True(t, ok)
	assert.Equal(t, []int{0, 1}, idx)

	ok = advanceIdx(idx, covers)
	assert.True(t, ok)
	assert.Equal(t, []int{1, 0}, idx)

	ok = advanceIdx(idx, covers)
	assert.True(t, ok)
	assert.Equal(t, []int{1, 1}, idx)
}

func TestAdvanceIdxReportsFalseAfterLastCombination(t *testing.T) {
	covers := []coveredOperator{{tableID: 0, covers: [][]formula.Bit{{formula.Zero}, {formula.One}}}}
	idx := []int{1}

	ok := advanceIdx(idx, covers)
	assert.False(t, ok)
	assert.Equal(t, []int{0}, idx, "overflowed position wraps to zero even on the final exhausted call")
}

func TestAdvanceIdxSingleColumnSingleOption(t *testing.T) {
	covers := twoCovers(1)
	idx := []int{0}
	ok := advanceIdx(idx, covers)
	assert.False(t, ok)
}
