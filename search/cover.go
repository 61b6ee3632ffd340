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
	"math/rand"

	"github.com/dolthub/go-sqleq/formula"
)

// CoverStrategy enumerates the partial assignments ("covers") of a
// bits-wide choice vector the backtrack step and the naive search
// variant try for one operator: each vector pins some positions to
// formula.Zero/formula.One and leaves the rest formula.Top ("free for
// the solver"), and the union of every vector a strategy yields must
// logically imply every assignment the reference strategy would ever
// try. Grounded in formula.py's cover_ua.
type CoverStrategy interface {
	Cover(bits int) [][]formula.Bit
}

// AllTop is the trivial, always-free cover: used for a Sorted table's
// rank-valued choice vector (formula.TableBinding.Sorted), and as the
// natural fallback whenever a strategy's top count is not smaller than
// bits.
type AllTop struct{}

func (AllTop) Cover(bits int) [][]formula.Bit {
	return [][]formula.Bit{allTopVector(bits)}
}

func allTopVector(bits int) []formula.Bit {
	v := make([]formula.Bit, bits)
	for i := range v {
		v[i] = formula.Top
	}
	return v
}

// LeftTops forces the leftmost Left positions to Top and enumerates
// every {0,1} combination of the remaining bits-Left positions. This
// is spec.md §4.8's reference strategy.
type LeftTops struct{ Left int }

func (s LeftTops) Cover(bits int) [][]formula.Bit {
	if s.Left >= bits {
		return AllTop{}.Cover(bits)
	}
	return binaryProduct(bits, s.Left, 0)
}

// RightTops mirrors LeftTops, forcing the rightmost Right positions to
// Top instead of the leftmost.
type RightTops struct{ Right int }

func (s RightTops) Cover(bits int) [][]formula.Bit {
	if s.Right >= bits {
		return AllTop{}.Cover(bits)
	}
	return binaryProduct(bits, 0, s.Right)
}

// binaryProduct enumerates {0,1}^(bits-leftTops-rightTops), padding
// leftTops Top positions on the left and rightTops Top positions on
// the right of every combination.
func binaryProduct(bits, leftTops, rightTops int) [][]formula.Bit {
	free := bits - leftTops - rightTops
	combos := 1 << uint(free)
	out := make([][]formula.Bit, 0, combos)
	for n := 0; n < combos; n++ {
		v := make([]formula.Bit, bits)
		for i := 0; i < leftTops; i++ {
			v[i] = formula.Top
		}
		for i := 0; i < rightTops; i++ {
			v[bits-1-i] = formula.Top
		}
		for i := 0; i < free; i++ {
			bit := formula.Zero
			if n&(1<<uint(free-1-i)) != 0 {
				bit = formula.One
			}
			v[leftTops+i] = bit
		}
		out = append(out, v)
	}
	return out
}

// TopsRatio leaves a fixed fraction of positions, sampled under a
// fixed seed for reproducibility, Top and enumerates every {0,1}
// combination of the rest. Grounded in cover_ua's tops_ratio branch
// (random.seed(123456)); math/rand under a fixed Go seed gives the
// same reproducibility guarantee spec.md §5 asks for (a deterministic
// cover sequence across runs), not bit-for-bit parity with Python's
// own PRNG.
type TopsRatio struct{ Ratio float64 }

func (s TopsRatio) Cover(bits int) [][]formula.Bit {
	numTops := int(float64(bits) * s.Ratio)
	if numTops <= 0 {
		return binaryProduct(bits, 0, 0)
	}
	if numTops >= bits {
		return AllTop{}.Cover(bits)
	}

	rng := rand.New(rand.NewSource(123456))
	isTop := make([]bool, bits)
	for _, idx := range rng.Perm(bits)[:numTops] {
		isTop[idx] = true
	}

	free := bits - numTops
	combos := 1 << uint(free)
	out := make([][]formula.Bit, 0, combos)
	for n := 0; n < combos; n++ {
		v := make([]formula.Bit, bits)
		next := 0
		for i := 0; i < bits; i++ {
			if isTop[i] {
				v[i] = formula.Top
				continue
			}
			bit := formula.Zero
			if n&(1<<uint(free-1-next)) != 0 {
				bit = formula.One
			}
			v[i] = bit
			next++
		}
		out = append(out, v)
	}
	return out
}

// coverFor picks strategy's cover for one operator, substituting
// AllTop whenever the table is Sorted (OrderBy's rank-valued vector;
// see formula.TableBinding.Sorted's doc comment).
func coverFor(strategy CoverStrategy, binding formula.TableBinding) [][]formula.Bit {
	if binding.Sorted {
		return AllTop{}.Cover(binding.Bits)
	}
	return strategy.Cover(binding.Bits)
}
