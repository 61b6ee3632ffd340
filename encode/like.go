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

import (
	"strings"

	"github.com/dolthub/go-sqleq/ast"
	"github.com/dolthub/go-sqleq/term"
)

// underApproximateLike encodes LIKE/NOT LIKE per §4.10: a pattern with no
// wildcard is an exact match; a pattern with wildcards is approximated
// by a fresh solver-free boolean, reusing the choice mechanism rather
// than modeling substring matching symbolically (the original's
// `underapproximator.encode` plays the same role but its source file
// was not part of the retrieval pack; this is a from-scratch, spec-
// faithful stand-in noted in DESIGN.md). likeCounter keeps successive
// LIKE sites within the same row from colliding on one choice bit; the
// table-id namespace is negative so it can never alias a real table.
func (r *RowEncoder) underApproximateLike(n ast.Like) (Pair, error) {
	v, err := r.Eval(n.Arg)
	if err != nil {
		return Pair{}, err
	}

	lit, ok := n.Pattern.(ast.Literal)
	pattern, _ := lit.Value.(string)
	if ok && !strings.ContainsAny(pattern, "%_") {
		val := term.NewEq(v.Val, term.IntLit{Value: r.Ctx.StringHash(pattern)})
		if n.Not {
			return Pair{term.Not{X: val}, v.Null}, nil
		}
		return Pair{val, v.Null}, nil
	}

	r.likeCounter++
	bitID := r.TupleIdx*1009 + r.likeCounter
	match := term.NewEq(term.Choice{TableID: -(r.Table.TableID + 1), BitID: bitID}, term.IntLit{Value: 1})
	if n.Not {
		match = term.Not{X: match}
	}
	return Pair{match, v.Null}, nil
}
