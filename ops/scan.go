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
	"github.com/dolthub/go-sqleq/ast"
	"github.com/dolthub/go-sqleq/schema"
)

// Scan resolves a FROM-clause base table reference. It asserts nothing
// of its own: per scan.py, a base table's Choice/Deleted relationship
// is left entirely free for the search to pick, with no size bound
// beyond the table's own Bound.
func Scan(ctx Env, node *ast.Scan) (*schema.TableSchema, error) {
	t, err := ctx.FindTableByName(node.Table, ctx.CurrQueryID())
	if err != nil {
		return nil, err
	}
	if t.Lineage == "" {
		t.Lineage = "Scanned from initial schema"
	}
	return t, nil
}
