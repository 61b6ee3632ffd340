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

package engine

import (
	"github.com/dolthub/go-sqleq/ast"
	"github.com/dolthub/go-sqleq/ops"
	"github.com/dolthub/go-sqleq/schema"
)

// encodeNode recursively encodes node's FROM-clause tree, mirroring
// astinit.visitNode's own dispatch shape one level up: astinit labels
// the tree in execution order, this walk re-visits it in the same shape
// to actually assert each operator's defining formula.
func (e *Env) encodeNode(n ast.Node) (*schema.TableSchema, error) {
	switch t := n.(type) {
	case *ast.Scan:
		return ops.Scan(e, t)
	case *ast.Filter:
		input, err := e.encodeNode(t.Input)
		if err != nil {
			return nil, err
		}
		return ops.Filter(e, input, t)
	case *ast.Join:
		left, err := e.encodeNode(t.Left)
		if err != nil {
			return nil, err
		}
		right, err := e.encodeNode(t.Right)
		if err != nil {
			return nil, err
		}
		return ops.Join(e, left, right, t)
	case *ast.Union:
		inputs := make([]*schema.TableSchema, len(t.Inputs))
		for i, member := range t.Inputs {
			out, err := e.encodeNode(member)
			if err != nil {
				return nil, err
			}
			inputs[i] = out
		}
		return ops.Union(e, inputs, t)
	case *ast.Query:
		return e.encodeQuery(t)
	default:
		return nil, ErrInternal.New("unrecognized ast.Node in FROM tree")
	}
}

// encodeQuery encodes one full SELECT in FROM -> GROUP BY -> SELECT ->
// ORDER BY order, the same order astinit.Initializer.Query visits in.
// It allocates a fresh query id for the duration of the encode so a
// nested derived-table sub-query's own FindTableByName calls resolve
// against the right scope, restoring the caller's query id on return so
// sibling/enclosing encoding resumes correctly.
func (e *Env) encodeQuery(q *ast.Query) (*schema.TableSchema, error) {
	prevQueryID := e.currQueryID
	e.currQueryID = e.nextQueryID
	e.nextQueryID++
	defer func() { e.currQueryID = prevQueryID }()

	input, err := e.encodeNode(q.From)
	if err != nil {
		return nil, err
	}

	if q.GroupByClause != nil {
		input, err = ops.GroupBy(e, input, q.GroupByClause)
		if err != nil {
			return nil, err
		}
	}

	out, err := ops.Project(e, input, q.Select)
	if err != nil {
		return nil, err
	}

	if q.OrderByClause != nil {
		out, err = ops.OrderBy(e, out, q.OrderByClause)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
