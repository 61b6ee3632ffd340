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

// Package encode implements the expression encoder (C4): translating AST
// scalar expressions into (value, null) symbolic term pairs for a fixed
// row or group, under three-valued SQL logic.
package encode

import (
	"github.com/dolthub/go-sqleq/ast"
	"github.com/dolthub/go-sqleq/schema"
	"github.com/dolthub/go-sqleq/term"
)

// Context is the slice of the query orchestrator an expression encoder
// needs but cannot import directly: encoding a sub-query expression
// requires calling back into the operator encoders (package ops), which
// themselves use this package to encode WHERE/SELECT expressions. This
// interface breaks that cycle, the Go equivalent of the original's
// function-body-local "from polygon.visitors.query_encoder import
// QueryEncoder" (Python defers the circular import to call time; Go
// cannot import cyclically at all, so the orchestrator injects itself
// here instead).
type Context interface {
	// EncodeSubquery encodes q as an operator pipeline and returns its
	// output table. outerTableID/outerTupleID identify the enclosing
	// row for correlated references inside q; outerTupleID is -1 when
	// q is uncorrelated.
	EncodeSubquery(q *ast.Query, outerTableID, outerTupleID int) (*schema.TableSchema, error)
	// StringHash interns s and returns its stable integer encoding.
	StringHash(s string) int64
	// FindTableByName resolves a base-table name in scope, for
	// correlated-attribute fallback resolution.
	FindTableByName(name string, queryID int) (*schema.TableSchema, error)
	// CurrQueryID is the query id currently being encoded.
	CurrQueryID() int
	// Cell/Null build the two uninterpreted-function terms for one cell.
	Cell(tableID, rowID, columnID int) term.Term
	Null(tableID, rowID, columnID int) term.Term
	// OuterContext reports the enclosing row a freshly constructed
	// RowEncoder/GroupEncoder should correlate against: the query
	// orchestrator sets this for the duration of EncodeSubquery, so
	// every encoder built anywhere in that sub-tree -- no matter how
	// deeply nested inside ops.Filter/ops.Project's own internal
	// encoders -- inherits the correlation automatically. Returns
	// (nil, -1) when not currently encoding a correlated sub-query.
	OuterContext() (outerTable *schema.TableSchema, outerTupleIdx int)
}
