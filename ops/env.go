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

// Package ops implements C5: the per-operator SMT encoders (scan,
// filter, join, group by, project, distinct, order by, union). Each
// function takes an already-labeled, already-bounded ast.Node (the
// output of astinit) and its input table(s), allocates an output
// TableSchema, asserts that output's defining formula under the node's
// label, and returns the output schema for the next operator up the
// tree.
package ops

import (
	"github.com/dolthub/go-sqleq/encode"
	"github.com/dolthub/go-sqleq/schema"
	"github.com/dolthub/go-sqleq/term"
	"gopkg.in/src-d/go-errors.v1"
)

// ErrUnsupportedJoin is returned for an ast.JoinType this package does
// not know how to encode.
var ErrUnsupportedJoin = errors.NewKind("ops: unsupported join type %v")

// Env is what an operator encoder needs from the orchestrating engine:
// everything encode.Context offers (so RowEncoder/GroupEncoder/
// JoinEncoder can be built directly against it) plus table allocation
// and formula assertion.
type Env interface {
	encode.Context
	NextTableID() int
	AddTable(*schema.TableSchema)
	Assert(label string, t term.Term)
	// BindTable records that label's choice vector lives on tableID,
	// spanning BitID values [0, bits). The search engine (C8) reads this
	// to build each operator's under-approximation cover; it replaces
	// the original's after-the-fact reconstruction of label_to_table_id
	// by pattern-matching each table's lineage string, since a Go
	// TableSchema carries no back-pointer to the AST node that produced
	// it (schema and ast stay decoupled, as the original's own "no
	// ownership cycle" design note already calls for elsewhere).
	BindTable(label string, tableID, bits int)
	// BindSortedTable is BindTable for the one operator (OrderBy)
	// whose Choice values are not a binary 0/1 decision but a rank in
	// [0,k]: the search engine's {0,1}-combination cover strategies do
	// not apply to a value domain that wide, so this tells it to
	// always leave every bit of this table's vector free rather than
	// attempt to pin any of them, matching cover_ua's dedicated
	// all-top branch for a "Sorted"-lineage table.
	BindSortedTable(label string, tableID, bits int)
}
