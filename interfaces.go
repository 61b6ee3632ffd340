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

// Package sqleq is this module's public-facing surface, the way the
// teacher's own root package (sqle) sits above its sql/engine internals:
// it names the two external collaborators engine.Check/Disambiguate
// assume exist but does not implement (a SQL-text parser, a live-RDBMS
// differential tester) without forcing either one into the engine
// package itself.
package sqleq

import (
	"context"

	"github.com/dolthub/go-sqleq/ast"
	"github.com/dolthub/go-sqleq/engine"
)

// Parser turns SQL text into the ast.Query this module's encoders
// consume. The SQL-text grammar itself is out of scope; callers supply
// their own (a generated grammar, vitess's sqlparser, or, in tests,
// hand-built ast.Query literals).
type Parser interface {
	Parse(sql string) (ast.Query, error)
}

// Tester closes the loop a NEQ verdict opens: it runs q1Text and q2Text
// against an RDBMS seeded with schemaDDL and cex's rows and reports
// whether their result sets actually differ, the live-database
// confirmation step spec.md describes as an external collaborator.
// difftest.MySQL and difftest.Postgres are concrete implementations.
type Tester interface {
	Differ(ctx context.Context, schemaDDL string, cex engine.CounterExample, q1Text, q2Text string) (bool, error)
}
