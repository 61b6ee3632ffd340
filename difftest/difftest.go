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

// Package difftest supplies concrete, real-database implementations of
// sqleq.Tester: MySQL (github.com/go-sql-driver/mysql) and Postgres
// (github.com/lib/pq). Both seed an RDBMS with a counter-example
// database and a schema's DDL, run the pair of candidate queries
// against it, and report whether their result sets actually diverge --
// the live-database confirmation step spec.md leaves as an external
// collaborator.
package difftest

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/dolthub/go-sqleq/engine"
)

// seedSchema executes schemaDDL (one or more ';'-separated CREATE TABLE
// statements, already dialect-correct for db) against db.
func seedSchema(ctx context.Context, db *sql.DB, schemaDDL string) error {
	for _, stmt := range strings.Split(schemaDDL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("difftest: seeding schema: %w", err)
		}
	}
	return nil
}

// seedRows inserts every row of cex's tables into their matching
// already-created tables. placeholder renders a parameter's 1-based
// position in the bind-parameter syntax db's driver expects ("?" for
// MySQL, "$1" for Postgres).
func seedRows(ctx context.Context, db *sql.DB, cex engine.CounterExample, placeholder func(pos int) string) error {
	for table, data := range cex {
		if len(data.Rows) == 0 {
			continue
		}
		placeholders := make([]string, len(data.Header))
		for i := range placeholders {
			placeholders[i] = placeholder(i + 1)
		}
		stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			table, strings.Join(data.Header, ", "), strings.Join(placeholders, ", "))
		for _, row := range data.Rows {
			if _, err := db.ExecContext(ctx, stmt, row...); err != nil {
				return fmt.Errorf("difftest: seeding %s: %w", table, err)
			}
		}
	}
	return nil
}

// runQuery executes sql and renders every returned row as a sorted,
// comma-joined text blob: sorting first makes the comparison a genuine
// bag (not list) equality check, matching spec.md §4.10's bag/list
// distinction for an unordered query.
func runQuery(ctx context.Context, db *sql.DB, query string) (string, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return "", fmt.Errorf("difftest: running query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return "", err
	}

	var lines []string
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return "", err
		}
		cells := make([]string, len(vals))
		for i, v := range vals {
			if v == nil {
				cells[i] = "NULL"
				continue
			}
			cells[i] = fmt.Sprintf("%v", v)
		}
		lines = append(lines, strings.Join(cells, ","))
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n"), nil
}

// differ seeds db with schemaDDL and cex, runs q1Text and q2Text, and
// reports whether their rendered row sets differ. No diffs at all (both
// blobs empty) or a single-diff, all-Equal result from diffmatchpatch
// means the two blobs are identical; anything else is a genuine
// divergence.
func differ(ctx context.Context, db *sql.DB, schemaDDL string, cex engine.CounterExample, q1Text, q2Text string, placeholder func(pos int) string) (bool, error) {
	if err := seedSchema(ctx, db, schemaDDL); err != nil {
		return false, err
	}
	if err := seedRows(ctx, db, cex, placeholder); err != nil {
		return false, err
	}

	out1, err := runQuery(ctx, db, q1Text)
	if err != nil {
		return false, err
	}
	out2, err := runQuery(ctx, db, q2Text)
	if err != nil {
		return false, err
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(out1, out2, false)
	if len(diffs) == 0 || (len(diffs) == 1 && diffs[0].Type == diffmatchpatch.DiffEqual) {
		return false, nil
	}
	return true, nil
}
