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

package difftest

import (
	"context"
	"database/sql"

	_ "github.com/go-sql-driver/mysql"

	"github.com/dolthub/go-sqleq/engine"
)

// MySQL is a sqleq.Tester backed by a live MySQL/MariaDB connection.
type MySQL struct {
	db *sql.DB
}

// OpenMySQL opens dsn (a go-sql-driver/mysql DSN, e.g.
// "user:pass@tcp(host:3306)/dbname") and returns a ready-to-use MySQL
// tester. The caller owns the returned Tester's lifetime and should
// Close it when done.
func OpenMySQL(dsn string) (*MySQL, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	return &MySQL{db: db}, nil
}

// Close releases the underlying connection pool.
func (m *MySQL) Close() error { return m.db.Close() }

// Differ implements sqleq.Tester.
func (m *MySQL) Differ(ctx context.Context, schemaDDL string, cex engine.CounterExample, q1Text, q2Text string) (bool, error) {
	return differ(ctx, m.db, schemaDDL, cex, q1Text, q2Text, func(int) string { return "?" })
}
