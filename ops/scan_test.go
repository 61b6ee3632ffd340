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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dolthub/go-sqleq/ast"
	"github.com/dolthub/go-sqleq/schema"
)

func TestScanResolvesByNameAndSetsLineage(t *testing.T) {
	people := peopleTable()
	env := newFakeEnv(people)

	out, err := Scan(env, &ast.Scan{Table: "people"})
	require.NoError(t, err)
	require.Same(t, people, out)
	require.Equal(t, "Scanned from initial schema", out.Lineage)
}

func TestScanPreservesExistingLineage(t *testing.T) {
	people := peopleTable()
	people.Lineage = "Scanned from initial schema"
	env := newFakeEnv(people)

	out, err := Scan(env, &ast.Scan{Table: "people"})
	require.NoError(t, err)
	require.Equal(t, "Scanned from initial schema", out.Lineage)
}

func TestScanUnknownTable(t *testing.T) {
	env := newFakeEnv()
	_, err := Scan(env, &ast.Scan{Table: "ghost"})
	require.Error(t, err)
	require.True(t, schema.ErrUnknownTable.Is(err))
}
