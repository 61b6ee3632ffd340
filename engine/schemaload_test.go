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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dolthub/go-sqleq/schema"
)

func TestEncodeTableDefsRoundTripsThroughDecodeJSON(t *testing.T) {
	defs := []schema.TableDef{
		{TableName: "t", Others: []schema.ColumnDef{{Name: "id", Type: "int"}}},
	}
	data, err := encodeTableDefs(defs)
	require.NoError(t, err)

	db := schema.NewDatabase()
	_, _, _, err = schema.DecodeJSON(data, db, 3)
	require.NoError(t, err)
	require.Len(t, db.Schemas, 1)
}
