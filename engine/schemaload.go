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
	json "github.com/goccy/go-json"

	"github.com/dolthub/go-sqleq/schema"
)

// encodeTableDefs round-trips already-decoded TableDef values back
// through the Schema JSON shape so NewEnv can reuse schema.DecodeJSON's
// table/column/enum/PK/FK derivation logic rather than duplicating it.
func encodeTableDefs(defs []schema.TableDef) ([]byte, error) {
	return json.Marshal(defs)
}
