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

package schema

// Table is a decoded counter-example relation: Header names the columns,
// and each entry of Rows holds one decoded value per column (int64,
// string, bool, an ISO-8601 date/time string via FormatDate/FormatTime,
// or nil for SQL NULL), per spec.md §6's counter-example shape.
type Table struct {
	Header []string
	Rows   [][]any
}
