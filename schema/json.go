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

import (
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/spf13/cast"
	"gopkg.in/src-d/go-errors.v1"
)

// ErrBadSchemaJSON is returned for a structurally invalid schema document.
var ErrBadSchemaJSON = errors.NewKind("schema: %s")

// ColumnDef and TableDef mirror the Schema JSON input shape of the
// external interfaces: an array of tables, each with primary keys,
// foreign keys and "other" (plain) columns.
type ColumnDef struct {
	Name string `json:"Name"`
	Type string `json:"Type"`
}

type FKeyDef struct {
	FName  string `json:"FName"`
	PTable string `json:"PTable"`
	PName  string `json:"PName"`
	Type   string `json:"Type,omitempty"`
}

type TableDef struct {
	TableName string      `json:"TableName"`
	PKeys     []ColumnDef `json:"PKeys"`
	FKeys     []FKeyDef   `json:"FKeys"`
	Others    []ColumnDef `json:"Others"`
}

// EnumConstraint records a string column whose value must lie in a fixed
// set, produced by expanding a "enum,v1,v2,..." type tag. DecodeJSON
// returns these alongside the Database so the caller's constraint.Build
// step can fold them into the integrity-constraint list (§4.6 enum).
type EnumConstraint struct {
	TableName, ColumnName string
	Values                []string
}

// ParseType maps a Schema JSON type tag to a schema.Type, or, for an
// "enum,v1,v2,..." tag, to TypeString plus the enumerated literal set.
func ParseType(tag string) (Type, []string, error) {
	tag = strings.TrimSpace(tag)
	if strings.HasPrefix(strings.ToLower(tag), "enum") {
		parts := strings.Split(tag, ",")
		return TypeString, parts[1:], nil
	}
	switch strings.ToLower(tag) {
	case "int", "bigint":
		return TypeInt, nil, nil
	case "float", "double", "decimal":
		return TypeFloat, nil, nil
	case "varchar", "string", "text":
		return TypeString, nil, nil
	case "bool", "boolean":
		return TypeBool, nil, nil
	case "date":
		return TypeDate, nil, nil
	case "time":
		return TypeTime, nil, nil
	case "datetime", "timestamp":
		return TypeDatetime, nil, nil
	default:
		return 0, nil, ErrBadSchemaJSON.New("unrecognized column type " + tag)
	}
}

// DecodeJSON parses a Schema JSON document, allocates a TableSchema (with
// fresh table/column ids) per table via db, and returns the enum
// constraints implied by any "enum,..." type tag, plus a flat list of
// declared primary/foreign keys for the caller's constraint builder.
type PrimaryKey struct {
	TableName string
	Columns   []string
}

type ForeignKey struct {
	ChildTable, ChildColumn   string
	ParentTable, ParentColumn string
}

func DecodeJSON(data []byte, db *Database, bound int) ([]EnumConstraint, []PrimaryKey, []ForeignKey, error) {
	var defs []TableDef
	if err := json.Unmarshal(data, &defs); err != nil {
		return nil, nil, nil, ErrBadSchemaJSON.New(err.Error())
	}

	var enums []EnumConstraint
	var pks []PrimaryKey
	var fks []ForeignKey

	for _, td := range defs {
		tableID := db.NextTableID()
		ts := &TableSchema{
			TableID:   tableID,
			TableName: td.TableName,
			Bound:     bound,
			Lineage:   "Scanned from " + td.TableName,
		}

		colID := 0
		addColumn := func(cd ColumnDef) error {
			typ, values, err := ParseType(cd.Type)
			if err != nil {
				return err
			}
			ts.Columns = append(ts.Columns, ColumnSchema{
				ColumnID:   colID,
				ColumnName: cd.Name,
				ColumnType: typ,
				TableName:  td.TableName,
			})
			if len(values) > 0 {
				enums = append(enums, EnumConstraint{TableName: td.TableName, ColumnName: cd.Name, Values: values})
			}
			colID++
			return nil
		}

		var pkCols []string
		for _, cd := range td.PKeys {
			if err := addColumn(cd); err != nil {
				return nil, nil, nil, err
			}
			pkCols = append(pkCols, cd.Name)
		}
		if len(pkCols) > 0 {
			pks = append(pks, PrimaryKey{TableName: td.TableName, Columns: pkCols})
		}
		for _, fd := range td.FKeys {
			cd := ColumnDef{Name: fd.FName, Type: fd.Type}
			if cd.Type == "" {
				cd.Type = "int"
			}
			if err := addColumn(cd); err != nil {
				return nil, nil, nil, err
			}
			fks = append(fks, ForeignKey{
				ChildTable: td.TableName, ChildColumn: fd.FName,
				ParentTable: fd.PTable, ParentColumn: fd.PName,
			})
		}
		for _, cd := range td.Others {
			if err := addColumn(cd); err != nil {
				return nil, nil, nil, err
			}
		}

		db.AddTable(ts)
	}
	return enums, pks, fks, nil
}

// InternTable is the bidirectional string<->hash map for VARCHAR cell
// encoding (§3 "strings are interned by a hash function to integers").
// The hash is deterministic (FNV-1a) and collisions are resolved by
// linear probing so the map stays exactly invertible, per the round-trip
// boundary behavior in §8.
type InternTable struct {
	toHash   map[string]int64
	toString map[int64]string
}

func NewInternTable() *InternTable {
	return &InternTable{toHash: make(map[string]int64), toString: make(map[int64]string)}
}

func fnv1a(s string) int64 {
	var h uint64 = 1469598103934665603
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= 1099511628211
	}
	return int64(h & 0x7fffffffffffffff)
}

// Intern returns the stable integer encoding of s, resolving hash
// collisions by linear probing so distinct strings never alias.
func (t *InternTable) Intern(s string) int64 {
	if h, ok := t.toHash[s]; ok {
		return h
	}
	h := fnv1a(s)
	for {
		if existing, ok := t.toString[h]; !ok || existing == s {
			break
		}
		h++
	}
	t.toHash[s] = h
	t.toString[h] = s
	return h
}

// Lookup reverses Intern.
func (t *InternTable) Lookup(h int64) (string, bool) {
	s, ok := t.toString[h]
	return s, ok
}

// epochDateDays is 1000-01-01, the epoch §3 specifies for date encoding.
const epochDateDays = 0 // internal representation is days since 1000-01-01 directly, see EncodeDate.

// EncodeDate and DecodeDate implement the days-since-1000-01-01 encoding
// using a proleptic Gregorian day-number calculation, so dates far enough
// in either direction still round-trip exactly (§8).
func EncodeDate(year, month, day int) int64 {
	return int64(julianDayNumber(year, month, day) - julianDayNumber(1000, 1, 1))
}

func DecodeDate(days int64) (year, month, day int) {
	return fromJulianDayNumber(julianDayNumber(1000, 1, 1) + int(days))
}

func julianDayNumber(y, m, d int) int {
	a := (14 - m) / 12
	yy := y + 4800 - a
	mm := m + 12*a - 3
	return d + (153*mm+2)/5 + 365*yy + yy/4 - yy/100 + yy/400 - 32045
}

func fromJulianDayNumber(jdn int) (int, int, int) {
	a := jdn + 32044
	b := (4*a + 3) / 146097
	c := a - (146097*b)/4
	d := (4*c + 3) / 1461
	e := c - (1461*d)/4
	m := (5*e + 2) / 153
	day := e - (153*m+2)/5 + 1
	month := m + 3 - 12*(m/10)
	year := 100*b + d - 4800 + m/10
	return year, month, day
}

// EncodeTime/DecodeTime: seconds since midnight, per §3.
func EncodeTime(hour, minute, second int) int64 {
	return int64(hour*3600 + minute*60 + second)
}

func DecodeTime(seconds int64) (hour, minute, second int) {
	s := int(seconds)
	return s / 3600, (s % 3600) / 60, s % 60
}

// FormatDate/FormatTime render the ISO-8601 text the counter-example
// shape (§6) requires.
func FormatDate(days int64) string {
	y, m, d := DecodeDate(days)
	return strconv.Itoa(y) + "-" + pad2(m) + "-" + pad2(d)
}

func FormatTime(seconds int64) string {
	h, m, s := DecodeTime(seconds)
	return pad2(h) + ":" + pad2(m) + ":" + pad2(s)
}

func pad2(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

// CastEnumIndex resolves a literal against an enum's declared values to
// its ordinal, used by the enum-type literal encoder in package encode.
// It uses spf13/cast to tolerate the value arriving as any JSON-decoded
// scalar type, not just string.
func CastEnumIndex(v any, values []string) (int, bool) {
	s, err := cast.ToStringE(v)
	if err != nil {
		return 0, false
	}
	for i, c := range values {
		if c == s {
			return i, true
		}
	}
	return 0, false
}
