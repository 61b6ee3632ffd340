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

package ast

// Node is the closed sum type of query-plan nodes: Scan, Filter, Join,
// GroupBy, Project, OrderBy, Union, Query. Implementations are always
// used by pointer (*Scan, *Filter, ...) since Label/SetLabel are
// promoted from an embedded Meta by pointer receiver.
type Node interface {
	Label() string
	SetLabel(string)
}

// Meta carries the bookkeeping the AST initializer (C9) attaches to
// every operator node: its unique label ("filter$7") and its default
// under-approximation bound.
type Meta struct {
	NodeLabel  string
	UnderBound int
}

func (m *Meta) Label() string     { return m.NodeLabel }
func (m *Meta) SetLabel(l string) { m.NodeLabel = l }

// Scan reads a base table, optionally under an alias.
type Scan struct {
	Meta
	Table string
	Alias string
}

// Filter keeps rows of Input that satisfy Predicate (WHERE, or a
// standalone HAVING without GROUP BY).
type Filter struct {
	Meta
	Input     Node
	Predicate Expr
}

// JoinType names the join kind; RightJoin is realized by swapping sides
// into LeftJoin per SPEC_FULL.md's resolution of the original's two
// right-join code paths.
type JoinType int

const (
	InnerJoin JoinType = iota
	LeftJoin
	RightJoin
	FullJoin
	CrossJoin
)

// Join combines Left and Right under Condition (or Using, rewritten to
// an equality predicate before encoding).
type Join struct {
	Meta
	Left, Right Node
	Type        JoinType
	Condition   Expr
	Using       []string
}

// GroupBy partitions Input by Exprs and optionally filters groups by
// Having. It carries two under-approximation bounds: Meta's UnderBound
// sizes the group-representative choice vector (how many distinct
// groups the search considers); HavingBound is carried on the node, but
// ops.GroupBy does not read it and sizes HAVING's second, disjoint
// choice range at UnderBound as well.
type GroupBy struct {
	Meta
	Input       Node
	Exprs       []Expr
	Having      Expr
	HavingBound int
}

// Project evaluates Targets over Input (or over Input's groups, when
// Input is a *GroupBy), optionally deduplicating via Distinct.
type Project struct {
	Meta
	Input    Node
	Targets  []Expr
	Distinct bool

	// DistinctLabel is the separate assertion label C9 allocates
	// alongside Label when Distinct is set, so the search can toggle
	// the dedup constraint independently of the projection itself.
	DistinctLabel string
}

// OrderBy sorts Input lexicographically by Exprs/Desc and caps the
// result at Limit rows when set.
type OrderBy struct {
	Meta
	Input Node
	Exprs []Expr
	Desc  []bool
	Limit *int
}

// Union concatenates Inputs, deduplicating unless AllowDuplicates (i.e.
// UNION ALL) is set.
type Union struct {
	Meta
	Inputs          []Node
	AllowDuplicates bool
	Alias           string

	// DistinctLabel mirrors Project.DistinctLabel: allocated only when
	// AllowDuplicates is false (plain UNION, not UNION ALL).
	DistinctLabel string
}

// Query is a full SELECT: Select over From, filtered by Where, grouped
// by GroupByClause, ordered by OrderByClause. Query itself is also a
// Node so it can appear as a sub-query in a Join or as a Union member.
type Query struct {
	Meta
	Select        *Project
	From          Node
	Where         Expr
	GroupByClause *GroupBy
	OrderByClause *OrderBy
	Alias         string
}

// Sorted reports whether this query's output carries an explicit
// ordering, the "Sorted" lineage tag the bag/list equivalence switch
// (§4.10) consults.
func (q *Query) Sorted() bool { return q.OrderByClause != nil }
