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

// Package formula implements C7, the formula manager: the label-to-
// term assertion set every operator/constraint encoder writes into,
// the label bookkeeping astinit (C9) populates while it walks the
// AST, the current under-approximation the search engine (C8) reads
// and narrows, and the conflict knowledge base that same loop feeds.
// Grounded throughout on formula.py's FormulaManager.
package formula

import (
	"sort"
	"strings"
	"time"

	pp "github.com/k0kubun/pp/v3"
	"github.com/sirupsen/logrus"

	"github.com/dolthub/go-sqleq/ast"
	"github.com/dolthub/go-sqleq/internal/logging"
	"github.com/dolthub/go-sqleq/term"
)

// Bit is one position of an under-approximation choice vector: hard-
// pinned to 0 or 1, or left Top ("free for the solver"). Mirrors the
// original's vector entries, which are either an int or the string
// 'T'.
type Bit int

const (
	Zero Bit = iota
	One
	Top
)

// TableBinding records, for one assertion label, which table's choice
// vector the search engine must cover to expand that label, and how
// many bits the vector spans. Populated by ops.Env.BindTable; see
// DESIGN.md for why this replaces the original's after-the-fact
// lineage-string reconstruction.
type TableBinding struct {
	TableID int
	Bits    int
	// Sorted marks a table (OrderBy's output) whose Choice values are
	// ranks in [0,k] rather than binary 0/1 decisions, so the search
	// engine must never attempt to hard-pin any of its bits.
	Sorted bool
}

// Conflict is one failed backtrack combination: for every operator
// table involved in an unsat core, the partial choice vector that was
// tried. Fed to KnowledgeBase.AddConflict.
type Conflict map[int][]Bit

// Manager owns the label->term assertion map, the label->node and
// label->table bookkeeping, the current under-approximation, and the
// conflict knowledge base. It implements astinit.Registrar
// (NextLabelID/Register) and the Assert/BindTable half of ops.Env;
// the remaining encode.Context/table-allocation methods are supplied
// by the concrete Env the engine package composes around a Manager.
type Manager struct {
	formulas map[string]term.Term
	order    []string
	printed  map[string]string

	labelToNode  map[string]ast.Node
	labelToTable map[string]TableBinding

	nodeCurLabel int

	considered map[string]bool

	current map[int][]Bit

	kb *KnowledgeBase

	// Budget is the wall-clock timeout forwarded to the SMT driver,
	// the original's self.timeout (seconds; kept here as a Duration
	// since the orchestrator already works in time.Duration).
	Budget time.Duration

	log *logrus.Entry
}

// NewManager returns an empty Manager with the original's 120-second
// default timeout.
func NewManager() *Manager {
	return &Manager{
		formulas:     make(map[string]term.Term),
		printed:      make(map[string]string),
		labelToNode:  make(map[string]ast.Node),
		labelToTable: make(map[string]TableBinding),
		considered:   make(map[string]bool),
		current:      make(map[int][]Bit),
		kb:           NewKnowledgeBase(),
		Budget:       120 * time.Second,
		log:          logging.New(nil, "formula"),
	}
}

// NextLabelID implements astinit.Registrar, handing out the same
// monotonically increasing ids as next_node_label (first call returns
// 1, matching node_cur_label's pre-increment).
func (m *Manager) NextLabelID() int {
	m.nodeCurLabel++
	return m.nodeCurLabel
}

// Register implements astinit.Registrar: records which AST node owns
// label, so the search engine and counter-example formatter can later
// recover the node a label names (label_to_node).
func (m *Manager) Register(label string, node ast.Node) {
	m.labelToNode[label] = node
}

// Node looks up the AST node label was registered against.
func (m *Manager) Node(label string) (ast.Node, bool) {
	n, ok := m.labelToNode[label]
	return n, ok
}

// Assert implements ops.Env's Assert: a repeated label conjoins its
// new term onto the existing one (append's duplicate-label branch);
// a first-seen label is recorded in assertion order so Dump stays
// stable across calls. Conjoining invalidates that label's printed
// cache, since its text has changed since it was last cached.
func (m *Manager) Assert(label string, t term.Term) {
	if existing, ok := m.formulas[label]; ok {
		m.formulas[label] = term.And{Conjuncts: []term.Term{existing, t}}
		delete(m.printed, label)
		return
	}
	m.formulas[label] = t
	m.order = append(m.order, label)
}

// BindTable implements ops.Env's BindTable.
func (m *Manager) BindTable(label string, tableID, bits int) {
	m.labelToTable[label] = TableBinding{TableID: tableID, Bits: bits}
}

// BindSortedTable implements ops.Env's BindSortedTable.
func (m *Manager) BindSortedTable(label string, tableID, bits int) {
	m.labelToTable[label] = TableBinding{TableID: tableID, Bits: bits, Sorted: true}
}

// Table reports the choice-bearing table bound to label, if any. Base
// scan labels and the right-join reorder relabel step never call
// BindTable and so have none.
func (m *Manager) Table(label string) (TableBinding, bool) {
	b, ok := m.labelToTable[label]
	return b, ok
}

// Consider adds label to M, the set of operator labels the next Dump
// includes. Non-operator labels (no '$' in the name: scans, "ic",
// "neq", "disambiguation", "under") are always included regardless of
// this set, matching dump()'s own label filter.
func (m *Manager) Consider(label string) {
	m.considered[label] = true
}

// IsConsidered reports whether label is currently in M.
func (m *Manager) IsConsidered(label string) bool {
	return m.considered[label]
}

// Labels returns every label with an assertion, in first-asserted
// order.
func (m *Manager) Labels() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Under returns the current under-approximation vector for tableID,
// or nil if that table has never been narrowed (every bit still
// free).
func (m *Manager) Under(tableID int) []Bit {
	return m.current[tableID]
}

// SetUnder pins tableID's under-approximation vector.
func (m *Manager) SetUnder(tableID int, vec []Bit) {
	m.current[tableID] = vec
	if m.log.Logger.IsLevelEnabled(logrus.DebugLevel) {
		m.log.Debugf("under-approximation table=%d vector=%s", tableID, pp.Sprint(vec))
	}
}

// UnderTables returns every table id the current under-approximation
// narrows, for diagnostics and for EncodeCurrentUnder's deterministic
// traversal.
func (m *Manager) UnderTables() []int {
	out := make([]int, 0, len(m.current))
	for id := range m.current {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

// KB exposes the conflict knowledge base for the search engine.
func (m *Manager) KB() *KnowledgeBase { return m.kb }

// SnapshotConsidered returns a copy of M, for the search engine to
// restore after a backtrack's temporary narrowing to one unsat core.
func (m *Manager) SnapshotConsidered() map[string]bool {
	out := make(map[string]bool, len(m.considered))
	for k, v := range m.considered {
		out[k] = v
	}
	return out
}

// RestoreConsidered replaces M with a previously captured snapshot.
func (m *Manager) RestoreConsidered(snapshot map[string]bool) {
	m.considered = snapshot
}

// Reconsider replaces M with exactly the given labels, the backtrack
// step's `self.labels_considered = unsat_core`.
func (m *Manager) Reconsider(labels []string) {
	m.considered = make(map[string]bool, len(labels))
	for _, l := range labels {
		m.considered[l] = true
	}
}

// SnapshotUnder returns a copy of the current under-approximation, for
// the search engine to restore if a backtrack attempt fails outright.
func (m *Manager) SnapshotUnder() map[int][]Bit {
	out := make(map[int][]Bit, len(m.current))
	for k, v := range m.current {
		cp := make([]Bit, len(v))
		copy(cp, v)
		out[k] = cp
	}
	return out
}

// RestoreUnder replaces the current under-approximation with a
// previously captured snapshot.
func (m *Manager) RestoreUnder(snapshot map[int][]Bit) {
	m.current = snapshot
}

// ClearUnder empties the current under-approximation, the backtrack
// step's `self.current_under = {}`.
func (m *Manager) ClearUnder() {
	m.current = make(map[int][]Bit)
}

// EncodeCurrentUnder rebuilds the synthetic "under" assertion from the
// current under-approximation: a conjunction of choice(t,i) = v for
// every hard-pinned (non-Top) bit. An empty under-approximation
// removes "under" entirely rather than asserting a vacuous true,
// matching encode_current_under's own delete-when-empty branch.
func (m *Manager) EncodeCurrentUnder() {
	if len(m.current) == 0 {
		delete(m.formulas, "under")
		return
	}

	var conjuncts []term.Term
	for _, tableID := range m.UnderTables() {
		for bitID, b := range m.current[tableID] {
			if b == Top {
				continue
			}
			v := int64(0)
			if b == One {
				v = 1
			}
			conjuncts = append(conjuncts, term.NewEq(term.Choice{TableID: tableID, BitID: bitID}, term.IntLit{Value: v}))
		}
	}

	if _, ok := m.formulas["under"]; !ok {
		m.order = append(m.order, "under")
	}
	m.formulas["under"] = term.AndAll(conjuncts)
	delete(m.printed, "under")
}

// cacheable reports whether a label's printed SMT-LIB v2 text, once
// computed, can be reused across rounds without re-printing: operator
// labels (a '$' in the name) and scan/ic/neq/disambiguation formulas
// never change after assertion, so their rendering is pure overhead
// to repeat. Everything else ("under", the conflict-learning terms) is
// re-derived every round and is printed fresh each time.
func cacheable(label string) bool {
	if strings.Contains(label, "$") || strings.Contains(label, "scan") {
		return true
	}
	switch label {
	case "ic", "neq", "disambiguation":
		return true
	}
	return false
}

// Dump renders every currently-considered assertion (plus every
// non-operator-scoped one) and every learned conflict as SMT-LIB v2
// text, one `(assert (! ... :named ...))` per line. Grounded in
// dump(), including its per-label cache.
func (m *Manager) Dump() (string, error) {
	var out strings.Builder
	for _, label := range m.order {
		t, ok := m.formulas[label]
		if !ok {
			// EncodeCurrentUnder deleted this label (an emptied
			// "under"); its order slot is a harmless stale entry.
			continue
		}
		if strings.Contains(label, "$") && !m.considered[label] {
			continue
		}

		text, ok := m.printed[label]
		if !ok {
			s, err := term.Print(t)
			if err != nil {
				return "", err
			}
			text = s
			if cacheable(label) {
				m.printed[label] = text
			}
		}
		out.WriteString("\n(assert (! ")
		out.WriteString(text)
		out.WriteString(" :named ")
		out.WriteString(label)
		out.WriteString("))")
	}

	for _, name := range m.kb.Names() {
		s, err := term.Print(m.kb.Formula(name))
		if err != nil {
			return "", err
		}
		out.WriteString("\n(assert (! ")
		out.WriteString(s)
		out.WriteString(" :named ")
		out.WriteString(name)
		out.WriteString("))")
	}

	return out.String(), nil
}
