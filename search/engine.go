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

// Package search implements C8, the under-approximation search and
// conflict-learning loop: it expands a formula.Manager's considered
// set (M) frontier by frontier, alternates encode/dump/check rounds
// against a solver, and on unsat narrows the offending operators'
// choice vectors via backtrack before trying again. Grounded in
// formula.py's search/search_naive/backtrack/cover_ua/add_kb.
package search

import (
	"strings"

	pp "github.com/k0kubun/pp/v3"
	"github.com/sirupsen/logrus"

	"github.com/dolthub/go-sqleq/formula"
	"github.com/dolthub/go-sqleq/internal/logging"
)

// Prover is everything the search engine needs from the SMT driver
// (C2). It is owned here, narrower than whatever the solver package's
// concrete client exposes, so this package stays decoupled from the
// driver's transport details.
type Prover interface {
	// Check submits smt (a full SMT-LIB v2 script) and reports sat/unsat.
	Check(smt string) (bool, error)
	// UnsatCore returns the named assertions that made the last Check
	// call's query unsatisfiable. Only valid to call after a Check that
	// returned false.
	UnsatCore() ([]string, error)
	// EvalChoiceVector returns the model value of choice(tableID, i) for
	// i in [0, bits) from the last Check call's model. Only valid to
	// call after a Check that returned true.
	EvalChoiceVector(tableID, bits int) ([]int, error)
}

// Config tunes the search loop's heuristics.
type Config struct {
	// BacktrackCover builds the candidate covers backtrack tries for
	// each unsat-core operator, per formula.py's cover_ua(left_tops=8).
	BacktrackCover CoverStrategy
	// ScanBatch caps how many consecutive scan labels a single frontier
	// expansion step pulls in at once, per spec.md's "heuristic batches
	// of up to 25 labels when peeling scans".
	ScanBatch int
}

// DefaultConfig returns the original's own tuning: LeftTops{8} for
// backtrack covers, batches of 25 scan labels per frontier expansion.
func DefaultConfig() Config {
	return Config{BacktrackCover: LeftTops{Left: 8}, ScanBatch: 25}
}

// Stats records search-loop diagnostics, grounded in search()'s own
// unsat_core_sizes/M_sizes/type_2_backtracks counters.
type Stats struct {
	Rounds           int
	UnsatCoreSizes   []int
	ConsideredSizes  []int
	Type2Backtracks  int
	BacktrackCalls   int
	BacktrackSuccess int
}

// Engine runs the search loop over one formula.Manager against one
// Prover.
type Engine struct {
	m      *formula.Manager
	prover Prover
	cfg    Config
	log    *logrus.Entry
}

// New returns an Engine ready to run against m's current assertions.
func New(m *formula.Manager, prover Prover, cfg Config) *Engine {
	return &Engine{m: m, prover: prover, cfg: cfg, log: logging.New(nil, "search")}
}

// isOperatorLabel reports whether label names an operator assertion
// (astinit's convention: every operator label contains '$') rather
// than a scan, integrity-constraint, or disambiguation formula, which
// are always considered regardless of M.
func isOperatorLabel(label string) bool {
	return strings.Contains(label, "$")
}

// Run drives the search loop to completion. frontiers holds one
// worklist per query root under test: an equivalence check passes two
// (one per query), disambiguation passes one per candidate query.
// Each is the ordered list of that root's operator labels, deepest
// (closest to the scan) last, so popping from the end walks the tree
// upward one operator at a time -- spec.md's "one frontier per query,
// typical step: one label per side per iteration". Run reports true
// (sat: the two queries can produce a witnessing difference /
// disambiguation succeeded) or false (proven equivalent / proven
// indistinguishable within budget).
func (e *Engine) Run(frontiers [][]string) (bool, Stats, error) {
	var stats Stats

	for _, label := range e.m.Labels() {
		if !isOperatorLabel(label) {
			e.m.Consider(label)
		}
	}
	for i, f := range frontiers {
		if len(f) == 0 {
			continue
		}
		last := len(f) - 1
		e.m.Consider(f[last])
		frontiers[i] = f[:last]
	}

	for {
		stats.Rounds++
		e.m.EncodeCurrentUnder()
		smt, err := e.m.Dump()
		if err != nil {
			return false, stats, err
		}

		sat, err := e.prover.Check(smt)
		if err != nil {
			return false, stats, err
		}

		if !sat {
			core, err := e.prover.UnsatCore()
			if err != nil {
				return false, stats, err
			}
			stats.UnsatCoreSizes = append(stats.UnsatCoreSizes, len(core))
			if containsAny(core, "neq", "disambiguation") {
				stats.Type2Backtracks++
			}

			expanded := expandConflictLabels(core)
			stats.BacktrackCalls++
			ok, err := e.backtrack(expanded)
			if err != nil {
				return false, stats, err
			}
			if ok {
				stats.BacktrackSuccess++
				continue
			}
			return false, stats, nil
		}

		// sat: snapshot every considered operator's choice vector into
		// the current under-approximation before widening the frontiers.
		for label := range considered(e.m) {
			binding, ok := e.m.Table(label)
			if !ok {
				continue
			}
			vals, err := e.prover.EvalChoiceVector(binding.TableID, binding.Bits)
			if err != nil {
				return false, stats, err
			}
			e.m.SetUnder(binding.TableID, intsToBits(vals))
		}
		stats.ConsideredSizes = append(stats.ConsideredSizes, countOperatorLabels(e.m))
		if e.log.Logger.IsLevelEnabled(logrus.DebugLevel) {
			e.log.Debugf("round %d sat, considered=%s", stats.Rounds, pp.Sprint(considered(e.m)))
		}

		if allEmpty(frontiers) {
			return true, stats, nil
		}
		e.expandFrontiers(frontiers)
	}
}

// expandFrontiers pops up to cfg.ScanBatch consecutive scan labels (or
// a single non-scan label) off the end of every non-empty frontier and
// adds them to M, per spec.md's batching heuristic. In practice the loop
// below never takes more than one label per call: engine/frontier.go
// never puts a scan label into a frontier in the first place (scans are
// always considered up front), and no other operator label prefix
// contains "scan", so cfg.ScanBatch is currently dead beyond 1.
func (e *Engine) expandFrontiers(frontiers [][]string) {
	batch := e.cfg.ScanBatch
	if batch < 1 {
		batch = 1
	}
	for i, f := range frontiers {
		n := len(f)
		if n == 0 {
			continue
		}
		taken := 0
		for n > 0 && taken < batch {
			label := f[n-1]
			e.m.Consider(label)
			n--
			taken++
			if !strings.Contains(label, "scan") {
				break
			}
		}
		frontiers[i] = f[:n]
	}
}

func considered(m *formula.Manager) map[string]bool {
	out := make(map[string]bool)
	for _, label := range m.Labels() {
		if isOperatorLabel(label) && m.IsConsidered(label) {
			out[label] = true
		}
	}
	return out
}

func countOperatorLabels(m *formula.Manager) int {
	n := 0
	for _, label := range m.Labels() {
		if isOperatorLabel(label) && m.IsConsidered(label) {
			n++
		}
	}
	return n
}

func allEmpty(frontiers [][]string) bool {
	for _, f := range frontiers {
		if len(f) > 0 {
			return false
		}
	}
	return true
}

func containsAny(labels []string, needles ...string) bool {
	for _, l := range labels {
		for _, n := range needles {
			if strings.Contains(l, n) {
				return true
			}
		}
	}
	return false
}

// expandConflictLabels replaces any learned-conflict entry in core
// (named "conflictN_label1&label2&...") with its constituent operator
// labels, so backtrack narrows M down to real formula-manager labels
// only. Grounded in add_kb's own unsat_core filtering.
func expandConflictLabels(core []string) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(label string) {
		if !seen[label] {
			seen[label] = true
			out = append(out, label)
		}
	}
	for _, label := range core {
		if !strings.HasPrefix(label, "conflict") {
			add(label)
			continue
		}
		idx := strings.Index(label, "_")
		if idx < 0 {
			continue
		}
		for _, opLabel := range strings.Split(label[idx+1:], "&") {
			if opLabel != "" {
				add(opLabel)
			}
		}
	}
	return out
}

// intsToBits converts a model-readback vector to Bit values. A
// negative entry is the Prover's sentinel for "this bit's eval reply
// did not parse as a literal" (the solver left it genuinely free);
// it is preserved as Top rather than hard-pinned.
func intsToBits(vals []int) []formula.Bit {
	out := make([]formula.Bit, len(vals))
	for i, v := range vals {
		switch {
		case v < 0:
			out[i] = formula.Top
		case v == 0:
			out[i] = formula.Zero
		default:
			out[i] = formula.One
		}
	}
	return out
}
