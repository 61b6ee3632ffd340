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

// Package engine implements C10, the query orchestrator: it wires the
// schema/formula/search/solver packages together behind Env.Check and
// Env.Disambiguate, the two entry points spec.md §6 exposes as the
// module's public API. Grounded in environment.py's Environment class.
package engine

import (
	"sort"
	"time"

	uuid "github.com/satori/go.uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/src-d/go-errors.v1"

	"github.com/dolthub/go-sqleq/ast"
	"github.com/dolthub/go-sqleq/astinit"
	"github.com/dolthub/go-sqleq/constraint"
	"github.com/dolthub/go-sqleq/formula"
	"github.com/dolthub/go-sqleq/internal/config"
	"github.com/dolthub/go-sqleq/internal/logging"
	"github.com/dolthub/go-sqleq/schema"
	"github.com/dolthub/go-sqleq/search"
	"github.com/dolthub/go-sqleq/solver"
	"github.com/dolthub/go-sqleq/term"
)

// ErrInternal reports a truly-impossible internal state (spec.md §7):
// it is returned for a FROM node kind the dispatcher does not
// recognize, not for a malformed query. Check and Disambiguate do not
// recover panics; a panic in encoding or search reaches the caller.
var ErrInternal = errors.NewKind("engine: internal error: %s")

// Env holds one schema, its integrity constraints, and the tuning knobs
// every Check/Disambiguate call against it shares. It is not safe for
// concurrent use: encoding mutates the shared schema.Database table-id
// counter, matching spec.md §5's "no user-level parallelism across
// queries" rule.
type Env struct {
	// schemaData is the Schema JSON encoding, retained so every
	// Check/Disambiguate call can rebuild db/interns from scratch the
	// way environment.py's clear() reloads self.schema before each
	// call, rather than letting derived operator-output tables from one
	// call bleed into the next.
	schemaData []byte
	bound      int

	db      *schema.Database
	interns *schema.InternTable
	cons    []constraint.Constraint
	// baseTableIDs are the table ids DecodeJSON allocated directly from
	// the Schema JSON, recaptured by reloadSchema at the start of every
	// call: db.Schemas also accumulates derived operator-output tables
	// during that same call's encoding, so this is the only way to
	// recover "which tables are base tables" for counter-example
	// extraction once the call has run.
	baseTableIDs []int

	tuning *config.Tuning
	log    *logrus.Entry
	id     string

	// m is rebuilt fresh by every Check/Disambiguate call; outerTable/
	// outerTupleIdx and currQueryID/nextQueryID are per-call encoding
	// state, reset in newCall.
	m             *formula.Manager
	outerTable    *schema.TableSchema
	outerTupleIdx int
	currQueryID   int
	nextQueryID   int

	// solverFactory overrides newSolver's real subprocess with a scripted
	// solverBackend, so tests can drive Check/Disambiguate end-to-end
	// without a live z3 binary. Left nil in production use.
	solverFactory func() (solverBackend, error)
}

// NewEnv builds an Env over schemaDefs (already-decoded Schema JSON
// table definitions) and cons (already-parsed integrity constraints; the
// constraint-DSL parser itself stays out of scope per SPEC_FULL.md §6).
// bound sizes every base table; timeBudget becomes the default tuning's
// wall-clock budget.
func NewEnv(schemaDefs []schema.TableDef, cons []constraint.Constraint, bound int, timeBudget time.Duration) (*Env, error) {
	tuning := config.Default()
	tuning.RowBound = bound
	tuning.TimeBudget = timeBudget
	return NewEnvWithTuning(schemaDefs, cons, tuning)
}

// NewEnvWithTuning is NewEnv for a caller that already has a
// *config.Tuning (e.g. loaded via config.Load), per SPEC_FULL.md's
// "engine.NewEnv accepts either a *config.Tuning or config.Default()".
func NewEnvWithTuning(schemaDefs []schema.TableDef, cons []constraint.Constraint, tuning *config.Tuning) (*Env, error) {
	data, err := encodeTableDefs(schemaDefs)
	if err != nil {
		return nil, err
	}

	// A scratch decode just to harvest the schema-derived constraints;
	// reloadSchema below does the real decode that Env keeps using.
	scratch := schema.NewDatabase()
	enums, pks, fks, err := schema.DecodeJSON(data, scratch, tuning.RowBound)
	if err != nil {
		return nil, err
	}
	derived := derivedConstraints(enums, pks, fks)
	all := append(append([]constraint.Constraint{}, derived...), cons...)

	runID := uuid.NewV4().String()
	entry := logging.WithRun(logging.New(nil, "engine"), runID)

	e := &Env{
		schemaData: data, bound: tuning.RowBound,
		cons: all, tuning: tuning, log: entry, id: runID,
	}
	if err := e.reloadSchema(); err != nil {
		return nil, err
	}
	return e, nil
}

// reloadSchema rebuilds db and interns from schemaData, discarding
// whatever derived operator-output tables the previous call's encoding
// left behind. Grounded in environment.py's load_schema, invoked by
// clear() before every check()/disambiguate() call.
func (e *Env) reloadSchema() error {
	db := schema.NewDatabase()
	if _, _, _, err := schema.DecodeJSON(e.schemaData, db, e.bound); err != nil {
		return err
	}
	e.db = db
	e.interns = schema.NewInternTable()

	baseIDs := make([]int, 0, len(db.Schemas))
	for id := range db.Schemas {
		baseIDs = append(baseIDs, id)
	}
	sort.Ints(baseIDs)
	e.baseTableIDs = baseIDs
	return nil
}

func derivedConstraints(enums []schema.EnumConstraint, pks []schema.PrimaryKey, fks []schema.ForeignKey) []constraint.Constraint {
	var out []constraint.Constraint
	for _, pk := range pks {
		cols := make([]string, len(pk.Columns))
		for i, c := range pk.Columns {
			cols[i] = pk.TableName + "." + c
		}
		out = append(out, constraint.Unique{Columns: cols, Primary: true})
	}
	for _, fk := range fks {
		out = append(out, constraint.ForeignKey{
			Child:  fk.ChildTable + "." + fk.ChildColumn,
			Parent: fk.ParentTable + "." + fk.ParentColumn,
		})
	}
	for _, e := range enums {
		values := make([]any, len(e.Values))
		for i, v := range e.Values {
			values[i] = v
		}
		out = append(out, constraint.Enum{Column: e.TableName + "." + e.ColumnName, Values: values})
	}
	return out
}

// newCall resets the per-invocation encoding state before a fresh Check
// or Disambiguate call: db/interns are rebuilt from the declared schema
// (so the previous call's derived operator tables are gone and string
// hashes start clean), a fresh formula manager replaces the old one, and
// query-id/outer-correlation state is cleared. Mirrors environment.py's
// clear() + load_schema(self.schema) cycle.
func (e *Env) newCall() error {
	if err := e.reloadSchema(); err != nil {
		return err
	}
	e.m = formula.NewManager()
	e.outerTable, e.outerTupleIdx = nil, -1
	e.currQueryID, e.nextQueryID = 0, 1
	return nil
}

// --- encode.Context ---

func (e *Env) StringHash(s string) int64 { return e.interns.Intern(s) }

func (e *Env) FindTableByName(name string, queryID int) (*schema.TableSchema, error) {
	return e.db.FindByName(name, queryID)
}

func (e *Env) CurrQueryID() int { return e.currQueryID }

func (e *Env) Cell(tableID, rowID, columnID int) term.Term {
	return term.Cell{TableID: tableID, RowID: rowID, ColumnID: columnID}
}

func (e *Env) Null(tableID, rowID, columnID int) term.Term {
	return term.Null{TableID: tableID, RowID: rowID, ColumnID: columnID}
}

func (e *Env) OuterContext() (*schema.TableSchema, int) { return e.outerTable, e.outerTupleIdx }

// EncodeSubquery encodes q as its own operator pipeline, correlating any
// attribute reference inside it against outerTableID/outerTupleID for
// the duration of the encode -- every RowEncoder/GroupEncoder built
// anywhere within q's tree picks this up via OuterContext(), however
// deeply ops.Filter/ops.Project/... nest it. Grounded in
// query_encoder.py's correlated sub-query handling (threaded through
// ExpressionEncoder's outer_tuple_idx/outer_table).
func (e *Env) EncodeSubquery(q *ast.Query, outerTableID, outerTupleID int) (*schema.TableSchema, error) {
	var outerTable *schema.TableSchema
	if outerTableID >= 0 {
		outerTable = e.db.Schemas[outerTableID]
	}
	prevTable, prevTuple := e.outerTable, e.outerTupleIdx
	e.outerTable, e.outerTupleIdx = outerTable, outerTupleID
	defer func() { e.outerTable, e.outerTupleIdx = prevTable, prevTuple }()
	return e.encodeQuery(q)
}

// --- ops.Env ---

func (e *Env) NextTableID() int { return e.db.NextTableID() }

func (e *Env) AddTable(t *schema.TableSchema) { e.db.AddTable(t) }

func (e *Env) Assert(label string, t term.Term) { e.m.Assert(label, t) }

func (e *Env) BindTable(label string, tableID, bits int) { e.m.BindTable(label, tableID, bits) }

func (e *Env) BindSortedTable(label string, tableID, bits int) {
	e.m.BindSortedTable(label, tableID, bits)
}

// --- astinit.Registrar ---

func (e *Env) NextLabelID() int { return e.m.NextLabelID() }

func (e *Env) Register(label string, node ast.Node) { e.m.Register(label, node) }

// solverBackend is everything runSearch needs from a solver session:
// search.Prover's sat-checking protocol plus the raw SMT-LIB eval/close
// calls extractCounterExample reads a witnessing model back through.
// *solver.Process satisfies it; tests substitute a scripted fake so
// Check/Disambiguate can be exercised end-to-end without spawning a real
// z3 process.
type solverBackend interface {
	search.Prover
	EvalBool(expr string) (bool, error)
	EvalInt(expr string) (int, error)
	Close() error
}

// newSolver spawns a fresh solver process using the tuning's binary
// path, one per Check/Disambiguate call per spec.md §5, unless
// solverFactory has been set to something else.
func (e *Env) newSolver() (solverBackend, error) {
	if e.solverFactory != nil {
		return e.solverFactory()
	}
	p := solver.New(solver.DefaultOptions(e.tuning.SolverPath), e.log)
	if err := p.Start(); err != nil {
		return nil, err
	}
	return p, nil
}

// coverStrategy realizes tuning.CoverStrategy (config.CoverLeftTops,
// config.CoverRightTops, config.CoverTopsRatio) as the search.CoverStrategy
// backtrack's cover_ua step tries for an unsat-core operator, defaulting
// to LeftTops for an unrecognized or zero-valued setting.
func (e *Env) coverStrategy() search.CoverStrategy {
	switch e.tuning.CoverStrategy {
	case config.CoverRightTops:
		return search.RightTops{Right: e.tuning.BacktrackLeftTops}
	case config.CoverTopsRatio:
		return search.TopsRatio{Ratio: e.tuning.TopsRatio}
	default:
		return search.LeftTops{Left: e.tuning.BacktrackLeftTops}
	}
}

func (e *Env) searchConfig() search.Config {
	return search.Config{
		BacktrackCover: e.coverStrategy(),
		ScanBatch:      e.tuning.ScanBatch,
	}
}

// runVariant runs frontiers to completion with the search variant
// tuning.SearchVariant selects: config.Learning (default) drives the
// conflict-learning loop via Engine.Run, config.Naive instead exhausts
// every cover combination up front via Engine.Naive, ignoring frontiers
// entirely since the naive variant always considers every label from the
// start. Grounded in spec.md §4.8's documented Naive cross-check variant.
func (e *Env) runVariant(prover solverBackend, frontiers [][]string) (bool, search.Stats, error) {
	eng := search.New(e.m, prover, e.searchConfig())
	if e.tuning.SearchVariant == config.Naive {
		return eng.Naive(e.coverStrategy())
	}
	return eng.Run(frontiers)
}
