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

// Package config loads the solver's tuning knobs -- per-operator
// under-approximation budgets, the row bound, wall-clock budget,
// backtrack left_tops, and the naive/learning search variant -- from a
// YAML document, grounded in signadot-tony-format's use of
// github.com/goccy/go-yaml for its own config documents.
package config

import (
	"time"

	yaml "github.com/goccy/go-yaml"
	"gopkg.in/src-d/go-errors.v1"
)

// ErrConfig is returned for a malformed tuning file; this is a
// configuration-load error, not a proof-search outcome, so it is
// surfaced distinctly from engine.Verdict's ERR.
var ErrConfig = errors.NewKind("config: %s")

// Bounds mirrors astinit.Config, duplicated here (rather than imported)
// so this package stays leaf-level and astinit stays free of a
// dependency on the YAML tuning format.
type Bounds struct {
	Filter      int `yaml:"filter"`
	InnerJoin   int `yaml:"inner_join"`
	LeftJoin    int `yaml:"left_join"`
	RightJoin   int `yaml:"right_join"`
	FullJoin    int `yaml:"full_join"`
	Product     int `yaml:"product"`
	Project     int `yaml:"project"`
	OrderBy     int `yaml:"order_by"`
	Union       int `yaml:"union"`
	GroupBound  int `yaml:"group_bound"`
	HavingBound int `yaml:"having_bound"`
}

// SearchVariant selects between the conflict-learning search loop and
// the exhaustive naive baseline (spec.md §4.8's "Naive variant").
type SearchVariant string

const (
	Learning SearchVariant = "learning"
	Naive    SearchVariant = "naive"
)

// CoverKind selects which of search's CoverStrategy implementations
// backtrack's cover_ua step builds its candidate covers from.
type CoverKind string

const (
	CoverLeftTops  CoverKind = "left_tops"
	CoverRightTops CoverKind = "right_tops"
	CoverTopsRatio CoverKind = "tops_ratio"
)

// Tuning holds every knob engine.NewEnv needs beyond the schema and
// constraint list.
type Tuning struct {
	Bounds            Bounds        `yaml:"bounds"`
	RowBound          int           `yaml:"row_bound"`
	TimeBudget        time.Duration `yaml:"time_budget"`
	BacktrackLeftTops int           `yaml:"backtrack_left_tops"`
	ScanBatch         int           `yaml:"scan_batch"`
	SearchVariant     SearchVariant `yaml:"search_variant"`
	// CoverStrategy selects search.LeftTops/RightTops/TopsRatio for
	// backtrack's candidate covers; empty/unrecognized defaults to
	// CoverLeftTops.
	CoverStrategy CoverKind `yaml:"cover_strategy"`
	// TopsRatio is the fraction of a choice vector's bits search.TopsRatio
	// leaves free when CoverStrategy is CoverTopsRatio.
	TopsRatio  float64 `yaml:"tops_ratio"`
	SolverPath string  `yaml:"solver_path"`
}

// Default returns the original's own tuning constants (astinit's
// DefaultConfig bounds, search's DefaultConfig backtrack cover/scan
// batch, a 120s budget, z3 as the solver binary).
func Default() *Tuning {
	return &Tuning{
		Bounds: Bounds{
			Filter: 2, InnerJoin: 2, LeftJoin: 2, RightJoin: 2, FullJoin: 2,
			Product: 2, Project: 2, OrderBy: 2, Union: 2,
			GroupBound: 4, HavingBound: 10,
		},
		RowBound:          5,
		TimeBudget:        120 * time.Second,
		BacktrackLeftTops: 8,
		ScanBatch:         25,
		SearchVariant:     Learning,
		CoverStrategy:     CoverLeftTops,
		TopsRatio:         0.5,
		SolverPath:        "z3",
	}
}

// Load parses a YAML tuning document, starting from Default() so an
// omitted field keeps its default rather than zeroing out. A malformed
// document is a configuration error (ErrConfig), never a TMO/ERR
// proof-search outcome.
func Load(data []byte) (*Tuning, error) {
	t := Default()
	if err := yaml.Unmarshal(data, t); err != nil {
		return nil, ErrConfig.New(err.Error())
	}
	return t, nil
}
