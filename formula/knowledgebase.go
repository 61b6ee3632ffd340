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

package formula

import (
	"sort"
	"strconv"
	"strings"

	"github.com/dolthub/go-sqleq/term"
)

// KnowledgeBase accumulates the conflict formulas the search engine's
// backtrack step learns from a failed combination of hard-pinned
// choice bits, so later sat queries never revisit the exact same
// combination. Grounded in knowledgebase.py's KnowledgeBase.
type KnowledgeBase struct {
	conflicts map[string]term.Term
	order     []string
	nextID    int
}

// NewKnowledgeBase returns an empty KnowledgeBase.
func NewKnowledgeBase() *KnowledgeBase {
	return &KnowledgeBase{conflicts: make(map[string]term.Term)}
}

// AddConflict records conflict as a blocking formula, skipping when
// conflict is empty (nothing to block). labels is filtered down to the
// operator labels involved (those astinit assigned, carrying a '$'),
// excluding any earlier conflict label, matching add_conflict's own
// filter; the filtered names become part of the new conflict's own
// assertion name for traceability.
func (kb *KnowledgeBase) AddConflict(conflict Conflict, labels []string) {
	if len(conflict) == 0 {
		return
	}

	var opLabels []string
	for _, l := range labels {
		if strings.Contains(l, "$") && !strings.Contains(l, "conflict") {
			opLabels = append(opLabels, l)
		}
	}
	kb.nextID++

	tableIDs := make([]int, 0, len(conflict))
	for tableID := range conflict {
		tableIDs = append(tableIDs, tableID)
	}
	sort.Ints(tableIDs)

	conjuncts := make([]term.Term, 0, len(tableIDs))
	for _, tableID := range tableIDs {
		vec := conflict[tableID]
		var bitTerms []term.Term
		for bitID, b := range vec {
			if b == Top {
				continue
			}
			v := int64(0)
			if b == One {
				v = 1
			}
			bitTerms = append(bitTerms, term.NewEq(term.Choice{TableID: tableID, BitID: bitID}, term.IntLit{Value: v}))
		}
		conjuncts = append(conjuncts, term.AndAll(bitTerms))
	}

	name := "conflict" + strconv.Itoa(kb.nextID) + "_" + strings.Join(opLabels, "&")
	kb.conflicts[name] = term.Not{X: term.AndAll(conjuncts)}
	kb.order = append(kb.order, name)
}

// Names returns every learned conflict's assertion name, in the order
// they were learned.
func (kb *KnowledgeBase) Names() []string {
	out := make([]string, len(kb.order))
	copy(out, kb.order)
	return out
}

// Formula returns the blocking term for a previously learned conflict.
func (kb *KnowledgeBase) Formula(name string) term.Term {
	return kb.conflicts[name]
}

// Len reports how many conflicts have been learned.
func (kb *KnowledgeBase) Len() int {
	return len(kb.conflicts)
}
