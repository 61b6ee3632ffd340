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

// Package logging builds the package-level *logrus.Entry every other
// package constructs itself from, mirroring the teacher's auth package
// (MysqlAudit takes a *logrus.Logger at construction rather than
// reaching for the global logger).
package logging

import "github.com/sirupsen/logrus"

// New returns an Entry tagged with component=name, logging at level
// (INFO by default) to the given logger. A nil logger falls back to
// logrus' standard logger, the way solver.New already treats a nil
// *logrus.Entry.
func New(logger *logrus.Logger, name string) *logrus.Entry {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return logger.WithField("component", name)
}

// WithRun tags entry with a run/session id, for correlating every log
// line a single Env.Check/Disambiguate call emits (spec.md §7's
// "nothing logged above INFO on success; DEBUG includes the final
// under-approximation, counter-example database, and backtrack counts").
func WithRun(entry *logrus.Entry, runID string) *logrus.Entry {
	return entry.WithField("run", runID)
}
