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

package solver

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// nopWriteCloser lets tests feed a Process its stdin sink without a
// real child process.
type nopWriteCloser struct{ *bytes.Buffer }

func (nopWriteCloser) Close() error { return nil }

// newTestProcess builds a Process whose stdout is preloaded with
// stdoutText and whose stdin discards everything written to it,
// exercising Check/UnsatCore/Eval's parsing without spawning a real
// solver binary.
func newTestProcess(stdoutText string) *Process {
	p := New(DefaultOptions("z3"), nil)
	p.stdin = nopWriteCloser{&bytes.Buffer{}}
	p.stdout = bufio.NewReader(strings.NewReader(stdoutText))
	return p
}

func TestCheckReturnsSat(t *testing.T) {
	p := newTestProcess("sat\n")
	sat, err := p.Check("(assert (! true :named ic))")
	require.NoError(t, err)
	assert.True(t, sat)
}

func TestCheckReturnsUnsat(t *testing.T) {
	p := newTestProcess("unsat\n")
	sat, err := p.Check("(assert (! false :named ic))")
	require.NoError(t, err)
	assert.False(t, sat)
}

func TestCheckSkipsWarningLinesBeforeVerdict(t *testing.T) {
	p := newTestProcess("WARNING: something minor\nsat\n")
	sat, err := p.Check("(assert (! true :named ic))")
	require.NoError(t, err)
	assert.True(t, sat)
}

func TestCheckReturnsErrorOnErrorReply(t *testing.T) {
	p := newTestProcess("(error \"line 3: unexpected token\")\n")
	_, err := p.Check("(assert (! true :named ic))")
	assert.Error(t, err)
}

func TestCheckReturnsErrorWhenProcessClosesOutput(t *testing.T) {
	p := newTestProcess("")
	_, err := p.Check("(assert (! true :named ic))")
	assert.Error(t, err)
}

func TestUnsatCoreParsesLabelList(t *testing.T) {
	p := newTestProcess("(filter$1 ic)\n")
	core, err := p.UnsatCore()
	require.NoError(t, err)
	assert.Equal(t, []string{"filter$1", "ic"}, core)
}

func TestUnsatCoreHandlesEmptyCore(t *testing.T) {
	p := newTestProcess("()\n")
	core, err := p.UnsatCore()
	require.NoError(t, err)
	assert.Nil(t, core)
}

func TestEvalNormalizesNegativeNumber(t *testing.T) {
	p := newTestProcess("(- 5)\n")
	got, err := p.Eval("(choice 2 0)")
	require.NoError(t, err)
	assert.Equal(t, "-5", got)
}

func TestEvalIntParsesPlainInteger(t *testing.T) {
	p := newTestProcess("42\n")
	n, err := p.EvalInt("(cell 1 0 0)")
	require.NoError(t, err)
	assert.Equal(t, 42, n)
}

func TestEvalBoolParsesReply(t *testing.T) {
	p := newTestProcess("true\n")
	b, err := p.EvalBool("(null 1 0 0)")
	require.NoError(t, err)
	assert.True(t, b)
}

func TestEvalChoiceVectorSentinelsUnparsableReplies(t *testing.T) {
	p := newTestProcess("1\nfoo\n0\n")
	got, err := p.EvalChoiceVector(3, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{1, -1, 0}, got)
}

func TestNormalizeNumberLeavesPlainValuesUnchanged(t *testing.T) {
	assert.Equal(t, "true", normalizeNumber("true"))
	assert.Equal(t, "7", normalizeNumber("7"))
	assert.Equal(t, "-5", normalizeNumber("(- 5)"))
}
