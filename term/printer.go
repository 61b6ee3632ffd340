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

package term

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/src-d/go-errors.v1"
)

// ErrUnprintable is returned when Print is asked to render a Term it does
// not recognize. This should never happen for terms built by this
// module's own packages; seeing it means a new Term variant was added
// without a matching case here.
var ErrUnprintable = errors.NewKind("term: cannot print value of type %T in SMT-LIB v2")

// Print renders t as an SMT-LIB v2 s-expression.
func Print(t Term) (string, error) {
	switch v := t.(type) {
	case Cell:
		return fmt.Sprintf("(cell %d %d %d)", v.TableID, v.RowID, v.ColumnID), nil
	case Null:
		return fmt.Sprintf("(null %d %d %d)", v.TableID, v.RowID, v.ColumnID), nil
	case Grouping:
		return fmt.Sprintf("(grouping %d %d %d)", v.TableID, v.RowID, v.GroupID), nil
	case Deleted:
		return fmt.Sprintf("(deleted %d %d)", v.TableID, v.RowID), nil
	case BelongsToGroup:
		return fmt.Sprintf("(belongs-to-group %d %d)", v.QID, v.GID), nil
	case Choice:
		return fmt.Sprintf("(choice %d %d)", v.TableID, v.BitID), nil
	case And:
		return printNary("and", v.Conjuncts)
	case Or:
		return printNary("or", v.Disjuncts)
	case Xor:
		return printBinary("xor", v.A, v.B)
	case Not:
		return printUnary("not", v.X)
	case Implies:
		return printBinary("=>", v.Premise, v.Conclusion)
	case Ite:
		return printTernary("ite", v.Cond, v.Then, v.Else)
	case Gte:
		return printBinary(">=", v.A, v.B)
	case Gt:
		return printBinary(">", v.A, v.B)
	case Lte:
		return printBinary("<=", v.A, v.B)
	case Lt:
		return printBinary("<", v.A, v.B)
	case Eq:
		return printBinary("=", v.A, v.B)
	case Neq:
		s, err := printBinary("=", v.A, v.B)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(not %s)", s), nil
	case Plus:
		return printBinary("+", v.A, v.B)
	case Minus:
		return printBinary("-", v.A, v.B)
	case Mul:
		return printBinary("*", v.A, v.B)
	case Div:
		return printBinary("div", v.A, v.B)
	case Neg:
		return printUnary("-", v.X)
	case IntLit:
		return strconv.FormatInt(v.Value, 10), nil
	case BoolLit:
		if v.Value {
			return "true", nil
		}
		return "false", nil
	default:
		return "", ErrUnprintable.New(t)
	}
}

func printUnary(op string, a Term) (string, error) {
	sa, err := Print(a)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("(%s %s)", op, sa), nil
}

func printBinary(op string, a, b Term) (string, error) {
	sa, err := Print(a)
	if err != nil {
		return "", err
	}
	sb, err := Print(b)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("(%s %s %s)", op, sa, sb), nil
}

func printTernary(op string, a, b, c Term) (string, error) {
	sa, err := Print(a)
	if err != nil {
		return "", err
	}
	sb, err := Print(b)
	if err != nil {
		return "", err
	}
	sc, err := Print(c)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("(%s %s %s %s)", op, sa, sb, sc), nil
}

func printNary(op string, xs []Term) (string, error) {
	if len(xs) == 0 {
		if op == "and" {
			return "true", nil
		}
		return "false", nil
	}
	parts := make([]string, len(xs))
	for i, x := range xs {
		s, err := Print(x)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return fmt.Sprintf("(%s %s)", op, strings.Join(parts, " ")), nil
}

// Assert wraps t as a named SMT-LIB v2 assertion, per the preamble format
// the solver package expects (one label per assertion, used later to
// request an unsat core).
func Assert(label string, t Term) (string, error) {
	s, err := Print(t)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("(assert (! %s :named %s))", s, label), nil
}
