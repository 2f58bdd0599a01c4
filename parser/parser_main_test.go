/*
 * SDBG - Source-level script debugger
 *
 * Copyright 2020 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the MIT
 * License, If a copy of the MIT License was not distributed with this
 * file, You can obtain one at https://opensource.org/licenses/MIT.
 */

package parser

import (
	"fmt"
	"testing"
)

/*
UnitTestParse parses an input with a testing runtime provider.
*/
func UnitTestParse(name string, input string) (*ASTNode, error) {
	return ParseWithRuntime(name, input, &DummyRuntimeProvider{})
}

/*
DummyRuntimeProvider is a runtime provider which uses void runtimes.
*/
type DummyRuntimeProvider struct {
}

/*
Runtime returns a runtime component for a given ASTNode.
*/
func (d *DummyRuntimeProvider) Runtime(n *ASTNode) Runtime {
	return &dummyRuntime{}
}

/*
dummyRuntime is a runtime component which does nothing.
*/
type dummyRuntime struct {
}

/*
Validate this runtime component and all its child components.
*/
func (d *dummyRuntime) Validate() error {
	return nil
}

/*
Eval evaluate this runtime component.
*/
func (d *dummyRuntime) Eval(vs Scope, is map[string]interface{}, tid uint64) (interface{}, error) {
	return nil, nil
}

func TestAssignmentParsing(t *testing.T) {

	input := `
z := a.b[1].c["3"]
[x, y] := a.b
`
	expectedOutput := `
statements
  :=
    identifier: z
    identifier: a
      identifier: b
        compaccess
          number: 1
        identifier: c
          compaccess
            string: '3'
  :=
    list
      identifier: x
      identifier: y
    identifier: a
      identifier: b
`[1:]

	if res, err := UnitTestParse("mytest", input); err != nil || fmt.Sprint(res) != expectedOutput {
		t.Error("Unexpected parser output:\n", res, "expected was:\n", expectedOutput, "Error:", err)
		return
	}
}

func TestLetParsing(t *testing.T) {

	input := `let x := 1`
	expectedOutput := `
:=
  let
    identifier: x
  number: 1
`[1:]

	if res, err := UnitTestParse("mytest", input); err != nil || fmt.Sprint(res) != expectedOutput {
		t.Error("Unexpected parser output:\n", res, "expected was:\n", expectedOutput, "Error:", err)
		return
	}
}

func TestExpressionParsing(t *testing.T) {

	// Operator precedence

	input := `a + b * 5 > 1 and not c`
	expectedOutput := `
and
  >
    plus
      identifier: a
      times
        identifier: b
        number: 5
    number: 1
  not
    identifier: c
`[1:]

	if res, err := UnitTestParse("mytest", input); err != nil || fmt.Sprint(res) != expectedOutput {
		t.Error("Unexpected parser output:\n", res, "expected was:\n", expectedOutput, "Error:", err)
		return
	}

	// Brackets change the precedence

	input = `(a + b) * 5`
	expectedOutput = `
times
  plus
    identifier: a
    identifier: b
  number: 5
`[1:]

	if res, err := UnitTestParse("mytest", input); err != nil || fmt.Sprint(res) != expectedOutput {
		t.Error("Unexpected parser output:\n", res, "expected was:\n", expectedOutput, "Error:", err)
		return
	}
}

func TestFunctionParsing(t *testing.T) {

	input := `
func foo(a, b=1) {
    return a + b
}
`
	expectedOutput := `
function
  identifier: foo
  params
    identifier: a
    preset
      identifier: b
      number: 1
  statements
    return
      plus
        identifier: a
        identifier: b
`[1:]

	if res, err := UnitTestParse("mytest", input); err != nil || fmt.Sprint(res) != expectedOutput {
		t.Error("Unexpected parser output:\n", res, "expected was:\n", expectedOutput, "Error:", err)
		return
	}

	// Anonymous functions and function calls

	input = `x := func (a) { return a }`
	expectedOutput = `
:=
  identifier: x
  function
    params
      identifier: a
    statements
      return
        identifier: a
`[1:]

	if res, err := UnitTestParse("mytest", input); err != nil || fmt.Sprint(res) != expectedOutput {
		t.Error("Unexpected parser output:\n", res, "expected was:\n", expectedOutput, "Error:", err)
		return
	}

	input = `foo(1, "2", bar)`
	expectedOutput = `
identifier: foo
  funccall
    number: 1
    string: '2'
    identifier: bar
`[1:]

	if res, err := UnitTestParse("mytest", input); err != nil || fmt.Sprint(res) != expectedOutput {
		t.Error("Unexpected parser output:\n", res, "expected was:\n", expectedOutput, "Error:", err)
		return
	}
}

func TestConditionParsing(t *testing.T) {

	input := `
if a > 1 {
    b := 1
} elif a < 0 {
    b := 2
} else {
    b := 3
}
`
	expectedOutput := `
if
  guard
    >
      identifier: a
      number: 1
  statements
    :=
      identifier: b
      number: 1
  guard
    <
      identifier: a
      number: 0
  statements
    :=
      identifier: b
      number: 2
  guard
    true
  statements
    :=
      identifier: b
      number: 3
`[1:]

	if res, err := UnitTestParse("mytest", input); err != nil || fmt.Sprint(res) != expectedOutput {
		t.Error("Unexpected parser output:\n", res, "expected was:\n", expectedOutput, "Error:", err)
		return
	}
}

func TestLoopParsing(t *testing.T) {

	input := `
for x in range(1, 3) {
    a := x
    break
    continue
}
`
	expectedOutput := `
loop
  in
    identifier: x
    identifier: range
      funccall
        number: 1
        number: 3
  statements
    :=
      identifier: a
      identifier: x
    break
    continue
`[1:]

	if res, err := UnitTestParse("mytest", input); err != nil || fmt.Sprint(res) != expectedOutput {
		t.Error("Unexpected parser output:\n", res, "expected was:\n", expectedOutput, "Error:", err)
		return
	}

	input = `
for a > 0 {
    a := a - 1
}
`
	expectedOutput = `
loop
  guard
    >
      identifier: a
      number: 0
  statements
    :=
      identifier: a
      minus
        identifier: a
        number: 1
`[1:]

	if res, err := UnitTestParse("mytest", input); err != nil || fmt.Sprint(res) != expectedOutput {
		t.Error("Unexpected parser output:\n", res, "expected was:\n", expectedOutput, "Error:", err)
		return
	}
}

func TestTryParsing(t *testing.T) {

	input := `
try {
    raise("test")
} except "test" as e {
    log(e)
} finally {
    log("done")
}
`
	expectedOutput := `
try
  statements
    identifier: raise
      funccall
        string: 'test'
  except
    string: 'test'
    as
      identifier: e
    statements
      identifier: log
        funccall
          identifier: e
  finally
    statements
      identifier: log
        funccall
          string: 'done'
`[1:]

	if res, err := UnitTestParse("mytest", input); err != nil || fmt.Sprint(res) != expectedOutput {
		t.Error("Unexpected parser output:\n", res, "expected was:\n", expectedOutput, "Error:", err)
		return
	}
}

func TestContainerParsing(t *testing.T) {

	input := `a := [1, 2, [3, b]]`
	expectedOutput := `
:=
  identifier: a
  list
    number: 1
    number: 2
    list
      number: 3
      identifier: b
`[1:]

	if res, err := UnitTestParse("mytest", input); err != nil || fmt.Sprint(res) != expectedOutput {
		t.Error("Unexpected parser output:\n", res, "expected was:\n", expectedOutput, "Error:", err)
		return
	}

	input = `a := {"b" : 1, "c" : 2}`
	expectedOutput = `
:=
  identifier: a
  map
    kvp
      string: 'b'
      number: 1
    kvp
      string: 'c'
      number: 2
`[1:]

	if res, err := UnitTestParse("mytest", input); err != nil || fmt.Sprint(res) != expectedOutput {
		t.Error("Unexpected parser output:\n", res, "expected was:\n", expectedOutput, "Error:", err)
		return
	}
}

func TestParserErrors(t *testing.T) {

	// A term which cannot start an expression

	if _, err := UnitTestParse("mytest", ":= 1"); err == nil ||
		err.(*Error).Type != ErrImpossibleNullDenotation {
		t.Error("Unexpected parser result:", err)
		return
	}

	// Unexpected end of input

	if _, err := UnitTestParse("mytest", "if a {"); err == nil ||
		err.(*Error).Type != ErrUnexpectedEnd {
		t.Error("Unexpected parser result:", err)
		return
	}

	// Lexer errors are wrapped

	if _, err := UnitTestParse("mytest", "a := test_1"); err == nil ||
		err.(*Error).Type != ErrLexicalError {
		t.Error("Unexpected parser result:", err)
		return
	}

	// Error formatting

	_, err := UnitTestParse("mytest", ":= 1")

	if err.Error() != "Parse error in mytest: Term cannot start an expression (:=) (Line:1 Pos:1)" {
		t.Error("Unexpected error string:", err)
		return
	}
}
