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
	"testing"
)

/*
UnitTestPrettyPrinting parses an input, pretty prints it and checks the
output. The pretty printed output is parsed again to ensure the printed
code has the same structure as the input.
*/
func UnitTestPrettyPrinting(t *testing.T, input string, expected string) bool {
	ast, err := UnitTestParse("mytest", input)

	if err != nil {
		t.Error("Could not parse input:", err)
		return false
	}

	pp, err := PrettyPrint(ast)

	if err != nil || pp != expected {
		t.Errorf("Unexpected result: %q (expected: %q) error: %v", pp, expected, err)
		return false
	}

	ast2, err := UnitTestParse("mytest", pp)

	if err != nil {
		t.Error("Could not parse pretty printed output:", err)
		return false
	}

	if ok, msg := ast.Equals(ast2, true); !ok {
		t.Error("Pretty printed output has a different structure:", msg)
		return false
	}

	return true
}

func TestAssignmentPrettyPrinting(t *testing.T) {

	if !UnitTestPrettyPrinting(t, `a:=1`, "a := 1") {
		return
	}

	if !UnitTestPrettyPrinting(t, `a := b.c[1]`, "a := b.c[1]") {
		return
	}

	if !UnitTestPrettyPrinting(t, `let x := [1, 2, 3]`, "let x := [1, 2, 3]") {
		return
	}
}

func TestExpressionPrettyPrinting(t *testing.T) {

	if !UnitTestPrettyPrinting(t, `a  + b*5`, "a + b * 5") {
		return
	}

	// Brackets are preserved if the precedence requires it

	if !UnitTestPrettyPrinting(t, `(a + b) * 5`, "(a + b) * 5") {
		return
	}

	if !UnitTestPrettyPrinting(t, `not a  and  b`, "not a and b") {
		return
	}
}

func TestFunctionPrettyPrinting(t *testing.T) {

	input := `
func foo(a, b=1) {
    return a + b
}
`
	expected := `func foo(a, b=1) {
    return a + b
}`

	if !UnitTestPrettyPrinting(t, input, expected) {
		return
	}

	if !UnitTestPrettyPrinting(t, `foo(1, "2")`, `foo(1, "2")`) {
		return
	}
}

func TestConditionPrettyPrinting(t *testing.T) {

	input := `
if a > 1 {
    b := 1
} else {
    b := 2
}
`
	expected := `if a > 1 {
    b := 1
} else {
    b := 2
}`

	if !UnitTestPrettyPrinting(t, input, expected) {
		return
	}
}

func TestLoopPrettyPrinting(t *testing.T) {

	input := `
for x in range(1, 3) {
    a := x
}
`
	expected := `for x in range(1, 3) {
    a := x
}`

	if !UnitTestPrettyPrinting(t, input, expected) {
		return
	}
}

func TestTryPrettyPrinting(t *testing.T) {

	input := `
try {
    a := 1
} finally {
    b := 2
}
`
	expected := `try {
    a := 1
} finally {
    b := 2
}`

	if !UnitTestPrettyPrinting(t, input, expected) {
		return
	}
}
