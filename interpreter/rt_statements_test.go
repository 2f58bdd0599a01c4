/*
 * SDBG - Source-level script debugger
 *
 * Copyright 2020 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the MIT
 * License, If a copy of the MIT License was not distributed with this
 * file, You can obtain one at https://opensource.org/licenses/MIT.
 */

package interpreter

import (
	"testing"

	"github.com/krotik/sdbg/scope"
)

func TestSimpleEval(t *testing.T) {

	vs := scope.NewScope(scope.GlobalScope)

	if res, err := UnitTestEval("1 + 2 * 3", vs); res != 7. || err != nil {
		t.Error("Unexpected result:", res, err)
		return
	}

	if res, err := UnitTestEval(`"a" + "b"`, vs); res != nil || err == nil {
		t.Error("Unexpected result:", res, err)
		return
	}

	if res, err := UnitTestEval("7 // 2", vs); res != 3. || err != nil {
		t.Error("Unexpected result:", res, err)
		return
	}

	if res, err := UnitTestEval("7 % 2", vs); res != 1. || err != nil {
		t.Error("Unexpected result:", res, err)
		return
	}

	if res, err := UnitTestEval("2 > 1 and 1 < 2", vs); res != true || err != nil {
		t.Error("Unexpected result:", res, err)
		return
	}

	if res, err := UnitTestEval("not (1 == 1)", vs); res != false || err != nil {
		t.Error("Unexpected result:", res, err)
		return
	}

	if res, err := UnitTestEval("2 in [1, 2, 3]", vs); res != true || err != nil {
		t.Error("Unexpected result:", res, err)
		return
	}

	if res, err := UnitTestEval("4 notin [1, 2, 3]", vs); res != true || err != nil {
		t.Error("Unexpected result:", res, err)
		return
	}
}

func TestDivisionByZero(t *testing.T) {

	vs := scope.NewScope(scope.GlobalScope)

	if _, err := UnitTestEval("1 / 0", vs); err == nil ||
		err.Error() != "SDBG error in ScriptTestRuntime: Division by zero (0) (Line:1 Pos:3)" {
		t.Error("Unexpected result:", err)
		return
	}

	if _, err := UnitTestEval("1 // 0", vs); err == nil {
		t.Error("Integer division by zero should fail")
		return
	}

	if _, err := UnitTestEval("1 % 0", vs); err == nil {
		t.Error("Modulo by zero should fail")
		return
	}
}

func TestAssignments(t *testing.T) {

	vs := scope.NewScope(scope.GlobalScope)

	if _, err := UnitTestEval("a := 5", vs); err != nil {
		t.Error("Unexpected result:", err)
		return
	}

	if val, _, _ := vs.GetValue("a"); val != 5. {
		t.Error("Unexpected result:", val)
		return
	}

	if _, err := UnitTestEval("[b, c] := [1, 2]", vs); err != nil {
		t.Error("Unexpected result:", err)
		return
	}

	if val, _, _ := vs.GetValue("c"); val != 2. {
		t.Error("Unexpected result:", val)
		return
	}
}

func TestConditionStatements(t *testing.T) {

	vs := scope.NewScope(scope.GlobalScope)

	input := `
a := 3
res := 0
if a == 1 {
    res := 1
} elif a == 2 {
    res := 2
} else {
    res := 99
}
res
`
	if res, err := UnitTestEval(input, vs); res != 99. || err != nil {
		t.Error("Unexpected result:", res, err)
		return
	}
}

func TestLoopStatements(t *testing.T) {

	vs := scope.NewScope(scope.GlobalScope)

	input := `
sum := 0
for x in range(1, 4) {
    sum := sum + x
}
sum
`
	if res, err := UnitTestEval(input, vs); res != 10. || err != nil {
		t.Error("Unexpected result:", res, err)
		return
	}

	input = `
a := 5
for a > 0 {
    a := a - 1
    if a == 2 {
        break
    }
}
a
`
	if res, err := UnitTestEval(input, vs); res != 2. || err != nil {
		t.Error("Unexpected result:", res, err)
		return
	}

	input = `
count := 0
for x in [1, 2, 3, 4] {
    if x % 2 == 0 {
        continue
    }
    count := count + 1
}
count
`
	if res, err := UnitTestEval(input, vs); res != 2. || err != nil {
		t.Error("Unexpected result:", res, err)
		return
	}
}

func TestTryStatements(t *testing.T) {

	vs := scope.NewScope(scope.GlobalScope)

	input := `
res := 0
try {
    raise("MyError", "it happened")
} except "MyError" as e {
    res := e.detail
} finally {
    done := 1
}
res
`
	if res, err := UnitTestEval(input, vs); res != "it happened" || err != nil {
		t.Error("Unexpected result:", res, err)
		return
	}

	// The finally block runs even when a function returns from inside a try

	input = `
func f() {
    try {
        return 42
    } finally {
        flag := 1
    }
}
f()
`
	if res, err := UnitTestEval(input, vs); res != 42. || err != nil {
		t.Error("Unexpected result:", res, err)
		return
	}

	// Uncaught errors propagate

	input = `
try {
    raise("Boom")
} except "Other" {
    x := 1
}
`
	if _, err := UnitTestEval(input, vs); err == nil {
		t.Error("Uncaught errors should propagate")
		return
	}
}

func TestFunctions(t *testing.T) {

	vs := scope.NewScope(scope.GlobalScope)

	input := `
func add(a, b=10) {
    return a + b
}
add(5)
`
	if res, err := UnitTestEval(input, vs); res != 15. || err != nil {
		t.Error("Unexpected result:", res, err)
		return
	}

	// Functions close over their declaration scope

	input = `
base := 100
func addbase(x) {
    return base + x
}
addbase(1)
`
	if res, err := UnitTestEval(input, vs); res != 101. || err != nil {
		t.Error("Unexpected result:", res, err)
		return
	}

	// A bare return exits with a null value

	input = `
func noop() {
    return
    x := 1
}
noop()
`
	if res, err := UnitTestEval(input, vs); res != nil || err != nil {
		t.Error("Unexpected result:", res, err)
		return
	}
}

func TestLogFunctions(t *testing.T) {

	vs := scope.NewScope(scope.GlobalScope)

	if _, err := UnitTestEval(`log("Hello")`, vs); err != nil {
		t.Error("Unexpected result:", err)
		return
	}

	if testlogger.String() != "Hello" {
		t.Error("Unexpected log:", testlogger.String())
		return
	}
}
