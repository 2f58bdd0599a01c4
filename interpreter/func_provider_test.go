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
	"fmt"
	"sync"
	"testing"

	"github.com/krotik/sdbg/scope"
	"github.com/krotik/sdbg/util"
)

func TestInbuildFunctions(t *testing.T) {

	vs := scope.NewScope(scope.GlobalScope)

	if res, err := UnitTestEval("len([1, 2, 3])", vs); res != 3. || err != nil {
		t.Error("Unexpected result:", res, err)
		return
	}

	if res, err := UnitTestEval(`len({"a" : 1})`, vs); res != 1. || err != nil {
		t.Error("Unexpected result:", res, err)
		return
	}

	if _, err := UnitTestEval("len(1)", vs); err == nil {
		t.Error("Len of a number should fail")
		return
	}

	if res, err := UnitTestEval("add([1, 2], 3)", vs); err != nil ||
		fmt.Sprint(res) != "[1 2 3]" {
		t.Error("Unexpected result:", res, err)
		return
	}

	if res, err := UnitTestEval("concat([1], [2], [3])", vs); err != nil ||
		fmt.Sprint(res) != "[1 2 3]" {
		t.Error("Unexpected result:", res, err)
		return
	}

	if res, err := UnitTestEval("del([1, 2, 3], 1)", vs); err != nil ||
		fmt.Sprint(res) != "[1 3]" {
		t.Error("Unexpected result:", res, err)
		return
	}
}

/*
testDebugHost records calls of the injected runtime API.
*/
type testDebugHost struct {
	lock   *sync.Mutex
	events []string
	locals [][]util.LocalValue
}

func (h *testDebugHost) PushFrame(tid uint64, method string, locals util.LocalsProvider) {
	h.lock.Lock()
	defer h.lock.Unlock()
	h.events = append(h.events, fmt.Sprintf("push %v", method))
}

func (h *testDebugHost) PopFrame(tid uint64) {
	h.lock.Lock()
	defer h.lock.Unlock()
	h.events = append(h.events, "pop")
}

func (h *testDebugHost) Checkpoint(tid uint64, id int, method string, locals util.LocalsProvider) {
	h.lock.Lock()
	defer h.lock.Unlock()

	h.events = append(h.events, fmt.Sprintf("checkpoint %v %v", id, method))

	if locals != nil {
		l, _ := locals()
		h.locals = append(h.locals, l)
	}
}

func TestDebugAPIWithoutHost(t *testing.T) {

	vs := scope.NewScope(scope.GlobalScope)

	// Without a bound host the injected calls are no-ops

	input := `
dbgPushFrame("test.main")
dbgCheckpoint(1, "test.main", func () { return dbgMakeLocals(["a", 1]) })
dbgPopFrame()
`
	if _, err := UnitTestEval(input, vs); err != nil {
		t.Error("Unexpected result:", err)
		return
	}
}

func TestDebugAPIWithHost(t *testing.T) {

	host := &testDebugHost{&sync.Mutex{}, nil, nil}

	SetDebugHost(host)
	defer SetDebugHost(nil)

	vs := scope.NewScope(scope.GlobalScope)

	input := `
a := 42
dbgPushFrame("test.main")
dbgCheckpoint(1, "test.main", func () { return dbgMakeLocals(["a", a]) })
dbgPopFrame()
`
	if _, err := UnitTestEval(input, vs); err != nil {
		t.Error("Unexpected result:", err)
		return
	}

	if fmt.Sprint(host.events) != "[push test.main checkpoint 1 test.main pop]" {
		t.Error("Unexpected events:", host.events)
		return
	}

	if len(host.locals) != 1 || len(host.locals[0]) != 1 {
		t.Error("Unexpected locals:", host.locals)
		return
	}

	if l := host.locals[0][0]; l.Name != "a" || l.Value != 42. {
		t.Error("Unexpected local:", l)
		return
	}
}

func TestDebugAPIErrors(t *testing.T) {

	vs := scope.NewScope(scope.GlobalScope)

	if _, err := UnitTestEval("dbgPushFrame()", vs); err == nil {
		t.Error("Missing method name should fail")
		return
	}

	if _, err := UnitTestEval("dbgCheckpoint(1)", vs); err == nil {
		t.Error("Missing method name should fail")
		return
	}

	if _, err := UnitTestEval("dbgMakeLocals(1)", vs); err == nil {
		t.Error("Invalid pair should fail")
		return
	}

	if _, err := UnitTestEval(`dbgMakeLocals(["a"])`, vs); err == nil {
		t.Error("Incomplete pair should fail")
		return
	}

	if res, err := UnitTestEval(`dbgMakeLocals(["a", 1], ["b", 2])`, vs); err != nil ||
		fmt.Sprint(res) != "[[a 1] [b 2]]" {
		t.Error("Unexpected result:", res, err)
		return
	}
}
