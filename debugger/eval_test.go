/*
 * SDBG - Source-level script debugger
 *
 * Copyright 2020 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the MIT
 * License, If a copy of the MIT License was not distributed with this
 * file, You can obtain one at https://opensource.org/licenses/MIT.
 */

package debugger

import (
	"fmt"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/krotik/sdbg/interpreter"
	"github.com/krotik/sdbg/util"
)

func TestEvaluatorBasics(t *testing.T) {

	ev := NewEvaluator(8, nil)

	locals := []util.LocalValue{
		{Name: "a", Value: 4.},
		{Name: "b", Value: 2.},
	}

	if res, err := ev.Evaluate("a + b", locals); res != 6. || err != nil {
		t.Error("Unexpected result:", res, err)
		return
	}

	if res, err := ev.Evaluate("a > b", locals); res != true || err != nil {
		t.Error("Unexpected result:", res, err)
		return
	}

	// The same expression with the same names hits the same cache entry
	// regardless of the concrete values

	locals2 := []util.LocalValue{
		{Name: "a", Value: 10.},
		{Name: "b", Value: 5.},
	}

	if res, err := ev.Evaluate("a + b", locals2); res != 15. || err != nil {
		t.Error("Unexpected result:", res, err)
		return
	}

	if ev.Size() != 2 {
		t.Error("Unexpected cache size:", ev.Size())
		return
	}

	// Expressions without locals work as well

	if res, err := ev.Evaluate("1 + 1", nil); res != 2. || err != nil {
		t.Error("Unexpected result:", res, err)
		return
	}
}

func TestEvaluatorCacheLRU(t *testing.T) {

	// Scenario: with capacity 2 the cache holds only the two most recently
	// used entries - evicted entries release their isolate

	ev := NewEvaluator(2, nil)

	locals := []util.LocalValue{{Name: "a", Value: 1.}}

	if _, err := ev.Evaluate("a + 1", locals); err != nil {
		t.Error(err)
		return
	}

	// Capture the isolate reference of E1 before it is evicted

	ref1 := ev.entries["a + 1|a"].Value.(*evalEntry).isolate.Ref()

	if _, err := ev.Evaluate("a + 2", locals); err != nil {
		t.Error(err)
		return
	}

	if _, err := ev.Evaluate("a + 3", locals); err != nil {
		t.Error(err)
		return
	}

	if ev.Size() != 2 {
		t.Error("Unexpected cache size:", ev.Size())
		return
	}

	if keys := ev.Keys(); fmt.Sprint(keys) != "[a + 3|a a + 2|a]" {
		t.Error("Unexpected LRU order:", keys)
		return
	}

	// The evicted isolate is released within a bounded number of GC nudges

	released := false
	for n := 0; n < 10 && !released; n++ {
		released = ref1.Dead()
		if !released {
			runtime.GC()
			time.Sleep(10 * time.Millisecond)
		}
	}

	if !ref1.Dead() {
		t.Error("Evicted isolate was not released")
		return
	}

	// Using E2 again and then a new expression evicts E3 - not E2

	if _, err := ev.Evaluate("a + 2", locals); err != nil {
		t.Error(err)
		return
	}

	if _, err := ev.Evaluate("a + 4", locals); err != nil {
		t.Error(err)
		return
	}

	if keys := ev.Keys(); fmt.Sprint(keys) != "[a + 4|a a + 2|a]" {
		t.Error("Unexpected LRU order:", keys)
		return
	}
}

func TestEvaluatorRuntimeFault(t *testing.T) {

	// Scenario: a runtime fault inside the expression is reported as an
	// error and does not affect the evaluator

	ev := NewEvaluator(8, nil)

	locals := []util.LocalValue{{Name: "a", Value: 1.}}

	_, err := ev.Evaluate("a / 0", locals)

	if err == nil || !strings.Contains(err.Error(), "Division by zero") {
		t.Error("Unexpected result:", err)
		return
	}

	// The evaluator still works afterwards

	if res, err := ev.Evaluate("a + 1", locals); res != 2. || err != nil {
		t.Error("Unexpected result:", res, err)
		return
	}
}

func TestEvaluatorCompileError(t *testing.T) {

	ev := NewEvaluator(8, nil)

	_, err := ev.Evaluate("a +", []util.LocalValue{{Name: "a", Value: 1.}})

	if err == nil {
		t.Error("Compile should fail")
		return
	}

	if _, ok := err.(*util.CompileError); !ok {
		t.Error("Unexpected error type:", err)
		return
	}

	// Failed builds are not cached

	if ev.Size() != 0 {
		t.Error("Unexpected cache size:", ev.Size())
		return
	}
}

func TestSafeIdentifiers(t *testing.T) {

	if s := SafeIdentifier("abc"); s != "abc" {
		t.Error("Unexpected result:", s)
		return
	}

	if s := SafeIdentifier("a-b.c"); s != "a0b0c" {
		t.Error("Unexpected result:", s)
		return
	}

	if s := SafeIdentifier("1x"); s != "v1x" {
		t.Error("Unexpected result:", s)
		return
	}

	if s := SafeIdentifier("return"); s != "vreturn" {
		t.Error("Unexpected result:", s)
		return
	}

	if s := SafeIdentifier(""); s != "v" {
		t.Error("Unexpected result:", s)
		return
	}

	// Locals with invalid names are reachable through their safe identifier

	ev := NewEvaluator(8, nil)

	locals := []util.LocalValue{{Name: "my-var", Value: 20.}}

	if res, err := ev.Evaluate("my0var + 1", locals); res != 21. || err != nil {
		t.Error("Unexpected result:", res, err)
		return
	}
}

func TestDebuggerEvaluate(t *testing.T) {

	// Expressions are evaluated against the locals of the paused frame

	d, iso := debugSession(t, `func main() {
    a := 20
    b := a + 1
}`)
	defer interpreter.SetDebugHost(nil)

	d.AddBreakpoint(2)

	done := runScript(iso)

	ev := waitPause(t, d)
	if ev == nil {
		return
	}

	if res, err := d.Evaluate(ev.PauseID, "a * 2"); res != 40. || err != nil {
		t.Error("Unexpected result:", res, err)
		return
	}

	// A failed expression does not affect the paused thread

	if _, err := d.Evaluate(ev.PauseID, "a / 0"); err == nil {
		t.Error("Evaluation should fail")
		return
	}

	// Evaluating against an unknown pause id is an error

	if _, err := d.Evaluate(9999, "a"); err == nil {
		t.Error("Evaluation should fail")
		return
	}

	d.Continue(ev.PauseID, util.Resume)

	waitDone(t, done)
}
