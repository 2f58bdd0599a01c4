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
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/krotik/sdbg/interpreter"
	"github.com/krotik/sdbg/parser"
	"github.com/krotik/sdbg/rewriter"
	"github.com/krotik/sdbg/util"
)

/*
debugSession builds a full debug session: the source is instrumented,
compiled, loaded into an isolate and the debugger is bound as the process
wide debug host.
*/
func debugSession(t *testing.T, src string) (util.Debugger, *interpreter.Isolate) {
	ast, err := parser.Parse("test", src)

	if err != nil {
		t.Fatal("Could not parse input:", err)
	}

	res, err := rewriter.Rewrite("test", ast)

	if err != nil {
		t.Fatal("Could not rewrite input:", err)
	}

	mod, err := interpreter.Compile("test", res.Source)

	if err != nil {
		t.Fatal("Could not compile instrumented source:", err)
	}

	iso, err := interpreter.Load(mod, "debug-test", nil)

	if err != nil {
		t.Fatal("Could not load instrumented module:", err)
	}

	d := NewScriptDebugger(nil)
	d.RegisterMaps(res.Checkpoints, res.Methods)

	interpreter.SetDebugHost(d)

	return d, iso
}

/*
runScript runs the main function of an isolate on a new thread.
*/
func runScript(iso *interpreter.Isolate) chan error {
	done := make(chan error, 1)

	go func() {
		_, err := iso.Call("main", nil)
		done <- err
	}()

	return done
}

/*
waitPause waits for the next pause event.
*/
func waitPause(t *testing.T, d util.Debugger) *util.PauseEvent {
	select {
	case ev := <-d.Events():
		return ev
	case <-time.After(3 * time.Second):
		t.Error("Timeout waiting for a pause event")
		return nil
	}
}

/*
waitDone waits for the script to terminate.
*/
func waitDone(t *testing.T, done chan error) {
	select {
	case err := <-done:
		if err != nil {
			t.Error("Script error:", err)
		}
	case <-time.After(3 * time.Second):
		t.Error("Timeout waiting for the script to finish")
	}
}

func TestBreakpointHit(t *testing.T) {

	// Scenario: a breakpoint on the second statement pauses the thread
	// exactly once with the locals which are visible at that statement

	d, iso := debugSession(t, `func run() {
    a := 1
    b := a + 1
    c := b + 1
}
func main() {
    run()
}`)
	defer interpreter.SetDebugHost(nil)

	d.AddBreakpoint(2)

	// Adding a breakpoint is idempotent

	d.AddBreakpoint(2)

	if fmt.Sprint(d.Breakpoints()) != "[2]" {
		t.Error("Unexpected breakpoints:", d.Breakpoints())
		return
	}

	done := runScript(iso)

	ev := waitPause(t, d)
	if ev == nil {
		return
	}

	if ev.Frame.CheckpointID != 2 || ev.Frame.Method != "test.run" {
		t.Error("Unexpected pause:", ev)
		return
	}

	if len(ev.Frame.Locals) != 1 || ev.Frame.Locals[0].Name != "a" ||
		ev.Frame.Locals[0].Value != 1. {
		t.Error("Unexpected locals:", ev.Frame.Locals)
		return
	}

	d.Continue(ev.PauseID, util.Resume)

	waitDone(t, done)

	// No further pause events were emitted

	select {
	case ev := <-d.Events():
		t.Error("Unexpected pause:", ev)
	default:
	}
}

func TestStepOverDoesNotDescend(t *testing.T) {

	// Scenario: stepping over a function call pauses at the next statement
	// of the same method and never inside the callee

	d, iso := debugSession(t, `func sub() {
    s := 1
}
func main() {
    a := 1
    sub()
    b := 2
}`)
	defer interpreter.SetDebugHost(nil)

	// Checkpoints: sub = [1] - main = [2 3 4]

	d.AddBreakpoint(3)

	done := runScript(iso)

	ev := waitPause(t, d)
	if ev == nil {
		return
	}

	if ev.Frame.CheckpointID != 3 || ev.Frame.Method != "test.main" {
		t.Error("Unexpected pause:", ev)
		return
	}

	d.Continue(ev.PauseID, util.StepOver)

	ev = waitPause(t, d)
	if ev == nil {
		return
	}

	if ev.Frame.CheckpointID != 4 || ev.Frame.Method != "test.main" {
		t.Error("Unexpected pause:", ev)
		return
	}

	// The frame stack has depth 1 at the pause

	desc := d.Describe(ev.ThreadID).(map[string]interface{})

	if cs := desc["callStack"].([]string); len(cs) != 1 {
		t.Error("Unexpected call stack:", cs)
		return
	}

	d.Continue(ev.PauseID, util.Resume)

	waitDone(t, done)
}

func TestStepOutReturnsToCaller(t *testing.T) {

	// Scenario: stepping out of a callee pauses at the next checkpoint of
	// the caller after the callee returned

	d, iso := debugSession(t, `func sub() {
    s1 := 1
    s2 := 2
}
func main() {
    a := 1
    sub()
    b := 2
}`)
	defer interpreter.SetDebugHost(nil)

	// Checkpoints: sub = [1 2] - main = [3 4 5]

	d.AddBreakpoint(1)

	done := runScript(iso)

	ev := waitPause(t, d)
	if ev == nil {
		return
	}

	if ev.Frame.CheckpointID != 1 || ev.Frame.Method != "test.sub" {
		t.Error("Unexpected pause:", ev)
		return
	}

	d.Continue(ev.PauseID, util.StepOut)

	ev = waitPause(t, d)
	if ev == nil {
		return
	}

	// The next pause is in the caller - the remaining checkpoint of the
	// callee did not pause

	if ev.Frame.CheckpointID != 5 || ev.Frame.Method != "test.main" {
		t.Error("Unexpected pause:", ev)
		return
	}

	desc := d.Describe(ev.ThreadID).(map[string]interface{})

	if cs := desc["callStack"].([]string); len(cs) != 1 {
		t.Error("Unexpected call stack:", cs)
		return
	}

	d.Continue(ev.PauseID, util.Resume)

	waitDone(t, done)
}

func TestStepOverAtLastStatement(t *testing.T) {

	// Scenario: stepping over the last statement of a method pauses in the
	// caller immediately after the method returned

	d, iso := debugSession(t, `func sub() {
    s1 := 1
    s2 := 2
}
func main() {
    a := 1
    sub()
    b := 2
}`)
	defer interpreter.SetDebugHost(nil)

	// Checkpoints: sub = [1 2] - main = [3 4 5]

	d.AddBreakpoint(2)

	done := runScript(iso)

	ev := waitPause(t, d)
	if ev == nil {
		return
	}

	if ev.Frame.CheckpointID != 2 || ev.Frame.Method != "test.sub" {
		t.Error("Unexpected pause:", ev)
		return
	}

	d.Continue(ev.PauseID, util.StepOver)

	ev = waitPause(t, d)
	if ev == nil {
		return
	}

	if ev.Frame.CheckpointID != 5 || ev.Frame.Method != "test.main" {
		t.Error("Unexpected pause:", ev)
		return
	}

	d.Continue(ev.PauseID, util.Resume)

	waitDone(t, done)
}

func TestStepInto(t *testing.T) {

	// Stepping into a function call pauses at the first checkpoint of the
	// callee

	d, iso := debugSession(t, `func sub() {
    s := 1
}
func main() {
    sub()
    b := 2
}`)
	defer interpreter.SetDebugHost(nil)

	// Checkpoints: sub = [1] - main = [2 3]

	d.AddBreakpoint(2)

	done := runScript(iso)

	ev := waitPause(t, d)
	if ev == nil {
		return
	}

	d.Continue(ev.PauseID, util.StepIn)

	ev = waitPause(t, d)
	if ev == nil {
		return
	}

	if ev.Frame.CheckpointID != 1 || ev.Frame.Method != "test.sub" {
		t.Error("Unexpected pause:", ev)
		return
	}

	d.Continue(ev.PauseID, util.Resume)

	waitDone(t, done)
}

func TestStaleResumeIsIgnored(t *testing.T) {

	d := NewScriptDebugger(nil)

	// A resume with an unknown pause id is a silent no-op

	d.Continue(9999, util.Resume)

	// Removing a breakpoint which does not exist is fine

	d.RemoveBreakpoint(42)

	if len(d.Breakpoints()) != 0 {
		t.Error("Unexpected breakpoints:", d.Breakpoints())
		return
	}
}

func TestFailingLocalsProvider(t *testing.T) {

	d := NewScriptDebugger(nil)

	d.AddBreakpoint(7)

	done := make(chan bool)

	go func() {
		d.PushFrame(1, "test.m", nil)
		d.Checkpoint(1, 7, "test.m", func() ([]util.LocalValue, error) {
			return nil, errors.New("boom")
		})
		d.PopFrame(1)
		done <- true
	}()

	ev := waitPause(t, d)
	if ev == nil {
		return
	}

	// The pause proceeds with empty locals and a diagnostic

	if len(ev.Frame.Locals) != 0 || ev.Frame.Diagnostic != "boom" {
		t.Error("Unexpected frame:", ev.Frame)
		return
	}

	d.Continue(ev.PauseID, util.Resume)

	<-done
}

func TestMultipleThreadPauses(t *testing.T) {

	d := NewScriptDebugger(nil)

	d.AddBreakpoint(1)

	done := make(chan bool, 2)

	runThread := func(tid uint64) {
		d.PushFrame(tid, "test.m", nil)
		d.Checkpoint(tid, 1, "test.m", nil)
		d.PopFrame(tid)
		done <- true
	}

	go runThread(1)
	go runThread(2)

	ev1 := waitPause(t, d)
	ev2 := waitPause(t, d)

	if ev1 == nil || ev2 == nil {
		return
	}

	// Both threads pause concurrently with distinct pause ids

	if ev1.PauseID == ev2.PauseID || ev1.ThreadID == ev2.ThreadID {
		t.Error("Unexpected pauses:", ev1, ev2)
		return
	}

	// Resumes are routed by pause id

	d.Continue(ev2.PauseID, util.Resume)
	d.Continue(ev1.PauseID, util.Resume)

	<-done
	<-done
}

func TestCheckpointWithoutFrame(t *testing.T) {

	d := NewScriptDebugger(nil)

	d.AddBreakpoint(3)

	done := make(chan bool)

	go func() {

		// A checkpoint outside of any frame synthesizes a transient frame

		d.Checkpoint(1, 3, "test.loose", nil)
		done <- true
	}()

	ev := waitPause(t, d)
	if ev == nil {
		return
	}

	if ev.Frame.Method != "test.loose" || ev.Frame.CheckpointID != 3 {
		t.Error("Unexpected pause:", ev)
		return
	}

	d.Continue(ev.PauseID, util.Resume)

	<-done
}

func TestStatusAndDescribe(t *testing.T) {

	d := NewScriptDebugger(nil)

	d.AddBreakpoint(1)

	done := make(chan bool)

	go func() {
		d.PushFrame(1, "test.m", nil)
		d.Checkpoint(1, 1, "test.m", nil)
		d.PopFrame(1)
		done <- true
	}()

	ev := waitPause(t, d)
	if ev == nil {
		return
	}

	status := d.Status().(map[string]interface{})

	if fmt.Sprint(status["breakpoints"]) != "[1]" {
		t.Error("Unexpected status:", status)
		return
	}

	threads := status["threads"].(map[string]map[string]interface{})

	if ts, ok := threads["1"]; !ok || ts["paused"] != true {
		t.Error("Unexpected status:", status)
		return
	}

	desc := d.Describe(1).(map[string]interface{})

	if desc["paused"] != true {
		t.Error("Unexpected description:", desc)
		return
	}

	frame := desc["frame"].(map[string]interface{})

	if frame["method"] != "test.m" || frame["checkpoint"] != 1 {
		t.Error("Unexpected description:", desc)
		return
	}

	// Describing an unknown thread returns nothing

	if d.Describe(42) != nil {
		t.Error("Unexpected description for unknown thread")
		return
	}

	d.Continue(ev.PauseID, util.Resume)

	<-done
}
