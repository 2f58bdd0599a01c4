/*
 * SDBG - Source-level script debugger
 *
 * Copyright 2020 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the MIT
 * License, If a copy of the MIT License was not distributed with this
 * file, You can obtain one at https://opensource.org/licenses/MIT.
 */

/*
Package debugger contains the debugger engine of SDBG: the breakpoint set,
the per-thread state machine which suspends and resumes script threads at
checkpoints and the expression evaluator with its compiled-artifact cache.
*/
package debugger

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/krotik/sdbg/config"
	"github.com/krotik/sdbg/rewriter"
	"github.com/krotik/sdbg/util"
)

/*
stepAction models the pending step operation of a thread.
*/
type stepAction int

/*
Available step actions
*/
const (
	stepNone stepAction = iota // No pending step operation
	stepInto                   // Pause at the next checkpoint
	stepOver                   // Pause at a specific checkpoint of the current method
	stepOut                    // Pause after the current method returned
)

/*
frameInfo is the record of an active call frame.
*/
type frameInfo struct {
	method         string            // Qualified name of the executing method
	locals         []util.LocalValue // Locals snapshot of the last checkpoint
	lastCheckpoint int               // Last hit checkpoint id (0 means none)
	diagnostic     string            // Diagnostic of a failed locals provider
}

/*
pauseState is the handshake of a single pause instance. The script thread
blocks on the resume channel until the debugger completes the handshake.
*/
type pauseState struct {
	id     uint64        // Unique pause id
	resume chan struct{} // One-shot resume handshake
}

/*
threadState is the debugger state of a single script thread.
*/
type threadState struct {
	tid        uint64              // Thread id
	lock       *sync.Mutex         // Lock for this thread state
	frames     []*frameInfo        // Stack of active call frames
	action     stepAction          // Pending step operation
	runUntil   int                 // Step over target checkpoint (-1 unset)
	popDepth   int                 // Pause on pop to this depth (-1 unset)
	pauseNext  bool                // One-shot pause override
	pause      *pauseState         // Current pause (nil if running)
	lastPaused *util.FrameSnapshot // Frame snapshot of the last pause
}

/*
scriptDebugger is the default debugger engine.
*/
type scriptDebugger struct {
	breakpoints  map[int]bool             // Set of active breakpoints
	bpLock       *sync.Mutex              // Lock for the breakpoint set
	threads      map[uint64]*threadState  // Thread states of all seen threads
	threadsLock  *sync.RWMutex            // Lock for the thread state map
	checkpoints  util.CheckpointMap       // Known checkpoint positions
	methods      util.MethodCheckpointMap // Known per-method checkpoint ids
	mapsLock     *sync.RWMutex            // Lock for the index structures
	events       chan *util.PauseEvent    // Pause events for the subscriber
	pauseCounter uint64                   // Pause id counter
	evaluator    *Evaluator               // Expression evaluator of this engine
}

/*
NewScriptDebugger returns a new debugger engine.
*/
func NewScriptDebugger(logger util.Logger) util.Debugger {
	return &scriptDebugger{
		breakpoints: make(map[int]bool),
		bpLock:      &sync.Mutex{},
		threads:     make(map[uint64]*threadState),
		threadsLock: &sync.RWMutex{},
		checkpoints: make(util.CheckpointMap),
		methods:     make(util.MethodCheckpointMap),
		mapsLock:    &sync.RWMutex{},
		events:      make(chan *util.PauseEvent, 64),
		evaluator:   NewEvaluator(config.Int(config.EvalCacheSize), logger),
	}
}

/*
HandleInput handles a given debug instruction from a console.
*/
func (sd *scriptDebugger) HandleInput(input string) (interface{}, error) {
	return HandleDebugInput(sd, input)
}

/*
RegisterMaps makes checkpoint index structures of a rewritten unit available
to the debugger.
*/
func (sd *scriptDebugger) RegisterMaps(cm util.CheckpointMap, mm util.MethodCheckpointMap) {
	sd.mapsLock.Lock()
	defer sd.mapsLock.Unlock()

	for id, pos := range cm {
		sd.checkpoints[id] = pos
	}
	for method, ids := range mm {
		sd.methods[method] = ids
	}
}

/*
Checkpoints returns the known checkpoint positions.
*/
func (sd *scriptDebugger) Checkpoints() util.CheckpointMap {
	sd.mapsLock.RLock()
	defer sd.mapsLock.RUnlock()

	ret := make(util.CheckpointMap)
	for id, pos := range sd.checkpoints {
		ret[id] = pos
	}

	return ret
}

/*
AddBreakpoint adds a breakpoint for a given checkpoint id.
*/
func (sd *scriptDebugger) AddBreakpoint(id int) {
	sd.bpLock.Lock()
	defer sd.bpLock.Unlock()
	sd.breakpoints[id] = true
}

/*
RemoveBreakpoint removes a breakpoint for a given checkpoint id.
*/
func (sd *scriptDebugger) RemoveBreakpoint(id int) {
	sd.bpLock.Lock()
	defer sd.bpLock.Unlock()
	delete(sd.breakpoints, id)
}

/*
Breakpoints returns all set breakpoints in ascending order.
*/
func (sd *scriptDebugger) Breakpoints() []int {
	sd.bpLock.Lock()
	defer sd.bpLock.Unlock()

	ret := make([]int, 0, len(sd.breakpoints))
	for id := range sd.breakpoints {
		ret = append(ret, id)
	}
	sort.Ints(ret)

	return ret
}

/*
ResolveLine resolves a source and line to the nearest checkpoint id.
*/
func (sd *scriptDebugger) ResolveLine(source string, line int) (int, error) {
	sd.mapsLock.RLock()
	defer sd.mapsLock.RUnlock()

	return rewriter.ResolveLine(sd.checkpoints, source, line)
}

/*
Events returns the channel on which pause events are emitted.
*/
func (sd *scriptDebugger) Events() <-chan *util.PauseEvent {
	return sd.events
}

// Injected runtime API
// ====================

/*
PushFrame records a new call frame on the given thread.
*/
func (sd *scriptDebugger) PushFrame(tid uint64, method string, locals util.LocalsProvider) {
	frame := &frameInfo{method: method}

	if locals != nil {

		// Snapshot locals immediately - outside of any lock as the
		// provider runs script code

		if l, err := locals(); err == nil {
			frame.locals = l
		} else {
			frame.diagnostic = err.Error()
		}
	}

	ts := sd.threadState(tid)

	ts.lock.Lock()
	defer ts.lock.Unlock()

	ts.frames = append(ts.frames, frame)
}

/*
PopFrame removes the top call frame of the given thread. If a pause on pop
is armed and the stack dropped to the target depth the next checkpoint on
this thread will pause.
*/
func (sd *scriptDebugger) PopFrame(tid uint64) {
	ts := sd.threadState(tid)

	ts.lock.Lock()
	defer ts.lock.Unlock()

	if len(ts.frames) > 0 {
		ts.frames = ts.frames[:len(ts.frames)-1]
	}

	if ts.popDepth >= 0 && len(ts.frames) <= ts.popDepth {
		ts.popDepth = -1
		ts.pauseNext = true
	}
}

/*
Checkpoint records that the given thread reached a checkpoint. The call
blocks until the debugger resumes the thread if a breakpoint was hit or a
step operation requests a pause.
*/
func (sd *scriptDebugger) Checkpoint(tid uint64, id int, method string, locals util.LocalsProvider) {
	var snapshot []util.LocalValue
	var diagnostic string
	var haveSnapshot bool

	if locals != nil {

		// Take the snapshot outside of any lock as the provider runs
		// script code

		if l, err := locals(); err == nil {
			snapshot = l
			haveSnapshot = true
		} else {

			// A failing locals provider does not prevent the pause

			diagnostic = err.Error()
			snapshot = nil
			haveSnapshot = true
		}
	}

	ts := sd.threadState(tid)

	sd.bpLock.Lock()
	breakpointHit := sd.breakpoints[id]
	sd.bpLock.Unlock()

	ts.lock.Lock()

	frame := ts.topFrame()

	if frame == nil {

		// Checkpoint outside of any frame - synthesize a transient frame

		frame = &frameInfo{method: method}
	}

	if haveSnapshot {
		frame.locals = snapshot
		frame.diagnostic = diagnostic
	}

	frame.lastCheckpoint = id

	// Decide if this thread has to pause

	pause := breakpointHit

	if ts.pauseNext {
		pause = true
		ts.pauseNext = false

	} else if ts.action == stepInto {
		pause = true

	} else if ts.action == stepOver && ts.runUntil == id {
		pause = true
	}

	if !pause {
		ts.lock.Unlock()
		return
	}

	sd.clearStepState(ts)

	pid := atomic.AddUint64(&sd.pauseCounter, 1)
	ps := &pauseState{pid, make(chan struct{}, 1)}

	localsCopy := make([]util.LocalValue, len(frame.locals))
	copy(localsCopy, frame.locals)

	snap := &util.FrameSnapshot{
		Method:       frame.method,
		CheckpointID: id,
		Locals:       localsCopy,
		Diagnostic:   frame.diagnostic,
	}

	ts.pause = ps
	ts.lastPaused = snap

	ts.lock.Unlock()

	// Emit the event and block on the handshake

	sd.events <- &util.PauseEvent{PauseID: pid, ThreadID: tid, Frame: snap}

	<-ps.resume

	ts.lock.Lock()
	ts.pause = nil
	ts.lock.Unlock()
}

// Resume operations
// =================

/*
Continue resumes the thread which is paused with the given pause id. Calls
with an unknown pause id are ignored.
*/
func (sd *scriptDebugger) Continue(pauseID uint64, contType util.ContType) {
	ts := sd.threadForPause(pauseID)

	if ts == nil {

		// A stale resume is a no-op

		return
	}

	ts.lock.Lock()

	if ts.pause == nil || ts.pause.id != pauseID {
		ts.lock.Unlock()
		return
	}

	switch contType {

	case util.Resume:
		sd.clearStepState(ts)

	case util.StepIn:
		sd.clearStepState(ts)
		ts.action = stepInto

	case util.StepOver:
		sd.armStepOver(ts)

	case util.StepOut:
		sd.clearStepState(ts)
		ts.action = stepOut
		ts.popDepth = maxInt(0, len(ts.frames)-1)
	}

	ps := ts.pause
	ts.lock.Unlock()

	// Complete the handshake

	ps.resume <- struct{}{}
}

/*
armStepOver computes the next checkpoint within the current method and arms
the thread to pause there. If the current checkpoint is the last statement
of the method the pause is armed to happen after returning to the caller.
*/
func (sd *scriptDebugger) armStepOver(ts *threadState) {
	sd.clearStepState(ts)

	depth := len(ts.frames)

	if depth == 0 {

		// Without a frame stack a step over behaves like a step into

		ts.action = stepInto
		return
	}

	top := ts.frames[depth-1]

	sd.mapsLock.RLock()
	ids := sd.methods[top.method]
	sd.mapsLock.RUnlock()

	next := nextCheckpoint(ids, top.lastCheckpoint)

	if next != 0 {
		ts.action = stepOver
		ts.runUntil = next
		return
	}

	// Last statement of the method - pause right after the frame pop

	ts.action = stepOver
	ts.popDepth = maxInt(0, depth-1)
}

/*
clearStepState clears all step state of a thread. The caller must hold the
thread lock.
*/
func (sd *scriptDebugger) clearStepState(ts *threadState) {
	ts.action = stepNone
	ts.runUntil = -1
	ts.popDepth = -1
	ts.pauseNext = false
}

// Expression evaluation
// =====================

/*
Evaluate evaluates an expression against the locals of the paused frame
identified by the given pause id.
*/
func (sd *scriptDebugger) Evaluate(pauseID uint64, expression string) (interface{}, error) {
	ts := sd.threadForPause(pauseID)

	if ts == nil {
		return nil, fmt.Errorf("No thread is paused with pause id %v", pauseID)
	}

	ts.lock.Lock()
	snap := ts.lastPaused
	ts.lock.Unlock()

	if snap == nil {
		return nil, fmt.Errorf("No frame snapshot available for pause id %v", pauseID)
	}

	return sd.evaluator.Evaluate(expression, snap.Locals)
}

// Inspection
// ==========

/*
Status returns the current status of the debugger.
*/
func (sd *scriptDebugger) Status() interface{} {
	threadStates := make(map[string]map[string]interface{})

	res := map[string]interface{}{
		"breakpoints": sd.Breakpoints(),
		"threads":     threadStates,
	}

	sd.threadsLock.RLock()
	defer sd.threadsLock.RUnlock()

	for tid, ts := range sd.threads {
		ts.lock.Lock()

		s := map[string]interface{}{
			"depth":  len(ts.frames),
			"paused": ts.pause != nil,
		}

		if ts.pause != nil {
			s["pauseid"] = ts.pause.id
		}

		if top := ts.topFrame(); top != nil {
			s["method"] = top.method
			s["checkpoint"] = top.lastCheckpoint
		}

		ts.lock.Unlock()

		threadStates[fmt.Sprint(tid)] = s
	}

	return res
}

/*
Describe describes a thread currently observed by the debugger.
*/
func (sd *scriptDebugger) Describe(tid uint64) interface{} {
	sd.threadsLock.RLock()
	ts, ok := sd.threads[tid]
	sd.threadsLock.RUnlock()

	if !ok {
		return nil
	}

	ts.lock.Lock()
	defer ts.lock.Unlock()

	callStack := make([]string, 0, len(ts.frames))

	for _, f := range ts.frames {
		callStack = append(callStack, fmt.Sprintf("%v (#%v)", f.method, f.lastCheckpoint))
	}

	res := map[string]interface{}{
		"callStack": callStack,
		"paused":    ts.pause != nil,
	}

	if ts.pause != nil {
		res["pauseid"] = ts.pause.id
	}

	if ts.lastPaused != nil {
		locals := make([]map[string]interface{}, 0, len(ts.lastPaused.Locals))

		for _, l := range ts.lastPaused.Locals {
			locals = append(locals, map[string]interface{}{
				"name":  l.Name,
				"value": l.Value,
			})
		}

		frame := map[string]interface{}{
			"method":     ts.lastPaused.Method,
			"checkpoint": ts.lastPaused.CheckpointID,
			"locals":     locals,
		}

		if ts.lastPaused.Diagnostic != "" {
			frame["diagnostic"] = ts.lastPaused.Diagnostic
		}

		res["frame"] = frame
	}

	return res
}

// Helper functions
// ================

/*
threadState returns the state of a given thread - creating it if necessary.
*/
func (sd *scriptDebugger) threadState(tid uint64) *threadState {
	sd.threadsLock.RLock()
	ts, ok := sd.threads[tid]
	sd.threadsLock.RUnlock()

	if ok {
		return ts
	}

	sd.threadsLock.Lock()
	defer sd.threadsLock.Unlock()

	if ts, ok = sd.threads[tid]; !ok {
		ts = &threadState{
			tid:      tid,
			lock:     &sync.Mutex{},
			runUntil: -1,
			popDepth: -1,
		}
		sd.threads[tid] = ts
	}

	return ts
}

/*
threadForPause returns the thread which is paused with the given pause id or
nil.
*/
func (sd *scriptDebugger) threadForPause(pauseID uint64) *threadState {
	sd.threadsLock.RLock()
	defer sd.threadsLock.RUnlock()

	for _, ts := range sd.threads {
		ts.lock.Lock()
		match := ts.pause != nil && ts.pause.id == pauseID
		ts.lock.Unlock()

		if match {
			return ts
		}
	}

	return nil
}

/*
topFrame returns the top frame of a thread or nil. The caller must hold the
thread lock.
*/
func (ts *threadState) topFrame() *frameInfo {
	if len(ts.frames) == 0 {
		return nil
	}
	return ts.frames[len(ts.frames)-1]
}

/*
nextCheckpoint computes the next checkpoint id after the current one in a
given ordered id list. Returns 0 if there is no next id.
*/
func nextCheckpoint(ids []int, current int) int {

	for i, id := range ids {

		if id == current {
			if i+1 < len(ids) {
				return ids[i+1]
			}
			return 0
		}
	}

	// The current id is not part of the list - pick the first id which is
	// strictly greater

	for _, id := range ids {
		if id > current {
			return id
		}
	}

	return 0
}

/*
maxInt returns the larger of two integers.
*/
func maxInt(a int, b int) int {
	if a > b {
		return a
	}
	return b
}
