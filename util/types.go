/*
 * SDBG - Source-level script debugger
 *
 * Copyright 2020 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the MIT
 * License, If a copy of the MIT License was not distributed with this
 * file, You can obtain one at https://opensource.org/licenses/MIT.
 */

package util

import (
	"fmt"

	"github.com/krotik/sdbg/parser"
)

/*
ScriptFunction models a callable function in SDBG script.
*/
type ScriptFunction interface {

	/*
		Run executes this function. The environment provides a unique instanceID for
		every code location in the running code, the variable scope of the function,
		an instance state which can be used in combination with the instanceID
		to store instance specific state (e.g. for iterator functions) and a list
		of argument values which were passed to the function by the calling code.
	*/
	Run(instanceID string, vs parser.Scope, is map[string]interface{}, tid uint64, args []interface{}) (interface{}, error)

	/*
	   DocString returns a descriptive text about this function.
	*/
	DocString() (string, error)
}

/*
Logger is required external object to which the interpreter releases its log messages.
*/
type Logger interface {

	/*
	   LogError adds a new error log message.
	*/
	LogError(v ...interface{})

	/*
	   LogInfo adds a new info log message.
	*/
	LogInfo(v ...interface{})

	/*
	   LogDebug adds a new debug log message.
	*/
	LogDebug(v ...interface{})
}

/*
ContType represents a way how to resume code execution of a suspended thread.
*/
type ContType int

/*
Available resume types
*/
const (
	Resume   ContType = iota // Resume code execution until the next breakpoint or the end
	StepIn                   // Pause at the next checkpoint regardless of the method
	StepOver                 // Pause at the next checkpoint within the current method
	StepOut                  // Pause at the next checkpoint after the current method returned
)

/*
LocalValue is a single named local variable value of a paused frame.
*/
type LocalValue struct {
	Name  string      // Name of the variable in the original source
	Value interface{} // Boxed value of the variable
}

/*
LocalsProvider produces the ordered list of local variable values which are
visible at a checkpoint. The values are read live at invocation time.
*/
type LocalsProvider func() ([]LocalValue, error)

/*
CheckpointPos is the position of an original statement in its source unit.
*/
type CheckpointPos struct {
	Source string // Name of the source unit
	Line   int    // 1-based line of the original statement
	Pos    int    // 1-based position of the original statement in its line
}

/*
CheckpointMap maps checkpoint IDs to the positions of their original statements.
*/
type CheckpointMap map[int]CheckpointPos

/*
MethodCheckpointMap maps qualified method names to the ordered list of
checkpoint IDs which were emitted inside the method body.
*/
type MethodCheckpointMap map[string][]int

/*
FrameSnapshot is a copy of the state of a call frame taken when a thread pauses.
*/
type FrameSnapshot struct {
	Method       string       // Qualified name of the executing method
	CheckpointID int          // Last hit checkpoint of the frame
	Locals       []LocalValue // Ordered local variable values
	Diagnostic   string       // Diagnostic message (e.g. of a failed locals provider)
}

/*
PauseEvent is emitted to the debugger subscriber when a thread pauses.
*/
type PauseEvent struct {
	PauseID  uint64         // Unique ID of this pause instance
	ThreadID uint64         // Thread which paused
	Frame    *FrameSnapshot // Snapshot of the paused frame
}

/*
String returns a string representation of this pause event.
*/
func (p *PauseEvent) String() string {
	return fmt.Sprintf("Pause %v thread %v at #%v in %v", p.PauseID,
		p.ThreadID, p.Frame.CheckpointID, p.Frame.Method)
}

/*
DebugHost is the process-wide receiver of the runtime API calls which the
rewriter embeds into instrumented code. If no host is bound the injected
calls are no-ops.
*/
type DebugHost interface {

	/*
	   PushFrame records a new call frame on the given thread.
	*/
	PushFrame(tid uint64, method string, locals LocalsProvider)

	/*
	   PopFrame removes the top call frame of the given thread.
	*/
	PopFrame(tid uint64)

	/*
		Checkpoint records that the given thread reached a checkpoint. The
		call may block until the debugger resumes the thread.
	*/
	Checkpoint(tid uint64, id int, method string, locals LocalsProvider)
}

/*
Debugger is a debugging object which can be used to inspect and control the
execution of instrumented code.
*/
type Debugger interface {
	DebugHost

	/*
		HandleInput handles a given debug instruction. It must be possible to
		convert the output data into a JSON string.
	*/
	HandleInput(input string) (interface{}, error)

	/*
	   RegisterMaps makes checkpoint index structures of a rewritten unit
	   available to the debugger.
	*/
	RegisterMaps(cm CheckpointMap, mm MethodCheckpointMap)

	/*
	   Checkpoints returns the known checkpoint positions.
	*/
	Checkpoints() CheckpointMap

	/*
	   AddBreakpoint adds a breakpoint for a given checkpoint ID.
	*/
	AddBreakpoint(id int)

	/*
	   RemoveBreakpoint removes a breakpoint for a given checkpoint ID.
	*/
	RemoveBreakpoint(id int)

	/*
	   Breakpoints returns all set breakpoints in ascending order.
	*/
	Breakpoints() []int

	/*
	   ResolveLine resolves a source and line to the nearest checkpoint ID.
	*/
	ResolveLine(source string, line int) (int, error)

	/*
	   Continue resumes the thread which is paused with the given pause ID.
	   Resume calls with an unknown pause ID are ignored.
	*/
	Continue(pauseID uint64, contType ContType)

	/*
	   Evaluate evaluates an expression against the locals of the paused
	   frame identified by the given pause ID.
	*/
	Evaluate(pauseID uint64, expression string) (interface{}, error)

	/*
	   Events returns the channel on which pause events are emitted.
	*/
	Events() <-chan *PauseEvent

	/*
		Status returns the current status of the debugger.
	*/
	Status() interface{}

	/*
	   Describe describes a thread currently observed by the debugger.
	*/
	Describe(tid uint64) interface{}
}

/*
DebugCommand is a command which can modify and interrogate the debugger.
*/
type DebugCommand interface {

	/*
		Run executes the debug command and return its result. It must be possible to
		convert the output data into a JSON string.
	*/
	Run(debugger Debugger, args []string) (interface{}, error)

	/*
	   DocString returns a descriptive text about this command.
	*/
	DocString() string
}
