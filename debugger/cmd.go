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
	"strconv"
	"strings"

	"github.com/krotik/sdbg/rewriter"
	"github.com/krotik/sdbg/util"
)

/*
DebugCommandsMap contains the mapping of inbuild debug commands.
*/
var DebugCommandsMap = map[string]util.DebugCommand{
	"map":       &mapCommand{&inbuildDebugCommand{}},
	"mapline":   &mapLineCommand{&inbuildDebugCommand{}},
	"break":     &setBreakpointCommand{&inbuildDebugCommand{}},
	"breakline": &setBreakpointLineCommand{&inbuildDebugCommand{}},
	"rmbreak":   &rmBreakpointCommand{&inbuildDebugCommand{}},
	"breaklist": &listBreakpointsCommand{&inbuildDebugCommand{}},
	"cont":      &contCommand{&inbuildDebugCommand{}},
	"describe":  &describeCommand{&inbuildDebugCommand{}},
	"status":    &statusCommand{&inbuildDebugCommand{}},
	"eval":      &evalCommand{&inbuildDebugCommand{}},
}

/*
HandleDebugInput handles a given debug instruction from a console.
*/
func HandleDebugInput(debugger util.Debugger, input string) (interface{}, error) {
	var res interface{}
	var err error

	args := strings.Fields(input)

	if len(args) > 0 {
		if cmd, ok := DebugCommandsMap[args[0]]; ok {
			if len(args) > 1 {
				res, err = cmd.Run(debugger, args[1:])
			} else {
				res, err = cmd.Run(debugger, nil)
			}
		} else {
			err = fmt.Errorf("Unknown command: %v", args[0])
		}
	}

	return res, err
}

/*
inbuildDebugCommand is the base structure for inbuild debug commands providing some
utility functions.
*/
type inbuildDebugCommand struct {
}

/*
AssertNumParam converts a parameter into a number.
*/
func (ibf *inbuildDebugCommand) AssertNumParam(index int, val string) (uint64, error) {
	if resNum, err := strconv.ParseInt(fmt.Sprint(val), 10, 0); err == nil {
		return uint64(resNum), nil
	}
	return 0, fmt.Errorf("Parameter %v should be a number", index)
}

/*
AssertLineParam parses a parameter of the form <source>:<line>.
*/
func (ibf *inbuildDebugCommand) AssertLineParam(index int, val string) (string, int, error) {
	targetSplit := strings.Split(val, ":")

	if len(targetSplit) > 1 {
		if line, err := strconv.Atoi(targetSplit[len(targetSplit)-1]); err == nil {
			return strings.Join(targetSplit[:len(targetSplit)-1], ":"), line, nil
		}
	}

	return "", 0, fmt.Errorf("Parameter %v should be of the form <source>:<line>", index)
}

// map
// ===

/*
mapCommand shows all known checkpoints.
*/
type mapCommand struct {
	*inbuildDebugCommand
}

/*
Run executes the debug command and return its result. It must be possible to
convert the output data into a JSON string.
*/
func (c *mapCommand) Run(debugger util.Debugger, args []string) (interface{}, error) {
	return rewriter.FormatCheckpointMap(debugger.Checkpoints()), nil
}

/*
DocString returns a descriptive text about this command.
*/
func (c *mapCommand) DocString() string {
	return "Show all known checkpoints with their source positions."
}

// mapline
// =======

/*
mapLineCommand resolves a source line to the nearest checkpoint.
*/
type mapLineCommand struct {
	*inbuildDebugCommand
}

/*
Run executes the debug command and return its result. It must be possible to
convert the output data into a JSON string.
*/
func (c *mapLineCommand) Run(debugger util.Debugger, args []string) (interface{}, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("Need a map target (<source>:<line>) as first parameter")
	}

	source, line, err := c.AssertLineParam(1, args[0])

	if err != nil {
		return nil, err
	}

	return debugger.ResolveLine(source, line)
}

/*
DocString returns a descriptive text about this command.
*/
func (c *mapLineCommand) DocString() string {
	return "Resolve a source line to the nearest checkpoint specifying <source>:<line>"
}

// break
// =====

/*
setBreakpointCommand sets a breakpoint for a checkpoint id.
*/
type setBreakpointCommand struct {
	*inbuildDebugCommand
}

/*
Run executes the debug command and return its result. It must be possible to
convert the output data into a JSON string.
*/
func (c *setBreakpointCommand) Run(debugger util.Debugger, args []string) (interface{}, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("Need a checkpoint id as first parameter")
	}

	id, err := c.AssertNumParam(1, args[0])

	if err == nil {
		debugger.AddBreakpoint(int(id))
	}

	return nil, err
}

/*
DocString returns a descriptive text about this command.
*/
func (c *setBreakpointCommand) DocString() string {
	return "Set a breakpoint specifying a checkpoint id"
}

// breakline
// =========

/*
setBreakpointLineCommand sets a breakpoint for the checkpoint nearest to a
source line.
*/
type setBreakpointLineCommand struct {
	*inbuildDebugCommand
}

/*
Run executes the debug command and return its result. It must be possible to
convert the output data into a JSON string.
*/
func (c *setBreakpointLineCommand) Run(debugger util.Debugger, args []string) (interface{}, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("Need a break target (<source>:<line>) as first parameter")
	}

	source, line, err := c.AssertLineParam(1, args[0])

	if err != nil {
		return nil, err
	}

	id, err := debugger.ResolveLine(source, line)

	if err == nil {
		debugger.AddBreakpoint(id)
	}

	return id, err
}

/*
DocString returns a descriptive text about this command.
*/
func (c *setBreakpointLineCommand) DocString() string {
	return "Set a breakpoint at the checkpoint nearest to <source>:<line>"
}

// rmbreak
// =======

/*
rmBreakpointCommand removes a breakpoint.
*/
type rmBreakpointCommand struct {
	*inbuildDebugCommand
}

/*
Run executes the debug command and return its result. It must be possible to
convert the output data into a JSON string.
*/
func (c *rmBreakpointCommand) Run(debugger util.Debugger, args []string) (interface{}, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("Need a checkpoint id as first parameter")
	}

	id, err := c.AssertNumParam(1, args[0])

	if err == nil {
		debugger.RemoveBreakpoint(int(id))
	}

	return nil, err
}

/*
DocString returns a descriptive text about this command.
*/
func (c *rmBreakpointCommand) DocString() string {
	return "Remove a breakpoint specifying a checkpoint id"
}

// breaklist
// =========

/*
listBreakpointsCommand lists all set breakpoints.
*/
type listBreakpointsCommand struct {
	*inbuildDebugCommand
}

/*
Run executes the debug command and return its result. It must be possible to
convert the output data into a JSON string.
*/
func (c *listBreakpointsCommand) Run(debugger util.Debugger, args []string) (interface{}, error) {
	return debugger.Breakpoints(), nil
}

/*
DocString returns a descriptive text about this command.
*/
func (c *listBreakpointsCommand) DocString() string {
	return "List all set breakpoints."
}

// cont
// ====

/*
contCommand continues a suspended thread.
*/
type contCommand struct {
	*inbuildDebugCommand
}

/*
Run executes the debug command and return its result. It must be possible to
convert the output data into a JSON string.
*/
func (c *contCommand) Run(debugger util.Debugger, args []string) (interface{}, error) {
	var cmd util.ContType

	if len(args) != 2 {
		return nil, fmt.Errorf("Need a pause id and a command Resume, StepIn, StepOver or StepOut")
	}

	pauseID, err := c.AssertNumParam(1, args[0])

	if err == nil {
		cmdString := strings.ToLower(args[1])
		switch cmdString {
		case "resume":
			cmd = util.Resume
		case "stepin":
			cmd = util.StepIn
		case "stepover":
			cmd = util.StepOver
		case "stepout":
			cmd = util.StepOut
		default:
			return nil, fmt.Errorf("Invalid command %v - must be resume, stepin, stepover or stepout", cmdString)
		}

		debugger.Continue(pauseID, cmd)
	}

	return nil, err
}

/*
DocString returns a descriptive text about this command.
*/
func (c *contCommand) DocString() string {
	return "Continues a suspended thread. Specify <pauseID> <Resume | StepIn | StepOver | StepOut>"
}

// describe
// ========

/*
describeCommand describes a suspended thread.
*/
type describeCommand struct {
	*inbuildDebugCommand
}

/*
Run executes the debug command and return its result. It must be possible to
convert the output data into a JSON string.
*/
func (c *describeCommand) Run(debugger util.Debugger, args []string) (interface{}, error) {
	var res interface{}

	if len(args) != 1 {
		return nil, fmt.Errorf("Need a thread ID")
	}

	threadID, err := c.AssertNumParam(1, args[0])

	if err == nil {

		res = debugger.Describe(threadID)
	}

	return res, err
}

/*
DocString returns a descriptive text about this command.
*/
func (c *describeCommand) DocString() string {
	return "Describes a suspended thread."
}

// status
// ======

/*
statusCommand shows breakpoints and suspended threads.
*/
type statusCommand struct {
	*inbuildDebugCommand
}

/*
Run executes the debug command and return its result. It must be possible to
convert the output data into a JSON string.
*/
func (c *statusCommand) Run(debugger util.Debugger, args []string) (interface{}, error) {
	return debugger.Status(), nil
}

/*
DocString returns a descriptive text about this command.
*/
func (c *statusCommand) DocString() string {
	return "Shows breakpoints and suspended threads."
}

// eval
// ====

/*
evalCommand evaluates an expression against the locals of a paused frame.
*/
type evalCommand struct {
	*inbuildDebugCommand
}

/*
Run executes the debug command and return its result. It must be possible to
convert the output data into a JSON string.
*/
func (c *evalCommand) Run(debugger util.Debugger, args []string) (interface{}, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("Need a pause id and an expression")
	}

	pauseID, err := c.AssertNumParam(1, args[0])

	if err != nil {
		return nil, err
	}

	return debugger.Evaluate(pauseID, strings.Join(args[1:], " "))
}

/*
DocString returns a descriptive text about this command.
*/
func (c *evalCommand) DocString() string {
	return "Evaluates an expression against the locals of a paused frame."
}
