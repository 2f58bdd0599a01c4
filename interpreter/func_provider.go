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
	"strconv"
	"sync"
	"time"

	"github.com/krotik/sdbg/parser"
	"github.com/krotik/sdbg/util"
)

/*
InbuildFuncMap contains the mapping of inbuild functions.
*/
var InbuildFuncMap = map[string]util.ScriptFunction{
	"range":  &rangeFunc{&inbuildBaseFunc{}},
	"len":    &lenFunc{&inbuildBaseFunc{}},
	"del":    &delFunc{&inbuildBaseFunc{}},
	"add":    &addFunc{&inbuildBaseFunc{}},
	"concat": &concatFunc{&inbuildBaseFunc{}},
	"sleep":  &sleepFunc{&inbuildBaseFunc{}},
	"raise":  &raise{&inbuildBaseFunc{}},

	// Injected debugger runtime API - the rewriter emits calls to these

	"dbgPushFrame":  &dbgPushFrameFunc{&inbuildBaseFunc{}},
	"dbgPopFrame":   &dbgPopFrameFunc{&inbuildBaseFunc{}},
	"dbgCheckpoint": &dbgCheckpointFunc{&inbuildBaseFunc{}},
	"dbgMakeLocals": &dbgMakeLocalsFunc{&inbuildBaseFunc{}},
}

// Debug host binding
// ==================

/*
debugHost is the process-wide receiver of the injected runtime API calls. If
no host is bound the injected calls are no-ops which allows loading
instrumented modules outside of a debugger.
*/
var debugHost util.DebugHost
var debugHostLock = &sync.RWMutex{}

/*
SetDebugHost sets the process-wide debug host. Passing nil unbinds the
current host.
*/
func SetDebugHost(host util.DebugHost) {
	debugHostLock.Lock()
	defer debugHostLock.Unlock()
	debugHost = host
}

/*
GetDebugHost returns the process-wide debug host or nil.
*/
func GetDebugHost() util.DebugHost {
	debugHostLock.RLock()
	defer debugHostLock.RUnlock()
	return debugHost
}

/*
inbuildBaseFunc is the base structure for inbuild functions providing some
utility functions.
*/
type inbuildBaseFunc struct {
}

/*
AssertNumParam converts a general interface{} parameter into a number.
*/
func (ibf *inbuildBaseFunc) AssertNumParam(index int, val interface{}) (float64, error) {
	var err error

	resNum, ok := val.(float64)

	if !ok {

		resNum, err = strconv.ParseFloat(fmt.Sprint(val), 64)
		if err != nil {
			err = fmt.Errorf("Parameter %v should be a number", index)
		}
	}

	return resNum, err
}

/*
AssertMapParam converts a general interface{} parameter into a map.
*/
func (ibf *inbuildBaseFunc) AssertMapParam(index int, val interface{}) (map[interface{}]interface{}, error) {

	valMap, ok := val.(map[interface{}]interface{})

	if ok {
		return valMap, nil
	}

	return nil, fmt.Errorf("Parameter %v should be a map", index)
}

/*
AssertListParam converts a general interface{} parameter into a list.
*/
func (ibf *inbuildBaseFunc) AssertListParam(index int, val interface{}) ([]interface{}, error) {

	valList, ok := val.([]interface{})

	if ok {
		return valList, nil
	}

	return nil, fmt.Errorf("Parameter %v should be a list", index)
}

/*
localsProviderFromArg converts a given script function argument into a
locals provider. The script function is expected to return a list of
[name, value] pairs (usually built via dbgMakeLocals).
*/
func localsProviderFromArg(instanceID string, vs parser.Scope, tid uint64, arg interface{}) util.LocalsProvider {
	fn, ok := arg.(util.ScriptFunction)

	if !ok {

		// A null provider is allowed - the debugger falls back to the
		// previous snapshot of the frame

		return nil
	}

	return func() ([]util.LocalValue, error) {
		res, err := fn.Run(instanceID, vs, make(map[string]interface{}), tid, nil)

		if err != nil {
			return nil, err
		}

		pairs, ok := res.([]interface{})
		if !ok {
			return nil, fmt.Errorf("Locals provider must return a list of [name, value] pairs")
		}

		locals := make([]util.LocalValue, 0, len(pairs))

		for _, p := range pairs {
			pair, ok := p.([]interface{})

			if !ok || len(pair) != 2 {
				return nil, fmt.Errorf("Locals provider must return a list of [name, value] pairs")
			}

			locals = append(locals, util.LocalValue{Name: fmt.Sprint(pair[0]), Value: pair[1]})
		}

		return locals, nil
	}
}

// Range
// =====

/*
rangeFunc is an iterator function which returns a range of numbers.
*/
type rangeFunc struct {
	*inbuildBaseFunc
}

/*
Run executes this function.
*/
func (rf *rangeFunc) Run(instanceID string, vs parser.Scope, is map[string]interface{}, tid uint64, args []interface{}) (interface{}, error) {
	var currVal, to float64
	var err error

	lenargs := len(args)
	from := 0.
	step := 1.

	if lenargs == 0 {
		err = fmt.Errorf("Need at least an end range as first parameter")
	}

	if err == nil {

		if stepVal, ok := is[instanceID+"step"]; ok {

			step = stepVal.(float64)
			from = is[instanceID+"from"].(float64)
			to = is[instanceID+"to"].(float64)
			currVal = is[instanceID+"currVal"].(float64)

			is[instanceID+"currVal"] = currVal + step

			// Check for end of iteration

			if (from < to && currVal > to) || (from > to && currVal < to) || from == to {
				err = util.ErrEndOfIteration
			}

		} else {

			if lenargs == 1 {
				to, err = rf.AssertNumParam(1, args[0])
			} else {
				from, err = rf.AssertNumParam(1, args[0])

				if err == nil {
					to, err = rf.AssertNumParam(2, args[1])
				}

				if err == nil && lenargs > 2 {
					step, err = rf.AssertNumParam(3, args[2])
				}
			}

			if err == nil {
				is[instanceID+"from"] = from
				is[instanceID+"to"] = to
				is[instanceID+"step"] = step
				is[instanceID+"currVal"] = from

				currVal = from
			}
		}
	}

	if err == nil {
		err = util.ErrIsIterator // Identify as iterator
	}

	return currVal, err
}

/*
DocString returns a descriptive string.
*/
func (rf *rangeFunc) DocString() (string, error) {
	return "Range function which can be used to iterate over number ranges. Parameters are start, end and step.", nil
}

// Len
// ===

/*
lenFunc returns the size of a list or map.
*/
type lenFunc struct {
	*inbuildBaseFunc
}

/*
Run executes this function.
*/
func (rf *lenFunc) Run(instanceID string, vs parser.Scope, is map[string]interface{}, tid uint64, args []interface{}) (interface{}, error) {
	var res float64
	err := fmt.Errorf("Need a list or a map as first parameter")

	if len(args) > 0 {
		argList, ok1 := args[0].([]interface{})
		argMap, ok2 := args[0].(map[interface{}]interface{})

		if ok1 {
			res = float64(len(argList))
			err = nil
		} else if ok2 {
			res = float64(len(argMap))
			err = nil
		}
	}

	return res, err
}

/*
DocString returns a descriptive string.
*/
func (rf *lenFunc) DocString() (string, error) {
	return "Len returns the size of a list or map.", nil
}

// Del
// ===

/*
delFunc removes an element from a list or map.
*/
type delFunc struct {
	*inbuildBaseFunc
}

/*
Run executes this function.
*/
func (rf *delFunc) Run(instanceID string, vs parser.Scope, is map[string]interface{}, tid uint64, args []interface{}) (interface{}, error) {
	var res interface{}

	err := fmt.Errorf("Need a list or a map as first parameter and an index or key as second parameter")

	if len(args) == 2 {

		if argList, ok := args[0].([]interface{}); ok {
			var index float64

			index, err = rf.AssertNumParam(2, args[1])
			if err == nil {
				res = append(argList[:int(index)], argList[int(index)+1:]...)
			}
		}

		if argMap, ok := args[0].(map[interface{}]interface{}); ok {
			key := fmt.Sprint(args[1])
			delete(argMap, key)
			res = argMap
			err = nil
		}
	}

	return res, err
}

/*
DocString returns a descriptive string.
*/
func (rf *delFunc) DocString() (string, error) {
	return "Del removes an item from a list or map.", nil
}

// Add
// ===

/*
addFunc adds an element to a list.
*/
type addFunc struct {
	*inbuildBaseFunc
}

/*
Run executes this function.
*/
func (rf *addFunc) Run(instanceID string, vs parser.Scope, is map[string]interface{}, tid uint64, args []interface{}) (interface{}, error) {
	var res interface{}

	err := fmt.Errorf("Need a list as first parameter and a value as second parameter")

	if len(args) > 1 {
		var argList []interface{}

		if argList, err = rf.AssertListParam(1, args[0]); err == nil {

			if len(args) == 3 {
				var index float64

				if index, err = rf.AssertNumParam(3, args[2]); err == nil {
					argList = append(argList, 0)
					copy(argList[int(index)+1:], argList[int(index):])
					argList[int(index)] = args[1]
					res = argList
				}

			} else {

				res = append(argList, args[1])
			}
		}
	}

	return res, err
}

/*
DocString returns a descriptive string.
*/
func (rf *addFunc) DocString() (string, error) {
	return "Add adds an item to a list. The item is added at the optionally given index or at the end if no index is specified.", nil
}

// Concat
// ======

/*
concatFunc joins two or more lists together.
*/
type concatFunc struct {
	*inbuildBaseFunc
}

/*
Run executes this function.
*/
func (rf *concatFunc) Run(instanceID string, vs parser.Scope, is map[string]interface{}, tid uint64, args []interface{}) (interface{}, error) {
	var res interface{}

	err := fmt.Errorf("Need at least two lists as parameters")

	if len(args) > 1 {
		var argList []interface{}

		resList := make([]interface{}, 0)
		err = nil

		for _, a := range args {
			if err == nil {
				if argList, err = rf.AssertListParam(1, a); err == nil {
					resList = append(resList, argList...)
				}
			}
		}

		if err == nil {
			res = resList
		}
	}

	return res, err
}

/*
DocString returns a descriptive string.
*/
func (rf *concatFunc) DocString() (string, error) {
	return "Concat joins two or more lists together.", nil
}

// Sleep
// =====

/*
sleepFunc pauses the current thread for a number of micro seconds.
*/
type sleepFunc struct {
	*inbuildBaseFunc
}

/*
Run executes this function.
*/
func (rf *sleepFunc) Run(instanceID string, vs parser.Scope, is map[string]interface{}, tid uint64, args []interface{}) (interface{}, error) {
	var res interface{}

	sleepTime, err := rf.AssertNumParam(1, args[0])

	if err == nil {
		time.Sleep(time.Duration(sleepTime) * time.Microsecond)
	}

	return res, err
}

/*
DocString returns a descriptive string.
*/
func (rf *sleepFunc) DocString() (string, error) {
	return "Sleep pauses the current thread for a number of micro seconds.", nil
}

// Raise
// =====

/*
raise returns an error. Outside of try blocks this will stop the execution.
*/
type raise struct {
	*inbuildBaseFunc
}

/*
Run executes this function.
*/
func (rf *raise) Run(instanceID string, vs parser.Scope, is map[string]interface{}, tid uint64, args []interface{}) (interface{}, error) {
	var err error
	var detailMsg string
	var detail interface{}

	if len(args) > 0 {
		err = fmt.Errorf(fmt.Sprint(args[0]))
		if len(args) > 1 {
			if args[1] != nil {
				detailMsg = fmt.Sprint(args[1])
			}
			if len(args) > 2 {
				detail = args[2]
			}
		}
	}

	erp := is["erp"].(*ScriptRuntimeProvider)
	node := is["astnode"].(*parser.ASTNode)

	return nil, &util.RuntimeErrorWithDetail{
		RuntimeError: erp.NewRuntimeError(err, detailMsg, node).(*util.RuntimeError),
		Environment:  vs,
		Data:         detail,
	}
}

/*
DocString returns a descriptive string.
*/
func (rf *raise) DocString() (string, error) {
	return "Raise returns an error object which stops the execution unless it is caught by a try block.", nil
}

// Injected debugger runtime API
// =============================

/*
dbgPushFrameFunc records a new call frame with the process-wide debug host.
*/
type dbgPushFrameFunc struct {
	*inbuildBaseFunc
}

/*
Run executes this function.
*/
func (rf *dbgPushFrameFunc) Run(instanceID string, vs parser.Scope, is map[string]interface{}, tid uint64, args []interface{}) (interface{}, error) {
	var err error

	if len(args) == 0 {
		err = fmt.Errorf("Need a method name as first parameter")

	} else if host := GetDebugHost(); host != nil {
		var provider util.LocalsProvider

		if len(args) > 1 {
			provider = localsProviderFromArg(instanceID, vs, tid, args[1])
		}

		host.PushFrame(tid, fmt.Sprint(args[0]), provider)
	}

	return nil, err
}

/*
DocString returns a descriptive string.
*/
func (rf *dbgPushFrameFunc) DocString() (string, error) {
	return "DbgPushFrame records a new call frame with the bound debugger. A no-op without a debugger.", nil
}

/*
dbgPopFrameFunc removes the top call frame from the process-wide debug host.
*/
type dbgPopFrameFunc struct {
	*inbuildBaseFunc
}

/*
Run executes this function.
*/
func (rf *dbgPopFrameFunc) Run(instanceID string, vs parser.Scope, is map[string]interface{}, tid uint64, args []interface{}) (interface{}, error) {

	if host := GetDebugHost(); host != nil {
		host.PopFrame(tid)
	}

	return nil, nil
}

/*
DocString returns a descriptive string.
*/
func (rf *dbgPopFrameFunc) DocString() (string, error) {
	return "DbgPopFrame removes the top call frame with the bound debugger. A no-op without a debugger.", nil
}

/*
dbgCheckpointFunc reports that the executing thread reached a checkpoint. The
call may suspend the thread until the debugger resumes it.
*/
type dbgCheckpointFunc struct {
	*inbuildBaseFunc
}

/*
Run executes this function.
*/
func (rf *dbgCheckpointFunc) Run(instanceID string, vs parser.Scope, is map[string]interface{}, tid uint64, args []interface{}) (interface{}, error) {
	var err error

	if len(args) < 2 {
		err = fmt.Errorf("Need a checkpoint id and a method name as parameters")

	} else if host := GetDebugHost(); host != nil {
		var id float64
		var provider util.LocalsProvider

		if id, err = rf.AssertNumParam(1, args[0]); err == nil {

			if len(args) > 2 {
				provider = localsProviderFromArg(instanceID, vs, tid, args[2])
			}

			host.Checkpoint(tid, int(id), fmt.Sprint(args[1]), provider)
		}
	}

	return nil, err
}

/*
DocString returns a descriptive string.
*/
func (rf *dbgCheckpointFunc) DocString() (string, error) {
	return "DbgCheckpoint reports that the executing thread reached a checkpoint. A no-op without a debugger.", nil
}

/*
dbgMakeLocalsFunc assembles a locals list from [name, value] pairs.
*/
type dbgMakeLocalsFunc struct {
	*inbuildBaseFunc
}

/*
Run executes this function.
*/
func (rf *dbgMakeLocalsFunc) Run(instanceID string, vs parser.Scope, is map[string]interface{}, tid uint64, args []interface{}) (interface{}, error) {
	var err error

	res := make([]interface{}, 0, len(args))

	for i, a := range args {
		var pair []interface{}

		if pair, err = rf.AssertListParam(i+1, a); err != nil {
			return nil, err

		} else if len(pair) != 2 {
			return nil, fmt.Errorf("Parameter %v should be a [name, value] pair", i+1)
		}

		res = append(res, pair)
	}

	return res, err
}

/*
DocString returns a descriptive string.
*/
func (rf *dbgMakeLocalsFunc) DocString() (string, error) {
	return "DbgMakeLocals assembles a locals list from [name, value] pairs.", nil
}
