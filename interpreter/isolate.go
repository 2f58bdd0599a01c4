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
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/krotik/sdbg/parser"
	"github.com/krotik/sdbg/scope"
	"github.com/krotik/sdbg/util"
)

/*
Isolate is a named, collectible container into which a compiled module is
loaded. Two distinct isolates loading the same module are independent. After
an unload its code is unreachable from new calls and its static state is
reclaimed by the garbage collector once all outstanding references drop.
*/
type Isolate struct {
	Name string // Name of this isolate

	lock *sync.Mutex
	core *isolateCore
	ref  *IsolateRef
}

/*
isolateCore holds the collectible state of an isolate.
*/
type isolateCore struct {
	erp     *ScriptRuntimeProvider
	globals parser.Scope
	entry   map[string]util.ScriptFunction
}

/*
IsolateRef is a weak reference to an isolate. It becomes dead once the
isolate was unloaded and its state was reclaimed by the garbage collector.
*/
type IsolateRef struct {
	released uint32
}

/*
Dead checks if the referenced isolate has been fully released.
*/
func (ir *IsolateRef) Dead() bool {
	return atomic.LoadUint32(&ir.released) == 1
}

/*
Load loads a compiled module into a new isolate with a given name. Top-level
statements of the module are executed once during the load - function
definitions become the entrypoints of the isolate. A failed load is retried
once before a LoadError is returned.
*/
func Load(mod *Module, isolateName string, logger util.Logger) (*Isolate, error) {
	var core *isolateCore
	var err error

	for attempt := 0; attempt < 2; attempt++ {
		if core, err = loadCore(mod, logger); err == nil {
			break
		}
	}

	if err != nil {
		return nil, &util.LoadError{Isolate: isolateName, Detail: err}
	}

	ref := &IsolateRef{}

	// The finalizer flips the weak reference once the garbage collector
	// reclaims the core

	runtime.SetFinalizer(core, func(c *isolateCore) {
		atomic.StoreUint32(&ref.released, 1)
	})

	return &Isolate{isolateName, &sync.Mutex{}, core, ref}, nil
}

/*
loadCore parses and evaluates a module into a new isolate core.
*/
func loadCore(mod *Module, logger util.Logger) (*isolateCore, error) {
	erp := NewScriptRuntimeProvider(mod.Name, logger)

	ast, err := parser.ParseWithRuntime(mod.Name, mod.Source, erp)

	if err == nil {
		if err = ast.Runtime.Validate(); err == nil {
			globals := scope.NewScope(scope.GlobalScope)

			if _, err = ast.Runtime.Eval(globals,
				make(map[string]interface{}), erp.NewThreadID()); err == nil {

				return &isolateCore{erp, globals, entrypoints(globals)}, nil
			}
		}
	}

	return nil, err
}

/*
Entrypoints returns the names of all callable entrypoints in ascending order.
*/
func (i *Isolate) Entrypoints() []string {
	var ret []string

	i.lock.Lock()
	defer i.lock.Unlock()

	if i.core != nil {
		for k := range i.core.entry {
			ret = append(ret, k)
		}
	}

	sort.Strings(ret)

	return ret
}

/*
NewThreadID creates a new thread ID for calls into this isolate.
*/
func (i *Isolate) NewThreadID() uint64 {
	i.lock.Lock()
	defer i.lock.Unlock()

	if i.core == nil {
		return 0
	}

	return i.core.erp.NewThreadID()
}

/*
Call executes a given entrypoint on a new thread.
*/
func (i *Isolate) Call(name string, args []interface{}) (interface{}, error) {
	return i.CallWithThread(i.NewThreadID(), name, args)
}

/*
CallWithThread executes a given entrypoint on a given thread.
*/
func (i *Isolate) CallWithThread(tid uint64, name string, args []interface{}) (interface{}, error) {
	i.lock.Lock()
	core := i.core
	i.lock.Unlock()

	if core == nil {
		return nil, fmt.Errorf("Isolate %v has been unloaded", i.Name)
	}

	fn, ok := core.entry[name]

	if !ok {
		return nil, fmt.Errorf("Isolate %v has no entrypoint %v", i.Name, name)
	}

	return fn.Run(fmt.Sprintf("%v.%v", i.Name, name),
		core.globals, make(map[string]interface{}), tid, args)
}

/*
Ref returns a weak reference to this isolate which can be used to detect
when the isolate has been fully released.
*/
func (i *Isolate) Ref() *IsolateRef {
	return i.ref
}

/*
Unload makes the code of this isolate unreachable from new calls. The
reclamation of its state happens once all outstanding references drop.
*/
func (i *Isolate) Unload() {
	i.lock.Lock()
	defer i.lock.Unlock()

	if i.core != nil {
		i.core.globals.Clear()
		i.core = nil
	}
}

/*
AwaitRelease nudges the garbage collector until the weak reference of this
isolate is dead or the given number of nudges have been done. Returns true
if the isolate was released. Callers must tolerate a delayed release.
*/
func (i *Isolate) AwaitRelease(nudges int) bool {

	for n := 0; n < nudges; n++ {

		if i.ref.Dead() {
			return true
		}

		runtime.GC()
		time.Sleep(10 * time.Millisecond)
	}

	return i.ref.Dead()
}
