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
	"container/list"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/google/uuid"
	"github.com/krotik/sdbg/config"
	"github.com/krotik/sdbg/interpreter"
	"github.com/krotik/sdbg/parser"
	"github.com/krotik/sdbg/util"
)

/*
EvalEntrypoint is the name of the entrypoint of synthesized evaluator modules.
*/
const EvalEntrypoint = "evalexpr"

/*
Evaluator is a just-in-time compiler for standalone expressions referencing
a frame's locals. Compiled expressions are kept in a bounded LRU cache -
evicted entries release their compiled code by unloading their isolate.
*/
type Evaluator struct {
	capacity int                      // Maximum number of cached entries
	logger   util.Logger              // Logger for evaluator messages
	lock     *sync.Mutex              // Lock for the map and the LRU list
	entries  map[string]*list.Element // Cache entries by key
	lru      *list.List               // LRU list - the front is the most recent
}

/*
evalEntry is a single cached compiled expression.
*/
type evalEntry struct {
	key     string               // Cache key of this entry
	isolate *interpreter.Isolate // Isolate holding the compiled expression
}

/*
NewEvaluator returns a new expression evaluator with a given cache capacity.
*/
func NewEvaluator(capacity int, logger util.Logger) *Evaluator {

	if capacity < 1 {
		capacity = 1
	}

	if logger == nil {
		logger = util.NewNullLogger()
	}

	return &Evaluator{capacity, logger, &sync.Mutex{},
		make(map[string]*list.Element), list.New()}
}

/*
Evaluate compiles an expression against the given ordered locals and
evaluates it. Two invocations with the same expression and the same ordered
list of local names hit the same cache entry regardless of concrete values.
A runtime error inside the expression is returned as an error and is never
propagated to the caller's thread.
*/
func (ev *Evaluator) Evaluate(expression string, locals []util.LocalValue) (interface{}, error) {
	var entry *evalEntry

	names := make([]string, len(locals))
	values := make([]interface{}, len(locals))

	for i, l := range locals {
		names[i] = l.Name
		values[i] = l.Value
	}

	key := fmt.Sprintf("%v|%v", expression, strings.Join(names, ","))

	ev.lock.Lock()

	if el, ok := ev.entries[key]; ok {

		ev.lru.MoveToFront(el)
		entry = el.Value.(*evalEntry)

	} else {
		iso, err := ev.build(expression, names)

		if err != nil {
			ev.lock.Unlock()
			return nil, err
		}

		entry = &evalEntry{key, iso}
		ev.entries[key] = ev.lru.PushFront(entry)

		// Evict from the tail until the capacity is honored again

		for ev.lru.Len() > ev.capacity {
			tail := ev.lru.Back()
			ev.lru.Remove(tail)

			tailEntry := tail.Value.(*evalEntry)
			delete(ev.entries, tailEntry.key)

			tailEntry.isolate.Unload()

			// Reclamation is best-effort prompt - a delayed release must
			// not stall the cache

			go tailEntry.isolate.AwaitRelease(config.Int(config.EvalGCNudges))
		}
	}

	ev.lock.Unlock()

	// The expression itself runs outside of the cache lock

	res, err := entry.isolate.Call(EvalEntrypoint, values)

	if err != nil {
		return nil, unwrapEvalError(err)
	}

	return res, nil
}

/*
build synthesizes, compiles and loads an evaluator module for an expression
with a given locals signature. The caller must hold the cache lock.
*/
func (ev *Evaluator) build(expression string, names []string) (*interpreter.Isolate, error) {
	params := make([]string, 0, len(names))
	used := map[string]bool{EvalEntrypoint: true}

	for _, name := range names {
		safe := SafeIdentifier(name)

		for used[safe] {
			safe = fmt.Sprintf("%v%v", safe, len(params))
		}
		used[safe] = true

		params = append(params, safe)
	}

	src := fmt.Sprintf("func %v(%v) {\n    return (%v)\n}",
		EvalEntrypoint, strings.Join(params, ", "), expression)

	mod, err := interpreter.Compile("EvalExpression", src)

	if err != nil {
		return nil, err
	}

	// Every cache entry gets its own fresh isolate

	return interpreter.Load(mod, fmt.Sprintf("eval-%v", uuid.New().String()), ev.logger)
}

/*
Size returns the current number of cached entries.
*/
func (ev *Evaluator) Size() int {
	ev.lock.Lock()
	defer ev.lock.Unlock()

	return ev.lru.Len()
}

/*
Keys returns the cache keys in LRU order - the most recently used first.
*/
func (ev *Evaluator) Keys() []string {
	ev.lock.Lock()
	defer ev.lock.Unlock()

	ret := make([]string, 0, ev.lru.Len())

	for el := ev.lru.Front(); el != nil; el = el.Next() {
		ret = append(ret, el.Value.(*evalEntry).key)
	}

	return ret
}

/*
SafeIdentifier derives a valid script identifier from a local variable name.
Invalid characters are replaced, a leading non-letter and reserved words are
prefixed.
*/
func SafeIdentifier(name string) string {
	var buf strings.Builder

	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			buf.WriteRune(r)
		} else {
			buf.WriteRune('0')
		}
	}

	ret := buf.String()

	if ret == "" || !unicode.IsLetter(rune(ret[0])) {
		ret = fmt.Sprintf("v%v", ret)
	}

	if _, ok := parser.KeywordMap[strings.ToLower(ret)]; ok {
		ret = fmt.Sprintf("v%v", ret)
	}

	return ret
}

/*
unwrapEvalError unwraps a runtime error of an evaluated expression to its
innermost cause.
*/
func unwrapEvalError(err error) error {

	if re, ok := err.(*util.RuntimeErrorWithDetail); ok {
		if re.Detail != "" {
			return fmt.Errorf("%v (%v)", re.Type, re.Detail)
		}
		return re.Type

	} else if re, ok := err.(*util.RuntimeError); ok {
		if re.Detail != "" {
			return fmt.Errorf("%v (%v)", re.Type, re.Detail)
		}
		return re.Type
	}

	return err
}
