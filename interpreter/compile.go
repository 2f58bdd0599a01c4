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

	"github.com/krotik/sdbg/parser"
	"github.com/krotik/sdbg/scope"
	"github.com/krotik/sdbg/util"
)

/*
Module is a compiled source unit which can be loaded into an isolate.
*/
type Module struct {
	Name   string // Name of the source unit
	Source string // Source text of the unit
}

/*
Compile produces a loadable module from a given source unit. All diagnostics
with severity error which are collected during the compile run are returned
as a single CompileError.
*/
func Compile(name string, src string) (*Module, error) {
	var errs []error

	erp := NewScriptRuntimeProvider(name, util.NewNullLogger())

	ast, err := parser.ParseWithRuntime(name, src, erp)

	if err != nil {
		return nil, util.NewCompileError(name, []error{err})
	}

	// Validate top-level statements separately so multiple diagnostics
	// can be collected in one compile run

	if ast.Name == parser.NodeSTATEMENTS {
		for _, child := range ast.Children {
			if err := child.Runtime.Validate(); err != nil {
				errs = append(errs, err)
			}
		}
	} else if err := ast.Runtime.Validate(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return nil, util.NewCompileError(name, errs)
	}

	return &Module{name, src}, nil
}

/*
entrypoints scans a global scope for callable functions.
*/
func entrypoints(globals parser.Scope) map[string]util.ScriptFunction {
	eps := make(map[string]util.ScriptFunction)

	for k, v := range scope.ToObject(globals) {
		if fn, ok := v.(util.ScriptFunction); ok {
			eps[fmt.Sprint(k)] = fn
		}
	}

	return eps
}
