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

// Last used logger
var testlogger *util.MemoryLogger

func UnitTestEval(input string, vs parser.Scope) (interface{}, error) {
	return UnitTestEvalAndAST(input, vs, "")
}

func UnitTestEvalAndAST(input string, vs parser.Scope, expectedAST string) (interface{}, error) {

	erp := NewScriptRuntimeProvider("ScriptTestRuntime", nil)

	testlogger = erp.Logger.(*util.MemoryLogger)

	ast, err := parser.ParseWithRuntime("ScriptEvalTest", input, erp)
	if err != nil {
		return nil, err
	}

	if expectedAST != "" && ast.String() != expectedAST {
		return nil, fmt.Errorf("Unexpected AST result:\n%v", ast.String())
	}

	// Validate input

	if err := ast.Runtime.Validate(); err != nil {
		return nil, err
	}

	if vs == nil {
		vs = scope.NewScope(scope.GlobalScope)
	}

	return ast.Runtime.Eval(vs, make(map[string]interface{}), erp.NewThreadID())
}
