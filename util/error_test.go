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
	"errors"
	"fmt"
	"testing"

	"github.com/krotik/sdbg/parser"
)

func TestRuntimeError(t *testing.T) {

	ast, err := parser.Parse("mytest", "a := 1")

	if err != nil {
		t.Error(err)
		return
	}

	rerr := NewRuntimeError("mytest", ErrVarAccess, "some detail", ast)

	if rerr.Error() != "SDBG error in mytest: Cannot access variable (some detail) (Line:1 Pos:3)" {
		t.Error("Unexpected result:", rerr)
		return
	}

	// Errors without a token have no line information

	rerr = NewRuntimeError("mytest", ErrVarAccess, "some detail", &parser.ASTNode{})

	if rerr.Error() != "SDBG error in mytest: Cannot access variable (some detail)" {
		t.Error("Unexpected result:", rerr)
		return
	}

	// Traces can be added

	terr := rerr.(TraceableRuntimeError)

	terr.AddTrace(ast)

	if len(terr.GetTrace()) != 1 {
		t.Error("Unexpected trace:", terr.GetTrace())
		return
	}

	if ts := terr.GetTraceString(); len(ts) != 1 || ts[0] != "a := 1 (mytest:1)" {
		t.Error("Unexpected trace string:", ts)
		return
	}
}

func TestCompileError(t *testing.T) {

	cerr := NewCompileError("mytest", []error{
		errors.New("error 1"),
		errors.New("error 2"),
	})

	if cerr.Error() != "Compile error in mytest: 2 error(s): error 1; error 2" {
		t.Error("Unexpected result:", cerr)
		return
	}

	if len(cerr.(*CompileError).Errors) != 2 {
		t.Error("Unexpected error count")
		return
	}
}

func TestLoadError(t *testing.T) {

	lerr := &LoadError{"myisolate", fmt.Errorf("some problem")}

	if lerr.Error() != "Load error in isolate myisolate: some problem" {
		t.Error("Unexpected result:", lerr)
		return
	}
}
