/*
 * SDBG - Source-level script debugger
 *
 * Copyright 2020 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the MIT
 * License, If a copy of the MIT License was not distributed with this
 * file, You can obtain one at https://opensource.org/licenses/MIT.
 */

package tool

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/krotik/sdbg/debugger"
	"github.com/krotik/sdbg/interpreter"
	"github.com/krotik/sdbg/util"
)

/*
Markers which bracket the code of a sandbox request on standard input.
*/
const (
	SandboxBeginMarker = "---BEGIN-CODE---"
	SandboxEndMarker   = "---END-CODE---"
)

/*
Sandbox exit codes
*/
const (
	SandboxExitOK           = 0 // Evaluation succeeded
	SandboxExitEmptyInput   = 1 // No code was delivered
	SandboxExitCompileError = 2 // The code could not be compiled
	SandboxExitRuntimeError = 3 // The evaluation produced a runtime error
)

/*
CLISandbox is the out-of-process expression evaluator of SDBG. It reads an
evaluator module bracketed by begin and end markers from standard input,
compiles and loads it and calls its evaluation entrypoint. The host applies
an OS-level timeout to guard against runaway expressions.
*/
type CLISandbox struct {
	Input  io.Reader // Input stream (standard input)
	Out    io.Writer // Output stream for the result
	ErrOut io.Writer // Output stream for compile diagnostics
}

/*
NewCLISandbox creates a new sandboxed evaluator.
*/
func NewCLISandbox() *CLISandbox {
	return &CLISandbox{osStdin, os.Stdout, osStderr}
}

/*
Run reads and evaluates a sandbox request. Returns the process exit code.
*/
func (s *CLISandbox) Run() int {
	code, ok := s.readCode()

	if !ok || strings.TrimSpace(code) == "" {
		return SandboxExitEmptyInput
	}

	mod, err := interpreter.Compile("sandbox", code)

	if err != nil {
		if ce, isCompileErr := err.(*util.CompileError); isCompileErr {
			for _, e := range ce.Errors {
				fmt.Fprintln(s.ErrOut, e.Error())
			}
		} else {
			fmt.Fprintln(s.ErrOut, err.Error())
		}

		return SandboxExitCompileError
	}

	iso, err := interpreter.Load(mod, "sandbox", util.NewNullLogger())

	if err != nil {
		fmt.Fprintln(s.ErrOut, err.Error())
		return SandboxExitRuntimeError
	}

	var res interface{}

	// If the module has an evaluation entrypoint it is called without
	// arguments - otherwise the top-level execution was the evaluation

	for _, ep := range iso.Entrypoints() {
		if ep == debugger.EvalEntrypoint {
			if res, err = iso.Call(debugger.EvalEntrypoint, nil); err != nil {
				fmt.Fprintln(s.ErrOut, err.Error())
				return SandboxExitRuntimeError
			}
		}
	}

	fmt.Fprintln(s.Out, fmt.Sprint(res))

	return SandboxExitOK
}

/*
readCode reads the code between the begin and end markers from the input.
*/
func (s *CLISandbox) readCode() (string, bool) {
	var buf strings.Builder

	inCode := false
	complete := false

	scanner := bufio.NewScanner(s.Input)

	for scanner.Scan() {
		line := scanner.Text()

		if strings.TrimSpace(line) == SandboxBeginMarker {
			inCode = true
			continue
		}

		if strings.TrimSpace(line) == SandboxEndMarker {
			complete = inCode
			break
		}

		if inCode {
			buf.WriteString(line)
			buf.WriteString("\n")
		}
	}

	return buf.String(), complete
}

/*
RunSandbox runs the sandboxed evaluator and exits the process with its
result code.
*/
func RunSandbox() {
	osExit(NewCLISandbox().Run())
}
