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
	"bytes"
	"strings"
	"testing"
)

/*
runSandbox runs a sandbox with a given input.
*/
func runSandbox(input string) (int, string, string) {
	var out, errOut bytes.Buffer

	s := &CLISandbox{strings.NewReader(input), &out, &errOut}

	code := s.Run()

	return code, out.String(), errOut.String()
}

func TestSandboxSuccess(t *testing.T) {

	input := `---BEGIN-CODE---
func evalexpr() {
    return 40 + 2
}
---END-CODE---
`
	code, out, _ := runSandbox(input)

	if code != SandboxExitOK || out != "42\n" {
		t.Error("Unexpected result:", code, out)
		return
	}
}

func TestSandboxEmptyInput(t *testing.T) {

	if code, _, _ := runSandbox(""); code != SandboxExitEmptyInput {
		t.Error("Unexpected exit code:", code)
		return
	}

	// Markers without code are empty input

	input := `---BEGIN-CODE---
---END-CODE---
`
	if code, _, _ := runSandbox(input); code != SandboxExitEmptyInput {
		t.Error("Unexpected exit code:", code)
		return
	}

	// A missing end marker means the code was not fully delivered

	input = `---BEGIN-CODE---
func evalexpr() {
    return 1
}
`
	if code, _, _ := runSandbox(input); code != SandboxExitEmptyInput {
		t.Error("Unexpected exit code:", code)
		return
	}
}

func TestSandboxCompileError(t *testing.T) {

	input := `---BEGIN-CODE---
func evalexpr() {
    return 1 +
}
---END-CODE---
`
	code, _, errOut := runSandbox(input)

	if code != SandboxExitCompileError || errOut == "" {
		t.Error("Unexpected result:", code, errOut)
		return
	}
}

func TestSandboxRuntimeError(t *testing.T) {

	input := `---BEGIN-CODE---
func evalexpr() {
    return 1 / 0
}
---END-CODE---
`
	code, _, errOut := runSandbox(input)

	if code != SandboxExitRuntimeError || !strings.Contains(errOut, "Division by zero") {
		t.Error("Unexpected result:", code, errOut)
		return
	}
}
