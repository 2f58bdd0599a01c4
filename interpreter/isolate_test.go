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
	"strings"
	"testing"

	"github.com/krotik/sdbg/util"
)

func TestCompile(t *testing.T) {

	if _, err := Compile("mytest", "func main() {\n    return 1\n}"); err != nil {
		t.Error("Unexpected result:", err)
		return
	}

	// Parse errors are reported as compile errors

	_, err := Compile("mytest", "a := ")

	if err == nil {
		t.Error("Compile should fail")
		return
	}

	cerr, ok := err.(*util.CompileError)

	if !ok || cerr.Source != "mytest" || len(cerr.Errors) != 1 {
		t.Error("Unexpected result:", err)
		return
	}

	// Validation errors of separate statements are collected in one run

	_, err = Compile("mytest", "x := y\n1 := 2\n3 := 4")

	if err == nil {
		t.Error("Compile should fail")
		return
	}

	if cerr, ok = err.(*util.CompileError); !ok || len(cerr.Errors) != 2 {
		t.Error("Unexpected diagnostics:", err)
		return
	}

	if !strings.Contains(cerr.Error(), "2 error(s)") {
		t.Error("Unexpected error message:", cerr.Error())
		return
	}
}

func TestIsolateLoadAndCall(t *testing.T) {

	mod, err := Compile("mytest", `
func double(x) {
    return x * 2
}
func main() {
    return double(21)
}
`)
	if err != nil {
		t.Error(err)
		return
	}

	iso, err := Load(mod, "iso1", util.NewNullLogger())

	if err != nil {
		t.Error(err)
		return
	}

	if eps := iso.Entrypoints(); fmt.Sprint(eps) != "[double main]" {
		t.Error("Unexpected entrypoints:", eps)
		return
	}

	if res, err := iso.Call("main", nil); res != 42. || err != nil {
		t.Error("Unexpected result:", res, err)
		return
	}

	if res, err := iso.Call("double", []interface{}{3.}); res != 6. || err != nil {
		t.Error("Unexpected result:", res, err)
		return
	}

	if _, err := iso.Call("unknown", nil); err == nil ||
		err.Error() != "Isolate iso1 has no entrypoint unknown" {
		t.Error("Unexpected result:", err)
		return
	}
}

func TestIsolateIndependence(t *testing.T) {

	mod, err := Compile("mytest", `
counter := 0
func count() {
    counter := counter + 1
    return counter
}
`)
	if err != nil {
		t.Error(err)
		return
	}

	iso1, err1 := Load(mod, "iso1", nil)
	iso2, err2 := Load(mod, "iso2", nil)

	if err1 != nil || err2 != nil {
		t.Error(err1, err2)
		return
	}

	// Two isolates loading the same module are independent

	iso1.Call("count", nil)
	iso1.Call("count", nil)

	if res, _ := iso1.Call("count", nil); res != 3. {
		t.Error("Unexpected result:", res)
		return
	}

	if res, _ := iso2.Call("count", nil); res != 1. {
		t.Error("Unexpected result:", res)
		return
	}
}

func TestIsolateUnloadAndRelease(t *testing.T) {

	mod, err := Compile("mytest", `
func main() {
    return 1
}
`)
	if err != nil {
		t.Error(err)
		return
	}

	iso, err := Load(mod, "iso1", nil)

	if err != nil {
		t.Error(err)
		return
	}

	ref := iso.Ref()

	if ref.Dead() {
		t.Error("Reference should be alive")
		return
	}

	iso.Unload()

	// After the unload no new calls can reach the code

	if _, err := iso.Call("main", nil); err == nil ||
		err.Error() != "Isolate iso1 has been unloaded" {
		t.Error("Unexpected result:", err)
		return
	}

	// Unloading twice is fine

	iso.Unload()

	// The weak reference becomes dead within a bounded number of GC nudges

	if !iso.AwaitRelease(10) {
		t.Error("Isolate was not released")
		return
	}

	if !ref.Dead() {
		t.Error("Reference should be dead")
		return
	}
}

func TestLoadError(t *testing.T) {

	// A runtime error in the top-level statements fails the load

	mod := &Module{"mytest", `raise("Boom")`}

	_, err := Load(mod, "iso1", nil)

	if err == nil {
		t.Error("Load should fail")
		return
	}

	if _, ok := err.(*util.LoadError); !ok {
		t.Error("Unexpected error type:", err)
		return
	}

	if !strings.Contains(err.Error(), "Load error in isolate iso1") {
		t.Error("Unexpected error message:", err)
		return
	}
}
