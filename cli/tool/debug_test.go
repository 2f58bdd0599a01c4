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
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/krotik/sdbg/interpreter"
)

/*
testTerm is a terminal which collects all output.
*/
type testTerm struct {
	buf bytes.Buffer
}

func (tt *testTerm) WriteString(s string) {
	tt.buf.WriteString(s)
}

/*
newTestDebugger creates a prepared debugger session for a given script.
*/
func newTestDebugger(t *testing.T, script string) (*CLIDebugger, *testTerm) {
	tmpDir, err := ioutil.TempDir("", "sdbgtest")

	if err != nil {
		t.Fatal(err)
	}

	scriptFile := filepath.Join(tmpDir, "test.script")

	if err := ioutil.WriteFile(scriptFile, []byte(script), 0660); err != nil {
		t.Fatal(err)
	}

	logFile := ""
	logLevel := "Error"

	d := NewCLIDebugger()
	d.LogFile = &logFile
	d.LogLevel = &logLevel
	d.EntryFile = scriptFile
	d.LogOut = &bytes.Buffer{}

	if err := d.createLogger(); err != nil {
		t.Fatal(err)
	}

	if err := d.prepare(); err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() {
		interpreter.SetDebugHost(nil)
		os.RemoveAll(tmpDir)
	})

	return d, &testTerm{}
}

func TestCLIDebuggerSession(t *testing.T) {

	d, term := newTestDebugger(t, `func main() {
    a := 20
    b := a + 1
}`)

	// Inspect the checkpoint map

	d.HandleInput(term, "map")

	if !strings.Contains(term.buf.String(), "test.script 2 5") {
		t.Error("Unexpected output:", term.buf.String())
		return
	}

	// Set a breakpoint by line and run the script

	d.HandleInput(term, "bp addline test.script:3")
	d.HandleInput(term, "bp list")

	if !strings.Contains(term.buf.String(), "2") {
		t.Error("Unexpected output:", term.buf.String())
		return
	}

	d.HandleInput(term, "run")

	// Wait for the script thread to pause

	var paused bool

	for n := 0; n < 100; n++ {
		if d.latestPause() != nil {
			paused = true
			break
		}
		time.Sleep(30 * time.Millisecond)
	}

	if !paused {
		t.Error("Script did not pause")
		return
	}

	// Evaluate an expression against the paused frame

	term.buf.Reset()
	d.HandleInput(term, "e a * 2")

	if !strings.Contains(term.buf.String(), "40") {
		t.Error("Unexpected output:", term.buf.String())
		return
	}

	// Continue and wait for the script to finish

	d.HandleInput(term, "c")

	select {
	case err := <-d.scriptDone:
		if err != nil {
			t.Error("Script error:", err)
		}
	case <-time.After(3 * time.Second):
		t.Error("Timeout waiting for the script to finish")
	}
}

func TestCLIDebuggerCommandErrors(t *testing.T) {

	d, term := newTestDebugger(t, `func main() {
    a := 1
}`)

	d.HandleInput(term, "wibble")

	if !strings.Contains(term.buf.String(), "Unknown command: wibble") {
		t.Error("Unexpected output:", term.buf.String())
		return
	}

	term.buf.Reset()
	d.HandleInput(term, "bp")

	if !strings.Contains(term.buf.String(), "Need a subcommand") {
		t.Error("Unexpected output:", term.buf.String())
		return
	}

	term.buf.Reset()
	d.HandleInput(term, "c")

	if !strings.Contains(term.buf.String(), "No thread is paused") {
		t.Error("Unexpected output:", term.buf.String())
		return
	}

	term.buf.Reset()
	d.HandleInput(term, "e a")

	if !strings.Contains(term.buf.String(), "No thread is paused") {
		t.Error("Unexpected output:", term.buf.String())
		return
	}

	term.buf.Reset()
	d.HandleInput(term, "?")

	if !strings.Contains(term.buf.String(), "SDBG") {
		t.Error("Unexpected output:", term.buf.String())
		return
	}
}
