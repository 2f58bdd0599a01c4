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
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/krotik/common/termutil"
	"github.com/krotik/sdbg/config"
	"github.com/krotik/sdbg/debugger"
	"github.com/krotik/sdbg/interpreter"
	"github.com/krotik/sdbg/parser"
	"github.com/krotik/sdbg/rewriter"
	"github.com/krotik/sdbg/util"
	"gopkg.in/natefinch/lumberjack.v2"
)

/*
CLIDebugger is the interactive commandline debugger of SDBG.
*/
type CLIDebugger struct {

	// Parameter these can either be set programmatically or via CLI args

	LogFile  *string // Logfile (blank for stdout)
	LogLevel *string // Log level string (Debug, Info, Error)

	EntryFile string // Entry file for the program

	// User terminal

	Term termutil.ConsoleLineTerminal

	// Log output

	LogOut io.Writer

	engine  util.Debugger        // Debugger engine
	isolate *interpreter.Isolate // Isolate of the instrumented script
	logger  util.Logger          // Logger of the debug session

	pauses    []*util.PauseEvent // Pauses which have not been resumed yet
	pauseLock *sync.Mutex        // Lock for the pause list

	scriptDone chan error // Termination signal of the running script
}

/*
NewCLIDebugger creates a new commandline debugger.
*/
func NewCLIDebugger() *CLIDebugger {
	return &CLIDebugger{nil, nil, "", nil, os.Stdout, nil, nil, nil,
		nil, &sync.Mutex{}, nil}
}

/*
ParseArgs parses the command line arguments. Returns true if the program
should exit.
*/
func (d *CLIDebugger) ParseArgs() bool {

	if d.LogFile != nil && d.LogLevel != nil {
		return false
	}

	d.LogFile = flag.String("logfile", "", "Log to a file (rotated)")
	d.LogLevel = flag.String("loglevel", "Info", "Logging level (Debug, Info, Error)")
	showHelp := flag.Bool("help", false, "Show this help message")

	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output())
		fmt.Fprintln(flag.CommandLine.Output(), fmt.Sprintf("Usage of %s debug [options] [file]", osArgs[0]))
		fmt.Fprintln(flag.CommandLine.Output())
		flag.PrintDefaults()
		fmt.Fprintln(flag.CommandLine.Output())
	}

	if len(osArgs) >= 2 {
		flag.CommandLine.Parse(osArgs[2:])

		if cargs := flag.Args(); len(cargs) > 0 {
			d.EntryFile = flag.Arg(0)
		}

		if *showHelp {
			flag.Usage()
		}
	}

	return *showHelp
}

/*
createLogger creates the logger of the debug session.
*/
func (d *CLIDebugger) createLogger() error {
	var logger util.Logger
	var err error

	if d.LogFile != nil && *d.LogFile != "" {

		// Log files are rotated once they grow beyond a megabyte

		logger = util.NewBufferLogger(&lumberjack.Logger{
			Filename:   *d.LogFile,
			MaxSize:    1, // megabytes
			MaxBackups: 10,
		})

	} else {

		logger = util.NewStdOutLogger()
	}

	if d.LogLevel != nil && *d.LogLevel != "" {
		logger, err = util.NewLogLevelLogger(logger, *d.LogLevel)
	}

	d.logger = logger

	return err
}

/*
CreateTerm creates a new console terminal for stdout.
*/
func (d *CLIDebugger) CreateTerm() error {
	var err error

	if d.Term == nil {
		d.Term, err = termutil.NewConsoleLineTerminal(os.Stdout)
	}

	return err
}

/*
Debug runs a script under the control of the interactive debugger.
*/
func (d *CLIDebugger) Debug() error {

	if d.ParseArgs() {
		return nil
	}

	if d.EntryFile == "" {
		return fmt.Errorf("Need a script file to debug")
	}

	err := d.createLogger()

	if err == nil {
		err = d.CreateTerm()
	}

	if err == nil {
		fmt.Fprintln(d.LogOut, fmt.Sprintf("SDBG %v - Source-level script debugger", config.ProductVersion))

		if err = d.prepare(); err == nil {
			err = d.console()
		}
	}

	return err
}

/*
prepare instruments and loads the script and wires up the debugger engine.
*/
func (d *CLIDebugger) prepare() error {
	content, err := ioutil.ReadFile(d.EntryFile)

	if err != nil {
		return err
	}

	ast, err := parser.Parse(d.EntryFile, string(content))

	if err != nil {
		return err
	}

	res, err := rewriter.Rewrite(d.EntryFile, ast)

	if err != nil {
		return err
	}

	// Compile the instrumented source and load it into an isolate

	mod, err := interpreter.Compile(d.EntryFile, res.Source)

	if err != nil {
		return err
	}

	iso, err := interpreter.Load(mod, fmt.Sprintf("debug-%v", d.EntryFile), d.logger)

	if err != nil {
		return err
	}

	engine := debugger.NewScriptDebugger(d.logger)
	engine.RegisterMaps(res.Checkpoints, res.Methods)

	interpreter.SetDebugHost(engine)

	d.engine = engine
	d.isolate = iso

	// Pause events are delivered through a queue consumed by a single
	// watcher - the console is never blocked by a pausing script thread

	go d.watchPauses()

	fmt.Fprintln(d.LogOut, fmt.Sprintf("Instrumented %v checkpoints in %v methods",
		len(res.Checkpoints), len(res.Methods)))

	return nil
}

/*
watchPauses consumes the pause events of the engine.
*/
func (d *CLIDebugger) watchPauses() {

	for ev := range d.engine.Events() {
		d.pauseLock.Lock()
		d.pauses = append(d.pauses, ev)
		d.pauseLock.Unlock()

		d.printPause(ev)
	}
}

/*
printPause prints a pause notification.
*/
func (d *CLIDebugger) printPause(ev *util.PauseEvent) {
	pos := ""

	if cp, ok := d.engine.Checkpoints()[ev.Frame.CheckpointID]; ok {
		pos = fmt.Sprintf(" (%v:%v)", cp.Source, cp.Line)
	}

	color.New(color.FgYellow).Fprintln(d.LogOut, fmt.Sprintf(
		"Thread %v paused [pause %v] at checkpoint #%v in %v%v",
		ev.ThreadID, ev.PauseID, ev.Frame.CheckpointID, ev.Frame.Method, pos))

	for _, l := range ev.Frame.Locals {
		color.New(color.FgCyan).Fprintln(d.LogOut, fmt.Sprintf("    %v = %v", l.Name, l.Value))
	}

	if ev.Frame.Diagnostic != "" {
		color.New(color.FgRed).Fprintln(d.LogOut, fmt.Sprintf("    locals error: %v", ev.Frame.Diagnostic))
	}
}

/*
latestPause returns the most recent pause which has not been resumed yet.
*/
func (d *CLIDebugger) latestPause() *util.PauseEvent {
	d.pauseLock.Lock()
	defer d.pauseLock.Unlock()

	if len(d.pauses) == 0 {
		return nil
	}

	return d.pauses[len(d.pauses)-1]
}

/*
removePause removes a pause from the pending list.
*/
func (d *CLIDebugger) removePause(pauseID uint64) {
	d.pauseLock.Lock()
	defer d.pauseLock.Unlock()

	for i, ev := range d.pauses {
		if ev.PauseID == pauseID {
			d.pauses = append(d.pauses[:i], d.pauses[i+1:]...)
			break
		}
	}
}

/*
console runs the interactive command loop.
*/
func (d *CLIDebugger) console() error {
	var err error

	d.Term, err = termutil.AddHistoryMixin(d.Term, "",
		func(s string) bool {
			return d.isExitLine(s)
		})

	if err == nil {

		if err = d.Term.StartTerm(); err == nil {
			var line string

			defer d.Term.StopTerm()

			fmt.Fprintln(d.LogOut, "Type 'q' or 'quit' to exit the debugger and '?' to get help")

			line, err = d.Term.NextLine()
			for err == nil && !d.isExitLine(line) {

				d.HandleInput(d.Term, strings.TrimSpace(line))

				line, err = d.Term.NextLine()
			}
		}
	}

	return err
}

/*
isExitLine returns if a given input line should exit the debugger.
*/
func (d *CLIDebugger) isExitLine(s string) bool {
	return s == "exit" || s == "q" || s == "quit" || s == "bye" || s == "\x04"
}

/*
HandleInput handles a single debugger console command.
*/
func (d *CLIDebugger) HandleInput(ot OutputTerminal, line string) {
	args := strings.Fields(line)

	if len(args) == 0 {
		return
	}

	cmd := args[0]
	args = args[1:]

	switch cmd {

	case "?":
		d.printHelp(ot)

	case "map":
		d.runEngineCommand(ot, "map", args)

	case "mapline":
		d.runEngineCommand(ot, "mapline", args)

	case "bp":
		d.handleBreakpointCommand(ot, args)

	case "b":
		d.runEngineCommand(ot, "break", args)

	case "run":
		d.runScript(ot)

	case "c":
		d.resume(ot, util.Resume, args)

	case "i":
		d.resume(ot, util.StepIn, args)

	case "o":
		d.resume(ot, util.StepOver, args)

	case "u":
		d.resume(ot, util.StepOut, args)

	case "e":
		d.evaluate(ot, args)

	case "status":
		d.runEngineCommand(ot, "status", args)

	case "describe":
		d.runEngineCommand(ot, "describe", args)

	default:
		ot.WriteString(fmt.Sprintln(fmt.Sprintf("Unknown command: %v", cmd)))
	}
}

/*
handleBreakpointCommand handles the bp subcommands.
*/
func (d *CLIDebugger) handleBreakpointCommand(ot OutputTerminal, args []string) {

	if len(args) == 0 {
		ot.WriteString(fmt.Sprintln("Need a subcommand: add, addline, rm or list"))
		return
	}

	switch args[0] {

	case "add":
		d.runEngineCommand(ot, "break", args[1:])

	case "addline":
		d.runEngineCommand(ot, "breakline", args[1:])

	case "rm":
		d.runEngineCommand(ot, "rmbreak", args[1:])

	case "list":
		d.runEngineCommand(ot, "breaklist", args[1:])

	default:
		ot.WriteString(fmt.Sprintln(fmt.Sprintf("Unknown bp subcommand: %v", args[0])))
	}
}

/*
runEngineCommand runs a debug command of the engine and prints its result.
*/
func (d *CLIDebugger) runEngineCommand(ot OutputTerminal, cmd string, args []string) {
	res, err := d.engine.HandleInput(strings.TrimSpace(
		fmt.Sprintf("%v %v", cmd, strings.Join(args, " "))))

	if err != nil {
		color.New(color.FgRed).Fprintln(d.LogOut, fmt.Sprintf("Error: %v", err))
		return
	}

	if res != nil {
		if s, ok := res.(string); ok {
			ot.WriteString(s)
		} else {
			outBytes, merr := json.MarshalIndent(res, "", "  ")
			if merr == nil {
				ot.WriteString(fmt.Sprintln(string(outBytes)))
			} else {
				ot.WriteString(fmt.Sprintln(fmt.Sprint(res)))
			}
		}
	}
}

/*
runScript starts the instrumented script on a new thread.
*/
func (d *CLIDebugger) runScript(ot OutputTerminal) {

	if d.scriptDone != nil {
		select {
		case <-d.scriptDone:
			// The previous run has finished
		default:
			ot.WriteString(fmt.Sprintln("Script is already running"))
			return
		}
	}

	d.scriptDone = make(chan error, 1)

	go func() {
		_, err := d.isolate.Call("main", nil)

		if err != nil {
			color.New(color.FgRed).Fprintln(d.LogOut, fmt.Sprintf("Script error: %v", err))
		} else {
			color.New(color.FgGreen).Fprintln(d.LogOut, "Script finished")
		}

		d.scriptDone <- err
	}()

	ot.WriteString(fmt.Sprintln("Running main ..."))
}

/*
resume resumes a paused thread. Without an explicit pause id the most recent
pause is resumed.
*/
func (d *CLIDebugger) resume(ot OutputTerminal, contType util.ContType, args []string) {
	var pauseID uint64

	if len(args) > 0 {
		fmt.Sscanf(args[0], "%d", &pauseID)
	} else if ev := d.latestPause(); ev != nil {
		pauseID = ev.PauseID
	} else {
		ot.WriteString(fmt.Sprintln("No thread is paused"))
		return
	}

	d.removePause(pauseID)
	d.engine.Continue(pauseID, contType)
}

/*
evaluate evaluates an expression against the most recent pause.
*/
func (d *CLIDebugger) evaluate(ot OutputTerminal, args []string) {

	if len(args) == 0 {
		ot.WriteString(fmt.Sprintln("Need an expression"))
		return
	}

	ev := d.latestPause()

	if ev == nil {
		ot.WriteString(fmt.Sprintln("No thread is paused"))
		return
	}

	res, err := d.engine.Evaluate(ev.PauseID, strings.Join(args, " "))

	if err != nil {
		color.New(color.FgRed).Fprintln(d.LogOut, fmt.Sprintf("Error: %v", err))
		return
	}

	ot.WriteString(fmt.Sprintln(fmt.Sprint(res)))
}

/*
printHelp prints the debugger help.
*/
func (d *CLIDebugger) printHelp(ot OutputTerminal) {
	ot.WriteString(fmt.Sprintf("SDBG %v\n", config.ProductVersion))
	ot.WriteString(fmt.Sprint("\n"))
	ot.WriteString(fmt.Sprint("Commands before and during a run:\n"))
	ot.WriteString(fmt.Sprint("\n"))
	ot.WriteString(fmt.Sprint("    map - Show all checkpoints with their source positions\n"))
	ot.WriteString(fmt.Sprint("    mapline <file>:<line> - Resolve a source line to the nearest checkpoint\n"))
	ot.WriteString(fmt.Sprint("    bp add <id> - Add a breakpoint\n"))
	ot.WriteString(fmt.Sprint("    bp addline <file>:<line> - Add a breakpoint by source line\n"))
	ot.WriteString(fmt.Sprint("    bp rm <id> - Remove a breakpoint\n"))
	ot.WriteString(fmt.Sprint("    bp list - List all breakpoints\n"))
	ot.WriteString(fmt.Sprint("    run - Start the script\n"))
	ot.WriteString(fmt.Sprint("    status - Show breakpoints and threads\n"))
	ot.WriteString(fmt.Sprint("    describe <tid> - Describe a thread\n"))
	ot.WriteString(fmt.Sprint("    q - Quit\n"))
	ot.WriteString(fmt.Sprint("\n"))
	ot.WriteString(fmt.Sprint("Commands on a paused frame:\n"))
	ot.WriteString(fmt.Sprint("\n"))
	ot.WriteString(fmt.Sprint("    c [pause] - Continue\n"))
	ot.WriteString(fmt.Sprint("    i [pause] - Step into\n"))
	ot.WriteString(fmt.Sprint("    o [pause] - Step over\n"))
	ot.WriteString(fmt.Sprint("    u [pause] - Step out\n"))
	ot.WriteString(fmt.Sprint("    e <expr> - Evaluate an expression against the paused frame\n"))
	ot.WriteString(fmt.Sprint("    b <id> - Add a breakpoint\n"))
}
