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
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"os"

	"github.com/krotik/sdbg/interpreter"
	"github.com/krotik/sdbg/util"
	"gopkg.in/natefinch/lumberjack.v2"
)

/*
CLIRunner executes a script without debugging.
*/
type CLIRunner struct {

	// Parameter these can either be set programmatically or via CLI args

	LogFile  *string // Logfile (blank for stdout)
	LogLevel *string // Log level string (Debug, Info, Error)

	EntryFile string // Entry file for the program

	// Log output

	LogOut io.Writer
}

/*
NewCLIRunner creates a new commandline script runner.
*/
func NewCLIRunner() *CLIRunner {
	return &CLIRunner{nil, nil, "", os.Stdout}
}

/*
ParseArgs parses the command line arguments. Returns true if the program
should exit.
*/
func (r *CLIRunner) ParseArgs() bool {

	if r.LogFile != nil && r.LogLevel != nil {
		return false
	}

	r.LogFile = flag.String("logfile", "", "Log to a file (rotated)")
	r.LogLevel = flag.String("loglevel", "Info", "Logging level (Debug, Info, Error)")
	showHelp := flag.Bool("help", false, "Show this help message")

	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output())
		fmt.Fprintln(flag.CommandLine.Output(), fmt.Sprintf("Usage of %s run [options] [file]", osArgs[0]))
		fmt.Fprintln(flag.CommandLine.Output())
		flag.PrintDefaults()
		fmt.Fprintln(flag.CommandLine.Output())
	}

	if len(osArgs) >= 2 {
		flag.CommandLine.Parse(osArgs[2:])

		if cargs := flag.Args(); len(cargs) > 0 {
			r.EntryFile = flag.Arg(0)
		}

		if *showHelp {
			flag.Usage()
		}
	}

	return *showHelp
}

/*
Run executes the script given on the command line. If the script defines a
main function it is called after the top-level statements were executed.
*/
func (r *CLIRunner) Run() error {

	if r.ParseArgs() {
		return nil
	}

	if r.EntryFile == "" {
		return fmt.Errorf("Need a script file to run")
	}

	content, err := ioutil.ReadFile(r.EntryFile)

	if err != nil {
		return err
	}

	var logger util.Logger

	if r.LogFile != nil && *r.LogFile != "" {

		logger = util.NewBufferLogger(&lumberjack.Logger{
			Filename:   *r.LogFile,
			MaxSize:    1, // megabytes
			MaxBackups: 10,
		})

	} else {

		logger = util.NewStdOutLogger()
	}

	if r.LogLevel != nil && *r.LogLevel != "" {
		if logger, err = util.NewLogLevelLogger(logger, *r.LogLevel); err != nil {
			return err
		}
	}

	mod, err := interpreter.Compile(r.EntryFile, string(content))

	if err != nil {
		return err
	}

	iso, err := interpreter.Load(mod, fmt.Sprintf("run-%v", r.EntryFile), logger)

	if err != nil {
		return err
	}

	for _, ep := range iso.Entrypoints() {
		if ep == "main" {
			var res interface{}

			if res, err = iso.Call("main", nil); err == nil && res != nil {
				fmt.Fprintln(r.LogOut, fmt.Sprint(res))
			}
		}
	}

	return err
}
