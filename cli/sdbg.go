/*
 * SDBG - Source-level script debugger
 *
 * Copyright 2020 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the MIT
 * License, If a copy of the MIT License was not distributed with this
 * file, You can obtain one at https://opensource.org/licenses/MIT.
 */

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/krotik/sdbg/cli/tool"
	"github.com/krotik/sdbg/config"
)

func main() {

	// Initialize the default command line parser

	flag.CommandLine.Init(os.Args[0], flag.ContinueOnError)

	// Define default usage message

	flag.Usage = func() {

		// Print usage for tool selection

		fmt.Println(fmt.Sprintf("Usage of %s <tool>", os.Args[0]))
		fmt.Println()
		fmt.Println(fmt.Sprintf("SDBG %v - Source-level script debugger", config.ProductVersion))
		fmt.Println()
		fmt.Println("Available commands:")
		fmt.Println()
		fmt.Println("    debug     Run a script in the interactive debugger (default)")
		fmt.Println("    run       Execute a script")
		fmt.Println("    sandbox   Evaluate an expression module from standard input")
		fmt.Println()
		fmt.Println(fmt.Sprintf("Use %s <command> -help for more information about a given command.", os.Args[0]))
		fmt.Println()
	}

	// Parse the command bit

	if err := flag.CommandLine.Parse(os.Args[1:]); err == nil {

		if len(flag.Args()) > 0 {

			arg := flag.Args()[0]

			if arg == "debug" {
				err = tool.NewCLIDebugger().Debug()
			} else if arg == "run" {
				err = tool.NewCLIRunner().Run()
			} else if arg == "sandbox" {
				tool.RunSandbox()
			} else {
				flag.Usage()
			}

		} else {

			err = tool.NewCLIDebugger().Debug()
		}

		if err != nil {
			fmt.Println(fmt.Sprintf("Error: %v", err))
		}
	}
}
