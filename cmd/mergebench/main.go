package main

import (
	"fmt"
	"os"

	"github.com/vexsearch/mergebench/cmd/mergebench/generate"
	"github.com/vexsearch/mergebench/cmd/mergebench/run"
	"github.com/vexsearch/mergebench/cmd/mergebench/scenarios"
	"github.com/vexsearch/mergebench/cmd/mergebench/stats"
	"github.com/vexsearch/mergebench/cmd/mergebench/version"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		run.Run(os.Args[2:])
	case "scenarios":
		scenarios.Run(os.Args[2:])
	case "generate":
		generate.Run(os.Args[2:])
	case "stats":
		stats.Run(os.Args[2:])
	case "version":
		version.Run()
	case "-h", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`mergebench - Segment merge policy benchmark

Usage:
  mergebench <command> [options]

Commands:
  run         Index the people dataset under each scenario and print results
  scenarios   List the benchmark scenarios
  generate    Write a synthetic people dataset
  stats       Summarize merge policy invocations from a log file
  version     Print version information
  help        Show this help message

Run 'mergebench <command> --help' for more information on a command.`)
}
