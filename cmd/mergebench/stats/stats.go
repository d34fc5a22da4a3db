package stats

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/vexsearch/mergebench/internal/bench"
)

func Run(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	run := fs.String("run", "", "Only count invocations of this scenario label")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: mergebench stats [--run label] <log file>")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(1)
	}
	if err := Execute(fs.Arg(0), *run, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse log: %v\n", err)
		os.Exit(1)
	}
}

// Execute summarizes the policy lines of the log at path as indented JSON.
func Execute(path, run string, out io.Writer) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("invalid log file: %q", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	s, err := bench.ParsePolicyStats(f, run)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}
