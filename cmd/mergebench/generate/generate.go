package generate

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/vexsearch/mergebench/internal/people"
)

func Run(args []string) {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	count := fs.Int("count", 10000, "Number of people to generate")
	seed := fs.Uint64("seed", 1, "Random seed")
	out := fs.String("out", "", "Output file (default: stdout)")
	fs.Parse(args)

	if err := Execute(*out, *count, *seed, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to generate data: %v\n", err)
		os.Exit(1)
	}
}

// Execute writes count generated people to path, or to stdout when path is
// empty.
func Execute(path string, count int, seed uint64, stdout io.Writer) error {
	if count < 0 {
		return fmt.Errorf("count must not be negative, got %d", count)
	}
	if path == "" {
		return write(stdout, count, seed)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f, count, seed); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func write(w io.Writer, count int, seed uint64) error {
	bw := bufio.NewWriter(w)
	if err := people.Encode(bw, people.Generate(count, seed)); err != nil {
		return err
	}
	return bw.Flush()
}
