package scenarios

import (
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/vexsearch/mergebench/internal/bench"
)

func Run(args []string) {
	fs := flag.NewFlagSet("scenarios", flag.ExitOnError)
	target := fs.Uint("target", bench.DefaultTargetDocs, "Target docs per segment for the target_docs scenarios")
	fs.Parse(args)

	if err := Print(os.Stdout, uint32(*target)); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to list scenarios: %v\n", err)
		os.Exit(1)
	}
}

// Print writes the scenario table.
func Print(w io.Writer, target uint32) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LABEL\tCADENCE\tPOLICY\tTARGET\tWAIT")
	for _, sc := range bench.Scenarios(target) {
		t := "-"
		if sc.Target > 0 {
			t = fmt.Sprint(sc.Target)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\n", sc.Label, sc.Cadence, sc.Policy, t, sc.WaitForMerges)
	}
	return tw.Flush()
}
