// Command resetline-log inspects rlog capture files written by
// resetline-host (its -log flag). A capture is a CBOR event stream:
// controller registrations, per-line dispatches, raw control frames,
// lifecycle transitions, and errors, in arrival order.
//
// Usage:
//
//	resetline-log <command> [flags] <file.rlog>
//
// The view command prints events in human-readable form, export
// converts a capture to JSONL or CSV, filter writes the matching
// subset to a new capture, and stats summarizes what a capture holds:
//
//	resetline-log view -category dispatch bench.rlog
//	resetline-log export -format csv -o bench.csv bench.rlog
//	resetline-log filter -controller soc-reset -o soc.rlog bench.rlog
//	resetline-log stats bench.rlog
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/resetline-protocol/resetline-go/cmd/resetline-log/commands"
)

const usage = `resetline-log inspects rlog capture files.

Usage:
  resetline-log <command> [flags] <file.rlog>

Commands:
  view     print events in human-readable form
  export   convert a capture to JSONL or CSV
  filter   write the matching subset to a new capture
  stats    summarize a capture

Run "resetline-log <command> -help" for the flags of a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd, args := os.Args[1], os.Args[2:]

	var err error
	switch cmd {
	case "view":
		err = runView(args)
	case "export":
		err = runExport(args)
	case "filter":
		err = runFilter(args)
	case "stats":
		err = runStats(args)
	case "help", "-h", "-help", "--help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newFlagSet builds the flag set for one subcommand, with a usage text
// naming the command and its synopsis.
func newFlagSet(name, synopsis string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "resetline-log %s: %s\n\nUsage:\n  resetline-log %s [flags] <file.rlog>\n\nFlags:\n", name, synopsis, name)
		fs.PrintDefaults()
	}
	return fs
}

// capturePath returns the positional capture file argument.
func capturePath(fs *flag.FlagSet) (string, error) {
	if fs.NArg() != 1 {
		fs.Usage()
		return "", fmt.Errorf("one log file path required")
	}
	return fs.Arg(0), nil
}

func runView(args []string) error {
	fs := newFlagSet("view", "print events in human-readable form")
	category := fs.String("category", "", "only events in this category (registration, dispatch, frame, state, error)")
	controller := fs.String("controller", "", "only events touching this controller")
	op := fs.String("op", "", "only dispatches of this op (reset, assert, deassert, status)")
	connID := fs.String("conn-id", "", "only events from this connection")
	if err := fs.Parse(args); err != nil {
		return err
	}

	path, err := capturePath(fs)
	if err != nil {
		return err
	}

	filter := commands.ViewFilter{
		Controller: *controller,
		Op:         *op,
		ConnID:     *connID,
	}
	if *category != "" {
		c, err := commands.ParseCategoryFlag(*category)
		if err != nil {
			return err
		}
		filter.Category = &c
	}
	return commands.RunView(path, filter, os.Stdout)
}

func runExport(args []string) error {
	fs := newFlagSet("export", "convert a capture to JSONL or CSV")
	format := fs.String("format", "jsonl", "output format (jsonl, csv)")
	output := fs.String("o", "", "output file (default stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	path, err := capturePath(fs)
	if err != nil {
		return err
	}
	return commands.RunExport(path, *format, *output)
}

func runFilter(args []string) error {
	fs := newFlagSet("filter", "write the matching subset to a new capture")
	output := fs.String("o", "", "output capture file (required)")
	connID := fs.String("conn-id", "", "keep events from this connection")
	controller := fs.String("controller", "", "keep events touching this controller")
	op := fs.String("op", "", "keep dispatches of this op (reset, assert, deassert, status)")
	timeStart := fs.String("time-start", "", "keep events at or after this RFC3339 time")
	timeEnd := fs.String("time-end", "", "keep events before this RFC3339 time")
	category := fs.String("category", "", "keep events in this category (registration, dispatch, frame, state, error)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	path, err := capturePath(fs)
	if err != nil {
		return err
	}
	if *output == "" {
		fs.Usage()
		return fmt.Errorf("output file (-o) required")
	}

	return commands.RunFilter(path, commands.FilterOptions{
		Output:     *output,
		ConnID:     *connID,
		Controller: *controller,
		Op:         *op,
		TimeStart:  *timeStart,
		TimeEnd:    *timeEnd,
		Category:   *category,
	})
}

func runStats(args []string) error {
	fs := newFlagSet("stats", "summarize a capture")
	if err := fs.Parse(args); err != nil {
		return err
	}

	path, err := capturePath(fs)
	if err != nil {
		return err
	}
	return commands.RunStats(path, os.Stdout)
}
