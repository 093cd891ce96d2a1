// Command resetline-ctl operates reset controllers served by a
// resetline-host.
//
// One-shot commands connect, perform a single operation and exit, so
// they compose with shell scripts. The repl command keeps one session
// open for interactive bench work, and discover finds hosts on the
// local network via mDNS.
//
// Usage:
//
//	resetline-ctl <command> [flags] [arguments]
//
// Commands:
//
//	list       List the controllers on a host
//	reset      Pulse-reset a line
//	assert     Assert (hold) a line
//	deassert   Release a line
//	status     Read a line's asserted state
//	discover   Find hosts on the local network via mDNS
//	repl       Interactive session
//
// Examples:
//
//	# List controllers on the local host
//	resetline-ctl list
//
//	# Pulse-reset line 2 of the SoC controller on a bench host
//	resetline-ctl reset -addr bench-1.local:4750 soc-reset 2
//
//	# Hold a line low on an authenticated host
//	resetline-ctl assert -psk lab-secret soc-reset 0
//
//	# Find bench hosts
//	resetline-ctl discover -timeout 3s
//
//	# Work interactively
//	resetline-ctl repl -addr bench-1.local:4750
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/resetline-protocol/resetline-go/cmd/resetline-ctl/interactive"
	"github.com/resetline-protocol/resetline-go/pkg/control"
	"github.com/resetline-protocol/resetline-go/pkg/discovery"
)

const usage = `resetline-ctl - Reset-Line Control Client

Usage:
  resetline-ctl <command> [flags] [arguments]

Commands:
  list       List the controllers on a host
  reset      Pulse-reset a line
  assert     Assert (hold) a line
  deassert   Release a line
  status     Read a line's asserted state
  discover   Find hosts on the local network via mDNS
  repl       Interactive session

Use "resetline-ctl <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "list":
		runList(args)
	case "reset":
		runLineOp("reset", args, (*control.Client).Reset)
	case "assert":
		runLineOp("assert", args, (*control.Client).Assert)
	case "deassert":
		runLineOp("deassert", args, (*control.Client).Deassert)
	case "status":
		runLineOp("status", args, (*control.Client).Status)
	case "discover":
		runDiscover(args)
	case "repl":
		runRepl(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

// connFlags registers the connection flags shared by every command
// that talks to a host.
func connFlags(fs *flag.FlagSet) (addr, psk *string, timeout *time.Duration) {
	addr = fs.String("addr", fmt.Sprintf("localhost:%d", control.DefaultPort), "Host address")
	psk = fs.String("psk", "", "Pre-shared key for session authentication")
	timeout = fs.Duration("timeout", control.DefaultRequestTimeout, "Request timeout")
	return addr, psk, timeout
}

// dial connects to the host or exits with an error.
func dial(addr, psk string, timeout time.Duration) *control.Client {
	config := control.ClientConfig{Timeout: timeout}
	if psk != "" {
		config.PSK = []byte(psk)
	}

	client, err := control.Dial(addr, config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: connecting to %s: %v\n", addr, err)
		os.Exit(1)
	}
	return client
}

func runList(args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `resetline-ctl list - List the controllers on a host

Usage:
  resetline-ctl list [flags]

Flags:
`)
		fs.PrintDefaults()
	}

	addr, psk, timeout := connFlags(fs)

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	client := dial(*addr, *psk, *timeout)
	defer client.Close()

	controllers, err := client.List()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	interactive.PrintControllers(os.Stdout, controllers)
}

// runLineOp handles the four per-line commands, which share their
// argument shape: <controller> <line>.
func runLineOp(name string, args []string, op func(*control.Client, string, uint64) (int32, error)) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `resetline-ctl %s - %s a line

Usage:
  resetline-ctl %s [flags] <controller> <line>

Flags:
`, name, name, name)
		fs.PrintDefaults()
	}

	addr, psk, timeout := connFlags(fs)

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Error: controller name and line number required")
		fs.Usage()
		os.Exit(1)
	}

	controller := fs.Arg(0)
	line, err := strconv.ParseUint(fs.Arg(1), 10, 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid line number %q\n", fs.Arg(1))
		os.Exit(1)
	}

	client := dial(*addr, *psk, *timeout)
	defer client.Close()

	result, err := op(client, controller, line)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(interactive.FormatResult(name, result))
	if result < 0 {
		os.Exit(1)
	}
}

func runDiscover(args []string) {
	fs := flag.NewFlagSet("discover", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `resetline-ctl discover - Find hosts on the local network via mDNS

Usage:
  resetline-ctl discover [flags]

Flags:
`)
		fs.PrintDefaults()
	}

	timeout := fs.Duration("timeout", 5*time.Second, "How long to browse")
	iface := fs.String("interface", "", "Network interface to browse on")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	browserConfig := discovery.DefaultBrowserConfig()
	browserConfig.Interface = *iface

	browser, err := discovery.NewMDNSBrowser(browserConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer browser.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	hosts, err := browser.BrowseHosts(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	found := 0
	for host := range hosts {
		if found == 0 {
			fmt.Printf("%-20s %-24s %-16s %-12s %s\n",
				"HOST", "ADDRESS", "BOARD", "CONTROLLERS", "VERSION")
		}
		fmt.Printf("%-20s %-24s %-16s %-12d %s\n",
			host.InstanceName, host.Addr(), host.Board, host.Controllers, host.Version)
		found++
	}

	if found == 0 {
		fmt.Println("No hosts found")
	}
}

func runRepl(args []string) {
	fs := flag.NewFlagSet("repl", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `resetline-ctl repl - Interactive session against one host

Usage:
  resetline-ctl repl [flags]

Flags:
`)
		fs.PrintDefaults()
	}

	addr, psk, timeout := connFlags(fs)

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	client := dial(*addr, *psk, *timeout)
	defer client.Close()

	session, err := interactive.New(client)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	session.Run()
}
