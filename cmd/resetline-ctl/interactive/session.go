// Package interactive provides the interactive command loop for
// resetline-ctl.
package interactive

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/chzyer/readline"

	"github.com/resetline-protocol/resetline-go/pkg/control"
	"github.com/resetline-protocol/resetline-go/pkg/errno"
)

// commandNames are the commands the loop understands, used for "did
// you mean" suggestions.
var commandNames = []string{
	"help", "list", "reset", "assert", "deassert", "status", "version", "quit", "exit",
}

// Session handles an interactive session against one host.
type Session struct {
	client *control.Client
	rl     *readline.Instance
}

// New creates a session around an established client connection. The
// caller keeps ownership of the client.
func New(client *control.Client) (*Session, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "resetline> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	return &Session{client: client, rl: rl}, nil
}

// Run starts the interactive command loop. It returns when the user
// quits or input is closed.
func (s *Session) Run() {
	defer s.rl.Close()

	fmt.Fprintf(s.rl.Stdout(), "Connected, server version %s. Type 'help' for commands.\n",
		s.client.ServerVersion())

	for {
		line, err := s.rl.Readline()
		if err != nil {
			// EOF or interrupt
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(s.rl.Stdout(), "Exiting...")
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			s.printHelp()

		case "list", "ls", "l":
			s.cmdList()

		case "reset", "r":
			s.cmdLineOp("reset", args, s.client.Reset)

		case "assert", "a":
			s.cmdLineOp("assert", args, s.client.Assert)

		case "deassert", "d":
			s.cmdLineOp("deassert", args, s.client.Deassert)

		case "status", "s":
			s.cmdLineOp("status", args, s.client.Status)

		case "version", "v":
			fmt.Fprintf(s.rl.Stdout(), "server version %s\n", s.client.ServerVersion())

		case "quit", "exit", "q":
			fmt.Fprintln(s.rl.Stdout(), "Exiting...")
			return

		default:
			msg := fmt.Sprintf("Unknown command: %s", cmd)
			if hint := suggest(cmd, commandNames); hint != "" {
				msg += fmt.Sprintf(" (did you mean %q?)", hint)
			}
			fmt.Fprintln(s.rl.Stdout(), msg)
		}
	}
}

func (s *Session) printHelp() {
	fmt.Fprintln(s.rl.Stdout(), `
Reset-Line Commands:
  list                          - List controllers on this host
  reset <controller> <line>     - Pulse-reset a line
  assert <controller> <line>    - Assert (hold) a line
  deassert <controller> <line>  - Release a line
  status <controller> <line>    - Read a line's asserted state
  version                       - Show the server's protocol version
  help                          - Show this help
  quit                          - Exit`)
}

// cmdList prints the host's controller table.
func (s *Session) cmdList() {
	controllers, err := s.client.List()
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
		return
	}
	PrintControllers(s.rl.Stdout(), controllers)
}

// cmdLineOp parses <controller> <line> arguments and invokes op. An
// unknown controller gets a nearest-name suggestion.
func (s *Session) cmdLineOp(opName string, args []string, op func(string, uint64) (int32, error)) {
	if len(args) < 2 {
		fmt.Fprintf(s.rl.Stdout(), "Usage: %s <controller> <line>\n", opName)
		return
	}

	controller := args[0]
	line, err := strconv.ParseUint(args[1], 10, 64)
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Invalid line number: %s\n", args[1])
		return
	}

	result, err := op(controller, line)
	if err != nil {
		var statusErr *control.StatusError
		if errors.As(err, &statusErr) && statusErr.Status == control.StatusUnknownController {
			fmt.Fprintf(s.rl.Stdout(), "Unknown controller: %s\n", controller)
			if hint := suggest(controller, s.controllerNames()); hint != "" {
				fmt.Fprintf(s.rl.Stdout(), "Did you mean %q?\n", hint)
			}
			return
		}
		fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
		return
	}

	fmt.Fprintln(s.rl.Stdout(), FormatResult(opName, result))
}

// controllerNames fetches the host's controller names for suggestions.
func (s *Session) controllerNames() []string {
	controllers, err := s.client.List()
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(controllers))
	for _, c := range controllers {
		names = append(names, c.Name)
	}
	sort.Strings(names)
	return names
}

// suggest returns the candidate closest to input if it is close enough
// to be a plausible typo, or "".
func suggest(input string, candidates []string) string {
	const maxDistance = 2

	best := ""
	bestDist := maxDistance + 1
	for _, c := range candidates {
		if d := levenshtein.ComputeDistance(input, c); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// FormatResult renders a dispatch result for display: status reads
// decode to asserted/deasserted, failures name the errno.
func FormatResult(op string, result int32) string {
	if result < 0 {
		if e, ok := errno.FromCode(result); ok {
			return fmt.Sprintf("failed: %s", e.Error())
		}
		return fmt.Sprintf("failed: code %d", result)
	}
	if op == "status" {
		if result != 0 {
			return "asserted"
		}
		return "deasserted"
	}
	if result > 0 {
		return fmt.Sprintf("ok (result %d)", result)
	}
	return "ok"
}

// PrintControllers writes a controller table to w.
func PrintControllers(w io.Writer, controllers []control.ControllerInfo) {
	if len(controllers) == 0 {
		fmt.Fprintln(w, "No controllers registered")
		return
	}

	fmt.Fprintf(w, "%-24s %-6s %-34s %s\n", "NAME", "LINES", "NODE", "CAPABILITIES")
	for _, c := range controllers {
		node := c.Node
		if node == "" {
			node = "-"
		}
		fmt.Fprintf(w, "%-24s %-6d %-34s %s\n", c.Name, c.Lines, node, strings.Join(c.Capabilities, ","))
	}
}
