package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	Info(ctx context.Context) error
	Pseudonymize(ctx context.Context) error
	Reidentify(ctx context.Context) error
	Exists(ctx context.Context) error
	Delete(ctx context.Context) error
}

// runREPL starts a simple read-eval-print loop for the PIMS CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Commands:
//
//   - help                 — show available commands
//   - info                 — show keyfile details
//   - p | pseudonymize     — translate identifiers into pseudonyms
//   - r | reidentify       — translate pseudonyms back into identifiers
//   - exists               — check which values the keyfile knows
//   - delete               — remove identifiers from the keyfile
//   - exit | quit          — leave the program
//
// Any errors returned by command handlers are printed and the loop keeps
// going; a typo in one batch should not end the session.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("pims %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		var err error
		switch cmd {
		case "help":
			printlnFn("Available commands: info, (p)seudonymize, (r)eidentify, exists, delete, exit")

		case "info":
			err = a.Info(ctx)

		case "p", "pseudonymize":
			err = a.Pseudonymize(ctx)

		case "r", "reidentify":
			err = a.Reidentify(ctx)

		case "exists":
			err = a.Exists(ctx)

		case "delete":
			err = a.Delete(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("Error:", err.Error())
		}
	}
}
