package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// command is a REPL handler; args are the words after the command name.
type command func(ctx context.Context, args []string) error

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context, args []string) error
	Verify(ctx context.Context, args []string) error
	Resend(ctx context.Context, args []string) error
	Login(ctx context.Context, args []string) error
	Logout(ctx context.Context, args []string) error
	WhoAmI(ctx context.Context, args []string) error
	Forgot(ctx context.Context, args []string) error
	Reset(ctx context.Context, args []string) error
	Cart(ctx context.Context, args []string) error
	Add(ctx context.Context, args []string) error
	Inc(ctx context.Context, args []string) error
	Dec(ctx context.Context, args []string) error
	Remove(ctx context.Context, args []string) error
	Clear(ctx context.Context, args []string) error
}

func commands(a execIface) map[string]command {
	return map[string]command{
		"register": a.Register,
		"verify":   a.Verify,
		"resend":   a.Resend,
		"login":    a.Login,
		"logout":   a.Logout,
		"whoami":   a.WhoAmI,
		"forgot":   a.Forgot,
		"reset":    a.Reset,
		"cart":     a.Cart,
		"add":      a.Add,
		"inc":      a.Inc,
		"dec":      a.Dec,
		"rm":       a.Remove,
		"clear":    a.Clear,
	}
}

// runREPL starts a simple read-eval-print loop for the gophshop CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command and the rest as its arguments, and dispatches to methods on 'a'.
// Unknown commands are reported back to the user. The loop exits on scanner
// EOF or when the user types "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Not logged in:
//	  - register            - create an account
//	  - verify [code]       - enter the emailed code
//	  - resend              - request a new code once the countdown ends
//	  - login               - authenticate
//	  - forgot [email]      - start a password reset
//	  - reset               - set a new password after 'verify'
//
//	Logged in:
//	  - whoami              - show the current user
//	  - cart                - show the cart
//	  - add <product> [n]   - add a product
//	  - inc|dec <id>        - change an item's quantity by one
//	  - rm <id>             - remove an item
//	  - clear               - empty the cart
//	  - logout              - log out
//
//	Always: help, exit | quit
//
// Handler errors are printed and the loop carries on.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	handlers := commands(a)

	for {
		printlnFn(fmt.Sprintf("gs %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: whoami, cart, add, inc, dec, rm, clear, logout, exit")
			} else {
				printlnFn("Available commands: register, verify, resend, login, forgot, reset, exit")
			}
			continue

		case "exit", "quit":
			printlnFn("Bye!")
			return
		}

		h, ok := handlers[cmd]
		if !ok {
			printlnFn("Unknown command:", cmd)
			continue
		}
		if err := h(ctx, args); err != nil {
			printlnFn("Error:", err)
		}
	}
}
