package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for REPL output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	List(ctx context.Context) error
	New(ctx context.Context, title string) error
	Use(ctx context.Context, id string) error
	Show(ctx context.Context) error
	Stats(ctx context.Context) error
	Delete(ctx context.Context, id string) error
	Ask(ctx context.Context, message string) error
	Compose(ctx context.Context) error
	Export(ctx context.Context, format, path string) error
	Archive(ctx context.Context, format string) error
}

const (
	helpLoggedOut = "Available commands: register, login, exit"
	helpLoggedIn  = "Available commands: (l)ist, new [title], use <id>, show, stats, ask <text>, compose, " +
		"delete [id], export [json|markdown|csv] [file], archive [format], logout, exit"
)

// runREPL reads commands from reader until EOF or exit/quit. Command errors
// are reported by the handlers themselves.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("gc %s> ", statusFn()))

		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return
		}

		cmd, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
		rest = strings.TrimSpace(rest)
		args := strings.Fields(rest)
		first := ""
		if len(args) > 0 {
			first = args[0]
		}

		if cmd == "" {
			continue
		}

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpLoggedIn)
			} else {
				printlnFn(helpLoggedOut)
			}
			continue
		case "exit", "quit":
			printlnFn("Bye!")
			return
		case "register":
			_ = a.Register(ctx)
			continue
		case "login":
			_ = a.Login(ctx)
			continue
		}

		if !a.isLoggedIn() {
			printlnFn("Please login or register first")
			continue
		}

		switch cmd {
		case "l", "list":
			_ = a.List(ctx)
		case "new":
			_ = a.New(ctx, rest)
		case "use":
			if len(args) == 0 {
				printlnFn("Usage: use <id>")
				continue
			}
			_ = a.Use(ctx, args[0])
		case "show":
			_ = a.Show(ctx)
		case "stats":
			_ = a.Stats(ctx)
		case "ask":
			if rest == "" {
				printlnFn("Usage: ask <text>")
				continue
			}
			_ = a.Ask(ctx, rest)
		case "compose":
			_ = a.Compose(ctx)
		case "delete":
			_ = a.Delete(ctx, first)
		case "export":
			path := ""
			if len(args) > 1 {
				path = args[1]
			}
			_ = a.Export(ctx, first, path)
		case "archive":
			_ = a.Archive(ctx, first)
		case "logout":
			_ = a.Logout(ctx)
		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			return
		}
	}
}
