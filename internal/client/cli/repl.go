package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn and printFn are test seams for REPL output.
var (
	printlnFn = fmt.Println
	printFn   = fmt.Print
)

// execIface is the command surface the REPL dispatches to. App implements
// it; tests use a recording stub.
type execIface interface {
	isLoggedIn() bool

	Register(ctx context.Context) error
	Verify(ctx context.Context, args []string) error
	Resend(ctx context.Context, args []string) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Forgot(ctx context.Context, args []string) error
	Reset(ctx context.Context) error
	WhoAmI(ctx context.Context, args []string) error

	Explore(ctx context.Context, args []string) error
	Search(ctx context.Context, args []string) error
	Show(ctx context.Context, args []string) error

	Profile(ctx context.Context) error
	Add(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	Save(ctx context.Context) error
	Avatar(ctx context.Context, args []string) error
	Review(ctx context.Context, args []string) error
}

const (
	helpAnonymous = "Available commands: register, verify [code], resend [email], login, forgot [email], reset, " +
		"explore [page|next|prev], search [query], show <id>, exit"
	helpSignedIn = "Available commands: whoami [--remote], explore [page|next|prev], next, prev, search [query], show <id>, " +
		"profile, add <skill|exp|proj|edu>, del <skill|exp|proj|edu> <id>, save, avatar <file>, review [id], logout, exit"
)

// signedInOnly lists commands that need a session.
var signedInOnly = map[string]bool{
	"whoami": true, "profile": true, "add": true, "del": true, "delete": true, "save": true, "avatar": true, "review": true, "logout": true,
}

// runREPL reads one command per line from in and dispatches it to a until
// "exit"/"quit" or end of input. Command errors are reported by the
// commands themselves and do not stop the loop.
func runREPL(ctx context.Context, a execIface, statusFn func() string, in *bufio.Reader) {
	for {
		printFn(fmt.Sprintf("spotlight%s> ", statusFn()))
		line, err := in.ReadString('\n')
		if err != nil && line == "" {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if signedInOnly[cmd] && !a.isLoggedIn() {
			printlnFn("Please log in first")
			continue
		}

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpSignedIn)
			} else {
				printlnFn(helpAnonymous)
			}

		case "register":
			_ = a.Register(ctx)
		case "verify":
			_ = a.Verify(ctx, args)
		case "resend":
			_ = a.Resend(ctx, args)
		case "login":
			_ = a.Login(ctx)
		case "logout":
			_ = a.Logout(ctx)
		case "forgot":
			_ = a.Forgot(ctx, args)
		case "reset":
			_ = a.Reset(ctx)
		case "whoami":
			_ = a.WhoAmI(ctx, args)

		case "explore", "l", "list":
			_ = a.Explore(ctx, args)
		case "next", "prev":
			_ = a.Explore(ctx, []string{cmd})
		case "search":
			_ = a.Search(ctx, args)
		case "show":
			if len(args) == 0 {
				printlnFn("Usage: show <id>")
				continue
			}
			_ = a.Show(ctx, args)

		case "profile":
			_ = a.Profile(ctx)
		case "add":
			if len(args) == 0 {
				printlnFn("Usage: add <skill|exp|proj|edu>")
				continue
			}
			_ = a.Add(ctx, args)
		case "del", "delete":
			if len(args) < 2 {
				printlnFn("Usage: del <skill|exp|proj|edu> <id>")
				continue
			}
			_ = a.Delete(ctx, args)
		case "save":
			_ = a.Save(ctx)
		case "avatar":
			if len(args) == 0 {
				printlnFn("Usage: avatar <file>")
				continue
			}
			_ = a.Avatar(ctx, args)
		case "review":
			_ = a.Review(ctx, args)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
