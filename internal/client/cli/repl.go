package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the interactive loop needs.
// The real App type satisfies this interface; tests can provide a stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	List(ctx context.Context) error
	Show(ctx context.Context, id string) error
	Add(ctx context.Context) error
	Edit(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	AddUser(ctx context.Context) error
	DeleteUser(ctx context.Context) error
	ListUsers(ctx context.Context) error
	Sync(ctx context.Context) error
	Status(ctx context.Context) error
}

// runREPL reads a line, parses the first token as the command and dispatches
// to 'a'. The loop exits on scanner EOF or when the user types "exit" or
// "quit". Errors from command handlers are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	printlnFn("artsync (type 'help' for commands)")

	for {
		printlnFn(fmt.Sprintf("art %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		if !a.isLoggedIn() {
			switch cmd {
			case "help":
				printlnFn("Available commands: login, exit")
			case "login":
				report(a.Login(ctx))
			case "exit", "quit":
				printlnFn("Bye!")
				return
			default:
				printlnFn("Please log in first (type 'login')")
			}
			continue
		}

		switch cmd {
		case "help":
			printlnFn("Available commands: (l)ist, show <id>, add, edit <id>, delete <id>,")
			printlnFn("  users, adduser, deluser, sync, status, logout, exit")

		case "l", "list":
			report(a.List(ctx))

		case "show":
			if len(args) == 0 {
				printlnFn("Usage: show <id>")
				continue
			}
			report(a.Show(ctx, args[0]))

		case "add":
			report(a.Add(ctx))

		case "edit":
			if len(args) == 0 {
				printlnFn("Usage: edit <id>")
				continue
			}
			report(a.Edit(ctx, args[0]))

		case "delete":
			if len(args) == 0 {
				printlnFn("Usage: delete <id>")
				continue
			}
			report(a.Delete(ctx, args[0]))

		case "users":
			report(a.ListUsers(ctx))

		case "adduser":
			report(a.AddUser(ctx))

		case "deluser":
			report(a.DeleteUser(ctx))

		case "sync":
			report(a.Sync(ctx))

		case "status":
			report(a.Status(ctx))

		case "login":
			report(a.Login(ctx))

		case "logout":
			report(a.Logout(ctx))

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}

func report(err error) {
	if err != nil {
		printlnFn("Error:", err.Error())
	}
}
