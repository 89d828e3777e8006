package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface is the command surface the REPL drives. App satisfies it.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context, args []string) error
	Logout(ctx context.Context) error
	Status(ctx context.Context) error
	Folders(ctx context.Context) error
	Items(ctx context.Context) error
	Entries(ctx context.Context) error
	Upload(ctx context.Context, paths []string) error
	CreateEntry(ctx context.Context, itemIDs []string) error
	DeleteItems(ctx context.Context, ids []string) error
	DeleteEntries(ctx context.Context, ids []string) error
	Sync(ctx context.Context) error
}

// runREPL reads commands from scanner until EOF, "exit" or "quit", or until
// ctx is done. Handler errors are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("snaplog> %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var err error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: status, folders, items, entries, upload <path...>, entry <item-id...>, delete-items <id...>, delete-entries <id...>, sync, logout, exit")
			} else {
				printlnFn("Available commands: login, status, items, entries, exit")
			}

		case "login":
			err = a.Login(ctx, args)

		case "logout":
			err = a.Logout(ctx)

		case "status":
			err = a.Status(ctx)

		case "folders":
			err = a.Folders(ctx)

		case "items":
			err = a.Items(ctx)

		case "entries":
			err = a.Entries(ctx)

		case "upload":
			if len(args) == 0 {
				printlnFn("Usage: upload <path...>")
				continue
			}
			err = a.Upload(ctx, args)

		case "entry":
			err = a.CreateEntry(ctx, args)

		case "delete-items":
			if len(args) == 0 {
				printlnFn("Usage: delete-items <id...>")
				continue
			}
			err = a.DeleteItems(ctx, args)

		case "delete-entries":
			if len(args) == 0 {
				printlnFn("Usage: delete-entries <id...>")
				continue
			}
			err = a.DeleteEntries(ctx, args)

		case "sync":
			err = a.Sync(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("Error:", err)
		}
	}
}
