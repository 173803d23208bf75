package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Status(ctx context.Context) error
	StartDay(ctx context.Context) error
	EndDay(ctx context.Context) error
	Dashboard(ctx context.Context) error
	Invoices(ctx context.Context, args []string) error
	Version(ctx context.Context) error
}

// runREPL reads commands line by line from reader and dispatches them to a.
// The loop exits on EOF, on "exit"/"quit", or when ctx is done.
//
//	Not logged in:
//	  - help           show available commands
//	  - login          authenticate
//	  - version        check for updates
//	  - exit | quit    leave the program
//
//	Logged in:
//	  - status         show the day cycle
//	  - start | end    start or end the work day
//	  - dashboard      targets, outlets and invoice metrics
//	  - invoices [from] [to]
//	  - version, logout, exit
//
// Command errors are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("fs%s> ", statusFn()))

		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if cmd == "exit" || cmd == "quit" {
			printlnFn("Bye!")
			return
		}

		var cmdErr error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: status, start, end, dashboard, invoices [from] [to], version, logout, exit")
			} else {
				printlnFn("Available commands: login, version, exit")
			}
		case "login":
			cmdErr = a.Login(ctx)
		case "version":
			cmdErr = a.Version(ctx)
		case "logout", "status", "start", "end", "dashboard", "invoices":
			if !a.isLoggedIn() {
				cmdErr = errNotLoggedIn
				break
			}
			cmdErr = dispatch(ctx, a, cmd, args)
		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn("Error:", cmdErr)
		}
		if err != nil {
			return
		}
	}
}

func dispatch(ctx context.Context, a execIface, cmd string, args []string) error {
	switch cmd {
	case "logout":
		return a.Logout(ctx)
	case "status":
		return a.Status(ctx)
	case "start":
		return a.StartDay(ctx)
	case "end":
		return a.EndDay(ctx)
	case "dashboard":
		return a.Dashboard(ctx)
	default:
		return a.Invoices(ctx, args)
	}
}
