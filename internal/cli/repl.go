package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface is the command surface the REPL drives. App implements it;
// tests provide a recording stub.
type execIface interface {
	isLoggedIn() bool
	activity()
	report(err error)
	Setup(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	ChangePassword(ctx context.Context) error
	Users(ctx context.Context) error
	AddUser(ctx context.Context) error
	EditUser(ctx context.Context, args []string) error
	ResetPassword(ctx context.Context, args []string) error
	Unlock(ctx context.Context, args []string) error
	Audit(ctx context.Context, args []string) error
}

const (
	helpSignedOut = "Available commands: setup, login, help, exit"
	helpSignedIn  = "Available commands: whoami, passwd, users, adduser, edituser <id>, resetpw <id>, unlock <id>, audit [limit], logout, help, exit"
)

// runREPL reads commands from reader and dispatches them to a until EOF,
// "exit"/"quit" or ctx is done. Every non-empty line is reported to the
// idle watcher before it is handled. Command errors are reported inline and
// do not end the loop.
//
//	Signed out:
//	  - setup          - create the first administrator
//	  - login          - authenticate
//	Signed in:
//	  - whoami         - show the current account
//	  - passwd         - change your own password
//	  - users          - list accounts (canManageUsers)
//	  - adduser        - create an account (canManageUsers)
//	  - edituser <id>  - edit name, email, role or status (canManageUsers)
//	  - resetpw <id>   - set a new password, ending the user's sessions (canManageUsers)
//	  - unlock <id>    - clear a lockout (canManageUsers)
//	  - audit [limit]  - show recent audit entries (canViewAuditLog)
//	  - logout
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("roster %s> ", statusFn()))
		line, err := readLine(reader)
		if err != nil {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		a.activity()

		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpSignedIn)
			} else {
				printlnFn(helpSignedOut)
			}

		case "setup":
			cmdErr = a.Setup(ctx)

		case "login":
			cmdErr = a.Login(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		case "logout", "whoami", "passwd", "users", "adduser", "edituser", "resetpw", "unlock", "audit":
			if !a.isLoggedIn() {
				printlnFn("Please login first.")
				continue
			}
			cmdErr = dispatchSignedIn(ctx, a, cmd, args)

		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			a.report(cmdErr)
		}
	}
}

func dispatchSignedIn(ctx context.Context, a execIface, cmd string, args []string) error {
	switch cmd {
	case "logout":
		return a.Logout(ctx)
	case "whoami":
		return a.WhoAmI(ctx)
	case "passwd":
		return a.ChangePassword(ctx)
	case "users":
		return a.Users(ctx)
	case "adduser":
		return a.AddUser(ctx)
	case "edituser":
		return a.EditUser(ctx, args)
	case "resetpw":
		return a.ResetPassword(ctx, args)
	case "unlock":
		return a.Unlock(ctx, args)
	case "audit":
		return a.Audit(ctx, args)
	}
	return nil
}
