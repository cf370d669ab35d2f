package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/rosterkeeper/internal/auth"
	"github.com/dmitrijs2005/rosterkeeper/internal/common"
	"github.com/dmitrijs2005/rosterkeeper/internal/permissions"
)

const timeLayout = "2006-01-02 15:04"

var manageUsers = permissions.ManageUsers

// Users lists every account.
func (a *App) Users(ctx context.Context) error {
	if _, err := a.authorize(ctx, &manageUsers); err != nil {
		return err
	}

	users, err := a.svc.GetAllUsers(ctx)
	if err != nil {
		return err
	}

	now := a.clock.Now()
	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUSERNAME\tNAME\tROLE\tSTATUS\tLAST LOGIN")
	for _, u := range users {
		status := "active"
		switch {
		case !u.IsActive:
			status = "inactive"
		case u.LockedUntil != nil && u.LockedUntil.After(now):
			status = "locked until " + u.LockedUntil.Local().Format(timeLayout)
		case u.FailedLoginAttempts > 0:
			status = fmt.Sprintf("active (%d failed)", u.FailedLoginAttempts)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			u.ID, u.Username, u.FullName, u.Role, status, formatTime(u.LastLogin))
	}
	return tw.Flush()
}

// AddUser creates an account with a chosen role.
func (a *App) AddUser(ctx context.Context) error {
	actor, err := a.authorize(ctx, &manageUsers)
	if err != nil {
		return err
	}

	username, err := getSimpleText(a.reader, "Username", a.out)
	if err != nil {
		return err
	}
	fullName, err := getSimpleText(a.reader, "Full name", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Email (optional)", a.out)
	if err != nil {
		return err
	}
	role, err := a.readRole("")
	if err != nil {
		return err
	}
	password, err := a.readNewPassword()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	created, err := a.svc.CreateUser(ctx, auth.CreateUserRequest{
		Username: username,
		Password: string(password),
		FullName: fullName,
		Email:    email,
		Role:     role,
	}, actor.ID)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Created user %s (id %d, %s).\n", created.Username, created.ID, permissions.DisplayName(created.Role))
	return nil
}

// EditUser changes profile fields of one account. An empty answer keeps
// the current value.
func (a *App) EditUser(ctx context.Context, args []string) error {
	id, err := parseID(args, "edituser <id>")
	if err != nil {
		return err
	}
	actor, err := a.authorize(ctx, &manageUsers)
	if err != nil {
		return err
	}
	current, err := a.svc.GetUser(ctx, id)
	if err != nil {
		return err
	}

	var upd auth.UserUpdate

	fullName, err := getSimpleText(a.reader, fmt.Sprintf("Full name [%s]", current.FullName), a.out)
	if err != nil {
		return err
	}
	if fullName != "" {
		upd.FullName = &fullName
	}

	currentEmail := ""
	if current.Email != nil {
		currentEmail = *current.Email
	}
	email, err := getSimpleText(a.reader, fmt.Sprintf("Email [%s] ('-' clears)", currentEmail), a.out)
	if err != nil {
		return err
	}
	switch email {
	case "":
	case "-":
		upd.Email = new(string)
	default:
		upd.Email = &email
	}

	role, err := a.readRole(current.Role)
	if err != nil {
		return err
	}
	if role != current.Role {
		upd.Role = &role
	}

	active, err := getSimpleText(a.reader, fmt.Sprintf("Active [%s] (y/n)", yesNo(current.IsActive)), a.out)
	if err != nil {
		return err
	}
	switch strings.ToLower(active) {
	case "y", "yes":
		upd.IsActive = ptr(true)
	case "n", "no":
		upd.IsActive = ptr(false)
	}

	updated, err := a.svc.UpdateUser(ctx, id, upd, actor.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Updated user %s.\n", updated.Username)
	return nil
}

// ResetPassword sets a new password for an account and ends its sessions.
func (a *App) ResetPassword(ctx context.Context, args []string) error {
	id, err := parseID(args, "resetpw <id>")
	if err != nil {
		return err
	}
	actor, err := a.authorize(ctx, &manageUsers)
	if err != nil {
		return err
	}
	target, err := a.svc.GetUser(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Resetting password for %s.\n", target.Username)
	password, err := a.readNewPassword()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.svc.ResetPassword(ctx, id, string(password), actor.ID); err != nil {
		return err
	}
	if id == actor.ID {
		fmt.Fprintln(a.out, "Your password was reset and your sessions ended. Please login again.")
		return a.guard.Logout(ctx)
	}
	fmt.Fprintf(a.out, "Password reset for %s. Their sessions were ended.\n", target.Username)
	return nil
}

// Unlock clears an account's lockout.
func (a *App) Unlock(ctx context.Context, args []string) error {
	id, err := parseID(args, "unlock <id>")
	if err != nil {
		return err
	}
	actor, err := a.authorize(ctx, &manageUsers)
	if err != nil {
		return err
	}
	if err := a.svc.UnlockAccount(ctx, id, actor.ID); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Account %d unlocked.\n", id)
	return nil
}

// readRole prompts until it gets a valid role; an empty answer keeps
// current when there is one.
func (a *App) readRole(current permissions.Role) (permissions.Role, error) {
	names := make([]string, 0, len(permissions.Roles()))
	for _, r := range permissions.Roles() {
		names = append(names, r.String())
	}
	prompt := fmt.Sprintf("Role (%s)", strings.Join(names, ", "))
	if current != "" {
		prompt = fmt.Sprintf("Role [%s] (%s)", current, strings.Join(names, ", "))
	}

	answer, err := getSimpleText(a.reader, prompt, a.out)
	if err != nil {
		return "", err
	}
	if answer == "" && current != "" {
		return current, nil
	}
	return permissions.ParseRole(answer)
}

func parseID(args []string, usageLine string) (int64, error) {
	if len(args) != 1 {
		return 0, usage(usageLine)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidID
	}
	return id, nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.Local().Format(timeLayout)
}

func yesNo(b bool) string {
	if b {
		return "y"
	}
	return "n"
}

func ptr[T any](v T) *T {
	return &v
}
