package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/rosterkeeper/internal/auth"
	"github.com/dmitrijs2005/rosterkeeper/internal/common"
	"github.com/dmitrijs2005/rosterkeeper/internal/models"
	"github.com/dmitrijs2005/rosterkeeper/internal/permissions"
	"github.com/dmitrijs2005/rosterkeeper/internal/session"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Setup creates the first administrator. It refuses once an active admin
// exists.
func (a *App) Setup(ctx context.Context) error {
	needs, err := a.svc.NeedsSetup(ctx)
	if err != nil {
		return err
	}
	if !needs {
		return auth.ErrAdminExists
	}

	username, err := getSimpleText(a.reader, "Choose an admin username", a.out)
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
	password, err := a.readNewPassword()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	_, err = a.svc.SetupInitialAdmin(ctx, auth.SetupRequest{
		Username: username,
		Password: string(password),
		FullName: fullName,
		Email:    email,
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Administrator account created. Please login.")
	return nil
}

// Login prompts for credentials and, on success, hands the session to the
// guard. Accounts flagged RequirePasswordChange are asked for a new
// password straight away.
func (a *App) Login(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out, "Enter password: ")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	remember, err := GetYesNo(a.reader, "Keep me signed in for 7 days?", a.out)
	if err != nil {
		return err
	}

	res, err := a.svc.Login(ctx, auth.LoginRequest{
		Username:   username,
		Password:   string(password),
		RememberMe: remember,
	})
	if err != nil {
		return err
	}

	user := res.User
	if err := a.guard.Login(ctx, &user, res.SessionToken); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Welcome, %s!\n", user.FullName)

	if user.RequirePasswordChange {
		return a.forcePasswordChange(ctx)
	}
	return nil
}

// forcePasswordChange runs passwd for a user signed in with a temporary
// password. If it fails the user stays signed in but every other command is
// refused until passwd succeeds.
func (a *App) forcePasswordChange(ctx context.Context) error {
	fmt.Fprintln(a.out, "You are signed in with a temporary password. Please choose a new one.")
	if err := a.ChangePassword(ctx); err != nil {
		if a.isLoggedIn() {
			fmt.Fprintln(a.out, "Other commands stay locked until you run 'passwd'.")
		}
		return err
	}
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.guard.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}

// WhoAmI prints the signed-in account and what its role allows.
func (a *App) WhoAmI(ctx context.Context) error {
	u, err := a.authorize(ctx, nil)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Username:\t%s\n", u.Username)
	fmt.Fprintf(tw, "Name:\t%s\n", u.FullName)
	if u.Email != nil {
		fmt.Fprintf(tw, "Email:\t%s\n", *u.Email)
	}
	fmt.Fprintf(tw, "Role:\t%s (%s)\n", permissions.DisplayName(u.Role), permissions.Description(u.Role))
	if set, ok := permissions.For(u.Role); ok {
		names := make([]string, 0, len(set.Granted()))
		for _, c := range set.Granted() {
			names = append(names, c.String())
		}
		fmt.Fprintf(tw, "Permissions:\t%s\n", strings.Join(names, ", "))
	}
	return tw.Flush()
}

// ChangePassword replaces the signed-in user's own password.
func (a *App) ChangePassword(ctx context.Context) error {
	if _, err := a.identify(ctx); err != nil {
		return err
	}

	current, err := getPassword(a.out, "Current password: ")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(current)

	next, err := a.readNewPassword()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(next)

	if err := a.svc.ChangePassword(ctx, a.guard.Token(), string(current), string(next)); err != nil {
		return a.sessionError(ctx, err)
	}
	if _, err := a.identify(ctx); err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Password changed.")
	return nil
}

// authorize revalidates the session and checks capability when one is
// given. Users holding a temporary password get ErrPasswordChangeRequired
// until they run passwd.
func (a *App) authorize(ctx context.Context, capability *permissions.Capability) (*models.PublicUser, error) {
	user, err := a.identify(ctx)
	if err != nil {
		return nil, err
	}
	if user.RequirePasswordChange {
		return nil, session.ErrPasswordChangeRequired
	}
	if capability != nil {
		if err := a.guard.Require(*capability); err != nil {
			return nil, err
		}
	}
	return user, nil
}

// identify revalidates the guard's session with the auth service and
// refreshes the cached identity, since the role may have changed meanwhile.
func (a *App) identify(ctx context.Context) (*models.PublicUser, error) {
	info, err := a.svc.ValidateSession(ctx, a.guard.Token())
	if err != nil {
		return nil, a.sessionError(ctx, err)
	}

	user := info.User
	a.guard.Refresh(user)
	return &user, nil
}

// sessionError signs the guard out when err says the session is gone.
func (a *App) sessionError(ctx context.Context, err error) error {
	if errors.Is(err, auth.ErrInvalidSession) {
		if logoutErr := a.guard.Logout(ctx); logoutErr != nil {
			a.log.Warn(ctx, "logout after invalid session failed", "error", logoutErr)
		}
	}
	return err
}

// readNewPassword asks for a password twice. The caller wipes the result.
func (a *App) readNewPassword() ([]byte, error) {
	password, err := getPassword(a.out, "New password: ")
	if err != nil {
		return nil, err
	}
	confirm, err := getPassword(a.out, "Confirm password: ")
	if err != nil {
		common.WipeByteArray(password)
		return nil, err
	}
	defer common.WipeByteArray(confirm)

	if !bytes.Equal(password, confirm) {
		common.WipeByteArray(password)
		return nil, errPasswordMismatch
	}
	return password, nil
}

func (a *App) migratePasswords(ctx context.Context) error {
	needs, err := a.migrator.NeedsMigration(ctx)
	if err != nil || !needs {
		return err
	}

	fmt.Fprintln(a.out, "Migrating passwords...")
	sum, err := a.migrator.MigrateAllIndividually(ctx)
	if err != nil {
		fmt.Fprintln(a.out, "Password migration failed. Please contact support.")
		return err
	}

	fmt.Fprintf(a.out, "Password migration complete!\n%d user(s) migrated.\n\n", sum.Migrated)
	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "USERNAME\tTEMPORARY PASSWORD")
	for _, c := range sum.Credentials {
		fmt.Fprintf(tw, "%s\t%s\n", c.Username, c.TemporaryPassword)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "\nGive each user their temporary password. They must change it at first login.")
	return nil
}
