// Package passmigrate upgrades accounts whose password hash predates bcrypt.
//
// A legacy hash cannot be converted, so a migrated account gets a fresh
// temporary password and RequirePasswordChange. The temporary passwords
// leave this package only in the returned Summary; they are never logged
// or stored in plain text.
package passmigrate

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/rosterkeeper/internal/clock"
	"github.com/dmitrijs2005/rosterkeeper/internal/cryptox"
	"github.com/dmitrijs2005/rosterkeeper/internal/logging"
	"github.com/dmitrijs2005/rosterkeeper/internal/models"
	"github.com/dmitrijs2005/rosterkeeper/internal/store"
)

const minTemporaryPasswordLen = 8

var ErrTemporaryPasswordTooShort = errors.New("temporary password must be at least 8 characters")

type Hasher interface {
	Hash(ctx context.Context, plaintext string) (string, error)
}

// Result is the outcome for one account.
type Result struct {
	AlreadyMigrated       bool
	TemporaryPassword     string
	RequirePasswordChange bool
}

// Credential is a temporary password issued to one account.
type Credential struct {
	UserID            int64
	Username          string
	TemporaryPassword string
}

// Summary reports a bulk migration. Credentials lists every account that
// received a temporary password. TemporaryPassword is set only by
// MigrateAll, where every account shares it.
type Summary struct {
	Migrated          int
	AlreadyMigrated   int
	Total             int
	TemporaryPassword string
	Credentials       []Credential
}

// Status is a read-only progress report.
type Status struct {
	Total          int
	Migrated       int
	NeedsMigration int
	Complete       bool
}

type Migrator struct {
	store       *store.Store
	hasher      Hasher
	clock       clock.Clock
	log         logging.Logger
	newPassword func() (string, error)
}

func New(st *store.Store, hasher Hasher, clk clock.Clock, log logging.Logger) *Migrator {
	return &Migrator{
		store:       st,
		hasher:      hasher,
		clock:       clk,
		log:         log.With("module", "passmigrate"),
		newPassword: cryptox.NewTemporaryPassword,
	}
}

// IsMigrated reports whether u already has a bcrypt hash.
func IsMigrated(u *models.User) bool {
	return cryptox.IsCurrentFormat(u.PasswordHash)
}

// NeedsMigration reports whether any stored account has a legacy hash.
func (m *Migrator) NeedsMigration(ctx context.Context) (bool, error) {
	users, err := m.store.ReadUsers(ctx)
	if err != nil {
		return false, err
	}
	for i := range users {
		if !IsMigrated(&users[i]) {
			return true, nil
		}
	}
	return false, nil
}

// Status counts migrated and pending accounts.
func (m *Migrator) Status(ctx context.Context) (Status, error) {
	users, err := m.store.ReadUsers(ctx)
	if err != nil {
		return Status{}, err
	}
	st := Status{Total: len(users)}
	for i := range users {
		if IsMigrated(&users[i]) {
			st.Migrated++
		}
	}
	st.NeedsMigration = st.Total - st.Migrated
	st.Complete = st.NeedsMigration == 0
	return st, nil
}

// MigrateUser rehashes u in place with temporaryPassword unless it is
// already migrated. Persisting u is up to the caller.
func (m *Migrator) MigrateUser(ctx context.Context, u *models.User, temporaryPassword string) (Result, error) {
	if IsMigrated(u) {
		return Result{AlreadyMigrated: true}, nil
	}
	if len(temporaryPassword) < minTemporaryPasswordLen {
		return Result{}, ErrTemporaryPasswordTooShort
	}

	hash, err := m.hasher.Hash(ctx, temporaryPassword)
	if err != nil {
		return Result{}, fmt.Errorf("hash temporary password for %s: %w", u.Username, err)
	}
	u.PasswordHash = hash
	u.RequirePasswordChange = true
	u.UpdatedAt = m.clock.Now().UTC()

	m.log.Info(ctx, "account migrated, temporary password set", "user_id", u.ID, "username", u.Username)
	return Result{TemporaryPassword: temporaryPassword, RequirePasswordChange: true}, nil
}

// MigrateAll gives every legacy account the same temporary password and
// writes the users collection once.
//
// A shared credential lets any migrated user sign in as any other until
// they change it; prefer MigrateAllIndividually.
func (m *Migrator) MigrateAll(ctx context.Context, temporaryPassword string) (*Summary, error) {
	if len(temporaryPassword) < minTemporaryPasswordLen {
		return nil, ErrTemporaryPasswordTooShort
	}
	sum, err := m.migrate(ctx, func() (string, error) { return temporaryPassword, nil })
	if err != nil {
		return nil, err
	}
	sum.TemporaryPassword = temporaryPassword
	return sum, nil
}

// MigrateAllIndividually gives every legacy account its own random
// temporary password and writes the users collection once.
func (m *Migrator) MigrateAllIndividually(ctx context.Context) (*Summary, error) {
	return m.migrate(ctx, m.newPassword)
}

func (m *Migrator) migrate(ctx context.Context, password func() (string, error)) (*Summary, error) {
	var sum Summary
	err := m.store.WithTx(ctx, func(ctx context.Context, c *store.Collections) error {
		users, err := c.ReadUsers(ctx)
		if err != nil {
			return err
		}
		sum = Summary{Total: len(users)}

		for i := range users {
			u := &users[i]
			if IsMigrated(u) {
				sum.AlreadyMigrated++
				continue
			}
			temp, err := password()
			if err != nil {
				return fmt.Errorf("generate temporary password: %w", err)
			}
			if _, err := m.MigrateUser(ctx, u, temp); err != nil {
				return err
			}
			sum.Migrated++
			sum.Credentials = append(sum.Credentials, Credential{
				UserID:            u.ID,
				Username:          u.Username,
				TemporaryPassword: temp,
			})
		}

		if sum.Migrated == 0 {
			return nil
		}
		return c.WriteUsers(ctx, users)
	})
	if err != nil {
		return nil, err
	}

	m.log.Info(ctx, "password migration finished",
		"migrated", sum.Migrated, "already_migrated", sum.AlreadyMigrated, "total", sum.Total)
	return &sum, nil
}
