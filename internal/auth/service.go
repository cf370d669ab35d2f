// Package auth is the auth service: initial setup, login with lockout,
// session validation and logout, administrative user management and the
// audit trail, on top of the credential store.
//
// Every operation is one read-modify-write transaction on the store, taken
// under a service-wide mutex so the background session sweeper and the
// interactive shell never interleave. Failures that must still be recorded
// (failed-login counters, audit entries) commit before the error is
// returned.
package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/rosterkeeper/internal/clock"
	"github.com/dmitrijs2005/rosterkeeper/internal/config"
	"github.com/dmitrijs2005/rosterkeeper/internal/cryptox"
	"github.com/dmitrijs2005/rosterkeeper/internal/logging"
	"github.com/dmitrijs2005/rosterkeeper/internal/models"
	"github.com/dmitrijs2005/rosterkeeper/internal/store"
)

// PasswordHasher hashes and verifies passwords. cryptox.Hasher is the
// production implementation.
type PasswordHasher interface {
	Hash(ctx context.Context, plaintext string) (string, error)
	Verify(ctx context.Context, plaintext, hash string) (bool, error)
}

// UnknownActor labels audit entries whose actor cannot be resolved.
const UnknownActor = "unknown"

type Service struct {
	mu     sync.Mutex
	store  *store.Store
	hasher PasswordHasher
	clock  clock.Clock
	log    logging.Logger

	sessionTTL        time.Duration
	rememberMeTTL     time.Duration
	maxFailedAttempts int
	lockoutDuration   time.Duration
	cleanupInterval   time.Duration

	newToken func() (string, error)

	// dummyHash is verified against when the username is unknown so that
	// both outcomes cost one bcrypt comparison.
	dummyOnce sync.Once
	dummyHash string
}

// NewService builds a Service over an initialized store, taking policy
// (session lifetimes, lockout, sweep interval) from cfg.
func NewService(st *store.Store, hasher PasswordHasher, clk clock.Clock, log logging.Logger, cfg *config.Config) *Service {
	return &Service{
		store:             st,
		hasher:            hasher,
		clock:             clk,
		log:               log.With("module", "auth"),
		sessionTTL:        cfg.SessionTTL,
		rememberMeTTL:     cfg.RememberMeTTL,
		maxFailedAttempts: cfg.MaxFailedAttempts,
		lockoutDuration:   cfg.LockoutDuration,
		cleanupInterval:   cfg.CleanupInterval,
		newToken:          cryptox.NewSessionToken,
	}
}

// update runs fn in one store transaction under the service lock. A
// rejection returned by fn commits the transaction and yields its wrapped
// error; any other error rolls back.
func (s *Service) update(ctx context.Context, fn func(ctx context.Context, c *store.Collections) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rejected error
	err := s.store.WithTx(ctx, func(ctx context.Context, c *store.Collections) error {
		err := fn(ctx, c)
		var r rejection
		if errors.As(err, &r) {
			rejected = r.err
			return nil
		}
		return err
	})
	if err != nil {
		return err
	}
	return rejected
}

func (s *Service) now() time.Time {
	return s.clock.Now().UTC()
}

func (s *Service) audit(ctx context.Context, c *store.Collections, action models.Action, userID *int64, username, details string) error {
	return c.AppendAudit(ctx, models.AuditEntry{
		Timestamp: s.now(),
		Action:    action,
		UserID:    userID,
		Username:  username,
		Details:   details,
	})
}

func findUser(users []models.User, id int64) *models.User {
	for i := range users {
		if users[i].ID == id {
			return &users[i]
		}
	}
	return nil
}

// actorLabel resolves the username recorded for an acting user.
func actorLabel(users []models.User, id int64) string {
	if u := findUser(users, id); u != nil {
		return u.Username
	}
	return UnknownActor
}

func ptr[T any](v T) *T {
	return &v
}
