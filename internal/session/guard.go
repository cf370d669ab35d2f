// Package session keeps the identity of the interactive shell: the signed-in
// user, the bearer token persisted between runs, and the idle timeout that
// signs the user out.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/rosterkeeper/internal/auth"
	"github.com/dmitrijs2005/rosterkeeper/internal/clock"
	"github.com/dmitrijs2005/rosterkeeper/internal/common"
	"github.com/dmitrijs2005/rosterkeeper/internal/logging"
	"github.com/dmitrijs2005/rosterkeeper/internal/models"
	"github.com/dmitrijs2005/rosterkeeper/internal/permissions"
)

// IdleNotice is passed to the notice callback after an idle sign-out.
const IdleNotice = "You have been logged out due to inactivity."

// ErrForbidden is returned by Require when the current identity lacks the
// capability, including when nobody is signed in.
var ErrForbidden = errors.New("permission denied")

// ErrPasswordChangeRequired is returned by Require while the signed-in user
// still holds a temporary password.
var ErrPasswordChangeRequired = errors.New("password change required")

// Authenticator is the part of the auth service the guard depends on.
type Authenticator interface {
	ValidateSession(ctx context.Context, token string) (*auth.SessionInfo, error)
	Logout(ctx context.Context, token string) error
}

// TokenStore persists the active token between runs. *store.Store
// implements it.
type TokenStore interface {
	ActiveToken(ctx context.Context) (string, error)
	SetActiveToken(ctx context.Context, token string) error
	ClearActiveToken(ctx context.Context) error
}

type Guard struct {
	mu          sync.RWMutex
	svc         Authenticator
	tokens      TokenStore
	log         logging.Logger
	id          string
	initialized bool

	user  *models.PublicUser
	token string

	idle   *IdleWatcher
	notice func(string)
}

func NewGuard(svc Authenticator, tokens TokenStore, log logging.Logger) *Guard {
	id := uuid.NewString()
	return &Guard{
		svc:    svc,
		tokens: tokens,
		id:     id,
		log:    log.With("module", "session", "guard_id", id),
	}
}

// Init restores the persisted session, if any. A token that no longer
// validates is discarded. Init must be called once before anything else.
func (g *Guard) Init(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.initialized {
		return nil
	}

	token, err := g.tokens.ActiveToken(ctx)
	if err != nil {
		return fmt.Errorf("read active token: %w", err)
	}

	if token != "" {
		info, err := g.svc.ValidateSession(ctx, token)
		switch {
		case err == nil:
			user := info.User
			g.adopt(&user, token)
			g.log.Info(ctx, "session restored", "user_id", user.ID, "token", common.TokenPrefix(token))
		case errors.Is(err, auth.ErrInvalidSession):
			g.log.Info(ctx, "stored session is no longer valid", "token", common.TokenPrefix(token))
			if err := g.tokens.ClearActiveToken(ctx); err != nil {
				return fmt.Errorf("clear active token: %w", err)
			}
		default:
			return fmt.Errorf("validate stored session: %w", err)
		}
	}

	g.initialized = true
	return nil
}

// Login adopts user and token as the active identity and persists the
// token. A nil user or an empty token is a wiring bug and panics.
func (g *Guard) Login(ctx context.Context, user *models.PublicUser, token string) error {
	if user == nil || token == "" {
		panic("session: Login requires a user and a token")
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.mustInit()

	if g.token != "" && g.token != token {
		if err := g.svc.Logout(ctx, g.token); err != nil {
			g.log.Warn(ctx, "could not end previous session", "error", err)
		}
	}
	if err := g.tokens.SetActiveToken(ctx, token); err != nil {
		return fmt.Errorf("persist active token: %w", err)
	}
	u := *user
	g.adopt(&u, token)
	g.log.Info(ctx, "signed in", "user_id", u.ID, "token", common.TokenPrefix(token))
	return nil
}

// Logout ends the current session with the auth service and forgets the
// identity. Signed-out guards return nil.
func (g *Guard) Logout(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.mustInit()

	return g.logoutLocked(ctx)
}

func (g *Guard) logoutLocked(ctx context.Context) error {
	if g.user == nil {
		return nil
	}

	token := g.token
	g.user = nil
	g.token = ""
	if g.idle != nil {
		g.idle.Stop()
	}

	// The local identity is gone even if either call fails.
	errSvc := g.svc.Logout(ctx, token)
	errTok := g.tokens.ClearActiveToken(ctx)
	if err := errors.Join(errSvc, errTok); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	g.log.Info(ctx, "signed out", "token", common.TokenPrefix(token))
	return nil
}

// Current returns a copy of the signed-in user, or nil.
func (g *Guard) Current() *models.PublicUser {
	g.mu.RLock()
	defer g.mu.RUnlock()
	g.mustInit()

	if g.user == nil {
		return nil
	}
	u := *g.user
	return &u
}

// Refresh replaces the cached profile of the signed-in user, for example
// after an administrator changed its role. Other users are ignored.
func (g *Guard) Refresh(user models.PublicUser) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.mustInit()

	if g.user == nil || g.user.ID != user.ID {
		return
	}
	g.user = &user
}

// Token returns the active bearer token, or "".
func (g *Guard) Token() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	g.mustInit()
	return g.token
}

func (g *Guard) Authenticated() bool {
	return g.Current() != nil
}

// HasPermission reports whether the current user's role grants c.
func (g *Guard) HasPermission(c permissions.Capability) bool {
	u := g.Current()
	return u != nil && permissions.HasPermission(u.Role, c)
}

func (g *Guard) IsAdmin() bool {
	u := g.Current()
	return u != nil && permissions.IsAdmin(u.Role)
}

// Require returns ErrForbidden unless the current user holds c, and
// ErrPasswordChangeRequired while that user must first replace a temporary
// password.
func (g *Guard) Require(c permissions.Capability) error {
	if u := g.Current(); u != nil && u.RequirePasswordChange {
		return ErrPasswordChangeRequired
	}
	if !g.HasPermission(c) {
		return fmt.Errorf("%w: %s", ErrForbidden, c)
	}
	return nil
}

// WatchIdle signs the user out after timeout without activity and then
// calls notice with IdleNotice. The watcher runs only while someone is
// signed in. Report activity through the returned watcher's Signal.
func (g *Guard) WatchIdle(ctx context.Context, clk clock.Clock, timeout time.Duration, notice func(string)) *IdleWatcher {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.mustInit()

	if g.idle != nil {
		g.idle.Stop()
	}
	g.notice = notice
	g.idle = NewIdleWatcher(clk, timeout, func() { g.idleLogout(ctx) })
	if g.user != nil {
		g.idle.Start()
	}
	return g.idle
}

// Close stops the idle watcher. The persisted session stays valid for the
// next run.
func (g *Guard) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.idle != nil {
		g.idle.Stop()
	}
}

func (g *Guard) idleLogout(ctx context.Context) {
	g.mu.Lock()
	if g.user == nil {
		g.mu.Unlock()
		return
	}
	g.log.Info(ctx, "idle timeout reached", "user_id", g.user.ID)
	err := g.logoutLocked(ctx)
	notice := g.notice
	g.mu.Unlock()

	if err != nil {
		g.log.Error(ctx, "idle logout failed", "error", err)
	}
	if notice != nil {
		notice(IdleNotice)
	}
}

func (g *Guard) adopt(user *models.PublicUser, token string) {
	g.user = user
	g.token = token
	if g.idle != nil {
		g.idle.Start()
	}
}

func (g *Guard) mustInit() {
	if !g.initialized {
		panic("session: Guard used before Init")
	}
}
