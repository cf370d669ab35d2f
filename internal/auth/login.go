package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/rosterkeeper/internal/common"
	"github.com/dmitrijs2005/rosterkeeper/internal/models"
	"github.com/dmitrijs2005/rosterkeeper/internal/store"
)

type LoginRequest struct {
	Username   string
	Password   string
	RememberMe bool
}

// LoginResult is returned on a successful login. The token is the only
// copy the caller gets.
type LoginResult struct {
	User         models.PublicUser
	SessionToken string
	ExpiresAt    time.Time
}

// SessionInfo describes a live session and its user.
type SessionInfo struct {
	User         models.PublicUser
	SessionToken string
	ExpiresAt    time.Time
}

// Login authenticates a user and issues a session.
//
// Unknown or inactive users and wrong passwords all yield
// ErrInvalidCredentials; the cause goes to the audit log only. While
// LockedUntil is in the future the attempt is refused with a *LockedError
// before the password is looked at, and the failure counter is left as is.
// Once the window has passed the lock and counter are cleared first. The
// MaxFailedAttempts-th consecutive failure locks the account for
// LockoutDuration.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	username := normalizeUsername(req.Username)

	var result *LoginResult
	err := s.update(ctx, func(ctx context.Context, c *store.Collections) error {
		users, err := c.ReadUsers(ctx)
		if err != nil {
			return err
		}

		user := store.BuildIndexes(users, nil).UsersByUsername[username]
		if user == nil || !user.IsActive {
			s.verifyDummy(ctx, req.Password)
			if err := s.audit(ctx, c, models.ActionLoginFailed, nil, username, "User not found or inactive"); err != nil {
				return err
			}
			return reject(ErrInvalidCredentials)
		}

		now := s.now()
		if user.LockedUntil != nil {
			if user.IsLocked(now) {
				return reject(&LockedError{Remaining: user.LockedUntil.Sub(now)})
			}
			user.FailedLoginAttempts = 0
			user.LockedUntil = nil
		}

		ok, err := s.hasher.Verify(ctx, req.Password, user.PasswordHash)
		if err != nil {
			return err
		}
		if !ok {
			return s.recordFailure(ctx, c, users, user, now)
		}

		user.FailedLoginAttempts = 0
		user.LockedUntil = nil
		user.LastLogin = ptr(now)
		user.UpdatedAt = now
		if err := c.WriteUsers(ctx, users); err != nil {
			return err
		}

		ttl := s.sessionTTL
		details := "Login"
		if req.RememberMe {
			ttl = s.rememberMeTTL
			details = "Login with remember me"
		}
		session, err := s.issueSession(ctx, c, user.ID, now, ttl)
		if err != nil {
			return err
		}
		if err := s.audit(ctx, c, models.ActionLoginSuccess, ptr(user.ID), user.Username, details); err != nil {
			return err
		}

		result = &LoginResult{
			User:         user.Public(),
			SessionToken: session.SessionToken,
			ExpiresAt:    session.ExpiresAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "login succeeded",
		"user_id", result.User.ID,
		"token", common.TokenPrefix(result.SessionToken),
		"remember_me", req.RememberMe)
	return result, nil
}

// recordFailure bumps the failure counter of user and either logs the
// failed attempt or locks the account.
func (s *Service) recordFailure(ctx context.Context, c *store.Collections, users []models.User, user *models.User, now time.Time) error {
	attempts := user.FailedLoginAttempts + 1
	user.FailedLoginAttempts = attempts

	if attempts >= s.maxFailedAttempts {
		user.LockedUntil = ptr(now.Add(s.lockoutDuration))
		if err := c.WriteUsers(ctx, users); err != nil {
			return err
		}
		details := fmt.Sprintf("Account locked after %d failed attempts", attempts)
		if err := s.audit(ctx, c, models.ActionAccountLocked, ptr(user.ID), user.Username, details); err != nil {
			return err
		}
		s.log.Warn(ctx, "account locked", "user_id", user.ID, "attempts", attempts, "until", *user.LockedUntil)
		return reject(&LockedError{Remaining: s.lockoutDuration})
	}

	if err := c.WriteUsers(ctx, users); err != nil {
		return err
	}
	details := fmt.Sprintf("Invalid password (attempt %d/%d)", attempts, s.maxFailedAttempts)
	if err := s.audit(ctx, c, models.ActionLoginFailed, ptr(user.ID), user.Username, details); err != nil {
		return err
	}
	return reject(ErrInvalidCredentials)
}

func (s *Service) issueSession(ctx context.Context, c *store.Collections, userID int64, now time.Time, ttl time.Duration) (*models.Session, error) {
	sessions, err := c.ReadSessions(ctx)
	if err != nil {
		return nil, err
	}
	token, err := s.newToken()
	if err != nil {
		return nil, fmt.Errorf("generate session token: %w", err)
	}
	id, err := c.NextSessionID(ctx, sessions)
	if err != nil {
		return nil, err
	}

	session := models.Session{
		ID:           id,
		UserID:       userID,
		SessionToken: token,
		ExpiresAt:    now.Add(ttl),
		CreatedAt:    now,
	}
	if err := c.WriteSessions(ctx, append(sessions, session)); err != nil {
		return nil, err
	}
	return &session, nil
}

// ValidateSession resolves token to its session and user. An expired
// session is deleted in the same transaction that finds it. Every failure
// is ErrInvalidSession.
func (s *Service) ValidateSession(ctx context.Context, token string) (*SessionInfo, error) {
	if token == "" {
		return nil, ErrInvalidSession
	}

	var info *SessionInfo
	err := s.update(ctx, func(ctx context.Context, c *store.Collections) error {
		users, err := c.ReadUsers(ctx)
		if err != nil {
			return err
		}
		sessions, err := c.ReadSessions(ctx)
		if err != nil {
			return err
		}

		session := store.BuildIndexes(nil, sessions).SessionsByToken[token]
		if session == nil {
			return reject(ErrInvalidSession)
		}
		if session.Expired(s.now()) {
			if err := c.WriteSessions(ctx, withoutToken(sessions, token)); err != nil {
				return err
			}
			s.log.Debug(ctx, "expired session purged", "token", common.TokenPrefix(token))
			return reject(ErrInvalidSession)
		}

		user := findUser(users, session.UserID)
		if user == nil || !user.IsActive {
			return reject(ErrInvalidSession)
		}

		info = &SessionInfo{
			User:         user.Public(),
			SessionToken: session.SessionToken,
			ExpiresAt:    session.ExpiresAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

// Logout ends the session holding token. Unknown and empty tokens are a
// successful no-op.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	return s.update(ctx, func(ctx context.Context, c *store.Collections) error {
		sessions, err := c.ReadSessions(ctx)
		if err != nil {
			return err
		}
		session := store.BuildIndexes(nil, sessions).SessionsByToken[token]
		if session == nil {
			return nil
		}

		users, err := c.ReadUsers(ctx)
		if err != nil {
			return err
		}
		userID := session.UserID
		if err := s.audit(ctx, c, models.ActionLogout, ptr(userID), actorLabel(users, userID), "User logged out"); err != nil {
			return err
		}
		s.log.Info(ctx, "logout", "user_id", userID, "token", common.TokenPrefix(token))
		return c.WriteSessions(ctx, withoutToken(sessions, token))
	})
}

// verifyDummy spends the same bcrypt work as a real password check, so an
// unknown username is not told apart by response time.
func (s *Service) verifyDummy(ctx context.Context, password string) {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash(ctx, "unknown-user")
		if err != nil {
			s.log.Warn(ctx, "dummy hash unavailable", "error", err)
			return
		}
		s.dummyHash = hash
	})
	if s.dummyHash != "" {
		_, _ = s.hasher.Verify(ctx, password, s.dummyHash)
	}
}

// CleanupExpiredSessions deletes every expired session and returns how
// many were removed.
func (s *Service) CleanupExpiredSessions(ctx context.Context) (int, error) {
	var removed int
	err := s.update(ctx, func(ctx context.Context, c *store.Collections) error {
		sessions, err := c.ReadSessions(ctx)
		if err != nil {
			return err
		}
		now := s.now()
		live := make([]models.Session, 0, len(sessions))
		for _, session := range sessions {
			if !session.Expired(now) {
				live = append(live, session)
			}
		}
		removed = len(sessions) - len(live)
		if removed == 0 {
			return nil
		}
		return c.WriteSessions(ctx, live)
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// RunSessionSweeper calls CleanupExpiredSessions now and then every
// CleanupInterval until ctx is done. Sweep failures are logged and the
// loop goes on.
func (s *Service) RunSessionSweeper(ctx context.Context) {
	s.sweep(ctx)

	ticker := s.clock.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Service) sweep(ctx context.Context) {
	removed, err := s.CleanupExpiredSessions(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.log.Error(ctx, "session sweep failed", "error", err)
		}
		return
	}
	if removed > 0 {
		s.log.Info(ctx, "expired sessions removed", "count", removed)
	}
}

func withoutToken(sessions []models.Session, token string) []models.Session {
	out := make([]models.Session, 0, len(sessions))
	for _, session := range sessions {
		if session.SessionToken != token {
			out = append(out, session)
		}
	}
	return out
}

func withoutUser(sessions []models.Session, userID int64, keepToken string) []models.Session {
	out := make([]models.Session, 0, len(sessions))
	for _, session := range sessions {
		if session.UserID != userID || (keepToken != "" && session.SessionToken == keepToken) {
			out = append(out, session)
		}
	}
	return out
}
