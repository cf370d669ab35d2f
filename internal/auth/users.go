package auth

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dmitrijs2005/rosterkeeper/internal/common"
	"github.com/dmitrijs2005/rosterkeeper/internal/models"
	"github.com/dmitrijs2005/rosterkeeper/internal/permissions"
	"github.com/dmitrijs2005/rosterkeeper/internal/store"
)

// CreateUserRequest is the admin "new user" form.
type CreateUserRequest struct {
	Username string
	Password string
	FullName string
	Email    string
	Role     permissions.Role
}

// UserUpdate lists the editable profile fields; nil leaves a field as is.
// An empty Email clears it.
type UserUpdate struct {
	FullName *string
	Email    *string
	Role     *permissions.Role
	IsActive *bool
}

// GetAllUsers lists every account, ordered by ID, without password hashes.
func (s *Service) GetAllUsers(ctx context.Context) ([]models.UserSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.store.ReadUsers(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })

	out := make([]models.UserSummary, 0, len(users))
	for i := range users {
		out = append(out, users[i].Summary())
	}
	return out, nil
}

// GetUser returns one account without its password hash.
func (s *Service) GetUser(ctx context.Context, id int64) (*models.UserSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.store.ReadUsers(ctx)
	if err != nil {
		return nil, err
	}
	user := findUser(users, id)
	if user == nil {
		return nil, ErrUserNotFound
	}
	summary := user.Summary()
	return &summary, nil
}

// CreateUser adds an active account on behalf of actorID.
func (s *Service) CreateUser(ctx context.Context, req CreateUserRequest, actorID int64) (*models.UserSummary, error) {
	username := normalizeUsername(req.Username)

	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validatePasswordLength(req.Password); err != nil {
		return nil, err
	}
	if err := validateRole(req.Role); err != nil {
		return nil, err
	}

	var created models.UserSummary
	err := s.update(ctx, func(ctx context.Context, c *store.Collections) error {
		users, err := c.ReadUsers(ctx)
		if err != nil {
			return err
		}
		if _, taken := store.BuildIndexes(users, nil).UsersByUsername[username]; taken {
			return reject(ErrUsernameTaken)
		}

		hash, err := s.hasher.Hash(ctx, req.Password)
		if err != nil {
			return err
		}
		id, err := c.NextUserID(ctx, users)
		if err != nil {
			return err
		}

		now := s.now()
		user := models.User{
			ID:           id,
			Username:     username,
			PasswordHash: hash,
			FullName:     strings.TrimSpace(req.FullName),
			Email:        optionalString(req.Email),
			Role:         req.Role,
			IsActive:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		users = append(users, user)
		if err := c.WriteUsers(ctx, users); err != nil {
			return err
		}

		details := fmt.Sprintf("Created user: %s (%s)", user.Username, user.Role)
		if err := s.audit(ctx, c, models.ActionUserCreated, ptr(actorID), actorLabel(users, actorID), details); err != nil {
			return err
		}
		created = user.Summary()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "user created", "user_id", created.ID, "role", created.Role, "actor_id", actorID)
	return &created, nil
}

// UpdateUser edits profile fields, role and active flag. The last active
// admin can be neither demoted nor deactivated.
func (s *Service) UpdateUser(ctx context.Context, id int64, upd UserUpdate, actorID int64) (*models.UserSummary, error) {
	if upd.Role != nil {
		if err := validateRole(*upd.Role); err != nil {
			return nil, err
		}
	}

	var updated models.UserSummary
	err := s.update(ctx, func(ctx context.Context, c *store.Collections) error {
		users, err := c.ReadUsers(ctx)
		if err != nil {
			return err
		}
		user := findUser(users, id)
		if user == nil {
			return reject(ErrUserNotFound)
		}

		wasActiveAdmin := user.IsActive && user.Role == permissions.Admin
		if upd.FullName != nil {
			user.FullName = strings.TrimSpace(*upd.FullName)
		}
		if upd.Email != nil {
			user.Email = optionalString(*upd.Email)
		}
		if upd.Role != nil {
			user.Role = *upd.Role
		}
		if upd.IsActive != nil {
			user.IsActive = *upd.IsActive
		}
		if wasActiveAdmin && !hasActiveAdmin(users) {
			return reject(ErrLastAdmin)
		}

		user.UpdatedAt = s.now()
		if err := c.WriteUsers(ctx, users); err != nil {
			return err
		}

		details := fmt.Sprintf("Updated user: %s", user.Username)
		if err := s.audit(ctx, c, models.ActionUserUpdated, ptr(actorID), actorLabel(users, actorID), details); err != nil {
			return err
		}
		updated = user.Summary()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// ResetPassword sets a new password for user id, clears its lockout and
// ends every session it holds.
func (s *Service) ResetPassword(ctx context.Context, id int64, newPassword string, actorID int64) error {
	if err := validatePasswordLength(newPassword); err != nil {
		return err
	}

	var removed int
	err := s.update(ctx, func(ctx context.Context, c *store.Collections) error {
		users, err := c.ReadUsers(ctx)
		if err != nil {
			return err
		}
		user := findUser(users, id)
		if user == nil {
			return reject(ErrUserNotFound)
		}

		hash, err := s.hasher.Hash(ctx, newPassword)
		if err != nil {
			return err
		}
		user.PasswordHash = hash
		user.FailedLoginAttempts = 0
		user.LockedUntil = nil
		user.UpdatedAt = s.now()
		if err := c.WriteUsers(ctx, users); err != nil {
			return err
		}

		if removed, err = s.dropSessions(ctx, c, id, ""); err != nil {
			return err
		}

		details := fmt.Sprintf("Reset password for user: %s", user.Username)
		return s.audit(ctx, c, models.ActionPasswordReset, ptr(actorID), actorLabel(users, actorID), details)
	})
	if err != nil {
		return err
	}

	s.log.Info(ctx, "password reset", "user_id", id, "actor_id", actorID, "sessions_revoked", removed)
	return nil
}

// ChangePassword lets the holder of token replace their own password. The
// new password must pass the complexity rule and differ from the current
// one. It clears RequirePasswordChange and ends the user's other sessions.
func (s *Service) ChangePassword(ctx context.Context, token, current, newPassword string) error {
	if err := validateStrongPassword(newPassword); err != nil {
		return err
	}
	if newPassword == current {
		return ErrPasswordUnchanged
	}

	return s.update(ctx, func(ctx context.Context, c *store.Collections) error {
		users, err := c.ReadUsers(ctx)
		if err != nil {
			return err
		}
		sessions, err := c.ReadSessions(ctx)
		if err != nil {
			return err
		}
		session := store.BuildIndexes(nil, sessions).SessionsByToken[token]
		if session == nil || session.Expired(s.now()) {
			return reject(ErrInvalidSession)
		}
		user := findUser(users, session.UserID)
		if user == nil || !user.IsActive {
			return reject(ErrInvalidSession)
		}

		ok, err := s.hasher.Verify(ctx, current, user.PasswordHash)
		if err != nil {
			return err
		}
		if !ok {
			return reject(ErrWrongPassword)
		}

		hash, err := s.hasher.Hash(ctx, newPassword)
		if err != nil {
			return err
		}
		user.PasswordHash = hash
		user.RequirePasswordChange = false
		user.FailedLoginAttempts = 0
		user.LockedUntil = nil
		user.UpdatedAt = s.now()
		if err := c.WriteUsers(ctx, users); err != nil {
			return err
		}
		if _, err := s.dropSessions(ctx, c, user.ID, token); err != nil {
			return err
		}

		s.log.Info(ctx, "password changed", "user_id", user.ID, "token", common.TokenPrefix(token))
		return s.audit(ctx, c, models.ActionPasswordReset, ptr(user.ID), user.Username, "Changed own password")
	})
}

// UnlockAccount clears the lockout state of user id.
func (s *Service) UnlockAccount(ctx context.Context, id int64, actorID int64) error {
	return s.update(ctx, func(ctx context.Context, c *store.Collections) error {
		users, err := c.ReadUsers(ctx)
		if err != nil {
			return err
		}
		user := findUser(users, id)
		if user == nil {
			return reject(ErrUserNotFound)
		}

		user.FailedLoginAttempts = 0
		user.LockedUntil = nil
		user.UpdatedAt = s.now()
		if err := c.WriteUsers(ctx, users); err != nil {
			return err
		}

		details := fmt.Sprintf("Unlocked account: %s", user.Username)
		return s.audit(ctx, c, models.ActionAccountUnlocked, ptr(actorID), actorLabel(users, actorID), details)
	})
}

// ListAudit returns up to limit audit entries, newest first; limit <= 0
// returns all.
func (s *Service) ListAudit(ctx context.Context, limit int) ([]models.AuditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.store.ReadAuditPage(ctx, limit)
}

// dropSessions deletes the sessions of userID except the one holding
// keepToken and returns how many went.
func (s *Service) dropSessions(ctx context.Context, c *store.Collections, userID int64, keepToken string) (int, error) {
	sessions, err := c.ReadSessions(ctx)
	if err != nil {
		return 0, err
	}
	kept := withoutUser(sessions, userID, keepToken)
	if len(kept) == len(sessions) {
		return 0, nil
	}
	return len(sessions) - len(kept), c.WriteSessions(ctx, kept)
}
