package auth

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/rosterkeeper/internal/models"
	"github.com/dmitrijs2005/rosterkeeper/internal/permissions"
	"github.com/dmitrijs2005/rosterkeeper/internal/store"
)

// SetupRequest is the first-run form.
type SetupRequest struct {
	Username string
	Password string
	FullName string
	Email    string
}

// NeedsSetup reports whether no active admin exists.
func (s *Service) NeedsSetup(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.store.ReadUsers(ctx)
	if err != nil {
		return false, err
	}
	return !hasActiveAdmin(users), nil
}

// SetupInitialAdmin creates the first admin account and returns its ID.
// It fails with ErrAdminExists once any active admin exists.
func (s *Service) SetupInitialAdmin(ctx context.Context, req SetupRequest) (int64, error) {
	username := normalizeUsername(req.Username)
	fullName := strings.TrimSpace(req.FullName)

	if err := validateUsername(username); err != nil {
		return 0, err
	}
	if err := validateStrongPassword(req.Password); err != nil {
		return 0, err
	}
	if fullName == "" {
		return 0, ErrFullNameRequired
	}

	var id int64
	err := s.update(ctx, func(ctx context.Context, c *store.Collections) error {
		users, err := c.ReadUsers(ctx)
		if err != nil {
			return err
		}
		if hasActiveAdmin(users) {
			return reject(ErrAdminExists)
		}
		if _, taken := store.BuildIndexes(users, nil).UsersByUsername[username]; taken {
			return reject(ErrUsernameTaken)
		}

		hash, err := s.hasher.Hash(ctx, req.Password)
		if err != nil {
			return err
		}

		id, err = c.NextUserID(ctx, users)
		if err != nil {
			return err
		}
		now := s.now()
		users = append(users, models.User{
			ID:           id,
			Username:     username,
			PasswordHash: hash,
			FullName:     fullName,
			Email:        optionalString(req.Email),
			Role:         permissions.Admin,
			IsActive:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if err := c.WriteUsers(ctx, users); err != nil {
			return err
		}
		return s.audit(ctx, c, models.ActionSetupAdmin, ptr(id), username, "Initial admin account created")
	})
	if err != nil {
		return 0, err
	}

	s.log.Info(ctx, "initial admin created", "user_id", id, "username", username)
	return id, nil
}

func hasActiveAdmin(users []models.User) bool {
	for i := range users {
		if users[i].Role == permissions.Admin && users[i].IsActive {
			return true
		}
	}
	return false
}
