package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/communityos/ticketing/internal/model"
	"github.com/communityos/ticketing/internal/policy"
	"github.com/communityos/ticketing/internal/service/ports"
)

// UserService manages user records: bootstrap on first authentication and
// the admin-only role and deletion operations.
type UserService struct {
	users  ports.UserRepo
	policy *policy.Policy
	log    *slog.Logger
	now    func() time.Time
}

// NewUserService constructs a UserService.
func NewUserService(users ports.UserRepo, pol *policy.Policy, log *slog.Logger, now func() time.Time) *UserService {
	if now == nil {
		now = time.Now
	}
	return &UserService{users: users, policy: pol, log: log, now: now}
}

// EnsureUser returns the user for an authenticated email, creating the
// record with the base role on first sight. Safe under concurrent first
// logins: a duplicate insert falls back to the winning row.
func (s *UserService) EnsureUser(ctx context.Context, email, displayName string) (*model.AppUser, error) {
	if email == "" {
		return nil, fmt.Errorf("%w: field \"email\" is required", model.ErrValidation)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}

	user = &model.AppUser{
		ID:          uuid.New().String(),
		Email:       email,
		DisplayName: displayName,
		Role:        model.RoleUser,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, model.ErrDuplicate) {
			return s.users.GetByEmail(ctx, email)
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	s.log.Info("user created",
		slog.String("user_id", user.ID),
		slog.String("email", email),
	)
	return user, nil
}

// GetUser looks up a user by ID.
func (s *UserService) GetUser(ctx context.Context, id string) (*model.AppUser, error) {
	return s.users.GetByID(ctx, id)
}

// SetRole changes a user's role. Admin only, and never against the
// admin's own account.
func (s *UserService) SetRole(ctx context.Context, actor *model.AppUser, targetID string, role model.Role) (*model.AppUser, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: field \"role\": unknown role %q", model.ErrValidation, role)
	}
	if err := s.policy.RequireAdmin(actor); err != nil {
		return nil, err
	}
	if err := s.policy.RequireNotSelf(actor, targetID); err != nil {
		return nil, err
	}
	user, err := s.users.UpdateRole(ctx, targetID, role)
	if err != nil {
		return nil, err
	}
	s.log.Info("user role changed",
		slog.String("user_id", targetID),
		slog.String("role", string(role)),
		slog.String("admin_id", actor.ID),
	)
	return user, nil
}

// DeleteUser removes a user and, through the store cascade, their
// registrations and tickets. Admin only, never self.
func (s *UserService) DeleteUser(ctx context.Context, actor *model.AppUser, targetID string) error {
	if err := s.policy.RequireAdmin(actor); err != nil {
		return err
	}
	if err := s.policy.RequireNotSelf(actor, targetID); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, targetID); err != nil {
		return err
	}
	s.log.Info("user deleted",
		slog.String("user_id", targetID),
		slog.String("admin_id", actor.ID),
	)
	return nil
}
