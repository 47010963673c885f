package service

import (
	"context"
	"errors"
	"fmt"

	"perfume-admin/internal/cache"
	"perfume-admin/internal/models"
	"perfume-admin/internal/util"

	"go.uber.org/zap"
)

// UserBackend is the part of the storefront backend used for accounts
type UserBackend interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	CreateUser(ctx context.Context, in models.UserInput) (models.User, error)
	UpdateUser(ctx context.Context, id string, in models.UserInput) (models.User, error)
	DeleteUser(ctx context.Context, id string) error
	SetUserStatus(ctx context.Context, id string, status models.UserStatus) (models.User, error)
}

// UserList is a user listing and where it came from
type UserList struct {
	Users     []models.User `json:"users"`
	Source    string        `json:"source"`
	Notice    string        `json:"notice,omitempty"`
	AuthError bool          `json:"authError,omitempty"`
}

// UserService manages accounts through the backend and mirrors the list into the
// local cache so it stays readable while the backend is down.
type UserService struct {
	backend UserBackend
	cache   cache.Store
	logger  *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(backend UserBackend, store cache.Store) *UserService {
	return &UserService{
		backend: backend,
		cache:   store,
		logger:  util.GetLogger(),
	}
}

// List returns the backend's users, or the cached list when the backend fails
func (s *UserService) List(ctx context.Context) (*UserList, error) {
	ctx, span := util.StartSpan(ctx, "UserService.List")
	defer span.End()

	users, err := s.backend.ListUsers(ctx)
	if err == nil {
		if users == nil {
			users = []models.User{}
		}
		s.save(ctx, users)
		return &UserList{Users: users, Source: SourceRemote}, nil
	}

	list := &UserList{Users: []models.User{}, Source: SourceCache, Notice: NoticeCachedData}
	if errors.Is(err, models.ErrUnauthorized) {
		list.Notice, list.AuthError = NoticeReauth, true
	}
	s.logger.Warn("User fetch failed, using cached users", zap.Error(err))

	cached, cacheErr := s.cached(ctx)
	if cacheErr != nil {
		s.logger.Warn("Ignoring unreadable user cache", zap.Error(cacheErr))
		return list, nil
	}
	if cached != nil {
		list.Users = cached
	}
	return list, nil
}

// Create validates the form and creates the account
func (s *UserService) Create(ctx context.Context, in models.UserInput) (models.User, error) {
	ctx, span := util.StartSpan(ctx, "UserService.Create")
	defer span.End()

	if err := validateInput(in); err != nil {
		return models.User{}, err
	}

	u, err := s.backend.CreateUser(ctx, in)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	s.upsertCached(ctx, u)
	s.logger.Info("User created", zap.String("user_id", u.ID), zap.String("email", u.Email))
	return u, nil
}

// Update validates the form and updates the account
func (s *UserService) Update(ctx context.Context, id string, in models.UserInput) (models.User, error) {
	ctx, span := util.StartSpan(ctx, "UserService.Update")
	defer span.End()

	if err := validateInput(in); err != nil {
		return models.User{}, err
	}

	u, err := s.backend.UpdateUser(ctx, id, in)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to update user %s: %w", id, err)
	}
	if u.ID == "" {
		u.ID = id
	}

	s.upsertCached(ctx, u)
	s.logger.Info("User updated", zap.String("user_id", id))
	return u, nil
}

// SetStatus changes the account status
func (s *UserService) SetStatus(ctx context.Context, id, status string) (models.User, error) {
	ctx, span := util.StartSpan(ctx, "UserService.SetStatus")
	defer span.End()

	st := models.UserStatus(status)
	switch st {
	case models.UserStatusActive, models.UserStatusInactive, models.UserStatusSuspended:
	default:
		return models.User{}, fmt.Errorf("%w: %q", models.ErrInvalidStatus, status)
	}

	u, err := s.backend.SetUserStatus(ctx, id, st)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to set status of user %s: %w", id, err)
	}
	if u.ID == "" {
		u.ID = id
	}
	if u.Status == "" {
		u.Status = st
	}

	s.upsertCached(ctx, u)
	s.logger.Info("User status changed", zap.String("user_id", id), zap.String("status", status))
	return u, nil
}

// Delete removes the account
func (s *UserService) Delete(ctx context.Context, id string) error {
	ctx, span := util.StartSpan(ctx, "UserService.Delete")
	defer span.End()

	if err := s.backend.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("failed to delete user %s: %w", id, err)
	}

	cached, err := s.cached(ctx)
	if err == nil && cached != nil {
		kept := cached[:0]
		for _, u := range cached {
			if u.ID != id {
				kept = append(kept, u)
			}
		}
		s.save(ctx, kept)
	}

	s.logger.Info("User deleted", zap.String("user_id", id))
	return nil
}

func (s *UserService) cached(ctx context.Context) ([]models.User, error) {
	var users []models.User
	found, err := cache.GetJSON(ctx, s.cache, cache.KeyUsers, &users)
	if err != nil || !found {
		return nil, err
	}
	return users, nil
}

// upsertCached replaces or appends u in the cached list
func (s *UserService) upsertCached(ctx context.Context, u models.User) {
	cached, err := s.cached(ctx)
	if err != nil {
		s.logger.Warn("Replacing unreadable user cache", zap.Error(err))
		cached = nil
	}

	replaced := false
	for i := range cached {
		if cached[i].ID == u.ID {
			cached[i] = u
			replaced = true
		}
	}
	if !replaced {
		cached = append(cached, u)
	}
	s.save(ctx, cached)
}

func (s *UserService) save(ctx context.Context, users []models.User) {
	if err := cache.SetJSON(ctx, s.cache, cache.KeyUsers, users); err != nil {
		s.logger.Error("Failed to write user cache", zap.Error(err))
	}
}
