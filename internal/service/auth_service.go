package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"perfume-admin/internal/cache"
	"perfume-admin/internal/models"
	"perfume-admin/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuthService holds the admin session. Login is a stub: any non-empty credentials
// produce a locally fabricated session stored in the shared cache.
type AuthService struct {
	cache  cache.Store
	clock  func() time.Time
	logger *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(store cache.Store) *AuthService {
	return &AuthService{
		cache:  store,
		clock:  time.Now,
		logger: util.GetLogger(),
	}
}

// Login fabricates an admin session for the given credentials
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.Admin, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, models.ErrInvalidLogin
	}

	admin := &models.Admin{
		ID:         uuid.New().String(),
		Name:       displayName(email),
		Email:      email,
		Token:      uuid.New().String(),
		LoggedInAt: s.clock().UTC(),
	}
	if err := cache.SetJSON(ctx, s.cache, cache.KeySession, admin); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	s.logger.Info("Admin logged in", zap.String("admin_id", admin.ID), zap.String("email", email))
	return admin, nil
}

// Me returns the current session
func (s *AuthService) Me(ctx context.Context) (*models.Admin, error) {
	var admin models.Admin
	found, err := cache.GetJSON(ctx, s.cache, cache.KeySession, &admin)
	if err != nil {
		return nil, err
	}
	if !found || admin.Token == "" {
		return nil, models.ErrNotLoggedIn
	}
	return &admin, nil
}

// Logout drops the session
func (s *AuthService) Logout(ctx context.Context) error {
	if err := s.cache.Delete(ctx, cache.KeySession); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	s.logger.Info("Admin logged out")
	return nil
}

// Token returns the bearer token of the current session, or "" when logged out
func (s *AuthService) Token(ctx context.Context) string {
	admin, err := s.Me(ctx)
	if err != nil {
		return ""
	}
	return admin.Token
}

// displayName turns "jane.doe@example.com" into "Jane Doe"
func displayName(email string) string {
	local := email
	if at := strings.IndexByte(email, '@'); at >= 0 {
		local = email[:at]
	}
	words := strings.FieldsFunc(local, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	if len(words) == 0 {
		return "Admin"
	}
	return strings.Join(words, " ")
}
