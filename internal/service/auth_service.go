package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/courseloop/courseloop-api/internal/auth"
	"github.com/courseloop/courseloop-api/internal/config"
	"github.com/courseloop/courseloop-api/internal/models"
	"github.com/courseloop/courseloop-api/internal/repository"
)

// Auth service errors.
var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidRole        = errors.New("role must be student or instructor")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// AuthService handles registration, login and token refresh.
type AuthService struct {
	cfg    *config.Config
	repos  *repository.Repositories
	issuer *auth.Issuer
	logger *slog.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(cfg *config.Config, repos *repository.Repositories, issuer *auth.Issuer, logger *slog.Logger) *AuthService {
	return &AuthService{
		cfg:    cfg,
		repos:  repos,
		issuer: issuer,
		logger: logger,
	}
}

// Register creates a new student or instructor account and returns the user
// with a fresh token pair. Admin accounts cannot be self-registered.
func (s *AuthService) Register(ctx context.Context, email, username, password string, role models.Role) (*models.User, *auth.TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.TrimSpace(username)

	if role == "" {
		role = models.RoleStudent
	}
	if !role.SelfAssignable() {
		return nil, nil, ErrInvalidRole
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// Pre-check for a friendly error; the unique index is the real guarantee.
	if existing, err := s.repos.User.GetByEmail(ctx, email); err != nil {
		return nil, nil, fmt.Errorf("failed to check email: %w", err)
	} else if existing != nil {
		return nil, nil, ErrEmailTaken
	}
	if existing, err := s.repos.User.GetByUsername(ctx, username); err != nil {
		return nil, nil, fmt.Errorf("failed to check username: %w", err)
	} else if existing != nil {
		return nil, nil, ErrUsernameTaken
	}

	user := &models.User{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.repos.User.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, nil, ErrEmailTaken
		}
		return nil, nil, fmt.Errorf("failed to create user: %w", err)
	}

	pair, err := s.issuer.IssuePair(user)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("user registered", "user_id", user.ID, "role", user.Role)
	return user, pair, nil
}

// Login verifies credentials and returns the user with a fresh token pair.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, *auth.TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.repos.User.GetByEmail(ctx, email)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, password) {
		return nil, nil, ErrInvalidCredentials
	}

	pair, err := s.issuer.IssuePair(user)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("user logged in", "user_id", user.ID)
	return user, pair, nil
}

// Refresh exchanges a valid refresh token for a new token pair. Claims are
// re-read from the database so role changes take effect on rotation.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*models.User, *auth.TokenPair, error) {
	claims, err := s.issuer.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, nil, err
	}

	user, err := s.repos.User.GetByID(ctx, claims.Subject)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, nil, auth.ErrInvalidToken
	}

	pair, err := s.issuer.IssuePair(user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// VerifyAccess validates an access token. Used by the auth middleware.
func (s *AuthService) VerifyAccess(tokenString string) (*auth.Claims, error) {
	return s.issuer.VerifyAccess(tokenString)
}

// EnsureAdmin creates the bootstrap admin account if it does not exist.
// A no-op when the admin credentials are not configured.
func (s *AuthService) EnsureAdmin(ctx context.Context) error {
	if s.cfg.AdminEmail == "" || s.cfg.AdminPassword == "" {
		s.logger.Debug("admin bootstrap skipped, ADMIN_EMAIL/ADMIN_PASSWORD not set")
		return nil
	}

	email := strings.ToLower(s.cfg.AdminEmail)
	existing, err := s.repos.User.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to check admin account: %w", err)
	}
	if existing != nil {
		return nil
	}

	hash, err := auth.HashPassword(s.cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := &models.User{
		Email:        email,
		Username:     s.cfg.AdminUsername,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
	}
	if err := s.repos.User.Create(ctx, admin); err != nil {
		// Another instance may have won the race
		if errors.Is(err, repository.ErrDuplicate) {
			return nil
		}
		return fmt.Errorf("failed to create admin account: %w", err)
	}

	s.logger.Info("admin account created", "email", email)
	return nil
}
