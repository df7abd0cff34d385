package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/courseloop/courseloop-api/internal/auth"
	"github.com/courseloop/courseloop-api/internal/models"
	"github.com/courseloop/courseloop-api/internal/service"
)

// AuthHandler handles registration, login and token refresh.
type AuthHandler struct {
	authSvc *service.AuthService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authSvc *service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// TokenResponse is the body returned whenever tokens are issued.
type TokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresAt    time.Time    `json:"expires_at"`
	User         *models.User `json:"user"`
}

// RegisterInput represents a registration request.
type RegisterInput struct {
	Body struct {
		Email    string `json:"email" format:"email" doc:"Account email address"`
		Username string `json:"username" minLength:"3" maxLength:"30" doc:"Public display name"`
		Password string `json:"password" minLength:"8" maxLength:"72" doc:"Account password"`
		Role     string `json:"role,omitempty" enum:"student,instructor" doc:"Account role, defaults to student"`
	}
}

// RegisterOutput represents a registration response.
type RegisterOutput struct {
	Status int
	Body   TokenResponse
}

// Register creates a new student or instructor account.
func (h *AuthHandler) Register(ctx context.Context, input *RegisterInput) (*RegisterOutput, error) {
	user, pair, err := h.authSvc.Register(ctx, input.Body.Email, input.Body.Username, input.Body.Password, models.Role(input.Body.Role))
	switch {
	case errors.Is(err, service.ErrEmailTaken), errors.Is(err, service.ErrUsernameTaken):
		return nil, huma.Error409Conflict(err.Error())
	case errors.Is(err, service.ErrInvalidRole):
		return nil, huma.Error422UnprocessableEntity(err.Error())
	case err != nil:
		return nil, huma.Error500InternalServerError("failed to register")
	}

	return &RegisterOutput{
		Status: 201,
		Body:   tokenResponse(user, pair),
	}, nil
}

// LoginInput represents a login request.
type LoginInput struct {
	Body struct {
		Email    string `json:"email" format:"email"`
		Password string `json:"password"`
	}
}

// LoginOutput represents a login response.
type LoginOutput struct {
	Body TokenResponse
}

// Login authenticates a user and issues a token pair.
func (h *AuthHandler) Login(ctx context.Context, input *LoginInput) (*LoginOutput, error) {
	user, pair, err := h.authSvc.Login(ctx, input.Body.Email, input.Body.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		return nil, huma.Error401Unauthorized("invalid email or password")
	}
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to login")
	}
	return &LoginOutput{Body: tokenResponse(user, pair)}, nil
}

// RefreshInput represents a token refresh request.
type RefreshInput struct {
	Body struct {
		RefreshToken string `json:"refresh_token"`
	}
}

// RefreshOutput represents a token refresh response.
type RefreshOutput struct {
	Body TokenResponse
}

// Refresh exchanges a refresh token for a new token pair.
func (h *AuthHandler) Refresh(ctx context.Context, input *RefreshInput) (*RefreshOutput, error) {
	user, pair, err := h.authSvc.Refresh(ctx, input.Body.RefreshToken)
	if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrExpiredToken) {
		return nil, huma.Error401Unauthorized("invalid refresh token")
	}
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to refresh tokens")
	}
	return &RefreshOutput{Body: tokenResponse(user, pair)}, nil
}

// MeOutput represents the current user response.
type MeOutput struct {
	Body struct {
		ID       string      `json:"id"`
		Email    string      `json:"email"`
		Username string      `json:"username"`
		Role     models.Role `json:"role"`
	}
}

// Me returns the authenticated user's identity from their token.
func (h *AuthHandler) Me(ctx context.Context, input *struct{}) (*MeOutput, error) {
	claims := getUserClaims(ctx)
	if claims == nil {
		return nil, huma.Error401Unauthorized("unauthorized")
	}
	out := &MeOutput{}
	out.Body.ID = claims.UserID
	out.Body.Email = claims.Email
	out.Body.Username = claims.Username
	out.Body.Role = claims.Role
	return out, nil
}

func tokenResponse(user *models.User, pair *auth.TokenPair) TokenResponse {
	return TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt,
		User:         user,
	}
}
