// Package auth provides JWT issuance and verification plus password hashing.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/courseloop/courseloop-api/internal/models"
)

// Common auth errors.
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// TokenKind distinguishes short-lived access tokens from refresh tokens.
// A refresh token can only be exchanged for a new pair, never used to
// authenticate a request directly.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// Claims are the JWT claims embedded in every token we issue.
type Claims struct {
	Username string      `json:"username,omitempty"`
	Email    string      `json:"email,omitempty"`
	Role     models.Role `json:"role"`
	Kind     TokenKind   `json:"kind"`
	jwt.RegisteredClaims
}

// TokenPair is an access/refresh token pair returned on login and refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Issuer signs and verifies HS256 tokens. Refresh tokens are signed with a
// key derived from the base secret so a leaked access token can never be
// replayed as a refresh token.
type Issuer struct {
	accessKey     []byte
	refreshKey    []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

// NewIssuer creates a token issuer from the shared secret.
func NewIssuer(secret string, accessExpiry, refreshExpiry time.Duration) *Issuer {
	return &Issuer{
		accessKey:     []byte(secret),
		refreshKey:    []byte(secret + "/refresh"),
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
	}
}

// IssuePair issues an access/refresh token pair for the given user.
func (i *Issuer) IssuePair(user *models.User) (*TokenPair, error) {
	now := time.Now().UTC()
	accessExp := now.Add(i.accessExpiry)

	access, err := i.sign(user, TokenKindAccess, now, accessExp, i.accessKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}
	refresh, err := i.sign(user, TokenKindRefresh, now, now.Add(i.refreshExpiry), i.refreshKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    accessExp,
	}, nil
}

// VerifyAccess validates an access token and returns its claims.
func (i *Issuer) VerifyAccess(tokenString string) (*Claims, error) {
	return i.verify(tokenString, TokenKindAccess, i.accessKey)
}

// VerifyRefresh validates a refresh token and returns its claims.
func (i *Issuer) VerifyRefresh(tokenString string) (*Claims, error) {
	return i.verify(tokenString, TokenKindRefresh, i.refreshKey)
}

func (i *Issuer) sign(user *models.User, kind TokenKind, issuedAt, expiresAt time.Time, key []byte) (string, error) {
	claims := &Claims{
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
		Kind:     kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}

func (i *Issuer) verify(tokenString string, kind TokenKind, key []byte) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return key, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid || claims.Kind != kind || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
