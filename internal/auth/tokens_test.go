package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/courseloop/courseloop-api/internal/models"
)

func testUser() *models.User {
	return &models.User{
		ID:       "01HTEST00000000000000000000",
		Email:    "alice@example.com",
		Username: "alice",
		Role:     models.RoleStudent,
	}
}

func TestIssuePairAndVerify(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour, 24*time.Hour)

	pair, err := issuer.IssuePair(testUser())
	if err != nil {
		t.Fatalf("failed to issue pair: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected non-empty tokens")
	}
	if pair.AccessToken == pair.RefreshToken {
		t.Error("access and refresh tokens should differ")
	}

	claims, err := issuer.VerifyAccess(pair.AccessToken)
	if err != nil {
		t.Fatalf("failed to verify access token: %v", err)
	}
	if claims.Subject != "01HTEST00000000000000000000" {
		t.Errorf("Subject = %q", claims.Subject)
	}
	if claims.Username != "alice" || claims.Email != "alice@example.com" {
		t.Errorf("claims = %+v", claims)
	}
	if claims.Role != models.RoleStudent {
		t.Errorf("Role = %q, want student", claims.Role)
	}

	refreshClaims, err := issuer.VerifyRefresh(pair.RefreshToken)
	if err != nil {
		t.Fatalf("failed to verify refresh token: %v", err)
	}
	if refreshClaims.Subject != claims.Subject {
		t.Errorf("refresh subject = %q, want %q", refreshClaims.Subject, claims.Subject)
	}
}

func TestTokenKindsAreNotInterchangeable(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour, 24*time.Hour)

	pair, err := issuer.IssuePair(testUser())
	if err != nil {
		t.Fatalf("failed to issue pair: %v", err)
	}

	if _, err := issuer.VerifyAccess(pair.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("refresh token accepted as access token: %v", err)
	}
	if _, err := issuer.VerifyRefresh(pair.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("access token accepted as refresh token: %v", err)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour, 24*time.Hour)
	other := NewIssuer("other-secret", time.Hour, 24*time.Hour)

	pair, err := issuer.IssuePair(testUser())
	if err != nil {
		t.Fatalf("failed to issue pair: %v", err)
	}

	if _, err := other.VerifyAccess(pair.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	issuer := NewIssuer("test-secret", -time.Minute, 24*time.Hour)

	pair, err := issuer.IssuePair(testUser())
	if err != nil {
		t.Fatalf("failed to issue pair: %v", err)
	}

	if _, err := issuer.VerifyAccess(pair.AccessToken); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("expected ErrExpiredToken, got %v", err)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour, 24*time.Hour)

	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := issuer.VerifyAccess(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("VerifyAccess(%q) = %v, want ErrInvalidToken", token, err)
		}
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	if hash == "correct horse battery staple" {
		t.Fatal("hash should not equal plaintext")
	}

	if !CheckPassword(hash, "correct horse battery staple") {
		t.Error("expected matching password to verify")
	}
	if CheckPassword(hash, "wrong password") {
		t.Error("expected non-matching password to fail")
	}
	if CheckPassword("not-a-hash", "anything") {
		t.Error("expected malformed hash to fail")
	}
}
