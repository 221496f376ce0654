package utils

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestJWTRoundTrip(t *testing.T) {
	SetJWTSecret(strings.Repeat("k", 32))

	token, err := GenerateJWTToken("65f0c0ffee", "alice@example.com", "moderator")
	if err != nil {
		t.Fatalf("GenerateJWTToken failed: %v", err)
	}
	claims, err := ParseJWTToken(token)
	if err != nil {
		t.Fatalf("ParseJWTToken failed: %v", err)
	}
	if claims.UserID != "65f0c0ffee" || claims.Email != "alice@example.com" || claims.Role != "moderator" {
		t.Errorf("Unexpected claims: %+v", claims)
	}
}

func TestParseJWTTokenRejectsTampering(t *testing.T) {
	SetJWTSecret(strings.Repeat("k", 32))
	token, _ := GenerateJWTToken("user", "a@example.com", "user")

	SetJWTSecret(strings.Repeat("z", 32))
	if _, err := ParseJWTToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken for a different secret, got %v", err)
	}
	if _, err := ParseJWTToken("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken for garbage, got %v", err)
	}
}

func TestParseJWTTokenExpired(t *testing.T) {
	secret := strings.Repeat("k", 32)
	SetJWTSecret(secret)

	claims := &Claims{
		UserID: "user",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	if _, err := ParseJWTToken(token); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("Expected ErrTokenExpired, got %v", err)
	}
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("granite-42")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if !CheckPasswordHash("granite-42", hash) {
		t.Errorf("Expected password to match its hash")
	}
	if CheckPasswordHash("basalt-42", hash) {
		t.Errorf("Expected wrong password to fail")
	}
}
