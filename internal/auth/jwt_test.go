package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestNewTokenManager(t *testing.T) {
	if _, err := NewTokenManager("", 0); err == nil {
		t.Error("Expected error when secret is empty")
	}

	m, err := NewTokenManager("secret", 0)
	if err != nil {
		t.Fatalf("Failed to create token manager: %v", err)
	}
	if m.ttl != defaultTokenTTL {
		t.Errorf("Expected default ttl %v, got %v", defaultTokenTTL, m.ttl)
	}
}

func TestTokenManager_RoundTrip(t *testing.T) {
	m, err := NewTokenManager("secret", time.Hour)
	if err != nil {
		t.Fatalf("Failed to create token manager: %v", err)
	}

	if _, err := m.GenerateClientToken(""); err == nil {
		t.Error("Expected error for empty client ID")
	}

	token, err := m.GenerateClientToken("subtitle-worker")
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("Failed to validate token: %v", err)
	}
	if claims.ClientID != "subtitle-worker" {
		t.Errorf("Expected client ID 'subtitle-worker', got '%s'", claims.ClientID)
	}
	if claims.Role != RoleClient {
		t.Errorf("Expected role '%s', got '%s'", RoleClient, claims.Role)
	}
}

func TestTokenManager_Rejects(t *testing.T) {
	m, _ := NewTokenManager("secret", time.Hour)
	other, _ := NewTokenManager("another-secret", time.Hour)

	token, err := other.GenerateClientToken("client")
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	if _, err := m.ValidateToken(token); err == nil {
		t.Error("Expected error for token signed with another secret")
	}

	if _, err := m.ValidateToken("not.a.token"); err == nil {
		t.Error("Expected error for garbage token")
	}

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &JWTClaims{
		ClientID: "client",
		Role:     RoleClient,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	signed, err := expired.SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	if _, err := m.ValidateToken(signed); err == nil {
		t.Error("Expected error for expired token")
	}
}
