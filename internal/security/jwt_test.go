package security

import (
	"errors"
	"testing"
	"time"
)

func TestUserTokenRoundTrip(t *testing.T) {
	token, errGen := GenerateToken("test-secret", 7, "asha", "Asha Rao", time.Hour)
	if errGen != nil {
		t.Fatalf("generate token: %v", errGen)
	}

	claims, errParse := ParseToken("test-secret", token)
	if errParse != nil {
		t.Fatalf("parse token: %v", errParse)
	}
	if claims.UserID != 7 || claims.Username != "asha" || claims.Name != "Asha Rao" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.Issuer != "messdesk" {
		t.Fatalf("unexpected issuer: %q", claims.Issuer)
	}
}

func TestAdminTokenRoundTrip(t *testing.T) {
	token, errGen := GenerateAdminToken("test-secret", 3, "manager", true, time.Hour)
	if errGen != nil {
		t.Fatalf("generate token: %v", errGen)
	}

	claims, errParse := ParseAdminToken("test-secret", token)
	if errParse != nil {
		t.Fatalf("parse token: %v", errParse)
	}
	if claims.AdminID != 3 || claims.Username != "manager" || !claims.SuperAdmin {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	token, errGen := GenerateToken("test-secret", 7, "asha", "Asha Rao", time.Hour)
	if errGen != nil {
		t.Fatalf("generate token: %v", errGen)
	}

	if _, errParse := ParseToken("other-secret", token); !errors.Is(errParse, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", errParse)
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	token, errGen := GenerateToken("test-secret", 7, "asha", "Asha Rao", -time.Minute)
	if errGen != nil {
		t.Fatalf("generate token: %v", errGen)
	}

	if _, errParse := ParseToken("test-secret", token); !errors.Is(errParse, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", errParse)
	}
}

func TestTokenAudienceSeparation(t *testing.T) {
	userToken, errGen := GenerateToken("test-secret", 7, "asha", "Asha Rao", time.Hour)
	if errGen != nil {
		t.Fatalf("generate token: %v", errGen)
	}

	claims, errParse := ParseAdminToken("test-secret", userToken)
	if errParse != nil {
		t.Fatalf("parse token: %v", errParse)
	}
	if claims.AdminID != 0 {
		t.Fatalf("user token parsed with admin id %d", claims.AdminID)
	}
}
