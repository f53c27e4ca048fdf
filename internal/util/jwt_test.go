package util

import (
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
)

func signToken(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestValidateJWT(t *testing.T) {
	secret := "test-secret"
	token := signToken(t, secret, Claims{
		StandardClaims: jwt.StandardClaims{
			Subject:   "user-1",
			ExpiresAt: time.Now().Add(time.Hour).Unix(),
		},
	})

	claims, err := ValidateJWT(token, secret)
	if err != nil {
		t.Fatal(err)
	}
	if claims.Subject != "user-1" {
		t.Fatalf("unexpected subject %q", claims.Subject)
	}
}

func TestValidateJWTRejectsWrongSecret(t *testing.T) {
	token := signToken(t, "right-secret", Claims{
		StandardClaims: jwt.StandardClaims{Subject: "user-1"},
	})
	if _, err := ValidateJWT(token, "wrong-secret"); err == nil {
		t.Fatal("expected signature error")
	}
}

func TestValidateJWTRequiresSubject(t *testing.T) {
	secret := "test-secret"
	token := signToken(t, secret, Claims{})
	if _, err := ValidateJWT(token, secret); err == nil {
		t.Fatal("expected missing subject error")
	}
}

func TestValidateJWTRejectsExpired(t *testing.T) {
	secret := "test-secret"
	token := signToken(t, secret, Claims{
		StandardClaims: jwt.StandardClaims{
			Subject:   "user-1",
			ExpiresAt: time.Now().Add(-time.Hour).Unix(),
		},
	})
	if _, err := ValidateJWT(token, secret); err == nil {
		t.Fatal("expected expiry error")
	}
}
