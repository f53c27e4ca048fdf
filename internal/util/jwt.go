package util

import (
	"errors"
	"fmt"

	"github.com/dgrijalva/jwt-go"
)

// Claims carries the subject (user ID) we care about plus the standard set.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.StandardClaims
}

// ValidateJWT parses and verifies an HMAC-signed bearer token and returns its
// claims. The subject claim must be present; it identifies the learner.
func ValidateJWT(tokenString, secret string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("token is not valid")
	}
	if claims.Subject == "" {
		return nil, errors.New("token missing subject claim")
	}
	return claims, nil
}
