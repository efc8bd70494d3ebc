package utils

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AdminClaims are the claims carried by admin bearer tokens. Tokens are
// issued by the operations tooling, not by this service; we only validate.
type AdminClaims struct {
	Subject string `json:"sub_name,omitempty"`
	jwt.RegisteredClaims
}

// GenerateJWT signs an admin token valid for the given duration.
func GenerateJWT(secret, subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := AdminClaims{
		Subject: subject,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ValidateJWT parses and validates an admin token.
func ValidateJWT(tokenString, secret string) (*AdminClaims, error) {
	claims := &AdminClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
