// Package auth mints and verifies the signed session tokens that replace
// server-side session state: every mutating request presents a token and the
// middleware resolves it to a user ID.
package auth

import (
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const TokenTTL = 72 * time.Hour

var ErrInvalidToken = errors.New("invalid or expired token")

// Secret reads the signing key from the environment on every call so tests
// can swap it per process.
func Secret() []byte {
	return []byte(os.Getenv("JWT_SECRET"))
}

// GenerateToken returns a signed HS256 token carrying the user identity.
func GenerateToken(userID int, email string, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"email":   email,
		"exp":     time.Now().Add(ttl).Unix(),
	})
	return token.SignedString(Secret())
}

// ParseToken verifies a token and returns the embedded user ID and email.
func ParseToken(tokenString string) (int, string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return Secret(), nil
	})
	if err != nil || !token.Valid {
		return 0, "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", ErrInvalidToken
	}

	rawID, ok := claims["user_id"].(float64)
	if !ok {
		return 0, "", ErrInvalidToken
	}
	email, _ := claims["email"].(string)

	return int(rawID), email, nil
}
