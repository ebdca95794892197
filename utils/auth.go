package utils

import (
	"errors"
	"time"

	"github.com/dgrijalva/jwt-go"
)

// JwtKey signs back-office tokens. main sets it from JWT_SECRET.
var JwtKey = []byte("your_secret_key")

// TokenTTL is how long a back-office login lasts
const TokenTTL = 24 * time.Hour

// Claims represents the JWT claims
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.StandardClaims
}

// GenerateJWT generates a JWT token for a user
func GenerateJWT(email, role string) (string, error) {
	expirationTime := time.Now().Add(TokenTTL)
	claims := &Claims{
		Email: email,
		Role:  role,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: expirationTime.Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(JwtKey)
}

// ParseJWT verifies tokenStr and returns its claims
func ParseJWT(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return JwtKey, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
