package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// HostClaims identifies the commerce host calling the provider API.
type HostClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateHostToken mints an HS256 token for subject. Used by operators and
// tests; the host normally brings its own token.
func GenerateHostToken(subject, role, secretKey string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &HostClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    AppName,
			Subject:   subject,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secretKey))
}

func ValidateToken(tokenString, secretKey string) (*HostClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &HostClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.New(ErrTokenExpired)
		}
		return nil, err
	}

	if claims, ok := token.Claims.(*HostClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New(ErrInvalidToken)
}
