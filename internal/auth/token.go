package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the bearer token claim set issued by getToken.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

// signBearerToken issues an HS256-signed JWT embedding the user id,
// valid for ttl from now.
func signBearerToken(userID, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: userID,
	})
	return token.SignedString([]byte(secret))
}

// ParseBearerToken validates a token issued by signBearerToken and
// returns the embedded user id.
func ParseBearerToken(tokenString, secret string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", jwt.ErrTokenUnverifiable
	}
	return claims.UserID, nil
}
