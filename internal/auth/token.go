package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenIssuer is the issuer claim carried by every access token.
const TokenIssuer = "http://fwe.auth"

// TokenLifetime is the fixed validity window for access tokens.
const TokenLifetime = 3600 * time.Second

// AppClaims defines the custom claims included in our JWT. We embed
// jwt.RegisteredClaims for the standard 'ExpiresAt' and 'Issuer' claims;
// the id/email/username triple identifies the authenticated user without
// a database lookup.
type AppClaims struct {
	UserID   string `json:"id"`
	Email    string `json:"eMail"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// GenerateJWT creates a new signed JWT string for the given user identity.
func GenerateJWT(userID, email, username, secret string) (string, error) {
	claims := &AppClaims{
		UserID:   userID,
		Email:    email,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(TokenLifetime)),
			Issuer:    TokenIssuer,
		},
	}

	// HS256 (HMAC using SHA-256) is a common and secure signing method.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ValidateJWT parses and validates a JWT string. It checks the signature and
// standard claims like the expiration time, and returns the custom claims on
// success.
func ValidateJWT(tokenString string, secret string) (*AppClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AppClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Security check: ensure the token's signing method is what we expect.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})

	if err != nil {
		// Covers malformed tokens, invalid signatures and expired tokens.
		return nil, err
	}

	if claims, ok := token.Claims.(*AppClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}
