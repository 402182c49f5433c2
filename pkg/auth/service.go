package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

/*
Validator checks bearer tokens on API requests. Tokens are HS256-signed
with a shared secret; a token bucket caps validation attempts so a flood
of bad credentials cannot monopolize the server.
*/
type Validator struct {
	signingKey  []byte
	rateLimiter *RateLimiter
}

func NewValidator(secret string) *Validator {
	return &Validator{
		signingKey:  []byte(secret),
		rateLimiter: NewRateLimiter(100, time.Minute),
	}
}

func (v *Validator) getSigningKey(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return v.signingKey, nil
}

/*
ValidateBearer checks the Authorization header value. A bare token without
the Bearer prefix is accepted too.
*/
func (v *Validator) ValidateBearer(authHeader string) error {
	if !v.rateLimiter.Allow() {
		return fmt.Errorf("rate limit exceeded")
	}

	if authHeader == "" {
		return fmt.Errorf("missing authorization header")
	}

	tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

	token, err := jwt.Parse(tokenStr, v.getSigningKey)
	if err != nil {
		return fmt.Errorf("invalid token: %w", err)
	}

	if !token.Valid {
		return fmt.Errorf("token expired")
	}

	return nil
}

// IssueToken signs a token for the given subject, mainly for handing out
// credentials from the CLI.
func (v *Validator) IssueToken(subject string, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subject,
		"exp": time.Now().Add(ttl).Unix(),
		"iat": time.Now().Unix(),
	})

	tokenStr, err := token.SignedString(v.signingKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenStr, nil
}
