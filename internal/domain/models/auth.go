package models

import "github.com/golang-jwt/jwt/v5"

// AuthorClaims is the JWT issued by the course platform's identity provider.
// The same token is forwarded to the Course API.
type AuthorClaims struct {
	jwt.RegisteredClaims        // sub, iss, aud, exp, iat
	Email                string `json:"email"`
	Role                 string `json:"role"` // "authenticated" or "anon"
	SessionID            string `json:"session_id"`
}

// GetUserID returns the user ID from the JWT subject claim.
func (c *AuthorClaims) GetUserID() string {
	return c.Subject
}
