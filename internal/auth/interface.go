package auth

import "coursecraft/internal/domain/models"

// JWTVerifier validates bearer tokens for the editor gateway.
type JWTVerifier interface {
	// VerifyToken returns domain.ErrUnauthorized for an invalid, expired or
	// anonymous token.
	VerifyToken(tokenString string) (*models.AuthorClaims, error)

	// Close releases any resources held by the verifier.
	Close() error
}
