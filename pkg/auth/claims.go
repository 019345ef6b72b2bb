package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/emlakhub/emlakhub-backend/pkg/enums"
)

// AccessTokenPayload captures the identity fields placed in a minted token.
type AccessTokenPayload struct {
	UserID      uuid.UUID
	Email       string
	DisplayName string
	// Role is a hint only; the users table carries the authoritative role.
	Role enums.UserRole
	JTI  string
}

// AccessTokenClaims is the typed JWT issued by the identity provider.
type AccessTokenClaims struct {
	UserID      uuid.UUID      `json:"user_id"`
	Email       string         `json:"email"`
	DisplayName string         `json:"name,omitempty"`
	Role        enums.UserRole `json:"role,omitempty"`
	jwt.RegisteredClaims
}
