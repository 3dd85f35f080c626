package types

import "github.com/golang-jwt/jwt/v5"

// RoleAdmin is the only role allowed to trigger seed runs
const RoleAdmin = "admin"

// TokenClaims represents the claims in an operator JWT
type TokenClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// IsAdmin reports whether the token carries the admin role
func (c *TokenClaims) IsAdmin() bool {
	return c.Role == RoleAdmin
}
