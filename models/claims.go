package models

import "github.com/golang-jwt/jwt/v5"

// IdentityClaims are the claims carried by HS256 identity tokens
// (Supabase-style providers and local development).
type IdentityClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}
