package token

import (
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the identity payload carried inside both access and refresh
// tokens: who the user is, which store (tenant) they belong to, and what they
// are allowed to do.
type Claims struct {
	UserID      string   `json:"user_id"`
	StoreID     string   `json:"store_id"`
	Role        string   `json:"role"`
	Email       string   `json:"email,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
	jwt.RegisteredClaims
}
