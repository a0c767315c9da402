package users

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

// User is a member of a store's staff. A user belongs to exactly one store;
// the store is the unit of tenant isolation.
type User struct {
	ID           string    `json:"id,omitempty" bson:"_id"`
	StoreID      string    `json:"store_id" bson:"store_id"`
	Email        string    `json:"email" bson:"email"`
	Name         string    `json:"name,omitempty" bson:"name"`
	Role         RoleType  `json:"role" bson:"role"`
	Permissions  []string  `json:"permissions,omitempty" bson:"permissions"`
	PasswordHash string    `json:"-" bson:"password_hash"` // never serialized
	Active       bool      `json:"active" bson:"active"`
	CreatedAt    time.Time `json:"created_at,omitempty" bson:"created_at"`
	LastLogin    time.Time `json:"last_login,omitempty" bson:"last_login"`
}

// Validate checks the fields that must hold before a user is stored or signed
// into a token, including role/permission consistency.
func (u *User) Validate() error {
	if strings.TrimSpace(u.Email) == "" {
		return errors.New("user email is required")
	}
	if strings.TrimSpace(u.StoreID) == "" {
		return errors.New("user store ID is required")
	}
	if !ValidRole(u.Role) {
		return errors.Errorf("unknown role %q", u.Role)
	}
	return ValidatePermissions(u.Role, u.Permissions)
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
