package stores

import (
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Store is a registered shop: the tenant of the system. Every user, token,
// and notification is scoped to a store.
type Store struct {
	ID        string    `json:"id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	Address   string    `json:"address,omitempty" bson:"address"`
	Phone     string    `json:"phone,omitempty" bson:"phone"`
	Email     string    `json:"email,omitempty" bson:"email"`
	Currency  string    `json:"currency" bson:"currency"`
	Active    bool      `json:"active" bson:"active"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// Validate checks the fields required before a store is registered or updated.
func (s *Store) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return errors.New("store name is required")
	}
	if len(s.Name) > 120 {
		return errors.New("store name must be at most 120 characters")
	}
	if s.Email != "" && !strings.Contains(s.Email, "@") {
		return errors.Errorf("invalid store email %q", s.Email)
	}
	if s.Currency != "" && len(s.Currency) != 3 {
		return errors.Errorf("invalid currency code %q", s.Currency)
	}
	return nil
}
