package users

import (
	"context"

	"github.com/pkg/errors"
)

// ErrNotFound is returned by Repo implementations when no user matches.
var ErrNotFound = errors.New("user not found")

// Repo manages user persistence.
type Repo interface {
	Upsert(ctx context.Context, user *User) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
}
