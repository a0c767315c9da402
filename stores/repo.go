package stores

import (
	"context"

	"github.com/pkg/errors"
)

// ErrNotFound is returned by Repo implementations when no store matches.
var ErrNotFound = errors.New("store not found")

// Repo manages store persistence.
type Repo interface {
	Create(ctx context.Context, store *Store) error
	Update(ctx context.Context, store *Store) error
	Get(ctx context.Context, id string) (*Store, error)
	List(ctx context.Context, offset, limit int) ([]*Store, error)
}
