package session

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// ErrNotFound is returned by KV implementations when a key does not exist.
var ErrNotFound = errors.New("key not found")

// KV is the key-value protocol the session manager needs from its backing
// store: plain string get, set-with-expiry, and delete. Expiry of session and
// blacklist records is delegated entirely to the store's own TTL mechanism;
// there is no sweeping on this side.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	SetEx(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// The manager exclusively owns these two key namespaces.
func refreshTokenKey(userID, storeID string) string {
	return fmt.Sprintf("refresh_token:%s:%s", userID, storeID)
}

func blacklistKey(rawToken string) string {
	return fmt.Sprintf("blacklist:%s", rawToken)
}
