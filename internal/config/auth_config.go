package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
)

const (
	accessSecretVar  = "JWT_ACCESS_SECRET"
	refreshSecretVar = "JWT_REFRESH_SECRET"
)

type AuthConfig interface {
	GetAccessTokenSecret() string
	GetRefreshTokenSecret() string
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration

	// Validate fails when either signing secret is absent. The process must
	// not start without them.
	Validate() error
}

type Auth struct{}

var _ AuthConfig = Auth{}

func (Auth) GetAccessTokenSecret() string {
	return os.Getenv(accessSecretVar)
}

func (Auth) GetRefreshTokenSecret() string {
	return os.Getenv(refreshSecretVar)
}

// Token lifetimes are fixed, not configurable.
func (Auth) GetAccessTokenExpiry() time.Duration {
	return 15 * time.Minute
}

func (Auth) GetRefreshTokenExpiry() time.Duration {
	return 7 * 24 * time.Hour
}

func (a Auth) Validate() error {
	if a.GetAccessTokenSecret() == "" {
		return errors.Errorf("%s is not set", accessSecretVar)
	}
	if a.GetRefreshTokenSecret() == "" {
		return errors.Errorf("%s is not set", refreshSecretVar)
	}
	if a.GetAccessTokenSecret() == a.GetRefreshTokenSecret() {
		return errors.New("access and refresh signing secrets must differ")
	}
	return nil
}
