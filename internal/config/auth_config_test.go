package config_test

import (
	"testing"

	"github.com/possuite/go-pos-server/internal/config"
	"github.com/stretchr/testify/require"
)

func TestAuthConfigValidate(t *testing.T) {
	auth := config.Auth{}

	t.Run("missing access secret", func(t *testing.T) {
		t.Setenv("JWT_ACCESS_SECRET", "")
		t.Setenv("JWT_REFRESH_SECRET", "refresh-secret")
		require.Error(t, auth.Validate())
	})

	t.Run("missing refresh secret", func(t *testing.T) {
		t.Setenv("JWT_ACCESS_SECRET", "access-secret")
		t.Setenv("JWT_REFRESH_SECRET", "")
		require.Error(t, auth.Validate())
	})

	t.Run("identical secrets", func(t *testing.T) {
		t.Setenv("JWT_ACCESS_SECRET", "same")
		t.Setenv("JWT_REFRESH_SECRET", "same")
		require.Error(t, auth.Validate())
	})

	t.Run("both set", func(t *testing.T) {
		t.Setenv("JWT_ACCESS_SECRET", "access-secret")
		t.Setenv("JWT_REFRESH_SECRET", "refresh-secret")
		require.NoError(t, auth.Validate())
	})
}
