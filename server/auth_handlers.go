package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/possuite/go-pos-server/token"
	"github.com/possuite/go-pos-server/users"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// LoginHandler verifies credentials against the user repository and issues a
// token pair for the user's store.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "invalid_request", "email and password are required")
			return
		}

		user, err := s.repos.Users.GetByEmail(r.Context(), req.Email)
		if err != nil {
			if errors.Is(err, users.ErrNotFound) {
				// Same response as a wrong password, so login cannot be used
				// to probe which emails exist.
				writeUnauthorized(w, "Invalid email or password")
				return
			}
			s.log.Error().Err(err).Msg("user lookup failed")
			writeInternalError(w)
			return
		}

		if !user.Active || !users.CheckPasswordHash(req.Password, user.PasswordHash) {
			writeUnauthorized(w, "Invalid email or password")
			return
		}

		pair, err := s.sessions.GenerateTokens(r.Context(), &token.Claims{
			UserID:      user.ID,
			StoreID:     user.StoreID,
			Role:        string(user.Role),
			Email:       user.Email,
			Permissions: user.Permissions,
		})
		if err != nil {
			s.log.Error().Err(err).Str("user_id", user.ID).Msg("token generation failed")
			writeInternalError(w)
			return
		}

		user.LastLogin = time.Now()
		if err := s.repos.Users.Upsert(r.Context(), user); err != nil {
			s.log.Warn().Err(err).Str("user_id", user.ID).Msg("failed to record last login")
		}

		s.log.Info().Str("user_id", user.ID).Str("store_id", user.StoreID).Msg("login")
		writeJSON(w, http.StatusOK, pair)
	}
}

// RefreshHandler exchanges a refresh token for a new token pair. The old
// refresh token is spent whether or not the client ever uses the new one.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req refreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
			writeError(w, http.StatusBadRequest, "invalid_request", "refresh_token is required")
			return
		}

		pair, err := s.sessions.RefreshTokens(r.Context(), req.RefreshToken)
		if err != nil {
			s.log.Error().Err(err).Msg("token rotation failed")
			writeInternalError(w)
			return
		}
		if pair == nil {
			writeUnauthorized(w, "Invalid refresh token")
			return
		}

		writeJSON(w, http.StatusOK, pair)
	}
}

// LogoutHandler revokes the caller's session: the presented access token is
// blacklisted for its remaining lifetime and the refresh chain is ended.
// Chained after RequireAuth.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		if !ok {
			writeUnauthorized(w, "Missing identity")
			return
		}
		rawToken, _ := r.Context().Value(ContextKeyAccessToken).(string)

		if err := s.sessions.RevokeTokens(r.Context(), identity.UserID, identity.StoreID, rawToken); err != nil {
			s.log.Error().Err(err).Str("user_id", identity.UserID).Msg("revocation failed")
			writeInternalError(w)
			return
		}

		s.log.Info().Str("user_id", identity.UserID).Str("store_id", identity.StoreID).Msg("logout")
		writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
	}
}
