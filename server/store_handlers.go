package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/possuite/go-pos-server/stores"
	"github.com/possuite/go-pos-server/users"
)

type storeRequest struct {
	Name     string `json:"name"`
	Address  string `json:"address"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Currency string `json:"currency"`
}

// RegisterStoreHandler creates a new store. Registration is open: it is the
// entry point for a new tenant, before any user of that tenant exists.
func (s *Server) RegisterStoreHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req storeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "malformed request body")
			return
		}

		now := time.Now()
		store := &stores.Store{
			ID:        uuid.New().String(),
			Name:      req.Name,
			Address:   req.Address,
			Phone:     req.Phone,
			Email:     req.Email,
			Currency:  req.Currency,
			Active:    true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if store.Currency == "" {
			store.Currency = "USD"
		}

		if err := store.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_store", err.Error())
			return
		}

		if err := s.repos.Stores.Create(r.Context(), store); err != nil {
			s.log.Error().Err(err).Msg("store creation failed")
			writeInternalError(w)
			return
		}

		s.log.Info().Str("store_id", store.ID).Str("name", store.Name).Msg("store registered")
		writeJSON(w, http.StatusCreated, store)
	}
}

// GetStoreHandler returns a store by ID. Callers may only read their own store.
func (s *Server) GetStoreHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, _ := IdentityFromContext(r.Context())
		id := r.PathValue("id")

		if identity.StoreID != id {
			writeError(w, http.StatusForbidden, "forbidden", "Not a member of this store")
			return
		}

		store, err := s.repos.Stores.Get(r.Context(), id)
		if err != nil {
			if errors.Is(err, stores.ErrNotFound) {
				writeError(w, http.StatusNotFound, "not_found", "Store not found")
				return
			}
			s.log.Error().Err(err).Str("store_id", id).Msg("store lookup failed")
			writeInternalError(w)
			return
		}

		writeJSON(w, http.StatusOK, store)
	}
}

// UpdateStoreHandler updates a store's profile. Requires the store:manage
// permission and publishes a notification to the store's live sockets.
func (s *Server) UpdateStoreHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, _ := IdentityFromContext(r.Context())
		id := r.PathValue("id")

		if identity.StoreID != id {
			writeError(w, http.StatusForbidden, "forbidden", "Not a member of this store")
			return
		}
		if !users.HasPermission(permissionsForRole(identity.Role), users.PermStoreManage) {
			writeError(w, http.StatusForbidden, "forbidden", "store:manage permission required")
			return
		}

		var req storeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "malformed request body")
			return
		}

		store, err := s.repos.Stores.Get(r.Context(), id)
		if err != nil {
			if errors.Is(err, stores.ErrNotFound) {
				writeError(w, http.StatusNotFound, "not_found", "Store not found")
				return
			}
			s.log.Error().Err(err).Str("store_id", id).Msg("store lookup failed")
			writeInternalError(w)
			return
		}

		if req.Name != "" {
			store.Name = req.Name
		}
		if req.Address != "" {
			store.Address = req.Address
		}
		if req.Phone != "" {
			store.Phone = req.Phone
		}
		if req.Email != "" {
			store.Email = req.Email
		}
		if req.Currency != "" {
			store.Currency = req.Currency
		}
		store.UpdatedAt = time.Now()

		if err := store.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_store", err.Error())
			return
		}

		if err := s.repos.Stores.Update(r.Context(), store); err != nil {
			s.log.Error().Err(err).Str("store_id", id).Msg("store update failed")
			writeInternalError(w)
			return
		}

		s.notify.Publish(id, Notification{
			Type:    "store.updated",
			StoreID: id,
			Payload: map[string]string{"name": store.Name},
		})
		writeJSON(w, http.StatusOK, store)
	}
}

// ListStoresHandler lists stores. Scoped to the caller's own store unless the
// caller is an admin.
func (s *Server) ListStoresHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, _ := IdentityFromContext(r.Context())

		if identity.Role != string(users.RoleAdmin) {
			store, err := s.repos.Stores.Get(r.Context(), identity.StoreID)
			if err != nil {
				if errors.Is(err, stores.ErrNotFound) {
					writeJSON(w, http.StatusOK, []*stores.Store{})
					return
				}
				s.log.Error().Err(err).Msg("store lookup failed")
				writeInternalError(w)
				return
			}
			writeJSON(w, http.StatusOK, []*stores.Store{store})
			return
		}

		all, err := s.repos.Stores.List(r.Context(), 0, 100)
		if err != nil {
			s.log.Error().Err(err).Msg("store list failed")
			writeInternalError(w)
			return
		}
		writeJSON(w, http.StatusOK, all)
	}
}

// permissionsForRole maps the role carried in an identity back onto its
// permission set for authorization checks at the HTTP boundary.
func permissionsForRole(role string) []string {
	return users.AllowedPermissions(users.RoleType(role))
}
