package handlers

import (
	"net/http"

	"github.com/tasknest/tasknest/internal/auth"
	"github.com/tasknest/tasknest/internal/store"
)

type APIKeyHandler struct {
	keys *store.APIKeyStore
}

func NewAPIKeyHandler(keys *store.APIKeyStore) *APIKeyHandler {
	return &APIKeyHandler{keys: keys}
}

type createAPIKeyRequest struct {
	ClientName   string `json:"client_name" validate:"required"`
	ContactEmail string `json:"contact_email" validate:"required,email"`
}

type updateAPIKeyRequest struct {
	ClientName   *string `json:"client_name,omitempty"`
	ContactEmail *string `json:"contact_email,omitempty" validate:"omitempty,email"`
	IsActive     *bool   `json:"is_active,omitempty"`
}

func (h *APIKeyHandler) List(w http.ResponseWriter, r *http.Request) {
	keys, err := h.keys.List(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, keys)
}

func (h *APIKeyHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid api key ID")
		return
	}

	key, err := h.keys.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, key)
}

func (h *APIKeyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAPIKeyRequest
	if err := decodeValid(r, &req); err != nil {
		respondError(w, err)
		return
	}

	key, err := h.keys.Insert(r.Context(), auth.NewAPIKey(), req.ClientName, req.ContactEmail)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, key)
}

func (h *APIKeyHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid api key ID")
		return
	}

	var req updateAPIKeyRequest
	if err := decodeValid(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if req.ClientName == nil && req.ContactEmail == nil && req.IsActive == nil {
		writeError(w, http.StatusBadRequest, "no fields to update")
		return
	}

	key, err := h.keys.Update(r.Context(), id, store.APIKeyUpdate{
		ClientName:   req.ClientName,
		ContactEmail: req.ContactEmail,
		IsActive:     req.IsActive,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, key)
}

func (h *APIKeyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid api key ID")
		return
	}

	if err := h.keys.Delete(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "API key deleted"})
}
