package handlers

import (
	"net/http"

	"github.com/tasknest/tasknest/internal/auth"
	"github.com/tasknest/tasknest/internal/store"
)

// TokenAdminHandler exposes the token tables for administrative inspection.
// Issuance goes through the same issuer as the session flow, so admin-created
// tokens obey the uniqueness loop too.
type TokenAdminHandler struct {
	tokens *store.TokenStore
	issuer *auth.Issuer
}

func NewTokenAdminHandler(tokens *store.TokenStore, issuer *auth.Issuer) *TokenAdminHandler {
	return &TokenAdminHandler{tokens: tokens, issuer: issuer}
}

type createTokenRequest struct {
	UserID int64 `json:"user_id" validate:"required,gt=0"`
}

func (h *TokenAdminHandler) ListRefresh(w http.ResponseWriter, r *http.Request) {
	tokens, err := h.tokens.ListRefresh(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tokens)
}

func (h *TokenAdminHandler) GetRefresh(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid token ID")
		return
	}

	token, err := h.tokens.GetRefreshByID(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, token)
}

func (h *TokenAdminHandler) CreateRefresh(w http.ResponseWriter, r *http.Request) {
	var req createTokenRequest
	if err := decodeValid(r, &req); err != nil {
		respondError(w, err)
		return
	}

	value, expiresAt, err := h.issuer.IssueRefresh(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	token, err := h.tokens.InsertRefresh(r.Context(), req.UserID, value, expiresAt)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, token)
}

func (h *TokenAdminHandler) DeleteRefresh(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid token ID")
		return
	}

	if err := h.tokens.DeleteRefreshByID(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Refresh token deleted"})
}

func (h *TokenAdminHandler) ListAccess(w http.ResponseWriter, r *http.Request) {
	tokens, err := h.tokens.ListAccess(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tokens)
}

func (h *TokenAdminHandler) GetAccess(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid token ID")
		return
	}

	token, err := h.tokens.GetAccessByID(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, token)
}

func (h *TokenAdminHandler) CreateAccess(w http.ResponseWriter, r *http.Request) {
	var req createTokenRequest
	if err := decodeValid(r, &req); err != nil {
		respondError(w, err)
		return
	}

	value, expiresAt, err := h.issuer.IssueAccess(r.Context(), req.UserID)
	if err != nil {
		respondError(w, err)
		return
	}

	token, err := h.tokens.InsertAccess(r.Context(), req.UserID, value, expiresAt)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, token)
}

func (h *TokenAdminHandler) DeleteAccess(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid token ID")
		return
	}

	if err := h.tokens.DeleteAccessByID(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Access token deleted"})
}
