package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/tasknest/tasknest/internal/auth"
	"github.com/tasknest/tasknest/internal/errs"
	"github.com/tasknest/tasknest/internal/queue"
	"github.com/tasknest/tasknest/internal/session"
)

// refreshCookiePath scopes the refresh-token cookie strictly to the refresh
// endpoint; it must never be sent to other routes.
const refreshCookiePath = "/api/auth/refresh"

type AuthHandler struct {
	svc   *session.Service
	queue *queue.Client
}

func NewAuthHandler(svc *session.Service, qc *queue.Client) *AuthHandler {
	return &AuthHandler{svc: svc, queue: qc}
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	UserID int64 `json:"user_id" validate:"required,gt=0"`
}

type logoutRequest struct {
	UserID int64 `json:"user_id" validate:"required,gt=0"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	tokens, _, err := h.svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, errs.ErrUnauthorized) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		slog.Error("login failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	setSessionCookies(w, tokens)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Login successful"})
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(auth.RefreshTokenCookie)
	if err != nil || cookie.Value == "" {
		writeError(w, http.StatusUnauthorized, "missing refresh token")
		return
	}

	var req refreshRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	tokens, err := h.svc.Refresh(r.Context(), cookie.Value, req.UserID)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrRefreshTokenExpired):
			// One stale row usually means more; schedule a sweep.
			if h.queue != nil {
				if qerr := h.queue.EnqueueTokenCleanup(queue.TokenCleanupPayload{}); qerr != nil {
					slog.Warn("failed to enqueue token cleanup", "error", qerr)
				}
			}
			writeError(w, http.StatusUnauthorized, "refresh token expired")
		case errors.Is(err, session.ErrInvalidRefreshToken), errors.Is(err, errs.ErrUnauthorized):
			writeError(w, http.StatusUnauthorized, "invalid refresh token")
		default:
			slog.Error("refresh failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	setSessionCookies(w, tokens)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Token refreshed"})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req logoutRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	if err := h.svc.Logout(r.Context(), req.UserID); err != nil {
		slog.Error("logout failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	clearSessionCookies(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}

func setSessionCookies(w http.ResponseWriter, tokens session.Tokens) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.AccessTokenCookie,
		Value:    tokens.AccessToken,
		Path:     "/",
		Expires:  tokens.AccessExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     auth.RefreshTokenCookie,
		Value:    tokens.RefreshToken,
		Path:     refreshCookiePath,
		Expires:  tokens.RefreshExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookies(w http.ResponseWriter) {
	expired := time.Now().Add(-time.Second)
	http.SetCookie(w, &http.Cookie{
		Name:     auth.AccessTokenCookie,
		Value:    "",
		Path:     "/",
		Expires:  expired,
		MaxAge:   -1,
		HttpOnly: true,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     auth.RefreshTokenCookie,
		Value:    "",
		Path:     refreshCookiePath,
		Expires:  expired,
		MaxAge:   -1,
		HttpOnly: true,
	})
}
