package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tasknest/tasknest/internal/auth"
	"github.com/tasknest/tasknest/internal/errs"
	"github.com/tasknest/tasknest/internal/models"
	"github.com/tasknest/tasknest/internal/session"
)

type stubUsers struct {
	user *models.User
}

func (s *stubUsers) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if s.user == nil || s.user.Username != username {
		return nil, errs.ErrNotFound
	}
	return s.user, nil
}

type stubTokens struct {
	refresh map[string]*models.RefreshToken
}

func (s *stubTokens) InsertRefresh(ctx context.Context, userID int64, token string, expiresAt time.Time) (*models.RefreshToken, error) {
	row := &models.RefreshToken{UserID: userID, Token: token, ExpiresAt: expiresAt}
	s.refresh[token] = row
	return row, nil
}

func (s *stubTokens) FindRefresh(ctx context.Context, token string) (*models.RefreshToken, error) {
	row, ok := s.refresh[token]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return row, nil
}

func (s *stubTokens) RotateRefresh(ctx context.Context, oldToken, newToken string, expiresAt time.Time) error {
	row, ok := s.refresh[oldToken]
	if !ok {
		return errs.ErrUnauthorized
	}
	delete(s.refresh, oldToken)
	s.refresh[newToken] = &models.RefreshToken{UserID: row.UserID, Token: newToken, ExpiresAt: expiresAt}
	return nil
}

func (s *stubTokens) DeleteRefreshByUser(ctx context.Context, userID int64) (int64, error) {
	var n int64
	for token, row := range s.refresh {
		if row.UserID == userID {
			delete(s.refresh, token)
			n++
		}
	}
	return n, nil
}

func (s *stubTokens) DeleteRefreshByToken(ctx context.Context, token string) error {
	delete(s.refresh, token)
	return nil
}

func (s *stubTokens) InsertAccess(ctx context.Context, userID int64, token string, expiresAt time.Time) (*models.AccessToken, error) {
	return &models.AccessToken{UserID: userID, Token: token, ExpiresAt: expiresAt}, nil
}

type nopExistence struct{}

func (nopExistence) AccessTokenExists(ctx context.Context, token string) (bool, error) {
	return false, nil
}

func (nopExistence) RefreshTokenExists(ctx context.Context, token string) (bool, error) {
	return false, nil
}

func newAuthTestHandler(t *testing.T) (*AuthHandler, *stubTokens) {
	t.Helper()
	hash, err := auth.HashPassword("hunter2")
	require.NoError(t, err)
	users := &stubUsers{user: &models.User{ID: 42, Username: "alice", PasswordHash: hash}}
	tokens := &stubTokens{refresh: map[string]*models.RefreshToken{}}
	issuer := auth.NewIssuer("test-secret", time.Hour, 7*24*time.Hour, nopExistence{})
	svc := session.NewService(users, tokens, issuer)
	return NewAuthHandler(svc, nil), tokens
}

func cookieByName(t *testing.T, res *http.Response, name string) *http.Cookie {
	t.Helper()
	for _, c := range res.Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %q not set", name)
	return nil
}

func TestAuthHandler_Login_SetsSessionCookies(t *testing.T) {
	h, _ := newAuthTestHandler(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"username":"alice","password":"hunter2"}`))
	h.Login(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	res := rec.Result()

	access := cookieByName(t, res, auth.AccessTokenCookie)
	require.Equal(t, "/", access.Path)
	require.True(t, access.HttpOnly)
	require.NotEmpty(t, access.Value)

	refresh := cookieByName(t, res, auth.RefreshTokenCookie)
	require.Equal(t, refreshCookiePath, refresh.Path)
	require.True(t, refresh.HttpOnly)
	require.Len(t, refresh.Value, 32)
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	h, _ := newAuthTestHandler(t)

	for _, body := range []string{
		`{"username":"alice","password":"wrong"}`,
		`{"username":"mallory","password":"hunter2"}`,
	} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
		h.Login(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Body.String(), "invalid credentials")
		require.Empty(t, rec.Result().Cookies())
	}
}

func TestAuthHandler_Login_MissingFields(t *testing.T) {
	h, _ := newAuthTestHandler(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"username":"alice"}`))
	h.Login(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthHandler_Refresh_MissingCookie(t *testing.T) {
	h, _ := newAuthTestHandler(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", strings.NewReader(`{"user_id":42}`))
	h.Refresh(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "missing refresh token")
}

func TestAuthHandler_Refresh_RotatesCookie(t *testing.T) {
	h, tokens := newAuthTestHandler(t)
	_, err := tokens.InsertRefresh(context.Background(), 42, "abcdefghijklmnopqrstuvwxyzABCDEF", time.Now().Add(time.Hour))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", strings.NewReader(`{"user_id":42}`))
	req.AddCookie(&http.Cookie{Name: auth.RefreshTokenCookie, Value: "abcdefghijklmnopqrstuvwxyzABCDEF"})
	h.Refresh(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	refresh := cookieByName(t, rec.Result(), auth.RefreshTokenCookie)
	require.NotEqual(t, "abcdefghijklmnopqrstuvwxyzABCDEF", refresh.Value)
	require.Equal(t, refreshCookiePath, refresh.Path)

	// The presented token was rotated away.
	_, ok := tokens.refresh["abcdefghijklmnopqrstuvwxyzABCDEF"]
	require.False(t, ok)
}

func TestAuthHandler_Refresh_UnknownToken(t *testing.T) {
	h, _ := newAuthTestHandler(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", strings.NewReader(`{"user_id":42}`))
	req.AddCookie(&http.Cookie{Name: auth.RefreshTokenCookie, Value: "never-issued"})
	h.Refresh(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "invalid refresh token")
}

func TestAuthHandler_Refresh_ExpiredToken(t *testing.T) {
	h, tokens := newAuthTestHandler(t)
	_, err := tokens.InsertRefresh(context.Background(), 42, "staletoken", time.Now().Add(-time.Minute))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", strings.NewReader(`{"user_id":42}`))
	req.AddCookie(&http.Cookie{Name: auth.RefreshTokenCookie, Value: "staletoken"})
	h.Refresh(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "refresh token expired")
}

func TestAuthHandler_Logout_ClearsCookies(t *testing.T) {
	h, tokens := newAuthTestHandler(t)
	_, err := tokens.InsertRefresh(context.Background(), 42, "activetoken", time.Now().Add(time.Hour))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", strings.NewReader(`{"user_id":42}`))
	h.Logout(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	res := rec.Result()

	access := cookieByName(t, res, auth.AccessTokenCookie)
	require.Empty(t, access.Value)
	require.Negative(t, access.MaxAge)

	refresh := cookieByName(t, res, auth.RefreshTokenCookie)
	require.Empty(t, refresh.Value)
	require.Negative(t, refresh.MaxAge)
	require.Empty(t, tokens.refresh)
}
