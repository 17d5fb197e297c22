package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostprompt/internal/storage"
)

func newTestHandler() (Handler, Middleware) {
	store := storage.NewInMemoryStore()
	sessions := SessionManager{Secret: []byte("test-secret"), Duration: time.Hour, CookieName: "hp"}
	return Handler{Store: store, Sessions: sessions}, Middleware{Store: store, Sessions: sessions}
}

func TestIssueAndParse(t *testing.T) {
	sm := SessionManager{Secret: []byte("k"), Duration: time.Minute}
	token, exp, err := sm.Issue("user-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), exp, 2*time.Second)

	claims, err := sm.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)

	_, err = SessionManager{Secret: []byte("other")}.Parse(token)
	assert.Error(t, err)

	_, _, err = SessionManager{}.Issue("user-1")
	assert.Error(t, err)
}

func TestParseRejectsExpiredAndForeignTokens(t *testing.T) {
	sm := SessionManager{Secret: []byte("k")}

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    TokenIssuer,
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	})
	signed, err := expired.SignedString(sm.Secret)
	require.NoError(t, err)
	_, err = sm.Parse(signed)
	assert.Error(t, err)

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    "someone-else",
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err = foreign.SignedString(sm.Secret)
	require.NoError(t, err)
	_, err = sm.Parse(signed)
	assert.Error(t, err)
}

func TestRegisterLoginMe(t *testing.T) {
	h, mw := newTestHandler()

	rr := httptest.NewRecorder()
	h.Register(rr, httptest.NewRequest(http.MethodPost, "/api/auth/register",
		strings.NewReader(`{"email":"Host@Example.com","password":"correct-horse"}`)))
	require.Equal(t, http.StatusCreated, rr.Code)

	var created userResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Equal(t, "host@example.com", created.Email)

	rr = httptest.NewRecorder()
	h.Register(rr, httptest.NewRequest(http.MethodPost, "/api/auth/register",
		strings.NewReader(`{"email":"host@example.com","password":"correct-horse"}`)))
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = httptest.NewRecorder()
	h.Login(rr, httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"host@example.com","password":"wrong-password"}`)))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = httptest.NewRecorder()
	h.Login(rr, httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"host@example.com","password":"correct-horse"}`)))
	require.Equal(t, http.StatusOK, rr.Code)

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "hp", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(cookies[0])
	rr = httptest.NewRecorder()
	mw.InjectUser(RequireAuth(http.HandlerFunc(h.Me))).ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var me userResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &me))
	assert.Equal(t, created.ID, me.ID)
}

func TestRegisterValidation(t *testing.T) {
	h, _ := newTestHandler()

	rr := httptest.NewRecorder()
	h.Register(rr, httptest.NewRequest(http.MethodPost, "/api/auth/register",
		strings.NewReader(`{"email":"not-an-email","password":"short"}`)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRequireAuthWithoutSession(t *testing.T) {
	_, mw := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/properties", nil)
	req.AddCookie(&http.Cookie{Name: "hp", Value: "garbage"})
	rr := httptest.NewRecorder()
	mw.InjectUser(RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Fatal("handler must not run")
	}))).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	cleared := rr.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, -1, cleared[0].MaxAge)
}

func TestLogoutExpiresCookie(t *testing.T) {
	h, _ := newTestHandler()
	rr := httptest.NewRecorder()
	h.Logout(rr, httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil))

	assert.Equal(t, http.StatusNoContent, rr.Code)
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
}
