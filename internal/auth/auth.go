package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"hostprompt/internal/httputil"
	"hostprompt/internal/storage"
)

// TokenIssuer identifies this service in session tokens.
const TokenIssuer = "hostprompt"

// ErrInvalidCredentials is returned when email/password don't match.
var ErrInvalidCredentials = errors.New("invalid credentials")

type contextKey string

const userContextKey contextKey = "auth/user"

// SessionManager signs and validates session tokens carried in a cookie.
type SessionManager struct {
	Secret       []byte
	Duration     time.Duration
	CookieName   string
	SecureCookie bool
}

// Claims captures decoded session data.
type Claims struct {
	UserID    string
	ExpiresAt time.Time
}

// Middleware attaches the authenticated user to the request context when a valid session cookie exists.
type Middleware struct {
	Store    storage.Store
	Sessions SessionManager
}

// Handler exposes auth endpoints for registering and logging in users.
type Handler struct {
	Store    storage.Store
	Sessions SessionManager
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// InjectUser parses the session cookie (if present) and loads the user into context.
func (m Middleware) InjectUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(m.Sessions.cookieName())
		if err == nil && cookie.Value != "" {
			if claims, err := m.Sessions.Parse(cookie.Value); err == nil {
				if user, err := m.Store.GetUserByID(r.Context(), claims.UserID); err == nil {
					r = r.WithContext(WithUser(r.Context(), user))
				}
			} else {
				// Clear unusable cookies to avoid loops.
				clear := m.Sessions.expiredCookie()
				http.SetCookie(w, &clear)
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuth ensures a user exists in context or returns 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFromContext(r.Context()); !ok {
			httputil.RespondError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Register handles POST /api/auth/register and starts a session.
func (h Handler) Register(w http.ResponseWriter, r *http.Request) {
	var payload registerRequest
	if !httputil.DecodeAndValidate(w, r, &payload) {
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
	if err != nil {
		httputil.RespondError(w, http.StatusInternalServerError, "Could not create user")
		return
	}

	created, err := h.Store.CreateUser(r.Context(), storage.User{
		Email:        normalizeEmail(payload.Email),
		PasswordHash: string(hashed),
	})
	if err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			httputil.RespondError(w, http.StatusConflict, "Email is already registered")
			return
		}
		log.Ctx(r.Context()).Error().Err(err).Msg("create user")
		httputil.RespondError(w, http.StatusInternalServerError, "Could not create user")
		return
	}

	if !h.setSessionCookie(w, created.ID) {
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, toUserResponse(created))
}

// Login handles POST /api/auth/login.
func (h Handler) Login(w http.ResponseWriter, r *http.Request) {
	var payload loginRequest
	if !httputil.DecodeAndValidate(w, r, &payload) {
		return
	}

	user, err := h.authenticate(r.Context(), payload.Email, payload.Password)
	if err != nil {
		httputil.RespondError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	if !h.setSessionCookie(w, user.ID) {
		return
	}
	httputil.RespondJSON(w, http.StatusOK, toUserResponse(user))
}

// Logout handles POST /api/auth/logout.
func (h Handler) Logout(w http.ResponseWriter, _ *http.Request) {
	cookie := h.Sessions.expiredCookie()
	http.SetCookie(w, &cookie)
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the current user profile.
func (h Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "No active session")
		return
	}
	httputil.RespondJSON(w, http.StatusOK, toUserResponse(user))
}

func (h Handler) authenticate(ctx context.Context, email, password string) (storage.User, error) {
	user, err := h.Store.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return storage.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return storage.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// Parse validates a token and returns session claims.
func (sm SessionManager) Parse(token string) (Claims, error) {
	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return sm.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(TokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return Claims{}, fmt.Errorf("parse session: %w", err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return Claims{}, errors.New("invalid session claims")
	}
	return Claims{UserID: claims.Subject, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// Issue builds a signed session token for the given user.
func (sm SessionManager) Issue(userID string) (string, time.Time, error) {
	if len(sm.Secret) == 0 {
		return "", time.Time{}, errors.New("session secret missing")
	}
	now := time.Now()
	expires := now.Add(sm.sessionDuration())
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    TokenIssuer,
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	})
	signed, err := token.SignedString(sm.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session: %w", err)
	}
	return signed, expires, nil
}

// WithUser stores the authenticated user in context.
func WithUser(ctx context.Context, user storage.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext extracts the authenticated user from context if present.
func UserFromContext(ctx context.Context) (storage.User, bool) {
	user, ok := ctx.Value(userContextKey).(storage.User)
	return user, ok
}

// UserID returns the authenticated user's id, or "".
func UserID(ctx context.Context) string {
	user, _ := UserFromContext(ctx)
	return user.ID
}

func (h Handler) setSessionCookie(w http.ResponseWriter, userID string) bool {
	token, exp, err := h.Sessions.Issue(userID)
	if err != nil {
		log.Error().Err(err).Msg("issue session")
		httputil.RespondError(w, http.StatusInternalServerError, "Could not create session")
		return false
	}
	cookie := h.Sessions.cookie(token, exp)
	http.SetCookie(w, &cookie)
	return true
}

func (sm SessionManager) cookie(token string, expires time.Time) http.Cookie {
	return http.Cookie{
		Name:     sm.cookieName(),
		Value:    token,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(time.Until(expires).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   sm.SecureCookie,
	}
}

func (sm SessionManager) expiredCookie() http.Cookie {
	return http.Cookie{
		Name:     sm.cookieName(),
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   sm.SecureCookie,
	}
}

func (sm SessionManager) cookieName() string {
	if sm.CookieName != "" {
		return sm.CookieName
	}
	return "session_token"
}

func (sm SessionManager) sessionDuration() time.Duration {
	if sm.Duration <= 0 {
		return 7 * 24 * time.Hour
	}
	return sm.Duration
}

func toUserResponse(u storage.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, CreatedAt: u.CreatedAt}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
