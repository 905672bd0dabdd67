package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"invoice-marshal/internal/app"

	"github.com/golang-jwt/jwt/v5"
)

type authUserKey struct{}

// userIDFromContext returns the authenticated user ID stored in ctx, or 0.
func userIDFromContext(ctx context.Context) int {
	v, _ := ctx.Value(authUserKey{}).(int)
	return v
}

// jwtClaims is the JWT payload struct used for signing and parsing.
type jwtClaims struct {
	UserID int `json:"user_id"`
	jwt.RegisteredClaims
}

// RequireAuth validates the auth_token cookie and injects the user ID into
// the request context. Returns 401 if the token is absent or invalid.
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("auth_token")
		if err != nil {
			writeError(w, r, "authentication required", "UNAUTHORIZED", http.StatusUnauthorized)
			return
		}

		claims := &jwtClaims{}
		token, err := jwt.ParseWithClaims(cookie.Value, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(h.jwtSecret), nil
		})
		if err != nil || !token.Valid || claims.UserID == 0 {
			writeError(w, r, "invalid or expired token", "UNAUTHORIZED", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), authUserKey{}, claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// signup handles POST /api/auth/signup: registers the account and signs the
// new user in.
func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	var req app.SignUpRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.svc.SignUp(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if !h.setAuthCookie(w, r, user.ID) {
		return
	}
	writeJSON(w, user)
}

// login handles POST /api/auth/login.
func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.svc.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if !h.setAuthCookie(w, r, user.ID) {
		return
	}
	writeJSON(w, user)
}

func (h *Handler) setAuthCookie(w http.ResponseWriter, r *http.Request, userID int) bool {
	claims := &jwtClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.jwtSecret))
	if err != nil {
		writeError(w, r, "token generation failed", "INTERNAL_ERROR", http.StatusInternalServerError)
		return false
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    signed,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   86400,
	})
	return true
}

// logout handles POST /api/auth/logout — clears the auth cookie.
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
	})
	w.WriteHeader(http.StatusNoContent)
}

// me handles GET /api/auth/me — returns the current user's profile.
func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.GetUser(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, user)
}
