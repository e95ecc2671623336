package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/json"
	"log"
	"net/http"
	"strings"
)

// AdminTokenHeader is accepted as an alternative to a bearer Authorization header
const AdminTokenHeader = "X-Admin-Token"

// TokenAuth guards write endpoints with a static admin token
type TokenAuth struct {
	digest  [sha256.Size]byte
	enabled bool
}

// NewTokenAuth creates a guard for token. An empty token disables every
// guarded endpoint.
func NewTokenAuth(token string) *TokenAuth {
	if token == "" {
		return &TokenAuth{}
	}
	if len(token) < 16 {
		log.Printf("⚠️ Admin token is shorter than 16 characters")
	}
	return &TokenAuth{digest: sha256.Sum256([]byte(token)), enabled: true}
}

// Enabled reports whether a token is configured
func (a *TokenAuth) Enabled() bool {
	return a.enabled
}

// Valid checks the request's token. Digests are compared so the comparison
// time does not depend on the token length.
func (a *TokenAuth) Valid(r *http.Request) bool {
	if !a.enabled {
		return false
	}
	provided := r.Header.Get(AdminTokenHeader)
	if auth := r.Header.Get("Authorization"); provided == "" && strings.HasPrefix(auth, "Bearer ") {
		provided = strings.TrimPrefix(auth, "Bearer ")
	}
	if provided == "" {
		return false
	}
	got := sha256.Sum256([]byte(provided))
	return hmac.Equal(got[:], a.digest[:])
}

// Middleware rejects requests without a valid admin token
func (a *TokenAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.enabled {
			writeError(w, "admin endpoints disabled", http.StatusForbidden)
			return
		}
		if !a.Valid(r) {
			RecordConnectionRejected("unauthorized")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{
				"error":   "unauthorized",
				"message": "Admin token required",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
