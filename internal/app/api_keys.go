package app

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// RequestHasInvalidAPIKey checks the key query parameter first, then an
// Authorization: Bearer header.
func (app *Application) RequestHasInvalidAPIKey(r *http.Request) bool {
	return app.IsInvalidAPIKey(RequestAPIKey(r))
}

// RequestAPIKey extracts the caller's key, or "" when none was sent.
func RequestAPIKey(r *http.Request) string {
	if key := r.URL.Query().Get("key"); key != "" {
		return key
	}
	auth := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

func (app *Application) IsInvalidAPIKey(key string) bool {
	if key == "" {
		return true
	}

	for _, validKey := range app.Config.ApiKeys {
		// Use constant-time comparison to prevent timing attacks
		if subtle.ConstantTimeCompare([]byte(key), []byte(validKey)) == 1 {
			return false
		}
	}

	return true
}

// IsExemptAPIKey reports whether key bypasses rate limiting.
func (app *Application) IsExemptAPIKey(key string) bool {
	for _, exempt := range app.Config.ExemptApiKeys {
		if subtle.ConstantTimeCompare([]byte(key), []byte(exempt)) == 1 {
			return true
		}
	}
	return false
}
