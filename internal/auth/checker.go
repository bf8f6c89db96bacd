// Package auth authorizes calls to the publication trigger.
package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

const bearerPrefix = "Bearer "

// SecretChecker checks trigger requests against the configured cron secret.
// A checker with an empty secret allows every request.
type SecretChecker struct {
	secret []byte
}

// NewSecretChecker creates a SecretChecker for secret.
func NewSecretChecker(secret string) *SecretChecker {
	return &SecretChecker{secret: []byte(secret)}
}

// Enabled reports whether a secret is configured.
func (c *SecretChecker) Enabled() bool {
	return len(c.secret) > 0
}

// IsAuthorized reports whether r carries the secret, either as
// "Authorization: Bearer <secret>" or as the token query parameter.
func (c *SecretChecker) IsAuthorized(r *http.Request) bool {
	if !c.Enabled() {
		return true
	}
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, bearerPrefix) {
		if c.matches(strings.TrimPrefix(header, bearerPrefix)) {
			return true
		}
	}
	if token := r.URL.Query().Get("token"); token != "" {
		return c.matches(token)
	}
	return false
}

func (c *SecretChecker) matches(candidate string) bool {
	return subtle.ConstantTimeCompare([]byte(candidate), c.secret) == 1
}

// Middleware rejects unauthorized requests by calling deny.
func (c *SecretChecker) Middleware(deny http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !c.IsAuthorized(r) {
				deny(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
