package server

import (
	"net/http"
	"slices"
	"strings"
)

const (
	// apiCSP locks down every JSON/text response.
	apiCSP = "default-src 'none'; frame-ancestors 'none'"
	// dashboardCSP lets the dashboard load its module imports and open the
	// WebSocket back to this server.
	dashboardCSP = "default-src 'self'; script-src 'self' https://esm.sh; " +
		"style-src 'self' 'unsafe-inline'; connect-src 'self' ws: wss:; frame-ancestors 'none'"
)

// SecurityConfig controls the security headers and CORS behaviour.
type SecurityConfig struct {
	// EnableCORS turns on the Access-Control-* headers.
	EnableCORS bool
	// AllowedOrigins lists the origins allowed for CORS and WebSocket
	// upgrades. "*" allows any origin.
	AllowedOrigins []string
	// AllowedMethods is advertised in Access-Control-Allow-Methods.
	AllowedMethods []string
}

// DefaultSecurityConfig returns a read-only, any-origin configuration.
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		EnableCORS:     true,
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
	}
}

// originAllowed returns the value for Access-Control-Allow-Origin, or "" when
// the origin is not allowed.
func (c SecurityConfig) originAllowed(origin string) string {
	if slices.Contains(c.AllowedOrigins, "*") {
		return "*"
	}
	if origin != "" && slices.Contains(c.AllowedOrigins, origin) {
		return origin
	}
	return ""
}

// checkOrigin is the WebSocket upgrader's origin policy. Requests without an
// Origin header come from non-browser clients and are accepted.
func (c SecurityConfig) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return c.originAllowed(origin) != ""
}

// SecurityMiddleware sets the security headers, applies CORS and answers
// preflight requests.
func SecurityMiddleware(config SecurityConfig, next http.HandlerFunc) http.HandlerFunc {
	methods := strings.Join(config.AllowedMethods, ", ")
	return func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-XSS-Protection", "1; mode=block")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy", apiCSP)

		if config.EnableCORS {
			if allowed := config.originAllowed(r.Header.Get("Origin")); allowed != "" {
				h.Set("Access-Control-Allow-Origin", allowed)
				h.Set("Access-Control-Allow-Methods", methods)
				h.Set("Access-Control-Allow-Headers", "Content-Type, Last-Event-ID")
				h.Set("Access-Control-Max-Age", "3600")
				if allowed != "*" {
					h.Add("Vary", "Origin")
				}
			}
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next(w, r)
	}
}
