package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDefaultSecurityConfig(t *testing.T) {
	t.Parallel()
	c := DefaultSecurityConfig()
	if !c.EnableCORS {
		t.Error("CORS should be enabled by default")
	}
	if got := c.originAllowed("https://anywhere.example"); got != "*" {
		t.Errorf("default origin policy = %q, want *", got)
	}
	if len(c.AllowedMethods) != 2 || c.AllowedMethods[0] != http.MethodGet || c.AllowedMethods[1] != http.MethodOptions {
		t.Errorf("AllowedMethods = %v, want [GET OPTIONS]", c.AllowedMethods)
	}
}

func TestOriginPolicy(t *testing.T) {
	t.Parallel()
	listed := SecurityConfig{AllowedOrigins: []string{"https://ops.example"}}

	tests := []struct {
		name        string
		config      SecurityConfig
		origin      string
		wantAllowed string
		wantWS      bool
	}{
		{"wildcard", DefaultSecurityConfig(), "https://a.example", "*", true},
		{"listed origin", listed, "https://ops.example", "https://ops.example", true},
		{"foreign origin", listed, "https://evil.example", "", false},
		{"no origin header", listed, "", "", true},
		{"empty allow list", SecurityConfig{}, "https://ops.example", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.config.originAllowed(tt.origin); got != tt.wantAllowed {
				t.Errorf("originAllowed(%q) = %q, want %q", tt.origin, got, tt.wantAllowed)
			}
			req := httptest.NewRequest(http.MethodGet, "/ws/cpus/json", http.NoBody)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if got := tt.config.checkOrigin(req); got != tt.wantWS {
				t.Errorf("checkOrigin(%q) = %v, want %v", tt.origin, got, tt.wantWS)
			}
		})
	}
}

func TestSecurityMiddleware_Headers(t *testing.T) {
	t.Parallel()
	called := false
	h := SecurityMiddleware(DefaultSecurityConfig(), func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/api/cpus/json", http.NoBody))

	if !called {
		t.Fatal("next handler was not called")
	}
	want := map[string]string{
		"X-Content-Type-Options":  "nosniff",
		"X-Frame-Options":         "DENY",
		"X-XSS-Protection":        "1; mode=block",
		"Referrer-Policy":         "strict-origin-when-cross-origin",
		"Content-Security-Policy": apiCSP,
	}
	for header, value := range want {
		if got := rec.Header().Get(header); got != value {
			t.Errorf("%s = %q, want %q", header, got, value)
		}
	}
	// A wildcard policy answers even without an Origin header.
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}

func TestSecurityMiddleware_CORS(t *testing.T) {
	t.Parallel()
	next := func(w http.ResponseWriter, r *http.Request) {}

	tests := []struct {
		name       string
		config     SecurityConfig
		origin     string
		wantOrigin string
		wantVary   bool
	}{
		{"wildcard", DefaultSecurityConfig(), "https://a.example", "*", false},
		{
			name: "listed origin echoes back",
			config: SecurityConfig{
				EnableCORS:     true,
				AllowedOrigins: []string{"https://ops.example"},
				AllowedMethods: []string{http.MethodGet},
			},
			origin:     "https://ops.example",
			wantOrigin: "https://ops.example",
			wantVary:   true,
		},
		{
			name:   "foreign origin gets nothing",
			config: SecurityConfig{EnableCORS: true, AllowedOrigins: []string{"https://ops.example"}},
			origin: "https://evil.example",
		},
		{
			name:   "cors disabled",
			config: SecurityConfig{AllowedOrigins: []string{"*"}},
			origin: "https://a.example",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/api/cpus/string", http.NoBody)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()
			SecurityMiddleware(tt.config, next)(rec, req)

			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.wantOrigin)
			}
			if got := rec.Header().Get("Vary") == "Origin"; got != tt.wantVary {
				t.Errorf("Vary: Origin set = %v, want %v", got, tt.wantVary)
			}
			if tt.wantOrigin != "" && rec.Header().Get("Access-Control-Allow-Headers") == "" {
				t.Error("Access-Control-Allow-Headers missing")
			}
		})
	}
}

func TestSecurityMiddleware_Preflight(t *testing.T) {
	t.Parallel()
	called := false
	h := SecurityMiddleware(DefaultSecurityConfig(), func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/cpus/stream", http.NoBody)
	req.Header.Set("Origin", "https://a.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	h(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if called {
		t.Error("preflight must not reach the handler")
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got != "GET, OPTIONS" {
		t.Errorf("Access-Control-Allow-Methods = %q", got)
	}
	if got := rec.Header().Get("Access-Control-Max-Age"); got != "3600" {
		t.Errorf("Access-Control-Max-Age = %q", got)
	}
}
