package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAuthMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	tests := []struct {
		name     string
		password string
		path     string
		user     string
		pass     string
		auth     bool
		want     int
	}{
		{name: "disabled", password: "", path: "/api/samples", want: http.StatusOK},
		{name: "missing credentials", password: "s3cret", path: "/api/samples", want: http.StatusUnauthorized},
		{name: "wrong password", password: "s3cret", path: "/api/samples", user: "admin", pass: "nope", auth: true, want: http.StatusUnauthorized},
		{name: "right password", password: "s3cret", path: "/api/samples", user: "anyone", pass: "s3cret", auth: true, want: http.StatusOK},
		{name: "health is open", password: "s3cret", path: "/api/health", want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.auth {
				req.SetBasicAuth(tt.user, tt.pass)
			}
			rec := httptest.NewRecorder()

			AuthMiddleware(tt.password)(ok).ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("Expected status %d, got %d", tt.want, rec.Code)
			}
			if rec.Code == http.StatusUnauthorized && rec.Header().Get("WWW-Authenticate") == "" {
				t.Error("Expected a WWW-Authenticate challenge")
			}
		})
	}
}
