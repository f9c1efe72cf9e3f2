package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"folio/middleware"
)

func TestSecurityHeaders(t *testing.T) {
	h := securityHeaders(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusTeapot {
		t.Fatalf("handler not called: %d", w.Code)
	}
	for _, name := range []string{"X-Content-Type-Options", "X-Frame-Options", "Cache-Control"} {
		if w.Header().Get(name) == "" {
			t.Errorf("missing %s", name)
		}
	}
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("FOLIO_AUTH_JWT_SECRET", "cli-secret")

	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ExitErrHandler = nil

	if err := app.Run([]string{"folio", "token", "--user", "u1", "--role", "admin"}); err != nil {
		t.Fatalf("%+v", err)
	}

	claims, err := middleware.NewAuthenticator("cli-secret").Validate("Bearer " + strings.TrimSpace(out.String()))
	if err != nil {
		t.Fatalf("issued token does not validate: %v", err)
	}
	if claims.UserID != "u1" || len(claims.Role) != 1 || claims.Role[0] != "admin" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}
