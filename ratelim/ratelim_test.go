package ratelim

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"
)

func TestLimit(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)
	h := rl.Limit(func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		w.WriteHeader(http.StatusOK)
	})

	call := func(addr string) int {
		r := httptest.NewRequest(http.MethodPost, "/v1/jobs/x/like", nil)
		r.RemoteAddr = addr
		w := httptest.NewRecorder()
		h(w, r, nil)
		return w.Code
	}

	for i := 0; i < 2; i++ {
		if code := call("10.0.0.1:1234"); code != http.StatusOK {
			t.Fatalf("request %d: status %d", i, code)
		}
	}
	// Same host, different port shares the budget.
	if code := call("10.0.0.1:5678"); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after burst, got %d", code)
	}
	if code := call("10.0.0.2:1234"); code != http.StatusOK {
		t.Fatalf("other client limited: %d", code)
	}
}
