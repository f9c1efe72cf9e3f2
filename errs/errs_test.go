package errs

import (
	"net/http"
	"strings"
	"testing"

	"github.com/pkg/errors"
)

func TestHTTPStatus(t *testing.T) {
	driverErr := errors.New("connection reset")

	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", Validation("title is required"), http.StatusBadRequest},
		{"not found", NotFound("job %s", "abc"), http.StatusNotFound},
		{"conflict", Conflict("job already liked"), http.StatusConflict},
		{"forbidden", Forbidden("not the owner"), http.StatusForbidden},
		{"unauthorized", Unauthorized("missing token"), http.StatusUnauthorized},
		{"storage", Storage(driverErr, "patch job %s", "abc"), http.StatusServiceUnavailable},
		{"wrapped twice", errors.Wrap(NotFound("post"), "get post"), http.StatusNotFound},
		{"unknown", driverErr, http.StatusInternalServerError},
	}

	for _, c := range cases {
		if got := HTTPStatus(c.err); got != c.want {
			t.Errorf("%s: HTTPStatus() = %d, want %d", c.name, got, c.want)
		}
	}
}

func TestStorageKeepsCause(t *testing.T) {
	cause := errors.New("socket closed")
	err := Storage(cause, "insert job")

	if !errors.Is(err, ErrStorage) {
		t.Fatalf("expected ErrStorage kind, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be reachable, got %v", err)
	}
	if !strings.Contains(err.Error(), "insert job") {
		t.Fatalf("expected message to mention the operation, got %q", err.Error())
	}
	if Storage(nil, "noop") != nil {
		t.Fatal("expected nil cause to yield nil")
	}
}

func TestPublicHidesStorageDetails(t *testing.T) {
	err := Storage(errors.New("mongo: auth failed for user admin"), "find user")
	if strings.Contains(Public(err), "admin") {
		t.Fatalf("storage detail leaked: %q", Public(err))
	}
	if got := Public(Conflict("job already liked")); !strings.Contains(got, "job already liked") {
		t.Fatalf("expected conflict message to be public, got %q", got)
	}
}
