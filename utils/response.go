package utils

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"folio/errs"
)

func RespondWithError(w http.ResponseWriter, code int, msg string) {
	RespondWithJSON(w, code, map[string]string{"error": msg})
}

// Sends a JSON response
func RespondWithJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("could not encode response", slog.Any("error", err))
	}
}

// RespondWithErr answers with the status and public message for err's kind.
// Server-side failures are logged with their full cause.
func RespondWithErr(w http.ResponseWriter, r *http.Request, err error) {
	code := errs.HTTPStatus(err)
	if code >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
	}
	RespondWithError(w, code, errs.Public(err))
}

type M map[string]any
