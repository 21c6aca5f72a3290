package http

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	applog "portalunk/internal/log"
)

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// pathID returns the {id} route variable.
func pathID(r *http.Request) string {
	return strings.TrimSpace(mux.Vars(r)["id"])
}

// writeError logs err and writes the mapped response. Client errors are
// logged at debug level; everything mapped to 500 is logged as an error.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	resp := ErrorFor(err)
	logger := applog.FromContext(r.Context())
	if resp.statusCode >= http.StatusInternalServerError {
		applog.NewStructuredLogger(logger).LogError(r.Context(), "Request failed", err,
			applog.ComponentHTTP, op, applog.NewFields().WithErrorType(applog.ErrorTypeInternal))
	} else {
		logger.DebugContext(r.Context(), "Request rejected",
			applog.FieldOperation, op,
			applog.FieldStatusCode, resp.statusCode,
			applog.FieldError, err.Error())
	}
	resp.Write(w)
}

// writeJSON writes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	NewJSONResponse().Status(status).Data(v).Write(w)
}
