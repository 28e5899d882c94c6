package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/sidrstudio/atlas/internal/api/dto"
)

// Recovery turns panics into 500 responses instead of killing the
// connection.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered",
						"panic", rec,
						"method", r.Method,
						"path", r.URL.Path,
						"stack", string(debug.Stack()),
					)
					writeError(w, dto.ErrorResponse{
						StatusCode: http.StatusInternalServerError,
						Message:    "Internal Server Error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
