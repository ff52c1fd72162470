package transport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/ganot/pdftalks/internal/identity"
	"github.com/go-chi/chi/v5/middleware"
)

type fingerprintKey struct{}

// FingerprintFromContext returns the advisory client fingerprint, if present.
func FingerprintFromContext(ctx context.Context) (string, bool) {
	fp, ok := ctx.Value(fingerprintKey{}).(string)
	return fp, ok
}

// FingerprintMiddleware extracts X-Client-Fingerprint and stores it in context.
func FingerprintMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fp := r.Header.Get(identity.FingerprintHeader)
		if fp != "" {
			ctx := context.WithValue(r.Context(), fingerprintKey{}, fp)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequestLogger logs one debug line per request.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !logger.Enabled(r.Context(), slog.LevelDebug) {
				next.ServeHTTP(w, r)
				return
			}

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			fp, _ := FingerprintFromContext(r.Context())
			logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"fingerprint", fp,
			)
		})
	}
}
