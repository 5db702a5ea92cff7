package handler

import (
	"net/http"
	"strings"
	"time"

	"pdf-tile-renderer/internal/domain"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

// RequestLogger logs every request with its status and latency.
// Blob reads are logged at debug level since a page renders many tiles.
func RequestLogger(logger domain.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			fields := []interface{}{
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"bytes", rec.bytes,
				"elapsed", time.Since(start),
			}
			switch {
			case rec.status >= http.StatusInternalServerError:
				logger.Warn("Request failed", fields...)
			case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, blobRoute):
				logger.Debug("Request", fields...)
			default:
				logger.Info("Request", fields...)
			}
		})
	}
}
