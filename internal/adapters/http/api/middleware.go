package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/okian/mapperator/pkg/metrics"
)

// MetricsMiddleware counts and times every request to endpoint. Failed
// requests are also recorded as api errors, classified the same way
// statusOf classifies service errors.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w}
		began := time.Now()
		next.ServeHTTP(rec, r)
		elapsed := float64(time.Since(began).Microseconds()) / 1000

		status := rec.Status()
		code := strconv.Itoa(status)
		metrics.RecordHTTPRequest(endpoint, r.Method, code)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, code, elapsed)
		if kind := failureKind(status); kind != "" {
			metrics.RecordErrorByComponent("api", kind)
		}
	}
}

// failureKind names the error code a status stands for, or "" for success.
func failureKind(status int) string {
	switch {
	case status < http.StatusBadRequest:
		return ""
	case status == http.StatusRequestEntityTooLarge:
		return "too_large"
	case status == http.StatusServiceUnavailable:
		return "unavailable"
	case status == http.StatusNotFound:
		return "not_found"
	case status >= http.StatusInternalServerError:
		return "internal"
	default:
		return "bad_request"
	}
}

// statusRecorder remembers the first status sent to the client. A handler
// that writes a body without calling WriteHeader implies 200.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	return s.ResponseWriter.Write(b) //nolint:wrapcheck // passthrough to the client connection
}

// Status returns the recorded status, 200 if nothing was written.
func (s *statusRecorder) Status() int {
	if s.status == 0 {
		return http.StatusOK
	}
	return s.status
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (s *statusRecorder) Unwrap() http.ResponseWriter { return s.ResponseWriter }
