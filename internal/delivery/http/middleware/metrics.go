package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/VIENDANBACK5/hybrid-topic-modeling/internal/monitoring"
)

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{w, http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func Metrics(m *monitoring.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := newResponseWriter(w)
			next.ServeHTTP(rw, r)
			m.ObserveHTTP(r.Method, r.URL.Path, strconv.Itoa(rw.statusCode), time.Since(start).Seconds())
		})
	}
}
