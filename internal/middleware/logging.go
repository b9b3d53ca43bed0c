package middleware

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"bookrec/internal/logger"
)

// RequestLogger logs incoming requests at the INFO level.
func RequestLogger(log *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := record(w)

			next.ServeHTTP(rec, r)

			log.WithFields(logrus.Fields{
				"request_id": logger.IDFrom(r.Context()),
				"method":     r.Method,
				"path":       r.URL.Path,
				"query":      r.URL.Query(),
				"status":     rec.code(),
				"remote":     r.RemoteAddr,
				"agent":      r.UserAgent(),
				"took":       time.Since(start),
			}).Info("http.request")
		})
	}
}
