// internal/middleware/logging.go
package middleware

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// LogMiddleware logs every HTTP request with its method, path, duration, and
// remote address.
func LogMiddleware(logger *logrus.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			path := r.URL.Path
			method := r.Method

			next.ServeHTTP(w, r)

			logger.WithFields(logrus.Fields{
				"method":   method,
				"path":     path,
				"duration": time.Since(start),
				"remote":   r.RemoteAddr,
			}).Info("HTTP Request")
		})
	}
}

// LogWebSocketConnect logs an accepted push-channel upgrade, tagged with the
// game it belongs to.
func LogWebSocketConnect(logger *logrus.Logger, remoteAddr, gameID string) {
	logger.WithFields(logrus.Fields{
		"remote": remoteAddr,
		"game":   gameID,
	}).Info("WebSocket connected")
}

// LogWebSocketDisconnect logs a push-channel teardown. A nil err is a clean
// close.
func LogWebSocketDisconnect(logger *logrus.Logger, remoteAddr, gameID string, err error) {
	fields := logrus.Fields{
		"remote": remoteAddr,
		"game":   gameID,
	}
	if err != nil {
		fields["error"] = err
	}
	logger.WithFields(fields).Info("WebSocket disconnected")
}
