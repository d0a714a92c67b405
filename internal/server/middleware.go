package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/agbru/cpuwatch/internal/logging"
)

// metricsMiddleware tracks in-flight requests and counts completed ones by
// status code. Streams stay in flight for their whole lifetime.
func (s *Server) metricsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.metrics.IncrementActiveRequests()
		defer s.metrics.DecrementActiveRequests()

		ww, ok := w.(middleware.WrapResponseWriter)
		if !ok {
			ww = middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		}
		next(ww, r)
		s.metrics.ObserveRequest(r.Method, responseStatus(ww, r))
	}
}

// logRequests writes one debug entry per completed request.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", responseStatus(ww, r)),
			logging.Int("bytes", ww.BytesWritten()),
			logging.Duration("duration", time.Since(start)),
			logging.String("remote", r.RemoteAddr),
			logging.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

// responseStatus returns the written status. Hijacked WebSocket connections
// never report one through the wrapper.
func responseStatus(ww middleware.WrapResponseWriter, r *http.Request) int {
	if status := ww.Status(); status != 0 {
		return status
	}
	if websocket.IsWebSocketUpgrade(r) {
		return http.StatusSwitchingProtocols
	}
	return http.StatusOK
}
