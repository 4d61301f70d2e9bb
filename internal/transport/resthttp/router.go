package resthttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
)

const defaultRequestTimeout = 30 * time.Second

// NewRouter собирает chi-router сервиса с общими middleware.
// healthHandler монтируется на /health, metricsHandler — на /metrics;
// nil-хендлеры пропускаются.
func NewRouter(handler *Handler, logger *log.Logger, healthHandler, metricsHandler http.Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(defaultRequestTimeout))

	if healthHandler != nil {
		r.Method(http.MethodGet, "/health", healthHandler)
	}
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		handler.Register(r)
	})

	return r
}

// requestLogger пишет access-лог через logrus вместо стандартного
// chi middleware.Logger.
func requestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = log.StandardLogger()
	}
	entry := logger.WithField("component", "http")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			started := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			entry.WithFields(log.Fields{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"bytes":      ww.BytesWritten(),
				"duration":   time.Since(started).String(),
				"request_id": middleware.GetReqID(r.Context()),
			}).Info("Request handled")
		})
	}
}
