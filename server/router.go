package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/keylesszk/prover-service/metrics"
	"github.com/keylesszk/prover-service/server/api"
)

// The endpoints offered by the prover service.
const (
	AboutPath       = "/about"
	ConfigPath      = "/config"
	HealthCheckPath = "/healthcheck"
	JwkPath         = "/cached/jwk"
	VKPath          = "/v0/vk"
	ProvePath       = "/v0/prove"
)

const maxRequestBytes = 1 << 20

func setupRouter(server *api.Server, m *metrics.Metrics, requestTimeout time.Duration, logger Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(loggerMiddleware(logger))
	r.Use(metricsMiddleware(m))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.RequestSize(maxRequestBytes))

	// Proofs are requested straight from wallet frontends.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get(HealthCheckPath, server.HandleHealth)
	r.Get(AboutPath, server.HandleAbout)
	r.Get(ConfigPath, server.HandleConfig)
	r.Get(JwkPath, server.HandleCachedJwk)
	r.Get(VKPath, server.HandleVK)
	r.Post(ProvePath, server.HandleProve)

	r.MethodNotAllowed(server.HandleMethodNotAllowed)
	r.NotFound(server.HandleNotFound)

	return r
}

// metricsMiddleware records request counts and latency per path.
func metricsMiddleware(m *metrics.Metrics) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m == nil {
				next.ServeHTTP(w, r)
				return
			}
			start := time.Now()
			ww := &responseWriter{ResponseWriter: w, statusCode: 200}
			next.ServeHTTP(ww, r)

			m.RequestsTotal.WithLabelValues(r.URL.Path, strconv.Itoa(ww.statusCode)).Inc()
			m.RequestDurationSecs.WithLabelValues(r.URL.Path).Observe(time.Since(start).Seconds())
		})
	}
}
