// Package http exposes the redirect service over HTTP, with health and
// Prometheus metrics endpoints alongside the resolution API.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"tunelink/internal/core"
	"tunelink/pkg/musiclink"
)

// TrackResolver is the slice of the resolver the HTTP layer needs.
type TrackResolver interface {
	Resolve(ctx context.Context, rawURL string, pref musiclink.Platform) core.Result
}

// PreferenceStore persists a user's preferred platform across requests.
type PreferenceStore interface {
	Get(ctx context.Context, userKey string) (musiclink.Platform, error)
	Set(ctx context.Context, userKey string, platform musiclink.Platform) error
}

type Server struct {
	config   *core.ServerConfig
	logger   *zap.Logger
	server   *http.Server
	metrics  *Metrics
	resolver TrackResolver
	prefs    PreferenceStore
}

type Metrics struct {
	ResolutionsTotal  *prometheus.CounterVec
	ResolveDuration   *prometheus.HistogramVec
	PreferenceUpdates prometheus.Counter
	ErrorsTotal       *prometheus.CounterVec
}

func NewServer(config *core.ServerConfig, resolver TrackResolver, prefs PreferenceStore, registry *prometheus.Registry, logger *zap.Logger) *Server {
	metrics := &Metrics{
		ResolutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tunelink_resolutions_total",
				Help: "Total number of redirect requests by source platform and outcome",
			},
			[]string{"source", "outcome"},
		),
		ResolveDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tunelink_resolve_duration_seconds",
				Help:    "Time spent resolving a link",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
		PreferenceUpdates: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tunelink_preference_updates_total",
				Help: "Total number of explicit preference updates",
			},
		),
		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tunelink_errors_total",
				Help: "Total number of rejected or failed requests",
			},
			[]string{"endpoint", "reason"},
		),
	}

	registry.MustRegister(
		metrics.ResolutionsTotal,
		metrics.ResolveDuration,
		metrics.PreferenceUpdates,
		metrics.ErrorsTotal,
	)

	s := &Server{
		config:   config,
		logger:   logger,
		metrics:  metrics,
		resolver: resolver,
		prefs:    prefs,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/redirect", s.handleRedirect)
	mux.HandleFunc("/set_preference", s.handleSetPreference)

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok","service":"tunelink"}`))
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ready","service":"tunelink"}`))
	})

	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(indexPage))
	})

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      mux,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}

	return s
}

// Handler exposes the routing table, used by tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting HTTP server",
		zap.String("addr", s.server.Addr))

	go func() {
		<-ctx.Done()
		s.logger.Info("Shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Failed to shutdown HTTP server gracefully", zap.Error(err))
		}
	}()

	if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

const indexPage = `<!DOCTYPE html>
<html>
<head>
    <title>TuneLink</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 40px; }
        .header { color: #333; }
        .endpoint { margin: 10px 0; }
        .endpoint a { text-decoration: none; color: #0066cc; }
        .endpoint a:hover { text-decoration: underline; }
    </style>
</head>
<body>
    <h1 class="header">🎵 TuneLink</h1>
    <p>Smart music link redirector</p>

    <h2>Endpoints</h2>
    <div class="endpoint">🔀 <code>/redirect?url=&lt;link&gt;&amp;pref=&lt;platform&gt;</code> - Resolve a music link</div>
    <div class="endpoint">⚙️ <code>/set_preference?pref=&lt;platform&gt;</code> - Store a preferred platform</div>
    <div class="endpoint">📊 <a href="/metrics">Metrics</a> - Prometheus metrics</div>
    <div class="endpoint">💚 <a href="/healthz">Health</a> - Health check</div>
    <div class="endpoint">✅ <a href="/readyz">Ready</a> - Readiness check</div>
</body>
</html>`
