// Package apihttp exposes the resolution and classification core to
// collaborators (dashboard, inventory sync) over HTTP.
package apihttp

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/bavix/macscope/internal/classify"
	"github.com/bavix/macscope/internal/resolver"
	"github.com/bavix/macscope/internal/vendordb"
	"github.com/bavix/macscope/internal/version"
)

const (
	defaultReadHeaderTimeout = 5 * time.Second
	defaultIdleTimeout       = 10 * time.Second
	defaultWriteTimeout      = 30 * time.Second
	defaultShutdownTimeout   = 5 * time.Second
	maxBatchSize             = 1024
)

var errBatchTooLarge = errors.New("batch size exceeds limit")

// Server serves the resolution API.
type Server struct {
	addr        string
	resolver    *resolver.Resolver
	classifier  *classify.Classifier
	concurrency int
	handler     http.Handler
}

// New builds the API server around an already-wired resolver and classifier.
func New(addr string, res *resolver.Resolver, cls *classify.Classifier, batchConcurrency int) *Server {
	s := &Server{
		addr:        addr,
		resolver:    res,
		classifier:  cls,
		concurrency: batchConcurrency,
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(cors.AllowAll().Handler)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Post("/resolve", s.handleResolve)
		r.Post("/batch", s.handleBatch)
		r.Post("/classify", s.handleClassify)
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	s.handler = otelhttp.NewHandler(r, "apihttp")

	return s
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler { return s.handler }

// Serve runs the server until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.handler,
		ReadHeaderTimeout: defaultReadHeaderTimeout,
		IdleTimeout:       defaultIdleTimeout,
		WriteTimeout:      defaultWriteTimeout,
	}

	errCh := make(chan error, 1)

	go func() {
		zerolog.Ctx(ctx).Info().Str("listen", s.addr).Msg("api server started")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

type resolveRequest struct {
	MAC string `json:"mac"`
}

type resolveResponse struct {
	MAC    string `json:"mac"`
	Vendor string `json:"vendor"`
	Source string `json:"source,omitempty"`
	Error  string `json:"error,omitempty"`
}

type batchRequest struct {
	MACs []string `json:"macs"`
}

type classifyResponse struct {
	classify.Classification

	Hostname string `json:"hostname,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{
		"status":  "ok",
		"version": version.GetVersion(),
	})
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)

		return
	}

	rec, err := s.resolver.Resolve(r.Context(), req.MAC)

	render.JSON(w, r, resolveResponse{
		MAC:    req.MAC,
		Vendor: rec.Vendor,
		Source: rec.Source,
		Error:  vendordb.Kind(err),
	})
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)

		return
	}

	if len(req.MACs) > maxBatchSize {
		http.Error(w, errBatchTooLarge.Error(), http.StatusRequestEntityTooLarge)

		return
	}

	outcomes := s.resolver.BatchResolve(r.Context(), req.MACs, s.concurrency)

	out := make(map[string]resolveResponse, len(outcomes))
	for mac, outcome := range outcomes {
		out[mac] = resolveResponse{
			MAC:    mac,
			Vendor: outcome.Record.Vendor,
			Source: outcome.Record.Source,
			Error:  vendordb.Kind(outcome.Err),
		}
	}

	render.JSON(w, r, out)
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var obs classify.Observation
	if err := render.DecodeJSON(r.Body, &obs); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)

		return
	}

	render.JSON(w, r, classifyResponse{
		Classification: s.classifier.Classify(obs),
		Hostname:       obs.Hostname,
	})
}
