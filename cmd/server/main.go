package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/bayhub-app/deals/internal/ai"
	"github.com/bayhub-app/deals/internal/config"
	"github.com/bayhub-app/deals/internal/metacache"
	"github.com/bayhub-app/deals/internal/models"
	"github.com/bayhub-app/deals/internal/pipeline"
	"github.com/bayhub-app/deals/internal/source"
	"github.com/bayhub-app/deals/internal/validator"
)

type Server struct {
	aggregator *pipeline.Aggregator
	cache      *metacache.Cache
	titles     *ai.Client
	cfg        *config.Config
}

func main() {
	// .env is optional; real deployments use the environment directly.
	_ = godotenv.Load()

	slog.Info("Starting deal shelf service...")
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Critical error loading configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	titles, err := ai.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		slog.Warn("Title cleanup disabled", "error", err)
		titles = nil
	}

	cache := metacache.New(cfg)
	fetcher := source.New(cfg)
	normalizer := pipeline.NewNormalizer(validator.New())
	scorer := pipeline.NewScorer(cfg.Weights, cfg.TrustWeights)
	aggregator := pipeline.NewAggregator(fetcher, normalizer, scorer, cfg)

	srv := &Server{aggregator: aggregator, cache: cache, titles: titles, cfg: cfg}

	// Out-of-band resolution log; UI consumers subscribe the same way.
	cache.Subscribe(func(u metacache.Update) {
		slog.Info("Preview image resolved", "url", u.URL, "image", u.Image)
	})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /deals", srv.DealsHandler)
	mux.HandleFunc("GET /metadata", srv.MetadataHandler)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, `{"status":"ok"}`)
	})

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGTERM/SIGINT
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
		sig := <-sigCh
		slog.Info("Received signal, shutting down gracefully...", "signal", sig)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server shutdown error", "error", err)
		}
	}()

	slog.Info("Listening on port", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("Failed to listen and serve", "error", err)
		os.Exit(1)
	}
	slog.Info("Server stopped.")
}

// DealsHandler runs one aggregation cycle and returns the ranked shelf. The
// worst case is a fallback or empty shelf; upstream failures never surface as
// user-facing errors.
func (s *Server) DealsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	outcome := s.aggregator.Aggregate(ctx, time.Now())
	s.enrichTopTitles(ctx, outcome.Deals)

	// Attach whatever preview images are already cached and kick off
	// resolution for the rest; cards upgrade from placeholders later.
	for i := range outcome.Deals {
		deal := &outcome.Deals[i]
		if deal.ImageURL != "" {
			continue
		}
		if entry, ok := s.cache.Get(deal.URL); ok && entry.Image != "" {
			deal.ImageURL = entry.Image
			continue
		}
		go func(url string) {
			resolveCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
			defer cancel()
			if _, err := s.cache.Resolve(resolveCtx, url); err != nil {
				slog.Debug("Preview image resolution failed", "url", url, "error", err)
			}
		}(deal.URL)
	}

	writeJSON(w, http.StatusOK, outcome)
}

// MetadataHandler is the synchronous cache read. A miss answers 202 with a
// background resolution under way, so the caller polls rather than blocks.
func (s *Server) MetadataHandler(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if url == "" {
		http.Error(w, "missing url parameter", http.StatusBadRequest)
		return
	}

	if entry, ok := s.cache.Get(url); ok {
		writeJSON(w, http.StatusOK, entry)
		return
	}

	go func() {
		resolveCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		if _, err := s.cache.Resolve(resolveCtx, url); err != nil {
			slog.Debug("Preview image resolution failed", "url", url, "error", err)
		}
	}()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "resolving"})
}

// enrichTopTitles asks Gemini for tightened display titles on the top-tier
// deals. Any failure leaves the original title untouched.
func (s *Server) enrichTopTitles(ctx context.Context, deals []models.ScoredDeal) {
	for i := range deals {
		if !deals[i].IsTop3 {
			continue
		}
		clean, err := s.titles.CleanTitle(ctx, &deals[i].NormalizedDeal)
		if err != nil {
			slog.Warn("Title cleanup failed", "id", deals[i].ID, "error", err)
			continue
		}
		if clean != "" {
			deals[i].CleanTitle = clean
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
