package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/pov-engine/internal/engine"
	"github.com/sells-group/pov-engine/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		limiter := rate.NewLimiter(rate.Limit(cfg.Server.RequestsPerSec), cfg.Server.Burst)

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))
		r.Use(rateLimit(limiter))

		r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Route("/api/v1/pov", func(r chi.Router) {
			r.Post("/generate", handleGenerate(e))
			r.Get("/{id}", handleGetModel(e))
			r.Get("/{id}/gaps", handleGetGaps(e))
			r.Get("/diff/{v1}/{v2}", handleDiff(e))
		})

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func rateLimit(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// handleGenerate runs the pipeline synchronously and returns the published
// bundle. Generation is pure computation plus one transaction, so there is
// no async job machinery; slow clients can set their own timeouts.
func handleGenerate(e *env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in engine.Input
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		bundle, err := e.Manager.Generate(r.Context(), in)
		if err != nil {
			zap.L().Error("api: generation failed",
				zap.String("engagement", in.EngagementID),
				zap.String("scope", in.Scope),
				zap.Error(err),
			)
			// Rejected input is the caller's problem; a failed save is ours.
			if errors.Is(err, engine.ErrInvalidInput) {
				writeError(w, http.StatusUnprocessableEntity, err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusCreated, bundle)
	}
}

func handleGetModel(e *env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		m, err := e.Store.GetModel(r.Context(), id)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		elements, err := e.Store.GetElements(r.Context(), id)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		contradictions, err := e.Store.GetContradictions(r.Context(), id)
		if err != nil {
			writeStoreError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"model":          m,
			"elements":       elements,
			"contradictions": contradictions,
		})
	}
}

func handleGetGaps(e *env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		if _, err := e.Store.GetModel(r.Context(), id); err != nil {
			writeStoreError(w, err)
			return
		}
		gaps, err := e.Store.GetGaps(r.Context(), id)
		if err != nil {
			writeStoreError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"gaps": gaps})
	}
}

func handleDiff(e *env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		diff, err := e.Manager.Diff(r.Context(), chi.URLParam(r, "v1"), chi.URLParam(r, "v2"))
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, diff)
	}
}

func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "model not found")
		return
	}
	zap.L().Error("api: store error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
