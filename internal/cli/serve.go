package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/docdex-io/docdex/internal/assist"
	"github.com/docdex-io/docdex/internal/chunking"
	"github.com/docdex-io/docdex/internal/config"
	"github.com/docdex-io/docdex/internal/indexing"
	logpkg "github.com/docdex-io/docdex/internal/logger"
	"github.com/docdex-io/docdex/internal/metrics"
	"github.com/docdex-io/docdex/internal/session"
	"github.com/docdex-io/docdex/internal/transport/api"
	openaiTransport "github.com/docdex-io/docdex/internal/transport/openai"
	"github.com/docdex-io/docdex/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the docdex HTTP API server",
	Args:  cobra.NoArgs,
	Run: func(_ *cobra.Command, _ []string) {
		runServer()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServer() {
	// .env is optional; deployed environments set variables directly.
	_ = godotenv.Load()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting docdex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("chunking", cfg.Chunking.Strategy),
		zap.String("indexing", cfg.Indexing.Strategy),
		zap.String("assist_provider", cfg.Assist.Provider),
	)

	chunkStrategy, err := chunking.Parse(cfg.Chunking.Strategy)
	if err != nil {
		logger.Fatal("Unknown chunking strategy", zap.String("strategy", cfg.Chunking.Strategy))
	}
	indexStrategy, err := indexing.Parse(cfg.Indexing.Strategy)
	if err != nil {
		logger.Fatal("Unknown indexing strategy", zap.String("strategy", cfg.Indexing.Strategy))
	}

	// Register domain metrics explicitly (no init())
	metrics.RegisterRetrievalMetrics()
	metrics.RegisterAssistMetrics()

	manager := session.NewManager(session.Config{
		Chunking: chunkStrategy,
		ChunkConfig: chunking.Config{
			WindowSize:      cfg.Chunking.WindowSize,
			WindowOverlap:   cfg.Chunking.WindowOverlap,
			SemanticMinSize: cfg.Chunking.SemanticMinSize,
		},
		Indexing: indexStrategy,
	}, logger)

	assistSvc := assist.New(buildCompleter(cfg, logger), logger)

	server := api.NewServer(manager, assistSvc, api.Config{
		MaxTopK:        cfg.Retrieval.MaxTopK,
		MaxUploadBytes: cfg.Attachments.MaxUploadBytes,
	}, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(api.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Mount(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildCompleter picks the chat provider for the assist service. The
// stub needs no transport; openai and ollama both speak the
// OpenAI-compatible chat API.
//
// Returns a nil interface (not a typed nil pointer!) for the stub so
// assist.New applies its fallback.
func buildCompleter(cfg *config.Config, logger *zap.Logger) assist.Completer {
	switch cfg.Assist.Provider {
	case "openai", "ollama":
		return openaiTransport.NewCompleter(&openaiTransport.Config{
			APIKey:      cfg.Assist.APIKey,
			BaseURL:     cfg.Assist.BaseURL,
			Model:       cfg.Assist.Model,
			Temperature: cfg.Assist.Temperature,
			MaxTokens:   cfg.Assist.MaxTokens,
			Provider:    cfg.Assist.Provider,
			Logger:      logger,
		})
	default:
		return nil
	}
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"detail": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// One canonical log line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
