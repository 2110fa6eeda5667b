package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"sorachio-backend/cmd"
	"sorachio-backend/internal/api"
	"sorachio-backend/internal/chat"
	"sorachio-backend/internal/config"
	"sorachio-backend/internal/gateway"
	"sorachio-backend/internal/imaging"
	"sorachio-backend/internal/search"
)

func main() {
	log.Println("Starting Sorachio chat server...")

	cmd.LoadEnvFile()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	var searcher gateway.Searcher
	if cfg.BraveAPIKey != "" {
		searcher = search.NewClient(cfg.BraveBaseURL, cfg.BraveAPIKey)
	} else {
		slog.Warn("BRAVE_API_KEY not set, internet search augmentation is disabled")
	}

	relay := gateway.NewRelay(gateway.Config{
		BaseURL:  cfg.OpenRouterBaseURL,
		APIKey:   cfg.OpenRouterAPIKey,
		Referer:  cfg.Referer,
		AppTitle: cfg.AppTitle,
	}, searcher)

	store := chat.NewStore()
	orch := chat.NewOrchestrator(store, relay, chat.NewKeywordDecider(), imaging.NewJPEGCodec(), cfg.Model, cfg.TurnTimeout)

	r := chi.NewRouter()

	// The gateway holds no per-user session state, so wide-open CORS is
	// acceptable here.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"*"},
		MaxAge:         300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", api.RestHandler(func(r *http.Request) (any, error) { return nil, nil }))
	api.NewGatewayService(relay).AddRoutes(r)
	api.NewSessionService(store, orch).AddRoutes(r)

	server := &http.Server{
		Addr:    ":" + cfg.APIPort,
		Handler: r,
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Fatalf("Server forced to shutdown: %v", err)
		}
	}()

	log.Printf("Chat server listening on port %s", cfg.APIPort)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Could not listen on %s: %v\n", cfg.APIPort, err)
	}

	log.Println("Server stopped.")
}
