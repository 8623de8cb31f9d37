package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/finlens/ledgersync/internal/config"
	"github.com/finlens/ledgersync/internal/database"
	"github.com/finlens/ledgersync/internal/handlers"
	"github.com/finlens/ledgersync/internal/quickbooks"
	"github.com/finlens/ledgersync/internal/repositories"
	"github.com/finlens/ledgersync/internal/services"
)

func main() {
	ctx := context.Background()

	godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize database connections
	postgresPool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create postgres pool: %v", err)
	}
	defer postgresPool.Close()

	redisClient, err := database.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to create redis client: %v", err)
	}
	defer redisClient.Close()

	// Repositories
	userRepo := repositories.NewPostgresUserRepository(postgresPool)
	companyRepo := repositories.NewPostgresCompanyRepository(postgresPool)
	connectionRepo := repositories.NewPostgresConnectionRepository(postgresPool)
	recordRepo := repositories.NewPostgresRecordRepository(postgresPool)
	syncLogRepo := repositories.NewPostgresSyncLogRepository(postgresPool)
	sessionRepo := repositories.NewRedisSessionRepository(redisClient)

	// QuickBooks clients
	oauthClient := quickbooks.NewOAuthClient(quickbooks.OAuthConfig{
		ClientID:     cfg.QuickBooks.ClientID,
		ClientSecret: cfg.QuickBooks.ClientSecret,
		RedirectURI:  cfg.QuickBooks.RedirectURI,
		Scopes:       cfg.QuickBooks.Scopes,
		AuthURL:      cfg.QuickBooks.AuthURL,
		TokenURL:     cfg.QuickBooks.TokenURL,
	})
	fetcher := quickbooks.NewFetcher(cfg.QuickBooks.APIBaseURL)

	// Services
	authService := services.NewAuthService(userRepo, companyRepo, sessionRepo, services.LogMailer{}, cfg.JWTSecret, cfg.JWTExpiry)
	reconciler := services.NewReconciler(recordRepo)
	syncService := services.NewSyncService(connectionRepo, companyRepo, syncLogRepo, reconciler, oauthClient, fetcher)

	// HTTP server
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	authHandler := handlers.NewAuthHandler(authService)
	qbHandler := handlers.NewQuickBooksHandler(syncService, recordRepo, cfg.FrontendURL)
	router.Mount("/", handlers.NewRouter(authService, authHandler, qbHandler))

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: router,
	}

	// graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("Starting server on port %s", cfg.ServerPort)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server stopped gracefully")
}
