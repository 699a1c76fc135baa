package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"cardquiz/internal/cache"
	"cardquiz/internal/config"
	"cardquiz/internal/database"
	"cardquiz/internal/handlers"
	"cardquiz/internal/history"
	"cardquiz/internal/media"
	"cardquiz/internal/messaging"
	"cardquiz/internal/repository"
	"cardquiz/internal/security"
	"cardquiz/internal/service"
)

const (
	sweepInterval   = time.Minute
	cleanupInterval = time.Hour
	shutdownTimeout = 10 * time.Second
)

func main() {
	// Load configuration
	cfg := config.Load()
	ctx := context.Background()

	// Initialize database with config (supports sqlite, postgres, mysql)
	handlers.SetCurrentStep(handlers.StepDatabase)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()
	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)
	handlers.CompleteStep(handlers.StepDatabase)

	handlers.SetCurrentStep(handlers.StepMigrations)
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Migrations completed successfully")
	handlers.CompleteStep(handlers.StepMigrations)

	// Redis is optional: without it the catalog is read straight from the
	// database and history is kept on disk.
	handlers.SetCurrentStep(handlers.StepCache)
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient, err = cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Printf("Warning: Redis unavailable, continuing without it: %v", err)
		} else {
			defer redisClient.Close()
			log.Printf("Connected to Redis at %s", cfg.RedisAddr)
		}
	}

	var questionCache service.QuestionCache
	var historyStore history.Store
	if redisClient != nil {
		questionCache = cache.NewCatalogCache(redisClient, cfg.CatalogTTL)
		historyStore = history.NewRedisStore(redisClient)
	} else {
		fileStore, err := history.NewFileStore(cfg.HistoryDir)
		if err != nil {
			log.Fatalf("Failed to open history directory: %v", err)
		}
		historyStore = fileStore
	}
	handlers.CompleteStep(handlers.StepCache)

	handlers.SetCurrentStep(handlers.StepCatalog)
	catalogService := service.NewCatalogService(db, questionCache)
	if n, err := catalogService.SeedFromDir(ctx, cfg.CatalogSeedPath); err != nil {
		log.Printf("Warning: Failed to seed quiz catalog: %v", err)
	} else {
		log.Printf("Quiz catalog seeded with %d questions", n)
	}
	handlers.CompleteStep(handlers.StepCatalog)

	handlers.SetCurrentStep(handlers.StepBroker)
	var publisher messaging.Publisher = messaging.NoopPublisher{}
	if cfg.RabbitMQURL != "" {
		rabbit, err := messaging.NewRabbitMQClient(cfg.RabbitMQURL, cfg.SessionEventsQ)
		if err != nil {
			log.Printf("Warning: RabbitMQ unavailable, session events disabled: %v", err)
		} else {
			publisher = rabbit
			log.Printf("Publishing session events to %s", cfg.SessionEventsQ)
		}
	}
	defer publisher.Close()
	handlers.CompleteStep(handlers.StepBroker)

	handlers.SetCurrentStep(handlers.StepServices)
	mediaResolver, err := newMediaResolver(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to load media manifest: %v", err)
	}

	emailService, err := service.NewEmailService(ctx, cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL, cfg.EmailDebug)
	if err != nil {
		log.Printf("Warning: Email service unavailable: %v", err)
		emailService = nil
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)

	// Initialize services
	var mailer service.Mailer
	if emailService != nil {
		mailer = emailService
	}
	authService := service.NewAuthService(userRepo, security.NewTokenIssuer(cfg.JWTSecret), mailer, cfg.SessionDuration)
	recorder := service.NewSessionRecorder(sessionRepo, publisher)
	quizService := service.NewQuizService(catalogService, recorder, mediaResolver, cfg.AttemptIdleTimeout)
	unsubscribe := quizService.WatchAuth(authService)
	defer unsubscribe()

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	quizService.Start(sweepCtx, sweepInterval)

	oauthProviders := map[string]handlers.OAuthProvider{
		"google": {
			Name:  "google",
			Label: "Google",
			Config: &oauth2.Config{
				ClientID:     cfg.GoogleClientID,
				ClientSecret: cfg.GoogleClientSecret,
				Endpoint:     google.Endpoint,
				Scopes:       []string{"openid", "email", "profile"},
			},
			UserInfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
		},
	}
	states := security.NewStateSigner(cfg.JWTSecret, 10*time.Minute)

	// Initialize handlers
	middleware := handlers.NewMiddleware(authService)
	authHandler := handlers.NewAuthHandler(authService, oauthProviders, cfg.OAuthRedirectBaseURL, cfg.AppRedirectURL, states)
	quizHandler := handlers.NewQuizHandler(catalogService, quizService, historyStore)
	progressHandler := handlers.NewProgressHandler(sessionRepo, historyStore)

	authLimiter := security.NewRateLimiter(10, time.Minute)
	defer authLimiter.Stop()
	handlers.CompleteStep(handlers.StepServices)

	// Setup routes
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handlers.Healthz)
	if cfg.MinioEndpoint == "" {
		mux.Handle("GET /media/", http.StripPrefix("/media/", http.FileServer(http.Dir(cfg.MediaDir))))
	}

	// Identity
	mux.HandleFunc("POST /api/auth/signup", authLimiter.Middleware(authHandler.SignUp))
	mux.HandleFunc("POST /api/auth/signin", authLimiter.Middleware(authHandler.SignIn))
	mux.HandleFunc("POST /api/auth/signout", authHandler.SignOut)
	mux.HandleFunc("POST /api/auth/password-reset", authLimiter.Middleware(authHandler.RequestPasswordReset))
	mux.HandleFunc("POST /api/auth/password-reset/confirm", authLimiter.Middleware(authHandler.ConfirmPasswordReset))
	mux.HandleFunc("GET /api/auth/oauth/{provider}", authHandler.StartOAuth)
	mux.HandleFunc("GET /api/auth/oauth/{provider}/callback", authHandler.OAuthCallback)
	mux.HandleFunc("GET /api/me", middleware.RequireAuth(authHandler.Me))

	// Quizzes and attempts. Guests may play.
	mux.HandleFunc("GET /api/quizzes", quizHandler.ListQuizzes)
	mux.HandleFunc("POST /api/quizzes/{quizId}/attempts", middleware.OptionalAuth(quizHandler.StartAttempt))
	mux.HandleFunc("GET /api/attempts/{id}", middleware.OptionalAuth(quizHandler.GetAttempt))
	mux.HandleFunc("POST /api/attempts/{id}/answer", middleware.OptionalAuth(quizHandler.Answer))
	mux.HandleFunc("POST /api/attempts/{id}/next", middleware.OptionalAuth(quizHandler.Advance))
	mux.HandleFunc("POST /api/attempts/{id}/mood", middleware.OptionalAuth(quizHandler.SelectMood))
	mux.HandleFunc("DELETE /api/attempts/{id}", middleware.OptionalAuth(quizHandler.Teardown))

	// Progress
	mux.HandleFunc("GET /api/progress", middleware.RequireAuth(progressHandler.GetProgress))
	mux.HandleFunc("GET /api/history", middleware.RequireAuth(progressHandler.GetHistory))
	mux.HandleFunc("PUT /api/history", middleware.RequireAuth(progressHandler.PutHistory))
	mux.HandleFunc("GET /api/history/summary", middleware.RequireAuth(progressHandler.GetHistorySummary))

	// Wrap with logging middleware
	handler := handlers.Logging(handlers.RequireReady(mux))

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start background session cleanup
	go cleanupExpiredSessions(sweepCtx, authService)

	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()
	handlers.MarkReady()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	handlers.MarkStopping()

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	}

	// Open attempts are auto-closed before the store goes away
	quizService.Stop(shutdownCtx)
	log.Println("Server stopped")
}

// newMediaResolver builds the media link resolver. With MinIO configured,
// links are presigned; otherwise they point at MediaBaseURL.
func newMediaResolver(ctx context.Context, cfg *config.Config) (*media.Resolver, error) {
	manifest, err := media.LoadManifest(cfg.MediaManifestPath)
	if err != nil {
		return nil, err
	}
	resolver := media.NewResolver(manifest, cfg.MediaBaseURL)

	if cfg.MinioEndpoint == "" {
		return resolver, nil
	}

	storage, err := media.NewObjectStorage(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
	if err != nil {
		log.Printf("Warning: MinIO unavailable, serving static media links: %v", err)
		return resolver, nil
	}
	if err := storage.EnsureBucket(ctx); err != nil {
		log.Printf("Warning: MinIO bucket check failed, serving static media links: %v", err)
		return resolver, nil
	}
	log.Printf("Presigning media links from bucket %s", cfg.MinioBucket)
	return resolver.WithPresigner(storage, cfg.MediaURLTTL), nil
}

// cleanupExpiredSessions periodically removes expired auth sessions and reset tokens
func cleanupExpiredSessions(ctx context.Context, authService *service.AuthService) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := authService.CleanupExpired(ctx); err != nil {
				log.Printf("Error cleaning up expired sessions: %v", err)
			} else {
				log.Println("Expired sessions cleaned up")
			}
		case <-ctx.Done():
			return
		}
	}
}
