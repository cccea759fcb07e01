// Package main is the entry point for the API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/villa-concierge/concierge-platform/internal/catalog"
	"github.com/villa-concierge/concierge-platform/internal/concierge"
	"github.com/villa-concierge/concierge-platform/internal/config"
	"github.com/villa-concierge/concierge-platform/internal/connmgr"
	"github.com/villa-concierge/concierge-platform/internal/conversation"
	"github.com/villa-concierge/concierge-platform/internal/handler"
	"github.com/villa-concierge/concierge-platform/internal/llm"
	"github.com/villa-concierge/concierge-platform/internal/model"
	natsclient "github.com/villa-concierge/concierge-platform/internal/nats"
	"github.com/villa-concierge/concierge-platform/internal/service"
	"github.com/villa-concierge/concierge-platform/internal/store"
	"github.com/villa-concierge/concierge-platform/pkg/logger"
	"github.com/villa-concierge/concierge-platform/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	log.Info("starting API server")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize tracing if enabled
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "villa-concierge", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(context.Background(), tp)
		}
	}

	manager := connmgr.New(log, connmgr.Options{
		Attempts: cfg.ConnectAttempts,
		Backoff:  cfg.ConnectBackoff,
	})

	// Document store. Bookings and users fall back to memory while Mongo is down.
	mongoClient, err := store.ConnectMongo(ctx, cfg.MongoURI)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(shutdownCtx)
	}()
	manager.Register(connmgr.Mongo, connmgr.PingFunc(store.PingMongo(mongoClient)))
	db := mongoClient.Database(cfg.MongoDatabase)
	if manager.Connect(ctx, connmgr.Mongo) {
		ensureIndexes(ctx, db, log)
	}

	bookingRepo := store.NewFallbackRepository[model.Booking](
		store.NewMongoRepository[model.Booking](db.Collection(store.BookingsCollection)),
		store.NewMemoryRepository[model.Booking](),
		manager, connmgr.Mongo,
	)
	userRepo := store.NewFallbackRepository[model.User](
		store.NewMongoRepository[model.User](db.Collection(store.UsersCollection)),
		store.NewMemoryRepository[model.User](),
		manager, connmgr.Mongo,
	)

	// Key-value store for conversations and refresh tokens.
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisClient.Close()
	manager.Register(connmgr.Redis, connmgr.PingFunc(func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	}))
	manager.Connect(ctx, connmgr.Redis)

	// Event stream
	var events natsclient.Publisher = natsclient.NopPublisher{}
	if cfg.NATSEnabled {
		natsClient, err := natsclient.Connect(ctx, natsclient.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			log.Warn("NATS unavailable, domain events disabled", zap.Error(err))
		} else {
			defer natsClient.Close()
			manager.Register(connmgr.NATS, natsClient)
			manager.Connect(ctx, connmgr.NATS)

			streamManager := natsclient.NewStreamManager(natsClient)
			if err := streamManager.EnsureStream(ctx); err != nil {
				log.Warn("failed to ensure event stream", zap.Error(err))
			} else {
				events = streamManager
			}
		}
	}

	// Catalog and domain handlers
	cat, err := catalog.Load(cfg.CatalogDir)
	if err != nil {
		log.Warn("failed to load catalog, using defaults", zap.String("dir", cfg.CatalogDir), zap.Error(err))
		cat = catalog.Default()
	}

	// Initialize services
	bookingSvc := service.NewBookingService(bookingRepo, events, log)
	authSvc := service.NewAuthService(userRepo, service.NewRefreshStore(redisClient, manager), service.AuthOptions{
		Secret:     cfg.JWTSecret,
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
	}, log)
	if cfg.GoogleClientID != "" {
		authSvc.RegisterOAuth(service.GoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.OAuthRedirectBase))
	}
	if cfg.FacebookClientID != "" {
		authSvc.RegisterOAuth(service.FacebookProvider(cfg.FacebookClientID, cfg.FacebookClientSecret, cfg.OAuthRedirectBase))
	}

	conversations := conversation.NewStore(conversation.Options{
		Redis:   redisClient,
		Manager: manager,
		TTL:     cfg.ConversationTTL,
		Logger:  log,
	})
	handlers := concierge.NewHandlers(cat, concierge.NewBookingAssistant(bookingSvc, log))
	llmClient := newLLMClient(cfg, log)
	completer := llm.NewCompleter(llmClient, llm.CompleterOptions{
		Model:      cfg.LLMModel,
		Timeout:    cfg.LLMTimeout,
		MaxRetries: cfg.LLMMaxRetries,
		Backoff:    cfg.LLMRetryBackoff,
		Logger:     log,
	})
	log.Info("completion provider configured", zap.String("provider", completer.Provider()))
	if llmClient != nil {
		// The health check probes the provider while in fallback mode.
		manager.Register(connmgr.LLM, completer)
		manager.Connect(ctx, connmgr.LLM)
	}

	chatSvc := service.NewChatService(service.ChatOptions{
		Conversations: conversations,
		Router:        handlers.Router(),
		Completer:     completer,
		Window:        conversation.NewWindow(cfg.ConversationWindow),
		Events:        events,
		Logger:        log,
		Knowledge:     handlers.Restaurant.MenuText(),
	})

	// Background loops stop with ctx.
	go manager.Run(ctx, cfg.HealthCheckInterval)
	go conversations.RunSweeper(ctx, cfg.SweepInterval)

	// Create HTTP server
	server := &http.Server{
		Addr: ":" + cfg.ServerPort,
		Handler: handler.NewRouter(handler.Deps{
			Chat:              chatSvc,
			Bookings:          bookingSvc,
			Auth:              authSvc,
			Manager:           manager,
			Logger:            log,
			AllowedOrigins:    cfg.AllowedOrigins,
			SecureCookies:     cfg.SecureCookies,
			RateLimitRequests: cfg.RateLimitRequests,
			RateLimitWindow:   cfg.RateLimitWindow,
		}),
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
	return nil
}

// newLLMClient builds the configured completion client. The other provider
// is used when only its key is set; with no key at all the chat answers
// with the fallback apology.
func newLLMClient(cfg *config.Config, log *logger.Logger) llm.Client {
	keys := map[llm.Provider]string{
		llm.ProviderAnthropic: cfg.AnthropicAPIKey,
		llm.ProviderOpenAI:    cfg.OpenAIAPIKey,
	}
	order := []llm.Provider{llm.ProviderAnthropic, llm.ProviderOpenAI}
	if llm.Provider(cfg.DefaultLLM) == llm.ProviderOpenAI {
		order = []llm.Provider{llm.ProviderOpenAI, llm.ProviderAnthropic}
	}
	for _, p := range order {
		if keys[p] == "" {
			continue
		}
		client, err := llm.NewClient(p, keys[p])
		if err != nil {
			log.Warn("failed to create completion client", zap.String("provider", string(p)), zap.Error(err))
			continue
		}
		return client
	}
	log.Warn("no completion API key configured, LLM features disabled")
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, log *logger.Logger) {
	if err := store.EnsureUniqueIndex(ctx, db.Collection(store.UsersCollection), "email"); err != nil {
		log.Warn("failed to ensure users index", zap.Error(err))
	}
}
