package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/AnshRaj112/ediary-backend/internal/config"
	"github.com/AnshRaj112/ediary-backend/internal/database"
	"github.com/AnshRaj112/ediary-backend/internal/handlers"
	"github.com/AnshRaj112/ediary-backend/internal/logger"
	"github.com/AnshRaj112/ediary-backend/internal/middleware"
	"github.com/AnshRaj112/ediary-backend/internal/routes"
	"github.com/AnshRaj112/ediary-backend/internal/services"
	"github.com/AnshRaj112/ediary-backend/pkg/utils"
)

const connectTimeout = 2 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logger.New("ediary-backend", cfg.LogLevel, !cfg.IsProduction())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Check encryption key (warn if not set, but don't fail)
	var encryptionKey []byte
	if cfg.EncryptionKey == "" {
		log.Warn().Msg("⚠️  ENCRYPTION_KEY not set. Phone numbers will be stored in plaintext. Generate one with: openssl rand -base64 32")
	} else if encryptionKey, err = utils.ParseEncryptionKey(cfg.EncryptionKey); err != nil {
		log.Fatal().Err(err).Msg("ENCRYPTION_KEY is invalid")
	} else {
		log.Info().Msg("✅ Encryption key configured")
	}

	// Connect to PostgreSQL
	log.Info().Msg("Connecting to PostgreSQL...")
	pg, err := database.Retry(ctx, "postgres", connectTimeout, func(ctx context.Context) (*sql.DB, error) {
		return database.ConnectPostgres(ctx, cfg.PostgresURI)
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.DisconnectPostgres(pg)

	// Connect to Redis
	log.Info().Msg("Connecting to Redis...")
	rdb, err := database.Retry(ctx, "redis", connectTimeout, func(ctx context.Context) (*redis.Client, error) {
		return database.ConnectRedis(ctx, cfg.RedisURI)
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.DisconnectRedis(rdb)

	// Connect to MongoDB
	log.Info().Msg("Connecting to MongoDB...")
	var mongoDB *mongo.Database
	mongoClient, err := database.Retry(ctx, "mongo", connectTimeout, func(ctx context.Context) (*mongo.Client, error) {
		client, db, err := database.ConnectMongo(ctx, cfg.MongoURI)
		mongoDB = db
		return client, err
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer database.DisconnectMongo(mongoClient)

	if err := database.EnsureDiaryIndexes(ctx, mongoDB); err != nil {
		log.Warn().Err(err).Msg("⚠️  failed to ensure MongoDB diary indexes")
	} else {
		log.Info().Msg("✅ MongoDB diary indexes ensured")
	}

	images := newImageStore(ctx, cfg)

	hub := services.NewHub()
	bus := services.NewRedisEventBus(rdb, hub)
	go bus.Run(ctx)

	tokens := services.NewTokenService(cfg.JWTSecret, cfg.TokenTTL, services.NewRedisRevoker(rdb))
	diaryOpts := []services.DiaryOption{
		services.WithListCache(services.NewRedisListCache(rdb, cfg.CacheTTL)),
		services.WithEvents(bus),
	}
	if images != nil {
		diaryOpts = append(diaryOpts, services.WithImageStore(images))
	}
	h := &handlers.Handler{
		Diaries: services.NewDiaryService(services.NewMongoDiaryStore(mongoDB), diaryOpts...),
		Auth:    services.NewAuthService(services.NewPostgresUserStore(pg, encryptionKey), tokens),
		Tokens:  tokens,
		Hub:     hub,
		Images:  images,
	}

	// Setup router
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.AccessLog)
	r.Use(middleware.Metrics)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Production: SecurityHeaders → HostCheck → GlobalRateLimit → LoginRateLimit
	// Non-production: Redis-based rate limit only
	if cfg.IsProduction() {
		for _, mw := range middleware.ProductionSecurity(cfg.AllowedHost) {
			r.Use(mw)
		}
		log.Info().Msg("✅ Production security enabled (security headers, per-IP + login rate limiting)")
	} else {
		r.Use(middleware.RateLimit(middleware.NewRedisRateStore(rdb)))
	}

	routes.SetupRoutes(r, h)
	logRoutes(r)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Msgf("🚀 eDiary backend running on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// newImageStore builds the configured upload backend, or nil when uploads are unavailable.
func newImageStore(ctx context.Context, cfg *config.Config) services.ImageStore {
	switch cfg.ImageStore {
	case config.ImageStoreCloudinary:
		if cfg.CloudinaryName == "" || cfg.CloudinaryAPIKey == "" || cfg.CloudinaryAPISecret == "" {
			log.Warn().Msg("Cloudinary credentials not found. Image uploads will not be available")
			return nil
		}
		store, err := services.NewCloudinaryImageStore(cfg.CloudinaryName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize Cloudinary. Image uploads will not be available")
			return nil
		}
		log.Info().Msg("✅ Cloudinary image store initialized")
		return store
	case config.ImageStoreS3:
		store, err := services.NewS3ImageStore(ctx, services.S3Options{
			Bucket:        cfg.S3Bucket,
			Region:        cfg.S3Region,
			Endpoint:      cfg.S3Endpoint,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			PublicBaseURL: cfg.S3PublicBaseURL,
		})
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize S3. Image uploads will not be available")
			return nil
		}
		log.Info().Str("bucket", cfg.S3Bucket).Msg("✅ S3 image store initialized")
		return store
	default:
		log.Info().Msg("Image uploads disabled")
		return nil
	}
}

func logRoutes(r chi.Routes) {
	log.Info().Msg("📋 Registered routes:")
	_ = chi.Walk(r, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		log.Info().Msgf("  %-6s %s", method, route)
		return nil
	})
}
