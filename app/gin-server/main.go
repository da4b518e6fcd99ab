package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/yoockh/resumerank/config"
	"github.com/yoockh/resumerank/internal/api/handlers"
	"github.com/yoockh/resumerank/internal/api/middleware"
	"github.com/yoockh/resumerank/internal/api/routes"
	"github.com/yoockh/resumerank/internal/cache"
	"github.com/yoockh/resumerank/internal/events"
	"github.com/yoockh/resumerank/internal/extract"
	"github.com/yoockh/resumerank/internal/logger"
	"github.com/yoockh/resumerank/internal/providers/llm"
	mongorepo "github.com/yoockh/resumerank/internal/repositories/mongo"
	pgrepo "github.com/yoockh/resumerank/internal/repositories/postgres"
	"github.com/yoockh/resumerank/internal/scoring"
	"github.com/yoockh/resumerank/internal/services"
	"github.com/yoockh/resumerank/internal/storage"
	"github.com/yoockh/resumerank/internal/token"
	"github.com/yoockh/resumerank/internal/workers"
)

type closer interface{ Close() error }

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config error: %v", err)
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Init PostgreSQL
	db, err := config.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("PostgreSQL init error: %v", err)
	}
	defer func() { _ = config.ClosePostgres(db) }()
	if cfg.Database.AutoMigrate {
		if err := config.Migrate(db); err != nil {
			log.Fatalf("migration error: %v", err)
		}
	}
	log.Info("PostgreSQL connected")

	// Init Redis (optional)
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb, err = config.NewRedis(ctx, cfg.Redis)
		if err != nil {
			log.Fatalf("Redis init error: %v", err)
		}
		defer rdb.Close()
		log.Info("Redis connected")
	}

	// Init MongoDB (optional)
	var archive mongorepo.AnalysisLogRepository
	if cfg.Mongo.URI != "" {
		mc, err := config.NewMongo(ctx, cfg.Mongo)
		if err != nil {
			log.Fatalf("MongoDB init error: %v", err)
		}
		defer func(c *mongo.Client) {
			dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = c.Disconnect(dctx)
		}(mc)
		mdb := mc.Database(cfg.Mongo.DB)
		if err := config.EnsureMongoIndexes(ctx, mdb); err != nil {
			log.Fatalf("MongoDB index error: %v", err)
		}
		archive = mongorepo.NewAnalysisLogRepo(mdb, cfg.Mongo.ArchiveTTL)
		log.Info("MongoDB connected")
	}

	// Oracle transport
	provider, err := newProvider(ctx, cfg.LLM)
	if err != nil {
		log.Fatalf("LLM init error: %v", err)
	}
	defer provider.Close()
	oracle := scoring.NewClient(provider, log,
		scoring.WithRetry(cfg.Scoring.MaxAttempts, cfg.Scoring.Backoff),
		scoring.WithRequestTimeout(cfg.LLM.RequestTimeout),
	)

	// Original file archive (optional)
	var uploader storage.Uploader
	switch cfg.Storage.Provider {
	case "gcs":
		uploader, err = storage.NewGCSUploader(ctx, cfg.Storage.Bucket, cfg.Storage.CredentialsFile)
	case "s3":
		uploader, err = storage.NewS3Uploader(ctx, storage.S3Config{
			Bucket:    cfg.Storage.Bucket,
			Endpoint:  cfg.Storage.S3Endpoint,
			Region:    cfg.Storage.S3Region,
			AccessKey: cfg.Storage.S3AccessKey,
			SecretKey: cfg.Storage.S3SecretKey,
		})
	}
	if err != nil {
		log.Fatalf("storage init error: %v", err)
	}
	if uploader != nil {
		defer uploader.Close()
	}

	// Cache, locks and progress events
	var (
		rankings cache.Cache  = cache.Noop{}
		locker   cache.Locker = cache.NewLocalLocker()
		pubs     events.Fanout
		queue    services.Enqueuer
	)
	if rdb != nil {
		rankings = cache.NewRedisCache(rdb, cfg.Redis.KeyPrefix)
		locker = cache.NewRedisLocker(rdb)
		pubs = append(pubs, events.NewRedisPublisher(rdb))
		queue = &workers.AnalysisQueue{Redis: rdb}
	}
	if cfg.AMQP.URL != "" {
		ap, err := events.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			log.Fatalf("AMQP init error: %v", err)
		}
		defer ap.Close()
		pubs = append(pubs, ap)
	}
	var publisher events.Publisher = events.Noop{}
	if len(pubs) > 0 {
		publisher = pubs
	}

	// Repositories
	users := pgrepo.NewUserRepo(db)
	guestRepo := pgrepo.NewGuestSessionRepo(db)
	jobRepo := pgrepo.NewJobRepo(db)
	resumeRepo := pgrepo.NewResumeRepo(db)

	// Services
	tokens := token.NewManager(cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	authSvc := services.NewAuthService(users, tokens)
	guestSvc := services.NewGuestService(guestRepo, cfg.Guest.SessionTTL)
	jobSvc := services.NewJobService(jobRepo, resumeRepo, rankings, cfg.Redis.RankingsTTL, log)
	uploadSvc := services.NewUploadService(jobSvc, resumeRepo, extract.New(), uploader, rankings, cfg.Upload.MaxFileBytes, log)
	analysisSvc := services.NewAnalysisService(services.AnalysisDeps{
		Jobs:    jobRepo,
		Resumes: resumeRepo,
		Oracle:  oracle,
		Archive: archive,
		Queue:   queue,
		Cache:   rankings,
		Locker:  locker,
		Events:  publisher,
		Logger:  log,
		Workers: cfg.Analysis.Workers,
		LockTTL: cfg.Analysis.LockTTL,
	})

	if rdb != nil {
		pool := &workers.AnalysisWorkerPool{
			Redis:      rdb,
			Analysis:   analysisSvc,
			Events:     publisher,
			NumWorkers: 1,
			Logger:     log,
		}
		if err := pool.Start(ctx); err != nil {
			log.Fatalf("worker init error: %v", err)
		}
	}

	// Handlers
	deps := routes.Deps{
		Tokens: tokens,
		Roles: func(ctx context.Context, userID string) (string, error) {
			u, err := authSvc.Me(ctx, userID)
			if err != nil {
				return "", err
			}
			return string(u.Role), nil
		},
		Auth:          handlers.NewAuthHandler(authSvc, guestSvc, log),
		Guest:         handlers.NewGuestHandler(guestSvc),
		Job:           handlers.NewJobHandler(jobSvc),
		Resume:        handlers.NewResumeHandler(jobSvc, uploadSvc, analysisSvc, cfg.Upload.MaxFileBytes),
		AsyncAnalysis: queue != nil,
		AnalysisLog:   archive != nil,
	}
	if rdb != nil {
		deps.WS = handlers.NewWSHandler(jobSvc, rdb, cfg.HTTP.WSOrigins)
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))
	routes.RegisterRoutes(r, deps)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.HTTP.Port).Info("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	sctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.WithError(err).Error("http server shutdown")
	}
}

type llmProvider interface {
	llm.Provider
	closer
}

func newProvider(ctx context.Context, cfg config.LLM) (llmProvider, error) {
	switch cfg.Provider {
	case "vertex":
		return llm.NewVertexGemini(ctx, cfg.ProjectID, cfg.Location, cfg.Model)
	default:
		return llm.NewGeminiAPI(ctx, cfg.APIKey, cfg.Model)
	}
}
