package bootstrap

import (
	"context"
	"time"

	"intake_server/adapter/out/ai"
	"intake_server/adapter/out/mongodb"
	"intake_server/adapter/out/persistence"
	"intake_server/adapter/out/provider"
	"intake_server/adapter/out/redislock"
	"intake_server/config"
	"intake_server/core/port/out"
	"intake_server/core/service/classification"
	"intake_server/core/service/extraction"
	"intake_server/core/service/intake"
	"intake_server/core/service/resolution"
	"intake_server/infra/database"
	"intake_server/pkg/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// Dependencies wires the full intake pipeline.
type Dependencies struct {
	Config  *config.Config
	DB      *pgxpool.Pool
	SQLDB   *sqlx.DB
	Redis   *redis.Client
	MongoDB *mongo.Client

	// Repositories
	ContactRepo  out.ContactRepository
	LedgerRepo   out.LedgerRepository
	ActivityRepo out.ActivityRepository
	CursorRepo   out.SyncCursorRepository

	// Providers
	MailProvider out.MailProvider
	Classifier   out.TextClassifier
	Archive      out.MessageArchive
	SyncLock     out.SyncLocker

	// Services
	Detector     *classification.Detector
	Extractor    *extraction.Extractor
	Resolver     *resolution.Resolver
	Orchestrator *intake.Orchestrator
	SyncService  *intake.SyncService
}

// NewDependencies builds every adapter and service from config. The
// returned cleanup closes connections in reverse creation order.
func NewDependencies(cfg *config.Config) (*Dependencies, func(), error) {
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	cleanups = append(cleanups, func() { db.Close() })

	sqlDB, err := database.NewSQLX(cfg.DatabaseURL)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	cleanups = append(cleanups, func() { sqlDB.Close() })

	redisClient, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	cleanups = append(cleanups, func() { redisClient.Close() })

	deps := &Dependencies{
		Config: cfg,
		DB:     db,
		SQLDB:  sqlDB,
		Redis:  redisClient,
	}

	// MongoDB is optional: without it review-flagged messages are not
	// archived but the pipeline still runs.
	if cfg.MongoDBURL != "" {
		mongoClient, err := mongodb.NewClient(cfg.MongoDBURL)
		if err != nil {
			logger.Warn("MongoDB unavailable, message archive disabled: %v", err)
		} else {
			cleanups = append(cleanups, func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = mongoClient.Disconnect(ctx)
			})
			deps.MongoDB = mongoClient
			deps.Archive = mongodb.NewMessageArchiveAdapter(mongoClient, cfg.MongoDBName)
		}
	}

	// Repositories
	deps.ContactRepo = persistence.NewContactAdapter(sqlDB)
	deps.LedgerRepo = persistence.NewLedgerAdapter(sqlDB)
	deps.ActivityRepo = persistence.NewActivityAdapter(sqlDB)
	deps.CursorRepo = persistence.NewSyncCursorAdapter(sqlDB)

	// Outbound providers
	mailProvider, err := provider.NewGmailAdapter(context.Background(), provider.GmailConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RefreshToken: cfg.GoogleRefreshToken,
		Timeout:      time.Duration(cfg.ProviderTimeoutSec) * time.Second,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	deps.MailProvider = mailProvider

	deps.Classifier = ai.NewOpenAIClassifier(ai.ClassifierConfig{
		APIKey:    cfg.OpenAIAPIKey,
		Model:     cfg.LLMModel,
		MaxTokens: cfg.LLMMaxTokens,
		Timeout:   time.Duration(cfg.LLMTimeoutSec) * time.Second,
	})
	deps.SyncLock = redislock.NewSyncLockAdapter(redisClient)

	// Core services
	deps.Detector = classification.NewDetector()
	deps.Extractor = extraction.NewExtractor()
	deps.Resolver = resolution.NewResolver(deps.ContactRepo, cfg.AddressSimilarityCutoff)

	deps.Orchestrator = intake.NewOrchestrator(intake.OrchestratorDeps{
		Detector:   deps.Detector,
		Extractor:  deps.Extractor,
		Resolver:   deps.Resolver,
		Classifier: deps.Classifier,
		Contacts:   deps.ContactRepo,
		Ledger:     deps.LedgerRepo,
		Activities: deps.ActivityRepo,
		Archive:    deps.Archive,
	}, cfg.ResolverAcceptThreshold)

	deps.SyncService = intake.NewSyncService(
		deps.MailProvider,
		deps.CursorRepo,
		deps.Orchestrator,
		cfg.SyncPageSize,
		time.Duration(cfg.SyncLookbackHours)*time.Hour,
	)

	logger.Info("Dependencies initialized")
	return deps, cleanup, nil
}
