package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"accord-registry/registry-backend/internal/access"
	"accord-registry/registry-backend/internal/config"
	"accord-registry/registry-backend/internal/dedup"
	"accord-registry/registry-backend/internal/escrow"
	"accord-registry/registry-backend/internal/expiry"
	"accord-registry/registry-backend/internal/impact"
	"accord-registry/registry-backend/internal/issuance"
	"accord-registry/registry-backend/internal/monitoring"
	"accord-registry/registry-backend/internal/notifications"
	"accord-registry/registry-backend/internal/registry"
	"accord-registry/registry-backend/internal/verifiers"
)

// statusNotifier adapts the websocket hub to the registry notifier.
type statusNotifier struct {
	hub *notifications.Hub
}

func (n statusNotifier) StatusChanged(projectID string, from, to registry.VerificationStatus) {
	n.hub.StatusChanged(projectID, string(from), string(to))
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		log.Fatal("failed to load config: ", err)
	}

	logger, err := buildLogger(cfg.Logging.Level)
	if err != nil {
		log.Fatal("failed to build logger: ", err)
	}
	defer logger.Sync()

	db, err := gorm.Open(postgres.Open(cfg.Database.GetDatabaseURL()), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}

	if err := migrate(db, cfg); err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}

	// ---------------- CORE SERVICES ----------------
	hub := notifications.NewHub(logger)

	claimIndex := dedup.NewIndex(dedup.NewRepository(db), logger)
	ledger := escrow.NewLedger(escrow.NewRepository(db), logger)

	verifierService := verifiers.NewService(verifiers.NewRepository(db), logger)

	registryRepo := registry.NewRepository(db)
	registryService := registry.NewService(
		registryRepo,
		claimIndex,
		ledger,
		verifierService,
		statusNotifier{hub: hub},
		registry.Policy{
			MinVerificationFee: cfg.Registry.MinVerificationFee,
			AuthorityAddress:   cfg.Registry.AuthorityAddress,
		},
		logger,
	)

	issuanceService := issuance.NewService(registryRepo, issuance.NewLoggingMinter(logger), logger)
	monitoringService := monitoring.NewService(monitoring.NewRepository(db), registryService, logger)
	impactService := impact.NewService(db, logger)

	// ---------------- EXPIRY SWEEPER ----------------
	sweeper := expiry.NewSweeper(registryRepo, registryService, cfg.Registry.ExpirySchedule, cfg.Registry.AuditWindow, logger)
	if err := sweeper.Start(); err != nil {
		logger.Fatal("failed to start expiry sweeper", zap.Error(err))
	}
	defer sweeper.Stop()

	// ---------------- HTTP SURFACE ----------------
	var authorizer access.Authorizer = access.AllowAll{}

	r := gin.Default()
	api := r.Group("/api/v1")
	api.Use(access.Identity(cfg.Security.JWTSecret))

	registry.RegisterRoutes(api, registry.NewHandler(registryService), authorizer)
	issuance.RegisterRoutes(api, issuance.NewHandler(issuanceService), authorizer)
	verifiers.RegisterRoutes(api, verifiers.NewHandler(verifierService), authorizer)
	monitoring.RegisterRoutes(api, monitoring.NewHandler(monitoringService), authorizer)
	impact.RegisterRoutes(api, impact.NewHandler(impactService), authorizer)

	r.GET("/ws", func(c *gin.Context) {
		if err := hub.HandleConnection(c.Writer, c.Request); err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
		}
	})

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "registry alive"})
	})

	logger.Info("server starting", zap.String("addr", cfg.Server.GetServerAddr()))
	if err := r.Run(cfg.Server.GetServerAddr()); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func buildLogger(level string) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	if level != "" {
		parsed, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, err
		}
		zapCfg.Level = parsed
	}
	return zapCfg.Build()
}

func migrate(db *gorm.DB, cfg *config.Config) error {
	err := db.AutoMigrate(
		&registry.Project{},
		&registry.GlobalRegistry{},
		&dedup.LandClaim{},
		&escrow.Account{},
		&verifiers.Verifier{},
		&monitoring.Snapshot{},
		&impact.Report{},
	)
	if err != nil {
		return err
	}

	// Seed the global registry singleton on first boot.
	ctx := context.Background()
	var count int64
	if err := db.WithContext(ctx).Model(&registry.GlobalRegistry{}).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return db.WithContext(ctx).Create(&registry.GlobalRegistry{
			ID:                  registry.GlobalRegistryID,
			Admin:               cfg.Registry.AuthorityAddress,
			GovernmentAuthority: cfg.Registry.GovernmentAuthority,
			CarbonTokenMint:     cfg.Registry.CarbonTokenMint,
		}).Error
	}
	return nil
}
