package main

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/veilpost/dsa-core/internal/config"
	"github.com/veilpost/dsa-core/internal/handler"
	"github.com/veilpost/dsa-core/internal/middleware"
	"github.com/veilpost/dsa-core/internal/model"
	"github.com/veilpost/dsa-core/internal/pow"
	"github.com/veilpost/dsa-core/internal/repository"
	"github.com/veilpost/dsa-core/internal/service"
	"github.com/veilpost/dsa-core/pkg/database"
	"github.com/veilpost/dsa-core/pkg/diskstore"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db := database.Connect()
	if err := migrate(db); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	store, err := diskstore.New(cfg.EvidenceRoot)
	if err != nil {
		log.Fatalf("evidence store: %v", err)
	}

	tracker := buildTracker(cfg.RedisURL)
	indexer := service.NewNoticeIndexer(cfg.MeiliSearchHost, cfg.MeiliMasterKey)

	noticeRepo := repository.NewNoticeRepository(db)
	signalRepo := repository.NewSignalRepository(db)
	decisionRepo := repository.NewDecisionRepository(db)
	evidenceRepo := repository.NewEvidenceRepository(db)
	appealRepo := repository.NewAppealRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	auditService := service.NewAuditService(auditRepo)
	notifyService := service.NewNotifyService(
		notificationRepo,
		service.NewHTTPContentClient(cfg.ContentBackendURL, cfg.NotifyTimeout),
		service.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom),
		cfg.NotifyTimeout,
	)

	intakeService := service.NewIntakeService(signalRepo, noticeRepo, auditService, notifyService, indexer, cfg.PublicBaseURL)
	txm := service.NewTxManager(db)
	caseService := service.NewCaseService(txm, noticeRepo, signalRepo, decisionRepo, evidenceRepo, appealRepo, auditService, notifyService, indexer)
	appealService := service.NewAppealService(txm, appealRepo, decisionRepo, noticeRepo, auditService, notifyService)
	evidenceService := service.NewEvidenceService(evidenceRepo, noticeRepo, store, service.EvidenceQuotas{
		MaxFiles:     cfg.EvidenceMaxFiles,
		MaxURLs:      cfg.EvidenceMaxURLs,
		MaxHashes:    cfg.EvidenceMaxHashes,
		MaxFileBytes: cfg.EvidenceMaxFileBytes,
		MinFreeBytes: cfg.EvidenceMinFreeBytes,
	}, auditService)
	retentionService := service.NewRetentionService(
		noticeRepo, signalRepo, decisionRepo, appealRepo, evidenceRepo,
		notificationRepo, auditRepo, store, indexer, cfg.RetentionMonths,
	)

	intakeHandler := handler.NewIntakeHandler(intakeService)
	publicHandler := handler.NewPublicHandler(caseService, appealService, evidenceService, noticeRepo)
	adminHandler := handler.NewAdminHandler(caseService, appealService, evidenceService, auditService, notifyService, indexer)

	auth := middleware.NewAuthMiddleware(cfg.AdminJWTSecret, cfg.ServiceJWTSecret)
	challenger := pow.NewChallenger(cfg.PoWSecret, cfg.PoWDifficulty, cfg.PoWMaxDifficulty, cfg.PoWTTL)
	policy := pow.DefaultPolicy(cfg.PoWThreshold, cfg.PoWBotThreshold, cfg.PoWWindow, cfg.PoWCooldown)
	gate := middleware.NewPoWGate(challenger, tracker, policy, auditService)

	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	setupCORS(router, cfg.AllowedOrigins)

	public := router.Group("/public/status/:token")
	{
		public.GET("", publicHandler.GetStatus)
		public.POST("/appeals", gate.Guard("appeal"), publicHandler.FileAppeal)
		public.POST("/appeals/:appealId/evidence", gate.Guard("evidence"), publicHandler.AddAppealFileEvidence)
		public.POST("/appeals/:appealId/evidence/url", gate.Guard("evidence"), publicHandler.AddAppealURLEvidence)
		public.GET("/evidence/:id", publicHandler.DownloadEvidence)
	}

	intake := router.Group("/dsa/frontend")
	intake.Use(auth.RequireService())
	{
		intake.POST("/signals", intakeHandler.CreateSignal)
		intake.POST("/notices", intakeHandler.CreateNotice)
	}

	admin := router.Group("/dsa/backend")
	admin.Use(auth.RequireAdmin())
	{
		admin.GET("/notices", adminHandler.ListNotices)
		admin.GET("/notices/search", adminHandler.SearchNotices)
		admin.GET("/notices/:id", adminHandler.GetNotice)
		admin.PATCH("/notices/:id/status", adminHandler.UpdateNoticeStatus)
		admin.POST("/notices/:id/decision", adminHandler.RecordDecision)
		admin.GET("/notices/:id/evidence", adminHandler.ListEvidence)
		admin.POST("/notices/:id/evidence", adminHandler.AddEvidence)
		admin.POST("/appeals/:id/resolve", adminHandler.ResolveAppeal)
		admin.POST("/signals/:id/dismiss", adminHandler.DismissSignal)
		admin.POST("/notifications", adminHandler.RecordNotification)
		admin.GET("/audit/:entityType/:entityId", adminHandler.GetAuditTrail)
		admin.GET("/stats/notices", adminHandler.NoticeStats)
		admin.GET("/stats/signals", adminHandler.SignalStats)
	}

	go runRetention(retentionService, cfg.RetentionInterval)

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server exited with error: %v", err)
	}
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Signal{},
		&model.Notice{},
		&model.Decision{},
		&model.Evidence{},
		&model.Appeal{},
		&model.AuditLogEntry{},
		&model.NotificationRecord{},
	)
}

// buildTracker prefers redis so the abuse window survives restarts and is
// shared across replicas; without REDIS_URL it degrades to an in-process
// tracker swept on a ticker.
func buildTracker(redisURL string) pow.AbuseTracker {
	if redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			log.Fatalf("invalid REDIS_URL: %v", err)
		}
		rdb := redis.NewClient(opts)
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.Printf("redis unreachable, falling back to in-memory abuse tracker: %v", err)
		} else {
			return pow.NewRedisTracker(rdb)
		}
	}

	tracker := pow.NewMemoryTracker()
	go func() {
		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()

		for range ticker.C {
			tracker.Sweep()
		}
	}()
	return tracker
}

func runRetention(retention service.RetentionService, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		log.Println("running retention cleanup...")
		report, err := retention.Run(context.Background())
		if err != nil {
			log.Printf("retention cleanup failed: %v", err)
			continue
		}
		log.Printf("retention cleanup completed: notices=%d signals=%d evidence=%d",
			report.Notices, report.Signals, report.Evidence)
	}
}

func setupCORS(router *gin.Engine, allowedOrigins string) {
	origins := strings.Split(allowedOrigins, ",")

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-PoW"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
