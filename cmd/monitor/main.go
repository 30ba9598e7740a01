package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"opsmonitor/internal/config"
	cronrunner "opsmonitor/internal/cron"
	"opsmonitor/internal/db"
	"opsmonitor/internal/handler"
	"opsmonitor/internal/identity"
	"opsmonitor/internal/logger"
	gormrepository "opsmonitor/internal/repository/gorm"
	"opsmonitor/internal/service"

	_ "opsmonitor/docs"
)

func main() {
	cfgPath := os.Getenv("OPSMON_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("OPSMON_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	store := gormrepository.New(dbConn.Gorm)
	recordSvc := &service.RecordService{Repo: store, Logger: logger, Anomaly: cfg.Anomaly}
	pnlSvc := &service.ProfitLossService{Repo: store, Logger: logger, Thresholds: cfg.Alerts}
	assessmentSvc := &service.AssessmentService{
		Repo:       store,
		Logger:     logger,
		Scores:     cfg.Assessment,
		Thresholds: cfg.Alerts,
	}
	sweepSvc := &service.AlertSweepService{
		Repo:        store,
		Logger:      logger,
		ProfitLoss:  pnlSvc,
		Assessments: assessmentSvc,
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())
	engine.Use(identity.Middleware())

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm}
	healthHandler.Register(engine)
	projectsHandler := &handler.ProjectsHandler{Repo: store}
	projectsHandler.Register(engine)
	recordsHandler := &handler.RecordsHandler{Records: recordSvc, Repo: store}
	recordsHandler.Register(engine)
	analyticsHandler := &handler.AnalyticsHandler{ProfitLoss: pnlSvc}
	analyticsHandler.Register(engine)
	assessmentsHandler := &handler.AssessmentsHandler{Assessments: assessmentSvc}
	assessmentsHandler.Register(engine)
	alertsHandler := &handler.AlertsHandler{Repo: store}
	alertsHandler.Register(engine)

	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cronRunner := cronrunner.New(logger, ctx)
	if cfg.Sweep.Enabled {
		_, err := cronRunner.Add(cfg.Sweep.Schedule, func(ctx context.Context) {
			if err := sweepSvc.RunOnce(ctx); err != nil {
				logger.Warn("alert sweep failed", zap.Error(err))
			}
		})
		if err != nil {
			logger.Warn("cron register alert sweep failed", zap.Error(err))
		}
	}
	cronRunner.Start()
	defer cronRunner.Stop()

	errCh := make(chan error, 2)

	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization,X-Actor-ID")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
