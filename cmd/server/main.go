package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/quoteflow/quoteflow/internal/application/service"
	"github.com/quoteflow/quoteflow/internal/config"
	"github.com/quoteflow/quoteflow/internal/infrastructure/esign"
	"github.com/quoteflow/quoteflow/internal/infrastructure/notify"
	"github.com/quoteflow/quoteflow/internal/infrastructure/persistence/repository"
	"github.com/quoteflow/quoteflow/internal/infrastructure/persistence/sqlite"
	httpiface "github.com/quoteflow/quoteflow/internal/interfaces/http"
	"github.com/quoteflow/quoteflow/pkg/database"
	"github.com/quoteflow/quoteflow/pkg/utils"
)

func main() {
	// Load .env if present; real environments set variables directly.
	_ = gotenv.Load()

	// Load configuration
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting QuoteFlow workflow engine",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	// Initialize database
	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Initialize repositories
	txManager := sqlite.NewDB(db.DB, logger)
	quoteRepo := repository.NewQuoteRepository(db.DB, logger)
	contractRepo := repository.NewContractRepository(db.DB, logger)
	checkpointRepo := repository.NewCheckpointRepository(db.DB, logger)
	esignRepo := repository.NewESignRepository(db.DB, logger)
	quotationRepo := repository.NewQuotationRepository(db.DB, logger)
	lineRepo := repository.NewQuotationLineRepository(db.DB, logger)
	historyRepo := repository.NewStatusHistoryRepository(db.DB, logger)
	linkRepo := repository.NewShareLinkRepository(db.DB, logger)
	responseRepo := repository.NewResponseRepository(db.DB, logger)
	versionRepo := repository.NewVersionRepository(db.DB, logger)
	auditRepo := repository.NewAuditRepository(db.DB, logger)
	userRepo := repository.NewUserRepository(db.DB, logger)

	// Initialize outbound adapters
	sender := notify.NewWebhookSender(notify.Config{
		WebhookURL: cfg.Notify.WebhookURL,
		Timeout:    cfg.Notify.Timeout,
	}, logger)
	provider := esign.NewClient(esign.Config{
		BaseURL: cfg.ESign.BaseURL,
		APIKey:  cfg.ESign.APIKey,
		Timeout: cfg.ESign.Timeout,
	}, logger)

	// Initialize application services
	svcLogger := serviceLogger{logger.Sugar()}
	authorizer := service.NewAuthorizer()
	auditSvc := service.NewAuditService(auditRepo, svcLogger)
	notifier := service.NewNotificationService(sender, svcLogger)
	defer notifier.Close()

	quoteSvc := service.NewQuoteService(quoteRepo, userRepo, authorizer, auditSvc, notifier, svcLogger)
	contractSvc := service.NewContractService(contractRepo, checkpointRepo, esignRepo, provider,
		userRepo, txManager, authorizer, auditSvc, notifier, svcLogger)
	distributionSvc := service.NewDistributionService(quotationRepo, lineRepo, historyRepo,
		txManager, auditSvc, svcLogger)
	shareLinkSvc := service.NewShareLinkService(linkRepo, responseRepo, quotationRepo, lineRepo,
		distributionSvc, auditSvc, svcLogger)
	versionSvc := service.NewVersionService(versionRepo, quotationRepo, lineRepo, auditSvc, svcLogger)

	facade := service.NewWorkflowFacade(userRepo, quoteSvc, contractSvc, distributionSvc,
		shareLinkSvc, versionSvc, auditSvc)

	// Set Gin mode based on logger level
	if cfg.Logger.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize HTTP router
	handler := httpiface.NewHandler(facade, httpiface.Options{
		ShareLinkExpiryDays: cfg.Share.ExpiryDays,
		DefaultSignProvider: cfg.ESign.DefaultProvider,
	}, logger)
	router := httpiface.NewRouter(handler, logger)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited successfully")
}

// serviceLogger adapts the zap sugared logger to the application layer's
// logging interface.
type serviceLogger struct {
	s *zap.SugaredLogger
}

func (l serviceLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Infow(msg, keysAndValues...)
}

func (l serviceLogger) Error(msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, keysAndValues...)
}
