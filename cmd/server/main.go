package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/fueldepot/internal/config"
	"github.com/mamadbah2/fueldepot/internal/repository/csvfile"
	"github.com/mamadbah2/fueldepot/internal/repository/mongodb"
	"github.com/mamadbah2/fueldepot/internal/repository/records"
	"github.com/mamadbah2/fueldepot/internal/repository/sheets"
	"github.com/mamadbah2/fueldepot/internal/scheduler"
	"github.com/mamadbah2/fueldepot/internal/server/handlers"
	"github.com/mamadbah2/fueldepot/internal/server/router"
	commandsvc "github.com/mamadbah2/fueldepot/internal/service/commands"
	exportsvc "github.com/mamadbah2/fueldepot/internal/service/export"
	ledgersvc "github.com/mamadbah2/fueldepot/internal/service/ledger"
	reportingsvc "github.com/mamadbah2/fueldepot/internal/service/reporting"
	whatsappsvc "github.com/mamadbah2/fueldepot/internal/service/whatsapp"
	whatsappclient "github.com/mamadbah2/fueldepot/pkg/clients/whatsapp"
	"github.com/mamadbah2/fueldepot/pkg/logger"
)

func main() {
	envFile := flag.String("env", "", "path to a .env file")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := newRecordRepository(ctx, cfg, baseLogger)
	if err != nil {
		baseLogger.Fatal("failed to init record store", zap.String("backend", cfg.Ledger.Backend), zap.Error(err))
	}

	store := records.NewStore(repo, logger.Named(baseLogger, "repo.records"))
	if err := store.EnsureHeaders(ctx); err != nil {
		baseLogger.Fatal("failed to prepare record store", zap.Error(err))
	}

	ledger := ledgersvc.NewService(store, cfg.Depot, nil, logger.Named(baseLogger, "svc.ledger"))
	if _, err := ledger.Load(ctx); err != nil {
		baseLogger.Fatal("failed to load ledgers", zap.Error(err))
	}

	var snapshots mongodb.Repository
	if cfg.MongoDB.URI != "" {
		mongoRepo, err := mongodb.NewMongoDBRepository(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		snapshots = mongoRepo
	} else {
		baseLogger.Warn("MONGODB_URI missing, stock snapshots disabled")
	}

	reportingSvc := reportingsvc.NewService(ledger, snapshots, logger.Named(baseLogger, "svc.reporting"))
	exportSvc := exportsvc.NewService(ledger, logger.Named(baseLogger, "svc.export"))
	depotHandler := handlers.NewDepotHandler(ledger, reportingSvc, exportSvc, logger.Named(baseLogger, "handlers.depot"))

	var (
		webhookHandler *handlers.WebhookHandler
		messenger      scheduler.Messenger
	)
	if cfg.WhatsApp.Enabled() {
		dispatcher := commandsvc.NewService(ledger, reportingSvc, logger.Named(baseLogger, "svc.commands"))
		messagingSvc := whatsappsvc.NewMetaWhatsAppService(cfg.WhatsApp, whatsappclient.NewClient(cfg.WhatsApp), dispatcher, logger.Named(baseLogger, "svc.whatsapp"))
		ledger.SetNotifier(messagingSvc)
		webhookHandler = handlers.NewWebhookHandler(messagingSvc, logger.Named(baseLogger, "handlers.whatsapp"))
		messenger = messagingSvc
		baseLogger.Info("whatsapp messaging enabled")
	} else {
		baseLogger.Warn("whatsapp credentials missing, notifications and commands disabled")
	}

	gin.SetMode(gin.ReleaseMode)
	engine := router.New(depotHandler, webhookHandler, logger.Named(baseLogger, "router"))

	sched, err := scheduler.NewScheduler(cfg.Reporting, reportingSvc, messenger, logger.Named(baseLogger, "scheduler"))
	if err != nil {
		baseLogger.Fatal("failed to init scheduler", zap.Error(err))
	}
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("backend", cfg.Ledger.Backend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func newRecordRepository(ctx context.Context, cfg *config.Config, base *zap.Logger) (sheets.Repository, error) {
	if cfg.Ledger.Backend == config.BackendSheets {
		return sheets.NewGoogleSheetRepository(ctx, cfg.Sheets, logger.Named(base, "repo.sheets"))
	}
	return csvfile.NewRepository(cfg.Ledger.CSVDir, logger.Named(base, "repo.csv"))
}
