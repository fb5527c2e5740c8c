// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dadyutenga/voucher/internal/config"
	"github.com/dadyutenga/voucher/internal/domain/ports/adapter"
	"github.com/dadyutenga/voucher/internal/infra/access"
	pg "github.com/dadyutenga/voucher/internal/infra/db/postgres"
	"github.com/dadyutenga/voucher/internal/infra/logging"
	"github.com/dadyutenga/voucher/internal/infra/metrics"
	"github.com/dadyutenga/voucher/internal/infra/notify"
	"github.com/dadyutenga/voucher/internal/infra/payment"
	red "github.com/dadyutenga/voucher/internal/infra/redis"
	"github.com/dadyutenga/voucher/internal/infra/sched"
	"github.com/dadyutenga/voucher/internal/infra/web"
	"github.com/dadyutenga/voucher/internal/infra/worker"
	"github.com/dadyutenga/voucher/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, insecure cookies)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()
	go pg.ReportPoolStats(ctx, pool, 15*time.Second)

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connect failed")
	}
	rateLimiter := red.NewRateLimiter(redisClient)
	locker := red.NewLocker(redisClient)

	// ---- Repositories ----
	accountRepo := pg.NewAccountRepo(pool)
	voucherRepo := pg.NewVoucherRepo(pool)
	transactionRepo := pg.NewTransactionRepo(pool)
	packageRepo := pg.NewPackageRepoCacheDecorator(pg.NewPostgresPackageRepo(pool), redisClient, cfg.Redis.TTL)

	// ---- Notifications ----
	notifyPool := worker.NewPool(cfg.Notify.Workers, logger)
	notifyPool.Start(ctx)
	defer notifyPool.Stop()

	var subscriberNotifier adapter.Notifier
	if cfg.Notify.SMTP.Host != "" {
		subscriberNotifier = notify.NewEmailNotifier(cfg.Notify.SMTP)
	} else {
		logger.Warn().Msg("smtp not configured; voucher e-mails disabled")
		subscriberNotifier = notify.NewNoopNotifier("email", logger)
	}
	var opsNotifier adapter.Notifier
	if cfg.Notify.TelegramToken != "" {
		opsNotifier, err = notify.NewTelegramNotifier(cfg.Notify.TelegramToken, cfg.Notify.TelegramChat)
		if err != nil {
			logger.Fatal().Err(err).Msg("telegram notifier init failed")
		}
	} else {
		opsNotifier = notify.NewNoopNotifier("telegram", logger)
	}
	notificationUC := usecase.NewNotificationUseCase(subscriberNotifier, opsNotifier, notifyPool, logger)

	// ---- Network access controller ----
	var controller adapter.NetworkAccessController
	if cfg.Runtime.Dev {
		logger.Warn().Msg("using no-op access controller; no real grants will be issued")
		controller = access.NewNoopGateway()
	} else {
		controller = access.NewMerakiGateway(
			cfg.Controller.BaseGrantURL,
			cfg.Controller.APIKey,
			cfg.Controller.NetworkID,
			cfg.Controller.Timeout,
			cfg.Controller.MinSessionSeconds,
			logger,
		)
	}

	// ---- Payment gateway ----
	var gateway adapter.MobileMoneyGateway
	if cfg.Payment.Mpesa.ConsumerKey != "" {
		gateway = payment.NewMpesaGateway(cfg.Payment.Mpesa)
	} else if cfg.Payment.AllowDummy {
		logger.Warn().Msg("m-pesa not configured; using the simulated gateway")
		gateway = payment.NewDummyGateway()
	} else {
		logger.Fatal().Msg("no payment gateway configured: set payment.mpesa.consumer_key or payment.allow_dummy")
	}

	// ---- Use cases ----
	accountUC := usecase.NewAccountUseCase(accountRepo, logger)
	voucherUC := usecase.NewVoucherUseCase(voucherRepo, accountRepo, logger)
	packageUC := usecase.NewPackageUseCase(packageRepo)
	redemptionUC := usecase.NewRedemptionUseCase(accountRepo, voucherUC, controller, cfg.Controller.MinSessionSeconds, logger)
	paymentUC := usecase.NewPaymentUseCase(transactionRepo, packageRepo, accountUC, voucherUC, gateway, notificationUC, locker, cfg.Payment.AllowDummy, logger)
	statsUC := usecase.NewStatsUseCase(accountRepo, voucherRepo, transactionRepo, logger)

	var demoUC usecase.DemoUseCase
	if cfg.Demo.Enabled {
		demoUC = usecase.NewDemoUseCase(
			accountUC,
			voucherUC,
			notificationUC,
			rateLimiter,
			cfg.Demo.DurationMinutes,
			cfg.Demo.RateLimit,
			time.Duration(cfg.Demo.RateWindowSecs)*time.Second,
			logger,
		)
	}

	// ---- HTTP server ----
	auth := web.NewAuthManager(cfg.Admin.Username, cfg.Admin.Password, cfg.Admin.JWTSecret, !cfg.Runtime.Dev, cfg.Admin.SessionTTL)
	srv := web.NewServer(redemptionUC, voucherUC, accountUC, packageUC, paymentUC, demoUC, statsUC, auth, logger)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Portal.Port),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("portal api listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server stopped")
			cancel()
		}
	}()

	// ---- Background workers ----
	expiry := sched.NewExpiryWorker(cfg.Scheduler.ExpiryInterval, voucherUC, logger)
	go func() { _ = expiry.Run(ctx) }()

	reconciler := sched.NewPaymentReconciler(transactionRepo, notificationUC, 5*time.Minute, 30*time.Minute, logger)
	go func() { _ = reconciler.Run(ctx) }()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown failed")
	}
}
