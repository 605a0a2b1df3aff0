// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"cairo-metro-ticketing/internal/config"
	"cairo-metro-ticketing/internal/domain/ports/adapter"
	payAdapters "cairo-metro-ticketing/internal/infra/adapters/payment"
	"cairo-metro-ticketing/internal/infra/adapters/qr"
	"cairo-metro-ticketing/internal/infra/api"
	pg "cairo-metro-ticketing/internal/infra/db/postgres"
	"cairo-metro-ticketing/internal/infra/logging"
	"cairo-metro-ticketing/internal/infra/metrics"
	red "cairo-metro-ticketing/internal/infra/redis"
	"cairo-metro-ticketing/internal/infra/sched"
	"cairo-metro-ticketing/internal/infra/security"
	"cairo-metro-ticketing/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "developer mode: console logs, in-memory payment gateway when paymob is not configured")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()
	tm := pg.NewTxManager(pool)

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)
	locker := red.NewLocker(redisClient)

	// ---- Repositories ----
	userRepo := pg.NewPostgresUserRepo(pool)
	lineRepo := pg.NewPostgresLineRepo(pool)
	stationRepo := pg.NewStationRepoCacheDecorator(pg.NewPostgresStationRepo(pool), redisClient, cfg.Redis.TTL, logger)
	ticketRepo := pg.NewPostgresTicketRepo(pool)
	scanRepo := pg.NewPostgresScanLogRepo(pool)
	subRepo := pg.NewPostgresSubscriptionRepo(pool)
	payRepo := pg.NewPostgresPaymentRepo(pool)
	txnRepo := pg.NewPostgresPaymentTransactionRepo(pool)
	auditRepo := pg.NewPostgresPaymentAuditRepo(pool)
	securityRepo := pg.NewPostgresSecurityEventRepo(pool)

	// ---- Security ----
	hasher := security.NewBcryptHasher(cfg.Auth.BcryptCost)
	tokens, err := security.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		logger.Fatal().Err(err).Msg("jwt")
	}

	// ---- Payment gateway ----
	var gateway adapter.PaymentGateway
	if cfg.Runtime.Dev && cfg.Paymob.APIKey == "" {
		gateway = payAdapters.NewNoopPaymentGateway(cfg.Paymob.HMACSecret)
	} else {
		gateway, err = payAdapters.NewPaymobGateway(cfg.Paymob, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("paymob gateway")
		}
	}
	logger.Info().Str("gateway", gateway.Name()).Msg("payment gateway ready")

	// ---- Use cases ----
	userUC := usecase.NewUserUseCase(userRepo, tm, hasher, tokens, rateLimiter, cfg.Auth.LoginRateLimit, logger)
	stationUC := usecase.NewStationUseCase(lineRepo, stationRepo, logger)
	entitlementUC := usecase.NewEntitlementUseCase(subRepo, logger)
	ticketUC := usecase.NewTicketUseCase(usecase.TicketDeps{
		Tickets:     ticketRepo,
		Scans:       scanRepo,
		Payments:    payRepo,
		Audit:       auditRepo,
		Users:       userRepo,
		Stations:    stationUC,
		Entitlement: entitlementUC,
		Gateway:     gateway,
		QR:          qr.NewPNGEncoder(),
		TM:          tm,
		ValidFor:    cfg.Tickets.ValidFor,
	}, logger)
	subUC := usecase.NewSubscriptionUseCase(subRepo, payRepo, auditRepo, userRepo, entitlementUC, gateway, tm, logger)
	reportUC := usecase.NewReportUseCase(ticketRepo, userRepo, logger)
	paymentUC := usecase.NewPaymentUseCase(usecase.PaymentDeps{
		Payments:     payRepo,
		Transactions: txnRepo,
		Audit:        auditRepo,
		Security:     securityRepo,
		Tickets:      ticketRepo,
		Subs:         subRepo,
		Gateway:      gateway,
		TM:           tm,
	}, logger)

	// ---- Background workers ----
	var wg sync.WaitGroup
	runWorker := func(name string, run func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error().Err(err).Str("worker", name).Msg("worker stopped")
			}
		}()
	}
	runWorker("payment_sweeper", sched.NewPaymentSweeper(paymentUC, locker, cfg.Workers, logger).Run)
	runWorker("ticket_expiry", sched.NewTicketExpiryWorker(cfg.Workers.ExpiryInterval, ticketUC, locker, logger).Run)
	wg.Add(1)
	go func() {
		defer wg.Done()
		pg.ReportPoolStats(ctx, pool, 15*time.Second, logger)
	}()

	// ---- HTTP ----
	srv := api.NewServer(api.Deps{
		Users:          userUC,
		Stations:       stationUC,
		Tickets:        ticketUC,
		Subscriptions:  subUC,
		Payments:       paymentUC,
		Reports:        reportUC,
		Tokens:         tokens,
		RequestTimeout: cfg.HTTP.RequestTimeout,
	}, logger)
	server := api.NewHTTPServer(cfg.HTTP.Addr, srv.Router())
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server error")
			stop()
		}
	}()

	// ---- Graceful shutdown ----
	<-ctx.Done()
	logger.Info().Msg("shutdown requested")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	wg.Wait()
	logger.Info().Msg("bye")
}
