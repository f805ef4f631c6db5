package application

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"tonhunter/internal/config"
	dealservice "tonhunter/internal/domain/service/deal"
	"tonhunter/internal/domain/service/ingest"
	"tonhunter/internal/domain/service/rating"
	"tonhunter/internal/infrastructure/avito"
	"tonhunter/internal/infrastructure/market"
	"tonhunter/internal/infrastructure/notifier"
	"tonhunter/internal/infrastructure/persistence"
	"tonhunter/internal/infrastructure/ton"
	"tonhunter/internal/infrastructure/yoomoney"
	"tonhunter/internal/server"
	"tonhunter/internal/tasks"
	"tonhunter/internal/transport/bot"
	"tonhunter/internal/transport/bot/handler"
	"tonhunter/internal/worker"
	"tonhunter/pkg/application/connectors"
	"tonhunter/pkg/application/modules"
	"tonhunter/pkg/httpx"
	"tonhunter/pkg/logx"
	"tonhunter/pkg/middlewarex"
)

func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config.Load: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	// Connectors.
	pg := &connectors.Postgres{
		DSN:             cfg.Postgres.DSN,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Postgres.ConnMaxIdleTime,
	}
	defer pg.Close(ctx)

	db := pg.Client(ctx)

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("db.PingContext: %w", err)
	}

	rd := &connectors.Redis{
		Username:           cfg.Redis.Username,
		Password:           cfg.Redis.Password,
		Address:            cfg.Redis.Address,
		DatabaseNumber:     cfg.Redis.DatabaseNumber,
		PoolSize:           cfg.Redis.PoolSize,
		MinIdleConnections: cfg.Redis.MinIdleConnections,
		MaxIdleConnections: cfg.Redis.MaxIdleConnections,
	}
	defer rd.Close(ctx)

	redisClient := rd.Client(ctx)

	tg := &connectors.Telegram{Token: cfg.Telegram.BotToken}
	tgBot := tg.Client(ctx)

	// Repositories.
	dealRepo := persistence.NewDealRepository(db)
	userRepo := persistence.NewUserRepository(db)
	ratingRepo := persistence.NewRatingRepository(db)
	deduper := persistence.NewListingDeduper(redisClient)

	// Infrastructure.
	gateway := yoomoney.NewClient(
		cfg.YooMoney.BaseURL,
		cfg.YooMoney.Receiver,
		cfg.YooMoney.Token,
		cfg.YooMoney.RequestTimeout,
		httpx.WithLogFieldMaxLen(cfg.Server.LogFieldMaxLen),
	)
	payoutWallet := ton.NewWallet(cfg.Ton.Mnemonic, cfg.Ton.ConfigURL)
	oracle := market.NewPriceOracle(cfg.Market.BybitBaseURL, cfg.Market.RequestTimeout)
	parser := avito.NewParser(cfg.Market.AvitoBaseURL, cfg.Market.RequestTimeout)

	// Services.
	dealService := dealservice.NewService(dealRepo, userRepo, gateway)
	ratingService := rating.NewService(ratingRepo)
	tgNotifier := notifier.NewTelegramBot(tgBot, cfg.Telegram.AdminChatID, userRepo)
	ingestService := ingest.NewService(parser, oracle, dealService, deduper, tgNotifier)

	if err := tgNotifier.SendText(ctx, "🚀 TonHunter запускается"); err != nil {
		logger(ctx).Warn("admin notification failed", "error", err)
	}

	// Telegram transport.
	commandHandler := handler.New(dealService, ratingService, userRepo, payoutWallet, cfg.Telegram.PaymentsProviderToken)

	tgTransport, err := bot.New(tgBot, commandHandler, cfg.Telegram.AdminChatID)
	if err != nil {
		return fmt.Errorf("bot.New: %w", err)
	}

	g.Go(func() error { return ignoreCanceled(tgTransport.Run(ctx)) })

	// Workers.
	monitor := worker.NewSettlementMonitor(
		dealService,
		payoutWallet,
		ratingService,
		tgNotifier,
		cfg.Worker.SettlementInterval,
	)
	sweeper := worker.NewExpirySweeper(dealService, ratingService, tgNotifier, cfg.Worker.ExpiryInterval)
	scanner := worker.NewListingScanner(ingestService, cfg.Worker.ScanInterval)

	g.Go(func() error { return ignoreCanceled(monitor.Run(ctx)) })
	g.Go(func() error { return ignoreCanceled(sweeper.Run(ctx)) })
	g.Go(func() error { return ignoreCanceled(scanner.Run(ctx)) })

	// HTTP modules.
	router := newRouter(cfg, server.NewServer(server.NewDealServer(dealService)))

	modules.HTTPServer{ShutdownTimeout: cfg.Server.ShutdownTimeout}.Run(ctx, g, &http.Server{
		Addr:              cfg.Server.ListenAddress,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	})

	modules.ProbeServer{
		Name:          cfg.App.Name,
		Version:       cfg.App.Version,
		ListenAddress: cfg.Server.ProbeListenAddress,
	}.Run(ctx, g)

	modules.MetricServer{ListenAddress: cfg.Server.MetricsListenAddress}.Run(ctx, g)

	modules.AsynqServer{
		RedisUsername: cfg.Redis.Username,
		RedisPassword: cfg.Redis.Password,
		RedisAddress:  cfg.Redis.Address,
		RedisDB:       cfg.Redis.DatabaseNumber,
		Concurrency:   cfg.Redis.AsynqConcurrency,
	}.Run(ctx, g,
		modules.AsynqQueues{"default": 1},
		tasks.NewHandlers(ingestService, tgNotifier, userRepo).List()...,
	)

	return g.Wait()
}

func newRouter(cfg config.Config, s server.Server) chi.Router {
	masker := logx.NewSensitiveDataMasker()

	r := chi.NewRouter()
	r.Use(middlewarex.TraceID)
	r.Use(middlewarex.Logger)
	r.Use(middlewarex.Recovery)
	r.Use(middlewarex.RequestLogging(masker, cfg.Server.LogFieldMaxLen))
	r.Use(middlewarex.ResponseLogging(masker, cfg.Server.LogFieldMaxLen))

	if cfg.Server.AuthToken != "" {
		r.Use(authToken(cfg.Server.AuthToken))
	}

	s.RegisterRoutes(r)

	return r
}

func authToken(token string) func(http.Handler) http.Handler {
	expected := []byte("Bearer " + token)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := []byte(r.Header.Get("Authorization"))

			if subtle.ConstantTimeCompare(got, expected) != 1 {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}
