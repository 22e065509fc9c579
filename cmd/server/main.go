package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Freeeeeet/peer_tutoring/internal/app"
	"github.com/Freeeeeet/peer_tutoring/internal/auth"
	"github.com/Freeeeeet/peer_tutoring/internal/config"
	"github.com/Freeeeeet/peer_tutoring/internal/controller/httpapi"
	"github.com/Freeeeeet/peer_tutoring/internal/controller/telegram"
	"github.com/Freeeeeet/peer_tutoring/internal/events"
	"github.com/Freeeeeet/peer_tutoring/internal/repository"
	"github.com/Freeeeeet/peer_tutoring/internal/repository/base"
	"github.com/Freeeeeet/peer_tutoring/internal/schedule"
	"github.com/Freeeeeet/peer_tutoring/internal/service"
	"github.com/go-telegram/bot"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "config.yaml", "path to optional YAML config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := app.NewLogger(cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting peer tutoring server",
		zap.String("environment", cfg.Environment),
		zap.String("http_addr", cfg.HTTPAddr),
	)

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return err
	}
	logger.Info("Connected to database")

	migrator, err := app.NewMigrator(pool, logger)
	if err != nil {
		return err
	}
	if err := migrator.Run(ctx); err != nil {
		_ = migrator.Close()
		return err
	}
	_ = migrator.Close()

	txManager := base.NewTxManager(pool)
	accountRepo := repository.NewAccountRepository(pool)
	connectionRepo := repository.NewConnectionRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	messageRepo := repository.NewMessageRepository(pool)

	var notifiers events.Fanout

	if cfg.NATSURL != "" {
		nc, err := events.Connect(cfg.NATSURL, logger)
		if err != nil {
			return err
		}
		defer func() { _ = nc.Drain() }()
		notifiers = append(notifiers, events.NewNatsPublisher(nc, logger))
		logger.Info("Connected to NATS", zap.String("url", cfg.NATSURL))
	}

	var tgBot *bot.Bot
	if cfg.TelegramToken != "" {
		tgBot, err = bot.New(cfg.TelegramToken)
		if err != nil {
			return err
		}
		notifiers = append(notifiers, telegram.NewNotifier(tgBot, accountRepo, cfg.Location(), logger))
	}

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)

	accountService := service.NewAccountService(accountRepo, bookingRepo, connectionRepo, tokens, logger)
	connectionService := service.NewConnectionService(txManager, connectionRepo, messageRepo, notifiers, logger)
	bookingService := service.NewBookingService(txManager, bookingRepo, schedule.NewRenderer(), notifiers, logger)
	conversationService := service.NewConversationService(txManager, bookingRepo, connectionRepo, messageRepo, logger)
	analyticsService := service.NewAnalyticsService(accountRepo, bookingRepo, logger)

	scheduler := app.NewScheduler(bookingService, cfg.CompletionInterval, logger)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	if tgBot != nil {
		controller := telegram.NewBotController(tgBot, accountRepo, bookingService, logger)
		if err := controller.RegisterHandlers(ctx); err != nil {
			logger.Warn("Telegram commands not registered", zap.Error(err))
		}
		go controller.Start(ctx)
	}

	server := httpapi.NewRouter(httpapi.Deps{
		Tokens:        tokens,
		Accounts:      accountService,
		Connections:   connectionService,
		Bookings:      bookingService,
		Conversations: conversationService,
		Analytics:     analyticsService,
		Logger:        logger,
	})

	return serve(ctx, server, cfg.HTTPAddr, logger)
}

type httpServer interface {
	Listen(addr string) error
	ShutdownWithContext(ctx context.Context) error
}

// serve слушает addr до ошибки Listen или отмены ctx, затем плавно останавливает сервер
func serve(ctx context.Context, server httpServer, addr string, logger *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Listen(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.ShutdownWithContext(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}
