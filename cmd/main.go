package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"homeservices/config"
	"homeservices/pkg/api"
	"homeservices/pkg/bot"
	"homeservices/pkg/logger"
	"homeservices/pkg/payment"
	"homeservices/service"
	"homeservices/storage"
	"homeservices/storage/memory"
	"homeservices/storage/postgres"
	"homeservices/storage/redis"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Load Config
	cfg := config.Load()

	// 2. Initialize Logger
	log := logger.New(cfg.ServiceName, cfg.LoggerLevel)

	// 3. Initialize Storage
	stg, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Error("failed to open storage", logger.String("driver", cfg.StorageDriver), logger.Error(err))
		os.Exit(1)
	}
	defer stg.Close()

	// 4. Cross-process change bus, so bookings written by another instance
	// still reach this one's live views.
	if cfg.RedisHost != "" {
		bus, err := redis.New(ctx, cfg.RedisAddr(), cfg.RedisPassword, cfg.RedisDB, cfg.RedisChannel, log)
		if err != nil {
			log.Error("failed to connect redis", logger.Error(err))
			os.Exit(1)
		}
		defer bus.Close()

		ready := make(chan error, 1)
		go bus.Listen(ctx, stg.Feed(), func(err error) { ready <- err })
		if err := <-ready; err != nil {
			os.Exit(1)
		}
		stg.SetPublisher(bus)
		log.Info("booking changes routed through redis", logger.String("channel", cfg.RedisChannel))
	}

	// 5. Services
	opts := service.Options{StrictTransitions: cfg.StrictTransitions}
	if cfg.PaymentGatewayURL != "" {
		opts.Gateway = payment.New(cfg.PaymentGatewayURL, cfg.PaymentCurrency, cfg.PaymentTimeout, log)
	}
	svc := service.New(stg, log, opts)
	defer svc.Sessions().EndAll()

	// 6. Bots. Each is optional; without tokens only the HTTP API runs.
	var customerBot, providerBot *bot.Bot
	if cfg.CustomerBotToken != "" {
		if customerBot, err = bot.New(bot.BotTypeCustomer, cfg.CustomerBotToken, svc, log); err != nil {
			log.Error("failed to initialize customer bot", logger.Error(err))
			os.Exit(1)
		}
	}
	if cfg.ProviderBotToken != "" {
		if providerBot, err = bot.New(bot.BotTypeProvider, cfg.ProviderBotToken, svc, log); err != nil {
			log.Error("failed to initialize provider bot", logger.Error(err))
			os.Exit(1)
		}
	}
	if customerBot != nil && providerBot != nil {
		customerBot.Peer = providerBot
		providerBot.Peer = customerBot
	}
	for _, b := range []*bot.Bot{customerBot, providerBot} {
		if b == nil {
			continue
		}
		go b.Start()
		defer b.Stop()
	}

	// 7. HTTP API, blocks until shutdown
	router := api.NewRouter(svc, log)
	if err := api.RunServer(ctx, fmt.Sprintf(":%d", cfg.AppPort), router, log); err != nil {
		log.Error("http server stopped", logger.Error(err))
	}

	log.Info("shutting down")
}

func openStorage(ctx context.Context, cfg config.Config, log logger.ILogger) (storage.IStorage, error) {
	switch cfg.StorageDriver {
	case config.StorageMemory:
		log.Warning("using in-memory storage, data is lost on restart")
		return memory.New(log, cfg.FeedResyncInterval), nil
	case config.StoragePostgres:
		return postgres.New(ctx, cfg, log)
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
}
