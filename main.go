package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/time/rate"

	"hyperflow/config"
	"hyperflow/internal/bus"
	"hyperflow/internal/collector"
	"hyperflow/internal/reconnect"
	"hyperflow/internal/sink"
	"hyperflow/internal/store"
	"hyperflow/internal/supervisor"
	"hyperflow/internal/venue/hyperliquid"
	"hyperflow/logger"
)

func main() {
	log := logger.GetLogger()

	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Error loading .env file")
	}

	configPath := flag.String("config", "config/config.yml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(config.ResolveConfigPath(*configPath))
	if err != nil {
		log.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}

	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		log.WithError(err).Error("Failed to configure logger")
		os.Exit(1)
	}

	log.WithEnv("APP_ENV").WithFields(logger.Fields{
		"service": cfg.Hyperflow.Name,
		"version": cfg.Hyperflow.Version,
	}).Info("starting hyperflow")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if strings.ToLower(cfg.Logging.Level) == "report" {
		logger.StartReport(ctx, log, 30*time.Second)
	}
	if cfg.Logging.DashboardName != "" {
		logger.InitCloudWatch("", "Hyperflow", cfg.Logging.DashboardName)
	}

	storeWriter, err := store.NewWriter(store.Config{
		Addrs:       cfg.ClickHouse.Addrs,
		Database:    cfg.ClickHouse.Database,
		Username:    cfg.ClickHouse.Username,
		Password:    cfg.ClickHouse.Password,
		DialTimeout: cfg.ClickHouse.DialTimeout,
	})
	if err != nil {
		log.WithError(err).Error("failed to create store writer")
		os.Exit(1)
	}

	producer, err := bus.NewProducer(bus.ProducerConfig{
		Brokers:      cfg.Kafka.Brokers,
		ClientID:     cfg.Kafka.ClientID,
		BatchTimeout: cfg.Kafka.BatchTimeout,
	})
	if err != nil {
		log.WithError(err).Error("failed to create bus producer")
		os.Exit(1)
	}

	fanout := sink.NewFanout(producer, storeWriter, sink.Options{
		MaxRetries: cfg.Sink.MaxRetries,
		DeadLetter: cfg.Sink.DeadLetter,
	})

	var limiter *rate.Limiter
	if cfg.Venue.RateLimit.RequestsPerSecond > 0 {
		burst := cfg.Venue.RateLimit.BurstSize
		if burst <= 0 {
			burst = cfg.Venue.RateLimit.RequestsPerSecond
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.Venue.RateLimit.RequestsPerSecond), burst)
	}
	venue := hyperliquid.NewRestClient(cfg.Venue.ApiURL, cfg.Venue.RestTimeout, limiter)

	symbols := collector.NewSymbolSet()
	periodic := collector.NewPeriodicCollector(collector.PeriodicConfig{
		MetaInterval:         cfg.Collector.MetaInterval,
		OpenInterestInterval: cfg.Collector.OpenInterestInterval,
		LiquidationInterval:  cfg.Collector.LiquidationInterval,
	}, venue, fanout, symbols)

	policy, err := reconnect.FromConfig(
		cfg.Reconnect.Strategy,
		cfg.Reconnect.FixedDelay,
		cfg.Reconnect.MinDelay,
		cfg.Reconnect.MaxDelay,
	)
	if err != nil {
		log.WithError(err).Error("failed to build reconnect policy")
		os.Exit(1)
	}
	stream := collector.NewStreamClient(collector.StreamConfig{
		URL:          cfg.Venue.WsURL,
		PingInterval: cfg.Venue.PingInterval,
		Reconnect:    policy,
	}, fanout, symbols)

	sup := supervisor.New(storeWriter, producer, periodic, stream)
	if err := sup.Start(ctx); err != nil {
		log.WithError(err).Error("pipeline failed to start")
		os.Exit(1)
	}
	log.Info("all components started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.WithFields(logger.Fields{"signal": sig.String()}).Info("shutdown signal received")

	log.Info("starting graceful shutdown")
	cancel()
	sup.Stop(30 * time.Second)

	log.Info("hyperflow stopped")
}
