package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/StrathCole/oracle-rounds/pkg/auth"
	"github.com/StrathCole/oracle-rounds/pkg/config"
	"github.com/StrathCole/oracle-rounds/pkg/logging"
	"github.com/StrathCole/oracle-rounds/pkg/metrics"
	"github.com/StrathCole/oracle-rounds/pkg/server/aggregator"
	"github.com/StrathCole/oracle-rounds/pkg/server/api"
	"github.com/StrathCole/oracle-rounds/pkg/server/events"
	"github.com/StrathCole/oracle-rounds/pkg/version"
)

var (
	configFile = flag.String("config", "config/config.yaml", "Path to configuration file")
	showVer    = flag.Bool("version", false, "Show version and exit")
)

func main() {
	flag.Parse()

	if *showVer {
		fmt.Println(version.AgentString())
		os.Exit(0)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	logger.Info("Starting oracle-rounds", "version", version.Version, "feeds", len(cfg.Feeds))

	if cfg.Metrics.Enabled {
		metrics.Init()
		go func() {
			logger.Info("Starting metrics server", "addr", cfg.Metrics.Addr, "path", cfg.Metrics.Path)
			if err := metrics.ServeHTTP(cfg.Metrics.Addr, cfg.Metrics.Path); err != nil {
				logger.Error("Metrics server failed", "error", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- run(ctx, cfg, logger)
	}()

	select {
	case sig := <-sigChan:
		logger.Info("Received shutdown signal", "signal", sig.String())
		cancel()
		if err := <-errChan; err != nil {
			logger.Error("Shutdown failed", "error", err)
		}
	case err := <-errChan:
		if err != nil {
			logger.Error("Server failed", "error", err)
			cancel()
			os.Exit(1)
		}
	}

	logger.Info("Shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, logger *logging.Logger) error {
	domain, err := cfg.Domain.ToDomain()
	if err != nil {
		return fmt.Errorf("signing domain: %w", err)
	}
	verifier, err := auth.NewECDSAAuthenticator(domain)
	if err != nil {
		return fmt.Errorf("authenticator: %w", err)
	}

	var sinks events.Multi
	var hub *api.Hub
	if cfg.Server.WebSocket.Enabled {
		hub = api.NewHub(0, logger)
		sinks = append(sinks, hub)
		go hub.Run(ctx)
	}
	if cfg.Events.Log {
		sinks = append(sinks, events.NewLogSink(logger))
	}
	if cfg.Events.Redis.Enabled {
		publisher, err := events.NewRedisPublisher(ctx, cfg.Events.Redis.ToRedis(), logger)
		if err != nil {
			return fmt.Errorf("event publisher: %w", err)
		}
		defer func() { _ = publisher.Close() }()
		sinks = append(sinks, publisher)
		go func() {
			if err := publisher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Event publisher stopped", "error", err)
			}
		}()
		logger.Info("Publishing events to Redis", "addr", cfg.Events.Redis.Addr, "channel", cfg.Events.Redis.Channel)
	}

	engine := aggregator.NewEngine(logger,
		aggregator.WithAuthenticator(verifier),
		aggregator.WithSink(sinks))

	for _, fc := range cfg.Feeds {
		feedCfg, operators, err := fc.ToFeed()
		if err != nil {
			return fmt.Errorf("feed %s: %w", fc.ID, err)
		}
		if err := engine.CreateFeed(feedCfg, operators); err != nil {
			return fmt.Errorf("feed %s: %w", fc.ID, err)
		}
		logger.Info("Feed created", "feed", feedCfg.ID, "operators", len(operators),
			"min", feedCfg.MinSubmissions, "max", feedCfg.MaxSubmissions)
	}

	opts := api.Options{
		Addr:          cfg.Server.HTTP.Addr,
		AdminToken:    cfg.Server.AdminToken,
		ReadTimeout:   cfg.Server.HTTP.ReadTimeout.ToDuration(),
		WriteTimeout:  cfg.Server.HTTP.WriteTimeout.ToDuration(),
		WebSocketPath: cfg.Server.WebSocket.Path,
	}
	if cfg.Server.HTTP.TLS.Enabled {
		opts.TLSCert = cfg.Server.HTTP.TLS.Cert
		opts.TLSKey = cfg.Server.HTTP.TLS.Key
	}
	if cfg.Server.RateLimit.Enabled {
		opts.RequestsPerSecond = cfg.Server.RateLimit.RequestsPerSecond
		opts.Burst = cfg.Server.RateLimit.Burst
	}
	if opts.AdminToken == "" {
		logger.Warn("No admin token configured, admin routes are disabled")
	}

	server := api.NewServer(opts, engine, hub, logger)

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.HTTP.ShutdownTimeout.ToDuration())
		defer cancel()
		if err := server.Stop(shutdownCtx); err != nil {
			logger.Error("HTTP shutdown failed", "error", err)
		}
	}()

	if err := server.Start(); err != nil {
		return err
	}
	// Start returns as soon as shutdown begins; wait for in-flight requests.
	<-stopped
	return nil
}
