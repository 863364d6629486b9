package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"reflector/api"
	"reflector/bot"
	"reflector/config"
	"reflector/contract"
	"reflector/database"
	"reflector/events"
	"reflector/infrastructure"
	"reflector/repository"
	"reflector/service"

	log "github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

// Run initializes and starts the application
func Run(ctx context.Context) error {
	cfg := config.Get()
	configureLogging(cfg)

	log.WithField("environment", cfg.Environment).Info("Starting reflector...")

	// Initialize database connection
	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, database.ConstructDatabaseURL(cfg.DatabaseURL, cfg.DatabaseName))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Info("Database connection established successfully")

	eventBus := events.NewBus()
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	userService := service.NewUserService(uowFactory)
	gameService := service.NewGameService(uowFactory)
	stakeService := service.NewStakeService(uowFactory)
	log.Info("Services initialized successfully")

	hub := api.NewHub(cfg.CORSOrigins)
	eventBus.SubscribeAll(hub.HandleEvent)

	if cfg.NATSURL != "" {
		natsClient, err := connectNATS(ctx, cfg.NATSURL)
		if err != nil {
			return err
		}
		defer natsClient.Close()

		publisher := infrastructure.NewNATSEventPublisher(natsClient, infrastructure.NewEventSubjectMapper())
		eventBus.SubscribeAll(publisher.HandleEvent)
	} else {
		log.Info("NATS_URL not set, events stay in process")
	}

	if cfg.DiscordEnabled() {
		announcer, err := bot.NewAnnouncer(cfg.DiscordWebhookID, cfg.DiscordWebhookToken)
		if err != nil {
			return fmt.Errorf("failed to initialize Discord announcer: %w", err)
		}
		eventBus.Subscribe(events.EventTypeGameCreated, announcer.HandleEvent)
		eventBus.Subscribe(events.EventTypePlayerJoined, announcer.HandleEvent)
		eventBus.Subscribe(events.EventTypeGameStatusChanged, announcer.HandleEvent)
		log.Info("Discord announcements enabled")
	}

	contracts := contract.NewRegistry(cfg.ContractDir, cfg.ContractName)
	if _, err := contracts.Get(); err != nil {
		// The contract may be deployed after startup, the registry retries on each request
		log.WithError(err).Warn("Contract artifacts not loaded yet")
	}

	server := api.NewServer(cfg, userService, gameService, stakeService, contracts, db, hub)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
	}

	log.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Live feed connections are hijacked and not covered by Shutdown
	hub.Close()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("HTTP server shutdown timeout exceeded")
	}

	log.Info("Shutdown completed")
	return nil
}

func connectNATS(ctx context.Context, url string) (*infrastructure.NATSClient, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client := infrastructure.NewNATSClient(url)
	if err := client.Connect(connectCtx); err != nil {
		return nil, err
	}
	if err := client.EnsureStream(infrastructure.StreamName, []string{infrastructure.StreamSubjects}); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

// configureLogging applies the log level and picks JSON output in production
func configureLogging(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithField("level", cfg.LogLevel).Warn("Unknown LOG_LEVEL, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.IsProduction() {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}
