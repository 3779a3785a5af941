package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/i474232898/construction-aqi-dashboard/internal/airquality"
	"github.com/i474232898/construction-aqi-dashboard/internal/airquality/providers"
	httpapi "github.com/i474232898/construction-aqi-dashboard/internal/api/http"
	"github.com/i474232898/construction-aqi-dashboard/internal/config"
	"github.com/i474232898/construction-aqi-dashboard/internal/logging"
	"github.com/i474232898/construction-aqi-dashboard/internal/publisher"
	"github.com/i474232898/construction-aqi-dashboard/internal/scheduler"
	"github.com/i474232898/construction-aqi-dashboard/internal/store"
)

const appName = "aqi-dashboard"

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := logging.New(os.Stdout, cfg.AppEnv, cfg.Level(), appName)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("aqi dashboard stopped", "error", err)
		os.Exit(1)
	}
}

// run wires the dashboard and blocks until SIGINT or SIGTERM.
func run(cfg *config.AppConfig, logger *slog.Logger) error {
	// Shared HTTP client for outbound feed calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}
	provider := providers.NewWAQIProvider(httpClient, cfg.WAQIBaseURL, cfg.WAQIToken, airquality.StationID)

	history, closeStore, err := store.Open(store.Options{
		Driver:     cfg.HistoryDriver,
		CSVPath:    cfg.HistoryFile,
		SQLitePath: cfg.SQLitePath,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("open %s history store: %w", cfg.HistoryDriver, err)
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Error("failed to close history store", "error", err)
		}
	}()

	// Optional MQTT publication of appended readings.
	var pub airquality.Publisher = publisher.Noop{}
	if cfg.MQTTEnabled() {
		mqtt := publisher.NewMQTT(publisher.Config{
			Broker:   cfg.MQTTBroker,
			Port:     cfg.MQTTPort,
			Topic:    cfg.MQTTTopic,
			ClientID: cfg.MQTTClientID,
		}, logger)
		if err := mqtt.Connect(); err != nil {
			logger.Warn("mqtt broker not reachable yet, retrying in background", "error", err)
		}
		defer mqtt.Disconnect()
		pub = mqtt
	}

	// Core service orchestrating the feed and the history store.
	service := airquality.NewService(provider, history, cfg.HistoryWindow,
		airquality.WithPublisher(pub),
		airquality.WithLogger(logger),
	)

	// Scheduler that periodically runs the refresh cycle.
	sched := scheduler.New(cfg.RefreshInterval, service, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               appName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(fiberlogger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": appName,
		})
	})

	if err := httpapi.RegisterRoutes(app, service, httpapi.Options{
		CommunityURL:    cfg.CommunityURL,
		RefreshInterval: cfg.RefreshInterval,
	}); err != nil {
		return fmt.Errorf("register routes: %w", err)
	}

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Error("fiber server stopped", "error", err)
		}
	}()
	logger.Info("dashboard listening", "port", cfg.Port, "station", airquality.StationID, "driver", cfg.HistoryDriver)

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
