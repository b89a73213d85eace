package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"busmap.mbtatools.org/internal/app"
	"busmap.mbtatools.org/internal/config"
	"busmap.mbtatools.org/internal/report"
	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
)

// Declare a string containing the application version number. It is overridden
// at build time with -ldflags "-X main.version=...".
var version = "1.0.0"

func main() {
	var (
		port        = flag.Int("port", 4000, "API server port")
		env         = flag.String("env", "development", "Environment (development|staging|production)")
		configFile  = flag.String("config-file", "", "Path to a local JSON or YAML configuration file")
		configURL   = flag.String("config-url", "", "URL to a remote JSON or YAML configuration file")
		feed        = flag.String("feed", config.FeedMBTA, "Vehicle feed (mbta|gtfs-rt)")
		corsOrigins = flag.String("cors-origins", "", "Comma-separated list of origins allowed to call the API")
	)

	flag.Parse()

	// A .env file is optional; the environment wins over it.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Println("Error loading .env file:", err)
		os.Exit(1)
	}

	if err := config.ValidateConfigFlags(configFile, configURL); err != nil {
		fmt.Println("Error:", err)
		flag.Usage()
		os.Exit(1)
	}
	if err := config.ValidateFeed(*feed); err != nil {
		fmt.Println("Error:", err)
		flag.Usage()
		os.Exit(1)
	}

	configAuthUser := os.Getenv(config.EnvConfigAuthUser)
	configAuthPass := os.Getenv(config.EnvConfigAuthPass)

	report.SetupSentry(*env, version)
	defer report.FlushSentry()
	report.ConfigureScope(*env, version, *feed)

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	client := app.NewPooledClient()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		settings config.Settings
		err      error
	)
	switch {
	case *configFile != "":
		settings, err = config.LoadConfigFromFile(*configFile)
	case *configURL != "":
		settings, err = config.LoadConfigFromURL(ctx, client, *configURL, configAuthUser, configAuthPass)
	}
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	settings = config.ApplyEnvironment(settings)
	if err := config.ValidateSettings(settings); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if settings.ApiKey == "" {
		logger.Warn("No MBTA API key configured, requests are rate limited", "env_var", config.EnvAPIKey)
	}
	if *feed == config.FeedGtfsRt && settings.GtfsRtVehiclePositionsURL == "" {
		fmt.Printf("Error: --feed=%s requires %s or GtfsRtVehiclePositionsUrl\n", config.FeedGtfsRt, config.EnvVehiclePositions)
		os.Exit(1)
	}

	cfg := config.NewConfig(*port, *env, *feed, settings)

	application := app.New(cfg, logger, client, version)
	application.AllowedOrigins = splitOrigins(*corsOrigins)

	// If a remote URL is specified, refresh the configuration every minute
	if *configURL != "" {
		go application.ConfigService.RefreshConfig(ctx, *configURL, configAuthUser, configAuthPass, time.Minute)
	}

	application.StartCatalogMonitor(ctx, 5*time.Minute)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      application.Routes(ctx),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", srv.Addr, "env", cfg.Env, "feed", cfg.Feed, "version", version)
		serverErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		report.ReportError(err, sentry.LevelFatal)
		report.FlushSentry()
		logger.Error(err.Error())
		os.Exit(1)
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		report.ReportError(err)
		logger.Error("graceful shutdown failed", "error", err)
	}
}

func splitOrigins(value string) []string {
	var origins []string
	for _, origin := range strings.Split(value, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}
