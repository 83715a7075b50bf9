package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aqi-forecast/config"
	"aqi-forecast/internal/climatology"
	v1 "aqi-forecast/internal/controllers/http/v1"
	"aqi-forecast/internal/forecaster"
	"aqi-forecast/internal/repositories"
	"aqi-forecast/internal/services/forecast"
	"aqi-forecast/internal/services/readings"
	"aqi-forecast/pkg/database"
	"aqi-forecast/pkg/httpserver"
	"aqi-forecast/pkg/metrics"
	"aqi-forecast/pkg/observe"
)

const historyLoadTimeout = 2 * time.Minute

// @title AQI Forecast API
// @version 1.0.0
// @description Forecasts the daily Air Quality Index of a location from a persisted time-series model,
// @description with the temperature regressor filled from historical daily averages.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

// @tag.name Forecast
// @tag.description AQI forecast operations
// @tag.name Readings
// @tag.description Recorded AQI values
func main() {
	ctx, cancel := context.WithCancel(context.Background())

	cnf, err := config.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot load configuration: %v\n", err)
		os.Exit(1)
	}

	var hooks []io.Writer
	var sentryHook *observe.SentryHook
	if cnf.Sentry.DSN != "" {
		sentryHook, err = observe.NewSentryHook(cnf.App.Env, cnf.App.Name, cnf.Sentry.DSN, cnf.Sentry.Debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "cannot init sentry: %v\n", err)
		} else {
			hooks = append(hooks, sentryHook)
		}
	}

	l := observe.NewFormattedZapLogger(cnf.App.Name, cnf.Log.Format, os.Stdout, hooks...).WithEnv(cnf.App.Env)
	if err := l.SetLevel(cnf.Log.Level); err != nil {
		l.Warning("invalid log level, keeping debug", map[string]any{"level": cnf.Log.Level})
	}

	m := metrics.NewCollector(cnf.Metrics.Namespace)
	var exposed *metrics.Collector
	if cnf.Metrics.Enabled {
		exposed = m
	}

	// The database is optional unless temperature history is read from it.
	db, err := database.Open(ctx, database.Config{
		Driver:              cnf.Database.Driver,
		DSN:                 cnf.Database.DSN,
		MaxOpenConns:        cnf.Database.MaxOpenConns,
		MaxIdleConns:        cnf.Database.MaxIdleConns,
		ConnMaxLifetime:     cnf.Database.ConnMaxLifetime,
		PoolMonitorInterval: cnf.Database.PoolMonitorInterval,
	}, l, m)
	if err != nil {
		if cnf.History.Source == config.HistorySourceSQL {
			l.Fatal("cannot open the history database", map[string]any{"err": err})
		}
		l.Warning("database not available, AQI readings disabled", map[string]any{"err": err})
		db = nil
	} else if err := db.StartPoolMonitor(); err != nil {
		l.Error(err, map[string]any{"component": "pool_monitor"})
	}

	// A broken artifact disables predictions but keeps the rest of the API up.
	var model forecaster.Model
	artifact, err := forecaster.LoadArtifact(cnf.Model.ArtifactPath)
	if err != nil {
		l.Error(err, map[string]any{"artifact": cnf.Model.ArtifactPath})
	} else if am, err := artifact.Model(); err != nil {
		l.Error(err, map[string]any{"artifact": cnf.Model.ArtifactPath})
	} else {
		model = am
		l.Info("model loaded", map[string]any{
			"model":     am.Name(),
			"last_date": am.LastDate().Format("2006-01-02"),
		})
	}

	climate := loadClimatology(ctx, cnf, artifact, db, l)

	forecastService := forecast.NewForecastService(model, climate, forecast.Config{
		DefaultTemperature: cnf.Model.DefaultTemperature,
		MinTemperature:     cnf.Model.MinTemperature,
		MaxTemperature:     cnf.Model.MaxTemperature,
	}, l, m)

	var readingService *readings.ReadingService
	if db != nil {
		readingService = readings.NewReadingService(repositories.NewSQLReadingRepository(db), l)
	}

	app := httpserver.InitFiberServer(httpserver.Config{
		AppName:      cnf.App.Name,
		ReadTimeout:  cnf.Server.ReadTimeoutDuration(),
		WriteTimeout: cnf.Server.WriteTimeoutDuration(),
		IdleTimeout:  cnf.Server.IdleTimeoutDuration(),
		// Handlers give up on the model once the response could no longer be written.
		RequestTimeout: cnf.Server.WriteTimeoutDuration(),
		Debug:          cnf.IsDevelopment(),
	}, exposed, forecastService.Available)

	v1.NewRouter(
		app,
		forecastService,
		readingService,
		exposed,
		l,
	)

	go func() {
		if err := app.Listen(":" + cnf.Server.Port); err != nil {
			l.Fatal("cannot run the server", map[string]any{"err": err})
		}
	}()

	l.Info("application started successfully", map[string]any{
		"port":            cnf.Server.Port,
		"model_available": forecastService.Available(),
		"history_source":  cnf.History.Source,
	})

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer func() {
		l.Warning("stopping application services")
		signal.Stop(sigCh)
		close(sigCh)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		_ = app.ShutdownWithContext(shutdownCtx)
		if db != nil {
			_ = db.Close()
		}
		if sentryHook != nil {
			sentryHook.Flush()
		}
		_ = l.Stop()
		cancel()
	}()

	select {
	case <-sigCh:
		fmt.Println("received shutdown signal")
	case <-ctx.Done():
		fmt.Println("context cancelled")
	}
}

// loadClimatology builds the temperature averages from the configured
// history source. Without history every date falls back to the default.
func loadClimatology(
	ctx context.Context,
	cnf *config.Config,
	artifact *forecaster.Artifact,
	db *database.DB,
	l *observe.Logger,
) *climatology.Climatology {
	repo, err := repositories.InitHistoryRepository(cnf, artifact, db, l)
	if err != nil {
		l.Error(err, map[string]any{"history_source": cnf.History.Source})
		return climatology.New(nil)
	}

	loadCtx, cancel := context.WithTimeout(ctx, historyLoadTimeout)
	defer cancel()

	observations, err := repo.LoadObservations(loadCtx)
	if err != nil {
		l.Error(err, map[string]any{"history_source": repo.Name()})
		return climatology.New(nil)
	}

	climate := climatology.New(observations)
	l.Info("temperature history loaded", map[string]any{
		"history_source": repo.Name(),
		"observations":   climate.Observations(),
	})

	return climate
}
