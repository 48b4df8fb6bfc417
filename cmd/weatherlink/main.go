package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"

	"github.com/ngmaloney/weatherlink/internal/config"
	"github.com/ngmaloney/weatherlink/internal/database"
	"github.com/ngmaloney/weatherlink/internal/generator"
	"github.com/ngmaloney/weatherlink/internal/geocoding"
	"github.com/ngmaloney/weatherlink/internal/httpx"
	"github.com/ngmaloney/weatherlink/internal/metar"
	"github.com/ngmaloney/weatherlink/internal/openmeteo"
	"github.com/ngmaloney/weatherlink/internal/presets"
	"github.com/ngmaloney/weatherlink/internal/sounds"
	"github.com/ngmaloney/weatherlink/internal/ui"
)

func main() {
	envFile := flag.String("env", "", "Read settings from this dotenv file instead of ./.env")
	list := flag.Bool("list", false, "List routes, or the activities of --route")
	listPresets := flag.Bool("presets", false, "List weather presets")
	cleanup := flag.Bool("cleanup", false, "Delete generated files from --route, or from every content folder")
	routeName := flag.String("route", "", "Route name or ID to generate for (runs without the terminal UI)")
	activityName := flag.String("activity", "", "Activity display name or file name")
	mode := flag.String("mode", "live", "Weather source: live, historical, chaotic, metar or preset")
	date := flag.String("date", "", "Start date for --mode historical (YYYY-MM-DD)")
	hour := flag.Int("hour", 0, "Start hour for --mode historical (0-23)")
	icao := flag.String("icao", "", "Airport for --mode metar (e.g. EGLL)")
	preset := flag.String("preset", "", "Preset for --mode preset")
	noThunder := flag.Bool("no-thunder", false, "Do not add thunder sounds")
	noWind := flag.Bool("no-wind", false, "Do not add wind sounds")
	noRain := flag.Bool("no-rain", false, "Do not add rain sounds")
	noColor := flag.Bool("no-color", false, "Disable color output")
	flag.Parse()

	if *noColor {
		color.NoColor = true
	}

	headless := *list || *listPresets || *cleanup || *routeName != ""
	if *activityName != "" && *routeName == "" {
		fmt.Println("Error: --activity requires --route.")
		os.Exit(2)
	}

	cfg, err := loadConfig(*envFile)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	logger, closeLog := setupLogger(cfg, headless)
	defer closeLog()
	slog.SetDefault(logger)

	app, err := newApp(cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	defer app.close()

	if !headless {
		p := tea.NewProgram(ui.NewModel(ui.Deps{
			Service:      app.service,
			ContentPaths: cfg.ContentPaths,
			RouteCache:   app.cache,
			Presets:      app.presets,
			Logger:       logger,
		}), tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			fmt.Printf("Error running application: %v\n", err)
			os.Exit(1)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opts := cliOptions{
		list:        *list,
		listPresets: *listPresets,
		cleanup:     *cleanup,
		route:       *routeName,
		activity:    *activityName,
		mode:        *mode,
		date:        *date,
		hour:        *hour,
		icao:        *icao,
		preset:      *preset,
		noThunder:   *noThunder,
		noWind:      *noWind,
		noRain:      *noRain,
	}
	if err := runHeadless(ctx, app, cfg, opts, os.Stdout); err != nil {
		errorColor.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(envFile string) (*config.Config, error) {
	if envFile != "" {
		return config.LoadFile(envFile)
	}
	return config.Load()
}

// setupLogger logs to stderr without the UI and to the log file with it
func setupLogger(cfg *config.Config, headless bool) (*slog.Logger, func()) {
	opts := &slog.HandlerOptions{Level: cfg.Level()}
	if headless {
		return slog.New(slog.NewTextHandler(os.Stderr, opts)), func() {}
	}
	if cfg.LogFile == "" {
		return slog.New(slog.NewTextHandler(io.Discard, opts)), func() {}
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return slog.New(slog.NewTextHandler(io.Discard, opts)), func() {}
	}
	return slog.New(slog.NewTextHandler(f, opts)), func() { f.Close() }
}

// app holds the long-lived components shared by both front ends
type app struct {
	cache   *database.Cache
	presets *presets.Store
	service *generator.Service
}

func newApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	cache, err := database.Open(cfg.CacheDB)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}
	if n, err := cache.PurgeExpired(); err != nil {
		logger.Warn("cache purge failed", "error", err)
	} else if n > 0 {
		logger.Debug("expired forecasts purged", "rows", n)
	}

	defs, err := sounds.LoadDefinitions(cfg.SoundDefsPath)
	if err != nil {
		cache.Close()
		return nil, err
	}
	lib, err := sounds.Discover(context.Background(), cfg.SoundsDir, defs, logger)
	if err != nil {
		cache.Close()
		return nil, err
	}

	weather := openmeteo.NewClient(
		httpx.New("open-meteo", cfg.HTTPTimeout),
		openmeteo.WithCache(cache, cfg.ForecastTTL),
		openmeteo.WithConcurrency(cfg.FetchConcurrency),
		openmeteo.WithLogger(logger),
	)
	store := presets.NewStore(cfg.PresetsPath)

	svc := generator.New(
		generator.WithForecaster(weather),
		generator.WithObserver(metar.NewClient(httpx.New("aviationweather", cfg.HTTPTimeout))),
		generator.WithPresets(store),
		generator.WithLabeler(geocoding.NewGeocoder(httpx.New("nominatim", cfg.HTTPTimeout), logger)),
		generator.WithSounds(lib),
		generator.WithPinDistance(cfg.PinDistanceMeters()),
		generator.WithTransition(cfg.TransitionSecs),
		generator.WithLogger(logger),
	)
	logger.Info("weatherlink ready",
		"content_paths", len(cfg.ContentPaths),
		"sounds", lib.Count(),
		"cache", cfg.CacheDB,
	)
	return &app{cache: cache, presets: store, service: svc}, nil
}

func (a *app) close() {
	a.cache.Close()
}
