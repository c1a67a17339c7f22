package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"tradecal/internal/api"
	"tradecal/internal/calendar"
	"tradecal/internal/config"
	"tradecal/internal/exchange"
	"tradecal/internal/metrics"
	"tradecal/internal/store"
	"tradecal/internal/util"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("loading .env: %v", err)
	}

	// Load config.
	cfgPath := "config/tradecal.yaml"
	if p := os.Getenv("TRADECAL_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	schedules, err := loadSchedules(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("loading schedules: %v", err)
	}

	opts, err := cfg.Calendar.Options()
	if err != nil {
		log.Fatalf("calendar options: %v", err)
	}
	reg := calendar.NewRegistry(opts,
		func(q calendar.Querier) calendar.Querier { return calendar.WithLogging(q, logger) },
		calendar.WithMetrics,
	)
	if err := reg.AddAll(schedules); err != nil {
		log.Fatalf("registering schedules: %v", err)
	}
	metrics.SetSchedulesLoaded(reg.Len())
	logger.Info("serving exchanges", "exchanges", reg.Names())

	srv := api.NewServer(cfg, reg, logger)
	if err := srv.ListenAndServe(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
	logger.Info("tradecal-server stopped")
}

// loadSchedules merges the exchange dir with the SQLite registry. Registry
// entries win, so synced schedules override the shipped files.
func loadSchedules(ctx context.Context, cfg *config.Config, logger *slog.Logger) (map[string]*exchange.Schedule, error) {
	out := make(map[string]*exchange.Schedule)

	fromDir, err := config.LoadExchangeDir(cfg.Calendar.ExchangeDir)
	if err != nil {
		logger.Warn("exchange dir not loaded", "dir", cfg.Calendar.ExchangeDir, "error", err)
	}
	for name, s := range fromDir {
		out[name] = s
	}

	st, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		return nil, err
	}
	defer st.Close()
	fromDB, err := store.BuildAll(ctx, st)
	if err != nil {
		return nil, err
	}
	for name, s := range fromDB {
		out[name] = s
	}

	if len(cfg.Calendar.Exchanges) > 0 {
		selected := make(map[string]*exchange.Schedule, len(cfg.Calendar.Exchanges))
		for _, name := range cfg.Calendar.Exchanges {
			s, ok := out[name]
			if !ok {
				return nil, errors.New("configured exchange " + name + " not found")
			}
			selected[name] = s
		}
		out = selected
	}

	if len(out) == 0 {
		return nil, errors.New("no exchange schedules found")
	}
	return out, nil
}
