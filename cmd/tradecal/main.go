package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"tradecal/internal/calendar"
	"tradecal/internal/config"
	"tradecal/internal/exchange"
	"tradecal/internal/store"
	"tradecal/internal/util"
)

const version = "0.1.0"

// app holds state shared by all subcommands.
type app struct {
	cfgPath      string
	exchangeName string
	exchangeFile string
	frequency    string
	verbose      bool

	cfg *config.Config
	log *slog.Logger
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "tradecal",
		Short:         "Query exchange trading calendars",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgPath, "config", "", "config file (default $TRADECAL_CONFIG or config/tradecal.yaml)")
	pf.StringVarP(&a.exchangeName, "exchange", "e", "", "exchange name, looked up in the exchange dir then the registry")
	pf.StringVarP(&a.exchangeFile, "exchange-file", "f", "", "exchange configuration file (.json or .yaml)")
	pf.StringVar(&a.frequency, "frequency", "", "sampling frequency such as 1h (overrides calendar.frequency)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newCheckCmd(a),
		newNextCmd(a),
		newTimesCmd(a),
		newHoursCmd(a),
		newWalkCmd(a),
		newListCmd(a),
		newExportCmd(a),
		newImportCmd(a),
		newSyncAlpacaCmd(a),
		newVersionCmd(),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	// A missing .env is fine.
	_ = godotenv.Load()

	path := a.cfgPath
	if path == "" {
		path = os.Getenv("TRADECAL_CONFIG")
	}
	explicit := path != ""
	if path == "" {
		path = "config/tradecal.yaml"
	}

	cfg, err := config.Load(path)
	switch {
	case err == nil:
	case !explicit && errors.Is(err, os.ErrNotExist):
		cfg = config.Default()
	default:
		return fmt.Errorf("loading config: %w", err)
	}
	if a.frequency != "" {
		cfg.Calendar.Frequency = a.frequency
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	a.cfg = cfg

	level := cfg.Logging.Level
	if a.verbose {
		level = "debug"
	}
	a.log = util.NewLoggerTo(cmd.ErrOrStderr(), level, "text")
	util.SetDefault(a.log)
	return nil
}

// schedule resolves the exchange selected by --exchange-file or --exchange.
func (a *app) schedule(ctx context.Context) (*exchange.Schedule, error) {
	if a.exchangeFile != "" {
		return config.LoadExchange(a.exchangeFile)
	}
	if a.exchangeName == "" {
		return nil, errors.New("one of --exchange or --exchange-file is required")
	}

	if all, err := config.LoadExchangeDir(a.cfg.Calendar.ExchangeDir); err == nil {
		if s, ok := all[a.exchangeName]; ok {
			return s, nil
		}
	} else {
		a.log.Debug("exchange dir not usable", "dir", a.cfg.Calendar.ExchangeDir, "error", err)
	}

	st, err := store.NewSQLiteStore(a.cfg.Storage.SQLitePath)
	if err != nil {
		return nil, err
	}
	defer st.Close()
	c, err := st.GetSchedule(ctx, a.exchangeName)
	if err != nil {
		return nil, err
	}
	return c.Build()
}

func (a *app) options() ([]calendar.Option, error) {
	return a.cfg.Calendar.Options()
}

// querier returns a logged Evaluator for the selected exchange.
func (a *app) querier(ctx context.Context) (calendar.Querier, error) {
	s, err := a.schedule(ctx)
	if err != nil {
		return nil, err
	}
	opts, err := a.options()
	if err != nil {
		return nil, err
	}
	ev, err := calendar.NewEvaluator(s, opts...)
	if err != nil {
		return nil, err
	}
	return calendar.WithLogging(ev, a.log), nil
}

// parseRange parses start and end arguments in loc. A bare end date covers
// the whole day.
func parseRange(startArg, endArg string, loc *time.Location) (time.Time, time.Time, error) {
	start, _, err := exchange.ParseInstant(startArg, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := exchange.ParseRangeEnd(endArg, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}
