package main

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"tradecal/internal/calendar"
	"tradecal/internal/config"
	"tradecal/internal/exchange"
	"tradecal/internal/gather"
	"tradecal/internal/gather/us"
	"tradecal/internal/store"
)

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check <time>",
		Short: "Report whether an instant is a trading time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := a.querier(cmd.Context())
			if err != nil {
				return err
			}
			loc := q.Schedule().Location()
			t, _, err := exchange.ParseInstant(args[0], loc)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s trading=%t\n",
				q.Schedule().Name(), t.In(loc).Format(time.RFC3339), q.IsTradingTime(t))
			return nil
		},
	}
}

func newNextCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "next <time>",
		Short: "Print the next trading time after an instant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := a.querier(cmd.Context())
			if err != nil {
				return err
			}
			t, _, err := exchange.ParseInstant(args[0], q.Schedule().Location())
			if err != nil {
				return err
			}
			next, err := q.NextTradingTime(t)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), next.Format(time.RFC3339))
			return nil
		},
	}
}

const rangeHelp = `<start> and <end> are RFC 3339 timestamps, local "YYYY-MM-DD HH:MM"
times in the exchange timezone, or bare "YYYY-MM-DD" dates. The range is
inclusive, and a bare <end> date covers that whole day: "2024-01-03 2024-01-04"
includes the sessions of both days, not just up to midnight of 2024-01-04.`

func newTimesCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "times <start> <end>",
		Short: "List sampled trading times in a range",
		Long:  "List sampled trading times in a range.\n\n" + rangeHelp,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := a.querier(cmd.Context())
			if err != nil {
				return err
			}
			start, end, err := parseRange(args[0], args[1], q.Schedule().Location())
			if err != nil {
				return err
			}
			seq, err := q.TradingTimes(start, end)
			if err != nil {
				return err
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"#", "Time", "Weekday"})
			n := 0
			for ts := range seq {
				if limit > 0 && n == limit {
					break
				}
				n++
				table.Append([]string{strconv.Itoa(n), ts.Format(time.RFC3339), ts.Weekday().String()})
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "print at most n times (0 = all)")
	return cmd
}

func newHoursCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "hours <from> [to]",
		Short: "Show the session of each date in a range",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := a.querier(cmd.Context())
			if err != nil {
				return err
			}
			from, err := exchange.ParseDate(args[0])
			if err != nil {
				return err
			}
			to := from
			if len(args) == 2 {
				if to, err = exchange.ParseDate(args[1]); err != nil {
					return err
				}
			}
			if to.Before(from) {
				return fmt.Errorf("%w: %s before %s", calendar.ErrInvalidRange, to, from)
			}
			renderDays(cmd, calendar.Days(q, from, to))
			return nil
		},
	}
}

func renderDays(cmd *cobra.Command, days []calendar.DayInfo) {
	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetHeader([]string{"Date", "Weekday", "Status", "Open", "Close"})
	for _, d := range days {
		status, open, closeAt := "closed", "-", "-"
		switch {
		case d.Holiday:
			status = "holiday"
		case d.TradingDay && d.Special:
			status, open, closeAt = "special", d.Hours.Open.String(), d.Hours.Close.String()
		case d.TradingDay:
			status, open, closeAt = "open", d.Hours.Open.String(), d.Hours.Close.String()
		}
		table.Append([]string{d.Date.String(), d.Date.Weekday().String(), status, open, closeAt})
	}
	table.Render()
}

func newWalkCmd(a *app) *cobra.Command {
	var maxSteps int
	cmd := &cobra.Command{
		Use:   "walk <start> <end>",
		Short: "Step a calendar cursor through a range",
		Long:  "Step a calendar cursor through a range. A start that is itself a trading time is printed first.\n\n" + rangeHelp,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.schedule(cmd.Context())
			if err != nil {
				return err
			}
			start, end, err := parseRange(args[0], args[1], s.Location())
			if err != nil {
				return err
			}
			opts, err := a.options()
			if err != nil {
				return err
			}
			e, err := calendar.New(s, start, end, opts...)
			if err != nil {
				return err
			}
			le := calendar.LogEngine(e, a.log)

			out := cmd.OutOrStdout()
			if e.IsTradingTime(start) {
				fmt.Fprintln(out, le.CurrentTime().Format(time.RFC3339))
			}
			for steps := 0; maxSteps <= 0 || steps < maxSteps; steps++ {
				if err := cmd.Context().Err(); err != nil {
					return err
				}
				if err := le.Step(); err != nil {
					return err
				}
				if le.IsFinished() {
					break
				}
				fmt.Fprintln(out, le.CurrentTime().Format(time.RFC3339))
			}
			fmt.Fprintln(out, e)
			return nil
		},
	}
	cmd.Flags().IntVar(&maxSteps, "max-steps", 0, "stop after n steps (0 = until finished)")
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List exchanges from the exchange dir and the registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sources := map[string]string{}
			if all, err := config.LoadExchangeDir(a.cfg.Calendar.ExchangeDir); err == nil {
				for name := range all {
					sources[name] = "file"
				}
			}
			st, err := store.NewSQLiteStore(a.cfg.Storage.SQLitePath)
			if err != nil {
				return err
			}
			defer st.Close()
			names, err := st.ListSchedules(cmd.Context())
			if err != nil {
				return err
			}
			for _, n := range names {
				if _, ok := sources[n]; ok {
					sources[n] = "file+registry"
				} else {
					sources[n] = "registry"
				}
			}

			keys := make([]string, 0, len(sources))
			for k := range sources {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"Exchange", "Source"})
			for _, k := range keys {
				table.Append([]string{k, sources[k]})
			}
			table.Render()
			return nil
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <start> <end>",
		Short: "Write sampled trading times to Parquet under the data dir",
		Long:  "Write sampled trading times to Parquet under the data dir.\n\n" + rangeHelp,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := a.querier(cmd.Context())
			if err != nil {
				return err
			}
			start, end, err := parseRange(args[0], args[1], q.Schedule().Location())
			if err != nil {
				return err
			}
			ps := store.NewParquetStore(a.cfg.Storage.DataDir)
			n, err := store.ExportTradingTimes(cmd.Context(), ps, q, start, end)
			if err != nil {
				return err
			}
			a.log.Info("exported trading times", "exchange", q.Schedule().Name(), "count", n,
				"dir", a.cfg.Storage.DataDir)
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d trading times\n", n)
			return nil
		},
	}
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>...",
		Short: "Validate exchange files and save them into the registry",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.NewSQLiteStore(a.cfg.Storage.SQLitePath)
			if err != nil {
				return err
			}
			defer st.Close()

			for _, path := range args {
				c, err := config.ReadExchange(path)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				if err := st.SaveSchedule(cmd.Context(), c); err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %s from %s\n", c.Name, path)
			}
			return nil
		},
	}
}

func newSyncAlpacaCmd(a *app) *cobra.Command {
	var (
		fromArg, toArg string
		save           bool
	)
	cmd := &cobra.Command{
		Use:   "sync-alpaca",
		Short: "Derive holidays and early closes from the Alpaca calendar",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.Alpaca.APIKey == "" || a.cfg.Alpaca.APISecret == "" {
				return errors.New("alpaca credentials are not configured")
			}
			from, err := exchange.ParseDate(fromArg)
			if err != nil {
				return err
			}
			to, err := exchange.ParseDate(toArg)
			if err != nil {
				return err
			}

			src := us.NewAlpacaCalendarSource(a.cfg.Alpaca.APIKey, a.cfg.Alpaca.APISecret, a.cfg.Alpaca.BaseURL)
			sync := us.NewScheduleSync(src, a.cfg.Alpaca.RateLimitPerMin, a.log)

			if save {
				if a.exchangeName == "" {
					return errors.New("--save needs --exchange naming a registry entry")
				}
				st, err := store.NewSQLiteStore(a.cfg.Storage.SQLitePath)
				if err != nil {
					return err
				}
				defer st.Close()
				job := us.NewSyncJob(sync, st, []string{a.exchangeName},
					gather.DateRange{From: from, To: to}, a.log)
				return job.Run(cmd.Context())
			}

			s, err := a.schedule(cmd.Context())
			if err != nil {
				return err
			}
			synced, _, err := sync.Sync(cmd.Context(), s.Config(), from, to)
			if err != nil {
				return err
			}
			data, err := config.EncodeExchange(synced)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	year := time.Now().Year()
	cmd.Flags().StringVar(&fromArg, "from", fmt.Sprintf("%d-01-01", year), "first date to sync")
	cmd.Flags().StringVar(&toArg, "to", fmt.Sprintf("%d-12-31", year+1), "last date to sync")
	cmd.Flags().BoolVar(&save, "save", false, "save the result into the registry instead of printing it")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the CLI version",
		Args:  cobra.NoArgs,
		// The root pre-run loads config; version needs none of it.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tradecal %s\n", version)
		},
	}
}
