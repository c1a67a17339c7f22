package us

import (
	"context"
	"fmt"
	"log/slog"

	"tradecal/internal/gather"
	"tradecal/internal/store"
)

var _ gather.Gatherer = (*SyncJob)(nil)

// SyncJob refreshes stored exchange schedules from a CalendarSource.
type SyncJob struct {
	sync      *ScheduleSync
	store     store.ScheduleStore
	exchanges []string
	rng       gather.DateRange
	log       *slog.Logger
}

// NewSyncJob creates a job that syncs the named exchanges over rng and
// saves the results back into st.
func NewSyncJob(sync *ScheduleSync, st store.ScheduleStore, exchanges []string, rng gather.DateRange, log *slog.Logger) *SyncJob {
	return &SyncJob{sync: sync, store: st, exchanges: exchanges, rng: rng, log: log}
}

// Name implements gather.Gatherer.
func (j *SyncJob) Name() string { return "us-schedule-sync" }

// Run implements gather.Gatherer. It stops at the first failing exchange.
func (j *SyncJob) Run(ctx context.Context) error {
	for _, name := range j.exchanges {
		base, err := j.store.GetSchedule(ctx, name)
		if err != nil {
			return err
		}
		synced, report, err := j.sync.Sync(ctx, base, j.rng.From, j.rng.To)
		if err != nil {
			return fmt.Errorf("syncing %s: %w", name, err)
		}
		if err := j.store.SaveSchedule(ctx, synced); err != nil {
			return err
		}
		j.log.Info("saved synced schedule", "exchange", name, "days", report.Days,
			"holidays", report.Holidays, "special_days", report.SpecialDays)
	}
	return nil
}
