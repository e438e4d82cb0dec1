package scheduler

import (
	"context"
	"errors"

	"go.uber.org/zap"

	notificationsmodels "io.winapps.pushrelay/internal/models/notifications"
	statsmodels "io.winapps.pushrelay/internal/models/stats"
	"io.winapps.pushrelay/internal/notify"
)

const (
	DefaultDailyReminderSchedule = "0 9 * * *"
	DefaultWeeklyReportSchedule  = "0 8 * * 1"
	DefaultDailyCleanupSchedule  = "0 2 * * *"

	WeeklyReportJob = "weekly-report"
	DailyCleanupJob = "daily-cleanup"
)

// Dispatcher is satisfied by *notify.Dispatcher.
type Dispatcher interface {
	Dispatch(ctx context.Context, target notify.Target, payload notificationsmodels.Payload) (*notificationsmodels.DispatchResult, error)
}

// StatsSource is satisfied by *stats.Aggregator.
type StatsSource interface {
	Compute(ctx context.Context) (*statsmodels.Stats, error)
}

// Schedules holds the cron expressions of the built-in jobs. Empty fields
// fall back to the defaults.
type Schedules struct {
	DailyReminder string
	WeeklyReport  string
	DailyCleanup  string
}

// RegisterDefaults registers the daily reminder broadcast, the weekly stats
// report and the nightly registry sweep.
func RegisterDefaults(s *Scheduler, d Dispatcher, st StatsSource, schedules Schedules, logger *zap.SugaredLogger) error {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if schedules.DailyReminder == "" {
		schedules.DailyReminder = DefaultDailyReminderSchedule
	}
	if schedules.WeeklyReport == "" {
		schedules.WeeklyReport = DefaultWeeklyReportSchedule
	}
	if schedules.DailyCleanup == "" {
		schedules.DailyCleanup = DefaultDailyCleanupSchedule
	}

	reminder := notificationsmodels.DailyReminder(schedules.DailyReminder)
	if err := s.Register(reminder.Name, reminder.Schedule, ReminderAction(d, reminder, logger)); err != nil {
		return err
	}
	if err := s.Register(WeeklyReportJob, schedules.WeeklyReport, WeeklyReportAction(st, logger)); err != nil {
		return err
	}
	return s.Register(DailyCleanupJob, schedules.DailyCleanup, DailyCleanupAction(st, logger))
}

// ReminderAction broadcasts r to all users. A failed dispatch is returned as
// the job's error.
func ReminderAction(d Dispatcher, r notificationsmodels.Reminder, logger *zap.SugaredLogger) Action {
	return func(ctx context.Context) error {
		result, err := d.Dispatch(ctx, notify.AllUsers(), r.Payload)
		if err != nil {
			return err
		}
		if !result.Success {
			return errors.New(result.Message)
		}
		logger.Infow("Reminder sent", "job", r.Name, "sent", result.SentCount)
		return nil
	}
}

// WeeklyReportAction logs the registry totals.
func WeeklyReportAction(st StatsSource, logger *zap.SugaredLogger) Action {
	return func(ctx context.Context) error {
		stats, err := st.Compute(ctx)
		if err != nil {
			return err
		}
		logger.Infow("Weekly report",
			"total_users", stats.TotalUsers,
			"total_tokens", stats.TotalTokens,
			"timestamp", stats.Timestamp,
		)
		return nil
	}
}

// DailyCleanupAction records the size of the registry once a night.
func DailyCleanupAction(st StatsSource, logger *zap.SugaredLogger) Action {
	return func(ctx context.Context) error {
		stats, err := st.Compute(ctx)
		if err != nil {
			return err
		}
		logger.Infow("Daily cleanup", "total_tokens", stats.TotalTokens)
		return nil
	}
}
