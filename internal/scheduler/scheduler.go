package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/robfig/cron/v3"

	"github.com/chessgraph/chessgraph/internal/model"
	"github.com/chessgraph/chessgraph/internal/services/lifecycle"
)

// Cron expressions for the maintenance jobs
const (
	monthlySpec = "0 2 1 * *" // 02:00 on the 1st of each month
	weeklySpec  = "0 3 * * 0" // 03:00 every Sunday
	dailySpec   = "0 4 * * *" // 04:00 every day
)

// autoCleanupThresholdPct is the player usage percentage above which the
// monthly job triggers an automatic cleanup
const autoCleanupThresholdPct = 85.0

// autoCleanupYears is the age window for automatically triggered cleanup
const autoCleanupYears = 3

// Scheduler runs the periodic maintenance jobs: monthly incremental
// updates, weekly seed refreshes and daily usage monitoring
type Scheduler struct {
	cron    *cron.Cron
	manager *lifecycle.Manager
	seed    model.Username
	logger  *slog.Logger
}

// New creates a scheduler around the lifecycle manager
func New(manager *lifecycle.Manager, seed model.Username, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		manager: manager,
		seed:    seed,
		logger:  logger,
	}
}

// Start registers the jobs and begins running them in the background
func (s *Scheduler) Start(ctx context.Context) error {
	jobs := []struct {
		spec string
		name string
		run  func(context.Context)
	}{
		{monthlySpec, "monthly_update", s.RunMonthlyUpdate},
		{weeklySpec, "weekly_check", s.RunWeeklyCheck},
		{dailySpec, "daily_monitor", s.RunDailyMonitor},
	}

	for _, job := range jobs {
		run := job.run
		if _, err := s.cron.AddFunc(job.spec, func() { run(ctx) }); err != nil {
			return fmt.Errorf("registering %s job: %w", job.name, err)
		}
		s.logger.Info("scheduled job",
			slog.String("job", job.name),
			slog.String("spec", job.spec),
		)
	}

	s.cron.Start()
	return nil
}

// Stop halts the scheduler and waits for any running job to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// RunMonthlyUpdate refreshes stale players, then checks storage usage
// and cleans up old data automatically when player usage has crossed
// the cleanup threshold
func (s *Scheduler) RunMonthlyUpdate(ctx context.Context) {
	summary, err := s.manager.IncrementalUpdate(ctx, 1)
	if err != nil {
		s.logger.Error("monthly incremental update failed", slog.String("error", err.Error()))
		return
	}
	s.logger.Info("monthly incremental update finished",
		slog.Int("players_updated", summary.PlayersUpdated),
		slog.Int("players_skipped", summary.PlayersSkipped),
	)

	report, err := s.manager.MonitorStorageUsage(ctx)
	if err != nil {
		s.logger.Error("usage check failed", slog.String("error", err.Error()))
		return
	}
	if report.PlayerUsagePct > autoCleanupThresholdPct {
		result, err := s.manager.CleanupOldData(ctx, autoCleanupYears)
		if err != nil {
			s.logger.Error("automatic cleanup failed", slog.String("error", err.Error()))
			return
		}
		s.logger.Warn("automatic cleanup triggered",
			slog.Float64("player_usage_pct", report.PlayerUsagePct),
			slog.Int64("deleted_games", result.DeletedEdges),
			slog.Int64("deleted_players", result.DeletedPlayers),
		)
	}
}

// RunWeeklyCheck re-ingests the seed's most recent month and surfaces
// any usage recommendations
func (s *Scheduler) RunWeeklyCheck(ctx context.Context) {
	edges, err := s.manager.IngestRecent(ctx, s.seed, 1)
	if err != nil {
		s.logger.Error("weekly seed refresh failed",
			slog.String("seed", string(s.seed)),
			slog.String("error", err.Error()),
		)
		return
	}
	s.logger.Info("weekly seed refresh finished",
		slog.String("seed", string(s.seed)),
		slog.Int("edges_merged", edges),
	)

	report, err := s.manager.MonitorStorageUsage(ctx)
	if err != nil {
		s.logger.Error("usage check failed", slog.String("error", err.Error()))
		return
	}
	if len(report.Recommendations) > 0 {
		s.logger.Warn("storage recommendations",
			slog.String("recommendations", strings.Join(report.Recommendations, "; ")),
		)
	}
}

// RunDailyMonitor logs current storage usage
func (s *Scheduler) RunDailyMonitor(ctx context.Context) {
	if _, err := s.manager.MonitorStorageUsage(ctx); err != nil {
		s.logger.Error("daily usage check failed", slog.String("error", err.Error()))
	}
}
