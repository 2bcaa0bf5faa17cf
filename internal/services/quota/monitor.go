package quota

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/chessgraph/chessgraph/internal/model"
	"github.com/chessgraph/chessgraph/internal/store"
)

// warnThresholdPct is the usage percentage above which the monitor
// starts recommending action
const warnThresholdPct = 80.0

// Limits are the advisory storage ceilings the monitor reports against
type Limits struct {
	PlayerCeiling      int64
	EdgeCeiling        int64
	MaxPlayersPerLevel int64
}

// Monitor reports storage usage against configured ceilings. It never
// enforces anything; it only measures and recommends.
type Monitor struct {
	store  store.Store
	limits Limits
	logger *slog.Logger
}

// New creates a usage monitor
func New(st store.Store, limits Limits, logger *slog.Logger) *Monitor {
	return &Monitor{
		store:  st,
		limits: limits,
		logger: logger,
	}
}

// Usage builds a usage report: aggregate counts, per-level breakdown,
// percentage of each ceiling consumed, and advisory recommendations for
// any category above the warning threshold
func (m *Monitor) Usage(ctx context.Context) (*model.UsageReport, error) {
	stats, err := m.store.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading graph stats: %w", err)
	}
	breakdown, err := m.store.LevelBreakdown(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading level breakdown: %w", err)
	}

	report := &model.UsageReport{
		Stats:           stats,
		PlayerUsagePct:  percentage(stats.Players, m.limits.PlayerCeiling),
		EdgeUsagePct:    percentage(stats.Edges, m.limits.EdgeCeiling),
		Breakdown:       breakdown,
		Recommendations: []string{},
		HeavyLevels:     []int{},
	}

	if report.PlayerUsagePct > warnThresholdPct {
		report.Recommendations = append(report.Recommendations, fmt.Sprintf(
			"player storage at %.1f%% of ceiling (%d/%d): reduce max discovery level or run cleanup",
			report.PlayerUsagePct, stats.Players, m.limits.PlayerCeiling))
	}
	if report.EdgeUsagePct > warnThresholdPct {
		report.Recommendations = append(report.Recommendations, fmt.Sprintf(
			"relationship storage at %.1f%% of ceiling (%d/%d): run cleanup to drop old games",
			report.EdgeUsagePct, stats.Edges, m.limits.EdgeCeiling))
	}

	for _, level := range breakdown {
		if m.limits.MaxPlayersPerLevel > 0 && level.Players > m.limits.MaxPlayersPerLevel {
			report.HeavyLevels = append(report.HeavyLevels, level.Level)
			report.Recommendations = append(report.Recommendations, fmt.Sprintf(
				"level %d holds %d players, above the per-level limit of %d",
				level.Level, level.Players, m.limits.MaxPlayersPerLevel))
		}
	}

	m.logger.Info("storage usage measured",
		slog.Int64("players", stats.Players),
		slog.Int64("relationships", stats.Edges),
		slog.Float64("player_usage_pct", report.PlayerUsagePct),
		slog.Float64("relationship_usage_pct", report.EdgeUsagePct),
	)
	return report, nil
}

func percentage(count, ceiling int64) float64 {
	if ceiling <= 0 {
		return 0
	}
	return float64(count) / float64(ceiling) * 100
}
