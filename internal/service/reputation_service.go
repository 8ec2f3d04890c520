package service

import (
	"context"
	"log/slog"
	"time"

	"unajuda/internal/models"
	"unajuda/internal/reputation"
)

// ReputationService recomputes stats and badges after activity. It implements ActivityHook.
type ReputationService struct {
	stats  *StatsService
	badges *BadgeService
}

// NewReputationService ties the stats aggregator to the badge awarder.
func NewReputationService(stats *StatsService, badges *BadgeService) *ReputationService {
	return &ReputationService{stats: stats, badges: badges}
}

// Refresh invalidates userID's cached stats, recomputes them and runs the badge awarder.
// Only a stats failure is returned; an awarder failure is logged and the fresh stats
// are still handed back.
func (s *ReputationService) Refresh(ctx context.Context, userID uint) (reputation.Stats, []models.Badge, error) {
	s.stats.Invalidate(ctx, userID)
	stats, err := s.stats.GetStats(ctx, userID)
	if err != nil {
		return reputation.Stats{}, nil, err
	}
	awarded, err := s.badges.CheckAndAward(ctx, userID, stats)
	if err != nil {
		slog.ErrorContext(ctx, "badge award failed",
			slog.Uint64("user_id", uint64(userID)),
			slog.String("error", err.Error()),
		)
		return stats, nil, nil
	}
	return stats, awarded, nil
}

// AfterActivity refreshes each affected user, detached from request cancellation.
// Failures are logged only.
func (s *ReputationService) AfterActivity(ctx context.Context, userIDs ...uint) {
	ids := uniqueIDs(userIDs)
	if len(ids) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	for _, id := range ids {
		if _, awarded, err := s.Refresh(ctx, id); err != nil {
			slog.WarnContext(ctx, "reputation refresh failed",
				slog.Uint64("user_id", uint64(id)),
				slog.String("error", err.Error()),
			)
		} else if len(awarded) > 0 {
			slog.InfoContext(ctx, "badges awarded",
				slog.Uint64("user_id", uint64(id)),
				slog.Int("count", len(awarded)),
			)
		}
	}
}
