package service

import (
	"context"
	"time"

	"unajuda/internal/cache"
	"unajuda/internal/featureflags"
	"unajuda/internal/observability"
	"unajuda/internal/repository"
	"unajuda/internal/reputation"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// StatsService aggregates activity counters and derives reputation from them.
type StatsService struct {
	repo     repository.StatsRepository
	policy   reputation.Policy
	flags    *featureflags.Manager
	cacheTTL time.Duration
}

// NewStatsService wires the aggregator. A zero cacheTTL disables caching.
func NewStatsService(repo repository.StatsRepository, policy reputation.Policy, flags *featureflags.Manager, cacheTTL time.Duration) *StatsService {
	return &StatsService{repo: repo, policy: policy, flags: flags, cacheTTL: cacheTTL}
}

// Policy returns the scoring policy in effect.
func (s *StatsService) Policy() reputation.Policy {
	return s.policy
}

// GetStats returns the activity snapshot of userID. A store failure is always an error,
// never an all-zero snapshot.
func (s *StatsService) GetStats(ctx context.Context, userID uint) (reputation.Stats, error) {
	ctx, span := observability.GetTraceLayer().TraceService(ctx, "stats", "GetStats")
	defer span.End()
	span.SetAttributes(attribute.Int64("user.id", int64(userID)))

	var stats reputation.Stats
	fetch := func() error {
		var err error
		stats, err = s.repo.Snapshot(ctx, userID, s.policy.WellRatedThreshold)
		return err
	}

	var err error
	if s.cacheTTL > 0 && s.flags.Enabled(featureflags.StatsCache, userID) {
		var result string
		result, err = cache.Aside(ctx, cache.StatsKey(userID), &stats, s.cacheTTL, fetch)
		observability.StatsCacheResults.WithLabelValues(result).Inc()
	} else {
		err = fetch()
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "stats snapshot failed")
		return reputation.Stats{}, err
	}
	return stats, nil
}

// GetReputation returns stats together with score, level and progress.
func (s *StatsService) GetReputation(ctx context.Context, userID uint) (*reputation.Summary, error) {
	stats, err := s.GetStats(ctx, userID)
	if err != nil {
		return nil, err
	}
	summary := s.policy.Summarize(stats)
	return &summary, nil
}

// Invalidate drops cached snapshots so the next read hits the store.
func (s *StatsService) Invalidate(ctx context.Context, userIDs ...uint) {
	keys := make([]string, 0, len(userIDs))
	for _, id := range uniqueIDs(userIDs) {
		keys = append(keys, cache.StatsKey(id))
	}
	if len(keys) > 0 {
		cache.Invalidate(ctx, keys...)
	}
}
