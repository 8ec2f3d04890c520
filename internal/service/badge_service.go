package service

import (
	"context"
	"fmt"
	"log/slog"

	"unajuda/internal/cache"
	"unajuda/internal/featureflags"
	"unajuda/internal/models"
	"unajuda/internal/notifications"
	"unajuda/internal/observability"
	"unajuda/internal/repository"
	"unajuda/internal/reputation"

	"go.opentelemetry.io/otel/attribute"
)

// BadgeService evaluates the badge catalog against a user's stats and records awards.
type BadgeService struct {
	repo      repository.BadgeRepository
	publisher Publisher
	flags     *featureflags.Manager
}

// NewBadgeService creates a BadgeService. publisher may be nil.
func NewBadgeService(repo repository.BadgeRepository, publisher Publisher, flags *featureflags.Manager) *BadgeService {
	return &BadgeService{repo: repo, publisher: publisherOrNoop(publisher), flags: flags}
}

// requirementValue picks the stats counter a requirement kind measures.
func requirementValue(kind models.RequirementType, stats reputation.Stats) (int64, error) {
	switch kind {
	case models.RequirementQuestions:
		return stats.Questions, nil
	case models.RequirementAnswers:
		return stats.Answers, nil
	case models.RequirementHelpfulVotes:
		return stats.HelpfulVotes, nil
	case models.RequirementAcceptedAnswers:
		return stats.AcceptedAnswers, nil
	default:
		return 0, models.NewConfigurationError(fmt.Sprintf("unknown badge requirement type %q", kind))
	}
}

// ListCatalog returns every badge, served from cache when available.
func (s *BadgeService) ListCatalog(ctx context.Context) ([]models.Badge, error) {
	var catalog []models.Badge
	_, err := cache.Aside(ctx, cache.BadgeCatalogKey, &catalog, cache.BadgeCatalogTTL, func() error {
		var err error
		catalog, err = s.repo.ListCatalog(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	for i := range catalog {
		catalog[i].Icon = models.ParseBadgeIcon(string(catalog[i].Icon))
	}
	return catalog, nil
}

// ListUserBadges returns the badges userID earned, newest first.
func (s *BadgeService) ListUserBadges(ctx context.Context, userID uint) ([]models.UserBadge, error) {
	earned, err := s.repo.ListUserBadges(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range earned {
		earned[i].Badge.Icon = models.ParseBadgeIcon(string(earned[i].Badge.Icon))
	}
	return earned, nil
}

// CheckAndAward awards every unearned badge whose threshold stats meet, and returns
// the badges inserted by this call. Badges awarded concurrently by another caller are
// skipped silently. A badge with an unknown requirement kind is reported to operators
// and skipped; the rest of the catalog is still evaluated.
func (s *BadgeService) CheckAndAward(ctx context.Context, userID uint, stats reputation.Stats) ([]models.Badge, error) {
	ctx, span := observability.GetTraceLayer().TraceService(ctx, "badges", "CheckAndAward")
	defer span.End()
	span.SetAttributes(attribute.Int64("user.id", int64(userID)))

	catalog, err := s.ListCatalog(ctx)
	if err != nil {
		return nil, err
	}
	earned, err := s.repo.EarnedBadgeIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	var awarded []models.Badge
	for _, badge := range catalog {
		if _, ok := earned[badge.ID]; ok {
			continue
		}

		have, err := requirementValue(badge.RequirementType, stats)
		if err != nil {
			observability.BadgeConfigErrors.WithLabelValues(string(badge.RequirementType)).Inc()
			slog.ErrorContext(ctx, "badge skipped: invalid catalog entry",
				slog.Uint64("badge_id", uint64(badge.ID)),
				slog.String("badge", badge.Name),
				slog.String("error", err.Error()),
			)
			continue
		}
		if have < int64(badge.RequirementCount) {
			continue
		}

		inserted, err := s.repo.Award(ctx, userID, badge.ID)
		if err != nil {
			span.RecordError(err)
			return awarded, err
		}
		if !inserted {
			continue
		}

		observability.BadgesAwarded.WithLabelValues(badge.Name).Inc()
		awarded = append(awarded, badge)
		s.announce(ctx, userID, badge)
	}

	span.SetAttributes(attribute.Int("badges.awarded", len(awarded)))
	return awarded, nil
}

func (s *BadgeService) announce(ctx context.Context, userID uint, badge models.Badge) {
	if err := s.publisher.PublishChange(ctx, notifications.TableUserBadges, "user_id", userID, notifications.OpInsert); err != nil {
		slog.WarnContext(ctx, "failed to publish badge change", slog.String("error", err.Error()))
	}
	if !s.flags.Enabled(featureflags.BadgeNotifications, userID) {
		return
	}
	payload := notifications.BadgeEarnedPayload{
		BadgeID: badge.ID,
		Name:    badge.Name,
		Icon:    string(models.ParseBadgeIcon(string(badge.Icon))),
		Message: fmt.Sprintf("Você ganhou a medalha \"%s\"", badge.Name),
	}
	if err := s.publisher.PublishBadgeEarned(ctx, userID, payload); err != nil {
		slog.WarnContext(ctx, "failed to publish badge notification",
			slog.Uint64("user_id", uint64(userID)),
			slog.String("badge", badge.Name),
			slog.String("error", err.Error()),
		)
	}
}
