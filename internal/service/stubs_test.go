package service

import (
	"context"
	"sync"
	"testing"

	"unajuda/internal/cache"
	"unajuda/internal/models"
	"unajuda/internal/notifications"
	"unajuda/internal/reputation"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// statsRepoStub is a stub for repository.StatsRepository.
type statsRepoStub struct {
	snapshotFn func(context.Context, uint, int) (reputation.Stats, error)
	calls      int
}

func (s *statsRepoStub) Snapshot(ctx context.Context, userID uint, threshold int) (reputation.Stats, error) {
	s.calls++
	return s.snapshotFn(ctx, userID, threshold)
}

// badgeRepoStub is a stub for repository.BadgeRepository.
type badgeRepoStub struct {
	listCatalogFn    func(context.Context) ([]models.Badge, error)
	earnedBadgeIDsFn func(context.Context, uint) (map[uint]struct{}, error)
	awardFn          func(context.Context, uint, uint) (bool, error)
	listUserBadgesFn func(context.Context, uint) ([]models.UserBadge, error)
	upsertFn         func(context.Context, *models.Badge) error
}

func (s *badgeRepoStub) ListCatalog(ctx context.Context) ([]models.Badge, error) {
	return s.listCatalogFn(ctx)
}
func (s *badgeRepoStub) EarnedBadgeIDs(ctx context.Context, userID uint) (map[uint]struct{}, error) {
	return s.earnedBadgeIDsFn(ctx, userID)
}
func (s *badgeRepoStub) Award(ctx context.Context, userID, badgeID uint) (bool, error) {
	return s.awardFn(ctx, userID, badgeID)
}
func (s *badgeRepoStub) ListUserBadges(ctx context.Context, userID uint) ([]models.UserBadge, error) {
	return s.listUserBadgesFn(ctx, userID)
}
func (s *badgeRepoStub) Upsert(ctx context.Context, badge *models.Badge) error {
	return s.upsertFn(ctx, badge)
}

type publishedChange struct {
	Table  string
	Column string
	ID     uint
	Op     string
}

// publisherRecorder captures realtime messages.
type publisherRecorder struct {
	mu      sync.Mutex
	badges  map[uint][]notifications.BadgeEarnedPayload
	changes []publishedChange
}

func newPublisherRecorder() *publisherRecorder {
	return &publisherRecorder{badges: make(map[uint][]notifications.BadgeEarnedPayload)}
}

func (p *publisherRecorder) PublishBadgeEarned(_ context.Context, userID uint, payload notifications.BadgeEarnedPayload) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.badges[userID] = append(p.badges[userID], payload)
	return nil
}

func (p *publisherRecorder) PublishChange(_ context.Context, table, column string, id uint, op string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, publishedChange{table, column, id, op})
	return nil
}

func (p *publisherRecorder) badgesFor(userID uint) []notifications.BadgeEarnedPayload {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]notifications.BadgeEarnedPayload(nil), p.badges[userID]...)
}

// hookRecorder records AfterActivity calls.
type hookRecorder struct {
	calls [][]uint
}

func (h *hookRecorder) AfterActivity(_ context.Context, userIDs ...uint) {
	h.calls = append(h.calls, append([]uint(nil), userIDs...))
}

func (h *hookRecorder) users() []uint {
	var out []uint
	for _, c := range h.calls {
		out = append(out, c...)
	}
	return out
}

// useMiniredis points the cache package at a fresh in-memory Redis for one test.
func useMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache.SetClient(rdb)
	t.Cleanup(func() {
		cache.SetClient(nil)
		_ = rdb.Close()
	})
	return mr
}
