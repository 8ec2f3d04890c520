package service

import (
	"context"
	"testing"

	"unajuda/internal/featureflags"
	"unajuda/internal/notifications"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishBadgeEarned(ctx context.Context, userID uint, p notifications.BadgeEarnedPayload) error {
	args := m.Called(ctx, userID, p)
	return args.Error(0)
}

func (m *mockPublisher) PublishChange(ctx context.Context, table, column string, id uint, op string) error {
	args := m.Called(ctx, table, column, id, op)
	return args.Error(0)
}

func TestGatePublisher_ChangeFeedOn(t *testing.T) {
	pub := new(mockPublisher)
	pub.On("PublishChange", mock.Anything, notifications.TableAnswers, "question_id", uint(7), notifications.OpInsert).Return(nil).Once()

	gated := GatePublisher(pub, featureflags.NewManager(""))
	assert.NoError(t, gated.PublishChange(context.Background(), notifications.TableAnswers, "question_id", 7, notifications.OpInsert))

	pub.AssertExpectations(t)
}

func TestGatePublisher_ChangeFeedOffStillSendsBadges(t *testing.T) {
	pub := new(mockPublisher)
	payload := notifications.BadgeEarnedPayload{BadgeID: 3, Name: "Primeira Resposta"}
	pub.On("PublishBadgeEarned", mock.Anything, uint(9), payload).Return(nil).Once()

	gated := GatePublisher(pub, featureflags.NewManager("change_feed=off"))
	assert.NoError(t, gated.PublishChange(context.Background(), notifications.TableVotes, "answer_id", 1, notifications.OpInsert))
	assert.NoError(t, gated.PublishBadgeEarned(context.Background(), 9, payload))

	pub.AssertNotCalled(t, "PublishChange", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	pub.AssertExpectations(t)
}

func TestGatePublisher_NilFallsBackToNoop(t *testing.T) {
	gated := GatePublisher(nil, featureflags.NewManager(""))
	assert.NoError(t, gated.PublishChange(context.Background(), notifications.TableQuestions, "id", 1, notifications.OpUpdate))
	assert.NoError(t, gated.PublishBadgeEarned(context.Background(), 1, notifications.BadgeEarnedPayload{}))
}

func TestUniqueIDs(t *testing.T) {
	assert.Equal(t, []uint{4, 2}, uniqueIDs([]uint{0, 4, 2, 4, 0, 2}))
	assert.Empty(t, uniqueIDs(nil))
}
