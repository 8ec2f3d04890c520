package service

import (
	"context"
	"testing"
	"time"

	"unajuda/internal/featureflags"
	"unajuda/internal/models"
	"unajuda/internal/repository"
	"unajuda/internal/reputation"
	"unajuda/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Three accepted answers with two upvotes in total take a helper to 55 points and
// earn the answer and acceptance badges exactly once.
func TestReputationService_AcceptedAnswersScenario(t *testing.T) {
	useMiniredis(t)
	db := testutil.NewSQLiteDB(t)
	fx := testutil.NewFixture(t, db)
	ctx := context.Background()

	flags := featureflags.NewManager("")
	pub := newPublisherRecorder()
	stats := NewStatsService(repository.NewStatsRepository(db), reputation.PolicyV1, flags, time.Minute)
	badges := NewBadgeService(repository.NewBadgeRepository(db), pub, flags)
	rep := NewReputationService(stats, badges)
	answers := newAnswerService(db, pub, rep)
	votes := NewVoteService(repository.NewVoteRepository(db), pub, rep)

	firstAnswer := fx.Badge("Primeira Resposta", models.RequirementAnswers, 1)
	solver := fx.Badge("Solucionador", models.RequirementAcceptedAnswers, 3)
	fx.Badge("Colaborador", models.RequirementAnswers, 10)
	fx.Badge("Quebrada", "karma", 1)

	asker, helper, voter := fx.User(), fx.User(), fx.User()
	var created []*models.Answer
	for i := 0; i < 3; i++ {
		a, err := answers.CreateAnswer(ctx, CreateAnswerInput{
			UserID:     helper.ID,
			QuestionID: fx.Question(asker).ID,
			Content:    "Resposta detalhada com o passo a passo.",
		})
		require.NoError(t, err)
		created = append(created, a)
	}
	for _, a := range created {
		_, err := answers.AcceptAnswer(ctx, asker.ID, a.ID)
		require.NoError(t, err)
	}
	for _, a := range created[:2] {
		_, err := votes.Cast(ctx, VoteInput{UserID: voter.ID, Target: models.VoteTarget{Kind: models.TargetAnswer, ID: a.ID}, VoteType: models.VoteUp})
		require.NoError(t, err)
	}

	summary, err := stats.GetReputation(ctx, helper.ID)
	require.NoError(t, err)
	assert.Equal(t, reputation.Stats{Answers: 3, AcceptedAnswers: 3, HelpfulVotes: 2}, summary.Stats)
	assert.Equal(t, 55, summary.Score)
	assert.Equal(t, "Iniciante", summary.Level.Name)

	earned, err := badges.ListUserBadges(ctx, helper.ID)
	require.NoError(t, err)
	ids := make([]uint, 0, len(earned))
	for _, e := range earned {
		ids = append(ids, e.BadgeID)
	}
	assert.ElementsMatch(t, []uint{firstAnswer.ID, solver.ID}, ids)

	notes := pub.badgesFor(helper.ID)
	require.Len(t, notes, 2, "each badge is announced once")

	// A further refresh awards nothing new.
	_, again, err := rep.Refresh(ctx, helper.ID)
	require.NoError(t, err)
	assert.Empty(t, again)
	assert.Len(t, pub.badgesFor(helper.ID), 2)
}

func TestReputationService_AfterActivitySwallowsErrors(t *testing.T) {
	repo := &statsRepoStub{snapshotFn: func(context.Context, uint, int) (reputation.Stats, error) {
		return reputation.Stats{}, models.NewStoreError(assert.AnError)
	}}
	badgeRepo, awarded := newBadgeStub(nil)
	rep := NewReputationService(
		NewStatsService(repo, reputation.PolicyV1, nil, 0),
		NewBadgeService(badgeRepo, nil, nil),
	)

	rep.AfterActivity(context.Background(), 0, 5, 5)
	assert.Equal(t, 1, repo.calls)
	assert.Empty(t, *awarded)
}

func TestReputationService_RefreshKeepsStatsWhenAwardingFails(t *testing.T) {
	want := reputation.Stats{Questions: 2, Answers: 3}
	repo := &statsRepoStub{snapshotFn: func(context.Context, uint, int) (reputation.Stats, error) {
		return want, nil
	}}
	badgeRepo, awarded := newBadgeStub(nil)
	badgeRepo.listCatalogFn = func(context.Context) ([]models.Badge, error) {
		return nil, models.NewStoreError(assert.AnError)
	}
	rep := NewReputationService(
		NewStatsService(repo, reputation.PolicyV1, nil, 0),
		NewBadgeService(badgeRepo, nil, nil),
	)

	stats, badges, err := rep.Refresh(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, want, stats)
	assert.Empty(t, badges)
	assert.Empty(t, *awarded)
}
