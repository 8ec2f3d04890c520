package service

import (
	"context"
	"sync"
	"testing"

	"unajuda/internal/models"
	"unajuda/internal/repository"
	"unajuda/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVoteService_Transitions(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	fx := testutil.NewFixture(t, db)
	pub := newPublisherRecorder()
	hook := &hookRecorder{}
	svc := NewVoteService(repository.NewVoteRepository(db), pub, hook)
	ctx := context.Background()

	asker, helper, voter := fx.User(), fx.User(), fx.User()
	answer := fx.Answer(helper, fx.Question(asker))
	target := models.VoteTarget{Kind: models.TargetAnswer, ID: answer.ID}

	steps := []struct {
		voteType   models.VoteType
		transition string
		state      models.VoteState
		up, down   int64
	}{
		{models.VoteUp, TransitionCast, models.VoteStateUp, 1, 0},
		{models.VoteUp, TransitionRetracted, models.VoteStateNone, 0, 0},
		{models.VoteDown, TransitionCast, models.VoteStateDown, 0, 1},
		{models.VoteUp, TransitionSwitched, models.VoteStateUp, 1, 0},
	}
	for _, step := range steps {
		res, err := svc.Cast(ctx, VoteInput{UserID: voter.ID, Target: target, VoteType: step.voteType})
		require.NoError(t, err)
		assert.Equal(t, step.transition, res.Transition)
		assert.Equal(t, step.state, res.UserVote)
		assert.Equal(t, step.up, res.Upvotes)
		assert.Equal(t, step.down, res.Downvotes)
		assert.Equal(t, step.up-step.down, res.Score)
	}

	var rows int64
	require.NoError(t, db.Model(&models.Vote{}).Count(&rows).Error)
	assert.Equal(t, int64(1), rows, "at most one vote per caster and target")

	// Every transition refreshes the answer's author and emits a pulse.
	assert.Equal(t, []uint{helper.ID, helper.ID, helper.ID, helper.ID}, hook.users())
	require.Len(t, pub.changes, 4)
	assert.Equal(t, publishedChange{"votes", "answer_id", answer.ID, "INSERT"}, pub.changes[0])
	assert.Equal(t, "DELETE", pub.changes[1].Op)
	assert.Equal(t, "UPDATE", pub.changes[3].Op)

	summary, err := svc.Summary(ctx, voter.ID, target)
	require.NoError(t, err)
	assert.Equal(t, models.VoteStateUp, summary.UserVote)

	anon, err := svc.Summary(ctx, 0, target)
	require.NoError(t, err)
	assert.Equal(t, models.VoteStateNone, anon.UserVote)
	assert.Equal(t, int64(1), anon.Upvotes)
}

func TestVoteService_Rejections(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	fx := testutil.NewFixture(t, db)
	hook := &hookRecorder{}
	svc := NewVoteService(repository.NewVoteRepository(db), nil, hook)
	ctx := context.Background()

	owner, voter := fx.User(), fx.User()
	q := fx.Question(owner)
	target := models.VoteTarget{Kind: models.TargetQuestion, ID: q.ID}

	_, err := svc.Cast(ctx, VoteInput{Target: target, VoteType: models.VoteUp})
	assert.True(t, models.IsCode(err, models.CodeAuthRequired))

	_, err = svc.Cast(ctx, VoteInput{UserID: voter.ID, Target: target, VoteType: 2})
	assert.True(t, models.IsCode(err, models.CodeValidation))

	_, err = svc.Cast(ctx, VoteInput{UserID: voter.ID, Target: models.VoteTarget{Kind: "reply", ID: 1}, VoteType: models.VoteUp})
	assert.True(t, models.IsCode(err, models.CodeValidation))

	_, err = svc.Cast(ctx, VoteInput{UserID: voter.ID, Target: models.VoteTarget{Kind: models.TargetQuestion, ID: 9999}, VoteType: models.VoteUp})
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	// Reads agree with writes about missing targets.
	_, err = svc.Summary(ctx, voter.ID, models.VoteTarget{Kind: models.TargetQuestion, ID: 9999})
	assert.True(t, models.IsCode(err, models.CodeNotFound))
	_, err = svc.Summary(ctx, 0, models.VoteTarget{Kind: models.TargetAnswer, ID: 9999})
	assert.True(t, models.IsCode(err, models.CodeNotFound))
	_, err = svc.Summary(ctx, voter.ID, models.VoteTarget{Kind: "reply", ID: 1})
	assert.True(t, models.IsCode(err, models.CodeValidation))

	var rows int64
	require.NoError(t, db.Model(&models.Vote{}).Count(&rows).Error)
	assert.Zero(t, rows)
	assert.Empty(t, hook.calls)
}

// racingVoteRepo simulates a concurrent insert landing between Find and Insert.
type racingVoteRepo struct {
	repository.VoteRepository
	raced bool
	rival *models.Vote
}

func (r *racingVoteRepo) Insert(ctx context.Context, vote *models.Vote) (bool, error) {
	if !r.raced {
		r.raced = true
		_, err := r.VoteRepository.Insert(ctx, r.rival)
		if err != nil {
			return false, err
		}
	}
	return r.VoteRepository.Insert(ctx, vote)
}

func TestVoteService_InsertRaceAppliesToStoredRow(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	fx := testutil.NewFixture(t, db)
	ctx := context.Background()

	owner, voter := fx.User(), fx.User()
	q := fx.Question(owner)
	target := models.VoteTarget{Kind: models.TargetQuestion, ID: q.ID}

	repo := &racingVoteRepo{
		VoteRepository: repository.NewVoteRepository(db),
		rival:          models.NewVote(voter.ID, target, models.VoteDown),
	}
	svc := NewVoteService(repo, nil, nil)

	res, err := svc.Cast(ctx, VoteInput{UserID: voter.ID, Target: target, VoteType: models.VoteUp})
	require.NoError(t, err)
	assert.Equal(t, TransitionSwitched, res.Transition)
	assert.Equal(t, models.VoteStateUp, res.UserVote)
	assert.Equal(t, int64(1), res.Upvotes)
	assert.Equal(t, int64(0), res.Downvotes)
}

func TestVoteService_ConcurrentUpvotesFromTwoSessions(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	fx := testutil.NewFixture(t, db)
	svc := NewVoteService(repository.NewVoteRepository(db), nil, nil)
	ctx := context.Background()

	asker, helper := fx.User(), fx.User()
	voters := []*models.User{fx.User(), fx.User()}
	target := models.VoteTarget{Kind: models.TargetAnswer, ID: fx.Answer(helper, fx.Question(asker)).ID}

	start := make(chan struct{})
	errs := make([]error, len(voters))
	var wg sync.WaitGroup
	for i, voter := range voters {
		wg.Add(1)
		go func(i int, userID uint) {
			defer wg.Done()
			<-start
			_, errs[i] = svc.Cast(ctx, VoteInput{UserID: userID, Target: target, VoteType: models.VoteUp})
		}(i, voter.ID)
	}
	close(start)
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	tally, err := svc.Tally(ctx, target)
	require.NoError(t, err)
	assert.Equal(t, int64(2), tally.Upvotes)
	assert.Zero(t, tally.Downvotes)

	for _, voter := range voters {
		state, err := svc.UserVote(ctx, voter.ID, target)
		require.NoError(t, err)
		assert.Equal(t, models.VoteStateUp, state)
	}
}
