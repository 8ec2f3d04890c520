package service

import (
	"context"
	"errors"
	"log/slog"

	"unajuda/internal/models"
	"unajuda/internal/notifications"
	"unajuda/internal/observability"
	"unajuda/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// Vote transitions.
const (
	TransitionCast      = "cast"
	TransitionRetracted = "retracted"
	TransitionSwitched  = "switched"
)

var errVoteContention = errors.New("vote row changed concurrently on every attempt")

// VoteInput is one click on an up or down button.
type VoteInput struct {
	UserID   uint
	Target   models.VoteTarget
	VoteType models.VoteType
}

// VoteResult is the target's recomputed tally and the caller's resulting position.
type VoteResult struct {
	Upvotes    int64            `json:"upvotes"`
	Downvotes  int64            `json:"downvotes"`
	Score      int64            `json:"score"`
	UserVote   models.VoteState `json:"user_vote"`
	Transition string           `json:"transition,omitempty"`
}

// VoteService is the vote ledger: at most one vote per (caster, target).
type VoteService struct {
	repo      repository.VoteRepository
	publisher Publisher
	hook      ActivityHook
}

// NewVoteService creates a VoteService. publisher and hook may be nil.
func NewVoteService(repo repository.VoteRepository, publisher Publisher, hook ActivityHook) *VoteService {
	return &VoteService{repo: repo, publisher: publisherOrNoop(publisher), hook: hookOrNoop(hook)}
}

func validateTarget(target models.VoteTarget) error {
	if target.Kind != models.TargetQuestion && target.Kind != models.TargetAnswer {
		return models.NewFieldValidationError("target", "Alvo do voto inválido")
	}
	if target.ID == 0 {
		return models.NewFieldValidationError("target", "Alvo do voto inválido")
	}
	return nil
}

// Cast applies a vote click. Same polarity as the stored vote retracts it, the
// opposite polarity flips it, no stored vote inserts one. Tallies are recounted
// from the store after every transition.
func (s *VoteService) Cast(ctx context.Context, in VoteInput) (*VoteResult, error) {
	if in.UserID == 0 {
		return nil, models.NewAuthRequiredError("Faça login para votar")
	}
	if err := validateTarget(in.Target); err != nil {
		return nil, err
	}
	if !in.VoteType.Valid() {
		return nil, models.NewFieldValidationError("vote_type", "O voto deve ser 1 ou -1")
	}

	ctx, span := observability.GetTraceLayer().TraceService(ctx, "votes", "Cast")
	defer span.End()
	span.SetAttributes(
		attribute.String("vote.target", in.Target.String()),
		attribute.Int("vote.type", int(in.VoteType)),
	)

	owner, err := s.repo.TargetOwner(ctx, in.Target)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.Find(ctx, in.UserID, in.Target)
	if err != nil {
		return nil, err
	}

	transition, op, err := s.apply(ctx, in, existing)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.String("vote.transition", transition))
	observability.VotesCast.WithLabelValues(string(in.Target.Kind), transition).Inc()

	tally, err := s.repo.Tally(ctx, in.Target)
	if err != nil {
		return nil, err
	}

	state := models.StateOf(&models.Vote{VoteType: in.VoteType})
	if transition == TransitionRetracted {
		state = models.VoteStateNone
	}

	if err := s.publisher.PublishChange(ctx, notifications.TableVotes, in.Target.Column(), in.Target.ID, op); err != nil {
		slog.WarnContext(ctx, "failed to publish vote change", slog.String("error", err.Error()))
	}
	s.hook.AfterActivity(ctx, owner)

	return &VoteResult{
		Upvotes:    tally.Upvotes,
		Downvotes:  tally.Downvotes,
		Score:      tally.Score(),
		UserVote:   state,
		Transition: transition,
	}, nil
}

// apply runs one ledger transition against existing. When an insert loses a race
// against a concurrent insert for the same pair, the stored row is re-read and the
// transition is applied to it instead.
func (s *VoteService) apply(ctx context.Context, in VoteInput, existing *models.Vote) (transition, op string, err error) {
	for attempt := 0; attempt < 2; attempt++ {
		switch {
		case existing == nil:
			inserted, err := s.repo.Insert(ctx, models.NewVote(in.UserID, in.Target, in.VoteType))
			if err != nil {
				return "", "", err
			}
			if inserted {
				return TransitionCast, notifications.OpInsert, nil
			}
			existing, err = s.repo.Find(ctx, in.UserID, in.Target)
			if err != nil {
				return "", "", err
			}
		case existing.VoteType == in.VoteType:
			if err := s.repo.Delete(ctx, existing.ID); err != nil {
				return "", "", err
			}
			return TransitionRetracted, notifications.OpDelete, nil
		default:
			if err := s.repo.UpdateType(ctx, existing.ID, in.VoteType); err != nil {
				return "", "", err
			}
			return TransitionSwitched, notifications.OpUpdate, nil
		}
	}
	return "", "", models.NewStoreError(errVoteContention)
}

// Tally recounts the votes of target.
func (s *VoteService) Tally(ctx context.Context, target models.VoteTarget) (models.VoteTally, error) {
	if err := validateTarget(target); err != nil {
		return models.VoteTally{}, err
	}
	return s.repo.Tally(ctx, target)
}

// UserVote returns the caller's position on target. Anonymous callers have none.
func (s *VoteService) UserVote(ctx context.Context, userID uint, target models.VoteTarget) (models.VoteState, error) {
	if userID == 0 {
		return models.VoteStateNone, nil
	}
	if err := validateTarget(target); err != nil {
		return models.VoteStateNone, err
	}
	v, err := s.repo.Find(ctx, userID, target)
	if err != nil {
		return models.VoteStateNone, err
	}
	return models.StateOf(v), nil
}

// Summary returns the tally plus the caller's vote.
func (s *VoteService) Summary(ctx context.Context, userID uint, target models.VoteTarget) (*VoteResult, error) {
	if err := validateTarget(target); err != nil {
		return nil, err
	}
	if _, err := s.repo.TargetOwner(ctx, target); err != nil {
		return nil, err
	}
	tally, err := s.Tally(ctx, target)
	if err != nil {
		return nil, err
	}
	state, err := s.UserVote(ctx, userID, target)
	if err != nil {
		return nil, err
	}
	return &VoteResult{
		Upvotes:   tally.Upvotes,
		Downvotes: tally.Downvotes,
		Score:     tally.Score(),
		UserVote:  state,
	}, nil
}
