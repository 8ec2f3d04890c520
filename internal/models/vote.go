package models

import (
	"fmt"
	"time"
)

// VoteType is the polarity of a vote.
type VoteType int

const (
	// VoteUp is a positive (+1) vote.
	VoteUp VoteType = 1
	// VoteDown is a negative (-1) vote.
	VoteDown VoteType = -1
)

// Valid reports whether v is one of the two polarities.
func (v VoteType) Valid() bool {
	return v == VoteUp || v == VoteDown
}

// TargetKind says whether a vote points at a question or an answer.
type TargetKind string

const (
	TargetQuestion TargetKind = "question"
	TargetAnswer   TargetKind = "answer"
)

// VoteTarget identifies exactly one votable entity.
type VoteTarget struct {
	Kind TargetKind
	ID   uint
}

// Column returns the votes column holding this target's id.
func (t VoteTarget) Column() string {
	if t.Kind == TargetAnswer {
		return "answer_id"
	}
	return "question_id"
}

func (t VoteTarget) String() string {
	return fmt.Sprintf("%s:%d", t.Kind, t.ID)
}

// Vote is one user's vote on a question or an answer, never both.
// The unique indexes make (caster, target) a store-enforced invariant.
type Vote struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;uniqueIndex:idx_votes_user_question;uniqueIndex:idx_votes_user_answer" json:"user_id"`
	QuestionID *uint     `gorm:"uniqueIndex:idx_votes_user_question;index;check:chk_votes_single_target,(question_id IS NULL) <> (answer_id IS NULL)" json:"question_id,omitempty"`
	AnswerID   *uint     `gorm:"uniqueIndex:idx_votes_user_answer;index" json:"answer_id,omitempty"`
	VoteType   VoteType  `gorm:"not null;check:chk_votes_vote_type,vote_type IN (1,-1)" json:"vote_type"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Vote) TableName() string {
	return "votes"
}

// NewVote builds a vote row pointing at target.
func NewVote(userID uint, target VoteTarget, voteType VoteType) *Vote {
	v := &Vote{UserID: userID, VoteType: voteType}
	id := target.ID
	if target.Kind == TargetAnswer {
		v.AnswerID = &id
	} else {
		v.QuestionID = &id
	}
	return v
}

// VoteState is the caster's current position on a target.
type VoteState string

const (
	VoteStateNone VoteState = "none"
	VoteStateUp   VoteState = "up"
	VoteStateDown VoteState = "down"
)

// StateOf maps a stored vote (or its absence) to a VoteState.
func StateOf(v *Vote) VoteState {
	switch {
	case v == nil:
		return VoteStateNone
	case v.VoteType == VoteUp:
		return VoteStateUp
	default:
		return VoteStateDown
	}
}

// VoteTally is recomputed from all vote rows of a target.
type VoteTally struct {
	Upvotes   int64 `json:"upvotes"`
	Downvotes int64 `json:"downvotes"`
}

// Score is upvotes minus downvotes.
func (t VoteTally) Score() int64 {
	return t.Upvotes - t.Downvotes
}
