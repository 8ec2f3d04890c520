package reputation

// Stats is a snapshot of a user's activity counts.
type Stats struct {
	Questions          int64 `json:"questions"`
	Answers            int64 `json:"answers"`
	AcceptedAnswers    int64 `json:"accepted_answers"`
	HelpfulVotes       int64 `json:"helpful_votes"`
	WellRatedQuestions int64 `json:"well_rated_questions"`
}

// Score computes the reputation score for stats under p.
func (p Policy) Score(s Stats) int {
	return int(s.AcceptedAnswers)*p.AcceptedAnswerPoints +
		int(s.HelpfulVotes)*p.HelpfulVotePoints +
		int(s.WellRatedQuestions)*p.WellRatedQuestionPoints
}

// LevelFor returns the highest level whose threshold score meets.
func (p Policy) LevelFor(score int) Level {
	for _, lvl := range p.Levels {
		if score >= lvl.MinScore {
			return lvl
		}
	}
	// Negative scores cannot come out of Score; clamp to the floor tier.
	return p.Levels[len(p.Levels)-1]
}

// NextLevel returns the tier above score, or false when score is already at the top.
func (p Policy) NextLevel(score int) (Level, bool) {
	var next Level
	found := false
	for _, lvl := range p.Levels {
		if lvl.MinScore > score {
			next = lvl
			found = true
		}
	}
	return next, found
}

// Summary is the derived reputation shown on a profile.
type Summary struct {
	Stats         Stats  `json:"stats"`
	Score         int    `json:"score"`
	Level         Level  `json:"level"`
	NextLevel     *Level `json:"next_level,omitempty"`
	PointsToNext  int    `json:"points_to_next,omitempty"`
	PolicyVersion string `json:"policy_version"`
}

// Summarize computes score, level and progress toward the next level.
func (p Policy) Summarize(s Stats) Summary {
	score := p.Score(s)
	out := Summary{
		Stats:         s,
		Score:         score,
		Level:         p.LevelFor(score),
		PolicyVersion: p.Version,
	}
	if next, ok := p.NextLevel(score); ok {
		out.NextLevel = &next
		out.PointsToNext = next.MinScore - score
	}
	return out
}

// Score computes the score under PolicyV1.
func Score(acceptedAnswers, helpfulVotes, wellRatedQuestions int) int {
	return PolicyV1.Score(Stats{
		AcceptedAnswers:    int64(acceptedAnswers),
		HelpfulVotes:       int64(helpfulVotes),
		WellRatedQuestions: int64(wellRatedQuestions),
	})
}

// LevelName returns the PolicyV1 tier name for score.
func LevelName(score int) string {
	return PolicyV1.LevelFor(score).Name
}
