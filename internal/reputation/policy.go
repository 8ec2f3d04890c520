// Package reputation turns activity counts into a reputation score and level.
package reputation

import (
	"fmt"
	"sort"
	"strings"
)

// Level is one tier of the reputation ladder.
type Level struct {
	Name     string `json:"name" yaml:"name"`
	MinScore int    `json:"min_score" yaml:"min_score"`
	Color    string `json:"color" yaml:"color"`
}

// Policy holds the point values and tiers of one reputation rule set.
// Changing any value means publishing a new version, not mutating an old one.
type Policy struct {
	Version                 string
	AcceptedAnswerPoints    int
	HelpfulVotePoints       int
	WellRatedQuestionPoints int
	// WellRatedThreshold is exclusive: a question needs more upvotes than this.
	WellRatedThreshold int
	// Levels are sorted by MinScore descending; the last one has MinScore 0.
	Levels []Level
}

// PolicyV1 is the original rule set.
var PolicyV1 = Policy{
	Version:                 "v1",
	AcceptedAnswerPoints:    15,
	HelpfulVotePoints:       5,
	WellRatedQuestionPoints: 10,
	WellRatedThreshold:      5,
	Levels: []Level{
		{Name: "Mestre", MinScore: 1000, Color: "text-gold"},
		{Name: "Expert", MinScore: 500, Color: "text-primary"},
		{Name: "Avançado", MinScore: 250, Color: "text-blue-500"},
		{Name: "Intermediário", MinScore: 100, Color: "text-green-500"},
		{Name: "Iniciante", MinScore: 50, Color: "text-muted-foreground"},
		{Name: "Novato", MinScore: 0, Color: "text-muted-foreground"},
	},
}

var policies = map[string]Policy{
	PolicyV1.Version: PolicyV1,
}

// PolicyFor returns the policy registered under version. An empty version selects v1.
func PolicyFor(version string) (Policy, error) {
	version = strings.ToLower(strings.TrimSpace(version))
	if version == "" {
		return PolicyV1, nil
	}
	p, ok := policies[version]
	if !ok {
		return Policy{}, fmt.Errorf("unknown reputation policy %q", version)
	}
	return p, nil
}

// Validate checks that the level table is an exhaustive partition of [0, ∞).
func (p Policy) Validate() error {
	if p.AcceptedAnswerPoints < 0 || p.HelpfulVotePoints < 0 || p.WellRatedQuestionPoints < 0 {
		return fmt.Errorf("policy %s: point values must be non-negative", p.Version)
	}
	if len(p.Levels) == 0 {
		return fmt.Errorf("policy %s: no levels", p.Version)
	}
	if !sort.SliceIsSorted(p.Levels, func(i, j int) bool { return p.Levels[i].MinScore > p.Levels[j].MinScore }) {
		return fmt.Errorf("policy %s: levels must be ordered by descending min score", p.Version)
	}
	if p.Levels[len(p.Levels)-1].MinScore != 0 {
		return fmt.Errorf("policy %s: lowest level must start at 0", p.Version)
	}
	return nil
}
