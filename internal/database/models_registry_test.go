package database

import (
	"testing"

	"unajuda/internal/models"

	"github.com/stretchr/testify/require"
)

func TestPersistentModels_IncludesReputationTables(t *testing.T) {
	var hasVote, hasUserBadge bool
	for _, model := range PersistentModels() {
		switch model.(type) {
		case *models.Vote:
			hasVote = true
		case *models.UserBadge:
			hasUserBadge = true
		}
	}
	require.True(t, hasVote, "PersistentModels should include Vote")
	require.True(t, hasUserBadge, "PersistentModels should include UserBadge")
}
