package seed

import (
	"context"
	"testing"

	"unajuda/internal/cache"
	"unajuda/internal/models"
	"unajuda/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)
	assert.Len(t, c.Categories, 10)
	assert.Len(t, c.Badges, 9)

	for _, b := range c.Badges {
		assert.Equal(t, b.Icon, string(b.Model().Icon), "badge %s uses a known icon", b.Name)
	}
}

func TestParseCatalog_Rejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown requirement", "badges:\n  - {name: X, requirement_type: karma, requirement_count: 1}\n"},
		{"zero count", "badges:\n  - {name: X, requirement_type: questions, requirement_count: 0}\n"},
		{"duplicate", "badges:\n  - {name: X, requirement_type: answers, requirement_count: 1}\n  - {name: X, requirement_type: answers, requirement_count: 2}\n"},
		{"nameless category", "categories:\n  - {description: sem nome}\n"},
		{"bad yaml", "badges: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestBadgeSpecModel_IconFallback(t *testing.T) {
	m := BadgeSpec{Name: "X", Icon: "rocket", RequirementType: "answers", RequirementCount: 1}.Model()
	assert.Equal(t, models.DefaultBadgeIcon, m.Icon)
}

func TestRun_CatalogIsIdempotent(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()

	require.NoError(t, Run(ctx, db, Options{}))
	require.NoError(t, Run(ctx, db, Options{}))

	var categories, badges int64
	require.NoError(t, db.Model(&models.Category{}).Count(&categories).Error)
	require.NoError(t, db.Model(&models.Badge{}).Count(&badges).Error)
	assert.EqualValues(t, 10, categories)
	assert.EqualValues(t, 9, badges)
}

func TestRun_CatalogDropsCachedCatalog(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache.SetClient(rdb)
	t.Cleanup(func() {
		cache.SetClient(nil)
		_ = rdb.Close()
	})

	require.NoError(t, mr.Set(cache.BadgeCatalogKey, `[{"id":1,"requirement_count":99}]`))
	require.NoError(t, mr.Set(cache.CategoriesKey, `[]`))

	require.NoError(t, Run(context.Background(), testutil.NewSQLiteDB(t), Options{}))

	assert.False(t, mr.Exists(cache.BadgeCatalogKey))
	assert.False(t, mr.Exists(cache.CategoriesKey))
}

func TestRun_Demo(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()

	opts := DefaultOptions
	opts.Demo = true
	opts.NumUsers = 6
	opts.NumQuestions = 8
	opts.Seed = 42
	require.NoError(t, Run(ctx, db, opts))

	var users, questions int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	require.NoError(t, db.Model(&models.Question{}).Count(&questions).Error)
	assert.EqualValues(t, 6, users)
	assert.EqualValues(t, 8, questions)

	var selfAnswers int64
	require.NoError(t, db.Model(&models.Answer{}).
		Joins("JOIN questions ON questions.id = answers.question_id").
		Where("answers.user_id = questions.user_id").
		Count(&selfAnswers).Error)
	assert.Zero(t, selfAnswers)

	var multiAccepted []uint
	require.NoError(t, db.Model(&models.Answer{}).
		Where("is_accepted = ?", true).
		Group("question_id").
		Having("COUNT(*) > 1").
		Pluck("question_id", &multiAccepted).Error)
	assert.Empty(t, multiAccepted)

	t.Run("clean keeps catalog", func(t *testing.T) {
		require.NoError(t, Clean(ctx, db))
		var left, cats int64
		require.NoError(t, db.Model(&models.User{}).Count(&left).Error)
		require.NoError(t, db.Model(&models.Category{}).Count(&cats).Error)
		assert.Zero(t, left)
		assert.EqualValues(t, 10, cats)
	})
}

func TestDemo_NeedsTwoUsers(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	err := Demo(context.Background(), db, Options{NumUsers: 1})
	assert.Error(t, err)
}
