package repository

import (
	"context"
	"testing"

	"unajuda/internal/models"
	"unajuda/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mockCountRow(n int64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"count"}).AddRow(n)
}

func TestQuestionRepository_ListFilters(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	fx := testutil.NewFixture(t, db)
	repo := NewQuestionRepository(db)
	ctx := context.Background()

	asker, helper := fx.User(), fx.User()
	calc := fx.Question(asker)
	other := fx.Question(helper)
	require.NoError(t, db.Model(other).Update("title", "Como declarar ponteiros em C?").Error)
	fx.Answer(helper, calc)
	fx.Answer(helper, calc)

	all, err := repo.List(ctx, QuestionFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	byCategory, err := repo.List(ctx, QuestionFilter{CategoryID: calc.CategoryID})
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	assert.Equal(t, calc.ID, byCategory[0].ID)
	assert.Equal(t, 2, byCategory[0].AnswersCount)
	require.NotNil(t, byCategory[0].Category)

	search, err := repo.List(ctx, QuestionFilter{Search: "PONTEIROS"})
	require.NoError(t, err)
	require.Len(t, search, 1)
	assert.Equal(t, other.ID, search[0].ID)

	mine, err := repo.List(ctx, QuestionFilter{UserID: asker.ID})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, asker.Username, mine[0].User.Username)
}

func TestQuestionRepository_IncrementViews(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	fx := testutil.NewFixture(t, db)
	repo := NewQuestionRepository(db)
	ctx := context.Background()

	q := fx.Question(fx.User())
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.IncrementViews(ctx, q.ID))
	}

	loaded, err := repo.GetByID(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.Views)

	err = repo.IncrementViews(ctx, 9999)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestCategoryRepository_ListSortedByName(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewCategoryRepository(db)
	ctx := context.Background()

	for _, name := range []string{"Programação", "Cálculo", "Física"} {
		require.NoError(t, repo.Upsert(ctx, &models.Category{Name: name}))
	}
	require.NoError(t, repo.Upsert(ctx, &models.Category{Name: "Física", Description: "Mecânica e eletromagnetismo"}))

	cats, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 3)
	assert.Equal(t, "Cálculo", cats[0].Name)
	assert.Equal(t, "Mecânica e eletromagnetismo", cats[1].Description)
}
