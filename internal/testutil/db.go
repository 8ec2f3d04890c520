// Package testutil holds helpers shared by package tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"unajuda/internal/database"
	"unajuda/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var dbSeq atomic.Int64

// NewSQLiteDB returns an isolated in-memory database with the full schema applied.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	// A named shared-cache database keeps one schema across pooled connections.
	dsn := fmt.Sprintf("file:unajuda_test_%d?mode=memory&cache=shared&_foreign_keys=on", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), database.GormConfig())
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

// Fixture creates rows with sensible defaults for tests.
type Fixture struct {
	t  *testing.T
	db *gorm.DB
	n  int
}

// NewFixture wraps db for quick row creation.
func NewFixture(t *testing.T, db *gorm.DB) *Fixture {
	return &Fixture{t: t, db: db}
}

func (f *Fixture) next() int {
	f.n++
	return f.n
}

// User inserts a profile.
func (f *Fixture) User() *models.User {
	f.t.Helper()
	n := f.next()
	u := &models.User{
		Email:    fmt.Sprintf("user%d@unajuda.test", n),
		Password: "hash",
		Username: fmt.Sprintf("user_%d", n),
		FullName: fmt.Sprintf("User %d", n),
	}
	require.NoError(f.t, f.db.Create(u).Error)
	return u
}

// Category inserts a category.
func (f *Fixture) Category() *models.Category {
	f.t.Helper()
	c := &models.Category{Name: fmt.Sprintf("Categoria %d", f.next())}
	require.NoError(f.t, f.db.Create(c).Error)
	return c
}

// Question inserts a question owned by owner in a fresh category.
func (f *Fixture) Question(owner *models.User) *models.Question {
	f.t.Helper()
	cat := f.Category()
	q := &models.Question{
		UserID:     owner.ID,
		CategoryID: cat.ID,
		Title:      fmt.Sprintf("Pergunta número %d sobre cálculo", f.next()),
		Content:    "Conteúdo da pergunta com detalhes suficientes.",
	}
	require.NoError(f.t, f.db.Create(q).Error)
	return q
}

// Answer inserts an answer by owner on q.
func (f *Fixture) Answer(owner *models.User, q *models.Question) *models.Answer {
	f.t.Helper()
	a := &models.Answer{
		UserID:     owner.ID,
		QuestionID: q.ID,
		Content:    fmt.Sprintf("Resposta %d com explicação.", f.next()),
	}
	require.NoError(f.t, f.db.Create(a).Error)
	return a
}

// Vote inserts a vote by caster on target.
func (f *Fixture) Vote(caster *models.User, target models.VoteTarget, vt models.VoteType) *models.Vote {
	f.t.Helper()
	v := models.NewVote(caster.ID, target, vt)
	require.NoError(f.t, f.db.Create(v).Error)
	return v
}

// Badge inserts a catalog badge.
func (f *Fixture) Badge(name string, kind models.RequirementType, count int) *models.Badge {
	f.t.Helper()
	b := &models.Badge{Name: name, Icon: models.IconAward, RequirementType: kind, RequirementCount: count}
	require.NoError(f.t, f.db.Create(b).Error)
	return b
}
