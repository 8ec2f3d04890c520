package seed

import (
	"context"
	"fmt"
	"log/slog"

	"unajuda/internal/models"
	"unajuda/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Options configuration for the seeder
type Options struct {
	Demo         bool
	NumUsers     int
	NumQuestions int
	AnswersPerQ  int
	Seed         int64
	MaxDays      int
	ShouldClean  bool
}

// DefaultOptions is a small, browsable demo dataset.
var DefaultOptions = Options{
	NumUsers:     20,
	NumQuestions: 40,
	AnswersPerQ:  3,
	MaxDays:      90,
}

// Run seeds the catalog and, when requested, demo content.
func Run(ctx context.Context, db *gorm.DB, opts Options) error {
	if opts.ShouldClean {
		if err := Clean(ctx, db); err != nil {
			return err
		}
	}

	catalog, err := DefaultCatalog()
	if err != nil {
		return err
	}
	if err := catalog.Apply(ctx, repository.NewCategoryRepository(db), repository.NewBadgeRepository(db)); err != nil {
		return err
	}

	if !opts.Demo {
		return nil
	}
	return Demo(ctx, db, opts)
}

// Clean removes all content and awards. The catalog itself is kept.
func Clean(ctx context.Context, db *gorm.DB) error {
	tables := []any{
		&models.UserBadge{}, &models.Vote{}, &models.AnswerReply{},
		&models.Answer{}, &models.Question{}, &models.User{},
	}
	for _, model := range tables {
		if err := db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
			return fmt.Errorf("clean %T: %w", model, err)
		}
	}
	slog.InfoContext(ctx, "demo content removed")
	return nil
}

// Demo generates users, questions, answers, replies and votes. Badges are not
// written here; they are earned through the regular award path on first activity.
func Demo(ctx context.Context, db *gorm.DB, opts Options) error {
	if opts.NumUsers < 2 {
		return fmt.Errorf("demo needs at least 2 users, got %d", opts.NumUsers)
	}
	f, err := NewFactory(opts.Seed, opts.MaxDays)
	if err != nil {
		return err
	}

	var categories []models.Category
	if err := db.WithContext(ctx).Order("id").Find(&categories).Error; err != nil {
		return fmt.Errorf("load categories: %w", err)
	}
	if len(categories) == 0 {
		return fmt.Errorf("no categories; apply the catalog first")
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := make([]*models.User, 0, opts.NumUsers)
		for i := 0; i < opts.NumUsers; i++ {
			u := f.BuildUser()
			if err := tx.Create(u).Error; err != nil {
				return fmt.Errorf("create user: %w", err)
			}
			users = append(users, u)
		}

		var answers, votes, replies int
		for i := 0; i < opts.NumQuestions; i++ {
			author := users[f.Pick(len(users))]
			q := f.BuildQuestion(author, &categories[f.Pick(len(categories))])
			if err := tx.Create(q).Error; err != nil {
				return fmt.Errorf("create question: %w", err)
			}
			if err := castVotes(tx, f, users, author.ID, models.VoteTarget{Kind: models.TargetQuestion, ID: q.ID}, &votes); err != nil {
				return err
			}

			var created []*models.Answer
			for j := 0; j < f.Pick(opts.AnswersPerQ+1); j++ {
				helper := users[f.Pick(len(users))]
				if helper.ID == author.ID {
					continue
				}
				a := f.BuildAnswer(helper, q)
				if err := tx.Create(a).Error; err != nil {
					return fmt.Errorf("create answer: %w", err)
				}
				created = append(created, a)
				answers++
				if err := castVotes(tx, f, users, helper.ID, models.VoteTarget{Kind: models.TargetAnswer, ID: a.ID}, &votes); err != nil {
					return err
				}
				if f.Chance(0.3) {
					if err := tx.Create(f.BuildReply(author, a)).Error; err != nil {
						return fmt.Errorf("create reply: %w", err)
					}
					replies++
				}
			}

			if len(created) > 0 && f.Chance(0.5) {
				chosen := created[f.Pick(len(created))]
				if err := tx.Model(chosen).Update("is_accepted", true).Error; err != nil {
					return fmt.Errorf("accept answer: %w", err)
				}
			}
		}

		slog.InfoContext(ctx, "demo content generated",
			slog.Int("users", len(users)),
			slog.Int("questions", opts.NumQuestions),
			slog.Int("answers", answers),
			slog.Int("replies", replies),
			slog.Int("votes", votes),
		)
		return nil
	})
}

func castVotes(tx *gorm.DB, f *Factory, users []*models.User, ownerID uint, target models.VoteTarget, count *int) error {
	for _, voter := range users {
		if voter.ID == ownerID || !f.Chance(0.25) {
			continue
		}
		v := models.NewVote(voter.ID, target, f.VoteType(0.8))
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(v)
		if res.Error != nil {
			return fmt.Errorf("create vote: %w", res.Error)
		}
		*count += int(res.RowsAffected)
	}
	return nil
}
