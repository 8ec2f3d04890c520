package seed

import (
	"fmt"
	"strings"
	"time"

	"unajuda/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
)

// DemoPassword is the password of every generated demo account.
const DemoPassword = "Unajuda#2024"

var universities = []string{"UnB", "USP", "UFMG", "UFRJ", "UFRGS", "Unicamp", "UFPE", "UFBA"}

var courses = []string{
	"Engenharia Civil", "Ciência da Computação", "Direito", "Medicina",
	"Física", "Economia", "Letras", "Matemática", "Biologia",
}

// Factory builds unsaved domain entities with plausible content.
type Factory struct {
	faker        *gofakeit.Faker
	passwordHash string
	maxDays      int
	n            int
}

// NewFactory creates a Factory. A zero seed picks a random one.
func NewFactory(seed int64, maxDays int) (*Factory, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.MinCost)
	if err != nil {
		return nil, fmt.Errorf("hash demo password: %w", err)
	}
	if maxDays <= 0 {
		maxDays = 90
	}
	return &Factory{
		faker:        gofakeit.New(seed),
		passwordHash: string(hash),
		maxDays:      maxDays,
	}, nil
}

// pastTime returns a realistic created_at within the configured window.
func (f *Factory) pastTime() time.Time {
	back := time.Duration(f.faker.Number(0, f.maxDays*24*60)) * time.Minute
	return time.Now().Add(-back)
}

// BuildUser returns an unsaved demo profile.
func (f *Factory) BuildUser() *models.User {
	f.n++
	first, last := f.faker.FirstName(), f.faker.LastName()
	handle := strings.ToLower(first) + "_" + fmt.Sprint(f.n)
	handle = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			return r
		}
		return -1
	}, handle)
	return &models.User{
		Email:      fmt.Sprintf("%s@demo.unajuda.test", handle),
		Password:   f.passwordHash,
		Username:   handle,
		FullName:   first + " " + last,
		Headline:   f.faker.JobTitle(),
		Bio:        f.faker.Sentence(12),
		University: f.faker.RandomString(universities),
		Course:     f.faker.RandomString(courses),
	}
}

// BuildQuestion returns an unsaved question by author in category.
func (f *Factory) BuildQuestion(author *models.User, category *models.Category) *models.Question {
	title := strings.TrimSuffix(f.faker.Sentence(8), ".") + "?"
	return &models.Question{
		UserID:     author.ID,
		CategoryID: category.ID,
		Title:      title,
		Content:    f.faker.Paragraph(2, 3, 12, "\n\n"),
		Views:      f.faker.Number(0, 300),
		CreatedAt:  f.pastTime(),
	}
}

// BuildAnswer returns an unsaved answer to q written after the question.
func (f *Factory) BuildAnswer(author *models.User, q *models.Question) *models.Answer {
	created := q.CreatedAt.Add(time.Duration(f.faker.Number(5, 72*60)) * time.Minute)
	if created.After(time.Now()) {
		created = time.Now()
	}
	return &models.Answer{
		UserID:     author.ID,
		QuestionID: q.ID,
		Content:    f.faker.Paragraph(1, 3, 14, "\n\n"),
		CreatedAt:  created,
	}
}

// BuildReply returns an unsaved reply to a.
func (f *Factory) BuildReply(author *models.User, a *models.Answer) *models.AnswerReply {
	return &models.AnswerReply{
		UserID:    author.ID,
		AnswerID:  a.ID,
		Content:   f.faker.Sentence(10),
		CreatedAt: a.CreatedAt.Add(time.Hour),
	}
}

// VoteType draws a polarity with the given chance of an upvote.
func (f *Factory) VoteType(upChance float64) models.VoteType {
	if f.faker.Float64Range(0, 1) < upChance {
		return models.VoteUp
	}
	return models.VoteDown
}

// Pick returns a random index in [0, n).
func (f *Factory) Pick(n int) int {
	return f.faker.Number(0, n-1)
}

// Chance reports true with probability p.
func (f *Factory) Chance(p float64) bool {
	return f.faker.Float64Range(0, 1) < p
}
