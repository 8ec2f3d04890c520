package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"unajuda/internal/config"
	"unajuda/internal/middleware"
	"unajuda/internal/models"
	"unajuda/internal/repository"
	"unajuda/internal/seed"
	"unajuda/internal/service"
	"unajuda/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testSecret = "test-secret-that-is-long-enough-123456"

type testEnv struct {
	srv *Server
	app *fiber.App
	db  *gorm.DB
	n   int
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:         testSecret,
		JWTExpiryHours:    1,
		ReputationPolicy:  "v1",
		RateLimitFailOpen: true,
		AllowedOrigins:    "http://localhost:5173",
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	require.NoError(t, seed.Run(context.Background(), db, seed.Options{}))

	cfg := testConfig()
	middleware.InitMiddleware(cfg)

	srv, err := NewServerWithDeps(cfg, db, nil)
	require.NoError(t, err)
	srv.userService = service.NewUserService(repository.NewUserRepository(db)).WithBcryptCost(bcrypt.MinCost)

	return &testEnv{srv: srv, app: srv.App(), db: db}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return out
}

// signup registers a fresh account and returns its token and id.
func (e *testEnv) signup(t *testing.T) (string, uint) {
	t.Helper()
	e.n++
	status, raw := e.do(t, http.MethodPost, "/api/auth/signup", "", fiber.Map{
		"email":     fmt.Sprintf("aluno%d@unb.br", e.n),
		"password":  "Senha#123",
		"username":  fmt.Sprintf("aluno_%d", e.n),
		"full_name": "Ana Souza",
	})
	require.Equal(t, http.StatusCreated, status, string(raw))
	res := decode[authResponse](t, raw)
	require.NotEmpty(t, res.Token)
	return res.Token, res.User.ID
}

func (e *testEnv) firstCategoryID(t *testing.T) uint {
	t.Helper()
	var cat models.Category
	require.NoError(t, e.db.Order("id").First(&cat).Error)
	return cat.ID
}

func (e *testEnv) ask(t *testing.T, token string) models.Question {
	t.Helper()
	status, raw := e.do(t, http.MethodPost, "/api/questions", token, fiber.Map{
		"title":       "Como resolver integrais por partes?",
		"content":     "Tenho dificuldade em escolher u e dv nas integrais por partes.",
		"category_id": e.firstCategoryID(t),
	})
	require.Equal(t, http.StatusCreated, status, string(raw))
	return decode[models.Question](t, raw)
}

func (e *testEnv) answer(t *testing.T, token string, questionID uint) models.Answer {
	t.Helper()
	status, raw := e.do(t, http.MethodPost, fmt.Sprintf("/api/questions/%d/answers", questionID), token, fiber.Map{
		"content": "Use LIATE para escolher u: logarítmica, inversa, algébrica.",
	})
	require.Equal(t, http.StatusCreated, status, string(raw))
	return decode[models.Answer](t, raw)
}

func TestAuthFlow(t *testing.T) {
	env := newTestEnv(t)
	token, id := env.signup(t)

	status, raw := env.do(t, http.MethodGet, "/api/users/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	me := decode[models.User](t, raw)
	assert.Equal(t, id, me.ID)
	assert.Equal(t, "aluno1@unb.br", me.Email)

	t.Run("login", func(t *testing.T) {
		status, raw := env.do(t, http.MethodPost, "/api/auth/login", "", fiber.Map{
			"email": "ALUNO1@unb.br", "password": "Senha#123",
		})
		require.Equal(t, http.StatusOK, status, string(raw))
		assert.NotEmpty(t, decode[authResponse](t, raw).Token)
	})

	t.Run("wrong password", func(t *testing.T) {
		status, raw := env.do(t, http.MethodPost, "/api/auth/login", "", fiber.Map{
			"email": "aluno1@unb.br", "password": "Errada#123",
		})
		assert.Equal(t, http.StatusUnauthorized, status)
		body := decode[models.ErrorResponse](t, raw)
		assert.Equal(t, "Email ou senha incorretos", body.Error)
		assert.Equal(t, models.CodeAuthRequired, body.Code)
	})

	t.Run("duplicate email", func(t *testing.T) {
		status, raw := env.do(t, http.MethodPost, "/api/auth/signup", "", fiber.Map{
			"email": "aluno1@unb.br", "password": "Senha#123", "username": "outro", "full_name": "Ana Souza",
		})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "Este email já está cadastrado", decode[models.ErrorResponse](t, raw).Error)
	})

	t.Run("weak password", func(t *testing.T) {
		status, raw := env.do(t, http.MethodPost, "/api/auth/signup", "", fiber.Map{
			"email": "novo@unb.br", "password": "senha", "username": "novo", "full_name": "Ana Souza",
		})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "password", decode[models.ErrorResponse](t, raw).Field)
	})

	t.Run("public profile hides email", func(t *testing.T) {
		status, raw := env.do(t, http.MethodGet, fmt.Sprintf("/api/users/%d", id), "", nil)
		require.Equal(t, http.StatusOK, status)
		assert.Empty(t, decode[models.User](t, raw).Email)
	})
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t)

	status, _ := env.do(t, http.MethodPost, "/api/questions", "", fiber.Map{"title": "x"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = env.do(t, http.MethodPost, "/api/answers/1/accept", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, raw := env.do(t, http.MethodGet, "/api/questions/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "ID inválido", decode[models.ErrorResponse](t, raw).Error)
}

func TestUpdateMyProfile(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signup(t)

	status, raw := env.do(t, http.MethodPut, "/api/users/me", token, fiber.Map{
		"university": "UnB", "course": "Engenharia Elétrica", "avatar_url": "https://cdn.example.com/a.png",
	})
	require.Equal(t, http.StatusOK, status, string(raw))
	me := decode[models.User](t, raw)
	assert.Equal(t, "UnB", me.University)
	assert.Equal(t, "Ana Souza", me.FullName)

	status, raw = env.do(t, http.MethodPut, "/api/users/me", token, fiber.Map{"avatar_url": "javascript:alert(1)"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "avatar_url", decode[models.ErrorResponse](t, raw).Field)
}

func TestQuestionLifecycle(t *testing.T) {
	env := newTestEnv(t)
	askerToken, askerID := env.signup(t)
	helperToken, helperID := env.signup(t)
	voterToken, _ := env.signup(t)

	q := env.ask(t, askerToken)
	assert.Equal(t, askerID, q.UserID)

	t.Run("own question cannot be answered", func(t *testing.T) {
		status, _ := env.do(t, http.MethodPost, fmt.Sprintf("/api/questions/%d/answers", q.ID), askerToken, fiber.Map{
			"content": "Respondendo minha própria pergunta aqui.",
		})
		assert.Equal(t, http.StatusForbidden, status)
	})

	a := env.answer(t, helperToken, q.ID)

	t.Run("only the asker accepts", func(t *testing.T) {
		status, _ := env.do(t, http.MethodPost, fmt.Sprintf("/api/answers/%d/accept", a.ID), helperToken, nil)
		assert.Equal(t, http.StatusForbidden, status)

		status, raw := env.do(t, http.MethodPost, fmt.Sprintf("/api/answers/%d/accept", a.ID), askerToken, nil)
		require.Equal(t, http.StatusOK, status, string(raw))
		assert.True(t, decode[models.Answer](t, raw).IsAccepted)
	})

	t.Run("upvote counts as helpful", func(t *testing.T) {
		status, raw := env.do(t, http.MethodPost, fmt.Sprintf("/api/answers/%d/vote", a.ID), voterToken, fiber.Map{"vote_type": 1})
		require.Equal(t, http.StatusOK, status, string(raw))
		res := decode[service.VoteResult](t, raw)
		assert.EqualValues(t, 1, res.Upvotes)
		assert.Equal(t, models.VoteStateUp, res.UserVote)
	})

	status, raw := env.do(t, http.MethodGet, fmt.Sprintf("/api/users/%d/reputation", helperID), "", nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	var summary struct {
		Score        int `json:"score"`
		PointsToNext int `json:"points_to_next"`
		Level        struct {
			Name string `json:"name"`
		} `json:"level"`
	}
	require.NoError(t, json.Unmarshal(raw, &summary))
	assert.Equal(t, 20, summary.Score)
	assert.Equal(t, "Novato", summary.Level.Name)
	assert.Equal(t, 30, summary.PointsToNext)

	status, raw = env.do(t, http.MethodGet, fmt.Sprintf("/api/users/%d/badges", helperID), "", nil)
	require.Equal(t, http.StatusOK, status)
	var names []string
	for _, ub := range decode[[]models.UserBadge](t, raw) {
		names = append(names, ub.Badge.Name)
	}
	assert.ElementsMatch(t, []string{"Primeira Resposta", "Solucionador"}, names)

	t.Run("asker earned first question badge", func(t *testing.T) {
		status, raw := env.do(t, http.MethodGet, fmt.Sprintf("/api/users/%d/stats", askerID), askerToken, nil)
		require.Equal(t, http.StatusOK, status)
		stats := decode[statsResponse](t, raw)
		assert.EqualValues(t, 1, stats.Questions)
		assert.Empty(t, stats.NewBadges, "badge was already awarded when the question was created")

		var count int64
		require.NoError(t, env.db.Model(&models.UserBadge{}).Where("user_id = ?", askerID).Count(&count).Error)
		assert.EqualValues(t, 1, count)
	})

	t.Run("answers list accepted first with view count", func(t *testing.T) {
		env.answer(t, voterToken, q.ID)
		status, raw := env.do(t, http.MethodGet, fmt.Sprintf("/api/questions/%d/answers", q.ID), "", nil)
		require.Equal(t, http.StatusOK, status)
		answers := decode[[]models.Answer](t, raw)
		require.Len(t, answers, 2)
		assert.Equal(t, a.ID, answers[0].ID)

		env.do(t, http.MethodGet, fmt.Sprintf("/api/questions/%d", q.ID), "", nil)
		status, raw = env.do(t, http.MethodGet, fmt.Sprintf("/api/questions/%d", q.ID), "", nil)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, 2, decode[models.Question](t, raw).Views)
	})

	t.Run("replies limited to thread participants", func(t *testing.T) {
		path := fmt.Sprintf("/api/answers/%d/replies", a.ID)
		status, _ := env.do(t, http.MethodPost, path, voterToken, fiber.Map{"content": "Posso comentar também?"})
		assert.Equal(t, http.StatusForbidden, status)

		status, raw := env.do(t, http.MethodPost, path, askerToken, fiber.Map{"content": "Obrigado, funcionou!"})
		require.Equal(t, http.StatusCreated, status, string(raw))

		status, raw = env.do(t, http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusOK, status)
		assert.Len(t, decode[[]models.AnswerReply](t, raw), 1)
	})
}

func TestVoteToggle(t *testing.T) {
	env := newTestEnv(t)
	askerToken, _ := env.signup(t)
	voterToken, _ := env.signup(t)
	q := env.ask(t, askerToken)
	path := fmt.Sprintf("/api/questions/%d/vote", q.ID)

	steps := []struct {
		voteType   int
		transition string
		upvotes    int64
		downvotes  int64
		state      models.VoteState
	}{
		{1, service.TransitionCast, 1, 0, models.VoteStateUp},
		{-1, service.TransitionSwitched, 0, 1, models.VoteStateDown},
		{-1, service.TransitionRetracted, 0, 0, models.VoteStateNone},
	}
	for _, step := range steps {
		status, raw := env.do(t, http.MethodPost, path, voterToken, fiber.Map{"vote_type": step.voteType})
		require.Equal(t, http.StatusOK, status, string(raw))
		res := decode[service.VoteResult](t, raw)
		assert.Equal(t, step.transition, res.Transition)
		assert.Equal(t, step.upvotes, res.Upvotes)
		assert.Equal(t, step.downvotes, res.Downvotes)
		assert.Equal(t, step.state, res.UserVote)
	}

	status, raw := env.do(t, http.MethodPost, path, voterToken, fiber.Map{"vote_type": 2})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "vote_type", decode[models.ErrorResponse](t, raw).Field)

	status, _ = env.do(t, http.MethodPost, "/api/questions/999/vote", voterToken, fiber.Map{"vote_type": 1})
	assert.Equal(t, http.StatusNotFound, status)

	status, raw = env.do(t, http.MethodGet, "/api/questions/999/votes", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Pergunta não encontrada", decode[models.ErrorResponse](t, raw).Error)

	status, raw = env.do(t, http.MethodGet, fmt.Sprintf("/api/questions/%d/votes", q.ID), "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, models.VoteStateNone, decode[service.VoteResult](t, raw).UserVote)
}

func TestCatalogEndpoints(t *testing.T) {
	env := newTestEnv(t)

	status, raw := env.do(t, http.MethodGet, "/api/categories", "", nil)
	require.Equal(t, http.StatusOK, status)
	categories := decode[[]models.Category](t, raw)
	require.Len(t, categories, 10)
	assert.Equal(t, "Biologia", categories[0].Name)

	status, raw = env.do(t, http.MethodGet, "/api/badges", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]models.Badge](t, raw), 9)

	status, raw = env.do(t, http.MethodGet, "/api/feature-flags", "", nil)
	require.Equal(t, http.StatusOK, status)
	flags := decode[map[string]map[string]any](t, raw)
	assert.Equal(t, true, flags["evaluated"]["change_feed"])
}

func TestQuestionSearch(t *testing.T) {
	env := newTestEnv(t)
	token, userID := env.signup(t)
	env.ask(t, token)

	status, raw := env.do(t, http.MethodGet, "/api/questions?q=INTEGRAIS", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]models.Question](t, raw), 1)

	status, raw = env.do(t, http.MethodGet, "/api/questions?q=termodinamica", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, decode[[]models.Question](t, raw))

	status, raw = env.do(t, http.MethodGet, fmt.Sprintf("/api/users/%d/questions", userID), "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]models.Question](t, raw), 1)
}

func TestReadinessWithoutRedis(t *testing.T) {
	env := newTestEnv(t)
	status, raw := env.do(t, http.MethodGet, "/health/ready", "", nil)
	require.Equal(t, http.StatusOK, status)
	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "disabled", body.Checks["redis"])
}
