package server

import (
	"strings"

	"unajuda/internal/repository"
	"unajuda/internal/service"

	"github.com/gofiber/fiber/v2"
)

type createQuestionRequest struct {
	Title      string `json:"title"`
	Content    string `json:"content"`
	CategoryID uint   `json:"category_id"`
}

func repositoryFilter(search string, categoryID, userID uint, page Pagination) repository.QuestionFilter {
	return repository.QuestionFilter{
		Search:     strings.TrimSpace(search),
		CategoryID: categoryID,
		UserID:     userID,
		Limit:      page.Limit,
		Offset:     page.Offset,
	}
}

// GetCategories handles GET /api/categories
// @Summary List categories by name
// @Tags questions
// @Produce json
// @Success 200 {array} models.Category
// @Router /categories [get]
func (s *Server) GetCategories(c *fiber.Ctx) error {
	categories, err := s.questionService.ListCategories(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(categories)
}

// GetQuestions handles GET /api/questions
// @Summary Latest questions
// @Description Newest first with answer counts. q filters title and content, category_id filters by category.
// @Tags questions
// @Produce json
// @Param q query string false "Text filter"
// @Param category_id query int false "Category"
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Offset"
// @Success 200 {array} models.Question
// @Router /questions [get]
func (s *Server) GetQuestions(c *fiber.Ctx) error {
	categoryID := c.QueryInt("category_id", 0)
	if categoryID < 0 {
		categoryID = 0
	}
	page := parsePagination(c, defaultPaginationLimit)
	questions, err := s.questionService.ListQuestions(c.UserContext(),
		repositoryFilter(c.Query("q"), uint(categoryID), 0, page))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(questions)
}

// CreateQuestion handles POST /api/questions
// @Summary Ask a question
// @Tags questions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body createQuestionRequest true "Question"
// @Success 201 {object} models.Question
// @Failure 400 {object} models.ErrorResponse
// @Router /questions [post]
func (s *Server) CreateQuestion(c *fiber.Ctx) error {
	var req createQuestionRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	question, err := s.questionService.CreateQuestion(c.UserContext(), service.CreateQuestionInput{
		UserID:     currentUserID(c),
		CategoryID: req.CategoryID,
		Title:      req.Title,
		Content:    req.Content,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(question)
}

// GetQuestion handles GET /api/questions/:id. Every load counts as a view.
// @Summary Question detail
// @Tags questions
// @Produce json
// @Param id path int true "Question ID"
// @Success 200 {object} models.Question
// @Failure 404 {object} models.ErrorResponse
// @Router /questions/{id} [get]
func (s *Server) GetQuestion(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	question, err := s.questionService.ViewQuestion(c.UserContext(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(question)
}
