package server

import (
	"unajuda/internal/models"
	"unajuda/internal/reputation"
	"unajuda/internal/service"

	"github.com/gofiber/fiber/v2"
)

type updateProfileRequest struct {
	FullName   *string `json:"full_name"`
	Headline   *string `json:"headline"`
	Bio        *string `json:"bio"`
	University *string `json:"university"`
	Course     *string `json:"course"`
	AvatarURL  *string `json:"avatar_url"`
}

type statsResponse struct {
	reputation.Stats
	NewBadges []models.Badge `json:"new_badges,omitempty"`
}

// GetMyProfile handles GET /api/users/me
// @Summary Current profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User
// @Router /users/me [get]
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	user, err := s.userService.GetUserByID(c.UserContext(), currentUserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(user)
}

// UpdateMyProfile handles PUT /api/users/me. Omitted fields are left unchanged.
// @Summary Update current profile
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body updateProfileRequest true "Profile fields"
// @Success 200 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Router /users/me [put]
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	user, err := s.userService.UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		UserID:     currentUserID(c),
		FullName:   req.FullName,
		Headline:   req.Headline,
		Bio:        req.Bio,
		University: req.University,
		Course:     req.Course,
		AvatarURL:  req.AvatarURL,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(user)
}

// GetUserProfile handles GET /api/users/:id
// @Summary Public profile
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} models.User
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id} [get]
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	user, err := s.userService.GetUserByID(c.UserContext(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(user.PublicProfile())
}

// GetUserQuestions handles GET /api/users/:id/questions
func (s *Server) GetUserQuestions(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, defaultPaginationLimit)
	questions, err := s.questionService.ListQuestions(c.UserContext(), repositoryFilter("", 0, id, page))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(questions)
}

// GetUserAnswers handles GET /api/users/:id/answers
func (s *Server) GetUserAnswers(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, defaultPaginationLimit)
	answers, err := s.answerService.ListByUser(c.UserContext(), id, page.Limit, page.Offset)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(answers)
}

// GetUserStats handles GET /api/users/:id/stats. When the caller reads their own
// stats the snapshot is recomputed and pending badges are awarded.
// @Summary Activity counters
// @Tags reputation
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} statsResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /users/{id}/stats [get]
func (s *Server) GetUserStats(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	if id == currentUserID(c) {
		stats, awarded, err := s.reputationService.Refresh(c.UserContext(), id)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(statsResponse{Stats: stats, NewBadges: awarded})
	}

	stats, err := s.statsService.GetStats(c.UserContext(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(statsResponse{Stats: stats})
}

// GetUserReputation handles GET /api/users/:id/reputation
// @Summary Score, level and progress
// @Tags reputation
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} reputation.Summary
// @Failure 500 {object} models.ErrorResponse
// @Router /users/{id}/reputation [get]
func (s *Server) GetUserReputation(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	summary, err := s.statsService.GetReputation(c.UserContext(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(summary)
}

// GetUserBadges handles GET /api/users/:id/badges, newest first.
// @Summary Earned badges
// @Tags reputation
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {array} models.UserBadge
// @Router /users/{id}/badges [get]
func (s *Server) GetUserBadges(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	badges, err := s.badgeService.ListUserBadges(c.UserContext(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(badges)
}

// GetBadges handles GET /api/badges
// @Summary Badge catalog
// @Tags reputation
// @Produce json
// @Success 200 {array} models.Badge
// @Router /badges [get]
func (s *Server) GetBadges(c *fiber.Ctx) error {
	badges, err := s.badgeService.ListCatalog(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(badges)
}

// GetFeatureFlags returns configured feature flags and their state for the caller.
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"raw":       s.featureFlags.Raw(),
		"evaluated": s.featureFlags.Snapshot(currentUserID(c)),
	})
}
