package server

import (
	"aimarket/internal/models"
	"aimarket/internal/repository"
	"aimarket/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateDemand handles POST /api/demands.
func (s *Server) CreateDemand(c *fiber.Ctx) error {
	var req struct {
		Title        string  `json:"title"`
		Description  string  `json:"description"`
		Category     string  `json:"category"`
		ExpectedTime string  `json:"expected_time"`
		Reward       float64 `json:"reward"`
		DepartmentID *uint   `json:"department_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("无效的请求内容"))
	}

	demand, err := s.demandService.CreateDemand(c.Context(), service.CreateDemandInput{
		UserID:       currentUserID(c),
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		ExpectedTime: req.ExpectedTime,
		Reward:       req.Reward,
		DepartmentID: req.DepartmentID,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(demand)
}

// GetDemands handles GET /api/demands (public).
func (s *Server) GetDemands(c *fiber.Ctx) error {
	result, err := s.demandService.ListDemands(c.Context(), service.ListDemandsInput{
		Filter: repository.DemandFilter{
			Category:     c.Query("category"),
			Status:       c.Query("status"),
			PublisherID:  uint(c.QueryInt("publisherId", 0)),
			DepartmentID: uint(c.QueryInt("departmentId", 0)),
			Search:       c.Query("search"),
		},
		Query: parsePageQuery(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// GetDemand handles GET /api/demands/:id (public).
func (s *Server) GetDemand(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	demand, err := s.demandService.GetDemand(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(demand)
}

// UpdateDemand handles PATCH /api/demands/:id.
func (s *Server) UpdateDemand(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Title        *string  `json:"title"`
		Description  *string  `json:"description"`
		Category     *string  `json:"category"`
		ExpectedTime *string  `json:"expected_time"`
		Reward       *float64 `json:"reward"`
		Status       *string  `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("无效的请求内容"))
	}

	demand, err := s.demandService.UpdateDemand(c.Context(), service.UpdateDemandInput{
		DemandID:     id,
		UserID:       currentUserID(c),
		UserRole:     currentRole(c),
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		ExpectedTime: req.ExpectedTime,
		Reward:       req.Reward,
		Status:       req.Status,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(demand)
}

// DeleteDemand handles DELETE /api/demands/:id.
func (s *Server) DeleteDemand(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.demandService.DeleteDemand(c.Context(), id, currentUserID(c), currentRole(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "需求已删除"})
}

// FollowDemand handles POST /api/demands/:id/follow.
func (s *Server) FollowDemand(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.demandService.FollowDemand(c.Context(), id, currentUserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "关注成功"})
}

// UnfollowDemand handles DELETE /api/demands/:id/follow.
func (s *Server) UnfollowDemand(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.demandService.UnfollowDemand(c.Context(), id, currentUserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "已取消关注"})
}

// ProposeDemand handles POST /api/demands/:id/proposals.
func (s *Server) ProposeDemand(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("无效的请求内容"))
	}

	proposal, err := s.demandService.Propose(c.Context(), service.ProposeInput{
		DemandID: id,
		UserID:   currentUserID(c),
		Content:  req.Content,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(proposal)
}
