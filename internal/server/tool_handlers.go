package server

import (
	"aimarket/internal/models"
	"aimarket/internal/repository"
	"aimarket/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateTool handles POST /api/tools.
func (s *Server) CreateTool(c *fiber.Ctx) error {
	var req struct {
		Name         string   `json:"name"`
		Description  string   `json:"description"`
		Category     string   `json:"category"`
		Type         string   `json:"type"`
		Price        float64  `json:"price"`
		Icon         string   `json:"icon"`
		CoverImage   string   `json:"cover_image"`
		URL          string   `json:"url"`
		APIEndpoint  string   `json:"api_endpoint"`
		DepartmentID uint     `json:"department_id"`
		Tags         []string `json:"tags"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("无效的请求内容"))
	}

	tool, err := s.toolService.CreateTool(c.Context(), service.CreateToolInput{
		UserID:       currentUserID(c),
		Name:         req.Name,
		Description:  req.Description,
		Category:     req.Category,
		Type:         req.Type,
		Price:        req.Price,
		Icon:         req.Icon,
		CoverImage:   req.CoverImage,
		URL:          req.URL,
		APIEndpoint:  req.APIEndpoint,
		DepartmentID: req.DepartmentID,
		Tags:         req.Tags,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(tool)
}

// GetTools handles GET /api/tools (public). Non-admin callers only ever see
// approved tools.
func (s *Server) GetTools(c *fiber.Ctx) error {
	_, role := s.optionalUser(c)

	var featured *bool
	if c.Query("isFeatured") != "" {
		f := c.QueryBool("isFeatured")
		featured = &f
	}

	result, err := s.toolService.ListTools(c.Context(), service.ListToolsInput{
		Filter: repository.ToolFilter{
			Category: c.Query("category"),
			Type:     c.Query("type"),
			Status:   c.Query("status"),
			AuthorID: uint(c.QueryInt("authorId", 0)),
			Featured: featured,
			Search:   c.Query("search"),
		},
		Query:   parsePageQuery(c),
		IsAdmin: role == models.RoleAdmin,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// GetTool handles GET /api/tools/:id (public).
func (s *Server) GetTool(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	tool, err := s.toolService.GetTool(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(tool)
}

// UpdateTool handles PATCH /api/tools/:id.
func (s *Server) UpdateTool(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Name        *string  `json:"name"`
		Description *string  `json:"description"`
		Category    *string  `json:"category"`
		Type        *string  `json:"type"`
		Price       *float64 `json:"price"`
		Icon        *string  `json:"icon"`
		CoverImage  *string  `json:"cover_image"`
		URL         *string  `json:"url"`
		APIEndpoint *string  `json:"api_endpoint"`
		Status      *string  `json:"status"`
		IsFeatured  *bool    `json:"is_featured"`
		Tags        []string `json:"tags"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("无效的请求内容"))
	}

	tool, err := s.toolService.UpdateTool(c.Context(), service.UpdateToolInput{
		ToolID:      id,
		UserID:      currentUserID(c),
		UserRole:    currentRole(c),
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Type:        req.Type,
		Price:       req.Price,
		Icon:        req.Icon,
		CoverImage:  req.CoverImage,
		URL:         req.URL,
		APIEndpoint: req.APIEndpoint,
		Status:      req.Status,
		IsFeatured:  req.IsFeatured,
		Tags:        req.Tags,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(tool)
}

// DeleteTool handles DELETE /api/tools/:id.
func (s *Server) DeleteTool(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.toolService.DeleteTool(c.Context(), id, currentUserID(c), currentRole(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "工具已删除"})
}

// ReviewTool handles POST /api/tools/:id/reviews.
func (s *Server) ReviewTool(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("无效的请求内容"))
	}

	review, err := s.toolService.ReviewTool(c.Context(), service.ReviewToolInput{
		ToolID:  id,
		UserID:  currentUserID(c),
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(review)
}
