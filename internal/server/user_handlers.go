package server

import (
	"aimarket/internal/models"
	"aimarket/internal/repository"
	"aimarket/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateUser handles POST /api/users (admin).
func (s *Server) CreateUser(c *fiber.Ctx) error {
	var req struct {
		Email      string `json:"email"`
		Password   string `json:"password"`
		Name       string `json:"name"`
		Avatar     string `json:"avatar"`
		Department string `json:"department"`
		Position   string `json:"position"`
		Role       string `json:"role"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("无效的请求内容"))
	}

	user, err := s.userService.CreateUser(c.Context(), service.CreateUserInput{
		Email:      req.Email,
		Password:   req.Password,
		Name:       req.Name,
		Avatar:     req.Avatar,
		Department: req.Department,
		Position:   req.Position,
		Role:       req.Role,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

// GetUsers handles GET /api/users (admin).
func (s *Server) GetUsers(c *fiber.Ctx) error {
	result, err := s.userService.ListUsers(c.Context(), service.ListUsersInput{
		Filter: repository.UserFilter{
			Search:       c.Query("search"),
			Department:   c.Query("department"),
			DepartmentID: uint(c.QueryInt("departmentId", 0)),
			Role:         c.Query("role"),
			Status:       c.Query("status"),
		},
		Query: parsePageQuery(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// GetUser handles GET /api/users/:id (admin).
func (s *Server) GetUser(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	user, err := s.userService.GetUser(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// UpdateUser handles PATCH /api/users/:id (admin).
func (s *Server) UpdateUser(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Email        *string `json:"email"`
		Password     *string `json:"password"`
		Name         *string `json:"name"`
		Avatar       *string `json:"avatar"`
		Department   *string `json:"department"`
		DepartmentID *uint   `json:"department_id"`
		Position     *string `json:"position"`
		Role         *string `json:"role"`
		Status       *string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("无效的请求内容"))
	}

	user, err := s.userService.UpdateUser(c.Context(), service.UpdateUserInput{
		UserID:       id,
		Email:        req.Email,
		Password:     req.Password,
		Name:         req.Name,
		Avatar:       req.Avatar,
		Department:   req.Department,
		DepartmentID: req.DepartmentID,
		Position:     req.Position,
		Role:         req.Role,
		Status:       req.Status,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// UpdateUserPoints handles PATCH /api/users/:id/points (admin). The delta may
// be negative; the contributor level never drops.
func (s *Server) UpdateUserPoints(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Points int `json:"points"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("无效的请求内容"))
	}

	user, err := s.userService.AddPoints(c.Context(), id, req.Points)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// DeleteUser handles DELETE /api/users/:id (admin).
func (s *Server) DeleteUser(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.userService.DeleteUser(c.Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "用户已删除"})
}

// GetDepartments handles GET /api/departments.
func (s *Server) GetDepartments(c *fiber.Ctx) error {
	departments, err := s.userService.ListDepartments(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(departments)
}
