package server

import (
	"aimarket/internal/models"
	"aimarket/internal/repository"
	"aimarket/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateProject handles POST /api/projects.
func (s *Server) CreateProject(c *fiber.Ctx) error {
	var req struct {
		Title                 string   `json:"title"`
		ShortDescription      string   `json:"short_description"`
		Background            string   `json:"background"`
		Solution              string   `json:"solution"`
		Features              string   `json:"features"`
		EstimatedImpact       string   `json:"estimated_impact"`
		ActualImpact          string   `json:"actual_impact"`
		Category              string   `json:"category"`
		Status                string   `json:"status"`
		DepartmentID          uint     `json:"department_id"`
		RequesterID           uint     `json:"requester_id"`
		RequesterDepartmentID uint     `json:"requester_department_id"`
		RequesterName         string   `json:"requester_name"`
		ProjectLeadID         uint     `json:"project_lead_id"`
		ProjectLeadDeptID     uint     `json:"project_lead_department_id"`
		EmpoweredDepartments  string   `json:"empowered_departments"`
		LaunchDate            string   `json:"launch_date"`
		Images                []string `json:"images"`
		Videos                []string `json:"videos"`
		Image                 string   `json:"image"`
		BackgroundImage       string   `json:"background_image"`
		Tags                  []string `json:"tags"`
		Implementers          []string `json:"implementers"`
		Efficiency            string   `json:"efficiency"`
		CostSaving            string   `json:"cost_saving"`
		Satisfaction          string   `json:"satisfaction"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("无效的请求内容"))
	}

	project, err := s.projectService.CreateProject(c.Context(), service.CreateProjectInput{
		UserID:                currentUserID(c),
		Title:                 req.Title,
		ShortDescription:      req.ShortDescription,
		Background:            req.Background,
		Solution:              req.Solution,
		Features:              req.Features,
		EstimatedImpact:       req.EstimatedImpact,
		ActualImpact:          req.ActualImpact,
		Category:              req.Category,
		Status:                req.Status,
		DepartmentID:          req.DepartmentID,
		RequesterID:           req.RequesterID,
		RequesterDepartmentID: req.RequesterDepartmentID,
		RequesterName:         req.RequesterName,
		ProjectLeadID:         req.ProjectLeadID,
		ProjectLeadDeptID:     req.ProjectLeadDeptID,
		EmpoweredDepartments:  req.EmpoweredDepartments,
		LaunchDate:            req.LaunchDate,
		Images:                req.Images,
		Videos:                req.Videos,
		Image:                 req.Image,
		BackgroundImage:       req.BackgroundImage,
		Tags:                  req.Tags,
		Implementers:          req.Implementers,
		Efficiency:            req.Efficiency,
		CostSaving:            req.CostSaving,
		Satisfaction:          req.Satisfaction,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(project)
}

// GetProjects handles GET /api/projects (public).
func (s *Server) GetProjects(c *fiber.Ctx) error {
	userID, _ := s.optionalUser(c)

	var featured *bool
	if c.Query("isFeatured") != "" {
		f := c.QueryBool("isFeatured")
		featured = &f
	}

	result, err := s.projectService.ListProjects(c.Context(), service.ListProjectsInput{
		Filter: repository.ProjectFilter{
			Category:     c.Query("category"),
			Status:       c.Query("status"),
			ReviewStatus: c.Query("reviewStatus"),
			DepartmentID: uint(c.QueryInt("departmentId", 0)),
			Featured:     featured,
			Search:       c.Query("search"),
		},
		Query:         parsePageQuery(c),
		CurrentUserID: userID,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// GetProject handles GET /api/projects/:id (public; liked flag reflects the
// optional caller).
func (s *Server) GetProject(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	userID, _ := s.optionalUser(c)
	project, err := s.projectService.GetProject(c.Context(), id, userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(project)
}

// UpdateProject handles PATCH /api/projects/:id.
func (s *Server) UpdateProject(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Title            *string  `json:"title"`
		ShortDescription *string  `json:"short_description"`
		Category         *string  `json:"category"`
		Status           *string  `json:"status"`
		ReviewStatus     *string  `json:"review_status"`
		IsFeatured       *bool    `json:"is_featured"`
		DepartmentID     *uint    `json:"department_id"`
		ProjectLeadID    *uint    `json:"project_lead_id"`
		Image            *string  `json:"image"`
		BackgroundImage  *string  `json:"background_image"`
		Tags             []string `json:"tags"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("无效的请求内容"))
	}

	project, err := s.projectService.UpdateProject(c.Context(), service.UpdateProjectInput{
		ProjectID:        id,
		UserID:           currentUserID(c),
		UserRole:         currentRole(c),
		Title:            req.Title,
		ShortDescription: req.ShortDescription,
		Category:         req.Category,
		Status:           req.Status,
		ReviewStatus:     req.ReviewStatus,
		IsFeatured:       req.IsFeatured,
		DepartmentID:     req.DepartmentID,
		ProjectLeadID:    req.ProjectLeadID,
		Image:            req.Image,
		BackgroundImage:  req.BackgroundImage,
		Tags:             req.Tags,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(project)
}

// DeleteProject handles DELETE /api/projects/:id.
func (s *Server) DeleteProject(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.projectService.DeleteProject(c.Context(), id, currentUserID(c), currentRole(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "项目已删除"})
}

// LikeProject handles POST /api/projects/:id/like.
func (s *Server) LikeProject(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.projectService.LikeProject(c.Context(), id, currentUserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "点赞成功"})
}

// UnlikeProject handles DELETE /api/projects/:id/like.
func (s *Server) UnlikeProject(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.projectService.UnlikeProject(c.Context(), id, currentUserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "已取消点赞"})
}
