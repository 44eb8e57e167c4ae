package server

import (
	"aimarket/internal/models"
	"aimarket/internal/repository"
	"aimarket/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ApplyReplication handles POST /api/projects/:id/replicate.
func (s *Server) ApplyReplication(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		ApplicantName    string `json:"applicant_name"`
		Department       string `json:"department"`
		ContactPhone     string `json:"contact_phone"`
		Email            string `json:"email"`
		TeamSize         string `json:"team_size"`
		Urgency          string `json:"urgency"`
		TargetLaunchDate string `json:"target_launch_date"`
		BusinessScenario string `json:"business_scenario"`
		ExpectedGoals    string `json:"expected_goals"`
		BudgetRange      string `json:"budget_range"`
		AdditionalNeeds  string `json:"additional_needs"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("无效的请求内容"))
	}

	replication, err := s.replicationService.Apply(c.Context(), service.ApplyReplicationInput{
		ProjectID:        id,
		UserID:           currentUserID(c),
		ApplicantName:    req.ApplicantName,
		Department:       req.Department,
		ContactPhone:     req.ContactPhone,
		Email:            req.Email,
		TeamSize:         req.TeamSize,
		Urgency:          req.Urgency,
		TargetLaunchDate: req.TargetLaunchDate,
		BusinessScenario: req.BusinessScenario,
		ExpectedGoals:    req.ExpectedGoals,
		BudgetRange:      req.BudgetRange,
		AdditionalNeeds:  req.AdditionalNeeds,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(replication)
}

// GetReplications handles GET /api/projects/replications/all (admin).
func (s *Server) GetReplications(c *fiber.Ctx) error {
	result, err := s.replicationService.List(c.Context(), service.ListReplicationsInput{
		Filter: repository.ReplicationFilter{
			ProjectID:    uint(c.QueryInt("projectId", 0)),
			ReplicatorID: uint(c.QueryInt("replicatorId", 0)),
			Status:       c.Query("status"),
			Urgency:      c.Query("urgency"),
		},
		Query: parsePageQuery(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// GetReplication handles GET /api/projects/replications/:id.
func (s *Server) GetReplication(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	replication, err := s.replicationService.Get(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(replication)
}

// UpdateReplicationStatus handles PATCH /api/projects/replications/:id/status
// (admin).
func (s *Server) UpdateReplicationStatus(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("无效的请求内容"))
	}

	replication, err := s.replicationService.UpdateStatus(c.Context(), id, req.Status)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(replication)
}

// AnalyzeReplication handles POST /api/projects/replications/:id/analyze
// (admin).
func (s *Server) AnalyzeReplication(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	replication, err := s.replicationService.Analyze(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(replication)
}
