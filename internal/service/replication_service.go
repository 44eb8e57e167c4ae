package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"aimarket/internal/analysis"
	"aimarket/internal/middleware"
	"aimarket/internal/models"
	"aimarket/internal/observability"
	"aimarket/internal/repository"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

// replicationStatusFlow lists the admissible statuses for a status update.
var replicationStatusFlow = map[string]struct{}{
	models.ReplicationStatusApplied:   {},
	models.ReplicationStatusReviewing: {},
	models.ReplicationStatusApproved:  {},
	models.ReplicationStatusDeploying: {},
	models.ReplicationStatusDeployed:  {},
	models.ReplicationStatusRejected:  {},
}

// pendingReplicationStatuses are the statuses that block a second
// application for the same project by the same user.
var pendingReplicationStatuses = []string{
	models.ReplicationStatusApplied,
	models.ReplicationStatusReviewing,
	models.ReplicationStatusApproved,
	models.ReplicationStatusDeploying,
}

type ReplicationService struct {
	replicationRepo repository.ReplicationRepository
	projectRepo     repository.ProjectRepository
	userRepo        repository.UserRepository
	notifications   *NotificationService
	now             func() time.Time
}

type ApplyReplicationInput struct {
	ProjectID        uint
	UserID           uint
	ApplicantName    string
	Department       string
	ContactPhone     string
	Email            string
	TeamSize         string
	Urgency          string
	TargetLaunchDate string
	BusinessScenario string
	ExpectedGoals    string
	BudgetRange      string
	AdditionalNeeds  string
}

type ListReplicationsInput struct {
	Filter repository.ReplicationFilter
	Query  models.PageQuery
}

func NewReplicationService(
	replicationRepo repository.ReplicationRepository,
	projectRepo repository.ProjectRepository,
	userRepo repository.UserRepository,
	notifications *NotificationService,
) *ReplicationService {
	return &ReplicationService{
		replicationRepo: replicationRepo,
		projectRepo:     projectRepo,
		userRepo:        userRepo,
		notifications:   notifications,
		now:             time.Now,
	}
}

// Apply files a deployment request for a project.
func (s *ReplicationService) Apply(ctx context.Context, in ApplyReplicationInput) (*models.ProjectReplication, error) {
	if strings.TrimSpace(in.ApplicantName) == "" {
		return nil, models.NewValidationError("申请人姓名不能为空")
	}
	if strings.TrimSpace(in.BusinessScenario) == "" {
		return nil, models.NewValidationError("业务场景不能为空")
	}
	urgency := in.Urgency
	if urgency == "" {
		urgency = models.UrgencyNormal
	}
	switch urgency {
	case models.UrgencyNormal, models.UrgencyUrgent, models.UrgencyEmergency:
	default:
		return nil, models.NewValidationError("无效的紧急程度")
	}

	project, err := s.projectRepo.GetByID(ctx, in.ProjectID, 0)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &models.AppError{Code: models.CodeNotFound, Message: "项目不存在"}
		}
		return nil, err
	}

	open, err := s.replicationRepo.CountForProjectAndUser(ctx, in.ProjectID, in.UserID, pendingReplicationStatuses)
	if err != nil {
		return nil, err
	}
	if open > 0 {
		return nil, models.NewForbiddenError("您已提交过该项目的部署申请")
	}

	departmentID := s.resolveApplicantDepartment(ctx, in.Department)

	replication := &models.ProjectReplication{
		ProjectID:        in.ProjectID,
		ReplicatorID:     in.UserID,
		DepartmentID:     departmentID,
		ApplicantName:    strings.TrimSpace(in.ApplicantName),
		Department:       in.Department,
		ContactPhone:     in.ContactPhone,
		Email:            in.Email,
		TeamSize:         in.TeamSize,
		Urgency:          urgency,
		TargetLaunchDate: in.TargetLaunchDate,
		BusinessScenario: in.BusinessScenario,
		ExpectedGoals:    in.ExpectedGoals,
		BudgetRange:      in.BudgetRange,
		AdditionalNeeds:  in.AdditionalNeeds,
		Status:           models.ReplicationStatusApplied,
	}
	if err := s.replicationRepo.Create(ctx, replication); err != nil {
		return nil, err
	}

	if s.notifications != nil && project.ProjectLeadID != 0 {
		if notifyErr := s.notifications.Notify(ctx, project.ProjectLeadID,
			models.NotificationTypeReplication,
			"新的部署申请",
			fmt.Sprintf("%s 申请部署您的项目「%s」", replication.ApplicantName, project.Title),
			fmt.Sprintf("/projects/%d", project.ID)); notifyErr != nil {
			middleware.Logger.Warn("failed to notify project lead of replication",
				slog.Uint64("replication_id", uint64(replication.ID)),
				slog.String("error", notifyErr.Error()))
		}
	}

	return s.replicationRepo.GetByID(ctx, replication.ID)
}

// resolveApplicantDepartment maps the submitted department name to a row id,
// falling back to the lowest-id department.
func (s *ReplicationService) resolveApplicantDepartment(ctx context.Context, name string) uint {
	if name != "" {
		depts, err := s.userRepo.ListDepartments(ctx)
		if err == nil {
			for _, d := range depts {
				if d.Name == name {
					return d.ID
				}
			}
		}
	}
	if dept, err := s.userRepo.DefaultDepartment(ctx); err == nil {
		return dept.ID
	}
	return 1
}

func (s *ReplicationService) List(ctx context.Context, in ListReplicationsInput) (models.PaginatedResult[*models.ProjectReplication], error) {
	in.Query.Normalize()
	items, total, err := s.replicationRepo.List(ctx, in.Filter, in.Query)
	if err != nil {
		return models.PaginatedResult[*models.ProjectReplication]{}, err
	}
	return models.NewPaginatedResult(items, total, in.Query), nil
}

func (s *ReplicationService) Get(ctx context.Context, id uint) (*models.ProjectReplication, error) {
	replication, err := s.replicationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &models.AppError{Code: models.CodeNotFound, Message: "申请不存在"}
		}
		return nil, err
	}
	return replication, nil
}

// UpdateStatus advances the request through its lifecycle; reaching DEPLOYED
// stamps DeployedAt.
func (s *ReplicationService) UpdateStatus(ctx context.Context, id uint, status string) (*models.ProjectReplication, error) {
	if _, ok := replicationStatusFlow[status]; !ok {
		return nil, models.NewValidationError("无效的申请状态")
	}

	replication, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{"status": status}
	if status == models.ReplicationStatusDeployed {
		fields["deployed_at"] = s.now()
	}
	if err := s.replicationRepo.UpdateFields(ctx, id, fields); err != nil {
		return nil, err
	}

	if s.notifications != nil {
		title := "部署申请状态更新"
		content := fmt.Sprintf("您对项目「%s」的部署申请状态已更新为 %s", projectTitle(replication), status)
		if notifyErr := s.notifications.Notify(ctx, replication.ReplicatorID,
			models.NotificationTypeReplication, title, content,
			fmt.Sprintf("/projects/%d", replication.ProjectID)); notifyErr != nil {
			middleware.Logger.Warn("failed to notify applicant of status change",
				slog.Uint64("replication_id", uint64(id)),
				slog.String("error", notifyErr.Error()))
		}
	}

	return s.replicationRepo.GetByID(ctx, id)
}

// Analyze generates the heuristic review report and stores it on the request.
func (s *ReplicationService) Analyze(ctx context.Context, id uint) (*models.ProjectReplication, error) {
	replication, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	ctx, endSpan := observability.StartSpan(ctx, "replication.analyze",
		attribute.Int("replication.id", int(id)),
		attribute.String("replication.urgency", replication.Urgency),
	)
	defer func() { endSpan(err) }()

	now := s.now()
	report := analysis.Generate(analysis.Request{
		ProjectTitle:     projectTitle(replication),
		BusinessScenario: replication.BusinessScenario,
		ExpectedGoals:    replication.ExpectedGoals,
		AdditionalNeeds:  replication.AdditionalNeeds,
		Urgency:          replication.Urgency,
		BudgetRange:      replication.BudgetRange,
		TeamSize:         replication.TeamSize,
		TargetLaunchDate: replication.TargetLaunchDate,
	}, now)
	observability.AnalysisGenerated.WithLabelValues(replication.Urgency).Inc()

	err = s.replicationRepo.UpdateFields(ctx, id, map[string]interface{}{
		"ai_analysis":    report,
		"ai_analysis_at": now,
	})
	if err != nil {
		return nil, err
	}

	replication, err = s.replicationRepo.GetByID(ctx, id)
	return replication, err
}

func projectTitle(replication *models.ProjectReplication) string {
	if replication.Project != nil {
		return replication.Project.Title
	}
	return ""
}
