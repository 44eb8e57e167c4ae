package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"aimarket/internal/authz"
	"aimarket/internal/middleware"
	"aimarket/internal/models"
	"aimarket/internal/repository"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const placeholderEmailDomain = "placeholder.aimarket.local"

type ProjectService struct {
	projectRepo   repository.ProjectRepository
	userRepo      repository.UserRepository
	notifications *NotificationService
}

type CreateProjectInput struct {
	UserID                uint
	Title                 string
	ShortDescription      string
	Background            string
	Solution              string
	Features              string
	EstimatedImpact       string
	ActualImpact          string
	Category              string
	Status                string
	DepartmentID          uint
	RequesterID           uint
	RequesterDepartmentID uint
	RequesterName         string
	ProjectLeadID         uint
	ProjectLeadDeptID     uint
	EmpoweredDepartments  string
	LaunchDate            string
	Images                []string
	Videos                []string
	Image                 string
	BackgroundImage       string
	Tags                  []string
	Implementers          []string
	Efficiency            string
	CostSaving            string
	Satisfaction          string
}

type ListProjectsInput struct {
	Filter        repository.ProjectFilter
	Query         models.PageQuery
	CurrentUserID uint
}

type UpdateProjectInput struct {
	ProjectID        uint
	UserID           uint
	UserRole         string
	Title            *string
	ShortDescription *string
	Category         *string
	Status           *string
	ReviewStatus     *string
	IsFeatured       *bool
	DepartmentID     *uint
	ProjectLeadID    *uint
	Image            *string
	BackgroundImage  *string
	Tags             []string
}

func NewProjectService(
	projectRepo repository.ProjectRepository,
	userRepo repository.UserRepository,
	notifications *NotificationService,
) *ProjectService {
	return &ProjectService{
		projectRepo:   projectRepo,
		userRepo:      userRepo,
		notifications: notifications,
	}
}

// CreateProject publishes a case study. The first implementer becomes the
// project lead; unknown implementer names get placeholder accounts so the
// roster renders even before those colleagues register.
func (s *ProjectService) CreateProject(ctx context.Context, in CreateProjectInput) (*models.Project, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, models.NewValidationError("项目标题不能为空")
	}

	departmentID, err := s.resolveDepartmentID(ctx, in.DepartmentID)
	if err != nil {
		return nil, err
	}
	requesterDeptID, err := s.resolveDepartmentID(ctx, in.RequesterDepartmentID)
	if err != nil {
		return nil, err
	}

	projectLeadID := in.ProjectLeadID
	projectLeadDeptID := in.ProjectLeadDeptID
	if len(in.Implementers) > 0 {
		if lead, leadErr := s.userRepo.GetByName(ctx, strings.TrimSpace(in.Implementers[0])); leadErr == nil {
			projectLeadID = lead.ID
			if lead.DepartmentID != nil {
				projectLeadDeptID = *lead.DepartmentID
			}
		}
	}
	if projectLeadID == 0 {
		projectLeadID = in.UserID
	}
	if projectLeadDeptID != 0 {
		if _, deptErr := s.userRepo.GetDepartment(ctx, projectLeadDeptID); deptErr != nil {
			projectLeadDeptID = requesterDeptID
		}
	}

	requesterID := in.RequesterID
	if requesterID == 0 {
		requesterID = in.UserID
	}

	status := in.Status
	if status == "" {
		status = models.ProjectStatusRequirementConfirmed
	}

	project := &models.Project{
		Title:                 strings.TrimSpace(in.Title),
		ShortDescription:      in.ShortDescription,
		Background:            strings.TrimSpace(in.Background),
		Solution:              strings.TrimSpace(in.Solution),
		Features:              strings.TrimSpace(in.Features),
		EstimatedImpact:       strings.TrimSpace(in.EstimatedImpact),
		ActualImpact:          strings.TrimSpace(in.ActualImpact),
		Category:              in.Category,
		Status:                status,
		ReviewStatus:          models.ReviewStatusPending,
		DepartmentID:          departmentID,
		RequesterID:           requesterID,
		RequesterDepartmentID: requesterDeptID,
		RequesterName:         in.RequesterName,
		ProjectLeadID:         projectLeadID,
		ProjectLeadDeptID:     projectLeadDeptID,
		EmpoweredDepartments:  in.EmpoweredDepartments,
		Image:                 in.Image,
		BackgroundImage:       in.BackgroundImage,
	}

	if in.LaunchDate != "" {
		if launch, parseErr := time.Parse("2006-01-02", in.LaunchDate); parseErr == nil {
			project.LaunchDate = &launch
		}
	}
	if len(in.Images) > 0 {
		encoded, _ := json.Marshal(in.Images)
		project.Images = string(encoded)
		project.Image = in.Images[0]
		if len(in.Images) > 1 {
			project.BackgroundImage = in.Images[1]
		} else {
			project.BackgroundImage = in.Images[0]
		}
	}
	if len(in.Videos) > 0 {
		encoded, _ := json.Marshal(in.Videos)
		project.Videos = string(encoded)
	}

	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, err
	}

	// Impact row is created after the parent; a failure here is logged, not
	// rolled back, matching the loose coupling of the original flow.
	if in.Efficiency != "" || in.CostSaving != "" || in.Satisfaction != "" {
		impact := &models.ProjectImpact{
			ProjectID:    project.ID,
			Efficiency:   in.Efficiency,
			CostSaving:   in.CostSaving,
			Satisfaction: in.Satisfaction,
		}
		if impactErr := s.projectRepo.UpsertImpact(ctx, impact); impactErr != nil {
			middleware.Logger.Warn("failed to save project impact",
				slog.Uint64("project_id", uint64(project.ID)),
				slog.String("error", impactErr.Error()))
		}
	}

	if len(in.Implementers) > 0 {
		if rosterErr := s.assignImplementers(ctx, project.ID, projectLeadID, in.Implementers); rosterErr != nil {
			middleware.Logger.Warn("failed to assign implementers",
				slog.Uint64("project_id", uint64(project.ID)),
				slog.String("error", rosterErr.Error()))
		}
	}

	if len(in.Tags) > 0 {
		if tagErr := s.projectRepo.ReplaceTags(ctx, project, in.Tags); tagErr != nil {
			return nil, tagErr
		}
	}

	return s.projectRepo.GetByID(ctx, project.ID, in.UserID)
}

func (s *ProjectService) resolveDepartmentID(ctx context.Context, id uint) (uint, error) {
	if id != 0 {
		if _, err := s.userRepo.GetDepartment(ctx, id); err == nil {
			return id, nil
		}
	}
	dept, err := s.userRepo.DefaultDepartment(ctx)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return dept.ID, nil
}

// assignImplementers builds the developer roster. The first name is the lead,
// the rest are engineers; unknown names get placeholder accounts.
func (s *ProjectService) assignImplementers(ctx context.Context, projectID, leadID uint, names []string) error {
	var leadDeptName string
	var leadDeptID *uint
	if lead, err := s.userRepo.GetByID(ctx, leadID); err == nil {
		leadDeptName = lead.Department
		leadDeptID = lead.DepartmentID
	}
	if leadDeptName == "" {
		leadDeptName = "未分配部门"
	}

	developers := make([]models.ProjectDeveloper, 0, len(names))
	for i, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}

		role := models.DeveloperRoleEngineer
		if i == 0 {
			role = models.DeveloperRoleLead
		}

		user, err := s.userRepo.GetByName(ctx, name)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			user, err = s.createPlaceholderUser(ctx, name, role, leadDeptName, leadDeptID)
		}
		if err != nil {
			return err
		}

		developers = append(developers, models.ProjectDeveloper{
			UserID: user.ID,
			Role:   role,
		})
	}
	return s.projectRepo.ReplaceDevelopers(ctx, projectID, developers)
}

func (s *ProjectService) createPlaceholderUser(ctx context.Context, name, role, deptName string, deptID *uint) (*models.User, error) {
	position := "项目工程师"
	if role == models.DeveloperRoleLead {
		position = "项目负责人"
	}

	base := strings.ToLower(strings.Join(strings.Fields(name), ""))
	var sanitized strings.Builder
	for _, r := range base {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			sanitized.WriteRune(r)
		}
	}
	stamp := time.Now().UnixMilli()
	email := fmt.Sprintf("%s_%d@%s", sanitized.String(), stamp, placeholderEmailDomain)
	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		email = fmt.Sprintf("%s_%d_%04d@%s", sanitized.String(), stamp, rand.Intn(10000), placeholderEmailDomain)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(fmt.Sprintf("placeholder_password_%d", stamp)), bcryptCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Email:        email,
		Password:     string(hashed),
		Name:         name,
		Department:   deptName,
		DepartmentID: deptID,
		Position:     position,
		Role:         models.RoleUser,
		Status:       models.UserStatusActive,
		Level:        1,
		LevelName:    "新手",
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *ProjectService) ListProjects(ctx context.Context, in ListProjectsInput) (models.PaginatedResult[*models.Project], error) {
	in.Query.Normalize()
	items, total, err := s.projectRepo.List(ctx, in.Filter, in.Query, in.CurrentUserID)
	if err != nil {
		return models.PaginatedResult[*models.Project]{}, err
	}
	return models.NewPaginatedResult(items, total, in.Query), nil
}

// GetProject loads the project and bumps its view counter.
func (s *ProjectService) GetProject(ctx context.Context, id uint, currentUserID uint) (*models.Project, error) {
	project, err := s.projectRepo.GetByID(ctx, id, currentUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("项目", id)
		}
		return nil, err
	}

	if err := s.projectRepo.IncrementViews(ctx, id); err != nil {
		return nil, err
	}
	project.Views++
	return project, nil
}

func (s *ProjectService) UpdateProject(ctx context.Context, in UpdateProjectInput) (*models.Project, error) {
	project, err := s.projectRepo.GetByID(ctx, in.ProjectID, in.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("项目", in.ProjectID)
		}
		return nil, err
	}

	if !authz.CanMutate(in.UserID, in.UserRole, project.ProjectLeadID) {
		return nil, models.NewForbiddenError("无权修改此项目")
	}

	fields := map[string]interface{}{}
	if in.Title != nil {
		fields["title"] = *in.Title
	}
	if in.ShortDescription != nil {
		fields["short_description"] = *in.ShortDescription
	}
	if in.Category != nil {
		fields["category"] = *in.Category
	}
	if in.Status != nil {
		fields["status"] = *in.Status
	}
	if in.ReviewStatus != nil {
		if !authz.IsAdmin(in.UserRole) {
			return nil, models.NewForbiddenError("无权修改审核状态")
		}
		fields["review_status"] = *in.ReviewStatus
	}
	if in.IsFeatured != nil {
		if !authz.IsAdmin(in.UserRole) {
			return nil, models.NewForbiddenError("无权设置精选项目")
		}
		fields["is_featured"] = *in.IsFeatured
	}
	if in.DepartmentID != nil {
		fields["department_id"] = *in.DepartmentID
	}
	if in.ProjectLeadID != nil {
		fields["project_lead_id"] = *in.ProjectLeadID
	}
	if in.Image != nil {
		fields["image"] = *in.Image
	}
	if in.BackgroundImage != nil {
		fields["background_image"] = *in.BackgroundImage
	}

	if len(fields) > 0 {
		if err := s.projectRepo.UpdateFields(ctx, in.ProjectID, fields); err != nil {
			return nil, err
		}
	}
	if in.Tags != nil {
		if err := s.projectRepo.ReplaceTags(ctx, project, in.Tags); err != nil {
			return nil, err
		}
	}

	if in.ReviewStatus != nil && *in.ReviewStatus != project.ReviewStatus && s.notifications != nil {
		verdict := "已通过审核"
		if *in.ReviewStatus == models.ReviewStatusRejected {
			verdict = "未通过审核"
		}
		if notifyErr := s.notifications.Notify(ctx, project.ProjectLeadID,
			models.NotificationTypeProject,
			"项目审核结果",
			fmt.Sprintf("您的项目「%s」%s", project.Title, verdict),
			fmt.Sprintf("/projects/%d", project.ID)); notifyErr != nil {
			middleware.Logger.Warn("failed to notify project lead",
				slog.Uint64("project_id", uint64(project.ID)),
				slog.String("error", notifyErr.Error()))
		}
	}

	return s.projectRepo.GetByID(ctx, in.ProjectID, in.UserID)
}

func (s *ProjectService) DeleteProject(ctx context.Context, id, userID uint, role string) error {
	project, err := s.projectRepo.GetByID(ctx, id, 0)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("项目", id)
		}
		return err
	}
	if !authz.CanMutate(userID, role, project.ProjectLeadID) {
		return models.NewForbiddenError("无权删除此项目")
	}
	return s.projectRepo.Delete(ctx, id)
}

// LikeProject records the like; a second like by the same user is rejected.
func (s *ProjectService) LikeProject(ctx context.Context, projectID, userID uint) error {
	if _, err := s.projectRepo.GetByID(ctx, projectID, 0); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("项目", projectID)
		}
		return err
	}

	err := s.projectRepo.Like(ctx, userID, projectID)
	if errors.Is(err, repository.ErrAlreadyLiked) {
		return models.NewForbiddenError("已点赞此项目")
	}
	return err
}

// UnlikeProject is idempotent; the counter decrements exactly once.
func (s *ProjectService) UnlikeProject(ctx context.Context, projectID, userID uint) error {
	err := s.projectRepo.Unlike(ctx, userID, projectID)
	if errors.Is(err, repository.ErrNotLiked) {
		return nil
	}
	return err
}
