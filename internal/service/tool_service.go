package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"aimarket/internal/authz"
	"aimarket/internal/middleware"
	"aimarket/internal/models"
	"aimarket/internal/repository"

	"gorm.io/gorm"
)

type ToolService struct {
	toolRepo      repository.ToolRepository
	userRepo      repository.UserRepository
	notifications *NotificationService
}

type CreateToolInput struct {
	UserID       uint
	Name         string
	Description  string
	Category     string
	Type         string
	Price        float64
	Icon         string
	CoverImage   string
	URL          string
	APIEndpoint  string
	DepartmentID uint
	Tags         []string
}

type ListToolsInput struct {
	Filter  repository.ToolFilter
	Query   models.PageQuery
	IsAdmin bool
}

type UpdateToolInput struct {
	ToolID      uint
	UserID      uint
	UserRole    string
	Name        *string
	Description *string
	Category    *string
	Type        *string
	Price       *float64
	Icon        *string
	CoverImage  *string
	URL         *string
	APIEndpoint *string
	Status      *string
	IsFeatured  *bool
	Tags        []string
}

type ReviewToolInput struct {
	ToolID  uint
	UserID  uint
	Rating  int
	Comment string
}

func NewToolService(
	toolRepo repository.ToolRepository,
	userRepo repository.UserRepository,
	notifications *NotificationService,
) *ToolService {
	return &ToolService{
		toolRepo:      toolRepo,
		userRepo:      userRepo,
		notifications: notifications,
	}
}

func (s *ToolService) CreateTool(ctx context.Context, in CreateToolInput) (*models.Tool, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, models.NewValidationError("工具名称不能为空")
	}
	if strings.TrimSpace(in.Description) == "" {
		return nil, models.NewValidationError("工具描述不能为空")
	}
	toolType := in.Type
	if toolType == "" {
		toolType = models.ToolTypeInternal
	}
	switch toolType {
	case models.ToolTypeInternal, models.ToolTypeExternal, models.ToolTypeAPI:
	default:
		return nil, models.NewValidationError("无效的工具类型")
	}

	departmentID := in.DepartmentID
	if departmentID == 0 {
		// author's department, or department 1 as the last resort
		if user, err := s.userRepo.GetByID(ctx, in.UserID); err == nil && user.DepartmentID != nil {
			departmentID = *user.DepartmentID
		} else {
			departmentID = 1
		}
	}

	tool := &models.Tool{
		Name:         strings.TrimSpace(in.Name),
		Description:  in.Description,
		Category:     in.Category,
		Type:         toolType,
		Price:        in.Price,
		Icon:         in.Icon,
		CoverImage:   in.CoverImage,
		URL:          in.URL,
		APIEndpoint:  in.APIEndpoint,
		Status:       models.ToolStatusPending,
		AuthorID:     in.UserID,
		DepartmentID: departmentID,
	}
	if err := s.toolRepo.Create(ctx, tool); err != nil {
		return nil, err
	}
	if len(in.Tags) > 0 {
		if err := s.toolRepo.ReplaceTags(ctx, tool, in.Tags); err != nil {
			return nil, err
		}
	}
	return s.toolRepo.GetByID(ctx, tool.ID)
}

// ListTools forces the APPROVED gate for non-admin callers.
func (s *ToolService) ListTools(ctx context.Context, in ListToolsInput) (models.PaginatedResult[*models.Tool], error) {
	in.Query.Normalize()
	if !in.IsAdmin {
		in.Filter.Status = models.ToolStatusApproved
	}
	items, total, err := s.toolRepo.List(ctx, in.Filter, in.Query)
	if err != nil {
		return models.PaginatedResult[*models.Tool]{}, err
	}
	return models.NewPaginatedResult(items, total, in.Query), nil
}

func (s *ToolService) GetTool(ctx context.Context, id uint) (*models.Tool, error) {
	tool, err := s.toolRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &models.AppError{Code: models.CodeNotFound, Message: fmt.Sprintf("Tool with ID %d not found", id)}
		}
		return nil, err
	}
	// detail view carries at most ten reviews
	if len(tool.Reviews) > 10 {
		tool.Reviews = tool.Reviews[:10]
	}
	return tool, nil
}

func (s *ToolService) UpdateTool(ctx context.Context, in UpdateToolInput) (*models.Tool, error) {
	tool, err := s.GetTool(ctx, in.ToolID)
	if err != nil {
		return nil, err
	}
	if !authz.CanMutate(in.UserID, in.UserRole, tool.AuthorID) {
		return nil, models.NewForbiddenError("无权修改此工具")
	}

	fields := map[string]interface{}{}
	if in.Name != nil {
		fields["name"] = *in.Name
	}
	if in.Description != nil {
		fields["description"] = *in.Description
	}
	if in.Category != nil {
		fields["category"] = *in.Category
	}
	if in.Type != nil {
		fields["type"] = *in.Type
	}
	if in.Price != nil {
		fields["price"] = *in.Price
	}
	if in.Icon != nil {
		fields["icon"] = *in.Icon
	}
	if in.CoverImage != nil {
		fields["cover_image"] = *in.CoverImage
	}
	if in.URL != nil {
		fields["url"] = *in.URL
	}
	if in.APIEndpoint != nil {
		fields["api_endpoint"] = *in.APIEndpoint
	}
	if in.Status != nil {
		if !authz.IsAdmin(in.UserRole) {
			return nil, models.NewForbiddenError("无权修改审核状态")
		}
		fields["status"] = *in.Status
	}
	if in.IsFeatured != nil {
		if !authz.IsAdmin(in.UserRole) {
			return nil, models.NewForbiddenError("无权设置精选工具")
		}
		fields["is_featured"] = *in.IsFeatured
	}

	if len(fields) > 0 {
		if err := s.toolRepo.UpdateFields(ctx, in.ToolID, fields); err != nil {
			return nil, err
		}
	}
	if in.Tags != nil {
		if err := s.toolRepo.ReplaceTags(ctx, tool, in.Tags); err != nil {
			return nil, err
		}
	}

	if in.Status != nil && *in.Status != tool.Status && s.notifications != nil {
		verdict := "已上架"
		if *in.Status == models.ToolStatusRejected {
			verdict = "未通过审核"
		}
		if notifyErr := s.notifications.Notify(ctx, tool.AuthorID,
			models.NotificationTypeTool,
			"工具审核结果",
			fmt.Sprintf("您提交的工具「%s」%s", tool.Name, verdict),
			fmt.Sprintf("/tools/%d", tool.ID)); notifyErr != nil {
			middleware.Logger.Warn("failed to notify tool author",
				slog.Uint64("tool_id", uint64(tool.ID)),
				slog.String("error", notifyErr.Error()))
		}
	}

	return s.toolRepo.GetByID(ctx, in.ToolID)
}

func (s *ToolService) DeleteTool(ctx context.Context, id, userID uint, role string) error {
	tool, err := s.GetTool(ctx, id)
	if err != nil {
		return err
	}
	if !authz.CanMutate(userID, role, tool.AuthorID) {
		return models.NewForbiddenError("无权删除此工具")
	}
	return s.toolRepo.Delete(ctx, id)
}

// ReviewTool adds a 1-5 star rating with an optional comment.
func (s *ToolService) ReviewTool(ctx context.Context, in ReviewToolInput) (*models.ToolReview, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, models.NewValidationError("评分必须在1到5之间")
	}
	if _, err := s.GetTool(ctx, in.ToolID); err != nil {
		return nil, err
	}

	review := &models.ToolReview{
		ToolID:  in.ToolID,
		UserID:  in.UserID,
		Rating:  in.Rating,
		Comment: in.Comment,
	}
	if err := s.toolRepo.CreateReview(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}
