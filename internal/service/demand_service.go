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

type DemandService struct {
	demandRepo    repository.DemandRepository
	userRepo      repository.UserRepository
	notifications *NotificationService
}

type CreateDemandInput struct {
	UserID       uint
	Title        string
	Description  string
	Category     string
	ExpectedTime string
	Reward       float64
	DepartmentID *uint
}

type ListDemandsInput struct {
	Filter repository.DemandFilter
	Query  models.PageQuery
}

type UpdateDemandInput struct {
	DemandID     uint
	UserID       uint
	UserRole     string
	Title        *string
	Description  *string
	Category     *string
	ExpectedTime *string
	Reward       *float64
	Status       *string
}

type ProposeInput struct {
	DemandID uint
	UserID   uint
	Content  string
}

func NewDemandService(
	demandRepo repository.DemandRepository,
	userRepo repository.UserRepository,
	notifications *NotificationService,
) *DemandService {
	return &DemandService{
		demandRepo:    demandRepo,
		userRepo:      userRepo,
		notifications: notifications,
	}
}

func (s *DemandService) CreateDemand(ctx context.Context, in CreateDemandInput) (*models.Demand, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, models.NewValidationError("需求标题不能为空")
	}
	if strings.TrimSpace(in.Description) == "" {
		return nil, models.NewValidationError("需求描述不能为空")
	}

	departmentID := in.DepartmentID
	if departmentID == nil {
		// fall back to the publisher's own department
		if user, err := s.userRepo.GetByID(ctx, in.UserID); err == nil && user.DepartmentID != nil {
			departmentID = user.DepartmentID
		}
	}

	demand := &models.Demand{
		Title:        strings.TrimSpace(in.Title),
		Description:  in.Description,
		Category:     in.Category,
		ExpectedTime: in.ExpectedTime,
		Reward:       in.Reward,
		Status:       models.DemandStatusActive,
		PublisherID:  in.UserID,
		DepartmentID: departmentID,
	}
	if err := s.demandRepo.Create(ctx, demand); err != nil {
		return nil, err
	}
	return s.demandRepo.GetByID(ctx, demand.ID)
}

func (s *DemandService) ListDemands(ctx context.Context, in ListDemandsInput) (models.PaginatedResult[*models.Demand], error) {
	in.Query.Normalize()
	items, total, err := s.demandRepo.List(ctx, in.Filter, in.Query)
	if err != nil {
		return models.PaginatedResult[*models.Demand]{}, err
	}
	return models.NewPaginatedResult(items, total, in.Query), nil
}

func (s *DemandService) GetDemand(ctx context.Context, id uint) (*models.Demand, error) {
	demand, err := s.demandRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("需求", id)
		}
		return nil, err
	}
	return demand, nil
}

func (s *DemandService) UpdateDemand(ctx context.Context, in UpdateDemandInput) (*models.Demand, error) {
	demand, err := s.GetDemand(ctx, in.DemandID)
	if err != nil {
		return nil, err
	}
	if !authz.CanMutate(in.UserID, in.UserRole, demand.PublisherID) {
		return nil, models.NewForbiddenError("无权修改此需求")
	}

	fields := map[string]interface{}{}
	if in.Title != nil {
		fields["title"] = *in.Title
	}
	if in.Description != nil {
		fields["description"] = *in.Description
	}
	if in.Category != nil {
		fields["category"] = *in.Category
	}
	if in.ExpectedTime != nil {
		fields["expected_time"] = *in.ExpectedTime
	}
	if in.Reward != nil {
		fields["reward"] = *in.Reward
	}
	if in.Status != nil {
		fields["status"] = *in.Status
	}

	if len(fields) > 0 {
		if err := s.demandRepo.UpdateFields(ctx, in.DemandID, fields); err != nil {
			return nil, err
		}
	}

	// a closed or matched demand is news for its followers
	if in.Status != nil && *in.Status != demand.Status && s.notifications != nil {
		if ids, listErr := s.demandRepo.ListFollowerIDs(ctx, in.DemandID); listErr == nil && len(ids) > 0 {
			if notifyErr := s.notifications.NotifyMany(ctx, ids,
				models.NotificationTypeDemand,
				"需求状态更新",
				fmt.Sprintf("您关注的需求「%s」状态已更新为 %s", demand.Title, *in.Status),
				fmt.Sprintf("/demands/%d", demand.ID)); notifyErr != nil {
				middleware.Logger.Warn("failed to notify demand followers",
					slog.Uint64("demand_id", uint64(demand.ID)),
					slog.String("error", notifyErr.Error()))
			}
		}
	}

	return s.demandRepo.GetByID(ctx, in.DemandID)
}

func (s *DemandService) DeleteDemand(ctx context.Context, id, userID uint, role string) error {
	demand, err := s.GetDemand(ctx, id)
	if err != nil {
		return err
	}
	if !authz.CanMutate(userID, role, demand.PublisherID) {
		return models.NewForbiddenError("无权删除此需求")
	}
	return s.demandRepo.Delete(ctx, id)
}

// FollowDemand subscribes the user; a second follow is rejected.
func (s *DemandService) FollowDemand(ctx context.Context, demandID, userID uint) error {
	if _, err := s.GetDemand(ctx, demandID); err != nil {
		return err
	}
	err := s.demandRepo.Follow(ctx, userID, demandID)
	if errors.Is(err, repository.ErrAlreadyFollowing) {
		return models.NewForbiddenError("已关注此需求")
	}
	return err
}

// UnfollowDemand is idempotent.
func (s *DemandService) UnfollowDemand(ctx context.Context, demandID, userID uint) error {
	err := s.demandRepo.Unfollow(ctx, userID, demandID)
	if errors.Is(err, repository.ErrNotFollowing) {
		return nil
	}
	return err
}

// Propose submits an offer to fulfil the demand and alerts its publisher.
func (s *DemandService) Propose(ctx context.Context, in ProposeInput) (*models.DemandProposal, error) {
	if strings.TrimSpace(in.Content) == "" {
		return nil, models.NewValidationError("方案内容不能为空")
	}

	demand, err := s.GetDemand(ctx, in.DemandID)
	if err != nil {
		return nil, err
	}

	proposal := &models.DemandProposal{
		DemandID:   in.DemandID,
		ProposerID: in.UserID,
		Content:    in.Content,
	}
	if err := s.demandRepo.CreateProposal(ctx, proposal); err != nil {
		return nil, err
	}

	if s.notifications != nil && demand.PublisherID != in.UserID {
		if notifyErr := s.notifications.Notify(ctx, demand.PublisherID,
			models.NotificationTypeDemand,
			"收到新方案",
			fmt.Sprintf("您发布的需求「%s」收到了新的响应方案", demand.Title),
			fmt.Sprintf("/demands/%d", demand.ID)); notifyErr != nil {
			middleware.Logger.Warn("failed to notify demand publisher",
				slog.Uint64("demand_id", uint64(demand.ID)),
				slog.String("error", notifyErr.Error()))
		}
	}

	return proposal, nil
}
