package repository

import (
	"context"
	"errors"

	"aimarket/internal/models"

	"gorm.io/gorm"
)

// ErrAlreadyFollowing is returned when a user follows a demand twice.
var ErrAlreadyFollowing = errors.New("demand already followed")

// ErrNotFollowing is returned when a user unfollows a demand they never followed.
var ErrNotFollowing = errors.New("demand not followed")

var demandSortColumns = map[string]string{
	"createdAt": "demands.created_at",
	"title":     "demands.title",
	"reward":    "demands.reward",
	"followers": "followers_count",
}

// DemandFilter narrows demand listings.
type DemandFilter struct {
	Category     string
	Status       string
	PublisherID  uint
	DepartmentID uint
	Search       string
}

// DemandRepository defines the interface for demand data operations
type DemandRepository interface {
	Create(ctx context.Context, demand *models.Demand) error
	GetByID(ctx context.Context, id uint) (*models.Demand, error)
	List(ctx context.Context, filter DemandFilter, q models.PageQuery) ([]*models.Demand, int64, error)
	Update(ctx context.Context, demand *models.Demand) error
	UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error
	Delete(ctx context.Context, id uint) error
	IsFollowing(ctx context.Context, userID, demandID uint) (bool, error)
	Follow(ctx context.Context, userID, demandID uint) error
	Unfollow(ctx context.Context, userID, demandID uint) error
	CreateProposal(ctx context.Context, proposal *models.DemandProposal) error
	ListFollowerIDs(ctx context.Context, demandID uint) ([]uint, error)
}

type demandRepository struct {
	db *gorm.DB
}

// NewDemandRepository creates a new demand repository
func NewDemandRepository(db *gorm.DB) DemandRepository {
	return &demandRepository{db: db}
}

// applyDemandDetails adds subqueries to fetch follower and proposal counts in a single query.
func (r *demandRepository) applyDemandDetails(db *gorm.DB) *gorm.DB {
	return db.Select("demands.*, " +
		"(SELECT COUNT(*) FROM demand_followers WHERE demand_followers.demand_id = demands.id) as followers_count, " +
		"(SELECT COUNT(*) FROM demand_proposals WHERE demand_proposals.demand_id = demands.id) as proposals_count")
}

func (r *demandRepository) Create(ctx context.Context, demand *models.Demand) error {
	return r.db.WithContext(ctx).Create(demand).Error
}

func (r *demandRepository) GetByID(ctx context.Context, id uint) (*models.Demand, error) {
	var demand models.Demand
	err := r.applyDemandDetails(r.db.WithContext(ctx).Model(&models.Demand{})).
		Preload("Publisher").
		Preload("Department").
		Preload("Followers").
		Preload("Followers.User").
		Preload("Proposals").
		Preload("Proposals.Proposer").
		First(&demand, id).Error
	if err != nil {
		return nil, err
	}
	return &demand, nil
}

func (r *demandRepository) List(ctx context.Context, filter DemandFilter, q models.PageQuery) ([]*models.Demand, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.Demand{})

	if filter.Category != "" {
		base = base.Where("demands.category = ?", filter.Category)
	}
	if filter.Status != "" {
		base = base.Where("demands.status = ?", filter.Status)
	}
	if filter.PublisherID != 0 {
		base = base.Where("demands.publisher_id = ?", filter.PublisherID)
	}
	if filter.DepartmentID != 0 {
		base = base.Where("demands.department_id = ?", filter.DepartmentID)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		base = base.Where("LOWER(demands.title) LIKE LOWER(?) OR LOWER(demands.description) LIKE LOWER(?)", like, like)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var demands []*models.Demand
	scoped := r.applyDemandDetails(base).
		Preload("Publisher").
		Preload("Department")
	err := applySort(scoped, q.Sort, demandSortColumns).
		Limit(q.Limit).
		Offset(q.Offset()).
		Find(&demands).Error
	if err != nil {
		return nil, 0, err
	}
	return demands, total, nil
}

func (r *demandRepository) Update(ctx context.Context, demand *models.Demand) error {
	return r.db.WithContext(ctx).Omit("Followers", "Proposals").Save(demand).Error
}

func (r *demandRepository) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&models.Demand{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *demandRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Demand{}, id).Error
}

func (r *demandRepository) IsFollowing(ctx context.Context, userID, demandID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.DemandFollower{}).
		Where("user_id = ? AND demand_id = ?", userID, demandID).
		Count(&count).Error
	return count > 0, err
}

func (r *demandRepository) Follow(ctx context.Context, userID, demandID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.DemandFollower{}).
			Where("user_id = ? AND demand_id = ?", userID, demandID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrAlreadyFollowing
		}
		return tx.Create(&models.DemandFollower{UserID: userID, DemandID: demandID}).Error
	})
}

func (r *demandRepository) Unfollow(ctx context.Context, userID, demandID uint) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND demand_id = ?", userID, demandID).
		Delete(&models.DemandFollower{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFollowing
	}
	return nil
}

func (r *demandRepository) CreateProposal(ctx context.Context, proposal *models.DemandProposal) error {
	return r.db.WithContext(ctx).Create(proposal).Error
}

// ListFollowerIDs returns the ids of users following the demand, used for
// fan-out notifications.
func (r *demandRepository) ListFollowerIDs(ctx context.Context, demandID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.DemandFollower{}).
		Where("demand_id = ?", demandID).
		Pluck("user_id", &ids).Error
	return ids, err
}
