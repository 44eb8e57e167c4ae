package repository

import (
	"context"

	"aimarket/internal/models"

	"gorm.io/gorm"
)

var replicationSortColumns = map[string]string{
	"createdAt": "created_at",
	"appliedAt": "applied_at",
	"urgency":   "urgency",
	"status":    "status",
}

// ReplicationFilter narrows replication listings.
type ReplicationFilter struct {
	ProjectID    uint
	ReplicatorID uint
	Status       string
	Urgency      string
}

// ReplicationRepository defines the interface for deployment request data operations
type ReplicationRepository interface {
	Create(ctx context.Context, replication *models.ProjectReplication) error
	GetByID(ctx context.Context, id uint) (*models.ProjectReplication, error)
	List(ctx context.Context, filter ReplicationFilter, q models.PageQuery) ([]*models.ProjectReplication, int64, error)
	Update(ctx context.Context, replication *models.ProjectReplication) error
	UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error
	CountForProjectAndUser(ctx context.Context, projectID, userID uint, pendingStatuses []string) (int64, error)
}

type replicationRepository struct {
	db *gorm.DB
}

// NewReplicationRepository creates a new replication repository
func NewReplicationRepository(db *gorm.DB) ReplicationRepository {
	return &replicationRepository{db: db}
}

func (r *replicationRepository) Create(ctx context.Context, replication *models.ProjectReplication) error {
	return r.db.WithContext(ctx).Create(replication).Error
}

func (r *replicationRepository) GetByID(ctx context.Context, id uint) (*models.ProjectReplication, error) {
	var replication models.ProjectReplication
	err := r.db.WithContext(ctx).
		Preload("Project").
		Preload("Replicator").
		First(&replication, id).Error
	if err != nil {
		return nil, err
	}
	return &replication, nil
}

func (r *replicationRepository) List(ctx context.Context, filter ReplicationFilter, q models.PageQuery) ([]*models.ProjectReplication, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.ProjectReplication{})

	if filter.ProjectID != 0 {
		base = base.Where("project_id = ?", filter.ProjectID)
	}
	if filter.ReplicatorID != 0 {
		base = base.Where("replicator_id = ?", filter.ReplicatorID)
	}
	if filter.Status != "" {
		base = base.Where("status = ?", filter.Status)
	}
	if filter.Urgency != "" {
		base = base.Where("urgency = ?", filter.Urgency)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var replications []*models.ProjectReplication
	err := applySort(base.Preload("Project").Preload("Replicator"), q.Sort, replicationSortColumns).
		Limit(q.Limit).
		Offset(q.Offset()).
		Find(&replications).Error
	if err != nil {
		return nil, 0, err
	}
	return replications, total, nil
}

func (r *replicationRepository) Update(ctx context.Context, replication *models.ProjectReplication) error {
	return r.db.WithContext(ctx).Save(replication).Error
}

func (r *replicationRepository) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&models.ProjectReplication{}).
		Where("id = ?", id).
		Updates(fields).Error
}

// CountForProjectAndUser counts the user's requests for a project in any of
// the given statuses, used to reject duplicate open applications.
func (r *replicationRepository) CountForProjectAndUser(ctx context.Context, projectID, userID uint, pendingStatuses []string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ProjectReplication{}).
		Where("project_id = ? AND replicator_id = ? AND status IN ?", projectID, userID, pendingStatuses).
		Count(&count).Error
	return count, err
}
