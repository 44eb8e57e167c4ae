package repository

import (
	"context"
	"errors"

	"aimarket/internal/models"

	"gorm.io/gorm"
)

// ErrAlreadyLiked is returned when a user likes a project twice.
var ErrAlreadyLiked = errors.New("project already liked")

// ErrNotLiked is returned when a user unlikes a project they never liked.
var ErrNotLiked = errors.New("project not liked")

var projectSortColumns = map[string]string{
	"createdAt":  "projects.created_at",
	"title":      "projects.title",
	"likes":      "likes_count",
	"views":      "projects.views",
	"launchDate": "projects.launch_date",
}

// ProjectFilter narrows project listings.
type ProjectFilter struct {
	Category     string
	Status       string
	ReviewStatus string
	DepartmentID uint
	Featured     *bool
	Search       string
}

// ProjectRepository defines the interface for project data operations
type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	GetByID(ctx context.Context, id uint, currentUserID uint) (*models.Project, error)
	List(ctx context.Context, filter ProjectFilter, q models.PageQuery, currentUserID uint) ([]*models.Project, int64, error)
	Update(ctx context.Context, project *models.Project) error
	UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error
	Delete(ctx context.Context, id uint) error
	IncrementViews(ctx context.Context, id uint) error
	IsLiked(ctx context.Context, userID, projectID uint) (bool, error)
	Like(ctx context.Context, userID, projectID uint) error
	Unlike(ctx context.Context, userID, projectID uint) error
	ReplaceDevelopers(ctx context.Context, projectID uint, developers []models.ProjectDeveloper) error
	UpsertImpact(ctx context.Context, impact *models.ProjectImpact) error
	ReplaceTags(ctx context.Context, project *models.Project, names []string) error
}

// projectRepository implements ProjectRepository
type projectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{db: db}
}

// applyProjectDetails adds subqueries to fetch counts and liked status in a single query.
func (r *projectRepository) applyProjectDetails(db *gorm.DB, currentUserID uint) *gorm.DB {
	selectQuery := "projects.*, " +
		"(SELECT COUNT(*) FROM project_likes WHERE project_likes.project_id = projects.id) as likes_count, " +
		"(SELECT COUNT(*) FROM project_replications WHERE project_replications.project_id = projects.id) as replications_count"

	if currentUserID != 0 {
		return db.Select(selectQuery+", EXISTS(SELECT 1 FROM project_likes WHERE project_likes.project_id = projects.id AND project_likes.user_id = ?) as liked", currentUserID)
	}

	return db.Select(selectQuery)
}

func (r *projectRepository) Create(ctx context.Context, project *models.Project) error {
	return r.db.WithContext(ctx).Create(project).Error
}

func (r *projectRepository) GetByID(ctx context.Context, id uint, currentUserID uint) (*models.Project, error) {
	var project models.Project
	err := r.applyProjectDetails(r.db.WithContext(ctx).Model(&models.Project{}), currentUserID).
		Preload("Department").
		Preload("ProjectLead").
		Preload("Requester").
		Preload("Tags").
		Preload("Developers").
		Preload("Developers.User").
		Preload("Impact").
		First(&project, id).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *projectRepository) List(ctx context.Context, filter ProjectFilter, q models.PageQuery, currentUserID uint) ([]*models.Project, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.Project{})

	if filter.Category != "" {
		base = base.Where("projects.category = ?", filter.Category)
	}
	if filter.Status != "" {
		base = base.Where("projects.status = ?", filter.Status)
	}
	if filter.ReviewStatus != "" {
		base = base.Where("projects.review_status = ?", filter.ReviewStatus)
	}
	if filter.DepartmentID != 0 {
		base = base.Where("projects.department_id = ?", filter.DepartmentID)
	}
	if filter.Featured != nil {
		base = base.Where("projects.is_featured = ?", *filter.Featured)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		base = base.Where("LOWER(projects.title) LIKE LOWER(?) OR LOWER(projects.short_description) LIKE LOWER(?)", like, like)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var projects []*models.Project
	scoped := r.applyProjectDetails(base, currentUserID).
		Preload("Department").
		Preload("ProjectLead").
		Preload("Tags")
	err := applySort(scoped, q.Sort, projectSortColumns).
		Limit(q.Limit).
		Offset(q.Offset()).
		Find(&projects).Error
	if err != nil {
		return nil, 0, err
	}
	return projects, total, nil
}

func (r *projectRepository) Update(ctx context.Context, project *models.Project) error {
	return r.db.WithContext(ctx).Omit("Tags", "Developers", "Impact").Save(project).Error
}

func (r *projectRepository) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&models.Project{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *projectRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Project{}, id).Error
}

// IncrementViews bumps the view counter in a single UPDATE so concurrent
// reads do not lose increments.
func (r *projectRepository) IncrementViews(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).
		Model(&models.Project{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + 1")).Error
}

func (r *projectRepository) IsLiked(ctx context.Context, userID, projectID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ProjectLike{}).
		Where("user_id = ? AND project_id = ?", userID, projectID).
		Count(&count).Error
	return count > 0, err
}

// Like records the like and bumps the denormalized counter in one transaction.
func (r *projectRepository) Like(ctx context.Context, userID, projectID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.ProjectLike{}).
			Where("user_id = ? AND project_id = ?", userID, projectID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrAlreadyLiked
		}
		if err := tx.Create(&models.ProjectLike{UserID: userID, ProjectID: projectID}).Error; err != nil {
			return err
		}
		return tx.Model(&models.Project{}).
			Where("id = ?", projectID).
			UpdateColumn("likes", gorm.Expr("likes + 1")).Error
	})
}

// Unlike removes the like and decrements the counter in one transaction.
func (r *projectRepository) Unlike(ctx context.Context, userID, projectID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND project_id = ?", userID, projectID).
			Delete(&models.ProjectLike{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotLiked
		}
		return tx.Model(&models.Project{}).
			Where("id = ? AND likes > 0", projectID).
			UpdateColumn("likes", gorm.Expr("likes - 1")).Error
	})
}

// ReplaceDevelopers swaps the developer roster for a project.
func (r *projectRepository) ReplaceDevelopers(ctx context.Context, projectID uint, developers []models.ProjectDeveloper) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", projectID).Delete(&models.ProjectDeveloper{}).Error; err != nil {
			return err
		}
		if len(developers) == 0 {
			return nil
		}
		for i := range developers {
			developers[i].ProjectID = projectID
		}
		return tx.Create(&developers).Error
	})
}

func (r *projectRepository) UpsertImpact(ctx context.Context, impact *models.ProjectImpact) error {
	var existing models.ProjectImpact
	err := r.db.WithContext(ctx).
		Where("project_id = ?", impact.ProjectID).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.WithContext(ctx).Create(impact).Error
	}
	if err != nil {
		return err
	}
	impact.ID = existing.ID
	impact.CreatedAt = existing.CreatedAt
	return r.db.WithContext(ctx).Save(impact).Error
}

// ReplaceTags resolves tag names (creating missing ones) and replaces the
// project's tag associations.
func (r *projectRepository) ReplaceTags(ctx context.Context, project *models.Project, names []string) error {
	tags := make([]models.Tag, 0, len(names))
	for _, name := range names {
		var tag models.Tag
		err := r.db.WithContext(ctx).
			Where("name = ?", name).
			FirstOrCreate(&tag, models.Tag{Name: name}).Error
		if err != nil {
			return err
		}
		tags = append(tags, tag)
	}
	return r.db.WithContext(ctx).Model(project).Association("Tags").Replace(tags)
}
