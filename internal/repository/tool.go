package repository

import (
	"context"

	"aimarket/internal/models"

	"gorm.io/gorm"
)

var toolSortColumns = map[string]string{
	"createdAt": "tools.created_at",
	"name":      "tools.name",
	"price":     "tools.price",
}

// ToolFilter narrows tool listings.
type ToolFilter struct {
	Category string
	Type     string
	Status   string
	AuthorID uint
	Featured *bool
	Search   string
}

// ToolRepository defines the interface for tool data operations
type ToolRepository interface {
	Create(ctx context.Context, tool *models.Tool) error
	GetByID(ctx context.Context, id uint) (*models.Tool, error)
	List(ctx context.Context, filter ToolFilter, q models.PageQuery) ([]*models.Tool, int64, error)
	Update(ctx context.Context, tool *models.Tool) error
	UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error
	Delete(ctx context.Context, id uint) error
	CreateReview(ctx context.Context, review *models.ToolReview) error
	ReplaceTags(ctx context.Context, tool *models.Tool, names []string) error
}

type toolRepository struct {
	db *gorm.DB
}

// NewToolRepository creates a new tool repository
func NewToolRepository(db *gorm.DB) ToolRepository {
	return &toolRepository{db: db}
}

func (r *toolRepository) Create(ctx context.Context, tool *models.Tool) error {
	return r.db.WithContext(ctx).Create(tool).Error
}

func (r *toolRepository) GetByID(ctx context.Context, id uint) (*models.Tool, error) {
	var tool models.Tool
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Department").
		Preload("Tags").
		Preload("Reviews").
		Preload("Reviews.User").
		First(&tool, id).Error
	if err != nil {
		return nil, err
	}
	return &tool, nil
}

func (r *toolRepository) List(ctx context.Context, filter ToolFilter, q models.PageQuery) ([]*models.Tool, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.Tool{})

	if filter.Category != "" {
		base = base.Where("tools.category = ?", filter.Category)
	}
	if filter.Type != "" {
		base = base.Where("tools.type = ?", filter.Type)
	}
	if filter.Status != "" {
		base = base.Where("tools.status = ?", filter.Status)
	}
	if filter.AuthorID != 0 {
		base = base.Where("tools.author_id = ?", filter.AuthorID)
	}
	if filter.Featured != nil {
		base = base.Where("tools.is_featured = ?", *filter.Featured)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		base = base.Where("LOWER(tools.name) LIKE LOWER(?) OR LOWER(tools.description) LIKE LOWER(?)", like, like)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var tools []*models.Tool
	err := applySort(base.Preload("Author").Preload("Tags"), q.Sort, toolSortColumns).
		Limit(q.Limit).
		Offset(q.Offset()).
		Find(&tools).Error
	if err != nil {
		return nil, 0, err
	}
	return tools, total, nil
}

func (r *toolRepository) Update(ctx context.Context, tool *models.Tool) error {
	return r.db.WithContext(ctx).Omit("Tags", "Reviews").Save(tool).Error
}

func (r *toolRepository) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&models.Tool{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *toolRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Tool{}, id).Error
}

func (r *toolRepository) CreateReview(ctx context.Context, review *models.ToolReview) error {
	return r.db.WithContext(ctx).Create(review).Error
}

// ReplaceTags resolves tag names (creating missing ones) and replaces the
// tool's tag associations.
func (r *toolRepository) ReplaceTags(ctx context.Context, tool *models.Tool, names []string) error {
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
	return r.db.WithContext(ctx).Model(tool).Association("Tags").Replace(tags)
}
