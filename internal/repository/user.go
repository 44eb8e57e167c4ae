package repository

import (
	"context"
	"time"

	"aimarket/internal/models"

	"gorm.io/gorm"
)

var userSortColumns = map[string]string{
	"createdAt": "created_at",
	"name":      "name",
	"points":    "points",
	"level":     "level",
}

// UserFilter narrows user listings.
type UserFilter struct {
	Search       string
	Department   string
	DepartmentID uint
	Role         string
	Status       string
}

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByName(ctx context.Context, name string) (*models.User, error)
	List(ctx context.Context, filter UserFilter, q models.PageQuery) ([]*models.User, int64, error)
	Update(ctx context.Context, user *models.User) error
	UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error
	TouchLastLogin(ctx context.Context, id uint, at time.Time) error
	Delete(ctx context.Context, id uint) error
	GetDepartment(ctx context.Context, id uint) (*models.Department, error)
	DefaultDepartment(ctx context.Context) (*models.Department, error)
	ListDepartments(ctx context.Context) ([]*models.Department, error)
}

// userRepository implements UserRepository
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Preload("Dept").
		First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Preload("Dept").
		Where("email = ?", email).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByName returns the first user with the given display name. Used to
// resolve implementer names when assembling a project roster.
func (r *userRepository) GetByName(ctx context.Context, name string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, filter UserFilter, q models.PageQuery) ([]*models.User, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.User{})
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		base = base.Where("LOWER(name) LIKE LOWER(?) OR LOWER(email) LIKE LOWER(?)", like, like)
	}
	if filter.Department != "" {
		base = base.Where("LOWER(department) LIKE LOWER(?)", "%"+filter.Department+"%")
	}
	if filter.DepartmentID != 0 {
		base = base.Where("department_id = ?", filter.DepartmentID)
	}
	if filter.Role != "" {
		base = base.Where("role = ?", filter.Role)
	}
	if filter.Status != "" {
		base = base.Where("status = ?", filter.Status)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []*models.User
	err := applySort(base.Preload("Dept"), q.Sort, userSortColumns).
		Limit(q.Limit).
		Offset(q.Offset()).
		Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *userRepository) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *userRepository) TouchLastLogin(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("last_login_at", at).Error
}

func (r *userRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.User{}, id).Error
}

func (r *userRepository) GetDepartment(ctx context.Context, id uint) (*models.Department, error) {
	var dept models.Department
	if err := r.db.WithContext(ctx).First(&dept, id).Error; err != nil {
		return nil, err
	}
	return &dept, nil
}

// DefaultDepartment returns the lowest-id department, used as the fallback
// when a signup does not name one.
func (r *userRepository) DefaultDepartment(ctx context.Context) (*models.Department, error) {
	var dept models.Department
	err := r.db.WithContext(ctx).Order("id ASC").First(&dept).Error
	if err != nil {
		return nil, err
	}
	return &dept, nil
}

func (r *userRepository) ListDepartments(ctx context.Context) ([]*models.Department, error) {
	var depts []*models.Department
	err := r.db.WithContext(ctx).Order("id ASC").Find(&depts).Error
	return depts, err
}
