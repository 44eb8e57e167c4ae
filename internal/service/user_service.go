package service

import (
	"context"
	"errors"

	"aimarket/internal/models"
	"aimarket/internal/repository"
	"aimarket/internal/validation"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Points thresholds for the contributor ladder.
const (
	pointsJunior = 500
	pointsMid    = 2000
	pointsSenior = 5000
	pointsExpert = 10000
)

type UserService struct {
	userRepo repository.UserRepository
}

type CreateUserInput struct {
	Email      string
	Password   string
	Name       string
	Avatar     string
	Department string
	Position   string
	Role       string
}

type ListUsersInput struct {
	Filter repository.UserFilter
	Query  models.PageQuery
}

// UpdateUserInput lets admins edit any mutable account field.
type UpdateUserInput struct {
	UserID       uint
	Email        *string
	Password     *string
	Name         *string
	Avatar       *string
	Department   *string
	DepartmentID *uint
	Position     *string
	Role         *string
	Status       *string
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) CreateUser(ctx context.Context, in CreateUserInput) (*models.User, error) {
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateName(in.Name); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	if _, err := s.userRepo.GetByEmail(ctx, in.Email); err == nil {
		return nil, models.NewValidationError("该邮箱已被注册")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	role := in.Role
	if role == "" {
		role = models.RoleUser
	}

	user := &models.User{
		Email:      in.Email,
		Password:   string(hashed),
		Name:       in.Name,
		Avatar:     in.Avatar,
		Department: in.Department,
		Position:   in.Position,
		Role:       role,
		Status:     models.UserStatusActive,
		Level:      1,
		LevelName:  "新手",
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) ListUsers(ctx context.Context, in ListUsersInput) (models.PaginatedResult[*models.User], error) {
	in.Query.Normalize()
	items, total, err := s.userRepo.List(ctx, in.Filter, in.Query)
	if err != nil {
		return models.PaginatedResult[*models.User]{}, err
	}
	return models.NewPaginatedResult(items, total, in.Query), nil
}

func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("用户", id)
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) UpdateUser(ctx context.Context, in UpdateUserInput) (*models.User, error) {
	if _, err := s.GetUser(ctx, in.UserID); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if in.Email != nil {
		if err := validation.ValidateEmail(*in.Email); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		fields["email"] = *in.Email
	}
	if in.Password != nil {
		if err := validation.ValidatePassword(*in.Password); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcryptCost)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		fields["password"] = string(hashed)
	}
	if in.Name != nil {
		fields["name"] = *in.Name
	}
	if in.Avatar != nil {
		fields["avatar"] = *in.Avatar
	}
	if in.Department != nil {
		fields["department"] = *in.Department
	}
	if in.DepartmentID != nil {
		fields["department_id"] = *in.DepartmentID
	}
	if in.Position != nil {
		fields["position"] = *in.Position
	}
	if in.Role != nil {
		fields["role"] = *in.Role
	}
	if in.Status != nil {
		fields["status"] = *in.Status
	}

	if len(fields) > 0 {
		if err := s.userRepo.UpdateFields(ctx, in.UserID, fields); err != nil {
			return nil, err
		}
	}
	return s.GetUser(ctx, in.UserID)
}

func (s *UserService) DeleteUser(ctx context.Context, id uint) error {
	if _, err := s.GetUser(ctx, id); err != nil {
		return err
	}
	return s.userRepo.Delete(ctx, id)
}

// AddPoints credits points and recomputes the user's level from the ladder.
func (s *UserService) AddPoints(ctx context.Context, id uint, delta int) (*models.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	newPoints := user.Points + delta
	level, levelName := LevelForPoints(newPoints, user.Level, user.LevelName)

	err = s.userRepo.UpdateFields(ctx, id, map[string]interface{}{
		"points":     newPoints,
		"level":      level,
		"level_name": levelName,
	})
	if err != nil {
		return nil, err
	}
	return s.GetUser(ctx, id)
}

// LevelForPoints maps a points total to its ladder tier. Levels never drop
// below the current one.
func LevelForPoints(points, currentLevel int, currentName string) (int, string) {
	level, name := currentLevel, currentName
	switch {
	case points >= pointsExpert:
		level, name = 5, "专家"
	case points >= pointsSenior:
		level, name = 4, "高级"
	case points >= pointsMid:
		level, name = 3, "中级"
	case points >= pointsJunior:
		level, name = 2, "初级"
	}
	return level, name
}

func (s *UserService) ListDepartments(ctx context.Context) ([]*models.Department, error) {
	return s.userRepo.ListDepartments(ctx)
}
