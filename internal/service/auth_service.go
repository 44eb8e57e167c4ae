// Package service implements the application's business logic on top of the
// repository layer.
package service

import (
	"context"
	"errors"
	"time"

	"aimarket/internal/models"
	"aimarket/internal/repository"
	"aimarket/internal/validation"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// bcryptCost matches the cost the original accounts were hashed with.
const bcryptCost = 10

type AuthService struct {
	userRepo repository.UserRepository
}

type RegisterInput struct {
	Email      string
	Password   string
	Name       string
	Department string
	Position   string
}

type LoginInput struct {
	Email    string
	Password string
}

// UpdateProfileInput carries the allow-listed profile fields. Pointer fields
// distinguish "not sent" from zero values.
type UpdateProfileInput struct {
	UserID       uint
	Name         *string
	Avatar       *string
	Department   *string
	DepartmentID *uint
	Position     *string
	Phone        *string
	QrCode       *string
	QrCodeType   *string
	ShowPhone    *bool
	ShowQrCode   *bool
	FeishuID     *string
	FeishuUserID *string
	ShowFeishu   *bool
}

func NewAuthService(userRepo repository.UserRepository) *AuthService {
	return &AuthService{userRepo: userRepo}
}

// Register creates the account and returns it for auto-login.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
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
		// 401 on conflict, matching the original contract clients depend on.
		return nil, models.NewUnauthorizedError("邮箱已被注册")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Email:      in.Email,
		Password:   string(hashed),
		Name:       in.Name,
		Department: in.Department,
		Position:   in.Position,
		Role:       models.RoleUser,
		Status:     models.UserStatusActive,
		Level:      1,
		LevelName:  "新手",
	}

	// Attach the lowest-id department when the submitted name matches none.
	if dept, deptErr := s.resolveDepartment(ctx, in.Department); deptErr == nil && dept != nil {
		user.DepartmentID = &dept.ID
		if user.Department == "" {
			user.Department = dept.Name
		}
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// resolveDepartment maps a submitted department name to a row, falling back
// to the lowest-id department. A nil result means no departments exist yet.
func (s *AuthService) resolveDepartment(ctx context.Context, name string) (*models.Department, error) {
	if name != "" {
		depts, err := s.userRepo.ListDepartments(ctx)
		if err != nil {
			return nil, err
		}
		for _, d := range depts {
			if d.Name == name {
				return d, nil
			}
		}
	}
	dept, err := s.userRepo.DefaultDepartment(ctx)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return dept, err
}

// Login verifies the credentials and records the login time.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewUnauthorizedError("邮箱或密码错误")
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		return nil, models.NewUnauthorizedError("邮箱或密码错误")
	}

	now := time.Now()
	if err := s.userRepo.TouchLastLogin(ctx, user.ID, now); err != nil {
		return nil, err
	}
	user.LastLoginAt = &now
	return user, nil
}

// GetProfile loads the caller's own account.
func (s *AuthService) GetProfile(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &models.AppError{Code: models.CodeNotFound, Message: "用户不存在"}
		}
		return nil, err
	}
	return user, nil
}

// UpdateProfile applies the allow-listed fields and returns the fresh record.
func (s *AuthService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	if _, err := s.GetProfile(ctx, in.UserID); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if in.Name != nil {
		if err := validation.ValidateName(*in.Name); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
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
	if in.Phone != nil {
		fields["phone"] = *in.Phone
	}
	if in.QrCode != nil {
		fields["qr_code"] = *in.QrCode
	}
	if in.QrCodeType != nil {
		fields["qr_code_type"] = *in.QrCodeType
	}
	if in.ShowPhone != nil {
		fields["show_phone"] = *in.ShowPhone
	}
	if in.ShowQrCode != nil {
		fields["show_qr_code"] = *in.ShowQrCode
	}
	if in.FeishuID != nil {
		fields["feishu_id"] = *in.FeishuID
	}
	if in.FeishuUserID != nil {
		fields["feishu_user_id"] = *in.FeishuUserID
	}
	if in.ShowFeishu != nil {
		fields["show_feishu"] = *in.ShowFeishu
	}

	if len(fields) > 0 {
		if err := s.userRepo.UpdateFields(ctx, in.UserID, fields); err != nil {
			return nil, err
		}
	}
	return s.GetProfile(ctx, in.UserID)
}
