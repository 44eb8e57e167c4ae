package service

import (
	"testing"

	"aimarket/internal/database"
	"aimarket/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate database: %v", err)
	}

	return db
}

func createDepartment(t *testing.T, db *gorm.DB, name string) *models.Department {
	t.Helper()
	dept := &models.Department{Name: name}
	if err := db.Create(dept).Error; err != nil {
		t.Fatalf("Failed to create department: %v", err)
	}
	return dept
}

func createUser(t *testing.T, db *gorm.DB, email, name string) *models.User {
	t.Helper()
	user := &models.User{
		Email:     email,
		Password:  "hashed",
		Name:      name,
		Role:      models.RoleUser,
		Status:    models.UserStatusActive,
		Level:     1,
		LevelName: "新手",
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	return user
}

// createUserWithPassword stores a real bcrypt hash so Login can verify it.
func createUserWithPassword(t *testing.T, db *gorm.DB, email, name, password string) *models.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	user := &models.User{
		Email:     email,
		Password:  string(hashed),
		Name:      name,
		Role:      models.RoleUser,
		Status:    models.UserStatusActive,
		Level:     1,
		LevelName: "新手",
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	return user
}

func assertAppError(t *testing.T, err error, code string) *models.AppError {
	t.Helper()
	if err == nil {
		t.Fatalf("Expected an error with code %s, got nil", code)
	}
	appErr, ok := err.(*models.AppError)
	if !ok {
		t.Fatalf("Expected *models.AppError, got %T: %v", err, err)
	}
	if appErr.Code != code {
		t.Fatalf("Expected error code %s, got %s (%s)", code, appErr.Code, appErr.Message)
	}
	return appErr
}
