package service

import (
	"context"
	"testing"

	"aimarket/internal/models"
	"aimarket/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelForPoints(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name         string
		points       int
		currentLevel int
		currentName  string
		wantLevel    int
		wantName     string
	}{
		{"below first threshold keeps current", 499, 1, "新手", 1, "新手"},
		{"junior at 500", 500, 1, "新手", 2, "初级"},
		{"mid at 2000", 2000, 2, "初级", 3, "中级"},
		{"senior at 5000", 5000, 3, "中级", 4, "高级"},
		{"expert at 10000", 10000, 4, "高级", 5, "专家"},
		{"well past expert", 25000, 1, "新手", 5, "专家"},
		{"never drops below current", 100, 4, "高级", 4, "高级"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			level, name := LevelForPoints(tc.points, tc.currentLevel, tc.currentName)
			assert.Equal(t, tc.wantLevel, level)
			assert.Equal(t, tc.wantName, name)
		})
	}
}

func TestUserService_AddPoints(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "points@example.com", "积分用户")
	svc := NewUserService(repository.NewUserRepository(db))

	updated, err := svc.AddPoints(context.Background(), user.ID, 600)
	require.NoError(t, err)
	assert.Equal(t, 600, updated.Points)
	assert.Equal(t, 2, updated.Level)
	assert.Equal(t, "初级", updated.LevelName)

	updated, err = svc.AddPoints(context.Background(), user.ID, 1500)
	require.NoError(t, err)
	assert.Equal(t, 2100, updated.Points)
	assert.Equal(t, 3, updated.Level)
	assert.Equal(t, "中级", updated.LevelName)

	// spending points never demotes
	updated, err = svc.AddPoints(context.Background(), user.ID, -2000)
	require.NoError(t, err)
	assert.Equal(t, 100, updated.Points)
	assert.Equal(t, 3, updated.Level)
	assert.Equal(t, "中级", updated.LevelName)
}

func TestUserService_CreateUser(t *testing.T) {
	t.Run("Duplicate Email", func(t *testing.T) {
		db := setupTestDB(t)
		createUser(t, db, "taken@example.com", "已注册")
		svc := NewUserService(repository.NewUserRepository(db))

		_, err := svc.CreateUser(context.Background(), CreateUserInput{
			Email: "taken@example.com", Password: "secret123", Name: "新用户",
		})
		appErr := assertAppError(t, err, models.CodeValidation)
		assert.Equal(t, "该邮箱已被注册", appErr.Message)
	})

	t.Run("Default Role", func(t *testing.T) {
		db := setupTestDB(t)
		svc := NewUserService(repository.NewUserRepository(db))

		user, err := svc.CreateUser(context.Background(), CreateUserInput{
			Email: "new@example.com", Password: "secret123", Name: "新用户",
		})
		require.NoError(t, err)
		assert.Equal(t, models.RoleUser, user.Role)
		assert.Equal(t, models.UserStatusActive, user.Status)
	})

	t.Run("Admin Role Honored", func(t *testing.T) {
		db := setupTestDB(t)
		svc := NewUserService(repository.NewUserRepository(db))

		user, err := svc.CreateUser(context.Background(), CreateUserInput{
			Email: "admin@example.com", Password: "secret123", Name: "管理员", Role: models.RoleAdmin,
		})
		require.NoError(t, err)
		assert.Equal(t, models.RoleAdmin, user.Role)
	})
}

func TestUserService_UpdateUser(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "edit@example.com", "编辑对象")
	svc := NewUserService(repository.NewUserRepository(db))

	role := models.RoleAdmin
	status := models.UserStatusInactive
	updated, err := svc.UpdateUser(context.Background(), UpdateUserInput{
		UserID: user.ID,
		Role:   &role,
		Status: &status,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, updated.Role)
	assert.Equal(t, models.UserStatusInactive, updated.Status)
	assert.Equal(t, "编辑对象", updated.Name)

	t.Run("Password Is Rehashed", func(t *testing.T) {
		newPassword := "changed456"
		updated, err := svc.UpdateUser(context.Background(), UpdateUserInput{
			UserID:   user.ID,
			Password: &newPassword,
		})
		require.NoError(t, err)
		assert.NotEqual(t, "changed456", updated.Password)
		assert.NotEqual(t, user.Password, updated.Password)
	})
}

func TestUserService_DeleteUser(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "gone@example.com", "将被删除")
	svc := NewUserService(repository.NewUserRepository(db))

	require.NoError(t, svc.DeleteUser(context.Background(), user.ID))

	_, err := svc.GetUser(context.Background(), user.ID)
	assertAppError(t, err, models.CodeNotFound)

	err = svc.DeleteUser(context.Background(), user.ID)
	assertAppError(t, err, models.CodeNotFound)
}
