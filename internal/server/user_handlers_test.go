package server

import (
	"fmt"
	"net/http"
	"testing"

	"aimarket/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRoutesRequireAdmin(t *testing.T) {
	s, app, db := newTestServer(t)
	member := createTestUser(t, db, "member@example.com", "普通用户", models.RoleUser)
	memberToken := tokenFor(t, s, member)

	t.Run("Unauthenticated", func(t *testing.T) {
		resp, _ := doJSON(t, app, http.MethodGet, "/api/users/", "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("Non Admin Forbidden", func(t *testing.T) {
		resp, body := doJSON(t, app, http.MethodGet, "/api/users/", memberToken, nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Equal(t, "需要管理员权限", body["message"])
	})
}

func TestUserManagement(t *testing.T) {
	s, app, db := newTestServer(t)
	admin := createTestUser(t, db, "admin@example.com", "管理员", models.RoleAdmin)
	adminToken := tokenFor(t, s, admin)

	t.Run("Create", func(t *testing.T) {
		resp, body := doJSON(t, app, http.MethodPost, "/api/users/", adminToken, map[string]any{
			"email":    "new@example.com",
			"password": "password123",
			"name":     "新同事",
		})
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Equal(t, "new@example.com", body["email"])
		assert.Equal(t, models.RoleUser, body["role"])
	})

	t.Run("List Paginated", func(t *testing.T) {
		resp, body := doJSON(t, app, http.MethodGet, "/api/users/?page=1&limit=10", adminToken, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, float64(1), body["page"])
		assert.Equal(t, float64(10), body["limit"])
		items, ok := body["items"].([]any)
		require.True(t, ok)
		assert.NotEmpty(t, items)
	})

	t.Run("Adjust Points", func(t *testing.T) {
		target := createTestUser(t, db, "points@example.com", "积分用户", models.RoleUser)

		resp, body := doJSON(t, app, http.MethodPatch,
			fmt.Sprintf("/api/users/%d/points", target.ID), adminToken,
			map[string]any{"points": 600})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, float64(600), body["points"])
		assert.Equal(t, "初级", body["level_name"])
	})

	t.Run("Invalid ID", func(t *testing.T) {
		resp, body := doJSON(t, app, http.MethodGet, "/api/users/abc", adminToken, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "无效的 ID", body["message"])
	})

	t.Run("Delete Then Missing", func(t *testing.T) {
		target := createTestUser(t, db, "bye@example.com", "离职", models.RoleUser)
		path := fmt.Sprintf("/api/users/%d", target.ID)

		resp, body := doJSON(t, app, http.MethodDelete, path, adminToken, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "用户已删除", body["message"])

		resp, _ = doJSON(t, app, http.MethodGet, path, adminToken, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestDepartmentsPublic(t *testing.T) {
	_, app, db := newTestServer(t)
	require.NoError(t, db.Create(&models.Department{Name: "技术部"}).Error)

	resp, _ := doJSON(t, app, http.MethodGet, "/api/departments", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
