package server

import (
	"fmt"
	"net/http"
	"testing"

	"aimarket/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationRoutes(t *testing.T) {
	s, app, db := newTestServer(t)
	owner := createTestUser(t, db, "owner@example.com", "通知所有者", models.RoleUser)
	other := createTestUser(t, db, "other@example.com", "其他用户", models.RoleUser)
	ownerToken := tokenFor(t, s, owner)
	otherToken := tokenFor(t, s, other)

	resp, created := doJSON(t, app, http.MethodPost, "/api/notifications/", ownerToken, map[string]any{
		"title":   "系统维护",
		"content": "今晚十点例行维护",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, models.NotificationTypeSystem, created["type"])
	notificationID := int(created["id"].(float64))

	t.Run("Unread Count", func(t *testing.T) {
		resp, body := doJSON(t, app, http.MethodGet, "/api/notifications/unread-count", ownerToken, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, float64(1), body["count"])
	})

	t.Run("Owner Scoped", func(t *testing.T) {
		path := fmt.Sprintf("/api/notifications/%d", notificationID)

		resp, _ := doJSON(t, app, http.MethodGet, path, otherToken, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		resp, _ = doJSON(t, app, http.MethodPatch, path+"/read", otherToken, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		resp, _ = doJSON(t, app, http.MethodDelete, path, otherToken, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("Mark Read", func(t *testing.T) {
		resp, body := doJSON(t, app, http.MethodPatch,
			fmt.Sprintf("/api/notifications/%d/read", notificationID), ownerToken, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, true, body["is_read"])

		resp, body = doJSON(t, app, http.MethodGet, "/api/notifications/unread-count", ownerToken, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, float64(0), body["count"])
	})

	t.Run("List With Read Filter", func(t *testing.T) {
		resp, body := doJSON(t, app, http.MethodGet, "/api/notifications/?isRead=false", ownerToken, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, float64(0), body["total"])

		resp, body = doJSON(t, app, http.MethodGet, "/api/notifications/?isRead=true", ownerToken, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, float64(1), body["total"])
	})

	t.Run("Mark All Read", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			resp, _ := doJSON(t, app, http.MethodPost, "/api/notifications/", ownerToken, map[string]any{
				"title":   "批量通知",
				"content": fmt.Sprintf("第 %d 条", i+1),
			})
			require.Equal(t, http.StatusCreated, resp.StatusCode)
		}

		resp, body := doJSON(t, app, http.MethodPatch, "/api/notifications/read-all", ownerToken, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, float64(3), body["updated"])
	})

	t.Run("Delete", func(t *testing.T) {
		path := fmt.Sprintf("/api/notifications/%d", notificationID)

		resp, body := doJSON(t, app, http.MethodDelete, path, ownerToken, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "通知已删除", body["message"])

		resp, _ = doJSON(t, app, http.MethodGet, path, ownerToken, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestHealthEndpoints(t *testing.T) {
	_, app, _ := newTestServer(t)

	t.Run("Liveness", func(t *testing.T) {
		resp, body := doJSON(t, app, http.MethodGet, "/health/live", "", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "up", body["status"])
	})

	t.Run("Readiness", func(t *testing.T) {
		resp, body := doJSON(t, app, http.MethodGet, "/health/ready", "", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "healthy", body["status"])

		checks, ok := body["checks"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "healthy", checks["database"])
		assert.Equal(t, "unavailable", checks["redis"])
	})
}
