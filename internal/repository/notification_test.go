package repository

import (
	"context"
	"testing"

	"aimarket/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()
	owner := createTestUser(t, db, "owner@example.com")
	other := createTestUser(t, db, "other@example.com")

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, &models.Notification{
			UserID:  owner.ID,
			Type:    models.NotificationTypeSystem,
			Title:   "系统通知",
			Content: "内容",
		}))
	}

	t.Run("Unread Count", func(t *testing.T) {
		count, err := repo.UnreadCount(ctx, owner.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 3, count)
	})

	t.Run("List Paginated", func(t *testing.T) {
		items, total, err := repo.ListByUser(ctx, owner.ID, nil, "", models.PageQuery{Page: 1, Limit: 2})
		require.NoError(t, err)
		assert.EqualValues(t, 3, total)
		assert.Len(t, items, 2)
	})

	t.Run("Mark Read Scoped To Owner", func(t *testing.T) {
		items, _, err := repo.ListByUser(ctx, owner.ID, nil, "", models.PageQuery{Page: 1, Limit: 1})
		require.NoError(t, err)
		require.Len(t, items, 1)
		target := items[0]

		affected, err := repo.MarkRead(ctx, target.ID, other.ID)
		require.NoError(t, err)
		assert.Zero(t, affected)

		affected, err = repo.MarkRead(ctx, target.ID, owner.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 1, affected)

		unread := false
		read := true
		_, unreadTotal, err := repo.ListByUser(ctx, owner.ID, &unread, "", models.PageQuery{Page: 1, Limit: 20})
		require.NoError(t, err)
		assert.EqualValues(t, 2, unreadTotal)
		_, readTotal, err := repo.ListByUser(ctx, owner.ID, &read, "", models.PageQuery{Page: 1, Limit: 20})
		require.NoError(t, err)
		assert.EqualValues(t, 1, readTotal)
	})

	t.Run("Mark All Read", func(t *testing.T) {
		affected, err := repo.MarkAllRead(ctx, owner.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 2, affected)

		count, err := repo.UnreadCount(ctx, owner.ID)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("Delete Scoped To Owner", func(t *testing.T) {
		items, _, err := repo.ListByUser(ctx, owner.ID, nil, "", models.PageQuery{Page: 1, Limit: 1})
		require.NoError(t, err)
		require.Len(t, items, 1)

		affected, err := repo.Delete(ctx, items[0].ID, other.ID)
		require.NoError(t, err)
		assert.Zero(t, affected)

		affected, err = repo.Delete(ctx, items[0].ID, owner.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 1, affected)
	})

	t.Run("Create Batch", func(t *testing.T) {
		err := repo.CreateBatch(ctx, []models.Notification{
			{UserID: owner.ID, Type: models.NotificationTypeDemand, Title: "t", Content: "c"},
			{UserID: other.ID, Type: models.NotificationTypeDemand, Title: "t", Content: "c"},
		})
		require.NoError(t, err)

		count, err := repo.UnreadCount(ctx, other.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)
	})

	t.Run("Filter By Type", func(t *testing.T) {
		_, total, err := repo.ListByUser(ctx, owner.ID, nil, models.NotificationTypeDemand, models.PageQuery{Page: 1, Limit: 20})
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
	})
}
