package service

import (
	"context"
	"testing"

	"aimarket/internal/models"
	"aimarket/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newDemandService(db *gorm.DB) *DemandService {
	return NewDemandService(
		repository.NewDemandRepository(db),
		repository.NewUserRepository(db),
		NewNotificationService(repository.NewNotificationRepository(db)),
	)
}

func TestDemandService_CreateDemand(t *testing.T) {
	t.Run("Department Falls Back To Publisher", func(t *testing.T) {
		db := setupTestDB(t)
		dept := createDepartment(t, db, "运营部")
		publisher := createUser(t, db, "pub@example.com", "发布者")
		require.NoError(t, db.Model(publisher).Update("department_id", dept.ID).Error)
		svc := newDemandService(db)

		demand, err := svc.CreateDemand(context.Background(), CreateDemandInput{
			UserID:      publisher.ID,
			Title:       "需要智能工单分类",
			Description: "每天有上千工单需要人工分类",
			Reward:      500,
		})
		require.NoError(t, err)
		assert.Equal(t, models.DemandStatusActive, demand.Status)
		require.NotNil(t, demand.DepartmentID)
		assert.Equal(t, dept.ID, *demand.DepartmentID)
	})

	t.Run("Validation", func(t *testing.T) {
		db := setupTestDB(t)
		svc := newDemandService(db)

		_, err := svc.CreateDemand(context.Background(), CreateDemandInput{
			UserID: 1, Title: " ", Description: "描述",
		})
		assertAppError(t, err, models.CodeValidation)

		_, err = svc.CreateDemand(context.Background(), CreateDemandInput{
			UserID: 1, Title: "标题", Description: "",
		})
		assertAppError(t, err, models.CodeValidation)
	})
}

func TestDemandService_UpdateDemand(t *testing.T) {
	t.Run("Only Publisher Or Admin May Edit", func(t *testing.T) {
		db := setupTestDB(t)
		publisher := createUser(t, db, "pub@example.com", "发布者")
		stranger := createUser(t, db, "other@example.com", "路人")
		svc := newDemandService(db)

		demand, err := svc.CreateDemand(context.Background(), CreateDemandInput{
			UserID: publisher.ID, Title: "原标题", Description: "描述",
		})
		require.NoError(t, err)

		title := "新标题"
		_, err = svc.UpdateDemand(context.Background(), UpdateDemandInput{
			DemandID: demand.ID, UserID: stranger.ID, UserRole: models.RoleUser, Title: &title,
		})
		appErr := assertAppError(t, err, models.CodeForbidden)
		assert.Equal(t, "无权修改此需求", appErr.Message)

		updated, err := svc.UpdateDemand(context.Background(), UpdateDemandInput{
			DemandID: demand.ID, UserID: publisher.ID, UserRole: models.RoleUser, Title: &title,
		})
		require.NoError(t, err)
		assert.Equal(t, "新标题", updated.Title)
	})

	t.Run("Status Change Notifies Followers", func(t *testing.T) {
		db := setupTestDB(t)
		publisher := createUser(t, db, "pub@example.com", "发布者")
		follower1 := createUser(t, db, "f1@example.com", "关注者一")
		follower2 := createUser(t, db, "f2@example.com", "关注者二")
		svc := newDemandService(db)

		demand, err := svc.CreateDemand(context.Background(), CreateDemandInput{
			UserID: publisher.ID, Title: "热门需求", Description: "描述",
		})
		require.NoError(t, err)
		require.NoError(t, svc.FollowDemand(context.Background(), demand.ID, follower1.ID))
		require.NoError(t, svc.FollowDemand(context.Background(), demand.ID, follower2.ID))

		matched := models.DemandStatusMatched
		_, err = svc.UpdateDemand(context.Background(), UpdateDemandInput{
			DemandID: demand.ID, UserID: publisher.ID, UserRole: models.RoleUser, Status: &matched,
		})
		require.NoError(t, err)

		var notifications []models.Notification
		require.NoError(t, db.Where("type = ?", models.NotificationTypeDemand).Find(&notifications).Error)
		require.Len(t, notifications, 2)
		recipients := map[uint]bool{}
		for _, n := range notifications {
			recipients[n.UserID] = true
			assert.Contains(t, n.Content, "MATCHED")
		}
		assert.True(t, recipients[follower1.ID])
		assert.True(t, recipients[follower2.ID])
	})
}

func TestDemandService_FollowUnfollow(t *testing.T) {
	db := setupTestDB(t)
	publisher := createUser(t, db, "pub@example.com", "发布者")
	follower := createUser(t, db, "fan@example.com", "关注者")
	svc := newDemandService(db)

	demand, err := svc.CreateDemand(context.Background(), CreateDemandInput{
		UserID: publisher.ID, Title: "需求", Description: "描述",
	})
	require.NoError(t, err)

	require.NoError(t, svc.FollowDemand(context.Background(), demand.ID, follower.ID))

	err = svc.FollowDemand(context.Background(), demand.ID, follower.ID)
	appErr := assertAppError(t, err, models.CodeForbidden)
	assert.Equal(t, "已关注此需求", appErr.Message)

	got, err := svc.GetDemand(context.Background(), demand.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.FollowersCount)

	// unfollowing twice is fine
	require.NoError(t, svc.UnfollowDemand(context.Background(), demand.ID, follower.ID))
	require.NoError(t, svc.UnfollowDemand(context.Background(), demand.ID, follower.ID))

	got, err = svc.GetDemand(context.Background(), demand.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.FollowersCount)

	err = svc.FollowDemand(context.Background(), 999, follower.ID)
	assertAppError(t, err, models.CodeNotFound)
}

func TestDemandService_Propose(t *testing.T) {
	t.Run("Publisher Gets Notified", func(t *testing.T) {
		db := setupTestDB(t)
		publisher := createUser(t, db, "pub@example.com", "发布者")
		proposer := createUser(t, db, "dev@example.com", "响应者")
		svc := newDemandService(db)

		demand, err := svc.CreateDemand(context.Background(), CreateDemandInput{
			UserID: publisher.ID, Title: "需求", Description: "描述",
		})
		require.NoError(t, err)

		proposal, err := svc.Propose(context.Background(), ProposeInput{
			DemandID: demand.ID, UserID: proposer.ID, Content: "我们团队可以两周内交付",
		})
		require.NoError(t, err)
		assert.NotZero(t, proposal.ID)

		var notification models.Notification
		require.NoError(t, db.Where("user_id = ?", publisher.ID).First(&notification).Error)
		assert.Equal(t, "收到新方案", notification.Title)
	})

	t.Run("Own Proposal Is Silent", func(t *testing.T) {
		db := setupTestDB(t)
		publisher := createUser(t, db, "pub@example.com", "发布者")
		svc := newDemandService(db)

		demand, err := svc.CreateDemand(context.Background(), CreateDemandInput{
			UserID: publisher.ID, Title: "需求", Description: "描述",
		})
		require.NoError(t, err)

		_, err = svc.Propose(context.Background(), ProposeInput{
			DemandID: demand.ID, UserID: publisher.ID, Content: "自己补充一个方案",
		})
		require.NoError(t, err)

		var count int64
		require.NoError(t, db.Model(&models.Notification{}).Count(&count).Error)
		assert.Zero(t, count)
	})

	t.Run("Empty Content", func(t *testing.T) {
		db := setupTestDB(t)
		svc := newDemandService(db)

		_, err := svc.Propose(context.Background(), ProposeInput{
			DemandID: 1, UserID: 1, Content: "  ",
		})
		assertAppError(t, err, models.CodeValidation)
	})
}

func TestDemandService_DeleteDemand(t *testing.T) {
	db := setupTestDB(t)
	publisher := createUser(t, db, "pub@example.com", "发布者")
	admin := createUser(t, db, "admin@example.com", "管理员")
	svc := newDemandService(db)

	demand, err := svc.CreateDemand(context.Background(), CreateDemandInput{
		UserID: publisher.ID, Title: "需求", Description: "描述",
	})
	require.NoError(t, err)

	err = svc.DeleteDemand(context.Background(), demand.ID, admin.ID, models.RoleUser)
	appErr := assertAppError(t, err, models.CodeForbidden)
	assert.Equal(t, "无权删除此需求", appErr.Message)

	// admins may remove any demand
	require.NoError(t, svc.DeleteDemand(context.Background(), demand.ID, admin.ID, models.RoleAdmin))

	_, err = svc.GetDemand(context.Background(), demand.ID)
	assertAppError(t, err, models.CodeNotFound)
}
