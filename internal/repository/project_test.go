package repository

import (
	"context"
	"fmt"
	"testing"

	"aimarket/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()
	lead := createTestUser(t, db, "lead@example.com")

	project := &models.Project{
		Title:            "智能质检",
		ShortDescription: "自动质检流水线",
		Category:         "效率提升",
		ProjectLeadID:    lead.ID,
		ReviewStatus:     models.ReviewStatusApproved,
	}
	require.NoError(t, repo.Create(ctx, project))
	assert.NotZero(t, project.ID)

	got, err := repo.GetByID(ctx, project.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, "智能质检", got.Title)
	assert.Equal(t, 0, got.LikesCount)
	assert.Equal(t, 0, got.ReplicationsCount)
	require.NotNil(t, got.ProjectLead)
	assert.Equal(t, lead.ID, got.ProjectLead.ID)
}

func TestProjectRepository_LikeUnlike(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()
	user := createTestUser(t, db, "liker@example.com")

	project := &models.Project{Title: "p"}
	require.NoError(t, repo.Create(ctx, project))

	t.Run("Like", func(t *testing.T) {
		require.NoError(t, repo.Like(ctx, user.ID, project.ID))

		liked, err := repo.IsLiked(ctx, user.ID, project.ID)
		require.NoError(t, err)
		assert.True(t, liked)

		got, err := repo.GetByID(ctx, project.ID, user.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.LikesCount)
		assert.Equal(t, 1, got.Likes)
		assert.True(t, got.Liked)
	})

	t.Run("Duplicate Like", func(t *testing.T) {
		err := repo.Like(ctx, user.ID, project.ID)
		assert.ErrorIs(t, err, ErrAlreadyLiked)

		// counter untouched by the failed like
		got, err := repo.GetByID(ctx, project.ID, 0)
		require.NoError(t, err)
		assert.Equal(t, 1, got.Likes)
	})

	t.Run("Unlike", func(t *testing.T) {
		require.NoError(t, repo.Unlike(ctx, user.ID, project.ID))

		liked, err := repo.IsLiked(ctx, user.ID, project.ID)
		require.NoError(t, err)
		assert.False(t, liked)

		got, err := repo.GetByID(ctx, project.ID, 0)
		require.NoError(t, err)
		assert.Equal(t, 0, got.Likes)
		assert.Equal(t, 0, got.LikesCount)
	})

	t.Run("Unlike Without Like", func(t *testing.T) {
		err := repo.Unlike(ctx, user.ID, project.ID)
		assert.ErrorIs(t, err, ErrNotLiked)
	})
}

func TestProjectRepository_IncrementViews(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	project := &models.Project{Title: "p"}
	require.NoError(t, repo.Create(ctx, project))

	require.NoError(t, repo.IncrementViews(ctx, project.ID))
	require.NoError(t, repo.IncrementViews(ctx, project.ID))

	got, err := repo.GetByID(ctx, project.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Views)
}

func TestProjectRepository_ListFilterAndPaginate(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		p := &models.Project{
			Title:        fmt.Sprintf("项目 %d", i),
			Category:     "效率提升",
			ReviewStatus: models.ReviewStatusApproved,
		}
		require.NoError(t, repo.Create(ctx, p))
	}
	require.NoError(t, repo.Create(ctx, &models.Project{
		Title:        "待审核项目",
		Category:     "效率提升",
		ReviewStatus: models.ReviewStatusPending,
	}))

	t.Run("Filter By Review Status", func(t *testing.T) {
		q := models.PageQuery{Page: 1, Limit: 20}
		items, total, err := repo.List(ctx, ProjectFilter{ReviewStatus: models.ReviewStatusApproved}, q, 0)
		require.NoError(t, err)
		assert.EqualValues(t, 5, total)
		assert.Len(t, items, 5)
	})

	t.Run("Pagination", func(t *testing.T) {
		q := models.PageQuery{Page: 2, Limit: 2}
		items, total, err := repo.List(ctx, ProjectFilter{ReviewStatus: models.ReviewStatusApproved}, q, 0)
		require.NoError(t, err)
		assert.EqualValues(t, 5, total)
		assert.Len(t, items, 2)
	})

	t.Run("Search", func(t *testing.T) {
		q := models.PageQuery{Page: 1, Limit: 20}
		items, total, err := repo.List(ctx, ProjectFilter{Search: "待审核"}, q, 0)
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		require.Len(t, items, 1)
		assert.Equal(t, "待审核项目", items[0].Title)
	})

	t.Run("Sort By Title Asc", func(t *testing.T) {
		q := models.PageQuery{Page: 1, Limit: 3, Sort: "title:asc"}
		items, _, err := repo.List(ctx, ProjectFilter{ReviewStatus: models.ReviewStatusApproved}, q, 0)
		require.NoError(t, err)
		require.Len(t, items, 3)
		assert.Equal(t, "项目 0", items[0].Title)
	})
}

func TestProjectRepository_ReplaceDevelopersAndTags(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()
	dev1 := createTestUser(t, db, "dev1@example.com")
	dev2 := createTestUser(t, db, "dev2@example.com")

	project := &models.Project{Title: "p"}
	require.NoError(t, repo.Create(ctx, project))

	require.NoError(t, repo.ReplaceDevelopers(ctx, project.ID, []models.ProjectDeveloper{
		{UserID: dev1.ID, Role: models.DeveloperRoleLead},
		{UserID: dev2.ID, Role: models.DeveloperRoleEngineer},
	}))
	require.NoError(t, repo.ReplaceTags(ctx, project, []string{"NLP", "OCR"}))
	// re-using an existing tag must not duplicate it
	require.NoError(t, repo.ReplaceTags(ctx, project, []string{"NLP"}))

	got, err := repo.GetByID(ctx, project.ID, 0)
	require.NoError(t, err)
	assert.Len(t, got.Developers, 2)
	require.Len(t, got.Tags, 1)
	assert.Equal(t, "NLP", got.Tags[0].Name)

	var tagCount int64
	require.NoError(t, db.Model(&models.Tag{}).Count(&tagCount).Error)
	assert.EqualValues(t, 2, tagCount)
}

func TestProjectRepository_UpsertImpact(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	project := &models.Project{Title: "p"}
	require.NoError(t, repo.Create(ctx, project))

	require.NoError(t, repo.UpsertImpact(ctx, &models.ProjectImpact{
		ProjectID:  project.ID,
		Efficiency: "提升50%",
	}))
	require.NoError(t, repo.UpsertImpact(ctx, &models.ProjectImpact{
		ProjectID:  project.ID,
		Efficiency: "提升80%",
		CostSaving: "年省100万",
	}))

	got, err := repo.GetByID(ctx, project.ID, 0)
	require.NoError(t, err)
	require.NotNil(t, got.Impact)
	assert.Equal(t, "提升80%", got.Impact.Efficiency)

	var impactCount int64
	require.NoError(t, db.Model(&models.ProjectImpact{}).Count(&impactCount).Error)
	assert.EqualValues(t, 1, impactCount)
}
