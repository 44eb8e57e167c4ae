package repository

import (
	"context"
	"testing"

	"aimarket/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToolRepository_CreateGetAndReviews(t *testing.T) {
	db := setupTestDB(t)
	repo := NewToolRepository(db)
	ctx := context.Background()
	author := createTestUser(t, db, "author@example.com")
	reviewer := createTestUser(t, db, "reviewer@example.com")

	tool := &models.Tool{
		Name:        "文档摘要器",
		Description: "长文档一键生成摘要",
		Category:    "文本处理",
		Type:        models.ToolTypeInternal,
		AuthorID:    author.ID,
	}
	require.NoError(t, repo.Create(ctx, tool))
	assert.Equal(t, models.ToolStatusPending, mustGetTool(t, repo, ctx, tool.ID).Status)

	require.NoError(t, repo.ReplaceTags(ctx, tool, []string{"摘要", "LLM"}))
	require.NoError(t, repo.CreateReview(ctx, &models.ToolReview{
		ToolID:  tool.ID,
		UserID:  reviewer.ID,
		Rating:  5,
		Comment: "非常好用",
	}))

	got := mustGetTool(t, repo, ctx, tool.ID)
	assert.Len(t, got.Tags, 2)
	require.Len(t, got.Reviews, 1)
	assert.Equal(t, 5, got.Reviews[0].Rating)
	require.NotNil(t, got.Reviews[0].User)
	assert.Equal(t, reviewer.ID, got.Reviews[0].User.ID)
}

func mustGetTool(t *testing.T, repo ToolRepository, ctx context.Context, id uint) *models.Tool {
	t.Helper()
	tool, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	return tool
}

func TestToolRepository_ListForcesStatusFilter(t *testing.T) {
	db := setupTestDB(t)
	repo := NewToolRepository(db)
	ctx := context.Background()
	author := createTestUser(t, db, "author@example.com")

	require.NoError(t, repo.Create(ctx, &models.Tool{
		Name: "已上架", Description: "d", AuthorID: author.ID,
		Status: models.ToolStatusApproved, Type: models.ToolTypeInternal,
	}))
	require.NoError(t, repo.Create(ctx, &models.Tool{
		Name: "待审核", Description: "d", AuthorID: author.ID,
		Status: models.ToolStatusPending, Type: models.ToolTypeExternal,
	}))

	q := models.PageQuery{Page: 1, Limit: 20}

	items, total, err := repo.List(ctx, ToolFilter{Status: models.ToolStatusApproved}, q)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, "已上架", items[0].Name)

	t.Run("By Type", func(t *testing.T) {
		_, total, err := repo.List(ctx, ToolFilter{Type: models.ToolTypeExternal}, q)
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
	})

	t.Run("Search", func(t *testing.T) {
		_, total, err := repo.List(ctx, ToolFilter{Search: "上架"}, q)
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
	})
}
