package comments_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forumhub/backend/internal/comments"
	"github.com/forumhub/backend/internal/models"
)

func ptr(i int) *int { return &i }

func TestBuildForestNestsChain(t *testing.T) {
	t.Parallel()

	list := []models.Comment{
		{ID: 1, Depth: 0},
		{ID: 2, ParentCommentID: ptr(1), Depth: 1},
		{ID: 3, ParentCommentID: ptr(2), Depth: 2},
	}

	forest := comments.BuildForest(list)
	require.Len(t, forest, 1)
	assert.Equal(t, 1, forest[0].ID)
	require.Len(t, forest[0].Replies, 1)
	assert.Equal(t, 2, forest[0].Replies[0].ID)
	require.Len(t, forest[0].Replies[0].Replies, 1)
	assert.Equal(t, 3, forest[0].Replies[0].Replies[0].ID)
}

func TestBuildForestMissingParentBecomesRoot(t *testing.T) {
	t.Parallel()

	// Parent id 1 is absent from the input window.
	list := []models.Comment{
		{ID: 2, ParentCommentID: ptr(1), Depth: 1},
		{ID: 3, ParentCommentID: ptr(2), Depth: 2},
	}

	forest := comments.BuildForest(list)
	require.Len(t, forest, 1)
	assert.Equal(t, 2, forest[0].ID)
	require.Len(t, forest[0].Replies, 1)
	assert.Equal(t, 3, forest[0].Replies[0].ID)
}

func TestBuildForestPreservesSiblingOrder(t *testing.T) {
	t.Parallel()

	// Input is pre-sorted (e.g. by score desc); siblings must keep that order.
	list := []models.Comment{
		{ID: 1},
		{ID: 4, ParentCommentID: ptr(1), Score: 9},
		{ID: 2, ParentCommentID: ptr(1), Score: 5},
		{ID: 3, ParentCommentID: ptr(1), Score: 1},
		{ID: 5},
	}

	forest := comments.BuildForest(list)
	require.Len(t, forest, 2)
	assert.Equal(t, 1, forest[0].ID)
	assert.Equal(t, 5, forest[1].ID)

	ids := []int{}
	for _, n := range forest[0].Replies {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []int{4, 2, 3}, ids)
}

func TestBuildForestKeepsDeletedPlaceholders(t *testing.T) {
	t.Parallel()

	list := []models.Comment{
		{ID: 1, IsDeleted: true},
		{ID: 2, ParentCommentID: ptr(1)},
	}

	forest := comments.BuildForest(list)
	require.Len(t, forest, 1)
	assert.True(t, forest[0].IsDeleted)
	require.Len(t, forest[0].Replies, 1)
	assert.Equal(t, 2, forest[0].Replies[0].ID)
}

func TestBuildForestEmptyInput(t *testing.T) {
	t.Parallel()

	assert.Empty(t, comments.BuildForest(nil))
	assert.NotNil(t, comments.BuildForest(nil))
}

func TestChildDepth(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, comments.ChildDepth(nil))
	assert.Equal(t, 1, comments.ChildDepth(&models.Comment{Depth: 0}))
	assert.Equal(t, models.MaxCommentDepth,
		comments.ChildDepth(&models.Comment{Depth: models.MaxCommentDepth}))
	assert.Equal(t, models.MaxCommentDepth,
		comments.ChildDepth(&models.Comment{Depth: models.MaxCommentDepth - 1}))
}
