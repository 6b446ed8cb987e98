package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/forumhub/backend/internal/comments"
	"github.com/forumhub/backend/internal/models"
	"github.com/forumhub/backend/internal/voting"
)

type CommentHandler struct {
	db     *gorm.DB
	engine *voting.Engine
}

func NewCommentHandler(db *gorm.DB, engine *voting.Engine) *CommentHandler {
	return &CommentHandler{db: db, engine: engine}
}

func extractUserID(c *gin.Context) (int, bool) {
	raw, exists := c.Get("user_id")
	if !exists {
		return 0, false
	}
	switch v := raw.(type) {
	case int:
		return v, true
	case uint:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

// commentOrder maps the sort query param onto a SQL order for the flat
// list. Sorting happens before assembly; the tree builder only nests.
func commentOrder(sort string) string {
	switch sort {
	case "new":
		return "created_at desc"
	case "old":
		return "created_at asc"
	default: // best
		return "score desc, created_at asc"
	}
}

// GetComments returns a post's comments as a nested reply forest, ordered
// by ?sort=best|new|old (best by default)
func (h *CommentHandler) GetComments(c *gin.Context) {
	postID := c.Param("id")
	var list []models.Comment

	if err := h.db.Where("post_id = ?", postID).Preload("User").Order(commentOrder(c.Query("sort"))).Find(&list).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch comments"})
		return
	}

	// Deleted comments stay in the forest so replies keep their position,
	// but their content is hidden.
	for i := range list {
		if list[i].IsDeleted {
			list[i].Body = "[deleted]"
			list[i].User = models.User{}
			list[i].AuthorID = 0
		}
	}

	c.JSON(http.StatusOK, comments.BuildForest(list))
}

// CreateComment creates a new comment on a post, optionally as a reply
func (h *CommentHandler) CreateComment(c *gin.Context) {
	var input struct {
		Body            string `json:"body" binding:"required"`
		ParentCommentID *int   `json:"parent_comment_id"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	postID := c.Param("id")
	authorID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	// Verify post exists
	var post models.Post
	if err := h.db.First(&post, postID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	// Depth comes from the parent at creation time and never changes,
	// capped so pathological reply chains render flat instead of crashing
	// the client.
	depth := 0
	if input.ParentCommentID != nil {
		var parent models.Comment
		if err := h.db.Where("id = ? AND post_id = ?", *input.ParentCommentID, post.ID).First(&parent).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Parent comment not found"})
			return
		}
		if parent.IsDeleted {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot reply to a deleted comment"})
			return
		}
		depth = comments.ChildDepth(&parent)
	}

	comment := models.Comment{
		Body:            input.Body,
		PostID:          post.ID,
		AuthorID:        authorID,
		ParentCommentID: input.ParentCommentID,
		Depth:           depth,
	}

	if err := h.db.Create(&comment).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create comment"})
		return
	}

	h.db.Preload("User").First(&comment, comment.ID)
	c.JSON(http.StatusCreated, comment)
}

// UpdateComment updates a comment (owner only)
func (h *CommentHandler) UpdateComment(c *gin.Context) {
	commentID := c.Param("commentId")

	authorID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input struct {
		Body string `json:"body" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var comment models.Comment
	if err := h.db.Where("is_deleted = ?", false).First(&comment, commentID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
		return
	}

	if comment.AuthorID != authorID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only edit your own comments"})
		return
	}

	comment.Body = input.Body
	h.db.Save(&comment)
	h.db.Preload("User").First(&comment, comment.ID)

	c.JSON(http.StatusOK, comment)
}

// DeleteComment soft-deletes a comment (owner only). The row is kept as a
// placeholder so replies don't get orphaned out of the thread.
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	commentID := c.Param("commentId")

	authorID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var comment models.Comment
	if err := h.db.Where("is_deleted = ?", false).First(&comment, commentID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
		return
	}

	if comment.AuthorID != authorID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only delete your own comments"})
		return
	}

	err := h.db.Model(&comment).Updates(map[string]interface{}{
		"is_deleted": true,
		"body":       "",
	}).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete comment"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted successfully"})
}

// UpvoteComment — one vote per user, toggles off if same, switches if opposite
func (h *CommentHandler) UpvoteComment(c *gin.Context) {
	h.voteComment(c, voting.Upvote)
}

// DownvoteComment — one vote per user, toggles off if same, switches if opposite
func (h *CommentHandler) DownvoteComment(c *gin.Context) {
	h.voteComment(c, voting.Downvote)
}

func (h *CommentHandler) voteComment(c *gin.Context, dir voting.Direction) {
	commentID, err := parseID(c.Param("commentId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid comment ID"})
		return
	}

	voterID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	result, err := h.engine.ApplyVote(c.Request.Context(), voterID, voting.TargetComment, commentID, dir)
	if err != nil {
		renderVoteError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"action": result.Action, "message": voteMessage(result.Action)})
}
