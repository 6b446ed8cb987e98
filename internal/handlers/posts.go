package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/forumhub/backend/internal/models"
	"github.com/forumhub/backend/internal/ranking"
	"github.com/forumhub/backend/internal/voting"
)

type PostHandler struct {
	db     *gorm.DB
	engine *voting.Engine
}

func NewPostHandler(db *gorm.DB, engine *voting.Engine) *PostHandler {
	return &PostHandler{db: db, engine: engine}
}

// feedOrder maps the sort query param onto the stored ranking column. The
// hot score is slightly stale between votes on purpose: it's recomputed on
// every write, so reads can sort the stored value instead of rescoring the
// whole corpus per request.
func feedOrder(sort string) string {
	switch sort {
	case "top":
		return "score desc, created_at desc"
	case "new":
		return "created_at desc"
	default: // hot
		return "hot_score desc, created_at desc"
	}
}

// GetPosts returns the feed ordered by ?sort=hot|top|new (hot by default)
func (h *PostHandler) GetPosts(c *gin.Context) {
	var posts []models.Post

	if err := h.db.Preload("User").Order(feedOrder(c.Query("sort"))).Find(&posts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch posts"})
		return
	}

	responses := make([]gin.H, 0, len(posts))
	for _, post := range posts {
		responses = append(responses, postResponse(&post))
	}

	c.JSON(http.StatusOK, responses)
}

// GetPost returns a single post by ID
func (h *PostHandler) GetPost(c *gin.Context) {
	postID := c.Param("id")
	var post models.Post

	if err := h.db.Preload("User").First(&post, postID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	c.JSON(http.StatusOK, postResponse(&post))
}

// SearchPosts filters posts by title/body match, newest first
func (h *PostHandler) SearchPosts(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Search query is required"})
		return
	}

	var posts []models.Post
	pattern := "%" + query + "%"
	err := h.db.Preload("User").
		Where("title ILIKE ? OR content ILIKE ?", pattern, pattern).
		Order("created_at desc").
		Limit(50).
		Find(&posts).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Search failed"})
		return
	}

	responses := make([]gin.H, 0, len(posts))
	for _, post := range posts {
		responses = append(responses, postResponse(&post))
	}

	c.JSON(http.StatusOK, responses)
}

// CreatePost creates a new post (PROTECTED - requires authentication)
func (h *PostHandler) CreatePost(c *gin.Context) {
	var input struct {
		Title   string `json:"title" binding:"required"`
		Body    string `json:"body"`
		Content string `json:"content"`
		Image   string `json:"image"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title is required"})
		return
	}

	authorID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	// Use content or body (they're the same)
	postContent := input.Content
	if postContent == "" {
		postContent = input.Body
	}

	now := time.Now().UTC()
	post := models.Post{
		Title:     input.Title,
		Body:      postContent,
		Content:   postContent,
		Image:     input.Image,
		AuthorID:  authorID,
		UserID:    authorID,
		CreatedAt: now,
		// A fresh post has score 0, so its hot rank is the pure time term.
		HotScore: ranking.HotScore(0, now),
	}

	if err := h.db.Create(&post).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create post"})
		return
	}

	// Reload with user information
	h.db.Preload("User").First(&post, post.ID)

	c.JSON(http.StatusCreated, post)
}

// UpdatePost updates an existing post (PROTECTED - requires ownership)
func (h *PostHandler) UpdatePost(c *gin.Context) {
	postID := c.Param("id")

	currentUserID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input struct {
		Title   string `json:"title"`
		Body    string `json:"body"`
		Content string `json:"content"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var post models.Post
	if err := h.db.First(&post, postID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	// Check ownership
	if post.AuthorID != currentUserID && post.UserID != currentUserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only edit your own posts"})
		return
	}

	// Update fields
	if input.Title != "" {
		post.Title = input.Title
	}
	if input.Body != "" {
		post.Body = input.Body
		post.Content = input.Body
	}
	if input.Content != "" {
		post.Content = input.Content
		post.Body = input.Content
	}

	h.db.Save(&post)
	h.db.Preload("User").First(&post, post.ID)

	c.JSON(http.StatusOK, post)
}

// DeletePost deletes a post (PROTECTED - requires ownership)
func (h *PostHandler) DeletePost(c *gin.Context) {
	postID := c.Param("id")

	currentUserID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var post models.Post
	if err := h.db.First(&post, postID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	// Check ownership
	if post.AuthorID != currentUserID && post.UserID != currentUserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only delete your own posts"})
		return
	}

	if err := h.db.Delete(&post).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete post"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully"})
}

// VotePost applies an upvote or downvote to a post (PROTECTED). Voting the
// same direction twice removes the vote; the opposite direction flips it.
func (h *PostHandler) VotePost(c *gin.Context) {
	postID, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post ID"})
		return
	}

	voterID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input struct {
		Type string `json:"type" binding:"required,oneof=upvote downvote"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Vote type must be upvote or downvote"})
		return
	}

	result, err := h.engine.ApplyVote(c.Request.Context(), voterID, voting.TargetPost, postID, voting.Direction(input.Type))
	if err != nil {
		renderVoteError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"action": result.Action, "message": voteMessage(result.Action)})
}

// GetUserPosts returns all posts by a specific user
func (h *PostHandler) GetUserPosts(c *gin.Context) {
	userID := c.Param("id")
	var posts []models.Post

	if err := h.db.Preload("User").Where("user_id = ? OR author_id = ?", userID, userID).Order("created_at desc").Find(&posts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user posts"})
		return
	}

	c.JSON(http.StatusOK, posts)
}

func postResponse(post *models.Post) gin.H {
	return gin.H{
		"id":         post.ID,
		"title":      post.Title,
		"body":       post.Body,
		"content":    post.Content,
		"image":      post.Image,
		"user_id":    post.UserID,
		"author_id":  post.AuthorID,
		"community":  post.Community,
		"user":       post.User,
		"upvotes":    post.Upvotes,
		"downvotes":  post.Downvotes,
		"score":      post.Score,
		"hot_score":  post.HotScore,
		"comments":   post.Comments,
		"created_at": post.CreatedAt,
		"updated_at": post.UpdatedAt,
	}
}

func voteMessage(action voting.Action) string {
	switch action {
	case voting.ActionRemoved:
		return "Vote removed"
	case voting.ActionChanged:
		return "Vote updated"
	default:
		return "Vote recorded"
	}
}

func renderVoteError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, voting.ErrTargetNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Target not found"})
	case errors.Is(err, voting.ErrInvalidDirection), errors.Is(err, voting.ErrInvalidTarget):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid vote"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to vote"})
	}
}
