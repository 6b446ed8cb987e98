package handlers

import (
	"fmt"
	"strconv"

	"gorm.io/gorm"

	"github.com/forumhub/backend/internal/voting"
)

// Handler combines all handler types
type Handler struct {
	Auth    *AuthHandler
	Post    *PostHandler
	Comment *CommentHandler
	User    *UserHandler
}

// NewHandler creates a unified handler with all sub-handlers. The voting
// engine is shared between post and comment handlers so every vote goes
// through the same counter bookkeeping.
func NewHandler(db *gorm.DB) *Handler {
	engine := voting.NewEngine(voting.NewGormStore(db))

	return &Handler{
		Auth:    NewAuthHandler(db),
		Post:    NewPostHandler(db, engine),
		Comment: NewCommentHandler(db, engine),
		User:    NewUserHandler(db),
	}
}

// parseID parses a positive integer path parameter.
func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
