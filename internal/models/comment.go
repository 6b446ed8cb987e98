package models

import "time"

// MaxCommentDepth caps how deep replies nest. Depth is assigned once at
// creation and never changes afterwards, even if the parent is later deleted.
const MaxCommentDepth = 10

type Comment struct {
	ID              int    `gorm:"primaryKey" json:"id"`
	Body            string `gorm:"not null" json:"body"`
	AuthorID        int    `json:"author_id"`
	Author          string `json:"author"`
	User            User   `gorm:"foreignKey:AuthorID" json:"user"`
	PostID          int    `gorm:"index" json:"post_id"`
	ParentCommentID *int   `json:"parent_comment_id,omitempty"`
	Depth           int    `gorm:"not null;default:0" json:"depth"`

	Upvotes   int `gorm:"not null;default:0" json:"upvotes"`
	Downvotes int `gorm:"not null;default:0" json:"downvotes"`
	Score     int `gorm:"not null;default:0" json:"score"`

	// Soft delete: the row stays so replies keep their place in the thread.
	// Read paths hide the body, they never drop the node.
	IsDeleted bool `gorm:"not null;default:false" json:"is_deleted"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateCommentRequest struct {
	Body            string `json:"body"`
	PostID          int    `json:"post_id"`
	ParentCommentID *int   `json:"parent_comment_id,omitempty"`
}
