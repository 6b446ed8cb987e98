package models

import "time"

type Post struct {
	ID          int    `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"not null" json:"title"`
	Body        string `json:"body,omitempty"`
	Content     string `json:"content"`
	Image       string `json:"image"`
	UserID      int    `json:"user_id"`
	AuthorID    int    `json:"author_id"`
	Author      string `json:"author"`
	CommunityID int    `json:"community_id"`
	Community   string `json:"community"`
	Comments    int    `json:"comments"`

	// Vote counters. The voting engine is the only writer of these four
	// fields; read paths use the stored values instead of recounting votes.
	Upvotes   int     `gorm:"not null;default:0" json:"upvotes"`
	Downvotes int     `gorm:"not null;default:0" json:"downvotes"`
	Score     int     `gorm:"not null;default:0" json:"score"`
	HotScore  float64 `gorm:"not null;default:0;index" json:"hot_score"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	User      User      `gorm:"foreignKey:UserID" json:"user"`
}

type CreatePostRequest struct {
	Title       string `json:"title"`
	Body        string `json:"body"`
	CommunityID int    `json:"community_id"`
}
