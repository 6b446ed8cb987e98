package models

import "time"

// Vote directions as stored in the vote_type column.
const (
	VoteUp   = 1
	VoteDown = -1
)

// Vote model - tracks individual user votes on posts and comments.
// At most one live row per (user, post) or (user, comment); toggling the
// same direction twice deletes the row. The unused target id is zero, so
// the composite unique index holds exactly one row per actor and target
// even when two identical votes race: the second insert fails and its
// transaction rolls back.
type Vote struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	UserID    int       `gorm:"uniqueIndex:idx_vote_actor_target" json:"user_id"`
	PostID    int       `gorm:"index;uniqueIndex:idx_vote_actor_target" json:"post_id"`    // non-zero for post votes
	CommentID int       `gorm:"index;uniqueIndex:idx_vote_actor_target" json:"comment_id"` // non-zero for comment votes
	VoteType  int       `json:"vote_type"`               // VoteUp or VoteDown
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
