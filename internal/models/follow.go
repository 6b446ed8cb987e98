package models

import "time"

// Follow model - one row per follower/following pair
type Follow struct {
	ID          int       `gorm:"primaryKey" json:"id"`
	FollowerID  int       `gorm:"uniqueIndex:idx_follow_pair" json:"follower_id"`
	FollowingID int       `gorm:"uniqueIndex:idx_follow_pair" json:"following_id"`
	Follower    User      `gorm:"foreignKey:FollowerID" json:"follower"`
	Following   User      `gorm:"foreignKey:FollowingID" json:"following"`
	CreatedAt   time.Time `json:"created_at"`
}
