package models

import "time"

// Follow model
type Follow struct {
	ID         int       `gorm:"primaryKey" json:"id"`
	FollowerID int       `gorm:"uniqueIndex:idx_follows_pair" json:"follower_id"`
	FollowedID int       `gorm:"uniqueIndex:idx_follows_pair" json:"followed_id"`
	Follower   User      `gorm:"foreignKey:FollowerID" json:"follower,omitempty"`
	Followed   User      `gorm:"foreignKey:FollowedID" json:"followed,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
