package models

import "time"

// Vote - one user's vote on one post, value -1 or +1. A user holds at most
// one vote per post; casting the same value again removes it.
type Vote struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	UserID    int       `gorm:"uniqueIndex:idx_votes_user_post" json:"user_id"`
	PostID    int       `gorm:"uniqueIndex:idx_votes_user_post" json:"post_id"`
	Value     int       `json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (v *Vote) Upvote() bool {
	return v.Value == 1
}
