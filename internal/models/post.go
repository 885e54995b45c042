package models

import "time"

type Post struct {
	ID         int    `gorm:"primaryKey" json:"id"`
	Body       string `gorm:"not null" json:"body"`
	UserID     int    `gorm:"index" json:"user_id"`
	User       User   `gorm:"foreignKey:UserID" json:"user,omitempty"`
	ParentID   *int   `gorm:"index" json:"parent_id,omitempty"`    // set for replies
	RepostOfID *int   `gorm:"index" json:"repost_of_id,omitempty"` // set for reposts

	// Vote aggregate. Written only by the vote engine, under the post row lock.
	Score      int `gorm:"default:0" json:"score"`
	VotesCount int `gorm:"default:0" json:"votes_count"`

	RepliesCount int `gorm:"default:0" json:"replies_count"`
	RepostsCount int `gorm:"default:0" json:"reposts_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Post) Reply() bool {
	return p.ParentID != nil
}

func (p *Post) Repost() bool {
	return p.RepostOfID != nil
}

type CreatePostRequest struct {
	Body       string `json:"body"`
	ParentID   *int   `json:"parent_id"`
	RepostOfID *int   `json:"repost_of_id"`
}
