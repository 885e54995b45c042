package models

import "time"

// Notification actions
const (
	ActionVoted     = "voted"
	ActionFollowed  = "followed"
	ActionMentioned = "mentioned"
)

// Subject types for the notification's tagged reference
const (
	SubjectVote   = "vote"
	SubjectFollow = "follow"
	SubjectPost   = "post"
)

// Notification is an append-only in-app notification. The subject is a
// closed tagged reference: SubjectType names the table, SubjectID the row.
type Notification struct {
	ID          int       `gorm:"primaryKey" json:"id"`
	UserID      int       `gorm:"index" json:"user_id"`
	ActorID     int       `json:"actor_id"`
	Actor       User      `gorm:"foreignKey:ActorID" json:"actor,omitempty"`
	Action      string    `gorm:"type:varchar(20);not null" json:"action"`
	SubjectType string    `gorm:"type:varchar(20);not null" json:"subject_type"`
	SubjectID   int       `json:"subject_id"`
	Read        bool      `gorm:"default:false" json:"read"`
	CreatedAt   time.Time `json:"created_at"`
}
