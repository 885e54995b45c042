package models

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Webhook event vocabulary. Fanout never emits anything outside this set.
const (
	EventPostCreated  = "post.created"
	EventPostVoted    = "post.voted"
	EventUserFollowed = "user.followed"
)

var WebhookEvents = []string{EventPostCreated, EventPostVoted, EventUserFollowed}

// Webhook is a subscriber endpoint owned by a user. The secret is generated
// once at creation and never exposed again; LastTriggeredAt and LastStatus
// are written only by the delivery worker.
type Webhook struct {
	ID              int        `gorm:"primaryKey" json:"id"`
	UserID          int        `gorm:"index" json:"user_id"`
	URL             string     `gorm:"not null" json:"url"`
	Secret          string     `gorm:"not null" json:"-"`
	Events          string     `gorm:"type:text;not null" json:"events"` // JSON array of event names
	Active          bool       `gorm:"default:true" json:"active"`
	LastTriggeredAt *time.Time `json:"last_triggered_at,omitempty"`
	LastStatus      int        `json:"last_status,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// EventList decodes the stored event set. A malformed value reads as empty.
func (w *Webhook) EventList() []string {
	var events []string
	if err := json.Unmarshal([]byte(w.Events), &events); err != nil {
		return nil
	}
	return events
}

func (w *Webhook) SetEventList(events []string) error {
	data, err := json.Marshal(events)
	if err != nil {
		return err
	}
	w.Events = string(data)
	return nil
}

// SubscribedTo reports whether the webhook's event set contains event.
func (w *Webhook) SubscribedTo(event string) bool {
	for _, e := range w.EventList() {
		if e == event {
			return true
		}
	}
	return false
}

// NewWebhookSecret returns 32 random bytes, hex encoded.
func NewWebhookSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate webhook secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// ValidateWebhookEvents checks that events is a non-empty subset of the
// vocabulary.
func ValidateWebhookEvents(events []string) error {
	if len(events) == 0 {
		return fmt.Errorf("events must be present")
	}
	var invalid []string
	for _, e := range events {
		known := false
		for _, v := range WebhookEvents {
			if e == v {
				known = true
				break
			}
		}
		if !known {
			invalid = append(invalid, e)
		}
	}
	if len(invalid) > 0 {
		return fmt.Errorf("contains invalid events: %s", strings.Join(invalid, ", "))
	}
	return nil
}

// ValidateWebhookURL requires an https endpoint.
func ValidateWebhookURL(url string) error {
	if !strings.HasPrefix(url, "https://") {
		return fmt.Errorf("url must use https")
	}
	return nil
}

type CreateWebhookRequest struct {
	URL    string   `json:"url"`
	Events []string `json:"events"`
}
