package webhooks

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/buildfeed/backend/internal/models"
)

// Store is the worker's view of webhook persistence: reload a webhook at
// delivery time and record the outcome of the most recent attempt.
type Store interface {
	FindWebhook(ctx context.Context, id int) (*models.Webhook, error)
	RecordDelivery(ctx context.Context, id int, status int, at time.Time) error
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) FindWebhook(ctx context.Context, id int) (*models.Webhook, error) {
	var hook models.Webhook
	if err := s.db.WithContext(ctx).First(&hook, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWebhookNotFound
		}
		return nil, err
	}
	return &hook, nil
}

func (s *GormStore) RecordDelivery(ctx context.Context, id int, status int, at time.Time) error {
	return s.db.WithContext(ctx).Model(&models.Webhook{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_triggered_at": at,
			"last_status":       status,
		}).Error
}
