package feed

import (
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/buildfeed/backend/internal/webhooks"
)

// Enqueuer is the fanout side's view of the delivery worker pool.
type Enqueuer interface {
	Enqueue(task webhooks.Task) bool
}

// Service owns the engagement write paths: vote toggling with aggregate
// recomputation, post/follow churn with counter caches, notification
// creation, and webhook fanout. Reads stay in the handlers.
type Service struct {
	db         *gorm.DB
	dispatcher Enqueuer
	limiter    *RateLimiter
	logger     zerolog.Logger
}

func NewService(db *gorm.DB, dispatcher Enqueuer, logger zerolog.Logger) *Service {
	return &Service{
		db:         db,
		dispatcher: dispatcher,
		limiter:    NewRateLimiter(VoteRateLimit, VoteRateWindow),
		logger:     logger,
	}
}
