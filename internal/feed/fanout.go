package feed

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/buildfeed/backend/internal/models"
	"github.com/buildfeed/backend/internal/webhooks"
)

// PostVotedPayload is the post.voted delivery body.
type PostVotedPayload struct {
	PostID   int `json:"post_id"`
	VoterID  int `json:"voter_id"`
	Value    int `json:"value"`
	NewScore int `json:"new_score"`
}

// UserFollowedPayload is the user.followed delivery body.
type UserFollowedPayload struct {
	UserID     int `json:"user_id"`
	FollowerID int `json:"follower_id"`
}

// fanout enqueues one delivery task per active webhook of the owning user
// that subscribes to the event. Zero matches is not an error; failures are
// logged and never reach the triggering request.
func (s *Service) fanout(ctx context.Context, ownerID int, event string, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error().Err(err).Str("event", event).Msg("marshalling webhook payload failed")
		return
	}

	var hooks []models.Webhook
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND active = ?", ownerID, true).
		Find(&hooks).Error; err != nil {
		s.logger.Error().Err(err).Str("event", event).Msg("loading webhooks failed")
		return
	}

	for _, hook := range hooks {
		if !hook.SubscribedTo(event) {
			continue
		}
		s.dispatcher.Enqueue(webhooks.Task{
			ID:        uuid.New().String(),
			WebhookID: hook.ID,
			Event:     event,
			Payload:   body,
		})
	}
}

func (s *Service) fanoutPostCreated(ctx context.Context, post *models.Post) {
	s.fanout(ctx, post.UserID, models.EventPostCreated, post)
}

func (s *Service) fanoutPostVoted(ctx context.Context, post *models.Post, vote *models.Vote, newScore int) {
	s.fanout(ctx, post.UserID, models.EventPostVoted, PostVotedPayload{
		PostID:   post.ID,
		VoterID:  vote.UserID,
		Value:    vote.Value,
		NewScore: newScore,
	})
}

func (s *Service) fanoutUserFollowed(ctx context.Context, follow *models.Follow) {
	s.fanout(ctx, follow.FollowedID, models.EventUserFollowed, UserFollowedPayload{
		UserID:     follow.FollowedID,
		FollowerID: follow.FollowerID,
	})
}
