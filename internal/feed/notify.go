package feed

import (
	"context"
	"regexp"
	"strings"

	"github.com/buildfeed/backend/internal/models"
)

var mentionPattern = regexp.MustCompile(`(?i)@([a-z0-9_]+)`)

// create is the single notification sink. Notification creation is
// best-effort: a failure is logged and never aborts the mutation that
// triggered it.
func (s *Service) createNotification(ctx context.Context, userID, actorID int, action, subjectType string, subjectID int) {
	n := models.Notification{
		UserID:      userID,
		ActorID:     actorID,
		Action:      action,
		SubjectType: subjectType,
		SubjectID:   subjectID,
	}
	if err := s.db.WithContext(ctx).Create(&n).Error; err != nil {
		s.logger.Error().Err(err).
			Int("user_id", userID).
			Str("action", action).
			Msg("creating notification failed")
	}
}

// notifyVote notifies the post owner about a freshly created upvote.
// Downvotes and self-votes never notify; the self-vote case is already
// rejected upstream.
func (s *Service) notifyVote(ctx context.Context, post *models.Post, vote *models.Vote) {
	if vote.UserID == post.UserID || !vote.Upvote() {
		return
	}
	s.createNotification(ctx, post.UserID, vote.UserID, models.ActionVoted, models.SubjectVote, vote.ID)
}

func (s *Service) notifyFollow(ctx context.Context, follow *models.Follow) {
	s.createNotification(ctx, follow.FollowedID, follow.FollowerID, models.ActionFollowed, models.SubjectFollow, follow.ID)
}

// notifyMentions scans the post body for @username tokens and notifies each
// distinct existing user once, skipping the author.
func (s *Service) notifyMentions(ctx context.Context, post *models.Post) {
	matches := mentionPattern.FindAllStringSubmatch(post.Body, -1)
	if len(matches) == 0 {
		return
	}

	seen := make(map[string]bool)
	var usernames []string
	for _, m := range matches {
		name := strings.ToLower(m[1])
		if !seen[name] {
			seen[name] = true
			usernames = append(usernames, name)
		}
	}

	var mentioned []models.User
	if err := s.db.WithContext(ctx).Where("username IN ?", usernames).Find(&mentioned).Error; err != nil {
		s.logger.Error().Err(err).Int("post_id", post.ID).Msg("resolving mentions failed")
		return
	}

	for _, user := range mentioned {
		if user.ID == post.UserID {
			continue
		}
		s.createNotification(ctx, user.ID, post.UserID, models.ActionMentioned, models.SubjectPost, post.ID)
	}
}
