package feed

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/buildfeed/backend/internal/models"
)

// CreatePost inserts the post and bumps the related counter caches in one
// transaction: the author's posts_count, the parent's replies_count for a
// reply, the target's reposts_count for a repost. Mention notifications and
// the post.created fanout run after commit and cannot roll the post back.
func (s *Service) CreatePost(ctx context.Context, userID int, req models.CreatePostRequest) (*models.Post, error) {
	if strings.TrimSpace(req.Body) == "" {
		return nil, ErrBlankBody
	}

	if req.ParentID != nil {
		var parent models.Post
		if err := s.db.WithContext(ctx).First(&parent, *req.ParentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrPostNotFound
			}
			return nil, err
		}
	}
	if req.RepostOfID != nil {
		var target models.Post
		if err := s.db.WithContext(ctx).First(&target, *req.RepostOfID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrPostNotFound
			}
			return nil, err
		}
	}

	post := models.Post{
		Body:       req.Body,
		UserID:     userID,
		ParentID:   req.ParentID,
		RepostOfID: req.RepostOfID,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&post).Error; err != nil {
			return err
		}
		if err := incrementCounter(tx, &models.User{}, userID, "posts_count"); err != nil {
			return err
		}
		if post.ParentID != nil {
			if err := incrementCounter(tx, &models.Post{}, *post.ParentID, "replies_count"); err != nil {
				return err
			}
		}
		if post.RepostOfID != nil {
			if err := incrementCounter(tx, &models.Post{}, *post.RepostOfID, "reposts_count"); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyMentions(ctx, &post)
	s.fanoutPostCreated(ctx, &post)

	return &post, nil
}

// DeletePost removes the post, its votes, and its replies and reposts
// recursively, keeping every counter cache consistent within the one
// transaction.
func (s *Service) DeletePost(ctx context.Context, postID, userID int) error {
	var post models.Post
	if err := s.db.WithContext(ctx).First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPostNotFound
		}
		return err
	}
	if post.UserID != userID {
		return ErrNotPostOwner
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deletePostTree(tx, &post); err != nil {
			return err
		}
		if post.ParentID != nil {
			if err := decrementCounter(tx, &models.Post{}, *post.ParentID, "replies_count"); err != nil {
				return err
			}
		}
		if post.RepostOfID != nil {
			if err := decrementCounter(tx, &models.Post{}, *post.RepostOfID, "reposts_count"); err != nil {
				return err
			}
		}
		return nil
	})
}

// deletePostTree destroys a post with its votes and descendant posts. The
// owner's posts_count is decremented for every post that goes away; the
// counters stored on the deleted rows themselves vanish with them.
func deletePostTree(tx *gorm.DB, post *models.Post) error {
	var children []models.Post
	if err := tx.Where("parent_id = ? OR repost_of_id = ?", post.ID, post.ID).Find(&children).Error; err != nil {
		return err
	}
	for i := range children {
		if err := deletePostTree(tx, &children[i]); err != nil {
			return err
		}
	}

	if err := tx.Where("post_id = ?", post.ID).Delete(&models.Vote{}).Error; err != nil {
		return err
	}
	if err := tx.Delete(&models.Post{}, post.ID).Error; err != nil {
		return err
	}
	return decrementCounter(tx, &models.User{}, post.UserID, "posts_count")
}
