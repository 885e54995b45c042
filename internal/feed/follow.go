package feed

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/buildfeed/backend/internal/models"
)

// Follow creates the follow edge and bumps both users' counter caches in
// one transaction. The "followed" notification and the user.followed fanout
// run after commit.
func (s *Service) Follow(ctx context.Context, followerID, followedID int) (*models.Follow, error) {
	if followerID == followedID {
		return nil, ErrSelfFollow
	}

	var followed models.User
	if err := s.db.WithContext(ctx).First(&followed, followedID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	var existing models.Follow
	err := s.db.WithContext(ctx).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		First(&existing).Error
	if err == nil {
		return nil, ErrAlreadyFollowing
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	follow := models.Follow{FollowerID: followerID, FollowedID: followedID}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&follow).Error; err != nil {
			return err
		}
		if err := incrementCounter(tx, &models.User{}, followedID, "followers_count"); err != nil {
			return err
		}
		return incrementCounter(tx, &models.User{}, followerID, "following_count")
	})
	if err != nil {
		return nil, err
	}

	s.notifyFollow(ctx, &follow)
	s.fanoutUserFollowed(ctx, &follow)

	return &follow, nil
}

// Unfollow removes the edge and decrements both counters transactionally.
func (s *Service) Unfollow(ctx context.Context, followerID, followedID int) error {
	var follow models.Follow
	err := s.db.WithContext(ctx).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		First(&follow).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrFollowNotFound
		}
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&follow).Error; err != nil {
			return err
		}
		if err := decrementCounter(tx, &models.User{}, followedID, "followers_count"); err != nil {
			return err
		}
		return decrementCounter(tx, &models.User{}, followerID, "following_count")
	})
}
