package feed

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/buildfeed/backend/internal/models"
)

// VoteResult is what the controller layer hands back to the caller: the
// post's recomputed score and the vote the user now holds, nil when the
// toggle left them with none.
type VoteResult struct {
	PostID  int  `json:"post_id"`
	Score   int  `json:"score"`
	Voted   *int `json:"voted"`
	Created bool `json:"-"`
}

// CastVote runs the toggle state machine for (userID, postID):
//
//	no vote        -> cast v       -> vote(v)
//	vote(v)        -> cast v       -> no vote (row deleted)
//	vote(v)        -> cast v' != v -> vote(v')
//
// The vote write and the score/votes_count recompute happen in one
// transaction with the post row locked, so concurrent casts on the same
// post serialize instead of losing updates. Out-of-range values coerce to
// +1. Notification and webhook fanout run after commit, only when a new
// vote row was created, and cannot roll the vote back.
func (s *Service) CastVote(ctx context.Context, postID, userID, value int) (*VoteResult, error) {
	if value != -1 && value != 1 {
		value = 1
	}

	var post models.Post
	if err := s.db.WithContext(ctx).First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	if post.UserID == userID {
		return nil, ErrSelfVote
	}

	if !s.limiter.Allow(userID) {
		return nil, ErrRateLimited
	}

	var (
		res  VoteResult
		cast models.Vote
	)

	err := s.withConflictRetry(func() error {
		res = VoteResult{}
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var locked models.Post
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&locked, postID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrPostNotFound
				}
				return err
			}

			var vote models.Vote
			err := tx.Where("user_id = ? AND post_id = ?", userID, postID).First(&vote).Error
			switch {
			case err == nil && vote.Value == value:
				// Same vote - remove it (toggle off)
				if err := tx.Delete(&vote).Error; err != nil {
					return err
				}
				res.Voted = nil
			case err == nil:
				// Different vote - update in place
				vote.Value = value
				if err := tx.Save(&vote).Error; err != nil {
					return err
				}
				v := value
				res.Voted = &v
			case errors.Is(err, gorm.ErrRecordNotFound):
				vote = models.Vote{UserID: userID, PostID: postID, Value: value}
				if err := tx.Create(&vote).Error; err != nil {
					return err
				}
				v := value
				res.Voted = &v
				res.Created = true
				cast = vote
			default:
				return err
			}

			return s.recomputeAggregate(tx, postID, &res)
		})
	})
	if err != nil {
		return nil, err
	}
	res.PostID = postID

	if res.Created {
		s.notifyVote(ctx, &post, &cast)
		s.fanoutPostVoted(ctx, &post, &cast, res.Score)
	}

	return &res, nil
}

// RemoveVote deletes the caller's vote on the post and recomputes the
// aggregate under the same locking discipline. Returns ErrVoteNotFound
// when no vote exists; API callers map that to 404, form-style callers may
// treat it as a no-op.
func (s *Service) RemoveVote(ctx context.Context, postID, userID int) (*VoteResult, error) {
	var post models.Post
	if err := s.db.WithContext(ctx).First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	var res VoteResult
	err := s.withConflictRetry(func() error {
		res = VoteResult{}
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var locked models.Post
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&locked, postID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrPostNotFound
				}
				return err
			}

			var vote models.Vote
			if err := tx.Where("user_id = ? AND post_id = ?", userID, postID).First(&vote).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrVoteNotFound
				}
				return err
			}
			if err := tx.Delete(&vote).Error; err != nil {
				return err
			}

			return s.recomputeAggregate(tx, postID, &res)
		})
	})
	if err != nil {
		return nil, err
	}
	res.PostID = postID

	return &res, nil
}

// recomputeAggregate rewrites score and votes_count from the votes table.
// Must run inside the transaction that mutated the vote, after the post row
// lock is held.
func (s *Service) recomputeAggregate(tx *gorm.DB, postID int, res *VoteResult) error {
	var agg struct {
		Score int
		Count int
	}
	if err := tx.Model(&models.Vote{}).
		Select("COALESCE(SUM(value), 0) AS score, COUNT(*) AS count").
		Where("post_id = ?", postID).
		Scan(&agg).Error; err != nil {
		return err
	}

	if err := tx.Model(&models.Post{}).Where("id = ?", postID).
		UpdateColumns(map[string]interface{}{
			"score":       agg.Score,
			"votes_count": agg.Count,
		}).Error; err != nil {
		return err
	}

	res.Score = agg.Score
	return nil
}

// withConflictRetry reruns fn while it fails with a serialization or
// deadlock SQLSTATE. The conflict is an internal signal and never reaches
// the caller.
func (s *Service) withConflictRetry(fn func() error) error {
	for {
		err := fn()
		if err == nil || !isSerializationFailure(err) {
			return err
		}
		s.logger.Debug().Err(err).Msg("serialization conflict, retrying transaction")
	}
}

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}
