// Package service implements the domain logic on top of the repositories.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"phora/internal/cache"
	"phora/internal/models"
	"phora/internal/observability"
	"phora/internal/resolver"

	"gorm.io/gorm"
)

// VoteService is the vote engine. Every cast runs in one transaction:
// upsert the vote row, recompute the target's score from the vote table,
// persist it, and adjust the author's reputation by the net delta. The
// one-active-vote-per-user rule is enforced here, not by a uniqueness
// constraint, because rows imported from the legacy system may already
// violate one.
type VoteService struct {
	db  *gorm.DB
	res *resolver.Resolver
	log *slog.Logger
}

// CastVoteInput identifies the voter, the target and the direction.
// Exactly one of PID or CID is set.
type CastVoteInput struct {
	UID      string
	PID      uint
	CID      string
	Positive bool
}

// VoteResult reports the recomputed score and what the cast did.
type VoteResult struct {
	Score   int  `json:"score"`
	Flipped bool `json:"flipped"`
}

func NewVoteService(db *gorm.DB, res *resolver.Resolver, log *slog.Logger) *VoteService {
	return &VoteService{db: db, res: res, log: log}
}

// CastVote applies a vote to a post or a comment. Voting on your own
// content returns ErrForbiddenVote. Repeating a vote in the same
// direction is a no-op: nothing changes and the current score is
// returned as success. Any storage failure rolls the whole cast back.
func (s *VoteService) CastVote(ctx context.Context, in CastVoteInput) (*VoteResult, error) {
	if in.CID != "" {
		return s.castCommentVote(ctx, in)
	}
	return s.castPostVote(ctx, in)
}

func (s *VoteService) castPostVote(ctx context.Context, in CastVoteInput) (*VoteResult, error) {
	var result VoteResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.First(&post, "pid = ?", in.PID).Error; err != nil {
			return err
		}
		if post.UID == in.UID {
			return models.ErrForbiddenVote
		}

		var existing models.PostVote
		lookupErr := tx.Where("pid = ? AND uid = ?", in.PID, in.UID).
			Order("xid").First(&existing).Error
		delta, flipped, err := applyVote(lookupErr, in.Positive, existing.Positive,
			func() error {
				return tx.Create(&models.PostVote{
					PID:      in.PID,
					UID:      in.UID,
					Positive: in.Positive,
					Time:     time.Now().UTC(),
				}).Error
			},
			func() error {
				return tx.Model(&models.PostVote{}).Where("xid = ?", existing.XID).
					Updates(map[string]interface{}{
						"positive": in.Positive,
						"time":     time.Now().UTC(),
					}).Error
			})
		if err != nil {
			if errors.Is(err, models.ErrDuplicateVote) {
				score, serr := recountScore(tx, &models.PostVote{}, "pid = ?", in.PID)
				if serr != nil {
					return serr
				}
				result = VoteResult{Score: score}
			}
			return err
		}

		score, err := recountScore(tx, &models.PostVote{}, "pid = ?", in.PID)
		if err != nil {
			return err
		}
		if err := tx.Model(&models.Post{}).Where("pid = ?", in.PID).
			Update("score", score).Error; err != nil {
			return err
		}
		if err := adjustReputation(tx, post.UID, delta); err != nil {
			return err
		}

		result = VoteResult{Score: score, Flipped: flipped}
		return nil
	})
	if errors.Is(err, models.ErrDuplicateVote) {
		observability.VotesTotal.WithLabelValues("post", "duplicate").Inc()
		return &result, nil
	}
	if err != nil {
		return nil, s.voteFailed(ctx, "post", in.PID, err)
	}

	observability.VotesTotal.WithLabelValues("post", voteOutcome(result.Flipped)).Inc()
	s.res.InvalidateAttr(ctx, cache.EntityPost, in.PID, resolver.AttrScore)
	return &result, nil
}

func (s *VoteService) castCommentVote(ctx context.Context, in CastVoteInput) (*VoteResult, error) {
	var result VoteResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var comment models.Comment
		if err := tx.First(&comment, "cid = ?", in.CID).Error; err != nil {
			return err
		}
		if comment.UID == in.UID {
			return models.ErrForbiddenVote
		}

		var existing models.CommentVote
		lookupErr := tx.Where("cid = ? AND uid = ?", in.CID, in.UID).
			Order("xid").First(&existing).Error
		delta, flipped, err := applyVote(lookupErr, in.Positive, existing.Positive,
			func() error {
				return tx.Create(&models.CommentVote{
					CID:      in.CID,
					UID:      in.UID,
					Positive: in.Positive,
					Time:     time.Now().UTC(),
				}).Error
			},
			func() error {
				return tx.Model(&models.CommentVote{}).Where("xid = ?", existing.XID).
					Updates(map[string]interface{}{
						"positive": in.Positive,
						"time":     time.Now().UTC(),
					}).Error
			})
		if err != nil {
			if errors.Is(err, models.ErrDuplicateVote) {
				score, serr := recountScore(tx, &models.CommentVote{}, "cid = ?", in.CID)
				if serr != nil {
					return serr
				}
				result = VoteResult{Score: score}
			}
			return err
		}

		score, err := recountScore(tx, &models.CommentVote{}, "cid = ?", in.CID)
		if err != nil {
			return err
		}
		if err := tx.Model(&models.Comment{}).Where("cid = ?", in.CID).
			Update("score", score).Error; err != nil {
			return err
		}
		if err := adjustReputation(tx, comment.UID, delta); err != nil {
			return err
		}

		result = VoteResult{Score: score, Flipped: flipped}
		return nil
	})
	if errors.Is(err, models.ErrDuplicateVote) {
		observability.VotesTotal.WithLabelValues("comment", "duplicate").Inc()
		return &result, nil
	}
	if err != nil {
		return nil, s.voteFailed(ctx, "comment", in.CID, err)
	}

	observability.VotesTotal.WithLabelValues("comment", voteOutcome(result.Flipped)).Inc()
	s.res.InvalidateAttr(ctx, cache.EntityComment, in.CID, resolver.AttrScore)
	return &result, nil
}

// applyVote upserts the vote row and returns the reputation delta for
// the content author: +-1 for a fresh vote, +-2 for a direction flip, 0
// never reaches the caller because duplicates error out first.
func applyVote(lookupErr error, positive, existingPositive bool, create, flip func() error) (delta int, flipped bool, err error) {
	switch {
	case errors.Is(lookupErr, gorm.ErrRecordNotFound):
		if err := create(); err != nil {
			return 0, false, err
		}
		delta = 1
	case lookupErr != nil:
		return 0, false, lookupErr
	case existingPositive == positive:
		return 0, false, models.ErrDuplicateVote
	default:
		if err := flip(); err != nil {
			return 0, false, err
		}
		delta = 2
		flipped = true
	}
	if !positive {
		delta = -delta
	}
	return delta, flipped, nil
}

// recountScore derives positives minus negatives from the vote table.
// The stored score column is a cache of this number, never the source.
func recountScore(tx *gorm.DB, model interface{}, cond string, arg interface{}) (int, error) {
	var up, down int64
	if err := tx.Model(model).Where(cond, arg).Where("positive = ?", true).
		Count(&up).Error; err != nil {
		return 0, err
	}
	if err := tx.Model(model).Where(cond, arg).Where("positive = ?", false).
		Count(&down).Error; err != nil {
		return 0, err
	}
	return int(up - down), nil
}

func adjustReputation(tx *gorm.DB, uid string, delta int) error {
	if delta == 0 {
		return nil
	}
	return tx.Model(&models.User{}).Where("uid = ?", uid).
		Update("score", gorm.Expr("COALESCE(score, 0) + ?", delta)).Error
}

// voteFailed maps engine errors. Domain sentinels pass through so
// callers can distinguish them; anything else is a rolled-back cast.
func (s *VoteService) voteFailed(ctx context.Context, target string, pk interface{}, err error) error {
	switch {
	case errors.Is(err, models.ErrForbiddenVote):
		observability.VotesTotal.WithLabelValues(target, "forbidden").Inc()
		return models.ErrForbiddenVote
	case errors.Is(err, gorm.ErrRecordNotFound):
		return models.NewNotFoundError(target, pk)
	}
	observability.VotesTotal.WithLabelValues(target, "failed").Inc()
	s.log.ErrorContext(ctx, "vote cast rolled back",
		slog.String("target", target), slog.String("error", err.Error()))
	return models.NewVoteFailedError(err)
}

func voteOutcome(flipped bool) string {
	if flipped {
		return "flipped"
	}
	return "cast"
}
