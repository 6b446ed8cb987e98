package voting

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/forumhub/backend/internal/models"
)

// GormStore backs the engine with Postgres. Counter updates run as
// single-row SQL deltas (GREATEST(col + ?, 0)) so concurrent votes on the
// same target serialize inside the database, not in the application tier.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) GetTarget(ctx context.Context, tt TargetType, id int) (*Target, error) {
	switch tt {
	case TargetPost:
		var post models.Post
		if err := s.db.WithContext(ctx).First(&post, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrTargetNotFound
			}
			return nil, err
		}
		return &Target{
			ID:        post.ID,
			AuthorID:  post.AuthorID,
			Upvotes:   post.Upvotes,
			Downvotes: post.Downvotes,
			CreatedAt: post.CreatedAt,
		}, nil

	case TargetComment:
		var comment models.Comment
		err := s.db.WithContext(ctx).
			Where("id = ? AND is_deleted = ?", id, false).
			First(&comment).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrTargetNotFound
			}
			return nil, err
		}
		return &Target{
			ID:        comment.ID,
			AuthorID:  comment.AuthorID,
			Upvotes:   comment.Upvotes,
			Downvotes: comment.Downvotes,
			CreatedAt: comment.CreatedAt,
		}, nil
	}
	return nil, ErrInvalidTarget
}

func (s *GormStore) GetVote(ctx context.Context, userID int, tt TargetType, targetID int) (*models.Vote, error) {
	query := s.db.WithContext(ctx)
	if tt == TargetPost {
		query = query.Where("user_id = ? AND post_id = ?", userID, targetID)
	} else {
		query = query.Where("user_id = ? AND comment_id = ?", userID, targetID)
	}

	var vote models.Vote
	if err := query.First(&vote).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &vote, nil
}

func (s *GormStore) CreateVote(ctx context.Context, v *models.Vote) error {
	return s.db.WithContext(ctx).Create(v).Error
}

func (s *GormStore) UpdateVote(ctx context.Context, v *models.Vote) error {
	return s.db.WithContext(ctx).Model(v).Update("vote_type", v.VoteType).Error
}

func (s *GormStore) DeleteVote(ctx context.Context, v *models.Vote) error {
	return s.db.WithContext(ctx).Delete(v).Error
}

func (s *GormStore) ApplyTargetDeltas(ctx context.Context, tt TargetType, id int, dUp, dDown int, hotScore *float64) error {
	updates := map[string]interface{}{
		"upvotes":   gorm.Expr("GREATEST(upvotes + ?, 0)", dUp),
		"downvotes": gorm.Expr("GREATEST(downvotes + ?, 0)", dDown),
		"score":     gorm.Expr("GREATEST(upvotes + ?, 0) - GREATEST(downvotes + ?, 0)", dUp, dDown),
	}
	if hotScore != nil {
		updates["hot_score"] = *hotScore
	}

	query := s.db.WithContext(ctx)
	if tt == TargetPost {
		query = query.Model(&models.Post{})
	} else {
		query = query.Model(&models.Comment{})
	}
	return query.Where("id = ?", id).Updates(updates).Error
}

func (s *GormStore) AdjustKarma(ctx context.Context, userID, delta int) error {
	return s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("karma", gorm.Expr("GREATEST(karma + ?, 0)", delta)).Error
}

func (s *GormStore) InTx(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}
