// Package voting applies a user's vote intent to a post or comment and keeps
// the derived counters consistent: upvotes, downvotes, score, the post's hot
// rank and the author's karma all move together through one engine.
package voting

import (
	"context"
	"errors"
	"time"

	"github.com/forumhub/backend/internal/models"
	"github.com/forumhub/backend/internal/ranking"
)

type TargetType string

const (
	TargetPost    TargetType = "post"
	TargetComment TargetType = "comment"
)

type Direction string

const (
	Upvote   Direction = "upvote"
	Downvote Direction = "downvote"
)

// value maps a direction onto the stored vote_type column.
func (d Direction) value() int {
	if d == Upvote {
		return models.VoteUp
	}
	return models.VoteDown
}

// Action tells the caller what the vote did. Voting the same direction twice
// is a deliberate toggle-off, not an idempotent retry; callers that need
// retry safety must de-duplicate before calling ApplyVote.
type Action string

const (
	ActionAdded   Action = "added"
	ActionRemoved Action = "removed"
	ActionChanged Action = "changed"
)

var (
	ErrTargetNotFound   = errors.New("vote target not found")
	ErrInvalidDirection = errors.New("invalid vote direction")
	ErrInvalidTarget    = errors.New("invalid vote target type")
)

// Target is the slice of a post or comment the engine needs: who gets the
// karma, the current counters, and the creation time for the hot recompute.
type Target struct {
	ID        int
	AuthorID  int
	Upvotes   int
	Downvotes int
	CreatedAt time.Time
}

// Store is the persistence collaborator. Counter mutations are expressed as
// relative deltas clamped at zero so the storage layer can apply them
// atomically per row without the engine holding a lock.
type Store interface {
	// GetTarget returns ErrTargetNotFound when the target is missing or
	// soft-deleted.
	GetTarget(ctx context.Context, tt TargetType, id int) (*Target, error)
	// GetVote returns (nil, nil) when the actor has no live vote.
	GetVote(ctx context.Context, userID int, tt TargetType, targetID int) (*models.Vote, error)
	CreateVote(ctx context.Context, v *models.Vote) error
	UpdateVote(ctx context.Context, v *models.Vote) error
	DeleteVote(ctx context.Context, v *models.Vote) error
	// ApplyTargetDeltas shifts the counters by (dUp, dDown), recomputes the
	// stored score and, when hotScore is non-nil, persists the new hot rank.
	ApplyTargetDeltas(ctx context.Context, tt TargetType, id int, dUp, dDown int, hotScore *float64) error
	// AdjustKarma shifts the author's karma, floor-clamped at zero.
	AdjustKarma(ctx context.Context, userID, delta int) error
	// InTx runs fn against a transactional view of the store, where the
	// backend supports it. Stores without transactions may run fn directly;
	// the deltas stay convergent either way.
	InTx(ctx context.Context, fn func(Store) error) error
}

type Result struct {
	Action Action `json:"action"`
}

type Engine struct {
	store Store
}

func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

// ApplyVote applies one vote intent with click-again-to-undo semantics:
// no existing vote adds one, the same direction removes it, the opposite
// direction flips it. All counter writes for one call happen inside a single
// store transaction.
func (e *Engine) ApplyVote(ctx context.Context, actorID int, tt TargetType, targetID int, dir Direction) (Result, error) {
	if dir != Upvote && dir != Downvote {
		return Result{}, ErrInvalidDirection
	}
	if tt != TargetPost && tt != TargetComment {
		return Result{}, ErrInvalidTarget
	}

	target, err := e.store.GetTarget(ctx, tt, targetID)
	if err != nil {
		return Result{}, err
	}

	existing, err := e.store.GetVote(ctx, actorID, tt, targetID)
	if err != nil {
		return Result{}, err
	}

	newValue := dir.value()

	var (
		action     Action
		dUp, dDown int
		karmaDelta int
	)

	switch {
	case existing == nil:
		action = ActionAdded
		dUp, dDown = counterDeltas(newValue, 1)
		karmaDelta = newValue
	case existing.VoteType == newValue:
		// Toggle-off: repeating the same direction undoes the vote.
		action = ActionRemoved
		dUp, dDown = counterDeltas(newValue, -1)
		karmaDelta = -newValue
	default:
		// Flip: undo the old direction, apply the new one.
		action = ActionChanged
		oldUp, oldDown := counterDeltas(existing.VoteType, -1)
		addUp, addDown := counterDeltas(newValue, 1)
		dUp, dDown = oldUp+addUp, oldDown+addDown
		karmaDelta = 2 * newValue
	}

	// Karma only moves for post votes.
	if tt != TargetPost {
		karmaDelta = 0
	}

	err = e.store.InTx(ctx, func(tx Store) error {
		switch action {
		case ActionAdded:
			vote := &models.Vote{UserID: actorID, VoteType: newValue}
			if tt == TargetPost {
				vote.PostID = targetID
			} else {
				vote.CommentID = targetID
			}
			if err := tx.CreateVote(ctx, vote); err != nil {
				return err
			}
		case ActionRemoved:
			if err := tx.DeleteVote(ctx, existing); err != nil {
				return err
			}
		case ActionChanged:
			existing.VoteType = newValue
			if err := tx.UpdateVote(ctx, existing); err != nil {
				return err
			}
		}

		// Hot rank only exists on posts. Recompute it from the counters the
		// transaction sees, not the pre-transaction snapshot, so concurrent
		// votes that landed since the first read are folded in. The same
		// floor clamp the storage layer applies is mirrored here.
		var hotScore *float64
		if tt == TargetPost {
			fresh, err := tx.GetTarget(ctx, tt, targetID)
			if err != nil {
				return err
			}
			newScore := clampZero(fresh.Upvotes+dUp) - clampZero(fresh.Downvotes+dDown)
			h := ranking.HotScore(newScore, target.CreatedAt)
			hotScore = &h
		}

		if err := tx.ApplyTargetDeltas(ctx, tt, targetID, dUp, dDown, hotScore); err != nil {
			return err
		}

		if karmaDelta != 0 {
			if err := tx.AdjustKarma(ctx, target.AuthorID, karmaDelta); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	return Result{Action: action}, nil
}

// counterDeltas routes a ±1 delta to the counter matching the vote value:
// upvote values move upvotes, downvote values move downvotes.
func counterDeltas(value, delta int) (dUp, dDown int) {
	if value > 0 {
		return delta, 0
	}
	return 0, delta
}

func clampZero(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
