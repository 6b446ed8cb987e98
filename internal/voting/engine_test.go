package voting_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forumhub/backend/internal/models"
	"github.com/forumhub/backend/internal/ranking"
	"github.com/forumhub/backend/internal/voting"
)

// memStore implements voting.Store in memory, applying the same zero floor
// the SQL deltas do.
type memStore struct {
	posts    map[int]*models.Post
	comments map[int]*models.Comment
	users    map[int]*models.User
	votes    map[int]*models.Vote
	nextID   int
}

func newMemStore() *memStore {
	return &memStore{
		posts:    map[int]*models.Post{},
		comments: map[int]*models.Comment{},
		users:    map[int]*models.User{},
		votes:    map[int]*models.Vote{},
		nextID:   1,
	}
}

func (s *memStore) GetTarget(_ context.Context, tt voting.TargetType, id int) (*voting.Target, error) {
	if tt == voting.TargetPost {
		p, ok := s.posts[id]
		if !ok {
			return nil, voting.ErrTargetNotFound
		}
		return &voting.Target{ID: p.ID, AuthorID: p.AuthorID, Upvotes: p.Upvotes, Downvotes: p.Downvotes, CreatedAt: p.CreatedAt}, nil
	}
	c, ok := s.comments[id]
	if !ok || c.IsDeleted {
		return nil, voting.ErrTargetNotFound
	}
	return &voting.Target{ID: c.ID, AuthorID: c.AuthorID, Upvotes: c.Upvotes, Downvotes: c.Downvotes, CreatedAt: c.CreatedAt}, nil
}

func (s *memStore) GetVote(_ context.Context, userID int, tt voting.TargetType, targetID int) (*models.Vote, error) {
	for _, v := range s.votes {
		if v.UserID != userID {
			continue
		}
		if tt == voting.TargetPost && v.PostID == targetID {
			return v, nil
		}
		if tt == voting.TargetComment && v.CommentID == targetID {
			return v, nil
		}
	}
	return nil, nil
}

func (s *memStore) CreateVote(_ context.Context, v *models.Vote) error {
	v.ID = s.nextID
	s.nextID++
	s.votes[v.ID] = v
	return nil
}

func (s *memStore) UpdateVote(_ context.Context, v *models.Vote) error {
	s.votes[v.ID] = v
	return nil
}

func (s *memStore) DeleteVote(_ context.Context, v *models.Vote) error {
	delete(s.votes, v.ID)
	return nil
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

func (s *memStore) ApplyTargetDeltas(_ context.Context, tt voting.TargetType, id int, dUp, dDown int, hotScore *float64) error {
	if tt == voting.TargetPost {
		p := s.posts[id]
		p.Upvotes = clamp(p.Upvotes + dUp)
		p.Downvotes = clamp(p.Downvotes + dDown)
		p.Score = p.Upvotes - p.Downvotes
		if hotScore != nil {
			p.HotScore = *hotScore
		}
		return nil
	}
	c := s.comments[id]
	c.Upvotes = clamp(c.Upvotes + dUp)
	c.Downvotes = clamp(c.Downvotes + dDown)
	c.Score = c.Upvotes - c.Downvotes
	return nil
}

func (s *memStore) AdjustKarma(_ context.Context, userID, delta int) error {
	u := s.users[userID]
	u.Karma = clamp(u.Karma + delta)
	return nil
}

func (s *memStore) InTx(_ context.Context, fn func(voting.Store) error) error {
	return fn(s)
}

func (s *memStore) liveVotes() []*models.Vote {
	out := []*models.Vote{}
	for _, v := range s.votes {
		out = append(out, v)
	}
	return out
}

func setupEngine(t *testing.T) (*voting.Engine, *memStore) {
	t.Helper()
	store := newMemStore()
	store.users[1] = &models.User{ID: 1, Karma: 0}
	store.posts[10] = &models.Post{
		ID:        10,
		AuthorID:  1,
		CreatedAt: time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC),
	}
	store.comments[20] = &models.Comment{ID: 20, AuthorID: 1, PostID: 10}
	return voting.NewEngine(store), store
}

func TestApplyVoteToggleLaw(t *testing.T) {
	t.Parallel()
	engine, store := setupEngine(t)
	ctx := context.Background()

	first, err := engine.ApplyVote(ctx, 2, voting.TargetPost, 10, voting.Upvote)
	require.NoError(t, err)
	assert.Equal(t, voting.ActionAdded, first.Action)
	assert.Equal(t, 1, store.posts[10].Upvotes)
	assert.Equal(t, 1, store.posts[10].Score)
	assert.Equal(t, 1, store.users[1].Karma)
	assert.Len(t, store.liveVotes(), 1)

	second, err := engine.ApplyVote(ctx, 2, voting.TargetPost, 10, voting.Upvote)
	require.NoError(t, err)
	assert.Equal(t, voting.ActionRemoved, second.Action)
	assert.Equal(t, 0, store.posts[10].Upvotes)
	assert.Equal(t, 0, store.posts[10].Score)
	assert.Equal(t, 0, store.users[1].Karma)
	assert.Empty(t, store.liveVotes())
}

func TestApplyVoteFlipLaw(t *testing.T) {
	t.Parallel()
	engine, store := setupEngine(t)
	ctx := context.Background()

	_, err := engine.ApplyVote(ctx, 2, voting.TargetPost, 10, voting.Upvote)
	require.NoError(t, err)

	res, err := engine.ApplyVote(ctx, 2, voting.TargetPost, 10, voting.Downvote)
	require.NoError(t, err)
	assert.Equal(t, voting.ActionChanged, res.Action)

	// Exactly one live vote, now pointing down; counters moved one each way
	// relative to the post-first-vote state.
	votes := store.liveVotes()
	require.Len(t, votes, 1)
	assert.Equal(t, models.VoteDown, votes[0].VoteType)
	assert.Equal(t, 0, store.posts[10].Upvotes)
	assert.Equal(t, 1, store.posts[10].Downvotes)
	assert.Equal(t, -1, store.posts[10].Score)
}

func TestApplyVoteKarmaFloor(t *testing.T) {
	t.Parallel()
	engine, store := setupEngine(t)
	ctx := context.Background()

	// Author starts at zero karma; downvotes from many users cannot push it
	// negative.
	for actor := 2; actor <= 5; actor++ {
		_, err := engine.ApplyVote(ctx, actor, voting.TargetPost, 10, voting.Downvote)
		require.NoError(t, err)
	}

	assert.Equal(t, 0, store.users[1].Karma)
	assert.Equal(t, 4, store.posts[10].Downvotes)
	assert.Equal(t, -4, store.posts[10].Score)
}

func TestApplyVoteFlipReversesKarmaTwice(t *testing.T) {
	t.Parallel()
	engine, store := setupEngine(t)
	ctx := context.Background()

	store.users[1].Karma = 5

	_, err := engine.ApplyVote(ctx, 2, voting.TargetPost, 10, voting.Upvote)
	require.NoError(t, err)
	assert.Equal(t, 6, store.users[1].Karma)

	// Up -> down removes the old +1 and applies -1.
	_, err = engine.ApplyVote(ctx, 2, voting.TargetPost, 10, voting.Downvote)
	require.NoError(t, err)
	assert.Equal(t, 4, store.users[1].Karma)
}

func TestApplyVoteCommentDoesNotTouchKarma(t *testing.T) {
	t.Parallel()
	engine, store := setupEngine(t)
	ctx := context.Background()

	_, err := engine.ApplyVote(ctx, 2, voting.TargetComment, 20, voting.Upvote)
	require.NoError(t, err)

	assert.Equal(t, 1, store.comments[20].Upvotes)
	assert.Equal(t, 1, store.comments[20].Score)
	assert.Equal(t, 0, store.users[1].Karma)
}

func TestApplyVoteRecomputesHotScoreOnPosts(t *testing.T) {
	t.Parallel()
	engine, store := setupEngine(t)
	ctx := context.Background()

	_, err := engine.ApplyVote(ctx, 2, voting.TargetPost, 10, voting.Upvote)
	require.NoError(t, err)

	want := ranking.HotScore(1, store.posts[10].CreatedAt)
	assert.Equal(t, want, store.posts[10].HotScore)

	// Toggle off drops the score back; the hot rank follows the new score,
	// still keyed to the original creation time.
	_, err = engine.ApplyVote(ctx, 2, voting.TargetPost, 10, voting.Upvote)
	require.NoError(t, err)
	assert.Equal(t, ranking.HotScore(0, store.posts[10].CreatedAt), store.posts[10].HotScore)
}

// racingStore lands another user's upvote between the engine's first read and
// its transaction, the way two concurrent votes interleave against Postgres.
type racingStore struct {
	*memStore
	raced bool
}

func (s *racingStore) InTx(ctx context.Context, fn func(voting.Store) error) error {
	if !s.raced {
		s.raced = true
		p := s.posts[10]
		p.Upvotes++
		p.Score = p.Upvotes - p.Downvotes
	}
	return fn(s)
}

func TestApplyVoteHotScoreFoldsInConcurrentVotes(t *testing.T) {
	t.Parallel()
	inner := newMemStore()
	inner.users[1] = &models.User{ID: 1, Karma: 0}
	created := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)
	inner.posts[10] = &models.Post{ID: 10, AuthorID: 1, CreatedAt: created}
	store := &racingStore{memStore: inner}
	engine := voting.NewEngine(store)
	ctx := context.Background()

	_, err := engine.ApplyVote(ctx, 2, voting.TargetPost, 10, voting.Upvote)
	require.NoError(t, err)

	// Both upvotes count: the one that raced in and the engine's own. The
	// stored hot rank must reflect the combined score, not the stale
	// pre-transaction snapshot.
	assert.Equal(t, 2, store.posts[10].Upvotes)
	assert.Equal(t, 2, store.posts[10].Score)
	assert.Equal(t, ranking.HotScore(2, created), store.posts[10].HotScore)
}

func TestApplyVoteTargetNotFound(t *testing.T) {
	t.Parallel()
	engine, store := setupEngine(t)
	ctx := context.Background()

	_, err := engine.ApplyVote(ctx, 2, voting.TargetPost, 999, voting.Upvote)
	assert.ErrorIs(t, err, voting.ErrTargetNotFound)

	// Soft-deleted comments reject votes the same way.
	store.comments[20].IsDeleted = true
	_, err = engine.ApplyVote(ctx, 2, voting.TargetComment, 20, voting.Upvote)
	assert.ErrorIs(t, err, voting.ErrTargetNotFound)
}

func TestApplyVoteRejectsBadInputBeforeMutation(t *testing.T) {
	t.Parallel()
	engine, store := setupEngine(t)
	ctx := context.Background()

	_, err := engine.ApplyVote(ctx, 2, voting.TargetPost, 10, voting.Direction("sideways"))
	assert.ErrorIs(t, err, voting.ErrInvalidDirection)

	_, err = engine.ApplyVote(ctx, 2, voting.TargetType("community"), 10, voting.Upvote)
	assert.ErrorIs(t, err, voting.ErrInvalidTarget)

	assert.Empty(t, store.liveVotes())
	assert.Equal(t, 0, store.posts[10].Upvotes)
}
