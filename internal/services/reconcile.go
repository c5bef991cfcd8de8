package services

import (
	"context"
	"errors"

	"github.com/anonto42/nano-midea/socialsync/internal/models"
	"github.com/anonto42/nano-midea/socialsync/internal/repositories"
	"github.com/anonto42/nano-midea/socialsync/internal/store"
)

// DriftRecorder keeps a log of counter corrections.
type DriftRecorder interface {
	RecordDrift(ctx context.Context, drift *models.CounterDrift) error
}

// Reconciler recomputes cached counters from the record sets they cache and
// overwrites the ones that drifted
type Reconciler struct {
	users    repositories.UserRepository
	posts    repositories.PostRepository
	follows  repositories.FollowRepository
	likes    repositories.LikeRepository
	comments repositories.CommentRepository
	drifts   DriftRecorder
}

// NewReconciler creates a Reconciler. drifts may be nil.
func NewReconciler(
	users repositories.UserRepository,
	posts repositories.PostRepository,
	follows repositories.FollowRepository,
	likes repositories.LikeRepository,
	comments repositories.CommentRepository,
	drifts DriftRecorder,
) *Reconciler {
	return &Reconciler{
		users:    users,
		posts:    posts,
		follows:  follows,
		likes:    likes,
		comments: comments,
		drifts:   drifts,
	}
}

// RecomputePost fixes likeCount and commentCount of a post and returns the
// corrections it made
func (r *Reconciler) RecomputePost(ctx context.Context, postID string) ([]models.CounterDrift, error) {
	post, err := r.posts.GetPost(ctx, postID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}

	likers, err := r.likes.ListLikerIDs(ctx, postID)
	if err != nil {
		return nil, err
	}
	comments, err := r.comments.GetCommentsByPostID(ctx, postID)
	if err != nil {
		return nil, err
	}

	set := func(field string, value int64) error {
		return r.posts.SetCounter(ctx, postID, field, value)
	}
	path := repositories.PostPath(postID)

	var drifts []models.CounterDrift
	for _, c := range []struct {
		field  string
		cached int64
		actual int64
	}{
		{repositories.FieldLikeCount, post.LikeCount, int64(len(likers))},
		{repositories.FieldCommentCount, post.CommentCount, int64(len(comments))},
	} {
		drift, err := r.correct(ctx, path, c.field, c.cached, c.actual, set)
		if err != nil {
			return drifts, err
		}
		if drift != nil {
			drifts = append(drifts, *drift)
		}
	}
	return drifts, nil
}

// RecomputeUser fixes followerCount and followingCount of a user and returns
// the corrections it made
func (r *Reconciler) RecomputeUser(ctx context.Context, uid string) ([]models.CounterDrift, error) {
	user, err := r.users.GetUser(ctx, uid)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	followers, err := r.follows.ListFollowerIDs(ctx, uid)
	if err != nil {
		return nil, err
	}
	following, err := r.follows.ListFollowingIDs(ctx, uid)
	if err != nil {
		return nil, err
	}

	set := func(field string, value int64) error {
		return r.users.SetCounter(ctx, uid, field, value)
	}
	path := repositories.UserPath(uid)

	var drifts []models.CounterDrift
	for _, c := range []struct {
		field  string
		cached int64
		actual int64
	}{
		{repositories.FieldFollowerCount, user.FollowerCount, int64(len(followers))},
		{repositories.FieldFollowingCount, user.FollowingCount, int64(len(following))},
	} {
		drift, err := r.correct(ctx, path, c.field, c.cached, c.actual, set)
		if err != nil {
			return drifts, err
		}
		if drift != nil {
			drifts = append(drifts, *drift)
		}
	}
	return drifts, nil
}

func (r *Reconciler) correct(ctx context.Context, path, field string, cached, actual int64, set func(string, int64) error) (*models.CounterDrift, error) {
	if cached == actual {
		return nil, nil
	}
	if err := set(field, actual); err != nil {
		return nil, err
	}
	countersCorrected.WithLabelValues(field).Inc()

	drift := &models.CounterDrift{Path: path, Field: field, Cached: cached, Actual: actual}
	if r.drifts != nil {
		swallow(ctx, "record_drift", r.drifts.RecordDrift(ctx, drift), "path", path, "field", field)
	}
	return drift, nil
}
