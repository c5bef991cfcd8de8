package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anonto42/nano-midea/socialsync/internal/models"
	"github.com/anonto42/nano-midea/socialsync/internal/repositories"
	"github.com/anonto42/nano-midea/socialsync/internal/session"
	"github.com/anonto42/nano-midea/socialsync/internal/store"
)

// RecentPostsLimit bounds the global post stream.
const RecentPostsLimit = 200

// InteractionService handles posts, likes and comments together with the
// cached counters and notifications they imply
type InteractionService struct {
	users    repositories.UserRepository
	posts    repositories.PostRepository
	likes    repositories.LikeRepository
	comments repositories.CommentRepository
	notifier *NotificationService
}

func NewInteractionService(
	users repositories.UserRepository,
	posts repositories.PostRepository,
	likes repositories.LikeRepository,
	comments repositories.CommentRepository,
	notifier *NotificationService,
) *InteractionService {
	return &InteractionService{
		users:    users,
		posts:    posts,
		likes:    likes,
		comments: comments,
		notifier: notifier,
	}
}

// CreatePost publishes a post. The author's display name is copied into the
// post as it is right now.
func (s *InteractionService) CreatePost(ctx context.Context, text string) (string, error) {
	p := session.FromContext(ctx)
	if !p.Authenticated() {
		return "", ErrUnauthenticated
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrBlankText
	}

	displayName := p.Name()
	user, err := s.users.GetUser(ctx, p.UID)
	switch {
	case err == nil && user.DisplayName != "":
		displayName = user.DisplayName
	case err != nil && !errors.Is(err, store.ErrNotFound):
		return "", fmt.Errorf("failed to resolve author: %w", err)
	}

	return s.posts.CreatePost(ctx, &models.Post{
		AuthorID:          p.UID,
		AuthorName:        p.Email,
		AuthorDisplayName: displayName,
		Text:              text,
	})
}

// DeletePost removes one of the caller's posts
func (s *InteractionService) DeletePost(ctx context.Context, postID string) error {
	p := session.FromContext(ctx)
	if !p.Authenticated() {
		return ErrUnauthenticated
	}
	post, err := s.getPost(ctx, postID)
	if err != nil {
		return err
	}
	if post.AuthorID != p.UID {
		return ErrForbidden
	}
	return s.posts.DeletePost(ctx, postID)
}

// ToggleLike likes the post if the caller has not liked it and unlikes it
// otherwise. It returns whether the post is liked afterwards. The like
// record and the counter are separate writes.
func (s *InteractionService) ToggleLike(ctx context.Context, postID string) (bool, error) {
	p := session.FromContext(ctx)
	if !p.Authenticated() {
		return false, ErrUnauthenticated
	}

	post, err := s.getPost(ctx, postID)
	if err != nil {
		return false, err
	}

	liked, err := s.likes.HasUserLikedPost(ctx, postID, p.UID)
	if err != nil {
		return false, err
	}

	if liked {
		if err := s.likes.DeleteLike(ctx, postID, p.UID); err != nil {
			return true, err
		}
		if err := s.posts.AdjustCounter(ctx, postID, repositories.FieldLikeCount, -1); err != nil {
			return false, err
		}
		return false, nil
	}

	if err := s.likes.CreateLike(ctx, postID, p.UID); err != nil {
		return false, err
	}
	if err := s.posts.AdjustCounter(ctx, postID, repositories.FieldLikeCount, 1); err != nil {
		return true, err
	}

	if post.AuthorID != p.UID {
		s.notifier.Notify(ctx, post.AuthorID, models.Notification{
			ID:        LikeNotificationID(postID, p.UID),
			Type:      models.NotificationLike,
			ActorID:   p.UID,
			ActorName: p.Name(),
			PostID:    postID,
		})
	}
	return true, nil
}

// AddComment appends a comment, bumps the post's comment counter and
// notifies the author unless they commented on their own post
func (s *InteractionService) AddComment(ctx context.Context, postID, text string) (string, error) {
	p := session.FromContext(ctx)
	if !p.Authenticated() {
		return "", ErrUnauthenticated
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrBlankText
	}

	post, err := s.getPost(ctx, postID)
	if err != nil {
		return "", err
	}
	if post.AuthorID == "" {
		return "", ErrPostNotFound
	}

	commentID, err := s.comments.CreateComment(ctx, &models.Comment{
		PostID:     postID,
		AuthorID:   p.UID,
		AuthorName: p.Email,
		Text:       text,
	})
	if err != nil {
		return "", err
	}
	if err := s.posts.AdjustCounter(ctx, postID, repositories.FieldCommentCount, 1); err != nil {
		return commentID, err
	}

	if post.AuthorID != p.UID {
		s.notifier.Notify(ctx, post.AuthorID, models.Notification{
			ID:        CommentNotificationID(postID, commentID),
			Type:      models.NotificationComment,
			ActorID:   p.UID,
			ActorName: p.Name(),
			PostID:    postID,
			CommentID: commentID,
			Preview:   Preview(text),
		})
	}
	return commentID, nil
}

func (s *InteractionService) GetPost(ctx context.Context, postID string) (*models.Post, error) {
	return s.getPost(ctx, postID)
}

func (s *InteractionService) HasLiked(ctx context.Context, postID string) (bool, error) {
	p := session.FromContext(ctx)
	if !p.Authenticated() {
		return false, ErrUnauthenticated
	}
	return s.likes.HasUserLikedPost(ctx, postID, p.UID)
}

func (s *InteractionService) GetComments(ctx context.Context, postID string) ([]models.Comment, error) {
	return s.comments.GetCommentsByPostID(ctx, postID)
}

// WatchComments streams a post's comments, oldest first
func (s *InteractionService) WatchComments(ctx context.Context, postID string) (<-chan []models.Comment, error) {
	return s.comments.WatchComments(ctx, postID)
}

// WatchPosts streams the most recent posts of every author, newest first
func (s *InteractionService) WatchPosts(ctx context.Context) (<-chan []models.Post, error) {
	return s.posts.WatchRecent(ctx, RecentPostsLimit)
}

func (s *InteractionService) getPost(ctx context.Context, postID string) (*models.Post, error) {
	post, err := s.posts.GetPost(ctx, postID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}
	return post, nil
}
