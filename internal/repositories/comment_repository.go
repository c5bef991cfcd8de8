package repositories

import (
	"context"
	"fmt"

	"github.com/anonto42/nano-midea/socialsync/internal/models"
	"github.com/anonto42/nano-midea/socialsync/internal/store"
)

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	CreateComment(ctx context.Context, comment *models.Comment) (string, error)
	GetCommentsByPostID(ctx context.Context, postID string) ([]models.Comment, error)
	WatchComments(ctx context.Context, postID string) (<-chan []models.Comment, error)
}

// StoreCommentRepository implements CommentRepository on a document store
type StoreCommentRepository struct {
	store store.Store
}

// NewStoreCommentRepository creates a new StoreCommentRepository
func NewStoreCommentRepository(s store.Store) *StoreCommentRepository {
	return &StoreCommentRepository{store: s}
}

// CreateComment appends a comment under its post and returns the generated id
func (r *StoreCommentRepository) CreateComment(ctx context.Context, comment *models.Comment) (string, error) {
	id, err := r.store.Append(ctx, CommentsCollection(comment.PostID), store.Fields{
		"text":       comment.Text,
		"authorId":   comment.AuthorID,
		"authorName": comment.AuthorName,
		"createdAt":  store.ServerTimestamp,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create comment: %w", err)
	}
	return id, nil
}

// GetCommentsByPostID retrieves the comments of a post, oldest first
func (r *StoreCommentRepository) GetCommentsByPostID(ctx context.Context, postID string) ([]models.Comment, error) {
	return fetch(ctx, r.store, commentsQuery(postID), commentDecoder(postID))
}

func (r *StoreCommentRepository) WatchComments(ctx context.Context, postID string) (<-chan []models.Comment, error) {
	return watch(ctx, r.store, commentsQuery(postID), commentDecoder(postID))
}

func commentsQuery(postID string) store.Query {
	return store.Collection(CommentsCollection(postID)).OrderBy("createdAt", store.Asc)
}

func commentDecoder(postID string) func(store.Doc) models.Comment {
	return func(doc store.Doc) models.Comment {
		return models.Comment{
			ID:         doc.ID,
			PostID:     postID,
			AuthorID:   doc.String("authorId"),
			AuthorName: doc.String("authorName"),
			Text:       doc.String("text"),
			CreatedAt:  doc.Time("createdAt"),
		}
	}
}
