package repositories

import (
	"context"
	"fmt"

	"github.com/anonto42/nano-midea/socialsync/internal/models"
	"github.com/anonto42/nano-midea/socialsync/internal/store"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) (string, error)
	GetPost(ctx context.Context, postID string) (*models.Post, error)
	DeletePost(ctx context.Context, postID string) error
	AdjustCounter(ctx context.Context, postID, field string, delta int64) error
	SetCounter(ctx context.Context, postID, field string, value int64) error
	WatchRecent(ctx context.Context, limit int) (<-chan []models.Post, error)
	WatchByAuthors(ctx context.Context, authorIDs []string) (<-chan []models.Post, error)
}

// StorePostRepository implements PostRepository on a document store
type StorePostRepository struct {
	store store.Store
}

// NewStorePostRepository creates a new StorePostRepository
func NewStorePostRepository(s store.Store) *StorePostRepository {
	return &StorePostRepository{store: s}
}

// CreatePost appends a post with zeroed counters and returns the generated id
func (r *StorePostRepository) CreatePost(ctx context.Context, post *models.Post) (string, error) {
	id, err := r.store.Append(ctx, postsCollection, store.Fields{
		"text":              post.Text,
		"authorId":          post.AuthorID,
		"authorName":        post.AuthorName,
		"authorDisplayName": post.AuthorDisplayName,
		"createdAt":         store.ServerTimestamp,
		FieldLikeCount:      int64(0),
		FieldCommentCount:   int64(0),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create post: %w", err)
	}
	return id, nil
}

// GetPost retrieves a post. Missing posts return store.ErrNotFound.
func (r *StorePostRepository) GetPost(ctx context.Context, postID string) (*models.Post, error) {
	doc, err := r.store.Get(ctx, PostPath(postID))
	if err != nil {
		return nil, err
	}
	post := postFromDoc(*doc)
	return &post, nil
}

// DeletePost removes the post document. Child likes and comments are left behind.
func (r *StorePostRepository) DeletePost(ctx context.Context, postID string) error {
	if err := r.store.Delete(ctx, PostPath(postID)); err != nil {
		return fmt.Errorf("failed to delete post %s: %w", postID, err)
	}
	return nil
}

func (r *StorePostRepository) AdjustCounter(ctx context.Context, postID, field string, delta int64) error {
	return r.store.Update(ctx, PostPath(postID), store.Fields{field: store.Increment(delta)})
}

func (r *StorePostRepository) SetCounter(ctx context.Context, postID, field string, value int64) error {
	return r.store.Update(ctx, PostPath(postID), store.Fields{field: value})
}

// WatchRecent streams the newest posts across all authors
func (r *StorePostRepository) WatchRecent(ctx context.Context, limit int) (<-chan []models.Post, error) {
	q := store.Collection(postsCollection).OrderBy("createdAt", store.Desc)
	if limit > 0 {
		q = q.WithLimit(limit)
	}
	return watch(ctx, r.store, q, postFromDoc)
}

// WatchByAuthors streams posts whose author is in authorIDs. At most
// store.MaxInValues ids are accepted.
func (r *StorePostRepository) WatchByAuthors(ctx context.Context, authorIDs []string) (<-chan []models.Post, error) {
	q := store.Collection(postsCollection).Where("authorId", store.OpIn, authorIDs)
	return watch(ctx, r.store, q, postFromDoc)
}

func postFromDoc(doc store.Doc) models.Post {
	return models.Post{
		ID:                doc.ID,
		AuthorID:          doc.String("authorId"),
		AuthorName:        doc.String("authorName"),
		AuthorDisplayName: doc.String("authorDisplayName"),
		Text:              doc.String("text"),
		CreatedAt:         doc.Time("createdAt"),
		LikeCount:         doc.Int(FieldLikeCount),
		CommentCount:      doc.Int(FieldCommentCount),
	}
}
