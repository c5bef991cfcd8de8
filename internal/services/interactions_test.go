package services

import (
	"context"
	"strings"
	"testing"

	"github.com/anonto42/nano-midea/socialsync/internal/models"
	"github.com/anonto42/nano-midea/socialsync/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePost_SnapshotsAuthor(t *testing.T) {
	env := newTestEnv(t)
	ctx, p := env.signUp(t)

	id, err := env.interactions.CreatePost(ctx, "  first post  ")
	require.NoError(t, err)

	post := env.post(t, id)
	assert.Equal(t, "first post", post.Text)
	assert.Equal(t, p.UID, post.AuthorID)
	assert.Equal(t, p.Email, post.AuthorName)
	assert.Equal(t, p.Handle(), post.AuthorDisplayName)
	assert.Zero(t, post.LikeCount)
	assert.Zero(t, post.CommentCount)

	require.NoError(t, env.identity.UpdateProfile(ctx, models.UpdateProfileRequest{DisplayName: "Renamed"}))
	assert.Equal(t, p.Handle(), env.post(t, id).AuthorDisplayName)
}

func TestCreatePost_Rejections(t *testing.T) {
	env := newTestEnv(t)
	ctx, _ := env.signUp(t)

	_, err := env.interactions.CreatePost(ctx, " \n\t ")
	require.ErrorIs(t, err, ErrBlankText)

	_, err = env.interactions.CreatePost(context.Background(), "hello")
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestToggleLike_RoundTrip(t *testing.T) {
	env := newTestEnv(t)
	authorCtx, author := env.signUp(t)
	fanCtx, fan := env.signUp(t)

	postID, err := env.interactions.CreatePost(authorCtx, "like me")
	require.NoError(t, err)

	liked, err := env.interactions.ToggleLike(fanCtx, postID)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, int64(1), env.post(t, postID).LikeCount)

	inbox := env.inbox(t, author.UID)
	require.Len(t, inbox, 1)
	assert.Equal(t, models.NotificationLike, inbox[0].Type)
	assert.Equal(t, LikeNotificationID(postID, fan.UID), inbox[0].ID)
	assert.Equal(t, postID, inbox[0].PostID)

	liked, err = env.interactions.ToggleLike(fanCtx, postID)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Zero(t, env.post(t, postID).LikeCount)

	likers, err := env.likes.ListLikerIDs(context.Background(), postID)
	require.NoError(t, err)
	assert.Empty(t, likers)
}

func TestToggleLike_RelikeKeepsOneNotification(t *testing.T) {
	env := newTestEnv(t)
	authorCtx, author := env.signUp(t)
	fanCtx, _ := env.signUp(t)

	postID, err := env.interactions.CreatePost(authorCtx, "like me")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := env.interactions.ToggleLike(fanCtx, postID)
		require.NoError(t, err)
	}

	assert.Len(t, env.inbox(t, author.UID), 1)
	assert.Equal(t, int64(1), env.post(t, postID).LikeCount)
}

func TestToggleLike_OwnPostDoesNotNotify(t *testing.T) {
	env := newTestEnv(t)
	ctx, p := env.signUp(t)

	postID, err := env.interactions.CreatePost(ctx, "self love")
	require.NoError(t, err)

	_, err = env.interactions.ToggleLike(ctx, postID)
	require.NoError(t, err)
	assert.Empty(t, env.inbox(t, p.UID))
}

func TestToggleLike_MissingPost(t *testing.T) {
	env := newTestEnv(t)
	ctx, _ := env.signUp(t)

	_, err := env.interactions.ToggleLike(ctx, "nope")
	require.ErrorIs(t, err, ErrPostNotFound)
}

func TestToggleLike_CounterFailureLeavesDrift(t *testing.T) {
	env := newTestEnv(t)
	authorCtx, _ := env.signUp(t)
	fanCtx, _ := env.signUp(t)

	postID, err := env.interactions.CreatePost(authorCtx, "drift")
	require.NoError(t, err)

	env.store.InjectFault(func(op, path string) error {
		if op == "update" && path == repositories.PostPath(postID) {
			return errInjected
		}
		return nil
	})

	liked, err := env.interactions.ToggleLike(fanCtx, postID)
	require.ErrorIs(t, err, errInjected)
	assert.True(t, liked)
	assert.Zero(t, env.post(t, postID).LikeCount)

	likers, err := env.likes.ListLikerIDs(context.Background(), postID)
	require.NoError(t, err)
	assert.Len(t, likers, 1)
}

func TestAddComment(t *testing.T) {
	env := newTestEnv(t)
	authorCtx, author := env.signUp(t)
	commenterCtx, commenter := env.signUp(t)

	postID, err := env.interactions.CreatePost(authorCtx, "discuss")
	require.NoError(t, err)

	commentID, err := env.interactions.AddComment(commenterCtx, postID, " nice ")
	require.NoError(t, err)
	_, err = env.interactions.AddComment(authorCtx, postID, "thanks")
	require.NoError(t, err)

	assert.Equal(t, int64(2), env.post(t, postID).CommentCount)

	comments, err := env.interactions.GetComments(context.Background(), postID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "nice", comments[0].Text)
	assert.Equal(t, commenter.UID, comments[0].AuthorID)
	assert.Equal(t, "thanks", comments[1].Text)

	inbox := env.inbox(t, author.UID)
	require.Len(t, inbox, 1)
	assert.Equal(t, CommentNotificationID(postID, commentID), inbox[0].ID)
	assert.Equal(t, models.NotificationComment, inbox[0].Type)
	assert.Equal(t, commentID, inbox[0].CommentID)
}

func TestAddComment_RedeliveryCollapses(t *testing.T) {
	env := newTestEnv(t)
	authorCtx, author := env.signUp(t)
	_, commenter := env.signUp(t)

	postID, err := env.interactions.CreatePost(authorCtx, "discuss")
	require.NoError(t, err)

	n := models.Notification{
		ID:      CommentNotificationID(postID, "c1"),
		Type:    models.NotificationComment,
		ActorID: commenter.UID,
		PostID:  postID,
	}
	env.notifier.Notify(context.Background(), author.UID, n)
	env.notifier.Notify(context.Background(), author.UID, n)

	assert.Len(t, env.inbox(t, author.UID), 1)
}

func TestAddComment_Rejections(t *testing.T) {
	env := newTestEnv(t)
	ctx, _ := env.signUp(t)

	postID, err := env.interactions.CreatePost(ctx, "discuss")
	require.NoError(t, err)

	_, err = env.interactions.AddComment(ctx, postID, "   ")
	require.ErrorIs(t, err, ErrBlankText)

	_, err = env.interactions.AddComment(ctx, "missing", "hi")
	require.ErrorIs(t, err, ErrPostNotFound)

	assert.Zero(t, env.post(t, postID).CommentCount)
}

func TestCommentPreview_Truncated(t *testing.T) {
	env := newTestEnv(t)
	authorCtx, author := env.signUp(t)
	commenterCtx, _ := env.signUp(t)

	postID, err := env.interactions.CreatePost(authorCtx, "discuss")
	require.NoError(t, err)

	_, err = env.interactions.AddComment(commenterCtx, postID, strings.Repeat("x", 90))
	require.NoError(t, err)

	inbox := env.inbox(t, author.UID)
	require.Len(t, inbox, 1)
	assert.Equal(t, strings.Repeat("x", 60)+"...", inbox[0].Preview)
}

func TestDeletePost(t *testing.T) {
	env := newTestEnv(t)
	authorCtx, _ := env.signUp(t)
	otherCtx, _ := env.signUp(t)

	postID, err := env.interactions.CreatePost(authorCtx, "temporary")
	require.NoError(t, err)

	require.ErrorIs(t, env.interactions.DeletePost(otherCtx, postID), ErrForbidden)
	require.NoError(t, env.interactions.DeletePost(authorCtx, postID))

	_, err = env.interactions.GetPost(context.Background(), postID)
	require.ErrorIs(t, err, ErrPostNotFound)
}

func TestWatchPosts_NewestFirst(t *testing.T) {
	env := newTestEnv(t)
	ctx, _ := env.signUp(t)

	first, err := env.interactions.CreatePost(ctx, "one")
	require.NoError(t, err)
	second, err := env.interactions.CreatePost(ctx, "two")
	require.NoError(t, err)

	watchCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	posts, err := env.interactions.WatchPosts(watchCtx)
	require.NoError(t, err)
	assert.Equal(t, []string{second, first}, postIDs(receive(t, posts)))
}
