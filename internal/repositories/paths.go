package repositories

import "github.com/anonto42/nano-midea/socialsync/internal/store"

// Collection layout shared by every repository.
const (
	usersCollection         = "users"
	postsCollection         = "posts"
	conversationsCollection = "conversations"
)

// Counter field names
const (
	FieldFollowerCount  = "followerCount"
	FieldFollowingCount = "followingCount"
	FieldLikeCount      = "likeCount"
	FieldCommentCount   = "commentCount"
)

func UserPath(uid string) string {
	return store.Join(usersCollection, uid)
}

func FollowingPath(uid, target string) string {
	return store.Join(usersCollection, uid, "following", target)
}

func FollowersPath(uid, follower string) string {
	return store.Join(usersCollection, uid, "followers", follower)
}

func NotificationsCollection(uid string) string {
	return store.Join(usersCollection, uid, "notifications")
}

func PostPath(postID string) string {
	return store.Join(postsCollection, postID)
}

func LikePath(postID, uid string) string {
	return store.Join(postsCollection, postID, "likes", uid)
}

func CommentsCollection(postID string) string {
	return store.Join(postsCollection, postID, "comments")
}

func ConversationPath(id string) string {
	return store.Join(conversationsCollection, id)
}

func MessagesCollection(conversationID string) string {
	return store.Join(conversationsCollection, conversationID, "messages")
}
