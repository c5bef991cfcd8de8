package models

import "time"

// Post is a feed entry stored at posts/{id}
type Post struct {
	ID                string    `json:"id"`
	AuthorID          string    `json:"authorId"`
	AuthorName        string    `json:"authorName,omitempty"`        // author email at write time
	AuthorDisplayName string    `json:"authorDisplayName,omitempty"` // display name at write time
	Text              string    `json:"text"`
	CreatedAt         time.Time `json:"createdAt"`
	LikeCount         int64     `json:"likeCount"`    // cached |likes|
	CommentCount      int64     `json:"commentCount"` // cached |comments|
}

// CreatePostRequest defines the request body for creating a new post
type CreatePostRequest struct {
	Text string `json:"text" validate:"required,max=5000"`
}
