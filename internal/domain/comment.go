package domain

import "time"

// Comment represents a comment under an existing post.
// Comments are immutable once created; insertion order is chronological order.
type Comment struct {
	ID                string    `json:"id"`
	PostID            string    `json:"post_id"`
	AuthorID          string    `json:"author_id"`
	AuthorDisplayName string    `json:"author_display_name"`
	Content           string    `json:"content"`
	CreatedAt         time.Time `json:"created_at"`
}

// AddCommentInput carries the fields supplied when commenting on a post.
type AddCommentInput struct {
	Content string `json:"content" validate:"required"`
}
