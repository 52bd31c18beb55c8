package domain

import (
	"strings"
	"time"
)

// DefaultCategory is applied when a post is created without a category.
const DefaultCategory = "general"

// Post represents a community post.
// Author info is denormalized for immediate rendering without joins.
// LikeCount is increment-only; posts are never deleted.
type Post struct {
	ID                string    `json:"id"`
	AuthorID          string    `json:"author_id"`
	AuthorDisplayName string    `json:"author_display_name"`
	Title             string    `json:"title,omitempty"`
	Content           string    `json:"content"`
	Category          string    `json:"category"`
	Tags              []string  `json:"tags"`
	Images            []string  `json:"images"`
	LikeCount         int       `json:"like_count"`
	CreatedAt         time.Time `json:"created_at"`
}

// CreatePostInput carries the fields a participant supplies when publishing.
// Image URLs are resolved by the upload layer before the core sees them.
type CreatePostInput struct {
	Title    string   `json:"title,omitempty"`
	Content  string   `json:"content" validate:"required"`
	Category string   `json:"category,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	Images   []string `json:"images,omitempty"`
}

// Normalize applies category defaulting and tag deduplication in place.
func (in *CreatePostInput) Normalize() {
	if strings.TrimSpace(in.Category) == "" {
		in.Category = DefaultCategory
	}
	in.Tags = NormalizeTags(in.Tags)
}

// NormalizeTags trims whitespace and deduplicates while preserving the
// order of first appearance. Empty tags are dropped.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}
