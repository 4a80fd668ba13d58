package entity

import (
	"fmt"
	"time"
)

// Post is a short text post with at most one attached image. MediaURL is
// non-empty exactly when a blob exists at the post's canonical media path.
type Post struct {
	ID         string    `json:"id"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Text       string    `json:"text"`
	MediaURL   string    `json:"media_url,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// MediaPath is the canonical blob key for a post's attachment. It is keyed
// only by the author and post ids, so a replacement upload lands on the same
// key and overwrites instead of accumulating objects.
func MediaPath(authorID, postID string) string {
	return fmt.Sprintf("media/%s/%s", authorID, postID)
}
