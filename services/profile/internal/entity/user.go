package entity

import "time"

type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	AvatarURL string    `json:"avatar_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AvatarPath is the canonical blob key for a user's avatar. Each user has at
// most one avatar, so a fresh upload overwrites the previous blob in place.
func AvatarPath(userID string) string {
	return "avatars/" + userID
}
