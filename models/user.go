package models

import "time"

// User is the subset of the user record this service reads and writes.
// Each set holds resource ids the user has interacted with.
type User struct {
	ID          string    `json:"id" bson:"_id"`
	Username    string    `json:"username" bson:"username"`
	Role        []string  `json:"role" bson:"role"`
	LikedJobs   []string  `json:"likedJobs" bson:"likedJobs"`
	ViewedJobs  []string  `json:"viewedJobs" bson:"viewedJobs"`
	LikedPosts  []string  `json:"likedPosts" bson:"likedPosts"`
	ViewedPosts []string  `json:"viewedPosts" bson:"viewedPosts"`
	CreatedAt   time.Time `json:"created_at" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updatedAt"`
}

// Interactions returns the back-reference set for a kind and interaction.
func (u *User) Interactions(k Kind, i Interaction) []string {
	switch UserField(k, i) {
	case "likedJobs":
		return u.LikedJobs
	case "viewedJobs":
		return u.ViewedJobs
	case "likedPosts":
		return u.LikedPosts
	default:
		return u.ViewedPosts
	}
}

// HasRole reports whether the user carries the role.
func HasRole(roles []string, role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
