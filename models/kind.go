package models

import "strings"

// Kind is a resource collection: jobs or posts.
type Kind string

const (
	KindJob  Kind = "job"
	KindPost Kind = "post"
)

var Kinds = []Kind{KindJob, KindPost}

// Collection is the MongoDB collection backing the kind.
func (k Kind) Collection() string { return string(k) + "s" }

// Title is used in user-facing messages ("Job not found").
func (k Kind) Title() string {
	if k == "" {
		return ""
	}
	return strings.ToUpper(string(k[:1])) + string(k[1:])
}

// Interaction is something a user does to a resource at most once.
type Interaction string

const (
	Like Interaction = "like"
	View Interaction = "view"
)

// SetField is the resource-side set of user ids.
func (i Interaction) SetField() string {
	if i == Like {
		return "likedBy"
	}
	return "viewedBy"
}

// CounterField is the denormalized counter mirroring SetField.
func (i Interaction) CounterField() string {
	if i == Like {
		return "likesCount"
	}
	return "viewsCount"
}

// Past is the past participle used in messages and user fields.
func (i Interaction) Past() string {
	if i == Like {
		return "liked"
	}
	return "viewed"
}

// UserField is the user-side back-reference set for a kind and interaction:
// likedJobs, viewedJobs, likedPosts or viewedPosts.
func UserField(k Kind, i Interaction) string {
	return i.Past() + k.Title() + "s"
}

// IsResourceSetField reports whether field is likedBy or viewedBy.
func IsResourceSetField(field string) bool {
	return field == Like.SetField() || field == View.SetField()
}

// IsResourceCounterField reports whether field is likesCount or viewsCount.
func IsResourceCounterField(field string) bool {
	return field == Like.CounterField() || field == View.CounterField()
}

// NoField rejects every field. Users carry no counters.
func NoField(string) bool { return false }

// IsUserField reports whether field is one of the four back-reference sets.
func IsUserField(field string) bool {
	for _, k := range Kinds {
		for _, i := range []Interaction{Like, View} {
			if UserField(k, i) == field {
				return true
			}
		}
	}
	return false
}
