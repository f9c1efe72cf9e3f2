package models

import (
	"slices"
	"strings"
	"time"

	"folio/errs"
)

// Media describes an already stored file attached to a resource.
type Media struct {
	FileType string `bson:"fileType" json:"fileType"`
	FilePath string `bson:"filePath" json:"filePath"`
}

// Resource is the shared schema of jobs and posts.
type Resource struct {
	ID            string    `bson:"_id" json:"id"`
	PosterID      string    `bson:"posterId" json:"posterId"`
	Title         string    `bson:"title" json:"title"`
	Description   string    `bson:"description" json:"description"`
	Tools         []string  `bson:"tools" json:"tools"`
	Tags          []string  `bson:"tags" json:"tags"`
	Media         []Media   `bson:"media" json:"media"`
	CompanyLogo   *Media    `bson:"companyLogo,omitempty" json:"companyLogo,omitempty"`
	LikesCount    int       `bson:"likesCount" json:"likesCount"`
	ViewsCount    int       `bson:"viewsCount" json:"viewsCount"`
	TotalComments int       `bson:"totalComments" json:"totalComments"`
	LikedBy       []string  `bson:"likedBy" json:"likedBy"`
	ViewedBy      []string  `bson:"viewedBy" json:"viewedBy"`
	CreatedAt     time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Set returns the user ids recorded for an interaction.
func (r *Resource) Set(i Interaction) []string {
	if i == Like {
		return r.LikedBy
	}
	return r.ViewedBy
}

// Count returns the counter for an interaction.
func (r *Resource) Count(i Interaction) int {
	if i == Like {
		return r.LikesCount
	}
	return r.ViewsCount
}

// ResourcePayload is the client-supplied body of CreateResource.
type ResourcePayload struct {
	PosterID    string   `json:"-"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tools       []string `json:"tools"`
	Tags        []string `json:"tags"`
	Media       []Media  `json:"media"`
	CompanyLogo *Media   `json:"companyLogo,omitempty"`
}

// Validate checks the required fields. Tools may be empty but not absent.
func (p *ResourcePayload) Validate() error {
	var missing []string
	if strings.TrimSpace(p.PosterID) == "" {
		missing = append(missing, "posterId")
	}
	if strings.TrimSpace(p.Title) == "" {
		missing = append(missing, "title")
	}
	if p.Description == "" {
		missing = append(missing, "description")
	}
	if p.Tools == nil {
		missing = append(missing, "tools")
	}
	if len(missing) > 0 {
		return errs.Validation("missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// NewResource builds a fresh record from a validated payload. Interaction
// fields start empty and timestamps are truncated to what MongoDB stores.
func NewResource(id string, p ResourcePayload, now time.Time) Resource {
	now = now.UTC().Truncate(time.Millisecond)
	return Resource{
		ID:          id,
		PosterID:    p.PosterID,
		Title:       strings.TrimSpace(p.Title),
		Description: p.Description,
		Tools:       p.Tools,
		Tags:        nonNil(p.Tags),
		Media:       nonNilMedia(p.Media),
		CompanyLogo: p.CompanyLogo,
		LikedBy:     []string{},
		ViewedBy:    []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// ResourceUpdate carries the owner-controlled fields of UpdateResource.
// Nil fields are left unchanged.
type ResourceUpdate struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Tools       *[]string `json:"tools,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
	Media       *[]Media  `json:"media,omitempty"`
	CompanyLogo *Media    `json:"companyLogo,omitempty"`
}

// Empty reports whether the update carries no field at all.
func (u *ResourceUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Tools == nil &&
		u.Tags == nil && u.Media == nil && u.CompanyLogo == nil
}

// Validate rejects empty updates and blanked required fields.
func (u *ResourceUpdate) Validate() error {
	if u.Empty() {
		return errs.Validation("no fields to update")
	}
	if u.Title != nil && strings.TrimSpace(*u.Title) == "" {
		return errs.Validation("title cannot be empty")
	}
	if u.Description != nil && *u.Description == "" {
		return errs.Validation("description cannot be empty")
	}
	return nil
}

// ApplyTo assigns the provided content fields onto r. Interaction fields
// and the poster are never touched.
func (u *ResourceUpdate) ApplyTo(r *Resource, now time.Time) {
	if u.Title != nil {
		r.Title = strings.TrimSpace(*u.Title)
	}
	if u.Description != nil {
		r.Description = *u.Description
	}
	if u.Tools != nil {
		r.Tools = nonNil(slices.Clone(*u.Tools))
	}
	if u.Tags != nil {
		r.Tags = nonNil(slices.Clone(*u.Tags))
	}
	if u.Media != nil {
		r.Media = nonNilMedia(slices.Clone(*u.Media))
	}
	if u.CompanyLogo != nil {
		logo := *u.CompanyLogo
		r.CompanyLogo = &logo
	}
	r.UpdatedAt = now.UTC().Truncate(time.Millisecond)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilMedia(m []Media) []Media {
	if m == nil {
		return []Media{}
	}
	return m
}
