package models

import (
	"math"
	"testing"
	"time"

	"folio/errs"

	"github.com/pkg/errors"
)

func TestUserField(t *testing.T) {
	cases := map[string]string{
		UserField(KindJob, Like):  "likedJobs",
		UserField(KindJob, View):  "viewedJobs",
		UserField(KindPost, Like): "likedPosts",
		UserField(KindPost, View): "viewedPosts",
	}
	for got, want := range cases {
		if got != want {
			t.Errorf("UserField = %q, want %q", got, want)
		}
		if !IsUserField(got) {
			t.Errorf("IsUserField(%q) = false", got)
		}
	}
	if IsUserField("password") {
		t.Error("IsUserField accepted an unrelated field")
	}
}

func TestPatchCheckFields(t *testing.T) {
	if err := RecordInteraction(Like, "u1").CheckFields(IsResourceSetField, IsResourceCounterField); err != nil {
		t.Fatalf("interaction patch rejected: %v", err)
	}
	if err := LinkBackReference("likedPosts", "p1").CheckFields(IsUserField, NoField); err != nil {
		t.Fatalf("back-reference patch rejected: %v", err)
	}

	bad := []struct {
		name  string
		patch Patch
	}{
		{"resource tools", Patch{AddToSet: map[string]string{"tools": "x"}}},
		{"resource pull", Patch{Pull: map[string]string{"tags": "x"}}},
		{"counter on set", Patch{Inc: map[string]int{"likedBy": 1}}},
		{"guard", Patch{AddToSet: map[string]string{"likedBy": "u1"}, Absent: map[string]string{"title": "u1"}}},
	}
	for _, c := range bad {
		if err := c.patch.CheckFields(IsResourceSetField, IsResourceCounterField); !errors.Is(err, errs.ErrValidation) {
			t.Errorf("%s: expected validation error, got %v", c.name, err)
		}
	}
	if err := LinkBackReference("role", "admin").CheckFields(IsUserField, NoField); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("user role patch: expected validation error, got %v", err)
	}
}

func TestPayloadValidate(t *testing.T) {
	valid := ResourcePayload{PosterID: "u1", Title: "Designer", Description: "Figma work", Tools: []string{}}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid payload, got %v", err)
	}

	missing := []ResourcePayload{
		{Title: "t", Description: "d", Tools: []string{}},
		{PosterID: "u1", Title: "  ", Description: "d", Tools: []string{}},
		{PosterID: "u1", Title: "t", Tools: []string{}},
		{PosterID: "u1", Title: "t", Description: "d"},
	}
	for i, p := range missing {
		if err := p.Validate(); !errors.Is(err, errs.ErrValidation) {
			t.Errorf("case %d: expected validation error, got %v", i, err)
		}
	}
}

func TestNewResourceStartsEmpty(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 123456789, time.UTC)
	r := NewResource("id1", ResourcePayload{PosterID: "u1", Title: " Logo ", Description: "d", Tools: []string{"figma"}}, now)

	if r.LikesCount != 0 || r.ViewsCount != 0 {
		t.Fatalf("expected zero counters, got %d/%d", r.LikesCount, r.ViewsCount)
	}
	if r.LikedBy == nil || len(r.LikedBy) != 0 || r.ViewedBy == nil || len(r.ViewedBy) != 0 {
		t.Fatalf("expected empty non-nil sets, got %v/%v", r.LikedBy, r.ViewedBy)
	}
	if r.Title != "Logo" {
		t.Fatalf("expected trimmed title, got %q", r.Title)
	}
	if r.CreatedAt.Nanosecond()%int(time.Millisecond) != 0 {
		t.Fatalf("expected millisecond precision, got %v", r.CreatedAt)
	}
}

func TestUpdateApplyToLeavesInteractionsAlone(t *testing.T) {
	r := Resource{Title: "old", Description: "old", LikedBy: []string{"u2"}, LikesCount: 1, PosterID: "u1"}
	title := "new"
	u := ResourceUpdate{Title: &title}
	if err := u.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	u.ApplyTo(&r, time.Now())

	if r.Title != "new" || r.Description != "old" {
		t.Fatalf("unexpected content fields: %+v", r)
	}
	if r.LikesCount != 1 || len(r.LikedBy) != 1 || r.PosterID != "u1" {
		t.Fatalf("interaction or owner fields changed: %+v", r)
	}

	if err := (&ResourceUpdate{}).Validate(); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("expected empty update to fail validation, got %v", err)
	}
}

func TestUpdateApplyToCopiesSlices(t *testing.T) {
	tools := []string{"figma"}
	tags := []string{"design"}
	media := []Media{{FileType: "image", FilePath: "/a.png"}}
	u := ResourceUpdate{Tools: &tools, Tags: &tags, Media: &media}

	var r Resource
	u.ApplyTo(&r, time.Now())
	tools[0], tags[0], media[0].FilePath = "sketch", "art", "/b.png"

	if r.Tools[0] != "figma" || r.Tags[0] != "design" || r.Media[0].FilePath != "/a.png" {
		t.Fatalf("record shares backing arrays with the update: %+v", r)
	}
}

func TestQueryOptions(t *testing.T) {
	o := QueryOptions{Limit: -3, Page: 0}.Normalize()
	if o.Limit != DefaultLimit || o.Page != DefaultPage {
		t.Fatalf("unexpected defaults: %+v", o)
	}
	if got := (QueryOptions{Limit: 1, Page: 2}).Skip(); got != 1 {
		t.Fatalf("Skip() = %d, want 1", got)
	}
	if got := (QueryOptions{Limit: 100, Page: 1e17}).Skip(); got != math.MaxInt64 {
		t.Fatalf("Skip() = %d, want saturation at %d", got, int64(math.MaxInt64))
	}
	if got := (QueryOptions{Limit: 1, Page: math.MaxInt}).Skip(); got != math.MaxInt-1 {
		t.Fatalf("Skip() = %d, want %d", got, int64(math.MaxInt-1))
	}

	keys := QueryOptions{SortBy: "likesCount:desc, password:asc,title"}.SortKeys()
	if len(keys) != 2 || keys[0] != (SortKey{"likesCount", -1}) || keys[1] != (SortKey{"title", 1}) {
		t.Fatalf("unexpected sort keys: %+v", keys)
	}
}

func TestNewPage(t *testing.T) {
	p := NewPage[Resource](nil, 3, QueryOptions{Limit: 1, Page: 2})
	if p.TotalPages != 3 || p.TotalResults != 3 || p.Page != 2 || p.Limit != 1 {
		t.Fatalf("unexpected envelope: %+v", p)
	}
	if p.Results == nil {
		t.Fatal("expected non-nil results")
	}
	if empty := NewPage[Resource](nil, 0, QueryOptions{}); empty.TotalPages != 0 {
		t.Fatalf("expected zero pages, got %d", empty.TotalPages)
	}
}
