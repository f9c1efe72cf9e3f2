package reconcile

import (
	"context"
	"slices"
	"testing"
	"time"

	"folio/memstore"
	"folio/models"
)

func TestRunOnceRepairs(t *testing.T) {
	ctx := context.Background()
	jobs := memstore.NewResources(models.KindJob)
	posts := memstore.NewResources(models.KindPost)
	users := memstore.NewUsers()
	for _, id := range []string{"u1", "u2"} {
		if _, err := users.Create(ctx, models.User{ID: id}); err != nil {
			t.Fatalf("%+v", err)
		}
	}

	// Counted twice, and u1 never got the back-reference.
	jobs.Put(models.Resource{ID: "j1", Title: "Logo", LikedBy: []string{"u1"}, LikesCount: 2, ViewedBy: []string{}})
	// Consistent, already linked.
	posts.Put(models.Resource{ID: "p1", Title: "Board", LikedBy: []string{"u2"}, LikesCount: 1, ViewedBy: []string{}})
	if _, err := users.PatchByID(ctx, "u2", models.LinkBackReference("likedPosts", "p1")); err != nil {
		t.Fatalf("%+v", err)
	}
	// Counted by a user that no longer exists.
	posts.Put(models.Resource{ID: "p2", Title: "Sketch", ViewedBy: []string{"ghost"}, ViewsCount: 1, LikedBy: []string{}})

	r := New(map[models.Kind]ResourceStore{models.KindJob: jobs, models.KindPost: posts}, users, nil)
	report, err := r.RunOnce(ctx)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	want := Report{Scanned: 3, Recounted: 1, Relinked: 1, MissingUsers: 1}
	if report != want {
		t.Fatalf("report = %+v, want %+v", report, want)
	}

	j1, _ := jobs.GetByID(ctx, "j1")
	if j1.LikesCount != 1 {
		t.Fatalf("expected recount to 1, got %d", j1.LikesCount)
	}
	u1, _ := users.GetByID(ctx, "u1")
	if !slices.Equal(u1.LikedJobs, []string{"j1"}) {
		t.Fatalf("expected relinked back-reference, got %v", u1.LikedJobs)
	}

	again, err := r.RunOnce(ctx)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if again.Recounted != 0 || again.Relinked != 0 {
		t.Fatalf("second pass should be a no-op, got %+v", again)
	}
}

func TestRunStopsWithContext(t *testing.T) {
	r := New(map[models.Kind]ResourceStore{models.KindJob: memstore.NewResources(models.KindJob)}, memstore.NewUsers(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx, time.Millisecond)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
