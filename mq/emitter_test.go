package mq

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"folio/models"
)

func TestNewEvent(t *testing.T) {
	a := NewEvent(InteractionRecorded, models.KindJob, "job-1", "u1")
	b := NewEvent(InteractionRecorded, models.KindJob, "job-1", "u1")

	if a.ID == "" || a.ID == b.ID {
		t.Fatalf("expected unique event ids, got %q and %q", a.ID, b.ID)
	}

	a.Interaction = models.Like
	data, err := json.Marshal(a)
	if err != nil {
		t.Fatal(err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["event"] != InteractionRecorded || decoded["kind"] != "job" || decoded["interaction"] != "like" {
		t.Fatalf("unexpected payload: %s", data)
	}
}

func TestRedisEmitterReportsFailure(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	e := NewRedisEmitter(client, "folio-events")
	if err := e.Emit(context.Background(), NewEvent(ResourceCreated, models.KindPost, "p1", "")); err == nil {
		t.Fatal("expected publish error against a closed port")
	}

	// Must not panic or block past its own deadline.
	EmitQuietly(context.Background(), e, NewEvent(ResourceCreated, models.KindPost, "p1", ""))
	EmitQuietly(context.Background(), nil, Event{})
}
