// Package mq publishes domain events to Redis pub/sub.
package mq

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"folio/models"
)

const (
	ResourceCreated     = "resource-created"
	ResourceUpdated     = "resource-updated"
	ResourceDeleted     = "resource-deleted"
	InteractionRecorded = "interaction-recorded"
)

// Event is the payload published on the events channel.
type Event struct {
	ID          string             `json:"id"`
	Name        string             `json:"event"`
	Kind        models.Kind        `json:"kind"`
	ResourceID  string             `json:"resource_id"`
	UserID      string             `json:"user_id,omitempty"`
	Interaction models.Interaction `json:"interaction,omitempty"`
	At          time.Time          `json:"at"`
}

// NewEvent stamps an event with a fresh id and the current time.
func NewEvent(name string, kind models.Kind, resourceID, userID string) Event {
	return Event{
		ID:         uuid.NewString(),
		Name:       name,
		Kind:       kind,
		ResourceID: resourceID,
		UserID:     userID,
		At:         time.Now().UTC(),
	}
}

type Emitter interface {
	Emit(ctx context.Context, evt Event) error
}

// NopEmitter drops every event. Used when Redis is not configured.
type NopEmitter struct{}

func (NopEmitter) Emit(context.Context, Event) error { return nil }

type RedisEmitter struct {
	client  redis.UniversalClient
	channel string
}

func NewRedisEmitter(client redis.UniversalClient, channel string) *RedisEmitter {
	return &RedisEmitter{client: client, channel: channel}
}

func (e *RedisEmitter) Emit(ctx context.Context, evt Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return errors.Wrap(err, "marshal event")
	}

	if err := e.client.Publish(ctx, e.channel, data).Err(); err != nil {
		return errors.Wrapf(err, "publish %s to %s", evt.Name, e.channel)
	}

	slog.DebugContext(ctx, "event published",
		slog.String("event", evt.Name),
		slog.String("channel", e.channel),
		slog.String("resource_id", evt.ResourceID),
	)
	return nil
}

// EmitQuietly publishes evt within a short deadline and only logs a
// failure. Events never change the outcome of the operation that
// produced them.
func EmitQuietly(ctx context.Context, e Emitter, evt Event) {
	if e == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	if err := e.Emit(ctx, evt); err != nil {
		slog.WarnContext(ctx, "could not publish event",
			slog.String("event", evt.Name),
			slog.Any("error", err),
		)
	}
}
