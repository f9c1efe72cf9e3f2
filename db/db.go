// Package db opens the MongoDB deployment and hands out explicit
// collection handles.
package db

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"folio/config"
	"folio/models"
)

// DB holds the client and the collections this service owns.
type DB struct {
	Client *mongo.Client
	Jobs   *mongo.Collection
	Posts  *mongo.Collection
	Users  *mongo.Collection
}

// Connect dials MongoDB and verifies the connection with a ping. Every
// operation issued through the client is bounded by conf.Timeout.
func Connect(ctx context.Context, conf config.Mongo) (*DB, error) {
	clientOptions := options.Client().
		ApplyURI(conf.URI).
		SetTimeout(conf.Timeout).
		SetServerSelectionTimeout(conf.Timeout)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, errors.Wrap(err, "could not connect to mongodb")
	}

	pingCtx, cancel := context.WithTimeout(ctx, conf.Timeout)
	defer cancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(err, "could not ping mongodb")
	}

	slog.InfoContext(ctx, "connected to mongodb", slog.String("database", conf.Database))

	return New(client, conf.Database), nil
}

// New wraps an existing client.
func New(client *mongo.Client, database string) *DB {
	d := client.Database(database)
	return &DB{
		Client: client,
		Jobs:   d.Collection(models.KindJob.Collection()),
		Posts:  d.Collection(models.KindPost.Collection()),
		Users:  d.Collection("users"),
	}
}

// Collection returns the handle backing a resource kind.
func (d *DB) Collection(kind models.Kind) *mongo.Collection {
	if kind == models.KindPost {
		return d.Posts
	}
	return d.Jobs
}

// Close disconnects the client, waiting at most ten seconds.
func (d *DB) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return errors.WithStack(d.Client.Disconnect(ctx))
}
