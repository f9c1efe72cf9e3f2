// Package dbtest starts a throwaway MongoDB for store tests.
package dbtest

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"folio/config"
	"folio/db"
)

// Open returns a connection to an empty database. It uses
// FOLIO_TEST_MONGO_URI when set, otherwise it starts a mongo:7 container.
// The test is skipped with -short or when no container provider is healthy.
func Open(t *testing.T) *db.DB {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping mongodb test in short mode")
	}

	ctx := context.Background()
	uri := os.Getenv("FOLIO_TEST_MONGO_URI")

	if uri == "" {
		testcontainers.SkipIfProviderIsNotHealthy(t)

		req := testcontainers.ContainerRequest{
			Image:        "docker.io/library/mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForLog("Waiting for connections").WithStartupTimeout(time.Minute),
		}
		container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: req,
			Started:          true,
		})
		if err != nil {
			t.Fatalf("%+v", errors.WithStack(err))
		}

		t.Cleanup(func() {
			if err := container.Terminate(context.Background()); err != nil {
				t.Errorf("%+v", errors.WithStack(err))
			}
		})

		host, err := container.Host(ctx)
		if err != nil {
			t.Fatalf("%+v", errors.WithStack(err))
		}
		port, err := container.MappedPort(ctx, "27017")
		if err != nil {
			t.Fatalf("%+v", errors.WithStack(err))
		}
		uri = fmt.Sprintf("mongodb://%s:%s", host, port.Port())
	}

	database := fmt.Sprintf("folio_test_%d", time.Now().UnixNano())
	conn, err := db.Connect(ctx, config.Mongo{URI: uri, Database: database, Timeout: 10 * time.Second})
	if err != nil {
		t.Fatalf("%+v", err)
	}

	t.Cleanup(func() {
		_ = conn.Client.Database(database).Drop(context.Background())
		_ = conn.Close()
	})

	return conn
}
