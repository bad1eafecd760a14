//go:build live

package schema

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

// TestLoadFromPostgresLive exercises LoadFromPostgres against a real
// container (spec's "best-effort typing" claim only means something if it's
// checked against an actual information_schema). Opt in with `-tags live`;
// it is not part of the default test run since it needs Docker.
//
// Grounded on the teacher's pkg/fixgres container-boot helper, trimmed to
// this package's needs (no goose migration step and no tables: it loads the
// empty database and checks the catalog's default schema).
func TestLoadFromPostgresLive(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	container, err := postgres.Run(ctx,
		"docker.io/postgres:16-alpine",
		postgres.WithDatabase("app"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("pass"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	defer func() { _ = container.Terminate(ctx) }()

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}

	d, err := LoadFromPostgres(ctx, dsn, LoadOptions{DefaultSchema: "public"})
	if err != nil {
		t.Fatalf("LoadFromPostgres: %v", err)
	}
	if d.DefaultSchema != "public" {
		t.Fatalf("got default schema %q", d.DefaultSchema)
	}
}
