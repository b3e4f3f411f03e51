//go:build integration

package containers

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// schema is the full store schema, applied to every fresh container.
const schema = `
CREATE TABLE document_types (
	id            uuid PRIMARY KEY,
	title         text NOT NULL UNIQUE,
	description   text NOT NULL DEFAULT '',
	cannot_expire boolean NOT NULL DEFAULT false,
	mandatory     boolean NOT NULL DEFAULT false,
	apply_only_to text[] NOT NULL DEFAULT '{}',
	created_at    timestamptz NOT NULL,
	updated_at    timestamptz NOT NULL
);

CREATE TABLE documents (
	id              uuid PRIMARY KEY,
	type_id         uuid NOT NULL REFERENCES document_types (id),
	owner_kind      text NOT NULL,
	owner_id        bigint NOT NULL,
	status          text NOT NULL DEFAULT 'Waiting',
	expiration_date date,
	notes           text NOT NULL DEFAULT '',
	reviewed_at     timestamptz,
	reviewed_by     uuid,
	reminded_at     timestamptz,
	file_ref        text,
	created_at      timestamptz NOT NULL,
	updated_at      timestamptz NOT NULL
);

CREATE INDEX documents_owner_idx ON documents (owner_kind, owner_id);
CREATE INDEX documents_due_idx ON documents (expiration_date) WHERE reminded_at IS NULL;

CREATE TABLE owner_compliance (
	owner_kind             text NOT NULL,
	owner_id               bigint NOT NULL,
	legal_state            text NOT NULL,
	legal_state_changed_at timestamptz,
	PRIMARY KEY (owner_kind, owner_id)
);

CREATE TABLE audit_events (
	id          bigserial PRIMARY KEY,
	occurred_at timestamptz NOT NULL,
	action      text NOT NULL,
	owner_kind  text NOT NULL,
	owner_id    bigint NOT NULL,
	document_id text,
	actor       text,
	detail      text NOT NULL DEFAULT '',
	request_id  text
);

CREATE INDEX audit_events_owner_idx ON audit_events (owner_kind, owner_id, occurred_at);
`

// PostgresContainer wraps a testcontainers Postgres instance with the
// schema applied.
type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
	DB        *sql.DB
}

// NewPostgresContainer starts a new Postgres container and applies the
// schema.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("legaldocs"),
		tcpostgres.WithUsername("legaldocs"),
		tcpostgres.WithPassword("legaldocs"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to open postgres connection: %v", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to ping postgres: %v", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to apply schema: %v", err)
	}

	pc := &PostgresContainer{
		Container: container,
		DSN:       dsn,
		DB:        db,
	}

	t.Cleanup(func() {
		_ = db.Close()
		_ = container.Terminate(context.Background())
	})

	return pc
}

// Truncate empties all tables. Use between tests to ensure isolation.
func (p *PostgresContainer) Truncate(ctx context.Context) error {
	_, err := p.DB.ExecContext(ctx,
		`TRUNCATE documents, document_types, owner_compliance, audit_events`)
	return err
}
