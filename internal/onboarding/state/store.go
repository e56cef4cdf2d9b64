package state

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNoSnapshot is returned by Store.Load when nothing was saved yet.
var ErrNoSnapshot = stderrors.New("no snapshot stored")

// Store persists one serialized snapshot.
type Store interface {
	Save(ctx context.Context, data []byte) error
	Load(ctx context.Context) ([]byte, error)
}

// PostgresStore keeps snapshots in a table keyed by snapshot name.
type PostgresStore struct {
	db    *sql.DB
	table string
	key   string
}

func NewPostgresStore(db *sql.DB, table, key string) *PostgresStore {
	return &PostgresStore{db: db, table: table, key: key}
}

// EnsureSchema creates the snapshot table when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			snapshot_key   TEXT PRIMARY KEY,
			schema_version INTEGER NOT NULL,
			payload        JSONB NOT NULL,
			updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, s.table)
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create snapshot table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, data []byte) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (snapshot_key, schema_version, payload, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (snapshot_key)
		DO UPDATE SET schema_version = EXCLUDED.schema_version, payload = EXCLUDED.payload, updated_at = NOW()`, s.table)
	if _, err := s.db.ExecContext(ctx, query, s.key, CurrentSchemaVersion, data); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context) ([]byte, error) {
	query := fmt.Sprintf(`SELECT payload FROM %s WHERE snapshot_key = $1`, s.table)
	var data []byte
	err := s.db.QueryRowContext(ctx, query, s.key).Scan(&data)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return data, nil
}

// RedisStore keeps the snapshot under a single key with an optional TTL.
type RedisStore struct {
	client redis.Cmdable
	key    string
	ttl    time.Duration
}

func NewRedisStore(client redis.Cmdable, key string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, key: key, ttl: ttl}
}

func (s *RedisStore) Save(ctx context.Context, data []byte) error {
	if err := s.client.Set(ctx, s.key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return data, nil
}
