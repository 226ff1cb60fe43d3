package store

import (
	"context"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/strahe/catalog-sentinel/pgdb"
	"github.com/yugabyte/pgx/v5/pgconn"
	"github.com/yugabyte/pgx/v5/pgtype"
)

const defaultCheckpointTable = "sentinel_checkpoint"

// PostgresStore keeps keys in a two column table, created on first use.
type PostgresStore struct {
	conn    *pgconn.PgConn
	typeMap *pgtype.Map
	table   string
	mu      sync.Mutex
}

func NewPostgresStore(ctx context.Context, cfg pgdb.Config, table string, logger pgdb.Logger) (*PostgresStore, error) {
	if table == "" {
		table = defaultCheckpointTable
	}
	conn, err := pgdb.Connect(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	s := &PostgresStore{conn: conn, typeMap: pgtype.NewMap(), table: pgdb.QuoteTable(table)}
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (key TEXT PRIMARY KEY, value BYTEA NOT NULL, updated_at TIMESTAMPTZ NOT NULL DEFAULT now())`, s.table)
	if err := pgdb.Exec(ctx, conn, ddl); err != nil {
		conn.Close(context.Background())
		return nil, fmt.Errorf("failed to create table %s: %w", table, err)
	}
	return s, nil
}

func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := pgdb.Query(ctx, s.conn, fmt.Sprintf(`SELECT value FROM %s WHERE key = $1`, s.table), key)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return decodeBytea(s.typeMap, rows[0][0])
}

func (s *PostgresStore) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := fmt.Sprintf(`INSERT INTO %s (key, value) VALUES ($1, decode($2, 'hex'))
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`, s.table)
	if _, err := pgdb.ExecParams(ctx, s.conn, query, key, hex.EncodeToString(value)); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := pgdb.ExecParams(ctx, s.conn, fmt.Sprintf(`DELETE FROM %s WHERE key = $1`, s.table), key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.Close(context.Background())
}

// decodeBytea parses the text output of a bytea column.
func decodeBytea(m *pgtype.Map, data []byte) ([]byte, error) {
	dt, ok := m.TypeForOID(pgtype.ByteaOID)
	if !ok {
		return nil, fmt.Errorf("bytea type not registered")
	}
	v, err := dt.Codec.DecodeValue(m, pgtype.ByteaOID, pgtype.TextFormatCode, data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode bytea: %w", err)
	}
	b, ok := v.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected bytea value %T", v)
	}
	return b, nil
}

var _ Store = (*PostgresStore)(nil)
