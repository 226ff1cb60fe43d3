package pgdb

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteTable(t *testing.T) {
	assert.Equal(t, `"change_event"`, QuoteTable("change_event"))
	assert.Equal(t, `"public"."change_event"`, QuoteTable("public.change_event"))
	assert.Equal(t, `"odd""name"`, QuoteTable(`odd"name`))
}

func TestConnString(t *testing.T) {
	s, err := ConnString(Config{
		Hosts:    []string{"db1", "db2"},
		Port:     5433,
		Username: "catalog",
		Database: "catalog_db",
	})
	require.NoError(t, err)
	assert.Equal(t, "host=db1 port=5433 user=catalog dbname=catalog_db", s)

	s, err = ConnString(Config{Hosts: []string{"localhost"}})
	require.NoError(t, err)
	assert.Equal(t, "host=localhost", s)

	_, err = ConnString(Config{})
	assert.Error(t, err)
}

func TestBuildConnConfigFallbacks(t *testing.T) {
	cfg, err := BuildConnConfig(Config{Hosts: []string{"db1", "db2", "db3"}, Port: 5433}, nil)
	require.NoError(t, err)
	assert.Equal(t, "db1", cfg.Host)
	assert.Equal(t, uint16(5433), cfg.Port)

	var hosts []string
	for _, fb := range cfg.Fallbacks {
		if fb.Port == 5433 {
			hosts = append(hosts, fb.Host)
		}
	}
	assert.Subset(t, hosts, []string{"db2", "db3"})
}

// testConfig reads CATALOG_SENTINEL_TEST_HOSTS (comma separated) and friends. Tests that
// need a database are skipped without it.
func testConfig(t *testing.T) Config {
	hosts := os.Getenv("CATALOG_SENTINEL_TEST_HOSTS")
	if hosts == "" {
		t.Skip("CATALOG_SENTINEL_TEST_HOSTS not set")
	}
	return Config{
		Hosts:    strings.Split(hosts, ","),
		Username: os.Getenv("CATALOG_SENTINEL_TEST_USER"),
		Password: os.Getenv("CATALOG_SENTINEL_TEST_PASSWORD"),
		Database: os.Getenv("CATALOG_SENTINEL_TEST_DATABASE"),
	}
}

func TestQueryAgainstDatabase(t *testing.T) {
	cfg := testConfig(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := Connect(ctx, cfg, nil)
	require.NoError(t, err)
	defer conn.Close(context.Background())

	require.NoError(t, Exec(ctx, conn, `CREATE TEMP TABLE pgdb_test (k TEXT PRIMARY KEY, v TEXT)`))

	exists, err := TableExists(ctx, conn, "pgdb_test")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = TableExists(ctx, conn, "pgdb_missing")
	require.NoError(t, err)
	assert.False(t, exists)

	n, err := ExecParams(ctx, conn, `INSERT INTO pgdb_test (k, v) VALUES ($1, $2)`, "a", "1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	rows, err := Query(ctx, conn, `SELECT v FROM pgdb_test WHERE k = $1`, "a")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "1", string(rows[0][0]))
}
