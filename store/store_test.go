package store

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/strahe/catalog-sentinel/pgdb"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/yugabyte/pgx/v5/pgtype"
)

type storeSuite struct {
	suite.Suite
	newStore func() Store
	store    Store
}

func (s *storeSuite) SetupTest() {
	s.store = s.newStore()
}

func (s *storeSuite) TearDownTest() {
	s.NoError(s.store.Close())
}

func (s *storeSuite) TestGetMissing() {
	_, err := s.store.Get(context.Background(), "checkpoint")
	s.ErrorIs(err, ErrNotFound)
}

func (s *storeSuite) TestSetGetOverwrite() {
	ctx := context.Background()
	s.Require().NoError(s.store.Set(ctx, "checkpoint", []byte("12")))
	s.Require().NoError(s.store.Set(ctx, "checkpoint", []byte("1700000000000:evt-9")))

	value, err := s.store.Get(ctx, "checkpoint")
	s.Require().NoError(err)
	s.Equal("1700000000000:evt-9", string(value))
}

func (s *storeSuite) TestKeysAreIndependent() {
	ctx := context.Background()
	s.Require().NoError(s.store.Set(ctx, "sentinel/file", []byte("a")))
	s.Require().NoError(s.store.Set(ctx, "sentinel/postgres", []byte("b")))

	value, err := s.store.Get(ctx, "sentinel/file")
	s.Require().NoError(err)
	s.Equal("a", string(value))
}

func (s *storeSuite) TestDelete() {
	ctx := context.Background()
	s.Require().NoError(s.store.Set(ctx, "checkpoint", []byte("1")))
	s.Require().NoError(s.store.Delete(ctx, "checkpoint"))
	s.Require().NoError(s.store.Delete(ctx, "checkpoint"))

	_, err := s.store.Get(ctx, "checkpoint")
	s.ErrorIs(err, ErrNotFound)
}

func (s *storeSuite) TestValuesAreCopied() {
	ctx := context.Background()
	value := []byte("abc")
	s.Require().NoError(s.store.Set(ctx, "k", value))
	value[0] = 'x'

	got, err := s.store.Get(ctx, "k")
	s.Require().NoError(err)
	s.Equal("abc", string(got))
}

func TestMemoryStore(t *testing.T) {
	suite.Run(t, &storeSuite{newStore: func() Store { return NewMemoryStore() }})
}

func TestFileStore(t *testing.T) {
	suite.Run(t, &storeSuite{newStore: func() Store {
		s, err := NewFileStore(t.TempDir())
		require.NoError(t, err)
		return s
	}})
}

func TestPostgresStore(t *testing.T) {
	hosts := os.Getenv("CATALOG_SENTINEL_TEST_HOSTS")
	if hosts == "" {
		t.Skip("CATALOG_SENTINEL_TEST_HOSTS not set")
	}
	cfg := pgdb.Config{
		Hosts:    strings.Split(hosts, ","),
		Username: os.Getenv("CATALOG_SENTINEL_TEST_USER"),
		Password: os.Getenv("CATALOG_SENTINEL_TEST_PASSWORD"),
		Database: os.Getenv("CATALOG_SENTINEL_TEST_DATABASE"),
	}
	table := "sentinel_checkpoint_test_" + time.Now().Format("20060102150405")

	suite.Run(t, &storeSuite{newStore: func() Store {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s, err := NewPostgresStore(ctx, cfg, table, nil)
		require.NoError(t, err)
		require.NoError(t, pgdb.Exec(ctx, s.conn, "DELETE FROM "+s.table))
		return s
	}})
}

func TestDecodeBytea(t *testing.T) {
	m := pgtype.NewMap()

	b, err := decodeBytea(m, []byte(`\x68690a`))
	require.NoError(t, err)
	require.Equal(t, []byte("hi\n"), b)

	_, err = decodeBytea(m, []byte(`\xzz`))
	require.Error(t, err)
}
