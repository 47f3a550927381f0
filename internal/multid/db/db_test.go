package db

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/eggpool/sqlitemulti/internal/log"
	"github.com/eggpool/sqlitemulti/internal/multid/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	logger := log.NewLogger(io.Discard)
	dbStats := stats.NewDBStats()
	t.Cleanup(dbStats.Close)

	instance, err := NewDB(Config{
		Logger:                 logger,
		Stats:                  dbStats,
		Directory:              t.TempDir(),
		TransactionIdleTimeout: time.Minute,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = instance.Close() })

	return instance
}

func TestNewDBValidation(t *testing.T) {
	logger := log.NewLogger(io.Discard)
	dbStats := stats.NewDBStats()
	defer dbStats.Close()

	t.Run("MissingLogger", func(t *testing.T) {
		_, err := NewDB(Config{
			Stats:                  dbStats,
			Directory:              t.TempDir(),
			TransactionIdleTimeout: time.Minute,
		})
		assert.Error(t, err)
	})

	t.Run("MissingStats", func(t *testing.T) {
		_, err := NewDB(Config{
			Logger:                 logger,
			Directory:              t.TempDir(),
			TransactionIdleTimeout: time.Minute,
		})
		assert.Error(t, err)
	})

	t.Run("MissingDirectory", func(t *testing.T) {
		_, err := NewDB(Config{
			Logger:                 logger,
			Stats:                  dbStats,
			TransactionIdleTimeout: time.Minute,
		})
		assert.Error(t, err)
	})

	t.Run("MissingTimeout", func(t *testing.T) {
		_, err := NewDB(Config{
			Logger:    logger,
			Stats:     dbStats,
			Directory: t.TempDir(),
		})
		assert.Error(t, err)
	})

	t.Run("UnopenableDatabase", func(t *testing.T) {
		dir := t.TempDir()
		// A directory in place of the database file makes the first
		// ping fail.
		require.NoError(t, os.Mkdir(filepath.Join(dir, "database.sqlite"), 0755))

		_, err := NewDB(Config{
			Logger:                 logger,
			Stats:                  dbStats,
			Directory:              dir,
			TransactionIdleTimeout: time.Minute,
		})
		assert.Error(t, err)
	})
}

func TestWriteAndRead(t *testing.T) {
	ctx := context.Background()
	instance := newTestDB(t)

	res, err := instance.Query(ctx, Query{
		Query: "CREATE TABLE users (id INTEGER PRIMARY KEY, email TEXT)",
	})
	require.NoError(t, err)
	assert.Equal(t, QueryTypeWrite, res.Type)

	res, err = instance.Query(ctx, Query{
		Query:  "INSERT INTO users (email) VALUES (?)",
		Params: []any{"a@example.com"},
	})
	require.NoError(t, err)
	assert.Equal(t, QueryTypeWrite, res.Type)
	assert.Equal(t, int64(1), res.WriteResult.LastInsertID)
	assert.Equal(t, int64(1), res.WriteResult.RowsAffected)

	res, err = instance.Query(ctx, Query{
		Query: "SELECT id, email FROM users",
	})
	require.NoError(t, err)
	assert.Equal(t, QueryTypeRead, res.Type)
	assert.Equal(t, []string{"id", "email"}, res.ReadResult.Columns)
	assert.Equal(t, []string{"integer", "text"}, res.ReadResult.Types)
	require.Len(t, res.ReadResult.Values, 1)
	assert.Equal(t, "a@example.com", res.ReadResult.Values[0][1])
}

func TestTransactions(t *testing.T) {
	ctx := context.Background()
	instance := newTestDB(t)

	_, err := instance.Query(ctx, Query{
		Query: "CREATE TABLE users (id INTEGER PRIMARY KEY, email TEXT)",
	})
	require.NoError(t, err)

	t.Run("CommitMakesWritesVisible", func(t *testing.T) {
		begin, err := instance.Query(ctx, Query{Query: "BEGIN"})
		require.NoError(t, err)
		require.Equal(t, QueryTypeBegin, begin.Type)
		require.NotEmpty(t, begin.TxId)

		_, err = instance.Query(ctx, Query{
			TxId:   begin.TxId,
			Query:  "INSERT INTO users (email) VALUES (?)",
			Params: []any{"tx@example.com"},
		})
		require.NoError(t, err)

		commit, err := instance.Query(ctx, Query{TxId: begin.TxId, Query: "COMMIT"})
		require.NoError(t, err)
		assert.Equal(t, QueryTypeCommit, commit.Type)

		res, err := instance.Query(ctx, Query{Query: "SELECT COUNT(*) FROM users"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), res.ReadResult.Values[0][0])
	})

	t.Run("RollbackDiscardsWrites", func(t *testing.T) {
		begin, err := instance.Query(ctx, Query{Query: "BEGIN"})
		require.NoError(t, err)

		_, err = instance.Query(ctx, Query{
			TxId:   begin.TxId,
			Query:  "INSERT INTO users (email) VALUES (?)",
			Params: []any{"discarded@example.com"},
		})
		require.NoError(t, err)

		_, err = instance.Query(ctx, Query{TxId: begin.TxId, Query: "ROLLBACK"})
		require.NoError(t, err)

		res, err := instance.Query(ctx, Query{Query: "SELECT COUNT(*) FROM users"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), res.ReadResult.Values[0][0])
	})

	t.Run("CommitUnknownTransaction", func(t *testing.T) {
		_, err := instance.Query(ctx, Query{TxId: "nope", Query: "COMMIT"})
		assert.Error(t, err)
	})
}

func TestQueryError(t *testing.T) {
	ctx := context.Background()
	instance := newTestDB(t)

	_, err := instance.Query(ctx, Query{Query: "SELECT * FROM missing"})
	assert.Error(t, err)
}

func TestStatsCounting(t *testing.T) {
	ctx := context.Background()
	instance := newTestDB(t)

	_, err := instance.Query(ctx, Query{
		Query: "CREATE TABLE users (id INTEGER PRIMARY KEY)",
	})
	require.NoError(t, err)

	_, err = instance.Query(ctx, Query{Query: "SELECT COUNT(*) FROM users"})
	require.NoError(t, err)

	loaded := instance.Stats.LoadStats()
	assert.Equal(t, int64(1), loaded.Totals.Writes)
	assert.Equal(t, int64(1), loaded.Totals.Reads)
}
