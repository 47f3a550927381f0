package sqlitemulti

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sqlCreate = "CREATE TABLE IF NOT EXISTS transactions (" +
	"timestamp TEXT, address TEXT, recipient TEXT, amount TEXT, signature TEXT, " +
	"public_key TEXT, operation TEXT, openfield TEXT, mergedts INTEGER)"

func newTestDB(t *testing.T, opts ...Option) *DB {
	t.Helper()

	db, err := Connect(filepath.Join(t.TempDir(), "test.db"), opts...)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Stop()
		_ = db.Join()
	})
	return db
}

func TestConnect(t *testing.T) {
	newTestDB(t)
}

func TestConnectUnopenableDatabase(t *testing.T) {
	_, err := Connect(filepath.Join(t.TempDir(), "missing", "test.db"))
	assert.Error(t, err)
}

func TestCreateTable(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	_, err := db.ExecuteCommit(ctx, sqlCreate)
	require.NoError(t, err)

	rows, err := db.FetchAll(ctx, "PRAGMA table_info('transactions')")
	require.NoError(t, err)
	require.Len(t, rows, 9)
	assert.Equal(t, "timestamp", rows[0][1])
	assert.Equal(t, "TEXT", rows[0][2])
	assert.Equal(t, "mergedts", rows[8][1])
	assert.Equal(t, "INTEGER", rows[8][2])
}

func TestInsertAndFetch(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	_, err := db.ExecuteCommit(ctx, "CREATE TABLE users (id INTEGER PRIMARY KEY, email TEXT)")
	require.NoError(t, err)

	id, err := db.Insert(ctx, "INSERT INTO users (email) VALUES (?)", "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	id, err = db.Insert(ctx, "INSERT INTO users (email) VALUES (?)", "b@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(2), id)

	row, err := db.FetchOne(ctx, "SELECT email FROM users WHERE id = ?", 2)
	require.NoError(t, err)
	require.Len(t, row, 1)
	assert.Equal(t, "b@example.com", row[0])

	rows, err := db.FetchAll(ctx, "SELECT id, email FROM users ORDER BY id")
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestFetchOneNoRows(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	_, err := db.ExecuteCommit(ctx, "CREATE TABLE users (id INTEGER PRIMARY KEY)")
	require.NoError(t, err)

	row, err := db.FetchOne(ctx, "SELECT id FROM users")
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	_, err := db.ExecuteCommit(ctx, "CREATE TABLE users (id INTEGER PRIMARY KEY, email TEXT)")
	require.NoError(t, err)

	for i := range 5 {
		_, err := db.Insert(ctx, "INSERT INTO users (email) VALUES (?)", fmt.Sprintf("user%d@example.com", i))
		require.NoError(t, err)
	}

	deleted, err := db.Delete(ctx, "DELETE FROM users WHERE id > ?", 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)
}

func TestExecuteMany(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	_, err := db.ExecuteCommit(ctx, "CREATE TABLE users (id INTEGER PRIMARY KEY, email TEXT)")
	require.NoError(t, err)

	paramsList := [][]any{}
	for i := range 50 {
		paramsList = append(paramsList, []any{fmt.Sprintf("user%d@example.com", i)})
	}

	res, err := db.ExecuteMany(ctx, "INSERT INTO users (email) VALUES (?)", paramsList)
	require.NoError(t, err)
	assert.Equal(t, int64(50), res.RowsAffected)

	row, err := db.FetchOne(ctx, "SELECT COUNT(*) FROM users")
	require.NoError(t, err)
	assert.Equal(t, int64(50), row[0])
}

func TestExecScript(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	_, err := db.ExecuteCommit(ctx, "CREATE TABLE users (id INTEGER PRIMARY KEY, email TEXT UNIQUE)")
	require.NoError(t, err)

	t.Run("CommitsOnSuccess", func(t *testing.T) {
		count, err := db.ExecScript(ctx, []Statement{
			{SQL: "INSERT INTO users (email) VALUES (?)", Params: []any{"a@example.com"}},
			{SQL: "INSERT INTO users (email) VALUES (?)", Params: []any{"b@example.com"}},
		})
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		row, err := db.FetchOne(ctx, "SELECT COUNT(*) FROM users")
		require.NoError(t, err)
		assert.Equal(t, int64(2), row[0])
	})

	t.Run("RollsBackOnFailure", func(t *testing.T) {
		_, err := db.ExecScript(ctx, []Statement{
			{SQL: "INSERT INTO users (email) VALUES (?)", Params: []any{"c@example.com"}},
			{SQL: "INSERT INTO users (email) VALUES (?)", Params: []any{"a@example.com"}}, // duplicate
		})
		require.Error(t, err)

		row, err := db.FetchOne(ctx, "SELECT COUNT(*) FROM users")
		require.NoError(t, err)
		assert.Equal(t, int64(2), row[0])
	})

	t.Run("EmptyScript", func(t *testing.T) {
		_, err := db.ExecScript(ctx, nil)
		assert.Error(t, err)
	})
}

func TestCommitFlag(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := Connect(dbPath)
	require.NoError(t, err)

	_, err = db.ExecuteCommit(ctx, "CREATE TABLE users (id INTEGER PRIMARY KEY, email TEXT)")
	require.NoError(t, err)

	// Not committed, the pending transaction dies with the worker.
	_, err = db.Execute(ctx, "INSERT INTO users (email) VALUES (?)", "lost@example.com")
	require.NoError(t, err)
	assert.True(t, db.Status().InTransaction)

	require.NoError(t, db.Stop())
	require.NoError(t, db.Join())

	reopened, err := Connect(dbPath)
	require.NoError(t, err)
	defer func() {
		_ = reopened.Stop()
		_ = reopened.Join()
	}()

	row, err := reopened.FetchOne(ctx, "SELECT COUNT(*) FROM users")
	require.NoError(t, err)
	assert.Equal(t, int64(0), row[0])
}

func TestExplicitCommit(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	_, err := db.ExecuteCommit(ctx, "CREATE TABLE users (id INTEGER PRIMARY KEY, email TEXT)")
	require.NoError(t, err)

	_, err = db.Execute(ctx, "INSERT INTO users (email) VALUES (?)", "a@example.com")
	require.NoError(t, err)
	require.True(t, db.Status().InTransaction)

	require.NoError(t, db.Commit(ctx))
	assert.False(t, db.Status().InTransaction)
}

func TestAutoCommit(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t, WithAutoCommit())

	_, err := db.Execute(ctx, "CREATE TABLE users (id INTEGER PRIMARY KEY, email TEXT)")
	require.NoError(t, err)

	_, err = db.Execute(ctx, "INSERT INTO users (email) VALUES (?)", "a@example.com")
	require.NoError(t, err)
	assert.False(t, db.Status().InTransaction)
}

func TestStopAndJoin(t *testing.T) {
	ctx := context.Background()
	db, err := Connect(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	t.Run("JoinBeforeStop", func(t *testing.T) {
		assert.ErrorIs(t, db.Join(), ErrNotStopping)
	})

	require.NoError(t, db.Stop())
	require.NoError(t, db.Join())

	t.Run("CommandsAfterStop", func(t *testing.T) {
		_, err := db.FetchAll(ctx, "SELECT 1")
		assert.ErrorIs(t, err, ErrStopped)
	})

	t.Run("DoubleStop", func(t *testing.T) {
		assert.ErrorIs(t, db.Stop(), ErrStopped)
	})
}

func TestConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	_, err := db.ExecuteCommit(ctx, "CREATE TABLE transactions (timestamp TEXT, address TEXT, amount TEXT)")
	require.NoError(t, err)

	const goroutines = 10
	const perGoroutine = 20

	wg := sync.WaitGroup{}
	errChan := make(chan error, goroutines*perGoroutine)
	for g := range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perGoroutine {
				_, err := db.ExecuteCommit(
					ctx,
					"INSERT INTO transactions VALUES (?, ?, ?)",
					fmt.Sprintf("%d", i), fmt.Sprintf("addr%d", g), "1.0",
				)
				if err != nil {
					errChan <- err
				}
			}
		}()
	}
	wg.Wait()
	close(errChan)

	for err := range errChan {
		require.NoError(t, err)
	}

	row, err := db.FetchOne(ctx, "SELECT COUNT(*) FROM transactions")
	require.NoError(t, err)
	assert.Equal(t, int64(goroutines*perGoroutine), row[0])
}

func TestContextCancellation(t *testing.T) {
	db := newTestDB(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := db.FetchAll(ctx, "SELECT 1")
	assert.ErrorIs(t, err, context.Canceled)
}
