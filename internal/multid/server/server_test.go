package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/eggpool/sqlitemulti"
	"github.com/eggpool/sqlitemulti/internal/log"
	"github.com/eggpool/sqlitemulti/internal/multid/db"
	"github.com/eggpool/sqlitemulti/internal/multid/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, authToken string) *httptest.Server {
	t.Helper()

	logger := log.NewLogger(io.Discard)
	dbStats := stats.NewDBStats()
	t.Cleanup(dbStats.Close)

	instance, err := db.NewDB(db.Config{
		Logger:                 logger,
		Stats:                  dbStats,
		Directory:              t.TempDir(),
		TransactionIdleTimeout: time.Minute,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = instance.Close() })

	srv, err := NewServer(Config{
		Logger:             logger,
		Db:                 instance,
		Stats:              dbStats,
		AuthToken:          authToken,
		AuthTokenAlgorithm: "plaintext",
	})
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestServerValidation(t *testing.T) {
	dbStats := stats.NewDBStats()
	defer dbStats.Close()

	t.Run("MissingDb", func(t *testing.T) {
		_, err := NewServer(Config{Stats: dbStats})
		assert.Error(t, err)
	})
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t, "")

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))
	assert.Equal(t, "sqlitemulti", resp.Header.Get("X-Server"))
}

func TestRemoteRoundTrip(t *testing.T) {
	ctx := context.Background()
	ts := newTestServer(t, "")

	remote, err := sqlitemulti.ConnectRemote(ts.URL)
	require.NoError(t, err)
	require.NoError(t, remote.Ping(ctx))

	_, err = remote.Execute(ctx, "CREATE TABLE users (id INTEGER PRIMARY KEY, email TEXT)")
	require.NoError(t, err)

	res, err := remote.Execute(ctx,
		"INSERT INTO users (email) VALUES (?)", "a@example.com",
	)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.LastInsertID)
	assert.Equal(t, int64(1), res.RowsAffected)

	rows, err := remote.FetchAll(ctx, "SELECT id, email FROM users")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "a@example.com", rows[0][1])

	_, err = remote.Query(ctx, "SELECT * FROM missing")
	assert.Error(t, err)
}

func TestRemoteTransactions(t *testing.T) {
	ctx := context.Background()
	ts := newTestServer(t, "")

	remote, err := sqlitemulti.ConnectRemote(ts.URL)
	require.NoError(t, err)

	_, err = remote.Execute(ctx, "CREATE TABLE users (id INTEGER PRIMARY KEY, email TEXT)")
	require.NoError(t, err)

	t.Run("Commit", func(t *testing.T) {
		txId, err := remote.Begin(ctx)
		require.NoError(t, err)
		require.NotEmpty(t, txId)

		_, err = remote.QueryTx(ctx, txId,
			"INSERT INTO users (email) VALUES (?)", "tx@example.com",
		)
		require.NoError(t, err)
		require.NoError(t, remote.Commit(ctx, txId))

		row, err := remote.FetchOne(ctx, "SELECT COUNT(*) FROM users")
		require.NoError(t, err)
		assert.Equal(t, float64(1), row[0])
	})

	t.Run("Rollback", func(t *testing.T) {
		txId, err := remote.Begin(ctx)
		require.NoError(t, err)

		_, err = remote.QueryTx(ctx, txId,
			"INSERT INTO users (email) VALUES (?)", "discarded@example.com",
		)
		require.NoError(t, err)
		require.NoError(t, remote.Rollback(ctx, txId))

		row, err := remote.FetchOne(ctx, "SELECT COUNT(*) FROM users")
		require.NoError(t, err)
		assert.Equal(t, float64(1), row[0])
	})
}

func TestAuthEndpoints(t *testing.T) {
	ctx := context.Background()
	ts := newTestServer(t, "secret")

	t.Run("MissingToken", func(t *testing.T) {
		resp, err := http.Post(ts.URL+"/query", "text/plain", nil)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("WrongToken", func(t *testing.T) {
		remote, err := sqlitemulti.ConnectRemote(ts.URL + "?authToken=nope")
		require.NoError(t, err)
		_, err = remote.Query(ctx, "SELECT 1")
		assert.Error(t, err)
	})

	t.Run("ValidToken", func(t *testing.T) {
		remote, err := sqlitemulti.ConnectRemote(ts.URL + "?authToken=secret")
		require.NoError(t, err)
		_, err = remote.Query(ctx, "SELECT 1")
		assert.NoError(t, err)
	})

	t.Run("HealthNeedsNoToken", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/health")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestStatsEndpoint(t *testing.T) {
	ctx := context.Background()
	ts := newTestServer(t, "")

	remote, err := sqlitemulti.ConnectRemote(ts.URL)
	require.NoError(t, err)

	_, err = remote.Execute(ctx, "CREATE TABLE users (id INTEGER PRIMARY KEY)")
	require.NoError(t, err)

	resp, err := http.Get(ts.URL + "/stats")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"writes":1`)
}
