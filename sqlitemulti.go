package sqlitemulti

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/eggpool/sqlitemulti/internal/log"
	_ "github.com/mattn/go-sqlite3"
)

var (
	// ErrStopped is returned for commands submitted after Stop.
	ErrStopped = errors.New("sqlitemulti: database is stopped")
	// ErrNotStopping is returned by Join when Stop was not called first.
	ErrNotStopping = errors.New("sqlitemulti: join requires a previous stop")
)

// ExecResult reports the outcome of a write statement.
type ExecResult struct {
	LastInsertID int64
	RowsAffected int64
}

// options holds the tunables accepted by Connect.
type options struct {
	busyTimeout time.Duration
	autoCommit  bool
	queueSize   int
	isURI       bool
	logWriter   io.Writer
}

// Option configures a DB created by Connect.
type Option func(*options)

// WithBusyTimeout sets the SQLite busy timeout. Default is 5s.
func WithBusyTimeout(d time.Duration) Option {
	return func(o *options) { o.busyTimeout = d }
}

// WithAutoCommit makes every write statement commit on its own instead
// of accumulating in a pending transaction until a commit is requested.
func WithAutoCommit() Option {
	return func(o *options) { o.autoCommit = true }
}

// WithQueueSize sets the command queue buffer. Default is 128.
func WithQueueSize(n int) Option {
	return func(o *options) { o.queueSize = n }
}

// WithURI treats the database argument of Connect as a complete SQLite
// URI instead of a plain file path.
func WithURI() Option {
	return func(o *options) { o.isURI = true }
}

// WithLogWriter enables JSON logging to the given writer. Logging is
// disabled by default.
func WithLogWriter(w io.Writer) Option {
	return func(o *options) { o.logWriter = w }
}

// DB is a SQLite database handle safe for use from many goroutines.
// All operations are executed one at a time by a single worker that
// owns the underlying connection.
type DB struct {
	conn     *sql.DB
	logger   log.Logger
	requests chan request
	done     chan struct{}

	queued   int64
	inTx     atomic.Bool
	stopping atomic.Bool
}

// Connect opens the database and starts the worker that owns its
// connection. The returned DB must be released with Stop and Join.
func Connect(database string, opts ...Option) (*DB, error) {
	o := options{
		busyTimeout: 5 * time.Second,
		queueSize:   128,
		logWriter:   io.Discard,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.queueSize < 0 {
		return nil, errors.New("sqlitemulti: queue size cannot be negative")
	}

	dsn := database
	if !o.isURI {
		qp := url.Values{}
		qp.Add("_busy_timeout", fmt.Sprintf("%d", o.busyTimeout.Milliseconds()))
		dsn = fmt.Sprintf("file:%s?%s", database, qp.Encode())
	}

	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	conn.SetConnMaxIdleTime(0)
	conn.SetConnMaxLifetime(0)
	conn.SetMaxIdleConns(1)
	conn.SetMaxOpenConns(1)
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{
		conn:     conn,
		logger:   log.NewLogger(o.logWriter),
		requests: make(chan request, o.queueSize),
		done:     make(chan struct{}),
	}

	go db.worker(o.autoCommit)

	db.logger.InfoNs(log.NsWorker, "database started", log.KV{
		"database": database,
	})
	return db, nil
}

// Execute runs a single write statement without committing. The
// statement joins the pending transaction unless autocommit is enabled.
func (db *DB) Execute(ctx context.Context, query string, params ...any) (ExecResult, error) {
	res, err := db.do(ctx, request{
		command: commandExecute,
		sql:     query,
		params:  params,
	})
	return res.exec, err
}

// ExecuteCommit runs a single write statement and commits the pending
// transaction afterwards.
func (db *DB) ExecuteCommit(ctx context.Context, query string, params ...any) (ExecResult, error) {
	res, err := db.do(ctx, request{
		command: commandExecute,
		sql:     query,
		params:  params,
		commit:  true,
	})
	return res.exec, err
}

// ExecScript runs all statements inside one transaction. Any failure
// rolls the whole transaction back; success commits it. It returns the
// number of statements executed.
func (db *DB) ExecScript(ctx context.Context, stmts []Statement) (int, error) {
	if len(stmts) == 0 {
		return 0, errors.New("sqlitemulti: empty script")
	}
	res, err := db.do(ctx, request{
		command: commandScript,
		script:  stmts,
	})
	return res.count, err
}

// ExecuteMany runs the statement once per parameter tuple inside one
// transaction and commits it.
func (db *DB) ExecuteMany(ctx context.Context, query string, paramsList [][]any) (ExecResult, error) {
	res, err := db.do(ctx, request{
		command: commandExecuteMany,
		sql:     query,
		many:    paramsList,
		commit:  true,
	})
	return res.exec, err
}

// Insert runs an insert statement, commits, and returns the id of the
// inserted row.
func (db *DB) Insert(ctx context.Context, query string, params ...any) (int64, error) {
	res, err := db.do(ctx, request{
		command: commandInsert,
		sql:     query,
		params:  params,
		commit:  true,
	})
	return res.exec.LastInsertID, err
}

// Delete runs a delete statement, commits, and returns the number of
// deleted rows.
func (db *DB) Delete(ctx context.Context, query string, params ...any) (int64, error) {
	res, err := db.do(ctx, request{
		command: commandDelete,
		sql:     query,
		params:  params,
		commit:  true,
	})
	return res.exec.RowsAffected, err
}

// FetchOne runs a query and returns its first row, or nil when the
// query yields no rows.
func (db *DB) FetchOne(ctx context.Context, query string, params ...any) ([]any, error) {
	res, err := db.do(ctx, request{
		command: commandFetchOne,
		sql:     query,
		params:  params,
	})
	return res.row, err
}

// FetchAll runs a query and returns all of its rows.
func (db *DB) FetchAll(ctx context.Context, query string, params ...any) ([][]any, error) {
	res, err := db.do(ctx, request{
		command: commandFetchAll,
		sql:     query,
		params:  params,
	})
	return res.rows, err
}

// Commit commits the pending transaction, if any.
func (db *DB) Commit(ctx context.Context) error {
	_, err := db.do(ctx, request{command: commandCommit})
	return err
}

// Stop signals the worker to finish. Commands already queued are still
// executed; commands submitted afterwards fail with ErrStopped.
func (db *DB) Stop() error {
	if db.stopping.Swap(true) {
		return ErrStopped
	}
	db.logger.InfoNs(log.NsWorker, "stop requested")
	db.requests <- request{
		command:    commandStop,
		resultChan: make(chan result, 1),
		errorChan:  make(chan error, 1),
	}
	return nil
}

// Join waits until the worker ends nicely. It must only be called
// after Stop, otherwise it would never return.
func (db *DB) Join() error {
	if !db.stopping.Load() {
		return ErrNotStopping
	}
	<-db.done
	return nil
}

// do enqueues the request and waits for its answer.
func (db *DB) do(ctx context.Context, req request) (result, error) {
	if db.stopping.Load() {
		return result{}, ErrStopped
	}
	if err := ctx.Err(); err != nil {
		return result{}, err
	}

	req.resultChan = make(chan result, 1)
	req.errorChan = make(chan error, 1)

	atomic.AddInt64(&db.queued, 1)
	defer atomic.AddInt64(&db.queued, -1)

	select {
	case db.requests <- req:
	case <-db.done:
		return result{}, ErrStopped
	case <-ctx.Done():
		return result{}, ctx.Err()
	}

	select {
	case res := <-req.resultChan:
		return res, nil
	case err := <-req.errorChan:
		return result{}, err
	case <-ctx.Done():
		return result{}, ctx.Err()
	case <-db.done:
		// The worker may have answered just before exiting.
		select {
		case res := <-req.resultChan:
			return res, nil
		case err := <-req.errorChan:
			return result{}, err
		default:
			return result{}, ErrStopped
		}
	}
}
