// Package db is the database engine of sqlitemultid. It serializes
// all writes through a single connection while serving reads from a
// small read-only pool, so many clients can share one SQLite file.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/eggpool/sqlitemulti/internal/log"
	"github.com/eggpool/sqlitemulti/internal/multid/stats"
	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"github.com/orsinium-labs/enum"
)

// Config represents the configuration for a DB instance.
type Config struct {
	// Logger is the shared sqlitemultid logger.
	Logger log.Logger
	// Stats is the shared stats collector.
	Stats *stats.DBStats
	// Directory is the directory where the database files are stored.
	Directory string
	// DisableOptimizations disables the startup performance pragmas
	// for the underlying SQLite database.
	DisableOptimizations bool
	// TransactionIdleTimeout is how long a transaction may stay unused
	// before it is rolled back.
	TransactionIdleTimeout time.Duration
	// ReadPoolSize is the number of connections of the read-only pool.
	// Zero picks a size based on the number of CPUs.
	ReadPoolSize int
}

// DB coordinates all access to the underlying SQLite database.
type DB struct {
	Config
	isInitialized           bool
	readWriteConn           *sql.DB
	readOnlyConn            *sql.DB
	transactions            map[string]transactionData
	transactionsMutex       sync.Mutex
	transactionsMonitorStop chan struct{}
	writeChan               chan writeTask
	statsFilePath           string
	statsSyncStop           chan struct{}
	wg                      sync.WaitGroup
}

// transactionData holds a *sql.Tx and the last time it was accessed.
type transactionData struct {
	tx       *sql.Tx
	lastUsed time.Time
}

// Query represents a query to be executed.
type Query struct {
	TxId   string
	Query  string
	Params []any
}

// writeTask holds the info needed to process a single write request.
type writeTask struct {
	query      Query
	resultChan chan QueryResult
	errorChan  chan error
}

// WriteResult represents the result of a write query.
type WriteResult struct {
	LastInsertID int64
	RowsAffected int64
}

// ReadResult represents the materialized result of a read query.
type ReadResult struct {
	Columns []string
	Types   []string
	Values  [][]any
}

// QueryResult represents the result of a query.
type QueryResult struct {
	Type        queryType
	TxId        string
	WriteResult WriteResult
	ReadResult  ReadResult
}

// NewDB creates a new DB instance and starts its background workers.
func NewDB(config Config) (*DB, error) {
	if !config.Logger.IsInitialized() {
		return nil, errors.New("logger is required")
	}
	if config.Stats == nil {
		return nil, errors.New("stats collector is required")
	}
	if config.Directory == "" {
		return nil, errors.New("database directory is required")
	}
	if config.TransactionIdleTimeout <= 0 {
		return nil, errors.New("transaction idle timeout must be provided")
	}
	if err := os.MkdirAll(config.Directory, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	databasePath := path.Join(config.Directory, "database.sqlite")

	readWriteConn := sql.OpenDB(
		newConnector(databasePath, false, config.DisableOptimizations),
	)
	readWriteConn.SetConnMaxIdleTime(0)
	readWriteConn.SetConnMaxLifetime(0)
	readWriteConn.SetMaxIdleConns(1)
	readWriteConn.SetMaxOpenConns(1)
	if err := readWriteConn.Ping(); err != nil {
		_ = readWriteConn.Close()
		return nil, fmt.Errorf("failed to ping write connection: %w", err)
	}

	maxOpenConns := config.ReadPoolSize
	if maxOpenConns < 1 {
		maxOpenConns = runtime.NumCPU() * 2
	}

	readOnlyConn := sql.OpenDB(
		newConnector(databasePath, true, config.DisableOptimizations),
	)
	readOnlyConn.SetConnMaxIdleTime(0)
	readOnlyConn.SetConnMaxLifetime(0)
	readOnlyConn.SetMaxIdleConns(maxOpenConns)
	readOnlyConn.SetMaxOpenConns(maxOpenConns)
	if err := readOnlyConn.Ping(); err != nil {
		_ = readWriteConn.Close()
		_ = readOnlyConn.Close()
		return nil, fmt.Errorf("failed to ping read connection: %w", err)
	}

	db := &DB{
		Config:                  config,
		isInitialized:           true,
		readWriteConn:           readWriteConn,
		readOnlyConn:            readOnlyConn,
		transactions:            make(map[string]transactionData),
		transactionsMonitorStop: make(chan struct{}),
		writeChan:               make(chan writeTask),
		statsFilePath:           path.Join(config.Directory, "stats.json"),
		statsSyncStop:           make(chan struct{}),
	}

	db.Stats.LoadFromFile(db.statsFilePath)

	db.wg.Add(1)
	go db.processWriteChan()

	db.wg.Add(1)
	go db.monitorIdleTransactions(config.TransactionIdleTimeout)

	db.wg.Add(1)
	go db.runStatsSync()

	config.Logger.InfoNs(log.NsDatabase, "database started", log.KV{
		"path": databasePath,
	})
	return db, nil
}

// IsInitialized returns whether the DB instance is initialized.
func (db *DB) IsInitialized() bool {
	return db.isInitialized
}

// runStatsSync periodically flushes stats to the stats file.
func (db *DB) runStatsSync() {
	defer db.wg.Done()
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-db.statsSyncStop:
			return
		case <-ticker.C:
			if err := db.Stats.SaveToFile(db.statsFilePath); err != nil {
				db.Logger.WarnNs(log.NsDatabase, "failed to save stats", log.KV{
					"error": err.Error(),
				})
			}
		}
	}
}

// monitorIdleTransactions rolls back transactions not used within the
// timeout.
func (db *DB) monitorIdleTransactions(timeout time.Duration) {
	defer db.wg.Done()
	ticker := time.NewTicker(timeout)
	defer ticker.Stop()

	for {
		select {
		case <-db.transactionsMonitorStop:
			return
		case <-ticker.C:
			db.rollbackIdleTransactions(timeout)
		}
	}
}

func (db *DB) rollbackIdleTransactions(timeout time.Duration) {
	db.transactionsMutex.Lock()
	defer db.transactionsMutex.Unlock()

	now := time.Now()
	for txId, data := range db.transactions {
		if now.Sub(data.lastUsed) > timeout {
			_ = data.tx.Rollback()
			delete(db.transactions, txId)
			db.Stats.DecQueuedTransactions()
			db.Logger.WarnNs(log.NsDatabase, "rolled back idle transaction", log.KV{
				"txId": txId,
			})
		}
	}
}

// Close attempts a graceful shutdown of everything this DB manages.
func (db *DB) Close() error {
	close(db.writeChan)
	close(db.transactionsMonitorStop)
	close(db.statsSyncStop)

	db.wg.Wait()
	_ = db.Stats.SaveToFile(db.statsFilePath)

	db.transactionsMutex.Lock()
	for txId, data := range db.transactions {
		_ = data.tx.Rollback()
		delete(db.transactions, txId)
	}
	db.transactionsMutex.Unlock()

	if db.readWriteConn != nil {
		if err := db.readWriteConn.Close(); err != nil {
			return fmt.Errorf("failed to close write connection: %w", err)
		}
	}

	if db.readOnlyConn != nil {
		if err := db.readOnlyConn.Close(); err != nil {
			return fmt.Errorf("failed to close read connections: %w", err)
		}
	}

	return nil
}

// processWriteChan processes all incoming write tasks one at a time.
func (db *DB) processWriteChan() {
	defer db.wg.Done()
	for task := range db.writeChan {
		tx, found := db.getTransactionById(task.query.TxId)

		var result sql.Result
		var err error
		if found {
			result, err = tx.Exec(task.query.Query, task.query.Params...)
		} else {
			result, err = db.readWriteConn.Exec(task.query.Query, task.query.Params...)
		}
		if err != nil {
			task.errorChan <- fmt.Errorf("failed to execute write query: %w", err)
			continue
		}

		lastInsertId, err := result.LastInsertId()
		if err != nil {
			task.errorChan <- fmt.Errorf("failed to get last insert ID: %w", err)
			continue
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			task.errorChan <- fmt.Errorf("failed to get rows affected: %w", err)
			continue
		}

		db.Stats.IncWrites()
		task.resultChan <- QueryResult{
			TxId: task.query.TxId,
			Type: QueryTypeWrite,
			WriteResult: WriteResult{
				LastInsertID: lastInsertId,
				RowsAffected: rowsAffected,
			},
		}
	}
}

// queryType represents the type of a given SQLite query.
type queryType enum.Member[string]

var (
	QueryTypeUnknown  = queryType{Value: "unknown"}
	QueryTypeRead     = queryType{Value: "read"}
	QueryTypeWrite    = queryType{Value: "write"}
	QueryTypeBegin    = queryType{Value: "begin"}
	QueryTypeCommit   = queryType{Value: "commit"}
	QueryTypeRollback = queryType{Value: "rollback"}
)

// detectQueryType detects the type of query between read, write,
// begin, commit, and rollback.
func (db *DB) detectQueryType(
	ctx context.Context, query string,
) (queryType, error) {
	trimmed := strings.ToLower(strings.TrimSpace(query))

	switch {
	case strings.HasPrefix(trimmed, "begin"):
		return QueryTypeBegin, nil
	case strings.HasPrefix(trimmed, "commit"), strings.HasPrefix(trimmed, "end transaction"):
		return QueryTypeCommit, nil
	case strings.HasPrefix(trimmed, "rollback"):
		return QueryTypeRollback, nil
	}

	conn, err := db.readOnlyConn.Conn(ctx)
	if err != nil {
		return QueryTypeUnknown, fmt.Errorf("failed to get connection: %w", err)
	}
	defer conn.Close()

	isReadOnly := false
	err = conn.Raw(func(driverConn any) error {
		sqliteConn := driverConn.(*sqlite3.SQLiteConn)
		drvStmt, err := sqliteConn.Prepare(query)
		if err != nil {
			return err
		}
		defer drvStmt.Close()
		sqliteStmt := drvStmt.(*sqlite3.SQLiteStmt)
		isReadOnly = sqliteStmt.Readonly()
		return nil
	})
	if err != nil {
		return QueryTypeUnknown, fmt.Errorf("failed to prepare statement: %w", err)
	}

	if isReadOnly {
		return QueryTypeRead, nil
	}
	return QueryTypeWrite, nil
}

// Query executes an SQLite query of any type.
func (db *DB) Query(ctx context.Context, query Query) (QueryResult, error) {
	typeOfQuery, err := db.detectQueryType(ctx, query.Query)
	if err != nil {
		return QueryResult{}, fmt.Errorf("failed to detect query type: %w", err)
	}

	switch typeOfQuery {
	case QueryTypeRead:
		return db.executeReadQuery(ctx, query)
	case QueryTypeBegin:
		return db.executeBeginQuery()
	case QueryTypeCommit:
		return db.executeCommitQuery(query)
	case QueryTypeRollback:
		return db.executeRollbackQuery(query)
	case QueryTypeWrite:
		return db.executeWriteQuery(ctx, query)
	}

	return QueryResult{}, fmt.Errorf("unknown query type: %s", typeOfQuery.Value)
}

// executeBeginQuery starts a new named transaction.
func (db *DB) executeBeginQuery() (QueryResult, error) {
	tx, err := db.readWriteConn.Begin()
	if err != nil {
		return QueryResult{}, fmt.Errorf("failed to begin transaction: %w", err)
	}

	txId := uuid.NewString()

	db.transactionsMutex.Lock()
	db.transactions[txId] = transactionData{
		tx:       tx,
		lastUsed: time.Now(),
	}
	db.transactionsMutex.Unlock()

	db.Stats.IncBegins()
	db.Stats.IncQueuedTransactions()

	return QueryResult{
		Type: QueryTypeBegin,
		TxId: txId,
	}, nil
}

// executeCommitQuery commits an existing transaction.
func (db *DB) executeCommitQuery(query Query) (QueryResult, error) {
	tx, found := db.getTransactionById(query.TxId)
	if !found {
		return QueryResult{}, errors.New("no transaction found for commit")
	}
	if err := tx.Commit(); err != nil {
		return QueryResult{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	db.forgetTransaction(query.TxId)
	db.Stats.IncCommits()

	return QueryResult{
		Type: QueryTypeCommit,
		TxId: query.TxId,
	}, nil
}

// executeRollbackQuery rolls back an existing transaction.
func (db *DB) executeRollbackQuery(query Query) (QueryResult, error) {
	tx, found := db.getTransactionById(query.TxId)
	if !found {
		return QueryResult{}, errors.New("no transaction found for rollback")
	}
	if err := tx.Rollback(); err != nil {
		return QueryResult{}, fmt.Errorf("failed to rollback transaction: %w", err)
	}

	db.forgetTransaction(query.TxId)
	db.Stats.IncRollbacks()

	return QueryResult{
		Type: QueryTypeRollback,
		TxId: query.TxId,
	}, nil
}

// getTransactionById returns a transaction by its ID and updates its
// lastUsed time.
func (db *DB) getTransactionById(txId string) (*sql.Tx, bool) {
	if txId == "" {
		return nil, false
	}

	db.transactionsMutex.Lock()
	defer db.transactionsMutex.Unlock()

	data, found := db.transactions[txId]
	if !found {
		return nil, false
	}

	data.lastUsed = time.Now()
	db.transactions[txId] = data

	return data.tx, true
}

func (db *DB) forgetTransaction(txId string) {
	db.transactionsMutex.Lock()
	defer db.transactionsMutex.Unlock()

	if _, found := db.transactions[txId]; found {
		delete(db.transactions, txId)
		db.Stats.DecQueuedTransactions()
	}
}

// executeWriteQuery sends the task to the single writer and waits for
// its response.
func (db *DB) executeWriteQuery(
	ctx context.Context, query Query,
) (QueryResult, error) {
	db.Stats.IncQueuedWrites()
	defer db.Stats.DecQueuedWrites()

	task := writeTask{
		query:      query,
		resultChan: make(chan QueryResult, 1),
		errorChan:  make(chan error, 1),
	}

	select {
	case db.writeChan <- task:
	case <-ctx.Done():
		return QueryResult{}, ctx.Err()
	}

	select {
	case res := <-task.resultChan:
		return res, nil
	case err := <-task.errorChan:
		return QueryResult{}, err
	case <-ctx.Done():
		return QueryResult{}, ctx.Err()
	}
}

// executeReadQuery executes a read query and materializes its rows.
func (db *DB) executeReadQuery(
	ctx context.Context, query Query,
) (QueryResult, error) {
	tx, found := db.getTransactionById(query.TxId)

	var result *sql.Rows
	var err error
	if found {
		result, err = tx.QueryContext(ctx, query.Query, query.Params...)
	} else {
		result, err = db.readOnlyConn.QueryContext(ctx, query.Query, query.Params...)
	}
	if err != nil {
		return QueryResult{}, fmt.Errorf("failed to execute read query: %w", err)
	}
	defer result.Close()

	columns, err := result.Columns()
	if err != nil {
		return QueryResult{}, fmt.Errorf("failed to get columns: %w", err)
	}

	types, typesOk := []string{}, false
	values := [][]any{}
	for result.Next() {
		row := make([]any, len(columns))
		scans := make([]any, len(columns))
		for i := range scans {
			scans[i] = &row[i]
		}

		if err = result.Scan(scans...); err != nil {
			return QueryResult{}, fmt.Errorf("failed to scan row: %w", err)
		}

		if !typesOk {
			enhancedTypes, err := getColumnTypes(result, row)
			if err != nil {
				return QueryResult{}, err
			}
			types, typesOk = enhancedTypes, true
		}

		values = append(values, row)
	}
	if err := result.Err(); err != nil {
		return QueryResult{}, fmt.Errorf("failed to iterate rows: %w", err)
	}

	db.Stats.IncReads()
	return QueryResult{
		TxId: query.TxId,
		Type: QueryTypeRead,
		ReadResult: ReadResult{
			Columns: columns,
			Types:   types,
			Values:  values,
		},
	}, nil
}

// getColumnTypes returns the column types for a read query.
//
// It first asks the driver, and for columns without a declared type it
// infers one from the first row following the SQLite datatypes
// documentation https://www.sqlite.org/datatype3.html.
func getColumnTypes(result *sql.Rows, singleRow []any) ([]string, error) {
	types, err := result.ColumnTypes()
	if err != nil {
		return []string{}, fmt.Errorf("failed to get column types: %w", err)
	}

	typeNames := make([]string, len(types))
	hasEmptyTypes := false
	for i, t := range types {
		typeNames[i] = strings.ToLower(t.DatabaseTypeName())
		if typeNames[i] == "" {
			hasEmptyTypes = true
		}
	}

	if !hasEmptyTypes {
		return typeNames, nil
	}

	for i := range typeNames {
		if typeNames[i] != "" {
			continue
		}

		switch singleRow[i].(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			typeNames[i] = "integer"
		case float32, float64:
			typeNames[i] = "real"
		case bool:
			typeNames[i] = "boolean"
		case []byte:
			typeNames[i] = "blob"
		case string:
			typeNames[i] = "text"
		default:
			typeNames[i] = ""
		}
	}

	return typeNames, nil
}
